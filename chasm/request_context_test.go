// Copyright 2020-2023 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chasm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestContextRoundTrip(t *testing.T) {
	t.Parallel()
	requestContext, err := NewRequestContext("chasm-test/1.0")
	require.NoError(t, err)
	assert.False(t, requestContext.IsZero())
	assert.False(t, requestContext.CorrelationID.IsNil())

	ctx := WithRequestContext(context.Background(), requestContext)
	fromContext, ok := RequestContextFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, requestContext, fromContext)
}

func TestRequestContextAbsent(t *testing.T) {
	t.Parallel()
	_, ok := RequestContextFromContext(context.Background())
	assert.False(t, ok)
}

func TestRequestContextCorrelationIDsAreUnique(t *testing.T) {
	t.Parallel()
	first, err := NewRequestContext("")
	require.NoError(t, err)
	second, err := NewRequestContext("")
	require.NoError(t, err)
	assert.NotEqual(t, first.CorrelationID, second.CorrelationID)
}
