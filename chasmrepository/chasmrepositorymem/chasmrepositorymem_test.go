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

package chasmrepositorymem

import (
	"context"
	"testing"

	"github.com/bufbuild/chasm/chasm"
	"github.com/bufbuild/chasm/chasmrepository"
	"github.com/bufbuild/chasm/chasmrepository/chasmrepositorytesting"
	"github.com/bufbuild/chasm/chasmserializer/chasmserializerbinary"
	"github.com/bufbuild/chasm/chasmserializer/chasmserializerjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConformanceBinarySerializer(t *testing.T) {
	t.Parallel()
	chasmrepositorytesting.RunRepositoryTests(t, func(t *testing.T) chasmrepository.Repository {
		return NewRepository(zap.NewNop(), chasmserializerbinary.NewSerializer())
	})
}

func TestConformanceJSONSerializer(t *testing.T) {
	t.Parallel()
	chasmrepositorytesting.RunRepositoryTests(t, func(t *testing.T) chasmrepository.Repository {
		return NewRepository(zap.NewNop(), chasmserializerjson.NewSerializer())
	})
}

func TestReadObjectReturnsCopy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repository := NewRepository(zap.NewNop(), chasmserializerbinary.NewSerializer())
	writeResult, err := repository.WriteObject(ctx, []byte("abc"), chasm.Metadata{}, false)
	require.NoError(t, err)

	blob, ok, err := repository.ReadObject(ctx, writeResult.ID)
	require.NoError(t, err)
	require.True(t, ok)
	blob.Content[0] = 'x'

	blob, ok, err = repository.ReadObject(ctx, writeResult.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), blob.Content)
}
