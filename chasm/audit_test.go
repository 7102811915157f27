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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAuditTimeRoundTrip(t *testing.T) {
	t.Parallel()
	for _, instant := range []time.Time{
		time.Date(2023, time.March, 14, 15, 9, 26, 500, time.UTC),
		time.Date(2023, time.March, 14, 15, 9, 26, 0, time.FixedZone("", -5*60*60)),
		time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1969, time.December, 31, 23, 59, 59, 0, time.UTC),
	} {
		audit := NewAudit("alice", instant)
		roundTripped := audit.Time()
		assert.True(t, instant.Equal(roundTripped), "instant %v != %v", instant, roundTripped)
		_, wantOffset := instant.Zone()
		_, gotOffset := roundTripped.Zone()
		assert.Equal(t, wantOffset, gotOffset)
	}
}

func TestAuditUnixEpochTicks(t *testing.T) {
	t.Parallel()
	audit := NewAudit("", time.Unix(0, 0).UTC())
	// 1970-01-01 in ticks since 0001-01-01.
	assert.Equal(t, int64(621_355_968_000_000_000), audit.Ticks)
	assert.Equal(t, int64(0), audit.OffsetTicks)
}

func TestAuditOffsetTicks(t *testing.T) {
	t.Parallel()
	audit := NewAudit("bob", time.Date(2023, time.June, 1, 12, 0, 0, 0, time.FixedZone("", 2*60*60)))
	assert.Equal(t, int64(2*60*60)*TicksPerSecond, audit.OffsetTicks)
}
