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
	"time"
)

const (
	// TicksPerSecond is the number of audit timestamp ticks per second.
	//
	// A tick is 100 nanoseconds.
	TicksPerSecond = 10_000_000
	// unixEpochTicks is 1970-01-01T00:00:00 UTC in ticks since
	// 0001-01-01T00:00:00 UTC.
	unixEpochTicks = 621_355_968_000_000_000
)

// Audit is a name plus timestamp record attached to a commit, identifying its
// author or committer.
//
// The timestamp is stored as 100-nanosecond ticks since 0001-01-01T00:00:00
// UTC, together with the offset of the local clock from UTC in ticks. Name
// may be empty.
type Audit struct {
	// Name is the display name of the actor.
	Name string
	// Ticks is the instant in 100ns ticks since 0001-01-01T00:00:00 UTC.
	Ticks int64
	// OffsetTicks is the offset of the local clock from UTC in 100ns ticks.
	OffsetTicks int64
}

// NewAudit returns a new Audit for the given name and time.
//
// Sub-tick precision (nanoseconds not divisible by 100) is truncated.
func NewAudit(name string, t time.Time) Audit {
	_, offsetSeconds := t.Zone()
	return Audit{
		Name:        name,
		Ticks:       unixEpochTicks + t.Unix()*TicksPerSecond + int64(t.Nanosecond())/100,
		OffsetTicks: int64(offsetSeconds) * TicksPerSecond,
	}
}

// Time returns the audit instant in its recorded UTC offset.
func (a Audit) Time() time.Time {
	unixTicks := a.Ticks - unixEpochTicks
	seconds := unixTicks / TicksPerSecond
	nanoseconds := (unixTicks % TicksPerSecond) * 100
	offsetSeconds := int(a.OffsetTicks / TicksPerSecond)
	return time.Unix(seconds, nanoseconds).In(time.FixedZone("", offsetSeconds))
}
