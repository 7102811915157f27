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
	"github.com/stretchr/testify/require"
)

func TestNewCommitCopiesParents(t *testing.T) {
	t.Parallel()
	parents := []CommitID{
		CommitID(NewDigestForBytes([]byte("one"))),
		CommitID(NewDigestForBytes([]byte("two"))),
	}
	commit := NewCommit(parents, TreeID{}, Audit{}, Audit{}, "")
	parents[0] = CommitID{}
	assert.Equal(t, CommitID(NewDigestForBytes([]byte("one"))), commit.Parents[0])
}

func TestCommitEqual(t *testing.T) {
	t.Parallel()
	audit := NewAudit("alice", time.Unix(1700000000, 0).UTC())
	first := NewCommit(
		[]CommitID{CommitID(NewDigestForBytes([]byte("parent")))},
		TreeID(NewDigestForBytes([]byte("tree"))),
		audit,
		audit,
		"message",
	)
	second := NewCommit(
		[]CommitID{CommitID(NewDigestForBytes([]byte("parent")))},
		TreeID(NewDigestForBytes([]byte("tree"))),
		audit,
		audit,
		"message",
	)
	assert.True(t, first.Equal(second))

	reordered := NewCommit(
		[]CommitID{CommitID(NewDigestForBytes([]byte("other")))},
		first.TreeID,
		audit,
		audit,
		"message",
	)
	assert.False(t, first.Equal(reordered))

	differentMessage := NewCommit(first.Parents, first.TreeID, audit, audit, "")
	assert.False(t, first.Equal(differentMessage))
}

func TestNewCommitRefRequiresBranch(t *testing.T) {
	t.Parallel()
	_, err := NewCommitRef("", CommitID{})
	require.Error(t, err)

	commitRef, err := NewCommitRef("main", CommitID(NewDigestForBytes([]byte("c"))))
	require.NoError(t, err)
	assert.False(t, commitRef.IsZero())
	assert.True(t, CommitRef{}.IsZero())
}
