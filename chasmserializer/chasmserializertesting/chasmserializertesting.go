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

// Package chasmserializertesting provides the conformance test suite every
// Serializer implementation must pass.
package chasmserializertesting

import (
	"strings"
	"testing"
	"time"

	"github.com/bufbuild/chasm/chasm"
	"github.com/bufbuild/chasm/chasmserializer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSerializerTests runs the serializer conformance suite.
func RunSerializerTests(t *testing.T, serializer chasmserializer.Serializer) {
	t.Run("DigestRoundTrip", func(t *testing.T) {
		testDigestRoundTrip(t, serializer)
	})
	t.Run("TreeNodeMapRoundTrip", func(t *testing.T) {
		testTreeNodeMapRoundTrip(t, serializer)
	})
	t.Run("CommitRoundTrip", func(t *testing.T) {
		testCommitRoundTrip(t, serializer)
	})
	t.Run("CommitIDRoundTrip", func(t *testing.T) {
		testCommitIDRoundTrip(t, serializer)
	})
	t.Run("EmptyInput", func(t *testing.T) {
		testEmptyInput(t, serializer)
	})
	t.Run("Stability", func(t *testing.T) {
		testStability(t, serializer)
	})
}

func testDigestRoundTrip(t *testing.T, serializer chasmserializer.Serializer) {
	for _, digest := range []chasm.Digest{
		{},
		chasm.NewDigestForBytes([]byte("abc")),
		chasm.NewDigestForBytes([]byte("chasm")),
	} {
		data, err := serializer.SerializeDigest(digest)
		require.NoError(t, err)
		roundTripped, err := serializer.DeserializeDigest(data)
		require.NoError(t, err)
		assert.Equal(t, digest, roundTripped)
	}
}

func testTreeNodeMapRoundTrip(t *testing.T, serializer chasmserializer.Serializer) {
	empty := chasm.TreeNodeMap{}
	data, err := serializer.SerializeTreeNodeMap(empty)
	require.NoError(t, err)
	roundTripped, err := serializer.DeserializeTreeNodeMap(data)
	require.NoError(t, err)
	assert.True(t, empty.Equal(roundTripped))
	assert.Equal(t, 0, roundTripped.Len())

	treeNodeMap := NewTestTreeNodeMap(t)
	data, err = serializer.SerializeTreeNodeMap(treeNodeMap)
	require.NoError(t, err)
	roundTripped, err = serializer.DeserializeTreeNodeMap(data)
	require.NoError(t, err)
	assert.True(t, treeNodeMap.Equal(roundTripped))
	assert.Equal(t, treeNodeMap.Nodes(), roundTripped.Nodes())
}

func testCommitRoundTrip(t *testing.T, serializer chasmserializer.Serializer) {
	for _, commit := range []chasm.Commit{
		chasm.NewCommit(
			nil,
			chasm.TreeID{},
			NewTestAudit("alice"),
			NewTestAudit("bob"),
			"",
		),
		NewTestCommit(t),
		chasm.NewCommit(
			[]chasm.CommitID{
				chasm.CommitID(chasm.NewDigestForBytes([]byte("one"))),
				chasm.CommitID(chasm.NewDigestForBytes([]byte("two"))),
				chasm.CommitID(chasm.NewDigestForBytes([]byte("three"))),
			},
			chasm.TreeID(chasm.NewDigestForBytes([]byte("tree"))),
			NewTestAudit(""),
			NewTestAudit(""),
			strings.Repeat("long message ", 100),
		),
	} {
		data, err := serializer.SerializeCommit(commit)
		require.NoError(t, err)
		roundTripped, err := serializer.DeserializeCommit(data)
		require.NoError(t, err)
		assert.True(t, commit.Equal(roundTripped), "commit %v != %v", commit, roundTripped)
	}
}

func testCommitIDRoundTrip(t *testing.T, serializer chasmserializer.Serializer) {
	commitID := chasm.CommitID(chasm.NewDigestForBytes([]byte("commit")))
	data, err := serializer.SerializeCommitID(commitID)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(data), chasm.DigestLength)
	roundTripped, err := serializer.DeserializeCommitID(data)
	require.NoError(t, err)
	assert.Equal(t, commitID, roundTripped)
}

func testEmptyInput(t *testing.T, serializer chasmserializer.Serializer) {
	digest, err := serializer.DeserializeDigest(nil)
	require.NoError(t, err)
	assert.True(t, digest.IsZero())

	treeNodeMap, err := serializer.DeserializeTreeNodeMap(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, treeNodeMap.Len())

	commit, err := serializer.DeserializeCommit(nil)
	require.NoError(t, err)
	assert.True(t, commit.Equal(chasm.Commit{}))

	commitID, err := serializer.DeserializeCommitID(nil)
	require.NoError(t, err)
	assert.True(t, commitID.IsZero())
}

func testStability(t *testing.T, serializer chasmserializer.Serializer) {
	commit := NewTestCommit(t)
	first, err := serializer.SerializeCommit(commit)
	require.NoError(t, err)
	second, err := serializer.SerializeCommit(commit)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

// NewTestTreeNodeMap returns a TreeNodeMap with blob and tree nodes for tests.
func NewTestTreeNodeMap(t *testing.T) chasm.TreeNodeMap {
	treeNodeMap, err := chasm.NewTreeNodeMap(
		chasm.TreeNode{
			Name:   "readme.md",
			Kind:   chasm.NodeKindBlob,
			NodeID: chasm.NewDigestForBytes([]byte("readme")),
		},
		chasm.TreeNode{
			Name:   "src",
			Kind:   chasm.NodeKindTree,
			NodeID: chasm.NewDigestForBytes([]byte("src")),
		},
		chasm.TreeNode{
			Name:   "LICENSE",
			Kind:   chasm.NodeKindBlob,
			NodeID: chasm.NewDigestForBytes([]byte("license")),
		},
	)
	require.NoError(t, err)
	return treeNodeMap
}

// NewTestAudit returns an Audit with a fixed instant for tests.
func NewTestAudit(name string) chasm.Audit {
	return chasm.NewAudit(
		name,
		time.Date(2023, time.March, 14, 15, 9, 26, 500, time.FixedZone("", -5*60*60)),
	)
}

// NewTestCommit returns a Commit with parents and a message for tests.
func NewTestCommit(t *testing.T) chasm.Commit {
	return chasm.NewCommit(
		[]chasm.CommitID{
			chasm.CommitID(chasm.NewDigestForBytes([]byte("parent"))),
		},
		chasm.TreeID(chasm.NewDigestForBytes([]byte("tree"))),
		NewTestAudit("alice"),
		NewTestAudit("bob"),
		"add src",
	)
}
