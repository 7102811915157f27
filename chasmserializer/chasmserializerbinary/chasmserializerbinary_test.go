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

package chasmserializerbinary

import (
	"testing"

	"github.com/bufbuild/chasm/chasm"
	"github.com/bufbuild/chasm/chasmserializer"
	"github.com/bufbuild/chasm/chasmserializer/chasmserializertesting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConformance(t *testing.T) {
	t.Parallel()
	chasmserializertesting.RunSerializerTests(t, NewSerializer())
}

func TestSerializeDigestIsRawBytes(t *testing.T) {
	t.Parallel()
	serializer := NewSerializer()
	digest := chasm.NewDigestForBytes([]byte("abc"))
	data, err := serializer.SerializeDigest(digest)
	require.NoError(t, err)
	assert.Equal(t, digest[:], data)
}

func TestSerializeEmptyTreeNodeMapIsSingleZeroByte(t *testing.T) {
	t.Parallel()
	serializer := NewSerializer()
	data, err := serializer.SerializeTreeNodeMap(chasm.TreeNodeMap{})
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, data)
}

func TestSerializeTreeNodeMapFraming(t *testing.T) {
	t.Parallel()
	serializer := NewSerializer()
	nodeID := chasm.NewDigestForBytes([]byte("a"))
	treeNodeMap, err := chasm.NewTreeNodeMap(
		chasm.TreeNode{
			Name:   "a",
			Kind:   chasm.NodeKindBlob,
			NodeID: nodeID,
		},
	)
	require.NoError(t, err)
	data, err := serializer.SerializeTreeNodeMap(treeNodeMap)
	require.NoError(t, err)
	expected := []byte{1, 1, 'a', byte(chasm.NodeKindBlob)}
	expected = append(expected, nodeID[:]...)
	assert.Equal(t, expected, data)
}

func TestDeserializeDigestWrongLength(t *testing.T) {
	t.Parallel()
	serializer := NewSerializer()
	_, err := serializer.DeserializeDigest(make([]byte, chasm.DigestLength-1))
	require.Error(t, err)
	assert.True(t, chasmserializer.IsSerializationError(err))
}

func TestDeserializeTreeNodeMapTrailingBytes(t *testing.T) {
	t.Parallel()
	serializer := NewSerializer()
	data, err := serializer.SerializeTreeNodeMap(chasm.TreeNodeMap{})
	require.NoError(t, err)
	_, err = serializer.DeserializeTreeNodeMap(append(data, 0xff))
	require.Error(t, err)
	assert.True(t, chasmserializer.IsSerializationError(err))
}

func TestDeserializeCommitTruncated(t *testing.T) {
	t.Parallel()
	serializer := NewSerializer()
	commit := chasmserializertesting.NewTestCommit(t)
	data, err := serializer.SerializeCommit(commit)
	require.NoError(t, err)
	_, err = serializer.DeserializeCommit(data[:len(data)/2])
	require.Error(t, err)
	assert.True(t, chasmserializer.IsSerializationError(err))
}
