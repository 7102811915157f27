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

package chasmserializerjson

import (
	"testing"

	"github.com/bufbuild/chasm/chasm"
	"github.com/bufbuild/chasm/chasmserializer"
	"github.com/bufbuild/chasm/chasmserializer/chasmserializertesting"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConformance(t *testing.T) {
	t.Parallel()
	chasmserializertesting.RunSerializerTests(t, NewSerializer())
}

func TestCommitFieldNames(t *testing.T) {
	t.Parallel()
	serializer := NewSerializer()
	data, err := serializer.SerializeCommit(chasmserializertesting.NewTestCommit(t))
	require.NoError(t, err)
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &fields))
	for _, name := range []string{"parents", "treeId", "author", "committer", "message"} {
		assert.Contains(t, fields, name)
	}
}

func TestTreeNodeMapFieldNames(t *testing.T) {
	t.Parallel()
	serializer := NewSerializer()
	data, err := serializer.SerializeTreeNodeMap(chasmserializertesting.NewTestTreeNodeMap(t))
	require.NoError(t, err)
	var fields map[string][]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &fields))
	require.Contains(t, fields, "nodes")
	require.NotEmpty(t, fields["nodes"])
	for _, name := range []string{"name", "kind", "nodeId"} {
		assert.Contains(t, fields["nodes"][0], name)
	}
}

func TestCommitIDFieldNames(t *testing.T) {
	t.Parallel()
	serializer := NewSerializer()
	commitID := chasm.CommitID(chasm.NewDigestForBytes([]byte("commit")))
	data, err := serializer.SerializeCommitID(commitID)
	require.NoError(t, err)
	var fields map[string]string
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, commitID.String(), fields["id"])
}

func TestDigestIsLowercaseHexString(t *testing.T) {
	t.Parallel()
	serializer := NewSerializer()
	data, err := serializer.SerializeDigest(chasm.NewDigestForBytes([]byte("abc")))
	require.NoError(t, err)
	assert.Equal(t, `"a9993e364706816aba3e25717850c26c9cd0d89d"`, string(data))
}

func TestMessageOmittedWhenEmpty(t *testing.T) {
	t.Parallel()
	serializer := NewSerializer()
	commit := chasm.NewCommit(nil, chasm.TreeID{}, chasm.Audit{}, chasm.Audit{}, "")
	data, err := serializer.SerializeCommit(commit)
	require.NoError(t, err)
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.NotContains(t, fields, "message")
}

func TestDeserializeMalformedInput(t *testing.T) {
	t.Parallel()
	serializer := NewSerializer()
	_, err := serializer.DeserializeCommit([]byte(`{"parents": [42]}`))
	require.Error(t, err)
	assert.True(t, chasmserializer.IsSerializationError(err))

	_, err = serializer.DeserializeDigest([]byte(`"not-hex"`))
	require.Error(t, err)
	assert.True(t, chasmserializer.IsSerializationError(err))
}
