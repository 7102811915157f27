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

// Package chasmserializerbinary implements the compact binary codec.
//
// Records are length-prefixed with unsigned varints. Digests are raw 20-byte
// values. A commit is its parents as a length-prefixed list of digests, the
// tree digest, two audit records of length-prefixed name plus two
// little-endian int64s, and a presence byte followed by the message.
package chasmserializerbinary

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/bufbuild/chasm/chasm"
	"github.com/bufbuild/chasm/chasmserializer"
)

const (
	entityDigest      = "digest"
	entityTreeNodeMap = "tree node map"
	entityCommit      = "commit"
	entityCommitID    = "commit id"
)

// NewSerializer returns a new binary Serializer.
func NewSerializer() chasmserializer.Serializer {
	return newSerializer()
}

type serializer struct{}

func newSerializer() *serializer {
	return &serializer{}
}

func (s *serializer) SerializeDigest(digest chasm.Digest) ([]byte, error) {
	data := make([]byte, chasm.DigestLength)
	copy(data, digest[:])
	return data, nil
}

func (s *serializer) DeserializeDigest(data []byte) (chasm.Digest, error) {
	if len(data) == 0 {
		return chasm.Digest{}, nil
	}
	return deserializeDigest(entityDigest, data)
}

func (s *serializer) SerializeTreeNodeMap(treeNodeMap chasm.TreeNodeMap) ([]byte, error) {
	nodes := treeNodeMap.Nodes()
	data := binary.AppendUvarint(nil, uint64(len(nodes)))
	for _, node := range nodes {
		data = appendString(data, node.Name)
		data = append(data, byte(node.Kind))
		data = append(data, node.NodeID[:]...)
	}
	return data, nil
}

func (s *serializer) DeserializeTreeNodeMap(data []byte) (chasm.TreeNodeMap, error) {
	if len(data) == 0 {
		return chasm.TreeNodeMap{}, nil
	}
	reader := newReader(entityTreeNodeMap, data)
	count, err := reader.readUvarint()
	if err != nil {
		return chasm.TreeNodeMap{}, err
	}
	nodes := make([]chasm.TreeNode, 0, count)
	for i := uint64(0); i < count; i++ {
		name, err := reader.readString()
		if err != nil {
			return chasm.TreeNodeMap{}, err
		}
		kindByte, err := reader.readByte()
		if err != nil {
			return chasm.TreeNodeMap{}, err
		}
		nodeID, err := reader.readDigest()
		if err != nil {
			return chasm.TreeNodeMap{}, err
		}
		node, err := chasm.NewTreeNode(name, chasm.NodeKind(kindByte), nodeID)
		if err != nil {
			return chasm.TreeNodeMap{}, chasmserializer.NewSerializationErrorForCause(entityTreeNodeMap, err)
		}
		nodes = append(nodes, node)
	}
	if err := reader.expectEOF(); err != nil {
		return chasm.TreeNodeMap{}, err
	}
	treeNodeMap, err := chasm.NewTreeNodeMap(nodes...)
	if err != nil {
		return chasm.TreeNodeMap{}, chasmserializer.NewSerializationErrorForCause(entityTreeNodeMap, err)
	}
	return treeNodeMap, nil
}

func (s *serializer) SerializeCommit(commit chasm.Commit) ([]byte, error) {
	data := binary.AppendUvarint(nil, uint64(len(commit.Parents)))
	for _, parent := range commit.Parents {
		parentDigest := parent.Digest()
		data = append(data, parentDigest[:]...)
	}
	treeDigest := commit.TreeID.Digest()
	data = append(data, treeDigest[:]...)
	data = appendAudit(data, commit.Author)
	data = appendAudit(data, commit.Committer)
	if commit.Message == "" {
		data = append(data, 0)
	} else {
		data = append(data, 1)
		data = appendString(data, commit.Message)
	}
	return data, nil
}

func (s *serializer) DeserializeCommit(data []byte) (chasm.Commit, error) {
	if len(data) == 0 {
		return chasm.Commit{}, nil
	}
	reader := newReader(entityCommit, data)
	parentCount, err := reader.readUvarint()
	if err != nil {
		return chasm.Commit{}, err
	}
	var parents []chasm.CommitID
	if parentCount > 0 {
		parents = make([]chasm.CommitID, 0, parentCount)
		for i := uint64(0); i < parentCount; i++ {
			digest, err := reader.readDigest()
			if err != nil {
				return chasm.Commit{}, err
			}
			parents = append(parents, chasm.CommitID(digest))
		}
	}
	treeDigest, err := reader.readDigest()
	if err != nil {
		return chasm.Commit{}, err
	}
	author, err := reader.readAudit()
	if err != nil {
		return chasm.Commit{}, err
	}
	committer, err := reader.readAudit()
	if err != nil {
		return chasm.Commit{}, err
	}
	presence, err := reader.readByte()
	if err != nil {
		return chasm.Commit{}, err
	}
	var message string
	if presence != 0 {
		message, err = reader.readString()
		if err != nil {
			return chasm.Commit{}, err
		}
	}
	if err := reader.expectEOF(); err != nil {
		return chasm.Commit{}, err
	}
	return chasm.Commit{
		Parents:   parents,
		TreeID:    chasm.TreeID(treeDigest),
		Author:    author,
		Committer: committer,
		Message:   message,
	}, nil
}

func (s *serializer) SerializeCommitID(commitID chasm.CommitID) ([]byte, error) {
	digest := commitID.Digest()
	data := make([]byte, chasm.DigestLength)
	copy(data, digest[:])
	return data, nil
}

func (s *serializer) DeserializeCommitID(data []byte) (chasm.CommitID, error) {
	if len(data) == 0 {
		return chasm.CommitID{}, nil
	}
	digest, err := deserializeDigest(entityCommitID, data)
	if err != nil {
		return chasm.CommitID{}, err
	}
	return chasm.CommitID(digest), nil
}

func deserializeDigest(entity string, data []byte) (chasm.Digest, error) {
	if len(data) != chasm.DigestLength {
		return chasm.Digest{}, chasmserializer.NewSerializationError(
			entity,
			fmt.Sprintf("expected %d bytes but got %d", chasm.DigestLength, len(data)),
		)
	}
	return chasm.NewDigest(data)
}

func appendString(data []byte, value string) []byte {
	data = binary.AppendUvarint(data, uint64(len(value)))
	return append(data, value...)
}

func appendAudit(data []byte, audit chasm.Audit) []byte {
	data = appendString(data, audit.Name)
	data = binary.LittleEndian.AppendUint64(data, uint64(audit.Ticks))
	return binary.LittleEndian.AppendUint64(data, uint64(audit.OffsetTicks))
}

type reader struct {
	entity string
	data   []byte
	offset int
}

func newReader(entity string, data []byte) *reader {
	return &reader{
		entity: entity,
		data:   data,
	}
}

func (r *reader) readUvarint() (uint64, error) {
	value, n := binary.Uvarint(r.data[r.offset:])
	if n <= 0 {
		return 0, chasmserializer.NewSerializationError(r.entity, "malformed varint")
	}
	r.offset += n
	return value, nil
}

func (r *reader) readByte() (byte, error) {
	if r.offset >= len(r.data) {
		return 0, r.newShortInputError(1)
	}
	value := r.data[r.offset]
	r.offset++
	return value, nil
}

func (r *reader) readBytes(n int) ([]byte, error) {
	if len(r.data)-r.offset < n {
		return nil, r.newShortInputError(n)
	}
	value := r.data[r.offset : r.offset+n]
	r.offset += n
	return value, nil
}

func (r *reader) readString() (string, error) {
	length, err := r.readUvarint()
	if err != nil {
		return "", err
	}
	if length > math.MaxInt32 {
		return "", chasmserializer.NewSerializationError(r.entity, "string length out of range")
	}
	value, err := r.readBytes(int(length))
	if err != nil {
		return "", err
	}
	return string(value), nil
}

func (r *reader) readDigest() (chasm.Digest, error) {
	value, err := r.readBytes(chasm.DigestLength)
	if err != nil {
		return chasm.Digest{}, err
	}
	return chasm.NewDigest(value)
}

func (r *reader) readAudit() (chasm.Audit, error) {
	name, err := r.readString()
	if err != nil {
		return chasm.Audit{}, err
	}
	ticksData, err := r.readBytes(8)
	if err != nil {
		return chasm.Audit{}, err
	}
	offsetData, err := r.readBytes(8)
	if err != nil {
		return chasm.Audit{}, err
	}
	return chasm.Audit{
		Name:        name,
		Ticks:       int64(binary.LittleEndian.Uint64(ticksData)),
		OffsetTicks: int64(binary.LittleEndian.Uint64(offsetData)),
	}, nil
}

func (r *reader) expectEOF() error {
	if r.offset != len(r.data) {
		return chasmserializer.NewSerializationError(
			r.entity,
			fmt.Sprintf("%d trailing bytes", len(r.data)-r.offset),
		)
	}
	return nil
}

func (r *reader) newShortInputError(needed int) *chasmserializer.SerializationError {
	return chasmserializer.NewSerializationError(
		r.entity,
		fmt.Sprintf("expected %d more bytes but got %d", needed, len(r.data)-r.offset),
	)
}
