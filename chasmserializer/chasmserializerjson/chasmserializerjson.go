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

// Package chasmserializerjson implements the human-readable JSON codec.
//
// Digests are formatted as 40-character lowercase hex strings, node kinds as
// "blob" and "tree". Intended for debugging and interop; the binary codec is
// preferred for production stores.
package chasmserializerjson

import (
	"github.com/bufbuild/chasm/chasm"
	"github.com/bufbuild/chasm/chasmserializer"
	"github.com/goccy/go-json"
)

const (
	entityDigest      = "digest"
	entityTreeNodeMap = "tree node map"
	entityCommit      = "commit"
	entityCommitID    = "commit id"
)

// NewSerializer returns a new JSON Serializer.
func NewSerializer() chasmserializer.Serializer {
	return newSerializer()
}

type serializer struct{}

func newSerializer() *serializer {
	return &serializer{}
}

func (s *serializer) SerializeDigest(digest chasm.Digest) ([]byte, error) {
	return marshal(entityDigest, digest.String())
}

func (s *serializer) DeserializeDigest(data []byte) (chasm.Digest, error) {
	if len(data) == 0 {
		return chasm.Digest{}, nil
	}
	var value string
	if err := unmarshal(entityDigest, data, &value); err != nil {
		return chasm.Digest{}, err
	}
	digest, err := chasm.ParseDigest(value)
	if err != nil {
		return chasm.Digest{}, chasmserializer.NewSerializationErrorForCause(entityDigest, err)
	}
	return digest, nil
}

func (s *serializer) SerializeTreeNodeMap(treeNodeMap chasm.TreeNodeMap) ([]byte, error) {
	nodes := treeNodeMap.Nodes()
	externalNodes := make([]externalTreeNode, len(nodes))
	for i, node := range nodes {
		externalNodes[i] = externalTreeNode{
			Name:   node.Name,
			Kind:   node.Kind.String(),
			NodeID: node.NodeID.String(),
		}
	}
	return marshal(
		entityTreeNodeMap,
		externalTreeNodeMap{
			Nodes: externalNodes,
		},
	)
}

func (s *serializer) DeserializeTreeNodeMap(data []byte) (chasm.TreeNodeMap, error) {
	if len(data) == 0 {
		return chasm.TreeNodeMap{}, nil
	}
	var externalValue externalTreeNodeMap
	if err := unmarshal(entityTreeNodeMap, data, &externalValue); err != nil {
		return chasm.TreeNodeMap{}, err
	}
	nodes := make([]chasm.TreeNode, 0, len(externalValue.Nodes))
	for _, externalNode := range externalValue.Nodes {
		kind, err := chasm.ParseNodeKind(externalNode.Kind)
		if err != nil {
			return chasm.TreeNodeMap{}, chasmserializer.NewSerializationErrorForCause(entityTreeNodeMap, err)
		}
		nodeID, err := chasm.ParseDigest(externalNode.NodeID)
		if err != nil {
			return chasm.TreeNodeMap{}, chasmserializer.NewSerializationErrorForCause(entityTreeNodeMap, err)
		}
		node, err := chasm.NewTreeNode(externalNode.Name, kind, nodeID)
		if err != nil {
			return chasm.TreeNodeMap{}, chasmserializer.NewSerializationErrorForCause(entityTreeNodeMap, err)
		}
		nodes = append(nodes, node)
	}
	treeNodeMap, err := chasm.NewTreeNodeMap(nodes...)
	if err != nil {
		return chasm.TreeNodeMap{}, chasmserializer.NewSerializationErrorForCause(entityTreeNodeMap, err)
	}
	return treeNodeMap, nil
}

func (s *serializer) SerializeCommit(commit chasm.Commit) ([]byte, error) {
	parents := make([]string, len(commit.Parents))
	for i, parent := range commit.Parents {
		parents[i] = parent.String()
	}
	externalValue := externalCommit{
		Parents:   parents,
		TreeID:    commit.TreeID.String(),
		Author:    newExternalAudit(commit.Author),
		Committer: newExternalAudit(commit.Committer),
	}
	if commit.Message != "" {
		externalValue.Message = &commit.Message
	}
	return marshal(entityCommit, externalValue)
}

func (s *serializer) DeserializeCommit(data []byte) (chasm.Commit, error) {
	if len(data) == 0 {
		return chasm.Commit{}, nil
	}
	var externalValue externalCommit
	if err := unmarshal(entityCommit, data, &externalValue); err != nil {
		return chasm.Commit{}, err
	}
	var parents []chasm.CommitID
	if len(externalValue.Parents) > 0 {
		parents = make([]chasm.CommitID, 0, len(externalValue.Parents))
		for _, parent := range externalValue.Parents {
			commitID, err := chasm.ParseCommitID(parent)
			if err != nil {
				return chasm.Commit{}, chasmserializer.NewSerializationErrorForCause(entityCommit, err)
			}
			parents = append(parents, commitID)
		}
	}
	var treeID chasm.TreeID
	if externalValue.TreeID != "" {
		parsedTreeID, err := chasm.ParseTreeID(externalValue.TreeID)
		if err != nil {
			return chasm.Commit{}, chasmserializer.NewSerializationErrorForCause(entityCommit, err)
		}
		treeID = parsedTreeID
	}
	var message string
	if externalValue.Message != nil {
		message = *externalValue.Message
	}
	return chasm.Commit{
		Parents:   parents,
		TreeID:    treeID,
		Author:    externalValue.Author.audit(),
		Committer: externalValue.Committer.audit(),
		Message:   message,
	}, nil
}

func (s *serializer) SerializeCommitID(commitID chasm.CommitID) ([]byte, error) {
	return marshal(
		entityCommitID,
		externalCommitID{
			ID: commitID.String(),
		},
	)
}

func (s *serializer) DeserializeCommitID(data []byte) (chasm.CommitID, error) {
	if len(data) == 0 {
		return chasm.CommitID{}, nil
	}
	var externalValue externalCommitID
	if err := unmarshal(entityCommitID, data, &externalValue); err != nil {
		return chasm.CommitID{}, err
	}
	commitID, err := chasm.ParseCommitID(externalValue.ID)
	if err != nil {
		return chasm.CommitID{}, chasmserializer.NewSerializationErrorForCause(entityCommitID, err)
	}
	return commitID, nil
}

func marshal(entity string, value interface{}) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, chasmserializer.NewSerializationErrorForCause(entity, err)
	}
	return data, nil
}

func unmarshal(entity string, data []byte, value interface{}) error {
	if err := json.Unmarshal(data, value); err != nil {
		return chasmserializer.NewSerializationErrorForCause(entity, err)
	}
	return nil
}

type externalTreeNode struct {
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	NodeID string `json:"nodeId"`
}

type externalTreeNodeMap struct {
	Nodes []externalTreeNode `json:"nodes"`
}

type externalAudit struct {
	Name        string `json:"name"`
	Ticks       int64  `json:"ticks"`
	OffsetTicks int64  `json:"offset"`
}

func newExternalAudit(audit chasm.Audit) externalAudit {
	return externalAudit{
		Name:        audit.Name,
		Ticks:       audit.Ticks,
		OffsetTicks: audit.OffsetTicks,
	}
}

func (e externalAudit) audit() chasm.Audit {
	return chasm.Audit{
		Name:        e.Name,
		Ticks:       e.Ticks,
		OffsetTicks: e.OffsetTicks,
	}
}

type externalCommit struct {
	Parents   []string      `json:"parents"`
	TreeID    string        `json:"treeId"`
	Author    externalAudit `json:"author"`
	Committer externalAudit `json:"committer"`
	Message   *string       `json:"message,omitempty"`
}

type externalCommitID struct {
	ID string `json:"id"`
}
