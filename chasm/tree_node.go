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
	"errors"
	"fmt"
)

const (
	// NodeKindUnspecified says the node kind is unspecified.
	NodeKindUnspecified NodeKind = iota
	// NodeKindBlob says the node points at a leaf object.
	NodeKindBlob
	// NodeKindTree says the node points at a subtree.
	NodeKindTree
)

// NodeKind is the kind of object a TreeNode points at.
type NodeKind int

// String implements fmt.Stringer.
func (n NodeKind) String() string {
	switch n {
	case NodeKindBlob:
		return "blob"
	case NodeKindTree:
		return "tree"
	default:
		return fmt.Sprintf("unknown(%d)", int(n))
	}
}

// ParseNodeKind parses a NodeKind from its string form.
func ParseNodeKind(value string) (NodeKind, error) {
	switch value {
	case "blob":
		return NodeKindBlob, nil
	case "tree":
		return NodeKindTree, nil
	default:
		return NodeKindUnspecified, fmt.Errorf("unknown node kind %q", value)
	}
}

// TreeNode is a single named entry within a TreeNodeMap.
type TreeNode struct {
	// Name is the non-empty UTF-8 name of the entry, unique within its map.
	Name string
	// Kind says whether NodeID points at a blob or a subtree.
	Kind NodeKind
	// NodeID is the digest of the target object.
	NodeID Digest
}

// NewTreeNode returns a new validated TreeNode.
func NewTreeNode(name string, kind NodeKind, nodeID Digest) (TreeNode, error) {
	if name == "" {
		return TreeNode{}, errors.New("tree node name is empty")
	}
	if kind != NodeKindBlob && kind != NodeKindTree {
		return TreeNode{}, fmt.Errorf("tree node %q has invalid kind %d", name, int(kind))
	}
	return TreeNode{
		Name:   name,
		Kind:   kind,
		NodeID: nodeID,
	}, nil
}
