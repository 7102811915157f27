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
	"fmt"
	"sort"
)

// TreeNodeMap is an immutable ordered set of TreeNodes, sorted ascending by
// name under byte-wise comparison, with unique names.
//
// The zero value is the empty map.
type TreeNodeMap struct {
	nodes []TreeNode
}

// NewTreeNodeMap returns a new TreeNodeMap for the given nodes.
//
// Nodes are validated and sorted; duplicate names are an error.
func NewTreeNodeMap(nodes ...TreeNode) (TreeNodeMap, error) {
	sorted := make([]TreeNode, 0, len(nodes))
	for _, node := range nodes {
		validated, err := NewTreeNode(node.Name, node.Kind, node.NodeID)
		if err != nil {
			return TreeNodeMap{}, err
		}
		sorted = append(sorted, validated)
	}
	sort.Slice(sorted, func(i int, j int) bool {
		return sorted[i].Name < sorted[j].Name
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Name == sorted[i-1].Name {
			return TreeNodeMap{}, fmt.Errorf("duplicate tree node name %q", sorted[i].Name)
		}
	}
	return TreeNodeMap{
		nodes: sorted,
	}, nil
}

// Len returns the number of nodes.
func (t TreeNodeMap) Len() int {
	return len(t.nodes)
}

// Nodes returns the nodes in ascending name order.
//
// The returned slice is a copy.
func (t TreeNodeMap) Nodes() []TreeNode {
	nodes := make([]TreeNode, len(t.nodes))
	copy(nodes, t.nodes)
	return nodes
}

// Node returns the node with the given name, if present.
func (t TreeNodeMap) Node(name string) (TreeNode, bool) {
	i := sort.Search(len(t.nodes), func(i int) bool {
		return t.nodes[i].Name >= name
	})
	if i < len(t.nodes) && t.nodes[i].Name == name {
		return t.nodes[i], true
	}
	return TreeNode{}, false
}

// Add returns a new TreeNodeMap with the given nodes added.
//
// A name collision with an existing node is an error.
func (t TreeNodeMap) Add(nodes ...TreeNode) (TreeNodeMap, error) {
	return NewTreeNodeMap(append(t.Nodes(), nodes...)...)
}

// Equal returns true if both maps contain equal nodes in equal order.
func (t TreeNodeMap) Equal(other TreeNodeMap) bool {
	if len(t.nodes) != len(other.nodes) {
		return false
	}
	for i := range t.nodes {
		if t.nodes[i] != other.nodes[i] {
			return false
		}
	}
	return true
}
