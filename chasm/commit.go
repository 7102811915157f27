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

// Commit is an immutable record binding a tree to zero or more parent commits
// with authorship metadata.
type Commit struct {
	// Parents are the parent commit ids in their original order.
	Parents []CommitID
	// TreeID is the id of the tree this commit binds, possibly empty.
	TreeID TreeID
	// Author identifies who authored the change.
	Author Audit
	// Committer identifies who committed the change.
	Committer Audit
	// Message is the commit message. Empty means no message.
	Message string
}

// NewCommit returns a new Commit.
//
// The parents slice is copied.
func NewCommit(
	parents []CommitID,
	treeID TreeID,
	author Audit,
	committer Audit,
	message string,
) Commit {
	var copied []CommitID
	if len(parents) > 0 {
		copied = make([]CommitID, len(parents))
		copy(copied, parents)
	}
	return Commit{
		Parents:   copied,
		TreeID:    treeID,
		Author:    author,
		Committer: committer,
		Message:   message,
	}
}

// Equal returns true if both commits are equal, including parent order.
func (c Commit) Equal(other Commit) bool {
	if len(c.Parents) != len(other.Parents) {
		return false
	}
	for i := range c.Parents {
		if c.Parents[i] != other.Parents[i] {
			return false
		}
	}
	return c.TreeID == other.TreeID &&
		c.Author == other.Author &&
		c.Committer == other.Committer &&
		c.Message == other.Message
}
