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

// TreeID is the digest of a serialized TreeNodeMap.
//
// It is a distinct type so that a tree digest cannot be passed where a commit
// digest is required. The zero value is the empty sentinel.
type TreeID Digest

// ParseTreeID parses a TreeID from its hex string form.
func ParseTreeID(value string) (TreeID, error) {
	digest, err := ParseDigest(value)
	if err != nil {
		return TreeID{}, err
	}
	return TreeID(digest), nil
}

// Digest returns the underlying Digest.
func (t TreeID) Digest() Digest {
	return Digest(t)
}

// String returns the id as 40 lowercase hex characters.
func (t TreeID) String() string {
	return Digest(t).String()
}

// IsZero returns true if the id is the empty sentinel.
func (t TreeID) IsZero() bool {
	return Digest(t).IsZero()
}

// CommitID is the digest of a serialized Commit.
//
// The zero value is the empty sentinel.
type CommitID Digest

// ParseCommitID parses a CommitID from its hex string form.
func ParseCommitID(value string) (CommitID, error) {
	digest, err := ParseDigest(value)
	if err != nil {
		return CommitID{}, err
	}
	return CommitID(digest), nil
}

// Digest returns the underlying Digest.
func (c CommitID) Digest() Digest {
	return Digest(c)
}

// String returns the id as 40 lowercase hex characters.
func (c CommitID) String() string {
	return Digest(c).String()
}

// IsZero returns true if the id is the empty sentinel.
func (c CommitID) IsZero() bool {
	return Digest(c).IsZero()
}
