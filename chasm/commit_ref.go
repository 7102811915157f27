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
)

// CommitRef is a mutable named pointer to a commit, scoped under a namespace
// name that is tracked by the containing repository.
type CommitRef struct {
	// Branch is the non-empty branch name.
	Branch string
	// CommitID is the commit the branch points at.
	CommitID CommitID
}

// NewCommitRef returns a new CommitRef.
func NewCommitRef(branch string, commitID CommitID) (CommitRef, error) {
	if branch == "" {
		return CommitRef{}, errors.New("commit ref branch is empty")
	}
	return CommitRef{
		Branch:   branch,
		CommitID: commitID,
	}, nil
}

// IsZero returns true if the ref is the zero value.
func (c CommitRef) IsZero() bool {
	return c.Branch == "" && c.CommitID.IsZero()
}
