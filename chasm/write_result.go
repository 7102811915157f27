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

// WriteResult is the result of a write operation.
type WriteResult[T any] struct {
	// ID is the id the written entity is addressed by.
	ID T
	// Created is false if the target already existed and the write was a no-op.
	Created bool
}

// NewWriteResult returns a new WriteResult.
func NewWriteResult[T any](id T, created bool) WriteResult[T] {
	return WriteResult[T]{
		ID:      id,
		Created: created,
	}
}
