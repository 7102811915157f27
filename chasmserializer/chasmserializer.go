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

// Package chasmserializer defines the codec boundary between the logical data
// model and stored bytes.
//
// Digests are computed over the serialized form, so a store's serializer is
// part of its persistent format: objects written with one codec cannot be
// read with another, and the codec for an existing store must never change.
package chasmserializer

import (
	"errors"
	"fmt"

	"github.com/bufbuild/chasm/chasm"
)

// Serializer maps model values to byte sequences and back.
//
// Every Serialize returns an owned buffer the caller is free to retain.
// Every Deserialize accepts a read-only byte range and never retains it.
//
// Round-trip fidelity is required: Deserialize(Serialize(v)) equals v for
// every value v. Deserialize of a zero-length input returns the zero value
// for the type, never an error.
//
// Implementations are stateless after construction and safe for concurrent use.
type Serializer interface {
	SerializeDigest(digest chasm.Digest) ([]byte, error)
	DeserializeDigest(data []byte) (chasm.Digest, error)

	SerializeTreeNodeMap(treeNodeMap chasm.TreeNodeMap) ([]byte, error)
	DeserializeTreeNodeMap(data []byte) (chasm.TreeNodeMap, error)

	SerializeCommit(commit chasm.Commit) ([]byte, error)
	DeserializeCommit(data []byte) (chasm.Commit, error)

	SerializeCommitID(commitID chasm.CommitID) ([]byte, error)
	DeserializeCommitID(data []byte) (chasm.CommitID, error)
}

// NewSerializationError returns a new SerializationError.
func NewSerializationError(entity string, message string) *SerializationError {
	return &SerializationError{
		Entity:  entity,
		Message: message,
	}
}

// NewSerializationErrorForCause returns a new SerializationError wrapping cause.
func NewSerializationErrorForCause(entity string, cause error) *SerializationError {
	return &SerializationError{
		Entity: entity,
		cause:  cause,
	}
}

// SerializationError is the error returned when a codec produces or consumes
// an unexpected shape.
type SerializationError struct {
	// Entity is the kind of entity being serialized or deserialized.
	Entity string
	// Message describes the unexpected shape.
	Message string

	cause error
}

// Error implements error.
func (s *SerializationError) Error() string {
	if s.cause != nil {
		return fmt.Sprintf("serialization failed for %s: %v", s.Entity, s.cause)
	}
	return fmt.Sprintf("serialization failed for %s: %s", s.Entity, s.Message)
}

// Unwrap returns the underlying cause, if any.
func (s *SerializationError) Unwrap() error {
	return s.cause
}

// IsSerializationError returns true if err is a SerializationError.
func IsSerializationError(err error) bool {
	serializationError := &SerializationError{}
	return errors.As(err, &serializationError)
}
