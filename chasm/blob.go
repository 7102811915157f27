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
	"io"
)

// Metadata is optional descriptive information attached to a stored object.
//
// The zero value means no metadata.
type Metadata struct {
	// ContentType is the media type of the payload, if known.
	ContentType string
	// Filename is the original file name of the payload, if known.
	Filename string
}

// IsZero returns true if no metadata is present.
func (m Metadata) IsZero() bool {
	return m == Metadata{}
}

// Blob is an object payload materialized in memory, plus optional metadata.
type Blob struct {
	// Content is the payload.
	Content []byte
	// Metadata is the optional metadata.
	Metadata Metadata
}

// NewBlob returns a new Blob.
func NewBlob(content []byte, metadata Metadata) Blob {
	return Blob{
		Content:  content,
		Metadata: metadata,
	}
}

// Stream is an object payload yielded lazily, plus optional metadata.
//
// It must be closed when done.
type Stream interface {
	io.ReadCloser

	// Metadata returns the optional metadata.
	Metadata() Metadata
}

// NewStream returns a new Stream wrapping the given reader.
func NewStream(readCloser io.ReadCloser, metadata Metadata) Stream {
	return &stream{
		ReadCloser: readCloser,
		metadata:   metadata,
	}
}

type stream struct {
	io.ReadCloser

	metadata Metadata
}

func (s *stream) Metadata() Metadata {
	return s.metadata
}
