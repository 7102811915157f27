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

package chasmrepositorydisk

import (
	"context"
	"os"

	"github.com/bufbuild/chasm/chasm"
	"github.com/goccy/go-json"
)

type externalMetadata struct {
	ContentType string `json:"contentType,omitempty"`
	Filename    string `json:"filename,omitempty"`
}

func (b *backend) readMetadata(ctx context.Context, digest chasm.Digest) (chasm.Metadata, error) {
	var data []byte
	err := b.retry(ctx, func() error {
		readData, err := os.ReadFile(b.metadataPath(digest))
		if err != nil {
			return err
		}
		data = readData
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return chasm.Metadata{}, nil
		}
		return chasm.Metadata{}, err
	}
	var externalValue externalMetadata
	if err := json.Unmarshal(data, &externalValue); err != nil {
		return chasm.Metadata{}, err
	}
	return chasm.Metadata{
		ContentType: externalValue.ContentType,
		Filename:    externalValue.Filename,
	}, nil
}

func (b *backend) writeMetadata(ctx context.Context, digest chasm.Digest, metadata chasm.Metadata) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	metadataPath := b.metadataPath(digest)
	if metadata.IsZero() {
		// An overwrite may leave a stale sidecar from the previous object.
		if err := os.Remove(metadataPath); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	}
	data, err := json.Marshal(
		externalMetadata{
			ContentType: metadata.ContentType,
			Filename:    metadata.Filename,
		},
	)
	if err != nil {
		return err
	}
	return b.retry(ctx, func() error {
		return os.WriteFile(metadataPath, data, 0644)
	})
}
