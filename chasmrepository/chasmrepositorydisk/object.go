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
	"bytes"
	"context"
	"crypto/sha1"
	"io"
	"os"

	"github.com/bufbuild/chasm/chasm"
	"github.com/bufbuild/chasm/internal/pkg/tmp"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func (b *backend) ObjectExists(ctx context.Context, digest chasm.Digest) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(b.objectPath(digest))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (b *backend) ReadObject(ctx context.Context, digest chasm.Digest) (chasm.Blob, bool, error) {
	var content []byte
	err := b.retry(ctx, func() error {
		data, err := os.ReadFile(b.objectPath(digest))
		if err != nil {
			return err
		}
		content = data
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return chasm.Blob{}, false, nil
		}
		return chasm.Blob{}, false, err
	}
	if b.compressionLevel != 0 {
		content, err = b.decompress(content)
		if err != nil {
			return chasm.Blob{}, false, err
		}
	}
	metadata, err := b.readMetadata(ctx, digest)
	if err != nil {
		return chasm.Blob{}, false, err
	}
	return chasm.NewBlob(content, metadata), true, nil
}

func (b *backend) ReadObjectStream(ctx context.Context, digest chasm.Digest) (chasm.Stream, bool, error) {
	var file *os.File
	err := b.retry(ctx, func() error {
		openedFile, err := os.Open(b.objectPath(digest))
		if err != nil {
			return err
		}
		file = openedFile
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	metadata, err := b.readMetadata(ctx, digest)
	if err != nil {
		return nil, false, multierr.Append(err, file.Close())
	}
	var readCloser io.ReadCloser = file
	if b.compressionLevel != 0 {
		gzipReader, err := gzip.NewReader(file)
		if err != nil {
			return nil, false, multierr.Append(err, file.Close())
		}
		readCloser = newCompositeReadCloser(gzipReader, file)
	}
	return chasm.NewStream(readCloser, metadata), true, nil
}

func (b *backend) WriteObject(
	ctx context.Context,
	producer func(io.Writer) error,
	metadata chasm.Metadata,
	forceOverwrite bool,
) (_ chasm.WriteResult[chasm.Digest], retErr error) {
	if err := ctx.Err(); err != nil {
		return chasm.WriteResult[chasm.Digest]{}, err
	}
	tmpFile, err := tmp.NewFile(b.tmpDirPath())
	if err != nil {
		return chasm.WriteResult[chasm.Digest]{}, err
	}
	defer func() {
		retErr = multierr.Append(retErr, tmpFile.Close())
	}()
	hasher := sha1.New()
	var target io.Writer = tmpFile
	var gzipWriter *gzip.Writer
	if b.compressionLevel != 0 {
		gzipWriter, err = gzip.NewWriterLevel(tmpFile, b.compressionLevel)
		if err != nil {
			return chasm.WriteResult[chasm.Digest]{}, err
		}
		target = gzipWriter
	}
	if err := producer(io.MultiWriter(hasher, target)); err != nil {
		return chasm.WriteResult[chasm.Digest]{}, err
	}
	if gzipWriter != nil {
		if err := gzipWriter.Close(); err != nil {
			return chasm.WriteResult[chasm.Digest]{}, err
		}
	}
	digest, err := chasm.NewDigest(hasher.Sum(nil))
	if err != nil {
		return chasm.WriteResult[chasm.Digest]{}, err
	}
	if err := ctx.Err(); err != nil {
		return chasm.WriteResult[chasm.Digest]{}, err
	}
	objectPath := b.objectPath(digest)
	exists, err := b.ObjectExists(ctx, digest)
	if err != nil {
		return chasm.WriteResult[chasm.Digest]{}, err
	}
	if exists && !forceOverwrite {
		b.logger.Debug(
			"object already exists",
			append(requestContextFields(ctx), zap.String("digest", digest.String()))...,
		)
		return chasm.NewWriteResult(digest, false), nil
	}
	if forceOverwrite {
		if err := b.retry(ctx, func() error {
			return tmpFile.MoveTo(objectPath)
		}); err != nil {
			return chasm.WriteResult[chasm.Digest]{}, err
		}
	} else {
		// An exclusive link instead of a rename: a concurrent writer of the
		// same content that materialized the object after the exists check
		// above must observe created=false, not created=true.
		if err := tmpFile.LinkTo(objectPath); err != nil {
			if os.IsExist(err) {
				return chasm.NewWriteResult(digest, false), nil
			}
			return chasm.WriteResult[chasm.Digest]{}, err
		}
	}
	if err := b.writeMetadata(ctx, digest, metadata); err != nil {
		return chasm.WriteResult[chasm.Digest]{}, err
	}
	b.logger.Debug(
		"wrote object",
		append(
			requestContextFields(ctx),
			zap.String("digest", digest.String()),
			zap.Bool("overwrote", exists),
		)...,
	)
	return chasm.NewWriteResult(digest, true), nil
}

func (b *backend) decompress(content []byte) (_ []byte, retErr error) {
	gzipReader, err := gzip.NewReader(bytes.NewReader(content))
	if err != nil {
		return nil, err
	}
	defer func() {
		retErr = multierr.Append(retErr, gzipReader.Close())
	}()
	return io.ReadAll(gzipReader)
}

type compositeReadCloser struct {
	io.Reader

	closers []io.Closer
}

func newCompositeReadCloser(reader io.ReadCloser, closers ...io.Closer) *compositeReadCloser {
	return &compositeReadCloser{
		Reader:  reader,
		closers: append([]io.Closer{reader}, closers...),
	}
}

func (c *compositeReadCloser) Close() error {
	var retErr error
	for _, closer := range c.closers {
		retErr = multierr.Append(retErr, closer.Close())
	}
	return retErr
}
