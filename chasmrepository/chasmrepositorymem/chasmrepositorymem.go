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

// Package chasmrepositorymem implements an in-memory repository.
//
// Useful as a test double and for ephemeral stores. The compare-and-swap ref
// semantics are identical to the durable backends.
package chasmrepositorymem

import (
	"bytes"
	"context"
	"crypto/sha1"
	"io"
	"sort"
	"sync"

	"github.com/bufbuild/chasm/chasm"
	"github.com/bufbuild/chasm/chasmrepository"
	"github.com/bufbuild/chasm/chasmserializer"
	"go.uber.org/zap"
)

// NewRepository returns a new in-memory Repository.
func NewRepository(
	logger *zap.Logger,
	serializer chasmserializer.Serializer,
	options ...chasmrepository.RepositoryOption,
) chasmrepository.Repository {
	return chasmrepository.NewRepository(
		serializer,
		newBackend(logger),
		options...,
	)
}

type object struct {
	content  []byte
	metadata chasm.Metadata
}

type backend struct {
	logger *zap.Logger

	lock           sync.RWMutex
	digestToObject map[chasm.Digest]object
	nameToBranches map[string]map[string]chasm.CommitID
}

func newBackend(logger *zap.Logger) *backend {
	return &backend{
		logger:         logger,
		digestToObject: make(map[chasm.Digest]object),
		nameToBranches: make(map[string]map[string]chasm.CommitID),
	}
}

func (b *backend) ObjectExists(ctx context.Context, digest chasm.Digest) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	b.lock.RLock()
	defer b.lock.RUnlock()
	_, ok := b.digestToObject[digest]
	return ok, nil
}

func (b *backend) ReadObject(ctx context.Context, digest chasm.Digest) (chasm.Blob, bool, error) {
	if err := ctx.Err(); err != nil {
		return chasm.Blob{}, false, err
	}
	b.lock.RLock()
	defer b.lock.RUnlock()
	storedObject, ok := b.digestToObject[digest]
	if !ok {
		return chasm.Blob{}, false, nil
	}
	content := make([]byte, len(storedObject.content))
	copy(content, storedObject.content)
	return chasm.NewBlob(content, storedObject.metadata), true, nil
}

func (b *backend) ReadObjectStream(ctx context.Context, digest chasm.Digest) (chasm.Stream, bool, error) {
	blob, ok, err := b.ReadObject(ctx, digest)
	if err != nil || !ok {
		return nil, false, err
	}
	return chasm.NewStream(io.NopCloser(bytes.NewReader(blob.Content)), blob.Metadata), true, nil
}

func (b *backend) WriteObject(
	ctx context.Context,
	producer func(io.Writer) error,
	metadata chasm.Metadata,
	forceOverwrite bool,
) (chasm.WriteResult[chasm.Digest], error) {
	if err := ctx.Err(); err != nil {
		return chasm.WriteResult[chasm.Digest]{}, err
	}
	buffer := bytes.NewBuffer(nil)
	hasher := sha1.New()
	if err := producer(io.MultiWriter(hasher, buffer)); err != nil {
		return chasm.WriteResult[chasm.Digest]{}, err
	}
	digest, err := chasm.NewDigest(hasher.Sum(nil))
	if err != nil {
		return chasm.WriteResult[chasm.Digest]{}, err
	}
	b.lock.Lock()
	defer b.lock.Unlock()
	_, existed := b.digestToObject[digest]
	if existed && !forceOverwrite {
		return chasm.NewWriteResult(digest, false), nil
	}
	b.digestToObject[digest] = object{
		content:  buffer.Bytes(),
		metadata: metadata,
	}
	return chasm.NewWriteResult(digest, true), nil
}

func (b *backend) ListNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.lock.RLock()
	defer b.lock.RUnlock()
	names := make([]string, 0, len(b.nameToBranches))
	for name := range b.nameToBranches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (b *backend) ListBranches(ctx context.Context, name string) ([]chasm.CommitRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.lock.RLock()
	defer b.lock.RUnlock()
	branches := b.nameToBranches[name]
	commitRefs := make([]chasm.CommitRef, 0, len(branches))
	for branch, commitID := range branches {
		commitRef, err := chasm.NewCommitRef(branch, commitID)
		if err != nil {
			return nil, err
		}
		commitRefs = append(commitRefs, commitRef)
	}
	sort.Slice(commitRefs, func(i int, j int) bool {
		return commitRefs[i].Branch < commitRefs[j].Branch
	})
	return commitRefs, nil
}

func (b *backend) ReadCommitRef(ctx context.Context, name string, branch string) (chasm.CommitRef, bool, error) {
	if err := ctx.Err(); err != nil {
		return chasm.CommitRef{}, false, err
	}
	b.lock.RLock()
	defer b.lock.RUnlock()
	commitID, ok := b.nameToBranches[name][branch]
	if !ok {
		return chasm.CommitRef{}, false, nil
	}
	commitRef, err := chasm.NewCommitRef(branch, commitID)
	if err != nil {
		return chasm.CommitRef{}, false, err
	}
	return commitRef, true, nil
}

func (b *backend) WriteCommitRef(
	ctx context.Context,
	previousCommitID *chasm.CommitID,
	name string,
	commitRef chasm.CommitRef,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.lock.Lock()
	defer b.lock.Unlock()
	branches := b.nameToBranches[name]
	currentCommitID, ok := branches[commitRef.Branch]
	if !ok {
		if previousCommitID != nil {
			return chasmrepository.NewConcurrencyError(name, commitRef.Branch)
		}
	} else {
		if currentCommitID == commitRef.CommitID {
			return nil
		}
		if previousCommitID == nil || *previousCommitID != currentCommitID {
			return chasmrepository.NewConcurrencyError(name, commitRef.Branch)
		}
	}
	if branches == nil {
		branches = make(map[string]chasm.CommitID)
		b.nameToBranches[name] = branches
	}
	branches[commitRef.Branch] = commitRef.CommitID
	b.logger.Debug("wrote commit ref")
	return nil
}
