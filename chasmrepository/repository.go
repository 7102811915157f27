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

package chasmrepository

import (
	"bytes"
	"context"
	"io"
	"runtime"
	"strings"
	"sync"

	"github.com/bufbuild/chasm/chasm"
	"github.com/bufbuild/chasm/chasmserializer"
	"github.com/bufbuild/chasm/internal/pkg/thread"
)

type repository struct {
	serializer chasmserializer.Serializer
	backend    Backend
	maxDOP     int
}

func newRepository(
	serializer chasmserializer.Serializer,
	backend Backend,
	options ...RepositoryOption,
) *repository {
	repositoryOptions := newRepositoryOptions()
	for _, option := range options {
		option(repositoryOptions)
	}
	return &repository{
		serializer: serializer,
		backend:    backend,
		maxDOP:     repositoryOptions.maxDOP,
	}
}

func (r *repository) ObjectExists(ctx context.Context, digest chasm.Digest) (bool, error) {
	return r.backend.ObjectExists(ctx, digest)
}

func (r *repository) ReadObject(ctx context.Context, digest chasm.Digest) (chasm.Blob, bool, error) {
	return r.backend.ReadObject(ctx, digest)
}

func (r *repository) ReadObjectStream(ctx context.Context, digest chasm.Digest) (chasm.Stream, bool, error) {
	return r.backend.ReadObjectStream(ctx, digest)
}

func (r *repository) ReadObjectBatch(ctx context.Context, digests []chasm.Digest) (map[chasm.Digest]chasm.Blob, error) {
	digestToBlob := make(map[chasm.Digest]chasm.Blob, len(digests))
	if len(digests) == 0 {
		return digestToBlob, nil
	}
	var lock sync.Mutex
	jobs := make([]func(context.Context) error, 0, len(digests))
	for _, digest := range digests {
		digest := digest
		jobs = append(jobs, func(ctx context.Context) error {
			blob, ok, err := r.backend.ReadObject(ctx, digest)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			lock.Lock()
			digestToBlob[digest] = blob
			lock.Unlock()
			return nil
		})
	}
	if err := thread.Parallelize(ctx, jobs, thread.ParallelizeWithParallelism(r.maxDOP)); err != nil {
		return nil, err
	}
	return digestToBlob, nil
}

func (r *repository) WriteObject(
	ctx context.Context,
	content []byte,
	metadata chasm.Metadata,
	forceOverwrite bool,
) (chasm.WriteResult[chasm.Digest], error) {
	return r.WriteObjectStream(ctx, bytes.NewReader(content), metadata, forceOverwrite)
}

func (r *repository) WriteObjectStream(
	ctx context.Context,
	reader io.Reader,
	metadata chasm.Metadata,
	forceOverwrite bool,
) (chasm.WriteResult[chasm.Digest], error) {
	return r.backend.WriteObject(
		ctx,
		func(writer io.Writer) error {
			_, err := io.Copy(writer, reader)
			return err
		},
		metadata,
		forceOverwrite,
	)
}

func (r *repository) WriteObjectProducer(
	ctx context.Context,
	producer func(io.Writer) error,
	metadata chasm.Metadata,
	forceOverwrite bool,
) (chasm.WriteResult[chasm.Digest], error) {
	if producer == nil {
		return chasm.WriteResult[chasm.Digest]{}, NewInvalidArgumentError("producer")
	}
	return r.backend.WriteObject(ctx, producer, metadata, forceOverwrite)
}

func (r *repository) WriteObjectBatch(
	ctx context.Context,
	blobs []chasm.Blob,
	forceOverwrite bool,
) ([]chasm.WriteResult[chasm.Digest], error) {
	if len(blobs) == 0 {
		return nil, nil
	}
	writeResults := make([]chasm.WriteResult[chasm.Digest], len(blobs))
	jobs := make([]func(context.Context) error, 0, len(blobs))
	for i, blob := range blobs {
		i, blob := i, blob
		jobs = append(jobs, func(ctx context.Context) error {
			writeResult, err := r.WriteObject(ctx, blob.Content, blob.Metadata, forceOverwrite)
			if err != nil {
				return err
			}
			writeResults[i] = writeResult
			return nil
		})
	}
	if err := thread.Parallelize(ctx, jobs, thread.ParallelizeWithParallelism(r.maxDOP)); err != nil {
		return nil, err
	}
	return writeResults, nil
}

func (r *repository) ReadTree(ctx context.Context, treeID chasm.TreeID) (chasm.TreeNodeMap, bool, error) {
	blob, ok, err := r.backend.ReadObject(ctx, treeID.Digest())
	if err != nil || !ok {
		return chasm.TreeNodeMap{}, false, err
	}
	treeNodeMap, err := r.serializer.DeserializeTreeNodeMap(blob.Content)
	if err != nil {
		return chasm.TreeNodeMap{}, false, err
	}
	return treeNodeMap, true, nil
}

func (r *repository) ReadTreeForCommit(ctx context.Context, commitID chasm.CommitID) (chasm.TreeNodeMap, bool, error) {
	commit, ok, err := r.ReadCommit(ctx, commitID)
	if err != nil || !ok {
		return chasm.TreeNodeMap{}, false, err
	}
	if commit.TreeID.IsZero() {
		return chasm.TreeNodeMap{}, false, nil
	}
	return r.ReadTree(ctx, commit.TreeID)
}

func (r *repository) ReadTreeForBranch(ctx context.Context, name string, branch string) (chasm.TreeNodeMap, bool, error) {
	commitRef, ok, err := r.ReadCommitRef(ctx, name, branch)
	if err != nil || !ok {
		return chasm.TreeNodeMap{}, false, err
	}
	return r.ReadTreeForCommit(ctx, commitRef.CommitID)
}

func (r *repository) ReadTreeBatch(ctx context.Context, treeIDs []chasm.TreeID) (map[chasm.TreeID]chasm.TreeNodeMap, error) {
	treeIDToTreeNodeMap := make(map[chasm.TreeID]chasm.TreeNodeMap, len(treeIDs))
	if len(treeIDs) == 0 {
		return treeIDToTreeNodeMap, nil
	}
	var lock sync.Mutex
	jobs := make([]func(context.Context) error, 0, len(treeIDs))
	for _, treeID := range treeIDs {
		treeID := treeID
		jobs = append(jobs, func(ctx context.Context) error {
			treeNodeMap, ok, err := r.ReadTree(ctx, treeID)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			lock.Lock()
			treeIDToTreeNodeMap[treeID] = treeNodeMap
			lock.Unlock()
			return nil
		})
	}
	if err := thread.Parallelize(ctx, jobs, thread.ParallelizeWithParallelism(r.maxDOP)); err != nil {
		return nil, err
	}
	return treeIDToTreeNodeMap, nil
}

func (r *repository) WriteTree(ctx context.Context, treeNodeMap chasm.TreeNodeMap) (chasm.TreeID, error) {
	data, err := r.serializer.SerializeTreeNodeMap(treeNodeMap)
	if err != nil {
		return chasm.TreeID{}, err
	}
	writeResult, err := r.WriteObject(ctx, data, chasm.Metadata{}, false)
	if err != nil {
		return chasm.TreeID{}, err
	}
	return chasm.TreeID(writeResult.ID), nil
}

func (r *repository) WriteTreeAndCommit(
	ctx context.Context,
	parents []chasm.CommitID,
	treeNodeMap chasm.TreeNodeMap,
	author chasm.Audit,
	committer chasm.Audit,
	message string,
) (chasm.CommitID, error) {
	treeID, err := r.WriteTree(ctx, treeNodeMap)
	if err != nil {
		return chasm.CommitID{}, err
	}
	return r.WriteCommit(ctx, chasm.NewCommit(parents, treeID, author, committer, message))
}

func (r *repository) ReadCommit(ctx context.Context, commitID chasm.CommitID) (chasm.Commit, bool, error) {
	blob, ok, err := r.backend.ReadObject(ctx, commitID.Digest())
	if err != nil || !ok {
		return chasm.Commit{}, false, err
	}
	commit, err := r.serializer.DeserializeCommit(blob.Content)
	if err != nil {
		return chasm.Commit{}, false, err
	}
	return commit, true, nil
}

func (r *repository) WriteCommit(ctx context.Context, commit chasm.Commit) (chasm.CommitID, error) {
	data, err := r.serializer.SerializeCommit(commit)
	if err != nil {
		return chasm.CommitID{}, err
	}
	writeResult, err := r.WriteObject(ctx, data, chasm.Metadata{}, false)
	if err != nil {
		return chasm.CommitID{}, err
	}
	return chasm.CommitID(writeResult.ID), nil
}

func (r *repository) ListNames(ctx context.Context) ([]string, error) {
	return r.backend.ListNames(ctx)
}

func (r *repository) ListBranches(ctx context.Context, name string) ([]chasm.CommitRef, error) {
	if err := validateNonBlank("name", name); err != nil {
		return nil, err
	}
	return r.backend.ListBranches(ctx, name)
}

func (r *repository) ReadCommitRef(ctx context.Context, name string, branch string) (chasm.CommitRef, bool, error) {
	if err := validateNonBlank("name", name); err != nil {
		return chasm.CommitRef{}, false, err
	}
	if err := validateNonBlank("branch", branch); err != nil {
		return chasm.CommitRef{}, false, err
	}
	return r.backend.ReadCommitRef(ctx, name, branch)
}

func (r *repository) WriteCommitRef(
	ctx context.Context,
	previousCommitID *chasm.CommitID,
	name string,
	commitRef chasm.CommitRef,
) error {
	if err := validateNonBlank("name", name); err != nil {
		return err
	}
	if commitRef.IsZero() {
		return NewInvalidArgumentError("commitRef")
	}
	if err := validateNonBlank("commitRef.Branch", commitRef.Branch); err != nil {
		return err
	}
	return r.backend.WriteCommitRef(ctx, previousCommitID, name, commitRef)
}

func (r *repository) Serializer() chasmserializer.Serializer {
	return r.serializer
}

func validateNonBlank(argumentName string, value string) error {
	if strings.TrimSpace(value) == "" {
		return NewInvalidArgumentError(argumentName)
	}
	return nil
}

type repositoryOptions struct {
	maxDOP int
}

func newRepositoryOptions() *repositoryOptions {
	return &repositoryOptions{
		maxDOP: runtime.GOMAXPROCS(0),
	}
}
