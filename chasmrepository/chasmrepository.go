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

// Package chasmrepository defines the repository contract over objects,
// trees, commits, and commit refs.
//
// Backends implement the small Backend surface; NewRepository layers the
// derivable operations (trees, commits, batches, validation) on top, so
// backends only specialize where they can optimize.
package chasmrepository

import (
	"context"
	"io"

	"github.com/bufbuild/chasm/chasm"
	"github.com/bufbuild/chasm/chasmserializer"
)

// Repository is a content-addressed object store with a mutable commit ref
// namespace.
//
// Read operations report absence as ok=false, never as an error. All
// operations observe ctx for cancellation. Implementations are safe for
// concurrent use; correctness under concurrency rests on per-digest
// idempotence for objects and compare-and-swap for commit refs.
type Repository interface {
	// ObjectExists returns true if an object with the given digest is stored.
	ObjectExists(ctx context.Context, digest chasm.Digest) (bool, error)
	// ReadObject returns the object with the given digest, with its metadata
	// when present.
	ReadObject(ctx context.Context, digest chasm.Digest) (chasm.Blob, bool, error)
	// ReadObjectStream is the lazy variant of ReadObject.
	//
	// The returned Stream must be closed when done.
	ReadObjectStream(ctx context.Context, digest chasm.Digest) (chasm.Stream, bool, error)
	// ReadObjectBatch reads the given objects; absent digests are omitted
	// from the returned map.
	ReadObjectBatch(ctx context.Context, digests []chasm.Digest) (map[chasm.Digest]chasm.Blob, error)
	// WriteObject writes the given bytes, addressed by their digest.
	//
	// If an object with the derived digest already exists, the result has
	// Created=false and the store is untouched, unless forceOverwrite is set.
	WriteObject(ctx context.Context, content []byte, metadata chasm.Metadata, forceOverwrite bool) (chasm.WriteResult[chasm.Digest], error)
	// WriteObjectStream writes all bytes read from reader.
	WriteObjectStream(ctx context.Context, reader io.Reader, metadata chasm.Metadata, forceOverwrite bool) (chasm.WriteResult[chasm.Digest], error)
	// WriteObjectProducer invokes producer against an internal hashing sink.
	//
	// The bytes the producer writes, not any pre-transform input, define the
	// digest.
	WriteObjectProducer(ctx context.Context, producer func(io.Writer) error, metadata chasm.Metadata, forceOverwrite bool) (chasm.WriteResult[chasm.Digest], error)
	// WriteObjectBatch writes the given blobs, fanning out with the
	// configured degree of parallelism. Results are index-aligned with blobs.
	WriteObjectBatch(ctx context.Context, blobs []chasm.Blob, forceOverwrite bool) ([]chasm.WriteResult[chasm.Digest], error)

	// ReadTree returns the tree with the given id.
	ReadTree(ctx context.Context, treeID chasm.TreeID) (chasm.TreeNodeMap, bool, error)
	// ReadTreeForCommit returns the tree bound by the given commit.
	ReadTreeForCommit(ctx context.Context, commitID chasm.CommitID) (chasm.TreeNodeMap, bool, error)
	// ReadTreeForBranch resolves the ref, then the commit, then the tree.
	ReadTreeForBranch(ctx context.Context, name string, branch string) (chasm.TreeNodeMap, bool, error)
	// ReadTreeBatch reads the given trees; absent ids are omitted from the
	// returned map.
	ReadTreeBatch(ctx context.Context, treeIDs []chasm.TreeID) (map[chasm.TreeID]chasm.TreeNodeMap, error)
	// WriteTree serializes and writes the tree, returning its id.
	WriteTree(ctx context.Context, treeNodeMap chasm.TreeNodeMap) (chasm.TreeID, error)
	// WriteTreeAndCommit writes the tree, then a commit binding it.
	WriteTreeAndCommit(
		ctx context.Context,
		parents []chasm.CommitID,
		treeNodeMap chasm.TreeNodeMap,
		author chasm.Audit,
		committer chasm.Audit,
		message string,
	) (chasm.CommitID, error)

	// ReadCommit returns the commit with the given id.
	ReadCommit(ctx context.Context, commitID chasm.CommitID) (chasm.Commit, bool, error)
	// WriteCommit serializes and writes the commit, returning its id.
	WriteCommit(ctx context.Context, commit chasm.Commit) (chasm.CommitID, error)

	// ListNames enumerates the ref namespaces.
	ListNames(ctx context.Context) ([]string, error)
	// ListBranches enumerates the branches under one namespace.
	ListBranches(ctx context.Context, name string) ([]chasm.CommitRef, error)
	// ReadCommitRef returns the ref for the given namespace and branch.
	ReadCommitRef(ctx context.Context, name string, branch string) (chasm.CommitRef, bool, error)
	// WriteCommitRef advances the ref for commitRef.Branch under name.
	//
	// previousCommitID is the commit id the caller expects the ref to hold,
	// or nil if the caller believes the ref does not exist yet. A mismatch
	// with the observed state fails with a ConcurrencyError; writing the
	// value the ref already holds is an idempotent no-op.
	WriteCommitRef(ctx context.Context, previousCommitID *chasm.CommitID, name string, commitRef chasm.CommitRef) error

	// Serializer returns the serializer this repository was built with.
	//
	// The serializer is part of the store's persistent format.
	Serializer() chasmserializer.Serializer
}

// Backend is the primitive surface a storage backend implements.
//
// Everything else on Repository derives from these operations.
type Backend interface {
	// ObjectExists returns true if an object with the given digest is stored.
	ObjectExists(ctx context.Context, digest chasm.Digest) (bool, error)
	// ReadObject returns the object with the given digest and its metadata.
	ReadObject(ctx context.Context, digest chasm.Digest) (chasm.Blob, bool, error)
	// ReadObjectStream is the lazy variant of ReadObject.
	ReadObjectStream(ctx context.Context, digest chasm.Digest) (chasm.Stream, bool, error)
	// WriteObject streams the producer's output through a hashing sink into
	// storage and materializes it under the derived digest.
	WriteObject(ctx context.Context, producer func(io.Writer) error, metadata chasm.Metadata, forceOverwrite bool) (chasm.WriteResult[chasm.Digest], error)

	// ListNames enumerates the ref namespaces.
	ListNames(ctx context.Context) ([]string, error)
	// ListBranches enumerates the branches under one namespace.
	ListBranches(ctx context.Context, name string) ([]chasm.CommitRef, error)
	// ReadCommitRef returns the ref for the given namespace and branch.
	ReadCommitRef(ctx context.Context, name string, branch string) (chasm.CommitRef, bool, error)
	// WriteCommitRef atomically advances the ref, with the compare-and-swap
	// semantics documented on Repository.
	WriteCommitRef(ctx context.Context, previousCommitID *chasm.CommitID, name string, commitRef chasm.CommitRef) error
}

// NewRepository returns a Repository deriving all higher-level operations
// from the given backend and serializer.
func NewRepository(
	serializer chasmserializer.Serializer,
	backend Backend,
	options ...RepositoryOption,
) Repository {
	return newRepository(serializer, backend, options...)
}

// RepositoryOption is an option for NewRepository.
type RepositoryOption func(*repositoryOptions)

// RepositoryWithMaxDOP returns a RepositoryOption that bounds the degree of
// parallelism for batch operations.
//
// A maxDOP below one means unbounded. The default is the number of CPUs.
func RepositoryWithMaxDOP(maxDOP int) RepositoryOption {
	return func(repositoryOptions *repositoryOptions) {
		repositoryOptions.maxDOP = maxDOP
	}
}
