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

// Package chasmrepositorytesting provides the conformance test suite every
// Repository implementation must pass.
package chasmrepositorytesting

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/bufbuild/chasm/chasm"
	"github.com/bufbuild/chasm/chasmrepository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

// abcDigestHex is the SHA-1 of the ASCII bytes "abc".
const abcDigestHex = "a9993e364706816aba3e25717850c26c9cd0d89d"

// RunRepositoryTests runs the repository conformance suite.
//
// newRepository is called once per subtest and must return an empty repository.
func RunRepositoryTests(t *testing.T, newRepository func(t *testing.T) chasmrepository.Repository) {
	t.Run("WriteReadBlob", func(t *testing.T) {
		testWriteReadBlob(t, newRepository(t))
	})
	t.Run("IdempotentWrite", func(t *testing.T) {
		testIdempotentWrite(t, newRepository(t))
	})
	t.Run("ForceOverwrite", func(t *testing.T) {
		testForceOverwrite(t, newRepository(t))
	})
	t.Run("MetadataRoundTrip", func(t *testing.T) {
		testMetadataRoundTrip(t, newRepository(t))
	})
	t.Run("ObjectStream", func(t *testing.T) {
		testObjectStream(t, newRepository(t))
	})
	t.Run("WriteObjectProducer", func(t *testing.T) {
		testWriteObjectProducer(t, newRepository(t))
	})
	t.Run("Batches", func(t *testing.T) {
		testBatches(t, newRepository(t))
	})
	t.Run("TreeRoundTrip", func(t *testing.T) {
		testTreeRoundTrip(t, newRepository(t))
	})
	t.Run("CommitChain", func(t *testing.T) {
		testCommitChain(t, newRepository(t))
	})
	t.Run("CommitRefCAS", func(t *testing.T) {
		testCommitRefCAS(t, newRepository(t))
	})
	t.Run("ListNamesAndBranches", func(t *testing.T) {
		testListNamesAndBranches(t, newRepository(t))
	})
	t.Run("ReadAbsent", func(t *testing.T) {
		testReadAbsent(t, newRepository(t))
	})
	t.Run("InvalidArguments", func(t *testing.T) {
		testInvalidArguments(t, newRepository(t))
	})
	t.Run("ConcurrentSameContentWrites", func(t *testing.T) {
		testConcurrentSameContentWrites(t, newRepository(t))
	})
	t.Run("Cancellation", func(t *testing.T) {
		testCancellation(t, newRepository(t))
	})
}

func testWriteReadBlob(t *testing.T, repository chasmrepository.Repository) {
	ctx := context.Background()
	writeResult, err := repository.WriteObject(ctx, []byte("abc"), chasm.Metadata{}, false)
	require.NoError(t, err)
	assert.True(t, writeResult.Created)
	assert.Equal(t, abcDigestHex, writeResult.ID.String())

	exists, err := repository.ObjectExists(ctx, writeResult.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	blob, ok, err := repository.ReadObject(ctx, writeResult.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), blob.Content)
	assert.True(t, blob.Metadata.IsZero())
}

func testIdempotentWrite(t *testing.T, repository chasmrepository.Repository) {
	ctx := context.Background()
	first, err := repository.WriteObject(ctx, []byte("abc"), chasm.Metadata{}, false)
	require.NoError(t, err)
	assert.True(t, first.Created)
	second, err := repository.WriteObject(ctx, []byte("abc"), chasm.Metadata{}, false)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.ID, second.ID)

	blob, ok, err := repository.ReadObject(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), blob.Content)
}

func testForceOverwrite(t *testing.T, repository chasmrepository.Repository) {
	ctx := context.Background()
	first, err := repository.WriteObject(ctx, []byte("abc"), chasm.Metadata{}, false)
	require.NoError(t, err)
	second, err := repository.WriteObject(ctx, []byte("abc"), chasm.Metadata{ContentType: "text/plain"}, true)
	require.NoError(t, err)
	assert.True(t, second.Created)
	assert.Equal(t, first.ID, second.ID)

	blob, ok, err := repository.ReadObject(ctx, first.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), blob.Content)
	assert.Equal(t, "text/plain", blob.Metadata.ContentType)
}

func testMetadataRoundTrip(t *testing.T, repository chasmrepository.Repository) {
	ctx := context.Background()
	metadata := chasm.Metadata{
		ContentType: "application/octet-stream",
		Filename:    "payload.bin",
	}
	writeResult, err := repository.WriteObject(ctx, []byte("payload"), metadata, false)
	require.NoError(t, err)

	blob, ok, err := repository.ReadObject(ctx, writeResult.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, metadata, blob.Metadata)

	digestToBlob, err := repository.ReadObjectBatch(ctx, []chasm.Digest{writeResult.ID})
	require.NoError(t, err)
	require.Contains(t, digestToBlob, writeResult.ID)
	assert.Equal(t, metadata, digestToBlob[writeResult.ID].Metadata)
}

func testObjectStream(t *testing.T, repository chasmrepository.Repository) {
	ctx := context.Background()
	metadata := chasm.Metadata{Filename: "stream.txt"}
	writeResult, err := repository.WriteObjectStream(
		ctx,
		io.LimitReader(newRepeatReader('x'), 1<<16),
		metadata,
		false,
	)
	require.NoError(t, err)

	stream, ok, err := repository.ReadObjectStream(ctx, writeResult.ID)
	require.NoError(t, err)
	require.True(t, ok)
	content, err := io.ReadAll(stream)
	require.NoError(t, err)
	require.NoError(t, stream.Close())
	assert.Len(t, content, 1<<16)
	assert.Equal(t, metadata, stream.Metadata())
	assert.Equal(t, chasm.NewDigestForBytes(content), writeResult.ID)
}

func testWriteObjectProducer(t *testing.T, repository chasmrepository.Repository) {
	ctx := context.Background()
	writeResult, err := repository.WriteObjectProducer(
		ctx,
		func(writer io.Writer) error {
			for _, chunk := range []string{"a", "b", "c"} {
				if _, err := io.WriteString(writer, chunk); err != nil {
					return err
				}
			}
			return nil
		},
		chasm.Metadata{},
		false,
	)
	require.NoError(t, err)
	// The digest is derived from the producer's output.
	assert.Equal(t, abcDigestHex, writeResult.ID.String())
}

func testBatches(t *testing.T, repository chasmrepository.Repository) {
	ctx := context.Background()

	digestToBlob, err := repository.ReadObjectBatch(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, digestToBlob)

	writeResults, err := repository.WriteObjectBatch(ctx, nil, false)
	require.NoError(t, err)
	assert.Empty(t, writeResults)

	blobs := []chasm.Blob{
		chasm.NewBlob([]byte("one"), chasm.Metadata{}),
		chasm.NewBlob([]byte("two"), chasm.Metadata{}),
		chasm.NewBlob([]byte("three"), chasm.Metadata{}),
	}
	writeResults, err = repository.WriteObjectBatch(ctx, blobs, false)
	require.NoError(t, err)
	require.Len(t, writeResults, 3)
	for i, writeResult := range writeResults {
		assert.True(t, writeResult.Created)
		assert.Equal(t, chasm.NewDigestForBytes(blobs[i].Content), writeResult.ID)
	}

	absentDigest := chasm.NewDigestForBytes([]byte("absent"))
	digestToBlob, err = repository.ReadObjectBatch(
		ctx,
		[]chasm.Digest{writeResults[0].ID, absentDigest, writeResults[2].ID},
	)
	require.NoError(t, err)
	require.Len(t, digestToBlob, 2)
	assert.NotContains(t, digestToBlob, absentDigest)
	assert.Equal(t, []byte("one"), digestToBlob[writeResults[0].ID].Content)
	assert.Equal(t, []byte("three"), digestToBlob[writeResults[2].ID].Content)
}

func testTreeRoundTrip(t *testing.T, repository chasmrepository.Repository) {
	ctx := context.Background()
	treeNodeMap, err := chasm.NewTreeNodeMap(
		chasm.TreeNode{
			Name:   "a",
			Kind:   chasm.NodeKindBlob,
			NodeID: chasm.NewDigestForBytes([]byte("d1")),
		},
		chasm.TreeNode{
			Name:   "b",
			Kind:   chasm.NodeKindTree,
			NodeID: chasm.NewDigestForBytes([]byte("d2")),
		},
	)
	require.NoError(t, err)

	treeID, err := repository.WriteTree(ctx, treeNodeMap)
	require.NoError(t, err)
	require.False(t, treeID.IsZero())

	roundTripped, ok, err := repository.ReadTree(ctx, treeID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, treeNodeMap.Equal(roundTripped))
	assert.Equal(t, treeNodeMap.Nodes(), roundTripped.Nodes())

	treeIDToTreeNodeMap, err := repository.ReadTreeBatch(ctx, []chasm.TreeID{treeID})
	require.NoError(t, err)
	require.Contains(t, treeIDToTreeNodeMap, treeID)
	assert.True(t, treeNodeMap.Equal(treeIDToTreeNodeMap[treeID]))
}

func testCommitChain(t *testing.T, repository chasmrepository.Repository) {
	ctx := context.Background()
	author := chasm.NewAudit("alice", time.Date(2023, time.March, 14, 15, 9, 26, 0, time.UTC))
	committer := chasm.NewAudit("bob", time.Date(2023, time.March, 14, 15, 9, 27, 0, time.UTC))

	tree0, err := chasm.NewTreeNodeMap(
		chasm.TreeNode{
			Name:   "file",
			Kind:   chasm.NodeKindBlob,
			NodeID: chasm.NewDigestForBytes([]byte("v0")),
		},
	)
	require.NoError(t, err)
	commitID0, err := repository.WriteTreeAndCommit(ctx, nil, tree0, author, committer, "init")
	require.NoError(t, err)

	tree1, err := tree0.Add(
		chasm.TreeNode{
			Name:   "other",
			Kind:   chasm.NodeKindBlob,
			NodeID: chasm.NewDigestForBytes([]byte("v1")),
		},
	)
	require.NoError(t, err)
	commitID1, err := repository.WriteTreeAndCommit(
		ctx,
		[]chasm.CommitID{commitID0},
		tree1,
		author,
		committer,
		"next",
	)
	require.NoError(t, err)

	commit1, ok, err := repository.ReadCommit(ctx, commitID1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []chasm.CommitID{commitID0}, commit1.Parents)
	assert.Equal(t, "next", commit1.Message)
	assert.Equal(t, author, commit1.Author)
	assert.Equal(t, committer, commit1.Committer)

	treeNodeMap, ok, err := repository.ReadTreeForCommit(ctx, commitID1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, tree1.Equal(treeNodeMap))
}

func testCommitRefCAS(t *testing.T, repository chasmrepository.Repository) {
	ctx := context.Background()
	commitID0 := writeTestCommit(t, repository, "c0")
	commitID1 := writeTestCommit(t, repository, "c1")
	commitID2 := writeTestCommit(t, repository, "c2")

	mainAtCommit0, err := chasm.NewCommitRef("main", commitID0)
	require.NoError(t, err)
	require.NoError(t, repository.WriteCommitRef(ctx, nil, "repo", mainAtCommit0))

	commitRef, ok, err := repository.ReadCommitRef(ctx, "repo", "main")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, commitID0, commitRef.CommitID)

	// Re-creating with the value the ref already holds is an idempotent no-op.
	require.NoError(t, repository.WriteCommitRef(ctx, nil, "repo", mainAtCommit0))

	// Creating a ref that already exists with a different value conflicts.
	mainAtCommit1, err := chasm.NewCommitRef("main", commitID1)
	require.NoError(t, err)
	err = repository.WriteCommitRef(ctx, nil, "repo", mainAtCommit1)
	require.Error(t, err)
	assert.True(t, chasmrepository.IsConcurrencyError(err))

	// Advance with the matching previous id.
	require.NoError(t, repository.WriteCommitRef(ctx, &commitID0, "repo", mainAtCommit1))
	commitRef, ok, err = repository.ReadCommitRef(ctx, "repo", "main")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, commitID1, commitRef.CommitID)

	// A stale previous id conflicts and leaves the ref untouched.
	mainAtCommit2, err := chasm.NewCommitRef("main", commitID2)
	require.NoError(t, err)
	err = repository.WriteCommitRef(ctx, &commitID0, "repo", mainAtCommit2)
	require.Error(t, err)
	assert.True(t, chasmrepository.IsConcurrencyError(err))
	concurrencyError := &chasmrepository.ConcurrencyError{}
	require.ErrorAs(t, err, &concurrencyError)
	assert.Equal(t, "repo", concurrencyError.Name)
	assert.Equal(t, "main", concurrencyError.Branch)
	commitRef, ok, err = repository.ReadCommitRef(ctx, "repo", "main")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, commitID1, commitRef.CommitID)

	// Re-writing the current value is an idempotent no-op.
	require.NoError(t, repository.WriteCommitRef(ctx, &commitID0, "repo", mainAtCommit1))

	// Creating a ref with an expected previous id fails.
	devAtCommit0, err := chasm.NewCommitRef("dev", commitID0)
	require.NoError(t, err)
	err = repository.WriteCommitRef(ctx, &commitID0, "repo", devAtCommit0)
	require.Error(t, err)
	assert.True(t, chasmrepository.IsConcurrencyError(err))
}

func testListNamesAndBranches(t *testing.T, repository chasmrepository.Repository) {
	ctx := context.Background()

	names, err := repository.ListNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	commitID := writeTestCommit(t, repository, "c0")
	for _, pair := range []struct {
		name   string
		branch string
	}{
		{name: "repo", branch: "main"},
		{name: "repo", branch: "dev"},
		{name: "team/other repo", branch: "feature/fancy stuff"},
	} {
		commitRef, err := chasm.NewCommitRef(pair.branch, commitID)
		require.NoError(t, err)
		require.NoError(t, repository.WriteCommitRef(ctx, nil, pair.name, commitRef))
	}

	names, err = repository.ListNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"repo", "team/other repo"}, names)

	commitRefs, err := repository.ListBranches(ctx, "repo")
	require.NoError(t, err)
	require.Len(t, commitRefs, 2)
	assert.Equal(t, "dev", commitRefs[0].Branch)
	assert.Equal(t, "main", commitRefs[1].Branch)
	assert.Equal(t, commitID, commitRefs[0].CommitID)

	commitRefs, err = repository.ListBranches(ctx, "team/other repo")
	require.NoError(t, err)
	require.Len(t, commitRefs, 1)
	assert.Equal(t, "feature/fancy stuff", commitRefs[0].Branch)

	commitRefs, err = repository.ListBranches(ctx, "absent")
	require.NoError(t, err)
	assert.Empty(t, commitRefs)
}

func testReadAbsent(t *testing.T, repository chasmrepository.Repository) {
	ctx := context.Background()
	absentDigest := chasm.NewDigestForBytes([]byte("never written"))

	exists, err := repository.ObjectExists(ctx, absentDigest)
	require.NoError(t, err)
	assert.False(t, exists)

	_, ok, err := repository.ReadObject(ctx, absentDigest)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = repository.ReadObjectStream(ctx, absentDigest)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = repository.ReadTree(ctx, chasm.TreeID(absentDigest))
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = repository.ReadCommit(ctx, chasm.CommitID(absentDigest))
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = repository.ReadCommitRef(ctx, "repo", "main")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = repository.ReadTreeForBranch(ctx, "repo", "main")
	require.NoError(t, err)
	assert.False(t, ok)
}

func testInvalidArguments(t *testing.T, repository chasmrepository.Repository) {
	ctx := context.Background()
	commitID := writeTestCommit(t, repository, "c0")
	commitRef, err := chasm.NewCommitRef("main", commitID)
	require.NoError(t, err)

	err = repository.WriteCommitRef(ctx, nil, "", commitRef)
	require.Error(t, err)
	assert.True(t, chasmrepository.IsInvalidArgumentError(err))

	err = repository.WriteCommitRef(ctx, nil, "   ", commitRef)
	require.Error(t, err)
	assert.True(t, chasmrepository.IsInvalidArgumentError(err))

	err = repository.WriteCommitRef(ctx, nil, "repo", chasm.CommitRef{})
	require.Error(t, err)
	assert.True(t, chasmrepository.IsInvalidArgumentError(err))

	_, _, err = repository.ReadCommitRef(ctx, "repo", "")
	require.Error(t, err)
	assert.True(t, chasmrepository.IsInvalidArgumentError(err))

	_, _, err = repository.ReadTreeForBranch(ctx, "", "main")
	require.Error(t, err)
	assert.True(t, chasmrepository.IsInvalidArgumentError(err))
}

func testConcurrentSameContentWrites(t *testing.T, repository chasmrepository.Repository) {
	ctx := context.Background()
	const writers = 8
	var createdCount atomic.Int64
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			writeResult, err := repository.WriteObject(ctx, []byte("contended content"), chasm.Metadata{}, false)
			if err != nil {
				errs[i] = err
				return
			}
			if writeResult.Created {
				createdCount.Inc()
			}
		}()
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int64(1), createdCount.Load(), "created=true outcomes")

	blob, ok, err := repository.ReadObject(ctx, chasm.NewDigestForBytes([]byte("contended content")))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("contended content"), blob.Content)
}

func testCancellation(t *testing.T, repository chasmrepository.Repository) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := repository.WriteObject(ctx, []byte("abc"), chasm.Metadata{}, false)
	assert.ErrorIs(t, err, context.Canceled)
	_, _, err = repository.ReadObject(ctx, chasm.NewDigestForBytes([]byte("abc")))
	assert.ErrorIs(t, err, context.Canceled)
}

func writeTestCommit(t *testing.T, repository chasmrepository.Repository, marker string) chasm.CommitID {
	treeNodeMap, err := chasm.NewTreeNodeMap(
		chasm.TreeNode{
			Name:   "file",
			Kind:   chasm.NodeKindBlob,
			NodeID: chasm.NewDigestForBytes([]byte(marker)),
		},
	)
	require.NoError(t, err)
	commitID, err := repository.WriteTreeAndCommit(
		context.Background(),
		nil,
		treeNodeMap,
		chasm.NewAudit("alice", time.Date(2023, time.March, 14, 15, 9, 26, 0, time.UTC)),
		chasm.NewAudit("bob", time.Date(2023, time.March, 14, 15, 9, 27, 0, time.UTC)),
		marker,
	)
	require.NoError(t, err)
	return commitID
}

type repeatReader struct {
	b byte
}

func newRepeatReader(b byte) *repeatReader {
	return &repeatReader{b: b}
}

func (r *repeatReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = r.b
	}
	return len(p), nil
}
