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
	"path/filepath"
	"testing"

	"github.com/bufbuild/chasm/chasm"
	"github.com/bufbuild/chasm/chasmrepository"
	"github.com/bufbuild/chasm/chasmrepository/chasmrepositorytesting"
	"github.com/bufbuild/chasm/chasmserializer"
	"github.com/bufbuild/chasm/chasmserializer/chasmserializerbinary"
	"github.com/bufbuild/chasm/chasmserializer/chasmserializerjson"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConformanceBinarySerializer(t *testing.T) {
	t.Parallel()
	chasmrepositorytesting.RunRepositoryTests(t, func(t *testing.T) chasmrepository.Repository {
		return newTestRepository(t, chasmserializerbinary.NewSerializer())
	})
}

func TestConformanceJSONSerializer(t *testing.T) {
	t.Parallel()
	chasmrepositorytesting.RunRepositoryTests(t, func(t *testing.T) chasmrepository.Repository {
		return newTestRepository(t, chasmserializerjson.NewSerializer())
	})
}

func TestConformanceWithCompression(t *testing.T) {
	t.Parallel()
	chasmrepositorytesting.RunRepositoryTests(t, func(t *testing.T) chasmrepository.Repository {
		return newTestRepository(
			t,
			chasmserializerbinary.NewSerializer(),
			RepositoryWithCompressionLevel(gzip.BestSpeed),
		)
	})
}

func TestShardedObjectLayout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rootPath := t.TempDir()
	repository, err := NewRepository(
		zap.NewNop(),
		chasmserializerbinary.NewSerializer(),
		rootPath,
	)
	require.NoError(t, err)

	writeResult, err := repository.WriteObject(ctx, []byte("abc"), chasm.Metadata{}, false)
	require.NoError(t, err)
	// SHA-1("abc") shards to a9/993e....
	objectPath := filepath.Join(
		rootPath,
		"objects",
		"a9",
		"993e364706816aba3e25717850c26c9cd0d89d",
	)
	data, err := os.ReadFile(objectPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), data)
	assert.Equal(t, "a9993e364706816aba3e25717850c26c9cd0d89d", writeResult.ID.String())
}

func TestPrefixLengthOption(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rootPath := t.TempDir()
	repository, err := NewRepository(
		zap.NewNop(),
		chasmserializerbinary.NewSerializer(),
		rootPath,
		RepositoryWithPrefixLength(4),
	)
	require.NoError(t, err)

	_, err = repository.WriteObject(ctx, []byte("abc"), chasm.Metadata{}, false)
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(rootPath, "objects", "a999", "3e364706816aba3e25717850c26c9cd0d89d"))
	require.NoError(t, err)
}

func TestMetadataSidecarFile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rootPath := t.TempDir()
	repository, err := NewRepository(
		zap.NewNop(),
		chasmserializerbinary.NewSerializer(),
		rootPath,
	)
	require.NoError(t, err)

	writeResult, err := repository.WriteObject(
		ctx,
		[]byte("abc"),
		chasm.Metadata{ContentType: "text/plain", Filename: "abc.txt"},
		false,
	)
	require.NoError(t, err)
	prefix, remainder := writeResult.ID.Split(chasm.DefaultSplitPrefixLength)
	sidecarPath := filepath.Join(rootPath, "objects", prefix, remainder+".metadata")
	data, err := os.ReadFile(sidecarPath)
	require.NoError(t, err)
	assert.JSONEq(t, `{"contentType":"text/plain","filename":"abc.txt"}`, string(data))
}

func TestCompressedAtRest(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rootPath := t.TempDir()
	repository, err := NewRepository(
		zap.NewNop(),
		chasmserializerbinary.NewSerializer(),
		rootPath,
		RepositoryWithCompressionLevel(gzip.BestCompression),
	)
	require.NoError(t, err)

	writeResult, err := repository.WriteObject(ctx, []byte("abc"), chasm.Metadata{}, false)
	require.NoError(t, err)
	// The address is still the digest of the uncompressed payload.
	assert.Equal(t, "a9993e364706816aba3e25717850c26c9cd0d89d", writeResult.ID.String())
	prefix, remainder := writeResult.ID.Split(chasm.DefaultSplitPrefixLength)
	stored, err := os.ReadFile(filepath.Join(rootPath, "objects", prefix, remainder))
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(stored), 2)
	// gzip magic bytes
	assert.Equal(t, []byte{0x1f, 0x8b}, stored[:2])

	blob, ok, err := repository.ReadObject(ctx, writeResult.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), blob.Content)
}

func TestTmpDirEmptyAfterWrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rootPath := t.TempDir()
	repository, err := NewRepository(
		zap.NewNop(),
		chasmserializerbinary.NewSerializer(),
		rootPath,
	)
	require.NoError(t, err)

	_, err = repository.WriteObject(ctx, []byte("abc"), chasm.Metadata{}, false)
	require.NoError(t, err)
	// Idempotent second write discards its temp file.
	_, err = repository.WriteObject(ctx, []byte("abc"), chasm.Metadata{}, false)
	require.NoError(t, err)
	dirEntries, err := os.ReadDir(filepath.Join(rootPath, "tmp"))
	require.NoError(t, err)
	assert.Empty(t, dirEntries)
}

func TestRefFileLayout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rootPath := t.TempDir()
	serializer := chasmserializerbinary.NewSerializer()
	repository, err := NewRepository(zap.NewNop(), serializer, rootPath)
	require.NoError(t, err)

	writeResult, err := repository.WriteObject(ctx, []byte("abc"), chasm.Metadata{}, false)
	require.NoError(t, err)
	commitID := chasm.CommitID(writeResult.ID)
	commitRef, err := chasm.NewCommitRef("feature/fancy", commitID)
	require.NoError(t, err)
	require.NoError(t, repository.WriteCommitRef(ctx, nil, "team/repo", commitRef))

	refPath := filepath.Join(rootPath, "refs", "team%2Frepo", "feature%2Ffancy.commit")
	data, err := os.ReadFile(refPath)
	require.NoError(t, err)
	expected, err := serializer.SerializeCommitID(commitID)
	require.NoError(t, err)
	assert.Equal(t, expected, data)
}

func TestReopenExistingRoot(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rootPath := t.TempDir()
	serializer := chasmserializerbinary.NewSerializer()
	repository, err := NewRepository(zap.NewNop(), serializer, rootPath)
	require.NoError(t, err)
	writeResult, err := repository.WriteObject(ctx, []byte("abc"), chasm.Metadata{}, false)
	require.NoError(t, err)

	reopened, err := NewRepository(zap.NewNop(), serializer, rootPath)
	require.NoError(t, err)
	blob, ok, err := reopened.ReadObject(ctx, writeResult.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), blob.Content)
}

func TestShortRefPayload(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	rootPath := t.TempDir()
	repository, err := NewRepository(
		zap.NewNop(),
		chasmserializerbinary.NewSerializer(),
		rootPath,
	)
	require.NoError(t, err)

	refPath := filepath.Join(rootPath, "refs", "repo", "main.commit")
	require.NoError(t, os.MkdirAll(filepath.Dir(refPath), 0755))
	require.NoError(t, os.WriteFile(refPath, []byte("short"), 0644))
	_, _, err = repository.ReadCommitRef(ctx, "repo", "main")
	require.Error(t, err)
	assert.True(t, chasmserializer.IsSerializationError(err))
}

func newTestRepository(
	t *testing.T,
	serializer chasmserializer.Serializer,
	options ...RepositoryOption,
) chasmrepository.Repository {
	repository, err := NewRepository(
		zap.NewNop(),
		serializer,
		t.TempDir(),
		options...,
	)
	require.NoError(t, err)
	return repository
}
