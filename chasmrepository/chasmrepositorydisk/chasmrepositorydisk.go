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

// Package chasmrepositorydisk implements a file-system-backed repository.
//
// Objects live at <root>/objects/<prefix>/<remainder> with the two path
// segments derived by splitting the digest hex, optional metadata in a
// .metadata sidecar next to the object. Refs live at
// <root>/refs/<escaped-name>/<escaped-branch>.commit and hold the serialized
// commit id. Writes hash while streaming into a temp file under <root>/tmp
// and then move it into place (an exclusive hard link for new objects, a
// rename for forced overwrites and refs), so objects materialize at most once
// and never partially.
package chasmrepositorydisk

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/bufbuild/chasm/chasm"
	"github.com/bufbuild/chasm/chasmrepository"
	"github.com/bufbuild/chasm/chasmserializer"
	"go.uber.org/zap"
)

const (
	objectsDirName    = "objects"
	refsDirName       = "refs"
	tmpDirName        = "tmp"
	commitRefFileExt  = ".commit"
	metadataFileExt   = ".metadata"
	refLockFileExt    = ".lock"
	entityCommitRef   = "commit ref"

	defaultRetryAttempts = 10
	defaultRetryDelay    = 25 * time.Millisecond
)

// NewRepository returns a new file-system-backed Repository rooted at rootPath.
//
// The root directory is created on demand. The serializer is part of the
// store's persistent format and must not change for an existing root.
func NewRepository(
	logger *zap.Logger,
	serializer chasmserializer.Serializer,
	rootPath string,
	options ...RepositoryOption,
) (chasmrepository.Repository, error) {
	if rootPath == "" {
		return nil, chasmrepository.NewInvalidArgumentError("rootPath")
	}
	absRootPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, err
	}
	repositoryOptions := newRepositoryOptions()
	for _, option := range options {
		option(repositoryOptions)
	}
	return chasmrepository.NewRepository(
		serializer,
		newBackend(
			logger,
			serializer,
			absRootPath,
			repositoryOptions,
		),
		repositoryOptions.repositoryOptions...,
	), nil
}

// RepositoryOption is an option for NewRepository.
type RepositoryOption func(*repositoryOptions)

// RepositoryWithPrefixLength returns a RepositoryOption that sets the number
// of hex characters in the first sharded path segment.
//
// The default is 2, producing paths such as "ab/cdef...". The prefix length
// is part of the store's on-disk layout and must not change for an existing
// root.
func RepositoryWithPrefixLength(prefixLength int) RepositoryOption {
	return func(repositoryOptions *repositoryOptions) {
		repositoryOptions.prefixLength = prefixLength
	}
}

// RepositoryWithCompressionLevel returns a RepositoryOption that stores
// object payloads gzip-compressed at the given level.
//
// Digests are always computed over the uncompressed payload, so addresses do
// not depend on this setting, but the setting itself is part of the store's
// persistent format: a root written compressed must always be opened
// compressed. The default is no compression.
func RepositoryWithCompressionLevel(compressionLevel int) RepositoryOption {
	return func(repositoryOptions *repositoryOptions) {
		repositoryOptions.compressionLevel = compressionLevel
	}
}

// RepositoryWithRetry returns a RepositoryOption that overrides the retry
// policy for file operations racing with other processes.
func RepositoryWithRetry(attempts int, delay time.Duration) RepositoryOption {
	return func(repositoryOptions *repositoryOptions) {
		repositoryOptions.retryAttempts = attempts
		repositoryOptions.retryDelay = delay
	}
}

// RepositoryWithMaxDOP returns a RepositoryOption that bounds the degree of
// parallelism for batch operations.
func RepositoryWithMaxDOP(maxDOP int) RepositoryOption {
	return func(repositoryOptions *repositoryOptions) {
		repositoryOptions.repositoryOptions = append(
			repositoryOptions.repositoryOptions,
			chasmrepository.RepositoryWithMaxDOP(maxDOP),
		)
	}
}

type repositoryOptions struct {
	prefixLength      int
	compressionLevel  int
	retryAttempts     int
	retryDelay        time.Duration
	repositoryOptions []chasmrepository.RepositoryOption
}

func newRepositoryOptions() *repositoryOptions {
	return &repositoryOptions{
		prefixLength:  chasm.DefaultSplitPrefixLength,
		retryAttempts: defaultRetryAttempts,
		retryDelay:    defaultRetryDelay,
	}
}

type backend struct {
	logger           *zap.Logger
	serializer       chasmserializer.Serializer
	rootPath         string
	prefixLength     int
	compressionLevel int
	retryAttempts    int
	retryDelay       time.Duration
}

func newBackend(
	logger *zap.Logger,
	serializer chasmserializer.Serializer,
	rootPath string,
	repositoryOptions *repositoryOptions,
) *backend {
	return &backend{
		logger:           logger,
		serializer:       serializer,
		rootPath:         rootPath,
		prefixLength:     repositoryOptions.prefixLength,
		compressionLevel: repositoryOptions.compressionLevel,
		retryAttempts:    repositoryOptions.retryAttempts,
		retryDelay:       repositoryOptions.retryDelay,
	}
}

func (b *backend) objectPath(digest chasm.Digest) string {
	prefix, remainder := digest.Split(b.prefixLength)
	return filepath.Join(b.rootPath, objectsDirName, prefix, remainder)
}

func (b *backend) metadataPath(digest chasm.Digest) string {
	return b.objectPath(digest) + metadataFileExt
}

func (b *backend) tmpDirPath() string {
	return filepath.Join(b.rootPath, tmpDirName)
}

func (b *backend) refsDirPath() string {
	return filepath.Join(b.rootPath, refsDirName)
}

func (b *backend) refPath(name string, branch string) string {
	return filepath.Join(
		b.refsDirPath(),
		url.PathEscape(name),
		url.PathEscape(branch)+commitRefFileExt,
	)
}
