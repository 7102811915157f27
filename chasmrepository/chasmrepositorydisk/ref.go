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
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bufbuild/chasm/chasm"
	"github.com/bufbuild/chasm/chasmrepository"
	"github.com/bufbuild/chasm/chasmserializer"
	"github.com/bufbuild/chasm/internal/pkg/tmp"
	"github.com/gofrs/flock"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func (b *backend) ListNames(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dirEntries, err := os.ReadDir(b.refsDirPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		if !dirEntry.IsDir() {
			continue
		}
		name, err := url.PathUnescape(dirEntry.Name())
		if err != nil {
			return nil, fmt.Errorf("malformed ref namespace directory %q: %w", dirEntry.Name(), err)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (b *backend) ListBranches(ctx context.Context, name string) ([]chasm.CommitRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	namespaceDirPath := filepath.Join(b.refsDirPath(), url.PathEscape(name))
	dirEntries, err := os.ReadDir(namespaceDirPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	commitRefs := make([]chasm.CommitRef, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() || !strings.HasSuffix(dirEntry.Name(), commitRefFileExt) {
			continue
		}
		branch, err := url.PathUnescape(strings.TrimSuffix(dirEntry.Name(), commitRefFileExt))
		if err != nil {
			return nil, fmt.Errorf("malformed ref file %q: %w", dirEntry.Name(), err)
		}
		commitRef, ok, err := b.ReadCommitRef(ctx, name, branch)
		if err != nil {
			return nil, err
		}
		if !ok {
			// Raced with a concurrent delete of the namespace; skip.
			continue
		}
		commitRefs = append(commitRefs, commitRef)
	}
	sort.Slice(commitRefs, func(i int, j int) bool {
		return commitRefs[i].Branch < commitRefs[j].Branch
	})
	return commitRefs, nil
}

func (b *backend) ReadCommitRef(ctx context.Context, name string, branch string) (chasm.CommitRef, bool, error) {
	var data []byte
	err := b.retry(ctx, func() error {
		readData, err := os.ReadFile(b.refPath(name, branch))
		if err != nil {
			return err
		}
		data = readData
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return chasm.CommitRef{}, false, nil
		}
		return chasm.CommitRef{}, false, err
	}
	commitID, err := b.deserializeCommitRefData(data)
	if err != nil {
		return chasm.CommitRef{}, false, err
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
) (retErr error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	refPath := b.refPath(name, commitRef.Branch)
	if err := os.MkdirAll(filepath.Dir(refPath), 0755); err != nil {
		return err
	}
	// The lock serializes writers within and across processes; readers go
	// lockless and rely on rename atomicity.
	fileLock := flock.New(refPath + refLockFileExt)
	locked, err := fileLock.TryLockContext(ctx, b.retryDelay)
	if err != nil {
		return err
	}
	if !locked {
		return chasmrepository.NewConcurrencyError(name, commitRef.Branch)
	}
	defer func() {
		retErr = multierr.Append(retErr, fileLock.Unlock())
	}()
	currentData, err := os.ReadFile(refPath)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if os.IsNotExist(err) {
		if previousCommitID != nil {
			return chasmrepository.NewConcurrencyError(name, commitRef.Branch)
		}
	} else {
		currentCommitID, err := b.deserializeCommitRefData(currentData)
		if err != nil {
			return err
		}
		if currentCommitID == commitRef.CommitID {
			// Already at the intended value.
			return nil
		}
		if previousCommitID == nil || *previousCommitID != currentCommitID {
			return chasmrepository.NewConcurrencyError(name, commitRef.Branch)
		}
	}
	data, err := b.serializer.SerializeCommitID(commitRef.CommitID)
	if err != nil {
		return err
	}
	tmpFile, err := tmp.NewFile(b.tmpDirPath())
	if err != nil {
		return err
	}
	defer func() {
		retErr = multierr.Append(retErr, tmpFile.Close())
	}()
	if _, err := tmpFile.Write(data); err != nil {
		return err
	}
	if err := b.retry(ctx, func() error {
		return tmpFile.MoveTo(refPath)
	}); err != nil {
		return err
	}
	b.logger.Debug(
		"wrote commit ref",
		append(
			requestContextFields(ctx),
			zap.String("name", name),
			zap.String("branch", commitRef.Branch),
			zap.String("commit_id", commitRef.CommitID.String()),
		)...,
	)
	return nil
}

func (b *backend) deserializeCommitRefData(data []byte) (chasm.CommitID, error) {
	if len(data) < chasm.DigestLength {
		return chasm.CommitID{}, chasmserializer.NewSerializationError(
			entityCommitRef,
			fmt.Sprintf("expected at least %d bytes but got %d", chasm.DigestLength, len(data)),
		)
	}
	return b.serializer.DeserializeCommitID(data)
}
