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

package tmp

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileDeletedOnClose(t *testing.T) {
	t.Parallel()
	tmpFile, err := NewFile(filepath.Join(t.TempDir(), "tmp"))
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(tmpFile.AbsPath()))
	_, err = tmpFile.Write([]byte("foo"))
	require.NoError(t, err)
	data, err := os.ReadFile(tmpFile.AbsPath())
	assert.NoError(t, err)
	assert.Equal(t, "foo", string(data))
	require.NoError(t, tmpFile.Close())
	_, err = os.ReadFile(tmpFile.AbsPath())
	assert.Error(t, err)
}

func TestFileMoveTo(t *testing.T) {
	t.Parallel()
	tempDir := t.TempDir()
	tmpFile, err := NewFile(filepath.Join(tempDir, "tmp"))
	require.NoError(t, err)
	_, err = tmpFile.Write([]byte("bar"))
	require.NoError(t, err)
	destPath := filepath.Join(tempDir, "objects", "ab", "cdef")
	require.NoError(t, tmpFile.MoveTo(destPath))
	require.NoError(t, tmpFile.Close())
	data, err := os.ReadFile(destPath)
	require.NoError(t, err)
	assert.Equal(t, "bar", string(data))
	_, err = os.Stat(tmpFile.AbsPath())
	assert.True(t, os.IsNotExist(err))
}

func TestCloseIsIdempotent(t *testing.T) {
	t.Parallel()
	tmpFile, err := NewFile(filepath.Join(t.TempDir(), "tmp"))
	require.NoError(t, err)
	require.NoError(t, tmpFile.Close())
	assert.NoError(t, tmpFile.Close())
}
