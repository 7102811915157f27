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

// Package tmp provides temporary files that are deleted on Close unless they
// were moved into their final location first.
package tmp

import (
	"os"
	"path/filepath"

	"go.uber.org/multierr"
)

// File is a temporary file.
//
// It is open for writing until MoveTo or Close is called. Close deletes the
// file unless a MoveTo succeeded, so deferring Close makes cleanup happen on
// every exit path.
type File struct {
	file    *os.File
	absPath string
	closed  bool
	moved   bool
}

// NewFile returns a new temporary File inside dir.
//
// The directory is created if it does not exist. Keeping dir on the same
// filesystem as the final location makes MoveTo atomic.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	file, err := os.CreateTemp(dir, ".tmp-")
	if err != nil {
		return nil, err
	}
	absPath, err := filepath.Abs(file.Name())
	if err != nil {
		return nil, multierr.Append(err, multierr.Append(file.Close(), os.Remove(file.Name())))
	}
	return &File{
		file:    file,
		absPath: absPath,
	}, nil
}

// AbsPath returns the absolute path of the file.
func (f *File) AbsPath() string {
	return f.absPath
}

// Write implements io.Writer.
func (f *File) Write(data []byte) (int, error) {
	return f.file.Write(data)
}

// MoveTo closes the file and renames it to destPath, creating parent
// directories as needed.
//
// After a successful MoveTo, Close does nothing.
func (f *File) MoveTo(destPath string) error {
	if err := f.closeFile(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return err
	}
	if err := os.Rename(f.absPath, destPath); err != nil {
		return err
	}
	f.moved = true
	return nil
}

// LinkTo closes the file and hard-links it to destPath, creating parent
// directories as needed.
//
// Unlike a rename, the link fails with an exists-error if destPath is already
// present, which makes it the loser-detecting primitive for concurrent
// writers of the same content. The temporary file itself remains for Close to
// delete.
func (f *File) LinkTo(destPath string) error {
	if err := f.closeFile(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
		return err
	}
	return os.Link(f.absPath, destPath)
}

// Close closes and deletes the file, unless it was moved.
func (f *File) Close() error {
	err := f.closeFile()
	if f.moved {
		return err
	}
	removeErr := os.Remove(f.absPath)
	if removeErr != nil && os.IsNotExist(removeErr) {
		removeErr = nil
	}
	return multierr.Append(err, removeErr)
}

func (f *File) closeFile() error {
	if f.closed {
		return nil
	}
	f.closed = true
	return f.file.Close()
}
