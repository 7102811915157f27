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

package chasm

import (
	"errors"
	"fmt"
)

// NewInvalidDigestLengthError returns a new InvalidDigestLengthError.
func NewInvalidDigestLengthError(length int) *InvalidDigestLengthError {
	return &InvalidDigestLengthError{
		Length: length,
	}
}

// InvalidDigestLengthError is the error returned when a digest is constructed
// from a byte sequence that is not exactly DigestLength bytes.
type InvalidDigestLengthError struct {
	Length int
}

// Error implements error.
func (i *InvalidDigestLengthError) Error() string {
	return fmt.Sprintf("invalid digest length %d: expected %d bytes", i.Length, DigestLength)
}

// IsInvalidDigestLengthError returns true if err is an InvalidDigestLengthError.
func IsInvalidDigestLengthError(err error) bool {
	invalidDigestLengthError := &InvalidDigestLengthError{}
	return errors.As(err, &invalidDigestLengthError)
}

// NewInvalidDigestFormatError returns a new InvalidDigestFormatError.
func NewInvalidDigestFormatError(input string) *InvalidDigestFormatError {
	return &InvalidDigestFormatError{
		Input: input,
	}
}

// InvalidDigestFormatError is the error returned when a digest is parsed from
// a malformed hex string.
type InvalidDigestFormatError struct {
	Input string
}

// Error implements error.
func (i *InvalidDigestFormatError) Error() string {
	return fmt.Sprintf("invalid digest format %q", i.Input)
}

// IsInvalidDigestFormatError returns true if err is an InvalidDigestFormatError.
func IsInvalidDigestFormatError(err error) bool {
	invalidDigestFormatError := &InvalidDigestFormatError{}
	return errors.As(err, &invalidDigestFormatError)
}
