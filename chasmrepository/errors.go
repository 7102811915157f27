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
	"errors"
	"fmt"
)

// NewInvalidArgumentError returns a new InvalidArgumentError.
func NewInvalidArgumentError(name string) *InvalidArgumentError {
	return &InvalidArgumentError{
		Name: name,
	}
}

// InvalidArgumentError is the error returned when a required argument is
// missing or blank.
type InvalidArgumentError struct {
	// Name is the name of the offending argument.
	Name string
}

// Error implements error.
func (i *InvalidArgumentError) Error() string {
	return fmt.Sprintf("missing or blank required argument %q", i.Name)
}

// IsInvalidArgumentError returns true if err is an InvalidArgumentError.
func IsInvalidArgumentError(err error) bool {
	invalidArgumentError := &InvalidArgumentError{}
	return errors.As(err, &invalidArgumentError)
}

// NewConcurrencyError returns a new ConcurrencyError.
func NewConcurrencyError(name string, branch string) *ConcurrencyError {
	return &ConcurrencyError{
		Name:   name,
		Branch: branch,
	}
}

// ConcurrencyError is the error returned when a compare-and-swap on a commit
// ref observes a state that does not match the expected previous commit id.
type ConcurrencyError struct {
	// Name is the ref namespace.
	Name string
	// Branch is the branch within the namespace.
	Branch string
}

// Error implements error.
func (c *ConcurrencyError) Error() string {
	return fmt.Sprintf("commit ref %s/%s was modified concurrently", c.Name, c.Branch)
}

// IsConcurrencyError returns true if err is a ConcurrencyError.
func IsConcurrencyError(err error) bool {
	concurrencyError := &ConcurrencyError{}
	return errors.As(err, &concurrencyError)
}
