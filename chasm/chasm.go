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

// Package chasm contains the data model for a content-addressed object store.
//
// Objects are opaque byte payloads named by the SHA-1 digest of their
// content. Trees are ordered name -> digest maps, commits bind trees into a
// history graph, and commit refs are mutable named pointers to commits.
//
// All types in this package are immutable value types. Construction goes
// through New* functions that enforce the model invariants.
package chasm
