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
	"bytes"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"strings"
)

const (
	// DigestLength is the length of a Digest in bytes.
	DigestLength = sha1.Size
	// HexDigestLength is the length of a Digest formatted as a hex string.
	HexDigestLength = DigestLength * 2
	// DefaultSplitPrefixLength is the default number of hex characters in the
	// prefix produced by Split.
	DefaultSplitPrefixLength = 2
)

// Digest is a 20-byte SHA-1 content identifier.
//
// The zero value is the well-defined empty sentinel. Digests are comparable
// with == and usable as map keys.
type Digest [DigestLength]byte

// NewDigest returns a new Digest for the given raw bytes.
//
// Returns an InvalidDigestLengthError if data is not exactly DigestLength bytes.
func NewDigest(data []byte) (Digest, error) {
	if len(data) != DigestLength {
		return Digest{}, NewInvalidDigestLengthError(len(data))
	}
	var digest Digest
	copy(digest[:], data)
	return digest, nil
}

// NewDigestForContent returns the Digest of all content read from reader.
func NewDigestForContent(reader io.Reader) (Digest, error) {
	hasher := sha1.New()
	if _, err := io.Copy(hasher, reader); err != nil {
		return Digest{}, err
	}
	return NewDigest(hasher.Sum(nil))
}

// NewDigestForBytes returns the Digest of the given bytes.
func NewDigestForBytes(data []byte) Digest {
	return Digest(sha1.Sum(data))
}

// ParseDigest parses a Digest from its hex string form.
//
// Both the plain 40-character form ("a9993e36...") and the dashed form of
// five 8-character groups ("a9993e36-4706816a-...") are accepted.
//
// Returns an InvalidDigestFormatError if the input is malformed.
func ParseDigest(value string) (Digest, error) {
	hexValue := value
	if strings.ContainsRune(value, '-') {
		groups := strings.Split(value, "-")
		if len(groups) != 5 {
			return Digest{}, NewInvalidDigestFormatError(value)
		}
		for _, group := range groups {
			if len(group) != 8 {
				return Digest{}, NewInvalidDigestFormatError(value)
			}
		}
		hexValue = strings.Join(groups, "")
	}
	if len(hexValue) != HexDigestLength {
		return Digest{}, NewInvalidDigestFormatError(value)
	}
	data, err := hex.DecodeString(hexValue)
	if err != nil {
		return Digest{}, NewInvalidDigestFormatError(value)
	}
	return NewDigest(data)
}

// String returns the digest as 40 lowercase hex characters.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Split splits the hex form of the digest after prefixLength characters,
// returning the prefix and the remainder. This is the basis of the sharded
// two-level directory layout, so Split(2) of "abcdef..." is ("ab", "cdef...").
//
// A prefixLength outside of [1, HexDigestLength-1] is replaced with
// DefaultSplitPrefixLength.
func (d Digest) Split(prefixLength int) (string, string) {
	if prefixLength < 1 || prefixLength >= HexDigestLength {
		prefixLength = DefaultSplitPrefixLength
	}
	hexValue := d.String()
	return hexValue[:prefixLength], hexValue[prefixLength:]
}

// Compare returns -1, 0, or 1 ordering digests lexicographically by their bytes.
func (d Digest) Compare(other Digest) int {
	return bytes.Compare(d[:], other[:])
}

// IsZero returns true if the digest is the all-zero empty sentinel.
func (d Digest) IsZero() bool {
	return d == Digest{}
}
