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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const abcDigestHex = "a9993e364706816aba3e25717850c26c9cd0d89d"

func TestNewDigestForContent(t *testing.T) {
	t.Parallel()
	digest, err := NewDigestForContent(strings.NewReader("abc"))
	require.NoError(t, err)
	assert.Equal(t, abcDigestHex, digest.String())
	assert.Equal(t, NewDigestForBytes([]byte("abc")), digest)
}

func TestNewDigestInvalidLength(t *testing.T) {
	t.Parallel()
	for _, length := range []int{0, 19, 21, 40} {
		_, err := NewDigest(make([]byte, length))
		require.Error(t, err)
		assert.True(t, IsInvalidDigestLengthError(err))
		invalidDigestLengthError := &InvalidDigestLengthError{}
		require.ErrorAs(t, err, &invalidDigestLengthError)
		assert.Equal(t, length, invalidDigestLengthError.Length)
	}
}

func TestParseDigest(t *testing.T) {
	t.Parallel()
	digest, err := ParseDigest(abcDigestHex)
	require.NoError(t, err)
	assert.Equal(t, abcDigestHex, digest.String())

	// Dashed form: five groups of eight hex characters.
	dashed := "a9993e36-4706816a-ba3e2571-7850c26c-9cd0d89d"
	digest, err = ParseDigest(dashed)
	require.NoError(t, err)
	assert.Equal(t, abcDigestHex, digest.String())

	for _, malformed := range []string{
		"",
		"abc",
		abcDigestHex[:39],
		abcDigestHex + "0",
		strings.Replace(abcDigestHex, "a", "x", 1),
		"a9993e364706816a-ba3e25717850c26c9cd0d89d",
		"a9993e36-4706816a-ba3e2571-7850c26c-9cd0d89",
	} {
		_, err := ParseDigest(malformed)
		require.Error(t, err, "input %q", malformed)
		assert.True(t, IsInvalidDigestFormatError(err))
	}
}

func TestDigestSplit(t *testing.T) {
	t.Parallel()
	digest, err := ParseDigest(abcDigestHex)
	require.NoError(t, err)

	prefix, remainder := digest.Split(2)
	assert.Equal(t, "a9", prefix)
	assert.Equal(t, abcDigestHex[2:], remainder)

	prefix, remainder = digest.Split(4)
	assert.Equal(t, "a999", prefix)
	assert.Equal(t, abcDigestHex[4:], remainder)

	// Out-of-range prefix lengths fall back to the default.
	prefix, _ = digest.Split(0)
	assert.Equal(t, "a9", prefix)
	prefix, _ = digest.Split(40)
	assert.Equal(t, "a9", prefix)
}

func TestDigestCompare(t *testing.T) {
	t.Parallel()
	low := Digest{}
	high := Digest{}
	high[0] = 1
	assert.Equal(t, -1, low.Compare(high))
	assert.Equal(t, 1, high.Compare(low))
	assert.Equal(t, 0, low.Compare(Digest{}))
}

func TestDigestIsZero(t *testing.T) {
	t.Parallel()
	assert.True(t, Digest{}.IsZero())
	assert.False(t, NewDigestForBytes([]byte("abc")).IsZero())
}

func TestDigestAsMapKey(t *testing.T) {
	t.Parallel()
	m := map[Digest]string{
		NewDigestForBytes([]byte("abc")): "abc",
	}
	assert.Equal(t, "abc", m[NewDigestForBytes([]byte("abc"))])
}
