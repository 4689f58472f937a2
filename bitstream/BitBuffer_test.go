/*
Copyright 2011-2026 Frederic Langlet
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package bitstream

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	tans "github.com/flanglet/tans-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestWriteBits(t *testing.T) {
	bb := NewBitBuffer(0)
	assert.Equal(t, uint(3), bb.WriteBits(5, 3))
	assert.Equal(t, "101", bb.String())

	// Zero bits is a no-op
	assert.Equal(t, uint(0), bb.WriteBits(0xFF, 0))
	assert.Equal(t, "101", bb.String())

	// Only the low bits are kept, left padded to the width
	bb.WriteBits(0xF2, 4)
	assert.Equal(t, "1010010", bb.String())
	bb.WriteBits(1, 5)
	assert.Equal(t, "101001000001", bb.String())
	assert.Equal(t, uint64(12), bb.Len())
}

func TestReadTrailingBits(t *testing.T) {
	bb, err := ParseBitString("0011101")
	require.NoError(t, err)

	v, err := bb.ReadTrailingBits(0)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), v)
	assert.Equal(t, "0011101", bb.String())

	v, err = bb.ReadTrailingBits(3)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), v)
	assert.Equal(t, "0011", bb.String())

	_, err = bb.ReadTrailingBits(5)
	assert.True(t, errors.Is(err, tans.ErrTruncatedStream))
	assert.Equal(t, "0011", bb.String())

	v, err = bb.ReadTrailingBits(4)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), v)
	assert.Equal(t, uint64(0), bb.Len())

	// Writing after reading must not resurrect consumed bits
	bb.WriteBits(0, 2)
	assert.Equal(t, "00", bb.String())
}

func TestWordBoundaries(t *testing.T) {
	bb := NewBitBuffer(128)
	bb.WriteBits(0x3, 60)
	bb.WriteBits(0x0123456789ABCDEF, 64)
	bb.WriteBits(0x5, 3)
	assert.Equal(t, uint64(127), bb.Len())

	v, err := bb.ReadTrailingBits(3)
	require.NoError(t, err)
	assert.Equal(t, uint64(5), v)

	v, err = bb.ReadTrailingBits(64)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x0123456789ABCDEF), v)

	bb.WriteBits(0xFFFFFFFFFFFFFFFF, 64)
	v, err = bb.ReadTrailingBits(64)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xFFFFFFFFFFFFFFFF), v)

	v, err = bb.ReadTrailingBits(60)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), v)
}

func TestCanonicalBytes(t *testing.T) {
	tests := []struct {
		bits     string
		expected []byte
	}{
		{"", []byte{}},
		{"101", []byte{0x05}},
		{"10000000", []byte{0x80}},
		{"000000001", []byte{0x00, 0x01}},
		{"111111111", []byte{0x01, 0xFF}},
	}

	for _, tt := range tests {
		bb, err := ParseBitString(tt.bits)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, bb.Bytes(), "bits %q", tt.bits)

		res, err := NewBitBufferFromBytes(tt.expected, uint64(len(tt.bits)))
		require.NoError(t, err)
		assert.Equal(t, tt.bits, res.String())
	}
}

func TestInvalidCanonicalBytes(t *testing.T) {
	_, err := NewBitBufferFromBytes([]byte{0x01, 0x02}, 17)
	assert.True(t, errors.Is(err, tans.ErrCorruptStream))

	_, err = NewBitBufferFromBytes([]byte{0x01, 0x02}, 8)
	assert.True(t, errors.Is(err, tans.ErrCorruptStream))

	// Padding bits must be zero
	_, err = NewBitBufferFromBytes([]byte{0x81}, 7)
	assert.True(t, errors.Is(err, tans.ErrCorruptStream))

	_, err = ParseBitString("0120")
	assert.Error(t, err)
}

func TestFromBytesThenRead(t *testing.T) {
	bb, err := NewBitBufferFromBytes([]byte{0x05, 0xAA}, 11)
	require.NoError(t, err)
	assert.Equal(t, "10110101010", bb.String())

	v, err := bb.ReadTrailingBits(9)
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1AA), v)
	assert.Equal(t, "10", bb.String())
	assert.Equal(t, 1, bb.Bit(0))
	assert.Equal(t, 0, bb.Bit(1))

	bb.WriteBits(3, 2)
	assert.Equal(t, "1011", bb.String())
	assert.Equal(t, []byte{0x0B}, bb.Bytes())
}

func TestCloneAndReset(t *testing.T) {
	bb, _ := ParseBitString("110011")
	c := bb.Clone()
	bb.Reset()
	assert.Equal(t, uint64(0), bb.Len())
	assert.Equal(t, "110011", c.String())

	bb.WriteBits(1, 1)
	assert.Equal(t, "1", bb.String())
}

func TestDebugBitBuffer(t *testing.T) {
	var out bytes.Buffer
	dbb, err := NewDebugBitBuffer(NewBitBuffer(0), &out)
	require.NoError(t, err)
	dbb.Mark(true)
	dbb.SetWidth(0)
	dbb.WriteBits(5, 3)
	dbb.WriteBits(2, 2)

	v, err := dbb.ReadTrailingBits(2)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), v)
	assert.Equal(t, "101w10w10r", out.String())
	assert.Equal(t, uint64(3), dbb.Len())
	assert.Equal(t, "101", dbb.Delegate().String())

	_, err = NewDebugBitBuffer(nil, &out)
	assert.Error(t, err)
	_, err = NewDebugBitBuffer(NewBitBuffer(0), nil)
	assert.Error(t, err)
}

func TestBitBufferLIFO(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		counts := rapid.SliceOf(rapid.UintRange(0, 64)).Draw(t, "counts")
		values := make([]uint64, len(counts))
		bb := NewBitBuffer(0)
		total := uint64(0)

		for i, c := range counts {
			values[i] = rapid.Uint64().Draw(t, "value") & _MASKS[c]
			bb.WriteBits(values[i], c)
			total += uint64(c)
		}

		if bb.Len() != total {
			t.Fatalf("expected %d bits, got %d", total, bb.Len())
		}

		// Serialization keeps the bit sequence
		res, err := NewBitBufferFromBytes(bb.Bytes(), bb.Len())

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if res.String() != bb.String() {
			t.Fatalf("bits differ after serialization: %s vs %s", res.String(), bb.String())
		}

		for i := len(counts) - 1; i >= 0; i-- {
			v, err := res.ReadTrailingBits(counts[i])

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if v != values[i] {
				t.Fatalf("value %d: expected %x, got %x", i, values[i], v)
			}
		}

		if res.Len() != 0 {
			t.Fatalf("buffer should be empty, %d bits left", res.Len())
		}
	})
}

func BenchmarkWriteReadBits(b *testing.B) {
	values := make([]uint64, 4096)
	counts := make([]uint, len(values))

	for i := range values {
		values[i] = rand.Uint64()
		counts[i] = uint(1 + rand.Intn(16))
	}

	bb := NewBitBuffer(16 * uint64(len(values)))
	b.ResetTimer()

	for n := 0; n < b.N; n++ {
		bb.Reset()

		for i := range values {
			bb.WriteBits(values[i], counts[i])
		}

		for i := len(values) - 1; i >= 0; i-- {
			bb.ReadTrailingBits(counts[i])
		}
	}
}
