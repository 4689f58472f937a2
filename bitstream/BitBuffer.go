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
	"encoding/binary"
	"fmt"
	"strings"

	tans "github.com/flanglet/tans-go"
)

var _MASKS = func() [65]uint64 {
	var res [65]uint64

	for i := 1; i < 64; i++ {
		res[i] = (uint64(1) << uint(i)) - 1
	}

	res[64] = 0xFFFFFFFFFFFFFFFF
	return res
}()

// BitBuffer is an in-memory bitstream where bits are appended to the tail
// and consumed from the tail. Bits are packed in 64 bit words, most
// significant bit first. Bit positions in [head, tail) are live.
// The zero value is an empty buffer ready to use.
type BitBuffer struct {
	words []uint64
	head  uint64 // position of the first live bit
	tail  uint64 // position after the last live bit
}

// NewBitBuffer creates an empty bit buffer with room for 'capacity' bits
func NewBitBuffer(capacity uint64) *BitBuffer {
	return &BitBuffer{words: make([]uint64, 0, (capacity+63)>>6)}
}

// NewBitBufferFromBytes creates a bit buffer from its canonical byte form:
// the bit string read left to right, most significant bit first, zero padded
// at the front to a byte boundary. The number of significant bits must be
// provided since leading zeros are significant.
func NewBitBufferFromBytes(data []byte, length uint64) (*BitBuffer, error) {
	if (length+7)>>3 != uint64(len(data)) {
		return nil, fmt.Errorf("%w: %d bytes cannot hold exactly %d bits", tans.ErrCorruptStream, len(data), length)
	}

	padding := uint64(len(data))<<3 - length

	if padding != 0 && data[0]>>(8-padding) != 0 {
		return nil, fmt.Errorf("%w: non zero padding bits", tans.ErrCorruptStream)
	}

	this := &BitBuffer{}
	this.words = make([]uint64, (len(data)+7)>>3)
	n := 0

	for ; n+8 <= len(data); n += 8 {
		this.words[n>>3] = binary.BigEndian.Uint64(data[n:])
	}

	if n < len(data) {
		var last [8]byte
		copy(last[:], data[n:])
		this.words[n>>3] = binary.BigEndian.Uint64(last[:])
	}

	this.head = padding
	this.tail = uint64(len(data)) << 3
	return this, nil
}

// ParseBitString creates a bit buffer from a string of '0' and '1' characters
func ParseBitString(s string) (*BitBuffer, error) {
	this := NewBitBuffer(uint64(len(s)))

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0':
			this.WriteBits(0, 1)

		case '1':
			this.WriteBits(1, 1)

		default:
			return nil, fmt.Errorf("invalid character '%c' at position %d in bit string", s[i], i)
		}
	}

	return this, nil
}

// WriteBits appends the 'count' least significant bits of 'bits' to the
// tail of the buffer, most significant first. Writing 0 bits is a no-op.
// It panics if 'count' is greater than 64.
func (this *BitBuffer) WriteBits(bits uint64, count uint) uint {
	if count == 0 {
		return 0
	}

	if count > 64 {
		panic(fmt.Errorf("Invalid bit count: %d (must be in [0..64])", count))
	}

	bits &= _MASKS[count]
	this.grow(this.tail + uint64(count))
	idx := this.tail >> 6
	avail := 64 - uint(this.tail&63)

	if count <= avail {
		this.words[idx] |= bits << (avail - count)
	} else {
		rem := count - avail
		this.words[idx] |= bits >> rem
		this.words[idx+1] |= bits << (64 - rem)
	}

	this.tail += uint64(count)
	return count
}

// ReadTrailingBits removes the last 'count' bits of the buffer and returns
// them as a big endian unsigned integer. Reading 0 bits returns 0 and leaves
// the buffer unchanged. Returns ErrTruncatedStream if fewer than 'count'
// bits remain. It panics if 'count' is greater than 64.
func (this *BitBuffer) ReadTrailingBits(count uint) (uint64, error) {
	if count == 0 {
		return 0, nil
	}

	if count > 64 {
		panic(fmt.Errorf("Invalid bit count: %d (must be in [0..64])", count))
	}

	if uint64(count) > this.Len() {
		return 0, fmt.Errorf("%w: cannot read %d bits, %d left", tans.ErrTruncatedStream, count, this.Len())
	}

	start := this.tail - uint64(count)
	res := this.peek(start, count)
	idx := start >> 6
	avail := 64 - uint(start&63)

	// Bits after the tail must stay zero for the next writes
	this.words[idx] &^= _MASKS[avail]

	if count > avail {
		this.words[idx+1] = 0
	}

	this.tail = start
	return res, nil
}

// Bit returns the bit at index 'i' (0 is the first live bit)
func (this *BitBuffer) Bit(i uint64) int {
	if i >= this.Len() {
		panic(fmt.Errorf("Invalid bit index: %d (length is %d)", i, this.Len()))
	}

	return int(this.peek(this.head+i, 1))
}

// Len returns the number of bits in the buffer
func (this *BitBuffer) Len() uint64 {
	return this.tail - this.head
}

// Reset empties the buffer and keeps the allocated memory
func (this *BitBuffer) Reset() {
	for i := range this.words {
		this.words[i] = 0
	}

	this.words = this.words[:0]
	this.head = 0
	this.tail = 0
}

// Clone returns an independent copy of the buffer
func (this *BitBuffer) Clone() *BitBuffer {
	res := &BitBuffer{head: this.head, tail: this.tail}
	res.words = make([]uint64, len(this.words))
	copy(res.words, this.words)
	return res
}

// Bytes returns the canonical byte form of the buffer: the bits read left to
// right, most significant first, zero padded at the front to a byte boundary.
// Use Len() to retrieve the number of significant bits.
func (this *BitBuffer) Bytes() []byte {
	length := this.Len()
	res := make([]byte, (length+7)>>3)

	if length == 0 {
		return res
	}

	pos := this.head
	n := 0

	if first := uint(length & 7); first != 0 {
		res[0] = byte(this.peek(pos, first))
		pos += uint64(first)
		n++
	}

	for ; pos+64 <= this.tail; pos += 64 {
		binary.BigEndian.PutUint64(res[n:], this.peek(pos, 64))
		n += 8
	}

	for ; pos < this.tail; pos += 8 {
		res[n] = byte(this.peek(pos, 8))
		n++
	}

	return res
}

// String returns the bits as a string of '0' and '1' characters
func (this *BitBuffer) String() string {
	var sb strings.Builder
	sb.Grow(int(this.Len()))

	for pos := this.head; pos < this.tail; pos++ {
		sb.WriteByte(byte('0' + this.peek(pos, 1)))
	}

	return sb.String()
}

// Read 'count' bits (in [1..64]) starting at bit position 'pos'
func (this *BitBuffer) peek(pos uint64, count uint) uint64 {
	idx := pos >> 6
	avail := 64 - uint(pos&63)

	if count <= avail {
		return (this.words[idx] >> (avail - count)) & _MASKS[count]
	}

	rem := count - avail
	return ((this.words[idx] & _MASKS[avail]) << rem) | (this.words[idx+1] >> (64 - rem))
}

// Make sure that bit positions up to 'size' (exclusive) are backed by words
func (this *BitBuffer) grow(size uint64) {
	n := int((size + 63) >> 6)

	if n <= len(this.words) {
		return
	}

	if n <= cap(this.words) {
		this.words = this.words[:n]
		return
	}

	words := make([]uint64, n, max(n, 2*cap(this.words)))
	copy(words, this.words)
	this.words = words
}
