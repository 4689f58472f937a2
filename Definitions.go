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

// Package tans defines the top level interfaces, errors and events used by
// the tabled Asymmetric Numeral Systems (tANS) codec.
//
// The implementation of these interfaces is available in sub-folders:
// bitstream holds the packed bit buffer, entropy builds the coding and
// decoding tables and runs the state machines, and io wraps encoded
// payloads into self-describing frames.
package tans

import (
	"errors"
)

const (
	ERR_MISSING_PARAM = 1
	ERR_INVALID_PARAM = 2
	ERR_OPEN_FILE     = 3
	ERR_READ_FILE     = 4
	ERR_WRITE_FILE    = 5
	ERR_BUILD_TABLES  = 6
	ERR_ENCODE        = 7
	ERR_DECODE        = 8
	ERR_INVALID_FILE  = 9
	ERR_CRC_CHECK     = 10
	ERR_UNKNOWN       = 127
)

const (
	// MIN_LOG_RANGE is the smallest supported log2 of the table size
	MIN_LOG_RANGE = 1
	// MAX_LOG_RANGE is the largest supported log2 of the table size.
	// The 16.16 fixed point bit count threshold limits it to 16.
	MAX_LOG_RANGE = 16
	// DEFAULT_LOG_RANGE is the table size used when none is provided
	DEFAULT_LOG_RANGE = 12
)

var (
	// ErrInvalidDistribution is returned when the symbol occurrences cannot
	// be spread over a table of size 2^logL.
	ErrInvalidDistribution = errors.New("invalid distribution")

	// ErrUnknownSymbol is returned when the encoder meets a byte that is
	// absent from the distribution.
	ErrUnknownSymbol = errors.New("unknown symbol")

	// ErrEmptyInput is returned when the encoder is given no data.
	ErrEmptyInput = errors.New("empty input")

	// ErrTruncatedStream is returned when a read goes past the start of the
	// bitstream.
	ErrTruncatedStream = errors.New("truncated stream")

	// ErrCorruptStream is returned when the decoder reaches a state that
	// cannot have been produced by the encoder.
	ErrCorruptStream = errors.New("corrupt stream")

	// ErrInvalidFrame is returned when a frame cannot be parsed.
	ErrInvalidFrame = errors.New("invalid frame")

	// ErrChecksum is returned when the decoded data does not match the
	// checksum stored in a frame.
	ErrChecksum = errors.New("checksum mismatch")

	// ErrInvalidParameter is returned when an argument is out of range.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// OutputBitStream is a bitstream writer. Bits are appended to the tail.
type OutputBitStream interface {
	// WriteBits appends the 'count' least significant bits of 'bits' to the
	// tail of the bitstream, most significant first. Count must be in [0..64].
	// Returns the number of bits written.
	WriteBits(bits uint64, count uint) uint

	// Len returns the number of bits in the bitstream
	Len() uint64
}

// InputBitStream is a bitstream reader. Bits are consumed from the tail,
// so the last bits written are the first bits read.
type InputBitStream interface {
	// ReadTrailingBits removes the last 'count' bits (in [0..64]) of the
	// bitstream and returns them as a big endian unsigned integer.
	// Returns ErrTruncatedStream if fewer than 'count' bits remain.
	ReadTrailingBits(count uint) (uint64, error)

	// Len returns the number of bits left in the bitstream
	Len() uint64
}

// EntropyEncoder entropy encodes data to a bitstream
type EntropyEncoder interface {
	// Write encodes the data provided into the bitstream. Returns the number
	// of bits written to the bitstream.
	Write(block []byte) (int, error)

	// BitStream returns the underlying bitstream
	BitStream() OutputBitStream
}

// EntropyDecoder entropy decodes data from a bitstream
type EntropyDecoder interface {
	// Read decodes the whole bitstream and returns the decoded data
	Read() ([]byte, error)

	// BitStream returns the underlying bitstream
	BitStream() InputBitStream
}
