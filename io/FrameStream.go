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

package io

import (
	"errors"
	"fmt"
	"io"

	tans "github.com/flanglet/tans-go"
	"google.golang.org/protobuf/encoding/protowire"
)

// Frames are streamed one after the other, each one preceded by its length
// as a varint. A stream of frames can be produced by FrameWriter (one frame
// per block of input data) and read back by FrameReader.

const (
	// DEFAULT_BLOCK_SIZE is the default number of input bytes per frame
	DEFAULT_BLOCK_SIZE = 1024 * 1024
	// MIN_BLOCK_SIZE is the smallest number of input bytes per frame
	MIN_BLOCK_SIZE = 1024
	// MAX_FRAME_LENGTH is the largest accepted length of a frame on the wire
	MAX_FRAME_LENGTH  = 2*MAX_FRAME_SYMBOLS + 4096
	_MAX_VARINT_BYTES = 10
)

// IOError an extended error containing a message and a code value
type IOError struct {
	msg  string
	code int
	err  error
}

// Error returns the underlying error
func (this IOError) Error() string {
	return fmt.Sprintf("%v (code %v)", this.msg, this.code)
}

// Message returns the message string associated with the error
func (this IOError) Message() string {
	return this.msg
}

// ErrorCode returns the code value associated with the error
func (this IOError) ErrorCode() int {
	return this.code
}

// Unwrap returns the error that caused this one, if any
func (this IOError) Unwrap() error {
	return this.err
}

func newIOError(err error, code int) *IOError {
	return &IOError{msg: err.Error(), code: code, err: err}
}

// WriteFrame writes the length prefixed wire form of the frame.
// Returns the number of bytes written.
func WriteFrame(w io.Writer, frame *Frame) (int, error) {
	data, err := frame.MarshalBinary()

	if err != nil {
		return 0, err
	}

	buf := protowire.AppendVarint(make([]byte, 0, len(data)+_MAX_VARINT_BYTES), uint64(len(data)))
	buf = append(buf, data...)
	return w.Write(buf)
}

// ReadFrame reads a length prefixed frame. Returns io.EOF if the reader is
// exhausted before the first byte of the frame.
func ReadFrame(r io.Reader) (*Frame, error) {
	var prefix [_MAX_VARINT_BYTES]byte
	n := 0

	for {
		if _, err := io.ReadFull(r, prefix[n:n+1]); err != nil {
			if n == 0 && errors.Is(err, io.EOF) {
				return nil, io.EOF
			}

			return nil, fmt.Errorf("%w: cannot read frame length: %w", tans.ErrInvalidFrame, io.ErrUnexpectedEOF)
		}

		n++

		if prefix[n-1] < 0x80 {
			break
		}

		if n == len(prefix) {
			return nil, fmt.Errorf("%w: invalid frame length", tans.ErrInvalidFrame)
		}
	}

	length, m := protowire.ConsumeVarint(prefix[0:n])

	if m < 0 {
		return nil, fmt.Errorf("%w: %w", tans.ErrInvalidFrame, protowire.ParseError(m))
	}

	if length > MAX_FRAME_LENGTH {
		return nil, fmt.Errorf("%w: frame length %d (must be at most %d)", tans.ErrInvalidFrame,
			length, MAX_FRAME_LENGTH)
	}

	data := make([]byte, length)

	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("%w: truncated frame: %w", tans.ErrInvalidFrame, io.ErrUnexpectedEOF)
	}

	frame := &Frame{}

	if err := frame.UnmarshalBinary(data); err != nil {
		return nil, err
	}

	return frame, nil
}

// FrameWriter a Writer that splits the data into blocks and writes each
// block as an encoded frame to the underlying writer
type FrameWriter struct {
	writer    io.Writer
	logRange  uint
	blockSize int
	buffer    []byte
	listeners []tans.Listener
	written   uint64
	frames    int
	closed    bool
}

// NewFrameWriter creates a new instance of FrameWriter. Each frame encodes
// 'blockSize' bytes of data (the last one may be shorter) with tables of
// size 2^logRange.
func NewFrameWriter(w io.Writer, logRange uint, blockSize uint, listeners ...tans.Listener) (*FrameWriter, error) {
	if w == nil {
		return nil, &IOError{msg: "Invalid null writer parameter", code: tans.ERR_INVALID_PARAM}
	}

	if tans.IsSpreadableLogRange(logRange) == false {
		errMsg := fmt.Sprintf("Invalid log range parameter: %d (must be in [%d..%d], except 1 and 3)", logRange,
			tans.MIN_LOG_RANGE, tans.MAX_LOG_RANGE)
		return nil, &IOError{msg: errMsg, code: tans.ERR_INVALID_PARAM}
	}

	if blockSize < MIN_BLOCK_SIZE || blockSize > MAX_FRAME_SYMBOLS {
		errMsg := fmt.Sprintf("Invalid block size parameter: %d (must be in [%d..%d])", blockSize,
			MIN_BLOCK_SIZE, MAX_FRAME_SYMBOLS)
		return nil, &IOError{msg: errMsg, code: tans.ERR_INVALID_PARAM}
	}

	this := &FrameWriter{}
	this.writer = w
	this.logRange = logRange
	this.blockSize = int(blockSize)
	this.buffer = make([]byte, 0, min(this.blockSize, DEFAULT_BLOCK_SIZE))
	this.listeners = listeners
	return this, nil
}

// Write buffers the data and writes a frame each time a block is full.
// Returns the number of bytes consumed.
func (this *FrameWriter) Write(block []byte) (int, error) {
	if this.closed {
		return 0, &IOError{msg: "Stream closed", code: tans.ERR_WRITE_FILE}
	}

	count := 0

	for len(block) > 0 {
		chunk := min(len(block), this.blockSize-len(this.buffer))
		this.buffer = append(this.buffer, block[0:chunk]...)
		block = block[chunk:]
		count += chunk

		if len(this.buffer) == this.blockSize {
			if err := this.flush(); err != nil {
				return count, err
			}
		}
	}

	return count, nil
}

func (this *FrameWriter) flush() error {
	if len(this.buffer) == 0 {
		return nil
	}

	frame, err := NewFrame(this.buffer, this.logRange, this.listeners...)

	if err != nil {
		return newIOError(err, tans.ERR_ENCODE)
	}

	n, err := WriteFrame(this.writer, frame)
	this.written += uint64(n)

	if err != nil {
		return newIOError(err, tans.ERR_WRITE_FILE)
	}

	this.frames++
	this.buffer = this.buffer[:0]
	return nil
}

// Close writes the pending data as a last frame and closes the underlying
// writer if it is a Closer
func (this *FrameWriter) Close() error {
	if this.closed {
		return nil
	}

	if err := this.flush(); err != nil {
		return err
	}

	this.closed = true
	this.buffer = nil

	if c, isCloser := this.writer.(io.Closer); isCloser {
		if err := c.Close(); err != nil {
			return newIOError(err, tans.ERR_WRITE_FILE)
		}
	}

	return nil
}

// Written returns the number of bytes written to the underlying writer
func (this *FrameWriter) Written() uint64 {
	return this.written
}

// Frames returns the number of frames written so far
func (this *FrameWriter) Frames() int {
	return this.frames
}

// FrameReader a Reader that decodes the frames read from the underlying
// reader
type FrameReader struct {
	reader    io.Reader
	buffer    []byte
	offset    int
	listeners []tans.Listener
	read      uint64
	frames    int
	eos       bool
}

// NewFrameReader creates a new instance of FrameReader
func NewFrameReader(r io.Reader, listeners ...tans.Listener) (*FrameReader, error) {
	if r == nil {
		return nil, &IOError{msg: "Invalid null reader parameter", code: tans.ERR_INVALID_PARAM}
	}

	this := &FrameReader{}
	this.reader = r
	this.listeners = listeners
	return this, nil
}

// Read fills the slice with decoded data. Returns io.EOF once all the frames
// have been decoded and consumed.
func (this *FrameReader) Read(block []byte) (int, error) {
	count := 0

	for count < len(block) {
		if this.offset == len(this.buffer) {
			if this.eos {
				break
			}

			if err := this.next(); err != nil {
				return count, err
			}

			continue
		}

		n := copy(block[count:], this.buffer[this.offset:])
		this.offset += n
		count += n
	}

	if count == 0 && len(block) > 0 && this.eos {
		return 0, io.EOF
	}

	return count, nil
}

func (this *FrameReader) next() error {
	frame, err := ReadFrame(this.reader)

	if err != nil {
		if errors.Is(err, io.EOF) {
			this.eos = true
			return nil
		}

		return newIOError(err, tans.ERR_INVALID_FILE)
	}

	data, err := frame.Decode(this.listeners...)

	if err != nil {
		if errors.Is(err, tans.ErrChecksum) {
			return newIOError(err, tans.ERR_CRC_CHECK)
		}

		return newIOError(err, tans.ERR_DECODE)
	}

	this.buffer = data
	this.offset = 0
	this.read += uint64(len(data))
	this.frames++
	return nil
}

// Decoded returns the number of decoded bytes
func (this *FrameReader) Decoded() uint64 {
	return this.read
}

// Frames returns the number of frames decoded so far
func (this *FrameReader) Frames() int {
	return this.frames
}
