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
	"errors"
	"fmt"
	"io"
)

// DebugBitBuffer is a BitBuffer wrapper used for debugging.
// All calls are delegated to the wrapped buffer and the bits written or
// read are printed to the provided io.Writer.
type DebugBitBuffer struct {
	delegate  *BitBuffer
	out       io.Writer
	mark      bool
	width     int
	lineIndex int
}

// NewDebugBitBuffer creates a DebugBitBuffer wrapped around 'bb'.
func NewDebugBitBuffer(bb *BitBuffer, writer io.Writer) (*DebugBitBuffer, error) {
	if bb == nil {
		return nil, errors.New("The delegate cannot be null")
	}

	if writer == nil {
		return nil, errors.New("The writer cannot be null")
	}

	this := &DebugBitBuffer{}
	this.delegate = bb
	this.out = writer
	this.width = 80
	return this, nil
}

// WriteBits calls WriteBits() on the delegate and prints the bits written
func (this *DebugBitBuffer) WriteBits(bits uint64, count uint) uint {
	res := this.delegate.WriteBits(bits, count)
	this.printBits(bits, count, 'w')
	return res
}

// ReadTrailingBits calls ReadTrailingBits() on the delegate and prints the
// bits read
func (this *DebugBitBuffer) ReadTrailingBits(count uint) (uint64, error) {
	res, err := this.delegate.ReadTrailingBits(count)

	if err == nil {
		this.printBits(res, count, 'r')
	}

	return res, err
}

// Len calls Len() on the delegate
func (this *DebugBitBuffer) Len() uint64 {
	return this.delegate.Len()
}

// Delegate returns the wrapped buffer
func (this *DebugBitBuffer) Delegate() *BitBuffer {
	return this.delegate
}

// Mark sets the internal mark state. When true, displays 'w' (or 'r')
// after each bit sequence written (or read).
func (this *DebugBitBuffer) Mark(mark bool) {
	this.mark = mark
}

// SetWidth sets the number of bits printed per line (0 means no line break)
func (this *DebugBitBuffer) SetWidth(width int) {
	this.width = width
}

func (this *DebugBitBuffer) printBits(bits uint64, count uint, tag byte) {
	for i := uint(1); i <= count; i++ {
		fmt.Fprintf(this.out, "%d", (bits>>(count-i))&1)
		this.lineIndex++

		if this.mark == true && i == count {
			fmt.Fprintf(this.out, "%c", tag)
		}

		if this.width > 7 && this.lineIndex%this.width == 0 {
			fmt.Fprintf(this.out, "\n")
			this.lineIndex = 0
		} else if this.lineIndex&7 == 0 {
			fmt.Fprintf(this.out, " ")
		}
	}
}
