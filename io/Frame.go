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
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	tans "github.com/flanglet/tans-go"
	"github.com/flanglet/tans-go/bitstream"
	"github.com/flanglet/tans-go/entropy"
	"google.golang.org/protobuf/encoding/protowire"
)

// A frame is a self-describing encoded block: it carries everything needed
// to rebuild the tables and decode the payload.
// Wire format (protobuf encoding, unknown fields are skipped):
//   1: log range (varint)
//   2: distribution entry (bytes, repeated) = { 1: symbol (varint), 2: occurrences (varint) }
//   3: number of bits in the payload (varint)
//   4: payload (bytes), front padded with zero bits to a whole number of bytes
//   5: number of symbols (varint)
//   6: XXHash64 of the decoded block (fixed64)

const (
	_FIELD_LOG_RANGE    = protowire.Number(1)
	_FIELD_SYMBOL       = protowire.Number(2)
	_FIELD_BIT_LENGTH   = protowire.Number(3)
	_FIELD_PAYLOAD      = protowire.Number(4)
	_FIELD_COUNT        = protowire.Number(5)
	_FIELD_CHECKSUM     = protowire.Number(6)
	_FIELD_SYMBOL_VALUE = protowire.Number(1)
	_FIELD_SYMBOL_COUNT = protowire.Number(2)

	// MAX_FRAME_SYMBOLS is the largest number of symbols in a frame
	MAX_FRAME_SYMBOLS = 1024 * 1024 * 1024
)

// Frame an encoded block with its distribution and checksum
type Frame struct {
	LogRange     uint
	Distribution entropy.Distribution
	BitLength    uint64
	Payload      []byte
	Count        int
	Checksum     uint64
}

// NewFrame computes the distribution of the block, builds the tables and
// encodes the block into a new frame.
func NewFrame(block []byte, logRange uint, listeners ...tans.Listener) (*Frame, error) {
	if len(block) > MAX_FRAME_SYMBOLS {
		return nil, fmt.Errorf("Invalid block size: %d (must be at most %d)", len(block), MAX_FRAME_SYMBOLS)
	}

	dist, err := entropy.NewDistributionFromBlock(block, logRange)

	if err != nil {
		return nil, err
	}

	tables, err := entropy.BuildTables(dist, logRange)

	if err != nil {
		return nil, err
	}

	notifyTablesBuilt(listeners, tables)
	bb := bitstream.NewBitBuffer(uint64(len(block)) * 8)
	enc, err := entropy.NewTANSEncoder(bb, tables, listeners...)

	if err != nil {
		return nil, err
	}

	if _, err = enc.Write(block); err != nil {
		return nil, err
	}

	this := &Frame{}
	this.LogRange = logRange
	this.Distribution = dist
	this.BitLength = bb.Len()
	this.Payload = bb.Bytes()
	this.Count = len(block)
	this.Checksum = xxhash.Sum64(block)
	this.notifyInfo(listeners)
	return this, nil
}

// Decode rebuilds the tables from the frame distribution, decodes the
// payload and verifies the checksum of the decoded block.
func (this *Frame) Decode(listeners ...tans.Listener) ([]byte, error) {
	if this.Count < 1 || this.Count > MAX_FRAME_SYMBOLS {
		return nil, fmt.Errorf("%w: symbol count %d (must be in [1..%d])", tans.ErrInvalidFrame,
			this.Count, MAX_FRAME_SYMBOLS)
	}

	tables, err := entropy.BuildTables(this.Distribution, this.LogRange)

	if err != nil {
		return nil, fmt.Errorf("%w: %w", tans.ErrInvalidFrame, err)
	}

	notifyTablesBuilt(listeners, tables)
	bb, err := bitstream.NewBitBufferFromBytes(this.Payload, this.BitLength)

	if err != nil {
		return nil, fmt.Errorf("%w: %w", tans.ErrInvalidFrame, err)
	}

	dec, err := entropy.NewTANSDecoder(bb, tables, this.Count, listeners...)

	if err != nil {
		return nil, err
	}

	res, err := dec.Read()

	if err != nil {
		return nil, err
	}

	if checksum := xxhash.Sum64(res); checksum != this.Checksum {
		return nil, fmt.Errorf("%w: expected %016x, got %016x", tans.ErrChecksum, this.Checksum, checksum)
	}

	this.notifyInfo(listeners)
	return res, nil
}

// Ratio returns the size of the payload bits relative to the size of the
// decoded block
func (this *Frame) Ratio() float64 {
	if this.Count == 0 {
		return 0
	}

	return float64(this.BitLength) / float64(8*this.Count)
}

// MarshalBinary returns the wire form of the frame
func (this *Frame) MarshalBinary() ([]byte, error) {
	if this.Count < 0 {
		return nil, fmt.Errorf("%w: negative symbol count %d", tans.ErrInvalidFrame, this.Count)
	}

	b := make([]byte, 0, len(this.Payload)+4*len(this.Distribution)+32)
	b = protowire.AppendTag(b, _FIELD_LOG_RANGE, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(this.LogRange))
	var entry []byte

	for _, sf := range this.Distribution {
		if sf.Occurrences < 0 {
			return nil, fmt.Errorf("%w: symbol %d occurs %d times", tans.ErrInvalidDistribution,
				sf.Symbol, sf.Occurrences)
		}

		entry = protowire.AppendTag(entry[:0], _FIELD_SYMBOL_VALUE, protowire.VarintType)
		entry = protowire.AppendVarint(entry, uint64(sf.Symbol))
		entry = protowire.AppendTag(entry, _FIELD_SYMBOL_COUNT, protowire.VarintType)
		entry = protowire.AppendVarint(entry, uint64(sf.Occurrences))
		b = protowire.AppendTag(b, _FIELD_SYMBOL, protowire.BytesType)
		b = protowire.AppendBytes(b, entry)
	}

	b = protowire.AppendTag(b, _FIELD_BIT_LENGTH, protowire.VarintType)
	b = protowire.AppendVarint(b, this.BitLength)
	b = protowire.AppendTag(b, _FIELD_PAYLOAD, protowire.BytesType)
	b = protowire.AppendBytes(b, this.Payload)
	b = protowire.AppendTag(b, _FIELD_COUNT, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(this.Count))
	b = protowire.AppendTag(b, _FIELD_CHECKSUM, protowire.Fixed64Type)
	b = protowire.AppendFixed64(b, this.Checksum)
	return b, nil
}

// UnmarshalBinary parses the wire form of a frame. Fields are checked for
// type and range only: the distribution and payload are validated when the
// frame is decoded.
func (this *Frame) UnmarshalBinary(data []byte) error {
	*this = Frame{}

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)

		if n < 0 {
			return fmt.Errorf("%w: %w", tans.ErrInvalidFrame, protowire.ParseError(n))
		}

		data = data[n:]
		var v uint64

		switch {
		case num == _FIELD_LOG_RANGE && typ == protowire.VarintType:
			v, n = protowire.ConsumeVarint(data)

			if n >= 0 && v > tans.MAX_LOG_RANGE {
				return fmt.Errorf("%w: log range %d", tans.ErrInvalidFrame, v)
			}

			this.LogRange = uint(v)

		case num == _FIELD_SYMBOL && typ == protowire.BytesType:
			var entry []byte
			entry, n = protowire.ConsumeBytes(data)

			if n >= 0 {
				sf, err := unmarshalSymbol(entry)

				if err != nil {
					return err
				}

				this.Distribution = append(this.Distribution, sf)
			}

		case num == _FIELD_BIT_LENGTH && typ == protowire.VarintType:
			this.BitLength, n = protowire.ConsumeVarint(data)

		case num == _FIELD_PAYLOAD && typ == protowire.BytesType:
			var payload []byte
			payload, n = protowire.ConsumeBytes(data)
			this.Payload = append([]byte(nil), payload...)

		case num == _FIELD_COUNT && typ == protowire.VarintType:
			v, n = protowire.ConsumeVarint(data)

			if n >= 0 && v > MAX_FRAME_SYMBOLS {
				return fmt.Errorf("%w: symbol count %d", tans.ErrInvalidFrame, v)
			}

			this.Count = int(v)

		case num == _FIELD_CHECKSUM && typ == protowire.Fixed64Type:
			this.Checksum, n = protowire.ConsumeFixed64(data)

		case num == _FIELD_LOG_RANGE || num == _FIELD_SYMBOL || num == _FIELD_BIT_LENGTH ||
			num == _FIELD_PAYLOAD || num == _FIELD_COUNT || num == _FIELD_CHECKSUM:
			return fmt.Errorf("%w: unexpected wire type %d for field %d", tans.ErrInvalidFrame, typ, num)

		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
		}

		if n < 0 {
			return fmt.Errorf("%w: field %d: %w", tans.ErrInvalidFrame, num, protowire.ParseError(n))
		}

		data = data[n:]
	}

	return nil
}

func unmarshalSymbol(data []byte) (entropy.SymbolFreq, error) {
	var res entropy.SymbolFreq

	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)

		if n < 0 {
			return res, fmt.Errorf("%w: %w", tans.ErrInvalidFrame, protowire.ParseError(n))
		}

		data = data[n:]

		if typ != protowire.VarintType || (num != _FIELD_SYMBOL_VALUE && num != _FIELD_SYMBOL_COUNT) {
			n = protowire.ConsumeFieldValue(num, typ, data)
		} else {
			var v uint64
			v, n = protowire.ConsumeVarint(data)

			if n >= 0 {
				if num == _FIELD_SYMBOL_VALUE {
					if v > 255 {
						return res, fmt.Errorf("%w: symbol %d", tans.ErrInvalidFrame, v)
					}

					res.Symbol = byte(v)
				} else {
					if v > 1<<tans.MAX_LOG_RANGE {
						return res, fmt.Errorf("%w: occurrences %d", tans.ErrInvalidFrame, v)
					}

					res.Occurrences = int(v)
				}
			}
		}

		if n < 0 {
			return res, fmt.Errorf("%w: %w", tans.ErrInvalidFrame, protowire.ParseError(n))
		}

		data = data[n:]
	}

	return res, nil
}

func (this *Frame) notifyInfo(listeners []tans.Listener) {
	if len(listeners) == 0 {
		return
	}

	// The hash is the xxhash64 checksum of the block
	evt := tans.NewEvent(tans.EVT_FRAME_INFO, int64(this.Count), this.BitLength, this.Checksum,
		tans.EVT_HASH_64BITS, time.Now())
	tans.NotifyListeners(listeners, evt)
}

func notifyTablesBuilt(listeners []tans.Listener, tables *entropy.Tables) {
	if len(listeners) == 0 {
		return
	}

	msg := fmt.Sprintf("Tables built: table size=%d, distribution=%s", tables.Size(), tables.Distribution())
	tans.NotifyListeners(listeners, tans.NewEventFromString(tans.EVT_TABLES_BUILT, msg, time.Now()))
}

// Compress encodes the block into the wire form of a frame
func Compress(block []byte, logRange uint, listeners ...tans.Listener) ([]byte, error) {
	frame, err := NewFrame(block, logRange, listeners...)

	if err != nil {
		return nil, err
	}

	return frame.MarshalBinary()
}

// Decompress decodes the wire form of a frame
func Decompress(data []byte, listeners ...tans.Listener) ([]byte, error) {
	var frame Frame

	if err := frame.UnmarshalBinary(data); err != nil {
		return nil, err
	}

	return frame.Decode(listeners...)
}
