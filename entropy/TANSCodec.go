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

package entropy

import (
	"errors"
	"fmt"
	"time"

	tans "github.com/flanglet/tans-go"
	"github.com/flanglet/tans-go/bitstream"
)

// Encode encodes the block with the tables and returns the bitstream.
func Encode(block []byte, tables *Tables) (*bitstream.BitBuffer, error) {
	res := bitstream.NewBitBuffer(uint64(len(block))*uint64(tables.logRange) + uint64(tables.logRange))

	if err := EncodeTo(res, block, tables); err != nil {
		return nil, err
	}

	return res, nil
}

// EncodeTo encodes the block with the tables and appends the bits to the
// output bitstream. Nothing is written if an error is returned.
//
// The encoder state is first primed with block[0] from state 0 (the bits of
// this step are dropped). The whole block, block[0] included, is then encoded
// from the primed state. The final state minus L is written last on logRange
// bits.
func EncodeTo(obs tans.OutputBitStream, block []byte, tables *Tables) error {
	if len(block) == 0 {
		return tans.ErrEmptyInput
	}

	for i, b := range block {
		if tables.index[b] < 0 {
			return fmt.Errorf("%w: byte %d at position %d", tans.ErrUnknownSymbol, b, i)
		}
	}

	// Priming step: from state 0, state >> nbBits is 0 whatever the bit count.
	// DeltaFindState may be negative, hence the mask.
	mask := tables.size - 1
	state := uint64(tables.codingTable[tables.transforms[block[0]].DeltaFindState&mask])
	var err error

	for _, b := range block {
		if state, err = tables.encodeSymbol(obs, state, b); err != nil {
			return err
		}
	}

	obs.WriteBits(state-uint64(tables.size), tables.logRange)
	return nil
}

func (this *Tables) encodeSymbol(obs tans.OutputBitStream, state uint64, symbol byte) (uint64, error) {
	tr := &this.transforms[symbol]
	nbBits := (int64(state) + tr.DeltaNbBits) >> 16

	if nbBits < 0 || nbBits > int64(this.logRange) {
		return state, fmt.Errorf("%w: invalid bit count %d for symbol %d at state %d",
			tans.ErrInvalidDistribution, nbBits, symbol, state)
	}

	obs.WriteBits(state, uint(nbBits))
	idx := int(state>>uint(nbBits)) + tr.DeltaFindState

	if idx < 0 || idx >= this.size {
		return state, fmt.Errorf("%w: coding table index %d out of range for symbol %d",
			tans.ErrInvalidDistribution, idx, symbol)
	}

	return uint64(this.codingTable[idx]), nil
}

// Decode decodes the bitstream with the tables. Bits are consumed from the
// tail of the bitstream and decoding stops when the bitstream is empty.
func Decode(ibs tans.InputBitStream, tables *Tables) ([]byte, error) {
	return tables.decode(ibs, -1)
}

// DecodeN decodes exactly 'count' symbols from the bitstream with the
// tables. The bitstream must be fully consumed at the end. Unlike Decode,
// symbols encoded with zero bits at the start of the block are recovered.
func DecodeN(ibs tans.InputBitStream, tables *Tables, count int) ([]byte, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: symbol count %d (must be at least 1)", tans.ErrInvalidParameter, count)
	}

	return tables.decode(ibs, count)
}

// Decode 'count' symbols or until the bitstream is empty if count is negative
func (this *Tables) decode(ibs tans.InputBitStream, count int) ([]byte, error) {
	st, err := ibs.ReadTrailingBits(this.logRange)

	if err != nil {
		return nil, err
	}

	state := int(st)

	// The count comes from untrusted input: size the buffer from the bits
	// available and let it grow if symbols are decoded with zero bits.
	capacity := int(ibs.Len()) + this.size

	if count >= 0 {
		capacity = min(count, capacity)
	}

	res := make([]byte, 0, capacity)
	zeroBitSteps := 0

	for (count < 0 && ibs.Len() > 0) || len(res) < count {
		if state >= this.size {
			return nil, fmt.Errorf("%w: state %d out of range", tans.ErrCorruptStream, state)
		}

		d := &this.decodeTable[state]
		res = append(res, d.Symbol)

		if d.NbBits == 0 {
			zeroBitSteps++

			// More steps without reading bits than states means a cycle
			if count < 0 && zeroBitSteps > this.size {
				return nil, fmt.Errorf("%w: decoding does not consume the bitstream", tans.ErrCorruptStream)
			}

			state = int(d.NewX)
			continue
		}

		zeroBitSteps = 0
		r, err := ibs.ReadTrailingBits(uint(d.NbBits))

		if err != nil {
			return nil, fmt.Errorf("%w: %w", tans.ErrCorruptStream, err)
		}

		state = int(d.NewX) + int(r)
	}

	if ibs.Len() != 0 {
		return nil, fmt.Errorf("%w: %d bits left after decoding %d symbols", tans.ErrCorruptStream,
			ibs.Len(), count)
	}

	// The decoder walks the encoder states backward
	for i, j := 0, len(res)-1; i < j; i, j = i+1, j-1 {
		res[i], res[j] = res[j], res[i]
	}

	return res, nil
}

// TANSEncoder tabled Asymmetric Numeral System encoder
type TANSEncoder struct {
	bitstream tans.OutputBitStream
	tables    *Tables
	listeners []tans.Listener
}

// NewTANSEncoder creates an instance of tANS encoder writing to the
// bitstream with the provided tables. Listeners receive an event before and
// after each block is encoded.
func NewTANSEncoder(bs tans.OutputBitStream, tables *Tables, listeners ...tans.Listener) (*TANSEncoder, error) {
	if bs == nil {
		return nil, errors.New("tANS codec: Invalid null bitstream parameter")
	}

	if tables == nil {
		return nil, errors.New("tANS codec: Invalid null tables parameter")
	}

	this := &TANSEncoder{}
	this.bitstream = bs
	this.tables = tables
	this.listeners = listeners
	return this, nil
}

// Write encodes the block into the bitstream. Returns the number of bits
// written to the bitstream.
func (this *TANSEncoder) Write(block []byte) (int, error) {
	written := this.bitstream.Len()
	tans.NotifyListeners(this.listeners, tans.NewEvent(tans.EVT_ENCODING_START, int64(len(block)),
		written, 0, tans.EVT_HASH_NONE, time.Now()))

	if err := EncodeTo(this.bitstream, block, this.tables); err != nil {
		return 0, err
	}

	written = this.bitstream.Len() - written
	tans.NotifyListeners(this.listeners, tans.NewEvent(tans.EVT_ENCODING_END, int64(len(block)),
		written, 0, tans.EVT_HASH_NONE, time.Now()))
	return int(written), nil
}

// BitStream returns the underlying bitstream
func (this *TANSEncoder) BitStream() tans.OutputBitStream {
	return this.bitstream
}

// TANSDecoder tabled Asymmetric Numeral System decoder
type TANSDecoder struct {
	bitstream tans.InputBitStream
	tables    *Tables
	count     int
	listeners []tans.Listener
}

// NewTANSDecoder creates an instance of tANS decoder reading from the
// bitstream with the provided tables. If count is positive, exactly 'count'
// symbols are decoded (see DecodeN), otherwise decoding stops when the
// bitstream is empty (see Decode).
func NewTANSDecoder(bs tans.InputBitStream, tables *Tables, count int, listeners ...tans.Listener) (*TANSDecoder, error) {
	if bs == nil {
		return nil, errors.New("tANS codec: Invalid null bitstream parameter")
	}

	if tables == nil {
		return nil, errors.New("tANS codec: Invalid null tables parameter")
	}

	this := &TANSDecoder{}
	this.bitstream = bs
	this.tables = tables
	this.count = count
	this.listeners = listeners
	return this, nil
}

// Read decodes the bitstream and returns the decoded data
func (this *TANSDecoder) Read() ([]byte, error) {
	bits := this.bitstream.Len()
	tans.NotifyListeners(this.listeners, tans.NewEvent(tans.EVT_DECODING_START, 0,
		bits, 0, tans.EVT_HASH_NONE, time.Now()))
	var res []byte
	var err error

	if this.count > 0 {
		res, err = DecodeN(this.bitstream, this.tables, this.count)
	} else {
		res, err = Decode(this.bitstream, this.tables)
	}

	if err != nil {
		return nil, err
	}

	tans.NotifyListeners(this.listeners, tans.NewEvent(tans.EVT_DECODING_END, int64(len(res)),
		bits, 0, tans.EVT_HASH_NONE, time.Now()))
	return res, nil
}

// BitStream returns the underlying bitstream
func (this *TANSDecoder) BitStream() tans.InputBitStream {
	return this.bitstream
}
