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
	"fmt"
	"io"

	tans "github.com/flanglet/tans-go"
)

// Implementation of the table construction of a tabled Asymmetric Numeral
// System (tANS) codec. See "Asymmetric Numeral Systems" by Jarek Duda at
// http://arxiv.org/abs/0902.0271 and the tANS variant used by
// https://github.com/Cyan4973/FiniteStateEntropy
//
// A distribution is spread over a state table of size L = 2^logRange. Three
// tables are derived from the state table: the coding table (next encoder
// state), the symbol transformations (bit count and coding table offset per
// symbol) and the decoding table (the inverse of the coding table).

// Transformation holds the per symbol values used by the encoder to compute
// in constant time the number of bits to emit and the next coding table index.
type Transformation struct {
	// DeltaNbBits is a 16.16 fixed point threshold:
	// (state + DeltaNbBits) >> 16 is the number of bits to emit.
	DeltaNbBits int64
	// DeltaFindState is added to state >> nbBits to index the coding table
	DeltaFindState int
}

// SymbolDecoding is an entry of the decoding table. At the state indexing
// the entry, the decoder emits Symbol, reads NbBits trailing bits r and moves
// to state NewX + r.
type SymbolDecoding struct {
	Symbol byte
	NbBits uint8
	NewX   uint32
}

// Tables contains all the tables required to encode and decode with a given
// distribution. Tables are immutable once built and can be shared by
// concurrent encoders and decoders.
type Tables struct {
	logRange     uint
	size         int
	distribution Distribution
	cumulative   []int
	index        [256]int // symbol -> position in the distribution, -1 if absent
	stateTable   []byte
	codingTable  []uint32
	outputBits   []uint8
	transforms   [256]Transformation
	decodeTable  []SymbolDecoding
}

// BuildTables builds the coding and decoding tables for the distribution.
// The occurrences must add up to 2^logRange with logRange in [1..16].
// Returns an error wrapping ErrInvalidDistribution otherwise.
func BuildTables(dist Distribution, logRange uint) (*Tables, error) {
	if err := dist.Validate(logRange); err != nil {
		return nil, err
	}

	this := &Tables{}
	this.logRange = logRange
	this.size = 1 << logRange
	this.distribution = dist.Clone()
	this.cumulative = dist.Cumulative()

	for i := range this.index {
		this.index[i] = -1
	}

	for i, sf := range dist {
		this.index[sf.Symbol] = i
	}

	var err error

	if this.stateTable, err = SpreadSymbols(dist, logRange); err != nil {
		return nil, err
	}

	this.codingTable, this.outputBits = this.buildCodingTable()

	if this.transforms, err = buildTransformations(dist, logRange); err != nil {
		return nil, err
	}

	this.decodeTable = this.buildDecodingTable()
	return this, nil
}

// SpreadSymbols places the occurrences of each symbol over a state table of
// size 2^logRange using a fixed step. The step is part of the format:
// encoder and decoder must use the same spread.
func SpreadSymbols(dist Distribution, logRange uint) ([]byte, error) {
	if tans.IsValidLogRange(logRange) == false {
		return nil, fmt.Errorf("%w: log range %d (must be in [%d..%d])", tans.ErrInvalidDistribution,
			logRange, tans.MIN_LOG_RANGE, tans.MAX_LOG_RANGE)
	}

	size := 1 << logRange
	mask := size - 1
	step := tans.SpreadStep(size)
	res := make([]byte, size)
	filled := make([]bool, size)
	pos := 0

	for _, sf := range dist {
		for n := 0; n < sf.Occurrences; n++ {
			res[pos] = sf.Symbol
			filled[pos] = true
			pos = (pos + step) & mask
		}
	}

	if pos != 0 {
		return nil, fmt.Errorf("%w: spread ended at position %d", tans.ErrInvalidDistribution, pos)
	}

	// The step is not co-prime with the table size for some sizes (2 and 8)
	for i := range filled {
		if filled[i] == false {
			return nil, fmt.Errorf("%w: state %d not reached by the spread (table size %d)",
				tans.ErrInvalidDistribution, i, size)
		}
	}

	return res, nil
}

// Each symbol owns the coding table slots [cumul[j], cumul[j+1]), filled
// with the states L+i for the state table positions i of the symbol.
func (this *Tables) buildCodingTable() ([]uint32, []uint8) {
	codingTable := make([]uint32, this.size)
	outputBits := make([]uint8, this.size)
	cursor := make([]int, len(this.cumulative))
	copy(cursor, this.cumulative)

	for i, s := range this.stateTable {
		j := this.index[s]
		codingTable[cursor[j]] = uint32(this.size + i)
		cursor[j]++
		outputBits[i] = uint8(this.logRange - tans.First1Index(uint64(this.size+i)))
	}

	return codingTable, outputBits
}

// A symbol occurring once does not advance the running total: the next
// symbols of the distribution share its coding table range. Such a symbol
// only round trips if it comes last in the distribution order.
func buildTransformations(dist Distribution, logRange uint) ([256]Transformation, error) {
	var res [256]Transformation
	total := 0

	for _, sf := range dist {
		n := sf.Occurrences

		if n == 1 {
			res[sf.Symbol] = Transformation{
				DeltaNbBits:    int64(logRange<<16) - int64(1<<logRange),
				DeltaFindState: total - 1,
			}
		} else if n > 1 {
			maxBitsOut := logRange - tans.First1Index(uint64(n-1))
			minStatePlus := int64(n) << maxBitsOut
			res[sf.Symbol] = Transformation{
				DeltaNbBits:    int64(maxBitsOut<<16) - minStatePlus,
				DeltaFindState: total - n,
			}

			total += n
		} else {
			return res, fmt.Errorf("%w: symbol %d occurs %d times", tans.ErrInvalidDistribution, sf.Symbol, n)
		}
	}

	return res, nil
}

func (this *Tables) buildDecodingTable() []SymbolDecoding {
	res := make([]SymbolDecoding, this.size)
	next := make([]int, len(this.distribution))

	for j, sf := range this.distribution {
		next[j] = sf.Occurrences
	}

	for i, s := range this.stateTable {
		j := this.index[s]
		x := next[j]
		next[j]++
		nbBits := this.logRange - tans.First1Index(uint64(x))
		res[i] = SymbolDecoding{
			Symbol: s,
			NbBits: uint8(nbBits),
			NewX:   uint32((x << nbBits) - this.size),
		}
	}

	return res
}

// LogRange returns the log2 of the table size
func (this *Tables) LogRange() uint {
	return this.logRange
}

// Size returns the table size L
func (this *Tables) Size() int {
	return this.size
}

// Distribution returns a copy of the distribution used to build the tables
func (this *Tables) Distribution() Distribution {
	return this.distribution.Clone()
}

// Cumulative returns a copy of the cumulative occurrences
func (this *Tables) Cumulative() []int {
	return append([]int(nil), this.cumulative...)
}

// Contains returns true if the symbol is part of the distribution
func (this *Tables) Contains(symbol byte) bool {
	return this.index[symbol] >= 0
}

// StateTable returns a copy of the spread state table
func (this *Tables) StateTable() []byte {
	return append([]byte(nil), this.stateTable...)
}

// CodingTable returns a copy of the coding table. Entries are in [L, 2L).
func (this *Tables) CodingTable() []uint32 {
	return append([]uint32(nil), this.codingTable...)
}

// OutputBits returns a copy of the output bits table
func (this *Tables) OutputBits() []uint8 {
	return append([]uint8(nil), this.outputBits...)
}

// Transformation returns the transformation of a symbol and whether the
// symbol is part of the distribution
func (this *Tables) Transformation(symbol byte) (Transformation, bool) {
	return this.transforms[symbol], this.index[symbol] >= 0
}

// MinBits returns the smallest number of bits emitted when the symbol is
// encoded (0 if the symbol is not part of the distribution)
func (this *Tables) MinBits(symbol byte) uint {
	if this.index[symbol] < 0 {
		return 0
	}

	return uint((int64(this.size) + this.transforms[symbol].DeltaNbBits) >> 16)
}

// MaxBits returns the largest number of bits emitted when the symbol is
// encoded (0 if the symbol is not part of the distribution)
func (this *Tables) MaxBits(symbol byte) uint {
	if this.index[symbol] < 0 {
		return 0
	}

	return uint((int64(2*this.size-1) + this.transforms[symbol].DeltaNbBits) >> 16)
}

// DecodingTable returns a copy of the decoding table
func (this *Tables) DecodingTable() []SymbolDecoding {
	return append([]SymbolDecoding(nil), this.decodeTable...)
}

// Dump writes a human readable form of all tables to the writer
func (this *Tables) Dump(w io.Writer) error {
	var err error
	p := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	p("log range: %d, table size: %d\n", this.logRange, this.size)
	p("distribution: %s\n", this.distribution)
	p("cumulative: %v\n\n", this.cumulative)
	p("state table: %v\n\n", this.stateTable)
	p("output bits: %v\n", this.outputBits)
	p("coding table: %v\n\n", this.codingTable)
	p("symbol transformations:\n")

	for _, sf := range this.distribution {
		tr := this.transforms[sf.Symbol]
		p("  %s: deltaNbBits=%d deltaFindState=%d bits=[%d..%d]\n", formatSymbol(sf.Symbol), tr.DeltaNbBits,
			tr.DeltaFindState, this.MinBits(sf.Symbol), this.MaxBits(sf.Symbol))
	}

	p("\ndecoding table:\n")

	for i, d := range this.decodeTable {
		p("  %4d: symbol=%s nbBits=%d newX=%d\n", i, formatSymbol(d.Symbol), d.NbBits, d.NewX)
	}

	return err
}
