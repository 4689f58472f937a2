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
	"strconv"
	"strings"

	tans "github.com/flanglet/tans-go"
)

// SymbolFreq associates a symbol with its number of occurrences in the
// coding table
type SymbolFreq struct {
	Symbol      byte
	Occurrences int
}

// Distribution is an ordered list of symbols and occurrences. The order
// matters: symbols are spread over the state table in this order.
type Distribution []SymbolFreq

// Validate checks that the distribution can be spread over a table of size
// 2^logRange: symbols must be distinct, every symbol must occur at least
// once and the occurrences must add up to the table size.
func (this Distribution) Validate(logRange uint) error {
	if tans.IsValidLogRange(logRange) == false {
		return fmt.Errorf("%w: log range %d (must be in [%d..%d])", tans.ErrInvalidDistribution,
			logRange, tans.MIN_LOG_RANGE, tans.MAX_LOG_RANGE)
	}

	if len(this) == 0 {
		return fmt.Errorf("%w: no symbol", tans.ErrInvalidDistribution)
	}

	var seen [256]bool
	sum := 0

	for _, sf := range this {
		if seen[sf.Symbol] == true {
			return fmt.Errorf("%w: duplicate symbol %d", tans.ErrInvalidDistribution, sf.Symbol)
		}

		if sf.Occurrences < 1 {
			return fmt.Errorf("%w: symbol %d occurs %d times (must be at least 1)",
				tans.ErrInvalidDistribution, sf.Symbol, sf.Occurrences)
		}

		seen[sf.Symbol] = true
		sum += sf.Occurrences
	}

	if sum != 1<<logRange {
		return fmt.Errorf("%w: occurrences add up to %d (must be %d)", tans.ErrInvalidDistribution,
			sum, 1<<logRange)
	}

	return nil
}

// Cumulative returns the prefix sums of the occurrences: res[0] = 0 and
// res[i] = res[i-1] + occurrences[i-1]. The slice has len(this)+1 entries.
func (this Distribution) Cumulative() []int {
	res := make([]int, len(this)+1)

	for i, sf := range this {
		res[i+1] = res[i] + sf.Occurrences
	}

	return res
}

// Total returns the sum of all occurrences
func (this Distribution) Total() int {
	sum := 0

	for _, sf := range this {
		sum += sf.Occurrences
	}

	return sum
}

// Clone returns an independent copy of the distribution
func (this Distribution) Clone() Distribution {
	res := make(Distribution, len(this))
	copy(res, this)
	return res
}

// String returns the distribution in the format accepted by ParseDistribution
func (this Distribution) String() string {
	parts := make([]string, len(this))

	for i, sf := range this {
		parts[i] = formatSymbol(sf.Symbol) + ":" + strconv.Itoa(sf.Occurrences)
	}

	return strings.Join(parts, ",")
}

// ParseDistribution parses a list of 'symbol:occurrences' pairs separated by
// commas. A symbol is either a single printable character or a byte value
// written as 0xHH (e.g. "0:10,1:10,2:12" or "0x00:3,0x41:5").
func ParseDistribution(s string) (Distribution, error) {
	s = strings.TrimSpace(s)

	if len(s) == 0 {
		return nil, fmt.Errorf("%w: empty distribution", tans.ErrInvalidDistribution)
	}

	tokens := strings.Split(s, ",")
	res := make(Distribution, 0, len(tokens))

	for _, token := range tokens {
		idx := strings.LastIndexByte(token, ':')

		if idx <= 0 {
			return nil, fmt.Errorf("%w: invalid entry '%s' (expected symbol:occurrences)",
				tans.ErrInvalidDistribution, token)
		}

		sym, err := parseSymbol(token[0:idx])

		if err != nil {
			return nil, err
		}

		occ, err := strconv.Atoi(strings.TrimSpace(token[idx+1:]))

		if err != nil {
			return nil, fmt.Errorf("%w: invalid occurrences in '%s'", tans.ErrInvalidDistribution, token)
		}

		res = append(res, SymbolFreq{Symbol: sym, Occurrences: occ})
	}

	return res, nil
}

func parseSymbol(s string) (byte, error) {
	if len(s) == 1 {
		return s[0], nil
	}

	if len(s) == 4 && (strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X")) {
		v, err := strconv.ParseUint(s[2:], 16, 8)

		if err == nil {
			return byte(v), nil
		}
	}

	return 0, fmt.Errorf("%w: invalid symbol '%s'", tans.ErrInvalidDistribution, s)
}

func formatSymbol(b byte) string {
	if b > 32 && b < 127 && b != ',' && b != ':' {
		return string(rune(b))
	}

	return fmt.Sprintf("0x%02X", b)
}
