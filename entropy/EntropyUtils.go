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
	"sort"

	tans "github.com/flanglet/tans-go"
)

const (
	// MIN_OCCURRENCES is the smallest number of occurrences given to a symbol
	// by NormalizeFrequencies when the alphabet has more than one symbol.
	MIN_OCCURRENCES = 2
)

type freqSortData struct {
	freq   *int
	symbol int
}

type sortByFreq []*freqSortData

func (this sortByFreq) Len() int {
	return len(this)
}

func (this sortByFreq) Less(i, j int) bool {
	di := this[i]
	dj := this[j]

	// Decreasing frequency then decreasing symbol
	if *dj.freq == *di.freq {
		return dj.symbol < di.symbol
	}

	return *dj.freq < *di.freq
}

func (this sortByFreq) Swap(i, j int) {
	this[i], this[j] = this[j], this[i]
}

// ComputeHistogram computes the order 0 histogram for the input block
// and returns it in the 'freqs' slice (length at least 256).
func ComputeHistogram(block []byte, freqs []int) {
	for i := range freqs {
		freqs[i] = 0
	}

	f0 := [256]int{}
	f1 := [256]int{}
	f2 := [256]int{}
	f3 := [256]int{}
	end4 := len(block) & -4

	for i := 0; i < end4; i += 4 {
		f0[block[i]]++
		f1[block[i+1]]++
		f2[block[i+2]]++
		f3[block[i+3]]++
	}

	for i := end4; i < len(block); i++ {
		freqs[block[i]]++
	}

	for i := 0; i < 256; i++ {
		freqs[i] += (f0[i] + f1[i] + f2[i] + f3[i])
	}
}

// NormalizeFrequencies scales the frequencies so that their sum equals 'scale'.
// Every symbol present keeps at least MIN_OCCURRENCES occurrences, unless it
// is the only symbol (it then gets 'scale' occurrences).
// The alphabet (present symbols in increasing order) and freqs parameters are
// updated. Returns the size of the alphabet or an error.
func NormalizeFrequencies(freqs []int, alphabet []int, totalFreq, scale int) (int, error) {
	if len(alphabet) > 256 {
		return 0, fmt.Errorf("Invalid alphabet size parameter: %v (must be less than or equal to 256)", len(alphabet))
	}

	if scale < 2 || scale > 1<<tans.MAX_LOG_RANGE {
		return 0, fmt.Errorf("Invalid range parameter: %v (must be in [2..%d])", scale, 1<<tans.MAX_LOG_RANGE)
	}

	if len(alphabet) == 0 || totalFreq == 0 {
		return 0, nil
	}

	alphabetSize := 0

	for i := range alphabet {
		alphabet[i] = 0
	}

	for i := 0; i < 256; i++ {
		if freqs[i] != 0 {
			alphabet[alphabetSize] = i
			alphabetSize++
		}
	}

	if alphabetSize == 1 {
		freqs[alphabet[0]] = scale
		return 1, nil
	}

	if alphabetSize*MIN_OCCURRENCES > scale {
		return 0, fmt.Errorf("%w: %d symbols cannot fit in a table of size %d",
			tans.ErrInvalidDistribution, alphabetSize, scale)
	}

	sumScaledFreq := 0
	idxMax := alphabet[0]

	// Scale frequencies by squeezing/stretching distribution over complete range
	for _, i := range alphabet[0:alphabetSize] {
		sf := int64(freqs[i]) * int64(scale)
		scaledFreq := MIN_OCCURRENCES

		if sf > int64(totalFreq)*MIN_OCCURRENCES {
			// Find best frequency rounding value
			scaledFreq = int(sf / int64(totalFreq))
			errCeiling := int64(scaledFreq+1)*int64(totalFreq) - sf
			errFloor := sf - int64(scaledFreq)*int64(totalFreq)

			if errCeiling < errFloor {
				scaledFreq++
			}
		}

		sumScaledFreq += scaledFreq
		freqs[i] = scaledFreq

		if scaledFreq > freqs[idxMax] {
			idxMax = i
		}
	}

	if sumScaledFreq == scale {
		return alphabetSize, nil
	}

	delta := sumScaledFreq - scale

	if delta < 0 {
		// Give the missing occurrences to the most frequent symbol
		freqs[idxMax] -= delta
		return alphabetSize, nil
	}

	// Too many occurrences: take them from the most frequent symbols first,
	// never going below the minimum
	queue := make(sortByFreq, 0, alphabetSize)

	for _, i := range alphabet[0:alphabetSize] {
		if freqs[i] > MIN_OCCURRENCES {
			queue = append(queue, &freqSortData{freq: &freqs[i], symbol: i})
		}
	}

	sort.Sort(queue)

	for delta > 0 && len(queue) != 0 {
		// Remove symbol with highest frequency
		fsd := queue[0]
		queue = queue[1:]
		*fsd.freq--
		delta--

		if *fsd.freq > MIN_OCCURRENCES {
			queue = append(queue, fsd)
		}
	}

	if delta != 0 {
		return 0, fmt.Errorf("%w: cannot normalize frequencies to %d", tans.ErrInvalidDistribution, scale)
	}

	return alphabetSize, nil
}

// NewDistributionFromBlock computes the histogram of the block and normalizes
// it to a table of size 2^logRange. Symbols appear in increasing byte order.
func NewDistributionFromBlock(block []byte, logRange uint) (Distribution, error) {
	if len(block) == 0 {
		return nil, fmt.Errorf("%w: cannot compute a distribution", tans.ErrEmptyInput)
	}

	if tans.IsValidLogRange(logRange) == false {
		return nil, fmt.Errorf("%w: log range %d (must be in [%d..%d])", tans.ErrInvalidDistribution,
			logRange, tans.MIN_LOG_RANGE, tans.MAX_LOG_RANGE)
	}

	var freqs [256]int
	var alphabet [256]int
	ComputeHistogram(block, freqs[:])
	alphabetSize, err := NormalizeFrequencies(freqs[:], alphabet[:], len(block), 1<<logRange)

	if err != nil {
		return nil, err
	}

	res := make(Distribution, alphabetSize)

	for i := range res {
		res[i] = SymbolFreq{Symbol: byte(alphabet[i]), Occurrences: freqs[alphabet[i]]}
	}

	return res, nil
}
