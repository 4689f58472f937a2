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
	"testing"

	tans "github.com/flanglet/tans-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestComputeHistogram(t *testing.T) {
	freqs := make([]int, 256)
	freqs['z'] = 12
	ComputeHistogram([]byte("aaaaaaaabbbbc"), freqs)
	assert.Equal(t, 8, freqs['a'])
	assert.Equal(t, 4, freqs['b'])
	assert.Equal(t, 1, freqs['c'])
	assert.Equal(t, 0, freqs['z'])
}

func TestNewDistributionFromBlock(t *testing.T) {
	tests := []struct {
		block    string
		logRange uint
		expected Distribution
	}{
		{"aaaaaaaabbbbc", 4, Distribution{{'a', 9}, {'b', 5}, {'c', 2}}},
		{"1102010120", 5, Distribution{{'0', 13}, {'1', 13}, {'2', 6}}},
		{"abcdefgh", 4, Distribution{{'a', 2}, {'b', 2}, {'c', 2}, {'d', 2}, {'e', 2}, {'f', 2}, {'g', 2}, {'h', 2}}},
		{"xxxx", 6, Distribution{{'x', 64}}},
	}

	for _, tt := range tests {
		dist, err := NewDistributionFromBlock([]byte(tt.block), tt.logRange)
		require.NoError(t, err, tt.block)
		assert.Equal(t, tt.expected, dist, tt.block)
		assert.NoError(t, dist.Validate(tt.logRange))
	}
}

func TestNewDistributionFromBlockErrors(t *testing.T) {
	_, err := NewDistributionFromBlock(nil, 4)
	assert.True(t, errors.Is(err, tans.ErrEmptyInput))

	// 9 symbols need at least 18 states
	_, err = NewDistributionFromBlock([]byte("abcdefghi"), 4)
	assert.True(t, errors.Is(err, tans.ErrInvalidDistribution))

	_, err = NewDistributionFromBlock([]byte("abc"), 20)
	assert.True(t, errors.Is(err, tans.ErrInvalidDistribution))
}

func TestNormalizeFrequenciesParameters(t *testing.T) {
	freqs := make([]int, 256)
	alphabet := make([]int, 256)

	_, err := NormalizeFrequencies(freqs, make([]int, 257), 1, 256)
	assert.Error(t, err)

	_, err = NormalizeFrequencies(freqs, alphabet, 1, 1)
	assert.Error(t, err)

	_, err = NormalizeFrequencies(freqs, alphabet, 1, 1<<17)
	assert.Error(t, err)

	n, err := NormalizeFrequencies(freqs, alphabet, 0, 256)
	assert.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestNormalizedDistributionsRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		logRange := rapid.SampledFrom([]uint{4, 6, 8, 10, 12, 14, 16}).Draw(t, "logRange")
		alphabetSize := rapid.IntRange(1, min(64, (1<<logRange)/2)).Draw(t, "alphabetSize")
		block := rapid.SliceOfN(rapid.ByteRange(0, byte(alphabetSize-1)), 1, 500).Draw(t, "block")
		dist, err := NewDistributionFromBlock(block, logRange)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if err = dist.Validate(logRange); err != nil {
			t.Fatalf("invalid distribution: %v", err)
		}

		for _, sf := range dist {
			if len(dist) > 1 && sf.Occurrences < MIN_OCCURRENCES {
				t.Fatalf("symbol %d has %d occurrences", sf.Symbol, sf.Occurrences)
			}
		}

		tables, err := BuildTables(dist, logRange)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		bits, err := Encode(block, tables)

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		res, err := DecodeN(bits, tables, len(block))

		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if string(res) != string(block) {
			t.Fatalf("round trip failed")
		}
	})
}
