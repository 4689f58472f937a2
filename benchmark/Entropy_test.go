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

package benchmark

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/flanglet/tans-go/bitstream"
	"github.com/flanglet/tans-go/entropy"
	kio "github.com/flanglet/tans-go/io"
)

// Runs of random bytes drawn from a skewed alphabet
func generate(values []byte, seed int64, alphabet int) {
	repeats := []int{3, 1, 4, 1, 5, 9, 2, 6, 5, 3, 5, 8, 9, 7, 9, 3}
	r := rand.New(rand.NewSource(seed))
	idx := int(seed) & 0x0F

	for i := 0; i < len(values); {
		length := min(repeats[idx], len(values)-i)
		idx = (idx + 1) & 0x0F
		b := byte(min(r.Intn(alphabet), r.Intn(alphabet)))

		for j := i; j < i+length; j++ {
			values[j] = b
		}

		i += length
	}
}

func benchmarkTANS(b *testing.B, logRange uint, alphabet int) {
	size := 50000
	values1 := make([]byte, size)
	generate(values1, int64(alphabet), alphabet)
	dist, err := entropy.NewDistributionFromBlock(values1, logRange)

	if err != nil {
		b.Fatalf("Failed to compute distribution: %v", err)
	}

	tables, err := entropy.BuildTables(dist, logRange)

	if err != nil {
		b.Fatalf("Failed to build tables: %v", err)
	}

	bb := bitstream.NewBitBuffer(uint64(size) * 8)
	b.SetBytes(int64(size))
	b.ResetTimer()

	for ii := 0; ii < b.N; ii++ {
		bb.Reset()

		// Encode
		if err := entropy.EncodeTo(bb, values1, tables); err != nil {
			msg := fmt.Sprintf("An error occurred during encoding: %v\n", err)
			b.Fatal(msg)
		}

		// Decode
		values2, err := entropy.DecodeN(bb, tables, size)

		if err != nil {
			msg := fmt.Sprintf("An error occurred during decoding: %v\n", err)
			b.Fatal(msg)
		}

		if string(values1) != string(values2) {
			b.Fatalf("Decoded data does not match the original data")
		}
	}
}

func BenchmarkTANS10(b *testing.B) {
	benchmarkTANS(b, 10, 64)
}

func BenchmarkTANS12(b *testing.B) {
	benchmarkTANS(b, 12, 256)
}

func BenchmarkTANS16(b *testing.B) {
	benchmarkTANS(b, 16, 256)
}

func BenchmarkBuildTables(b *testing.B) {
	values := make([]byte, 50000)
	generate(values, 3, 256)
	dist, err := entropy.NewDistributionFromBlock(values, 14)

	if err != nil {
		b.Fatalf("Failed to compute distribution: %v", err)
	}

	b.ResetTimer()

	for ii := 0; ii < b.N; ii++ {
		if _, err := entropy.BuildTables(dist, 14); err != nil {
			b.Fatalf("Failed to build tables: %v", err)
		}
	}
}

func BenchmarkFrame(b *testing.B) {
	size := 256 * 1024
	values1 := make([]byte, size)
	generate(values1, 7, 128)
	b.SetBytes(int64(size))
	b.ResetTimer()

	for ii := 0; ii < b.N; ii++ {
		data, err := kio.Compress(values1, 12)

		if err != nil {
			b.Fatalf("An error occurred during compression: %v", err)
		}

		if _, err = kio.Decompress(data); err != nil {
			b.Fatalf("An error occurred during decompression: %v", err)
		}
	}
}
