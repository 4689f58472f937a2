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

package tans

import (
	"testing"
)

func TestFirst1Index(t *testing.T) {
	tests := []struct {
		value    uint64
		expected uint
	}{
		{0, 0},
		{1, 0},
		{2, 1},
		{3, 1},
		{9, 3},
		{31, 4},
		{32, 5},
		{63, 5},
		{255, 7},
		{256, 8},
		{65535, 15},
		{65536, 16},
		{1 << 40, 40},
		{^uint64(0), 63},
	}

	for _, tt := range tests {
		if res := First1Index(tt.value); res != tt.expected {
			t.Errorf("First1Index(%d): expected %d, got %d", tt.value, tt.expected, res)
		}
	}

	// Compare with a naive shift loop
	for x := uint64(2); x < 1<<17; x++ {
		n := uint(0)

		for v := x; v > 1; v >>= 1 {
			n++
		}

		if res := First1Index(x); res != n {
			t.Fatalf("First1Index(%d): expected %d, got %d", x, n, res)
		}
	}
}

func TestIsPowerOf2(t *testing.T) {
	for _, x := range []uint64{1, 2, 4, 1024, 1 << 16} {
		if !IsPowerOf2(x) {
			t.Errorf("%d should be a power of 2", x)
		}
	}

	for _, x := range []uint64{0, 3, 6, 31, 1000} {
		if IsPowerOf2(x) {
			t.Errorf("%d should not be a power of 2", x)
		}
	}
}

func TestIsValidLogRange(t *testing.T) {
	if IsValidLogRange(0) || IsValidLogRange(17) {
		t.Errorf("Log ranges 0 and 17 must be rejected")
	}

	for lr := uint(MIN_LOG_RANGE); lr <= MAX_LOG_RANGE; lr++ {
		if !IsValidLogRange(lr) {
			t.Errorf("Log range %d must be accepted", lr)
		}
	}
}

func TestIsSpreadableLogRange(t *testing.T) {
	for lr := uint(0); lr <= MAX_LOG_RANGE+1; lr++ {
		expected := lr >= MIN_LOG_RANGE && lr <= MAX_LOG_RANGE && lr != 1 && lr != 3

		if IsSpreadableLogRange(lr) != expected {
			t.Errorf("Log range %d: expected spreadable=%v", lr, expected)
		}
	}

	if SpreadStep(32) != 23 {
		t.Errorf("Expected step 23 for a table of size 32, got %d", SpreadStep(32))
	}
}
