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

// First1Index returns the index of the most significant set bit of 'x'.
// Both First1Index(0) and First1Index(1) return 0.
func First1Index(x uint64) uint {
	res := uint(0)

	if x >= 1<<32 {
		x >>= 32
		res += 32
	}

	if x >= 1<<16 {
		x >>= 16
		res += 16
	}

	if x >= 1<<8 {
		x >>= 8
		res += 8
	}

	return res + uint(_LOG2[x])
}

// _LOG2[x] is the index of the most significant set bit of x (0 for x=0)
var _LOG2 = func() [256]uint8 {
	var res [256]uint8

	for i := 2; i < 256; i++ {
		res[i] = res[i>>1] + 1
	}

	return res
}()

// IsPowerOf2 returns true if the input value is a power of two
func IsPowerOf2(x uint64) bool {
	return x != 0 && x&(x-1) == 0
}

// IsValidLogRange returns true if 'logRange' is in [MIN_LOG_RANGE..MAX_LOG_RANGE]
func IsValidLogRange(logRange uint) bool {
	return logRange >= MIN_LOG_RANGE && logRange <= MAX_LOG_RANGE
}

// SpreadStep returns the stride used to spread the symbols over a state
// table of 'size' slots
func SpreadStep(size int) int {
	return (size >> 1) + (size >> 3) + 3
}

// IsSpreadableLogRange returns true if 'logRange' is valid and the spread
// step visits every slot of a table of size 2^logRange. The step is even
// (hence not co-prime with the size) for log ranges 1 and 3.
func IsSpreadableLogRange(logRange uint) bool {
	return IsValidLogRange(logRange) && SpreadStep(1<<logRange)&1 == 1
}
