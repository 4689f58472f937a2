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
)

func TestParseDistribution(t *testing.T) {
	dist, err := ParseDistribution("0:10,1:10,2:12")

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if len(dist) != 3 || dist[2].Symbol != '2' || dist[2].Occurrences != 12 {
		t.Errorf("Unexpected distribution: %v", dist)
	}

	dist, err = ParseDistribution("0x00:3,0x41:5,::8")

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	expected := Distribution{{0, 3}, {'A', 5}, {':', 8}}

	for i := range expected {
		if dist[i] != expected[i] {
			t.Errorf("Entry %d: expected %v, got %v", i, expected[i], dist[i])
		}
	}

	if s := dist.String(); s != "0x00:3,A:5,0x3A:8" {
		t.Errorf("Unexpected string: %s", s)
	}

	for _, s := range []string{"", "0", "ab:3", "0x1G:3", "a:b", ":3"} {
		if _, err := ParseDistribution(s); errors.Is(err, tans.ErrInvalidDistribution) == false {
			t.Errorf("'%s': expected an invalid distribution error, got %v", s, err)
		}
	}
}

func TestDistributionHelpers(t *testing.T) {
	dist := Distribution{{'0', 10}, {'1', 10}, {'2', 12}}
	cumul := dist.Cumulative()
	expected := []int{0, 10, 20, 32}

	for i := range expected {
		if cumul[i] != expected[i] {
			t.Errorf("Cumulative[%d]: expected %d, got %d", i, expected[i], cumul[i])
		}
	}

	if dist.Total() != 32 {
		t.Errorf("Expected a total of 32, got %d", dist.Total())
	}

	if err := dist.Validate(5); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}

	if err := dist.Validate(6); errors.Is(err, tans.ErrInvalidDistribution) == false {
		t.Errorf("Expected an invalid distribution error, got %v", err)
	}

	clone := dist.Clone()
	clone[0].Occurrences = 1

	if dist[0].Occurrences != 10 {
		t.Errorf("Clone must not share memory")
	}
}
