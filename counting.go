// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package probds

import (
	"math"

	"github.com/dustin/go-humanize"
)

// CounterMax is the saturation value of a CountingBloomFilter's counters.
// Once a counter reaches CounterMax, further increments are no-ops and the
// filter becomes conservative: a later Remove of an element sharing that
// counter may leave stale counts behind.
const CounterMax = nibbleMax

// CountingBloomFilter is a Bloom variant backed by small saturating
// counters instead of bits, so elements can be removed. Has(x) holds iff
// every one of x's k counters is at least 1.
type CountingBloomFilter struct {
	counters  *nibbleCounters
	k         int
	n         int
	seed      uint64
	saturated bool
}

// NewCountingBloomFilter sizes a CountingBloomFilter the same way
// NewBloomFilter does: M = ceil(-capacity*ln(rate)/(ln 2)^2) counters,
// k = ceil((M/capacity)*ln 2) hash functions.
func NewCountingBloomFilter(capacity int, rate float64) (*CountingBloomFilter, error) {
	if capacity < 1 {
		return nil, paramErrorf("capacity must be >= 1, got %d", capacity)
	}
	if rate <= 0 || rate >= 1 {
		return nil, paramErrorf("error rate must be in (0,1), got %v", rate)
	}

	n := float64(capacity)
	m := math.Ceil(-n * math.Log(rate) / (math.Ln2 * math.Ln2))
	k := math.Ceil((m / n) * math.Ln2)

	return NewCountingBloomFilterSized(int(m), int(k)), nil
}

// NewCountingBloomFilterSized constructs a CountingBloomFilter directly
// from a counter array length and hash count, both clamped to at least 1.
func NewCountingBloomFilterSized(m, k int) *CountingBloomFilter {
	if m < 1 {
		m = 1
	}
	if k < 1 {
		k = 1
	}
	return &CountingBloomFilter{
		counters: newNibbleCounters(m),
		k:        k,
		seed:     DefaultSeed,
	}
}

func (f *CountingBloomFilter) indices(x interface{}) []int {
	idx, err := distinctIndices(elementBytes(x), f.counters.len(), f.k, f.seed)
	if err != nil {
		panic(err)
	}
	return idx
}

// Add inserts an element into f, incrementing its k counters. Counters
// that are already at CounterMax saturate instead of wrapping, and f
// remembers that saturation occurred.
func (f *CountingBloomFilter) Add(x interface{}) {
	for _, i := range f.indices(x) {
		if f.counters.increment(i) {
			f.saturated = true
		}
	}
	f.n++
}

// Has reports whether x may have been added to f: true iff all of its k
// counters are at least 1.
func (f *CountingBloomFilter) Has(x interface{}) bool {
	for _, i := range f.indices(x) {
		if f.counters.get(i) == 0 {
			return false
		}
	}
	return true
}

// Remove deletes one occurrence of x from f. It fails with an
// UnknownElementError, mutating nothing, if any of x's counters is
// already zero.
func (f *CountingBloomFilter) Remove(x interface{}) error {
	idx := f.indices(x)
	for _, i := range idx {
		if f.counters.get(i) == 0 {
			return unknownErrorf("element not present in counting bloom filter")
		}
	}
	for _, i := range idx {
		f.counters.decrement(i)
	}
	f.n--
	return nil
}

// Saturated reports whether any counter has reached CounterMax. Once true,
// counts may be stale: a saturated counter dropped the increments past
// CounterMax, so after later Removes it can be lower than the number of
// adds still outstanding for the elements sharing it.
func (f *CountingBloomFilter) Saturated() bool { return f.saturated }

// Equals reports whether f and other have identical counters, hash
// counts, element counts, and seeds.
func (f *CountingBloomFilter) Equals(other *CountingBloomFilter) bool {
	if other == nil {
		return false
	}
	return f.k == other.k && f.n == other.n && f.seed == other.seed &&
		f.counters.equal(other.counters)
}

// Clone returns a deep copy of f.
func (f *CountingBloomFilter) Clone() *CountingBloomFilter {
	return &CountingBloomFilter{
		counters: f.counters.clone(), k: f.k, n: f.n, seed: f.seed, saturated: f.saturated,
	}
}

// Seed returns f's current hash seed.
func (f *CountingBloomFilter) Seed() uint64 { return f.seed }

// SetSeed changes f's hash seed.
func (f *CountingBloomFilter) SetSeed(seed uint64) { f.seed = seed }

// NumCounters returns the length of f's counter array.
func (f *CountingBloomFilter) NumCounters() int { return f.counters.len() }

// K returns f's hash count.
func (f *CountingBloomFilter) K() int { return f.k }

// Stats reports f's size and load factor.
func (f *CountingBloomFilter) Stats() Stats {
	nbytes := (f.counters.len() + 1) / 2
	var nonzero int
	for i := 0; i < f.counters.len(); i++ {
		if f.counters.get(i) > 0 {
			nonzero++
		}
	}
	m := float64(f.counters.len())
	k := float64(f.k)
	n := float64(f.n)
	return Stats{
		Bits:         f.counters.len() * 4,
		Bytes:        nbytes,
		Inserted:     f.n,
		LoadFactor:   float64(nonzero) / m,
		EstFPRate:    math.Pow(1-math.Exp(-k*n/m), k),
		HumanizedMem: humanize.Bytes(uint64(nbytes)),
	}
}
