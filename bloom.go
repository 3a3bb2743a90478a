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

// BloomFilter is a classic Bloom filter: approximate set membership with
// no false negatives. See the package doc for the family it belongs to.
type BloomFilter struct {
	bits *bitArray
	k    int
	n    int
	seed uint64
}

// NewBloomFilter sizes a BloomFilter for capacity distinct keys at the
// given false positive rate, using M = ceil(-capacity*ln(rate)/(ln 2)^2)
// bits and k = ceil((M/capacity)*ln 2) hash functions, both clamped to at
// least 1.
//
// It fails with a ParameterError if rate is not in (0,1) or capacity < 1.
func NewBloomFilter(capacity int, rate float64) (*BloomFilter, error) {
	if capacity < 1 {
		return nil, paramErrorf("capacity must be >= 1, got %d", capacity)
	}
	if rate <= 0 || rate >= 1 {
		return nil, paramErrorf("error rate must be in (0,1), got %v", rate)
	}

	n := float64(capacity)
	m := math.Ceil(-n * math.Log(rate) / (math.Ln2 * math.Ln2))
	k := math.Ceil((m / n) * math.Ln2)

	return NewBloomFilterSized(int(m), int(k)), nil
}

// NewBloomFilterSized constructs a BloomFilter directly from a bit array
// length and hash count, both silently clamped to at least 1.
func NewBloomFilterSized(m, k int) *BloomFilter {
	if m < 1 {
		m = 1
	}
	if k < 1 {
		k = 1
	}
	return &BloomFilter{
		bits: newBitArray(m),
		k:    k,
		seed: DefaultSeed,
	}
}

// BloomFilterFromIterable builds a BloomFilter sized for len(items) at the
// given false positive rate and inserts every item.
func BloomFilterFromIterable(items [][]byte, rate float64) (*BloomFilter, error) {
	f, err := NewBloomFilter(len(items), rate)
	if err != nil {
		return nil, err
	}
	for _, x := range items {
		f.Add(x)
	}
	return f, nil
}

// Add inserts an element into f. Elements may be []byte, string, or an
// integer type; any other type panics (see elementBytes).
func (f *BloomFilter) Add(x interface{}) {
	data := elementBytes(x)
	idx, err := distinctIndices(data, f.bits.len(), f.k, f.seed)
	if err != nil {
		// NewBloomFilter always yields k <= m; a filter built with
		// NewBloomFilterSized and k > m panics here.
		panic(err)
	}
	for _, i := range idx {
		f.bits.set(i)
	}
	f.n++
}

// Has reports whether x may have been added to f. A false return is
// definitive; a true return may be a false positive.
func (f *BloomFilter) Has(x interface{}) bool {
	data := elementBytes(x)
	idx, err := distinctIndices(data, f.bits.len(), f.k, f.seed)
	if err != nil {
		panic(err)
	}
	for _, i := range idx {
		if !f.bits.get(i) {
			return false
		}
	}
	return true
}

// Rate estimates f's current false positive rate as
// (1 - e^(-k*n/m))^k.
func (f *BloomFilter) Rate() float64 {
	m := float64(f.bits.len())
	k := float64(f.k)
	n := float64(f.n)
	return math.Pow(1-math.Exp(-k*n/m), k)
}

// Cardinality estimates the number of distinct elements added to f from
// the fraction of bits set, using the standard Bloom filter estimator
// n ≈ -(m/k) ln(1 - ones/m). It is unreliable once the filter is nearly
// full.
func (f *BloomFilter) Cardinality() float64 {
	m := float64(f.bits.len())
	k := float64(f.k)
	ones := float64(f.bits.onesCount())
	if ones >= m {
		return math.Inf(1)
	}
	return -(m / k) * math.Log(1-ones/m)
}

// Equals reports whether f and other have identical bit arrays, hash
// counts, element counts, and seeds.
func (f *BloomFilter) Equals(other *BloomFilter) bool {
	if other == nil {
		return false
	}
	return f.k == other.k && f.n == other.n && f.seed == other.seed && f.bits.equal(other.bits)
}

// Clone returns a deep copy of f.
func (f *BloomFilter) Clone() *BloomFilter {
	return &BloomFilter{bits: f.bits.clone(), k: f.k, n: f.n, seed: f.seed}
}

// Seed returns f's current hash seed.
func (f *BloomFilter) Seed() uint64 { return f.seed }

// SetSeed changes f's hash seed. It does not rehash existing bits; callers
// that need a different seed should set it before adding any elements.
func (f *BloomFilter) SetSeed(seed uint64) { f.seed = seed }

// NumBits returns the length of f's bit array.
func (f *BloomFilter) NumBits() int { return f.bits.len() }

// K returns f's hash count.
func (f *BloomFilter) K() int { return f.k }

// Stats summarizes f's memory footprint and estimated behavior.
type Stats struct {
	Bits         int
	Bytes        int
	Inserted     int
	LoadFactor   float64
	EstFPRate    float64
	HumanizedMem string
}

// Stats reports f's size and estimated false positive rate.
func (f *BloomFilter) Stats() Stats {
	nbytes := (f.bits.len() + 7) / 8
	return Stats{
		Bits:         f.bits.len(),
		Bytes:        nbytes,
		Inserted:     f.n,
		LoadFactor:   float64(f.bits.onesCount()) / float64(f.bits.len()),
		EstFPRate:    f.Rate(),
		HumanizedMem: humanize.Bytes(uint64(nbytes)),
	}
}
