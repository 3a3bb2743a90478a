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

// DefaultLoadFactor is the slice fill fraction PartitionedBloomFilter
// targets when sized from a capacity and error rate, unless the caller
// picks a different one.
const DefaultLoadFactor = 0.5

// PartitionedBloomFilter is a Bloom variant that splits its bit array into
// k disjoint slices of equal size, one per hash function, so that every
// inserted element contributes exactly one bit to each slice. This gives
// every element a uniform false-positive contribution, at the cost of
// density imbalance for very small inputs.
type PartitionedBloomFilter struct {
	slices    []*bitArray
	sliceSize int
	k         int
	n         int
	seed      uint64
}

// NewPartitionedBloomFilter sizes a PartitionedBloomFilter for capacity
// distinct keys at the given false positive rate and load factor, using
// k = ceil(log2(1/rate)) slices of
// m = ceil(-k*capacity / ln(1 - loadFactor^(1/k))) bits each.
//
// It fails with a ParameterError if rate is not in (0,1), capacity < 1, or
// loadFactor is not in (0,1).
func NewPartitionedBloomFilter(capacity int, rate, loadFactor float64) (*PartitionedBloomFilter, error) {
	if capacity < 1 {
		return nil, paramErrorf("capacity must be >= 1, got %d", capacity)
	}
	if rate <= 0 || rate >= 1 {
		return nil, paramErrorf("error rate must be in (0,1), got %v", rate)
	}
	if loadFactor <= 0 || loadFactor >= 1 {
		return nil, paramErrorf("load factor must be in (0,1), got %v", loadFactor)
	}

	k := int(math.Ceil(math.Log2(1 / rate)))
	if k < 1 {
		k = 1
	}
	m := math.Ceil(-float64(k) * float64(capacity) / math.Log(1-math.Pow(loadFactor, 1/float64(k))))

	return NewPartitionedBloomFilterSized(int(m), k), nil
}

// NewPartitionedBloomFilterSized constructs a PartitionedBloomFilter
// directly from a per-slice bit count and a slice (hash) count, both
// clamped to at least 1.
func NewPartitionedBloomFilterSized(sliceSize, k int) *PartitionedBloomFilter {
	if sliceSize < 1 {
		sliceSize = 1
	}
	if k < 1 {
		k = 1
	}
	slices := make([]*bitArray, k)
	for i := range slices {
		slices[i] = newBitArray(sliceSize)
	}
	return &PartitionedBloomFilter{
		slices:    slices,
		sliceSize: sliceSize,
		k:         k,
		seed:      DefaultSeed,
	}
}

// PartitionedBloomFilterFromIterable builds a PartitionedBloomFilter sized
// for len(items) at the given false positive rate and default load
// factor, and inserts every item.
func PartitionedBloomFilterFromIterable(items [][]byte, rate float64) (*PartitionedBloomFilter, error) {
	f, err := NewPartitionedBloomFilter(len(items), rate, DefaultLoadFactor)
	if err != nil {
		return nil, err
	}
	for _, x := range items {
		f.Add(x)
	}
	return f, nil
}

// sliceIndex returns the bit position within slice i that element data
// maps to, using double hashing the way the shared substrate does, but
// confined to a single slice since each hash function only ever touches
// its own slice.
func (f *PartitionedBloomFilter) sliceIndex(data []byte, i int) int {
	h1, h2 := hashTwice(data, f.seed)
	h1 += uint64(i) * h2
	return int(h1 % uint64(f.sliceSize))
}

// Add inserts an element into f, setting exactly one bit per slice.
func (f *PartitionedBloomFilter) Add(x interface{}) {
	data := elementBytes(x)
	for i, s := range f.slices {
		s.set(f.sliceIndex(data, i))
	}
	f.n++
}

// Has reports whether x may have been added to f.
func (f *PartitionedBloomFilter) Has(x interface{}) bool {
	data := elementBytes(x)
	for i, s := range f.slices {
		if !s.get(f.sliceIndex(data, i)) {
			return false
		}
	}
	return true
}

// Rate estimates f's current false positive rate as the probability that
// every slice happens to have the probed bit set: the product, over all k
// slices, of each slice's fraction of set bits (ones/sliceSize).
func (f *PartitionedBloomFilter) Rate() float64 {
	p := 1.0
	for _, s := range f.slices {
		p *= float64(s.onesCount()) / float64(f.sliceSize)
	}
	return p
}

// Equals reports whether f and other share identical slices, sizes, and
// seed.
func (f *PartitionedBloomFilter) Equals(other *PartitionedBloomFilter) bool {
	if other == nil || f.k != other.k || f.sliceSize != other.sliceSize ||
		f.n != other.n || f.seed != other.seed {
		return false
	}
	for i := range f.slices {
		if !f.slices[i].equal(other.slices[i]) {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of f.
func (f *PartitionedBloomFilter) Clone() *PartitionedBloomFilter {
	slices := make([]*bitArray, len(f.slices))
	for i, s := range f.slices {
		slices[i] = s.clone()
	}
	return &PartitionedBloomFilter{
		slices: slices, sliceSize: f.sliceSize, k: f.k, n: f.n, seed: f.seed,
	}
}

// Seed returns f's current hash seed.
func (f *PartitionedBloomFilter) Seed() uint64 { return f.seed }

// SetSeed changes f's hash seed. As with BloomFilter, this does not
// rehash existing bits.
func (f *PartitionedBloomFilter) SetSeed(seed uint64) { f.seed = seed }

// SliceSize returns the number of bits per slice.
func (f *PartitionedBloomFilter) SliceSize() int { return f.sliceSize }

// K returns the number of slices (hash functions).
func (f *PartitionedBloomFilter) K() int { return f.k }

// Stats reports f's size and estimated false positive rate.
func (f *PartitionedBloomFilter) Stats() Stats {
	totalBits := f.sliceSize * f.k
	nbytes := (totalBits + 7) / 8
	var ones int
	for _, s := range f.slices {
		ones += s.onesCount()
	}
	return Stats{
		Bits:         totalBits,
		Bytes:        nbytes,
		Inserted:     f.n,
		LoadFactor:   float64(ones) / float64(totalBits),
		EstFPRate:    f.Rate(),
		HumanizedMem: humanize.Bytes(uint64(nbytes)),
	}
}
