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
	"encoding/binary"
	"math"
	"math/rand"

	"github.com/dustin/go-humanize"
)

// DefaultSlotsPerBucket is the number of fingerprint slots per bucket a
// CuckooFilter uses unless told otherwise.
const DefaultSlotsPerBucket = 4

// DefaultMaxKicks is the maximum number of evictions CuckooFilter.Add
// attempts before giving up on an insertion.
const DefaultMaxKicks = 500

// cuckooBucket holds up to s fingerprints. 0 marks an empty slot, so a
// genuine fingerprint of 0 is folded to 1 at computation time.
type cuckooBucket []uint64

func (b cuckooBucket) firstFree() int {
	for i, fp := range b {
		if fp == 0 {
			return i
		}
	}
	return -1
}

func (b cuckooBucket) contains(fp uint64) bool {
	for _, v := range b {
		if v == fp {
			return true
		}
	}
	return false
}

func (b cuckooBucket) removeOne(fp uint64) bool {
	for i, v := range b {
		if v == fp {
			b[i] = 0
			return true
		}
	}
	return false
}

// cuckooVictim is the single-slot overflow used when an eviction chain
// exhausts MaxKicks. It is the permitted enhancement from the design
// notes: rather than dropping the last evicted fingerprint outright, it is
// held here, still retrievable by Has.
type cuckooVictim struct {
	fp      uint64
	bucket  int
	present bool
}

// CuckooFilter is a fingerprint-based membership structure supporting
// deletion and a bounded false positive rate. Every element maps to a
// fingerprint and two candidate buckets; the second is always recoverable
// from the first and the fingerprint alone via XOR, which is what makes
// eviction possible without re-hashing the original element.
type CuckooFilter struct {
	buckets  []cuckooBucket
	b        int
	s        int
	f        int
	maxKicks int
	n        int
	seed     uint64
	victim   cuckooVictim
}

// nextPow2 returns the smallest power of two >= n, or 1 if n < 1.
//
// altBucket's XOR trick only stays within [0,b) when b is a power of two
// (XOR of two values each < b then has no bit beyond b's highest bit), so
// every constructor that picks a bucket count rounds up to one.
func nextPow2(n int) int {
	b := 1
	for b < n {
		b <<= 1
	}
	return b
}

// NewCuckooFilter constructs a CuckooFilter with at least b buckets,
// rounded up to the next power of two (required for the alternate-bucket
// XOR trick to stay in range), s slots per bucket (clamped to [2,8]), and
// an f-bit fingerprint. MaxKicks defaults to DefaultMaxKicks.
//
// It fails with a ParameterError if b < 1, or f is not in [1,63] (64 would
// leave no room for the empty sentinel).
func NewCuckooFilter(b, s, f int) (*CuckooFilter, error) {
	if b < 1 {
		return nil, paramErrorf("bucket count must be >= 1, got %d", b)
	}
	b = nextPow2(b)
	if s < 2 {
		s = 2
	}
	if s > 8 {
		s = 8
	}
	if f < 1 || f > 63 {
		return nil, paramErrorf("fingerprint width must be in [1,63], got %d", f)
	}

	buckets := make([]cuckooBucket, b)
	for i := range buckets {
		buckets[i] = make(cuckooBucket, s)
	}
	return &CuckooFilter{
		buckets:  buckets,
		b:        b,
		s:        s,
		f:        f,
		maxKicks: DefaultMaxKicks,
		seed:     DefaultSeed,
	}, nil
}

// NewCuckooFilterSized picks a fingerprint width and bucket count from a
// desired capacity and false positive rate: f satisfies
// 2^f >= ceil(2*s/rate), and the bucket count is the next power of two
// covering capacity/loadFactor elements at s slots per bucket.
func NewCuckooFilterSized(capacity int, rate float64, s int) (*CuckooFilter, error) {
	if capacity < 1 {
		return nil, paramErrorf("capacity must be >= 1, got %d", capacity)
	}
	if rate <= 0 || rate >= 1 {
		return nil, paramErrorf("error rate must be in (0,1), got %v", rate)
	}
	if s < 2 {
		s = 2
	}
	if s > 8 {
		s = 8
	}

	const loadFactor = 0.95
	f := int(math.Ceil(math.Log2(2 * float64(s) / rate)))
	if f < 1 {
		f = 1
	}
	needed := int(math.Ceil(float64(capacity) / (float64(s) * loadFactor)))
	return NewCuckooFilter(nextPow2(needed), s, f)
}

// MaxKicks returns f's eviction budget per Add call.
func (f *CuckooFilter) MaxKicks() int { return f.maxKicks }

// SetMaxKicks overrides the default eviction budget.
func (f *CuckooFilter) SetMaxKicks(n int) { f.maxKicks = n }

func (f *CuckooFilter) fingerprintBytes(fp uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], fp)
	return buf[:]
}

// fingerprintAndBucket computes an element's fingerprint and primary
// bucket index.
func (f *CuckooFilter) fingerprintAndBucket(data []byte) (fp uint64, i1 int) {
	h1, h2 := hashTwice(data, f.seed)
	i1 = int(h1 % uint64(f.b))
	fp = h2 >> (64 - uint(f.f))
	if fp == 0 {
		fp = 1
	}
	return fp, i1
}

// altBucket returns the bucket on the other side of i for fingerprint fp.
// Applying it twice returns the original bucket, which is the symmetry
// invariant the whole eviction scheme depends on.
func (f *CuckooFilter) altBucket(i int, fp uint64) int {
	h1, _ := hashTwice(f.fingerprintBytes(fp), f.seed)
	return i ^ int(h1%uint64(f.b))
}

// Add inserts an element into f.
//
// If both candidate buckets are full, Add evicts a random occupant and
// relocates it, repeating up to MaxKicks times. If the chain never finds
// a free slot, the last displaced fingerprint is held in a single-slot
// victim cache (still reachable from Has) and Add reports
// CapacityExceededError. If the victim slot is already occupied when this
// happens, the new displaced fingerprint is genuinely dropped.
func (f *CuckooFilter) Add(x interface{}) error {
	data := elementBytes(x)
	fp, i1 := f.fingerprintAndBucket(data)
	i2 := f.altBucket(i1, fp)

	if slot := f.buckets[i1].firstFree(); slot >= 0 {
		f.buckets[i1][slot] = fp
		f.n++
		return nil
	}
	if slot := f.buckets[i2].firstFree(); slot >= 0 {
		f.buckets[i2][slot] = fp
		f.n++
		return nil
	}

	idx := i1
	if rand.Intn(2) == 1 {
		idx = i2
	}
	cur := fp
	f.n++
	for kicks := 0; kicks < f.maxKicks; kicks++ {
		slot := rand.Intn(f.s)
		cur, f.buckets[idx][slot] = f.buckets[idx][slot], cur
		idx = f.altBucket(idx, cur)
		if free := f.buckets[idx].firstFree(); free >= 0 {
			f.buckets[idx][free] = cur
			return nil
		}
	}

	// Exhausted: cur is the fingerprint with nowhere to go.
	if f.victim.present {
		// The victim slot already holds an earlier evicted fingerprint;
		// cur is genuinely dropped rather than overwriting it, so n must
		// account for the element that is no longer stored anywhere.
		f.n--
		return capacityErrorf("cuckoo filter full: victim cache occupied, displaced fingerprint dropped")
	}
	f.victim = cuckooVictim{fp: cur, bucket: idx, present: true}
	return capacityErrorf("cuckoo filter full after %d evictions, element retained in victim cache", f.maxKicks)
}

// Has reports whether x may have been added to f.
func (f *CuckooFilter) Has(x interface{}) bool {
	fp, i1 := f.fingerprintAndBucket(elementBytes(x))
	i2 := f.altBucket(i1, fp)
	if f.buckets[i1].contains(fp) || f.buckets[i2].contains(fp) {
		return true
	}
	return f.victim.present && f.victim.fp == fp && (f.victim.bucket == i1 || f.victim.bucket == i2)
}

// Remove deletes one occurrence of x from f. It fails with an
// UnknownElementError, mutating nothing, if neither candidate bucket (nor
// the victim cache) holds x's fingerprint.
//
// Remove must only be called for elements that were actually inserted:
// Has may return true for an unrelated element sharing a fingerprint, and
// removing that element would silently delete the wrong occupant.
func (f *CuckooFilter) Remove(x interface{}) error {
	fp, i1 := f.fingerprintAndBucket(elementBytes(x))
	i2 := f.altBucket(i1, fp)

	if f.buckets[i1].removeOne(fp) {
		f.n--
		return nil
	}
	if f.buckets[i2].removeOne(fp) {
		f.n--
		return nil
	}
	if f.victim.present && f.victim.fp == fp && (f.victim.bucket == i1 || f.victim.bucket == i2) {
		f.victim = cuckooVictim{}
		f.n--
		return nil
	}
	return unknownErrorf("element not present in cuckoo filter")
}

// Count returns the number of elements currently stored, including one
// held in the victim cache, if any.
func (f *CuckooFilter) Count() int { return f.n }

// Seed returns f's current hash seed.
func (f *CuckooFilter) Seed() uint64 { return f.seed }

// SetSeed changes f's hash seed.
func (f *CuckooFilter) SetSeed(seed uint64) { f.seed = seed }

// Buckets, SlotsPerBucket, and FingerprintBits expose f's shape for
// serialization and diagnostics.
func (f *CuckooFilter) Buckets() int         { return f.b }
func (f *CuckooFilter) SlotsPerBucket() int  { return f.s }
func (f *CuckooFilter) FingerprintBits() int { return f.f }

// Clone returns a deep copy of f.
func (f *CuckooFilter) Clone() *CuckooFilter {
	buckets := make([]cuckooBucket, len(f.buckets))
	for i, b := range f.buckets {
		nb := make(cuckooBucket, len(b))
		copy(nb, b)
		buckets[i] = nb
	}
	return &CuckooFilter{
		buckets: buckets, b: f.b, s: f.s, f: f.f, maxKicks: f.maxKicks,
		n: f.n, seed: f.seed, victim: f.victim,
	}
}

// Stats reports f's size and load factor.
func (f *CuckooFilter) Stats() Stats {
	totalSlots := f.b * f.s
	occupied := 0
	for _, bucket := range f.buckets {
		for _, fp := range bucket {
			if fp != 0 {
				occupied++
			}
		}
	}
	nbytes := totalSlots * 8
	return Stats{
		Bits:         totalSlots * f.f,
		Bytes:        nbytes,
		Inserted:     f.n,
		LoadFactor:   float64(occupied) / float64(totalSlots),
		EstFPRate:    float64(2*f.s) / math.Pow(2, float64(f.f)),
		HumanizedMem: humanize.Bytes(uint64(nbytes)),
	}
}
