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

// Package probds implements a family of probabilistic set and frequency
// data structures that share a common seeded hashing substrate:
//
//   - BloomFilter, a classic Bloom filter: approximate membership with no
//     false negatives.
//   - PartitionedBloomFilter, a Bloom variant that gives every inserted
//     element the same false-positive contribution by splitting the bit
//     array into k disjoint slices.
//   - CountingBloomFilter, a Bloom variant backed by small saturating
//     counters instead of bits, supporting deletion.
//   - CuckooFilter, a fingerprint-based membership structure supporting
//     deletion and a bounded false-positive rate.
//   - CountMinSketch, a sub-linear frequency table for a stream of keys.
//   - IBLT, an invertible Bloom lookup table for set reconciliation: two
//     IBLTs can be subtracted and the result decoded into the symmetric
//     difference of the sets that produced them.
//
// All six share the hashing substrate in hash.go: a seeded pair of 64-bit
// hashes expanded by double hashing into as many indices as a structure
// needs. There is no inter-structure coupling beyond that substrate and
// the bit/counter array primitives in bitset.go and counters.go.
//
// The structures in this package are not safe for concurrent use. A caller
// that needs concurrent access must provide its own synchronization; no
// structure here takes a lock or performs an atomic operation internally.
package probds

// DefaultSeed is the seed every structure in this package uses unless the
// caller picks a different one with SetSeed.
const DefaultSeed uint64 = 0x1234567890
