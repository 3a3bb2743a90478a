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

import "math/bits"

const wordBits = 64

// bitArray is a flat array of bits, packed into 64-bit words. It is the
// backing storage shared by BloomFilter and PartitionedBloomFilter.
type bitArray struct {
	words []uint64
	nbits int
}

func newBitArray(nbits int) *bitArray {
	if nbits < 1 {
		nbits = 1
	}
	return &bitArray{
		words: make([]uint64, (nbits+wordBits-1)/wordBits),
		nbits: nbits,
	}
}

func (b *bitArray) len() int { return b.nbits }

func (b *bitArray) set(i int) {
	b.words[i/wordBits] |= 1 << uint(i%wordBits)
}

func (b *bitArray) get(i int) bool {
	return b.words[i/wordBits]&(1<<uint(i%wordBits)) != 0
}

func (b *bitArray) clear() {
	for i := range b.words {
		b.words[i] = 0
	}
}

// onesCount returns the number of set bits, used by Cardinality estimators.
func (b *bitArray) onesCount() int {
	n := 0
	for _, w := range b.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// bytes packs the bit array into a little-endian byte slice, the form
// used by the shared serialization schema (§4.I).
func (b *bitArray) bytes() []byte {
	out := make([]byte, len(b.words)*8)
	for i, w := range b.words {
		for j := 0; j < 8; j++ {
			out[i*8+j] = byte(w >> (8 * j))
		}
	}
	return out
}

// bitArrayFromBytes reconstructs a bit array of nbits bits from its packed
// byte form. It fails with a FormatError if data is too short.
func bitArrayFromBytes(data []byte, nbits int) (*bitArray, error) {
	nwords := (nbits + wordBits - 1) / wordBits
	if len(data) < nwords*8 {
		return nil, formatErrorf(nil, "bit array payload too short: need %d bytes, got %d", nwords*8, len(data))
	}
	words := make([]uint64, nwords)
	for i := range words {
		var w uint64
		for j := 0; j < 8; j++ {
			w |= uint64(data[i*8+j]) << (8 * j)
		}
		words[i] = w
	}
	return &bitArray{words: words, nbits: nbits}, nil
}

func (b *bitArray) equal(other *bitArray) bool {
	if b.nbits != other.nbits {
		return false
	}
	for i := range b.words {
		if b.words[i] != other.words[i] {
			return false
		}
	}
	return true
}

func (b *bitArray) clone() *bitArray {
	words := make([]uint64, len(b.words))
	copy(words, b.words)
	return &bitArray{words: words, nbits: b.nbits}
}
