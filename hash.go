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
	"strconv"

	"github.com/dgryski/go-farm"
)

// hashTwice derives a pair of 64-bit hashes of data under seed. h1 is the
// hash under seed itself; h2 is the same family of hash under seed+1, a
// cheap perturbation that stands in for an independent second hash.
//
// Both values feed distinctIndices, which expands them by double hashing
// into as many indices as a structure needs, instead of hashing the
// element k independent times.
func hashTwice(data []byte, seed uint64) (h1, h2 uint64) {
	return farm.Hash64WithSeed(data, seed), farm.Hash64WithSeed(data, seed+1)
}

// distinctIndices returns k distinct integers in [0, rangeN), derived from
// data and seed by enhanced double hashing: index i is
// (h1 + i*h2 + tweak(i)) mod rangeN, where tweak only kicks in after a
// collision with an earlier index, breaking it deterministically without
// a fresh hash pass.
//
// It fails with a ParameterError if k > rangeN, since k distinct indices
// cannot be drawn from a smaller range.
func distinctIndices(data []byte, rangeN, k int, seed uint64) ([]int, error) {
	if rangeN <= 0 {
		return nil, paramErrorf("range must be positive, got %d", rangeN)
	}
	if k <= 0 {
		return nil, paramErrorf("k must be positive, got %d", k)
	}
	if k > rangeN {
		return nil, paramErrorf("cannot draw %d distinct indices from a range of %d", k, rangeN)
	}

	h1, h2 := hashTwice(data, seed)
	n := uint64(rangeN)

	seen := make(map[int]struct{}, k)
	out := make([]int, 0, k)
	for i := 0; len(out) < k; i++ {
		idx := int((h1 + uint64(i)*h2) % n)
		if _, dup := seen[idx]; dup {
			// Collision: break it by stepping in multiples of a
			// deterministic tweak (i^2+1) instead of re-hashing the element.
			tweak := uint64(i)*uint64(i) + 1
			found := false
			for t := uint64(1); t <= n; t++ {
				candidate := int((h1 + uint64(i)*h2 + tweak*t) % n)
				if _, dup := seen[candidate]; !dup {
					idx = candidate
					found = true
					break
				}
			}
			if !found {
				// Exhaustive fallback: guaranteed to terminate since
				// len(seen) < k <= rangeN, so a free slot exists.
				for c := 0; c < rangeN; c++ {
					if _, dup := seen[c]; !dup {
						idx = c
						found = true
						break
					}
				}
			}
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	return out, nil
}

// elementBytes converts a text or numeric element to its canonical byte
// representation: UTF-8 for strings, canonical decimal text (then UTF-8)
// for integers, and the bytes themselves for []byte. Any other type is a
// caller error.
func elementBytes(x interface{}) []byte {
	switch v := x.(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	case int:
		return []byte(strconv.Itoa(v))
	case int64:
		return []byte(strconv.FormatInt(v, 10))
	case uint64:
		return []byte(strconv.FormatUint(v, 10))
	default:
		panic("probds: unsupported element type, pass []byte or use a string/integer")
	}
}
