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
	"bytes"

	"github.com/cespare/xxhash/v2"
	"github.com/dustin/go-humanize"
)

// Membership is the tri-state result of an IBLT membership query: unlike
// a Bloom filter, an IBLT can also definitively confirm presence, not
// just rule it out.
type Membership int

const (
	Absent Membership = iota
	Present
	Maybe
)

func (m Membership) String() string {
	switch m {
	case Absent:
		return "absent"
	case Present:
		return "present"
	default:
		return "maybe"
	}
}

// ibltCell is one cell of an IBLT: a signed count of adds minus deletes
// that targeted it, and two XOR accumulators that are only meaningful
// once the cell is pure.
type ibltCell struct {
	count   int32
	idSum   []byte
	hashSum uint32
}

// IBLT is an invertible Bloom lookup table: a structure supporting add and
// delete of fixed-length byte strings, such that two IBLTs of the same
// shape can be subtracted and the result decoded into the symmetric
// difference of the element sets that produced them.
type IBLT struct {
	cells []ibltCell
	m, k  int
	l     int // required byte length of every element
	seed  uint64
}

// NewIBLT constructs an IBLT with m cells, k cells hashed per element, and
// a fixed element byte length l. The recommended k is >= 3, and m should
// be at least 1.5 times the expected symmetric difference size.
//
// It fails with a ParameterError if m < 1, k < 1, l < 1, or k > m (k
// distinct cell indices cannot be drawn from fewer than k cells).
func NewIBLT(m, k, l int) (*IBLT, error) {
	if m < 1 {
		return nil, paramErrorf("cell count must be >= 1, got %d", m)
	}
	if k < 1 {
		return nil, paramErrorf("hash count must be >= 1, got %d", k)
	}
	if l < 1 {
		return nil, paramErrorf("element length must be >= 1, got %d", l)
	}
	if k > m {
		return nil, paramErrorf("cannot draw %d distinct cells from %d", k, m)
	}

	cells := make([]ibltCell, m)
	for i := range cells {
		cells[i].idSum = make([]byte, l)
	}
	return &IBLT{cells: cells, m: m, k: k, l: l, seed: DefaultSeed}, nil
}

// checkHash is the second, independent hash used to verify a pure cell's
// idSum against its hashSum. It is deliberately a different algorithm
// (xxhash) from the farm-based hashTwice that picks cell indices, so a
// verification failure can't be masked by correlated hash behavior.
func checkHash(x []byte) uint32 {
	return uint32(xxhash.Sum64(x))
}

func (t *IBLT) indices(x []byte) []int {
	idx, err := distinctIndices(x, t.m, t.k, t.seed)
	if err != nil {
		panic(err)
	}
	return idx
}

func xorInto(dst, src []byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}

// Add inserts element x into t. It fails with a ParameterError, mutating
// nothing, if len(x) does not equal the length t was constructed with.
func (t *IBLT) Add(x []byte) error {
	return t.apply(x, +1)
}

// Delete removes element x from t. Deletion is add's exact self-inverse:
// Add(x) followed by Delete(x) returns every touched cell to its prior
// values.
func (t *IBLT) Delete(x []byte) error {
	return t.apply(x, -1)
}

func (t *IBLT) apply(x []byte, sign int32) error {
	if len(x) != t.l {
		return paramErrorf("element length must be %d, got %d", t.l, len(x))
	}
	ch := checkHash(x)
	for _, idx := range t.indices(x) {
		c := &t.cells[idx]
		c.count += sign
		xorInto(c.idSum, x)
		c.hashSum ^= ch
	}
	return nil
}

// Has reports whether x is definitely present, definitely absent, or
// possibly present (Maybe) in t. It returns Absent if all of x's cells are
// empty, Present if one of them is a pure cell (|count| = 1, verified
// hashSum) holding x, Absent if any of them has a zero count, and Maybe
// otherwise. It fails with a ParameterError if len(x) does not match t's
// element length.
func (t *IBLT) Has(x []byte) (Membership, error) {
	if len(x) != t.l {
		return Absent, paramErrorf("element length must be %d, got %d", t.l, len(x))
	}

	allZero := true
	foundPure := false
	anyZeroCount := false
	for _, idx := range t.indices(x) {
		c := &t.cells[idx]
		if c.count != 0 || c.hashSum != 0 || !isZero(c.idSum) {
			allZero = false
		}
		if c.count == 0 {
			anyZeroCount = true
		}
		if (c.count == 1 || c.count == -1) && bytes.Equal(c.idSum, x) && checkHash(c.idSum) == c.hashSum {
			foundPure = true
		}
	}
	switch {
	case allZero:
		return Absent, nil
	case foundPure:
		return Present, nil
	case anyZeroCount:
		return Absent, nil
	default:
		return Maybe, nil
	}
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// Subtract returns a new IBLT whose cells are the element-wise difference
// t - other: count subtracts, idSum and hashSum XOR. Decoding the result
// recovers the symmetric difference between the sets t and other were
// built from.
//
// It fails with an IncompatibleShapeError if t and other do not share
// (m, k, l, seed).
func (t *IBLT) Subtract(other *IBLT) (*IBLT, error) {
	if t.m != other.m || t.k != other.k || t.l != other.l || t.seed != other.seed {
		return nil, shapeErrorf("IBLTs must share cell count, hash count, element length, and seed to subtract")
	}
	out, _ := NewIBLT(t.m, t.k, t.l)
	out.seed = t.seed
	for i := range out.cells {
		out.cells[i].count = t.cells[i].count - other.cells[i].count
		out.cells[i].hashSum = t.cells[i].hashSum ^ other.cells[i].hashSum
		copy(out.cells[i].idSum, t.cells[i].idSum)
		xorInto(out.cells[i].idSum, other.cells[i].idSum)
	}
	return out, nil
}

// findPureCell scans for a cell with |count| = 1 whose idSum verifies
// against its hashSum, returning the recovered element and the sign of
// its count (+1 for an add, -1 for a delete).
func (t *IBLT) findPureCell() (elem []byte, sign int32, ok bool) {
	for i := range t.cells {
		c := &t.cells[i]
		if (c.count == 1 || c.count == -1) && checkHash(c.idSum) == c.hashSum && !isZero(c.idSum) {
			e := make([]byte, len(c.idSum))
			copy(e, c.idSum)
			return e, c.count, true
		}
	}
	return nil, 0, false
}

// peelOut removes element e's contribution from every cell it hashes to,
// decrementing count if it was an add (sign +1) or incrementing if it was
// a delete (sign -1).
func (t *IBLT) peelOut(e []byte, sign int32) {
	ch := checkHash(e)
	for _, idx := range t.indices(e) {
		c := &t.cells[idx]
		xorInto(c.idSum, e)
		c.hashSum ^= ch
		c.count -= sign
	}
}

func (t *IBLT) isFullyZero() bool {
	for i := range t.cells {
		c := &t.cells[i]
		if c.count != 0 || c.hashSum != 0 || !isZero(c.idSum) {
			return false
		}
	}
	return true
}

// DecodeResult is the outcome of peeling a subtracted IBLT: the elements
// only the left-hand side held (Additional), the elements only the
// right-hand side held (Missing), and whether every cell peeled down to
// zero (Complete). An incomplete decode still returns whatever was
// peeled before the remaining cells stopped containing any pure one.
type DecodeResult struct {
	Additional [][]byte
	Missing    [][]byte
	Complete   bool
}

// Decode peels a copy of t (normally the result of Subtract) until no
// cell is pure, recovering the symmetric difference between the two sets
// that produced t. Decode never mutates t itself.
func (t *IBLT) Decode() DecodeResult {
	work := t.Clone()
	var result DecodeResult
	for {
		e, sign, ok := work.findPureCell()
		if !ok {
			break
		}
		if sign > 0 {
			result.Additional = append(result.Additional, e)
		} else {
			result.Missing = append(result.Missing, e)
		}
		work.peelOut(e, sign)
	}
	result.Complete = work.isFullyZero()
	return result
}

// ListEntries peels a copy of t on its own (not a subtraction) to recover
// the elements currently credited to it. It reports false if residual
// non-zero cells remain after peeling stops, in which case the returned
// slice is the best-effort partial result.
func (t *IBLT) ListEntries() ([][]byte, bool) {
	work := t.Clone()
	var entries [][]byte
	for {
		e, sign, ok := work.findPureCell()
		if !ok {
			break
		}
		entries = append(entries, e)
		work.peelOut(e, sign)
	}
	return entries, work.isFullyZero()
}

// Clone returns a deep copy of t.
func (t *IBLT) Clone() *IBLT {
	cells := make([]ibltCell, len(t.cells))
	for i, c := range t.cells {
		idSum := make([]byte, len(c.idSum))
		copy(idSum, c.idSum)
		cells[i] = ibltCell{count: c.count, idSum: idSum, hashSum: c.hashSum}
	}
	return &IBLT{cells: cells, m: t.m, k: t.k, l: t.l, seed: t.seed}
}

// Equals reports whether t and other have identical cells, shape, and
// seed.
func (t *IBLT) Equals(other *IBLT) bool {
	if other == nil || t.m != other.m || t.k != other.k || t.l != other.l || t.seed != other.seed {
		return false
	}
	for i := range t.cells {
		a, b := t.cells[i], other.cells[i]
		if a.count != b.count || a.hashSum != b.hashSum || !bytes.Equal(a.idSum, b.idSum) {
			return false
		}
	}
	return true
}

// Seed returns t's current hash seed.
func (t *IBLT) Seed() uint64 { return t.seed }

// SetSeed changes t's hash seed.
func (t *IBLT) SetSeed(seed uint64) { t.seed = seed }

// M, K, and L return t's shape: cell count, hashes per element, and the
// required element byte length.
func (t *IBLT) M() int { return t.m }
func (t *IBLT) K() int { return t.k }
func (t *IBLT) L() int { return t.l }

// Stats reports t's memory footprint.
func (t *IBLT) Stats() Stats {
	nbytes := t.m * (4 + t.l + 4)
	return Stats{
		Bits:         nbytes * 8,
		Bytes:        nbytes,
		HumanizedMem: humanize.Bytes(uint64(nbytes)),
	}
}
