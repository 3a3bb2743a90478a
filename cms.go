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

// CountMinSketch is a sub-linear frequency table for a stream of keys: a
// d*w matrix of counters, one row per hash function. The point estimate
// for a key is the minimum counter it hashes to across all rows, which is
// always an upper bound on its true count.
type CountMinSketch struct {
	rows [][]int64
	w, d int
	n    int64 // sum of all applied weights
	seed uint64
}

// NewCountMinSketch sizes a CountMinSketch for the given relative error
// eps and failure probability delta, using w = ceil(e/eps) columns and
// d = ceil(ln(1/delta)) rows.
//
// It fails with a ParameterError if eps or delta is not in (0,1).
func NewCountMinSketch(eps, delta float64) (*CountMinSketch, error) {
	if eps <= 0 || eps >= 1 {
		return nil, paramErrorf("eps must be in (0,1), got %v", eps)
	}
	if delta <= 0 || delta >= 1 {
		return nil, paramErrorf("delta must be in (0,1), got %v", delta)
	}

	w := int(math.Ceil(math.E / eps))
	d := int(math.Ceil(math.Log(1 / delta)))
	return NewCountMinSketchSized(w, d), nil
}

// NewCountMinSketchSized constructs a CountMinSketch directly from a
// width and depth, both clamped to at least 1.
func NewCountMinSketchSized(w, d int) *CountMinSketch {
	if w < 1 {
		w = 1
	}
	if d < 1 {
		d = 1
	}
	rows := make([][]int64, d)
	for i := range rows {
		rows[i] = make([]int64, w)
	}
	return &CountMinSketch{rows: rows, w: w, d: d, seed: DefaultSeed}
}

// rowIndices returns the column each row hashes data to. Unlike
// distinctIndices, columns are allowed to collide across rows: that is
// the normal operating condition of a Count-Min sketch, not an error.
func (s *CountMinSketch) rowIndices(data []byte) []int {
	h1, h2 := hashTwice(data, s.seed)
	idx := make([]int, s.d)
	for i := range idx {
		idx[i] = int((h1 + uint64(i)*h2) % uint64(s.w))
	}
	return idx
}

// Update adds weight c to x's counters, one per row, and to the running
// total N.
//
// Negative c is accepted but invalidates the true-count <= estimate
// guarantee; use it only when you have already accounted for that
// trade-off (e.g. undoing a prior Update of the same x exactly).
func (s *CountMinSketch) Update(x interface{}, c int64) {
	for i, col := range s.rowIndices(elementBytes(x)) {
		s.rows[i][col] += c
	}
	s.n += c
}

// Count returns the point estimate for x: the minimum counter across all
// rows that x hashes to.
func (s *CountMinSketch) Count(x interface{}) int64 {
	min := int64(math.MaxInt64)
	for i, col := range s.rowIndices(elementBytes(x)) {
		if v := s.rows[i][col]; v < min {
			min = v
		}
	}
	return min
}

// N returns the sum of all weights applied via Update so far.
func (s *CountMinSketch) N() int64 { return s.n }

// Merge adds other's counters into s element-wise, combining two
// independent sketches of the same shape into one sketch of the union of
// their streams.
//
// It fails with an IncompatibleShapeError, leaving s unchanged, if s and
// other do not share (w, d, seed).
func (s *CountMinSketch) Merge(other *CountMinSketch) error {
	if s.w != other.w || s.d != other.d || s.seed != other.seed {
		return shapeErrorf("count-min sketches must share width, depth, and seed to merge")
	}
	for i := range s.rows {
		for j := range s.rows[i] {
			s.rows[i][j] += other.rows[i][j]
		}
	}
	s.n += other.n
	return nil
}

// Clone returns a deep copy of s.
func (s *CountMinSketch) Clone() *CountMinSketch {
	rows := make([][]int64, len(s.rows))
	for i, row := range s.rows {
		nr := make([]int64, len(row))
		copy(nr, row)
		rows[i] = nr
	}
	return &CountMinSketch{rows: rows, w: s.w, d: s.d, n: s.n, seed: s.seed}
}

// Seed returns s's current hash seed.
func (s *CountMinSketch) Seed() uint64 { return s.seed }

// SetSeed changes s's hash seed.
func (s *CountMinSketch) SetSeed(seed uint64) { s.seed = seed }

// Width and Depth return the sketch's column and row counts.
func (s *CountMinSketch) Width() int { return s.w }
func (s *CountMinSketch) Depth() int { return s.d }

// Stats reports s's memory footprint.
func (s *CountMinSketch) Stats() Stats {
	nbytes := s.w * s.d * 8
	return Stats{
		Bits:         nbytes * 8,
		Bytes:        nbytes,
		Inserted:     int(s.n),
		HumanizedMem: humanize.Bytes(uint64(nbytes)),
	}
}
