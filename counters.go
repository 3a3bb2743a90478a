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

// nibbleCounters is an array of 4-bit saturating counters, two per byte,
// the width mandated as a minimum by the Counting Bloom Filter design
// (§4.E). The packing mirrors ristretto's cmRow: the low nibble of byte
// n/2 holds counter n when n is even, the high nibble when n is odd.
//
// Counters saturate at their maximum value (15) rather than wrapping,
// since a wrapped counter would corrupt membership tests.
type nibbleCounters struct {
	data []byte
	n    int
}

const nibbleMax = 0x0f

func newNibbleCounters(n int) *nibbleCounters {
	if n < 1 {
		n = 1
	}
	return &nibbleCounters{data: make([]byte, (n+1)/2), n: n}
}

func (c *nibbleCounters) len() int { return c.n }

func (c *nibbleCounters) get(i int) byte {
	b := c.data[i/2]
	if i%2 == 0 {
		return b & nibbleMax
	}
	return b >> 4
}

// increment bumps counter i, saturating at nibbleMax. It reports whether
// the counter is at nibbleMax after the call, whether it reached it on
// this call or was already there, so callers can flag the event.
func (c *nibbleCounters) increment(i int) (saturated bool) {
	shift := uint((i % 2) * 4)
	idx := i / 2
	v := (c.data[idx] >> shift) & nibbleMax
	if v == nibbleMax {
		return true
	}
	v++
	c.data[idx] = (c.data[idx] &^ (nibbleMax << shift)) | (v << shift)
	return v == nibbleMax
}

// decrement lowers counter i by one; a counter that is already zero is
// left unchanged. A saturated counter (at nibbleMax) is decremented like
// any other, so once it has dropped increments its value stays below the
// true number of adds minus removes.
func (c *nibbleCounters) decrement(i int) {
	shift := uint((i % 2) * 4)
	idx := i / 2
	v := (c.data[idx] >> shift) & nibbleMax
	if v == 0 {
		return
	}
	v--
	c.data[idx] = (c.data[idx] &^ (nibbleMax << shift)) | (v << shift)
}

func (c *nibbleCounters) clone() *nibbleCounters {
	data := make([]byte, len(c.data))
	copy(data, c.data)
	return &nibbleCounters{data: data, n: c.n}
}

func (c *nibbleCounters) equal(other *nibbleCounters) bool {
	if c.n != other.n {
		return false
	}
	for i := range c.data {
		if c.data[i] != other.data[i] {
			return false
		}
	}
	return true
}

// asUint16 widens every counter to a uint16, the form used by the shared
// serialization schema so the wire format does not depend on the packing.
func (c *nibbleCounters) asUint16() []uint16 {
	out := make([]uint16, c.n)
	for i := range out {
		out[i] = uint16(c.get(i))
	}
	return out
}

func nibbleCountersFromUint16(vals []uint16) *nibbleCounters {
	c := newNibbleCounters(len(vals))
	for i, v := range vals {
		if v > nibbleMax {
			v = nibbleMax
		}
		shift := uint((i % 2) * 4)
		idx := i / 2
		c.data[idx] = (c.data[idx] &^ (nibbleMax << shift)) | (byte(v) << shift)
	}
	return c
}
