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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNibbleCountersIncrementDecrement(t *testing.T) {
	c := newNibbleCounters(5)
	require.Equal(t, byte(0), c.get(2))

	sat := c.increment(2)
	require.False(t, sat)
	require.Equal(t, byte(1), c.get(2))

	c.decrement(2)
	require.Equal(t, byte(0), c.get(2))
}

func TestNibbleCountersSaturate(t *testing.T) {
	c := newNibbleCounters(1)
	var sat bool
	for i := 0; i < nibbleMax; i++ {
		sat = c.increment(0)
	}
	require.True(t, sat)
	require.Equal(t, byte(nibbleMax), c.get(0))

	// Further increments are no-ops.
	sat = c.increment(0)
	require.True(t, sat)
	require.Equal(t, byte(nibbleMax), c.get(0))
}

func TestNibbleCountersDecrementAtZeroIsNoop(t *testing.T) {
	c := newNibbleCounters(1)
	c.decrement(0)
	require.Equal(t, byte(0), c.get(0))
}

func TestNibbleCountersOddEvenPacking(t *testing.T) {
	c := newNibbleCounters(4)
	c.increment(0)
	c.increment(1)
	c.increment(1)
	c.increment(3)
	require.Equal(t, byte(1), c.get(0))
	require.Equal(t, byte(2), c.get(1))
	require.Equal(t, byte(0), c.get(2))
	require.Equal(t, byte(1), c.get(3))
}

func TestNibbleCountersCloneIndependent(t *testing.T) {
	c := newNibbleCounters(3)
	c.increment(1)
	clone := c.clone()
	require.True(t, c.equal(clone))
	clone.increment(1)
	require.False(t, c.equal(clone))
}

func TestNibbleCountersUint16RoundTrip(t *testing.T) {
	c := newNibbleCounters(6)
	for i := 0; i < 6; i++ {
		for j := 0; j <= i; j++ {
			c.increment(i)
		}
	}
	vals := c.asUint16()
	restored := nibbleCountersFromUint16(vals)
	require.True(t, c.equal(restored))
}
