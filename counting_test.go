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

func TestCountingBloomFilterAddHasRemove(t *testing.T) {
	f := NewCountingBloomFilterSized(15, 4)

	f.Add("alice")
	f.Add("bob")
	require.True(t, f.Has("alice"))
	require.True(t, f.Has("bob"))
	require.False(t, f.Has("carole"))

	require.NoError(t, f.Remove("alice"))
	require.False(t, f.Has("alice"))
	require.True(t, f.Has("bob"))
}

func TestCountingBloomFilterRemoveUnknownFails(t *testing.T) {
	f := NewCountingBloomFilterSized(15, 4)
	f.Add("alice")

	err := f.Remove("carole")
	require.Error(t, err)
	var ue *UnknownElementError
	require.ErrorAs(t, err, &ue)
	// Must not have mutated alice's counters.
	require.True(t, f.Has("alice"))
}

func TestCountingBloomFilterRemoveIsExactInverseOfAdd(t *testing.T) {
	f := NewCountingBloomFilterSized(50, 4)
	f.Add("alice")
	before := f.counters.clone()

	f.Add("bob")
	require.NoError(t, f.Remove("bob"))
	require.True(t, f.counters.equal(before))
}

func TestCountingBloomFilterSaturation(t *testing.T) {
	f := NewCountingBloomFilterSized(4, 1)
	f.SetSeed(DefaultSeed)
	require.False(t, f.Saturated())
	for i := 0; i < CounterMax+5; i++ {
		f.Add("alice")
	}
	require.True(t, f.Saturated())
}

func TestCountingBloomFilterDoubleRemoveFails(t *testing.T) {
	f := NewCountingBloomFilterSized(50, 4)
	f.Add("alice")
	require.NoError(t, f.Remove("alice"))
	err := f.Remove("alice")
	require.Error(t, err)
}

func TestCountingBloomFilterEqualsAndClone(t *testing.T) {
	f := NewCountingBloomFilterSized(50, 4)
	f.Add("alice")
	clone := f.Clone()
	require.True(t, f.Equals(clone))
	clone.Add("bob")
	require.False(t, f.Equals(clone))
}
