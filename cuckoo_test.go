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
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCuckooFilterAddHasRemove(t *testing.T) {
	f, err := NewCuckooFilter(15, DefaultSlotsPerBucket, 3)
	require.NoError(t, err)

	require.NoError(t, f.Add("alice"))
	require.NoError(t, f.Add("bob"))
	require.True(t, f.Has("alice"))
	require.True(t, f.Has("bob"))
	require.Equal(t, 2, f.Count())

	require.NoError(t, f.Remove("alice"))
	require.False(t, f.Has("alice"))
	require.True(t, f.Has("bob"))
	require.Equal(t, 1, f.Count())
}

func TestCuckooFilterRemoveUnknownFails(t *testing.T) {
	f, err := NewCuckooFilter(15, DefaultSlotsPerBucket, 3)
	require.NoError(t, err)
	err = f.Remove("ghost")
	require.Error(t, err)
	var ue *UnknownElementError
	require.ErrorAs(t, err, &ue)
}

func TestCuckooFilterRejectsBadParameters(t *testing.T) {
	_, err := NewCuckooFilter(0, 4, 8)
	require.Error(t, err)
	_, err = NewCuckooFilter(10, 4, 0)
	require.Error(t, err)
	_, err = NewCuckooFilter(10, 4, 64)
	require.Error(t, err)
}

func TestCuckooFilterSlotsPerBucketClamped(t *testing.T) {
	f, err := NewCuckooFilter(10, 1, 8)
	require.NoError(t, err)
	require.Equal(t, 2, f.SlotsPerBucket())

	f, err = NewCuckooFilter(10, 100, 8)
	require.NoError(t, err)
	require.Equal(t, 8, f.SlotsPerBucket())
}

func TestCuckooFilterCapacityExceededRetainsVictim(t *testing.T) {
	f, err := NewCuckooFilter(2, 2, 3)
	require.NoError(t, err)
	f.SetMaxKicks(1)

	var lastErr error
	inserted := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		x := fmt.Sprintf("elem-%d", i)
		if e := f.Add(x); e != nil {
			lastErr = e
		}
		inserted = append(inserted, x)
	}
	require.Error(t, lastErr)
	var ce *CapacityExceededError
	require.ErrorAs(t, lastErr, &ce)

	// Every element the filter ever accepted should still be reachable,
	// either from a bucket or the victim cache, except for an element
	// whose displaced fingerprint was dropped because the victim cache
	// was already occupied.
	found := 0
	for _, x := range inserted {
		if f.Has(x) {
			found++
		}
	}
	require.Greater(t, found, 0)
}

func TestCuckooFilterAltBucketIsSymmetric(t *testing.T) {
	f, err := NewCuckooFilter(16, 4, 8)
	require.NoError(t, err)
	fp, i1 := f.fingerprintAndBucket([]byte("alice"))
	i2 := f.altBucket(i1, fp)
	require.Equal(t, i1, f.altBucket(i2, fp))
}

func TestCuckooFilterCloneIsIndependent(t *testing.T) {
	f, err := NewCuckooFilter(16, 4, 8)
	require.NoError(t, err)
	require.NoError(t, f.Add("alice"))
	clone := f.Clone()
	require.NoError(t, clone.Add("bob"))
	require.True(t, f.Has("alice"))
	require.False(t, f.Has("bob"))
	require.True(t, clone.Has("bob"))
}
