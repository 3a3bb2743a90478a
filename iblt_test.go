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

// fixed8 pads s to an 8-byte element, the length every test IBLT in this
// file is constructed with.
func fixed8(s string) []byte {
	out := make([]byte, 8)
	copy(out, s)
	return out
}

func TestIBLTAddHasDelete(t *testing.T) {
	tb, err := NewIBLT(50, 3, 8)
	require.NoError(t, err)

	alice := fixed8("alice")
	require.NoError(t, tb.Add(alice))

	m, err := tb.Has(alice)
	require.NoError(t, err)
	require.Equal(t, Present, m)

	m, err = tb.Has(fixed8("ghost"))
	require.NoError(t, err)
	require.Equal(t, Absent, m)

	require.NoError(t, tb.Delete(alice))
	m, err = tb.Has(alice)
	require.NoError(t, err)
	require.Equal(t, Absent, m)
}

func TestIBLTRejectsWrongElementLength(t *testing.T) {
	tb, err := NewIBLT(50, 3, 8)
	require.NoError(t, err)
	err = tb.Add([]byte("short"))
	require.Error(t, err)
	var pe *ParameterError
	require.ErrorAs(t, err, &pe)
}

func TestIBLTRejectsBadParameters(t *testing.T) {
	_, err := NewIBLT(0, 3, 8)
	require.Error(t, err)
	_, err = NewIBLT(50, 0, 8)
	require.Error(t, err)
	_, err = NewIBLT(50, 3, 0)
	require.Error(t, err)
	_, err = NewIBLT(2, 3, 8)
	require.Error(t, err)
}

func TestIBLTSubtractAndDecode(t *testing.T) {
	left, err := NewIBLT(50, 3, 8)
	require.NoError(t, err)
	right, err := NewIBLT(50, 3, 8)
	require.NoError(t, err)

	shared := fixed8("shared")
	onlyLeft := fixed8("alice")
	onlyRight := fixed8("bob")

	require.NoError(t, left.Add(shared))
	require.NoError(t, left.Add(onlyLeft))
	require.NoError(t, right.Add(shared))
	require.NoError(t, right.Add(onlyRight))

	diff, err := left.Subtract(right)
	require.NoError(t, err)

	result := diff.Decode()
	require.True(t, result.Complete)
	require.ElementsMatch(t, [][]byte{onlyLeft}, result.Additional)
	require.ElementsMatch(t, [][]byte{onlyRight}, result.Missing)
}

func TestIBLTSubtractRejectsIncompatibleShape(t *testing.T) {
	a, err := NewIBLT(50, 3, 8)
	require.NoError(t, err)
	b, err := NewIBLT(40, 3, 8)
	require.NoError(t, err)
	_, err = a.Subtract(b)
	require.Error(t, err)
	var se *IncompatibleShapeError
	require.ErrorAs(t, err, &se)
}

func TestIBLTListEntries(t *testing.T) {
	tb, err := NewIBLT(50, 3, 8)
	require.NoError(t, err)
	want := [][]byte{fixed8("alice"), fixed8("bob"), fixed8("carole")}
	for _, e := range want {
		require.NoError(t, tb.Add(e))
	}
	entries, complete := tb.ListEntries()
	require.True(t, complete)
	require.ElementsMatch(t, want, entries)
}

func TestIBLTDecodeIncompleteWhenOverloaded(t *testing.T) {
	left, err := NewIBLT(10, 3, 8)
	require.NoError(t, err)
	right, err := NewIBLT(10, 3, 8)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		require.NoError(t, left.Add(fixed8(fmt.Sprintf("l%d", i))))
	}
	diff, err := left.Subtract(right)
	require.NoError(t, err)
	result := diff.Decode()
	require.False(t, result.Complete)
}

func TestIBLTCloneAndEquals(t *testing.T) {
	tb, err := NewIBLT(50, 3, 8)
	require.NoError(t, err)
	require.NoError(t, tb.Add(fixed8("alice")))

	clone := tb.Clone()
	require.True(t, tb.Equals(clone))

	require.NoError(t, clone.Add(fixed8("bob")))
	require.False(t, tb.Equals(clone))
}
