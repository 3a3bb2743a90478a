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

func TestBitArraySetGetClear(t *testing.T) {
	b := newBitArray(130) // spans more than two words
	require.False(t, b.get(0))
	require.False(t, b.get(129))

	b.set(0)
	b.set(65)
	b.set(129)
	require.True(t, b.get(0))
	require.True(t, b.get(65))
	require.True(t, b.get(129))
	require.Equal(t, 3, b.onesCount())

	b.clear()
	require.Equal(t, 0, b.onesCount())
}

func TestBitArrayRoundTripBytes(t *testing.T) {
	b := newBitArray(100)
	for i := 0; i < 100; i += 7 {
		b.set(i)
	}
	data := b.bytes()

	restored, err := bitArrayFromBytes(data, 100)
	require.NoError(t, err)
	require.True(t, b.equal(restored))
}

func TestBitArrayFromBytesTooShort(t *testing.T) {
	_, err := bitArrayFromBytes([]byte{0, 0}, 100)
	require.Error(t, err)
	var fe *FormatError
	require.ErrorAs(t, err, &fe)
}

func TestBitArrayClone(t *testing.T) {
	b := newBitArray(64)
	b.set(3)
	c := b.clone()
	require.True(t, b.equal(c))
	c.set(10)
	require.False(t, b.equal(c))
}
