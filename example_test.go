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

package probds_test

import (
	"fmt"

	"github.com/probds/probds"
)

func ExampleBloomFilter() {
	f, err := probds.NewBloomFilter(1000, 0.01)
	if err != nil {
		panic(err)
	}
	f.Add("alice")
	fmt.Println(f.Has("alice"))
	fmt.Println(f.Has("ghost"))
	// Output:
	// true
	// false
}

func ExampleCountMinSketch() {
	s, err := probds.NewCountMinSketch(0.001, 0.01)
	if err != nil {
		panic(err)
	}
	s.Update("alice", 5)
	s.Update("alice", 2)
	fmt.Println(s.Count("alice") >= 7)
	// Output:
	// true
}

func ExampleIBLT() {
	left, _ := probds.NewIBLT(50, 3, 8)
	right, _ := probds.NewIBLT(50, 3, 8)

	pad := func(s string) []byte {
		b := make([]byte, 8)
		copy(b, s)
		return b
	}

	left.Add(pad("alice"))
	left.Add(pad("shared"))
	right.Add(pad("shared"))
	right.Add(pad("bob"))

	diff, _ := left.Subtract(right)
	result := diff.Decode()
	fmt.Println(result.Complete)
	fmt.Println(len(result.Additional), len(result.Missing))
	// Output:
	// true
	// 1 1
}
