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

import "fmt"

// ParameterError reports a construction or sizing argument that is out of
// its valid range: a non-positive capacity, an error rate outside (0,1),
// a hash count exceeding the index range it is drawn from, or a Cuckoo
// fingerprint width that does not fit the hash width.
//
// ParameterError aborts the call that produced it; no state is mutated.
type ParameterError struct {
	Msg string
}

func (e *ParameterError) Error() string {
	return "probds: invalid parameter: " + e.Msg
}

func paramErrorf(format string, args ...interface{}) error {
	return &ParameterError{Msg: fmt.Sprintf(format, args...)}
}

// IncompatibleShapeError reports that two structures being merged,
// subtracted, or compared do not share the dimensions (and, where it
// matters, the seed) required for the operation to be meaningful.
type IncompatibleShapeError struct {
	Msg string
}

func (e *IncompatibleShapeError) Error() string {
	return "probds: incompatible shape: " + e.Msg
}

func shapeErrorf(format string, args ...interface{}) error {
	return &IncompatibleShapeError{Msg: fmt.Sprintf(format, args...)}
}

// CapacityExceededError reports that a Cuckoo filter insertion failed after
// exhausting its eviction budget (MaxKicks). The filter is left in a valid
// state: the new element's fingerprint is stored, and the fingerprint
// displaced last is held in the victim cache, or dropped if that slot is
// already occupied.
type CapacityExceededError struct {
	Msg string
}

func (e *CapacityExceededError) Error() string {
	return "probds: capacity exceeded: " + e.Msg
}

func capacityErrorf(format string, args ...interface{}) error {
	return &CapacityExceededError{Msg: fmt.Sprintf(format, args...)}
}

// UnknownElementError reports that Remove was called for an element whose
// counters or fingerprints are not all present. The call mutates nothing.
type UnknownElementError struct {
	Msg string
}

func (e *UnknownElementError) Error() string {
	return "probds: unknown element: " + e.Msg
}

func unknownErrorf(format string, args ...interface{}) error {
	return &UnknownElementError{Msg: fmt.Sprintf(format, args...)}
}

// FormatError reports that a Decode call received a malformed payload: an
// unrecognized type tag, a missing field, or a field whose size does not
// match the structural sizes in the same payload.
type FormatError struct {
	Msg   string
	Cause error
}

func (e *FormatError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("probds: malformed payload: %s: %v", e.Msg, e.Cause)
	}
	return "probds: malformed payload: " + e.Msg
}

func (e *FormatError) Unwrap() error { return e.Cause }

func formatErrorf(cause error, format string, args ...interface{}) error {
	return &FormatError{Msg: fmt.Sprintf(format, args...), Cause: cause}
}
