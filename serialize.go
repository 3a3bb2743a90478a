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
	"encoding/json"

	"github.com/pkg/errors"
)

// The six type tags a serialized record may carry (§6).
const (
	typeBloom       = "BloomFilter"
	typePartitioned = "PartitionedBloomFilter"
	typeCounting    = "CountingBloomFilter"
	typeCuckoo      = "CuckooFilter"
	typeCMS         = "CountMinSketch"
	typeIBLT        = "InvertibleBloomFilter"
)

// record is the self-describing envelope shared by every structure's
// wire form: a type tag, the seed, and a type-specific payload. The exact
// transport (here, JSON) is a host decision; the envelope's field names
// and meanings are fixed by the package.
type record struct {
	Type    string          `json:"type"`
	Seed    uint64          `json:"seed"`
	Payload json.RawMessage `json:"payload"`
}

func marshalRecord(typeTag string, seed uint64, payload interface{}) ([]byte, error) {
	p, err := json.Marshal(payload)
	if err != nil {
		return nil, formatErrorf(errors.Wrap(err, "marshal payload"), "could not encode %s payload", typeTag)
	}
	data, err := json.Marshal(record{Type: typeTag, Seed: seed, Payload: p})
	if err != nil {
		return nil, formatErrorf(errors.Wrap(err, "marshal record"), "could not encode %s record", typeTag)
	}
	return data, nil
}

// unmarshalRecord decodes the envelope and checks its type tag, returning
// the seed and the still-encoded payload for the caller to unmarshal into
// its type-specific struct.
func unmarshalRecord(data []byte, wantType string) (seed uint64, payload json.RawMessage, err error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return 0, nil, formatErrorf(errors.Wrap(err, "unmarshal record"), "malformed serialized record")
	}
	if r.Type != wantType {
		return 0, nil, formatErrorf(nil, "expected type %q, got %q", wantType, r.Type)
	}
	if r.Payload == nil {
		return 0, nil, formatErrorf(nil, "record is missing its payload")
	}
	return r.Seed, r.Payload, nil
}

// --- BloomFilter ---

type bloomPayload struct {
	M    int    `json:"m"`
	K    int    `json:"k"`
	N    int    `json:"n"`
	Bits []byte `json:"bits"`
}

// Encode serializes f into the shared self-describing record form.
func (f *BloomFilter) Encode() ([]byte, error) {
	return marshalRecord(typeBloom, f.seed, bloomPayload{
		M: f.bits.len(), K: f.k, N: f.n, Bits: f.bits.bytes(),
	})
}

// DecodeBloomFilter reconstructs a BloomFilter from its encoded form. It
// fails with a FormatError if data is not a valid BloomFilter record.
func DecodeBloomFilter(data []byte) (*BloomFilter, error) {
	seed, raw, err := unmarshalRecord(data, typeBloom)
	if err != nil {
		return nil, err
	}
	var p bloomPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, formatErrorf(errors.Wrap(err, "unmarshal bloom payload"), "malformed BloomFilter payload")
	}
	bits, err := bitArrayFromBytes(p.Bits, p.M)
	if err != nil {
		return nil, err
	}
	return &BloomFilter{bits: bits, k: p.K, n: p.N, seed: seed}, nil
}

// --- PartitionedBloomFilter ---

type partitionedPayload struct {
	SliceSize int      `json:"sliceSize"`
	K         int      `json:"k"`
	N         int      `json:"n"`
	Slices    [][]byte `json:"slices"`
}

func (f *PartitionedBloomFilter) Encode() ([]byte, error) {
	slices := make([][]byte, len(f.slices))
	for i, s := range f.slices {
		slices[i] = s.bytes()
	}
	return marshalRecord(typePartitioned, f.seed, partitionedPayload{
		SliceSize: f.sliceSize, K: f.k, N: f.n, Slices: slices,
	})
}

func DecodePartitionedBloomFilter(data []byte) (*PartitionedBloomFilter, error) {
	seed, raw, err := unmarshalRecord(data, typePartitioned)
	if err != nil {
		return nil, err
	}
	var p partitionedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, formatErrorf(errors.Wrap(err, "unmarshal partitioned payload"), "malformed PartitionedBloomFilter payload")
	}
	if len(p.Slices) != p.K {
		return nil, formatErrorf(nil, "expected %d slices, got %d", p.K, len(p.Slices))
	}
	slices := make([]*bitArray, p.K)
	for i, raw := range p.Slices {
		b, err := bitArrayFromBytes(raw, p.SliceSize)
		if err != nil {
			return nil, err
		}
		slices[i] = b
	}
	return &PartitionedBloomFilter{
		slices: slices, sliceSize: p.SliceSize, k: p.K, n: p.N, seed: seed,
	}, nil
}

// --- CountingBloomFilter ---

type countingPayload struct {
	M          int      `json:"m"`
	K          int      `json:"k"`
	N          int      `json:"n"`
	CounterMax int      `json:"counterMax"`
	Counters   []uint16 `json:"counters"`
	Saturated  bool     `json:"saturated"`
}

func (f *CountingBloomFilter) Encode() ([]byte, error) {
	return marshalRecord(typeCounting, f.seed, countingPayload{
		M: f.counters.len(), K: f.k, N: f.n, CounterMax: CounterMax,
		Counters: f.counters.asUint16(), Saturated: f.saturated,
	})
}

func DecodeCountingBloomFilter(data []byte) (*CountingBloomFilter, error) {
	seed, raw, err := unmarshalRecord(data, typeCounting)
	if err != nil {
		return nil, err
	}
	var p countingPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, formatErrorf(errors.Wrap(err, "unmarshal counting payload"), "malformed CountingBloomFilter payload")
	}
	if len(p.Counters) != p.M {
		return nil, formatErrorf(nil, "expected %d counters, got %d", p.M, len(p.Counters))
	}
	return &CountingBloomFilter{
		counters: nibbleCountersFromUint16(p.Counters), k: p.K, n: p.N, seed: seed, saturated: p.Saturated,
	}, nil
}

// --- CuckooFilter ---

type cuckooPayload struct {
	B        int            `json:"b"`
	S        int            `json:"s"`
	F        int            `json:"f"`
	MaxKicks int            `json:"maxKicks"`
	N        int            `json:"n"`
	Buckets  [][]uint64     `json:"buckets"`
	Victim   *victimPayload `json:"victim,omitempty"`
}

type victimPayload struct {
	FP     uint64 `json:"fp"`
	Bucket int    `json:"bucket"`
}

func (f *CuckooFilter) Encode() ([]byte, error) {
	buckets := make([][]uint64, len(f.buckets))
	for i, b := range f.buckets {
		bucket := make([]uint64, len(b))
		copy(bucket, b)
		buckets[i] = bucket
	}
	var victim *victimPayload
	if f.victim.present {
		victim = &victimPayload{FP: f.victim.fp, Bucket: f.victim.bucket}
	}
	return marshalRecord(typeCuckoo, f.seed, cuckooPayload{
		B: f.b, S: f.s, F: f.f, MaxKicks: f.maxKicks, N: f.n, Buckets: buckets, Victim: victim,
	})
}

func DecodeCuckooFilter(data []byte) (*CuckooFilter, error) {
	seed, raw, err := unmarshalRecord(data, typeCuckoo)
	if err != nil {
		return nil, err
	}
	var p cuckooPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, formatErrorf(errors.Wrap(err, "unmarshal cuckoo payload"), "malformed CuckooFilter payload")
	}
	if len(p.Buckets) != p.B {
		return nil, formatErrorf(nil, "expected %d buckets, got %d", p.B, len(p.Buckets))
	}
	buckets := make([]cuckooBucket, p.B)
	for i, b := range p.Buckets {
		if len(b) != p.S {
			return nil, formatErrorf(nil, "bucket %d: expected %d slots, got %d", i, p.S, len(b))
		}
		bucket := make(cuckooBucket, p.S)
		copy(bucket, b)
		buckets[i] = bucket
	}
	f := &CuckooFilter{
		buckets: buckets, b: p.B, s: p.S, f: p.F, maxKicks: p.MaxKicks, n: p.N, seed: seed,
	}
	if p.Victim != nil {
		f.victim = cuckooVictim{fp: p.Victim.FP, bucket: p.Victim.Bucket, present: true}
	}
	return f, nil
}

// --- CountMinSketch ---

type cmsPayload struct {
	W      int       `json:"w"`
	D      int       `json:"d"`
	N      int64     `json:"n"`
	Matrix [][]int64 `json:"matrix"`
}

func (s *CountMinSketch) Encode() ([]byte, error) {
	matrix := make([][]int64, len(s.rows))
	for i, row := range s.rows {
		r := make([]int64, len(row))
		copy(r, row)
		matrix[i] = r
	}
	return marshalRecord(typeCMS, s.seed, cmsPayload{W: s.w, D: s.d, N: s.n, Matrix: matrix})
}

func DecodeCountMinSketch(data []byte) (*CountMinSketch, error) {
	seed, raw, err := unmarshalRecord(data, typeCMS)
	if err != nil {
		return nil, err
	}
	var p cmsPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, formatErrorf(errors.Wrap(err, "unmarshal count-min payload"), "malformed CountMinSketch payload")
	}
	if len(p.Matrix) != p.D {
		return nil, formatErrorf(nil, "expected %d rows, got %d", p.D, len(p.Matrix))
	}
	for i, row := range p.Matrix {
		if len(row) != p.W {
			return nil, formatErrorf(nil, "row %d: expected %d columns, got %d", i, p.W, len(row))
		}
	}
	return &CountMinSketch{rows: p.Matrix, w: p.W, d: p.D, n: p.N, seed: seed}, nil
}

// --- IBLT ---

type ibltPayload struct {
	M        int      `json:"m"`
	K        int      `json:"k"`
	L        int      `json:"l"`
	Counts   []int32  `json:"counts"`
	IDSums   [][]byte `json:"idSums"`
	HashSums []uint32 `json:"hashSums"`
}

func (t *IBLT) Encode() ([]byte, error) {
	counts := make([]int32, len(t.cells))
	idSums := make([][]byte, len(t.cells))
	hashSums := make([]uint32, len(t.cells))
	for i, c := range t.cells {
		counts[i] = c.count
		idSum := make([]byte, len(c.idSum))
		copy(idSum, c.idSum)
		idSums[i] = idSum
		hashSums[i] = c.hashSum
	}
	return marshalRecord(typeIBLT, t.seed, ibltPayload{
		M: t.m, K: t.k, L: t.l, Counts: counts, IDSums: idSums, HashSums: hashSums,
	})
}

func DecodeIBLT(data []byte) (*IBLT, error) {
	seed, raw, err := unmarshalRecord(data, typeIBLT)
	if err != nil {
		return nil, err
	}
	var p ibltPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, formatErrorf(errors.Wrap(err, "unmarshal iblt payload"), "malformed InvertibleBloomFilter payload")
	}
	if len(p.Counts) != p.M || len(p.IDSums) != p.M || len(p.HashSums) != p.M {
		return nil, formatErrorf(nil, "expected %d cells, got counts=%d idSums=%d hashSums=%d",
			p.M, len(p.Counts), len(p.IDSums), len(p.HashSums))
	}
	cells := make([]ibltCell, p.M)
	for i := range cells {
		if len(p.IDSums[i]) != p.L {
			return nil, formatErrorf(nil, "cell %d: expected idSum of length %d, got %d", i, p.L, len(p.IDSums[i]))
		}
		idSum := make([]byte, p.L)
		copy(idSum, p.IDSums[i])
		cells[i] = ibltCell{count: p.Counts[i], idSum: idSum, hashSum: p.HashSums[i]}
	}
	return &IBLT{cells: cells, m: p.M, k: p.K, l: p.L, seed: seed}, nil
}

// ExportJSON is a thin forwarding helper for hosts that just want a JSON
// blob from any structure in this package without naming its concrete
// type.
func ExportJSON(v interface{ Encode() ([]byte, error) }) ([]byte, error) {
	return v.Encode()
}

// ImportJSON is ExportJSON's counterpart: it reads data's type tag and
// dispatches to the matching DecodeXxx function, returning the
// reconstructed structure as an interface{}. Callers that already know
// the concrete type should call the type-specific DecodeXxx directly
// instead of type-asserting the result.
//
// It fails with a FormatError if data's type tag is missing or
// unrecognized.
func ImportJSON(data []byte) (interface{}, error) {
	var r record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, formatErrorf(errors.Wrap(err, "unmarshal record"), "malformed serialized record")
	}
	switch r.Type {
	case typeBloom:
		return DecodeBloomFilter(data)
	case typePartitioned:
		return DecodePartitionedBloomFilter(data)
	case typeCounting:
		return DecodeCountingBloomFilter(data)
	case typeCuckoo:
		return DecodeCuckooFilter(data)
	case typeCMS:
		return DecodeCountMinSketch(data)
	case typeIBLT:
		return DecodeIBLT(data)
	default:
		return nil, formatErrorf(nil, "unrecognized type %q", r.Type)
	}
}
