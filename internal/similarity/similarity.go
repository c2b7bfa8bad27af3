// Package similarity ranks items by how closely their blobs resemble a
// reference blob. The feature vector is a normalized 256-bin byte histogram;
// crude next to a learned embedding, but it needs no model and keeps the
// protocol core free of ML concerns.
package similarity

import (
	"encoding/binary"
	"errors"
	"math"
	"sort"
)

// Bins is the feature vector dimension (one bin per byte value).
const Bins = 256

// ErrBadVector: a serialized vector does not hold exactly Bins float32s.
var ErrBadVector = errors.New("similarity: malformed feature vector")

// FeatureVector computes the L2-normalized byte histogram of data.
func FeatureVector(data []byte) []float32 {
	v := make([]float32, Bins)
	if len(data) == 0 {
		return v
	}
	for _, b := range data {
		v[b]++
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}

// Serialize packs a vector as big-endian float32s for storage.
func Serialize(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for i, x := range v {
		binary.BigEndian.PutUint32(b[4*i:], math.Float32bits(x))
	}
	return b
}

// Deserialize unpacks a stored vector.
func Deserialize(b []byte) ([]float32, error) {
	if len(b) != 4*Bins {
		return nil, ErrBadVector
	}
	v := make([]float32, Bins)
	for i := range v {
		v[i] = math.Float32frombits(binary.BigEndian.Uint32(b[4*i:]))
	}
	return v, nil
}

// Cosine returns the cosine similarity of two vectors; normalized inputs
// make this the plain dot product, clamped to [-1, 1].
func Cosine(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	if dot > 1 {
		dot = 1
	}
	if dot < -1 {
		dot = -1
	}
	return float32(dot)
}

// Candidate pairs an item id with its stored feature vector.
type Candidate struct {
	ID     int
	Vector []float32
}

// Rank orders candidate ids from most to least similar to the query vector.
// Ties break on lower id so results are deterministic within a session.
func Rank(query []float32, candidates []Candidate) []int {
	type scored struct {
		id    int
		score float32
	}
	ss := make([]scored, len(candidates))
	for i, c := range candidates {
		ss[i] = scored{id: c.ID, score: Cosine(query, c.Vector)}
	}
	sort.Slice(ss, func(i, j int) bool {
		if ss[i].score != ss[j].score {
			return ss[i].score > ss[j].score
		}
		return ss[i].id < ss[j].id
	})
	ids := make([]int, len(ss))
	for i, s := range ss {
		ids[i] = s.id
	}
	return ids
}
