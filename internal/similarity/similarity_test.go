package similarity

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

func TestFeatureVectorNormalized(t *testing.T) {
	v := FeatureVector([]byte("some item image bytes"))
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if math.Abs(norm-1) > 1e-5 {
		t.Fatalf("vector norm %f, want 1", norm)
	}
}

func TestFeatureVectorEmptyInput(t *testing.T) {
	v := FeatureVector(nil)
	for _, x := range v {
		if x != 0 {
			t.Fatal("empty input produced non-zero vector")
		}
	}
}

func TestSerializeRoundTrip(t *testing.T) {
	v := FeatureVector([]byte{0, 1, 2, 2, 3, 3, 3, 255})
	got, err := Deserialize(Serialize(v))
	if err != nil {
		t.Fatal(err)
	}
	for i := range v {
		if got[i] != v[i] {
			t.Fatalf("bin %d: %v != %v", i, got[i], v[i])
		}
	}
	if _, err := Deserialize([]byte("truncated")); !errors.Is(err, ErrBadVector) {
		t.Fatalf("truncated vector: got %v", err)
	}
}

func TestCosineSelfSimilarity(t *testing.T) {
	v := FeatureVector([]byte("identical"))
	if s := Cosine(v, v); math.Abs(float64(s)-1) > 1e-5 {
		t.Fatalf("self similarity %f, want 1", s)
	}
}

func TestRankOrdersBySimilarity(t *testing.T) {
	query := FeatureVector(bytes.Repeat([]byte{'a', 'b'}, 100))
	near := FeatureVector(bytes.Repeat([]byte{'a', 'b'}, 99))
	far := FeatureVector(bytes.Repeat([]byte{0xf0, 0x0f}, 100))
	ids := Rank(query, []Candidate{{ID: 7, Vector: far}, {ID: 3, Vector: near}})
	if len(ids) != 2 || ids[0] != 3 || ids[1] != 7 {
		t.Fatalf("rank order %v, want [3 7]", ids)
	}
}
