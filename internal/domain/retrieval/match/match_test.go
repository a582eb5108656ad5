package match

import (
	"fmt"
	"testing"
)

func TestMerge_ThresholdAndCap(t *testing.T) {
	var in []Match
	for i := range 10 {
		in = append(in, Match{ID: fmt.Sprintf("a%d", i), Score: 0.71 + float64(i)*0.02, Namespace: "A"})
		in = append(in, Match{ID: fmt.Sprintf("b%d", i), Score: 0.10 + float64(i)*0.05, Namespace: "B"})
	}

	out := Merge(in, 0.7, 5)
	if len(out) != 5 {
		t.Fatalf("len = %d, want 5", len(out))
	}
	for i, m := range out {
		if m.Namespace != "A" {
			t.Errorf("out[%d] from namespace %q", i, m.Namespace)
		}
		if i > 0 && out[i-1].Score < m.Score {
			t.Errorf("not sorted at %d: %v < %v", i, out[i-1].Score, m.Score)
		}
	}
	if out[0].ID != "a9" {
		t.Errorf("top = %q, want a9", out[0].ID)
	}
}

func TestMerge_ThresholdInclusive(t *testing.T) {
	out := Merge([]Match{{ID: "x", Score: 0.7}, {ID: "y", Score: 0.6999}}, 0.7, 10)
	if len(out) != 1 || out[0].ID != "x" {
		t.Errorf("Merge = %+v", out)
	}
}

func TestMerge_StableTies(t *testing.T) {
	in := []Match{
		{ID: "first", Score: 0.8, Namespace: "A"},
		{ID: "second", Score: 0.8, Namespace: "B"},
		{ID: "top", Score: 0.9, Namespace: "B"},
	}
	out := Merge(in, 0, 0)
	want := []string{"top", "first", "second"}
	for i, id := range want {
		if out[i].ID != id {
			t.Errorf("out[%d] = %q, want %q", i, out[i].ID, id)
		}
	}
}

func TestMerge_Empty(t *testing.T) {
	if out := Merge(nil, 0.5, 3); len(out) != 0 {
		t.Errorf("Merge(nil) = %v", out)
	}
}
