package sim

import (
	"math"
	"testing"

	"github.com/djeday123/wordvec/vocab"
)

// simVocab builds a 4-word vocabulary with hand-picked 2d vectors:
// north/northish nearly parallel, east orthogonal, south opposite.
func simVocab(t *testing.T) *vocab.Vocab {
	t.Helper()
	counts := []vocab.WordCount{
		{Word: "north", Count: 40},
		{Word: "northish", Count: 30},
		{Word: "east", Count: 20},
		{Word: "south", Count: 10},
	}
	v, err := vocab.Build(counts, 2, 5, 1)
	if err != nil {
		t.Fatal(err)
	}
	set := func(word string, x, y float32) {
		id, ok := v.ID(word)
		if !ok {
			t.Fatalf("missing %q", word)
		}
		v.At(id).Vector[0] = x
		v.At(id).Vector[1] = y
	}
	set("north", 0, 1)
	set("northish", 0.2, 1)
	set("east", 1, 0)
	set("south", 0, -1)
	return v
}

func TestNearestOrdering(t *testing.T) {
	ix := NewIndex(simVocab(t))
	got, err := ix.Nearest("north", 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"northish", "east", "south"}
	if len(got) != len(want) {
		t.Fatalf("got %d matches, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].Word != w {
			t.Errorf("rank %d = %q, want %q", i, got[i].Word, w)
		}
	}
	if got[0].Score <= got[1].Score || got[1].Score <= got[2].Score {
		t.Errorf("scores not descending: %v", got)
	}
	if math.Abs(got[2].Score - -1) > 1e-9 {
		t.Errorf("opposite vector score = %g, want -1", got[2].Score)
	}
}

func TestNearestExcludesQueryAndCaps(t *testing.T) {
	ix := NewIndex(simVocab(t))
	got, err := ix.Nearest("north", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d matches, want 3 (query excluded)", len(got))
	}
	for _, m := range got {
		if m.Word == "north" {
			t.Error("query word returned as its own neighbor")
		}
	}

	got, _ = ix.Nearest("north", 1)
	if len(got) != 1 || got[0].Word != "northish" {
		t.Errorf("k=1 = %v, want just northish", got)
	}
}

func TestNearestUnknownWord(t *testing.T) {
	ix := NewIndex(simVocab(t))
	if _, err := ix.Nearest("missing", 3); err == nil {
		t.Error("expected error for unknown word")
	}
}
