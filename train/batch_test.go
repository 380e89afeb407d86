package train

import (
	"math"
	"strconv"
	"testing"

	"github.com/djeday123/wordvec/vocab"
)

func testVocab(t *testing.T, words ...string) *vocab.Vocab {
	t.Helper()
	counts := make([]vocab.WordCount, len(words))
	// Descending counts so IDs follow argument order.
	for i, w := range words {
		counts[i] = vocab.WordCount{Word: w, Count: 100 - i}
	}
	v, err := vocab.Build(counts, 4, 5, 1)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Dims = 4
	cfg.BatchSentences = 2
	cfg.MaxPositions = 8
	cfg.Sample = 0 // deterministic: no subsampling
	return cfg
}

func TestBuilderRowLayout(t *testing.T) {
	v := testVocab(t, "a", "b", "c")
	cfg := testConfig()
	b := NewBuilder(v, cfg, 1, func(*Batch) error { return nil })

	if err := b.Add([]string{"a", "b", "unknown", "c"}); err != nil {
		t.Fatal(err)
	}
	row := b.batch.Row(0)
	if row[0] != 3 {
		t.Fatalf("row length = %d, want 3 (unknown dropped)", row[0])
	}
	// IDs are stored offset by one so 0 can mark empty slots.
	for i, w := range []string{"a", "b", "c"} {
		id, _ := v.ID(w)
		if row[1+i] != int32(id)+1 {
			t.Errorf("slot %d = %d, want %d", i, row[1+i], id+1)
		}
	}
	for i := 4; i < len(row); i++ {
		if row[i] != 0 {
			t.Errorf("tail slot %d = %d, want 0", i, row[i])
		}
	}
}

func TestBuilderDiscardsShortSentences(t *testing.T) {
	v := testVocab(t, "a", "b")
	cfg := testConfig()
	b := NewBuilder(v, cfg, 1, func(*Batch) error { return nil })

	for _, sent := range [][]string{
		{},
		{"a"},
		{"unknown", "alsounknown"},
		{"a", "unknown"}, // one kept token
	} {
		if err := b.Add(sent); err != nil {
			t.Fatal(err)
		}
	}
	if b.Pending() != 0 {
		t.Errorf("pending = %d, want 0: sentences with <2 kept tokens must be discarded", b.Pending())
	}
	if b.KeptWords() != 0 {
		t.Errorf("kept = %d, want 0", b.KeptWords())
	}
}

func TestBuilderTruncatesAtMaxPositions(t *testing.T) {
	v := testVocab(t, "a")
	cfg := testConfig()
	cfg.MaxPositions = 4
	b := NewBuilder(v, cfg, 1, func(*Batch) error { return nil })

	long := make([]string, 10)
	for i := range long {
		long[i] = "a"
	}
	if err := b.Add(long); err != nil {
		t.Fatal(err)
	}
	// One slot is reserved for the length column.
	if got := b.batch.Len(0); got != cfg.MaxPositions-1 {
		t.Errorf("kept %d tokens, want %d", got, cfg.MaxPositions-1)
	}
}

func TestBuilderDispatchesFullBatchesOnly(t *testing.T) {
	v := testVocab(t, "a", "b")
	cfg := testConfig()
	var dispatched int
	b := NewBuilder(v, cfg, 1, func(batch *Batch) error {
		dispatched++
		for i := 0; i < batch.Sentences; i++ {
			if batch.Len(i) < 2 {
				t.Errorf("dispatched batch row %d has length %d", i, batch.Len(i))
			}
		}
		return nil
	})

	sent := []string{"a", "b"}
	for i := 0; i < 5; i++ { // 2 full batches + 1 trailing sentence
		if err := b.Add(sent); err != nil {
			t.Fatal(err)
		}
	}
	if dispatched != 2 {
		t.Errorf("dispatched %d batches, want 2", dispatched)
	}
	if b.Pending() != 1 {
		t.Errorf("pending = %d, want 1: the trailing partial batch stays undispatched", b.Pending())
	}
	if b.Batches() != 2 {
		t.Errorf("Batches() = %d, want 2", b.Batches())
	}
	if b.Sentences() != 5 {
		t.Errorf("Sentences() = %d, want 5 (pending sentence included)", b.Sentences())
	}
}

func TestBuilderBatchBufferReused(t *testing.T) {
	v := testVocab(t, "a", "b", "c")
	cfg := testConfig()
	var first *Batch
	b := NewBuilder(v, cfg, 1, func(batch *Batch) error {
		if first == nil {
			first = batch
		} else if batch != first {
			t.Error("builder allocated a new batch instead of reusing the buffer")
		}
		return nil
	})
	for i := 0; i < 4; i++ {
		if err := b.Add([]string{"a", "b", "c"}); err != nil {
			t.Fatal(err)
		}
	}
}

func TestBuilderSubsampling(t *testing.T) {
	// One word with a known drop probability sqrt(Sample*count).
	counts := []vocab.WordCount{{Word: "w", Count: 1000}}
	v, err := vocab.Build(counts, 4, 5, 1)
	if err != nil {
		t.Fatal(err)
	}
	cfg := testConfig()
	cfg.Sample = 1e-4
	cfg.BatchSentences = 1
	cfg.MaxPositions = 64

	b := NewBuilder(v, cfg, 7, func(*Batch) error { return nil })
	const trials = 4000 // 200k tokens: sample error well under the 1% bound
	sent := make([]string, 50)
	for i := range sent {
		sent[i] = "w"
	}
	for i := 0; i < trials; i++ {
		if err := b.Add(sent); err != nil {
			t.Fatal(err)
		}
	}

	total := float64(trials * len(sent))
	keepRate := float64(b.KeptWords()) / total
	wantKeep := 1 - math.Sqrt(cfg.Sample*1000) // ~0.684
	if math.Abs(keepRate-wantKeep) > 0.01 {
		t.Errorf("keep rate = %.4f, want %.4f +-0.01", keepRate, wantKeep)
	}
}

func TestBuilderDeterministicAcrossSeeds(t *testing.T) {
	v := testVocab(t, "a", "b", "c", "d")
	cfg := testConfig()
	cfg.Sample = 1e-3

	run := func(seed uint64) []int32 {
		var got []int32
		b := NewBuilder(v, cfg, seed, func(batch *Batch) error {
			got = append(got, batch.Tokens...)
			return nil
		})
		for i := 0; i < 20; i++ {
			sent := []string{"a", "b", "c", "d", "a", "b", strconv.Itoa(i)}
			if err := b.Add(sent); err != nil {
				t.Fatal(err)
			}
		}
		return got
	}

	a1, a2 := run(3), run(3)
	if len(a1) != len(a2) {
		t.Fatalf("same seed produced %d vs %d dispatched tokens", len(a1), len(a2))
	}
	for i := range a1 {
		if a1[i] != a2[i] {
			t.Fatalf("same seed diverged at token %d", i)
		}
	}
}
