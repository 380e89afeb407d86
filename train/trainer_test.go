package train

import (
	"io"
	"strings"
	"testing"

	"github.com/djeday123/wordvec/backend/cpu"
	"github.com/djeday123/wordvec/vocab"
)

func trainerCorpus() string {
	var sb strings.Builder
	for i := 0; i < 40; i++ {
		sb.WriteString("alpha beta gamma alpha beta\n")
		sb.WriteString("gamma alpha beta gamma alpha\n")
	}
	return sb.String()
}

func trainerVocab(t *testing.T, cfg Config) *vocab.Vocab {
	t.Helper()
	v, err := vocab.FromCorpus(strings.NewReader(trainerCorpus()), cfg.Dims, cfg.MinCount, cfg.Seed)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func trainerConfig() Config {
	cfg := DefaultConfig()
	cfg.Dims = 4
	cfg.Window = 2
	cfg.BatchSentences = 4
	cfg.MaxPositions = 8
	cfg.Sample = 0
	cfg.ProgressEvery = 0 // quiet
	return cfg
}

func snapshot(v *vocab.Vocab) [][]float32 {
	out := make([][]float32, v.Size())
	for id := 0; id < v.Size(); id++ {
		out[id] = append([]float32(nil), v.At(id).Vector...)
		out[id] = append(out[id], v.At(id).Context...)
	}
	return out
}

func TestTrainerDeterministicWithOneWorker(t *testing.T) {
	cfg := trainerConfig()

	run := func() [][]float32 {
		v := trainerVocab(t, cfg)
		tr := New(cpu.New(1), v, cfg)
		if _, err := tr.Train(strings.NewReader(trainerCorpus()), 0, nil); err != nil {
			t.Fatal(err)
		}
		return snapshot(v)
	}

	a, b := run(), run()
	for id := range a {
		for d := range a[id] {
			if a[id][d] != b[id][d] {
				t.Fatalf("word %d component %d: %g != %g across identical runs", id, d, a[id][d], b[id][d])
			}
		}
	}
}

func TestTrainerUpdatesVectors(t *testing.T) {
	cfg := trainerConfig()
	v := trainerVocab(t, cfg)
	before := snapshot(v)

	tr := New(cpu.New(1), v, cfg)
	stats, err := tr.Train(strings.NewReader(trainerCorpus()), 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Batches == 0 {
		t.Fatal("no batches dispatched")
	}
	if stats.RawWords != 400 {
		t.Errorf("raw words = %d, want 400", stats.RawWords)
	}
	if stats.Sentences != 80 {
		t.Errorf("sentences = %d, want 80", stats.Sentences)
	}

	after := snapshot(v)
	changed := false
	for id := range before {
		for d := range before[id] {
			if before[id][d] != after[id][d] {
				changed = true
			}
		}
	}
	if !changed {
		t.Error("training left every vector untouched")
	}
}

func TestTrainerCancellation(t *testing.T) {
	cfg := trainerConfig()
	v := trainerVocab(t, cfg)
	before := snapshot(v)

	cancel := make(chan struct{})
	close(cancel)

	tr := New(cpu.New(1), v, cfg)
	stats, err := tr.Train(strings.NewReader(trainerCorpus()), 0, cancel)
	if err != nil {
		t.Fatal(err)
	}
	if !stats.Cancelled {
		t.Fatal("expected Cancelled with a pre-closed channel")
	}
	if stats.Batches != 0 {
		t.Fatalf("dispatched %d batches after immediate cancel, want 0", stats.Batches)
	}

	// No batch reached the device, so the downloaded matrices must
	// equal the initial ones.
	after := snapshot(v)
	for id := range before {
		for d := range before[id] {
			if before[id][d] != after[id][d] {
				t.Fatalf("word %d component %d changed without any dispatch", id, d)
			}
		}
	}
}

// cancelAfterLines serves one corpus line per Read and closes the
// cancel channel at the moment line `at` is requested. The scanner only
// asks for more input once every buffered line has been processed, and
// the close happens on the trainer's own goroutine, so the cut point is
// exact: lines before `at` are trained, `at` and everything after are
// not.
type cancelAfterLines struct {
	lines  []string
	at     int
	cancel chan struct{}
	i      int
}

func (r *cancelAfterLines) Read(p []byte) (int, error) {
	if r.i == r.at {
		close(r.cancel)
	}
	if r.i >= len(r.lines) {
		return 0, io.EOF
	}
	n := copy(p, r.lines[r.i])
	r.i++
	return n, nil
}

// Cancelling mid-stream must leave exactly the effect of training on
// the prefix consumed so far.
func TestTrainerCancellationEqualsPrefix(t *testing.T) {
	cfg := trainerConfig()

	lines := strings.SplitAfter(strings.TrimRight(trainerCorpus(), "\n"), "\n")
	const prefix = 8 // two full batches at BatchSentences=4

	vFull := trainerVocab(t, cfg)
	cancel := make(chan struct{})
	r := &cancelAfterLines{lines: lines, at: prefix, cancel: cancel}

	tr := New(cpu.New(1), vFull, cfg)
	stats, err := tr.Train(r, 0, cancel)
	if err != nil {
		t.Fatal(err)
	}
	if !stats.Cancelled {
		t.Fatal("expected a cancelled run")
	}

	vPrefix := trainerVocab(t, cfg)
	trP := New(cpu.New(1), vPrefix, cfg)
	if _, err := trP.Train(strings.NewReader(strings.Join(lines[:prefix], "")), 0, nil); err != nil {
		t.Fatal(err)
	}

	a, b := snapshot(vFull), snapshot(vPrefix)
	for id := range a {
		for d := range a[id] {
			if a[id][d] != b[id][d] {
				t.Fatalf("word %d component %d: cancelled run %g != prefix run %g", id, d, a[id][d], b[id][d])
			}
		}
	}
}

func TestTrainerDiscardsTrailingPartialBatch(t *testing.T) {
	cfg := trainerConfig()
	cfg.BatchSentences = 64 // larger than the corpus
	v := trainerVocab(t, cfg)
	before := snapshot(v)

	tr := New(cpu.New(1), v, cfg)
	stats, err := tr.Train(strings.NewReader("alpha beta gamma\nbeta gamma alpha\n"), 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Batches != 0 {
		t.Fatalf("dispatched %d batches, want 0", stats.Batches)
	}
	after := snapshot(v)
	for id := range before {
		for d := range before[id] {
			if before[id][d] != after[id][d] {
				t.Fatal("partial batch must never reach the device")
			}
		}
	}
}
