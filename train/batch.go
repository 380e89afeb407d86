package train

import (
	"math"
	"math/rand"

	"github.com/djeday123/wordvec/vocab"
)

// Batch is a fixed-shape token block: Sentences rows of 1+MaxPositions
// int32 columns. Column 0 holds the sentence's kept-word length;
// columns 1..len hold vocabulary IDs offset by one, so zero doubles as
// the empty sentinel. The buffer is reused across fills.
type Batch struct {
	Sentences    int
	MaxPositions int
	Tokens       []int32
}

func NewBatch(sentences, maxPositions int) *Batch {
	return &Batch{
		Sentences:    sentences,
		MaxPositions: maxPositions,
		Tokens:       make([]int32, sentences*(1+maxPositions)),
	}
}

// Stride is the row width in int32 entries.
func (b *Batch) Stride() int { return 1 + b.MaxPositions }

// Row returns the backing slice for one sentence row.
func (b *Batch) Row(i int) []int32 {
	s := b.Stride()
	return b.Tokens[i*s : (i+1)*s]
}

// Len returns the kept-word length of row i.
func (b *Batch) Len(i int) int { return int(b.Row(i)[0]) }

// Bytes returns the raw little-endian view of the token block for
// device upload.
func (b *Batch) Bytes() []byte { return i32bytes(b.Tokens) }

// Builder packs corpus sentences into batches and dispatches each full
// batch synchronously. A trailing partial batch at end of corpus is
// intentionally never dispatched: the tail is truncated, mirroring the
// cancellation rule (only fully assembled batches reach the device).
type Builder struct {
	vocab    *vocab.Vocab
	cfg      Config
	rng      *rand.Rand
	batch    *Batch
	filled   int
	dispatch func(*Batch) error

	kept      int64 // tokens that survived filtering and subsampling
	sentences int64 // sentences accepted into batches
	batches   int64 // batches dispatched
}

// NewBuilder creates a builder with its own deterministic random
// source. dispatch is called each time a batch fills and must complete
// before the builder reuses the buffer.
func NewBuilder(v *vocab.Vocab, cfg Config, seed uint64, dispatch func(*Batch) error) *Builder {
	return &Builder{
		vocab:    v,
		cfg:      cfg,
		rng:      rand.New(rand.NewSource(int64(seed))),
		batch:    NewBatch(cfg.BatchSentences, cfg.MaxPositions),
		dispatch: dispatch,
	}
}

// Add filters one pre-tokenized sentence into the current batch.
// Tokens absent from the vocabulary are dropped; surviving tokens are
// subsampled (a token of frequency c is kept with probability
// 1 - sqrt(Sample*c)); the sentence is truncated at MaxPositions-1 kept
// tokens and discarded entirely if fewer than 2 remain.
func (b *Builder) Add(tokens []string) error {
	row := b.batch.Row(b.filled)
	n := 0
	maxKeep := b.cfg.MaxPositions - 1
	for _, tok := range tokens {
		id, ok := b.vocab.ID(tok)
		if !ok {
			continue
		}
		if b.cfg.Sample > 0 {
			p := math.Sqrt(b.cfg.Sample * float64(b.vocab.At(id).Count))
			if b.rng.Float64() < p {
				continue
			}
		}
		row[1+n] = int32(id) + 1
		n++
		if n >= maxKeep {
			break
		}
	}
	if n < 2 {
		return nil
	}
	row[0] = int32(n)
	for i := 1 + n; i < len(row); i++ {
		row[i] = 0
	}
	b.kept += int64(n)
	b.sentences++
	b.filled++
	if b.filled == b.cfg.BatchSentences {
		b.filled = 0
		b.batches++
		return b.dispatch(b.batch)
	}
	return nil
}

// Pending returns the number of accumulated sentences that have not
// been dispatched. They never will be; the count exists for reporting.
func (b *Builder) Pending() int { return b.filled }

// KeptWords returns the running count of tokens packed into batches.
func (b *Builder) KeptWords() int64 { return b.kept }

// Sentences returns the count of accepted sentences, including any
// still pending in the current batch.
func (b *Builder) Sentences() int64 { return b.sentences }

// Batches returns the number of dispatched batches.
func (b *Builder) Batches() int64 { return b.batches }
