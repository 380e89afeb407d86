package train

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/djeday123/wordvec/backend"
	"github.com/djeday123/wordvec/log"
	"github.com/djeday123/wordvec/vocab"
)

// Trainer drives the training loop: a single host thread streams corpus
// lines through the batch builder and dispatches full batches to the
// device; all parallelism lives inside a dispatch.
type Trainer struct {
	Vocab   *vocab.Vocab
	Backend backend.Backend
	Config  Config
	Log     log.Logger
}

func New(bk backend.Backend, v *vocab.Vocab, cfg Config) *Trainer {
	return &Trainer{Vocab: v, Backend: bk, Config: cfg}
}

// Stats summarizes one training run.
type Stats struct {
	RawWords  int64
	KeptWords int64
	Sentences int64
	Batches   int64
	Elapsed   time.Duration
	Cancelled bool
}

// Train consumes the corpus (one pre-normalized sentence per line),
// trains until EOF or cancellation, then reconciles the matrices back
// into the vocabulary. totalBytes drives the progress percentage; pass
// 0 when unknown. Cancellation is polled between lines only — a batch
// already dispatched keeps its effect, undispatched partial data is
// discarded, the same rule as the end-of-corpus tail.
func (t *Trainer) Train(r io.Reader, totalBytes int64, cancel <-chan struct{}) (Stats, error) {
	var stats Stats

	sess, err := NewSession(t.Backend, t.Vocab, t.Config)
	if err != nil {
		return stats, err
	}
	defer sess.Close()

	// Per-batch kernel seeds come from their own generator so builder
	// subsampling and device sampling stay independent streams.
	seedState := t.Config.Seed
	dispatch := func(b *Batch) error {
		seedState = seedState*25214903917 + 11
		return sess.Dispatch(b, seedState)
	}
	builder := NewBuilder(t.Vocab, t.Config, t.Config.Seed, dispatch)

	t.infof("training: vocab=%d dims=%d window=%d negatives=%d alpha=%g backend=%s",
		t.Vocab.Size(), t.Config.Dims, t.Config.Window, t.Config.Negatives,
		t.Config.Alpha, t.Backend.Name())

	cr := &countReader{r: r}
	sc := bufio.NewScanner(cr)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	start := time.Now()
	var lastReport int64

	for sc.Scan() {
		select {
		case <-cancel:
			stats.Cancelled = true
		default:
		}
		if stats.Cancelled {
			break
		}

		fields := strings.Fields(sc.Text())
		stats.RawWords += int64(len(fields))
		if err := builder.Add(fields); err != nil {
			return stats, err
		}

		if t.Config.ProgressEvery > 0 && stats.RawWords-lastReport >= t.Config.ProgressEvery {
			lastReport = stats.RawWords
			t.reportProgress(stats.RawWords, cr.n, totalBytes, start)
		}
	}
	if err := sc.Err(); err != nil {
		return stats, fmt.Errorf("trainer: reading corpus: %w", err)
	}
	if t.Config.ProgressEvery > 0 {
		fmt.Fprintln(os.Stderr)
	}

	stats.KeptWords = builder.KeptWords()
	stats.Sentences = builder.Sentences()
	stats.Batches = builder.Batches()
	stats.Elapsed = time.Since(start)

	if err := sess.Download(); err != nil {
		return stats, err
	}

	t.infof("training done: %d batches, %d/%d words kept, %.2fk words/sec, cancelled=%v",
		stats.Batches, stats.KeptWords, stats.RawWords,
		float64(stats.RawWords)/stats.Elapsed.Seconds()/1000, stats.Cancelled)
	return stats, nil
}

func (t *Trainer) reportProgress(words, read, total int64, start time.Time) {
	elapsed := time.Since(start).Seconds()
	if elapsed <= 0 {
		return
	}
	if total > 0 {
		fmt.Fprintf(os.Stderr, "\rProgress: %5.2f%%  Words/sec: %.2fk  ",
			float64(read)/float64(total)*100, float64(words)/elapsed/1000)
	} else {
		fmt.Fprintf(os.Stderr, "\rWords: %dk  Words/sec: %.2fk  ",
			words/1000, float64(words)/elapsed/1000)
	}
}

func (t *Trainer) infof(format string, v ...interface{}) {
	if t.Log != nil {
		t.Log.Infof(format, v...)
		return
	}
	log.Infof(format, v...)
}

// countReader tracks consumed corpus bytes for progress reporting.
type countReader struct {
	r io.Reader
	n int64
}

func (c *countReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
