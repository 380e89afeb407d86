package main

// wordvec — train CBOW word embeddings with negative sampling.
//
// The corpus must be pre-normalized plain text: one sentence per line,
// whitespace-separated tokens. Training makes two passes over the file:
// the first counts words to build the vocabulary (skipped when
// -read-vocab is given), the second streams sentence batches to the
// selected compute backend.
//
// Usage:
//   go run cmd/wordvec/main.go -train corpus.txt -output vectors.txt -size 128
//   go run cmd/wordvec/main.go -train corpus.txt -output vectors.txt -device cuda

import (
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/djeday123/wordvec/backend"
	_ "github.com/djeday123/wordvec/backend/cpu"
	_ "github.com/djeday123/wordvec/backend/cuda"
	"github.com/djeday123/wordvec/log"
	"github.com/djeday123/wordvec/sim"
	"github.com/djeday123/wordvec/train"
	"github.com/djeday123/wordvec/vocab"
)

func main() {
	cfg := train.DefaultConfig()

	input := flag.String("train", "", "Training corpus (one sentence per line)")
	output := flag.String("output", "", "Output file for word vectors (word2vec text format)")
	saveVocab := flag.String("save-vocab", "", "Write word counts here after the counting pass")
	readVocab := flag.String("read-vocab", "", "Read word counts from here instead of the corpus")
	configPath := flag.String("config", "", "JSON config file (replaces the hyperparameter flags)")
	device := flag.String("device", "cpu", "Compute backend: cpu or cuda")
	workers := flag.Int("workers", runtime.NumCPU(), "CPU backend worker count (1 = deterministic)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	nearest := flag.String("nearest", "", "After training, print the nearest neighbors of this word")
	topK := flag.Int("topk", 10, "Neighbor count for -nearest")

	flag.IntVar(&cfg.Dims, "size", cfg.Dims, "Vector dimensionality (power of two)")
	flag.IntVar(&cfg.Window, "window", cfg.Window, "Max context window on each side")
	flag.IntVar(&cfg.Negatives, "negative", cfg.Negatives, "Negative samples per position")
	flag.Float64Var(&cfg.Sample, "sample", cfg.Sample, "Subsampling threshold")
	alpha := flag.Float64("alpha", float64(cfg.Alpha), "Learning rate")
	flag.IntVar(&cfg.BatchSentences, "batch", cfg.BatchSentences, "Sentences per batch")
	flag.IntVar(&cfg.MaxPositions, "max-positions", cfg.MaxPositions, "Max positions per sentence")
	flag.IntVar(&cfg.MinCount, "min-count", cfg.MinCount, "Discard words seen fewer times")
	flag.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "Master random seed")
	flag.Parse()
	cfg.Alpha = float32(*alpha)

	if *input == "" || *output == "" {
		flag.Usage()
		os.Exit(2)
	}
	log.SetLevel(*logLevel)
	if *configPath != "" {
		var err error
		if cfg, err = train.LoadConfig(*configPath); err != nil {
			fatal(err)
		}
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	v, err := buildVocab(*input, *readVocab, cfg)
	if err != nil {
		fatal(err)
	}
	if v.Size() == 0 {
		fatal(fmt.Errorf("no words survive min-count=%d", cfg.MinCount))
	}
	if *saveVocab != "" {
		if err := writeFile(*saveVocab, v.SaveCounts); err != nil {
			fatal(err)
		}
	}
	log.Infof("vocab: %d words (min-count %d)", v.Size(), cfg.MinCount)

	bk, err := pickBackend(*device, *workers)
	if err != nil {
		fatal(err)
	}

	f, err := os.Open(*input)
	if err != nil {
		fatal(err)
	}
	defer f.Close()
	fi, _ := f.Stat()
	var totalBytes int64
	if fi != nil {
		totalBytes = fi.Size()
	}

	// Pressing enter (or closing stdin) stops training gracefully:
	// matrices trained so far are still downloaded and written out.
	cancel := make(chan struct{})
	go func() {
		var b [1]byte
		os.Stdin.Read(b[:])
		close(cancel)
	}()

	tr := train.New(bk, v, cfg)
	stats, err := tr.Train(f, totalBytes, cancel)
	if err != nil {
		fatal(err)
	}

	if err := writeFile(*output, v.SaveVectors); err != nil {
		fatal(err)
	}
	log.Infof("wrote %d vectors to %s (%s elapsed)", v.Size(), *output, stats.Elapsed.Round(10*time.Millisecond))

	if *nearest != "" {
		matches, err := sim.NewIndex(v).Nearest(*nearest, *topK)
		if err != nil {
			fatal(err)
		}
		for _, m := range matches {
			fmt.Printf("%-24s %.4f\n", m.Word, m.Score)
		}
	}
}

func buildVocab(corpus, vocabFile string, cfg train.Config) (*vocab.Vocab, error) {
	path := corpus
	load := vocab.FromCorpus
	if vocabFile != "" {
		path = vocabFile
		load = vocab.LoadCounts
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return load(f, cfg.Dims, cfg.MinCount, cfg.Seed)
}

func writeFile(path string, save func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := save(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func pickBackend(device string, workers int) (backend.Backend, error) {
	switch device {
	case "cpu":
		bk, err := backend.Get(backend.CPU)
		if err != nil {
			return nil, err
		}
		if c, ok := bk.(interface{ SetWorkers(int) }); ok {
			c.SetWorkers(workers)
		}
		return bk, nil
	case "cuda":
		runtime.LockOSThread() // CUDA context is bound to the OS thread
		return backend.Get(backend.CUDA)
	default:
		return nil, fmt.Errorf("unknown device %q (want cpu or cuda)", device)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "wordvec:", err)
	os.Exit(1)
}
