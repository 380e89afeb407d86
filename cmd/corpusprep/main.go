package main

// corpusprep — normalize raw text into training input
//
// Training expects one sentence per line with whitespace-separated,
// already-normalized tokens. This tool produces that format from raw
// text: lowercases, strips markup leftovers and punctuation, splits on
// sentence boundaries, and drops sentences that are too short to carry
// any context.
//
// Usage:
//   go run cmd/corpusprep/main.go -input raw.txt -output corpus.txt
//   go run cmd/corpusprep/main.go -input dump.txt.bz2 -output corpus.txt -min-tokens 5

import (
	"bufio"
	"compress/bzip2"
	"flag"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"
	"unicode"
)

var (
	// Leftover markup and URLs that survive upstream extraction.
	reURL    = regexp.MustCompile(`https?://\S+`)
	reEntity = regexp.MustCompile(`&[a-z]+;`)

	// Sentence boundaries. Abbreviation handling is deliberately crude;
	// a mis-split sentence just becomes two shorter training rows.
	reSentence = regexp.MustCompile(`[.!?]+\s+`)

	reMultiSpace = regexp.MustCompile(`\s{2,}`)
)

// normalizeSentence lowercases and reduces a sentence to letter, digit
// and apostrophe runs separated by single spaces.
func normalizeSentence(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := true
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\'':
			b.WriteRune(r)
			prevSpace = false
		default:
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

func main() {
	input := flag.String("input", "", "Raw text file (.txt or .txt.bz2)")
	output := flag.String("output", "", "Normalized corpus output, one sentence per line")
	minTokens := flag.Int("min-tokens", 3, "Drop sentences with fewer tokens")
	maxMB := flag.Int("max-mb", 0, "Stop after this many MB of output (0 = no limit)")
	flag.Parse()

	if *input == "" || *output == "" {
		flag.Usage()
		os.Exit(2)
	}

	f, err := os.Open(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "corpusprep: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	var reader io.Reader = f
	if strings.HasSuffix(*input, ".bz2") {
		reader = bzip2.NewReader(f)
	}

	out, err := os.Create(*output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "corpusprep: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()
	writer := bufio.NewWriterSize(out, 1024*1024)
	defer writer.Flush()

	targetBytes := int64(*maxMB) * 1024 * 1024
	var written int64
	var sentences, dropped int64
	start := time.Now()

	sc := bufio.NewScanner(bufio.NewReaderSize(reader, 4*1024*1024))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

scan:
	for sc.Scan() {
		line := sc.Text()
		line = reURL.ReplaceAllString(line, " ")
		line = reEntity.ReplaceAllString(line, " ")
		line = reMultiSpace.ReplaceAllString(line, " ")

		for _, raw := range reSentence.Split(line, -1) {
			sent := normalizeSentence(raw)
			if sent == "" {
				continue
			}
			if strings.Count(sent, " ")+1 < *minTokens {
				dropped++
				continue
			}
			n, err := fmt.Fprintln(writer, sent)
			if err != nil {
				fmt.Fprintf(os.Stderr, "corpusprep: write: %v\n", err)
				os.Exit(1)
			}
			written += int64(n)
			sentences++
			if targetBytes > 0 && written >= targetBytes {
				break scan
			}
		}
	}
	if err := sc.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "corpusprep: read: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("wrote %d sentences (%.1f MB, %d dropped) in %s\n",
		sentences, float64(written)/1048576, dropped, time.Since(start).Round(time.Millisecond))
}
