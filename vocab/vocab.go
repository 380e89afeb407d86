// Package vocab implements the dense-ID word arena used for embedding
// training: per-word corpus count plus the location (input-side) and
// context (output-side) vectors, indexed by a stable integer ID.
package vocab

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// Entry is one vocabulary word. IDs are positions in the arena, so the
// entry itself carries no back-reference to its container.
type Entry struct {
	Word    string
	Count   int
	Vector  []float32 // location vector, the embedding being trained
	Context []float32 // auxiliary output-side embedding
}

// WordCount is the raw (word, frequency) input to Build.
type WordCount struct {
	Word  string
	Count int
}

// Vocab is an arena of entries. The word -> ID index is a separate map;
// IDs form a bijection onto [0, Size).
type Vocab struct {
	entries  []Entry
	index    map[string]int
	dims     int
	minCount int
}

// Build filters counts by minCount, orders words by descending
// frequency and assigns IDs. Location vectors are initialized with the
// word2vec linear-congruential scheme from the given seed; context
// vectors start at zero.
func Build(counts []WordCount, dims, minCount int, seed uint64) (*Vocab, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("vocab: dims must be positive, got %d", dims)
	}
	if minCount < 1 {
		return nil, fmt.Errorf("vocab: minCount must be >= 1, got %d", minCount)
	}

	kept := make([]WordCount, 0, len(counts))
	for _, wc := range counts {
		if wc.Count >= minCount {
			kept = append(kept, wc)
		}
	}
	sort.Slice(kept, func(i, j int) bool {
		if kept[i].Count != kept[j].Count {
			return kept[i].Count > kept[j].Count
		}
		return kept[i].Word < kept[j].Word
	})

	v := &Vocab{
		entries:  make([]Entry, len(kept)),
		index:    make(map[string]int, len(kept)),
		dims:     dims,
		minCount: minCount,
	}
	state := seed
	for id, wc := range kept {
		vec := make([]float32, dims)
		for d := range vec {
			state = state*25214903917 + 11
			vec[d] = (float32(state&0xffff)/65536.0 - 0.5) / float32(dims)
		}
		v.entries[id] = Entry{
			Word:    wc.Word,
			Count:   wc.Count,
			Vector:  vec,
			Context: make([]float32, dims),
		}
		v.index[wc.Word] = id
	}
	return v, nil
}

// FromCorpus counts whitespace-delimited tokens from r (one sentence
// per line, pre-normalized) and builds the vocabulary.
func FromCorpus(r io.Reader, dims, minCount int, seed uint64) (*Vocab, error) {
	counts := make(map[string]int)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		for _, tok := range strings.Fields(sc.Text()) {
			counts[tok]++
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("vocab: reading corpus: %w", err)
	}
	wcs := make([]WordCount, 0, len(counts))
	for w, c := range counts {
		wcs = append(wcs, WordCount{Word: w, Count: c})
	}
	return Build(wcs, dims, minCount, seed)
}

func (v *Vocab) Size() int     { return len(v.entries) }
func (v *Vocab) Dims() int     { return v.dims }
func (v *Vocab) MinCount() int { return v.minCount }

// ID returns the dense ID for a word.
func (v *Vocab) ID(word string) (int, bool) {
	id, ok := v.index[word]
	return id, ok
}

// At returns the entry for an ID. The returned pointer aliases the
// arena; vectors may be written in place.
func (v *Vocab) At(id int) *Entry { return &v.entries[id] }

// Words returns all words in ID order.
func (v *Vocab) Words() []string {
	ws := make([]string, len(v.entries))
	for i := range v.entries {
		ws[i] = v.entries[i].Word
	}
	return ws
}
