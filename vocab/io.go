package vocab

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// SaveCounts writes one "word count" line per entry in ID order, the
// format word2vec's -save-vocab used.
func (v *Vocab) SaveCounts(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i := range v.entries {
		if _, err := fmt.Fprintf(bw, "%s %d\n", v.entries[i].Word, v.entries[i].Count); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// LoadCounts reads "word count" lines and builds a vocabulary from
// them, bypassing the corpus counting pass.
func LoadCounts(r io.Reader, dims, minCount int, seed uint64) (*Vocab, error) {
	var counts []WordCount
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("vocab: malformed count line %q", line)
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("vocab: bad count in %q: %w", line, err)
		}
		counts = append(counts, WordCount{Word: fields[0], Count: n})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return Build(counts, dims, minCount, seed)
}

// SaveVectors writes the location vectors in the word2vec text format:
// a "size dims" header line, then one "word v0 v1 ..." row per entry.
func (v *Vocab) SaveVectors(w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d %d\n", len(v.entries), v.dims); err != nil {
		return err
	}
	for i := range v.entries {
		if _, err := bw.WriteString(v.entries[i].Word); err != nil {
			return err
		}
		for _, x := range v.entries[i].Vector {
			if _, err := fmt.Fprintf(bw, " %g", x); err != nil {
				return err
			}
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}
