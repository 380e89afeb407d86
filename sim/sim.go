// Package sim answers nearest-neighbor queries over trained word vectors.
package sim

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/djeday123/wordvec/vocab"
)

// Index holds row-normalized word vectors for cosine similarity lookups.
type Index struct {
	v    *vocab.Vocab
	rows *mat.Dense
}

// Match is one neighbor of a query word.
type Match struct {
	Word  string
	Score float64
}

// NewIndex copies the vocabulary's syn0 vectors into a dense matrix,
// normalizing each row to unit length. Zero vectors stay zero.
func NewIndex(v *vocab.Vocab) *Index {
	n, d := v.Size(), v.Dims()
	rows := mat.NewDense(n, d, nil)
	for i := 0; i < n; i++ {
		e := v.At(i)
		row := rows.RawRowView(i)
		var norm float64
		for j, x := range e.Vector {
			row[j] = float64(x)
			norm += float64(x) * float64(x)
		}
		if norm > 0 {
			inv := 1 / math.Sqrt(norm)
			for j := range row {
				row[j] *= inv
			}
		}
	}
	return &Index{v: v, rows: rows}
}

// Nearest returns the k words closest to the query by cosine similarity,
// best first, excluding the query itself.
func (ix *Index) Nearest(word string, k int) ([]Match, error) {
	id, ok := ix.v.ID(word)
	if !ok {
		return nil, fmt.Errorf("sim: word %q not in vocabulary", word)
	}
	n, _ := ix.rows.Dims()

	// Similarity of every word against the query in one mat-vec product.
	q := ix.rows.RowView(id)
	scores := mat.NewVecDense(n, nil)
	scores.MulVec(ix.rows, q)

	matches := make([]Match, 0, n-1)
	for i := 0; i < n; i++ {
		if i == id {
			continue
		}
		matches = append(matches, Match{Word: ix.v.At(i).Word, Score: scores.AtVec(i)})
	}
	sort.Slice(matches, func(a, b int) bool {
		if matches[a].Score != matches[b].Score {
			return matches[a].Score > matches[b].Score
		}
		return matches[a].Word < matches[b].Word
	})
	if k < len(matches) {
		matches = matches[:k]
	}
	return matches, nil
}
