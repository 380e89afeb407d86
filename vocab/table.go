package vocab

import "math"

// Smoothing exponent for the negative-sampling distribution. Rarer
// words get proportionally more table slots than raw frequency would
// give them.
const tablePower = 0.6

// UnigramTable builds the flat negative-sampling table: each ID appears
// round(count^0.6 / minCount^0.6) times. Uniform draws from the table
// approximate the smoothed unigram distribution. The table is at least
// as long as the vocabulary, since every kept count is >= minCount.
func (v *Vocab) UnigramTable() []int32 {
	floor := math.Pow(float64(v.minCount), tablePower)
	n := 0
	for i := range v.entries {
		n += int(math.Round(math.Pow(float64(v.entries[i].Count), tablePower) / floor))
	}
	table := make([]int32, 0, n)
	for i := range v.entries {
		reps := int(math.Round(math.Pow(float64(v.entries[i].Count), tablePower) / floor))
		for r := 0; r < reps; r++ {
			table = append(table, int32(i))
		}
	}
	return table
}
