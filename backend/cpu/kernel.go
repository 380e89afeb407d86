package cpu

import (
	"math"

	"github.com/djeday123/wordvec/backend"
)

// Mirror of the device kernel, one (sentence, position) unit per call.
// Arithmetic stays in float32 to match the device path.

// word2vec linear congruential step.
func lcg(x uint64) uint64 { return x*25214903917 + 11 }

func sigmoid(x float32) float32 {
	return 1.0 / (1.0 + float32(math.Exp(float64(-x))))
}

// trainUnit runs the 4-step CBOW negative-sampling update for one
// position of one sentence. hidden and errv are caller-owned scratch of
// length p.Dims (the device kernel's shared buffers).
func trainUnit(loc, ctx []float32, tab, tok []int32, p backend.KernelParams, sent, pos int, hidden, errv []float32) {
	stride := 1 + p.MaxPositions
	row := tok[sent*stride : (sent+1)*stride]
	slen := int(row[0])
	if pos >= slen {
		return // padding slot
	}
	dims := p.Dims
	word := int(row[1+pos]) - 1

	// Step 1: dynamic window crop.
	rng := lcg(p.Seed + uint64(pos))
	crop := int(rng % uint64(p.Window))

	// Step 2: context average over offsets crop..2*Window-crop,
	// excluding the center and out-of-sentence positions.
	for d := 0; d < dims; d++ {
		hidden[d] = 0
		errv[d] = 0
	}
	cw := 0
	for w := crop; w <= 2*p.Window-crop; w++ {
		if w == p.Window {
			continue
		}
		c := pos - p.Window + w
		if c < 0 || c >= slen {
			continue
		}
		wid := int(row[1+c]) - 1
		base := wid * dims
		for d := 0; d < dims; d++ {
			hidden[d] += loc[base+d]
		}
		cw++
	}
	if cw == 0 {
		// Large crop at a sentence boundary can leave the window empty.
		// Skip the unit rather than divide by zero.
		return
	}
	inv := 1.0 / float32(cw)
	for d := 0; d < dims; d++ {
		hidden[d] *= inv
	}

	// Step 3: one positive plus Negatives sampled targets.
	for n := 0; n <= p.Negatives; n++ {
		var tgt int
		var label float32
		if n == 0 {
			tgt = word
			label = 1
		} else {
			rng = lcg(rng)
			tgt = int(tab[(rng>>16)%uint64(p.TableLen)])
			if tgt == word {
				continue
			}
			label = 0
		}
		base := tgt * dims
		var f float32
		for d := 0; d < dims; d++ {
			f += hidden[d] * ctx[base+d]
		}
		// Saturation guard: sigmoid is pinned beyond +-5, skip the step.
		if label == 1 && f > 5 {
			continue
		}
		if label == 0 && f < -5 {
			continue
		}
		g := (label - sigmoid(f)) * p.Alpha
		for d := 0; d < dims; d++ {
			errv[d] += g * ctx[base+d]
		}
		for d := 0; d < dims; d++ {
			ctx[base+d] += g * hidden[d]
		}
	}

	// Step 4: push the accumulated error back to the window words.
	for w := crop; w <= 2*p.Window-crop; w++ {
		if w == p.Window {
			continue
		}
		c := pos - p.Window + w
		if c < 0 || c >= slen {
			continue
		}
		base := (int(row[1+c]) - 1) * dims
		for d := 0; d < dims; d++ {
			loc[base+d] += errv[d]
		}
	}
}
