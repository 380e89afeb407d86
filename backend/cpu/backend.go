package cpu

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/djeday123/wordvec/backend"
)

// Backend implements backend.Backend for CPU.
//
// The kernel grid is emulated by a bounded worker pool: each worker pulls
// flat unit indices (sentence*MaxPositions + position) from an atomic
// counter and runs the unit to completion. Within a unit the lane
// dimension collapses to a plain loop, which preserves the
// local-barrier/shared-scratch semantics of the device kernel exactly.
// Units touching the same vocabulary row race without locking, same as
// on the device.
type Backend struct {
	// Workers bounds kernel parallelism. Zero means GOMAXPROCS.
	// A single worker runs units in ascending order, bit-deterministic.
	Workers int
}

// New returns a CPU backend with a fixed worker count.
func New(workers int) *Backend {
	return &Backend{Workers: workers}
}

func init() {
	backend.Register(&Backend{})
}

// SetWorkers overrides the worker count for subsequent dispatches.
func (b *Backend) SetWorkers(n int) {
	if n > 0 {
		b.Workers = n
	}
}

func (b *Backend) Name() string                   { return "cpu" }
func (b *Backend) DeviceType() backend.DeviceType { return backend.CPU }

// ---- Memory ----

func (b *Backend) Alloc(byteLen int) (backend.Storage, error) {
	return newStorage(byteLen), nil
}

func (b *Backend) Free(s backend.Storage) {
	s.Free()
}

func (b *Backend) Upload(dst backend.Storage, src []byte) error {
	d := dst.Bytes()
	if len(src) > len(d) {
		return fmt.Errorf("upload: src (%d) > dst (%d)", len(src), len(d))
	}
	copy(d, src)
	return nil
}

func (b *Backend) Download(dst []byte, src backend.Storage) error {
	s := src.Bytes()
	if len(dst) < len(s) {
		return fmt.Errorf("download: dst (%d) < src (%d)", len(dst), len(s))
	}
	copy(dst, s)
	return nil
}

// ---- Kernel dispatch ----

func (b *Backend) TrainCBOW(loc, ctx, table, tokens backend.Storage, p backend.KernelParams) error {
	if p.Dims <= 0 || p.Window <= 0 || p.Sentences <= 0 || p.MaxPositions <= 0 {
		return fmt.Errorf("cbow: bad kernel params %+v", p)
	}
	locF := f32view(loc)
	ctxF := f32view(ctx)
	tab := i32view(table)
	tok := i32view(tokens)
	if len(tab) < p.TableLen {
		return fmt.Errorf("cbow: table storage %d < TableLen %d", len(tab), p.TableLen)
	}
	if want := p.Sentences * (1 + p.MaxPositions); len(tok) < want {
		return fmt.Errorf("cbow: token storage %d < batch %d", len(tok), want)
	}

	workers := b.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	units := p.Sentences * p.MaxPositions
	if workers > units {
		workers = units
	}

	var next atomic.Int64
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			// unit-local scratch, reused across units on this worker
			hidden := make([]float32, p.Dims)
			errv := make([]float32, p.Dims)
			for {
				u := int(next.Add(1)) - 1
				if u >= units {
					return
				}
				trainUnit(locF, ctxF, tab, tok, p, u/p.MaxPositions, u%p.MaxPositions, hidden, errv)
			}
		}()
	}
	wg.Wait()
	return nil
}

func f32view(s backend.Storage) []float32 {
	b := s.Bytes()
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4)
}

func i32view(s backend.Storage) []int32 {
	b := s.Bytes()
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*int32)(unsafe.Pointer(&b[0])), len(b)/4)
}
