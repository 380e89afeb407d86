package train

import (
	"fmt"
	"unsafe"

	"github.com/djeday123/wordvec/backend"
	"github.com/djeday123/wordvec/vocab"
)

// Session owns all device memory for one training run: the location and
// context matrices (row id == vocabulary ID), the sampling table, and
// the reusable token-batch buffer. Matrices are uploaded once at
// construction, mutated in place by kernel dispatches, and reconciled
// back into the vocabulary by Download. Close releases everything and
// must run on every exit path.
type Session struct {
	bk  backend.Backend
	v   *vocab.Vocab
	cfg Config

	loc      backend.Storage
	ctx      backend.Storage
	table    backend.Storage
	tokens   backend.Storage
	tableLen int
	closed   bool
}

// NewSession allocates and populates device storage. On any failure the
// partial allocations are released before returning.
func NewSession(bk backend.Backend, v *vocab.Vocab, cfg Config) (s *Session, err error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if v.Dims() != cfg.Dims {
		return nil, fmt.Errorf("session: vocab dims %d != config dims %d", v.Dims(), cfg.Dims)
	}
	if v.Size() == 0 {
		return nil, fmt.Errorf("session: empty vocabulary")
	}

	s = &Session{bk: bk, v: v, cfg: cfg}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	matBytes := v.Size() * cfg.Dims * 4
	if s.loc, err = bk.Alloc(matBytes); err != nil {
		return nil, fmt.Errorf("session: alloc location matrix: %w", err)
	}
	if s.ctx, err = bk.Alloc(matBytes); err != nil {
		return nil, fmt.Errorf("session: alloc context matrix: %w", err)
	}
	if err = bk.Upload(s.loc, s.packMatrix(func(e *vocab.Entry) []float32 { return e.Vector })); err != nil {
		return nil, fmt.Errorf("session: upload location matrix: %w", err)
	}
	if err = bk.Upload(s.ctx, s.packMatrix(func(e *vocab.Entry) []float32 { return e.Context })); err != nil {
		return nil, fmt.Errorf("session: upload context matrix: %w", err)
	}

	table := v.UnigramTable()
	s.tableLen = len(table)
	if s.table, err = bk.Alloc(len(table) * 4); err != nil {
		return nil, fmt.Errorf("session: alloc sampling table: %w", err)
	}
	if err = bk.Upload(s.table, i32bytes(table)); err != nil {
		return nil, fmt.Errorf("session: upload sampling table: %w", err)
	}

	tokBytes := cfg.BatchSentences * (1 + cfg.MaxPositions) * 4
	if s.tokens, err = bk.Alloc(tokBytes); err != nil {
		return nil, fmt.Errorf("session: alloc token buffer: %w", err)
	}
	return s, nil
}

// Dispatch uploads one full batch and runs the training kernel. It
// returns only after the whole grid has completed, so the caller may
// refill the batch immediately.
func (s *Session) Dispatch(b *Batch, seed uint64) error {
	if s.closed {
		return fmt.Errorf("session: dispatch after close")
	}
	if err := s.bk.Upload(s.tokens, b.Bytes()); err != nil {
		return fmt.Errorf("session: upload batch: %w", err)
	}
	p := backend.KernelParams{
		Sentences:    b.Sentences,
		MaxPositions: b.MaxPositions,
		Dims:         s.cfg.Dims,
		Window:       s.cfg.Window,
		Negatives:    s.cfg.Negatives,
		TableLen:     s.tableLen,
		Alpha:        s.cfg.Alpha,
		Seed:         seed,
	}
	if err := s.bk.TrainCBOW(s.loc, s.ctx, s.table, s.tokens, p); err != nil {
		return fmt.Errorf("session: kernel dispatch: %w", err)
	}
	return nil
}

// Download copies both matrices back into the vocabulary entries. The
// values are float32 end to end; no widening happens on the way back.
func (s *Session) Download() error {
	if s.closed {
		return fmt.Errorf("session: download after close")
	}
	buf := make([]byte, s.v.Size()*s.cfg.Dims*4)
	if err := s.bk.Download(buf, s.loc); err != nil {
		return fmt.Errorf("session: download location matrix: %w", err)
	}
	s.unpackMatrix(buf, func(e *vocab.Entry) []float32 { return e.Vector })
	if err := s.bk.Download(buf, s.ctx); err != nil {
		return fmt.Errorf("session: download context matrix: %w", err)
	}
	s.unpackMatrix(buf, func(e *vocab.Entry) []float32 { return e.Context })
	return nil
}

// Close releases all device storage. Safe to call more than once.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.closed = true
	for _, st := range []backend.Storage{s.loc, s.ctx, s.table, s.tokens} {
		if st != nil {
			s.bk.Free(st)
		}
	}
	s.loc, s.ctx, s.table, s.tokens = nil, nil, nil, nil
}

func (s *Session) packMatrix(row func(*vocab.Entry) []float32) []byte {
	buf := make([]byte, s.v.Size()*s.cfg.Dims*4)
	f := f32view(buf)
	for id := 0; id < s.v.Size(); id++ {
		copy(f[id*s.cfg.Dims:(id+1)*s.cfg.Dims], row(s.v.At(id)))
	}
	return buf
}

func (s *Session) unpackMatrix(buf []byte, row func(*vocab.Entry) []float32) {
	f := f32view(buf)
	for id := 0; id < s.v.Size(); id++ {
		copy(row(s.v.At(id)), f[id*s.cfg.Dims:(id+1)*s.cfg.Dims])
	}
}

func f32view(b []byte) []float32 {
	if len(b) == 0 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4)
}

func i32bytes(v []int32) []byte {
	if len(v) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&v[0])), len(v)*4)
}
