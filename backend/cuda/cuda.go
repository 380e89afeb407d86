package cuda

// CUDA backend for wordvec — implements backend.Backend.
//
// Architecture:
//   - CBOW training step -> custom PTX kernel (kernels.go)
//   - Memory -> CUDA Driver API via purego (zero cgo)
//
// Registration: import _ "github.com/djeday123/wordvec/backend/cuda"
// This triggers init() which calls backend.Register(&Backend{}) when
// an NVIDIA driver is present. Initialization is lazy, on first use.

import (
	"fmt"
	"math/bits"
	"sync"
	"unsafe"

	"github.com/djeday123/wordvec/backend"
	"github.com/djeday123/wordvec/log"
)

// Backend implements backend.Backend for NVIDIA GPUs.
type Backend struct {
	mu          sync.Mutex
	initialized bool

	deviceIdx int
	device    int32
	ctx       uintptr
	stream    uintptr
	info      *DeviceInfo

	module  uintptr
	kernels map[string]uintptr
}

func init() {
	// Only register if the CUDA driver is available, so the binary
	// still runs on machines without NVIDIA GPUs.
	if err := initDriver(); err != nil {
		return
	}
	if r := cuInit(0); r != CUDA_SUCCESS {
		return // no CUDA devices
	}
	backend.Register(&Backend{})
}

func (b *Backend) Name() string                   { return "cuda" }
func (b *Backend) DeviceType() backend.DeviceType { return backend.CUDA }

// ensureInit performs lazy initialization on first use.
func (b *Backend) ensureInit() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.initialized {
		cuCtxSetCurrent(b.ctx)
		return nil
	}

	if r := cuDeviceGet(&b.device, int32(b.deviceIdx)); r != CUDA_SUCCESS {
		return fmt.Errorf("cuDeviceGet(%d): %s", b.deviceIdx, r.Error())
	}
	if r := cuCtxCreate(&b.ctx, 0, b.device); r != CUDA_SUCCESS {
		return fmt.Errorf("cuCtxCreate: %s", r.Error())
	}
	if r := cuStreamCreate(&b.stream, CU_STREAM_NON_BLOCKING); r != CUDA_SUCCESS {
		return fmt.Errorf("cuStreamCreate: %s", r.Error())
	}

	var err error
	b.info, err = QueryDevice(b.deviceIdx)
	if err != nil {
		return fmt.Errorf("QueryDevice: %w", err)
	}

	b.kernels = make(map[string]uintptr)
	ptxBytes := append([]byte(kernelPTX), 0) // null-terminate
	if r := cuModuleLoadData(&b.module, unsafe.Pointer(&ptxBytes[0])); r != CUDA_SUCCESS {
		return fmt.Errorf("cuModuleLoadData (PTX): %s", r.Error())
	}
	for _, name := range kernelNames {
		nameBytes := append([]byte(name), 0)
		var fn uintptr
		if r := cuModuleGetFunction(&fn, b.module, &nameBytes[0]); r != CUDA_SUCCESS {
			return fmt.Errorf("cuModuleGetFunction(%s): %s", name, r.Error())
		}
		b.kernels[name] = fn
	}

	b.initialized = true
	log.Infof("cuda backend initialized: %s", b.info)
	return nil
}

// Close releases the module, stream and context. The backend can not be
// used afterwards.
func (b *Backend) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.initialized {
		return
	}
	if b.module != 0 {
		cuModuleUnload(b.module)
		b.module = 0
	}
	if b.stream != 0 {
		cuStreamDestroy(b.stream)
		b.stream = 0
	}
	if b.ctx != 0 {
		cuCtxDestroy(b.ctx)
		b.ctx = 0
	}
	b.initialized = false
}

// devPtr extracts the raw device pointer from a Storage.
func devPtr(s backend.Storage) uintptr {
	if cs, ok := s.(*Storage); ok {
		return cs.DevicePtr()
	}
	return 0
}

// ---- Memory management ----

func (b *Backend) Alloc(byteLen int) (backend.Storage, error) {
	if err := b.ensureInit(); err != nil {
		return nil, err
	}
	return Alloc(byteLen, backend.CUDADevice(b.deviceIdx))
}

func (b *Backend) Free(s backend.Storage) {
	s.Free()
}

func (b *Backend) Upload(dst backend.Storage, src []byte) error {
	if err := b.ensureInit(); err != nil {
		return err
	}
	cs, ok := dst.(*Storage)
	if !ok {
		return fmt.Errorf("upload: destination is not cuda storage")
	}
	return CopyHtoD(cs, src)
}

func (b *Backend) Download(dst []byte, src backend.Storage) error {
	if err := b.ensureInit(); err != nil {
		return err
	}
	cs, ok := src.(*Storage)
	if !ok {
		return fmt.Errorf("download: source is not cuda storage")
	}
	return CopyDtoH(dst, cs)
}

// ---- Kernel dispatch ----

// TrainCBOW launches cbow_train_f32 over a (Sentences x MaxPositions)
// grid with Dims lanes per block and synchronizes the stream before
// returning, so the host may reuse the token buffer immediately.
func (b *Backend) TrainCBOW(loc, ctx, table, tokens backend.Storage, p backend.KernelParams) error {
	if err := b.ensureInit(); err != nil {
		return err
	}
	if p.Dims < 2 || bits.OnesCount(uint(p.Dims)) != 1 {
		return fmt.Errorf("cbow: dims must be a power of two, got %d", p.Dims)
	}
	if p.Dims > b.info.MaxThreads {
		return fmt.Errorf("cbow: dims %d exceeds device limit %d", p.Dims, b.info.MaxThreads)
	}

	fn, ok := b.kernels["cbow_train_f32"]
	if !ok {
		return fmt.Errorf("kernel not found: cbow_train_f32")
	}

	locPtr := devPtr(loc)
	ctxPtr := devPtr(ctx)
	tabPtr := devPtr(table)
	tokPtr := devPtr(tokens)
	maxpos := uint32(p.MaxPositions)
	window := uint32(p.Window)
	negs := uint32(p.Negatives)
	tablelen := uint32(p.TableLen)
	alpha := p.Alpha
	seed := p.Seed

	params := []unsafe.Pointer{
		unsafe.Pointer(&locPtr),
		unsafe.Pointer(&ctxPtr),
		unsafe.Pointer(&tabPtr),
		unsafe.Pointer(&tokPtr),
		unsafe.Pointer(&maxpos),
		unsafe.Pointer(&window),
		unsafe.Pointer(&negs),
		unsafe.Pointer(&tablelen),
		unsafe.Pointer(&alpha),
		unsafe.Pointer(&seed),
	}

	sharedBytes := uint32(p.Dims * 4) // reduction scratch
	r := cuLaunchKernel(
		fn,
		uint32(p.Sentences), uint32(p.MaxPositions), 1,
		uint32(p.Dims), 1, 1,
		sharedBytes,
		b.stream,
		unsafe.Pointer(&params[0]),
		nil,
	)
	if r != CUDA_SUCCESS {
		return fmt.Errorf("cuLaunchKernel(cbow_train_f32): %s", r.Error())
	}

	// Synchronous handoff: the batch buffer must not be reused while
	// the grid is in flight.
	if r := cuStreamSynchronize(b.stream); r != CUDA_SUCCESS {
		return fmt.Errorf("cuStreamSynchronize: %s", r.Error())
	}
	return nil
}
