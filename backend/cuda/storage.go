package cuda

import (
	"fmt"
	"unsafe"

	"github.com/djeday123/wordvec/backend"
)

// Storage represents a GPU memory buffer.
// Implements backend.Storage.
type Storage struct {
	ptr     uintptr // CUDA device pointer (a numeric handle, not a Go pointer)
	byteLen int
	device  backend.Device
}

// Alloc allocates GPU memory.
func Alloc(byteLen int, dev backend.Device) (*Storage, error) {
	s := &Storage{byteLen: byteLen, device: dev}
	if r := cuMemAlloc(&s.ptr, uint64(byteLen)); r != CUDA_SUCCESS {
		return nil, fmt.Errorf("cuMemAlloc(%d bytes): %s", byteLen, r.Error())
	}
	return s, nil
}

func (s *Storage) Device() backend.Device { return s.device }
func (s *Storage) Bytes() []byte          { return nil } // GPU memory — no direct access
func (s *Storage) ByteLen() int           { return s.byteLen }

func (s *Storage) Free() {
	if s.ptr != 0 {
		cuMemFree(s.ptr)
		s.ptr = 0
	}
}

// DevicePtr returns the raw uintptr for CUDA API calls.
func (s *Storage) DevicePtr() uintptr { return s.ptr }

// CopyHtoD copies from host (Go slice) to device.
func CopyHtoD(dst *Storage, src []byte) error {
	if len(src) > dst.byteLen {
		return fmt.Errorf("CopyHtoD: src (%d) > dst (%d)", len(src), dst.byteLen)
	}
	if len(src) == 0 {
		return nil
	}
	r := cuMemcpyHtoD(dst.ptr, unsafe.Pointer(&src[0]), uint64(len(src)))
	if r != CUDA_SUCCESS {
		return fmt.Errorf("cuMemcpyHtoD: %s", r.Error())
	}
	return nil
}

// CopyDtoH copies from device to host (Go slice).
func CopyDtoH(dst []byte, src *Storage) error {
	if len(dst) < src.byteLen {
		return fmt.Errorf("CopyDtoH: dst (%d) < src (%d)", len(dst), src.byteLen)
	}
	r := cuMemcpyDtoH(unsafe.Pointer(&dst[0]), src.ptr, uint64(src.byteLen))
	if r != CUDA_SUCCESS {
		return fmt.Errorf("cuMemcpyDtoH: %s", r.Error())
	}
	return nil
}
