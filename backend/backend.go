package backend

import "fmt"

// DeviceType represents the compute device.
type DeviceType uint8

const (
	CPU DeviceType = iota
	CUDA
)

func (d DeviceType) String() string {
	names := [...]string{"cpu", "cuda"}
	if int(d) < len(names) {
		return names[d]
	}
	return fmt.Sprintf("device(%d)", d)
}

// Device identifies a specific device (type + index).
type Device struct {
	Type  DeviceType
	Index int // GPU index, 0 for CPU
}

var CPU0 = Device{Type: CPU, Index: 0}

func CUDADevice(index int) Device { return Device{Type: CUDA, Index: index} }

func (d Device) String() string {
	if d.Type == CPU {
		return "cpu"
	}
	return fmt.Sprintf("%s:%d", d.Type, d.Index)
}

// Storage represents a raw memory buffer on a device.
type Storage interface {
	// Device returns which device this storage lives on.
	Device() Device

	// Bytes returns the underlying byte slice (CPU only, nil for GPU).
	Bytes() []byte

	// ByteLen returns the total size in bytes.
	ByteLen() int

	// Free releases the memory.
	Free()
}

// KernelParams describes one training-kernel launch over a token batch.
// The grid is Sentences x MaxPositions independent units; each unit runs
// Dims cooperating lanes synchronized only by unit-local barriers.
type KernelParams struct {
	Sentences    int // grid dim X: batch rows
	MaxPositions int // grid dim Y: position slots per sentence
	Dims         int // lanes per unit == embedding dimensionality
	Window       int // context half-window
	Negatives    int // negative samples per position
	TableLen     int // sampling-table length, in entries
	Alpha        float32
	Seed         uint64
}

// Backend defines the compute interface a device must implement for
// embedding training. Buffers are raw float32/int32 storage; shape
// metadata travels in KernelParams.
type Backend interface {
	Name() string
	DeviceType() DeviceType

	// Memory management
	Alloc(byteLen int) (Storage, error)
	Free(s Storage)
	Upload(dst Storage, src []byte) error
	Download(dst []byte, src Storage) error

	// TrainCBOW runs the CBOW negative-sampling kernel across the whole
	// batch and blocks until every unit has completed. On return the
	// caller may safely reuse the host-side token buffer. Concurrent
	// units may race on shared rows of loc/ctx; that relaxed-consistency
	// update scheme is intentional and must not be serialized.
	TrainCBOW(loc, ctx, table, tokens Storage, p KernelParams) error
}

// Registry holds all available backends.
var registry = map[DeviceType]Backend{}

// Register adds a backend to the global registry.
func Register(b Backend) {
	registry[b.DeviceType()] = b
}

// Get returns the backend for a device type.
func Get(dt DeviceType) (Backend, error) {
	b, ok := registry[dt]
	if !ok {
		return nil, fmt.Errorf("backend %s not registered", dt)
	}
	return b, nil
}

// GetForDevice returns the backend for a specific device.
func GetForDevice(d Device) (Backend, error) {
	return Get(d.Type)
}
