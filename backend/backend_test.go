package backend

import "testing"

type fakeBackend struct{ dt DeviceType }

func (f *fakeBackend) Name() string                   { return "fake" }
func (f *fakeBackend) DeviceType() DeviceType         { return f.dt }
func (f *fakeBackend) Alloc(int) (Storage, error)     { return nil, nil }
func (f *fakeBackend) Free(Storage)                   {}
func (f *fakeBackend) Upload(Storage, []byte) error   { return nil }
func (f *fakeBackend) Download([]byte, Storage) error { return nil }
func (f *fakeBackend) TrainCBOW(loc, ctx, table, tokens Storage, p KernelParams) error {
	return nil
}

func TestRegistry(t *testing.T) {
	fb := &fakeBackend{dt: CPU}
	Register(fb)
	defer delete(registry, CPU)

	got, err := Get(CPU)
	if err != nil {
		t.Fatal(err)
	}
	if got != Backend(fb) {
		t.Error("Get returned a different backend than registered")
	}
	if _, err := Get(CUDA); err == nil {
		t.Error("expected error for unregistered device type")
	}
	if _, err := GetForDevice(CPU0); err != nil {
		t.Errorf("GetForDevice(CPU0): %v", err)
	}
}

func TestDeviceStrings(t *testing.T) {
	if CPU0.String() != "cpu" {
		t.Errorf("CPU0 = %q", CPU0.String())
	}
	if got := CUDADevice(1).String(); got != "cuda:1" {
		t.Errorf("cuda device = %q", got)
	}
	if CPU.String() != "cpu" || CUDA.String() != "cuda" {
		t.Error("device type names wrong")
	}
}
