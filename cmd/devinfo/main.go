package main

// devinfo — list CUDA devices visible to the training backend.
//
// Uses the same purego driver bindings as training, so a device shown
// here is a device "-device cuda" can launch on. Exits non-zero when no
// usable device is found.

import (
	"fmt"
	"os"
	"runtime"

	"github.com/djeday123/wordvec/backend/cuda"
)

func main() {
	runtime.LockOSThread()

	n, err := cuda.DeviceCount()
	if err != nil {
		fmt.Fprintln(os.Stderr, "devinfo:", err)
		os.Exit(1)
	}
	if n == 0 {
		fmt.Fprintln(os.Stderr, "devinfo: no CUDA devices found")
		os.Exit(1)
	}

	for i := 0; i < n; i++ {
		info, err := cuda.QueryDevice(i)
		if err != nil {
			fmt.Fprintf(os.Stderr, "devinfo: device %d: %v\n", i, err)
			continue
		}
		fmt.Printf("cuda:%d  %s\n", i, info)
	}
}
