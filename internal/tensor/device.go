package tensor

import "fmt"

// Device represents the kind of memory a buffer lives in.
type Device int

// Supported devices.
const (
	CPU Device = iota
	CUDA
	WebGPU
	Compressed
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	case WebGPU:
		return "WebGPU"
	case Compressed:
		return "Compressed"
	default:
		return "Unknown"
	}
}

// Location names a memory location: a device kind plus an instance index.
type Location struct {
	Device Device
	Index  int
}

// Host is the default host-addressable location.
var Host = Location{Device: CPU}

// HostAddressable reports whether buffers at this location can be read and
// written directly by Go code. Only CPU memory qualifies.
func (l Location) HostAddressable() bool {
	return l.Device == CPU
}

// String returns "Device:Index".
func (l Location) String() string {
	return fmt.Sprintf("%s:%d", l.Device, l.Index)
}
