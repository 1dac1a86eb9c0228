// Package device runs the per-record bijection dispatch over a record
// array, either on the host or through one of two emulated accelerator
// strategies that share the buffer, launch and barrier model of a real
// device.
package device

import (
	"context"
	"fmt"
	"runtime"

	"github.com/klauspost/cpuid/v2"

	"github.com/23skdu/longbow-kat/internal/kat"
	"github.com/23skdu/longbow-kat/internal/katerr"
)

// Backend applies the bijection to every record, overwriting Computed
// only. Mismatches are not errors; only setup, compile or launch faults
// are.
type Backend interface {
	Name() string
	Execute(ctx context.Context, records []kat.Record) error
}

// Info describes the emulated device.
type Info struct {
	Brand   string
	Cores   int
	Threads int
}

// Probe reports the host CPU as the device.
func Probe() Info {
	info := Info{
		Brand:   cpuid.CPU.BrandName,
		Cores:   cpuid.CPU.PhysicalCores,
		Threads: cpuid.CPU.LogicalCores,
	}
	if info.Cores <= 0 {
		info.Cores = runtime.NumCPU()
	}
	if info.Threads <= 0 {
		info.Threads = runtime.NumCPU()
	}
	if info.Brand == "" {
		info.Brand = runtime.GOARCH
	}
	return info
}

func (i Info) String() string {
	return fmt.Sprintf("%s (%d cores, %d threads)", i.Brand, i.Cores, i.Threads)
}

// New builds the named backend. workGroup is the device default
// work-group size.
func New(name string, workGroup int) (Backend, error) {
	switch name {
	case "host":
		return Host{}, nil
	case "grid":
		return NewGrid(workGroup), nil
	case "jit":
		return NewJIT(workGroup)
	}
	return nil, katerr.New(katerr.Internal, 0, fmt.Sprintf("unknown backend %q", name))
}

// Compare returns the first index at which two executed arrays differ,
// or -1 if they are byte-identical.
func Compare(a, b []kat.Record) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}
