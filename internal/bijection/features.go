package bijection

import (
	"runtime"
	"sync"

	"golang.org/x/sys/cpu"
)

// Features describes the host capabilities relevant to the AES-based
// families.
type Features struct {
	HasAES       bool
	Architecture string
}

var (
	probeOnce sync.Once
	probed    Features
)

// DetectFeatures probes the host once and caches the result.
func DetectFeatures() Features {
	probeOnce.Do(func() {
		probed = Features{
			HasAES:       cpu.X86.HasAES || cpu.ARM64.HasAES,
			Architecture: runtime.GOARCH,
		}
	})
	return probed
}
