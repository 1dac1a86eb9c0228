package device

import (
	"fmt"
	"sync/atomic"

	"github.com/23skdu/longbow-kat/internal/kat"
	"github.com/23skdu/longbow-kat/internal/katerr"
	"github.com/23skdu/longbow-kat/internal/metrics"
)

var allocatedBytes int64

// maxBufferRecords bounds a single allocation.
const maxBufferRecords = 1 << 24

// Buffer is device-resident record storage. Records cross the boundary in
// their fixed binary encoding; a lane may only touch its own slots.
type Buffer struct {
	data     []byte
	count    int
	released atomic.Bool
}

// Alloc reserves storage for n records.
func Alloc(n int) (*Buffer, error) {
	if n < 0 || n > maxBufferRecords {
		return nil, katerr.New(katerr.Resource, 0, fmt.Sprintf("cannot allocate device buffer for %d records", n))
	}
	size := n * kat.RecordSize
	b := &Buffer{data: make([]byte, size), count: n}
	metrics.RecordDeviceMemory(atomic.AddInt64(&allocatedBytes, int64(size)))
	return b, nil
}

// AllocatedBytes is the total size of live buffers.
func AllocatedBytes() int64 {
	return atomic.LoadInt64(&allocatedBytes)
}

func (b *Buffer) Len() int { return b.count }

// Upload copies records into the buffer.
func (b *Buffer) Upload(records []kat.Record) error {
	if b.released.Load() {
		return katerr.New(katerr.Resource, 0, "upload to released device buffer")
	}
	if len(records) != b.count {
		return katerr.New(katerr.Resource, 0, fmt.Sprintf("upload of %d records into buffer of %d", len(records), b.count))
	}
	for i := range records {
		records[i].Encode(b.slot(i))
	}
	return nil
}

// Download copies the buffer back into records.
func (b *Buffer) Download(records []kat.Record) error {
	if b.released.Load() {
		return katerr.New(katerr.Resource, 0, "download from released device buffer")
	}
	if err := kat.DecodeRecords(b.data, records); err != nil {
		return katerr.Wrap(katerr.Resource, 0, "download device buffer", err)
	}
	return nil
}

// Release frees the buffer. Calling it twice is harmless.
func (b *Buffer) Release() {
	if b.released.Swap(true) {
		return
	}
	metrics.RecordDeviceMemory(atomic.AddInt64(&allocatedBytes, -int64(len(b.data))))
	b.data = nil
}

func (b *Buffer) slot(i int) []byte {
	return b.data[i*kat.RecordSize : (i+1)*kat.RecordSize]
}

// run executes fn on record i in place.
func (b *Buffer) run(i int, fn func(*kat.Record)) {
	var r kat.Record
	s := b.slot(i)
	r.Decode(s)
	fn(&r)
	r.Encode(s)
}
