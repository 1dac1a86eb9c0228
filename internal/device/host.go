package device

import (
	"context"
	"time"

	"github.com/23skdu/longbow-kat/internal/kat"
	"github.com/23skdu/longbow-kat/internal/metrics"
)

// Host is the reference strategy: one sequential pass on the calling
// goroutine.
type Host struct{}

func (Host) Name() string { return "host" }

func (Host) Execute(ctx context.Context, records []kat.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	for i := range records {
		kat.Compute(&records[i])
	}
	metrics.RecordBackendDuration("host", time.Since(start))
	return nil
}
