package device

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/23skdu/longbow-kat/internal/kat"
	"github.com/23skdu/longbow-kat/internal/katerr"
	"github.com/23skdu/longbow-kat/internal/logger"
	"github.com/23skdu/longbow-kat/internal/metrics"
)

// Grid launches cores*workGroup lanes over a device buffer. Each lane
// owns one contiguous shard of ceil(N/lanes) records and runs the same
// dispatch as the host loop.
type Grid struct {
	info      Info
	workGroup int
}

func NewGrid(workGroup int) *Grid {
	if workGroup <= 0 {
		workGroup = 1
	}
	return &Grid{info: Probe(), workGroup: workGroup}
}

func (g *Grid) Name() string { return "grid" }

// Lanes is the total lane count of one launch.
func (g *Grid) Lanes() int {
	return g.info.Cores * g.workGroup
}

func (g *Grid) Execute(ctx context.Context, records []kat.Record) error {
	n := len(records)
	if n == 0 {
		return nil
	}
	start := time.Now()

	buf, err := Alloc(n)
	if err != nil {
		return err
	}
	defer buf.Release()
	if err := buf.Upload(records); err != nil {
		return err
	}

	lanes := g.Lanes()
	shard := (n + lanes - 1) / lanes
	logger.Log.Debug("grid launch", "device", g.info.String(), "lanes", lanes, "shard", shard, "records", n)

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.info.Cores)
	launched := 0
	for lane := 0; lane < lanes; lane++ {
		lo := lane * shard
		if lo >= n {
			break
		}
		if egctx.Err() != nil {
			break
		}
		hi := min(lo+shard, n)
		lane := lane
		launched++
		eg.Go(func() error {
			return runLane(lane, func() {
				for i := lo; i < hi; i++ {
					buf.run(i, kat.Compute)
				}
			})
		})
	}
	// barrier
	if err := eg.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return katerr.Wrap(katerr.Resource, 0, "grid launch interrupted", err)
	}
	metrics.RecordLaunch("grid", launched)

	if err := buf.Download(records); err != nil {
		return err
	}
	metrics.RecordBackendDuration("grid", time.Since(start))
	return nil
}

// runLane turns a panic inside lane code into a launch fault.
func runLane(lane int, body func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = katerr.New(katerr.Resource, 0, fmt.Sprintf("lane %d aborted: %v", lane, r))
		}
	}()
	body()
	return nil
}
