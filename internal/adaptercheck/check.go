// Package adaptercheck verifies that the stream generators reproduce the
// raw bijection on known-answer vectors.
package adaptercheck

import (
	"fmt"
	"io"
	"math/bits"

	"github.com/23skdu/longbow-kat/internal/kat"
	"github.com/23skdu/longbow-kat/internal/logger"
	"github.com/23skdu/longbow-kat/internal/metrics"
	"github.com/23skdu/longbow-kat/internal/stream"
)

// Tally accumulates results over a run.
type Tally struct {
	Checked   int `json:"checked"`
	Errors    int `json:"errors"`
	Skipped   int `json:"skipped"`
	Discarded int `json:"discarded"`
}

// Merge adds o into t.
func (t *Tally) Merge(o Tally) {
	t.Checked += o.Checked
	t.Errors += o.Errors
	t.Skipped += o.Skipped
	t.Discarded += o.Discarded
}

// Report prints the skip and discard totals, when non-zero, and the final
// verdict.
func (t Tally) Report(w io.Writer) {
	if t.Skipped != 0 {
		fmt.Fprintf(w, "Skipped %d MicroURNG tests because high-bit was set.\n", t.Skipped)
	}
	if t.Discarded != 0 {
		fmt.Fprintf(w, "Discarded %d times from Engines.\n", t.Discarded)
	}
	if t.Errors == 0 {
		fmt.Fprintf(w, "OK %d tests passed\n", t.Checked)
		return
	}
	fmt.Fprintf(w, "FAILED %d errors, (%d tests run)\n", t.Errors, t.Checked)
}

// Checker runs the three checks on each record: direct invocation, a
// seeking Engine and a one-bit Bounded generator.
type Checker struct {
	Tally
	errw io.Writer
}

// New returns a checker writing diagnostics to errw.
func New(errw io.Writer) *Checker {
	return &Checker{errw: errw}
}

// Check verifies one record and returns the number of errors found. The
// direct result is stored in r.Computed.
func (c *Checker) Check(r *kat.Record, lineNo int) int {
	f := kat.Lookup(r.Family)
	rounds := int(r.Rounds)
	ctr := r.Ctr.Words(f.Width, f.Lanes)
	key := r.Key.Words(f.Width, f.KeyWords)
	expected := r.Expected.Words(f.Width, f.Lanes)
	c.Checked++

	kat.Compute(r)
	if !f.Equal(r) {
		fmt.Fprintf(c.errw, "%s error: line %d: %s\n", f.Name, lineNo, f.FormatLine(r, &r.Expected))
		fmt.Fprintf(c.errw, "  got: %s\n", kat.FormatWords(&r.Computed, f.Width, f.Lanes))
		metrics.RecordAdapterCheck("direct", "fail")
		c.Errors++
		return 1
	}

	errs := c.checkEngine(f, rounds, ctr, key, expected, lineNo)
	errs += c.checkBounded(f, rounds, ctr, key, expected, lineNo)
	c.Errors += errs
	return errs
}

// checkEngine seeks to a counter behind the target, then resynchronises
// with one pull, one discard and the rest of that block before comparing
// a full block in delivery order.
func (c *Checker) checkEngine(f *kat.Family, rounds int, ctr, key, expected []uint64, lineNo int) int {
	e, err := stream.NewEngine(f, rounds, key)
	if err != nil {
		fmt.Fprintf(c.errw, "%s error line %d: %v\n", f.Name, lineNo, err)
		metrics.RecordAdapterCheck("engine", "fail")
		return 1
	}
	c0 := ctr[0]
	reduced := append([]uint64(nil), ctr...)
	reduced[0] /= 3
	if err := e.Seek(reduced); err != nil {
		fmt.Fprintf(c.errw, "%s error line %d: %v\n", f.Name, lineNo, err)
		metrics.RecordAdapterCheck("engine", "fail")
		return 1
	}
	if c0 > reduced[0] {
		e.Next()
		if c0 > reduced[0]+1 {
			blocks := c0 - reduced[0] - 1
			hi, words := bits.Mul64(blocks, uint64(f.Lanes))
			if hi == 0 {
				e.Discard(words)
			} else {
				e.DiscardBlocks(blocks)
			}
			c.Discarded++
			metrics.RecordDiscard()
			logger.Log.Debug("engine discard", "family", f.Name, "line", lineNo, "blocks", blocks)
		}
		for i := 1; i < f.Lanes; i++ {
			e.Next()
		}
	}

	errs := 0
	for i := 0; i < f.Lanes; i++ {
		val := e.Next()
		j := f.Lanes - i - 1
		if val != expected[j] {
			fmt.Fprintf(c.errw, "%s error line %d: engine %d returned %x, expected %d is %x\n",
				f.Name, lineNo, i, val, j, expected[j])
			errs++
		}
	}
	metrics.RecordAdapterCheck("engine", result(errs))
	return errs
}

// checkBounded needs the top bit of the last counter word to be free.
func (c *Checker) checkBounded(f *kat.Family, rounds int, ctr, key, expected []uint64, lineNo int) int {
	if ctr[f.Lanes-1]>>(uint(f.Width)-1) != 0 {
		c.Skipped++
		metrics.RecordAdapterCheck("bounded", "skipped")
		return 0
	}
	b, err := stream.NewBounded(f, rounds, ctr, key, 1)
	if err != nil {
		fmt.Fprintf(c.errw, "%s error line %d: %v\n", f.Name, lineNo, err)
		metrics.RecordAdapterCheck("bounded", "fail")
		return 1
	}
	errs := 0
	for i := 0; i < f.Lanes; i++ {
		val, err := b.Next()
		j := f.Lanes - i - 1
		if err != nil || val != expected[j] {
			fmt.Fprintf(c.errw, "%s error line %d: microurng %d returned %x, expected %d is %x\n",
				f.Name, lineNo, i, val, j, expected[j])
			errs++
		}
	}
	metrics.RecordAdapterCheck("bounded", result(errs))
	return errs
}

func result(errs int) string {
	if errs == 0 {
		return "pass"
	}
	return "fail"
}
