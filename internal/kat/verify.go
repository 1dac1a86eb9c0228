package kat

import (
	"fmt"
	"io"
	"strings"

	"github.com/23skdu/longbow-kat/internal/metrics"
)

// FormatWords renders the first n words of b as fixed-width zero-padded
// hex, space separated.
func FormatWords(b *Block, width, n int) string {
	var sb strings.Builder
	digits := width / 4
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%0*x", digits, b.Word(width, i))
	}
	return sb.String()
}

// FormatLine renders r as a golden-file line with out as the result
// vector.
func (f *Family) FormatLine(r *Record, out *Block) string {
	return fmt.Sprintf("%s %d %s %s %s", f.Name, r.Rounds,
		FormatWords(&r.Ctr, f.Width, f.Lanes),
		FormatWords(&r.Key, f.Width, f.KeyWords),
		FormatWords(out, f.Width, f.Lanes))
}

// ReportMismatch writes the expected and computed tuples of r.
func ReportMismatch(w io.Writer, r *Record) {
	f := Lookup(r.Family)
	fmt.Fprintf(w, "FAIL:  expected: %s\n", f.FormatLine(r, &r.Expected))
	fmt.Fprintf(w, "FAIL:  computed: %s\n", f.FormatLine(r, &r.Computed))
}

// Verify compares Computed with Expected for every record, writes a
// diagnostic for each mismatch to w and returns the number of failures.
// Records are never modified, so repeated calls give the same count.
func Verify(records []Record, w io.Writer) int {
	failed := 0
	for i := range records {
		r := &records[i]
		f := Lookup(r.Family)
		ok := f.Equal(r)
		metrics.RecordVector(f.Name, ok)
		if !ok {
			failed++
			ReportMismatch(w, r)
		}
	}
	return failed
}

// Summary is the outcome of one run.
type Summary struct {
	Tests   int            `json:"tests"`
	Failed  int            `json:"failed"`
	Skipped map[string]int `json:"skipped,omitempty"`
}

func (s Summary) Passed() bool {
	return s.Failed == 0
}

// Write prints the final pass/fail line.
func (s Summary) Write(w io.Writer) {
	if s.Failed != 0 {
		fmt.Fprintf(w, "FAILED %d out of %d\n", s.Failed, s.Tests)
		return
	}
	fmt.Fprintf(w, "PASSED %d known answer tests\n", s.Tests)
}

// WriteVectors renders records as golden-file lines using Computed as
// the expected vector, so a file can be regenerated from a trusted run.
func WriteVectors(w io.Writer, records []Record) error {
	for i := range records {
		r := &records[i]
		if _, err := fmt.Fprintln(w, Lookup(r.Family).FormatLine(r, &r.Computed)); err != nil {
			return err
		}
	}
	return nil
}
