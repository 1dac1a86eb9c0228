package kat

import (
	"bufio"
	"fmt"
	"io"

	"github.com/23skdu/longbow-kat/internal/katerr"
	"github.com/23skdu/longbow-kat/internal/logger"
	"github.com/23skdu/longbow-kat/internal/metrics"
)

// InitialCapacity is the starting size of the record array.
const InitialCapacity = 1000

const maxLineSize = 1 << 20

// Suite is the parsed contents of one golden file.
type Suite struct {
	Records  []Record
	Unknown  *UnknownTally
	Lines    int
	Comments int
	Blanks   int
}

// Append adds a record, doubling the backing array when full. Existing
// records keep their index.
func (s *Suite) Append(r Record) {
	if len(s.Records) == cap(s.Records) {
		n := 2 * cap(s.Records)
		if n == 0 {
			n = InitialCapacity
		}
		grown := make([]Record, len(s.Records), n)
		copy(grown, s.Records)
		s.Records = grown
	}
	s.Records = append(s.Records, r)
}

// Load reads a golden file strictly: a malformed vector line aborts the
// whole load with a FORMAT error.
func Load(r io.Reader, p *Parser) (*Suite, error) {
	s := &Suite{Unknown: p.Unknown}
	err := eachLine(r, func(lineNo int, line string) error {
		s.Lines = lineNo
		rec, outcome, err := p.ParseLine(line, lineNo)
		if err != nil {
			metrics.RecordFormatError()
			return err
		}
		switch outcome {
		case Accepted:
			s.Append(rec)
		case Comment:
			s.Comments++
		case Blank:
			s.Blanks++
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Log.Debug("golden file loaded", "lines", s.Lines, "records", len(s.Records), "skipped", s.Unknown.Total())
	return s, nil
}

// ScanStats summarises a lenient scan.
type ScanStats struct {
	Lines        int
	Accepted     int
	FormatErrors int
}

// Scan reads a golden file leniently, calling fn for every accepted
// record. Malformed lines are reported to errw, tallied and skipped.
func Scan(r io.Reader, p *Parser, errw io.Writer, fn func(lineNo int, rec *Record)) (ScanStats, error) {
	var st ScanStats
	err := eachLine(r, func(lineNo int, line string) error {
		st.Lines = lineNo
		rec, outcome, err := p.ParseLine(line, lineNo)
		if err != nil {
			st.FormatErrors++
			metrics.RecordFormatError()
			fmt.Fprintf(errw, "input error on line %d: %v\n", lineNo, err)
			return nil
		}
		if outcome == Accepted {
			st.Accepted++
			fn(lineNo, &rec)
		}
		return nil
	})
	return st, err
}

func eachLine(r io.Reader, fn func(lineNo int, line string) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 4096), maxLineSize)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if err := fn(lineNo, sc.Text()); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return katerr.Wrap(katerr.Resource, lineNo+1, "read input", err)
	}
	return nil
}
