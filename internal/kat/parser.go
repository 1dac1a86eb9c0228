package kat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/23skdu/longbow-kat/internal/katerr"
	"github.com/23skdu/longbow-kat/internal/logger"
)

// Outcome classifies a parsed line.
type Outcome int

const (
	Accepted Outcome = iota
	Blank
	Comment
	Unrecognized
	Malformed
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Blank:
		return "blank"
	case Comment:
		return "comment"
	case Unrecognized:
		return "unrecognized"
	case Malformed:
		return "malformed"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Parser turns golden-file lines into records. Families that need AES
// instructions are treated as unrecognized when hasAES is false.
type Parser struct {
	hasAES  bool
	Unknown *UnknownTally

	// OnFirstUnknown, when set, is called the first time each
	// unrecognized family name is seen. rounds is empty if the line has
	// no second field.
	OnFirstUnknown func(lineNo int, name, rounds string)
}

func NewParser(hasAES bool) *Parser {
	return &Parser{hasAES: hasAES, Unknown: NewUnknownTally()}
}

// ParseLine parses one line. Comments, blanks and unrecognized families
// are rejections, not errors; only a malformed vector yields an error,
// always with the Malformed outcome.
func (p *Parser) ParseLine(line string, lineNo int) (Record, Outcome, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return Record{}, Blank, nil
	}
	if trimmed[0] == '#' {
		return Record{}, Comment, nil
	}
	fields := strings.Fields(trimmed)
	f, ok := ByName(fields[0])
	if !ok || (f.NeedsAES && !p.hasAES) {
		p.Unknown.Add(fields[0])
		if p.OnFirstUnknown != nil && p.Unknown.Count(fields[0]) == 1 {
			rounds := ""
			if len(fields) > 1 {
				rounds = fields[1]
			}
			p.OnFirstUnknown(lineNo, fields[0], rounds)
		}
		logger.Log.Debug("skipping vector", "line", lineNo, "family", fields[0], "known", ok)
		return Record{}, Unrecognized, nil
	}
	rec, err := f.Parse(fields[1:], lineNo)
	if err != nil {
		return Record{}, Malformed, err
	}
	return rec, Accepted, nil
}

// Parse reads the round count, then Lanes counter words, KeyWords key
// words and Lanes expected words, in that order. Trailing fields are
// ignored.
func (f *Family) Parse(fields []string, lineNo int) (Record, error) {
	rec := Record{Family: f.Tag}
	if len(fields) == 0 {
		return rec, katerr.New(katerr.Format, lineNo, fmt.Sprintf("%s: missing round count", f.Name))
	}
	rounds, err := strconv.ParseUint(fields[0], 10, 32)
	if err != nil {
		return rec, katerr.Wrap(katerr.Format, lineNo, fmt.Sprintf("%s: bad round count %q", f.Name, fields[0]), err)
	}
	if !f.ValidRounds(int(rounds)) {
		return rec, katerr.New(katerr.Format, lineNo,
			fmt.Sprintf("%s: %d rounds outside [%d, %d]", f.Name, rounds, f.MinRounds, f.MaxRounds))
	}
	rec.Rounds = uint32(rounds)

	words := fields[1:]
	pos := 0
	read := func(dst *Block, what string, n int) error {
		for i := 0; i < n; i++ {
			if pos >= len(words) {
				return katerr.New(katerr.Format, lineNo,
					fmt.Sprintf("ran out of words reading %s: %s %d", what, f.Name, rounds))
			}
			v, err := strconv.ParseUint(words[pos], 16, f.Width)
			if err != nil {
				return katerr.Wrap(katerr.Format, lineNo, fmt.Sprintf("%s: bad %s word %q", f.Name, what, words[pos]), err)
			}
			dst.SetWord(f.Width, i, v)
			pos++
		}
		return nil
	}
	if err := read(&rec.Ctr, "ctr", f.Lanes); err != nil {
		return rec, err
	}
	if err := read(&rec.Key, "ukey", f.KeyWords); err != nil {
		return rec, err
	}
	if err := read(&rec.Expected, "expected", f.Lanes); err != nil {
		return rec, err
	}
	return rec, nil
}
