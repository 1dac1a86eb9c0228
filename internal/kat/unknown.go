package kat

import (
	"fmt"
	"io"

	"github.com/23skdu/longbow-kat/internal/metrics"
)

// UnknownTally counts skipped vector lines per family name, remembering
// the order in which names were first seen.
type UnknownTally struct {
	names  []string
	counts map[string]int
}

func NewUnknownTally() *UnknownTally {
	return &UnknownTally{counts: make(map[string]int)}
}

func (u *UnknownTally) Add(name string) {
	if _, ok := u.counts[name]; !ok {
		u.names = append(u.names, name)
	}
	u.counts[name]++
	metrics.RecordUnknown(name)
}

func (u *UnknownTally) Count(name string) int {
	return u.counts[name]
}

// Names returns the tallied names in first-seen order.
func (u *UnknownTally) Names() []string {
	return append([]string(nil), u.names...)
}

func (u *UnknownTally) Total() int {
	n := 0
	for _, c := range u.counts {
		n += c
	}
	return n
}

// Report writes one line per name.
func (u *UnknownTally) Report(w io.Writer) {
	for _, name := range u.names {
		fmt.Fprintf(w, "%d test vectors of type %s skipped\n", u.counts[name], name)
	}
}
