// Package stream wraps a stateless bijection in sequential generators.
//
// An Engine walks the whole counter space of one key: each block of Lanes
// output words is the bijection of the current counter, delivered highest
// index first, and the counter advances by one per block. A Bounded
// generator is restricted to a single counter value and reserves the top
// bits of its last word to carve out a private run of blocks.
package stream

import (
	"fmt"
	"math/bits"

	"github.com/23skdu/longbow-kat/internal/kat"
)

// Engine is a seekable word generator over one family, round count and key.
type Engine struct {
	f      *kat.Family
	rounds int
	key    []uint64

	ctr  []uint64
	v    []uint64
	elem int
}

// NewEngine returns an engine at counter zero with no buffered words, so
// the first word comes from counter one.
func NewEngine(f *kat.Family, rounds int, key []uint64) (*Engine, error) {
	if !f.ValidRounds(rounds) {
		return nil, fmt.Errorf("stream: %s does not support %d rounds", f.Name, rounds)
	}
	if err := checkWords(f, "key", key, f.KeyWords); err != nil {
		return nil, err
	}
	return &Engine{
		f:      f,
		rounds: rounds,
		key:    append([]uint64(nil), key...),
		ctr:    make([]uint64, f.Lanes),
		v:      make([]uint64, f.Lanes),
	}, nil
}

func checkWords(f *kat.Family, what string, ws []uint64, n int) error {
	if len(ws) != n {
		return fmt.Errorf("stream: %s %s has %d words, want %d", f.Name, what, len(ws), n)
	}
	for i, w := range ws {
		if w&^f.Mask() != 0 {
			return fmt.Errorf("stream: %s %s word %d (%#x) wider than %d bits", f.Name, what, i, w, f.Width)
		}
	}
	return nil
}

func (e *Engine) Family() *kat.Family { return e.f }

// Seek positions the engine so the next words are the block for ctr.
func (e *Engine) Seek(ctr []uint64) error {
	return e.SetCounter(ctr, e.f.Lanes)
}

// SetCounter sets the counter and the number of words of its block still
// to be delivered. With elem zero the next word comes from ctr+1.
func (e *Engine) SetCounter(ctr []uint64, elem int) error {
	if elem < 0 || elem > e.f.Lanes {
		return fmt.Errorf("stream: element index %d outside [0, %d]", elem, e.f.Lanes)
	}
	if err := checkWords(e.f, "counter", ctr, e.f.Lanes); err != nil {
		return err
	}
	copy(e.ctr, ctr)
	e.elem = elem
	e.refill()
	return nil
}

// Counter returns a copy of the current counter and the number of words
// of its block not yet delivered.
func (e *Engine) Counter() ([]uint64, int) {
	return append([]uint64(nil), e.ctr...), e.elem
}

// Next returns the next word.
func (e *Engine) Next() uint64 {
	if e.elem == 0 {
		e.incr(1)
		e.elem = e.f.Lanes
		e.refill()
	}
	e.elem--
	return e.v[e.elem]
}

// Discard skips n words as if Next had been called n times.
func (e *Engine) Discard(n uint64) {
	lanes := uint64(e.f.Lanes)
	sub := int(n % lanes)
	skip := n / lanes
	if e.elem < sub {
		e.elem += e.f.Lanes
		skip++
	}
	e.elem -= sub
	e.incr(skip)
	e.refill()
}

// DiscardBlocks skips k whole blocks. It equals Discard(k*Lanes) for
// counts whose word total does not fit in 64 bits.
func (e *Engine) DiscardBlocks(k uint64) {
	e.incr(k)
	e.refill()
}

func (e *Engine) refill() {
	if e.elem != 0 {
		copy(e.v, e.f.Apply(e.rounds, e.ctr, e.key))
	}
}

// incr adds by to the counter, word zero least significant, wrapping at
// the top of the counter space.
func (e *Engine) incr(by uint64) {
	w := uint(e.f.Width)
	mask := e.f.Mask()
	carry := by
	for i := 0; i < len(e.ctr) && carry != 0; i++ {
		if w == 64 {
			var c uint64
			e.ctr[i], c = bits.Add64(e.ctr[i], carry, 0)
			carry = c
			continue
		}
		sum := e.ctr[i] + carry&mask
		e.ctr[i] = sum & mask
		carry = carry>>w + sum>>w
	}
}
