package stream

import (
	"errors"
	"fmt"

	"github.com/23skdu/longbow-kat/internal/kat"
)

var (
	// ErrHighBitsSet means the counter already uses the bits a bounded
	// generator reserves for its block index.
	ErrHighBitsSet = errors.New("stream: reserved high counter bits are set")
	// ErrExhausted is returned once all 2^bits blocks have been delivered.
	ErrExhausted = errors.New("stream: bounded generator exhausted")
)

// Bounded delivers at most 2^bits blocks derived from one counter. Block n
// is the bijection of the counter with n stored in the top bits of its
// last word, so generators over distinct counters never overlap.
type Bounded struct {
	f      *kat.Family
	rounds int
	key    []uint64
	c0     []uint64
	bits   uint

	n    uint64
	out  []uint64
	last int
}

func NewBounded(f *kat.Family, rounds int, ctr, key []uint64, bits uint) (*Bounded, error) {
	if !f.ValidRounds(rounds) {
		return nil, fmt.Errorf("stream: %s does not support %d rounds", f.Name, rounds)
	}
	if bits == 0 || bits >= uint(f.Width) {
		return nil, fmt.Errorf("stream: %d reserved bits for %d-bit words", bits, f.Width)
	}
	if err := checkWords(f, "counter", ctr, f.Lanes); err != nil {
		return nil, err
	}
	if err := checkWords(f, "key", key, f.KeyWords); err != nil {
		return nil, err
	}
	if ctr[f.Lanes-1]>>(uint(f.Width)-bits) != 0 {
		return nil, ErrHighBitsSet
	}
	return &Bounded{
		f:      f,
		rounds: rounds,
		key:    append([]uint64(nil), key...),
		c0:     append([]uint64(nil), ctr...),
		bits:   bits,
	}, nil
}

// Remaining is the number of words still available.
func (b *Bounded) Remaining() uint64 {
	return (uint64(1)<<b.bits-b.n)*uint64(b.f.Lanes) + uint64(b.last)
}

func (b *Bounded) Next() (uint64, error) {
	if b.last == 0 {
		if b.n >= uint64(1)<<b.bits {
			return 0, ErrExhausted
		}
		c := append([]uint64(nil), b.c0...)
		c[len(c)-1] |= b.n << (uint(b.f.Width) - b.bits)
		b.out = b.f.Apply(b.rounds, c, b.key)
		b.n++
		b.last = b.f.Lanes
	}
	b.last--
	return b.out[b.last], nil
}
