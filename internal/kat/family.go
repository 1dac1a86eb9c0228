package kat

import (
	"bytes"
	"fmt"

	"github.com/23skdu/longbow-kat/internal/bijection"
)

// Tag identifies one (algorithm, lanes, width) family. The set is closed:
// adding a family means adding a Tag and registering its Family below.
type Tag uint32

const (
	TagUnknown Tag = iota
	Philox2x32
	Philox4x32
	Philox2x64
	Philox4x64
	Threefry2x32
	Threefry4x32
	Threefry2x64
	Threefry4x64
	ARS4x32
	AESNI4x32
	numTags
)

// Family is the operation bundle for one tag: its declared shape and the
// compute step bound to the bijection. Parsing, comparison and formatting
// are driven by the shape.
type Family struct {
	Tag           Tag
	Name          string
	Algorithm     string
	Lanes         int
	Width         int
	KeyWords      int
	DefaultRounds int
	MinRounds     int
	MaxRounds     int
	NeedsAES      bool

	compute func(r *Record)
}

var (
	families [numTags]*Family
	byName   = map[string]*Family{}
)

func register(f *Family) {
	if families[f.Tag] != nil {
		panic(fmt.Sprintf("kat: family %s registered twice", f.Name))
	}
	families[f.Tag] = f
	byName[f.Name] = f
}

func init() {
	register(&Family{Tag: Philox2x32, Name: "philox2x32", Algorithm: "philox", Lanes: 2, Width: 32, KeyWords: 1,
		DefaultRounds: bijection.PhiloxDefaultRounds, MaxRounds: bijection.PhiloxMaxRounds,
		compute: func(r *Record) {
			out := bijection.Philox2x32(int(r.Rounds), [2]uint32{r.Ctr.u32(0), r.Ctr.u32(1)}, [1]uint32{r.Key.u32(0)})
			r.Computed.put32(out[:]...)
		}})
	register(&Family{Tag: Philox4x32, Name: "philox4x32", Algorithm: "philox", Lanes: 4, Width: 32, KeyWords: 2,
		DefaultRounds: bijection.PhiloxDefaultRounds, MaxRounds: bijection.PhiloxMaxRounds,
		compute: func(r *Record) {
			out := bijection.Philox4x32(int(r.Rounds),
				[4]uint32{r.Ctr.u32(0), r.Ctr.u32(1), r.Ctr.u32(2), r.Ctr.u32(3)},
				[2]uint32{r.Key.u32(0), r.Key.u32(1)})
			r.Computed.put32(out[:]...)
		}})
	register(&Family{Tag: Philox2x64, Name: "philox2x64", Algorithm: "philox", Lanes: 2, Width: 64, KeyWords: 1,
		DefaultRounds: bijection.PhiloxDefaultRounds, MaxRounds: bijection.PhiloxMaxRounds,
		compute: func(r *Record) {
			out := bijection.Philox2x64(int(r.Rounds), [2]uint64{r.Ctr.u64(0), r.Ctr.u64(1)}, [1]uint64{r.Key.u64(0)})
			r.Computed.put64(out[:]...)
		}})
	register(&Family{Tag: Philox4x64, Name: "philox4x64", Algorithm: "philox", Lanes: 4, Width: 64, KeyWords: 2,
		DefaultRounds: bijection.PhiloxDefaultRounds, MaxRounds: bijection.PhiloxMaxRounds,
		compute: func(r *Record) {
			out := bijection.Philox4x64(int(r.Rounds),
				[4]uint64{r.Ctr.u64(0), r.Ctr.u64(1), r.Ctr.u64(2), r.Ctr.u64(3)},
				[2]uint64{r.Key.u64(0), r.Key.u64(1)})
			r.Computed.put64(out[:]...)
		}})
	register(&Family{Tag: Threefry2x32, Name: "threefry2x32", Algorithm: "threefry", Lanes: 2, Width: 32, KeyWords: 2,
		DefaultRounds: bijection.ThreefryDefaultRounds, MaxRounds: bijection.Threefry2MaxRounds,
		compute: func(r *Record) {
			out := bijection.Threefry2x32(int(r.Rounds), [2]uint32{r.Ctr.u32(0), r.Ctr.u32(1)}, [2]uint32{r.Key.u32(0), r.Key.u32(1)})
			r.Computed.put32(out[:]...)
		}})
	register(&Family{Tag: Threefry4x32, Name: "threefry4x32", Algorithm: "threefry", Lanes: 4, Width: 32, KeyWords: 4,
		DefaultRounds: bijection.ThreefryDefaultRounds, MaxRounds: bijection.Threefry4MaxRounds,
		compute: func(r *Record) {
			out := bijection.Threefry4x32(int(r.Rounds),
				[4]uint32{r.Ctr.u32(0), r.Ctr.u32(1), r.Ctr.u32(2), r.Ctr.u32(3)},
				[4]uint32{r.Key.u32(0), r.Key.u32(1), r.Key.u32(2), r.Key.u32(3)})
			r.Computed.put32(out[:]...)
		}})
	register(&Family{Tag: Threefry2x64, Name: "threefry2x64", Algorithm: "threefry", Lanes: 2, Width: 64, KeyWords: 2,
		DefaultRounds: bijection.ThreefryDefaultRounds, MaxRounds: bijection.Threefry2MaxRounds,
		compute: func(r *Record) {
			out := bijection.Threefry2x64(int(r.Rounds), [2]uint64{r.Ctr.u64(0), r.Ctr.u64(1)}, [2]uint64{r.Key.u64(0), r.Key.u64(1)})
			r.Computed.put64(out[:]...)
		}})
	register(&Family{Tag: Threefry4x64, Name: "threefry4x64", Algorithm: "threefry", Lanes: 4, Width: 64, KeyWords: 4,
		DefaultRounds: bijection.ThreefryDefaultRounds, MaxRounds: bijection.Threefry4MaxRounds,
		compute: func(r *Record) {
			out := bijection.Threefry4x64(int(r.Rounds),
				[4]uint64{r.Ctr.u64(0), r.Ctr.u64(1), r.Ctr.u64(2), r.Ctr.u64(3)},
				[4]uint64{r.Key.u64(0), r.Key.u64(1), r.Key.u64(2), r.Key.u64(3)})
			r.Computed.put64(out[:]...)
		}})
	register(&Family{Tag: ARS4x32, Name: "ars4x32", Algorithm: "ars", Lanes: 4, Width: 32, KeyWords: 4,
		DefaultRounds: bijection.ARSDefaultRounds, MinRounds: 1, MaxRounds: bijection.ARSMaxRounds, NeedsAES: true,
		compute: func(r *Record) {
			out := bijection.ARS4x32(int(r.Rounds),
				[4]uint32{r.Ctr.u32(0), r.Ctr.u32(1), r.Ctr.u32(2), r.Ctr.u32(3)},
				[4]uint32{r.Key.u32(0), r.Key.u32(1), r.Key.u32(2), r.Key.u32(3)})
			r.Computed.put32(out[:]...)
		}})
	register(&Family{Tag: AESNI4x32, Name: "aesni4x32", Algorithm: "aesni", Lanes: 4, Width: 32, KeyWords: 4,
		DefaultRounds: bijection.AESNIRounds, MinRounds: bijection.AESNIRounds, MaxRounds: bijection.AESNIRounds, NeedsAES: true,
		compute: func(r *Record) {
			key := bijection.AESNI4x32KeyInit([4]uint32{r.Key.u32(0), r.Key.u32(1), r.Key.u32(2), r.Key.u32(3)})
			out := bijection.AESNI4x32(int(r.Rounds),
				[4]uint32{r.Ctr.u32(0), r.Ctr.u32(1), r.Ctr.u32(2), r.Ctr.u32(3)}, key)
			r.Computed.put32(out[:]...)
		}})
}

// Lookup returns the family for tag. An unregistered tag is a logic
// fault, never a silent skip.
func Lookup(tag Tag) *Family {
	if tag >= numTags || families[tag] == nil {
		panic(fmt.Sprintf("kat: no family registered for tag %d", tag))
	}
	return families[tag]
}

// ByName returns the family with the given name.
func ByName(name string) (*Family, bool) {
	f, ok := byName[name]
	return f, ok
}

// Families lists every registered family in tag order.
func Families() []*Family {
	out := make([]*Family, 0, len(byName))
	for _, f := range families {
		if f != nil {
			out = append(out, f)
		}
	}
	return out
}

func (t Tag) String() string {
	if t < numTags && families[t] != nil {
		return families[t].Name
	}
	return fmt.Sprintf("Tag(%d)", uint32(t))
}

// Compute applies the family's bijection to r, overwriting r.Computed
// only.
func Compute(r *Record) {
	Lookup(r.Family).compute(r)
}

// Apply runs the bijection on word slices, each word held in a uint64
// regardless of width. ctr must have Lanes words and key KeyWords words.
func (f *Family) Apply(rounds int, ctr, key []uint64) []uint64 {
	r := Record{Family: f.Tag, Rounds: uint32(rounds)}
	r.Ctr.SetWords(f.Width, ctr)
	r.Key.SetWords(f.Width, key)
	f.compute(&r)
	return r.Computed.Words(f.Width, f.Lanes)
}

// ApplyDefault runs the bijection at the family's default round count.
func (f *Family) ApplyDefault(ctr, key []uint64) []uint64 {
	return f.Apply(f.DefaultRounds, ctr, key)
}

// Equal compares computed and expected over every counter word.
func (f *Family) Equal(r *Record) bool {
	n := f.Lanes * f.Width / 8
	return bytes.Equal(r.Computed[:n], r.Expected[:n])
}

// ValidRounds reports whether n is within the family's round bounds.
func (f *Family) ValidRounds(n int) bool {
	return n >= f.MinRounds && n <= f.MaxRounds
}

// Mask returns the all-ones word for the family width.
func (f *Family) Mask() uint64 {
	if f.Width == 64 {
		return ^uint64(0)
	}
	return 1<<uint(f.Width) - 1
}
