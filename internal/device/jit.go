package device

import (
	"context"
	_ "embed"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/23skdu/longbow-kat/internal/bijection"
	"github.com/23skdu/longbow-kat/internal/kat"
	"github.com/23skdu/longbow-kat/internal/katerr"
	"github.com/23skdu/longbow-kat/internal/logger"
	"github.com/23skdu/longbow-kat/internal/metrics"
)

//go:embed kernels/kat.yaml
var programSource []byte

// ProgramSource returns the embedded device program.
func ProgramSource() []byte {
	return append([]byte(nil), programSource...)
}

type programSpec struct {
	Name         string       `yaml:"program"`
	Version      int          `yaml:"version"`
	MaxWorkGroup int          `yaml:"max_work_group"`
	Kernels      []kernelSpec `yaml:"kernels"`
}

type kernelSpec struct {
	Family   string `yaml:"family"`
	Round    string `yaml:"round"`
	Lanes    int    `yaml:"lanes"`
	Width    int    `yaml:"width"`
	KeyWords int    `yaml:"key_words"`
}

type kernel func(r *kat.Record)

// binder turns a round primitive name into a kernel for one family.
type binder func(f *kat.Family) (kernel, error)

var binders = map[string]binder{
	"philox":   bindFamily("philox"),
	"threefry": bindFamily("threefry"),
	"ars":      bindARS,
	"aes128":   bindAES128,
}

// Program is a compiled device program.
type Program struct {
	Name         string
	Version      int
	MaxWorkGroup int
	Fingerprint  string

	kernels map[kat.Tag]kernel
}

// Families lists the families the program has kernels for.
func (p *Program) Families() []string {
	var out []string
	for _, f := range kat.Families() {
		if _, ok := p.kernels[f.Tag]; ok {
			out = append(out, f.Name)
		}
	}
	return out
}

// Compile parses and binds a device program. Every kernel must match the
// declared shape of its family exactly.
func Compile(src []byte) (*Program, error) {
	start := time.Now()
	var spec programSpec
	if err := yaml.Unmarshal(src, &spec); err != nil {
		return nil, katerr.Wrap(katerr.Resource, 0, "parse device program", err)
	}
	if spec.Name == "" || len(spec.Kernels) == 0 {
		return nil, katerr.New(katerr.Resource, 0, "device program has no kernels")
	}

	sum := blake2b.Sum256(src)
	p := &Program{
		Name:         spec.Name,
		Version:      spec.Version,
		MaxWorkGroup: spec.MaxWorkGroup,
		Fingerprint:  hex.EncodeToString(sum[:]),
		kernels:      make(map[kat.Tag]kernel, len(spec.Kernels)),
	}
	for _, ks := range spec.Kernels {
		f, ok := kat.ByName(ks.Family)
		if !ok {
			return nil, katerr.New(katerr.Resource, 0, fmt.Sprintf("compile kernel %q: unknown family", ks.Family))
		}
		if ks.Lanes != f.Lanes || ks.Width != f.Width || ks.KeyWords != f.KeyWords {
			return nil, katerr.New(katerr.Resource, 0, fmt.Sprintf(
				"compile kernel %s: declares %dx%d with %d key words, family is %dx%d with %d",
				ks.Family, ks.Lanes, ks.Width, ks.KeyWords, f.Lanes, f.Width, f.KeyWords))
		}
		bind, ok := binders[ks.Round]
		if !ok {
			return nil, katerr.New(katerr.Resource, 0, fmt.Sprintf("compile kernel %s: unknown round %q", ks.Family, ks.Round))
		}
		k, err := bind(f)
		if err != nil {
			return nil, katerr.Wrap(katerr.Resource, 0, "compile kernel "+ks.Family, err)
		}
		if _, dup := p.kernels[f.Tag]; dup {
			return nil, katerr.New(katerr.Resource, 0, fmt.Sprintf("compile kernel %s: defined twice", ks.Family))
		}
		p.kernels[f.Tag] = k
	}
	metrics.RecordKernelCompile(time.Since(start))
	return p, nil
}

func bindFamily(algorithm string) binder {
	return func(f *kat.Family) (kernel, error) {
		if f.Algorithm != algorithm {
			return nil, fmt.Errorf("%s is not a %s family", f.Name, algorithm)
		}
		return func(r *kat.Record) {
			out := f.Apply(int(r.Rounds), r.Ctr.Words(f.Width, f.Lanes), r.Key.Words(f.Width, f.KeyWords))
			r.Computed.SetWords(f.Width, out)
		}, nil
	}
}

func block4x32(b *kat.Block) [4]uint32 {
	return [4]uint32{uint32(b.Word(32, 0)), uint32(b.Word(32, 1)), uint32(b.Word(32, 2)), uint32(b.Word(32, 3))}
}

func storeBlock(dst *kat.Block, v bijection.Block128) {
	w := bijection.StoreBlock(v)
	for i, x := range w {
		dst.SetWord(32, i, uint64(x))
	}
}

func need4x32(f *kat.Family) error {
	if f.Lanes != 4 || f.Width != 32 || f.KeyWords != 4 {
		return fmt.Errorf("%s is not a 4x32 block family", f.Name)
	}
	return nil
}

// bindARS composes ARS from single AES rounds.
func bindARS(f *kat.Family) (kernel, error) {
	if err := need4x32(f); err != nil {
		return nil, err
	}
	return func(r *kat.Record) {
		k := bijection.LoadBlock(block4x32(&r.Key))
		v := bijection.LoadBlock(block4x32(&r.Ctr))
		for i := range v {
			v[i] ^= k[i]
		}
		for i := uint32(1); i < r.Rounds; i++ {
			k = bijection.ARSWeylStep(k)
			v = bijection.AESEnc(v, k)
		}
		k = bijection.ARSWeylStep(k)
		storeBlock(&r.Computed, bijection.AESEncLast(v, k))
	}, nil
}

// bindAES128 expands the key per record and runs the ten AES rounds.
func bindAES128(f *kat.Family) (kernel, error) {
	if err := need4x32(f); err != nil {
		return nil, err
	}
	return func(r *kat.Record) {
		sched := bijection.AESNI4x32KeyInit(block4x32(&r.Key))
		v := bijection.LoadBlock(block4x32(&r.Ctr))
		for i := range v {
			v[i] ^= sched[0][i]
		}
		for i := 1; i < bijection.AESNIRounds; i++ {
			v = bijection.AESEnc(v, sched[i])
		}
		storeBlock(&r.Computed, bijection.AESEncLast(v, sched[bijection.AESNIRounds]))
	}, nil
}

// JIT runs a compiled device program. Work items walk the record array
// with a grid-stride loop; each work group is one goroutine.
type JIT struct {
	info      Info
	workGroup int
	prog      *Program
}

// NewJIT compiles the embedded program.
func NewJIT(workGroup int) (*JIT, error) {
	return NewJITProgram(programSource, workGroup)
}

// NewJITProgram compiles src. A work-group size above the program's
// limit is halved.
func NewJITProgram(src []byte, workGroup int) (*JIT, error) {
	prog, err := Compile(src)
	if err != nil {
		return nil, err
	}
	if workGroup <= 0 {
		workGroup = 1
	}
	if prog.MaxWorkGroup > 0 && workGroup > prog.MaxWorkGroup {
		workGroup /= 2
	}
	j := &JIT{info: Probe(), workGroup: workGroup, prog: prog}
	logger.Log.Debug("device program compiled",
		"program", prog.Name,
		"version", prog.Version,
		"fingerprint", prog.Fingerprint[:16],
		"kernels", len(prog.kernels),
		"work_group", workGroup)
	return j, nil
}

func (j *JIT) Name() string { return "jit" }

func (j *JIT) WorkGroupSize() int { return j.workGroup }

func (j *JIT) Program() *Program { return j.prog }

func (j *JIT) Execute(ctx context.Context, records []kat.Record) error {
	n := len(records)
	if n == 0 {
		return nil
	}
	for i := range records {
		if _, ok := j.prog.kernels[records[i].Family]; !ok {
			return katerr.New(katerr.Resource, 0, fmt.Sprintf("launch: no kernel for family %s", records[i].Family))
		}
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

	groups := j.info.Cores
	wg := j.workGroup
	total := groups * wg
	dispatch := func(r *kat.Record) { j.prog.kernels[r.Family](r) }

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(groups)
	for g := 0; g < groups; g++ {
		if egctx.Err() != nil {
			break
		}
		g := g
		eg.Go(func() error {
			return runLane(g, func() {
				for l := 0; l < wg; l++ {
					for i := g*wg + l; i < n; i += total {
						buf.run(i, dispatch)
					}
				}
			})
		})
	}
	// barrier
	if err := eg.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return katerr.Wrap(katerr.Resource, 0, "jit launch interrupted", err)
	}
	metrics.RecordLaunch("jit", total)

	if err := buf.Download(records); err != nil {
		return err
	}
	metrics.RecordBackendDuration("jit", time.Since(start))
	return nil
}
