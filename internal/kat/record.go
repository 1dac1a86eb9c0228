package kat

import (
	"encoding/binary"
	"fmt"
)

// BlockSize holds the widest vector of any family: four 64-bit words.
const BlockSize = 32

// RecordSize is the fixed encoded size of a Record.
const RecordSize = 8 + 4*BlockSize

// Block is raw little-endian word storage shared by every family. The
// family decides the word width and how many words are meaningful; the
// remaining bytes stay zero.
type Block [BlockSize]byte

// Word returns word i at the given width in bits.
func (b *Block) Word(width, i int) uint64 {
	switch width {
	case 32:
		return uint64(binary.LittleEndian.Uint32(b[4*i:]))
	case 64:
		return binary.LittleEndian.Uint64(b[8*i:])
	}
	panic(fmt.Sprintf("kat: unsupported word width %d", width))
}

// SetWord stores v as word i at the given width, truncating to the width.
func (b *Block) SetWord(width, i int, v uint64) {
	switch width {
	case 32:
		binary.LittleEndian.PutUint32(b[4*i:], uint32(v))
	case 64:
		binary.LittleEndian.PutUint64(b[8*i:], v)
	default:
		panic(fmt.Sprintf("kat: unsupported word width %d", width))
	}
}

// Words returns the first n words at the given width.
func (b *Block) Words(width, n int) []uint64 {
	out := make([]uint64, n)
	for i := range out {
		out[i] = b.Word(width, i)
	}
	return out
}

// SetWords stores ws starting at word 0.
func (b *Block) SetWords(width int, ws []uint64) {
	for i, v := range ws {
		b.SetWord(width, i, v)
	}
}

func (b *Block) u32(i int) uint32 { return binary.LittleEndian.Uint32(b[4*i:]) }
func (b *Block) u64(i int) uint64 { return binary.LittleEndian.Uint64(b[8*i:]) }

func (b *Block) put32(ws ...uint32) {
	for i, v := range ws {
		binary.LittleEndian.PutUint32(b[4*i:], v)
	}
}

func (b *Block) put64(ws ...uint64) {
	for i, v := range ws {
		binary.LittleEndian.PutUint64(b[8*i:], v)
	}
}

// Record is one test vector. Its layout is closed and fixed-size so that
// an array of records can be copied to device memory and back verbatim.
type Record struct {
	Family   Tag
	Rounds   uint32
	Ctr      Block
	Key      Block
	Expected Block
	Computed Block
}

// Encode writes the record into dst, which must hold RecordSize bytes.
func (r *Record) Encode(dst []byte) {
	_ = dst[RecordSize-1]
	binary.LittleEndian.PutUint32(dst[0:], uint32(r.Family))
	binary.LittleEndian.PutUint32(dst[4:], r.Rounds)
	off := 8
	for _, b := range []*Block{&r.Ctr, &r.Key, &r.Expected, &r.Computed} {
		copy(dst[off:off+BlockSize], b[:])
		off += BlockSize
	}
}

// Decode reads a record previously written by Encode.
func (r *Record) Decode(src []byte) {
	_ = src[RecordSize-1]
	r.Family = Tag(binary.LittleEndian.Uint32(src[0:]))
	r.Rounds = binary.LittleEndian.Uint32(src[4:])
	off := 8
	for _, b := range []*Block{&r.Ctr, &r.Key, &r.Expected, &r.Computed} {
		copy(b[:], src[off:off+BlockSize])
		off += BlockSize
	}
}

// EncodeRecords packs records into one contiguous buffer.
func EncodeRecords(records []Record) []byte {
	buf := make([]byte, len(records)*RecordSize)
	for i := range records {
		records[i].Encode(buf[i*RecordSize:])
	}
	return buf
}

// DecodeRecords unpacks buf into dst, which must have room for every
// encoded record.
func DecodeRecords(buf []byte, dst []Record) error {
	if len(buf)%RecordSize != 0 {
		return fmt.Errorf("kat: buffer length %d is not a multiple of %d", len(buf), RecordSize)
	}
	n := len(buf) / RecordSize
	if n > len(dst) {
		return fmt.Errorf("kat: %d encoded records do not fit in %d", n, len(dst))
	}
	for i := 0; i < n; i++ {
		dst[i].Decode(buf[i*RecordSize:])
	}
	return nil
}
