package bijection

import (
	"encoding/binary"
	"math/bits"
)

// Block128 is a 128-bit AES state in the byte order of a little-endian
// load of four 32-bit words.
type Block128 [16]byte

var sbox [256]byte

func init() {
	p, q := byte(1), byte(1)
	for {
		var carry byte
		if p&0x80 != 0 {
			carry = 0x1b
		}
		p = p ^ (p << 1) ^ carry

		q ^= q << 1
		q ^= q << 2
		q ^= q << 4
		if q&0x80 != 0 {
			q ^= 0x09
		}
		x := q ^ bits.RotateLeft8(q, 1) ^ bits.RotateLeft8(q, 2) ^ bits.RotateLeft8(q, 3) ^ bits.RotateLeft8(q, 4)
		sbox[p] = x ^ 0x63
		if p == 1 {
			break
		}
	}
	sbox[0] = 0x63
}

func xtime(a byte) byte {
	if a&0x80 != 0 {
		return a<<1 ^ 0x1b
	}
	return a << 1
}

func subShift(s Block128) Block128 {
	var out Block128
	for c := 0; c < 4; c++ {
		for r := 0; r < 4; r++ {
			out[4*c+r] = sbox[s[4*((c+r)%4)+r]]
		}
	}
	return out
}

func mixColumns(s Block128) Block128 {
	var out Block128
	for c := 0; c < 4; c++ {
		a0, a1, a2, a3 := s[4*c], s[4*c+1], s[4*c+2], s[4*c+3]
		out[4*c] = xtime(a0) ^ xtime(a1) ^ a1 ^ a2 ^ a3
		out[4*c+1] = a0 ^ xtime(a1) ^ xtime(a2) ^ a2 ^ a3
		out[4*c+2] = a0 ^ a1 ^ xtime(a2) ^ xtime(a3) ^ a3
		out[4*c+3] = xtime(a0) ^ a0 ^ a1 ^ a2 ^ xtime(a3)
	}
	return out
}

func xorBlock(a, b Block128) Block128 {
	for i := range a {
		a[i] ^= b[i]
	}
	return a
}

// AESEnc performs one full AES encryption round (the AESENC instruction).
func AESEnc(state, roundKey Block128) Block128 {
	return xorBlock(mixColumns(subShift(state)), roundKey)
}

// AESEncLast performs the final AES round, which omits MixColumns.
func AESEncLast(state, roundKey Block128) Block128 {
	return xorBlock(subShift(state), roundKey)
}

// LoadBlock packs four 32-bit words into an AES state.
func LoadBlock(w [4]uint32) Block128 {
	var b Block128
	for i, v := range w {
		binary.LittleEndian.PutUint32(b[4*i:], v)
	}
	return b
}

// StoreBlock unpacks an AES state into four 32-bit words.
func StoreBlock(b Block128) [4]uint32 {
	var w [4]uint32
	for i := range w {
		w[i] = binary.LittleEndian.Uint32(b[4*i:])
	}
	return w
}

const (
	AESNIRounds       = 10
	ARSDefaultRounds  = 7
	ARSMaxRounds      = 10
	arsWeylLo  uint64 = 0x9E3779B97F4A7C15
	arsWeylHi  uint64 = 0xBB67AE8584CAA73B
)

// AESNI4x32Key is the expanded AES-128 schedule: eleven round keys.
type AESNI4x32Key [AESNIRounds + 1]Block128

var rcon = [10]byte{0x01, 0x02, 0x04, 0x08, 0x10, 0x20, 0x40, 0x80, 0x1b, 0x36}

// AESNI4x32KeyInit expands a user key with the AES-128 key schedule.
func AESNI4x32KeyInit(ukey [4]uint32) AESNI4x32Key {
	var w [44][4]byte
	k := LoadBlock(ukey)
	for i := 0; i < 4; i++ {
		copy(w[i][:], k[4*i:4*i+4])
	}
	for i := 4; i < 44; i++ {
		t := w[i-1]
		if i%4 == 0 {
			t = [4]byte{sbox[t[1]] ^ rcon[i/4-1], sbox[t[2]], sbox[t[3]], sbox[t[0]]}
		}
		for j := range t {
			w[i][j] = w[i-4][j] ^ t[j]
		}
	}
	var key AESNI4x32Key
	for r := range key {
		for j := 0; j < 4; j++ {
			copy(key[r][4*j:], w[4*r+j][:])
		}
	}
	return key
}

// AESNI4x32 encrypts the counter with AES-128. rounds must be 10.
func AESNI4x32(rounds int, ctr [4]uint32, key AESNI4x32Key) [4]uint32 {
	if rounds != AESNIRounds {
		panic("bijection: aesni4x32 requires exactly 10 rounds")
	}
	v := xorBlock(LoadBlock(ctr), key[0])
	for r := 1; r < AESNIRounds; r++ {
		v = AESEnc(v, key[r])
	}
	return StoreBlock(AESEncLast(v, key[AESNIRounds]))
}

// ARSWeylStep adds the ARS Weyl increment to each 64-bit half of k.
func ARSWeylStep(k Block128) Block128 {
	lo := binary.LittleEndian.Uint64(k[:8]) + arsWeylLo
	hi := binary.LittleEndian.Uint64(k[8:]) + arsWeylHi
	binary.LittleEndian.PutUint64(k[:8], lo)
	binary.LittleEndian.PutUint64(k[8:], hi)
	return k
}

// ARS4x32 applies the Advanced Randomization System: a whitening xor,
// rounds-1 AES rounds and one final round, with a Weyl-sequence key.
func ARS4x32(rounds int, ctr [4]uint32, key [4]uint32) [4]uint32 {
	if rounds < 1 || rounds > ARSMaxRounds {
		panic("bijection: ars4x32 rounds out of range")
	}
	k := LoadBlock(key)
	v := xorBlock(LoadBlock(ctr), k)
	for r := 1; r < rounds; r++ {
		k = ARSWeylStep(k)
		v = AESEnc(v, k)
	}
	k = ARSWeylStep(k)
	return StoreBlock(AESEncLast(v, k))
}
