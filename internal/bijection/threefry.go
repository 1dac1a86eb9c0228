package bijection

import "math/bits"

const (
	ThreefryDefaultRounds = 20
	Threefry2MaxRounds    = 32
	Threefry4MaxRounds    = 72

	skeinParity32 uint32 = 0x1BD11BDA
	skeinParity64 uint64 = 0x1BD11BDAA9FC1A22
)

var (
	rot2x32 = [8]int{13, 15, 26, 6, 17, 29, 16, 24}
	rot2x64 = [8]int{16, 42, 12, 31, 16, 32, 24, 21}
	rot4x32 = [8][2]int{{10, 26}, {11, 21}, {13, 27}, {23, 5}, {6, 20}, {17, 11}, {25, 10}, {18, 20}}
	rot4x64 = [8][2]int{{14, 16}, {52, 57}, {23, 40}, {5, 37}, {25, 33}, {46, 12}, {58, 22}, {32, 32}}
)

// Threefry2x32 applies rounds of the 2-lane 32-bit Threefry network.
// A key injection follows every fourth round.
func Threefry2x32(rounds int, ctr [2]uint32, key [2]uint32) [2]uint32 {
	ks := [3]uint32{key[0], key[1], skeinParity32 ^ key[0] ^ key[1]}
	x0, x1 := ctr[0]+ks[0], ctr[1]+ks[1]
	for r := 0; r < rounds; r++ {
		x0 += x1
		x1 = bits.RotateLeft32(x1, rot2x32[r%8])
		x1 ^= x0
		if r%4 == 3 {
			s := uint32(r+1) / 4
			x0 += ks[s%3]
			x1 += ks[(s+1)%3] + s
		}
	}
	return [2]uint32{x0, x1}
}

// Threefry2x64 applies rounds of the 2-lane 64-bit Threefry network.
func Threefry2x64(rounds int, ctr [2]uint64, key [2]uint64) [2]uint64 {
	ks := [3]uint64{key[0], key[1], skeinParity64 ^ key[0] ^ key[1]}
	x0, x1 := ctr[0]+ks[0], ctr[1]+ks[1]
	for r := 0; r < rounds; r++ {
		x0 += x1
		x1 = bits.RotateLeft64(x1, rot2x64[r%8])
		x1 ^= x0
		if r%4 == 3 {
			s := uint64(r+1) / 4
			x0 += ks[s%3]
			x1 += ks[(s+1)%3] + s
		}
	}
	return [2]uint64{x0, x1}
}

// Threefry4x32 applies rounds of the 4-lane 32-bit Threefry network.
// Even rounds mix (0,1) and (2,3); odd rounds mix (0,3) and (2,1).
func Threefry4x32(rounds int, ctr [4]uint32, key [4]uint32) [4]uint32 {
	var ks [5]uint32
	ks[4] = skeinParity32
	for i := 0; i < 4; i++ {
		ks[i] = key[i]
		ks[4] ^= key[i]
	}
	x := [4]uint32{ctr[0] + ks[0], ctr[1] + ks[1], ctr[2] + ks[2], ctr[3] + ks[3]}
	for r := 0; r < rounds; r++ {
		rot := rot4x32[r%8]
		if r%2 == 0 {
			x[0] += x[1]
			x[1] = bits.RotateLeft32(x[1], rot[0])
			x[1] ^= x[0]
			x[2] += x[3]
			x[3] = bits.RotateLeft32(x[3], rot[1])
			x[3] ^= x[2]
		} else {
			x[0] += x[3]
			x[3] = bits.RotateLeft32(x[3], rot[0])
			x[3] ^= x[0]
			x[2] += x[1]
			x[1] = bits.RotateLeft32(x[1], rot[1])
			x[1] ^= x[2]
		}
		if r%4 == 3 {
			s := uint32(r+1) / 4
			for i := uint32(0); i < 4; i++ {
				x[i] += ks[(s+i)%5]
			}
			x[3] += s
		}
	}
	return x
}

// Threefry4x64 applies rounds of the 4-lane 64-bit Threefry network.
func Threefry4x64(rounds int, ctr [4]uint64, key [4]uint64) [4]uint64 {
	var ks [5]uint64
	ks[4] = skeinParity64
	for i := 0; i < 4; i++ {
		ks[i] = key[i]
		ks[4] ^= key[i]
	}
	x := [4]uint64{ctr[0] + ks[0], ctr[1] + ks[1], ctr[2] + ks[2], ctr[3] + ks[3]}
	for r := 0; r < rounds; r++ {
		rot := rot4x64[r%8]
		if r%2 == 0 {
			x[0] += x[1]
			x[1] = bits.RotateLeft64(x[1], rot[0])
			x[1] ^= x[0]
			x[2] += x[3]
			x[3] = bits.RotateLeft64(x[3], rot[1])
			x[3] ^= x[2]
		} else {
			x[0] += x[3]
			x[3] = bits.RotateLeft64(x[3], rot[0])
			x[3] ^= x[0]
			x[2] += x[1]
			x[1] = bits.RotateLeft64(x[1], rot[1])
			x[1] ^= x[2]
		}
		if r%4 == 3 {
			s := uint64(r+1) / 4
			for i := uint64(0); i < 4; i++ {
				x[i] += ks[(s+i)%5]
			}
			x[3] += s
		}
	}
	return x
}
