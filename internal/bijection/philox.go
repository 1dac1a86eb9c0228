package bijection

import "math/bits"

// Philox multipliers and Weyl key increments.
const (
	philoxM2x32   uint32 = 0xD256D193
	philoxM4x32_0 uint32 = 0xD2511F53
	philoxM4x32_1 uint32 = 0xCD9E8D57
	philoxW32_0   uint32 = 0x9E3779B9
	philoxW32_1   uint32 = 0xBB67AE85

	philoxM2x64   uint64 = 0xD2B74407B1CE6E93
	philoxM4x64_0 uint64 = 0xD2E7470EE14C6C93
	philoxM4x64_1 uint64 = 0xCA5A826395121157
	philoxW64_0   uint64 = 0x9E3779B97F4A7C15
	philoxW64_1   uint64 = 0xBB67AE8584CAA73B
)

const (
	PhiloxDefaultRounds = 10
	PhiloxMaxRounds     = 16
)

func mulhilo32(a, b uint32) (hi, lo uint32) {
	p := uint64(a) * uint64(b)
	return uint32(p >> 32), uint32(p)
}

// Philox2x32 applies rounds of the 2-lane 32-bit Philox network.
// The first round uses the key as given; the key is bumped before each
// subsequent round.
func Philox2x32(rounds int, ctr [2]uint32, key [1]uint32) [2]uint32 {
	for r := 0; r < rounds; r++ {
		if r > 0 {
			key[0] += philoxW32_0
		}
		hi, lo := mulhilo32(philoxM2x32, ctr[0])
		ctr = [2]uint32{hi ^ key[0] ^ ctr[1], lo}
	}
	return ctr
}

// Philox4x32 applies rounds of the 4-lane 32-bit Philox network.
func Philox4x32(rounds int, ctr [4]uint32, key [2]uint32) [4]uint32 {
	for r := 0; r < rounds; r++ {
		if r > 0 {
			key[0] += philoxW32_0
			key[1] += philoxW32_1
		}
		hi0, lo0 := mulhilo32(philoxM4x32_0, ctr[0])
		hi1, lo1 := mulhilo32(philoxM4x32_1, ctr[2])
		ctr = [4]uint32{hi1 ^ ctr[1] ^ key[0], lo1, hi0 ^ ctr[3] ^ key[1], lo0}
	}
	return ctr
}

// Philox2x64 applies rounds of the 2-lane 64-bit Philox network.
func Philox2x64(rounds int, ctr [2]uint64, key [1]uint64) [2]uint64 {
	for r := 0; r < rounds; r++ {
		if r > 0 {
			key[0] += philoxW64_0
		}
		hi, lo := bits.Mul64(philoxM2x64, ctr[0])
		ctr = [2]uint64{hi ^ key[0] ^ ctr[1], lo}
	}
	return ctr
}

// Philox4x64 applies rounds of the 4-lane 64-bit Philox network.
func Philox4x64(rounds int, ctr [4]uint64, key [2]uint64) [4]uint64 {
	for r := 0; r < rounds; r++ {
		if r > 0 {
			key[0] += philoxW64_0
			key[1] += philoxW64_1
		}
		hi0, lo0 := bits.Mul64(philoxM4x64_0, ctr[0])
		hi1, lo1 := bits.Mul64(philoxM4x64_1, ctr[2])
		ctr = [4]uint64{hi1 ^ ctr[1] ^ key[0], lo1, hi0 ^ ctr[3] ^ key[1], lo0}
	}
	return ctr
}
