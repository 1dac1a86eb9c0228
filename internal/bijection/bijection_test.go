package bijection

import (
	"crypto/aes"
	"testing"
)

func TestPhilox2x32KAT(t *testing.T) {
	tests := []struct {
		rounds int
		ctr    [2]uint32
		key    [1]uint32
		want   [2]uint32
	}{
		{7, [2]uint32{}, [1]uint32{}, [2]uint32{0x257a3673, 0xcd26be2a}},
		{7, [2]uint32{0xffffffff, 0xffffffff}, [1]uint32{0xffffffff}, [2]uint32{0xab302c4d, 0x3dc9d239}},
		{7, [2]uint32{0x243f6a88, 0x85a308d3}, [1]uint32{0x13198a2e}, [2]uint32{0xbedbbe6b, 0xe4c770b3}},
		{10, [2]uint32{}, [1]uint32{}, [2]uint32{0xff1dae59, 0x6cd10df2}},
		{10, [2]uint32{0xffffffff, 0xffffffff}, [1]uint32{0xffffffff}, [2]uint32{0x2c3f628b, 0xab4fd7ad}},
		{10, [2]uint32{0x243f6a88, 0x85a308d3}, [1]uint32{0x13198a2e}, [2]uint32{0xdd7ce038, 0xf62a4c12}},
	}
	for _, tt := range tests {
		got := Philox2x32(tt.rounds, tt.ctr, tt.key)
		if got != tt.want {
			t.Errorf("Philox2x32/%d(%08x, %08x) = %08x, want %08x", tt.rounds, tt.ctr, tt.key, got, tt.want)
		}
	}
}

func TestPhilox4x32KAT(t *testing.T) {
	tests := []struct {
		rounds int
		ctr    [4]uint32
		key    [2]uint32
		want   [4]uint32
	}{
		{7, [4]uint32{}, [2]uint32{}, [4]uint32{0x5f6fb709, 0x0d893f64, 0x4f121f81, 0x4f730a48}},
		{
			7,
			[4]uint32{0xffffffff, 0xffffffff, 0xffffffff, 0xffffffff},
			[2]uint32{0xffffffff, 0xffffffff},
			[4]uint32{0x5207ddc2, 0x45165e59, 0x4d8ee751, 0x8c52f662},
		},
		{
			7,
			[4]uint32{0x243f6a88, 0x85a308d3, 0x13198a2e, 0x03707344},
			[2]uint32{0xa4093822, 0x299f31d0},
			[4]uint32{0x4dfccaba, 0x190a87f0, 0xc47362ba, 0xb6b5242a},
		},
		{10, [4]uint32{}, [2]uint32{}, [4]uint32{0x6627e8d5, 0xe169c58d, 0xbc57ac4c, 0x9b00dbd8}},
		{
			10,
			[4]uint32{0xffffffff, 0xffffffff, 0xffffffff, 0xffffffff},
			[2]uint32{0xffffffff, 0xffffffff},
			[4]uint32{0x408f276d, 0x41c83b0e, 0xa20bc7c6, 0x6d5451fd},
		},
		{
			10,
			[4]uint32{0x243f6a88, 0x85a308d3, 0x13198a2e, 0x03707344},
			[2]uint32{0xa4093822, 0x299f31d0},
			[4]uint32{0xd16cfe09, 0x94fdcceb, 0x5001e420, 0x24126ea1},
		},
	}
	for _, tt := range tests {
		got := Philox4x32(tt.rounds, tt.ctr, tt.key)
		if got != tt.want {
			t.Errorf("Philox4x32/%d(%08x, %08x) = %08x, want %08x", tt.rounds, tt.ctr, tt.key, got, tt.want)
		}
	}
}

func TestPhilox2x64KAT(t *testing.T) {
	tests := []struct {
		rounds int
		ctr    [2]uint64
		key    [1]uint64
		want   [2]uint64
	}{
		{7, [2]uint64{}, [1]uint64{}, [2]uint64{0xb41da69fbfefc666, 0x511e9ce1a5534056}},
		{
			7,
			[2]uint64{0xffffffffffffffff, 0xffffffffffffffff},
			[1]uint64{0xffffffffffffffff},
			[2]uint64{0xa4696cc04462015d, 0x724782dae17169e9},
		},
		{
			7,
			[2]uint64{0x243f6a8885a308d3, 0x13198a2e03707344},
			[1]uint64{0xa4093822299f31d0},
			[2]uint64{0x98ed1534392bf372, 0x67528b1568882fd5},
		},
		{10, [2]uint64{}, [1]uint64{}, [2]uint64{0xca00a0459843d731, 0x66c24222c9a845b5}},
		{
			10,
			[2]uint64{0xffffffffffffffff, 0xffffffffffffffff},
			[1]uint64{0xffffffffffffffff},
			[2]uint64{0x65b021d60cd8310f, 0x4d02f3222f86df20},
		},
		{
			10,
			[2]uint64{0x243f6a8885a308d3, 0x13198a2e03707344},
			[1]uint64{0xa4093822299f31d0},
			[2]uint64{0x0a5e742c2997341c, 0xb0f883d38000de5d},
		},
	}
	for _, tt := range tests {
		got := Philox2x64(tt.rounds, tt.ctr, tt.key)
		if got != tt.want {
			t.Errorf("Philox2x64/%d(%016x, %016x) = %016x, want %016x", tt.rounds, tt.ctr, tt.key, got, tt.want)
		}
	}
}

func TestPhilox4x64KAT(t *testing.T) {
	tests := []struct {
		rounds int
		ctr    [4]uint64
		key    [2]uint64
		want   [4]uint64
	}{
		{
			7,
			[4]uint64{},
			[2]uint64{},
			[4]uint64{0x5dc8ee6268ec62cd, 0x139bc570b6c125a0, 0x84d6deb4fb65f49e, 0xaff7583376d378c2},
		},
		{
			7,
			[4]uint64{0xffffffffffffffff, 0xffffffffffffffff, 0xffffffffffffffff, 0xffffffffffffffff},
			[2]uint64{0xffffffffffffffff, 0xffffffffffffffff},
			[4]uint64{0x071dd84367903154, 0x48e2bbdc722b37d1, 0x6afa9890bb89f76c, 0x9194c8d8ada56ac7},
		},
		{
			7,
			[4]uint64{0x243f6a8885a308d3, 0x13198a2e03707344, 0xa4093822299f31d0, 0x082efa98ec4e6c89},
			[2]uint64{0x452821e638d01377, 0xbe5466cf34e90c6c},
			[4]uint64{0x513a366704edf755, 0xf05d9924c07044d3, 0xbef2cb9cbea74c6c, 0x8db948de4caa1f8a},
		},
		{
			10,
			[4]uint64{},
			[2]uint64{},
			[4]uint64{0x16554d9eca36314c, 0xdb20fe9d672d0fdc, 0xd7e772cee186176b, 0x7e68b68aec7ba23b},
		},
		{
			10,
			[4]uint64{0xffffffffffffffff, 0xffffffffffffffff, 0xffffffffffffffff, 0xffffffffffffffff},
			[2]uint64{0xffffffffffffffff, 0xffffffffffffffff},
			[4]uint64{0x87b092c3013fe90b, 0x438c3c67be8d0224, 0x9cc7d7c69cd777b6, 0xa09caebf594f0ba0},
		},
		{
			10,
			[4]uint64{0x243f6a8885a308d3, 0x13198a2e03707344, 0xa4093822299f31d0, 0x082efa98ec4e6c89},
			[2]uint64{0x452821e638d01377, 0xbe5466cf34e90c6c},
			[4]uint64{0xa528f45403e61d95, 0x38c72dbd566e9788, 0xa5a1610e72fd18b5, 0x57bd43b5e52b7fe6},
		},
	}
	for _, tt := range tests {
		got := Philox4x64(tt.rounds, tt.ctr, tt.key)
		if got != tt.want {
			t.Errorf("Philox4x64/%d(%016x, %016x) = %016x, want %016x", tt.rounds, tt.ctr, tt.key, got, tt.want)
		}
	}
}

func TestThreefry2x32KAT(t *testing.T) {
	tests := []struct {
		rounds int
		ctr    [2]uint32
		key    [2]uint32
		want   [2]uint32
	}{
		{13, [2]uint32{}, [2]uint32{}, [2]uint32{0x9d1c5ec6, 0x8bd50731}},
		{
			13,
			[2]uint32{0xffffffff, 0xffffffff},
			[2]uint32{0xffffffff, 0xffffffff},
			[2]uint32{0xfd36d048, 0x2d17272c},
		},
		{
			13,
			[2]uint32{0x243f6a88, 0x85a308d3},
			[2]uint32{0x13198a2e, 0x03707344},
			[2]uint32{0xba3e4725, 0xf27d669e},
		},
		{20, [2]uint32{}, [2]uint32{}, [2]uint32{0x6b200159, 0x99ba4efe}},
		{
			20,
			[2]uint32{0xffffffff, 0xffffffff},
			[2]uint32{0xffffffff, 0xffffffff},
			[2]uint32{0x1cb996fc, 0xbb002be7},
		},
		{
			20,
			[2]uint32{0x243f6a88, 0x85a308d3},
			[2]uint32{0x13198a2e, 0x03707344},
			[2]uint32{0xc4923a9c, 0x483df7a0},
		},
	}
	for _, tt := range tests {
		got := Threefry2x32(tt.rounds, tt.ctr, tt.key)
		if got != tt.want {
			t.Errorf("Threefry2x32/%d(%08x, %08x) = %08x, want %08x", tt.rounds, tt.ctr, tt.key, got, tt.want)
		}
	}
}

func TestThreefry4x32KAT(t *testing.T) {
	tests := []struct {
		rounds int
		ctr    [4]uint32
		key    [4]uint32
		want   [4]uint32
	}{
		{13, [4]uint32{}, [4]uint32{}, [4]uint32{0x531c7e4f, 0x39491ee5, 0x2c855a92, 0x3d6abf9a}},
		{
			13,
			[4]uint32{0xffffffff, 0xffffffff, 0xffffffff, 0xffffffff},
			[4]uint32{0xffffffff, 0xffffffff, 0xffffffff, 0xffffffff},
			[4]uint32{0xc4189358, 0x1c9cc83a, 0xd5881c67, 0x6a0a89e0},
		},
		{
			13,
			[4]uint32{0x243f6a88, 0x85a308d3, 0x13198a2e, 0x03707344},
			[4]uint32{0xa4093822, 0x299f31d0, 0x082efa98, 0xec4e6c89},
			[4]uint32{0x4aa71d8f, 0x734738c2, 0x431fc6a8, 0xae6debf1},
		},
		{20, [4]uint32{}, [4]uint32{}, [4]uint32{0x9c6ca96a, 0xe17eae66, 0xfc10ecd4, 0x5256a7d8}},
		{
			20,
			[4]uint32{0xffffffff, 0xffffffff, 0xffffffff, 0xffffffff},
			[4]uint32{0xffffffff, 0xffffffff, 0xffffffff, 0xffffffff},
			[4]uint32{0x2a881696, 0x57012287, 0xf6c7446e, 0xa16a6732},
		},
		{
			20,
			[4]uint32{0x243f6a88, 0x85a308d3, 0x13198a2e, 0x03707344},
			[4]uint32{0xa4093822, 0x299f31d0, 0x082efa98, 0xec4e6c89},
			[4]uint32{0x59cd1dbb, 0xb8879579, 0x86b5d00c, 0xac8b6d84},
		},
	}
	for _, tt := range tests {
		got := Threefry4x32(tt.rounds, tt.ctr, tt.key)
		if got != tt.want {
			t.Errorf("Threefry4x32/%d(%08x, %08x) = %08x, want %08x", tt.rounds, tt.ctr, tt.key, got, tt.want)
		}
	}
}

func TestThreefry2x64KAT(t *testing.T) {
	tests := []struct {
		rounds int
		ctr    [2]uint64
		key    [2]uint64
		want   [2]uint64
	}{
		{13, [2]uint64{}, [2]uint64{}, [2]uint64{0xf167b032c3b480bd, 0xe91f9fee4b7a6fb5}},
		{
			13,
			[2]uint64{0xffffffffffffffff, 0xffffffffffffffff},
			[2]uint64{0xffffffffffffffff, 0xffffffffffffffff},
			[2]uint64{0xccdec5c917a874b1, 0x4df53abca26ceb01},
		},
		{
			13,
			[2]uint64{0x243f6a8885a308d3, 0x13198a2e03707344},
			[2]uint64{0xa4093822299f31d0, 0x082efa98ec4e6c89},
			[2]uint64{0xc3aac71561042993, 0x3fe7ae8801aff316},
		},
		{20, [2]uint64{}, [2]uint64{}, [2]uint64{0xc2b6e3a8c2c69865, 0x6f81ed42f350084d}},
		{
			20,
			[2]uint64{0xffffffffffffffff, 0xffffffffffffffff},
			[2]uint64{0xffffffffffffffff, 0xffffffffffffffff},
			[2]uint64{0xe02cb7c4d95d277a, 0xd06633d0893b8b68},
		},
		{
			20,
			[2]uint64{0x243f6a8885a308d3, 0x13198a2e03707344},
			[2]uint64{0xa4093822299f31d0, 0x082efa98ec4e6c89},
			[2]uint64{0x263c7d30bb0f0af1, 0x56be8361d3311526},
		},
	}
	for _, tt := range tests {
		got := Threefry2x64(tt.rounds, tt.ctr, tt.key)
		if got != tt.want {
			t.Errorf("Threefry2x64/%d(%016x, %016x) = %016x, want %016x", tt.rounds, tt.ctr, tt.key, got, tt.want)
		}
	}
}

func TestThreefry4x64KAT(t *testing.T) {
	tests := []struct {
		rounds int
		ctr    [4]uint64
		key    [4]uint64
		want   [4]uint64
	}{
		{
			13,
			[4]uint64{},
			[4]uint64{},
			[4]uint64{0x4071fabee1dc8e05, 0x02ed3113695c9c62, 0x397311b5b89f9d49, 0xe21292c3258024bc},
		},
		{
			13,
			[4]uint64{0xffffffffffffffff, 0xffffffffffffffff, 0xffffffffffffffff, 0xffffffffffffffff},
			[4]uint64{0xffffffffffffffff, 0xffffffffffffffff, 0xffffffffffffffff, 0xffffffffffffffff},
			[4]uint64{0x7eaed935479722b5, 0x90994358c429f31c, 0x496381083e07a75b, 0x627ed0d746821121},
		},
		{
			13,
			[4]uint64{0x243f6a8885a308d3, 0x13198a2e03707344, 0xa4093822299f31d0, 0x082efa98ec4e6c89},
			[4]uint64{0x452821e638d01377, 0xbe5466cf34e90c6c, 0xc0ac29b7c97c50dd, 0x3f84d5b5b5470917},
			[4]uint64{0x4361288ef9c1900c, 0x8717291521782833, 0x0d19db18c20cf47e, 0xa0b41d63ac8581e5},
		},
		{
			20,
			[4]uint64{},
			[4]uint64{},
			[4]uint64{0x09218ebde6c85537, 0x55941f5266d86105, 0x4bd25e16282434dc, 0xee29ec846bd2e40b},
		},
		{
			20,
			[4]uint64{0xffffffffffffffff, 0xffffffffffffffff, 0xffffffffffffffff, 0xffffffffffffffff},
			[4]uint64{0xffffffffffffffff, 0xffffffffffffffff, 0xffffffffffffffff, 0xffffffffffffffff},
			[4]uint64{0x29c24097942bba1b, 0x0371bbfb0f6f4e11, 0x3c231ffa33f83a1c, 0xcd29113fde32d168},
		},
		{
			20,
			[4]uint64{0x243f6a8885a308d3, 0x13198a2e03707344, 0xa4093822299f31d0, 0x082efa98ec4e6c89},
			[4]uint64{0x452821e638d01377, 0xbe5466cf34e90c6c, 0xc0ac29b7c97c50dd, 0x3f84d5b5b5470917},
			[4]uint64{0xbb893fd42eac50eb, 0x7ca8b22905f3443a, 0xe204b8dcb4daace7, 0x3e1070a2327bfc09},
		},
	}
	for _, tt := range tests {
		got := Threefry4x64(tt.rounds, tt.ctr, tt.key)
		if got != tt.want {
			t.Errorf("Threefry4x64/%d(%016x, %016x) = %016x, want %016x", tt.rounds, tt.ctr, tt.key, got, tt.want)
		}
	}
}

func TestARS4x32KAT(t *testing.T) {
	tests := []struct {
		rounds int
		ctr    [4]uint32
		key    [4]uint32
		want   [4]uint32
	}{
		{7, [4]uint32{}, [4]uint32{}, [4]uint32{0xdacf61ff, 0xc45798f3, 0x113c7eeb, 0x101e27f3}},
		{
			7,
			[4]uint32{0xffffffff, 0xffffffff, 0xffffffff, 0xffffffff},
			[4]uint32{0xffffffff, 0xffffffff, 0xffffffff, 0xffffffff},
			[4]uint32{0xfbaaff1f, 0xbb547ef9, 0x13d8cd78, 0x7aaa969b},
		},
		{
			7,
			[4]uint32{0x243f6a88, 0x85a308d3, 0x13198a2e, 0x03707344},
			[4]uint32{0xa4093822, 0x299f31d0, 0x082efa98, 0xec4e6c89},
			[4]uint32{0xd1df87af, 0xf67d43ba, 0x4f66afdb, 0x393dcb2d},
		},
		{10, [4]uint32{}, [4]uint32{}, [4]uint32{0x8d73ee19, 0x506401ef, 0x13c2dbe4, 0x0cbe9c0d}},
		{
			10,
			[4]uint32{0xffffffff, 0xffffffff, 0xffffffff, 0xffffffff},
			[4]uint32{0xffffffff, 0xffffffff, 0xffffffff, 0xffffffff},
			[4]uint32{0xdb617905, 0xe0a16940, 0xd8a655b3, 0xe7731e1f},
		},
		{
			10,
			[4]uint32{0x243f6a88, 0x85a308d3, 0x13198a2e, 0x03707344},
			[4]uint32{0xa4093822, 0x299f31d0, 0x082efa98, 0xec4e6c89},
			[4]uint32{0xa516e7d6, 0x8357ad74, 0x5b59b3ec, 0x8763fff3},
		},
	}
	for _, tt := range tests {
		got := ARS4x32(tt.rounds, tt.ctr, tt.key)
		if got != tt.want {
			t.Errorf("ARS4x32/%d(%08x, %08x) = %08x, want %08x", tt.rounds, tt.ctr, tt.key, got, tt.want)
		}
	}
}

func TestZeroRoundsIsIdentityForPhilox(t *testing.T) {
	ctr := [4]uint64{1, 2, 3, 4}
	if got := Philox4x64(0, ctr, [2]uint64{9, 9}); got != ctr {
		t.Fatalf("Philox4x64 with 0 rounds = %x, want %x", got, ctr)
	}
}

func TestRoundCountChangesOutput(t *testing.T) {
	ctr := [4]uint64{0x243f6a8885a308d3, 0x13198a2e03707344, 0, 0}
	key := [4]uint64{0xa4093822299f31d0, 0x082efa98ec4e6c89, 0, 0}
	if Threefry4x64(13, ctr, key) == Threefry4x64(20, ctr, key) {
		t.Error("Threefry4x64: 13 and 20 rounds produced the same output")
	}
	if Threefry2x64(13, [2]uint64{ctr[0], ctr[1]}, [2]uint64{key[0], key[1]}) ==
		Threefry2x64(20, [2]uint64{ctr[0], ctr[1]}, [2]uint64{key[0], key[1]}) {
		t.Error("Threefry2x64: 13 and 20 rounds produced the same output")
	}
	if Philox2x64(7, [2]uint64{1, 2}, [1]uint64{3}) == Philox2x64(10, [2]uint64{1, 2}, [1]uint64{3}) {
		t.Error("Philox2x64: 7 and 10 rounds produced the same output")
	}
	if Threefry4x32(13, [4]uint32{1, 2, 3, 4}, [4]uint32{5, 6, 7, 8}) == Threefry4x32(20, [4]uint32{1, 2, 3, 4}, [4]uint32{5, 6, 7, 8}) {
		t.Error("Threefry4x32: 13 and 20 rounds produced the same output")
	}
}

func TestAESNI4x32FIPS197(t *testing.T) {
	// FIPS-197 appendix C.1, with the byte strings read as little-endian words.
	ctr := [4]uint32{0x33221100, 0x77665544, 0xbbaa9988, 0xffeeddcc}
	ukey := [4]uint32{0x03020100, 0x07060504, 0x0b0a0908, 0x0f0e0d0c}
	want := [4]uint32{0xd8e0c469, 0x30047b6a, 0x80b7cdd8, 0x5ac5b470}
	got := AESNI4x32(AESNIRounds, ctr, AESNI4x32KeyInit(ukey))
	if got != want {
		t.Fatalf("AESNI4x32 = %08x, want %08x", got, want)
	}
}

func TestAESNI4x32MatchesCryptoAES(t *testing.T) {
	ctr := [4]uint32{0xdeadbeef, 0x01234567, 0x89abcdef, 0xfeedface}
	for i := uint32(0); i < 16; i++ {
		ukey := [4]uint32{i * 0x9e3779b9, i, ^i, i << 7}
		kb := LoadBlock(ukey)
		block, err := aes.NewCipher(kb[:])
		if err != nil {
			t.Fatalf("aes.NewCipher: %v", err)
		}
		in := LoadBlock(ctr)
		var out Block128
		block.Encrypt(out[:], in[:])

		got := AESNI4x32(AESNIRounds, ctr, AESNI4x32KeyInit(ukey))
		if got != StoreBlock(out) {
			t.Errorf("key %08x: got %08x, crypto/aes %08x", ukey, got, StoreBlock(out))
		}
		ctr = got
	}
}

func TestARS4x32SingleRound(t *testing.T) {
	ctr := [4]uint32{1, 2, 3, 4}
	key := [4]uint32{5, 6, 7, 8}
	k := LoadBlock(key)
	want := StoreBlock(AESEncLast(xorBlock(LoadBlock(ctr), k), ARSWeylStep(k)))
	if got := ARS4x32(1, ctr, key); got != want {
		t.Fatalf("ARS4x32(1) = %08x, want %08x", got, want)
	}
	if ARS4x32(7, ctr, key) == ARS4x32(10, ctr, key) {
		t.Error("ARS4x32: 7 and 10 rounds produced the same output")
	}
}

func TestARSWeylStepCarriesWithinHalves(t *testing.T) {
	k := LoadBlock([4]uint32{0xffffffff, 0xffffffff, 0, 0})
	got := StoreBlock(ARSWeylStep(k))
	// low half wraps without carrying into the high half
	want := [4]uint32{0x7f4a7c14, 0x9e3779b9, 0x84caa73b, 0xbb67ae85}
	if got != want {
		t.Fatalf("ARSWeylStep = %08x, want %08x", got, want)
	}
}

func TestAESRoundRejectsWrongRounds(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for 9 rounds")
		}
	}()
	AESNI4x32(9, [4]uint32{}, AESNI4x32KeyInit([4]uint32{}))
}

func TestDetectFeaturesIsStable(t *testing.T) {
	a := DetectFeatures()
	b := DetectFeatures()
	if a != b {
		t.Fatalf("DetectFeatures changed between calls: %+v vs %+v", a, b)
	}
	if a.Architecture == "" {
		t.Error("expected architecture to be set")
	}
}
