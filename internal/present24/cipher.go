package present24

var (
	sbox = [16]uint8{
		0xc, 0x5, 0x6, 0xb,
		0x9, 0x0, 0xa, 0xd,
		0x3, 0xe, 0xf, 0x8,
		0x4, 0x7, 0x1, 0x2,
	}

	invSbox = [16]uint8{
		0x5, 0xe, 0xf, 0x8,
		0xc, 0x1, 0x2, 0xd,
		0xb, 0x4, 0x6, 0x3,
		0x0, 0x7, 0x9, 0xa,
	}
)

// Byte-wide lookup tables derived from the tables above. Read-only after init.
var (
	sboxByte    = byteSbox(&sbox)
	invSboxByte = byteSbox(&invSbox)

	// bit p moves to 6p mod 23, and back with 4p mod 23; bit 23 stays put.
	pLayer    = byteBitPermutation(6)
	invPLayer = byteBitPermutation(4)
)

func byteSbox(s *[16]uint8) (t [256]uint32) {
	for v := 0; v < 256; v++ {
		t[v] = uint32(s[v>>4])<<4 | uint32(s[v&0xf])
	}
	return t
}

// bitDestination returns where the permutation with multiplier mul sends bit p.
func bitDestination(p, mul int) int {
	if p == BlockBits-1 {
		return p
	}
	return p * mul % (BlockBits - 1)
}

func byteBitPermutation(mul int) (t [BlockSize][256]uint32) {
	for i := 0; i < BlockSize; i++ {
		for v := 0; v < 256; v++ {
			var out uint32
			for j := 0; j < 8; j++ {
				if v>>j&1 == 1 {
					out |= 1 << bitDestination(8*i+j, mul)
				}
			}
			t[i][v] = out
		}
	}
	return t
}

func substitute(x uint32, t *[256]uint32) uint32 {
	return t[x&0xff] | t[x>>8&0xff]<<8 | t[x>>16&0xff]<<16
}

func permute(x uint32, t *[BlockSize][256]uint32) uint32 {
	return t[0][x&0xff] | t[1][x>>8&0xff] | t[2][x>>16&0xff]
}

// Encrypt encrypts one block under the given round keys.
func Encrypt(rk *RoundKeys, b Block) Block {
	s := uint32(b)
	for r := 0; r < Rounds; r++ {
		s ^= rk[r]
		s = substitute(s, &sboxByte)
		s = permute(s, &pLayer)
	}
	return Block(s ^ rk[Rounds])
}

// Decrypt is the inverse of Encrypt under the same round keys.
func Decrypt(rk *RoundKeys, b Block) Block {
	s := uint32(b) ^ rk[Rounds]
	for r := Rounds - 1; r >= 0; r-- {
		s = permute(s, &invPLayer)
		s = substitute(s, &invSboxByte)
		s ^= rk[r]
	}
	return Block(s)
}

// EncryptKey schedules k and encrypts b.
func EncryptKey(k Key, b Block) Block {
	rk := Schedule(k)
	return Encrypt(&rk, b)
}

// DecryptKey schedules k and decrypts b.
func DecryptKey(k Key, b Block) Block {
	rk := Schedule(k)
	return Decrypt(&rk, b)
}

// DoubleEncrypt encrypts b under k1, then the result under k2.
func DoubleEncrypt(k1, k2 Key, b Block) Block {
	return EncryptKey(k2, EncryptKey(k1, b))
}

// DoubleDecrypt undoes DoubleEncrypt.
func DoubleDecrypt(k1, k2 Key, b Block) Block {
	return DecryptKey(k1, DecryptKey(k2, b))
}
