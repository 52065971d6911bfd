package present24

// Rounds is the number of substitution-permutation rounds.
const Rounds = 10

// RoundKeys holds K0..K10. K0 is always zero and K10 is the final whitening key.
type RoundKeys [Rounds + 1]uint32

// register80 is the 80-bit key register of PRESENT-80, hi holding bits 64..79.
type register80 struct {
	hi uint16
	lo uint64
}

// rotate rotates the register left by 61 bits, which is a right rotation by 19.
func (r *register80) rotate() {
	low := r.lo & (1<<19 - 1)
	r.lo = r.lo>>19 | uint64(r.hi)<<45 | low<<61
	r.hi = uint16(low >> 3)
}

// Schedule expands a master key into the 11 round keys.
//
// The master key sits in the top 24 bits of the PRESENT-80 register and the
// remaining 56 bits are zero. Each round rotates the register, passes its top
// nibble through the S-box, mixes the round counter into bits 15..19 and takes
// bits 16..39 as the round key. k must be a 24-bit value.
func Schedule(k Key) (rk RoundKeys) {
	r := register80{hi: uint16(k >> 8), lo: uint64(k&0xff) << 56}
	for i := 1; i <= Rounds; i++ {
		r.rotate()
		r.hi = uint16(sbox[r.hi>>12])<<12 | r.hi&0x0fff
		r.lo ^= uint64(i) << 15
		rk[i] = uint32(r.lo>>16) & Mask
	}
	return rk
}
