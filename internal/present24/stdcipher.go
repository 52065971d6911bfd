package present24

import (
	"crypto/cipher"
	"strconv"
)

// KeySizeError is returned by NewCipher for a key that is not KeySize bytes.
type KeySizeError int

func (k KeySizeError) Error() string {
	return "present24: invalid key size " + strconv.Itoa(int(k))
}

type blockCipher struct {
	rk RoundKeys
}

// NewCipher returns a cipher.Block for a 3-byte big-endian key. Blocks are
// 3 bytes, big-endian.
func NewCipher(key []byte) (cipher.Block, error) {
	if len(key) != KeySize {
		return nil, KeySizeError(len(key))
	}
	k := Key(uint32(key[0])<<16 | uint32(key[1])<<8 | uint32(key[2]))
	return &blockCipher{rk: Schedule(k)}, nil
}

func (c *blockCipher) BlockSize() int { return BlockSize }

func (c *blockCipher) Encrypt(dst, src []byte) {
	if len(src) < BlockSize {
		panic("present24: input not full block")
	}
	if len(dst) < BlockSize {
		panic("present24: output not full block")
	}
	putBlock(dst, Encrypt(&c.rk, getBlock(src)))
}

func (c *blockCipher) Decrypt(dst, src []byte) {
	if len(src) < BlockSize {
		panic("present24: input not full block")
	}
	if len(dst) < BlockSize {
		panic("present24: output not full block")
	}
	putBlock(dst, Decrypt(&c.rk, getBlock(src)))
}

func getBlock(b []byte) Block {
	return Block(uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]))
}

func putBlock(b []byte, v Block) {
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}
