package security

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rc4"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"hash"

	"golang.org/x/text/encoding/charmap"
)

var passwordPad = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41,
	0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80,
	0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

// passwordBytes encodes a password for revision r: Latin-1 up to R4,
// UTF-8 truncated to 127 bytes for R5 and R6.
func passwordBytes(password string, r int) []byte {
	if r >= 5 {
		b := []byte(password)
		if len(b) > 127 {
			b = b[:127]
		}
		return b
	}
	b, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(password))
	if err != nil {
		return []byte(password)
	}
	return b
}

func padPassword(pw []byte) []byte {
	out := make([]byte, 32)
	n := copy(out, pw)
	copy(out[n:], passwordPad)
	return out
}

func rc4Crypt(key, data []byte) []byte {
	c, err := rc4.NewCipher(key)
	if err != nil {
		return nil
	}
	out := make([]byte, len(data))
	c.XORKeyStream(out, data)
	return out
}

// rc4Iterated applies RC4 twenty times with the key XORed by the round
// number, counting down when reverse is set.
func rc4Iterated(key, data []byte, reverse bool) []byte {
	tmp := make([]byte, len(key))
	out := data
	for round := 0; round < 20; round++ {
		x := byte(round)
		if reverse {
			x = byte(19 - round)
		}
		for i := range key {
			tmp[i] = key[i] ^ x
		}
		out = rc4Crypt(tmp, out)
	}
	return out
}

// aesDecrypt decrypts a payload whose first block is the IV. Trailing
// bytes that do not fill a block are ignored and PKCS#7 padding is removed
// when it is well formed.
func aesDecrypt(key, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return data, nil
	}
	if len(data) < 2*aes.BlockSize {
		return nil, errors.New("aes payload shorter than two blocks")
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	iv := data[:aes.BlockSize]
	body := data[aes.BlockSize:]
	body = body[:len(body)-len(body)%aes.BlockSize]
	out := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(out, body)

	pad := int(out[len(out)-1])
	if pad >= 1 && pad <= aes.BlockSize && bytes.Equal(out[len(out)-pad:], bytes.Repeat([]byte{byte(pad)}, pad)) {
		out = out[:len(out)-pad]
	}
	return out, nil
}

// checkAES256 validates pw against /U and then /O of an R5 or R6
// dictionary and unwraps the file key from /UE or /OE.
func (h *Handler) checkAES256(pw []byte) ([]byte, bool) {
	if key := h.unwrapAES256(pw, h.u[:32], h.u[32:40], h.u[40:48], nil, h.ue); key != nil {
		return key, false
	}
	if key := h.unwrapAES256(pw, h.o[:32], h.o[32:40], h.o[40:48], h.u[:48], h.oe); key != nil {
		return key, true
	}
	return nil, false
}

func (h *Handler) unwrapAES256(pw, hashed, validationSalt, keySalt, udata, wrapped []byte) []byte {
	if !bytes.Equal(h.hashAES256(pw, validationSalt, udata), hashed) {
		return nil
	}
	if len(wrapped) < 32 {
		return nil
	}
	block, err := aes.NewCipher(h.hashAES256(pw, keySalt, udata))
	if err != nil {
		return nil
	}
	key := make([]byte, 32)
	cipher.NewCBCDecrypter(block, make([]byte, aes.BlockSize)).CryptBlocks(key, wrapped[:32])
	if len(h.perms) >= 16 && !h.permsValid(key) {
		return nil
	}
	return key
}

// hashAES256 is the password hash of R5 (one SHA-256) and R6 (the
// iterated SHA-2 hash keyed through AES-128).
func (h *Handler) hashAES256(pw, salt, udata []byte) []byte {
	sum := sha256.New()
	sum.Write(pw)
	sum.Write(salt)
	sum.Write(udata)
	k := sum.Sum(nil)
	if h.r < 6 {
		return k
	}

	var e []byte
	for round := 0; round < 64 || int(e[len(e)-1]) > round-32; round++ {
		unit := make([]byte, 0, len(pw)+len(k)+len(udata))
		unit = append(unit, pw...)
		unit = append(unit, k...)
		unit = append(unit, udata...)
		k1 := bytes.Repeat(unit, 64)

		block, err := aes.NewCipher(k[:16])
		if err != nil {
			return nil
		}
		e = make([]byte, len(k1))
		cipher.NewCBCEncrypter(block, k[16:32]).CryptBlocks(e, k1)

		var next hash.Hash
		switch mod3(e[:16]) {
		case 0:
			next = sha256.New()
		case 1:
			next = sha512.New384()
		default:
			next = sha512.New()
		}
		next.Write(e)
		k = next.Sum(nil)
	}
	return k[:32]
}

// mod3 returns the 128-bit big-endian value of b modulo 3.
func mod3(b []byte) int {
	sum := 0
	for _, c := range b {
		sum += int(c)
	}
	return sum % 3
}

// permsValid decrypts /Perms with the file key and checks it against /P.
func (h *Handler) permsValid(key []byte) bool {
	block, err := aes.NewCipher(key)
	if err != nil {
		return false
	}
	out := make([]byte, aes.BlockSize)
	block.Decrypt(out, h.perms[:aes.BlockSize])
	if string(out[9:12]) != "adb" {
		return false
	}
	return binary.LittleEndian.Uint32(out[:4]) == uint32(h.p)
}
