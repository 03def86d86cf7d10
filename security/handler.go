// Package security implements the standard security handler of PDF
// (/Filter /Standard, revisions 2 through 6). A Handler checks a password
// against the document's /Encrypt dictionary and then decrypts strings and
// stream payloads for core.Syntax.
package security

import (
	"bytes"
	"crypto/md5"
	"fmt"

	"github.com/tsawler/pdfcore/core"
)

// Cipher identifies the algorithm used for strings and streams.
type Cipher int

const (
	CipherNone Cipher = iota
	CipherRC4
	CipherAESV2 // AES-128 with per-object keys
	CipherAESV3 // AES-256 with the file key
)

func (c Cipher) String() string {
	switch c {
	case CipherNone:
		return "None"
	case CipherRC4:
		return "RC4"
	case CipherAESV2:
		return "AESV2"
	case CipherAESV3:
		return "AESV3"
	default:
		return fmt.Sprintf("Cipher(%d)", int(c))
	}
}

// Handler is the standard security handler of one document. It satisfies
// core.CryptoHandler once Authenticate has succeeded.
type Handler struct {
	v, r   int
	keyLen int // bytes
	cipher Cipher

	o, u   []byte
	oe, ue []byte
	perms  []byte
	p      int32
	id     []byte

	encryptMetadata bool

	key   []byte
	owner bool
}

// New reads an /Encrypt dictionary. id is the first element of the
// trailer /ID array. Dictionaries this package cannot handle produce an
// error with code core.ErrCodeHandler.
func New(encrypt *core.Dict, id []byte) (*Handler, error) {
	const op = "security.New"
	if encrypt == nil {
		return nil, core.NewError(core.ErrCodeHandler, op, fmt.Errorf("missing /Encrypt dictionary: %w", core.ErrUnsupportedHandler))
	}
	if filter := encrypt.GetName("Filter"); filter != "Standard" {
		return nil, core.NewError(core.ErrCodeHandler, op, fmt.Errorf("filter %q: %w", filter, core.ErrUnsupportedHandler))
	}

	h := &Handler{
		v:               encrypt.GetInteger("V"),
		r:               encrypt.GetInteger("R"),
		o:               []byte(encrypt.GetString("O")),
		u:               []byte(encrypt.GetString("U")),
		oe:              []byte(encrypt.GetString("OE")),
		ue:              []byte(encrypt.GetString("UE")),
		perms:           []byte(encrypt.GetString("Perms")),
		p:               int32(encrypt.GetInteger("P")),
		id:              id,
		encryptMetadata: encrypt.GetBool("EncryptMetadata", true),
	}
	if err := h.loadCipher(encrypt); err != nil {
		return nil, core.NewError(core.ErrCodeHandler, op, err)
	}
	if h.r < 2 || h.r > 6 {
		return nil, core.NewError(core.ErrCodeHandler, op, fmt.Errorf("revision %d: %w", h.r, core.ErrUnsupportedHandler))
	}
	if h.r >= 5 {
		if len(h.o) < 48 || len(h.u) < 48 {
			return nil, core.NewError(core.ErrCodeHandler, op, fmt.Errorf("/O or /U shorter than 48 bytes: %w", core.ErrUnsupportedHandler))
		}
	} else if len(h.o) < 32 {
		return nil, core.NewError(core.ErrCodeHandler, op, fmt.Errorf("/O shorter than 32 bytes: %w", core.ErrUnsupportedHandler))
	}
	return h, nil
}

// loadCipher picks the cipher and key length from /V, /Length and the
// crypt filter dictionaries.
func (h *Handler) loadCipher(encrypt *core.Dict) error {
	switch h.v {
	case 0, 1:
		h.cipher, h.keyLen = CipherRC4, 5
		return nil
	case 2, 3:
		if h.v == 3 {
			return fmt.Errorf("V 3: %w", core.ErrUnsupportedHandler)
		}
		h.cipher = CipherRC4
		h.keyLen = keyBytes(encrypt.GetInteger("Length"), 5)
		return nil
	case 4, 5:
	default:
		return fmt.Errorf("V %d: %w", h.v, core.ErrUnsupportedHandler)
	}

	stmf := encrypt.GetName("StmF")
	strf := encrypt.GetName("StrF")
	if stmf == "" {
		stmf = "Identity"
	}
	if strf == "" {
		strf = "Identity"
	}
	if stmf != strf {
		return fmt.Errorf("different string and stream filters %s and %s: %w", strf, stmf, core.ErrUnsupportedHandler)
	}
	if h.v == 5 {
		h.keyLen = 32
	} else {
		h.keyLen = keyBytes(encrypt.GetInteger("Length"), 16)
	}
	if stmf == "Identity" {
		h.cipher = CipherNone
		return nil
	}

	cf := encrypt.GetDict("CF").GetDict(stmf)
	if cf == nil {
		return fmt.Errorf("crypt filter %s not defined: %w", stmf, core.ErrUnsupportedHandler)
	}
	switch cfm := cf.GetName("CFM"); cfm {
	case "V2":
		h.cipher = CipherRC4
	case "AESV2":
		h.cipher = CipherAESV2
	case "AESV3":
		h.cipher = CipherAESV3
	case "None", "":
		h.cipher = CipherNone
	default:
		return fmt.Errorf("crypt filter method %s: %w", cfm, core.ErrUnsupportedHandler)
	}
	if h.v == 4 && cf.Has("Length") {
		h.keyLen = keyBytes(cf.GetInteger("Length"), h.keyLen)
	}
	if h.cipher == CipherAESV2 {
		h.keyLen = 16
	}
	if h.cipher == CipherAESV3 {
		h.keyLen = 32
	}
	return nil
}

// keyBytes converts a /Length value to bytes. Some writers put the
// length in bytes rather than bits.
func keyBytes(length, def int) int {
	switch {
	case length <= 0:
		return def
	case length < 40:
		length *= 8
	}
	n := length / 8
	if n < 5 {
		n = 5
	}
	if n > 16 {
		n = 16
	}
	return n
}

// Authenticate checks password first as the user password and then as
// the owner password. A rejected password yields an error with code
// core.ErrCodePassword.
func (h *Handler) Authenticate(password string) error {
	pw := passwordBytes(password, h.r)
	var key []byte
	var owner bool
	if h.r >= 5 {
		key, owner = h.checkAES256(pw)
	} else {
		key, owner = h.checkRC4(pw)
	}
	if key == nil {
		return core.NewError(core.ErrCodePassword, "security.Authenticate", core.ErrBadPassword)
	}
	h.key = key
	h.owner = owner
	return nil
}

func (h *Handler) checkRC4(pw []byte) ([]byte, bool) {
	if key := h.userKey(pw); key != nil {
		return key, false
	}
	if key := h.userKey(h.ownerToUser(pw)); key != nil {
		return key, true
	}
	return nil, false
}

// userKey computes the file key for a user password and verifies it
// against /U, returning nil on mismatch.
func (h *Handler) userKey(pw []byte) []byte {
	key := h.fileKey(pw)
	if h.r == 2 {
		if len(h.u) < 32 || !bytes.Equal(rc4Crypt(key, passwordPad), h.u[:32]) {
			return nil
		}
		return key
	}
	if len(h.u) < 16 {
		return nil
	}
	sum := md5.New()
	sum.Write(passwordPad)
	sum.Write(h.id)
	check := rc4Iterated(key, sum.Sum(nil), false)
	if !bytes.Equal(check[:16], h.u[:16]) {
		return nil
	}
	return key
}

// fileKey derives the encryption key from a padded user password.
func (h *Handler) fileKey(pw []byte) []byte {
	n := h.keyLen
	if h.r == 2 {
		n = 5
	}
	sum := md5.New()
	sum.Write(padPassword(pw))
	sum.Write(h.o[:32])
	sum.Write([]byte{byte(h.p), byte(h.p >> 8), byte(h.p >> 16), byte(h.p >> 24)})
	sum.Write(h.id)
	if h.r >= 4 && !h.encryptMetadata {
		sum.Write([]byte{0xff, 0xff, 0xff, 0xff})
	}
	key := sum.Sum(nil)
	if h.r >= 3 {
		for i := 0; i < 50; i++ {
			k := md5.Sum(key[:n])
			key = k[:]
		}
	}
	return key[:n]
}

// ownerToUser recovers the user password stored under the owner key.
func (h *Handler) ownerToUser(pw []byte) []byte {
	n := h.keyLen
	if h.r == 2 {
		n = 5
	}
	digest := md5.Sum(padPassword(pw))
	key := digest[:]
	if h.r >= 3 {
		for i := 0; i < 50; i++ {
			k := md5.Sum(key)
			key = k[:]
		}
	}
	key = key[:n]
	if h.r == 2 {
		return rc4Crypt(key, h.o[:32])
	}
	return rc4Iterated(key, h.o[:32], true)
}

// Decrypt implements core.CryptoHandler.
func (h *Handler) Decrypt(num uint32, gen uint16, data []byte) ([]byte, error) {
	if h.key == nil {
		return nil, core.ErrBadPassword
	}
	switch h.cipher {
	case CipherNone:
		return data, nil
	case CipherRC4:
		return rc4Crypt(h.objectKey(num, gen), data), nil
	case CipherAESV2:
		return aesDecrypt(h.objectKey(num, gen), data)
	default:
		return aesDecrypt(h.key, data)
	}
}

// objectKey derives the per-object key used by RC4 and AESV2.
func (h *Handler) objectKey(num uint32, gen uint16) []byte {
	sum := md5.New()
	sum.Write(h.key)
	sum.Write([]byte{byte(num), byte(num >> 8), byte(num >> 16), byte(gen), byte(gen >> 8)})
	if h.cipher == CipherAESV2 {
		sum.Write([]byte("sAlT"))
	}
	return sum.Sum(nil)[:min(len(h.key)+5, 16)]
}

// Cipher returns the algorithm used for strings and streams
func (h *Handler) Cipher() Cipher {
	return h.cipher
}

// Revision returns /R
func (h *Handler) Revision() int {
	return h.r
}

// KeyLength returns the file key length in bytes
func (h *Handler) KeyLength() int {
	return h.keyLen
}

// Permissions returns /P
func (h *Handler) Permissions() uint32 {
	return uint32(h.p)
}

// IsOwner reports whether the accepted password was the owner password
func (h *Handler) IsOwner() bool {
	return h.owner
}

// EncryptMetadata reports whether the metadata stream is encrypted
func (h *Handler) EncryptMetadata() bool {
	return h.encryptMetadata
}
