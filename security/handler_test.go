package security

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/tsawler/pdfcore/core"
)

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func testID() []byte {
	id := make([]byte, 16)
	for i := range id {
		id[i] = byte(i)
	}
	return id
}

// rc4Vector is an /Encrypt dictionary produced by an independent
// implementation for user "user", owner "owner" and /P -3904.
type rc4Vector struct {
	v, r, length int
	o, u, key    string
	ciphertext   string // "Hello, world" as object 7 0
}

var (
	vectorR2 = rc4Vector{
		v: 1, r: 2, length: 40,
		o:          "94e8094419662a774442fb072e3d9f19e9d130ec09a4d0061e78fe920f7ab62f",
		u:          "13f520c882d052bf57b416b747c13979bded7ea31240fe41928852aca3894c49",
		key:        "7fca5cfcc5",
		ciphertext: "62937d3e0128f39d4b8ce5f9",
	}
	vectorR3 = rc4Vector{
		v: 2, r: 3, length: 128,
		o:          "0ba3835f88f90388e74e54584125ce142be0de24c6b0d37746e075b891756671",
		u:          "b8d04c0b647956d75df3b1f5a437ef9700000000000000000000000000000000",
		key:        "ebc53cf170c71152a5ba9925bd0fefc3",
		ciphertext: "bc976a62937cb79342baccc9",
	}
)

func (vec rc4Vector) dict(t *testing.T) *core.Dict {
	d := core.NewDict()
	d.Set("Filter", core.Name("Standard"))
	d.Set("V", core.Int(vec.v))
	d.Set("R", core.Int(vec.r))
	d.Set("Length", core.Int(vec.length))
	d.Set("O", core.NewHexString(mustHex(t, vec.o)))
	d.Set("U", core.NewHexString(mustHex(t, vec.u)))
	d.Set("P", core.Int(-3904))
	return d
}

// TestRC4Passwords tests user and owner password checks for R2 and R3
func TestRC4Passwords(t *testing.T) {
	tests := []struct {
		name     string
		vec      rc4Vector
		password string
		owner    bool
		wantErr  bool
	}{
		{"R2 user", vectorR2, "user", false, false},
		{"R2 owner", vectorR2, "owner", true, false},
		{"R2 wrong", vectorR2, "nope", false, true},
		{"R2 empty", vectorR2, "", false, true},
		{"R3 user", vectorR3, "user", false, false},
		{"R3 owner", vectorR3, "owner", true, false},
		{"R3 wrong", vectorR3, "User", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := New(tt.vec.dict(t), testID())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			err = h.Authenticate(tt.password)
			if tt.wantErr {
				if core.CodeOf(err) != core.ErrCodePassword {
					t.Fatalf("expected PASSWORD error, got %v", err)
				}
				if !errors.Is(err, core.ErrBadPassword) {
					t.Errorf("expected ErrBadPassword, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if h.IsOwner() != tt.owner {
				t.Errorf("expected owner=%v", tt.owner)
			}
			if got := hex.EncodeToString(h.key); got != tt.vec.key {
				t.Errorf("expected key %s, got %s", tt.vec.key, got)
			}
		})
	}
}

// TestRC4Decrypt tests per-object RC4 decryption
func TestRC4Decrypt(t *testing.T) {
	for _, vec := range []rc4Vector{vectorR2, vectorR3} {
		h, err := New(vec.dict(t), testID())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := h.Decrypt(7, 0, []byte("x")); err == nil {
			t.Error("expected error before authentication")
		}
		if err := h.Authenticate("user"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, err := h.Decrypt(7, 0, mustHex(t, vec.ciphertext))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != "Hello, world" {
			t.Errorf("R%d: expected %q, got %q", vec.r, "Hello, world", got)
		}
		other, _ := h.Decrypt(8, 0, mustHex(t, vec.ciphertext))
		if string(other) == "Hello, world" {
			t.Errorf("R%d: expected the object number to change the key", vec.r)
		}
	}
}

func aesV2Dict(t *testing.T, encryptMetadata bool) *core.Dict {
	d := vectorR3.dict(t)
	d.Set("V", core.Int(4))
	d.Set("R", core.Int(4))
	std := core.NewDict()
	std.Set("CFM", core.Name("AESV2"))
	std.Set("Length", core.Int(16))
	cf := core.NewDict()
	cf.Set("StdCF", std)
	d.Set("CF", cf)
	d.Set("StmF", core.Name("StdCF"))
	d.Set("StrF", core.Name("StdCF"))
	if !encryptMetadata {
		d.Set("EncryptMetadata", core.Bool(false))
	}
	return d
}

func aesEncrypt(t *testing.T, key, iv, plain []byte) []byte {
	t.Helper()
	block, err := aes.NewCipher(key)
	if err != nil {
		t.Fatal(err)
	}
	pad := aes.BlockSize - len(plain)%aes.BlockSize
	padded := append(append([]byte(nil), plain...), bytes.Repeat([]byte{byte(pad)}, pad)...)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
	return append(append([]byte(nil), iv...), out...)
}

// TestAESV2 tests AES-128 crypt filters with per-object keys
func TestAESV2(t *testing.T) {
	h, err := New(aesV2Dict(t, true), testID())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Cipher() != CipherAESV2 || h.KeyLength() != 16 || h.Revision() != 4 {
		t.Fatalf("unexpected handler: %v %d %d", h.Cipher(), h.KeyLength(), h.Revision())
	}
	if err := h.Authenticate("owner"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sum := md5.New()
	sum.Write(mustHex(t, vectorR3.key))
	sum.Write([]byte{12, 0, 0, 3, 0})
	sum.Write([]byte("sAlT"))
	objKey := sum.Sum(nil)

	plain := []byte("BT /F1 12 Tf (Hello) Tj ET")
	data := aesEncrypt(t, objKey, bytes.Repeat([]byte{7}, 16), plain)
	got, err := h.Decrypt(12, 3, data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, plain) {
		t.Errorf("expected %q, got %q", plain, got)
	}

	if _, err := h.Decrypt(12, 3, data[:20]); err == nil {
		t.Error("expected error for a truncated payload")
	}
	if got, err := h.Decrypt(12, 3, nil); err != nil || len(got) != 0 {
		t.Errorf("expected empty result, got %q, %v", got, err)
	}
}

// TestEncryptMetadataChangesKey tests that /EncryptMetadata false takes
// part in key derivation from R4 on
func TestEncryptMetadataChangesKey(t *testing.T) {
	h, err := New(aesV2Dict(t, false), testID())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.EncryptMetadata() {
		t.Error("expected EncryptMetadata false")
	}
	if err := h.Authenticate("user"); core.CodeOf(err) != core.ErrCodePassword {
		t.Errorf("expected PASSWORD error, got %v", err)
	}
}

// aes256Dict builds an R5 or R6 dictionary around fileKey.
func aes256Dict(t testing.TB, r int, user, owner string, fileKey []byte, p int32) *core.Dict {
	t.Helper()
	h := &Handler{r: r}
	wrap := func(key, data []byte) []byte {
		block, err := aes.NewCipher(key)
		if err != nil {
			t.Fatal(err)
		}
		out := make([]byte, len(data))
		cipher.NewCBCEncrypter(block, make([]byte, aes.BlockSize)).CryptBlocks(out, data)
		return out
	}

	uvs, uks := []byte("uvsalt01"), []byte("ukysalt1")
	ovs, oks := []byte("ovsalt01"), []byte("okysalt1")
	upw := passwordBytes(user, r)
	opw := passwordBytes(owner, r)

	u := append(append(h.hashAES256(upw, uvs, nil), uvs...), uks...)
	ue := wrap(h.hashAES256(upw, uks, nil), fileKey)
	o := append(append(h.hashAES256(opw, ovs, u), ovs...), oks...)
	oe := wrap(h.hashAES256(opw, oks, u), fileKey)

	perms := make([]byte, 16)
	binary.LittleEndian.PutUint32(perms, uint32(p))
	copy(perms[4:], []byte{0xff, 0xff, 0xff, 0xff, 'T', 'a', 'd', 'b', 1, 2, 3, 4})
	block, err := aes.NewCipher(fileKey)
	if err != nil {
		t.Fatal(err)
	}
	block.Encrypt(perms, perms)

	d := core.NewDict()
	d.Set("Filter", core.Name("Standard"))
	d.Set("V", core.Int(5))
	d.Set("R", core.Int(r))
	d.Set("Length", core.Int(256))
	d.Set("O", core.NewHexString(o))
	d.Set("U", core.NewHexString(u))
	d.Set("OE", core.NewHexString(oe))
	d.Set("UE", core.NewHexString(ue))
	d.Set("Perms", core.NewHexString(perms))
	d.Set("P", core.Int(p))
	std := core.NewDict()
	std.Set("CFM", core.Name("AESV3"))
	cf := core.NewDict()
	cf.Set("StdCF", std)
	d.Set("CF", cf)
	d.Set("StmF", core.Name("StdCF"))
	d.Set("StrF", core.Name("StdCF"))
	return d
}

// TestAES256 tests R5 and R6 password checks and AESV3 decryption
func TestAES256(t *testing.T) {
	fileKey := bytes.Repeat([]byte{0x5a, 0xc3}, 16)

	for _, r := range []int{5, 6} {
		dict := aes256Dict(t, r, "user", "owner", fileKey, -1028)

		tests := []struct {
			name     string
			password string
			owner    bool
			wantErr  bool
		}{
			{"user", "user", false, false},
			{"owner", "owner", true, false},
			{"wrong", "guess", false, true},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h, err := New(dict, testID())
				if err != nil {
					t.Fatalf("R%d: unexpected error: %v", r, err)
				}
				err = h.Authenticate(tt.password)
				if tt.wantErr {
					if core.CodeOf(err) != core.ErrCodePassword {
						t.Errorf("R%d: expected PASSWORD error, got %v", r, err)
					}
					return
				}
				if err != nil {
					t.Fatalf("R%d: unexpected error: %v", r, err)
				}
				if h.IsOwner() != tt.owner {
					t.Errorf("R%d: expected owner=%v", r, tt.owner)
				}
				if !bytes.Equal(h.key, fileKey) {
					t.Errorf("R%d: expected unwrapped file key", r)
				}
				plain := []byte("(secret)")
				got, err := h.Decrypt(4, 0, aesEncrypt(t, fileKey, bytes.Repeat([]byte{1}, 16), plain))
				if err != nil || !bytes.Equal(got, plain) {
					t.Errorf("R%d: expected %q, got %q, %v", r, plain, got, err)
				}
			})
		}
	}
}

// TestAES256PermsMismatch tests that /Perms must agree with /P
func TestAES256PermsMismatch(t *testing.T) {
	dict := aes256Dict(t, 6, "user", "owner", bytes.Repeat([]byte{9}, 32), -4)
	dict.Set("P", core.Int(-8))
	h, err := New(dict, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := h.Authenticate("user"); core.CodeOf(err) != core.ErrCodePassword {
		t.Errorf("expected PASSWORD error, got %v", err)
	}
}

// TestNewErrors tests dictionaries the handler refuses
func TestNewErrors(t *testing.T) {
	base := func(t *testing.T) *core.Dict { return vectorR3.dict(t) }

	tests := []struct {
		name   string
		modify func(d *core.Dict) *core.Dict
	}{
		{"missing", func(d *core.Dict) *core.Dict { return nil }},
		{"public key filter", func(d *core.Dict) *core.Dict { d.Set("Filter", core.Name("Adobe.PubSec")); return d }},
		{"V 3", func(d *core.Dict) *core.Dict { d.Set("V", core.Int(3)); return d }},
		{"V 7", func(d *core.Dict) *core.Dict { d.Set("V", core.Int(7)); return d }},
		{"R 7", func(d *core.Dict) *core.Dict { d.Set("R", core.Int(7)); return d }},
		{"short O", func(d *core.Dict) *core.Dict { d.Set("O", core.NewString("short")); return d }},
		{"mismatched filters", func(d *core.Dict) *core.Dict {
			d.Set("V", core.Int(4))
			d.Set("StmF", core.Name("StdCF"))
			d.Set("StrF", core.Name("Identity"))
			return d
		}},
		{"undefined filter", func(d *core.Dict) *core.Dict {
			d.Set("V", core.Int(4))
			d.Set("StmF", core.Name("StdCF"))
			d.Set("StrF", core.Name("StdCF"))
			return d
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.modify(base(t)), testID())
			if core.CodeOf(err) != core.ErrCodeHandler {
				t.Fatalf("expected HANDLER error, got %v", err)
			}
			if !errors.Is(err, core.ErrUnsupportedHandler) {
				t.Errorf("expected ErrUnsupportedHandler, got %v", err)
			}
		})
	}
}

// TestIdentityFilter tests V4 dictionaries that leave data unencrypted
func TestIdentityFilter(t *testing.T) {
	d := vectorR3.dict(t)
	d.Set("V", core.Int(4))
	d.Set("R", core.Int(4))
	h, err := New(d, testID())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.Cipher() != CipherNone {
		t.Errorf("expected None, got %v", h.Cipher())
	}
	if err := h.Authenticate("user"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := h.Decrypt(1, 0, []byte("plain")); string(got) != "plain" {
		t.Errorf("expected data unchanged, got %q", got)
	}
}

// TestKeyBytes tests /Length interpretation
func TestKeyBytes(t *testing.T) {
	tests := []struct {
		length, def, expected int
	}{
		{0, 5, 5},
		{40, 16, 5},
		{128, 5, 16},
		{16, 5, 16},
		{256, 5, 16},
		{-8, 7, 7},
	}
	for _, tt := range tests {
		if got := keyBytes(tt.length, tt.def); got != tt.expected {
			t.Errorf("keyBytes(%d, %d): expected %d, got %d", tt.length, tt.def, tt.expected, got)
		}
	}
}

// BenchmarkAuthenticateR6 benchmarks the iterated R6 password hash
func BenchmarkAuthenticateR6(b *testing.B) {
	dict := aes256Dict(b, 6, "user", "owner", bytes.Repeat([]byte{3}, 32), -4)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h, _ := New(dict, nil)
		if err := h.Authenticate("user"); err != nil {
			b.Fatal(err)
		}
	}
}
