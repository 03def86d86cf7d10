package core

import (
	"errors"
	"io"
	"log/slog"
)

// Character classes used by the tokenizer.
const (
	classRegular byte = iota
	classWhitespace
	classDelimiter
	classNumeric
)

// MaxWordSize bounds a single token. Longer tokens are truncated.
const MaxWordSize = 256

const windowSize = 512

var charClass = func() [256]byte {
	var t [256]byte
	for _, c := range []byte{0, '\t', '\n', '\f', '\r', ' '} {
		t[c] = classWhitespace
	}
	for _, c := range []byte("()<>[]{}/%") {
		t[c] = classDelimiter
	}
	for _, c := range []byte("0123456789+-.") {
		t[c] = classNumeric
	}
	return t
}()

// Word is one token read by the tokenizer.
type Word struct {
	Bytes     []byte
	IsNumber  bool
	Truncated bool // the token was longer than MaxWordSize
}

// String returns the token text
func (w Word) String() string {
	return string(w.Bytes)
}

// Is reports whether the token is exactly kw
func (w Word) Is(kw string) bool {
	return string(w.Bytes) == kw
}

// Empty reports whether no token was read
func (w Word) Empty() bool {
	return len(w.Bytes) == 0
}

// Bookmark is a saved cursor position.
type Bookmark int64

// Syntax tokenizes and parses PDF objects from a Source through a fixed
// read-ahead window. Positions are relative to the header offset.
type Syntax struct {
	src          Source
	size         int64
	headerOffset int64
	pos          int64

	window       []byte
	windowOffset int64

	last Word
	err  error

	holder      Holder
	crypto      CryptoHandler
	metadataNum uint32
	limits      Limits
	logger      *slog.Logger
}

// NewSyntax creates a tokenizer over src. headerOffset is the number of
// junk bytes before %PDF-; all positions are relative to it.
func NewSyntax(src Source, headerOffset int64) *Syntax {
	return &Syntax{
		src:          src,
		size:         src.Size(),
		headerOffset: headerOffset,
		windowOffset: -1,
		limits:       DefaultLimits(),
		logger:       discardLogger(),
	}
}

// Pos returns the current logical position
func (s *Syntax) Pos() int64 {
	return s.pos
}

// SetPos moves the cursor
func (s *Syntax) SetPos(pos int64) {
	s.pos = pos
}

// Mark saves the cursor
func (s *Syntax) Mark() Bookmark {
	return Bookmark(s.pos)
}

// Restore moves the cursor back to a saved position
func (s *Syntax) Restore(b Bookmark) {
	s.pos = int64(b)
}

// Len returns the logical length of the data
func (s *Syntax) Len() int64 {
	return s.size - s.headerOffset
}

// HeaderOffset returns the offset of %PDF- in the source
func (s *Syntax) HeaderOffset() int64 {
	return s.headerOffset
}

// Err returns the first I/O error the tokenizer hit, if any.
func (s *Syntax) Err() error {
	return s.err
}

// SetHolder sets the table references are created against
func (s *Syntax) SetHolder(h Holder) {
	s.holder = h
}

// SetCryptoHandler enables decryption of strings and streams
func (s *Syntax) SetCryptoHandler(h CryptoHandler) {
	s.crypto = h
}

// SetMetadataObjNum names the metadata stream, which is never decrypted.
func (s *Syntax) SetMetadataObjNum(num uint32) {
	s.metadataNum = num
}

// SetLimits replaces the parse limits
func (s *Syntax) SetLimits(l Limits) {
	s.limits = l.Normalize()
}

// SetLogger replaces the logger
func (s *Syntax) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// load fills the window so that it contains the absolute position abs.
// Forward reads start the window at abs; backward reads end it there.
func (s *Syntax) load(abs int64, backward bool) bool {
	start := abs
	if backward {
		start = abs - windowSize + 1
		if start < 0 {
			start = 0
		}
	}
	n := int64(windowSize)
	if start+n > s.size {
		n = s.size - start
	}
	if n <= 0 {
		return false
	}
	if cap(s.window) < windowSize {
		s.window = make([]byte, windowSize)
	}
	s.window = s.window[:n]
	read, err := s.src.ReadAt(s.window, start)
	if err != nil && !errors.Is(err, io.EOF) && s.err == nil {
		s.err = err
	}
	if int64(read) < n {
		if s.err == nil {
			s.err = ErrShortRead
		}
		s.window = s.window[:read]
	}
	s.windowOffset = start
	return abs >= start && abs < start+int64(read)
}

func (s *Syntax) charAt(pos int64, backward bool) (byte, bool) {
	abs := pos + s.headerOffset
	if pos < 0 || abs >= s.size {
		return 0, false
	}
	if s.windowOffset < 0 || abs < s.windowOffset || abs >= s.windowOffset+int64(len(s.window)) {
		if !s.load(abs, backward) {
			return 0, false
		}
	}
	return s.window[abs-s.windowOffset], true
}

// CharAt returns the byte at a logical position without moving the cursor.
func (s *Syntax) CharAt(pos int64) (byte, bool) {
	return s.charAt(pos, false)
}

func (s *Syntax) next() (byte, bool) {
	c, ok := s.charAt(s.pos, false)
	if ok {
		s.pos++
	}
	return c, ok
}

// NextWord reads the next token, skipping whitespace and comments.
func (s *Syntax) NextWord() Word {
	w := s.readWord()
	s.last = w
	if w.Truncated {
		s.logger.Debug("token truncated", slog.Int64("offset", s.pos), slog.Int("limit", MaxWordSize))
	}
	return w
}

func (s *Syntax) readWord() Word {
	var w Word
	buf := make([]byte, 0, 16)
	put := func(c byte) {
		if len(buf) < MaxWordSize {
			buf = append(buf, c)
		} else {
			w.Truncated = true
		}
	}
	c, ok := s.next()
	if !ok {
		return w
	}
	class := charClass[c]
	for {
		for class == classWhitespace {
			if c, ok = s.next(); !ok {
				return w
			}
			class = charClass[c]
		}
		if c != '%' {
			break
		}
		for {
			if c, ok = s.next(); !ok {
				return w
			}
			if c == '\r' || c == '\n' {
				break
			}
		}
		class = charClass[c]
	}

	if class == classDelimiter {
		put(c)
		switch c {
		case '/':
			for {
				if c, ok = s.next(); !ok {
					break
				}
				if cl := charClass[c]; cl != classRegular && cl != classNumeric {
					s.pos--
					break
				}
				put(c)
			}
		case '<', '>':
			first := c
			if c, ok = s.next(); ok {
				if c == first {
					put(c)
				} else {
					s.pos--
				}
			}
		}
		w.Bytes = buf
		return w
	}

	w.IsNumber = true
	for {
		put(c)
		if class != classNumeric {
			w.IsNumber = false
		}
		if c, ok = s.next(); !ok {
			break
		}
		class = charClass[c]
		if class == classDelimiter || class == classWhitespace {
			s.pos--
			break
		}
	}
	w.Bytes = buf
	return w
}

// Keyword reads the next token as a string
func (s *Syntax) Keyword() string {
	return s.NextWord().String()
}

// DirectNum reads the next token as an integer, or 0 if it is not numeric.
func (s *Syntax) DirectNum() int {
	w := s.NextWord()
	if !w.IsNumber {
		return 0
	}
	return atoi(w.Bytes)
}

// ReadString reads a literal string body; the opening '(' has been consumed.
func (s *Syntax) ReadString() []byte {
	c, ok := s.next()
	if !ok {
		return nil
	}
	var buf []byte
	depth := 0
	state := 0
	esc := 0
	for {
		switch state {
		case 0:
			switch c {
			case ')':
				if depth == 0 {
					return buf
				}
				depth--
				buf = append(buf, c)
			case '(':
				depth++
				buf = append(buf, c)
			case '\\':
				state = 1
			default:
				buf = append(buf, c)
			}
		case 1:
			state = 0
			switch c {
			case '0', '1', '2', '3', '4', '5', '6', '7':
				esc = int(c - '0')
				state = 2
			case 'n':
				buf = append(buf, '\n')
			case 'r':
				buf = append(buf, '\r')
			case 't':
				buf = append(buf, '\t')
			case 'b':
				buf = append(buf, '\b')
			case 'f':
				buf = append(buf, '\f')
			case '\r':
				state = 4
			case '\n':
			default:
				buf = append(buf, c)
			}
		case 2, 3:
			if c >= '0' && c <= '7' {
				esc = esc*8 + int(c-'0')
				if state == 2 {
					state = 3
					break
				}
				buf = append(buf, byte(esc))
				state = 0
				break
			}
			buf = append(buf, byte(esc))
			state = 0
			continue
		case 4:
			state = 0
			if c != '\n' {
				continue
			}
		}
		if c, ok = s.next(); !ok {
			break
		}
	}
	return buf
}

// ReadHexString reads a hex string body; the opening '<' has been consumed.
// Non-hex bytes are skipped and an odd final digit is padded with 0.
func (s *Syntax) ReadHexString() []byte {
	var buf []byte
	first := true
	var code byte
	for {
		c, ok := s.next()
		if !ok || c == '>' {
			break
		}
		v, isHex := hexValue(c)
		if !isHex {
			continue
		}
		if first {
			code = v << 4
		} else {
			buf = append(buf, code|v)
		}
		first = !first
	}
	if !first {
		buf = append(buf, code)
	}
	return buf
}

// ToNextLine moves past the next end-of-line marker.
func (s *Syntax) ToNextLine() {
	for {
		c, ok := s.next()
		if !ok || c == '\n' {
			return
		}
		if c == '\r' {
			if c, ok = s.next(); ok && c != '\n' {
				s.pos--
			}
			return
		}
	}
}

// ToNextWord skips whitespace and comments.
func (s *Syntax) ToNextWord() {
	c, ok := s.next()
	if !ok {
		return
	}
	class := charClass[c]
	for {
		for class == classWhitespace {
			if c, ok = s.next(); !ok {
				return
			}
			class = charClass[c]
		}
		if c != '%' {
			break
		}
		for {
			if c, ok = s.next(); !ok {
				return
			}
			if c == '\r' || c == '\n' {
				break
			}
		}
		class = charClass[c]
	}
	s.pos--
}

// ReadEOLMarkers returns 2 for CRLF at pos, 1 for a lone CR or LF, else 0.
func (s *Syntax) ReadEOLMarkers(pos int64) int64 {
	b1, _ := s.CharAt(pos)
	b2, _ := s.CharAt(pos + 1)
	switch {
	case b1 == '\r' && b2 == '\n':
		return 2
	case b1 == '\r' || b1 == '\n':
		return 1
	}
	return 0
}

// ReadBlock reads n bytes at the cursor and advances it.
func (s *Syntax) ReadBlock(n int) ([]byte, error) {
	if n < 0 || s.pos < 0 || s.pos+int64(n) > s.Len() {
		return nil, ErrShortRead
	}
	buf := make([]byte, n)
	if err := readFull(s.src, buf, s.pos+s.headerOffset); err != nil {
		return nil, err
	}
	s.pos += int64(n)
	return buf, nil
}

// atoi parses a leading optionally signed decimal integer, ignoring any
// trailing bytes, the way legacy writers expect.
func atoi(b []byte) int {
	v, _ := atoi64(b)
	return int(v)
}

// atoi64 parses a leading integer and reports whether any digit was seen.
func atoi64(b []byte) (int64, bool) {
	i := 0
	neg := false
	if i < len(b) && (b[i] == '+' || b[i] == '-') {
		neg = b[i] == '-'
		i++
	}
	var v int64
	digits := false
	for ; i < len(b) && b[i] >= '0' && b[i] <= '9'; i++ {
		digits = true
		if v > (1<<62)/10 {
			continue
		}
		v = v*10 + int64(b[i]-'0')
	}
	if neg {
		v = -v
	}
	return v, digits
}

func isDigits(b []byte) bool {
	for _, c := range b {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(b) > 0
}
