package codec

import (
	"errors"
	"fmt"
)

// ErrTooLarge is returned when a decoded stream grows past the configured limit.
var ErrTooLarge = errors.New("decoded stream exceeds size limit")

// ErrUnknownFilter is returned for a filter name with no registered decoder.
var ErrUnknownFilter = errors.New("unknown filter")

// DefaultMaxDecodedSize bounds the output of a single decode call.
const DefaultMaxDecodedSize = 256 << 20

// Decoder decodes one filter stage. limit is the maximum number of bytes the
// stage may produce.
type Decoder func(data []byte, params Params, limit int64) ([]byte, error)

// Stage is one entry of a stream's filter chain.
type Stage struct {
	Name   string
	Params Params
}

type entry struct {
	decode   Decoder
	terminal bool
}

// Codecs holds the registered filter decoders.
type Codecs struct {
	decoders       map[string]entry
	maxDecodedSize int64
}

// Option configures a Codecs value.
type Option func(*Codecs)

// WithMaxDecodedSize sets the output bound for one Decode call.
func WithMaxDecodedSize(n int64) Option {
	return func(c *Codecs) {
		if n > 0 {
			c.maxDecodedSize = n
		}
	}
}

// New creates a Codecs value with the standard PDF filters registered.
func New(opts ...Option) *Codecs {
	c := &Codecs{
		decoders:       make(map[string]entry),
		maxDecodedSize: DefaultMaxDecodedSize,
	}

	c.Register("FlateDecode", FlateDecode, "Fl")
	c.Register("LZWDecode", LZWDecode, "LZW")
	c.Register("RunLengthDecode", RunLengthDecode, "RL")
	c.Register("ASCIIHexDecode", wrapSimple(ASCIIHexDecode), "AHx")
	c.Register("ASCII85Decode", wrapSimple(ASCII85Decode), "A85")
	c.Register("CCITTFaxDecode", CCITTFaxDecode, "CCF")

	for _, name := range []string{"DCTDecode", "DCT", "JPXDecode", "JBIG2Decode"} {
		c.decoders[name] = entry{terminal: true}
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register adds or replaces the decoder for name and its abbreviations.
func (c *Codecs) Register(name string, d Decoder, aliases ...string) {
	c.decoders[name] = entry{decode: d}
	for _, a := range aliases {
		c.decoders[a] = entry{decode: d}
	}
}

// Has reports whether a decoder is registered for name.
func (c *Codecs) Has(name string) bool {
	_, ok := c.decoders[name]
	return ok
}

// IsImageFilter reports whether name is a terminal image codec stage.
func (c *Codecs) IsImageFilter(name string) bool {
	e, ok := c.decoders[name]
	return ok && e.terminal
}

// MaxDecodedSize returns the configured output bound.
func (c *Codecs) MaxDecodedSize() int64 {
	return c.maxDecodedSize
}

// Decode runs data through the filter chain in order. Decoding stops before
// the first image codec stage and returns the bytes produced so far.
func (c *Codecs) Decode(data []byte, chain []Stage) ([]byte, error) {
	out := data
	for i, st := range chain {
		e, ok := c.decoders[st.Name]
		if !ok {
			return nil, fmt.Errorf("stage %d: %w: %s", i, ErrUnknownFilter, st.Name)
		}
		if e.terminal {
			return out, nil
		}
		decoded, err := e.decode(out, st.Params, c.maxDecodedSize)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", st.Name, err)
		}
		if int64(len(decoded)) > c.maxDecodedSize {
			return nil, fmt.Errorf("%s: %w", st.Name, ErrTooLarge)
		}
		out = decoded
	}
	return out, nil
}

func wrapSimple(fn func([]byte) ([]byte, error)) Decoder {
	return func(data []byte, _ Params, _ int64) ([]byte, error) {
		return fn(data)
	}
}
