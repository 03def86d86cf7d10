package colorspace

import (
	"fmt"

	"github.com/tsawler/pdfcore/codec"
	"github.com/tsawler/pdfcore/core"
)

// iccHeaderSize is the fixed size of an ICC profile header.
const iccHeaderSize = 128

// ICCProfile is a decoded ICCBased profile stream
type ICCProfile struct {
	N    int    // component count
	Data []byte // decoded profile
}

// Space returns the four-byte data colour space signature of the profile
// header, e.g. "RGB ", or "" for a short profile.
func (p *ICCProfile) Space() string {
	if len(p.Data) < iccHeaderSize {
		return ""
	}
	return string(p.Data[16:20])
}

// Class returns the profile class signature, e.g. "mntr".
func (p *ICCProfile) Class() string {
	if len(p.Data) < iccHeaderSize {
		return ""
	}
	return string(p.Data[12:16])
}

var spaceComponents = map[string]int{
	"GRAY": 1,
	"RGB ": 3,
	"Lab ": 3,
	"CMYK": 4,
}

// LoadICC decodes an ICCBased profile stream. /N must be 1, 3 or 4; when
// it is missing or invalid the profile header decides.
func LoadICC(obj core.Object, opts ...Option) (*ICCProfile, error) {
	return loadICC(obj, newLoader(opts).codecs)
}

func loadICC(obj core.Object, codecs *codec.Codecs) (*ICCProfile, error) {
	s := core.GetStream(obj)
	if s == nil {
		return nil, fmt.Errorf("ICCBased profile is not a stream: %w", ErrInvalid)
	}
	data, err := s.Decode(codecs)
	if err != nil {
		return nil, fmt.Errorf("ICC profile: %w", err)
	}
	p := &ICCProfile{N: s.Dict.GetInteger("N"), Data: data}
	switch p.N {
	case 1, 3, 4:
		return p, nil
	}
	if n, ok := spaceComponents[p.Space()]; ok {
		p.N = n
		return p, nil
	}
	return nil, fmt.Errorf("ICC profile /N %d: %w", p.N, ErrInvalid)
}
