package core

import (
	"fmt"

	"github.com/tsawler/pdfcore/codec"
)

// Filters returns the stream's filter chain from /Filter and /DecodeParms.
// A /DecodeParms dictionary applies to every stage; an array is matched by
// index. Crypt stages are dropped since payloads are decrypted
// when the stream is read.
func (s *Stream) Filters() ([]codec.Stage, error) {
	filterObj := Direct(s.Dict.Get("Filter"))
	if filterObj == nil {
		return nil, nil
	}
	paramsObj := Direct(s.Dict.Get("DecodeParms"))
	if paramsObj == nil {
		paramsObj = Direct(s.Dict.Get("DP"))
	}

	var names []Object
	switch f := filterObj.(type) {
	case Name:
		names = []Object{f}
	case *Array:
		names = f.Items()
	case Null:
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid /Filter of type %s", filterObj.Type())
	}

	stages := make([]codec.Stage, 0, len(names))
	for i, n := range names {
		name, ok := Direct(n).(Name)
		if !ok {
			return nil, fmt.Errorf("filter %d is not a name", i)
		}
		var params *Dict
		switch p := paramsObj.(type) {
		case *Dict:
			params = p
		case *Array:
			params = p.GetDict(i)
		}
		if name == "Crypt" {
			continue
		}
		stages = append(stages, codec.Stage{Name: string(name), Params: toParams(params)})
	}
	return stages, nil
}

// Decode runs the raw payload through the stream's filters using c.
// Image codecs are not applied; their input bytes are returned.
func (s *Stream) Decode(c *codec.Codecs) ([]byte, error) {
	stages, err := s.Filters()
	if err != nil {
		return nil, err
	}
	if len(stages) == 0 {
		return s.raw, nil
	}
	if c == nil {
		c = codec.New()
	}
	return c.Decode(s.raw, stages)
}

// toParams converts a /DecodeParms dictionary to codec parameters.
func toParams(d *Dict) codec.Params {
	if d == nil {
		return nil
	}
	params := make(codec.Params, d.Len())
	for _, k := range d.Keys() {
		switch v := Direct(d.Get(k)).(type) {
		case Int:
			params[k] = int(v)
		case Real:
			params[k] = float64(v)
		case Bool:
			params[k] = bool(v)
		case Name:
			params[k] = string(v)
		case String:
			params[k] = string(v.Value)
		}
	}
	return params
}
