package codec

import "fmt"

type predictorLayout struct {
	colors   int
	bpc      int
	columns  int
	pixel    int // bytes per pixel, at least 1
	rowBytes int
}

func layoutFrom(params Params) (predictorLayout, error) {
	l := predictorLayout{
		colors:  params.Int("Colors", 1),
		bpc:     params.Int("BitsPerComponent", 8),
		columns: params.Int("Columns", 1),
	}
	if l.colors < 1 || l.columns < 1 {
		return l, fmt.Errorf("invalid predictor geometry colors=%d columns=%d", l.colors, l.columns)
	}
	switch l.bpc {
	case 1, 2, 4, 8, 16:
	default:
		return l, fmt.Errorf("unsupported BitsPerComponent %d", l.bpc)
	}
	l.pixel = (l.colors*l.bpc + 7) / 8
	l.rowBytes = (l.colors*l.bpc*l.columns + 7) / 8
	return l, nil
}

// applyPredictor undoes TIFF predictor 2 or the PNG predictors 10-15.
// Predictor 1 or an absent /Predictor returns data unchanged.
func applyPredictor(data []byte, params Params) ([]byte, error) {
	predictor := params.Int("Predictor", 1)
	switch {
	case predictor <= 1:
		return data, nil
	case predictor == 2:
		l, err := layoutFrom(params)
		if err != nil {
			return nil, err
		}
		return tiffPredictor(data, l), nil
	case predictor >= 10 && predictor <= 15:
		l, err := layoutFrom(params)
		if err != nil {
			return nil, err
		}
		return pngPredictor(data, l)
	default:
		return nil, fmt.Errorf("unsupported predictor %d", predictor)
	}
}

// pngPredictor decodes rows prefixed by a filter-type byte. A short final row
// is decoded as far as it goes.
func pngPredictor(data []byte, l predictorLayout) ([]byte, error) {
	stride := l.rowBytes + 1
	out := make([]byte, 0, len(data)/stride*l.rowBytes+l.rowBytes)
	prev := make([]byte, l.rowBytes)
	cur := make([]byte, l.rowBytes)

	for start := 0; start < len(data); start += stride {
		end := start + stride
		if end > len(data) {
			end = len(data)
		}
		tag := data[start]
		src := data[start+1 : end]
		for i := range cur {
			cur[i] = 0
		}
		copy(cur, src)

		if err := unfilterRow(tag, cur[:len(src)], prev, l.pixel); err != nil {
			return nil, fmt.Errorf("row %d: %w", start/stride, err)
		}
		out = append(out, cur[:len(src)]...)
		prev, cur = cur, prev
	}
	return out, nil
}

func unfilterRow(tag byte, row, prev []byte, bpp int) error {
	switch tag {
	case 0:
	case 1:
		for i := bpp; i < len(row); i++ {
			row[i] += row[i-bpp]
		}
	case 2:
		for i := range row {
			row[i] += prev[i]
		}
	case 3:
		for i := range row {
			var left byte
			if i >= bpp {
				left = row[i-bpp]
			}
			row[i] += byte((int(left) + int(prev[i])) / 2)
		}
	case 4:
		for i := range row {
			var left, upLeft byte
			if i >= bpp {
				left = row[i-bpp]
				upLeft = prev[i-bpp]
			}
			row[i] += paeth(left, prev[i], upLeft)
		}
	default:
		return fmt.Errorf("unknown PNG filter type %d", tag)
	}
	return nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := absInt(p-int(a)), absInt(p-int(b)), absInt(p-int(c))
	if pa <= pb && pa <= pc {
		return a
	}
	if pb <= pc {
		return b
	}
	return c
}

// tiffPredictor undoes horizontal differencing row by row.
func tiffPredictor(data []byte, l predictorLayout) []byte {
	out := make([]byte, len(data))
	copy(out, data)

	for start := 0; start < len(out); start += l.rowBytes {
		end := start + l.rowBytes
		if end > len(out) {
			end = len(out)
		}
		row := out[start:end]
		switch l.bpc {
		case 8:
			for i := l.colors; i < len(row); i++ {
				row[i] += row[i-l.colors]
			}
		case 16:
			step := 2 * l.colors
			for i := step; i+1 < len(row); i += 2 {
				v := uint16(row[i])<<8 | uint16(row[i+1])
				p := uint16(row[i-step])<<8 | uint16(row[i-step+1])
				v += p
				row[i], row[i+1] = byte(v>>8), byte(v)
			}
		case 1:
			if l.colors != 1 {
				continue
			}
			var carry byte
			for i := range row {
				b := row[i]
				for bit := 7; bit >= 0; bit-- {
					cur := (b >> uint(bit)) & 1
					cur ^= carry
					carry = cur
					b = b&^(1<<uint(bit)) | cur<<uint(bit)
				}
				row[i] = b
			}
		}
	}
	return out
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
