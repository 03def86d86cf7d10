package codec

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"io"
)

// FlateDecode inflates zlib data and applies the /Predictor in params.
// A stream that is cut short yields the bytes inflated before the break.
func FlateDecode(data []byte, params Params, limit int64) ([]byte, error) {
	out, err := inflate(data, limit)
	if err != nil {
		return nil, err
	}
	return applyPredictor(out, params)
}

func inflate(data []byte, limit int64) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib header: %w", err)
	}
	defer zr.Close()

	return readLimited(zr, limit)
}

// readLimited drains r, failing once more than limit bytes come out. Truncated
// input is not an error: what was decoded is kept.
func readLimited(r io.Reader, limit int64) ([]byte, error) {
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(r, limit+1))
	if n > limit {
		return nil, ErrTooLarge
	}
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		if buf.Len() == 0 {
			return nil, fmt.Errorf("inflate: %w", err)
		}
	}
	return buf.Bytes(), nil
}
