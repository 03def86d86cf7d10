package codec

import (
	"bytes"
	"compress/lzw"
	"io"

	tifflzw "golang.org/x/image/tiff/lzw"
)

// LZWDecode expands LZW data. /EarlyChange 1 (the PDF default) switches code
// width one code early, the same convention TIFF uses, so the x/image TIFF
// reader handles it; /EarlyChange 0 uses the plain GIF-style reader.
func LZWDecode(data []byte, params Params, limit int64) ([]byte, error) {
	var rc io.ReadCloser
	if params.Int("EarlyChange", 1) == 0 {
		rc = lzw.NewReader(bytes.NewReader(data), lzw.MSB, 8)
	} else {
		rc = tifflzw.NewReader(bytes.NewReader(data), tifflzw.MSB, 8)
	}
	defer rc.Close()

	out, err := readLimited(rc, limit)
	if err != nil {
		return nil, err
	}
	return applyPredictor(out, params)
}
