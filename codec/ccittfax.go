package codec

import (
	"bytes"

	"golang.org/x/image/ccitt"
)

// CCITTFaxDecode decodes Group 3 or Group 4 fax data.
//
// /K < 0 selects Group 4, otherwise Group 3. /Columns defaults to 1728 and a
// zero /Rows lets the decoder find the height. /BlackIs1 inverts the output.
func CCITTFaxDecode(data []byte, params Params, limit int64) ([]byte, error) {
	columns := params.Int("Columns", 1728)
	rows := params.Int("Rows", 0)
	if rows <= 0 {
		rows = ccitt.AutoDetectHeight
	}

	sf := ccitt.Group3
	if params.Int("K", 0) < 0 {
		sf = ccitt.Group4
	}

	opts := &ccitt.Options{
		Invert: params.Bool("BlackIs1", false),
		Align:  params.Bool("EncodedByteAlign", false),
	}
	r := ccitt.NewReader(bytes.NewReader(data), ccitt.MSB, sf, columns, rows, opts)
	return readLimited(r, limit)
}
