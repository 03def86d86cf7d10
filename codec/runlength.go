package codec

// RunLengthDecode expands PackBits-style runs. A length byte of 0-127 copies
// the next n+1 bytes, 129-255 repeats the next byte 257-n times and 128 ends
// the data. Truncated input keeps what was decoded.
func RunLengthDecode(data []byte, _ Params, limit int64) ([]byte, error) {
	out := make([]byte, 0, len(data)*2)
	for i := 0; i < len(data); {
		n := int(data[i])
		i++
		switch {
		case n == 128:
			return out, nil
		case n < 128:
			end := i + n + 1
			if end > len(data) {
				end = len(data)
			}
			out = append(out, data[i:end]...)
			i = end
		default:
			if i >= len(data) {
				return out, nil
			}
			b := data[i]
			i++
			for k := 0; k < 257-n; k++ {
				out = append(out, b)
			}
		}
		if int64(len(out)) > limit {
			return nil, ErrTooLarge
		}
	}
	return out, nil
}
