package codec

// Params holds a stage's /DecodeParms entries converted to Go values:
// int for integers, float64 for reals, bool, string for names.
type Params map[string]interface{}

// Int returns the integer parameter key, or def if it is missing or not numeric.
func (p Params) Int(key string, def int) int {
	if p == nil {
		return def
	}
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case int32:
		return int(v)
	case float64:
		return int(v)
	default:
		return def
	}
}

// Bool returns the boolean parameter key, or def.
func (p Params) Bool(key string, def bool) bool {
	if p == nil {
		return def
	}
	if v, ok := p[key].(bool); ok {
		return v
	}
	return def
}
