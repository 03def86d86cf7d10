package core

import "strconv"

// MaxRefDepth bounds how many references a single accessor call follows.
// Past it the accessor yields its zero value.
const MaxRefDepth = 64

// Direct follows references until it reaches a direct object. Dangling
// references, references without a holder and chains longer than
// MaxRefDepth yield nil.
func Direct(obj Object) Object {
	return directAt(obj, 0)
}

func directAt(obj Object, depth int) Object {
	ref, ok := obj.(Reference)
	if !ok {
		return obj
	}
	if depth >= MaxRefDepth || ref.holder == nil || ref.Num == 0 {
		return nil
	}
	return directAt(ref.holder.GetIndirectObject(ref.Num), depth+1)
}

// GetDict returns obj as a dictionary. A stream yields its stream dictionary.
func GetDict(obj Object) *Dict {
	switch v := Direct(obj).(type) {
	case *Dict:
		return v
	case *Stream:
		return v.Dict
	}
	return nil
}

// GetArray returns obj as an array, or nil
func GetArray(obj Object) *Array {
	a, _ := Direct(obj).(*Array)
	return a
}

// GetStream returns obj as a stream, or nil
func GetStream(obj Object) *Stream {
	s, _ := Direct(obj).(*Stream)
	return s
}

// GetString returns the textual form of a string, name, number or boolean.
// Other variants yield "".
func GetString(obj Object) string {
	switch v := Direct(obj).(type) {
	case String:
		return string(v.Value)
	case Name:
		return string(v)
	case Int, Real, Bool:
		return v.String()
	}
	return ""
}

// GetName returns the name value of obj, or ""
func GetName(obj Object) string {
	n, _ := Direct(obj).(Name)
	return string(n)
}

// GetInteger returns obj as an integer. Reals are truncated.
func GetInteger(obj Object) int {
	switch v := Direct(obj).(type) {
	case Int:
		return int(v)
	case Real:
		return int(v)
	}
	return 0
}

// GetNumber returns obj as a float
func GetNumber(obj Object) float64 {
	switch v := Direct(obj).(type) {
	case Int:
		return float64(v)
	case Real:
		return float64(v)
	}
	return 0
}

// IsNumber reports whether obj is an Int or a Real
func IsNumber(obj Object) bool {
	switch obj.(type) {
	case Int, Real:
		return true
	}
	return false
}

// parseNumber turns a numeric word into an Int or Real. Words with a '.' are
// reals; malformed words keep the longest numeric prefix.
func parseNumber(word []byte) Object {
	s := string(word)
	hasDot := false
	for _, c := range word {
		if c == '.' {
			hasDot = true
			break
		}
	}
	if !hasDot {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return Int(v)
		}
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return Real(v)
	}
	return lenientNumber(word, hasDot)
}

// lenientNumber reads an optional sign, digits and at most one '.', ignoring
// anything after the first byte that does not fit.
func lenientNumber(word []byte, real bool) Object {
	neg := false
	i := 0
	for i < len(word) && (word[i] == '-' || word[i] == '+') {
		if word[i] == '-' {
			neg = !neg
		}
		i++
	}
	var ip int64
	for ; i < len(word) && word[i] >= '0' && word[i] <= '9'; i++ {
		if ip > (1<<62)/10 {
			continue
		}
		ip = ip*10 + int64(word[i]-'0')
	}
	if !real {
		if neg {
			ip = -ip
		}
		return Int(ip)
	}
	f := float64(ip)
	if i < len(word) && word[i] == '.' {
		scale := 0.1
		for i++; i < len(word) && word[i] >= '0' && word[i] <= '9'; i++ {
			f += float64(word[i]-'0') * scale
			scale /= 10
		}
	}
	if neg {
		f = -f
	}
	return Real(f)
}
