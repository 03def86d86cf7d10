package font

// standardFonts lists the base 14 font names, including the common
// aliases writers use for them.
var standardFonts = map[string]string{
	"Helvetica":             "Helvetica",
	"Helvetica-Bold":        "Helvetica",
	"Helvetica-Oblique":     "Helvetica",
	"Helvetica-BoldOblique": "Helvetica",
	"Arial":                 "Helvetica",
	"Arial,Bold":            "Helvetica",
	"Times-Roman":           "Times",
	"Times-Bold":            "Times",
	"Times-Italic":          "Times",
	"Times-BoldItalic":      "Times",
	"TimesNewRoman":         "Times",
	"Courier":               "Courier",
	"Courier-Bold":          "Courier",
	"Courier-Oblique":       "Courier",
	"Courier-BoldOblique":   "Courier",
	"CourierNew":            "Courier",
	"Symbol":                "Symbol",
	"ZapfDingbats":          "ZapfDingbats",
}

// helveticaWidths holds the Helvetica advance widths of codes 32 to 126.
var helveticaWidths = [95]float64{
	278, 278, 355, 556, 556, 889, 667, 191, 333, 333, 389, 584, 278, 333, 278, 278,
	556, 556, 556, 556, 556, 556, 556, 556, 556, 556, 278, 278, 584, 584, 584, 556,
	1015, 667, 667, 722, 722, 667, 611, 778, 722, 278, 500, 667, 556, 833, 722, 778,
	667, 778, 722, 667, 611, 722, 667, 944, 667, 667, 611, 278, 278, 278, 469, 556,
	333, 556, 556, 500, 556, 556, 278, 556, 556, 222, 222, 500, 222, 833, 556, 556,
	556, 556, 333, 500, 278, 556, 500, 722, 500, 500, 500, 334, 260, 334, 584,
}

// standardWidth returns a built-in advance width for code in one of the
// base 14 families. Only Courier and the ASCII range of Helvetica carry
// metrics; other fonts report ok=false.
func standardWidth(family string, code int) (float64, bool) {
	switch family {
	case "Courier":
		return 600, true
	case "Helvetica":
		if code >= 32 && code <= 126 {
			return helveticaWidths[code-32], true
		}
	}
	return 0, false
}
