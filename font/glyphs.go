package font

// glyphRunes covers the glyph names of the Latin standard encodings that
// are not a single letter.
var glyphRunes = map[string]rune{
	"space": ' ', "exclam": '!', "quotedbl": '"', "numbersign": '#',
	"dollar": '$', "percent": '%', "ampersand": '&', "quotesingle": '\'',
	"quoteright": '’', "parenleft": '(', "parenright": ')', "asterisk": '*',
	"plus": '+', "comma": ',', "hyphen": '-', "period": '.', "slash": '/',
	"zero": '0', "one": '1', "two": '2', "three": '3', "four": '4',
	"five": '5', "six": '6', "seven": '7', "eight": '8', "nine": '9',
	"colon": ':', "semicolon": ';', "less": '<', "equal": '=', "greater": '>',
	"question": '?', "at": '@', "bracketleft": '[', "backslash": '\\',
	"bracketright": ']', "asciicircum": '^', "underscore": '_', "grave": '`',
	"quoteleft": '‘', "braceleft": '{', "bar": '|', "braceright": '}',
	"asciitilde": '~',

	"exclamdown": '¡', "cent": '¢', "sterling": '£', "fraction": '⁄',
	"yen": '¥', "florin": 'ƒ', "section": '§', "currency": '¤',
	"quotedblleft": '“', "guillemotleft": '«', "guilsinglleft": '‹',
	"guilsinglright": '›', "fi": 'ﬁ', "fl": 'ﬂ', "endash": '–',
	"dagger": '†', "daggerdbl": '‡', "periodcentered": '·',
	"paragraph": '¶', "bullet": '•', "quotesinglbase": '‚',
	"quotedblbase": '„', "quotedblright": '”', "guillemotright": '»',
	"ellipsis": '…', "perthousand": '‰', "questiondown": '¿',
	"acute": '´', "circumflex": 'ˆ', "tilde": '˜', "macron": '¯',
	"breve": '˘', "dotaccent": '˙', "dieresis": '¨', "ring": '˚',
	"cedilla": '¸', "hungarumlaut": '˝', "ogonek": '˛', "caron": 'ˇ',
	"emdash": '—', "AE": 'Æ', "ordfeminine": 'ª', "Lslash": 'Ł',
	"Oslash": 'Ø', "OE": 'Œ', "ordmasculine": 'º', "ae": 'æ', "dotlessi": 'ı',
	"lslash": 'ł', "oslash": 'ø', "oe": 'œ', "germandbls": 'ß',

	"Euro": '€', "trademark": '™', "copyright": '©', "registered": '®',
	"degree": '°', "plusminus": '±', "multiply": '×', "divide": '÷',
	"mu": 'µ', "logicalnot": '¬', "brokenbar": '¦', "onehalf": '½',
	"onequarter": '¼', "threequarters": '¾', "minus": '−', "nbspace": '\u00A0',
	"Eth": 'Ð', "eth": 'ð', "Thorn": 'Þ', "thorn": 'þ',
}

// standardHigh lists the StandardEncoding codes above 0x7F.
var standardHigh = map[byte]string{
	0xA1: "exclamdown", 0xA2: "cent", 0xA3: "sterling", 0xA4: "fraction",
	0xA5: "yen", 0xA6: "florin", 0xA7: "section", 0xA8: "currency",
	0xA9: "quotesingle", 0xAA: "quotedblleft", 0xAB: "guillemotleft",
	0xAC: "guilsinglleft", 0xAD: "guilsinglright", 0xAE: "fi", 0xAF: "fl",
	0xB1: "endash", 0xB2: "dagger", 0xB3: "daggerdbl", 0xB4: "periodcentered",
	0xB6: "paragraph", 0xB7: "bullet", 0xB8: "quotesinglbase",
	0xB9: "quotedblbase", 0xBA: "quotedblright", 0xBB: "guillemotright",
	0xBC: "ellipsis", 0xBD: "perthousand", 0xBF: "questiondown",
	0xC1: "grave", 0xC2: "acute", 0xC3: "circumflex", 0xC4: "tilde",
	0xC5: "macron", 0xC6: "breve", 0xC7: "dotaccent", 0xC8: "dieresis",
	0xCA: "ring", 0xCB: "cedilla", 0xCD: "hungarumlaut", 0xCE: "ogonek",
	0xCF: "caron", 0xD0: "emdash", 0xE1: "AE", 0xE3: "ordfeminine",
	0xE8: "Lslash", 0xE9: "Oslash", 0xEA: "OE", 0xEB: "ordmasculine",
	0xF1: "ae", 0xF5: "dotlessi", 0xF8: "lslash", 0xF9: "oslash",
	0xFA: "oe", 0xFB: "germandbls",
}
