package csvio

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Encoding to nazwa kodowania pliku wejściowego.
type Encoding string

const (
	UTF8        Encoding = "utf-8"
	Windows1251 Encoding = "windows-1251"
	Latin1      Encoding = "iso-8859-1"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DetectEncoding rozpoznaje UTF-8, Windows-1251 albo ISO-8859-1 na podstawie próbki.
// Poprawny UTF-8 wygrywa; w pozostałych przypadkach liczymy litery 0xC0-0xFF (oraz Ё/ё),
// które sąsiadują z inną taką literą. Cyrylica w cp1251 tworzy całe słowa z wysokich
// bajtów, a akcenty Latin-1 pojawiają się pojedynczo między literami ASCII.
func DetectEncoding(sample []byte) Encoding {
	sample = bytes.TrimPrefix(sample, utf8BOM)
	if utf8.Valid(sample) {
		return UTF8
	}

	var letters, paired int
	for i, b := range sample {
		if !isHighLetter(b) {
			continue
		}
		letters++
		if (i > 0 && isHighLetter(sample[i-1])) || (i+1 < len(sample) && isHighLetter(sample[i+1])) {
			paired++
		}
	}
	if letters > 0 && paired*2 >= letters {
		return Windows1251
	}
	return Latin1
}

func isHighLetter(b byte) bool {
	return b >= 0xC0 || b == 0xA8 || b == 0xB8
}

// trimPartialRune obcina niedokończony znak UTF-8 z końca uciętej próbki.
func trimPartialRune(b []byte) []byte {
	for i := 1; i <= utf8.UTFMax && i <= len(b); i++ {
		c := b[len(b)-i]
		if c < utf8.RuneSelf {
			return b
		}
		if utf8.RuneStart(c) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return b[:len(b)-i]
			}
			return b
		}
	}
	return b
}

// lookup zwraca dekoder dla kodowania; nil oznacza UTF-8 (bez transkodowania).
func (e Encoding) lookup() encoding.Encoding {
	switch e {
	case UTF8, "":
		return nil
	case Windows1251:
		return charmap.Windows1251
	case Latin1:
		return charmap.ISO8859_1
	}
	enc, _ := charset.Lookup(normalizeCharset(string(e)))
	return enc
}

// ParseEncoding zamienia etykietę podaną przez użytkownika (np. "cp1251", "latin1")
// na Encoding; puste = autodetekcja.
func ParseEncoding(label string) (Encoding, bool) {
	l := normalizeCharset(label)
	switch l {
	case "":
		return "", true
	case "utf-8", "utf8":
		return UTF8, true
	case "windows-1251":
		return Windows1251, true
	case "iso-8859-1", "latin1":
		return Latin1, true
	}
	if _, name := charset.Lookup(l); name != "" {
		return Encoding(name), true
	}
	return "", false
}

func normalizeCharset(label string) string {
	l := strings.ToLower(strings.TrimSpace(label))
	switch l {
	case "cp1251", "win1251", "win-1251", "windows1251":
		return "windows-1251"
	case "iso8859-1", "iso88591", "latin-1":
		return "iso-8859-1"
	}
	return l
}
