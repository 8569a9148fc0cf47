package catalog

import (
	"strings"
	"unicode"
)

var translit = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "g", 'д': "d", 'е': "e", 'ё': "e", 'ж': "zh",
	'з': "z", 'и': "i", 'й': "y", 'к': "k", 'л': "l", 'м': "m", 'н': "n", 'о': "o",
	'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u", 'ф': "f", 'х': "h", 'ц': "ts",
	'ч': "ch", 'ш': "sh", 'щ': "sch", 'ъ': "", 'ы': "y", 'ь': "", 'э': "e", 'ю': "yu",
	'я': "ya",
}

// Slugify: małe litery, transliteracja cyrylicy, ciągi innych znaków -> "-".
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if t, ok := translit[r]; ok {
			if t != "" {
				b.WriteString(t)
				dash = false
			}
			continue
		}
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// PartSlug = slug nazwy + "-" + pierwsze 8 znaków alfanumerycznych numeru części.
func PartSlug(name, partNumber string) string {
	base := Slugify(name)
	if base == "" {
		base = "part"
	}
	frag := partFragment(partNumber)
	if frag == "" {
		return base
	}
	return base + "-" + frag
}

func partFragment(partNumber string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(partNumber) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			if b.Len() == 8 {
				break
			}
		}
	}
	if b.Len() > 0 {
		return b.String()
	}
	// numer bez znaków ASCII (np. cyrylica) -> transliteracja
	frag := strings.ReplaceAll(Slugify(partNumber), "-", "")
	if len(frag) > 8 {
		frag = frag[:8]
	}
	return frag
}

// CarModelSlug: marka-model[-generacja].
func CarModelSlug(brand, model, generation string) string {
	return Slugify(strings.Join([]string{brand, model, generation}, " "))
}
