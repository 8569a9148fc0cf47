package csvio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParsePrice akceptuje "350,50", "1 250,00", "1.250,00", "12.5", spacje twarde i
// dopiski waluty. Nieparsowalna lub ujemna wartość daje zero.
func ParsePrice(s string) decimal.Decimal {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == ',', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	clean := strings.Trim(b.String(), ".,")
	if clean == "" || clean == "-" {
		return decimal.Zero
	}

	lastComma := strings.LastIndex(clean, ",")
	lastDot := strings.LastIndex(clean, ".")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		// separator dziesiętny to ten, który występuje ostatni
		if lastComma > lastDot {
			clean = strings.ReplaceAll(clean, ".", "")
			clean = strings.Replace(clean, ",", ".", 1)
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(clean, ",") > 1 {
			clean = strings.ReplaceAll(clean, ",", "")
		} else {
			clean = strings.Replace(clean, ",", ".", 1)
		}
	case lastDot >= 0 && strings.Count(clean, ".") > 1:
		clean = strings.ReplaceAll(clean, ".", "")
	}

	d, err := decimal.NewFromString(clean)
	if err != nil || d.IsNegative() {
		return decimal.Zero
	}
	return d.Round(2)
}

// ParseInt toleruje spacje (także twarde) i końcówkę ".0"; puste = 0.
func ParseInt(s string) (int, error) {
	clean := stripSpaces(s)
	if clean == "" {
		return 0, nil
	}
	if i := strings.IndexAny(clean, ".,"); i >= 0 {
		if strings.Trim(clean[i+1:], "0") != "" {
			return 0, fmt.Errorf("niecałkowita liczba %q", s)
		}
		clean = clean[:i]
	}
	n, err := strconv.Atoi(clean)
	if err != nil {
		return 0, fmt.Errorf("niepoprawna liczba %q", s)
	}
	return n, nil
}

// ParseOptionalInt: "", "-" i "—" oznaczają brak wartości.
func ParseOptionalInt(s string) (*int, error) {
	switch strings.TrimSpace(s) {
	case "", "-", "—", "null":
		return nil, nil
	}
	n, err := ParseInt(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// ParseFloat dla wartości typu pojemność silnika ("1,6", "2.0"); nieparsowalne = 0.
func ParseFloat(s string) float64 {
	clean := strings.Replace(stripSpaces(s), ",", ".", 1)
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0
	}
	return f
}

func ParseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "t", "yes", "y", "да", "д", "+", "x", "tak":
		return true
	}
	return false
}

func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\u00a0', '\u202f':
			return -1
		}
		return r
	}, s)
}
