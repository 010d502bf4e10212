package barcode

import (
	"strings"
	"unicode/utf8"
)

// ExtractEntityID recovers the entity id embedded by Generate.
//
// Codes with the "789" prefix yield their 6 digit id segment. Other 13
// character codes fall back to the first window (8 down to 4 digits before the
// check digit) that still has at least 4 digits once leading zeros are
// dropped. Anything else is returned unchanged. The result is a hint only;
// lookups must match the stored SKU.
func ExtractEntityID(code string) string {
	runes := []rune(code)
	if len(runes) != Length {
		return code
	}

	if strings.HasPrefix(code, CountryPrefix) {
		return stripZeros(string(runes[6:PayloadLength]))
	}

	for size := 8; size >= 4; size-- {
		candidate := stripZeros(string(runes[PayloadLength-size : PayloadLength]))
		if utf8.RuneCountInString(candidate) >= 4 {
			return candidate
		}
	}
	return code
}

func stripZeros(s string) string {
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0"
	}
	return s
}
