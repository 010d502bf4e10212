// Package barcode implements EAN-13 generation, validation, rendering and
// best-effort reverse lookup for product SKUs.
//
// Every function in this package is pure apart from the Generator's clock
// read, and is safe for concurrent use.
package barcode

import "regexp"

const (
	// Length is the number of digits in an EAN-13 code.
	Length = 13
	// PayloadLength is the number of digits covered by the check digit.
	PayloadLength = 12
	// CountryPrefix is prepended to every generated code.
	CountryPrefix = "789"
)

var digitsOnly = regexp.MustCompile(`^\d{13}$`)

// CheckDigit returns the EAN-13 check digit for a 12 digit payload.
// The payload must already be 12 ASCII digits.
func CheckDigit(code12 string) int {
	sum := 0
	for i := 0; i < PayloadLength; i++ {
		d := int(code12[i] - '0')
		if i%2 == 0 {
			sum += d
		} else {
			sum += d * 3
		}
	}
	rem := sum % 10
	if rem == 0 {
		return 0
	}
	return 10 - rem
}

// IsValid reports whether code is 13 digits with a matching check digit.
func IsValid(code string) bool {
	if len(code) != Length {
		return false
	}
	if !digitsOnly.MatchString(code) {
		return false
	}
	return int(code[PayloadLength]-'0') == CheckDigit(code[:PayloadLength])
}

func withCheckDigit(payload string) string {
	return payload + string(rune('0'+CheckDigit(payload)))
}
