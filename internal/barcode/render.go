package barcode

import "strings"

// Modules is the bit length of a rendered EAN-13 symbol.
const Modules = 95

const (
	startGuard  = "101"
	centerGuard = "01010"
	endGuard    = "101"
)

var firstDigitPatterns = [10]string{
	"LLLLLL", "LLGLGG", "LLGGLG", "LLGGGL", "LGLLGG",
	"LGGLLG", "LGGGLL", "LGLGLG", "LGLGGL", "LGGLGL",
}

var lPatterns = [10]string{
	"0001101", "0011001", "0010011", "0111101", "0100011",
	"0110001", "0101111", "0111011", "0110111", "0001011",
}

var gPatterns = [10]string{
	"0100111", "0110011", "0011011", "0100001", "0011101",
	"0111001", "0000101", "0010001", "0001001", "0010111",
}

var rPatterns = [10]string{
	"1110010", "1100110", "1101100", "1000010", "1011100",
	"1001110", "1010000", "1000100", "1001000", "1110100",
}

// Pattern is the bar/space sequence for one EAN-13 symbol.
type Pattern struct {
	Bits string `json:"bits"`
	Code string `json:"code"`
}

// Converted reports whether Render had to rewrite the input to get Code.
func (p Pattern) Converted(input string) bool {
	return p.Code != input
}

// Render encodes input as EAN-13. Input that is not already a valid code is
// reduced to its digits, padded or truncated to 12 and given a fresh check
// digit, so Render never fails.
func Render(input string) Pattern {
	code := Normalize(input)

	var b strings.Builder
	b.Grow(Modules)
	b.WriteString(startGuard)

	parity := firstDigitPatterns[code[0]-'0']
	for i := 1; i <= 6; i++ {
		d := code[i] - '0'
		if parity[i-1] == 'G' {
			b.WriteString(gPatterns[d])
		} else {
			b.WriteString(lPatterns[d])
		}
	}

	b.WriteString(centerGuard)
	for i := 7; i < Length; i++ {
		b.WriteString(rPatterns[code[i]-'0'])
	}
	b.WriteString(endGuard)

	return Pattern{Bits: b.String(), Code: code}
}

// Normalize returns input when it is a valid EAN-13, otherwise the coerced
// 13 digit code Render would display.
func Normalize(input string) string {
	if IsValid(input) {
		return input
	}

	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, input)

	if len(digits) < PayloadLength {
		digits = strings.Repeat("0", PayloadLength-len(digits)) + digits
	}
	return withCheckDigit(digits[:PayloadLength])
}

// isGuardModule reports whether module index i belongs to a guard pattern.
func isGuardModule(i int) bool {
	switch {
	case i < 3:
		return true
	case i >= 45 && i < 50:
		return true
	case i >= Modules-3:
		return true
	default:
		return false
	}
}
