package cpf

import "strings"

// Valid reports whether s is a well-formed CPF. Punctuated forms
// ("529.982.247-25") and bare digit strings are both accepted.
func Valid(s string) bool {
	digits := strip(s)
	if len(digits) != 11 {
		return false
	}
	if allSame(digits) {
		return false
	}

	if checkDigit(digits[:9], 10) != int(digits[9]-'0') {
		return false
	}
	if checkDigit(digits[:10], 11) != int(digits[10]-'0') {
		return false
	}
	return true
}

func strip(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-':
			// separators are fine
		default:
			return ""
		}
	}
	return b.String()
}

func allSame(digits string) bool {
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return false
		}
	}
	return true
}

func checkDigit(digits string, startWeight int) int {
	sum := 0
	for i, d := range digits {
		sum += int(d-'0') * (startWeight - i)
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}
