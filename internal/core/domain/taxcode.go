package domain

import "strings"

const taxCodeLength = 16

// oddValues maps characters in odd (1-based) positions of a tax code to
// their contribution to the control sum. Digits share the values of the
// letters A-J.
var oddValues = map[byte]int{
	'0': 1, '1': 0, '2': 5, '3': 7, '4': 9, '5': 13, '6': 15, '7': 17, '8': 19, '9': 21,
	'A': 1, 'B': 0, 'C': 5, 'D': 7, 'E': 9, 'F': 13, 'G': 15, 'H': 17, 'I': 19, 'J': 21,
	'K': 2, 'L': 4, 'M': 18, 'N': 20, 'O': 11, 'P': 3, 'Q': 6, 'R': 8, 'S': 12, 'T': 14,
	'U': 16, 'V': 10, 'W': 22, 'X': 25, 'Y': 24, 'Z': 23,
}

// evenValue returns the contribution of a character in an even (1-based)
// position: 0-9 for digits, 0-25 for letters. ok is false for any other byte.
func evenValue(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'A' && c <= 'Z':
		return int(c - 'A'), true
	}
	return 0, false
}

// ValidateTaxCode checks a 16-character national tax code: the first 15
// characters are mapped through position-dependent tables, summed mod 26,
// and the resulting letter must equal the final character. The check is a
// pure function; a nil return means the code is valid.
func ValidateTaxCode(code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))

	if len(code) != taxCodeLength {
		return &ValidationError{Field: "tax_code", Reason: "must be 16 characters"}
	}

	sum := 0
	for i := 0; i < taxCodeLength-1; i++ {
		c := code[i]
		if _, ok := evenValue(c); !ok {
			return &ValidationError{Field: "tax_code", Reason: "contains invalid characters"}
		}
		// i is zero-based, so even i is an odd 1-based position.
		if i%2 == 0 {
			sum += oddValues[c]
		} else {
			v, _ := evenValue(c)
			sum += v
		}
	}

	check := code[taxCodeLength-1]
	if check < 'A' || check > 'Z' {
		return &ValidationError{Field: "tax_code", Reason: "contains invalid characters"}
	}
	if byte('A'+sum%26) != check {
		return &ValidationError{Field: "tax_code", Reason: "checksum mismatch"}
	}
	return nil
}
