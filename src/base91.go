package tracker

/* Range of digits for Base 91 representation. */

const B91_MIN = '!'
const B91_MAX = '{'

func isdigit91(c byte) bool {
	return ((c) >= B91_MIN && (c) <= B91_MAX)
}

// base91Decode converts a run of base 91 digits, most significant first.
// Returns false if any byte is out of range.
func base91Decode(digits string) (int, bool) {
	var result = 0

	for i := 0; i < len(digits); i++ {
		if !isdigit91(digits[i]) {
			return 0, false
		}
		result = result*91 + int(digits[i]-B91_MIN)
	}

	return result, true
}

// base91Encode produces exactly width digits, most significant first.
func base91Encode(value int, width int) string {
	var out = make([]byte, width)

	for i := width - 1; i >= 0; i-- {
		out[i] = byte(value%91) + B91_MIN
		value /= 91
	}

	return string(out)
}
