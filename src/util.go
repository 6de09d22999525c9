package tracker

import (
	"math"
	"strconv"
	"strings"
)

// Because sometimes it's really convenient to have C's ternary ?:
func IfThenElse[T any](x bool, a T, b T) T { //nolint:ireturn
	if x {
		return a
	} else {
		return b
	}
}

func KnotsToMPH(x float64) float64 {
	return x * 1.15077945
}

func MPHToKnots(x float64) float64 {
	return x * 0.868976
}

func KnotsToKMH(x float64) float64 {
	return x * 1.852
}

func MetersToFeet(x float64) float64 {
	return x * 3.2808399
}

func FeetToMeters(x float64) float64 {
	return x * 0.3048
}

func D2R(d float64) float64 {
	return d * math.Pi / 180
}

func R2D(r float64) float64 {
	return r * 180 / math.Pi
}

// atof behaves like the C library function: leading numeric prefix, 0 if none.
func atof(s string) float64 {
	s = strings.TrimSpace(s)

	var end = 0
	for end < len(s) {
		var c = s[end]
		if (c >= '0' && c <= '9') || c == '.' || ((c == '-' || c == '+') && end == 0) {
			end++
			continue
		}
		break
	}

	for end > 0 {
		var f, err = strconv.ParseFloat(s[:end], 64)
		if err == nil {
			return f
		}
		end--
	}

	return 0
}

func atoi(s string) int {
	return int(atof(s))
}

// hasDigit reports whether a fixed-width field carries a value at all.
// All blank, or all dots, means absent.
func hasDigit(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			return true
		}
	}

	return false
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}

	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}

	return true
}
