package tracker

/*------------------------------------------------------------------
 *
 * Purpose:	Validation and padding of callsigns, object names,
 *		item names and digipeater paths.
 *
 * Description:	Every decoder leans on these.  They are deliberately
 *		strict for RF and relaxed for the internet feed where
 *		lots of things that are not amateur callsigns show up
 *		as the source of a packet.
 *
 *------------------------------------------------------------------*/

import (
	"strings"
)

const MAX_CALLSIGN = 9

/*-------------------------------------------------------------------
 *
 * Name:	PadCallsign
 *
 * Purpose:	Produce the 9 character addressee field used in messages.
 *
 * Description:	Anything other than letters, digits or '-' becomes a
 *		space.  Longer input is truncated.
 *
 *--------------------------------------------------------------------*/

func PadCallsign(call string) string {
	var out = []byte("         ")

	for i := 0; i < len(call) && i < MAX_CALLSIGN; i++ {
		var c = call[i]
		if isAlnum(c) || c == '-' {
			out[i] = c
		}
	}

	return string(out)
}

func isAlnum(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}

// ValidCall checks an amateur callsign heard over RF.
// Base call must contain both letters and digits, optional SSID 1-15.
func ValidCall(call string) bool {
	var n = len(call)
	if n == 0 || n > MAX_CALLSIGN {
		return false
	}

	var base = call
	if i := strings.IndexByte(call, '-'); i >= 0 {
		base = call[:i]
		var ssid = call[i+1:]
		switch len(ssid) {
		case 1:
			if ssid[0] < '1' || ssid[0] > '9' {
				return false
			}
		case 2:
			if ssid[0] != '1' || ssid[1] < '0' || ssid[1] > '5' {
				return false
			}
		default:
			return false
		}
	}

	if len(base) == 0 || len(base) > 6 {
		return false
	}

	var hasNum, hasChr bool
	for i := 0; i < len(base); i++ {
		var c = base[i]
		switch {
		case c >= 'A' && c <= 'Z':
			hasChr = true
		case c >= '0' && c <= '9':
			hasNum = true
		default:
			return false
		}
	}

	return hasNum && hasChr
}

// ValidInetName is the relaxed check for internet sourced names.
func ValidInetName(name string) bool {
	if len(name) == 0 || len(name) > MAX_CALLSIGN {
		return false
	}

	for i := 0; i < len(name); i++ {
		var c = name[i]
		if c <= ' ' || c > '~' || c == '*' || c == ':' || c == '>' || c == ',' {
			return false
		}
	}

	return true
}

// ValidObjectName accepts 1 to 9 printable characters, not all blank.
func ValidObjectName(name string) bool {
	if len(name) == 0 || len(name) > MAX_CALLSIGN {
		return false
	}

	for i := 0; i < len(name); i++ {
		if name[i] < ' ' || name[i] > '~' {
			return false
		}
	}

	return strings.TrimSpace(name) != ""
}

// ValidItemName accepts 3 to 9 printable characters, without '!' or '_'.
func ValidItemName(name string) bool {
	if len(name) < 3 || len(name) > MAX_CALLSIGN {
		return false
	}

	if strings.ContainsAny(name, "!_") {
		return false
	}

	return ValidObjectName(name)
}

// ValidPath checks a comma separated digipeater list.
func ValidPath(path string) bool {
	if path == "" {
		return true
	}

	for _, digi := range strings.Split(path, ",") {
		digi = strings.TrimSuffix(digi, "*")
		if digi == "" || len(digi) > MAX_CALLSIGN {
			return false
		}
		for i := 0; i < len(digi); i++ {
			var c = digi[i]
			if !isAlnum(c) && c != '-' {
				return false
			}
		}
	}

	return true
}

// BaseCall strips the SSID.
func BaseCall(call string) string {
	if i := strings.IndexByte(call, '-'); i >= 0 {
		return call[:i]
	}

	return call
}

// sameCall compares callsigns, optionally ignoring the SSID.
func sameCall(a, b string, exact bool) bool {
	a = strings.TrimRight(a, " *")
	b = strings.TrimRight(b, " *")

	if exact {
		return a == b
	}

	return BaseCall(a) == BaseCall(b)
}

// RemoveTrailingSpaces drops spaces at the end, nothing else.
func RemoveTrailingSpaces(s string) string {
	return strings.TrimRight(s, " ")
}

func isNumOrSpace(c byte) bool {
	return (c >= '0' && c <= '9') || c == ' '
}
