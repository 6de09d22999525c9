package tracker

/*------------------------------------------------------------------
 *
 * Purpose:	Decode Mic-E format.
 *
 * Description:	Latitude, message bits and a few flags are in the
 *		destination address.  Longitude, speed, course and symbol
 *		are packed into the first 8 bytes of the information part.
 *
 *		The 'L' column is handled the way deployed software does
 *		it rather than the way the table in the protocol reference
 *		says: it counts as North, +100 and West.
 *
 * Reference:	APRS Protocol Reference, chapter 10.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"strings"
)

// micEChar describes one destination address character.
type micEChar struct {
	digit byte // '0' - '9' or ' '
	std   bool // standard message bit set
	cust  bool // custom message bit set
	flag  bool // North, +100 longitude offset or West, by position
}

func micEDecodeChar(c byte) (micEChar, bool) {
	switch {
	case c >= '0' && c <= '9':
		return micEChar{digit: c}, true
	case c >= 'A' && c <= 'J':
		return micEChar{digit: c - 'A' + '0', cust: true}, true
	case c == 'K':
		return micEChar{digit: ' ', cust: true}, true
	case c == 'L':
		return micEChar{digit: ' ', flag: true}, true
	case c >= 'P' && c <= 'Y':
		return micEChar{digit: c - 'P' + '0', std: true, flag: true}, true
	case c == 'Z':
		return micEChar{digit: ' ', std: true, flag: true}, true
	}

	return micEChar{}, false
}

var micEStandardText = []string{"Off Duty", "Enroute", "In Service", "Returning", "Committed", "Special", "Priority", "Emergency"}

const MICE_EMERGENCY = "Emergency"

// micEMessage turns the three message bits into text.
func micEMessage(std, cust int) string {
	switch {
	case std == 0 && cust == 0:
		return MICE_EMERGENCY
	case cust == 0:
		return micEStandardText[std^7]
	case std == 0:
		return fmt.Sprintf("Custom-%d", 7-cust)
	default:
		return "Unknown"
	}
}

/*------------------------------------------------------------------
 *
 * Name:	decodeMicE
 *
 * Inputs:	dest	- Destination address, SSID is ignored.
 *		s	- Information part after the data type indicator.
 *
 *------------------------------------------------------------------*/

func decodeMicE(r *Report, dest string, s string) bool {
	if len(s) < 8 {
		return false
	}

	if s[7] != '/' && s[7] != '\\' {
		return false
	}
	if s[6] < '!' || s[6] > '~' {
		return false
	}

	if i := strings.IndexByte(dest, '-'); i >= 0 {
		dest = dest[:i]
	}
	if len(dest) != 6 {
		return false
	}

	var d [6]micEChar
	for i := 0; i < 6; i++ {
		var ok bool
		d[i], ok = micEDecodeChar(dest[i])
		if !ok {
			logger.Debug("invalid character in Mic-E destination", "dest", dest)
			return false
		}
	}

	var std, cust = 0, 0
	for i, mask := range []int{4, 2, 1} {
		if d[i].std {
			std |= mask
		}
		if d[i].cust {
			cust |= mask
		}
	}

	var north, offset, west = d[3].flag, d[4].flag, d[5].flag

	/* Longitude degrees. */

	var ch = int(s[0])
	var deg int

	switch {
	case offset && ch >= 118 && ch <= 127:
		deg = ch - 118 // 0 - 9
	case !offset && ch >= 38 && ch <= 127:
		deg = ch - 38 + 10 // 10 - 99
	case offset && ch >= 108 && ch <= 117:
		deg = ch - 108 + 100 // 100 - 109
	case offset && ch >= 38 && ch <= 107:
		deg = ch - 38 + 110 // 110 - 179
	default:
		logger.Debug("invalid Mic-E longitude degrees", "ch", ch)
		return false
	}

	var min int
	ch = int(s[1])
	switch {
	case ch >= 88 && ch <= 97:
		min = ch - 88
	case ch >= 38 && ch <= 87:
		min = ch - 38 + 10
	default:
		logger.Debug("invalid Mic-E longitude minutes", "ch", ch)
		return false
	}

	var hun = int(s[2]) - 28
	if hun < 0 || hun > 99 {
		logger.Debug("invalid Mic-E longitude hundredths", "ch", int(s[2]))
		return false
	}

	var slat = []byte{d[0].digit, d[1].digit, d[2].digit, d[3].digit, '.', d[4].digit, d[5].digit, IfThenElse(north, byte('N'), byte('S'))}
	var slon = []byte(fmt.Sprintf("%03d%02d.%02d%c", deg, min, hun, IfThenElse(west, 'W', 'E')))

	var level = ambiguityLevel(string(slat))
	fillAmbiguity(slat, 0, level)
	fillAmbiguity(slon, 1, level)

	var lat, latOK = ConvertLatS2L(string(slat))
	var lon, lonOK = ConvertLonS2L(string(slon))
	if !latOK || !lonOK {
		return false
	}

	r.Kind = REPORT_POSITION
	r.Lat, r.Lon, r.PosAmb = lat, lon, level
	r.HasPosition = true
	r.Symbol = Symbol{Table: s[7], Code: s[6]}
	r.MsgCap = true

	r.MicEStatus = micEMessage(std, cust)
	r.Emergency = r.MicEStatus == MICE_EMERGENCY

	/* Speed and course. */

	var sp, dc, se = int(s[3]) - 28, int(s[4]) - 28, int(s[5]) - 28

	var speed = sp*10 + dc/10
	if speed >= 800 {
		speed -= 800
	}

	var course = (dc%10)*100 + se
	if course >= 400 {
		course -= 400
	}

	if speed >= 0 {
		r.Speed = fmt.Sprintf("%03d", speed)
	}
	if course > 0 && course <= 360 {
		r.Course = fmt.Sprintf("%03d", course)
	}

	r.RecordType = IfThenElse(speed > 0, MOBILE_APRS, NORMAL_APRS)

	/* Comment, with optional type byte and altitude. */

	var comment = s[8:]
	if len(comment) > 0 && (comment[0] == '>' || comment[0] == ']' || comment[0] == '`' || comment[0] == '\'') {
		comment = comment[1:]
	}

	if len(comment) >= 4 && comment[3] == '}' {
		var v, ok = base91Decode(comment[0:3])
		if ok {
			var feet = MetersToFeet(float64(v - 10000))
			if feet >= -32809 && feet <= 500000 {
				r.Altitude = fmt.Sprintf("%.0f", feet)
			}
			comment = comment[4:]
		}
	}

	if alt, rest, ok := extractAltitude(comment); ok {
		r.Altitude = alt
		comment = rest
	}

	r.Comment = strings.TrimSpace(comment)

	return true
}
