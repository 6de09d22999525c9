package tracker

/*------------------------------------------------------------------
 *
 * Purpose:   	Construct APRS packets from a station record.
 *
 * Description:	The inverse of decode_aprs.go, used for my own position,
 *		my objects and items, and messages.  Tokens come out in
 *		the order the decoder looks for them so anything we send
 *		decodes back to the same record.
 *
 * References:	APRS Protocol Reference.
 *
 *---------------------------------------------------------------*/

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var ErrNotObject = errors.New("not an object or item")
var ErrBadObjectName = errors.New("invalid object or item name")

// Maximum information part for an object.  Items get 64 plus their name.
const MAX_OBJECT_INFO = 80
const MAX_ITEM_INFO = 64

/*------------------------------------------------------------------
 *
 * Name:        normal_position
 *
 * Purpose:     Human-readable latitude, longitude and symbol
 *		which are common to multiple data formats.
 *
 * Inputs:	ambiguity - Blank out least significant digits, 0 - 4.
 *
 * Returns:	"DDMM.mmN/DDDMM.mmW>", with the table byte replaced by
 *		the overlay when there is one.
 *
 *----------------------------------------------------------------*/

func normal_position(sym Symbol, lat, lon int64, ambiguity int) string {
	var slat = []byte(LatToString(lat, 2))
	var slon = []byte(LonToString(lon, 2))

	for i := 0; i < ambiguity && i < len(ambiguityPositions); i++ {
		slat[ambiguityPositions[i]] = ' '
		slon[ambiguityPositions[i]+1] = ' '
	}

	return fmt.Sprintf("%s%c%s%c", slat, symbolTable(sym), slon, symbolCode(sym))
}

// symbolTable is '/' or '\' or an overlay 0-9 A-Z.  Anything else goes out as '\'.
func symbolTable(sym Symbol) byte {
	var t = sym.TableOrOverlay()

	switch {
	case t == '/' || t == '\\':
		return t
	case isDigit(t) || (t >= 'A' && t <= 'Z'):
		return t
	case t == 0:
		return '/'
	default:
		logger.Debug("symbol table identifier is not one of / \\ 0-9 A-Z", "table", string(t))
		return '\\'
	}
}

func symbolCode(sym Symbol) byte {
	if sym.Code < '!' || sym.Code > '~' {
		logger.Debug("symbol code is not in range of ! to ~", "code", sym.Code)
		return '/'
	}

	return sym.Code
}

/*------------------------------------------------------------------
 *
 * Name:        compressed_position
 *
 * Purpose:     Compressed latitude, longitude, symbol and cst.
 *
 * Inputs:	course	- Degrees, negative for unknown.
 *		knots	- Speed, negative for unknown.
 *		feet	- Altitude, used only when there is no speed.
 *
 * Description:	The cst field can have only one of
 *
 *		course/speed	- takes priority
 *		altitude	- when not moving
 *
 *		In compressed format, the characters a-j are used for
 *		a numeric overlay.  This allows the receiver to
 *		distinguish between compressed and normal formats.
 *
 *----------------------------------------------------------------*/

func compressed_position(sym Symbol, lat, lon int64, course, knots int, feet float64, hasAlt bool) string {
	var table = symbolTable(sym)
	if isDigit(table) {
		table = table - '0' + 'a'
	}

	var y = int(math.Round(float64(lat) * 380926 / CENTISEC_PER_DEGREE))
	var x = int(math.Round(float64(lon) * 190463 / CENTISEC_PER_DEGREE))

	var c, s, t byte

	switch {
	case knots > 0:
		var cc = 0
		if course >= 0 {
			cc = ((course + 2) / 4) % 90
		}
		c = byte(cc) + '!'
		s = byte(math.Round(math.Log(float64(knots)+1.0)/math.Log(1.08))) + '!'
		t = 0x26 + '!' /* current, other tracker. */

	case hasAlt && feet >= 1:
		var cs = int(math.Round(math.Log(feet) / math.Log(1.002)))
		if cs > 91*91-1 {
			cs = 91*91 - 1
		}
		c = byte(cs/91) + '!'
		s = byte(cs%91) + '!'
		t = 0x30 + '!' /* current, GGA. */

	default:
		c, s, t = ' ', ' ', '!' /* cst field not used, avoid space. */
	}

	return fmt.Sprintf("%c%s%s%c%c%c%c", table, base91Encode(y, 4), base91Encode(x, 4), symbolCode(sym), c, s, t)
}

/*------------------------------------------------------------------
 *
 * Name:        FormatCourseSpeed
 *
 * Purpose:     Course and speed data extension from the stored strings.
 *
 * Returns:	"CCC/SSS" and the numeric values.  An invalid part
 *		is "..." and 0.  Both invalid is the empty string.
 *
 * Description:	Course 1 - 360.  000 is sent as 360 because 0
 *		means "not known" on the air.  Speed 0 - 999 knots.
 *
 *----------------------------------------------------------------*/

func FormatCourseSpeed(courseStr, speedStr string) (string, int, int) {
	var cse = "..."
	var course = 0

	if courseStr != "" {
		var c = atoi(courseStr)
		switch {
		case c >= 1 && c <= 360:
			cse = fmt.Sprintf("%03d", c)
			course = c
		case c == 0:
			cse = "360"
		}
	}

	var spd = "..."
	var speed = 0

	if speedStr != "" {
		var s = atoi(speedStr)
		if s >= 0 && s <= 999 {
			spd = fmt.Sprintf("%03d", s)
			speed = s
		}
	}

	if cse == "..." && spd == "..." {
		return "", course, speed
	}

	return cse + "/" + spd, course, speed
}

// formatAltitude is "/A=aaaaaa" in feet, or "-aaaaa" below sea level.
func formatAltitude(feet string) string {
	if strings.TrimSpace(feet) == "" {
		return ""
	}

	var a = int(math.Round(atof(feet)))
	a = max(-99999, min(a, 999999))

	return fmt.Sprintf("/A=%06d", a)
}

// formatArea is "Tyy/Cxx" with a "{www}" corridor width for lines.
func formatArea(a *AreaObject) string {
	var s = fmt.Sprintf("%d%02d/%X%02d", a.Type, min(a.SqrtLatOff, 99), a.Color&0x0f, min(a.SqrtLonOff, 99))

	if a.IsLine() && a.CorridorWidth > 0 {
		s += fmt.Sprintf("{%d}", min(a.CorridorWidth, 999))
	}

	return s
}

/*------------------------------------------------------------------
 *
 * Name:        EncodeObjectItem
 *
 * Purpose:     Construct the information part for an object or item.
 *
 * Inputs:	st		- Station with ST_OBJECT or ST_ITEM.
 *		now		- For the object time stamp.
 *		compressed	- Compressed position.
 *
 * Returns:	Information part.  Killed (not ST_ACTIVE) has '_'
 *		in place of the live marker.
 *
 * Description:	Only one of these goes after the position, in
 *		priority order:
 *
 *			area object	Tyy/Cxx, no course/speed
 *			signpost	course/speed, then {xxx} after altitude
 *			omni DF		DFSshgd
 *			beam DF		course/speed/bearing/NRQ
 *			plain		course/speed or PHG
 *
 *		Then altitude, then as much of the comment as fits.
 *		The comment is cut, never the structured part.
 *
 *----------------------------------------------------------------*/

func EncodeObjectItem(st *Station, now time.Time, compressed bool) (string, error) {
	var name = RemoveTrailingSpaces(st.Call)
	var object bool

	switch {
	case st.Flags.Has(ST_OBJECT):
		object = true
		if !ValidObjectName(name) {
			return "", fmt.Errorf("%w: %q", ErrBadObjectName, name)
		}
	case st.Flags.Has(ST_ITEM):
		if !ValidItemName(name) {
			return "", fmt.Errorf("%w: %q", ErrBadObjectName, name)
		}
	default:
		return "", fmt.Errorf("%s: %w", name, ErrNotObject)
	}

	if !st.HasPosition() {
		return "", fmt.Errorf("%s: %w", name, ErrNoPosition)
	}

	var sb strings.Builder
	var marker int

	if object {
		sb.WriteByte(';')
		sb.WriteString(fmt.Sprintf("%-9.9s", name))
		marker = sb.Len()
		sb.WriteByte('*')
		sb.WriteString(now.UTC().Format("021504") + "z")
	} else {
		sb.WriteByte(')')
		sb.WriteString(name)
		marker = sb.Len()
		sb.WriteByte('!')
	}

	var cse, course, speed = FormatCourseSpeed(st.Course, st.Speed)
	var area = st.Area != nil && st.Area.Type != AREA_NONE && st.Symbol.IsArea()
	if area {
		cse, course, speed = "", 0, 0
	}

	if compressed {
		var feet = atof(st.Altitude)
		sb.WriteString(compressed_position(st.Symbol, st.Lat, st.Lon, IfThenElse(cse == "", -1, course), speed, feet, st.Altitude != "" && speed == 0))
	} else {
		sb.WriteString(normal_position(st.Symbol, st.Lat, st.Lon, 0))

		switch {
		case area:
			sb.WriteString(formatArea(st.Area))
		case st.Symbol.Table == '\\' && st.Symbol.Code == 'm':
			sb.WriteString(cse)
		case st.SignalGain != "":
			sb.WriteString(st.SignalGain)
		case st.NRQ != "" && st.Symbol.IsDF():
			sb.WriteString(IfThenElse(cse == "", "000/000", cse))
			sb.WriteString(fmt.Sprintf("/%03d/%3.3s", atoi(st.Bearing), st.NRQ))
		case cse != "":
			sb.WriteString(cse)
		case st.PowerGain != "":
			sb.WriteString(st.PowerGain)
		}
	}

	if !compressed || speed > 0 {
		sb.WriteString(formatAltitude(st.Altitude))
	}

	if st.Symbol.Table == '\\' && st.Symbol.Code == 'm' && st.Signpost != "" {
		sb.WriteString(fmt.Sprintf("{%.3s}", st.Signpost))
	}

	var line = []byte(sb.String())

	/*
	 * If it's a "killed" object, change '*' to an '_'
	 */
	if !st.Flags.Has(ST_ACTIVE) {
		line[marker] = '_'
	}

	var budget = IfThenElse(object, MAX_OBJECT_INFO, MAX_ITEM_INFO+len(name))
	var comment = st.LatestComment()
	if room := budget - len(line); room > 0 && comment != "" {
		if len(comment) > room {
			comment = comment[:room]
		}
		line = append(line, comment...)
	}

	return string(line), nil
}

/*------------------------------------------------------------------
 *
 * Name:        EncodePosition
 *
 * Purpose:     Construct the information part for my position.
 *
 * Description:	"=DDMM.mmN/DDDMM.mmW>ccc/sss/A=aaaaaa comment"
 *
 *		Ambiguity blanks the same digits of latitude and
 *		longitude.  For the compressed form those digits are
 *		zeroed before compressing.
 *
 *----------------------------------------------------------------*/

func EncodePosition(st *Station, ambiguity int, compressed bool, comment string) string {
	var sb strings.Builder
	sb.WriteByte('=')

	var cse, course, speed = FormatCourseSpeed(st.Course, st.Speed)

	if compressed {
		var lat, lon = st.Lat, st.Lon
		if ambiguity > 0 {
			lat, lon = zeroAmbiguity(lat, lon, ambiguity)
		}

		sb.WriteString(compressed_position(st.Symbol, lat, lon, IfThenElse(cse == "", -1, course), speed, atof(st.Altitude), st.Altitude != ""))
		if speed > 0 {
			sb.WriteString(formatAltitude(st.Altitude))
		}
	} else {
		sb.WriteString(normal_position(st.Symbol, st.Lat, st.Lon, ambiguity))
		if cse != "" {
			sb.WriteString(cse)
		} else if st.PowerGain != "" {
			sb.WriteString(st.PowerGain)
		}
		sb.WriteString(formatAltitude(st.Altitude))
	}

	sb.WriteString(comment)

	return sb.String()
}

// zeroAmbiguity truncates a position the way the blanked digits would.
func zeroAmbiguity(lat, lon int64, ambiguity int) (int64, int64) {
	var slat = []byte(LatToString(lat, 3))
	var slon = []byte(LonToString(lon, 3))

	slat[7], slon[8] = '0', '0'
	for i := 0; i < ambiguity && i < len(ambiguityPositions); i++ {
		slat[ambiguityPositions[i]] = '0'
		slon[ambiguityPositions[i]+1] = '0'
	}

	var zlat, ok1 = ConvertLatS2L(string(slat))
	var zlon, ok2 = ConvertLonS2L(string(slon))
	if !ok1 || !ok2 {
		return lat, lon
	}

	return zlat, zlon
}

/*------------------------------------------------------------------
 *
 * Name:        EncodeMessage
 *
 * Purpose:     Construct info part for APRS "message" format.
 *
 * Inputs:      addressee	- Addressed to, up to 9 characters.
 *		text		- Text part of the message.
 *		id		- Identifier, 0 to 5 characters.
 *		replyAck	- Reply/Ack for the last message from
 *				  them, or "".  Only with a 2 character id.
 *
 *----------------------------------------------------------------*/

func EncodeMessage(addressee, text, id, replyAck string) string {
	var result = ":" + PadCallsign(addressee) + ":" + text

	if id != "" {
		result += "{" + id
		if len(id) == 2 {
			result += "}" + replyAck
		}
	}

	return result
}

func EncodeAck(addressee, id string) string {
	return ":" + PadCallsign(addressee) + ":ack" + id
}
