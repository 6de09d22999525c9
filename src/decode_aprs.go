package tracker

/*------------------------------------------------------------------
 *
 * Purpose:	Decode the information part of an APRS packet.
 *
 * Description:	Dispatch on the data type indicator, the first byte of
 *		the information part.  Each sub-decoder picks off the
 *		tokens it recognizes, left to right, and whatever is left
 *		over becomes the comment.
 *
 *		A token which fails validation is simply absent and the
 *		rest of the packet is still used.  Only a bad position
 *		(or similar mandatory part) makes the whole thing fall back
 *		to the "unrecognized" case.
 *
 *		Nothing here touches the station database.  The result
 *		is a Report which is applied to the database later.
 *
 * References:	APRS Protocol Reference, document version 1.0.1
 *
 *			http://www.aprs.org/doc/APRS101.PDF
 *
 *		APRS Protocol Specification 1.1
 *
 *			http://www.aprs.org/aprs11.html
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type ReportKind int

const (
	REPORT_UNKNOWN ReportKind = iota
	REPORT_POSITION
	REPORT_OBJECT
	REPORT_ITEM
	REPORT_STATUS
	REPORT_MESSAGE
	REPORT_WEATHER
	REPORT_QUERY
	REPORT_IGNORED
)

func (k ReportKind) String() string {
	switch k {
	case REPORT_POSITION:
		return "position"
	case REPORT_OBJECT:
		return "object"
	case REPORT_ITEM:
		return "item"
	case REPORT_STATUS:
		return "status"
	case REPORT_MESSAGE:
		return "message"
	case REPORT_WEATHER:
		return "weather"
	case REPORT_QUERY:
		return "query"
	case REPORT_IGNORED:
		return "ignored"
	default:
		return "unknown"
	}
}

// Report is everything extracted from one packet.
// String fields are empty when not present.
type Report struct {
	Source     string
	Dest       string
	Path       []PathEntry
	Via        byte
	Port       int
	ThirdParty bool
	DataType   byte

	Kind   ReportKind
	Name   string // Source for stations, otherwise object or item name.
	Killed bool

	HasPosition bool
	Lat         int64
	Lon         int64
	PosAmb      int
	Compressed  bool
	Symbol      Symbol
	MsgCap      bool
	RecordType  RecordType
	Timestamp   string

	Speed      string // knots
	Course     string // degrees, 1 - 360
	Altitude   string // feet
	Bearing    string
	NRQ        string
	PowerGain  string
	SignalGain string
	Sats       string

	Area       *AreaObject
	Signpost   string
	Weather    *Weather
	Multipoint *Multipoint

	Comment    string
	Status     string
	MicEStatus string
	Emergency  bool

	Message *AprsMessage
	Query   string
}

func (r *Report) IsMoving() bool {
	return atoi(r.Speed) > 0
}

/*------------------------------------------------------------------
 *
 * Name:	Decode
 *
 * Purpose:	Decode the information part of a packet.
 *
 * Inputs:	pp	- Packet.  Third party headers should already
 *			  have been removed.
 *
 * Returns:	Report.  Kind is REPORT_UNKNOWN when nothing could be
 *		made of it, in which case Status holds the whole
 *		information part.
 *
 *------------------------------------------------------------------*/

func Decode(pp *Packet) *Report {
	var info = strings.TrimRight(pp.Info, "\r\n")

	var r = newReport(pp)
	if info == "" {
		return r
	}

	var ok bool

	switch info[0] {
	case '!', '=': // Position without timestamp
		if strings.HasPrefix(info, "!!") {
			ok = decodeUltimeterLogging(r, info[2:])
		} else {
			ok = decodePosition(r, info[1:], info[0] == '=')
		}

	case '/', '@': // Position with timestamp
		ok = decodePositionTime(r, info[0], info[1:])

	case '[': // Maidenhead locator
		ok = decodeGrid(r, info[1:])

	case '\'', '`': // Mic-E
		ok = decodeMicE(r, pp.Dest, info[1:])

	case '_':
		ok = decodePositionlessWeather(r, info[1:])

	case '#', '*':
		ok = decodePeetBros(r, info[0], info[1:])

	case '$':
		if strings.HasPrefix(info, "$ULTW") {
			ok = decodeUltimeter(r, info[5:])
		} else {
			ok = decodeNMEA(r, info)
		}

	case ':':
		ok = decodeMessage(r, info[1:])

	case '>':
		ok = decodeStatus(r, info[1:])

	case '?':
		ok = decodeQuery(r, info[1:])

	case ';':
		ok = decodeObject(r, info[1:])

	case ')':
		ok = decodeItem(r, info[1:])

	case '~', ',', '<', '{', '%', '&', 'T':
		// Third party, invalid data or test, capabilities, user defined,
		// agrelo, shelter, telemetry.  Not our business.
		r.Kind = REPORT_IGNORED
		return r

	default:
		// Some old TNCs put a '!' position up to 40 characters in.
		var bang = strings.IndexByte(info, '!')
		if bang > 0 && bang < 40 {
			ok = decodePosition(r, info[bang+1:], false)
		}
	}

	if !ok {
		logger.Debug("not decoded", "source", pp.Source, "dti", string(info[0]))

		r = newReport(pp)
		r.Status = info
	}

	return r
}

func newReport(pp *Packet) *Report {
	return &Report{
		Source:     pp.Source,
		Dest:       pp.Dest,
		Path:       pp.Path,
		DataType:   pp.DataType(),
		Name:       pp.Source,
		RecordType: NORMAL_APRS,
	}
}

func decodePosition(r *Report, s string, msgcap bool) bool {
	r.Kind = REPORT_POSITION
	r.MsgCap = msgcap

	var rest, ok = decodeLocation(r, s)
	if !ok {
		return false
	}

	decodeExtensions(r, rest, false)
	setMobile(r)

	return true
}

/*
 * '/' is without messaging.
 * '@' is with messaging, or a DF report if a bearing and NRQ
 * follow the course and speed.
 */

func decodePositionTime(r *Report, dti byte, s string) bool {
	if len(s) < 7 || !validTimestamp(s[:7]) {
		return false
	}

	r.Kind = REPORT_POSITION
	r.Timestamp = s[:7]

	var rest, ok = decodeLocation(r, s[7:])
	if !ok {
		return false
	}

	if dti == '/' {
		decodeExtensions(r, rest, false)
		setMobile(r)
		return true
	}

	decodeExtensions(r, rest, true)

	switch {
	case r.RecordType == APRS_WX1:
		r.MsgCap = true
	case r.Bearing != "" || r.NRQ != "":
		r.RecordType = DF_APRS
		r.MsgCap = true
	case r.Speed != "" || r.Course != "":
		r.RecordType = MOBILE_APRS
		r.MsgCap = true
	default:
		r.RecordType = DF_APRS
	}

	return true
}

func setMobile(r *Report) {
	if r.RecordType == NORMAL_APRS && (r.Speed != "" || r.Course != "") {
		r.RecordType = MOBILE_APRS
	}
}

// validTimestamp accepts DDHHMMz, DDHHMM/ and HHMMSSh.
func validTimestamp(ts string) bool {
	if len(ts) != 7 || !allDigits(ts[:6]) {
		return false
	}

	var a, b, c = atoi(ts[0:2]), atoi(ts[2:4]), atoi(ts[4:6])

	switch ts[6] {
	case 'z', '/':
		return a >= 1 && a <= 31 && b < 24 && c < 60
	case 'h':
		return a < 24 && b < 60 && c < 60
	default:
		return false
	}
}

/*------------------------------------------------------------------
 *
 * Name:	decodeLocation
 *
 * Purpose:	Position and symbol, either uncompressed or compressed.
 *
 * Returns:	Remainder of the field and true on success.
 *
 *------------------------------------------------------------------*/

func decodeLocation(r *Report, s string) (string, bool) {
	if len(s) >= 19 && isNumOrSpace(s[0]) {
		var lat, lon, amb, sym, ok = parseUncompressed(s[:19])
		if !ok {
			return s, false
		}

		r.Lat, r.Lon, r.PosAmb, r.Symbol = lat, lon, amb, sym
		r.HasPosition = true

		return s[19:], true
	}

	if len(s) >= 13 && isCompressedTable(s[0]) {
		var rest, ok = parseCompressed(r, s)
		if ok {
			r.HasPosition = true
			r.Compressed = true
		}

		return rest, ok
	}

	return s, false
}

/*
 * Digit positions, least significant first, blanked for ambiguity
 * levels 1 to 4 in "DDMM.mmN".  Longitude is the same one byte further on.
 */

var ambiguityPositions = [4]int{6, 5, 3, 2}

// ambiguityLevel counts the blanked latitude digits.
func ambiguityLevel(lat string) int {
	var level = 0
	for level < len(ambiguityPositions) && lat[ambiguityPositions[level]] == ' ' {
		level++
	}

	return level
}

// fillAmbiguity replaces blanked digits so the value is the middle of the box.
func fillAmbiguity(b []byte, off int, level int) {
	switch level {
	case 1:
		b[off+6] = '5'
	case 2:
		b[off+5], b[off+6] = '5', '0'
	case 3:
		b[off+3] = '5'
		b[off+5], b[off+6] = '0', '0'
	case 4:
		b[off+2], b[off+3] = '3', '0'
		b[off+5], b[off+6] = '0', '0'
	}
}

/*------------------------------------------------------------------
 *
 * Name:	parseUncompressed
 *
 * Inputs:	s	- 19 bytes.  "DDMM.mmN/DDDMM.mmW>"
 *
 * Description:	Every digit position must be a digit or space.
 *		Spaces in the latitude set the ambiguity level and
 *		the longitude gets the same treatment whatever it has
 *		in those positions.
 *
 *------------------------------------------------------------------*/

func parseUncompressed(s string) (int64, int64, int, Symbol, bool) {
	var slat = []byte(s[0:8])
	var slon = []byte(s[9:18])

	if slat[4] != '.' || slon[5] != '.' {
		return 0, 0, 0, Symbol{}, false
	}

	for _, i := range []int{0, 1, 2, 3, 5, 6} {
		if !isNumOrSpace(slat[i]) || !isNumOrSpace(slon[i+1]) {
			return 0, 0, 0, Symbol{}, false
		}
	}
	if !isNumOrSpace(slon[0]) {
		return 0, 0, 0, Symbol{}, false
	}

	var level = ambiguityLevel(string(slat))
	fillAmbiguity(slat, 0, level)
	fillAmbiguity(slon, 1, level)

	var lat, latOK = ConvertLatS2L(string(slat))
	var lon, lonOK = ConvertLonS2L(string(slon))
	if !latOK || !lonOK {
		return 0, 0, 0, Symbol{}, false
	}

	var sym, ok = makeSymbol(s[8], s[18])
	if !ok {
		return 0, 0, 0, Symbol{}, false
	}

	return lat, lon, level, sym, true
}

// makeSymbol splits an overlay from the table.
func makeSymbol(table, code byte) (Symbol, bool) {
	if code < '!' || code > '~' {
		return Symbol{}, false
	}

	switch {
	case table == '/' || table == '\\':
		return Symbol{Table: table, Code: code}, true
	case (table >= 'A' && table <= 'Z') || isDigit(table):
		return Symbol{Table: '\\', Code: code, Overlay: table}, true
	default:
		logger.Debug("invalid symbol table, using primary", "table", string(table))
		return Symbol{Table: '/', Code: code}, true
	}
}

func isCompressedTable(c byte) bool {
	return c == '/' || c == '\\' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'j')
}

/*------------------------------------------------------------------
 *
 * Name:	parseCompressed
 *
 * Inputs:	s	- At least 13 bytes.  "/YYYYXXXX$csT"
 *
 * Description:	Latitude is 90 - y/380926 degrees and longitude
 *		-180 + x/190463 which comes out neatly in our units.
 *
 *		The "cs" pair is course/speed, altitude or range
 *		depending on the compression type byte.
 *
 *------------------------------------------------------------------*/

func parseCompressed(r *Report, s string) (string, bool) {
	var y, yok = base91Decode(s[1:5])
	var x, xok = base91Decode(s[5:9])
	if !yok || !xok {
		return s, false
	}

	var lat = int64(y) * CENTISEC_PER_DEGREE / 380926
	var lon = int64(x) * CENTISEC_PER_DEGREE / 190463
	if lat < 0 || lat > LAT_MAX || lon < 0 || lon > LON_MAX {
		return s, false
	}

	var table = s[0]
	if table >= 'a' && table <= 'j' {
		table = table - 'a' + '0'
	}

	var sym, ok = makeSymbol(table, s[9])
	if !ok {
		return s, false
	}

	r.Lat, r.Lon, r.Symbol = lat, lon, sym

	var c, sp, t = s[10], s[11], s[12]

	switch {
	case c == ' ' || !isdigit91(sp) || t < '!':
		// No course/speed, altitude or range.

	case (t-33)&0x18 == 0x10:
		var cs = int(c-33)*91 + int(sp-33)
		r.Altitude = strconv.Itoa(int(math.Pow(1.002, float64(cs))))

	case c >= '!' && c <= 'z':
		var course = int(c-33) * 4
		if course == 0 {
			course = 360
		}
		if course <= 360 {
			r.Course = fmt.Sprintf("%03d", course)
			r.Speed = fmt.Sprintf("%03.0f", math.Pow(1.08, float64(sp-33))-1)
		}

	case c == '{':
		r.PowerGain = fmt.Sprintf("RNG%04.0f", 2*math.Pow(1.08, float64(sp-33)))
	}

	return s[13:], true
}

/*------------------------------------------------------------------
 *
 * Name:	decodeExtensions
 *
 * Purpose:	Everything after the position: weather, storm, data
 *		extension, DF bearing, altitude, signpost, multipoint
 *		and finally the comment.
 *
 *------------------------------------------------------------------*/

func decodeExtensions(r *Report, s string, df bool) {
	var done = false

	if r.Symbol.Code == '@' {
		var wx, course, speed, rest, ok = extractStorm(s)
		if ok {
			r.Weather = wx
			r.Course, r.Speed = course, speed
			s = rest
			done = true
		}
	}

	if !done && r.Symbol.IsWeather() {
		var wx, rest, ok = extractWeather(r, s)
		if ok {
			r.Weather = wx
			s = rest
			done = true
			r.RecordType = IfThenElse(r.Kind == REPORT_POSITION, APRS_WX1, APRS_WX6)
		}
	}

	if !done && !r.Compressed {
		if r.Symbol.IsArea() {
			var area, rest, ok = extractArea(s)
			if ok {
				r.Area = area
				s = rest
				done = true
			}
		}

		if !done {
			var course, speed, rest, ok = extractSpeedCourse(s)
			if ok {
				r.Course, r.Speed = course, speed
				s = rest

				if df || r.Symbol.IsDF() {
					var bearing, nrq, rest2, ok2 = extractBearingNRQ(s)
					if ok2 {
						r.Bearing, r.NRQ = bearing, nrq
						s = rest2
					}
				}
			} else {
				var pg, sg, rest3 = extractPowerGain(s)
				r.PowerGain = IfThenElse(pg != "", pg, r.PowerGain)
				r.SignalGain = sg
				s = rest3
			}
		}
	}

	var alt, rest, ok = extractAltitude(s)
	if ok {
		r.Altitude = alt
		s = rest
	}

	if r.Symbol.Table == '\\' && r.Symbol.Code == 'm' {
		var sp, rest2, ok2 = extractSignpost(s)
		if ok2 {
			r.Signpost = sp
			s = rest2
		}
	}

	if r.Area != nil && r.Area.IsLine() {
		var width, rest2, ok2 = extractCorridor(s)
		if ok2 {
			r.Area.CorridorWidth = width
			s = rest2
		}
	}

	if r.HasPosition {
		var mp, rest2, ok2 = extractMultipoints(r.Lat, r.Lon, s)
		if ok2 {
			r.Multipoint = mp
			s = rest2
		}
	}

	r.Comment = strings.TrimSpace(s)
}

/*------------------------------------------------------------------
 *
 * Name:	extractSpeedCourse
 *
 * Purpose:	Pick "ccc/sss" off the front.
 *
 * Returns:	course, speed, remainder, found.
 *
 * Description:	The format check allows digits, spaces and periods so
 *		".../..." and "   /   " are recognized as "no data".
 *		A value which isn't all digits comes out empty, and so
 *		does course 000 which means "not known".
 *
 *------------------------------------------------------------------*/

func extractSpeedCourse(s string) (string, string, string, bool) {
	if len(s) < 7 {
		return "", "", s, false
	}

	for i := 0; i < 7; i++ {
		if i == 3 {
			if s[i] != '/' {
				return "", "", s, false
			}
			continue
		}
		if !isNumOrSpace(s[i]) && s[i] != '.' {
			return "", "", s, false
		}
	}

	var course = s[0:3]
	var speed = s[4:7]

	if !allDigits(course) || atoi(course) < 1 {
		course = ""
	}
	if !allDigits(speed) {
		speed = ""
	}

	return course, speed, s[7:], true
}

// extractBearingNRQ picks "/bbb/nrq" off the front of a DF report.
func extractBearingNRQ(s string) (string, string, string, bool) {
	if len(s) < 8 || s[0] != '/' || s[4] != '/' {
		return "", "", s, false
	}

	var bearing = s[1:4]
	var nrq = s[5:8]

	for _, f := range []string{bearing, nrq} {
		for i := 0; i < 3; i++ {
			if !isNumOrSpace(f[i]) && f[i] != '.' {
				return "", "", s, false
			}
		}
	}

	if !allDigits(bearing) {
		bearing = ""
	}
	if !allDigits(nrq) {
		nrq = ""
	}

	return bearing, nrq, s[8:], true
}

/*
 * PHGphgd, RNGrrrr and DFSshgd.
 * Returns power/gain, signal/gain and the remainder.
 */

func extractPowerGain(s string) (string, string, string) {
	if len(s) < 7 || !allDigits(s[3:7]) {
		return "", "", s
	}

	switch s[0:3] {
	case "PHG", "RNG":
		return s[0:7], "", s[7:]
	case "DFS":
		return "", s[0:7], s[7:]
	}

	return "", "", s
}

// extractAltitude finds "/A=aaaaaa" anywhere.  Feet, may be negative.
func extractAltitude(s string) (string, string, bool) {
	var i = strings.Index(s, "/A=")
	if i < 0 || len(s) < i+9 {
		return "", s, false
	}

	var v = s[i+3 : i+9]
	var digits = v
	if v[0] == '-' {
		digits = v[1:]
	}
	if !allDigits(digits) {
		return "", s, false
	}

	return fmt.Sprintf("%d", atoi(v)), s[:i] + s[i+9:], true
}

/*
 * Area object, "Tyy/Cxx".
 *	T	type 0 - 9
 *	yy	square root of latitude offset
 *	C	color, hex digit
 *	xx	square root of longitude offset
 */

func extractArea(s string) (*AreaObject, string, bool) {
	if len(s) < 7 || s[3] != '/' {
		return nil, s, false
	}

	if !isDigit(s[0]) || !allDigits(s[1:3]) || !allDigits(s[5:7]) {
		return nil, s, false
	}

	var color, ok = hexDigit(s[4])
	if !ok {
		return nil, s, false
	}

	var a = &AreaObject{
		Type:       AreaType(s[0] - '0'),
		Color:      color,
		SqrtLatOff: byte(atoi(s[1:3])),
		SqrtLonOff: byte(atoi(s[5:7])),
	}
	if a.Type > AREA_MAX {
		return nil, s, false
	}

	return a, s[7:], true
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}

	return 0, false
}

// extractCorridor is the "{www}" width, in miles, that follows a line area.
func extractCorridor(s string) (uint16, string, bool) {
	var open, end, ok = findBraces(s, 3)
	if !ok || !allDigits(s[open+1:end]) {
		return 0, s, false
	}

	return uint16(atoi(s[open+1 : end])), s[:open] + s[end+1:], true
}

// extractSignpost is the "{xxx}" text displayed on a signpost symbol.
func extractSignpost(s string) (string, string, bool) {
	var open, end, ok = findBraces(s, 3)
	if !ok {
		return "", s, false
	}

	return s[open+1 : end], s[:open] + s[end+1:], true
}

// findBraces locates "{...}" with 1 to max characters inside.
func findBraces(s string, max int) (int, int, bool) {
	var open = strings.IndexByte(s, '{')
	if open < 0 {
		return 0, 0, false
	}

	var n = strings.IndexByte(s[open:], '}')
	if n < 2 || n > max+1 {
		return 0, 0, false
	}

	return open, open + n, true
}

/*------------------------------------------------------------------
 *
 * Name:	decodeGrid
 *
 * Purpose:	Maidenhead locator, "[FN42ni]comment".
 *
 *------------------------------------------------------------------*/

func decodeGrid(r *Report, s string) bool {
	var end = strings.IndexByte(s, ']')
	if end != 4 && end != 6 {
		return false
	}

	var lat, lon, err = GridSquareToLatLon(s[:end])
	if err != nil {
		return false
	}

	r.Kind = REPORT_POSITION
	r.Lat, r.Lon = lat, lon
	r.HasPosition = true
	r.Symbol = Symbol{Table: '/', Code: '.'}
	r.Comment = strings.TrimSpace(s[end+1:])

	return true
}

// Status may start with a DDHHMMz timestamp.
func decodeStatus(r *Report, s string) bool {
	r.Kind = REPORT_STATUS

	if len(s) >= 7 && s[6] == 'z' && validTimestamp(s[:7]) {
		r.Timestamp = s[:7]
		s = s[7:]
	}

	r.Status = strings.TrimRight(s, " ")

	return true
}

// General query such as "?APRS?" or "?IGATE?".
func decodeQuery(r *Report, s string) bool {
	var end = strings.IndexByte(s, '?')
	if end < 1 {
		return false
	}

	r.Kind = REPORT_QUERY
	r.Query = s[:end]

	return true
}

/*------------------------------------------------------------------
 *
 * Name:	decodeObject
 *
 * Purpose:	";NAME_____*DDHHMMzPOSITION..."
 *
 *		'*' for live, '_' for killed.
 *
 *------------------------------------------------------------------*/

func decodeObject(r *Report, s string) bool {
	if len(s) < 9+1+7 {
		return false
	}

	var name = RemoveTrailingSpaces(s[:9])
	if !ValidObjectName(name) {
		return false
	}

	switch s[9] {
	case '*':
	case '_':
		r.Killed = true
	default:
		return false
	}

	if !validTimestamp(s[10:17]) {
		return false
	}

	r.Kind = REPORT_OBJECT
	r.Name = name
	r.Timestamp = s[10:17]

	var rest, ok = decodeLocation(r, s[17:])
	if !ok {
		return false
	}

	decodeExtensions(r, rest, false)
	setMobile(r)

	return true
}

/*------------------------------------------------------------------
 *
 * Name:	decodeItem
 *
 * Purpose:	")NAME!POSITION..."
 *
 *		Name is 3 to 9 characters, ended by '!' for live or
 *		'_' for killed.
 *
 *------------------------------------------------------------------*/

func decodeItem(r *Report, s string) bool {
	var end = strings.IndexAny(s, "!_")
	if end < 3 || end > MAX_CALLSIGN {
		return false
	}

	var name = s[:end]
	if !ValidItemName(name) {
		return false
	}

	r.Kind = REPORT_ITEM
	r.Name = name
	r.Killed = s[end] == '_'

	var rest, ok = decodeLocation(r, s[end+1:])
	if !ok {
		return false
	}

	decodeExtensions(r, rest, false)
	setMobile(r)

	return true
}
