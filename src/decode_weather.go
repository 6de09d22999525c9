package tracker

/*------------------------------------------------------------------
 *
 * Purpose:	Weather data in all its forms.
 *
 * Description:	Position reports with the weather symbol carry weather
 *		after the position, in one of three shapes:
 *
 *		  complete	"ccc/sssg...t..."  wind first
 *		  compressed	wind was in the compressed course/speed
 *		  RAWS		tokens in any order
 *
 *		Followed by the positionless '_' report, the two Peet
 *		Bros formats, the Ultimeter packet and logging modes,
 *		and storm data riding on a hurricane symbol.
 *
 *		Values are kept as strings.  All blank, or all dots,
 *		means the token is absent, not zero.
 *
 * Examples:
 *
 *	_10090556c220s004g005t077r000p000P000h50b09900wRSW
 *	!4903.50N/07201.75W_220/004g005t077r000p000P000h50b09900wRSW
 *	=/5L!!<*e7_7P[g005t077r000p000P000h50b09900wRSW
 *	;BRENDA   *092345z4903.50N/07201.75W_220/004g005b0990
 *
 * References:	http://aprs.org/aprs11/spec-wx.txt
 *		http://aprs.org/aprs12/weather-new.txt
 *		Peet Bros and Ultimeter data logger documentation.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// extractWeatherItem finds the first id followed by width value characters
// and removes it.  Found but blank gives "" and true.
func extractWeatherItem(s string, id byte, width int) (string, string, bool) {
	for i := 0; i+1+width <= len(s); i++ {
		if s[i] != id {
			continue
		}

		var v = s[i+1 : i+1+width]
		var valid = true
		for j := 0; j < width; j++ {
			var c = v[j]
			if !isDigit(c) && c != ' ' && c != '.' && c != '-' {
				valid = false
				break
			}
		}
		if !valid {
			continue
		}

		var rest = s[:i] + s[i+1+width:]
		if !hasDigit(v) {
			return "", rest, true
		}

		return v, rest, true
	}

	return "", s, false
}

// percent is for humidity style fields where 00 means 100.
func percent(v string) string {
	if v == "" {
		return ""
	}

	return fmt.Sprintf("%03d", (atoi(v)+99)%100+1)
}

/*------------------------------------------------------------------
 *
 * Name:	weatherTokens
 *
 * Purpose:	Everything but the wind.
 *
 * Returns:	Remainder and whether anything at all was found.
 *
 *------------------------------------------------------------------*/

func weatherTokens(wx *Weather, s string) (string, bool) {
	var seen = false
	var v string
	var found bool

	var take = func(id byte, width int) string {
		v, s, found = extractWeatherItem(s, id, width)
		seen = seen || found
		return v
	}

	wx.Gust = take('g', 3)
	wx.Temp = take('t', 3)
	wx.Rain = take('r', 3)
	wx.Prec24 = take('p', 3)
	wx.Prec00 = take('P', 3)
	wx.Humidity = percent(take('h', 2))

	if b := take('b', 5); b != "" {
		wx.Baro = fmt.Sprintf("%0.1f", atof(b)/10.0)
	}

	wx.Snow = take('s', 3)

	// Luminosity and raw rain counter are not kept.
	take('L', 3)
	take('l', 3)
	take('#', 3)

	wx.FuelTemp = take('F', 3)
	wx.FuelMoist = percent(take('f', 2))

	return s, seen
}

/*------------------------------------------------------------------
 *
 * Name:	extractWeather
 *
 * Purpose:	Weather following the position and weather symbol.
 *
 * Inputs:	r	- Course and speed are the wind if the position
 *			  was compressed.  They get cleared since the
 *			  station itself isn't going anywhere.
 *		s	- After the symbol code.
 *
 *------------------------------------------------------------------*/

func extractWeather(r *Report, s string) (*Weather, string, bool) {
	var wx = &Weather{}
	var wind = false

	switch {
	case r.Compressed:
		if r.Course != "" || r.Speed != "" {
			wx.Course = r.Course
			if r.Speed != "" {
				wx.Speed = fmt.Sprintf("%03.0f", KnotsToMPH(atof(r.Speed)))
			}
			wind = true
		}

	case len(s) >= 7 && s[3] == '/':
		var course, speed, rest, ok = extractSpeedCourse(s)
		if ok {
			wx.Course, wx.Speed = course, speed
			s = rest
			wind = true
		}

	default:
		// RAWS, anything goes.
		var c, rest, ok = extractWeatherItem(s, 'c', 3)
		if ok {
			wx.Course = c
			wx.Speed, rest, _ = extractWeatherItem(rest, 's', 3)
			s = rest
			wind = true
		}
	}

	var rest, seen = weatherTokens(wx, s)
	if !wind && !seen {
		return nil, s, false
	}

	if r.Compressed {
		r.Course, r.Speed = "", ""
	}

	return wx, rest, true
}

/*------------------------------------------------------------------
 *
 * Name:	decodePositionlessWeather
 *
 * Purpose:	"_MMDDHHMMc...s...g...t...".
 *
 *		What's left at the end is a software type character
 *		and a unit name.
 *
 *------------------------------------------------------------------*/

func decodePositionlessWeather(r *Report, s string) bool {
	if len(s) < 8 || !allDigits(s[:8]) {
		return false
	}

	var wx = &Weather{}
	var rest = s[8:]
	var found bool

	wx.Course, rest, found = extractWeatherItem(rest, 'c', 3)
	if !found {
		return false
	}
	wx.Speed, rest, _ = extractWeatherItem(rest, 's', 3)

	rest, _ = weatherTokens(wx, rest)

	rest = strings.TrimSpace(rest)
	if rest != "" {
		wx.Type = rest[0]
		wx.Station = rest[1:]
	}

	r.Kind = REPORT_WEATHER
	r.RecordType = APRS_WX4
	r.Timestamp = s[:8]
	r.Symbol = Symbol{Table: '/', Code: '_'}
	r.Weather = wx

	return true
}

/*------------------------------------------------------------------
 *
 * Name:	extractStorm
 *
 * Purpose:	Storm data on a hurricane or tropical storm symbol.
 *
 *		ccc/sss/XXwww^ggg/pppp>hhh&ttt%rrr
 *
 *		XX	TS, TD, HC, TY, ST or SC
 *		www	sustained wind, knots
 *		ggg	gusts, knots
 *		pppp	central pressure, mb
 *		hhh	hurricane winds radius, nautical miles
 *		ttt	tropical storm winds radius
 *		rrr	whole gale radius
 *
 * Returns:	weather, course, speed, remainder, found.
 *
 *------------------------------------------------------------------*/

var stormTags = []string{"/TS", "/TD", "/HC", "/TY", "/ST", "/SC"}

const STORM_BODY_LEN = 24

func extractStorm(s string) (*Weather, string, string, string, bool) {
	for i := 7; i+3 <= len(s); i++ {
		if s[i] != '/' || !slices.Contains(stormTags, s[i:i+3]) {
			continue
		}

		if wx, course, speed, rest, ok := stormAt(s, i); ok {
			return wx, course, speed, rest, true
		}
	}

	return nil, "", "", s, false
}

// stormAt tries "ddd/sss/TT..." with the tag at i.
func stormAt(s string, i int) (*Weather, string, string, string, bool) {
	var course, speed, _, ok = extractSpeedCourse(s[i-7 : i])
	if !ok {
		return nil, "", "", "", false
	}

	var body = s[i+3:]
	if len(body) < STORM_BODY_LEN || body[3] != '^' || body[7] != '/' || body[12] != '>' || body[16] != '&' || body[20] != '%' {
		return nil, "", "", "", false
	}

	var wx = &Weather{
		Storm:      true,
		StormType:  s[i+1 : i+3],
		Speed:      knotsFieldToMPH(body[0:3]),
		Gust:       knotsFieldToMPH(body[4:7]),
		Pressure:   numericField(body[8:12]),
		HurrRadius: numericField(body[13:16]),
		TropRadius: numericField(body[17:20]),
		GaleRadius: numericField(body[21:24]),
	}

	return wx, course, speed, s[:i-7] + body[STORM_BODY_LEN:], true
}

func knotsFieldToMPH(v string) string {
	if !allDigits(strings.TrimSpace(v)) {
		return ""
	}

	return fmt.Sprintf("%0.1f", KnotsToMPH(atof(v)))
}

func numericField(v string) string {
	if !hasDigit(v) {
		return ""
	}

	return v
}

/*------------------------------------------------------------------
 *
 * Name:	decodePeetBros
 *
 * Purpose:	'#' and '*' Peet Bros weather, hex digits.
 *
 *		[0]	wind direction, 0 - 15
 *		[1:3]	wind speed, km/h for '#', mph for '*'
 *		[3:5]	temperature + 56 F
 *		[5:9]	rain total, hundredths of an inch
 *
 *------------------------------------------------------------------*/

func decodePeetBros(r *Report, dti byte, s string) bool {
	if len(s) < 5 {
		return false
	}

	var dir, err1 = strconv.ParseUint(s[0:1], 16, 8)
	var speed, err2 = strconv.ParseUint(s[1:3], 16, 8)
	var temp, err3 = strconv.ParseUint(s[3:5], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return false
	}

	var wx = &Weather{
		Course: fmt.Sprintf("%03d", int(float64(dir)/16.0*360.0)),
		Temp:   fmt.Sprintf("%03.0f", float64(temp)-56),
	}

	if dti == '#' {
		wx.Speed = fmt.Sprintf("%03d", int(float64(speed)*0.62137+0.5))
		r.RecordType = APRS_WX2
	} else {
		wx.Speed = fmt.Sprintf("%03d", speed)
		r.RecordType = APRS_WX3
	}

	if len(s) >= 9 {
		if rain, err := strconv.ParseUint(s[5:9], 16, 16); err == nil {
			wx.RainTotal = fmt.Sprintf("%0.2f", float64(rain)/100.0)
		}
	}

	r.Kind = REPORT_WEATHER
	r.Symbol = Symbol{Table: '/', Code: '_'}
	r.Weather = wx

	return true
}

/*------------------------------------------------------------------
 *
 * Name:	decodeUltimeter / decodeUltimeterLogging
 *
 * Purpose:	Peet Bros Ultimeter 2000 "$ULTW" packet mode and "!!"
 *		data logging mode.  Fields are 4 hex digits, "----"
 *		when the sensor isn't there.
 *
 *------------------------------------------------------------------*/

// ultField returns the 16 bit field at off.
func ultField(s string, off int) (int, bool) {
	if len(s) < off+4 {
		return 0, false
	}

	var v, err = strconv.ParseUint(s[off:off+4], 16, 16)
	if err != nil {
		return 0, false
	}

	return int(v), true
}

// ultWind converts 0.1 km/h to mph.
func ultWind(v int) string {
	return fmt.Sprintf("%03d", int(float64(v)/10.0*0.62137+0.5))
}

type ultLayout struct {
	speed, dir, temp, rainTotal, baro, humidity, rainToday int
}

var ultPacketMode = ultLayout{speed: 0, dir: 4, temp: 8, rainTotal: 12, baro: 16, humidity: 32, rainToday: 44}
var ultLoggingMode = ultLayout{speed: 0, dir: 4, temp: 8, rainTotal: 12, baro: 16, humidity: 24, rainToday: 40}

func decodeUltimeter(r *Report, s string) bool {
	var wx, ok = ultimeterFields(s, ultPacketMode)
	if !ok {
		return false
	}

	// In packet mode the first field is the peak gust.  The one
	// minute average is at the end, if this is the longer format.
	wx.Gust = wx.Speed
	if len(s) > 48 {
		if v, ok := ultField(s, 48); ok {
			wx.Speed = ultWind(v)
		}
	}

	finishUltimeter(r, wx)

	return true
}

func decodeUltimeterLogging(r *Report, s string) bool {
	var wx, ok = ultimeterFields(s, ultLoggingMode)
	if !ok {
		return false
	}

	finishUltimeter(r, wx)

	return true
}

func ultimeterFields(s string, l ultLayout) (*Weather, bool) {
	if len(s) < 20 {
		return nil, false
	}

	var wx = &Weather{}
	var seen = false

	if v, ok := ultField(s, l.speed); ok {
		wx.Speed = ultWind(v)
		seen = true
	}
	if v, ok := ultField(s, l.dir); ok {
		wx.Course = fmt.Sprintf("%03d", int(float64(v&0xff)/256.0*360.0))
		seen = true
	}
	if v, ok := ultField(s, l.temp); ok {
		wx.Temp = fmt.Sprintf("%03d", int(int16(uint16(v)))/10)
		seen = true
	}
	if v, ok := ultField(s, l.rainTotal); ok {
		wx.RainTotal = fmt.Sprintf("%0.2f", float64(v)/100.0)
		seen = true
	}
	if v, ok := ultField(s, l.baro); ok {
		wx.Baro = fmt.Sprintf("%0.1f", float64(v)/10.0)
		seen = true
	}
	if v, ok := ultField(s, l.humidity); ok {
		wx.Humidity = fmt.Sprintf("%03.0f", float64(v)/10.0)
		seen = true
	}
	if v, ok := ultField(s, l.rainToday); ok {
		wx.Prec00 = fmt.Sprintf("%03d", v)
		seen = true
	}

	return wx, seen
}

func finishUltimeter(r *Report, wx *Weather) {
	r.Kind = REPORT_WEATHER
	r.RecordType = APRS_WX5
	r.Symbol = Symbol{Table: '/', Code: '_'}
	r.Weather = wx
}
