package tracker

/*------------------------------------------------------------------
 *
 * Purpose:	Multipoint lines and polygons riding in the comment,
 *		as used for weather warnings.
 *
 * Description:	" }" style type scale pairs... "{"
 *
 *		style	'a' - 'z'
 *		type	'0' - '9'
 *		scale	10^((c-33)/20)/10000 degrees per unit
 *		pairs	latitude then longitude offset from the station,
 *			each '"' - 'z' less 78, so +/- 44 units.
 *
 *		Any bad pair and the whole thing is dropped.
 *
 *------------------------------------------------------------------*/

import (
	"math"
	"strings"
)

func extractMultipoints(lat, lon int64, s string) (*Multipoint, string, bool) {
	var start = strings.Index(s, " }")
	if start < 0 || len(s) < start+5 {
		return nil, s, false
	}

	var style, typ, sc = s[start+2], s[start+3], s[start+4]
	if style < 'a' || style > 'z' || !isDigit(typ) || sc < '!' || sc > 'z' {
		return nil, s, false
	}

	// Our units are 1/100 second.
	var scale = math.Pow(10, float64(sc-33)/20.0) / 10000.0 * CENTISEC_PER_DEGREE

	var body = s[start+5:]
	var end = strings.IndexByte(body, '{')
	var tail = ""
	if end >= 0 {
		tail = body[end+1:]
		body = body[:end]
	}

	if len(body) == 0 || len(body)%2 != 0 {
		logger.Debug("multipoint: odd number of bytes", "body", body)
		return nil, s, false
	}

	var mp = &Multipoint{Style: style, Type: typ}

	for i := 0; i < len(body); i += 2 {
		var a, b = body[i], body[i+1]
		if a < '"' || a > 'z' || b < '"' || b > 'z' {
			logger.Debug("multipoint: bad pair", "pair", body[i:i+2])
			return nil, s, false
		}

		if len(mp.Points) >= MAX_MULTIPOINTS {
			continue
		}

		var plat = lat + int64(math.Round(float64(int(a)-78)*scale))
		var plon = lon + int64(math.Round(float64(int(b)-78)*scale))
		mp.Points = append(mp.Points, [2]int64{plon, plat})
	}

	return mp, s[:start] + tail, true
}
