package tracker

/*------------------------------------------------------------------
 *
 * Purpose:   	Various functions for dealing with latitude and longitude.
 *
 * Description: Positions are kept as integers in 1/100 second of arc.
 *		Latitude 0 is 90 degrees North, increasing southward.
 *		Longitude 0 is 180 degrees West, increasing eastward.
 *		A position of (0,0) means "not known".
 *
 *		Floating point is only used at the edges: distance
 *		calculations and display.
 *
 *---------------------------------------------------------------*/

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

const (
	CENTISEC_PER_DEGREE = 360000
	CENTISEC_PER_MINUTE = 6000
	LAT_EQUATOR         = 90 * CENTISEC_PER_DEGREE
	LON_GREENWICH       = 180 * CENTISEC_PER_DEGREE
	LAT_MAX             = 180 * CENTISEC_PER_DEGREE
	LON_MAX             = 360 * CENTISEC_PER_DEGREE
)

func LatFromDegrees(d float64) int64 {
	return int64(math.Round((90 - d) * CENTISEC_PER_DEGREE))
}

func LonFromDegrees(d float64) int64 {
	return int64(math.Round((d + 180) * CENTISEC_PER_DEGREE))
}

func LatToDegrees(lat int64) float64 {
	return 90 - float64(lat)/CENTISEC_PER_DEGREE
}

func LonToDegrees(lon int64) float64 {
	return float64(lon)/CENTISEC_PER_DEGREE - 180
}

func PositionKnown(lat, lon int64) bool {
	return lat != 0 || lon != 0
}

/*------------------------------------------------------------------
 *
 * Name:        ConvertLatS2L
 *
 * Purpose:     Convert latitude string to internal units.
 *
 * Inputs:      s	- [D]DMM.mm[mm]N  (hemisphere may follow up to
 *			  four fractional digits).
 *
 * Returns:     Internal latitude, ok.
 *
 * Description:	The fourth fractional digit is kept, it is worth
 *		0.6 of a unit.  Rounded, not truncated.
 *
 *----------------------------------------------------------------*/

func ConvertLatS2L(s string) (int64, bool) {
	return convertS2L(s, 2, 'N', 'S', LAT_EQUATOR, 90)
}

func ConvertLonS2L(s string) (int64, bool) {
	return convertS2L(s, 3, 'W', 'E', LON_GREENWICH, 180)
}

func convertS2L(s string, degDigits int, negHemi, posHemi byte, offset int64, maxDeg int64) (int64, bool) {
	var dot = strings.IndexByte(s, '.')
	if dot < 2+1 {
		return 0, false
	}

	// Fewer degree digits than normal get a leading zero.
	for dot < degDigits+2 {
		s = "0" + s
		dot++
	}
	if dot != degDigits+2 {
		return 0, false
	}

	var hemi byte
	var frac = ""
	for i := dot + 1; i < len(s); i++ {
		var c = s[i] &^ 0x20 // upper case
		if c == negHemi || c == posHemi {
			hemi = c
			break
		}
		if !isDigit(s[i]) || len(frac) >= 6 {
			return 0, false
		}
		frac += s[i : i+1]
	}
	if hemi == 0 {
		return 0, false
	}

	if !allDigits(s[:degDigits]) || !allDigits(s[degDigits:dot]) {
		return 0, false
	}

	var deg = int64(atoi(s[:degDigits]))
	var min = int64(atoi(s[degDigits:dot]))
	if deg > maxDeg || min >= 60 || (deg == maxDeg && (min > 0 || atoi(frac) > 0)) {
		return 0, false
	}

	frac = (frac + "0000")[:4]
	var cs = deg*CENTISEC_PER_DEGREE + min*CENTISEC_PER_MINUTE + int64(float64(atoi(frac))*0.6+0.5)

	if hemi == negHemi {
		cs = -cs
	}

	return cs + offset, true
}

/*------------------------------------------------------------------
 *
 * Name:        LatToString / LonToString
 *
 * Purpose:     Convert internal units to the fixed width strings
 *		used in position reports.
 *
 * Inputs:	decimals	- 2 for ddmm.mm, 3 for ddmm.mmm
 *
 * Description:	Integer arithmetic throughout.  Digits past the last
 *		one shown are dropped, not rounded.
 *
 *----------------------------------------------------------------*/

func LatToString(lat int64, decimals int) string {
	var hemi = byte('S')
	var cs = lat - LAT_EQUATOR
	if cs <= 0 {
		hemi = 'N'
		cs = -cs
	}

	var deg, whole, frac = splitMinutes(cs, decimals)

	return fmt.Sprintf("%02d%02d.%0*d%c", deg, whole, decimals, frac, hemi)
}

func LonToString(lon int64, decimals int) string {
	var hemi = byte('E')
	var cs = lon - LON_GREENWICH
	if cs < 0 {
		hemi = 'W'
		cs = -cs
	}

	var deg, whole, frac = splitMinutes(cs, decimals)

	return fmt.Sprintf("%03d%02d.%0*d%c", deg, whole, decimals, frac, hemi)
}

// splitMinutes truncates to the requested number of decimal minutes,
// so a position never spills into the next minute or degree.
func splitMinutes(cs int64, decimals int) (int64, int64, int64) {
	var scale = int64(math.Pow10(decimals))

	var units = cs * scale / CENTISEC_PER_MINUTE

	var perDegree = 60 * scale
	var deg = units / perDegree
	var rem = units % perDegree

	return deg, rem / scale, rem % scale
}

// FormatDegMin produces a display form such as "N 49 03.500 W 072 01.750".
func FormatDegMin(lat, lon int64) string {
	var la = LatToString(lat, 3)
	var lo = LonToString(lon, 3)

	return fmt.Sprintf("%c %s %s %c %s %s", la[8], la[0:2], la[2:8], lo[9], lo[0:3], lo[3:9])
}

func latLng(lat, lon int64) s2.LatLng {
	return s2.LatLng{
		Lat: s1.Angle(D2R(LatToDegrees(lat))),
		Lng: s1.Angle(D2R(LonToDegrees(lon))),
	}
}

const R_KM = 6371

/*------------------------------------------------------------------
 *
 * Function:	DistanceKM
 *
 * Purpose:	Great circle distance between two positions.
 *
 * Inputs:	Internal units.
 *
 * Returns:	Distance in km.
 *
 *------------------------------------------------------------------*/

func DistanceKM(lat1, lon1, lat2, lon2 int64) float64 {
	var a = latLng(lat1, lon1)
	var b = latLng(lat2, lon2)

	return a.Distance(b).Radians() * R_KM
}

// BearingDeg is the initial bearing from the first point to the second, 0 - 360.
func BearingDeg(lat1, lon1, lat2, lon2 int64) float64 {
	var a = latLng(lat1, lon1)
	var b = latLng(lat2, lon2)

	var y = math.Sin(float64(b.Lng-a.Lng)) * math.Cos(float64(b.Lat))
	var x = math.Cos(float64(a.Lat))*math.Sin(float64(b.Lat)) -
		math.Sin(float64(a.Lat))*math.Cos(float64(b.Lat))*math.Cos(float64(b.Lng-a.Lng))

	var brg = R2D(math.Atan2(y, x))
	if brg < 0 {
		brg += 360
	}

	return brg
}

/*------------------------------------------------------------------
 *
 * Function:	GridSquareToLatLon
 *
 * Purpose:	Convert Maidenhead locator to internal latitude and longitude.
 *
 * Inputs:	maidenhead	- 4 or 6 character grid square locator.
 *
 * Returns:	Centre of the square.
 *
 * Description:	Linear formula.  Each pair subdivides the previous one:
 *		fields of 20x10 degrees, squares of 2x1 degrees,
 *		subsquares of 5x2.5 minutes.
 *
 *------------------------------------------------------------------*/

const MH_UNITS = (18 * 10 * 24 * 2)

type mhPair struct {
	position string
	min_ch   byte
	max_ch   byte
	value    int
}

var MHPairs = []*mhPair{
	{"first", 'A', 'R', 10 * 24 * 2},
	{"second", '0', '9', 24 * 2},
	{"third", 'A', 'X', 2},
}

var ErrBadGridSquare = errors.New("invalid Maidenhead locator")

func GridSquareToLatLon(maidenhead string) (int64, int64, error) {
	var np = len(maidenhead) / 2

	if len(maidenhead)%2 != 0 || np < 2 || np > 3 {
		return 0, 0, fmt.Errorf("%w: %q must be 4 or 6 characters", ErrBadGridSquare, maidenhead)
	}

	var mh = strings.ToUpper(maidenhead)

	var ilat, ilon int
	for n := 0; n < np; n++ {
		if mh[2*n] < MHPairs[n].min_ch || mh[2*n] > MHPairs[n].max_ch ||
			mh[2*n+1] < MHPairs[n].min_ch || mh[2*n+1] > MHPairs[n].max_ch {
			return 0, 0, fmt.Errorf("%w: the %s pair of %q must be in range %c thru %c",
				ErrBadGridSquare, MHPairs[n].position, maidenhead, MHPairs[n].min_ch, MHPairs[n].max_ch)
		}

		ilon += int(mh[2*n]-MHPairs[n].min_ch) * MHPairs[n].value
		ilat += int(mh[2*n+1]-MHPairs[n].min_ch) * MHPairs[n].value

		if n == np-1 { // If last pair, take center of square.
			ilon += MHPairs[n].value / 2
			ilat += MHPairs[n].value / 2
		}
	}

	var dlat = float64(ilat)/MH_UNITS*180. - 90.
	var dlon = float64(ilon)/MH_UNITS*360. - 180.

	return LatFromDegrees(dlat), LonFromDegrees(dlon), nil
}
