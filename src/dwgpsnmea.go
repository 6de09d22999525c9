package tracker

/*------------------------------------------------------------------
 *
 * Purpose:   	Process NMEA sentences.
 *
 * Description:	Two places these show up:
 *
 *		- Raw GPS packets, "$GPRMC,..." in the information part,
 *		  from trackers with no APRS formatting of their own.
 *
 *		- Fix updates for the local station from a receiver
 *		  attached to whatever is driving us.
 *
 *		Any talker ID is accepted.
 *
 *			$GPxxx = GPS
 *			$GLxxx = GLONASS
 *			$GAxxx = Galileo
 *			$GBxxx = BeiDou
 *			$GNxxx = Any combination
 *
 *---------------------------------------------------------------*/

import (
	"errors"
	"fmt"
	"strings"

	"github.com/adrianmo/go-nmea"
)

type FixQuality int

const (
	FIX_ERROR    FixQuality = -1
	FIX_NOT_SEEN FixQuality = 0
	FIX_NO_FIX   FixQuality = 1
	FIX_2D       FixQuality = 2
	FIX_3D       FixQuality = 3
)

var ErrUnsupportedSentence = errors.New("unsupported NMEA sentence")

// GPSFix is a position from a receiver.
type GPSFix struct {
	Fix       FixQuality
	Lat       int64
	Lon       int64
	Knots     float64 // -1 if not known
	Course    float64 // -1 if not known
	AltMeters float64
	HasAlt    bool
	Sats      int
}

// nmeaChecksum covers everything between '$' and '*'.
func nmeaChecksum(body string) byte {
	var sum byte
	for i := 0; i < len(body); i++ {
		sum ^= body[i]
	}

	return sum
}

/*-------------------------------------------------------------------
 *
 * Name:        ParseNMEA
 *
 * Purpose:    	Parse RMC, GGA or GLL and extract interesting parts.
 *
 * Returns:	Fix, record type describing where it came from, error.
 *
 * Description:	The checksum is optional in APRS packets, so one is
 *		added when missing.  A wrong checksum is still an error.
 *
 *		RMC has speed and course but no altitude.  GGA has
 *		altitude and satellites but no speed or course.
 *
 * Examples:	$GPRMC,003413.710,A,4237.1240,N,07120.8333,W,5.07,291.42,160614,,,A*7F
 *		$GPGGA,003518.710,4237.1250,N,07120.8327,W,1,03,5.9,33.5,M,-33.5,M,,0000*5B
 *
 *--------------------------------------------------------------------*/

func ParseNMEA(sentence string) (GPSFix, RecordType, error) {
	var fix = GPSFix{Fix: FIX_ERROR, Knots: -1, Course: -1}

	sentence = strings.TrimRight(sentence, "\r\n ")
	if !strings.HasPrefix(sentence, "$") {
		return fix, 0, fmt.Errorf("NMEA sentence must start with '$': %w", ErrUnsupportedSentence)
	}

	if !strings.Contains(sentence, "*") {
		sentence = fmt.Sprintf("%s*%02X", sentence, nmeaChecksum(sentence[1:]))
	}

	var s, err = nmea.Parse(sentence)
	if err != nil {
		return fix, 0, fmt.Errorf("NMEA parse: %w", err)
	}

	switch s.DataType() {
	case nmea.TypeRMC:
		var m = s.(nmea.RMC)
		if m.Validity != nmea.ValidRMC {
			fix.Fix = FIX_NO_FIX
			return fix, NORMAL_GPS_RMC, nil
		}

		fix.Fix = FIX_2D
		fix.Lat, fix.Lon = LatFromDegrees(m.Latitude), LonFromDegrees(m.Longitude)
		fix.Knots = m.Speed
		fix.Course = m.Course

		return fix, NORMAL_GPS_RMC, nil

	case nmea.TypeGGA:
		var m = s.(nmea.GGA)
		if m.FixQuality == nmea.Invalid || m.FixQuality == "" {
			fix.Fix = FIX_NO_FIX
			return fix, NORMAL_GPS_GGA, nil
		}

		fix.Lat, fix.Lon = LatFromDegrees(m.Latitude), LonFromDegrees(m.Longitude)
		fix.Sats = int(m.NumSatellites)
		fix.AltMeters = m.Altitude

		// Altitude is the difference between 2D and 3D.
		fix.Fix = FIX_2D
		if m.NumSatellites >= 4 {
			fix.Fix = FIX_3D
			fix.HasAlt = true
		}

		return fix, NORMAL_GPS_GGA, nil

	case nmea.TypeGLL:
		var m = s.(nmea.GLL)
		if m.Validity != nmea.ValidGLL {
			fix.Fix = FIX_NO_FIX
			return fix, NORMAL_GPS_GLL, nil
		}

		fix.Fix = FIX_2D
		fix.Lat, fix.Lon = LatFromDegrees(m.Latitude), LonFromDegrees(m.Longitude)

		return fix, NORMAL_GPS_GLL, nil
	}

	return fix, 0, fmt.Errorf("%s: %w", s.DataType(), ErrUnsupportedSentence)
}

// decodeNMEA handles a raw GPS packet.
func decodeNMEA(r *Report, info string) bool {
	var fix, rt, err = ParseNMEA(info)
	if err != nil {
		logger.Debug("raw GPS packet", "source", r.Source, "err", err)
		return false
	}

	if fix.Fix < FIX_2D {
		return false
	}

	r.Kind = REPORT_POSITION
	r.RecordType = rt
	r.Lat, r.Lon = fix.Lat, fix.Lon
	r.HasPosition = true
	r.Symbol = Symbol{Table: '/', Code: '/'}

	if fix.Knots >= 0 {
		r.Speed = fmt.Sprintf("%03.0f", fix.Knots)
	}
	if fix.Course > 0 {
		r.Course = fmt.Sprintf("%03.0f", fix.Course)
	}
	if fix.HasAlt {
		r.Altitude = fmt.Sprintf("%.0f", MetersToFeet(fix.AltMeters))
	}
	if fix.Sats > 0 {
		r.Sats = fmt.Sprintf("%02d", fix.Sats)
	}

	return true
}
