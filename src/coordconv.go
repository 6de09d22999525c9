package tracker

// Utilities for working with https://github.com/tzneal/coordconv

import (
	"errors"
	"fmt"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
	"github.com/tzneal/coordconv"
)

var ErrNoPosition = errors.New("position not known")

func HemisphereRuneToCoordconvHemisphere(_hemi rune) coordconv.Hemisphere {
	switch _hemi {
	case 'N', 'n':
		return coordconv.HemisphereNorth
	case 'S', 's':
		return coordconv.HemisphereSouth
	default:
		return coordconv.HemisphereInvalid
	}
}

func HemisphereToRune(h coordconv.Hemisphere) rune {
	switch h {
	case coordconv.HemisphereNorth:
		return 'N'
	case coordconv.HemisphereSouth:
		return 'S'
	case coordconv.HemisphereInvalid:
		return '!'
	default:
		return '?'
	}
}

// FormatUTM renders a position as "zone hemisphere easting northing".
func FormatUTM(lat, lon int64) (string, error) {
	var utm, err = coordconv.DefaultUTMConverter.ConvertFromGeodetic(latLng(lat, lon), 0)
	if err != nil {
		return "", fmt.Errorf("UTM conversion: %w", err)
	}

	return fmt.Sprintf("%d%c %07.0fE %07.0fN", utm.Zone, HemisphereToRune(utm.Hemisphere), utm.Easting, utm.Northing), nil
}

// FormatMGRS with precision 1 (10 km) to 5 (1 m).
func FormatMGRS(lat, lon int64, precision int) (string, error) {
	var m, err = coordconv.DefaultMGRSConverter.ConvertFromGeodetic(latLng(lat, lon), precision)
	if err != nil {
		return "", fmt.Errorf("MGRS conversion: %w", err)
	}

	return fmt.Sprint(m), nil
}

// UTMToXastir goes the other way, for positions typed in by an operator.
func UTMToXastir(zone int, hemi rune, easting, northing float64) (int64, int64, error) {
	var h = HemisphereRuneToCoordconvHemisphere(hemi)
	if h == coordconv.HemisphereInvalid {
		return 0, 0, fmt.Errorf("UTM hemisphere %q must be N or S", hemi)
	}

	var ll, err = coordconv.DefaultUTMConverter.ConvertToGeodetic(coordconv.UTMCoord{
		Zone:       zone,
		Hemisphere: h,
		Easting:    easting,
		Northing:   northing,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("UTM conversion: %w", err)
	}

	return fromLatLng(ll)
}

func MGRSToXastir(mgrs string) (int64, int64, error) {
	var ll, err = coordconv.DefaultMGRSConverter.ConvertToGeodetic(mgrs)
	if err != nil {
		return 0, 0, fmt.Errorf("MGRS conversion: %w", err)
	}

	return fromLatLng(ll)
}

func fromLatLng(ll s2.LatLng) (int64, int64, error) {
	return LatFromDegrees(R2D(float64(ll.Lat / s1.Radian))), LonFromDegrees(R2D(float64(ll.Lng / s1.Radian))), nil
}
