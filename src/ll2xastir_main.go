package tracker

/*------------------------------------------------------------------
 *
 * Purpose:   	Convert between degrees and the tracker's internal
 *		position units, for checking log and database values.
 *
 * Usage:	samtrack-ll2xastir 42.662139 -71.365553
 *		samtrack-ll2xastir -x 17056370 39239599
 *		samtrack-ll2xastir -m 19TCH0613026010
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"io"
	"os"
	"strconv"
)

// DescribePosition prints a position every way we know.
func DescribePosition(w io.Writer, lat, lon int64) {
	fmt.Fprintf(w, "Xastir    = %d %d\n", lat, lon)
	fmt.Fprintf(w, "Degrees   = %.6f %.6f\n", LatToDegrees(lat), LonToDegrees(lon))
	fmt.Fprintf(w, "APRS      = %s %s\n", LatToString(lat, 2), LonToString(lon, 2))

	if utm, err := FormatUTM(lat, lon); err == nil {
		fmt.Fprintf(w, "UTM       = %s\n", utm)
	} else {
		fmt.Fprintf(w, "Conversion to UTM failed: %s\n", err)
	}

	if _, err := FormatMGRS(lat, lon, 5); err != nil {
		fmt.Fprintf(w, "Conversion to MGRS failed: %s\n", err)
		return
	}

	fmt.Fprintf(w, "MGRS      =")
	for precision := 1; precision <= 5; precision++ {
		var m, _ = FormatMGRS(lat, lon, precision)
		fmt.Fprintf(w, "  %s", m)
	}
	fmt.Fprintf(w, "\n")
}

// LL2XastirRun does the work for the given arguments and returns the exit code.
func LL2XastirRun(w io.Writer, args []string, xastir, mgrs bool) int {
	var lat, lon int64

	switch {
	case mgrs:
		if len(args) != 1 {
			return ll2xastirUsage(w)
		}

		var err error
		lat, lon, err = MGRSToXastir(args[0])
		if err != nil {
			fmt.Fprintf(w, "%s\n", err)
			return 1
		}

	case xastir:
		if len(args) != 2 {
			return ll2xastirUsage(w)
		}

		var errLat, errLon error
		lat, errLat = strconv.ParseInt(args[0], 10, 64)
		lon, errLon = strconv.ParseInt(args[1], 10, 64)
		if errLat != nil || errLon != nil {
			return ll2xastirUsage(w)
		}

	default:
		if len(args) != 2 {
			return ll2xastirUsage(w)
		}

		var dlat, errLat = strconv.ParseFloat(args[0], 64)
		var dlon, errLon = strconv.ParseFloat(args[1], 64)
		if errLat != nil || errLon != nil || dlat < -90 || dlat > 90 || dlon < -180 || dlon > 180 {
			return ll2xastirUsage(w)
		}

		lat, lon = LatFromDegrees(dlat), LonFromDegrees(dlon)
	}

	if !PositionKnown(lat, lon) {
		fmt.Fprintf(w, "Position out of range.\n")
		return 1
	}

	DescribePosition(w, lat, lon)

	return 0
}

func ll2xastirUsage(w io.Writer) int {
	fmt.Fprintf(w, "Latitude / Longitude to Xastir units conversion\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "Usage:\n")
	fmt.Fprintf(w, "\tsamtrack-ll2xastir  latitude  longitude\n")
	fmt.Fprintf(w, "\tsamtrack-ll2xastir  -x  xastir_lat  xastir_lon\n")
	fmt.Fprintf(w, "\tsamtrack-ll2xastir  -m  mgrs\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "where,\n")
	fmt.Fprintf(w, "\tLatitude and longitude are in decimal degrees.\n")
	fmt.Fprintf(w, "\t   Use negative for south or west.\n")
	fmt.Fprintf(w, "\tXastir units are 1/100 second from 90N and 180W.\n")

	return 1
}

// LL2XastirMain looks at its own arguments since "-71.3" would look like a flag.
func LL2XastirMain() {
	var args = os.Args[1:]
	var xastir, mgrs bool

	if len(args) > 0 {
		switch args[0] {
		case "-x", "--xastir":
			xastir, args = true, args[1:]
		case "-m", "--mgrs":
			mgrs, args = true, args[1:]
		}
	}

	os.Exit(LL2XastirRun(os.Stdout, args, xastir, mgrs))
}
