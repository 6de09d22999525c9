package tracker

/*------------------------------------------------------------------
 *
 * Purpose:	Position history for moving stations.
 *
 * Description:	Points are kept oldest first.  New points go on the
 *		newest end and expiration trims from the oldest end,
 *		stopping at the first point still young enough.
 *
 *		A point is not added if it looks like GPS noise (implied
 *		speed from the previous point is too high) or if it is an
 *		echo of one we already have: a digipeated copy arriving
 *		late, after the station has moved on.
 *
 *		The new track flag marks a gap, in distance or time, so
 *		nothing downstream joins the two segments with a line.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"io"
	"time"

	"github.com/lestrrat-go/strftime"
)

const (
	TR_LOCAL  = 0x01 // heard direct (not via digis)
	TR_NEWTRK = 0x02 // start new track
)

const (
	TRAIL_NO_SPEED    = -1
	TRAIL_NO_COURSE   = -1
	TRAIL_NO_ALTITUDE = -99999
)

type TrailPoint struct {
	Lat      int64
	Lon      int64
	Time     time.Time
	Altitude int // 0.1 m
	Speed    int // 0.1 km/h
	Course   int // degrees
	Flags    byte
}

type TrailConfig struct {
	MaxAge        time.Duration `yaml:"max_age"`
	SegmentDistKM float64       `yaml:"segment_distance_km"`
	SegmentTime   time.Duration `yaml:"segment_time"`
	MaxSpeedKMH   float64       `yaml:"max_speed_kmh"`
	EchoWindow    time.Duration `yaml:"echo_window"`
}

type Trail struct {
	points []TrailPoint
}

func (t *Trail) Len() int {
	if t == nil {
		return 0
	}

	return len(t.points)
}

// Points is a copy, oldest first.
func (t *Trail) Points() []TrailPoint {
	if t == nil {
		return nil
	}

	return append([]TrailPoint(nil), t.points...)
}

func (t *Trail) Newest() (TrailPoint, bool) {
	if t.Len() == 0 {
		return TrailPoint{}, false
	}

	return t.points[len(t.points)-1], true
}

func (t *Trail) Oldest() (TrailPoint, bool) {
	if t.Len() == 0 {
		return TrailPoint{}, false
	}

	return t.points[0], true
}

func (t *Trail) Clone() *Trail {
	return &Trail{points: t.Points()}
}

// sameFix compares everything but the time and flags.
func sameFix(a, b TrailPoint) bool {
	return a.Lat == b.Lat && a.Lon == b.Lon && a.Speed == b.Speed &&
		a.Course == b.Course && a.Altitude == b.Altitude
}

// IsEcho looks back through points no older than window.
func (t *Trail) IsEcho(p TrailPoint, window time.Duration) bool {
	for i := t.Len() - 1; i >= 0; i-- {
		var q = t.points[i]
		if p.Time.Sub(q.Time) > window {
			break
		}
		if sameFix(p, q) {
			return true
		}
	}

	return false
}

/*------------------------------------------------------------------
 *
 * Name:	Add
 *
 * Purpose:	Append a point, subject to the noise and echo checks.
 *
 * Returns:	true if the point was stored.
 *
 *------------------------------------------------------------------*/

func (t *Trail) Add(p TrailPoint, cfg TrailConfig) bool {
	var prev, ok = t.Newest()

	if ok {
		if t.IsEcho(p, cfg.EchoWindow) {
			logger.Debug("trail: echo suppressed", "lat", p.Lat, "lon", p.Lon)
			return false
		}

		var km = DistanceKM(prev.Lat, prev.Lon, p.Lat, p.Lon)
		var dt = p.Time.Sub(prev.Time)

		if cfg.MaxSpeedKMH > 0 && dt > 0 && km/dt.Hours() > cfg.MaxSpeedKMH {
			logger.Debug("trail: implied speed too high, ignoring point", "kmh", km/dt.Hours())
			return false
		}

		if (cfg.SegmentDistKM > 0 && km > cfg.SegmentDistKM) || (cfg.SegmentTime > 0 && dt > cfg.SegmentTime) {
			p.Flags |= TR_NEWTRK
		}
	} else {
		p.Flags |= TR_NEWTRK
	}

	t.points = append(t.points, p)

	return true
}

// Expire removes points older than maxAge and reports how many went.
func (t *Trail) Expire(now time.Time, maxAge time.Duration) int {
	var n = 0
	for n < len(t.points) && now.Sub(t.points[n].Time) > maxAge {
		n++
	}

	if n > 0 {
		t.points = t.points[n:]

		// First remaining point starts a track of its own.
		if len(t.points) > 0 {
			t.points[0].Flags |= TR_NEWTRK
		}
	}

	// Don't hang on to a big backing array forever.
	if cap(t.points) > 64 && len(t.points) < cap(t.points)/4 {
		t.points = append([]TrailPoint(nil), t.points...)
	}

	return n
}

// trailPointFromStation converts the display strings into trail units.
func trailPointFromStation(st *Station, now time.Time) TrailPoint {
	var p = TrailPoint{
		Lat:      st.Lat,
		Lon:      st.Lon,
		Time:     now,
		Altitude: TRAIL_NO_ALTITUDE,
		Speed:    TRAIL_NO_SPEED,
		Course:   TRAIL_NO_COURSE,
	}

	if st.Altitude != "" {
		p.Altitude = int(FeetToMeters(atof(st.Altitude))*10 + 0.5)
	}
	if st.Speed != "" {
		p.Speed = int(KnotsToKMH(atof(st.Speed))*10 + 0.5)
	}
	if st.Course != "" {
		p.Course = atoi(st.Course)
	}
	if st.Flags.Has(ST_DIRECT) {
		p.Flags |= TR_LOCAL
	}

	return p
}

/*------------------------------------------------------------------
 *
 * Name:	WriteTrail
 *
 * Purpose:	Export a station's trail as a plain text tracklog.
 *
 *		# WGS-84 tracklog created by samtrack for W1ABC-9
 *		N  New Track Start
 *		T  4237.140N 07120.830W Sun Jun 15 00:34:13 2014 33m 9km/h 291°
 *
 *		Missing altitude, speed or course are left out.
 *
 *------------------------------------------------------------------*/

const TRAIL_TIME_FORMAT = "%a %b %d %H:%M:%S %Y"

func WriteTrail(w io.Writer, st *Station) error {
	var _, err = fmt.Fprintf(w, "# WGS-84 tracklog created by samtrack for %s\n", st.Name())
	if err != nil {
		return err
	}

	for _, p := range st.Trail.Points() {
		if p.Flags&TR_NEWTRK != 0 {
			if _, err := io.WriteString(w, "N  New Track Start\n"); err != nil {
				return err
			}
		}

		var stamp, err = strftime.Format(TRAIL_TIME_FORMAT, p.Time.UTC())
		if err != nil {
			return err
		}

		var line = fmt.Sprintf("T  %s %s %s", LatToString(p.Lat, 3), LonToString(p.Lon, 3), stamp)

		if p.Altitude != TRAIL_NO_ALTITUDE {
			line += fmt.Sprintf(" %.0fm", float64(p.Altitude)/10.0)
		}
		if p.Speed != TRAIL_NO_SPEED {
			line += fmt.Sprintf(" %.0fkm/h", float64(p.Speed)/10.0)
		}
		if p.Course != TRAIL_NO_COURSE {
			line += fmt.Sprintf(" %d°", p.Course)
		}

		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return err
		}
	}

	return nil
}
