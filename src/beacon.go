package tracker

/*------------------------------------------------------------------
 *
 * Purpose:   	Decide when to send my own position.
 *
 * Description:	Fixed interval when there is no GPS or SmartBeaconing
 *		is off.  Otherwise the SmartBeaconing algorithm, from
 *		HamHUD.net, picks an interval from the speed and forces
 *		a beacon on a change of direction ("corner pegging").
 *
 *		The algorithm is defined in MPH units.  GPS uses knots.
 *		SmartBeacon takes knots and does the conversion itself.
 *
 * References:	http://www.hamhud.net/hh2/smartbeacon.html
 *
 *---------------------------------------------------------------*/

import (
	"math"
	"time"
)

type SmartBeaconConfig struct {
	Enabled bool `yaml:"enabled"`

	LowSpeed  float64       `yaml:"low_speed"`  // MPH
	HighSpeed float64       `yaml:"high_speed"` // MPH
	SlowRate  time.Duration `yaml:"slow_rate"`
	FastRate  time.Duration `yaml:"fast_rate"`
	TurnMin   float64       `yaml:"turn_min"`   // degrees
	TurnSlope float64       `yaml:"turn_slope"` // degrees * MPH / 10
	TurnTime  time.Duration `yaml:"turn_time"`
}

type BeaconConfig struct {
	// Fixed position in degrees, used when there is no GPS.
	Latitude  float64 `yaml:"latitude"`
	Longitude float64 `yaml:"longitude"`

	Interval   time.Duration     `yaml:"interval"`
	Comment    string            `yaml:"comment"`
	Symbol     string            `yaml:"symbol"` // table then code, e.g. "/>"
	Ambiguity  int               `yaml:"ambiguity"`
	Compressed bool              `yaml:"compressed"`
	Smart      SmartBeaconConfig `yaml:"smart"`
}

// Turn thresholds above this never happen in practice and would stop
// corner pegging at low speed altogether.
const SB_MAX_TURN_THRESHOLD = 80

/* Difference between two angles. */

func headingChange(a, b float64) float64 {
	var diff = math.Mod(math.Abs(a-b), 360)

	if diff <= 180. {
		return diff
	}

	return 360. - diff
}

/*-------------------------------------------------------------------
 *
 * Name:        SmartBeacon
 *
 * Purpose:     Calculate the beacon interval using the SmartBeaconing algorithm.
 *
 * Inputs:	course		- Current direction of travel, negative if unknown.
 *
 *		knots		- Current speed from GPS, negative if unknown.
 *
 *		sinceLast	- Time since the most recent transmission.
 *
 *		prevCourse	- Direction included in the most recent
 *				  transmission, negative if unknown.
 *
 * Returns:	Interval between beacons for travelling in a straight line,
 *		and true if a beacon should be sent right now because of
 *		a turn.
 *
 *--------------------------------------------------------------------*/

func SmartBeacon(cfg SmartBeaconConfig, course float64, knots float64, sinceLast time.Duration, prevCourse float64) (time.Duration, bool) {
	var interval time.Duration

	var mph = KnotsToMPH(knots)

	switch {
	case knots < 0:
		interval = (cfg.FastRate + cfg.SlowRate) / 2
	case mph >= cfg.HighSpeed:
		interval = cfg.FastRate
	case mph <= cfg.LowSpeed:
		interval = cfg.SlowRate
	default:
		// LowSpeed > 0 was checked in the configuration so no divide by zero.
		interval = time.Duration(float64(cfg.FastRate) * cfg.HighSpeed / mph).Round(time.Second)
	}

	logger.Debug("SmartBeaconing", "interval", interval, "mph", mph)

	/*
	 * Test for "Corner Pegging" if moving.
	 */
	if knots < 0 || mph <= cfg.LowSpeed || course < 0 || prevCourse < 0 {
		return interval, false
	}

	var threshold = math.Min(cfg.TurnMin+cfg.TurnSlope*10/mph, SB_MAX_TURN_THRESHOLD)
	var change = headingChange(course, prevCourse)

	if change > threshold && sinceLast >= cfg.TurnTime {
		logger.Debug("SmartBeaconing: send now", "heading_change", change, "threshold", threshold)
		return interval, true
	}

	return interval, false
}

// beaconState is what we remember about the last position beacon.
type beaconState struct {
	lastTime   time.Time
	lastCourse float64
}

// due decides whether my position should go out now.  With no fix,
// or SmartBeaconing off, it is a plain fixed interval.
func (b *beaconState) due(cfg BeaconConfig, now time.Time, fix *GPSFix) bool {
	if b.lastTime.IsZero() {
		return true
	}

	var since = now.Sub(b.lastTime)

	if !cfg.Smart.Enabled || fix == nil || fix.Fix < FIX_2D {
		return cfg.Interval > 0 && since >= cfg.Interval
	}

	var interval, force = SmartBeacon(cfg.Smart, fix.Course, fix.Knots, since, b.lastCourse)

	return force || since >= interval
}

func (b *beaconState) sent(now time.Time, fix *GPSFix) {
	b.lastTime = now
	b.lastCourse = -1
	if fix != nil {
		b.lastCourse = fix.Course
	}
}
