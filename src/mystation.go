package tracker

/*------------------------------------------------------------------
 *
 * Purpose:   	My own station: where I am and telling others.
 *
 * Description:	Position comes from, in order of preference:
 *
 *		- A GPS fix with at least 2 dimensions.
 *		- The fixed position in the beacon configuration.
 *		- Whatever my station record last said, e.g. from a
 *		  beacon heard back through a digipeater.
 *
 *		A beacon goes out on every transmit port and is fed
 *		back through the decoder so my station shows up in
 *		the database like anyone else.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"time"
)

type position struct {
	Lat int64
	Lon int64
}

func (t *Tracker) myPosition() (position, bool) {
	if t.gps != nil && t.gps.Fix >= FIX_2D && PositionKnown(t.gps.Lat, t.gps.Lon) {
		return position{Lat: t.gps.Lat, Lon: t.gps.Lon}, true
	}

	if b := t.cfg.Beacon; b.Latitude != 0 || b.Longitude != 0 {
		return position{Lat: LatFromDegrees(b.Latitude), Lon: LonFromDegrees(b.Longitude)}, true
	}

	if st, found := t.db.Find(t.cfg.MyCall); found && st.HasPosition() {
		return position{Lat: st.Lat, Lon: st.Lon}, true
	}

	return position{}, false
}

/*------------------------------------------------------------------
 *
 * Name:	positionBeacon
 *
 * Purpose:	Send my position now.
 *
 * Errors:	ErrNoPosition if I don't know where I am.
 *
 *------------------------------------------------------------------*/

func (t *Tracker) positionBeacon(now time.Time) error {
	var me, ok = t.myPosition()
	if !ok {
		return fmt.Errorf("%s: %w", t.cfg.MyCall, ErrNoPosition)
	}

	var sym, _ = makeSymbol(t.cfg.Beacon.Symbol[0], t.cfg.Beacon.Symbol[1])

	var st = &Station{
		Call:   t.cfg.MyCall,
		Lat:    me.Lat,
		Lon:    me.Lon,
		Symbol: sym,
	}

	if fix := t.gps; fix != nil && fix.Fix >= FIX_2D {
		if fix.Knots >= 0 {
			st.Speed = fmt.Sprintf("%.0f", fix.Knots)
		}
		if fix.Course > 0 {
			st.Course = fmt.Sprintf("%.0f", fix.Course)
		}
		if fix.HasAlt {
			st.Altitude = fmt.Sprintf("%.0f", MetersToFeet(fix.AltMeters))
		}
	}

	var info = EncodePosition(st, t.cfg.Beacon.Ambiguity, t.cfg.Beacon.Compressed, t.cfg.Beacon.Comment)
	var pp = t.cfg.newPacket(info)

	logger.Debug("position beacon", "info", info)

	t.transmitAll(pp)
	t.beacon.sent(now, t.gps)

	return t.processPacket(pp, DATA_VIA_LOCAL, -1, false, now)
}

// PositionBeacon sends my position right away, whatever the schedule says.
func (t *Tracker) PositionBeacon() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.positionBeacon(t.now())
}

func (t *Tracker) checkBeacon(now time.Time) {
	if t.cfg.Beacon.Interval <= 0 && !t.cfg.Beacon.Smart.Enabled {
		return
	}

	if _, ok := t.myPosition(); !ok {
		return
	}

	if !t.beacon.due(t.cfg.Beacon, now, t.gps) {
		return
	}

	if err := t.positionBeacon(now); err != nil {
		logger.Warn("position beacon", "err", err)
	}
}

/*------------------------------------------------------------------
 *
 * Name:	UpdateGPSFix
 *
 * Purpose:	New fix from the local receiver.
 *
 * Description:	SmartBeaconing may decide a turn is worth a beacon
 *		right now, so check without waiting for the tick.
 *
 *------------------------------------------------------------------*/

func (t *Tracker) UpdateGPSFix(fix GPSFix) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var f = fix
	t.gps = &f

	if fix.Fix < FIX_2D {
		logger.Debug("GPS has no fix", "quality", fix.Fix)
		return
	}

	t.checkBeacon(t.now())
}

// UpdateGPSNMEA is UpdateGPSFix for one sentence straight from the receiver.
func (t *Tracker) UpdateGPSNMEA(sentence string) error {
	var fix, _, err = ParseNMEA(sentence)
	if err != nil {
		return err
	}

	t.UpdateGPSFix(fix)

	return nil
}
