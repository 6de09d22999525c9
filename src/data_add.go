package tracker

/*------------------------------------------------------------------
 *
 * Purpose:   	Fold a decoded packet into the station database.
 *
 * Description:	Fields not present in the new packet are left alone,
 *		except speed, course and altitude which are cleared
 *		first whenever a new position arrives.  Otherwise a
 *		station that stopped would keep showing its old speed.
 *
 *		A trail only starts once a station moves.  At that
 *		point the previous position goes in first so the
 *		trail begins where the station was.
 *
 *---------------------------------------------------------------*/

import (
	"errors"
	"time"
)

/*------------------------------------------------------------------
 *
 * Name:	applyReport
 *
 * Purpose:	Create or update a station from a decoded packet.
 *
 * Errors:	ErrStoreFull when a new station can't be added.
 *		Nothing is changed in that case.
 *
 *------------------------------------------------------------------*/

func (t *Tracker) applyReport(r *Report, pp *Packet, now time.Time) error {
	switch r.Kind {
	case REPORT_IGNORED:
		return nil

	case REPORT_MESSAGE:
		t.touchStation(r, pp, now)
		t.processMessage(r, pp, now)
		return nil

	case REPORT_QUERY:
		t.touchStation(r, pp, now)
		t.answerGeneralQuery(r, pp, now)
		return nil
	}

	var mine = sameCall(r.Source, t.cfg.MyCall, true)
	var objItem = r.Kind == REPORT_OBJECT || r.Kind == REPORT_ITEM

	var st, found = t.db.Find(r.Name)

	if found && objItem && st.IsObjectOrItem() {
		switch {
		case mine && !r.Killed && !st.Flags.Has(ST_ACTIVE):
			// Bringing back one that was killed.  Start over fresh.
			logger.Debug("re-adopting killed object", "name", r.Name)
			if err := t.db.Delete(st); err != nil {
				return err
			}
			found = false

		case !mine && st.Flags.Has(ST_MYOBJITEM):
			t.disownObject(st, r.Source)
		}
	}

	if !found {
		var err error
		st, err = t.db.Insert(r.Name, now)
		if err != nil {
			packetsRejected.WithLabelValues("store_full").Inc()
			logger.Warn("can't add station", "name", r.Name, "err", err)
			return err
		}

		st.LastPort = -1
		st.Tactical = t.tacticals[r.Name]
	}

	var prev = trailPointFromStation(st, st.PosTime)
	var hadPosition = st.HasPosition()

	t.updateStation(st, r, pp, now)

	if objItem {
		if r.Killed {
			// Stays until it expires.
			st.Flags &^= ST_ACTIVE | ST_INVIEW
		} else {
			st.Flags |= ST_ACTIVE
		}

		if mine && r.Via == DATA_VIA_LOCAL {
			t.adoptObject(st, now)
		}
	}

	var moved = r.HasPosition && hadPosition && (prev.Lat != st.Lat || prev.Lon != st.Lon)
	if moved {
		st.Flags |= ST_MOVING
		t.extendTrail(st, prev, now)
	} else if r.HasPosition && !r.IsMoving() && hadPosition {
		st.Flags &^= ST_MOVING
	}

	if st.HasPosition() && !r.Killed {
		st.Flags = IfThenElse(t.inView(st), st.Flags|ST_INVIEW, st.Flags&^ST_INVIEW)
	}

	if err := t.db.Touch(st, now); err != nil && !errors.Is(err, ErrNoSuchStation) {
		return err
	}

	if !found {
		t.emit(Event{Kind: EVENT_STATION_CREATED, Time: now, Name: st.Name(), Text: r.Kind.String()}, st)
		if t.cfg.Alerts.NewStation && !mine {
			t.emit(Event{Kind: EVENT_ALERT_NEW_STATION, Time: now, Name: st.Name()}, st)
		}
	} else {
		t.emit(Event{Kind: EVENT_STATION_UPDATED, Time: now, Name: st.Name(), Text: r.Kind.String()}, st)
	}

	t.checkAlerts(st, r, now)

	stationCount.Set(float64(t.db.Len()))

	return nil
}

// updateStation copies what the packet carried.
func (t *Tracker) updateStation(st *Station, r *Report, pp *Packet, now time.Time) {
	var mine = sameCall(r.Source, t.cfg.MyCall, true)

	// Motion is only ever what the latest packet said.
	st.Speed, st.Course, st.Altitude = "", "", ""

	if r.HasPosition {
		st.Lat, st.Lon = r.Lat, r.Lon
		st.PosAmb = r.PosAmb
		st.PosTime = now
		st.RecordType = r.RecordType
	}

	if r.Symbol.Code != 0 {
		st.Symbol = r.Symbol
	}

	if r.Speed != "" {
		st.Speed = r.Speed
	}
	if r.Course != "" {
		st.Course = r.Course
	}
	if r.Altitude != "" {
		st.Altitude = r.Altitude
	}
	if r.Bearing != "" {
		st.Bearing, st.NRQ = r.Bearing, r.NRQ
	}
	if r.PowerGain != "" {
		st.PowerGain = r.PowerGain
	}
	if r.SignalGain != "" {
		st.SignalGain = r.SignalGain
	}
	if r.Timestamp != "" {
		st.PacketTime = r.Timestamp
	}
	if r.MicEStatus != "" {
		st.MicEStatus = r.MicEStatus
	}
	if r.Signpost != "" {
		st.Signpost = r.Signpost
	}

	if r.HasPosition {
		st.Area = r.Area
		st.Multipoint = r.Multipoint
	}

	if r.Weather != nil {
		var wx = *r.Weather
		wx.Time = now
		st.Weather = &wx
	}

	if r.Comment != "" {
		st.Comments = addTimedText(st.Comments, r.Comment, now, MAX_COMMENT_LINES)
	}

	switch r.Kind {
	case REPORT_STATUS:
		st.Status = addTimedText(st.Status, r.Status, now, MAX_STATUS_LINES)
		st.Flags |= ST_STATUS

	case REPORT_UNKNOWN:
		// Better than nothing, but a real status wins.
		if len(st.Status) == 0 && r.Status != "" {
			st.Status = addTimedText(nil, r.Status, now, MAX_STATUS_LINES)
		}
	}

	switch r.Kind {
	case REPORT_OBJECT:
		st.Flags |= ST_OBJECT
	case REPORT_ITEM:
		st.Flags |= ST_ITEM
	default:
		st.Flags |= ST_ACTIVE
		if mine {
			st.Flags |= ST_MYSTATION
		}
	}

	if r.MsgCap {
		st.Flags |= ST_MSGCAP
	}

	st.Flags = IfThenElse(r.ThirdParty, st.Flags|ST_3RD_PT, st.Flags&^ST_3RD_PT)

	switch {
	case st.IsObjectOrItem():
		st.Origin = r.Source
	case r.Via == DATA_VIA_NET:
		st.Origin = IfThenElse(t.cfg.isNWSStation(r.Source), "INET-NWS", "INET")
	default:
		st.Origin = ""
	}

	t.notePath(st, r, pp, now)
}

// notePath is the bookkeeping for how and where we heard it.
func (t *Tracker) notePath(st *Station, r *Report, pp *Packet, now time.Time) {
	st.DataVia = r.Via
	st.LastPort = r.Port
	st.NodePath = pp.PathString()
	st.NumPackets++
	st.Heard = now

	if r.Via == DATA_VIA_TNC && !r.ThirdParty {
		st.Flags |= ST_VIATNC
		st.HeardViaTNC = now
		st.HeardViaTNCPort = r.Port

		if !pp.Repeated() {
			st.Flags |= ST_DIRECT
			st.DirectHeard = now
		}
	}
}

/*------------------------------------------------------------------
 *
 * Name:	touchStation
 *
 * Purpose:	Messages and queries don't create a station but they
 *		do show the sender is still around.
 *
 *------------------------------------------------------------------*/

func (t *Tracker) touchStation(r *Report, pp *Packet, now time.Time) {
	var st, found = t.db.Find(r.Source)
	if !found || st.IsObjectOrItem() {
		return
	}

	st.Speed, st.Course, st.Altitude = "", "", ""

	t.notePath(st, r, pp, now)
	_ = t.db.Touch(st, now)
}

// extendTrail adds the new position, and the old one first if this is the first move.
// A first move rejected as noise leaves no trail at all.
func (t *Tracker) extendTrail(st *Station, prev TrailPoint, now time.Time) {
	if st.Trail == nil {
		st.Trail = &Trail{}
	}

	var fresh = st.Trail.Len() == 0
	if fresh {
		st.Trail.Add(prev, t.cfg.Trail)
	}

	// One point on its own is not a trail.
	if !st.Trail.Add(trailPointFromStation(st, now), t.cfg.Trail) && fresh {
		st.Trail = nil
	}
}

// inView is the configured area plus margin.  No area means everything.
func (t *Tracker) inView(st *Station) bool {
	var v = t.cfg.Viewport
	if v.North == 0 && v.South == 0 && v.West == 0 && v.East == 0 {
		return true
	}

	var lat, lon = LatToDegrees(st.Lat), LonToDegrees(st.Lon)

	// About 111 km per degree of latitude.  Close enough for a margin.
	var margin = v.MarginKM / 111.0

	return lat <= v.North+margin && lat >= v.South-margin &&
		lon >= v.West-margin && lon <= v.East+margin
}

/*------------------------------------------------------------------
 *
 * Name:	checkAlerts
 *
 * Purpose:	Proximity, band opening and emergency alerts.
 *
 *------------------------------------------------------------------*/

func (t *Tracker) checkAlerts(st *Station, r *Report, now time.Time) {
	if r.Emergency {
		var last, seen = t.emergencies[st.Call]
		if !seen || now.Sub(last) >= t.cfg.Alerts.EmergencyInterval {
			t.emergencies[st.Call] = now
			logger.Warn("EMERGENCY", "station", st.Name(), "status", r.MicEStatus)
			t.emit(Event{Kind: EVENT_ALERT_EMERGENCY, Time: now, Name: st.Name(), Text: r.MicEStatus}, st)
		}
	}

	if !r.HasPosition || st.Flags.Has(ST_MYSTATION) || st.Flags.Has(ST_MYOBJITEM) {
		return
	}

	var me, ok = t.myPosition()
	if !ok {
		return
	}

	var km = DistanceKM(me.Lat, me.Lon, st.Lat, st.Lon)
	var a = t.cfg.Alerts

	if a.ProximityMaxKM > 0 && km >= a.ProximityMinKM && km <= a.ProximityMaxKM {
		t.emit(Event{Kind: EVENT_ALERT_PROXIMITY, Time: now, Name: st.Name(), DistanceKM: km}, st)
	}

	if a.BandOpeningMinKM > 0 && r.Via == DATA_VIA_TNC && st.Flags.Has(ST_DIRECT) && st.DirectHeard.Equal(now) &&
		km >= a.BandOpeningMinKM && (a.BandOpeningMaxKM <= 0 || km <= a.BandOpeningMaxKM) {
		t.emit(Event{Kind: EVENT_ALERT_BAND_OPENING, Time: now, Name: st.Name(), DistanceKM: km}, st)
	}
}
