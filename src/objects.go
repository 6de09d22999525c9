package tracker

/*------------------------------------------------------------------
 *
 * Purpose:   	Objects and items that we own.
 *
 * Description:	An object is created or changed by building the packet,
 *		sending it, and feeding it back through the decoder as
 *		if it had been heard locally.  The station database then
 *		has it like any other, with ST_MYOBJITEM set.
 *
 *		After that they are retransmitted on a decaying schedule:
 *		the interval starts small and doubles each time up to
 *		a maximum.  Some random time is taken off each new
 *		interval so a bunch of objects created together don't
 *		all go out together forever after.
 *
 *		A killed object is sent a fixed number of more times,
 *		on the same schedule, then no more.  It stays in the
 *		database until it expires.
 *
 *---------------------------------------------------------------*/

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const MAX_KILLED_OBJECT_RETRANSMIT = 20

var ErrNotMine = errors.New("object not owned by me")

// ObjectSpec is what the operator gives us to create or change an object or item.
type ObjectSpec struct {
	Name    string
	Item    bool
	Lat     int64
	Lon     int64
	Symbol  Symbol
	Comment string

	Course   string
	Speed    string
	Altitude string

	PowerGain string
	Area      *AreaObject
	Signpost  string
}

func (s ObjectSpec) validate() error {
	if s.Item {
		if !ValidItemName(s.Name) {
			return fmt.Errorf("%w: item %q", ErrBadObjectName, s.Name)
		}
	} else if !ValidObjectName(s.Name) {
		return fmt.Errorf("%w: object %q", ErrBadObjectName, s.Name)
	}

	if !PositionKnown(s.Lat, s.Lon) {
		return fmt.Errorf("%s: %w", s.Name, ErrNoPosition)
	}

	return nil
}

// station is the record the encoder wants.
func (s ObjectSpec) station(now time.Time) *Station {
	var st = &Station{
		Call:      s.Name,
		Lat:       s.Lat,
		Lon:       s.Lon,
		Symbol:    s.Symbol,
		Course:    s.Course,
		Speed:     s.Speed,
		Altitude:  s.Altitude,
		PowerGain: s.PowerGain,
		Area:      s.Area,
		Signpost:  s.Signpost,
		Flags:     ST_ACTIVE | IfThenElse(s.Item, ST_ITEM, ST_OBJECT),
	}

	if st.Symbol.Table == 0 {
		st.Symbol = Symbol{Table: '/', Code: '/'}
	}

	if s.Comment != "" {
		st.Comments = addTimedText(nil, s.Comment, now, MAX_COMMENT_LINES)
	}

	return st
}

/*------------------------------------------------------------------
 *
 * Name:	nextObjectInterval
 *
 * Purpose:	Double the interval, up to the maximum, and take off
 *		up to a fifth of it at random.
 *
 * Inputs:	jitter	- Uniform random number in [0, 1).
 *
 *------------------------------------------------------------------*/

func nextObjectInterval(cur, max time.Duration, jitter float64) time.Duration {
	var next = cur * 2
	if next > max {
		next = max
	}

	var oneFifth = next / 5

	return next - time.Duration(jitter*float64(oneFifth)).Round(time.Second)
}

/*------------------------------------------------------------------
 *
 * Name:	checkObjects
 *
 * Purpose:	Retransmit my objects and items that are due.
 *
 * Description:	Called from the tick.  The next time is based off the
 *		scheduled time, not when we got around to it, so the
 *		schedule doesn't drift later and later.  After a long
 *		gap (suspended laptop) start over from now.
 *
 *------------------------------------------------------------------*/

func (t *Tracker) checkObjects(now time.Time) {
	var due []*Station

	t.db.Walk(ORDER_NAME, func(st *Station) bool {
		if st.Flags.Has(ST_MYOBJITEM) {
			due = append(due, st)
		}
		return true
	})

	for _, st := range due {
		if st.TransmitInterval > t.cfg.Objects.MaxInterval {
			st.TransmitInterval = t.cfg.Objects.MaxInterval
		}
		if st.TransmitInterval <= 0 {
			st.TransmitInterval = t.cfg.Objects.InitialInterval
		}

		var when = st.LastTransmit.Add(st.TransmitInterval)
		if now.Before(when) {
			continue
		}

		if !st.Flags.Has(ST_ACTIVE) {
			switch {
			case st.ObjectRetransmit == 0:
				continue // Done with this one.
			case st.ObjectRetransmit < 0:
				st.ObjectRetransmit = t.cfg.Objects.KilledRetransmit - 1
			default:
				st.ObjectRetransmit--
			}
		}

		if now.Sub(when) > st.TransmitInterval {
			st.LastTransmit = now
		} else {
			st.LastTransmit = when
		}
		st.TransmitInterval = nextObjectInterval(st.TransmitInterval, t.cfg.Objects.MaxInterval, t.jitter())

		var info, err = EncodeObjectItem(st, now, t.cfg.Objects.Compressed)
		if err != nil {
			logger.Warn("can't encode my object", "name", st.Call, "err", err)
			continue
		}

		logger.Debug("retransmit object", "name", st.Call, "next", st.TransmitInterval, "remaining", st.ObjectRetransmit)

		t.transmitAll(t.cfg.newPacket(info))

		// Keep it from expiring while we are still sending it.
		_ = t.db.Touch(st, now)
	}
}

// sendObject transmits an object packet and loops it back to the decoder.
func (t *Tracker) sendObject(st *Station, now time.Time) error {
	var info, err = EncodeObjectItem(st, now, t.cfg.Objects.Compressed)
	if err != nil {
		return err
	}

	var pp = t.cfg.newPacket(info)

	t.transmitAll(pp)

	return t.processPacket(pp, DATA_VIA_LOCAL, -1, false, now)
}

/*------------------------------------------------------------------
 *
 * Name:	SetObject
 *
 * Purpose:	Create an object or item, or change one that is mine.
 *
 * Errors:	ErrBadObjectName, ErrNoPosition, ErrStoreFull.
 *
 *------------------------------------------------------------------*/

func (t *Tracker) SetObject(spec ObjectSpec) error {
	if err := spec.validate(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var now = t.now()

	return t.sendObject(spec.station(now), now)
}

// KillObject sends the killed form of one of my objects or items.
func (t *Tracker) KillObject(name string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var st, err = t.myObject(name)
	if err != nil {
		return err
	}

	var dead = st.Clone()
	dead.Flags &^= ST_ACTIVE

	return t.sendObject(dead, t.now())
}

// MoveObject changes the position of one of my objects or items.
func (t *Tracker) MoveObject(name string, lat, lon int64) error {
	if !PositionKnown(lat, lon) {
		return fmt.Errorf("%s: %w", name, ErrNoPosition)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var st, err = t.myObject(name)
	if err != nil {
		return err
	}

	var moved = st.Clone()
	moved.Lat, moved.Lon = lat, lon
	moved.Flags |= ST_ACTIVE

	return t.sendObject(moved, t.now())
}

func (t *Tracker) myObject(name string) (*Station, error) {
	var st, found = t.db.Find(strings.TrimSpace(name))
	if !found {
		return nil, fmt.Errorf("%s: %w", name, ErrNoSuchStation)
	}

	if !st.Flags.Has(ST_MYOBJITEM) {
		return nil, fmt.Errorf("%s: %w", name, ErrNotMine)
	}

	return st, nil
}

/*------------------------------------------------------------------
 *
 * Name:	adoptObject
 *
 * Purpose:	Start the retransmit schedule for an object we just
 *		sent, as it comes back through the decoder.
 *
 * Description:	Any change made by the operator goes out right away
 *		and then starts over at the initial interval.
 *
 *------------------------------------------------------------------*/

func (t *Tracker) adoptObject(st *Station, now time.Time) {
	st.Flags |= ST_MYOBJITEM
	st.LastTransmit = now
	st.TransmitInterval = t.cfg.Objects.InitialInterval
	st.ObjectRetransmit = -1

	if t.store == nil {
		return
	}

	if !st.Flags.Has(ST_ACTIVE) {
		if err := t.store.DeleteObject(st.Call); err != nil {
			logger.Warn("can't remove my object", "name", st.Call, "err", err)
		}
		return
	}

	var info, err = EncodeObjectItem(st, now, t.cfg.Objects.Compressed)
	if err == nil {
		err = t.store.SaveObject(st.Call, info, now)
	}
	if err != nil {
		logger.Warn("can't save my object", "name", st.Call, "err", err)
	}
}

// disownObject is for when someone else has taken over one of my objects.
func (t *Tracker) disownObject(st *Station, by string) {
	logger.Info("object taken over by another station", "name", st.Call, "by", by)

	st.Flags &^= ST_MYOBJITEM
	st.ObjectRetransmit = 0

	if t.store != nil {
		if err := t.store.DeleteObject(st.Call); err != nil {
			logger.Warn("can't remove my object", "name", st.Call, "err", err)
		}
	}
}
