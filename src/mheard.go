package tracker

/*------------------------------------------------------------------
 *
 * Purpose:	Maintain a list of all stations heard.
 *
 * Description: Used for the igate decisions, "was this station heard
 *		on the radio recently?", and for the answers to the
 *		?APRSD and ?IGATE? queries.
 *
 *		This is not the station database.  Here "heard" refers
 *		to the AX.25 source address only, for every packet
 *		including messages, which never create a station.
 *		Objects, items and tactical calls have no place here.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"
	"unicode"
)

/*
 * Information for each station heard over the radio or from Internet Server.
 */

type mheardEntry struct {
	callsign string // Callsign from the AX.25 source field.

	count int // Number of times heard.

	port int // Most recent port where heard over the radio.

	hops int // Number of digipeater hops before we heard it
	// over radio.  Zero when heard directly.

	lastHeardRF time.Time // When last heard over the radio.

	lastHeardIS time.Time // When last heard from Internet Server.
}

type MHeard struct {
	db map[string]*mheardEntry
}

func NewMHeard() *MHeard {
	return &MHeard{db: make(map[string]*mheardEntry)}
}

/*------------------------------------------------------------------
 *
 * Name:	SaveRF
 *
 * Purpose:	Save information about station heard over the radio.
 *
 * Description:	We might hear the same transmission several times.
 *		First direct, then thru various digipeater paths.
 *		We are interested in the shortest path if heard very
 *		recently.
 *
 *------------------------------------------------------------------*/

func (m *MHeard) SaveRF(pp *Packet, port int, now time.Time) {
	var hops = 0
	for _, pe := range pp.Path {
		if pe.Used {
			hops++
		}
	}

	/*
	 * Used "WIDEn" with no SSID left are usually left over by a digipeater
	 * that also inserted its own call.  Don't count them twice.
	 */
	if hops > 1 {
		for _, pe := range pp.Path {
			var digi = pe.Call
			if pe.Used && len(digi) == 5 && strings.EqualFold(digi[:4], "WIDE") && unicode.IsDigit(rune(digi[4])) {
				hops--
			}
		}
	}

	var mptr = m.db[pp.Source]
	if mptr == nil {
		logger.Debug("mheard: added new", "call", pp.Source, "hops", hops)

		m.db[pp.Source] = &mheardEntry{
			callsign:    pp.Source,
			count:       1,
			port:        port,
			hops:        hops,
			lastHeardRF: now,
		}

		return
	}

	if hops > mptr.hops && now.Sub(mptr.lastHeardRF) < 15*time.Second {
		logger.Debug("mheard: skip longer path", "call", pp.Source, "hops", hops, "was", mptr.hops)
		return
	}

	mptr.count++
	mptr.port = port
	mptr.hops = hops
	mptr.lastHeardRF = now
}

// SaveIS records a station heard from the Internet Server.  Only the
// source matters, and it might not be a valid AX.25 address.
func (m *MHeard) SaveIS(source string, now time.Time) {
	var mptr = m.db[source]
	if mptr == nil {
		m.db[source] = &mheardEntry{callsign: source, count: 1, port: -1, lastHeardIS: now}
		return
	}

	mptr.count++
	mptr.lastHeardIS = now
}

/*------------------------------------------------------------------
 *
 * Name:	RecentlyNearby
 *
 * Purpose:	Was this station heard over the radio within the time
 *		limit, with no more than maxHops used digipeaters?
 *
 *		maxHops less than zero means any number.
 *
 *------------------------------------------------------------------*/

func (m *MHeard) RecentlyNearby(call string, now time.Time, limit time.Duration, maxHops int) bool {
	var mptr = m.db[call]
	if mptr == nil || mptr.lastHeardRF.IsZero() {
		return false
	}

	if now.Sub(mptr.lastHeardRF) > limit {
		return false
	}

	return maxHops < 0 || mptr.hops <= maxHops
}

/*------------------------------------------------------------------
 *
 * Name:	Count
 *
 * Purpose:	Count local stations for IGate statistics report like this:
 *
 *			<IGATE,MSG_CNT=1,LOC_CNT=25
 *
 * Inputs:	maxHops	- 0 for heard directly, 8 for anything on RF.
 *
 *		limit	- Include only stations heard within this long.
 *
 *------------------------------------------------------------------*/

func (m *MHeard) Count(maxHops int, now time.Time, limit time.Duration) int {
	var n = 0

	for _, mptr := range m.db {
		if !mptr.lastHeardRF.IsZero() && now.Sub(mptr.lastHeardRF) <= limit && mptr.hops <= maxHops {
			n++
		}
	}

	return n
}

// Direct lists the stations heard with no digipeaters, most recent first.
func (m *MHeard) Direct(now time.Time, limit time.Duration) []string {
	var direct []*mheardEntry

	for _, mptr := range m.db {
		if !mptr.lastHeardRF.IsZero() && mptr.hops == 0 && now.Sub(mptr.lastHeardRF) <= limit {
			direct = append(direct, mptr)
		}
	}

	slices.SortFunc(direct, func(a, b *mheardEntry) int {
		return b.lastHeardRF.Compare(a.lastHeardRF)
	})

	var calls = make([]string, len(direct))
	for i, mptr := range direct {
		calls[i] = mptr.callsign
	}

	return calls
}

/* Convert some time in past to hours:minutes text format. */

func mheardAge(now, t time.Time) string {
	if t.IsZero() {
		return "-  "
	}

	var d = now.Sub(t)

	return fmt.Sprintf("%4d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

// Dump prints the list, most recently heard at the bottom.
func (m *MHeard) Dump(w io.Writer, now time.Time) {
	var stations = slices.Collect(maps.Values(m.db))

	var latest = func(e *mheardEntry) time.Time {
		if e.lastHeardIS.After(e.lastHeardRF) {
			return e.lastHeardIS
		}
		return e.lastHeardRF
	}

	slices.SortFunc(stations, func(a, b *mheardEntry) int {
		if c := latest(a).Compare(latest(b)); c != 0 {
			return c
		}
		return strings.Compare(a.callsign, b.callsign)
	})

	fmt.Fprintf(w, "callsign  cnt port hops    RF      IS\n")

	for _, mptr := range stations {
		fmt.Fprintf(w, "%-9s %3d  %3d  %3d %7s %7s\n",
			mptr.callsign, mptr.count, mptr.port, mptr.hops, mheardAge(now, mptr.lastHeardRF), mheardAge(now, mptr.lastHeardIS))
	}
}
