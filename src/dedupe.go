package tracker

/*------------------------------------------------------------------
 *
 * Purpose:	Avoid sending duplicate packets which are too
 *		close together.
 *
 * Description:	Used by the relay digipeater and by both directions
 *		of the igate.  Duplicate packets can occur in several ways:
 *
 *		(1) We could hear our own transmission repeated by
 *			someone else, or gated back from the internet.
 *
 *		(2) We could hear the same packet from multiple
 *			digipeaters.
 *
 *			W1ABC>APRS,WIDE3-2
 *			W1ABC>APRS,RPT1*,WIDE3-2
 *			W1ABC>APRS,RPT2*,WIDE3-2
 *
 *		(3) An internet server could send the same third party
 *			packet we gated a moment ago.
 *
 *		For detecting duplicates, we need to look
 *			+ source station
 *			+ destination
 *			+ information field
 *		but NOT the changing list of digipeaters.
 *
 *		Only a checksum is kept.  There is a very very small
 *		probability that two unrelated packets will result in
 *		the same checksum, and the undesired dropping of the packet.
 *
 *------------------------------------------------------------------*/

import (
	"hash/fnv"
	"strings"
	"time"
)

const DEFAULT_DEDUPE_TIME = 29 * time.Second

const HISTORY_MAX = 100 /* Maximum number of records to keep.  If we */
/* run out of room the oldest ones are overwritten */
/* before they expire. */

type historyEntry struct {
	time_stamp time.Time
	checksum   uint64
	port       int
}

type Dedupe struct {
	ttl         time.Duration
	history     []historyEntry
	insert_next int
}

func NewDedupe(ttl time.Duration, size int) *Dedupe {
	if size <= 0 {
		size = HISTORY_MAX
	}

	return &Dedupe{
		ttl:     ttl,
		history: make([]historyEntry, size),
	}
}

// DedupeChecksum covers source, destination and info, not the path.
// Trailing CR, LF and space are ignored; some systems seem to add them.
func DedupeChecksum(pp *Packet) uint64 {
	var info = strings.TrimRight(pp.Info, "\r\n ")

	var h = fnv.New64a()
	h.Write([]byte(pp.Source))
	h.Write([]byte{'>'})
	h.Write([]byte(pp.Dest))
	h.Write([]byte{':'})
	h.Write([]byte(info))

	return h.Sum64()
}

// Remember a packet sent or heard on a port.
func (d *Dedupe) Remember(pp *Packet, port int, now time.Time) {
	d.history[d.insert_next] = historyEntry{
		time_stamp: now,
		checksum:   DedupeChecksum(pp),
		port:       port,
	}

	d.insert_next++
	if d.insert_next >= len(d.history) {
		d.insert_next = 0
	}
}

// Check reports whether this is a duplicate of another seen recently on the port.
func (d *Dedupe) Check(pp *Packet, port int, now time.Time) bool {
	var crc = DedupeChecksum(pp)

	for _, h := range d.history {
		if h.time_stamp.IsZero() || h.checksum != crc || h.port != port {
			continue
		}

		if now.Sub(h.time_stamp) > d.ttl {
			continue
		}

		return true
	}

	return false
}
