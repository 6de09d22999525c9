package tracker

/*------------------------------------------------------------------
 *
 * Purpose:	The station database.
 *
 * Description:	Station records live in an arena and are linked two
 *		ways, by slot number rather than pointer:
 *
 *		  name order	sorted by callsign, byte by byte
 *		  time order	oldest first, by time heard then serial
 *
 *		Every record is on both lists exactly once.
 *
 *		Searching by name starts from a shortcut table indexed
 *		by the low 7 bits of the first two characters.  Each entry
 *		is the first record, in name order, with that prefix, or
 *		empty.  After a delete which removes the target of a
 *		shortcut, the whole table is rebuilt rather than patched.
 *
 *		Records heard in the same second get increasing serial
 *		numbers so (time, serial) identifies one uniquely.
 *
 *------------------------------------------------------------------*/

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrStoreFull     = errors.New("store full")
	ErrNoSuchStation = errors.New("no such station")
	ErrDuplicateName = errors.New("station already exists")
)

const SHORTCUT_SIZE = 16384

const noSlot int32 = -1

type StationOrder int

const (
	ORDER_NAME StationOrder = iota
	ORDER_NAME_REVERSE
	ORDER_OLDEST
	ORDER_NEWEST
)

type dbNode struct {
	st       *Station
	nameNext int32
	namePrev int32
	timeNext int32
	timePrev int32
}

type Database struct {
	nodes []dbNode
	free  []int32
	count int
	max   int // 0 for no limit

	nameHead, nameTail int32
	timeHead, timeTail int32 // oldest, newest

	shortcuts [SHORTCUT_SIZE]int32

	serialSecond int64
	serial       int
}

func NewDatabase(maxStations int) *Database {
	var db = &Database{
		max:      maxStations,
		nameHead: noSlot,
		nameTail: noSlot,
		timeHead: noSlot,
		timeTail: noSlot,
	}

	for i := range db.shortcuts {
		db.shortcuts[i] = noSlot
	}

	return db
}

func (db *Database) Len() int {
	return db.count
}

// shortcutIndex uses the low 7 bits of the first two characters.
func shortcutIndex(name string) int {
	var c0, c1 byte
	if len(name) > 0 {
		c0 = name[0] & 0x7f
	}
	if len(name) > 1 {
		c1 = name[1] & 0x7f
	}

	return int(c0)<<7 | int(c1)
}

func (db *Database) name(i int32) string {
	return db.nodes[i].st.Call
}

/*------------------------------------------------------------------
 *
 * Name:	search
 *
 * Purpose:	Find a name, or where it would go.
 *
 * Returns:	Slot of the first record not less than name (noSlot
 *		if it would go at the end) and whether it is an exact
 *		match.  With partial set, a record starting with name
 *		counts as a match.
 *
 *------------------------------------------------------------------*/

func (db *Database) search(name string, partial bool) (int32, bool) {
	var i = noSlot

	for h := shortcutIndex(name); h < SHORTCUT_SIZE; h++ {
		if db.shortcuts[h] != noSlot {
			i = db.shortcuts[h]
			break
		}
	}

	for i != noSlot && db.name(i) < name {
		i = db.nodes[i].nameNext
	}

	if i == noSlot {
		return noSlot, false
	}

	if partial {
		return i, strings.HasPrefix(db.name(i), name)
	}

	return i, db.name(i) == name
}

// Find is an exact, case sensitive, lookup.
func (db *Database) Find(name string) (*Station, bool) {
	var i, ok = db.search(name, false)
	if !ok {
		return nil, false
	}

	return db.nodes[i].st, true
}

// FindPrefix returns the first station, in name order, starting with prefix.
func (db *Database) FindPrefix(prefix string) (*Station, bool) {
	var i, ok = db.search(prefix, true)
	if !ok {
		return nil, false
	}

	return db.nodes[i].st, true
}

// FindByTime is an exact match on time heard and serial number.
func (db *Database) FindByTime(heard time.Time, serial int) (*Station, bool) {
	for i := db.timeTail; i != noSlot; i = db.nodes[i].timePrev {
		var st = db.nodes[i].st
		if st.Heard.Before(heard) {
			break
		}
		if st.Heard.Equal(heard) && st.timeSerial == serial {
			return st, true
		}
	}

	return nil, false
}

func (db *Database) allocSlot() int32 {
	if n := len(db.free); n > 0 {
		var i = db.free[n-1]
		db.free = db.free[:n-1]
		return i
	}

	db.nodes = append(db.nodes, dbNode{})

	return int32(len(db.nodes) - 1)
}

/*------------------------------------------------------------------
 *
 * Name:	Insert
 *
 * Purpose:	Create a new record and put it on both lists.
 *
 * Errors:	ErrDuplicateName, ErrStoreFull.
 *
 *------------------------------------------------------------------*/

func (db *Database) Insert(name string, now time.Time) (*Station, error) {
	var next, found = db.search(name, false)
	if found {
		return nil, fmt.Errorf("%s: %w", name, ErrDuplicateName)
	}

	if db.max > 0 && db.count >= db.max {
		return nil, fmt.Errorf("%d stations: %w", db.count, ErrStoreFull)
	}

	var i = db.allocSlot()
	var st = &Station{Call: name, Heard: now, slot: i}
	db.nodes[i] = dbNode{st: st, nameNext: noSlot, namePrev: noSlot, timeNext: noSlot, timePrev: noSlot}

	db.linkName(i, next)
	db.linkTime(i)
	db.count++

	var h = shortcutIndex(name)
	var first = db.shortcuts[h]
	if first == noSlot || name < db.name(first) {
		db.shortcuts[h] = i
	}

	return st, nil
}

// linkName puts i in front of next, or at the end.
func (db *Database) linkName(i int32, next int32) {
	var n = &db.nodes[i]
	n.nameNext = next

	if next == noSlot {
		n.namePrev = db.nameTail
		db.nameTail = i
	} else {
		n.namePrev = db.nodes[next].namePrev
		db.nodes[next].namePrev = i
	}

	if n.namePrev == noSlot {
		db.nameHead = i
	} else {
		db.nodes[n.namePrev].nameNext = i
	}
}

func (db *Database) unlinkName(i int32) {
	var n = db.nodes[i]

	if n.namePrev == noSlot {
		db.nameHead = n.nameNext
	} else {
		db.nodes[n.namePrev].nameNext = n.nameNext
	}

	if n.nameNext == noSlot {
		db.nameTail = n.namePrev
	} else {
		db.nodes[n.nameNext].namePrev = n.namePrev
	}
}

// nextSerial numbers records heard in the same second.
func (db *Database) nextSerial(t time.Time) int {
	if t.Unix() != db.serialSecond {
		db.serialSecond = t.Unix()
		db.serial = 0
	}

	db.serial++

	return db.serial
}

// timeBefore orders by time heard then serial.
func timeBefore(a, b *Station) bool {
	if a.Heard.Equal(b.Heard) {
		return a.timeSerial < b.timeSerial
	}

	return a.Heard.Before(b.Heard)
}

// linkTime searches from the newest end, which is nearly always right.
func (db *Database) linkTime(i int32) {
	var n = &db.nodes[i]
	n.st.timeSerial = db.nextSerial(n.st.Heard)

	var prev = db.timeTail
	for prev != noSlot && timeBefore(n.st, db.nodes[prev].st) {
		prev = db.nodes[prev].timePrev
	}

	n.timePrev = prev
	if prev == noSlot {
		n.timeNext = db.timeHead
		db.timeHead = i
	} else {
		n.timeNext = db.nodes[prev].timeNext
		db.nodes[prev].timeNext = i
	}

	if n.timeNext == noSlot {
		db.timeTail = i
	} else {
		db.nodes[n.timeNext].timePrev = i
	}
}

func (db *Database) unlinkTime(i int32) {
	var n = db.nodes[i]

	if n.timePrev == noSlot {
		db.timeHead = n.timeNext
	} else {
		db.nodes[n.timePrev].timeNext = n.timeNext
	}

	if n.timeNext == noSlot {
		db.timeTail = n.timePrev
	} else {
		db.nodes[n.timeNext].timePrev = n.timePrev
	}
}

func (db *Database) owns(st *Station) bool {
	return st != nil && st.slot >= 0 && int(st.slot) < len(db.nodes) && db.nodes[st.slot].st == st
}

// Touch records that the station was heard again and moves it to the newest end.
func (db *Database) Touch(st *Station, now time.Time) error {
	if !db.owns(st) {
		return fmt.Errorf("%s: %w", st.Call, ErrNoSuchStation)
	}

	db.unlinkTime(st.slot)
	st.Heard = now
	db.linkTime(st.slot)

	return nil
}

// Delete removes the record from both lists and frees its slot.
func (db *Database) Delete(st *Station) error {
	if !db.owns(st) {
		return fmt.Errorf("%s: %w", st.Call, ErrNoSuchStation)
	}

	var i = st.slot
	var wasShortcut = db.shortcuts[shortcutIndex(st.Call)] == i

	db.unlinkName(i)
	db.unlinkTime(i)
	db.nodes[i] = dbNode{}
	db.free = append(db.free, i)
	db.count--
	st.slot = noSlot

	if wasShortcut {
		db.rebuildShortcuts()
	}

	return nil
}

func (db *Database) rebuildShortcuts() {
	for h := range db.shortcuts {
		db.shortcuts[h] = noSlot
	}

	for i := db.nameHead; i != noSlot; i = db.nodes[i].nameNext {
		var h = shortcutIndex(db.name(i))
		if db.shortcuts[h] == noSlot {
			db.shortcuts[h] = i
		}
	}
}

/*------------------------------------------------------------------
 *
 * Name:	Walk
 *
 * Purpose:	Visit stations in the requested order until fn
 *		returns false.  fn must not insert or delete.
 *
 *------------------------------------------------------------------*/

func (db *Database) Walk(order StationOrder, fn func(*Station) bool) {
	var i int32
	var step func(int32) int32

	switch order {
	case ORDER_NAME:
		i, step = db.nameHead, func(j int32) int32 { return db.nodes[j].nameNext }
	case ORDER_NAME_REVERSE:
		i, step = db.nameTail, func(j int32) int32 { return db.nodes[j].namePrev }
	case ORDER_OLDEST:
		i, step = db.timeHead, func(j int32) int32 { return db.nodes[j].timeNext }
	default:
		i, step = db.timeTail, func(j int32) int32 { return db.nodes[j].timePrev }
	}

	for i != noSlot {
		var next = step(i)
		if !fn(db.nodes[i].st) {
			return
		}
		i = next
	}
}

// Oldest is the station heard least recently.
func (db *Database) Oldest() (*Station, bool) {
	if db.timeHead == noSlot {
		return nil, false
	}

	return db.nodes[db.timeHead].st, true
}

/*------------------------------------------------------------------
 *
 * Name:	Expire
 *
 * Purpose:	Delete stations not heard for maxAge.
 *
 * Inputs:	keep	- Exemptions, checked for each candidate.
 *
 * Returns:	Names of the deleted stations.
 *
 * Description:	Starts from the oldest and stops at the first one
 *		young enough to stay.
 *
 *------------------------------------------------------------------*/

func (db *Database) Expire(now time.Time, maxAge time.Duration, keep func(*Station) bool) []*Station {
	var gone []*Station

	for i := db.timeHead; i != noSlot; {
		var st = db.nodes[i].st
		var next = db.nodes[i].timeNext

		if now.Sub(st.Heard) <= maxAge {
			break
		}

		if keep == nil || !keep(st) {
			gone = append(gone, st)
		}

		i = next
	}

	for _, st := range gone {
		_ = db.Delete(st)
	}

	return gone
}
