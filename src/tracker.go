package tracker

/*------------------------------------------------------------------
 *
 * Purpose:   	The tracker: station database, messages and the
 *		things we transmit, behind one lock.
 *
 * Description:	Lines come in from any number of places and are
 *		handled one at a time in the order they arrive.
 *		Decoding never blocks, so neither does ProcessLine.
 *
 *		A timer calls Tick for the periodic work: retransmit
 *		objects and messages, beacon, expire old stations.
 *
 *		Anything to be sent, and every event, goes to the Sink
 *		while the lock is held.  A Sink must not call back into
 *		the tracker.
 *
 *		Readers get deep copies so they can take their time.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Destination for everything we originate.  APZxxx is experimental.
const TOCALL = "APZSAM"

const MAX_TACTICAL_CALL = 20

type Tracker struct {
	mu sync.Mutex

	cfg   *Config
	db    *Database
	msgs  *MessageStore
	heard *MHeard
	digi  *Digipeater
	sink  Sink
	store *Store
	plog  *PacketLog

	heardRF *Dedupe // Heard on radio, or gated to it.
	sentNet *Dedupe // Gated to the internet.

	tacticals   map[string]string
	emergencies map[string]time.Time

	outbox     []*outgoing
	lastSeq    string
	replyAck   map[string]string
	recentAcks map[string]time.Time

	igateMsgCount int

	beacon beaconState
	gps    *GPSFix

	lastSweep time.Time

	now    func() time.Time
	jitter func() float64
}

/*------------------------------------------------------------------
 *
 * Name:	NewTracker
 *
 * Inputs:	cfg	- Validated here.
 *
 *		sink	- Where events and outgoing lines go.  nil to
 *			  throw them away.
 *
 *------------------------------------------------------------------*/

func NewTracker(cfg *Config, sink Sink) (*Tracker, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if sink == nil {
		sink = MultiSink(nil)
	}

	var t = &Tracker{
		cfg:         cfg,
		db:          NewDatabase(cfg.MaxStations),
		msgs:        NewMessageStore(cfg.Messages.Slots),
		heard:       NewMHeard(),
		sink:        sink,
		heardRF:     NewDedupe(cfg.Igate.DupeWindow, HISTORY_MAX),
		sentNet:     NewDedupe(cfg.Igate.DupeWindow, HISTORY_MAX),
		tacticals:   make(map[string]string),
		emergencies: make(map[string]time.Time),
		replyAck:    make(map[string]string),
		recentAcks:  make(map[string]time.Time),
		now:         time.Now,
		jitter:      rand.Float64,
	}

	t.digi = NewDigipeater(cfg.MyCall, cfg.Ports, NewDedupe(cfg.Igate.DupeWindow, HISTORY_MAX))

	return t, nil
}

// SetClock replaces time.Now.  For tests and log replay.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// SetJitter replaces the random source for object retransmit times.
func (t *Tracker) SetJitter(jitter func() float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.jitter = jitter
}

func (t *Tracker) SetPacketLog(pl *PacketLog) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.plog = pl
}

/*------------------------------------------------------------------
 *
 * Name:	AttachStore
 *
 * Purpose:	Use the database for tactical calls and my objects,
 *		and load what it already has.
 *
 *------------------------------------------------------------------*/

func (t *Tracker) AttachStore(s *Store) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var tacticals, err = s.Tacticals()
	if err != nil {
		return err
	}

	var objects []SavedObject
	objects, err = s.Objects()
	if err != nil {
		return err
	}

	t.store = s

	for call, alias := range tacticals {
		t.tacticals[call] = alias
		if st, found := t.db.Find(call); found {
			st.Tactical = alias
		}
	}

	var now = t.now()
	for _, o := range objects {
		logger.Info("restoring my object", "name", o.Name)
		if err := t.processPacket(t.cfg.newPacket(o.Info), DATA_VIA_LOCAL, -1, false, now); err != nil {
			logger.Warn("can't restore object", "name", o.Name, "err", err)
		}
	}

	return nil
}

/*------------------------------------------------------------------
 *
 * Name:	ProcessLine
 *
 * Purpose:	Handle one packet in monitor format.
 *
 * Inputs:	line	- "SRC>DEST,DIGI*:info".
 *
 *		via	- DATA_VIA_TNC, DATA_VIA_NET, DATA_VIA_LOCAL or
 *			  DATA_VIA_FILE.
 *
 *		port	- Interface index, -1 for a log file,
 *			  -2 for the internal server.
 *
 *		thirdParty - Already unwrapped from third party traffic.
 *
 * Errors:	ErrOversize, ErrBadFrame, ErrInvalidCall for packets
 *		that are thrown away whole.  ErrStoreFull if a new
 *		station couldn't be added.
 *
 *		Fields that can't be decoded are not errors.  The rest
 *		of the packet is still used.
 *
 *------------------------------------------------------------------*/

func (t *Tracker) ProcessLine(line string, via byte, port int, thirdParty bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var now = t.now()

	line = strings.TrimRight(line, "\r\n")

	var limit = IfThenElse(via == DATA_VIA_NET, MAX_NET_LINE_SIZE, MAX_LINE_SIZE)
	if len(line) > limit {
		packetsRejected.WithLabelValues("oversize").Inc()
		logger.Warn("line too long", "len", len(line), "max", limit)
		return fmt.Errorf("%w: %d bytes", ErrOversize, len(line))
	}

	var pp, err = ParseLine(line, via == DATA_VIA_TNC)
	if err != nil {
		packetsRejected.WithLabelValues("malformed").Inc()
		logger.Debug("bad line", "line", line, "err", err)
		return err
	}

	return t.processPacket(pp, via, port, thirdParty, now)
}

// ProcessFrame handles an AX.25 frame from a TNC, with or without KISS framing.
func (t *Tracker) ProcessFrame(frame []byte, port int) error {
	if len(frame) > 0 && frame[0] == FEND {
		frame = KissUnwrap(frame)
		if len(frame) < 1 {
			return fmt.Errorf("%w: empty KISS frame", ErrBadFrame)
		}
		frame = frame[1:] // Type indicator.
	}

	var pp, err = DecodeFrame(frame)
	if err != nil {
		packetsRejected.WithLabelValues("malformed").Inc()
		logger.Debug("bad frame", "err", err)
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	return t.processPacket(pp, DATA_VIA_TNC, port, false, t.now())
}

func (t *Tracker) processPacket(pp *Packet, via byte, port int, thirdParty bool, now time.Time) error {
	if len(pp.Info) > MAX_INFO_FIELD_SIZE && pp.DataType() != '}' {
		packetsRejected.WithLabelValues("oversize").Inc()
		logger.Warn("information part too long", "source", pp.Source, "len", len(pp.Info))
		return fmt.Errorf("%w: information part %d bytes", ErrOversize, len(pp.Info))
	}

	if !ValidInetName(pp.Source) {
		packetsRejected.WithLabelValues("callsign").Inc()
		logger.Debug("bad source callsign", "source", pp.Source)
		return fmt.Errorf("%w: %q", ErrInvalidCall, pp.Source)
	}

	if !thirdParty {
		switch via {
		case DATA_VIA_TNC:
			t.heard.SaveRF(pp, port, now)
			t.heardRF.Remember(pp, 0, now)

			if relayed, ok := t.digi.Relay(pp, port, now); ok {
				t.transmitPort(relayed, port)
			}

		case DATA_VIA_NET:
			t.heard.SaveIS(pp.Source, now)
		}
	}

	if pp.DataType() == '}' {
		var inner, err = pp.UnwrapThirdParty()
		if err != nil {
			packetsRejected.WithLabelValues("malformed").Inc()
			logger.Debug("bad third party packet", "source", pp.Source, "err", err)
			return err
		}

		return t.processPacket(inner, via, port, true, now)
	}

	var r = Decode(pp)
	r.Via, r.Port, r.ThirdParty = via, port, thirdParty

	packetsDecoded.WithLabelValues(r.Kind.String(), dtiLabel(r.DataType)).Inc()

	if t.plog != nil {
		t.plog.Write(now, r)
	}

	if via == DATA_VIA_TNC && t.cfg.Igate.Mode != IGATE_NONE {
		t.igateToNet(pp, port, thirdParty, now)
	}

	return t.applyReport(r, pp, now)
}

func (t *Tracker) igateToNet(pp *Packet, port int, thirdParty bool, now time.Time) {
	var line, err = IgateRFToNet(t.cfg.MyCall, pp, port, thirdParty)
	if err != nil {
		logger.Debug("rx igate", "source", pp.Source, "err", err)
		return
	}

	if t.sentNet.Check(pp, 0, now) {
		logger.Debug("rx igate: drop duplicate of same packet seen recently", "source", pp.Source)
		return
	}
	t.sentNet.Remember(pp, 0, now)

	t.transmitNetLine(line)
}

func (t *Tracker) igateToRF(pp *Packet, to string, now time.Time) {
	var out, err = IgateNetToRF(t.cfg, t.heard, pp, to, now)
	if err != nil {
		logger.Debug("tx igate", "source", pp.Source, "to", to, "err", err)
		return
	}

	if t.heardRF.Check(pp, 0, now) {
		logger.Debug("tx igate: heard or sent recently", "source", pp.Source)
		return
	}
	t.heardRF.Remember(pp, 0, now)

	t.igateMsgCount++

	for i, pc := range t.cfg.Ports {
		if pc.Transmit && pc.LinkLayer {
			t.emitOut(Outbound{Kind: OUT_RF, Port: i, Line: out.String(), ThirdParty: true})
		}
	}
}

/*
 * Outgoing.  Radio ports get the packet as is.  Internet ports get
 * TCPIP* as the path.
 */

// newPacket is something we originate.
func (cfg *Config) newPacket(info string) *Packet {
	var pp = &Packet{Source: cfg.MyCall, Dest: TOCALL, Info: info}

	if cfg.Path != "" {
		for _, digi := range strings.Split(cfg.Path, ",") {
			pp.Path = append(pp.Path, PathEntry{Call: digi})
		}
	}

	return pp
}

func netLine(pp *Packet) string {
	return pp.Source + ">" + pp.Dest + ",TCPIP*:" + pp.Info
}

func (t *Tracker) emitOut(out Outbound) {
	transmitCount.WithLabelValues(IfThenElse(out.Kind == OUT_RF, "rf", "net")).Inc()
	t.sink.Transmit(out)
}

func (t *Tracker) transmitOne(pp *Packet, port int) {
	if t.cfg.Ports[port].LinkLayer {
		t.emitOut(Outbound{Kind: OUT_RF, Port: port, Line: pp.String()})
	} else {
		t.emitOut(Outbound{Kind: OUT_NET, Port: port, Line: netLine(pp)})
	}
}

// transmitAll sends on every port with transmit enabled.
func (t *Tracker) transmitAll(pp *Packet) {
	for i, pc := range t.cfg.Ports {
		if pc.Transmit {
			t.transmitOne(pp, i)
		}
	}
}

// transmitPort sends on one port, or everywhere if it isn't a real one.
func (t *Tracker) transmitPort(pp *Packet, port int) {
	if port < 0 || port >= len(t.cfg.Ports) {
		t.transmitAll(pp)
		return
	}

	if !t.cfg.Ports[port].Transmit {
		logger.Debug("port is receive only", "port", port)
		return
	}

	t.transmitOne(pp, port)
}

func (t *Tracker) transmitNet(pp *Packet) {
	t.transmitNetLine(netLine(pp))
}

func (t *Tracker) transmitNetLine(line string) {
	for i, pc := range t.cfg.Ports {
		if pc.Transmit && !pc.LinkLayer {
			t.emitOut(Outbound{Kind: OUT_NET, Port: i, Line: line})
		}
	}
}

// emit fills in the position from st, if there is one.
func (t *Tracker) emit(ev Event, st *Station) {
	if st != nil && st.HasPosition() {
		ev.Lat = LatToDegrees(st.Lat)
		ev.Lon = LonToDegrees(st.Lon)
	}

	eventCount.WithLabelValues(ev.Kind.String()).Inc()
	t.sink.Event(ev)
}

/*------------------------------------------------------------------
 *
 * Name:	Tick
 *
 * Purpose:	Periodic work.  Call every second or so.
 *
 * Description:	The station sweep is rate limited on its own since
 *		it looks at everything.
 *
 *------------------------------------------------------------------*/

func (t *Tracker) Tick(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.checkObjects(now)
	t.sendQueued(now)
	t.checkBeacon(now)

	if now.Sub(t.lastSweep) >= t.cfg.Station.SweepInterval {
		t.lastSweep = now
		t.sweep(now)
	}
}

// keepStation is checked in this order: me, my objects, tactical calls.
func (t *Tracker) keepStation(st *Station) bool {
	if st.Flags.Has(ST_MYSTATION) || sameCall(st.Call, t.cfg.MyCall, true) {
		return true
	}

	if st.Flags.Has(ST_MYOBJITEM) {
		return true
	}

	return st.Tactical != ""
}

func (t *Tracker) sweep(now time.Time) {
	for _, st := range t.db.Expire(now, t.cfg.Station.MaxAge, t.keepStation) {
		logger.Debug("station expired", "name", st.Call, "heard", st.Heard)
		t.emit(Event{Kind: EVENT_STATION_REMOVED, Time: now, Name: st.Name()}, nil)
	}

	t.db.Walk(ORDER_NAME, func(st *Station) bool {
		if st.Flags.Has(ST_DIRECT) && now.Sub(st.DirectHeard) > t.cfg.Station.DirectTimeout {
			st.Flags &^= ST_DIRECT
		}

		if st.Trail != nil {
			st.Trail.Expire(now, t.cfg.Trail.MaxAge)
		}

		return true
	})

	if n := t.msgs.Expire(now, t.cfg.Messages.MaxAge); n > 0 {
		logger.Debug("messages expired", "count", n)
	}

	for key, sent := range t.recentAcks {
		if now.Sub(sent) >= t.cfg.Messages.AckWindow {
			delete(t.recentAcks, key)
		}
	}

	for call, when := range t.emergencies {
		if now.Sub(when) >= t.cfg.Alerts.EmergencyInterval {
			delete(t.emergencies, call)
		}
	}

	stationCount.Set(float64(t.db.Len()))
}

/*
 * Readers.
 */

// Snapshot is a copy of one station, by exact name.
func (t *Tracker) Snapshot(name string) (*Station, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var st, found = t.db.Find(name)
	if !found {
		return nil, false
	}

	return st.Clone(), true
}

func (t *Tracker) Stations(order StationOrder) []*Station {
	t.mu.Lock()
	defer t.mu.Unlock()

	var list = make([]*Station, 0, t.db.Len())
	t.db.Walk(order, func(st *Station) bool {
		list = append(list, st.Clone())
		return true
	})

	return list
}

func (t *Tracker) Messages() []Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.msgs.Messages()
}

// Message looks up one record, e.g. to see whether something I sent was acked.
func (t *Tracker) Message(to, from, seq string) (Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.msgs.Find(to, from, seq)
}

func (t *Tracker) Conversation(call string) []Message {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.msgs.Conversation(call)
}

/*------------------------------------------------------------------
 *
 * Name:	SetTactical
 *
 * Purpose:	Give a station a tactical call, e.g. "AID1" for the
 *		first aid station at an event.  Empty alias removes it.
 *
 * Description:	The station doesn't need to have been heard yet.
 *
 *------------------------------------------------------------------*/

func (t *Tracker) SetTactical(call, alias string) error {
	call = strings.ToUpper(strings.TrimSpace(call))
	alias = strings.TrimSpace(alias)

	if !ValidInetName(call) {
		return fmt.Errorf("%w: %q", ErrInvalidCall, call)
	}

	if len(alias) > MAX_TACTICAL_CALL || strings.ContainsAny(alias, ",:>*") {
		return fmt.Errorf("%w: tactical call %q", ErrInvalidCall, alias)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if alias == "" {
		delete(t.tacticals, call)
	} else {
		t.tacticals[call] = alias
	}

	if st, found := t.db.Find(call); found {
		st.Tactical = alias
	}

	if t.store != nil {
		if err := t.store.SaveTactical(call, alias); err != nil {
			return err
		}
	}

	return nil
}

/*------------------------------------------------------------------
 *
 * Name:	Dump
 *
 * Purpose:	Human readable list of stations for debugging.
 *
 *		N0CALL    3 minutes ago   N 49 03.500 W 072 01.750  18TXR...  12 km  Test
 *
 *------------------------------------------------------------------*/

func (t *Tracker) Dump(w io.Writer) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	var now = t.now()
	var me, haveMe = t.myPosition()

	var err error
	t.db.Walk(ORDER_NAME, func(st *Station) bool {
		var pos, grid, dist = "-", "-", ""

		if st.HasPosition() {
			pos = FormatDegMin(st.Lat, st.Lon)
			if g, e := st.MGRS(); e == nil {
				grid = g
			}
			if haveMe {
				dist = humanize.FtoaWithDigits(DistanceKM(me.Lat, me.Lon, st.Lat, st.Lon), 1) + " km"
			}
		}

		var comment = st.LatestComment()
		if comment == "" {
			comment = st.LatestStatus()
		}

		_, err = fmt.Fprintf(w, "%-9s %-16s %-26s %-16s %8s  %s\n",
			st.Name(), humanize.RelTime(st.Heard, now, "ago", "from now"), pos, grid, dist, comment)

		return err == nil
	})

	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "%s stations, %s messages\n", humanize.Comma(int64(t.db.Len())), humanize.Comma(int64(t.msgs.Len())))

	return err
}

// DumpHeard lists who has been heard directly, for the operator.
func (t *Tracker) DumpHeard(w io.Writer) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.heard.Dump(w, t.now())
}
