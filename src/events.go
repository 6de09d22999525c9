package tracker

/*------------------------------------------------------------------
 *
 * Purpose:	Everything the tracker produces for the outside world.
 *
 * Description:	Two kinds of output:
 *
 *		  Event		station created, updated or removed, and
 *				alerts.  For displays and loggers.
 *
 *		  Outbound	a line to transmit on a radio port or send
 *				to the internet server.
 *
 *		Both are handed to a Sink synchronously, with the
 *		tracker lock held.  A sink must not call back into the
 *		tracker.
 *
 *------------------------------------------------------------------*/

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
)

type EventKind int

const (
	EVENT_STATION_CREATED EventKind = iota
	EVENT_STATION_UPDATED
	EVENT_STATION_REMOVED
	EVENT_ALERT_NEW_STATION
	EVENT_ALERT_PROXIMITY
	EVENT_ALERT_BAND_OPENING
	EVENT_ALERT_EMERGENCY
	EVENT_ALERT_WEATHER
	EVENT_MESSAGE_RECEIVED
	EVENT_MESSAGE_ACKED
)

var eventKindNames = map[EventKind]string{
	EVENT_STATION_CREATED:    "station_created",
	EVENT_STATION_UPDATED:    "station_updated",
	EVENT_STATION_REMOVED:    "station_removed",
	EVENT_ALERT_NEW_STATION:  "alert_new_station",
	EVENT_ALERT_PROXIMITY:    "alert_proximity",
	EVENT_ALERT_BAND_OPENING: "alert_band_opening",
	EVENT_ALERT_EMERGENCY:    "alert_emergency",
	EVENT_ALERT_WEATHER:      "alert_weather",
	EVENT_MESSAGE_RECEIVED:   "message_received",
	EVENT_MESSAGE_ACKED:      "message_acked",
}

func (k EventKind) String() string {
	if s, ok := eventKindNames[k]; ok {
		return s
	}

	return fmt.Sprintf("event_%d", int(k))
}

func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k EventKind) IsAlert() bool {
	return k >= EVENT_ALERT_NEW_STATION && k <= EVENT_ALERT_WEATHER
}

type Event struct {
	Kind       EventKind `json:"kind"`
	Time       time.Time `json:"time"`
	Name       string    `json:"name"`
	Lat        float64   `json:"lat,omitempty"`
	Lon        float64   `json:"lon,omitempty"`
	DistanceKM float64   `json:"distance_km,omitempty"`
	Text       string    `json:"text,omitempty"`
}

type OutboundKind int

const (
	OUT_RF OutboundKind = iota
	OUT_NET
)

type Outbound struct {
	Kind       OutboundKind
	Port       int // OUT_RF only
	Line       string
	ThirdParty bool
}

type Sink interface {
	Event(ev Event)
	Transmit(out Outbound)
}

// Recorder keeps everything.  Used by tests and one shot tools.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	out    []Outbound
}

func (r *Recorder) Event(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *Recorder) Transmit(out Outbound) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.out = append(r.out, out)
}

// Take returns and forgets what has been recorded.
func (r *Recorder) Take() ([]Event, []Outbound) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ev, out = r.events, r.out
	r.events, r.out = nil, nil

	return ev, out
}

// MultiSink fans out to several sinks in order.
type MultiSink []Sink

func (m MultiSink) Event(ev Event) {
	for _, s := range m {
		s.Event(ev)
	}
}

func (m MultiSink) Transmit(out Outbound) {
	for _, s := range m {
		s.Transmit(out)
	}
}

/*------------------------------------------------------------------
 *
 * Name:	NATSSink
 *
 * Purpose:	Publish events as JSON.
 *
 * Description:	Subject is <prefix>.<kind>, e.g. "samtrack.alert_proximity".
 *		Outbound lines go to <prefix>.rf.<port> and <prefix>.net
 *		as plain text.
 *
 *		Publishing is fire and forget; a failure is logged and
 *		counted, never returned to the tracker.
 *
 *------------------------------------------------------------------*/

type natsPublisher interface {
	Publish(subj string, data []byte) error
}

type NATSSink struct {
	conn   natsPublisher
	close  func()
	prefix string
}

func NewNATSSink(url string, prefix string) (*NATSSink, error) {
	var nc, err = nats.Connect(url, nats.Name("samtrack"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("NATS connect %s: %w", url, err)
	}

	return &NATSSink{conn: nc, close: nc.Close, prefix: prefix}, nil
}

func (s *NATSSink) publish(subject string, data []byte) {
	if err := s.conn.Publish(subject, data); err != nil {
		logger.Warn("NATS publish failed", "subject", subject, "err", err)
		publishErrors.Inc()
	}
}

func (s *NATSSink) Event(ev Event) {
	var data, err = json.Marshal(ev)
	if err != nil {
		logger.Error("event marshal", "err", err)
		return
	}

	s.publish(s.prefix+"."+ev.Kind.String(), data)
}

func (s *NATSSink) Transmit(out Outbound) {
	var subject = s.prefix + ".net"
	if out.Kind == OUT_RF {
		subject = fmt.Sprintf("%s.rf.%d", s.prefix, out.Port)
	}

	s.publish(subject, []byte(out.Line))
}

func (s *NATSSink) Close() {
	if s.close != nil {
		s.close()
	}
}
