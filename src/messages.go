package tracker

/*------------------------------------------------------------------
 *
 * Purpose:   	Keep the messages, bulletins and weather alerts seen.
 *
 * Description:	Records live in a flat slice and never move.  A second
 *		slice holds the record numbers sorted by
 *		to + from + sequence so a repeat of the same message
 *		can be found with a binary search and updated in place.
 *
 *		Removed records are marked inactive and their slot is
 *		reused by the next insert.
 *
 *---------------------------------------------------------------*/

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

const (
	MAX_MESSAGE_TRIES        = 18
	MESSAGE_INITIAL_INTERVAL = 7 * time.Second
	MESSAGE_MAX_INTERVAL     = 600 * time.Second

	// Longest text that fits with room for "{SS}AA".
	MAX_MESSAGE_TEXT = 67
)

var ErrNoSuchMessage = errors.New("no such message")

type MessageType byte

const (
	MESSAGE_MESSAGE  MessageType = 'M'
	MESSAGE_BULLETIN MessageType = 'B'
	MESSAGE_WEATHER  MessageType = 'W'
)

type AckState int

const (
	ACK_NONE AckState = iota
	ACK_ACKED
	ACK_TIMEOUT
	ACK_CANCELLED
)

func (a AckState) String() string {
	switch a {
	case ACK_NONE:
		return "pending"
	case ACK_ACKED:
		return "acked"
	case ACK_TIMEOUT:
		return "timeout"
	case ACK_CANCELLED:
		return "cancelled"
	default:
		return fmt.Sprintf("ack_%d", int(a))
	}
}

type Message struct {
	Type MessageType
	Via  byte
	Port int

	To   string
	From string
	Seq  string
	Text string
	Time time.Time

	// Outgoing only.
	Acked    AckState
	Interval time.Duration
	Tries    int

	// Incoming addressed to me only.
	LastAckSent time.Time

	active bool
}

func messageKey(to, from, seq string) string {
	return fmt.Sprintf("%-9s%-9s%s", to, from, seq)
}

func (m *Message) key() string {
	return messageKey(m.To, m.From, m.Seq)
}

type MessageStore struct {
	slots []Message
	index []int
	free  []int
	max   int
}

// NewMessageStore holds at most max records, no limit if zero.
func NewMessageStore(max int) *MessageStore {
	return &MessageStore{max: max}
}

func (s *MessageStore) Len() int {
	return len(s.index)
}

// search returns the index position of key, or where it would go.
func (s *MessageStore) search(key string) (int, bool) {
	var pos = sort.Search(len(s.index), func(i int) bool {
		return s.slots[s.index[i]].key() >= key
	})

	return pos, pos < len(s.index) && s.slots[s.index[pos]].key() == key
}

// lookup is only good until the next Store.
func (s *MessageStore) lookup(to, from, seq string) *Message {
	var pos, found = s.search(messageKey(to, from, seq))
	if !found {
		return nil
	}

	return &s.slots[s.index[pos]]
}

func (s *MessageStore) Find(to, from, seq string) (Message, bool) {
	var m = s.lookup(to, from, seq)
	if m == nil {
		return Message{}, false
	}

	return *m, true
}

/*------------------------------------------------------------------
 *
 * Name:	Store
 *
 * Purpose:	Add a message, or update the one with the same
 *		to, from and sequence.
 *
 * Returns:	Record as stored, and true if it is new.
 *
 * Description:	For a repeat only the text and time change.  Ack state
 *		and retry counts are kept.
 *
 * Errors:	ErrStoreFull.
 *
 *------------------------------------------------------------------*/

func (s *MessageStore) Store(m Message) (*Message, bool, error) {
	var pos, found = s.search(m.key())
	if found {
		var old = &s.slots[s.index[pos]]
		old.Text = m.Text
		old.Time = m.Time
		old.Via = m.Via
		old.Port = m.Port
		return old, false, nil
	}

	var slot int
	switch {
	case len(s.free) > 0:
		slot = s.free[len(s.free)-1]
		s.free = s.free[:len(s.free)-1]
	case s.max > 0 && len(s.slots) >= s.max:
		return nil, false, fmt.Errorf("%d messages: %w", len(s.index), ErrStoreFull)
	default:
		s.slots = append(s.slots, Message{})
		slot = len(s.slots) - 1
	}

	m.active = true
	s.slots[slot] = m

	s.index = append(s.index, 0)
	copy(s.index[pos+1:], s.index[pos:])
	s.index[pos] = slot

	return &s.slots[slot], true, nil
}

func (s *MessageStore) removeAt(pos int) {
	var slot = s.index[pos]

	s.slots[slot] = Message{}
	s.free = append(s.free, slot)
	s.index = append(s.index[:pos], s.index[pos+1:]...)
}

func (s *MessageStore) Remove(to, from, seq string) error {
	var pos, found = s.search(messageKey(to, from, seq))
	if !found {
		return fmt.Errorf("%s>%s %s: %w", from, to, seq, ErrNoSuchMessage)
	}

	s.removeAt(pos)

	return nil
}

// Expire removes everything older than maxAge and returns how many.
func (s *MessageStore) Expire(now time.Time, maxAge time.Duration) int {
	var n = 0

	for pos := 0; pos < len(s.index); {
		if now.Sub(s.slots[s.index[pos]].Time) > maxAge {
			s.removeAt(pos)
			n++
			continue
		}
		pos++
	}

	return n
}

// Messages returns copies in to, from, sequence order.
func (s *MessageStore) Messages() []Message {
	var list = make([]Message, len(s.index))
	for i, slot := range s.index {
		list[i] = s.slots[slot]
	}

	return list
}

// Conversation is everything to or from call, oldest first.
func (s *MessageStore) Conversation(call string) []Message {
	var list []Message
	for _, slot := range s.index {
		var m = s.slots[slot]
		if m.Type == MESSAGE_MESSAGE && (sameCall(m.To, call, true) || sameCall(m.From, call, true)) {
			list = append(list, m)
		}
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Time.Before(list[j].Time)
	})

	return list
}

/*
 * Outgoing sequence numbers are 2 characters so the other end can
 * use the Reply/Ack form.
 */

const seqDigits = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// nextSeq steps "09" to "0A", "0z" to "10" and "zz" around to "00".
func nextSeq(seq string) (string, bool) {
	if len(seq) != 2 {
		return "00", false
	}

	var hi = strings.IndexByte(seqDigits, seq[0])
	var lo = strings.IndexByte(seqDigits, seq[1])
	if hi < 0 || lo < 0 {
		return "00", false
	}

	lo++
	if lo == len(seqDigits) {
		lo = 0
		hi++
	}

	var wrapped = false
	if hi == len(seqDigits) {
		hi = 0
		wrapped = true
	}

	return string([]byte{seqDigits[hi], seqDigits[lo]}), wrapped
}

/*------------------------------------------------------------------
 *
 * Name:	splitMessage
 *
 * Purpose:	Break long text into pieces that fit in a message.
 *
 * Description:	Break at the last space that fits.  A word that is
 *		too long by itself is just chopped.
 *
 *------------------------------------------------------------------*/

func splitMessage(text string, max int) []string {
	var chunks []string

	text = strings.TrimSpace(text)
	for len(text) > max {
		var cut = strings.LastIndexByte(text[:max+1], ' ')
		if cut <= 0 {
			cut = max
		}

		chunks = append(chunks, strings.TrimRight(text[:cut], " "))
		text = strings.TrimLeft(text[cut:], " ")
	}

	if text != "" {
		chunks = append(chunks, text)
	}

	return chunks
}
