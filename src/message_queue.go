package tracker

/*------------------------------------------------------------------
 *
 * Purpose:   	Send messages and keep sending until acked.
 *
 * Description:	Long text is split into pieces that each get their
 *		own sequence number.  Only one message to a given
 *		station is outstanding at a time.  The rest wait until
 *		it is acked, times out or is cancelled.
 *
 *		The retry interval starts short and doubles each time
 *		up to a maximum.  After the maximum number of tries it
 *		is given up as timed out.
 *
 *		State lives in the message store record so anyone
 *		looking at the conversation sees the tries and ack
 *		state.  The queue itself only has the order and the
 *		time of the next try.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"strings"
	"time"
)

type outgoing struct {
	to   string
	seq  string
	next time.Time
}

/*------------------------------------------------------------------
 *
 * Name:	SendMessage
 *
 * Purpose:	Queue a message for another station.
 *
 * Returns:	Sequence numbers assigned, one per piece.
 *
 * Errors:	ErrInvalidCall, ErrStoreFull.
 *
 *------------------------------------------------------------------*/

func (t *Tracker) SendMessage(to, text string) ([]string, error) {
	to = strings.ToUpper(strings.TrimSpace(to))
	if !ValidInetName(to) {
		return nil, fmt.Errorf("%w: addressee %q", ErrInvalidCall, to)
	}

	var chunks = splitMessage(text, MAX_MESSAGE_TEXT)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: empty message", ErrBadFrame)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var now = t.now()
	var seqs []string

	for _, chunk := range chunks {
		var seq, wrapped = nextSeq(t.lastSeq)
		if wrapped {
			logger.Warn("message sequence number wrapped around", "seq", seq)
		}
		t.lastSeq = seq

		var _, _, err = t.msgs.Store(Message{
			Type:     MESSAGE_MESSAGE,
			Via:      DATA_VIA_LOCAL,
			Port:     -1,
			To:       to,
			From:     t.cfg.MyCall,
			Seq:      seq,
			Text:     chunk,
			Time:     now,
			Interval: t.cfg.Messages.InitialInterval,
		})
		if err != nil {
			return seqs, err
		}

		t.outbox = append(t.outbox, &outgoing{to: to, seq: seq, next: now})
		seqs = append(seqs, seq)
	}

	t.sendQueued(now)

	return seqs, nil
}

// CancelMessage gives up on everything queued for a station and returns how many.
func (t *Tracker) CancelMessage(to string) int {
	to = strings.ToUpper(strings.TrimSpace(to))

	t.mu.Lock()
	defer t.mu.Unlock()

	var n = 0
	for _, o := range t.outbox {
		if o.to != to {
			continue
		}

		if m := t.msgs.lookup(o.to, t.cfg.MyCall, o.seq); m != nil && m.Acked == ACK_NONE {
			m.Acked = ACK_CANCELLED
			n++
		}
	}

	t.sendQueued(t.now())

	return n
}

/*------------------------------------------------------------------
 *
 * Name:	sendQueued
 *
 * Purpose:	Send whatever is due and drop what is finished.
 *
 *------------------------------------------------------------------*/

func (t *Tracker) sendQueued(now time.Time) {
	var busy = make(map[string]bool)
	var keep = t.outbox[:0]

	for _, o := range t.outbox {
		if busy[o.to] {
			keep = append(keep, o)
			continue
		}

		var m = t.msgs.lookup(o.to, t.cfg.MyCall, o.seq)
		if m == nil || m.Acked != ACK_NONE {
			continue // Finished.  Next one for this station can go.
		}

		if now.Before(o.next) {
			busy[o.to] = true
			keep = append(keep, o)
			continue
		}

		if m.Tries >= t.cfg.Messages.MaxTries {
			logger.Info("message timed out", "to", o.to, "seq", o.seq, "tries", m.Tries)
			m.Acked = ACK_TIMEOUT
			continue
		}

		busy[o.to] = true
		keep = append(keep, o)

		var info = EncodeMessage(o.to, m.Text, m.Seq, t.replyAck[o.to])
		t.transmitAll(t.cfg.newPacket(info))

		m.Tries++
		o.next = now.Add(m.Interval)
		m.Interval = min(m.Interval*2, t.cfg.Messages.MaxInterval)
	}

	// Don't leave pointers hanging in the unused tail.
	for i := len(keep); i < len(t.outbox); i++ {
		t.outbox[i] = nil
	}
	t.outbox = keep
}

// Pending is how many messages are waiting to be acked.
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.outbox)
}
