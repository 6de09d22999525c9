package tracker

/*------------------------------------------------------------------
 *
 * Purpose:   	Deal with a received message.
 *
 * Description:	The order of the tests matters.  The first that
 *		applies wins:
 *
 *		1. ack or rej for me: update the message I sent.
 *		2. Bulletin.
 *		3. Numbered message for me: keep it and ack it.
 *		4. NWS weather alert.
 *		5. Numbered message for someone else: keep it and
 *		   maybe pass it to RF.
 *		6. Query for me, not from a log file: answer it.
 *		7. Anything else is kept, no ack.
 *
 *---------------------------------------------------------------*/

import (
	"fmt"
	"strings"
	"time"
)

func (t *Tracker) processMessage(r *Report, pp *Packet, now time.Time) {
	var m = r.Message
	var toMe = sameCall(m.Addressee, t.cfg.MyCall, true)
	var isAck = m.Subtype == MESSAGE_ACK || m.Subtype == MESSAGE_REJ

	switch {
	case isAck && toMe:
		t.receiveAck(r.Source, m.Seq, m.Subtype == MESSAGE_REJ, now)

	case isAck:
		logger.Debug("ack between other stations", "from", r.Source, "to", m.Addressee, "seq", m.Seq)

	case m.Subtype == MESSAGE_BLN:
		t.storeMessage(MESSAGE_BULLETIN, r, now)

	case m.Seq != "" && toMe:
		t.receiveForMe(r, pp, now)

	case m.Subtype == MESSAGE_NWS:
		if _, created := t.storeMessage(MESSAGE_WEATHER, r, now); created {
			t.emit(Event{Kind: EVENT_ALERT_WEATHER, Time: now, Name: r.Source, Text: m.Addressee + ": " + m.Text}, nil)
		}
		if r.Via == DATA_VIA_NET {
			t.igateToRF(pp, m.Addressee, now)
		}

	case m.Seq != "":
		t.storeMessage(MESSAGE_MESSAGE, r, now)

		if r.Via == DATA_VIA_NET && !sameCall(r.Source, t.cfg.MyCall, true) {
			t.igateToRF(pp, m.Addressee, now)
		}

	case m.Subtype == MESSAGE_QUERY && toMe && r.Port != -1 && r.Via != DATA_VIA_FILE:
		t.answerDirectedQuery(r, pp, now)

	default:
		if _, created := t.storeMessage(MESSAGE_MESSAGE, r, now); created && toMe {
			t.emit(Event{Kind: EVENT_MESSAGE_RECEIVED, Time: now, Name: r.Source, Text: m.Text}, nil)
		}
	}
}

// storeMessage adds to the message store.  Full is logged and otherwise ignored.
func (t *Tracker) storeMessage(kind MessageType, r *Report, now time.Time) (*Message, bool) {
	var stored, created, err = t.msgs.Store(Message{
		Type: kind,
		Via:  r.Via,
		Port: r.Port,
		To:   r.Message.Addressee,
		From: r.Source,
		Seq:  r.Message.Seq,
		Text: r.Message.Text,
		Time: now,
	})
	if err != nil {
		logger.Warn("can't store message", "from", r.Source, "to", r.Message.Addressee, "err", err)
		return nil, false
	}

	if created {
		messageCount.WithLabelValues(string(kind)).Inc()
	}

	return stored, created
}

/*------------------------------------------------------------------
 *
 * Name:	receiveAck
 *
 * Purpose:	Someone acknowledged, or rejected, a message I sent.
 *
 * Description:	Acks are often sent several times.  Only the first
 *		changes anything or tells anyone.
 *
 *------------------------------------------------------------------*/

func (t *Tracker) receiveAck(from, seq string, rej bool, now time.Time) {
	var m = t.msgs.lookup(from, t.cfg.MyCall, seq)
	if m == nil {
		logger.Debug("ack for unknown message", "from", from, "seq", seq)
		return
	}

	if m.Acked == ACK_ACKED || m.Acked == ACK_CANCELLED {
		logger.Debug("repeated ack", "from", from, "seq", seq)
		return
	}

	if rej {
		logger.Info("message rejected", "to", from, "seq", seq)
		m.Acked = ACK_CANCELLED
	} else {
		m.Acked = ACK_ACKED
		t.emit(Event{Kind: EVENT_MESSAGE_ACKED, Time: now, Name: from, Text: seq}, nil)
	}

	// The next one waiting for that station can go now.
	t.sendQueued(now)
}

/*------------------------------------------------------------------
 *
 * Name:	receiveForMe
 *
 * Purpose:	A numbered message addressed to me.
 *
 * Description:	The sender repeats until we ack so the same message
 *		will come in several times.  Each one gets an ack,
 *		but not more often than the ack window.
 *
 *		"{mm}aa" carries a free ack for my message "aa".
 *
 *------------------------------------------------------------------*/

func (t *Tracker) receiveForMe(r *Report, pp *Packet, now time.Time) {
	var m = r.Message

	var stored, created = t.storeMessage(MESSAGE_MESSAGE, r, now)

	if created {
		t.emit(Event{Kind: EVENT_MESSAGE_RECEIVED, Time: now, Name: r.Source, Text: m.Text}, nil)
	}

	if t.sendAck(r.Source, m.Seq, r.Via, r.Port, now) && stored != nil {
		stored.LastAckSent = now
	}

	if len(m.Seq) == 2 {
		t.replyAck[r.Source] = m.Seq
	}

	if m.ReplyAck != "" {
		t.receiveAck(r.Source, m.ReplyAck, false, now)
	}

	if m.Subtype == MESSAGE_QUERY && r.Port != -1 && r.Via != DATA_VIA_FILE {
		t.answerDirectedQuery(r, pp, now)
	}
}

// sendAck goes back the way the message came.
func (t *Tracker) sendAck(to, seq string, via byte, port int, now time.Time) bool {
	if via == DATA_VIA_FILE || port == -1 {
		return false
	}

	var key = to + ":" + seq
	if last, found := t.recentAcks[key]; found && now.Sub(last) < t.cfg.Messages.AckWindow {
		logger.Debug("ack sent recently, not again yet", "to", to, "seq", seq)
		return false
	}
	t.recentAcks[key] = now

	t.reply(t.cfg.newPacket(EncodeAck(to, seq)), via, port)

	return true
}

// reply sends to the internet server or the radio port it came from.
func (t *Tracker) reply(pp *Packet, via byte, port int) {
	if via == DATA_VIA_NET {
		t.transmitNet(pp)
		return
	}

	t.transmitPort(pp, port)
}

/*------------------------------------------------------------------
 *
 * Name:	answerDirectedQuery
 *
 * Purpose:	Respond to "?APRSD", "?APRSP", "?APRST", "?PING?"
 *		and "?VER" sent to me as messages.
 *
 * Description:	They should be upper case.  Some aren't, so complain
 *		and answer anyway.
 *
 *------------------------------------------------------------------*/

func (t *Tracker) answerDirectedQuery(r *Report, pp *Packet, now time.Time) {
	var q = r.Message.Query()
	var upper = strings.ToUpper(q)

	if q != upper {
		logger.Warn("query should be upper case", "from", r.Source, "query", q)
	}

	var answer string

	switch {
	case strings.HasPrefix(upper, "APRSD"):
		answer = "Directs=" + strings.Join(t.heard.Direct(now, t.cfg.Station.DirectTimeout), " ")

	case strings.HasPrefix(upper, "APRSP"):
		if err := t.positionBeacon(now); err != nil {
			logger.Info("can't answer position query", "from", r.Source, "err", err)
		}
		return

	case strings.HasPrefix(upper, "APRST"), strings.HasPrefix(upper, "PING?"):
		answer = fmt.Sprintf("%s>%s", pp.Source, pp.Dest)
		if path := pp.PathString(); path != "" {
			answer += "," + path
		}

	case strings.HasPrefix(upper, "VER"):
		answer = VersionString()

	default:
		logger.Debug("unknown query", "from", r.Source, "query", q)
		return
	}

	if len(answer) > MAX_MESSAGE_TEXT {
		answer = answer[:MAX_MESSAGE_TEXT]
	}

	t.reply(t.cfg.newPacket(EncodeMessage(r.Source, answer, "", "")), r.Via, r.Port)
}

/*------------------------------------------------------------------
 *
 * Name:	answerGeneralQuery
 *
 * Purpose:	"?APRS?" asks every station to beacon.  "?IGATE?" asks
 *		igates to say what they have been doing.
 *
 *------------------------------------------------------------------*/

func (t *Tracker) answerGeneralQuery(r *Report, _ *Packet, now time.Time) {
	if r.Port == -1 || r.Via == DATA_VIA_FILE || r.Via == DATA_VIA_LOCAL {
		return
	}

	switch r.Query {
	case "APRS":
		if err := t.positionBeacon(now); err != nil {
			logger.Debug("can't answer ?APRS?", "err", err)
		}

	case "IGATE":
		if t.cfg.Igate.Mode == IGATE_NONE {
			return
		}

		var caps = fmt.Sprintf("<IGATE,MSG_CNT=%d,LOC_CNT=%d", t.igateMsgCount, t.heard.Count(2, now, t.cfg.Igate.HeardWindow))
		t.reply(t.cfg.newPacket(caps), r.Via, r.Port)

	default:
		logger.Debug("general query ignored", "from", r.Source, "query", r.Query)
	}
}
