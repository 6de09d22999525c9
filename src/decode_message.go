package tracker

/*------------------------------------------------------------------
 *
 * Purpose:	Decode "Message Format."
 *
 * Cases:	:BLNxxxxxx: ...			Bulletin.
 *		:NWS-xxxxx: ...			National Weather Service Bulletin.
 *		:SKYxxxxxx: ...			Ditto.
 *		:xxxxxxxxx:?			Directed Station Query
 *		:xxxxxxxxx:ackNNNN		Message acknowledged (received)
 *		:xxxxxxxxx:rejNNNNN		Message rejected (unable to accept)
 *
 *		:xxxxxxxxx: ...			Message with no message number.
 *		:xxxxxxxxx: ... {NNNNN		Message with message number, 1 to 5 alphanumeric.
 *		:xxxxxxxxx: ... {mm}		Message with new style message number.
 *		:xxxxxxxxx: ... {mm}aa		Message with new style message number and ack.
 *
 * Description:	Only the syntax is handled here.  What to do about it,
 *		which depends on who it is addressed to, is in messages.go.
 *
 * Reference:	http://www.aprs.org/txt/messages101.txt
 *		http://www.aprs.org/aprs11/replyacks.txt
 *
 *------------------------------------------------------------------*/

import (
	"regexp"
	"strings"
)

type MessageSubtype int

const (
	MESSAGE_TEXT MessageSubtype = iota
	MESSAGE_ACK
	MESSAGE_REJ
	MESSAGE_BLN
	MESSAGE_NWS
	MESSAGE_QUERY
)

type AprsMessage struct {
	Subtype   MessageSubtype
	Addressee string
	Text      string
	Seq       string // Message number, or the one being acked.
	ReplyAck  string // Free ride ack from "{mm}aa".
}

// Query text, without the leading '?', for MESSAGE_QUERY.
func (m *AprsMessage) Query() string {
	return strings.TrimPrefix(m.Text, "?")
}

var bad_addressee_re = regexp.MustCompile("[A-Z0-9]+ +-[0-9]")

func isNWSAddressee(a string) bool {
	return strings.HasPrefix(a, "NWS-") || strings.HasPrefix(a, "NWS_") ||
		strings.HasPrefix(a, "SKY") || strings.HasPrefix(a, "CWA") || strings.HasPrefix(a, "BOM")
}

func decodeMessage(r *Report, s string) bool {
	// The addressee should be padded to 9 but short ones are seen.
	var end = strings.IndexByte(s, ':')
	if end < 1 || end > 9 {
		logger.Debug("message must be ':' addressee of up to 9 characters ':'", "source", r.Source)
		return false
	}

	var raw = s[:end]
	var addressee = RemoveTrailingSpaces(raw)
	if addressee == "" {
		return false
	}

	if bad_addressee_re.MatchString(raw) {
		logger.Warn("malformed addressee with space between station name and SSID", "source", r.Source, "addressee", raw)
	}

	var text = strings.TrimRight(s[end+1:], "\r\n")
	var m = &AprsMessage{Addressee: addressee}

	switch {
	case strings.HasPrefix(addressee, "BLN"):
		m.Subtype = MESSAGE_BLN
		m.Text, m.Seq = splitMessageNumber(text)

	case isNWSAddressee(addressee):
		m.Subtype = MESSAGE_NWS
		m.Text, m.Seq = splitMessageNumber(text)

	case len(text) >= 3 && (strings.EqualFold(text[:3], "ack") || strings.EqualFold(text[:3], "rej")):
		if text[:3] != "ack" && text[:3] != "rej" {
			logger.Warn("ack and rej must be lower case", "source", r.Source, "text", text)
		}

		m.Subtype = IfThenElse(strings.EqualFold(text[:3], "ack"), MESSAGE_ACK, MESSAGE_REJ)
		m.Seq = strings.TrimSpace(text[3:])

		// Reply/Ack form "ackmm}" or "ackmm}aa".
		if i := strings.IndexByte(m.Seq, '}'); i >= 0 {
			m.Seq = m.Seq[:i]
		}

		if m.Seq == "" {
			logger.Debug("message number missing after ack/rej", "source", r.Source)
			return false
		}

	default:
		m.Text, m.Seq = splitMessageNumber(text)

		if i := strings.IndexByte(m.Seq, '}'); i >= 0 {
			m.ReplyAck = m.Seq[i+1:]
			m.Seq = m.Seq[:i]
		}

		if m.Seq != "" && len(m.Seq) > 5 {
			logger.Debug("message number too long", "source", r.Source, "seq", m.Seq)
		}

		if strings.HasPrefix(m.Text, "?") {
			m.Subtype = MESSAGE_QUERY
		}
	}

	r.Kind = REPORT_MESSAGE
	r.Message = m

	return true
}

// splitMessageNumber separates "text{NNNNN".
func splitMessageNumber(text string) (string, string) {
	var i = strings.LastIndexByte(text, '{')
	if i < 0 {
		return text, ""
	}

	return text[:i], strings.TrimSpace(text[i+1:])
}
