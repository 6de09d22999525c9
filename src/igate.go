package tracker

/*------------------------------------------------------------------
 *
 * Purpose:   	Decide what crosses between RF and the internet.
 *
 * Description:	Nothing here does any I/O.  The tracker hands us a
 *		packet and gets back either the line to pass along
 *		or ErrNoGate wrapped with the reason.
 *
 *		RF to internet is the easy direction.  Almost everything
 *		goes, with ",qAR,mycall" appended to the path.
 *
 *		Internet to RF is limited to messages for stations we
 *		have heard on the radio recently, which were not sent
 *		by a station that is itself local.  Those are wrapped
 *		as third party traffic.
 *
 *		Duplicate suppression is up to the caller since it
 *		needs the history of what was heard and sent.
 *
 * References:	http://www.aprs-is.net/IGating.aspx
 *		http://www.aprs-is.net/q.aspx
 *
 *---------------------------------------------------------------*/

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrNoGate = errors.New("not gated")

/*
 * Generic queries are answered locally.  Passing them along would
 * have every station in the world answering.
 */

var rfToNetQueries = []string{"?APRS?", "?IGATE?", "?WX?"}
var netToRFQueries = []string{"?APRS?", "?WX?"}

func pathHas(pp *Packet, words ...string) (string, bool) {
	for _, pe := range pp.Path {
		for _, w := range words {
			if strings.EqualFold(pe.Call, w) {
				return w, true
			}
		}
	}

	return "", false
}

func hasQuery(info string, queries []string) bool {
	for _, q := range queries {
		if strings.HasPrefix(info, q) {
			return true
		}
	}

	return false
}

/*------------------------------------------------------------------
 *
 * Name:	IgateRFToNet
 *
 * Purpose:	Decide whether something heard should go to the
 *		internet server.
 *
 * Inputs:	mycall	- Appended after qAR.
 *
 *		pp	- What was heard, third party header already
 *			  removed.
 *
 *		port	- Where it came from.  -1 is a log file, -2 is
 *			  the internal server, others are real ports.
 *
 *		thirdParty - Payload was unwrapped from third party
 *			  traffic.  It came from the internet already.
 *
 * Returns:	Line for the server, without CR/LF.
 *
 *------------------------------------------------------------------*/

func IgateRFToNet(mycall string, pp *Packet, port int, thirdParty bool) (string, error) {
	if port == -1 || port < -2 {
		return "", fmt.Errorf("%w: port %d", ErrNoGate, port)
	}

	if w, found := pathHas(pp, "TCPXX", "NOGATE", "RFONLY", "OPNTRK", "OPNTRC"); found {
		return "", fmt.Errorf("%w: %s in path", ErrNoGate, w)
	}

	if port >= 0 {
		if _, found := pathHas(pp, "TCPIP"); found {
			return "", fmt.Errorf("%w: TCPIP in path", ErrNoGate)
		}
	}

	if thirdParty {
		return "", fmt.Errorf("%w: third party", ErrNoGate)
	}

	if hasQuery(pp.Info, rfToNetQueries) {
		return "", fmt.Errorf("%w: generic query", ErrNoGate)
	}

	if sameCall(pp.Source, mycall, true) {
		return "", fmt.Errorf("%w: my own", ErrNoGate)
	}

	/*
	 * Cut the information part at the first CR or LF.
	 * This is required because CR/LF is used as record separator when sending to server.
	 * Do NOT trim trailing spaces.
	 */
	var info = pp.Info
	if i := strings.IndexAny(info, "\r\n"); i >= 0 {
		info = info[:i]
	}

	if info == "" {
		return "", fmt.Errorf("%w: empty information part", ErrNoGate)
	}

	var sb strings.Builder
	sb.WriteString(pp.Source)
	sb.WriteByte('>')
	sb.WriteString(pp.Dest)
	for _, pe := range pp.Path {
		sb.WriteByte(',')
		sb.WriteString(pe.String())
	}
	sb.WriteString(",qAR,")
	sb.WriteString(mycall)
	sb.WriteByte(':')
	sb.WriteString(info)

	return sb.String(), nil
}

/*------------------------------------------------------------------
 *
 * Name:	IgateNetToRF
 *
 * Purpose:	Decide whether something from the internet should be
 *		transmitted, and wrap it as third party traffic.
 *
 * Inputs:	cfg	- Igate mode, NWS list, heard window.
 *
 *		heard	- Who has been heard on the radio.
 *
 *		pp	- Packet from the server.
 *
 *		to	- Station it is for.  For a message this is the
 *			  addressee, not the AX.25 destination.
 *
 * Returns:	Packet to transmit:
 *
 *			mycall>TOCALL,path:}src>dest,TCPIP,mycall*:info
 *
 * Description:	The via path as received from the server is
 *		discarded and replaced by TCPIP and our own call,
 *		marked as used.
 *
 *------------------------------------------------------------------*/

func IgateNetToRF(cfg *Config, heard *MHeard, pp *Packet, to string, now time.Time) (*Packet, error) {
	if cfg.Igate.Mode != IGATE_BOTH {
		return nil, fmt.Errorf("%w: receive only", ErrNoGate)
	}

	if w, found := pathHas(pp, "NOGATE", "RFONLY", "OPNTRK", "OPNTRC"); found {
		return nil, fmt.Errorf("%w: %s in path", ErrNoGate, w)
	}

	if hasQuery(pp.Info, netToRFQueries) {
		return nil, fmt.Errorf("%w: generic query", ErrNoGate)
	}

	if !cfg.isNWSStation(pp.Source) {
		if w, found := pathHas(pp, "TCPXX", "qAX"); found {
			return nil, fmt.Errorf("%w: %s in path", ErrNoGate, w)
		}

		if !heard.RecentlyNearby(to, now, cfg.Igate.HeardWindow, -1) {
			return nil, fmt.Errorf("%w: %s not heard on radio recently", ErrNoGate, to)
		}

		if heard.RecentlyNearby(pp.Source, now, cfg.Igate.HeardWindow, -1) {
			return nil, fmt.Errorf("%w: %s is local", ErrNoGate, pp.Source)
		}
	}

	var inner = pp.Source + ">" + pp.Dest + ",TCPIP," + cfg.MyCall + "*:" + strings.TrimRight(pp.Info, "\r\n")

	return cfg.newPacket("}" + inner), nil
}
