package tracker

/*------------------------------------------------------------------
 *
 * Name:	ax25_pad.go
 *
 * Purpose:	Packet header handling.  Everything arriving at the
 *		tracker is normalized to the monitor format
 *
 *			SRC>DEST,DIGI1,DIGI2*:INFO
 *
 *		whether it started life as a binary AX.25 frame from a
 *		KISS TNC, a text line from a TNC in monitor mode, a line
 *		from an APRS-IS server or a line from a log file.
 *
 * Description:
 *
 *	An AX.25 frame is composed of:
 *
 *		* Destination Address	7 bytes
 *		* Source Address	7 bytes
 *		* 0-8 Digipeater Addresses  7 each
 *		* Control Field		1 byte, 0x03 for UI frame
 *		* Protocol ID		1 byte, 0xF0 for no layer 3
 *		* Information Field	variable
 *
 *	Each address is 6 bytes of upper case letters and digits,
 *	shifted left one bit and padded with spaces, then an SSID byte:
 *
 *		bit 7		H - "has been repeated" for digipeaters.
 *		bits 6,5	Reserved, normally 1.
 *		bits 4-1	SSID.
 *		bit 0		Last address in the chain.
 *
 *------------------------------------------------------------------*/

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const AX25_MAX_REPEATERS = 8
const AX25_MIN_ADDRS = 2  /* Destination & Source. */
const AX25_MAX_ADDRS = 10 /* Destination, Source, 8 digipeaters. */

const AX25_MAX_ADDR_LEN = 12

const AX25_UI_FRAME = 3           /* Control field value. */
const AX25_PID_NO_LAYER_3 = 0xf0 /* protocol ID used for APRS */

const SSID_H_MASK = 0x80
const SSID_RR_MASK = 0x60
const SSID_SSID_MASK = 0x1e
const SSID_SSID_SHIFT = 1
const SSID_LAST_MASK = 0x01

/* Longest line accepted from a TNC, a file or loopback. */
const MAX_LINE_SIZE = 1024

/* Internet lines can carry a few q-constructs more. */
const MAX_NET_LINE_SIZE = 4096

/* Information part, not counting a third party header. */
const MAX_INFO_FIELD_SIZE = 256

var (
	ErrOversize    = errors.New("input too long")
	ErrNotAPRS     = errors.New("not an APRS frame")
	ErrBadFrame    = errors.New("malformed frame")
	ErrInvalidCall = errors.New("invalid callsign")
)

// PathEntry is one digipeater in the via path.
type PathEntry struct {
	Call string
	Used bool
}

func (pe PathEntry) String() string {
	if pe.Used {
		return pe.Call + "*"
	}

	return pe.Call
}

// Packet is a normalized packet with the address header split out.
type Packet struct {
	Source string
	Dest   string
	Path   []PathEntry
	Info   string
}

func (p *Packet) String() string {
	var sb strings.Builder

	sb.WriteString(p.Source)
	sb.WriteByte('>')
	sb.WriteString(p.Dest)
	for _, pe := range p.Path {
		sb.WriteByte(',')
		sb.WriteString(pe.String())
	}
	sb.WriteByte(':')
	sb.WriteString(p.Info)

	return sb.String()
}

// PathString is the via path alone, as "DIGI1*,WIDE2-1".
func (p *Packet) PathString() string {
	var parts = make([]string, len(p.Path))
	for i, pe := range p.Path {
		parts[i] = pe.String()
	}

	return strings.Join(parts, ",")
}

// DataType is the first byte of the information field, 0 if empty.
func (p *Packet) DataType() byte {
	if len(p.Info) == 0 {
		return 0
	}

	return p.Info[0]
}

// Repeated reports whether any digipeater has handled the packet.
func (p *Packet) Repeated() bool {
	for _, pe := range p.Path {
		if pe.Used {
			return true
		}
	}

	return false
}

// HeardFrom is the station we actually heard: last used digipeater or the source.
func (p *Packet) HeardFrom() string {
	for i := len(p.Path) - 1; i >= 0; i-- {
		if p.Path[i].Used {
			return p.Path[i].Call
		}
	}

	return p.Source
}

// PathContains looks for an exact digipeater name, ignoring the used marker.
func (p *Packet) PathContains(call string) bool {
	for _, pe := range p.Path {
		if pe.Call == call {
			return true
		}
	}

	return false
}

/*------------------------------------------------------------------------------
 *
 * Name:	ParseLine
 *
 * Purpose:	Split a monitor format line into its parts.
 *
 * Inputs:	line	- "SRC>DEST,DIGI*:info", trailing CR/LF already gone.
 *		strict	- AX.25 rules for addresses.  Lines from the
 *			  internet carry q-constructs and names that are
 *			  not callsigns so those get the relaxed check.
 *
 * Errors:	ErrBadFrame when there is no header.
 *
 *------------------------------------------------------------------------------*/

func ParseLine(line string, strict bool) (*Packet, error) {
	var colon = strings.IndexByte(line, ':')
	if colon < 0 {
		return nil, fmt.Errorf("%w: no ':' after header in %q", ErrBadFrame, line)
	}

	var header = line[:colon]
	var info = line[colon+1:]

	var gt = strings.IndexByte(header, '>')
	if gt < 0 {
		return nil, fmt.Errorf("%w: no '>' in header %q", ErrBadFrame, header)
	}

	var pp = &Packet{
		Source: header[:gt],
		Info:   info,
	}

	var addrs = strings.Split(header[gt+1:], ",")
	pp.Dest = addrs[0]

	if len(addrs)-1 > AX25_MAX_REPEATERS && strict {
		return nil, fmt.Errorf("%w: more than %d digipeaters", ErrBadFrame, AX25_MAX_REPEATERS)
	}

	if err := checkAddr(pp.Source, strict); err != nil {
		return nil, fmt.Errorf("source: %w", err)
	}
	if err := checkAddr(pp.Dest, strict); err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}

	for _, a := range addrs[1:] {
		var pe = PathEntry{Call: a}
		if strings.HasSuffix(a, "*") {
			pe.Call = a[:len(a)-1]
			pe.Used = true
		}
		if err := checkAddr(pe.Call, strict); err != nil {
			return nil, fmt.Errorf("digipeater: %w", err)
		}
		pp.Path = append(pp.Path, pe)
	}

	return pp, nil
}

// checkAddr applies the AX.25 address rules.  Relaxed mode only insists
// on something printable without header punctuation.
func checkAddr(addr string, strict bool) error {
	if addr == "" {
		return fmt.Errorf("%w: empty address", ErrInvalidCall)
	}

	if !strict {
		if len(addr) > AX25_MAX_ADDR_LEN {
			return fmt.Errorf("%w: %q too long", ErrInvalidCall, addr)
		}
		for i := 0; i < len(addr); i++ {
			if addr[i] <= ' ' || addr[i] > '~' || addr[i] == '>' || addr[i] == ':' || addr[i] == ',' {
				return fmt.Errorf("%w: %q has bad character", ErrInvalidCall, addr)
			}
		}
		return nil
	}

	var base, ssid, _ = strings.Cut(addr, "-")
	if len(base) == 0 || len(base) > 6 {
		return fmt.Errorf("%w: %q must have 1 to 6 characters before SSID", ErrInvalidCall, addr)
	}
	for i := 0; i < len(base); i++ {
		if !isAlnum(base[i]) {
			return fmt.Errorf("%w: %q contains character other than letter or digit", ErrInvalidCall, addr)
		}
	}
	if ssid != "" || strings.HasSuffix(addr, "-") {
		var k, err = strconv.Atoi(ssid)
		if err != nil || k < 0 || k > 15 {
			return fmt.Errorf("%w: SSID of %q not in range of 0 to 15", ErrInvalidCall, addr)
		}
	}

	return nil
}

/*------------------------------------------------------------------------------
 *
 * Name:	DecodeFrame
 *
 * Purpose:	Convert a binary AX.25 frame to a Packet.
 *
 * Inputs:	frame	- Address fields, control, PID, info.  No FCS.
 *
 * Errors:	ErrBadFrame for truncated or unterminated addresses.
 *		ErrNotAPRS for anything other than a UI frame with no layer 3.
 *
 *------------------------------------------------------------------------------*/

func DecodeFrame(frame []byte) (*Packet, error) {
	var addrs []PathEntry

	var pos = 0
	for {
		if pos+7 > len(frame) {
			return nil, fmt.Errorf("%w: address field truncated at %d bytes", ErrBadFrame, len(frame))
		}
		if len(addrs) >= AX25_MAX_ADDRS {
			return nil, fmt.Errorf("%w: too many addresses", ErrBadFrame)
		}

		var call, used = decodeAddress(frame[pos : pos+7])
		addrs = append(addrs, PathEntry{Call: call, Used: used})

		var last = frame[pos+6]&SSID_LAST_MASK != 0
		pos += 7
		if last {
			break
		}
	}

	if len(addrs) < AX25_MIN_ADDRS {
		return nil, fmt.Errorf("%w: only %d address", ErrBadFrame, len(addrs))
	}

	if pos+2 > len(frame) {
		return nil, fmt.Errorf("%w: no control and PID", ErrBadFrame)
	}

	// Poll/final bit doesn't matter.
	if frame[pos]&^0x10 != AX25_UI_FRAME {
		return nil, fmt.Errorf("%w: control 0x%02x", ErrNotAPRS, frame[pos])
	}
	if frame[pos+1] != AX25_PID_NO_LAYER_3 {
		return nil, fmt.Errorf("%w: PID 0x%02x", ErrNotAPRS, frame[pos+1])
	}

	var pp = &Packet{
		Dest:   addrs[0].Call,
		Source: addrs[1].Call,
		Path:   addrs[2:],
		Info:   string(frame[pos+2:]),
	}

	return pp, nil
}

func decodeAddress(field []byte) (string, bool) {
	var call = make([]byte, 0, 9)

	for i := 0; i < 6; i++ {
		call = append(call, field[i]>>1)
	}

	var s = strings.TrimRight(string(call), " ")

	var ssid = int(field[6]&SSID_SSID_MASK) >> SSID_SSID_SHIFT
	if ssid != 0 {
		s += "-" + strconv.Itoa(ssid)
	}

	return s, field[6]&SSID_H_MASK != 0
}

/*------------------------------------------------------------------------------
 *
 * Name:	Pack
 *
 * Purpose:	Build the binary AX.25 UI frame for a packet.
 *
 * Errors:	ErrInvalidCall if an address can't be represented.
 *
 *------------------------------------------------------------------------------*/

func (p *Packet) Pack() ([]byte, error) {
	var all = append([]PathEntry{{Call: p.Dest}, {Call: p.Source}}, p.Path...)
	if len(all) > AX25_MAX_ADDRS {
		return nil, fmt.Errorf("%w: too many addresses", ErrBadFrame)
	}

	var out = make([]byte, 0, len(all)*7+2+len(p.Info))
	for n, a := range all {
		if err := checkAddr(a.Call, true); err != nil {
			return nil, err
		}

		var base, ssidStr, _ = strings.Cut(a.Call, "-")
		var ssid, _ = strconv.Atoi(ssidStr)

		var field = []byte("      ")
		copy(field, strings.ToUpper(base))
		for _, c := range field {
			out = append(out, c<<1)
		}

		var b = byte(SSID_RR_MASK) | byte(ssid<<SSID_SSID_SHIFT)
		if a.Used && n >= 2 {
			b |= SSID_H_MASK
		}
		if n == len(all)-1 {
			b |= SSID_LAST_MASK
		}
		out = append(out, b)
	}

	out = append(out, AX25_UI_FRAME, AX25_PID_NO_LAYER_3)
	out = append(out, p.Info...)

	return out, nil
}

/*------------------------------------------------------------------------------
 *
 * Name:	UnwrapThirdParty
 *
 * Purpose:	Unwrap a third party packet from the header.
 *
 * Example:	Input:		A>B,C:}D>E,F:info
 *		Output:		D>E,F:info
 *
 *------------------------------------------------------------------------------*/

func (p *Packet) UnwrapThirdParty() (*Packet, error) {
	if p.DataType() != '}' {
		return nil, fmt.Errorf("%w: not third party", ErrBadFrame)
	}

	// Whatever was inside has come through an internet server, so relaxed.
	return ParseLine(p.Info[1:], false)
}
