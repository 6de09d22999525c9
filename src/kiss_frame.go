package tracker

/*------------------------------------------------------------------
 *
 * Purpose:   	KISS framing for captured TNC traffic.
 *
 * Description: The KISS TNC protocol is described in http://www.ka9q.net/papers/kiss.html
 *
 * 		Briefly, a frame is composed of
 *
 *			* FEND (0xC0)
 *			* Contents - with special escape sequences so a 0xc0
 *				byte in the data is not taken as end of frame.
 *			* FEND
 *
 *		The first byte of the frame contains:
 *
 *			* radio channel in upper nybble.
 *			* command in lower nybble.
 *
 *		Only data frames (command 0) carry AX.25.  Anything else
 *		from a capture is ignored.
 *
 *---------------------------------------------------------------*/

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

const KISS_CMD_DATA_FRAME = 0

/*
 * Special characters used by SLIP protocol.
 */

const FEND = 0xC0
const FESC = 0xDB
const TFEND = 0xDC
const TFESC = 0xDD

const MAX_KISS_LEN = 2048 // The KISS paper asks for at least 1024.

// KissEncapsulate wraps a frame, type indicator first, between FENDs
// with FEND and FESC in the data escaped.
func KissEncapsulate(in []byte) []byte {
	var out = make([]byte, 0, len(in)+len(in)/8+2)

	out = append(out, FEND)
	for _, b := range in {
		switch b {
		case FEND:
			out = append(out, FESC, TFEND)
		case FESC:
			out = append(out, FESC, TFESC)
		default:
			out = append(out, b)
		}
	}

	return append(out, FEND)
}

/*-------------------------------------------------------------------
 *
 * Name:        KissUnwrap
 *
 * Purpose:     Undo KissEncapsulate.
 *
 * Inputs:	in	- Leading FEND optional, trailing FEND expected.
 *
 * Returns:	Type indicator then data, or empty if too short.
 *
 * Description:	Two frames run together are cut at the inner FEND
 *		and only the first is kept.  A bad byte after FESC is
 *		dropped along with the FESC.
 *
 *-----------------------------------------------------------------*/

func KissUnwrap(in []byte) []byte {
	if len(in) < 2 {
		logger.Debug("KISS frame too short", "len", len(in))
		return []byte{}
	}

	in = bytes.TrimPrefix(in, []byte{FEND})
	if n := len(in); n > 0 && in[n-1] == FEND {
		in = in[:n-1]
	} else {
		logger.Debug("KISS frame without closing FEND")
	}

	if i := bytes.IndexByte(in, FEND); i >= 0 {
		logger.Warn("KISS frame has FEND in the middle, truncating", "offset", i, "len", len(in))
		in = in[:i]
	}

	var out = make([]byte, 0, len(in))
	for i := 0; i < len(in); i++ {
		if in[i] != FESC {
			out = append(out, in[i])
			continue
		}

		i++
		switch {
		case i >= len(in):
			logger.Debug("KISS frame ends with FESC")
		case in[i] == TFEND:
			out = append(out, FEND)
		case in[i] == TFESC:
			out = append(out, FESC)
		default:
			logger.Debug("KISS protocol error, bad byte after FESC", "byte", in[i])
		}
	}

	return out
}

/*-------------------------------------------------------------------
 *
 * Name:        KissReader
 *
 * Purpose:     Split a byte stream, such as a capture file, into frames.
 *
 * Description:	Bytes before the first FEND are noise and dropped.
 *		Back to back FENDs are just idle fill.
 *
 *-----------------------------------------------------------------*/

type KissReader struct {
	r *bufio.Reader
}

func NewKissReader(r io.Reader) *KissReader {
	return &KissReader{r: bufio.NewReader(r)}
}

var ErrKissTooLong = errors.New("KISS frame too long")

// Next returns the channel and AX.25 bytes of the next data frame.
func (kr *KissReader) Next() (int, []byte, error) {
	for {
		// Searching for starting FEND.
		if _, err := kr.r.ReadBytes(FEND); err != nil {
			return 0, nil, err
		}

		var msg []byte
		for {
			var b, err = kr.r.ReadByte()
			if err != nil {
				return 0, nil, err
			}
			if b == FEND {
				if len(msg) == 0 {
					continue // Idle fill.
				}
				if err := kr.r.UnreadByte(); err != nil {
					return 0, nil, err
				}
				break
			}
			msg = append(msg, b)
			if len(msg) > MAX_KISS_LEN {
				return 0, nil, ErrKissTooLong
			}
		}

		var frame = KissUnwrap(append(msg, FEND))
		if len(frame) < 2 {
			continue
		}

		if frame[0]&0x0f != KISS_CMD_DATA_FRAME {
			logger.Debug("ignoring KISS command", "cmd", frame[0]&0x0f)
			continue
		}

		return int(frame[0]>>4) & 0x0f, frame[1:], nil
	}
}
