package tracker

/*------------------------------------------------------------------
 *
 * Purpose:	Main program for standalone application to parse and explain APRS packets.
 *
 * Inputs:	stdin for raw data to decode.
 *		This is in the usual display format either from
 *		a TNC, findu.com, aprs.fi, etc.  e.g.
 *
 *		N1EDF-9>T2QT8Y,W1CLA-1,WIDE1*,WIDE2-2,00000:`bSbl!Mv/`"4%}_ <0x0d>
 *
 *		WB2OSZ-1>APN383,qAR,N1EDU-2:!4237.14NS07120.83W#PHG7130Chelmsford, MA
 *
 *		Also allow hexadecimal bytes for raw AX.25 or KISS.  e.g.
 *
 *		00 82 a0 ae ae 62 60 e0 82 96 68 84 40 40 60 9c 68 b0 ae 86 40 e0 40 ae 92 88 8a 64 63 03 f0 3e 45 4d 36 34 6e 65 2f 23 20 45 63 68 6f 6c 69 6e 6b 20 31 34 35 2e 33 31 30 2f 31 30 30 68 7a 20 54 6f 6e 65
 *
 *		If it begins with 00 or C0 (which would be impossible for AX.25 address) process as KISS.
 *
 * Outputs:	stdout
 *
 * Description:	./decode_aprs < decode_aprs.txt
 *
 *		Every packet also goes into one station database, so
 *		several packets from the same station show how the
 *		record builds up.
 *
 *		aprs.fi precedes raw data with a time stamp which you
 *		would need to remove first.
 *
 *		cut -c26-999 tmp/kj4etp-9.txt | decode_aprs
 *
 *------------------------------------------------------------------*/

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var hexLineRe = regexp.MustCompile("^[[:xdigit:]]{2}( ?[[:xdigit:]]{2})*$")

var hexEscapeRe = regexp.MustCompile("<0x([[:xdigit:]]{2})>")

// unescapeText turns the "<0x0d>" notation back into bytes.
func unescapeText(s string) string {
	return hexEscapeRe.ReplaceAllStringFunc(s, func(m string) string {
		var b, _ = strconv.ParseUint(m[3:5], 16, 8)
		return string([]byte{byte(b)})
	})
}

// Decoder is the state for one run of decode_aprs.
type Decoder struct {
	w io.Writer
	t *Tracker
}

func NewDecoder(w io.Writer) *Decoder {
	var cfg = DefaultConfig()

	var t, err = NewTracker(cfg, nil)
	if err != nil {
		panic(err) // Defaults are always valid.
	}

	return &Decoder{w: w, t: t}
}

func DecodeAPRSMain() {
	var d = NewDecoder(os.Stdout)

	var scanner = bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		var line = scanner.Text()
		if len(line) == 0 || strings.HasPrefix(line, "#") {
			/* comment or blank line */
			fmt.Printf("%s\n", line)
			continue
		}

		d.DecodeLine(line)
	}
}

func (d *Decoder) DecodeLine(line string) {
	fmt.Fprintf(d.w, "\n%s\n\n", line)

	// Do we have monitor format, KISS, or AX.25 frame?

	line = strings.TrimLeft(line, " ")

	if !hexLineRe.MatchString(line) {
		var pp, err = ParseLine(unescapeText(line), false)
		if err != nil {
			fmt.Fprintf(d.w, "ERROR - Could not parse monitoring format input: %s\n\n", err)
			return
		}

		d.describe(pp)
		return
	}

	var bytes, err = hex.DecodeString(strings.ReplaceAll(line, " ", ""))
	if err != nil || len(bytes) == 0 {
		fmt.Fprintf(d.w, "ERROR - Bad hexadecimal: %v\n\n", err)
		return
	}

	// If we have 0xC0 at start, remove it and expect same at end.

	if bytes[0] == FEND {
		if len(bytes) < 2 || bytes[1] != 0 {
			fmt.Fprintf(d.w, "Was expecting to find 00 after the initial C0.\n")
			return
		}

		if bytes[len(bytes)-1] == FEND {
			fmt.Fprintf(d.w, "Removing KISS FEND characters at beginning and end.\n")
			bytes = bytes[1 : len(bytes)-1]
		} else {
			fmt.Fprintf(d.w, "Removing KISS FEND character at beginning.  Was expecting another at end.\n")
			bytes = bytes[1:]
		}
	}

	if bytes[0] == 0 {
		fmt.Fprintf(d.w, "--- KISS frame ---\n")
		hexDump(d.w, bytes)

		// The type byte is 0 so it can't be escaped.  Take it off first.
		bytes = KissUnwrap(append(bytes[1:], FEND))
	}

	var pp, frameErr = DecodeFrame(bytes)
	if frameErr != nil {
		fmt.Fprintf(d.w, "Could not construct AX.25 frame from bytes supplied: %s\n\n", frameErr)
		return
	}

	fmt.Fprintf(d.w, "--- AX.25 frame ---\n")
	hexDump(d.w, bytes)
	fmt.Fprintf(d.w, "-------------------\n")
	fmt.Fprintf(d.w, "%s\n", safeText(pp.String()))

	d.describe(pp)
}

func (d *Decoder) describe(pp *Packet) {
	var r = Decode(pp)

	fmt.Fprintf(d.w, "%s %s", r.Kind, r.Name)
	if r.Killed {
		fmt.Fprintf(d.w, " (killed)")
	}
	if r.Symbol.Code != 0 {
		fmt.Fprintf(d.w, " symbol %s", r.Symbol)
	}
	fmt.Fprintf(d.w, "\n")

	if r.HasPosition {
		fmt.Fprintf(d.w, "%s", FormatDegMin(r.Lat, r.Lon))
		if r.PosAmb > 0 {
			fmt.Fprintf(d.w, ", ambiguity %d", r.PosAmb)
		}
		if utm, err := FormatUTM(r.Lat, r.Lon); err == nil {
			fmt.Fprintf(d.w, ", UTM %s", utm)
		}
		fmt.Fprintf(d.w, "\n")
	}

	var fields = []struct{ name, value string }{
		{"timestamp", r.Timestamp},
		{"speed", r.Speed},
		{"course", r.Course},
		{"altitude", r.Altitude},
		{"bearing", r.Bearing},
		{"power", r.PowerGain},
		{"df", r.SignalGain},
		{"signpost", r.Signpost},
		{"mic-e", r.MicEStatus},
		{"status", r.Status},
		{"comment", r.Comment},
	}
	for _, f := range fields {
		if f.value != "" {
			fmt.Fprintf(d.w, "%s: %s\n", f.name, safeText(f.value))
		}
	}

	if r.Weather != nil {
		fmt.Fprintf(d.w, "weather: %+v\n", *r.Weather)
	}

	if r.Message != nil {
		fmt.Fprintf(d.w, "message to %s: %q", r.Message.Addressee, r.Message.Text)
		if r.Message.Seq != "" {
			fmt.Fprintf(d.w, " seq %s", r.Message.Seq)
		}
		fmt.Fprintf(d.w, "\n")
	}

	if r.Emergency {
		fmt.Fprintf(d.w, "EMERGENCY\n")
	}

	if err := d.t.ProcessLine(pp.String(), DATA_VIA_FILE, -1, false); err != nil {
		fmt.Fprintf(d.w, "not stored: %s\n", err)
		return
	}

	if st, found := d.t.Snapshot(r.Name); found && r.Kind != REPORT_MESSAGE {
		fmt.Fprintf(d.w, "station %s: %d packets, flags 0x%03x", st.Name(), st.NumPackets, int(st.Flags))
		if g, err := st.MGRS(); err == nil {
			fmt.Fprintf(d.w, ", MGRS %s", g)
		}
		fmt.Fprintf(d.w, "\n")
	}
}
