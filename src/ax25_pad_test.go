package tracker

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine(t *testing.T) {
	var pp, err = ParseLine("N0CALL>APRS,WIDE1-1*,WIDE2-1:!4903.50N/07201.75W>Test", true)
	require.NoError(t, err)

	assert.Equal(t, "N0CALL", pp.Source)
	assert.Equal(t, "APRS", pp.Dest)
	assert.Equal(t, []PathEntry{{"WIDE1-1", true}, {"WIDE2-1", false}}, pp.Path)
	assert.Equal(t, "!4903.50N/07201.75W>Test", pp.Info)
	assert.Equal(t, byte('!'), pp.DataType())
	assert.True(t, pp.Repeated())
	assert.Equal(t, "WIDE1-1", pp.HeardFrom())
	assert.Equal(t, "WIDE1-1*,WIDE2-1", pp.PathString())
	assert.Equal(t, "N0CALL>APRS,WIDE1-1*,WIDE2-1:!4903.50N/07201.75W>Test", pp.String())

	// Colons in the info part belong to the info part.
	pp, err = ParseLine("N0CALL>APRS::N0CALL2 :Hello{001", true)
	require.NoError(t, err)
	assert.Empty(t, pp.Path)
	assert.Equal(t, "N0CALL", pp.HeardFrom())
	assert.Equal(t, ":N0CALL2 :Hello{001", pp.Info)
}

func TestParseLineErrors(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		strict bool
	}{
		{"no colon", "N0CALL>APRS", true},
		{"no gt", "N0CALL:hello", true},
		{"empty source", ">APRS:hello", false},
		{"lower case strict ok but punctuation", "N0-CALL>APRS:x", true},
		{"ssid too big", "N0CALL-16>APRS:x", true},
		{"base too long", "N0CALLXX>APRS:x", true},
		{"empty digi", "N0CALL>APRS,,WIDE:x", true},
		{"too many digis", "N0CALL>APRS,A1,A2,A3,A4,A5,A6,A7,A8,A9:x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var _, err = ParseLine(tt.line, tt.strict)
			assert.Error(t, err)
		})
	}

	// Internet names are fine when not strict.
	var pp, err = ParseLine("n1otx>APRS,TCPIP*,qAC,THIRD:>hello", false)
	require.NoError(t, err)
	assert.Equal(t, "n1otx", pp.Source)
	assert.True(t, pp.PathContains("TCPIP"))
}

func TestDecodeFrameRoundTrip(t *testing.T) {
	var orig, err = ParseLine("W1ABC-9>APZSTK,K1DF-7*,WIDE2-1:>status text", true)
	require.NoError(t, err)

	var frame, packErr = orig.Pack()
	require.NoError(t, packErr)

	// Source "W1ABC" with SSID 9, not last.
	assert.Equal(t, byte('W')<<1, frame[7])
	assert.Equal(t, byte(' ')<<1, frame[12])
	assert.Equal(t, byte(0x60|9<<1), frame[13])
	// Digi with H bit.
	assert.Equal(t, byte(0xe0|7<<1), frame[20])
	// Last address bit on the final digi.
	assert.Equal(t, byte(0x60|1<<1|1), frame[27])
	assert.Equal(t, byte(AX25_UI_FRAME), frame[28])
	assert.Equal(t, byte(AX25_PID_NO_LAYER_3), frame[29])

	var pp, decErr = DecodeFrame(frame)
	require.NoError(t, decErr)
	assert.Equal(t, orig.String(), pp.String())
}

func TestDecodeFrameRejects(t *testing.T) {
	var pp, _ = ParseLine("W1ABC>APRS:>x", true)
	var good, _ = pp.Pack()

	t.Run("poll bit ignored", func(t *testing.T) {
		var f = append([]byte(nil), good...)
		f[14] = AX25_UI_FRAME | 0x10
		var _, err = DecodeFrame(f)
		assert.NoError(t, err)
	})

	t.Run("not UI", func(t *testing.T) {
		var f = append([]byte(nil), good...)
		f[14] = 0x00
		var _, err = DecodeFrame(f)
		assert.ErrorIs(t, err, ErrNotAPRS)
	})

	t.Run("wrong PID", func(t *testing.T) {
		var f = append([]byte(nil), good...)
		f[15] = 0xcf
		var _, err = DecodeFrame(f)
		assert.ErrorIs(t, err, ErrNotAPRS)
	})

	t.Run("truncated address", func(t *testing.T) {
		var _, err = DecodeFrame(good[:10])
		assert.ErrorIs(t, err, ErrBadFrame)
	})

	t.Run("no terminator", func(t *testing.T) {
		var f = append([]byte(nil), good[:14]...)
		f[13] &^= SSID_LAST_MASK
		var _, err = DecodeFrame(f)
		assert.ErrorIs(t, err, ErrBadFrame)
	})

	t.Run("only one address", func(t *testing.T) {
		var f = append([]byte(nil), good...)
		f[6] |= SSID_LAST_MASK
		var _, err = DecodeFrame(f)
		assert.ErrorIs(t, err, ErrBadFrame)
	})
}

func TestUnwrapThirdParty(t *testing.T) {
	var pp, err = ParseLine("WB0VGI-7>APDW12,W0YC-5*:}N0DZQ-10>APWW10,TCPIP,WB0VGI-7*:>hello", true)
	require.NoError(t, err)

	var inner, innerErr = pp.UnwrapThirdParty()
	require.NoError(t, innerErr)
	assert.Equal(t, "N0DZQ-10", inner.Source)
	assert.Equal(t, ">hello", inner.Info)
	assert.True(t, inner.PathContains("TCPIP"))

	_, err = inner.UnwrapThirdParty()
	assert.ErrorIs(t, err, ErrBadFrame)
}

func TestKissUnwrap(t *testing.T) {
	assert.Equal(t, []byte{0x00, 'A', FEND, 'B', FESC}, KissUnwrap([]byte{FEND, 0x00, 'A', FESC, TFEND, 'B', FESC, TFESC, FEND}))

	// Second frame delimiter in the middle truncates.
	assert.Equal(t, []byte{0x00, 'A'}, KissUnwrap([]byte{FEND, 0x00, 'A', FEND, 'B', FEND}))

	assert.Empty(t, KissUnwrap([]byte{FEND}))

	var in = []byte{0x00, FEND, 'x', FESC, 'y'}
	assert.Equal(t, in, KissUnwrap(KissEncapsulate(in)))
}

func TestKissReader(t *testing.T) {
	var pp, _ = ParseLine("W1ABC>APRS:>hello", true)
	var frame, _ = pp.Pack()

	var stream []byte
	stream = append(stream, "noise"...)
	stream = append(stream, KissEncapsulate(append([]byte{0x10}, frame...))...)
	stream = append(stream, FEND)                                            // idle fill
	stream = append(stream, KissEncapsulate([]byte{0x01, 0x20})...)          // TXDELAY, ignored
	stream = append(stream, KissEncapsulate(append([]byte{0x00}, frame...))...) // shares FEND with previous

	var kr = NewKissReader(bytes.NewReader(stream))

	var ch, f, err = kr.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, ch)
	assert.Equal(t, frame, f)

	ch, f, err = kr.Next()
	require.NoError(t, err)
	assert.Equal(t, 0, ch)
	assert.Equal(t, frame, f)

	_, _, err = kr.Next()
	assert.Error(t, err)
}
