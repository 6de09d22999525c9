package tracker

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var objectTime = time.Date(2024, 3, 11, 16, 18, 0, 0, time.UTC)

func testObject(t *testing.T, flags StationFlags) *Station {
	var lat, ok1 = ConvertLatS2L("3501.63N")
	var lon, ok2 = ConvertLonS2L("10612.38W")
	require.True(t, ok1 && ok2)

	return &Station{
		Call:   "TEST",
		Lat:    lat,
		Lon:    lon,
		Symbol: Symbol{Table: '/', Code: '/'},
		Flags:  flags,
	}
}

func TestEncodeObjectItem(t *testing.T) {
	var tests = []struct {
		name     string
		flags    StationFlags
		course   string
		speed    string
		expected string
	}{
		{"object", ST_OBJECT | ST_ACTIVE, "", "", ";TEST     *111618z3501.63N/10612.38W/"},
		{"item", ST_ITEM | ST_ACTIVE, "", "", ")TEST!3501.63N/10612.38W/"},
		{"killed object", ST_OBJECT, "", "", ";TEST     _111618z3501.63N/10612.38W/"},
		{"killed item", ST_ITEM, "", "", ")TEST_3501.63N/10612.38W/"},
		{"object course speed", ST_OBJECT | ST_ACTIVE, "90", "5", ";TEST     *111618z3501.63N/10612.38W/090/005"},
		{"item course speed", ST_ITEM | ST_ACTIVE, "90", "5", ")TEST!3501.63N/10612.38W/090/005"},
		{"speed only", ST_ITEM | ST_ACTIVE, "", "5", ")TEST!3501.63N/10612.38W/.../005"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var st = testObject(t, tc.flags)
			st.Course, st.Speed = tc.course, tc.speed

			var info, err = EncodeObjectItem(st, objectTime, false)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, info)
		})
	}
}

// Positions held to a thousandth of a minute lose the last digit.
func TestEncodeObjectHighPrecision(t *testing.T) {
	var st = testObject(t, ST_OBJECT|ST_ACTIVE)

	var lat, ok1 = ConvertLatS2L("3501.639N")
	var lon, ok2 = ConvertLonS2L("10612.385W")
	require.True(t, ok1 && ok2)
	st.Lat, st.Lon = lat, lon

	var info, err = EncodeObjectItem(st, objectTime, false)
	require.NoError(t, err)
	assert.Equal(t, ";TEST     *111618z3501.63N/10612.38W/", info)

	st.Flags = ST_ITEM | ST_ACTIVE
	info, err = EncodeObjectItem(st, objectTime, false)
	require.NoError(t, err)
	assert.Equal(t, ")TEST!3501.63N/10612.38W/", info)
}

func TestEncodeObjectItemErrors(t *testing.T) {
	var st = testObject(t, ST_ACTIVE)
	var _, err = EncodeObjectItem(st, objectTime, false)
	assert.ErrorIs(t, err, ErrNotObject)

	st = testObject(t, ST_ITEM|ST_ACTIVE)
	st.Call = "AB"
	_, err = EncodeObjectItem(st, objectTime, false)
	assert.ErrorIs(t, err, ErrBadObjectName)

	st = testObject(t, ST_OBJECT|ST_ACTIVE)
	st.Lat, st.Lon = 0, 0
	_, err = EncodeObjectItem(st, objectTime, false)
	assert.ErrorIs(t, err, ErrNoPosition)
}

func TestEncodeObjectExtensions(t *testing.T) {
	var st = testObject(t, ST_OBJECT|ST_ACTIVE)
	st.Symbol = Symbol{Table: '\\', Code: 'l'}
	st.Area = &AreaObject{Type: AREA_LINE_RIGHT, Color: 11, SqrtLatOff: 5, SqrtLonOff: 7, CorridorWidth: 20}
	st.Course, st.Speed = "090", "005"

	var info, err = EncodeObjectItem(st, objectTime, false)
	require.NoError(t, err)
	assert.Equal(t, ";TEST     *111618z3501.63N\\10612.38Wl605/B07{20}", info)

	var r = Decode(&Packet{Source: "N0CALL", Dest: "APRS", Info: info})
	require.Equal(t, REPORT_OBJECT, r.Kind)
	require.NotNil(t, r.Area)
	assert.Equal(t, *st.Area, *r.Area)
	assert.Empty(t, r.Speed)

	st = testObject(t, ST_OBJECT|ST_ACTIVE)
	st.Symbol = Symbol{Table: '\\', Code: 'm'}
	st.Signpost = "55"
	st.Altitude = "1200"
	info, err = EncodeObjectItem(st, objectTime, false)
	require.NoError(t, err)
	assert.Equal(t, ";TEST     *111618z3501.63N\\10612.38Wm/A=001200{55}", info)

	r = Decode(&Packet{Source: "N0CALL", Dest: "APRS", Info: info})
	assert.Equal(t, "55", r.Signpost)
	assert.Equal(t, "1200", r.Altitude)

	st = testObject(t, ST_ITEM|ST_ACTIVE)
	st.Symbol = Symbol{Table: '/', Code: '\\'}
	st.SignalGain = "DFS2360"
	info, err = EncodeObjectItem(st, objectTime, false)
	require.NoError(t, err)
	assert.Equal(t, ")TEST!3501.63N/10612.38W\\DFS2360", info)

	st.SignalGain = ""
	st.Bearing, st.NRQ = "88", "853"
	st.Course, st.Speed = "120", "010"
	info, err = EncodeObjectItem(st, objectTime, false)
	require.NoError(t, err)
	assert.Equal(t, ")TEST!3501.63N/10612.38W\\120/010/088/853", info)

	r = Decode(&Packet{Source: "N0CALL", Dest: "APRS", Info: info})
	assert.Equal(t, "088", r.Bearing)
	assert.Equal(t, "853", r.NRQ)
	assert.Empty(t, r.Comment)
}

// Area and DF extensions only go with the symbols that can carry them,
// so whatever is written decodes the same way.
func TestEncodeObjectExtensionSymbols(t *testing.T) {
	var st = testObject(t, ST_OBJECT|ST_ACTIVE)
	st.Area = &AreaObject{Type: AREA_OPEN_BOX, Color: 1, SqrtLatOff: 2, SqrtLonOff: 3}
	st.Course, st.Speed = "090", "005"

	var info, err = EncodeObjectItem(st, objectTime, false)
	require.NoError(t, err)
	assert.Equal(t, ";TEST     *111618z3501.63N/10612.38W/090/005", info)

	var r = Decode(&Packet{Source: "N0CALL", Dest: "APRS", Info: info})
	assert.Nil(t, r.Area)
	assert.Equal(t, "090", r.Course)

	st = testObject(t, ST_ITEM|ST_ACTIVE)
	st.Symbol = Symbol{Table: '/', Code: '>'}
	st.Bearing, st.NRQ = "88", "853"
	st.Course, st.Speed = "120", "010"

	info, err = EncodeObjectItem(st, objectTime, false)
	require.NoError(t, err)
	assert.Equal(t, ")TEST!3501.63N/10612.38W>120/010", info)

	r = Decode(&Packet{Source: "N0CALL", Dest: "APRS", Info: info})
	assert.Empty(t, r.Bearing)
	assert.Empty(t, r.Comment)
}

func TestEncodeObjectCommentBudget(t *testing.T) {
	var st = testObject(t, ST_OBJECT|ST_ACTIVE)
	st.Comments = addTimedText(nil, strings.Repeat("x", 100), objectTime, MAX_COMMENT_LINES)

	var info, err = EncodeObjectItem(st, objectTime, false)
	require.NoError(t, err)
	assert.Len(t, info, MAX_OBJECT_INFO)
	assert.True(t, strings.HasPrefix(info, ";TEST     *111618z3501.63N/10612.38W/xxx"))

	st.Flags = ST_ITEM | ST_ACTIVE
	info, err = EncodeObjectItem(st, objectTime, false)
	require.NoError(t, err)
	assert.Len(t, info, MAX_ITEM_INFO+len("TEST"))
}

func TestFormatCourseSpeed(t *testing.T) {
	var tests = []struct {
		course, speed string
		expected      string
		c, s          int
	}{
		{"090", "005", "090/005", 90, 5},
		{"390", "005", ".../005", 0, 5},
		{"", "005", ".../005", 0, 5},
		{"090", "1005", "090/...", 90, 0},
		{"090", "", "090/...", 90, 0},
		{"", "", "", 0, 0},
		{"0", "", "360/...", 0, 0},
	}

	for _, tc := range tests {
		t.Run(tc.course+"/"+tc.speed, func(t *testing.T) {
			var out, c, s = FormatCourseSpeed(tc.course, tc.speed)
			assert.Equal(t, tc.expected, out)
			assert.Equal(t, tc.c, c)
			assert.Equal(t, tc.s, s)
		})
	}
}

func TestEncodePosition(t *testing.T) {
	var lat, _ = ConvertLatS2L("4903.50N")
	var lon, _ = ConvertLonS2L("07201.75W")
	var st = &Station{Call: "N0CALL", Lat: lat, Lon: lon, Symbol: Symbol{Table: '/', Code: '>'}}

	assert.Equal(t, "=4903.50N/07201.75W>Test", EncodePosition(st, 0, false, "Test"))

	st.Course, st.Speed, st.Altitude = "090", "036", "1234"
	assert.Equal(t, "=4903.50N/07201.75W>090/036/A=001234Test", EncodePosition(st, 0, false, "Test"))

	st.Course, st.Speed, st.Altitude = "", "", ""
	var info = EncodePosition(st, 3, false, "")
	assert.Equal(t, "=490 .  N/0720 .  W>", info)

	var r = Decode(&Packet{Source: "N0CALL", Dest: "APRS", Info: info})
	require.Equal(t, REPORT_POSITION, r.Kind)
	assert.Equal(t, 3, r.PosAmb)
	assert.Equal(t, "4905.00N", LatToString(r.Lat, 2))

	info = EncodePosition(st, 2, true, "")
	r = Decode(&Packet{Source: "N0CALL", Dest: "APRS", Info: info})
	require.Equal(t, REPORT_POSITION, r.Kind)
	assert.True(t, r.Compressed)
	assert.InDelta(t, float64(LatFromDegrees(49+3.0/60)), float64(r.Lat), 2)
}

func TestEncodeMessage(t *testing.T) {
	assert.Equal(t, ":WB2OSZ-15:Hello{42}", EncodeMessage("WB2OSZ-15", "Hello", "42", ""))
	assert.Equal(t, ":N0CALL   :Hi{4A}01", EncodeMessage("N0CALL", "Hi", "4A", "01"))
	assert.Equal(t, ":BLN1     :Net tonight", EncodeMessage("BLN1", "Net tonight", "", ""))
	assert.Equal(t, ":N0CALL   :ack001", EncodeAck("N0CALL", "001"))

	var r = Decode(&Packet{Source: "W1ABC", Dest: "APRS", Info: EncodeMessage("N0CALL", "Hi", "4A", "01")})
	require.Equal(t, REPORT_MESSAGE, r.Kind)
	assert.Equal(t, "4A", r.Message.Seq)
	assert.Equal(t, "01", r.Message.ReplyAck)
}

// Anything encoded decodes back to the same position, symbol and comment.
func TestObjectRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var compressed = rapid.Bool().Draw(t, "compressed")
		var item = rapid.Bool().Draw(t, "item")
		var killed = rapid.Bool().Draw(t, "killed")

		var st = &Station{
			Call: rapid.StringMatching(`[A-Z][A-Z0-9]{2,8}`).Draw(t, "name"),
			Lat:  rapid.Int64Range(LAT_EQUATOR-85*CENTISEC_PER_DEGREE, LAT_EQUATOR+85*CENTISEC_PER_DEGREE).Draw(t, "lat"),
			Lon:  rapid.Int64Range(CENTISEC_PER_DEGREE, LON_MAX-CENTISEC_PER_DEGREE).Draw(t, "lon"),
			Symbol: Symbol{
				Table: rapid.SampledFrom([]byte{'/', '\\'}).Draw(t, "table"),
				Code:  rapid.SampledFrom([]byte{'>', '-', 'k', '/', 'j'}).Draw(t, "code"),
			},
		}

		st.Flags = IfThenElse(item, ST_ITEM, ST_OBJECT)
		if !killed {
			st.Flags |= ST_ACTIVE
		}

		var comment = rapid.StringMatching(`[a-z][a-z0-9 .]{0,20}[a-z]`).Draw(t, "comment")
		st.Comments = addTimedText(nil, comment, objectTime, MAX_COMMENT_LINES)

		if rapid.Bool().Draw(t, "moving") {
			st.Course = fmt.Sprintf("%03d", rapid.IntRange(1, 360).Draw(t, "course"))
			st.Speed = fmt.Sprintf("%03d", rapid.IntRange(1, 200).Draw(t, "speed"))
		}

		var info, err = EncodeObjectItem(st, objectTime, compressed)
		require.NoError(t, err)

		var r = Decode(&Packet{Source: "N0CALL", Dest: "APRS", Info: info})
		require.Equal(t, IfThenElse(item, REPORT_ITEM, REPORT_OBJECT), r.Kind, info)
		require.Equal(t, st.Call, r.Name)
		require.Equal(t, killed, r.Killed)
		require.Equal(t, st.Symbol, r.Symbol)
		require.Equal(t, comment, r.Comment, info)

		var tolerance = IfThenElse(compressed, 2.0, 59.0)
		require.InDelta(t, float64(st.Lat), float64(r.Lat), tolerance)
		require.InDelta(t, float64(st.Lon), float64(r.Lon), tolerance)

		if st.Course != "" && !compressed {
			require.Equal(t, st.Course, r.Course)
			require.Equal(t, st.Speed, r.Speed)
		}
	})
}
