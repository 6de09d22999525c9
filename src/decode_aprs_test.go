package tracker

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func decodeLine(t *testing.T, line string) *Report {
	t.Helper()

	var pp, err = ParseLine(line, false)
	require.NoError(t, err)

	return Decode(pp)
}

func TestDecodePlainPosition(t *testing.T) {
	var r = decodeLine(t, "N0CALL>APRS,WIDE2-1:!4903.50N/07201.75W>Test")

	assert.Equal(t, REPORT_POSITION, r.Kind)
	assert.Equal(t, "N0CALL", r.Name)
	assert.True(t, r.HasPosition)
	assert.Equal(t, int64(14739000), r.Lat)
	assert.Equal(t, int64(38869500), r.Lon)
	assert.Equal(t, 0, r.PosAmb)
	assert.Equal(t, Symbol{Table: '/', Code: '>'}, r.Symbol)
	assert.Equal(t, "Test", r.Comment)
	assert.Equal(t, NORMAL_APRS, r.RecordType)
	assert.False(t, r.MsgCap)
	assert.Equal(t, "N 49 03.500 W 072 01.750", FormatDegMin(r.Lat, r.Lon))
}

func TestDecodeAmbiguity(t *testing.T) {
	var r = decodeLine(t, "N0CALL>APRS:=490 .  N/0720 .  W-")

	assert.Equal(t, 3, r.PosAmb)
	assert.True(t, r.MsgCap)

	// Middle of the 10 minute box 49 00 to 49 10.
	assert.Equal(t, int64(LAT_EQUATOR-(49*CENTISEC_PER_DEGREE+5*CENTISEC_PER_MINUTE)), r.Lat)
	assert.Equal(t, int64(LON_GREENWICH-(72*CENTISEC_PER_DEGREE+5*CENTISEC_PER_MINUTE)), r.Lon)
}

func TestDecodeAmbiguityCentre(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var deg = rapid.IntRange(0, 89).Draw(t, "deg")
		var min = rapid.IntRange(0, 59).Draw(t, "min")
		var hun = rapid.IntRange(0, 99).Draw(t, "hun")
		var level = rapid.IntRange(1, 4).Draw(t, "level")

		var slat = []byte(fmt.Sprintf("%02d%02d.%02dN", deg, min, hun))
		var slon = []byte(fmt.Sprintf("%03d%02d.%02dW", deg, min, hun))
		for i := 0; i < level; i++ {
			slat[ambiguityPositions[i]] = ' '
			slon[ambiguityPositions[i]+1] = ' '
		}

		var pp = &Packet{Source: "N0CALL", Dest: "APRS", Info: "!" + string(slat) + "/" + string(slon) + "-"}
		var r = Decode(pp)
		require.Equal(t, REPORT_POSITION, r.Kind)
		require.Equal(t, level, r.PosAmb)

		var base = int64(deg) * CENTISEC_PER_DEGREE
		var want int64
		switch level {
		case 1:
			want = base + int64(min)*CENTISEC_PER_MINUTE + int64(hun/10)*600 + 300
		case 2:
			want = base + int64(min)*CENTISEC_PER_MINUTE + 3000
		case 3:
			want = base + int64(min/10*10+5)*CENTISEC_PER_MINUTE
		case 4:
			want = base + 30*CENTISEC_PER_MINUTE
		}

		assert.Equal(t, LAT_EQUATOR-want, r.Lat)
		assert.Equal(t, LON_GREENWICH-want, r.Lon)
	})
}

func TestExtractSpeedCourse(t *testing.T) {
	tests := []struct {
		in     string
		course string
		speed  string
		rest   string
		ok     bool
	}{
		{"090/036more data", "090", "036", "more data", true},
		{"180/050", "180", "050", "", true},
		{"000/025data", "", "025", "data", true},
		{"1 0/ 25rest", "", "", "rest", true},
		{"1.2/3.4more", "", "", "more", true},
		{"1.0/0 5data", "", "", "data", true},
		{"360/999end", "360", "999", "end", true},
		{"001/002text", "001", "002", "text", true},
		{"090-036data", "", "", "090-036data", false},
		{"090/03", "", "", "090/03", false},
		{"ABC/DEFdata", "", "", "ABC/DEFdata", false},
		{"123/45Xrest", "", "", "123/45Xrest", false},
		{"", "", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			var course, speed, rest, ok = extractSpeedCourse(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.course, course)
			assert.Equal(t, tt.speed, speed)
			assert.Equal(t, tt.rest, rest)
		})
	}
}

func TestDecodeCompressed(t *testing.T) {
	var r = decodeLine(t, "N0CALL>APRS:=/5L!!<*e7>7P[comment")

	assert.True(t, r.Compressed)
	assert.Equal(t, int64(14580000), r.Lat)
	assert.Equal(t, int64(38609998), r.Lon)
	assert.Equal(t, Symbol{Table: '/', Code: '>'}, r.Symbol)
	assert.Equal(t, "088", r.Course)
	assert.Equal(t, "036", r.Speed)
	assert.Equal(t, MOBILE_APRS, r.RecordType)
	assert.Equal(t, "comment", r.Comment)

	// Altitude, cut to whole feet.
	r = decodeLine(t, "N0CALL>APRS:=/5L!!<*e7>S]S")
	assert.Equal(t, "10004", r.Altitude)
	assert.Empty(t, r.Course)

	// No course/speed.
	r = decodeLine(t, "N0CALL>APRS:!/5L!!<*e7>  A")
	assert.True(t, r.HasPosition)
	assert.Empty(t, r.Course)
	assert.Empty(t, r.Speed)

	// Overlay from the lower case table.
	r = decodeLine(t, "N0CALL>APRS:!a5L!!<*e7#  A")
	assert.Equal(t, Symbol{Table: '\\', Code: '#', Overlay: '0'}, r.Symbol)
}

func TestDecodeOverlayPHG(t *testing.T) {
	var r = decodeLine(t, "WB2OSZ-1>APN383,qAR,N1EDU-2:!4237.14NS07120.83W#PHG7130Chelmsford, MA")

	assert.Equal(t, Symbol{Table: '\\', Code: '#', Overlay: 'S'}, r.Symbol)
	assert.Equal(t, "S#", r.Symbol.String())
	assert.Equal(t, int64(17057160), r.Lat)
	assert.Equal(t, int64(39115020), r.Lon)
	assert.Equal(t, "PHG7130", r.PowerGain)
	assert.Equal(t, "Chelmsford, MA", r.Comment)
}

func TestDecodeExtensions(t *testing.T) {
	t.Run("altitude", func(t *testing.T) {
		var r = decodeLine(t, "N0CALL>APRS:!4903.50N/07201.75W>088/036/A=001234 going")
		assert.Equal(t, "088", r.Course)
		assert.Equal(t, "036", r.Speed)
		assert.Equal(t, "1234", r.Altitude)
		assert.Equal(t, "going", r.Comment)
	})

	t.Run("range", func(t *testing.T) {
		var r = decodeLine(t, "N0CALL>APRS:!4903.50N/07201.75W#RNG0050 digi")
		assert.Equal(t, "RNG0050", r.PowerGain)
		assert.Equal(t, "digi", r.Comment)
	})

	t.Run("DF strength", func(t *testing.T) {
		var r = decodeLine(t, "N0CALL>APRS:!4903.50N/07201.75W\\DFS2360")
		assert.Equal(t, "DFS2360", r.SignalGain)
	})

	t.Run("area", func(t *testing.T) {
		var r = decodeLine(t, "N0CALL>APRS:!4903.50N\\07201.75Wl105/a10{012}road works")
		require.NotNil(t, r.Area)
		assert.Equal(t, AREA_LINE_LEFT, r.Area.Type)
		assert.Equal(t, byte(10), r.Area.Color)
		assert.Equal(t, byte(5), r.Area.SqrtLatOff)
		assert.Equal(t, byte(10), r.Area.SqrtLonOff)
		assert.Equal(t, uint16(12), r.Area.CorridorWidth)
		assert.Equal(t, "road works", r.Comment)
	})

	t.Run("signpost", func(t *testing.T) {
		var r = decodeLine(t, "N0CALL>APRS:!4903.50N\\07201.75Wm{55}Speed limit")
		assert.Equal(t, "55", r.Signpost)
		assert.Equal(t, "Speed limit", r.Comment)
	})

	t.Run("DAO stays", func(t *testing.T) {
		var r = decodeLine(t, "N0CALL>APRS:!4903.50N/07201.75W>!W12!")
		assert.Equal(t, "!W12!", r.Comment)
	})
}

func TestDecodeMultipoint(t *testing.T) {
	var r = decodeLine(t, "N0CALL>APRS:!4903.50N/07201.75W> }b0!NNXX{seq")

	require.NotNil(t, r.Multipoint)
	assert.Equal(t, byte('b'), r.Multipoint.Style)
	assert.Equal(t, byte('0'), r.Multipoint.Type)
	assert.Equal(t, [][2]int64{{r.Lon, r.Lat}, {r.Lon + 360, r.Lat + 360}}, r.Multipoint.Points)
	assert.Equal(t, "seq", r.Comment)

	// One bad pair loses the lot.
	r = decodeLine(t, "N0CALL>APRS:!4903.50N/07201.75W> }b0!NN~X{seq")
	assert.Nil(t, r.Multipoint)
	assert.Equal(t, "}b0!NN~X{seq", r.Comment)
}

func TestDecodeTimestampAndDF(t *testing.T) {
	tests := []struct {
		name    string
		info    string
		rt      RecordType
		msgcap  bool
		bearing string
		nrq     string
	}{
		{"moving", "@092345z4903.50N/07201.75W>088/036", MOBILE_APRS, true, "", ""},
		{"DF", "@092345z4903.50N/07201.75W\\088/036/270/729", DF_APRS, true, "270", "729"},
		{"bare", "@092345z4903.50N/07201.75W>", DF_APRS, false, "", ""},
		{"no messaging", "/092345z4903.50N/07201.75W>088/036", MOBILE_APRS, false, "", ""},
		{"hms", "/234517h4903.50N/07201.75W-", NORMAL_APRS, false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r = decodeLine(t, "N0CALL>APRS:"+tt.info)
			require.Equal(t, REPORT_POSITION, r.Kind)
			assert.Equal(t, tt.rt, r.RecordType)
			assert.Equal(t, tt.msgcap, r.MsgCap)
			assert.Equal(t, tt.bearing, r.Bearing)
			assert.Equal(t, tt.nrq, r.NRQ)
			assert.Equal(t, tt.info[1:8], r.Timestamp)
		})
	}

	// Bad timestamp, not decoded.
	var r = decodeLine(t, "N0CALL>APRS:@992345z4903.50N/07201.75W>")
	assert.Equal(t, REPORT_UNKNOWN, r.Kind)
	assert.Equal(t, "@992345z4903.50N/07201.75W>", r.Status)
}

func TestDecodeMicE(t *testing.T) {
	var r = decodeLine(t, "N1ZZN-9>T2SP0W:`c_Vm6hk/`\"49}Jeff Mobile_%")

	require.Equal(t, REPORT_POSITION, r.Kind)
	assert.Equal(t, int64(17099580), r.Lat)
	assert.Equal(t, int64(39194520), r.Lon)
	assert.Equal(t, "012", r.Speed)
	assert.Equal(t, "276", r.Course)
	assert.Equal(t, Symbol{Table: '/', Code: 'k'}, r.Symbol)
	assert.Equal(t, "In Service", r.MicEStatus)
	assert.False(t, r.Emergency)
	assert.Equal(t, "112", r.Altitude)
	assert.Equal(t, "Jeff Mobile_%", r.Comment)
	assert.Equal(t, MOBILE_APRS, r.RecordType)
	assert.True(t, r.MsgCap)
}

func TestDecodeMicERejects(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"short", "N1ZZN-9>T2SP0W:`c_Vm6h"},
		{"overlay table", "N1ZZN-9>T2SP0W:`c_Vm6hkA"},
		{"bad symbol", "N1ZZN-9>T2SP0W:`c_Vm6h /"},
		{"bad destination", "N1ZZN-9>T2SP0!:`c_Vm6hk/"},
		{"short destination", "N1ZZN-9>T2SP:`c_Vm6hk/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var pp = &Packet{Source: "N1ZZN-9"}
			var _, rest, _ = cutHeader(tt.line)
			pp.Dest, pp.Info = rest[0], rest[1]
			assert.Equal(t, REPORT_UNKNOWN, Decode(pp).Kind)
		})
	}
}

// cutHeader is just enough of a parser to allow destinations ParseLine refuses.
func cutHeader(line string) (string, [2]string, bool) {
	var gt, colon = -1, -1
	for i := 0; i < len(line); i++ {
		if line[i] == '>' && gt < 0 {
			gt = i
		}
		if line[i] == ':' && colon < 0 {
			colon = i
		}
	}
	if gt < 0 || colon < gt {
		return "", [2]string{}, false
	}

	return line[:gt], [2]string{line[gt+1 : colon], line[colon+1:]}, true
}

func TestMicEMessage(t *testing.T) {
	assert.Equal(t, "Emergency", micEMessage(0, 0))
	assert.Equal(t, "Off Duty", micEMessage(7, 0))
	assert.Equal(t, "Priority", micEMessage(1, 0))
	assert.Equal(t, "Custom-0", micEMessage(0, 7))
	assert.Equal(t, "Custom-6", micEMessage(0, 1))
	assert.Equal(t, "Unknown", micEMessage(4, 1))
}

func TestDecodeMicEEmergency(t *testing.T) {
	// All message bits clear.
	var r = decodeLine(t, "N1ZZN-9>420P07:`c_Vm6hk/")
	assert.Equal(t, MICE_EMERGENCY, r.MicEStatus)
	assert.True(t, r.Emergency)
}

func TestDecodeObjectItem(t *testing.T) {
	var r = decodeLine(t, "N0CALL>APRS:;TEST     *111618z3501.63N/10612.38W/")
	require.Equal(t, REPORT_OBJECT, r.Kind)
	assert.Equal(t, "TEST", r.Name)
	assert.False(t, r.Killed)
	assert.Equal(t, "111618z", r.Timestamp)
	assert.Equal(t, Symbol{Table: '/', Code: '/'}, r.Symbol)

	r = decodeLine(t, "N0CALL>APRS:;OBJ1     _111618z3501.63N/10612.38W/")
	assert.Equal(t, "OBJ1", r.Name)
	assert.True(t, r.Killed)

	r = decodeLine(t, "N0CALL>APRS:)TEST!3501.63N/10612.38W/088/005comment")
	require.Equal(t, REPORT_ITEM, r.Kind)
	assert.Equal(t, "TEST", r.Name)
	assert.False(t, r.Killed)
	assert.Equal(t, "005", r.Speed)
	assert.Equal(t, "comment", r.Comment)

	r = decodeLine(t, "N0CALL>APRS:)AID #2_3501.63N/10612.38W/")
	assert.Equal(t, "AID #2", r.Name)
	assert.True(t, r.Killed)

	// Name too short.
	r = decodeLine(t, "N0CALL>APRS:)AB!3501.63N/10612.38W/")
	assert.Equal(t, REPORT_UNKNOWN, r.Kind)
}

func TestDecodeWeather(t *testing.T) {
	t.Run("complete", func(t *testing.T) {
		var r = decodeLine(t, "N0CALL>APRS:!4903.50N/07201.75W_220/004g005t077r000p000P000h50b09900wRSW")
		require.NotNil(t, r.Weather)
		assert.Equal(t, APRS_WX1, r.RecordType)
		assert.Equal(t, "220", r.Weather.Course)
		assert.Equal(t, "004", r.Weather.Speed)
		assert.Equal(t, "005", r.Weather.Gust)
		assert.Equal(t, "077", r.Weather.Temp)
		assert.Equal(t, "000", r.Weather.Rain)
		assert.Equal(t, "000", r.Weather.Prec24)
		assert.Equal(t, "000", r.Weather.Prec00)
		assert.Equal(t, "050", r.Weather.Humidity)
		assert.Equal(t, "990.0", r.Weather.Baro)
		assert.Empty(t, r.Course)
		assert.Equal(t, "wRSW", r.Comment)
	})

	t.Run("blank is absent", func(t *testing.T) {
		var r = decodeLine(t, "N0CALL>APRS:!4903.50N/07201.75W_.../...g...t-07h00b.....")
		require.NotNil(t, r.Weather)
		assert.Empty(t, r.Weather.Course)
		assert.Empty(t, r.Weather.Gust)
		assert.Equal(t, "-07", r.Weather.Temp)
		assert.Equal(t, "100", r.Weather.Humidity)
		assert.Empty(t, r.Weather.Baro)
	})

	t.Run("compressed", func(t *testing.T) {
		var r = decodeLine(t, "N0CALL>APRS:=/5L!!<*e7_7P[g005t077r000p000P000h50b09900wRSW")
		require.NotNil(t, r.Weather)
		assert.Equal(t, "088", r.Weather.Course)
		assert.Equal(t, "041", r.Weather.Speed)
		assert.Empty(t, r.Course)
		assert.Empty(t, r.Speed)
	})

	t.Run("positionless", func(t *testing.T) {
		var r = decodeLine(t, "N0CALL>APRS:_10090556c220s004g005t077r000p000P000h50b09900wRSW")
		require.Equal(t, REPORT_WEATHER, r.Kind)
		assert.Equal(t, APRS_WX4, r.RecordType)
		assert.False(t, r.HasPosition)
		assert.Equal(t, "220", r.Weather.Course)
		assert.Equal(t, "004", r.Weather.Speed)
		assert.Equal(t, "077", r.Weather.Temp)
		assert.Equal(t, byte('w'), r.Weather.Type)
		assert.Equal(t, "RSW", r.Weather.Station)
	})

	t.Run("object", func(t *testing.T) {
		var r = decodeLine(t, "N0CALL>APRS:;BRENDA   *092345z4903.50N/07201.75W_220/004g005b0990")
		require.NotNil(t, r.Weather)
		assert.Equal(t, APRS_WX6, r.RecordType)
		assert.Equal(t, "220", r.Weather.Course)
	})
}

func TestDecodeStorm(t *testing.T) {
	var r = decodeLine(t, "N0CALL>APRS:;HURRICANE*092345z3520.00N\\07500.00W@090/010/HC150^200/0980>030&060%090 Alice")

	require.Equal(t, REPORT_OBJECT, r.Kind)
	require.NotNil(t, r.Weather)
	assert.True(t, r.Weather.Storm)
	assert.Equal(t, "HC", r.Weather.StormType)
	assert.Equal(t, "172.6", r.Weather.Speed)
	assert.Equal(t, "230.2", r.Weather.Gust)
	assert.Equal(t, "0980", r.Weather.Pressure)
	assert.Equal(t, "030", r.Weather.HurrRadius)
	assert.Equal(t, "060", r.Weather.TropRadius)
	assert.Equal(t, "090", r.Weather.GaleRadius)
	assert.Equal(t, "090", r.Course)
	assert.Equal(t, "010", r.Speed)
	assert.Equal(t, "Alice", r.Comment)

	// Any tag anywhere, not just the first one found.
	var wx, course, speed, rest, ok = extractStorm("/TS 090/010/TS150^200/0980>030&060%090")
	require.True(t, ok)
	assert.Equal(t, "TS", wx.StormType)
	assert.Equal(t, "090", course)
	assert.Equal(t, "010", speed)
	assert.Equal(t, "/TS ", rest)

	wx, _, _, rest, ok = extractStorm("090/010/SC150^200/0980>030&060%090 not /TS")
	require.True(t, ok)
	assert.Equal(t, "SC", wx.StormType)
	assert.Equal(t, " not /TS", rest)

	_, _, _, rest, ok = extractStorm("090/010/TS150")
	assert.False(t, ok)
	assert.Equal(t, "090/010/TS150", rest)
}

func TestDecodePeetBros(t *testing.T) {
	var r = decodeLine(t, "N0CALL>APRS:*5027A0010")
	require.Equal(t, REPORT_WEATHER, r.Kind)
	assert.Equal(t, APRS_WX3, r.RecordType)
	assert.Equal(t, "112", r.Weather.Course)
	assert.Equal(t, "002", r.Weather.Speed)
	assert.Equal(t, "066", r.Weather.Temp)
	assert.Equal(t, "0.16", r.Weather.RainTotal)

	r = decodeLine(t, "N0CALL>APRS:#5027A")
	assert.Equal(t, APRS_WX2, r.RecordType)
	assert.Equal(t, "001", r.Weather.Speed)
	assert.Empty(t, r.Weather.RainTotal)
}

func TestDecodeUltimeter(t *testing.T) {
	var r = decodeLine(t, "N0CALL>APRS:$ULTW0031003702CE0069----000086A00001----011901CC00000005")
	require.Equal(t, REPORT_WEATHER, r.Kind)
	assert.Equal(t, APRS_WX5, r.RecordType)
	assert.Equal(t, "003", r.Weather.Gust)
	assert.Equal(t, "000", r.Weather.Speed)
	assert.Equal(t, "077", r.Weather.Course)
	assert.Equal(t, "071", r.Weather.Temp)
	assert.Equal(t, "1.05", r.Weather.RainTotal)
	assert.Empty(t, r.Weather.Baro)
	assert.Empty(t, r.Weather.Humidity)
	assert.Equal(t, "000", r.Weather.Prec00)

	r = decodeLine(t, "N0CALL>APRS:!!0031003702CE006927A0000003E80000")
	require.Equal(t, REPORT_WEATHER, r.Kind)
	assert.Equal(t, "003", r.Weather.Speed)
	assert.Equal(t, "1014.4", r.Weather.Baro)
	assert.Equal(t, "100", r.Weather.Humidity)
}

func TestDecodeNMEA(t *testing.T) {
	var r = decodeLine(t, "N0CALL>GPS:$GPRMC,003413.710,A,4237.1240,N,07120.8333,W,5.07,291.42,160614,,,A*7F")
	require.Equal(t, REPORT_POSITION, r.Kind)
	assert.Equal(t, NORMAL_GPS_RMC, r.RecordType)
	assert.InDelta(t, 42.618733, LatToDegrees(r.Lat), 0.00001)
	assert.InDelta(t, -71.347222, LonToDegrees(r.Lon), 0.00001)
	assert.Equal(t, "005", r.Speed)
	assert.Equal(t, "291", r.Course)

	// Checksum is optional.
	r = decodeLine(t, "N0CALL>GPS:$GPGGA,003518.710,4237.1250,N,07120.8327,W,1,05,5.9,33.5,M,-33.5,M,,0000")
	require.Equal(t, REPORT_POSITION, r.Kind)
	assert.Equal(t, NORMAL_GPS_GGA, r.RecordType)
	assert.Equal(t, "110", r.Altitude)
	assert.Equal(t, "05", r.Sats)

	// But not wrong.
	r = decodeLine(t, "N0CALL>GPS:$GPRMC,003413.710,A,4237.1240,N,07120.8333,W,5.07,291.42,160614,,,A*00")
	assert.Equal(t, REPORT_UNKNOWN, r.Kind)

	// No fix.
	r = decodeLine(t, "N0CALL>GPS:$GPRMC,001431.00,V,,,,,,,121015,,,N*7C")
	assert.Equal(t, REPORT_UNKNOWN, r.Kind)
}

func TestDecodeMessage(t *testing.T) {
	tests := []struct {
		name      string
		addressee string
		text      string
		want      AprsMessage
	}{
		{"plain", "N0CALL2", "Hello{001", AprsMessage{Subtype: MESSAGE_TEXT, Addressee: "N0CALL2", Text: "Hello", Seq: "001"}},
		{"no number", "N0CALL2", "Hello", AprsMessage{Subtype: MESSAGE_TEXT, Addressee: "N0CALL2", Text: "Hello"}},
		{"reply ack", "N0CALL2", "Hi{AB}CD", AprsMessage{Subtype: MESSAGE_TEXT, Addressee: "N0CALL2", Text: "Hi", Seq: "AB", ReplyAck: "CD"}},
		{"ack", "N0CALL", "ack001", AprsMessage{Subtype: MESSAGE_ACK, Addressee: "N0CALL", Seq: "001"}},
		{"reply ack ack", "N0CALL", "ackAB}", AprsMessage{Subtype: MESSAGE_ACK, Addressee: "N0CALL", Seq: "AB"}},
		{"upper case rej", "N0CALL", "REJ7", AprsMessage{Subtype: MESSAGE_REJ, Addressee: "N0CALL", Seq: "7"}},
		{"bulletin", "BLN1", "Net tonight", AprsMessage{Subtype: MESSAGE_BLN, Addressee: "BLN1", Text: "Net tonight"}},
		{"nws", "NWS-WARN", "Tornado{A1B", AprsMessage{Subtype: MESSAGE_NWS, Addressee: "NWS-WARN", Text: "Tornado", Seq: "A1B"}},
		{"query", "N0CALL", "?APRSP{5", AprsMessage{Subtype: MESSAGE_QUERY, Addressee: "N0CALL", Text: "?APRSP", Seq: "5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r = decodeLine(t, fmt.Sprintf("N0CALL2>APRS::%-9s:%s", tt.addressee, tt.text))
			require.Equal(t, REPORT_MESSAGE, r.Kind)
			assert.Equal(t, tt.want, *r.Message)
		})
	}

	t.Run("short addressee", func(t *testing.T) {
		for _, line := range []string{"N0CALL>APRS::N0CALL2 :Hello{001", "N0CALL>APRS::N0CALL2:Hello{001"} {
			var r = decodeLine(t, line)
			require.Equal(t, REPORT_MESSAGE, r.Kind, line)
			assert.Equal(t, AprsMessage{Subtype: MESSAGE_TEXT, Addressee: "N0CALL2", Text: "Hello", Seq: "001"}, *r.Message)
		}
	})

	for _, line := range []string{"N0CALL2>APRS::N0CALL2345:too long", "N0CALL2>APRS:::no addressee", "N0CALL2>APRS::no colon at all"} {
		var r = decodeLine(t, line)
		assert.NotEqual(t, REPORT_MESSAGE, r.Kind, line)
	}
}

func TestDecodeOther(t *testing.T) {
	var r = decodeLine(t, "N0CALL>APRS:>091234zNet control")
	assert.Equal(t, REPORT_STATUS, r.Kind)
	assert.Equal(t, "091234z", r.Timestamp)
	assert.Equal(t, "Net control", r.Status)

	r = decodeLine(t, "N0CALL>APRS:?IGATE?")
	assert.Equal(t, REPORT_QUERY, r.Kind)
	assert.Equal(t, "IGATE", r.Query)

	r = decodeLine(t, "N0CALL>APRS:[FN42ni]hello")
	assert.Equal(t, REPORT_POSITION, r.Kind)
	assert.InDelta(t, 42.35, LatToDegrees(r.Lat), 0.03)
	assert.Equal(t, "hello", r.Comment)

	for _, info := range []string{"T#005,199,000,255,073,123,01101001", "<IGATE,MSG_CNT=3", "{Q1qwerty", "~stuff", "%x", "&x", ",x"} {
		r = decodeLine(t, "N0CALL>APRS:"+info)
		assert.Equal(t, REPORT_IGNORED, r.Kind, info)
	}

	r = decodeLine(t, "N0CALL>APRS:Hello world")
	assert.Equal(t, REPORT_UNKNOWN, r.Kind)
	assert.Equal(t, "Hello world", r.Status)

	r = decodeLine(t, "N0CALL>APRS:Some text!4903.50N/07201.75W>x")
	assert.Equal(t, REPORT_POSITION, r.Kind)
	assert.Equal(t, int64(14739000), r.Lat)
}
