package tracker

/*------------------------------------------------------------------
 *
 * Purpose:	The station record and its side records.
 *
 * Description:	One record per unique callsign, object name or item
 *		name.  Kinematics are kept as the strings from the packet
 *		so a value survives unchanged from decode to display.
 *		An empty string means "not known".
 *
 *------------------------------------------------------------------*/

import (
	"time"

	"github.com/golang/geo/s2"
)

type StationFlags uint16

const (
	ST_OBJECT    StationFlags = 0x01  // station is an object
	ST_ITEM      StationFlags = 0x02  // station is an item
	ST_ACTIVE    StationFlags = 0x04  // station is active (deleted objects are inactive)
	ST_MOVING    StationFlags = 0x08  // station is moving
	ST_DIRECT    StationFlags = 0x10  // heard direct (not via digis)
	ST_VIATNC    StationFlags = 0x20  // station heard via TNC
	ST_3RD_PT    StationFlags = 0x40  // third party traffic
	ST_MSGCAP    StationFlags = 0x80  // message capable
	ST_STATUS    StationFlags = 0x100 // got real status message
	ST_INVIEW    StationFlags = 0x200 // station is in current view
	ST_MYSTATION StationFlags = 0x400 // station is owned by my call-SSID
	ST_MYOBJITEM StationFlags = 0x800 // object/item owned by me
)

func (f StationFlags) Has(x StationFlags) bool {
	return f&x != 0
}

type RecordType byte

const (
	NORMAL_APRS    RecordType = 'N'
	MOBILE_APRS    RecordType = 'M'
	DF_APRS        RecordType = 'D'
	DOWN_APRS      RecordType = 'Q'
	NORMAL_GPS_RMC RecordType = 'C'
	NORMAL_GPS_GGA RecordType = 'A'
	NORMAL_GPS_GLL RecordType = 'L'
	APRS_WX1       RecordType = '1' // position with weather
	APRS_WX2       RecordType = '2' // Peet Bros '#'
	APRS_WX3       RecordType = '3' // Peet Bros '*'
	APRS_WX4       RecordType = '4' // positionless
	APRS_WX5       RecordType = '5' // Ultimeter
	APRS_WX6       RecordType = '6' // object or item with weather
)

// Where the data came from.
const (
	DATA_VIA_LOCAL = 'L'
	DATA_VIA_TNC   = 'T'
	DATA_VIA_NET   = 'I'
	DATA_VIA_FILE  = 'F'
)

/*
 * Symbol.  Table is '/' or '\' or an overlay character.
 * For overlays, the table becomes '\' and the overlay is kept separately.
 */

type Symbol struct {
	Table   byte
	Code    byte
	Overlay byte
}

func (s Symbol) String() string {
	if s.Table == 0 {
		return ""
	}

	if s.Overlay != 0 {
		return string([]byte{s.Overlay, s.Code})
	}

	return string([]byte{s.Table, s.Code})
}

// TableOrOverlay is the byte to put back on the air.
func (s Symbol) TableOrOverlay() byte {
	if s.Overlay != 0 {
		return s.Overlay
	}

	return s.Table
}

func (s Symbol) IsWeather() bool {
	return s.Code == '_'
}

// IsArea is the area object symbol, the only one with a Tyy/Cxx extension.
func (s Symbol) IsArea() bool {
	return s.Table == '\\' && s.Code == 'l'
}

// IsDF is the DF station symbol, the one with bearing and NRQ.
func (s Symbol) IsDF() bool {
	return s.Table == '/' && s.Code == '\\'
}

type AreaType byte

const (
	AREA_OPEN_CIRCLE     AreaType = 0x0
	AREA_LINE_LEFT       AreaType = 0x1
	AREA_OPEN_ELLIPSE    AreaType = 0x2
	AREA_OPEN_TRIANGLE   AreaType = 0x3
	AREA_OPEN_BOX        AreaType = 0x4
	AREA_FILLED_CIRCLE   AreaType = 0x5
	AREA_LINE_RIGHT      AreaType = 0x6
	AREA_FILLED_ELLIPSE  AreaType = 0x7
	AREA_FILLED_TRIANGLE AreaType = 0x8
	AREA_FILLED_BOX      AreaType = 0x9
	AREA_MAX             AreaType = 0x9
	AREA_NONE            AreaType = 0xF
)

type AreaObject struct {
	Type          AreaType
	Color         byte // 0 - 15
	SqrtLatOff    byte
	SqrtLonOff    byte
	CorridorWidth uint16 // Only for line types.
}

func (a AreaObject) IsLine() bool {
	return a.Type == AREA_LINE_LEFT || a.Type == AREA_LINE_RIGHT
}

// Weather is the latest weather seen for a station.
// Units follow the wire format after decode time normalization.
type Weather struct {
	Time time.Time

	Storm      bool
	StormType  string // TS, TD, HC, TY, ST, SC
	Course     string // degrees
	Speed      string // mph, sustained
	Gust       string // mph
	Temp       string // °F
	Rain       string // hundredths inch last hour
	RainTotal  string // hundredths inch
	Snow       string // inches last 24 hours
	Prec24     string // hundredths inch last 24 hours
	Prec00     string // hundredths inch since midnight
	Humidity   string // %
	Baro       string // hPa
	FuelTemp   string // °F
	FuelMoist  string // %
	HurrRadius string // nautical miles
	TropRadius string // nautical miles
	GaleRadius string // nautical miles
	Pressure   string // storm central pressure, mb

	Type    byte
	Station string
}

const MAX_MULTIPOINTS = 35

type Multipoint struct {
	Style  byte       // 'a' - 'z'
	Type   byte       // '0' - '9'
	Points [][2]int64 // lon, lat
}

// TimedText is one comment or status line.
type TimedText struct {
	Text  string
	Heard time.Time
}

const MAX_COMMENT_LINES = 20
const MAX_STATUS_LINES = 20

// addTimedText refreshes an existing line or puts a new one at the front.
func addTimedText(lines []TimedText, text string, now time.Time, max int) []TimedText {
	for i := range lines {
		if lines[i].Text == text {
			lines[i].Heard = now
			return lines
		}
	}

	lines = append([]TimedText{{Text: text, Heard: now}}, lines...)
	if len(lines) > max {
		lines = lines[:max]
	}

	return lines
}

type Station struct {
	Call     string
	Tactical string
	Origin   string

	Lat    int64
	Lon    int64
	PosAmb int

	Altitude   string // feet
	Speed      string // knots
	Course     string // degrees
	Bearing    string
	NRQ        string
	PowerGain  string // PHGphgd or RNGrrrr
	SignalGain string // DFSshgd

	Flags      StationFlags
	Symbol     Symbol
	Area       *AreaObject
	Signpost   string
	RecordType RecordType
	MicEStatus string

	Comments []TimedText
	Status   []TimedText

	Weather    *Weather
	Multipoint *Multipoint
	Trail      *Trail

	DataVia    byte
	LastPort   int
	NodePath   string
	NumPackets int

	Heard           time.Time
	HeardViaTNC     time.Time
	HeardViaTNCPort int
	DirectHeard     time.Time
	PacketTime      string // timestamp carried in the packet
	PosTime         time.Time

	// Locally owned objects and items only.
	LastTransmit     time.Time
	TransmitInterval time.Duration
	ObjectRetransmit int // -1 forever, counts down when killed

	timeSerial int
	slot       int32
}

func (s *Station) Name() string {
	if s.Tactical != "" {
		return s.Tactical
	}

	return s.Call
}

func (s *Station) HasPosition() bool {
	return PositionKnown(s.Lat, s.Lon)
}

func (s *Station) LatLng() s2.LatLng {
	return latLng(s.Lat, s.Lon)
}

// LatestComment is the most recently heard comment, "" if none.
func (s *Station) LatestComment() string {
	var best TimedText
	for _, c := range s.Comments {
		if c.Heard.After(best.Heard) || best.Text == "" {
			best = c
		}
	}

	return best.Text
}

func (s *Station) LatestStatus() string {
	var best TimedText
	for _, c := range s.Status {
		if c.Heard.After(best.Heard) || best.Text == "" {
			best = c
		}
	}

	return best.Text
}

// WeatherGhosted reports weather too old to be believed.
func (s *Station) WeatherGhosted(now time.Time, age time.Duration) bool {
	if s.Weather == nil {
		return true
	}

	return now.Sub(s.Weather.Time) > age
}

// PositionGhosted is the same test against the last time heard.
func (s *Station) PositionGhosted(now time.Time, age time.Duration) bool {
	return now.Sub(s.Heard) > age
}

func (s *Station) IsObjectOrItem() bool {
	return s.Flags&(ST_OBJECT|ST_ITEM) != 0
}

// UTM gives something like "19T 0310196E 4727312N".
func (s *Station) UTM() (string, error) {
	if !s.HasPosition() {
		return "", ErrNoPosition
	}

	return FormatUTM(s.Lat, s.Lon)
}

// MGRS at 1 m precision.
func (s *Station) MGRS() (string, error) {
	if !s.HasPosition() {
		return "", ErrNoPosition
	}

	return FormatMGRS(s.Lat, s.Lon, 5)
}

// Clone makes a deep copy for readers outside the tracker lock.
func (s *Station) Clone() *Station {
	var c = *s

	c.Comments = append([]TimedText(nil), s.Comments...)
	c.Status = append([]TimedText(nil), s.Status...)

	if s.Area != nil {
		var a = *s.Area
		c.Area = &a
	}
	if s.Weather != nil {
		var w = *s.Weather
		c.Weather = &w
	}
	if s.Multipoint != nil {
		c.Multipoint = &Multipoint{
			Style:  s.Multipoint.Style,
			Type:   s.Multipoint.Type,
			Points: append([][2]int64(nil), s.Multipoint.Points...),
		}
	}
	if s.Trail != nil {
		c.Trail = s.Trail.Clone()
	}

	return &c
}
