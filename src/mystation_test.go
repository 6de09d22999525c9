package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionBeaconNoPosition(t *testing.T) {
	var tr, rec, _ = newTestTracker(t, nil)

	require.ErrorIs(t, tr.PositionBeacon(), ErrNoPosition)

	var _, out = rec.Take()
	assert.Empty(t, out)
}

func TestPositionBeaconFixed(t *testing.T) {
	var tr, rec, _ = newTestTracker(t, func(cfg *Config) {
		cfg.Beacon.Latitude = 42.619
		cfg.Beacon.Longitude = -71.347
		cfg.Beacon.Comment = "samtrack"
		twoPorts(cfg)
	})

	require.NoError(t, tr.PositionBeacon())

	var _, out = rec.Take()
	require.Len(t, out, 2)
	assert.Regexp(t, `^N0CALL>APZSAM,WIDE2-2:=4237\.14N/07120\.8\dW>samtrack$`, out[0].Line)
	assert.Regexp(t, `^N0CALL>APZSAM,TCPIP\*:=4237\.14N/07120\.8\dW>samtrack$`, out[1].Line)

	// And I show up like anyone else.
	var st, found = tr.Snapshot("N0CALL")
	require.True(t, found)
	assert.True(t, st.Flags.Has(ST_MYSTATION))
	assert.True(t, st.HasPosition())
}

func TestGPSBeacon(t *testing.T) {
	var tr, rec, clock = newTestTracker(t, func(cfg *Config) {
		cfg.Beacon.Interval = 10 * time.Minute
	})

	// No checksum, one gets added.
	require.NoError(t, tr.UpdateGPSNMEA("$GPRMC,003413.710,A,4237.1240,N,07120.8333,W,5.07,291.42,160614,,,A"))

	var _, out = rec.Take()
	require.Len(t, out, 1)
	assert.Equal(t, "N0CALL>APZSAM,WIDE2-2:=4237.12N/07120.83W>291/005", out[0].Line)

	tr.Tick(clock.Advance(5 * time.Minute))
	_, out = rec.Take()
	assert.Empty(t, out)

	tr.Tick(clock.Advance(5 * time.Minute))
	_, out = rec.Take()
	assert.Len(t, out, 1)

	require.ErrorIs(t, tr.UpdateGPSNMEA("GPRMC,003413.710,A"), ErrUnsupportedSentence)
}

func TestSmartBeaconing(t *testing.T) {
	var tr, rec, clock = newTestTracker(t, func(cfg *Config) {
		cfg.Beacon.Smart.Enabled = true
	})

	var lat, lon = mustLatLon(t, "4237.14N", "07120.83W")
	var fix = GPSFix{Fix: FIX_2D, Lat: lat, Lon: lon, Knots: MPHToKnots(60), Course: 90}

	tr.UpdateGPSFix(fix)
	var _, out = rec.Take()
	require.Len(t, out, 1, "first fix")

	clock.Advance(10 * time.Second)
	tr.UpdateGPSFix(fix)
	_, out = rec.Take()
	assert.Empty(t, out, "straight ahead")

	clock.Advance(10 * time.Second)
	fix.Course = 180
	tr.UpdateGPSFix(fix)
	_, out = rec.Take()
	assert.Len(t, out, 1, "turned the corner")

	tr.Tick(clock.Advance(30 * time.Second))
	_, out = rec.Take()
	assert.Empty(t, out)

	tr.Tick(clock.Advance(30 * time.Second))
	_, out = rec.Take()
	assert.Len(t, out, 1, "fast rate at highway speed")
}
