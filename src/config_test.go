package tracker

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, text string) string {
	t.Helper()

	var path = filepath.Join(t.TempDir(), "samtrack.yaml")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))

	return path
}

func TestLoadConfig(t *testing.T) {
	var path = writeConfig(t, `
mycall: w1abc-9
path: wide1-1,wide2-1
station:
  max_age: 2h
objects:
  max_interval: 10m
beacon:
  latitude: 42.619
  longitude: -71.347
  comment: Mobile
  symbol: "/>"
  smart:
    enabled: true
igate:
  mode: 2
  nws_stations: [" nwsbot "]
ports:
  - name: radio
    transmit: true
    relay: true
    link_layer: true
  - name: aprs-is
    transmit: true
nats:
  url: nats://localhost:4222
  subject: samtrack
`)

	var cfg, err = LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "W1ABC-9", cfg.MyCall)
	assert.Equal(t, "WIDE1-1,WIDE2-1", cfg.Path)
	assert.Equal(t, 2*time.Hour, cfg.Station.MaxAge)
	assert.Equal(t, 10*time.Minute, cfg.Objects.MaxInterval)
	assert.Equal(t, 42.619, cfg.Beacon.Latitude)
	assert.True(t, cfg.Beacon.Smart.Enabled)
	assert.Equal(t, IGATE_BOTH, cfg.Igate.Mode)
	assert.Equal(t, []string{"NWSBOT"}, cfg.Igate.NWSStations)
	assert.True(t, cfg.isNWSStation("NWSBOT"))
	assert.Len(t, cfg.Ports, 2)
	assert.True(t, cfg.Ports[0].LinkLayer)
	assert.False(t, cfg.Ports[1].LinkLayer)
	assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)

	// Untouched values keep their defaults.
	var def = DefaultConfig()
	assert.Equal(t, def.Objects.InitialInterval, cfg.Objects.InitialInterval)
	assert.Equal(t, def.Messages, cfg.Messages)
	assert.Equal(t, def.Beacon.Smart.FastRate, cfg.Beacon.Smart.FastRate)
}

func TestLoadConfigErrors(t *testing.T) {
	var tests = []struct {
		name string
		text string
	}{
		{"bad call", "mycall: NOCALL\n"},
		{"bad path", "path: WIDE1-1,,WIDE2\n"},
		{"igate mode", "igate:\n  mode: 3\n"},
		{"ambiguity", "beacon:\n  ambiguity: 5\n"},
		{"symbol", "beacon:\n  symbol: \">\"\n"},
		{"object intervals", "objects:\n  initial_interval: 1h\n"},
		{"message intervals", "messages:\n  initial_interval: 0s\n"},
		{"smart speeds", "beacon:\n  smart:\n    enabled: true\n    low_speed: 50\n    high_speed: 40\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var _, err = LoadConfig(writeConfig(t, tc.text))
			require.ErrorIs(t, err, ErrBadConfig)
		})
	}

	t.Run("not yaml", func(t *testing.T) {
		var _, err = LoadConfig(writeConfig(t, "mycall: [\n"))
		require.Error(t, err)
	})

	t.Run("missing", func(t *testing.T) {
		var _, err = LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestDefaultConfigIsValid(t *testing.T) {
	var cfg = DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "N0CALL", cfg.MyCall)
	assert.Equal(t, "WIDE2-2", cfg.Path)
	assert.Equal(t, 30*time.Second, cfg.Messages.AckWindow)
}
