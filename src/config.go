package tracker

/*------------------------------------------------------------------
 *
 * Purpose:   	Read configuration information from a file.
 *
 * Description:	YAML.  Anything not mentioned keeps the value from
 *		DefaultConfig, so a minimal file is just
 *
 *			mycall: N0CALL-9
 *
 *		Command line flags, where a command has them, are
 *		applied on top of what is loaded here.
 *
 *---------------------------------------------------------------*/

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var ErrBadConfig = errors.New("invalid configuration")

type StationConfig struct {
	MaxAge        time.Duration `yaml:"max_age"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	DirectTimeout time.Duration `yaml:"direct_timeout"`
	GhostAge      time.Duration `yaml:"ghost_age"`
}

type ObjectConfig struct {
	InitialInterval  time.Duration `yaml:"initial_interval"`
	MaxInterval      time.Duration `yaml:"max_interval"`
	KilledRetransmit int           `yaml:"killed_retransmit"`
	Compressed       bool          `yaml:"compressed"`
}

type IgateConfig struct {
	// 0 none, 1 RF to internet only, 2 both ways.
	Mode        int           `yaml:"mode"`
	NWSStations []string      `yaml:"nws_stations"`
	DupeWindow  time.Duration `yaml:"dupe_window"`
	HeardWindow time.Duration `yaml:"heard_window"`
}

const (
	IGATE_NONE      = 0
	IGATE_RF_TO_NET = 1
	IGATE_BOTH      = 2
)

type MessageConfig struct {
	MaxAge          time.Duration `yaml:"max_age"`
	MaxTries        int           `yaml:"max_tries"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
	AckWindow       time.Duration `yaml:"ack_window"`
	Slots           int           `yaml:"slots"`
}

// ViewportConfig in degrees.  All zero means everything is in view.
type ViewportConfig struct {
	North    float64 `yaml:"north"`
	South    float64 `yaml:"south"`
	West     float64 `yaml:"west"`
	East     float64 `yaml:"east"`
	MarginKM float64 `yaml:"margin_km"`
}

type AlertConfig struct {
	NewStation        bool          `yaml:"new_station"`
	ProximityMinKM    float64       `yaml:"proximity_min_km"`
	ProximityMaxKM    float64       `yaml:"proximity_max_km"`
	BandOpeningMinKM  float64       `yaml:"band_opening_min_km"`
	BandOpeningMaxKM  float64       `yaml:"band_opening_max_km"`
	EmergencyInterval time.Duration `yaml:"emergency_interval"`
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

type Config struct {
	MyCall      string `yaml:"mycall"`
	MaxStations int    `yaml:"max_stations"`

	// Digipeater path for everything we originate.
	Path string `yaml:"path"`

	Station  StationConfig  `yaml:"station"`
	Trail    TrailConfig    `yaml:"trail"`
	Objects  ObjectConfig   `yaml:"objects"`
	Beacon   BeaconConfig   `yaml:"beacon"`
	Igate    IgateConfig    `yaml:"igate"`
	Messages MessageConfig  `yaml:"messages"`
	Viewport ViewportConfig `yaml:"viewport"`
	Alerts   AlertConfig    `yaml:"alerts"`
	Ports    []PortConfig   `yaml:"ports"`

	Database string     `yaml:"database"`
	NATS     NATSConfig `yaml:"nats"`
	Metrics  string     `yaml:"metrics"`
	Log      LogConfig  `yaml:"log"`
}

func DefaultConfig() *Config {
	return &Config{
		MyCall: "N0CALL",
		Path:   "WIDE2-2",

		Station: StationConfig{
			MaxAge:        24 * time.Hour,
			SweepInterval: time.Minute,
			DirectTimeout: time.Hour,
			GhostAge:      time.Hour,
		},

		Trail: TrailConfig{
			MaxAge:        24 * time.Hour,
			SegmentDistKM: 50,
			SegmentTime:   45 * time.Minute,
			MaxSpeedKMH:   1000,
			EchoWindow:    30 * time.Minute,
		},

		Objects: ObjectConfig{
			InitialInterval:  20 * time.Second,
			MaxInterval:      30 * time.Minute,
			KilledRetransmit: MAX_KILLED_OBJECT_RETRANSMIT,
		},

		Beacon: BeaconConfig{
			Interval: 30 * time.Minute,
			Symbol:   "/>",
			Smart: SmartBeaconConfig{
				LowSpeed:  2,
				HighSpeed: 60,
				SlowRate:  30 * time.Minute,
				FastRate:  60 * time.Second,
				TurnMin:   20,
				TurnSlope: 25,
				TurnTime:  5 * time.Second,
			},
		},

		Igate: IgateConfig{
			DupeWindow:  DEFAULT_DEDUPE_TIME,
			HeardWindow: time.Hour,
		},

		Messages: MessageConfig{
			MaxAge:          24 * time.Hour,
			MaxTries:        MAX_MESSAGE_TRIES,
			InitialInterval: MESSAGE_INITIAL_INTERVAL,
			MaxInterval:     MESSAGE_MAX_INTERVAL,
			AckWindow:       30 * time.Second,
			Slots:           1000,
		},

		Alerts: AlertConfig{
			EmergencyInterval: 30 * time.Minute,
		},

		NATS: NATSConfig{
			Subject: "samtrack",
		},
	}
}

/*------------------------------------------------------------------
 *
 * Name:	LoadConfig
 *
 * Purpose:	Read a YAML file over the defaults.
 *
 * Errors:	File problems as returned, ErrBadConfig for values
 *		that make no sense.
 *
 *------------------------------------------------------------------*/

func LoadConfig(path string) (*Config, error) {
	var cfg = DefaultConfig()

	var data, err = os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

func (cfg *Config) Validate() error {
	cfg.MyCall = strings.ToUpper(strings.TrimSpace(cfg.MyCall))
	if !ValidCall(cfg.MyCall) {
		return fmt.Errorf("%w: mycall %q", ErrBadConfig, cfg.MyCall)
	}

	cfg.Path = strings.ToUpper(strings.TrimSpace(cfg.Path))
	if cfg.Path != "" && !ValidPath(cfg.Path) {
		return fmt.Errorf("%w: path %q", ErrBadConfig, cfg.Path)
	}

	if cfg.Igate.Mode < IGATE_NONE || cfg.Igate.Mode > IGATE_BOTH {
		return fmt.Errorf("%w: igate mode %d, must be 0, 1 or 2", ErrBadConfig, cfg.Igate.Mode)
	}

	if cfg.Beacon.Ambiguity < 0 || cfg.Beacon.Ambiguity > 4 {
		return fmt.Errorf("%w: beacon ambiguity %d, must be 0 to 4", ErrBadConfig, cfg.Beacon.Ambiguity)
	}

	if len(cfg.Beacon.Symbol) != 2 {
		return fmt.Errorf("%w: beacon symbol %q must be table and code", ErrBadConfig, cfg.Beacon.Symbol)
	}

	if cfg.Objects.InitialInterval <= 0 || cfg.Objects.MaxInterval < cfg.Objects.InitialInterval {
		return fmt.Errorf("%w: object intervals %s to %s", ErrBadConfig, cfg.Objects.InitialInterval, cfg.Objects.MaxInterval)
	}

	if cfg.Messages.InitialInterval <= 0 || cfg.Messages.MaxInterval < cfg.Messages.InitialInterval {
		return fmt.Errorf("%w: message intervals %s to %s", ErrBadConfig, cfg.Messages.InitialInterval, cfg.Messages.MaxInterval)
	}

	var sb = cfg.Beacon.Smart
	if sb.Enabled && (sb.LowSpeed <= 0 || sb.HighSpeed <= sb.LowSpeed) {
		return fmt.Errorf("%w: SmartBeaconing speeds %.0f to %.0f", ErrBadConfig, sb.LowSpeed, sb.HighSpeed)
	}

	for i, n := range cfg.Igate.NWSStations {
		cfg.Igate.NWSStations[i] = strings.ToUpper(strings.TrimSpace(n))
	}

	return nil
}

// isNWSStation is the igate list of stations allowed through unconditionally.
func (cfg *Config) isNWSStation(call string) bool {
	for _, n := range cfg.Igate.NWSStations {
		if sameCall(n, call, true) {
			return true
		}
	}

	return false
}
