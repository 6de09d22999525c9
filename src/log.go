package tracker

/*------------------------------------------------------------------
 *
 * Purpose:	Diagnostic logging and the optional CSV packet log.
 *
 * Description: Diagnostics go through one charmbracelet logger,
 *		with sub-loggers per component.  A rotating file can
 *		be added with lumberjack.
 *
 *		The packet log is different.  Rather than saving the raw,
 *		sometimes rather cryptic and unreadable, format, write
 *		separated properties into CSV format for easy reading
 *		and later processing.  One line per decoded packet.
 *
 *------------------------------------------------------------------*/

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	PacketLog  string `yaml:"packet_log"`
}

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "samtrack",
	Level:           log.InfoLevel,
})

// SetLogger replaces the package logger, e.g. with one from NewLogger.
func SetLogger(l *log.Logger) {
	logger = l
}

func Logger() *log.Logger {
	return logger
}

/*------------------------------------------------------------------
 *
 * Function:	NewLogger
 *
 * Purpose:	Build the diagnostic logger from configuration.
 *
 * Returns:	Logger and a closer for the log file, if any.
 *
 *------------------------------------------------------------------*/

func NewLogger(cfg LogConfig, stderr io.Writer) (*log.Logger, io.Closer, error) {
	var level = log.InfoLevel
	if cfg.Level != "" {
		var l, err = log.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
		level = l
	}

	var w = stderr
	var closer io.Closer = io.NopCloser(nil)

	if cfg.File != "" {
		var lj = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   true,
		}
		w = io.MultiWriter(stderr, lj)
		closer = lj
	}

	var l = log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "samtrack",
		Level:           level,
	})

	return l, closer, nil
}

/*------------------------------------------------------------------
 *
 * Name:	PacketLog
 *
 * Purpose:	CSV record of every decoded packet.
 *
 *------------------------------------------------------------------*/

type PacketLog struct {
	mu     sync.Mutex
	w      *csv.Writer
	closer io.Closer
}

var packetLogHeader = []string{
	"isotime", "via", "port", "source", "heard", "type", "name",
	"latitude", "longitude", "speed", "course", "altitude", "symbol", "comment",
}

func OpenPacketLog(path string) (*PacketLog, error) {
	var f, err = os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("open packet log: %w", err)
	}

	var st, statErr = f.Stat()
	var pl = NewPacketLog(f, statErr == nil && st.Size() == 0)
	pl.closer = f

	return pl, nil
}

// NewPacketLog writes to w.  The header is written only when asked,
// so appending to an existing file doesn't repeat it.
func NewPacketLog(w io.Writer, header bool) *PacketLog {
	var pl = &PacketLog{w: csv.NewWriter(w)}

	if header {
		_ = pl.w.Write(packetLogHeader)
		pl.w.Flush()
	}

	return pl
}

func (pl *PacketLog) Write(now time.Time, r *Report) {
	if pl == nil || r == nil {
		return
	}

	pl.mu.Lock()
	defer pl.mu.Unlock()

	var slat, slon string
	if r.HasPosition {
		slat = strconv.FormatFloat(LatToDegrees(r.Lat), 'f', 6, 64)
		slon = strconv.FormatFloat(LonToDegrees(r.Lon), 'f', 6, 64)
	}

	var heard = r.Source
	if len(r.Path) > 0 {
		for i := len(r.Path) - 1; i >= 0; i-- {
			if r.Path[i].Used {
				heard = r.Path[i].Call
				break
			}
		}
	}

	var record = []string{
		now.UTC().Format("2006-01-02T15:04:05Z"),
		string(r.Via),
		strconv.Itoa(r.Port),
		r.Source,
		heard,
		r.Kind.String(),
		r.Name,
		slat,
		slon,
		r.Speed,
		r.Course,
		r.Altitude,
		r.Symbol.String(),
		r.Comment,
	}

	if err := pl.w.Write(record); err != nil {
		logger.Warn("packet log write failed", "err", err)
		return
	}

	pl.w.Flush()
}

func (pl *PacketLog) Close() error {
	if pl == nil || pl.closer == nil {
		return nil
	}

	pl.w.Flush()

	return pl.closer.Close()
}
