package tracker

/*------------------------------------------------------------------
 *
 * Purpose:   	Main program for the tracker daemon.
 *
 * Description:	Packets come in on stdin in monitor format, one per
 *		line, e.g. piped from a TNC program or an APRS-IS
 *		client.  Saved logs and KISS captures can be replayed
 *		first.
 *
 *		What the tracker wants transmitted is written to
 *		stdout, one line each, for whatever is downstream to
 *		send:
 *
 *			[12:34:56] rf 0 N0CALL>APZSAM,WIDE2-2:=4237.14N/07120.83W>
 *			[12:34:56] net 1 N0CALL>APZSAM,TCPIP*:=4237.14N/07120.83W>
 *
 *		Events are logged and optionally published to NATS.
 *
 *---------------------------------------------------------------*/

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lestrrat-go/strftime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
)

const DEFAULT_CONFIG_FILE = "samtrack.yaml"

const OUTPUT_STAMP_FORMAT = "[%H:%M:%S]"

// LineSink writes outbound lines as text, for something else to send.
type LineSink struct {
	mu    sync.Mutex
	w     io.Writer
	stamp *strftime.Strftime
	now   func() time.Time
}

func NewLineSink(w io.Writer, format string) (*LineSink, error) {
	var s = &LineSink{w: w, now: time.Now}

	if format != "" {
		var f, err = strftime.New(format)
		if err != nil {
			return nil, fmt.Errorf("time stamp format %q: %w", format, err)
		}
		s.stamp = f
	}

	return s, nil
}

func (s *LineSink) Event(Event) {}

func (s *LineSink) Transmit(out Outbound) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var prefix string
	if s.stamp != nil {
		prefix = s.stamp.FormatString(s.now()) + " "
	}

	var dest = IfThenElse(out.Kind == OUT_RF, "rf", "net")

	fmt.Fprintf(s.w, "%s%s %d %s\n", prefix, dest, out.Port, out.Line)
}

// LogSink reports events through the logger.  Alerts stand out at Warn.
type LogSink struct {
	l *log.Logger
}

func NewLogSink(l *log.Logger) *LogSink {
	return &LogSink{l: l.With("component", "events")}
}

func (s *LogSink) Event(ev Event) {
	var kv = []any{"name", ev.Name}
	if ev.Text != "" {
		kv = append(kv, "text", ev.Text)
	}
	if ev.DistanceKM > 0 {
		kv = append(kv, "km", fmt.Sprintf("%.1f", ev.DistanceKM))
	}

	if ev.Kind.IsAlert() {
		s.l.Warn(ev.Kind.String(), kv...)
	} else {
		s.l.Debug(ev.Kind.String(), kv...)
	}
}

func (s *LogSink) Transmit(Outbound) {}

func parseVia(s string) (byte, error) {
	switch strings.ToUpper(s) {
	case "T", "TNC", "RF":
		return DATA_VIA_TNC, nil
	case "I", "NET", "INET":
		return DATA_VIA_NET, nil
	case "F", "FILE":
		return DATA_VIA_FILE, nil
	case "L", "LOCAL":
		return DATA_VIA_LOCAL, nil
	default:
		return 0, fmt.Errorf("%w: via %q, must be T, I, F or L", ErrBadConfig, s)
	}
}

/*------------------------------------------------------------------
 *
 * Name:	SamtrackMain
 *
 * Purpose:	Command line entry point.
 *
 *------------------------------------------------------------------*/

func SamtrackMain() {
	var configFile = pflag.StringP("config", "c", DEFAULT_CONFIG_FILE, "Configuration file name.")
	var mycall = pflag.StringP("mycall", "m", "", "My callsign, overriding the configuration file.")
	var logLevel = pflag.StringP("log-level", "l", "", "Log level: debug, info, warn or error.")
	var replay = pflag.StringArrayP("replay", "r", nil, "Replay a monitor format log, zstd compressed is fine.  May be repeated.")
	var kissFile = pflag.StringArrayP("kiss", "k", nil, "Replay a KISS capture file.  May be repeated.")
	var viaStr = pflag.String("via", "T", "How lines on stdin were received: T for radio, I for internet.")
	var port = pflag.IntP("port", "p", 0, "Port number for lines on stdin.")
	var noStdin = pflag.BoolP("no-stdin", "n", false, "Don't read stdin, exit after replaying.")
	var metricsAddr = pflag.String("metrics", "", "Serve Prometheus metrics on this address, e.g. :9100.")
	var dump = pflag.BoolP("dump", "d", false, "Print the station list on exit.")
	var stampFormat = pflag.StringP("timestamp-format", "T", OUTPUT_STAMP_FORMAT, "strftime format for output lines, empty for none.")
	var version = pflag.BoolP("version", "v", false, "Print version and exit.")
	var help = pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - APRS station tracker\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Packets in monitor format are read from stdin.  Lines to transmit go to stdout.\n")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	if *version {
		PrintVersion(os.Stdout, false)
		os.Exit(0)
	}

	var cfg, err = LoadConfig(*configFile)
	if errors.Is(err, fs.ErrNotExist) && !pflag.CommandLine.Changed("config") {
		cfg = DefaultConfig()
		err = nil
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}

	if *mycall != "" {
		cfg.MyCall = *mycall
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *metricsAddr != "" {
		cfg.Metrics = *metricsAddr
	}

	var via, viaErr = parseVia(*viaStr)
	if viaErr != nil {
		fmt.Fprintf(os.Stderr, "%s\n", viaErr)
		os.Exit(1)
	}

	var l, logCloser, logErr = NewLogger(cfg.Log, os.Stderr)
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "%s\n", logErr)
		os.Exit(1)
	}
	defer logCloser.Close()
	SetLogger(l)

	if err := runDaemon(cfg, daemonOptions{
		replay:      *replay,
		kiss:        *kissFile,
		stdin:       !*noStdin,
		via:         via,
		port:        *port,
		dump:        *dump,
		stampFormat: *stampFormat,
	}); err != nil {
		logger.Error("exiting", "err", err)
		os.Exit(1)
	}
}

type daemonOptions struct {
	replay      []string
	kiss        []string
	stdin       bool
	via         byte
	port        int
	dump        bool
	stampFormat string
}

func runDaemon(cfg *Config, opts daemonOptions) error {
	var ctx, stop = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var lineSink, err = NewLineSink(os.Stdout, opts.stampFormat)
	if err != nil {
		return err
	}

	var sinks = MultiSink{lineSink, NewLogSink(logger)}

	if cfg.NATS.URL != "" {
		var ns, err = NewNATSSink(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			return err
		}
		defer ns.Close()
		sinks = append(sinks, ns)
	}

	var t, trackerErr = NewTracker(cfg, sinks)
	if trackerErr != nil {
		return trackerErr
	}

	if cfg.Database != "" {
		var store, err = OpenStore(cfg.Database)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := t.AttachStore(store); err != nil {
			return err
		}
	}

	if cfg.Log.PacketLog != "" {
		var pl, err = OpenPacketLog(cfg.Log.PacketLog)
		if err != nil {
			return err
		}
		defer pl.Close()
		t.SetPacketLog(pl)
	}

	if cfg.Metrics != "" {
		serveMetrics(ctx, cfg.Metrics)
	}

	for _, path := range opts.replay {
		if err := replayFile(t, path, false); err != nil {
			return err
		}
	}

	for _, path := range opts.kiss {
		if err := replayFile(t, path, true); err != nil {
			return err
		}
	}

	if opts.stdin {
		runLive(ctx, t, os.Stdin, opts.via, opts.port)
	}

	if opts.dump {
		if err := t.Dump(os.Stdout); err != nil {
			return err
		}
	}

	return nil
}

func replayFile(t *Tracker, path string, kiss bool) error {
	var r, err = OpenLog(path)
	if err != nil {
		return err
	}
	defer r.Close()

	var stats ReplayStats
	if kiss {
		stats, err = t.ReplayKISS(r)
	} else {
		stats, err = t.ReplayLines(r, DATA_VIA_FILE, -1)
	}

	logger.Info("replayed", "file", path, "packets", stats.Lines, "rejected", stats.Rejected)

	return err
}

// runLive processes lines as they come and ticks once a second until
// the input ends or we are told to stop.
func runLive(ctx context.Context, t *Tracker, in io.Reader, via byte, port int) {
	var lines = make(chan string, 64)

	go func() {
		defer close(lines)

		var scanner = bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, MAX_NET_LINE_SIZE), 2*MAX_NET_LINE_SIZE)

		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}

		if err := scanner.Err(); err != nil {
			logger.Error("reading input", "err", err)
		}
	}()

	var ticker = time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutting down")
			return

		case now := <-ticker.C:
			t.Tick(now)

		case line, ok := <-lines:
			if !ok {
				return
			}
			if line == "" || line[0] == '#' {
				continue
			}
			if err := t.ProcessLine(line, via, port, false); err != nil {
				logger.Debug("input", "err", err)
			}
		}
	}
}

func serveMetrics(ctx context.Context, addr string) {
	var reg = prometheus.NewRegistry()
	if err := RegisterMetrics(reg); err != nil {
		logger.Error("metrics", "err", err)
		return
	}

	var mux = http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	var srv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
}
