package tracker

/*------------------------------------------------------------------
 *
 * Purpose:   	Main program to export station trails from a log.
 *
 * Description:	The log is replayed through a tracker with no limits
 *		on age, so everything in it is kept, then each trail
 *		is written in the tracklog format.
 *
 *		samtrack-trail -s W1ABC-9 aprs-2024-06-15.log.zst
 *
 *		Log time stamps are not in monitor format lines so the
 *		trail times are when the replay happened to process
 *		each line, one second apart starting from --start.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
)

// TrailExport replays logs and keeps every trail.
type TrailExport struct {
	t    *Tracker
	when time.Time
}

func NewTrailExport(start time.Time) *TrailExport {
	var cfg = DefaultConfig()
	cfg.Station.MaxAge = 100 * 365 * 24 * time.Hour
	cfg.Trail.MaxAge = cfg.Station.MaxAge

	var t, err = NewTracker(cfg, nil)
	if err != nil {
		panic(err) // Defaults are always valid.
	}

	var e = &TrailExport{t: t, when: start}

	t.SetClock(func() time.Time {
		e.when = e.when.Add(time.Second)
		return e.when
	})

	return e
}

func (e *TrailExport) Load(r io.Reader) (ReplayStats, error) {
	return e.t.ReplayLines(r, DATA_VIA_FILE, -1)
}

// Write exports the named stations, or every station with a trail if none are named.
func (e *TrailExport) Write(w io.Writer, names []string) error {
	if len(names) == 0 {
		for _, st := range e.t.Stations(ORDER_NAME) {
			if st.Trail != nil && st.Trail.Len() > 0 {
				names = append(names, st.Call)
			}
		}
	}

	for _, name := range names {
		var st, found = e.t.Snapshot(name)
		if !found {
			return fmt.Errorf("%s: %w", name, ErrNoSuchStation)
		}

		if st.Trail == nil || st.Trail.Len() == 0 {
			logger.Info("station never moved", "name", name)
			continue
		}

		if err := WriteTrail(w, st); err != nil {
			return err
		}
	}

	return nil
}

func TrailMain() {
	var stations = pflag.StringArrayP("station", "s", nil, "Station to export.  May be repeated.  Default is all that moved.")
	var output = pflag.StringP("output", "o", "-", "Output file.")
	var start = pflag.String("start", "", "Time of the first line, RFC 3339.  Default is now.")
	var help = pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s - Export station trails from logs\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] LOGFILE...\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n")
		fmt.Fprintf(os.Stderr, "Log files are monitor format, one packet per line, optionally zstd compressed.\n")
		pflag.PrintDefaults()
	}

	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	if pflag.NArg() == 0 {
		pflag.Usage()
		os.Exit(1)
	}

	var startTime = time.Now().UTC()
	if *start != "" {
		var t, err = time.Parse(time.RFC3339, *start)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Bad start time: %s\n", err)
			os.Exit(1)
		}
		startTime = t
	}

	var e = NewTrailExport(startTime)

	for _, path := range pflag.Args() {
		var r, err = OpenLog(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Can't open %s for read: %s\n", path, err)
			os.Exit(1)
		}

		var stats, loadErr = e.Load(r)
		_ = r.Close()
		if loadErr != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", path, loadErr)
			os.Exit(1)
		}

		logger.Info("loaded", "file", path, "packets", stats.Lines, "rejected", stats.Rejected)
	}

	var w io.Writer = os.Stdout
	if *output != "-" {
		var f, err = os.Create(*output) //nolint:gosec
		if err != nil {
			fmt.Fprintf(os.Stderr, "Can't create %s: %s\n", *output, err)
			os.Exit(1)
		}
		defer f.Close()
		w = f
	}

	if err := e.Write(w, *stations); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}
