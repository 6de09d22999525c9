package tracker

import (
	"fmt"
	"io"
	"runtime/debug"
	"strconv"
)

// Set at build time via `-ldflags "-X 'github.com/doismellburning/samtrack/src.SAMTRACK_VERSION=X'"`
var SAMTRACK_VERSION string

const PROGRAM_NAME = "samtrack"

func getBuildSettingOrDefault(bi *debug.BuildInfo, key string, defaultValue string) string {
	if bi == nil {
		return defaultValue
	}

	for _, bs := range bi.Settings {
		if bs.Key == key {
			return bs.Value
		}
	}

	return defaultValue
}

// buildRevision is the VCS commit, marked if the tree was dirty.
func buildRevision(bi *debug.BuildInfo) string {
	var (
		commit          = getBuildSettingOrDefault(bi, "vcs.revision", "UNKNOWN")
		dirtyStr        = getBuildSettingOrDefault(bi, "vcs.modified", "INVALID")
		dirty, dirtyErr = strconv.ParseBool(dirtyStr)
	)

	if dirty {
		commit += "-DIRTY"
	} else if dirtyErr != nil {
		commit += "-UNKNOWNDIRTY"
	}

	return commit
}

func Version() string {
	if SAMTRACK_VERSION == "" {
		return "!UNKNOWN!"
	}

	return SAMTRACK_VERSION
}

// VersionString is short enough to go back in a message, which is
// the reply to a "?VER" query.
func VersionString() string {
	var bi, _ = debug.ReadBuildInfo()

	var rev = buildRevision(bi)
	if len(rev) > 12 {
		rev = rev[:12]
	}

	return fmt.Sprintf("%s %s (%s)", PROGRAM_NAME, Version(), rev)
}

func PrintVersion(w io.Writer, verbose bool) {
	var bi, _ = debug.ReadBuildInfo()

	var buildTimeStr = getBuildSettingOrDefault(bi, "vcs.time", "UNKNOWN")

	fmt.Fprintf(w, "%s - Version %s (revision %s, built at %s)\n", PROGRAM_NAME, Version(), buildRevision(bi), buildTimeStr)

	if verbose {
		fmt.Fprintf(w, "\nBuildInfo: %+v\n", bi)
	}
}
