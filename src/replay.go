package tracker

/*------------------------------------------------------------------
 *
 * Purpose:   	Feed saved traffic back through the tracker.
 *
 * Description:	Two kinds of input:
 *
 *		- Monitor format text, one packet per line, as logged
 *		  by most TNC software.  Blank lines and lines starting
 *		  with '#' (APRS-IS server comments) are skipped.
 *
 *		- A KISS capture, the raw byte stream from a TNC.
 *
 *		Logs are often archived compressed.  zstd is recognized
 *		by its magic number so the file name doesn't matter.
 *
 *---------------------------------------------------------------*/

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

type decompressor struct {
	io.Reader
	dec  *zstd.Decoder
	file io.Closer
}

func (d *decompressor) Close() error {
	if d.dec != nil {
		d.dec.Close()
	}

	return d.file.Close()
}

// OpenLog opens a file for reading, decompressing on the fly if it is zstd.
func OpenLog(path string) (io.ReadCloser, error) {
	var f, err = os.Open(path) //nolint:gosec
	if err != nil {
		return nil, err
	}

	var rc, wrapErr = MaybeDecompress(f)
	if wrapErr != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", path, wrapErr)
	}

	return rc, nil
}

// MaybeDecompress looks at the start of r and undoes zstd compression if present.
func MaybeDecompress(r io.ReadCloser) (io.ReadCloser, error) {
	var br = bufio.NewReader(r)

	var head, err = br.Peek(len(zstdMagic))
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, err
	}

	if !bytes.Equal(head, zstdMagic) {
		return &decompressor{Reader: br, file: r}, nil
	}

	var dec, decErr = zstd.NewReader(br)
	if decErr != nil {
		return nil, fmt.Errorf("zstd: %w", decErr)
	}

	return &decompressor{Reader: dec, dec: dec, file: r}, nil
}

// ReplayStats counts what happened to each line.
type ReplayStats struct {
	Lines    int
	Rejected int
}

/*------------------------------------------------------------------
 *
 * Name:	ReplayLines
 *
 * Purpose:	Process every line of a monitor format log.
 *
 * Inputs:	via, port - How they should be treated.  DATA_VIA_FILE
 *			  and -1 for an old log, so nothing gets acked
 *			  or answered.
 *
 * Description:	A bad line is counted and skipped.  Only a read
 *		error stops it.
 *
 *------------------------------------------------------------------*/

func (t *Tracker) ReplayLines(r io.Reader, via byte, port int) (ReplayStats, error) {
	var stats ReplayStats

	var scanner = bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, MAX_NET_LINE_SIZE), 2*MAX_NET_LINE_SIZE)

	for scanner.Scan() {
		var line = scanner.Text()
		if len(line) == 0 || line[0] == '#' {
			continue
		}

		stats.Lines++

		if err := t.ProcessLine(line, via, port, false); err != nil {
			stats.Rejected++
			logger.Debug("replay", "line", stats.Lines, "err", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return stats, fmt.Errorf("replay after %d lines: %w", stats.Lines, err)
	}

	return stats, nil
}

// ReplayKISS processes every data frame in a KISS byte stream.  The
// KISS channel is used as the port.
func (t *Tracker) ReplayKISS(r io.Reader) (ReplayStats, error) {
	var stats ReplayStats

	var kr = NewKissReader(r)
	for {
		var channel, frame, err = kr.Next()
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return stats, nil
		}
		if err != nil {
			return stats, fmt.Errorf("KISS replay after %d frames: %w", stats.Lines, err)
		}

		stats.Lines++

		if err := t.ProcessFrame(frame, channel); err != nil {
			stats.Rejected++
			logger.Debug("KISS replay", "frame", stats.Lines, "err", err)
		}
	}
}
