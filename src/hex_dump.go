package tracker

import (
	"fmt"
	"io"
)

// hexDump prints 16 bytes per line, offset first and printable characters last.
func hexDump(w io.Writer, p []byte) {
	var offset = 0

	for len(p) > 0 {
		var n = min(len(p), 16)

		fmt.Fprintf(w, "  %03x: ", offset)

		for i := 0; i < 16; i++ {
			if i < n {
				fmt.Fprintf(w, " %02x", p[i])
			} else {
				fmt.Fprint(w, "   ")
			}
		}

		fmt.Fprint(w, "  ")

		for _, c := range p[:n] {
			if c >= 0x20 && c <= 0x7E {
				fmt.Fprintf(w, "%c", c)
			} else {
				fmt.Fprint(w, ".")
			}
		}

		fmt.Fprint(w, "\n")

		p = p[n:]
		offset += n
	}
}

// safeText shows unprintable characters as <0xNN>, the same way they can be typed in.
func safeText(s string) string {
	var out []byte
	for i := 0; i < len(s); i++ {
		var c = s[i]
		if c < ' ' || c > '~' {
			out = fmt.Appendf(out, "<0x%02x>", c)
		} else {
			out = append(out, c)
		}
	}

	return string(out)
}
