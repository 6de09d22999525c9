package tracker

/*------------------------------------------------------------------
 *
 * Purpose:	Limited digipeating on behalf of stations asking for
 *		RELAY or for us by name.
 *
 * Description:	This is not a full WIDEn-N digipeater.  It only does
 *		what a tracker on a link layer port would do: when the
 *		next unused hop is RELAY or my callsign, substitute my
 *		callsign with the "has been repeated" flag and send it
 *		out again on the same port.
 *
 * References:	APRS Protocol Reference, document version 1.0.1
 *
 *			http://www.aprs.org/doc/APRS101.PDF
 *
 *		"The New n-N Paradigm"
 *
 *			http://www.aprs.org/fix14439.html
 *
 *------------------------------------------------------------------*/

import (
	"strings"
	"time"
)

// PortConfig describes one interface.
type PortConfig struct {
	Name string `yaml:"name"`

	// Transmit enabled.
	Transmit bool `yaml:"transmit"`

	// Relay digipeating enabled.
	Relay bool `yaml:"relay"`

	// TNC style link layer port, as opposed to an internet connection.
	LinkLayer bool `yaml:"link_layer"`
}

type Digipeater struct {
	mycall string
	ports  []PortConfig
	dedupe *Dedupe
}

func NewDigipeater(mycall string, ports []PortConfig, dedupe *Dedupe) *Digipeater {
	return &Digipeater{mycall: mycall, ports: ports, dedupe: dedupe}
}

/*------------------------------------------------------------------------------
 *
 * Name:	Relay
 *
 * Purpose:	Decide whether the packet should be relayed and make
 *		the path modification.
 *
 * Inputs:	pp	- Packet heard on port.
 *
 * Returns:	Modified copy and true, or nil and false.
 *
 * Description:	The used digipeaters must be a prefix of the path, each
 *		ending with '*'.  The first one after that is the only
 *		candidate.
 *
 *------------------------------------------------------------------------------*/

func (d *Digipeater) Relay(pp *Packet, port int, now time.Time) (*Packet, bool) {
	if port < 0 || port >= len(d.ports) {
		return nil, false
	}

	var pc = d.ports[port]
	if !pc.Relay || !pc.Transmit || !pc.LinkLayer {
		return nil, false
	}

	/*
	 * Don't digipeat my own.
	 */
	if sameCall(pp.Source, d.mycall, true) {
		return nil, false
	}

	/*
	 * Find the first repeater station which doesn't have "has been repeated" set.
	 */
	var r = 0
	for r < len(pp.Path) && pp.Path[r].Used {
		r++
	}

	if r >= len(pp.Path) {
		return nil, false // Empty or fully used.
	}

	for _, pe := range pp.Path[r+1:] {
		if pe.Used {
			return nil, false // Stars out of order; somebody is confused.
		}
	}

	var repeater = strings.ToUpper(pp.Path[r].Call)
	if repeater != "RELAY" && repeater != strings.ToUpper(d.mycall) {
		return nil, false
	}

	if d.dedupe != nil && d.dedupe.Check(pp, port, now) {
		logger.Debug("relay: drop redundant packet", "port", port, "source", pp.Source)
		return nil, false
	}

	var result = &Packet{
		Source: pp.Source,
		Dest:   pp.Dest,
		Path:   append([]PathEntry(nil), pp.Path...),
		Info:   pp.Info,
	}
	result.Path[r] = PathEntry{Call: d.mycall, Used: true}

	if d.dedupe != nil {
		d.dedupe.Remember(result, port, now)
	}

	return result, true
}
