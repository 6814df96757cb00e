package netsim

//
// Topology file loading: an XML document describing hosts, routers,
// links and flows, turned into the object graph a [Network] drives.
//
// The loader is an external collaborator specified only by the
// interfaces the core uses; it's implemented here with the standard
// library's encoding/xml (see DESIGN.md -- no third-party XML decoder
// fits this use). Node identifier prefix validation (H/R/L) is
// supplemented from parsing/identifier_helpers.py of the original
// simulator: a malformed topology is always a fatal, load-time error.
//

import (
	"encoding/xml"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Unit conversions for the topology file's wire units (KB/MB/seconds)
// into the simulator's own bytes/bytes/milliseconds. Link rates stay in
// Mbps; [Link] converts them when computing transmission delay.
const (
	kbToBytes       = 1024
	mbToBytes       = 1024 * 1024
	secondsToMillis = 1000
)

// xmlTopology is the root element of a topology file.
type xmlTopology struct {
	XMLName xml.Name    `xml:"topology"`
	Hosts   []xmlHost   `xml:"host"`
	Routers []xmlRouter `xml:"router"`
	Links   []xmlLink   `xml:"link"`
	Flows   []xmlFlow   `xml:"flow"`
}

type xmlHost struct {
	ID string `xml:"id,attr"`
}

type xmlRouter struct {
	ID      string `xml:"id,attr"`
	Dynamic string `xml:"dynamic_routing,attr"`
}

type xmlLink struct {
	ID       string  `xml:"id,attr"`
	RateMbps float64 `xml:"rate,attr"`
	DelayMs  float64 `xml:"delay,attr"`
	BufferKB float64 `xml:"buffer-size,attr"`
	Node1    string  `xml:"node1,attr"`
	Node2    string  `xml:"node2,attr"`
}

type xmlFlow struct {
	ID     string  `xml:"id,attr"`
	Src    string  `xml:"src,attr"`
	Dest   string  `xml:"dest,attr"`
	Amount float64 `xml:"amount,attr"`
	Start  float64 `xml:"start,attr"`
	// Congestion names the congestion-control strategy this flow uses, a
	// supplemented attribute letting a topology file
	// select among Null/Tahoe/Reno/FAST per flow. Defaults to "none" when
	// absent.
	Congestion string `xml:"congestion,attr"`
}

// ErrMalformedTopology indicates a topology file that fails to parse or
// references identifiers inconsistent with the file's own declarations
// -- a fatal, load-time error. Every error returned by [LoadTopology]
// wraps it, so callers can errors.Is against this one sentinel.
var ErrMalformedTopology = errors.New("netsim: malformed topology")

func errMalformed(format string, v ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedTopology, fmt.Sprintf(format, v...))
}

// LoadTopology reads and parses the topology file at path, validates
// its identifier conventions and references, and constructs the
// resulting [Network]. logger is used by every component the network
// owns; minTickStep is the scheduler's fixed simulated-time step
// (0.001 ms).
func LoadTopology(path string, logger Logger, minTickStep Time) (*Network, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errMalformed("cannot read %s: %s", path, err)
	}
	var doc xmlTopology
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errMalformed("cannot parse %s: %s", path, err)
	}
	return buildNetwork(&doc, logger, minTickStep)
}

// buildNetwork turns a parsed topology document into a fully wired
// [Network], failing fast on any reference to an identifier the
// document never declared, or on an identifier violating the H/R/L
// naming convention.
func buildNetwork(doc *xmlTopology, logger Logger, minTickStep Time) (*Network, error) {
	scheduler := NewScheduler(logger, minTickStep)
	ids := &idGenerator{}

	net := &Network{
		scheduler: scheduler,
		logger:    logger,
		hosts:     map[string]*Host{},
		routers:   map[string]*Router{},
		links:     map[string]*Link{},
	}

	for _, h := range doc.Hosts {
		if !isHostID(h.ID) {
			return nil, errMalformed("host id %q must start with %q", h.ID, hostIDPrefix)
		}
		if _, dup := net.hosts[h.ID]; dup {
			return nil, errMalformed("duplicate host id %q", h.ID)
		}
		host := NewHost(scheduler, logger, h.ID)
		net.hosts[h.ID] = host
		net.hostList = append(net.hostList, host)
	}

	for _, r := range doc.Routers {
		if !isRouterID(r.ID) {
			return nil, errMalformed("router id %q must start with %q", r.ID, routerIDPrefix)
		}
		if _, dup := net.routers[r.ID]; dup {
			return nil, errMalformed("duplicate router id %q", r.ID)
		}
		dynamic, err := parseBool(r.Dynamic)
		if err != nil {
			return nil, errMalformed("router %q: dynamic_routing: %s", r.ID, err)
		}
		router := NewRouter(scheduler, logger, r.ID, dynamic, ids)
		net.routers[r.ID] = router
		net.routerList = append(net.routerList, router)
	}

	for _, l := range doc.Links {
		if !isLinkID(l.ID) {
			return nil, errMalformed("link id %q must start with %q", l.ID, linkIDPrefix)
		}
		if _, dup := net.links[l.ID]; dup {
			return nil, errMalformed("duplicate link id %q", l.ID)
		}
		a, err := net.node(l.Node1)
		if err != nil {
			return nil, errMalformed("link %q: node1: %s", l.ID, err)
		}
		b, err := net.node(l.Node2)
		if err != nil {
			return nil, errMalformed("link %q: node2: %s", l.ID, err)
		}
		link, err := NewLink(
			scheduler,
			logger,
			l.ID,
			l.RateMbps,
			Time(l.DelayMs),
			int(l.BufferKB*kbToBytes),
			a, b,
		)
		if err != nil {
			return nil, errMalformed("link %q: %s", l.ID, err)
		}
		net.links[l.ID] = link
	}

	for _, f := range doc.Flows {
		srcHost, ok := net.hosts[f.Src]
		if !ok {
			return nil, errMalformed("flow %q: unknown source host %q", f.ID, f.Src)
		}
		if _, ok := net.hosts[f.Dest]; !ok {
			return nil, errMalformed("flow %q: unknown destination host %q", f.ID, f.Dest)
		}
		flow := &Flow{
			ID:         f.ID,
			Src:        f.Src,
			Dest:       f.Dest,
			TotalBytes: int(f.Amount * mbToBytes),
			StartMs:    Time(f.Start * secondsToMillis),
			Mode:       congestionModeFromAttr(f.Congestion),
		}
		net.flows = append(net.flows, flow)
		srcHost.AssignFlow(flow)
	}

	return net, nil
}

// node resolves id to whichever Node -- host or router -- declared it,
// failing if neither did.
func (n *Network) node(id string) (Node, error) {
	if h, ok := n.hosts[id]; ok {
		return h, nil
	}
	if r, ok := n.routers[id]; ok {
		return r, nil
	}
	return nil, fmt.Errorf("unknown node %q", id)
}

// congestionModeFromAttr maps a topology file's congestion attribute
// (case-insensitive; "" and "none" both mean Null) to a [CongestionMode].
func congestionModeFromAttr(attr string) CongestionMode {
	switch strings.ToLower(attr) {
	case "tahoe":
		return CongestionTahoe
	case "reno":
		return CongestionReno
	case "fast":
		return CongestionFAST
	default:
		return CongestionNull
	}
}

// parseBool parses the topology file's dynamic_routing attribute:
// "true"/"false" or "1"/"0", case-insensitive, with an absent attribute
// meaning false. Other spellings (such as "t" or "f") are rejected.
func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "", "false", "0":
		return false, nil
	case "true", "1":
		return true, nil
	default:
		return false, fmt.Errorf("invalid boolean %q", s)
	}
}
