package netsim

//
// Node identifier conventions and scheduler-owned monotonic counters.
//
// The original simulator generated routing-packet ids from a Python
// classmethod counter attached to the class object itself -- a
// module-level global. Here the counter is an ordinary value created
// per [Network] (the topology loader builds one [idGenerator] and hands
// it to every [Router] of that network) instead of living at package
// scope, so two independently constructed [Network]s never share state.

import (
	"fmt"
	"strings"
)

// Node identifier prefixes, as reserved by the topology file format.
const (
	hostIDPrefix   = "H"
	routerIDPrefix = "R"
	linkIDPrefix   = "L"
)

// isHostID reports whether identifier follows the host naming convention.
func isHostID(identifier string) bool {
	return strings.HasPrefix(identifier, hostIDPrefix)
}

// isRouterID reports whether identifier follows the router naming convention.
func isRouterID(identifier string) bool {
	return strings.HasPrefix(identifier, routerIDPrefix)
}

// isLinkID reports whether identifier follows the link naming convention.
func isLinkID(identifier string) bool {
	return strings.HasPrefix(identifier, linkIDPrefix)
}

// idGenerator produces a monotonically increasing sequence of integers,
// used to build unique routing-packet ids. The zero value is ready to use.
type idGenerator struct {
	next int64
}

// Next returns the next value in the sequence, starting at zero.
func (g *idGenerator) Next() int64 {
	v := g.next
	g.next++
	return v
}

// staticRoutingPacketID formats a static-routing packet id, e.g. "SR.3".
func staticRoutingPacketID(n int64) string {
	return fmt.Sprintf("SR.%d", n)
}

// dynamicRoutingPacketID formats a dynamic-routing packet id, e.g. "DR.3".
func dynamicRoutingPacketID(n int64) string {
	return fmt.Sprintf("DR.%d", n)
}
