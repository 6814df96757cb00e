package netsim

//
// Core interfaces shared by every component: logging, simulated time,
// and the network-graph endpoint abstraction.
//

// Logger is the logger every component logs through. Its shape matches
// github.com/apex/log's Logger/Interface, so the package-level apex/log
// logger (log.Log) satisfies it directly without an adapter.
type Logger interface {
	// Debugf formats and emits a debug message.
	Debugf(format string, v ...any)

	// Debug emits a debug message.
	Debug(message string)

	// Infof formats and emits an informational message.
	Infof(format string, v ...any)

	// Info emits an informational message.
	Info(message string)

	// Warnf formats and emits a warning message.
	Warnf(format string, v ...any)

	// Warn emits a warning message.
	Warn(message string)
}

// Time is simulated time, in milliseconds, since the start of a run. It
// advances only through the [Scheduler]; nothing in this package reads a
// real clock.
type Time float64

// Node is a stable-identified endpoint in the network graph. [Host] and
// [Router] both implement Node; a [Link] addresses its two endpoints
// through this interface and never downcasts to a concrete type.
type Node interface {
	// ID returns the node's stable identifier.
	ID() string

	// attachLink registers link as one of this node's adjacent links.
	// Hosts accept exactly one call; Routers accept any number.
	attachLink(link *Link) error

	// receive handles an inbound packet delivered by one of the node's
	// links at simulated time now.
	receive(pkt Packet, now Time)
}
