// Package netsim is a deterministic, single-threaded discrete-event
// simulator of a packet-switched network.
//
// Given a static topology of hosts, routers and half-duplex [Link]s with
// finite buffers, and a set of [Flow]s, netsim advances a simulated clock
// and reproduces TCP-style sliding-window transport, pluggable congestion
// control (Null, Tahoe, Reno, FAST, see [CongestionControl]), link
// contention and buffering, and distance-vector routing with static or
// periodically refreshed dynamic cost (see [Router]).
//
// The simulation is driven by a [Scheduler]: every component that reacts
// to time schedules a future [Event] instead of blocking, and the
// [Scheduler] executes events strictly in non-decreasing time order. A
// [Network] owns the scheduler together with the hosts, routers, links
// and flows of one topology and drives it to completion with [Network.Run].
//
// The simulator emits an ordered stream of [TelemetryEvent] records
// (window size, buffer occupancy, throughput, drops, RTT) for external
// analysis or plotting; it does not itself render graphs, and it never
// touches real sockets, real clocks, or real wire formats.
package netsim
