package netsim

//
// Network: the driver that wires a loaded topology's listeners, steps
// simulated time, and exposes the resulting telemetry stream.
//
// Grounded on components/network.py of the original simulator for the
// run-loop shape (bring up routing, start flows, then step time until
// nothing is left to do); the fixed-step loop itself is this simulator's
// own explicit contract, not something network.py's own (variable-step)
// loop models.
//

// TickStep is the fixed simulated-time increment the [Network] driver
// advances by on every iteration of Run (0.001 ms).
const TickStep Time = 0.001

// Network owns every host, router and link belonging to one loaded
// topology, together with the [Scheduler] that drives them and the
// flows assigned to their hosts.
type Network struct {
	scheduler *Scheduler
	logger    Logger

	hosts   map[string]*Host
	routers map[string]*Router
	links   map[string]*Link
	flows   []*Flow

	// hostList and routerList hold the hosts and routers in topology-file
	// declaration order. Run iterates these, not the lookup maps: map
	// iteration order is randomized per process, which would make the
	// insertion order of equal-timestamp events -- flow starts at the
	// same StartMs, the t=0 routing broadcasts, and which router snapshots
	// a shared link's dwell meter first at a dynamic refresh --
	// nondeterministic across runs of a supposedly reproducible simulator.
	hostList   []*Host
	routerList []*Router
}

// Host returns the host with the given identifier, or nil if none
// exists.
func (n *Network) Host(id string) *Host { return n.hosts[id] }

// Router returns the router with the given identifier, or nil if none
// exists.
func (n *Network) Router(id string) *Router { return n.routers[id] }

// Link returns the link with the given identifier, or nil if none
// exists.
func (n *Network) Link(id string) *Link { return n.links[id] }

// Flows returns every flow declared by the loaded topology.
func (n *Network) Flows() []*Flow { return n.flows }

// HostCount returns the number of hosts in the loaded topology.
func (n *Network) HostCount() int { return len(n.hosts) }

// RouterCount returns the number of routers in the loaded topology.
func (n *Network) RouterCount() int { return len(n.routers) }

// LinkCount returns the number of links in the loaded topology.
func (n *Network) LinkCount() int { return len(n.links) }

// Telemetry returns the ordered telemetry stream collected so far.
func (n *Network) Telemetry() []TelemetryEvent { return n.scheduler.Telemetry() }

// Subscribe registers fn to be called with every telemetry record as it
// is produced during Run, for an external consumer (e.g. a Prometheus
// exporter) that wants telemetry live rather than polling Telemetry
// after the run completes. It never influences simulation state.
func (n *Network) Subscribe(fn func(TelemetryEvent)) { n.scheduler.Subscribe(fn) }

// Run brings up routing (a static table build for every router, plus a
// dynamic build for those with DynamicEnabled) and starts every host's
// flow, then advances simulated time in fixed [TickStep] increments,
// calling [Scheduler.Step] at each tick, until no one-shot events
// remain (periodic timers re-arm forever and do not keep a run alive).
// stop, if non-nil, is polled once per tick and ends the run early (an
// operator interrupt) while still leaving the telemetry collected so
// far intact.
func (n *Network) Run(stop func() bool) {
	for _, r := range n.routerList {
		r.BuildStatic(0)
	}
	for _, r := range n.routerList {
		r.BuildDynamic(0)
	}
	for _, h := range n.hostList {
		h.scheduleFlowStart()
	}

	var now Time
	for n.scheduler.PendingEvents() {
		if stop != nil && stop() {
			n.logger.Info("netsim: run interrupted, finalizing telemetry")
			return
		}
		now += TickStep
		n.scheduler.Step(now)
	}
}
