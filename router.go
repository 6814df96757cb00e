package netsim

//
// Router: the distance-vector routing layer. A Router keeps a stable
// static routing table plus, when dynamic routing is enabled, a
// periodically refreshed dynamic table built behind a shadow copy and
// promoted only once the distance-vector exchange has converged.
//
// Grounded on components/router.py, components/routing_table.py and
// components/routing_table_entry.py of the original simulator for the
// Bellman-Ford-style exchange and the static/dynamic table split; the
// packet forwarding and neighbor bookkeeping is adapted from a
// socket-router style router.go, which played the analogous "receive a
// raw packet, look up a destination, write it to the right port" role for
// a real-socket router -- generalized here to route the simulator's own
// typed packets over [Link]s instead of parsing IP frames.
//

import "fmt"

// Routing tuning constants, matched bit-exact against the original.
const (
	// DynamicUpdateInterval is how often a dynamic-routing router
	// re-snapshots its neighbor costs and rebuilds its shadow table.
	DynamicUpdateInterval Time = 5000

	// SameDataThreshold is the number of consecutive no-update exchanges
	// after which a dynamic-routing router promotes its shadow table.
	SameDataThreshold = 2
)

// routeEntry is one routing-table row: the outgoing link to use and the
// cumulative cost of the route, or link == nil for the self entry.
type routeEntry struct {
	link *Link
	cost float64
}

// cloneTable returns a shallow copy of table, safe to mutate
// independently of the original.
func cloneTable(table map[string]*routeEntry) map[string]*routeEntry {
	out := make(map[string]*routeEntry, len(table))
	for k, v := range table {
		cp := *v
		out[k] = &cp
	}
	return out
}

// Router forwards FlowPackets and AckPackets between its neighbor
// [Link]s using distance-vector routing, and participates in the
// periodic exchange that builds and refreshes its routing tables.
type Router struct {
	// RouterID is this router's stable identifier.
	RouterID string

	// DynamicEnabled selects whether this router also builds and
	// refreshes a dynamic-cost routing table, per the topology file's
	// dynamic_routing attribute.
	DynamicEnabled bool

	links     []*Link
	scheduler *Scheduler
	logger    Logger
	ids       *idGenerator

	staticTable  map[string]*routeEntry
	staticBuilt  bool
	sameDataStat int

	dynamicActive map[string]*routeEntry // converged, used for forwarding
	dynamicNext   map[string]*routeEntry // under construction
	dynamicBuilt  bool
	sameDataDyn   int
	dynamicTimer  bool
}

// NewRouter creates an unattached [Router] with identifier id. ids is
// the scheduler-owned monotonic counter this router uses to mint
// routing-packet identifiers, replacing the module-level counter the
// original uses with a scheduler-owned monotonic counter injected where
// needed.
func NewRouter(scheduler *Scheduler, logger Logger, id string, dynamic bool, ids *idGenerator) *Router {
	return &Router{
		RouterID:       id,
		DynamicEnabled: dynamic,
		scheduler:      scheduler,
		logger:         logger,
		ids:            ids,
	}
}

// ID implements Node.
func (r *Router) ID() string { return r.RouterID }

// attachLink implements Node. A Router accepts any number of links.
func (r *Router) attachLink(link *Link) error {
	r.links = append(r.links, link)
	return nil
}

// BuildStatic performs the one-time static routing-table build and
// broadcast, called by the network driver for every router at startup.
func (r *Router) BuildStatic(now Time) {
	r.buildTable(false, now)
}

// BuildDynamic performs the initial dynamic routing-table build for
// routers with DynamicEnabled set, called by the network driver
// alongside BuildStatic. It is a no-op for routers that don't opt into
// dynamic routing.
func (r *Router) BuildDynamic(now Time) {
	if !r.DynamicEnabled {
		return
	}
	r.buildTable(true, now)
}

// receive implements Node: routing packets drive table construction;
// everything else is forwarded by the active routing table.
func (r *Router) receive(pkt Packet, now Time) {
	switch p := pkt.(type) {
	case *StaticRoutingPacket:
		r.handleRoutingPacket(false, p.SrcRouter, p.CostTable, now)
	case *DynamicRoutingPacket:
		r.handleRoutingPacket(true, p.SrcRouter, p.CostTable, now)
	case *FlowPacket, *AckPacket:
		r.forward(pkt, now)
	default:
		panic(fmt.Sprintf("netsim: router %s: unhandled packet type %T", r.RouterID, pkt))
	}
}

// forward looks up pkt's destination in the active routing table and
// hands it to the corresponding outgoing link, dropping it (with a log
// message, never a panic) if no table exists yet or the destination is
// unreachable -- forwarding failures are logged and dropped, never fatal.
func (r *Router) forward(pkt Packet, now Time) {
	table := r.activeTable()
	if table == nil {
		r.logger.Warnf("netsim: router %s: no routing table yet, dropping %s", r.RouterID, pkt.ID())
		r.buildTable(false, now)
		return
	}
	entry, ok := table[pkt.Destination()]
	if !ok || (entry.link == nil && pkt.Destination() != r.RouterID) {
		r.logger.Warnf("netsim: router %s: no route to %s, dropping %s", r.RouterID, pkt.Destination(), pkt.ID())
		return
	}
	if entry.link == nil {
		return
	}
	entry.link.Send(now, pkt, r)
}

// activeTable returns the routing table forward should use: the
// converged dynamic table when dynamic routing is enabled and has
// converged at least once, otherwise the static table.
func (r *Router) activeTable() map[string]*routeEntry {
	if r.DynamicEnabled && r.dynamicActive != nil {
		return r.dynamicActive
	}
	if r.staticBuilt {
		return r.staticTable
	}
	return nil
}

// linkCost returns the cost this router assigns to link for the given
// mode. Static cost is the link's raw capacity figure, smaller is
// better, mirroring the original source exactly rather than inverting
// it into a conventional "bigger is better" bandwidth metric. Dynamic
// cost adds the link's snapshotted average buffer dwell time and resets
// that meter so the next period's average starts clean.
func (r *Router) linkCost(link *Link, dynamic bool) float64 {
	cost := link.CapacityMbps
	if dynamic {
		cost += float64(link.DynamicCostComponent())
		link.ResetDynamicCost()
	}
	return cost
}

// buildTable performs (or rebuilds) the routing table for mode dynamic:
// it resets the self-entry and every neighbor entry from the link costs
// directly visible to this router, then broadcasts the resulting cost
// table to every neighbor. For dynamic mode this targets the shadow
// "next" table and arms the periodic refresh timer exactly once.
func (r *Router) buildTable(dynamic bool, now Time) {
	table := map[string]*routeEntry{r.RouterID: {link: nil, cost: 0}}
	for _, link := range r.links {
		neighbor := link.other(r)
		table[neighbor.ID()] = &routeEntry{link: link, cost: r.linkCost(link, dynamic)}
	}

	if dynamic {
		r.dynamicNext = table
		r.sameDataDyn = 0
		if !r.dynamicTimer {
			r.scheduler.AddTimer(&dynamicRefreshEvent{router: r}, now, DynamicUpdateInterval)
			r.dynamicTimer = true
		}
	} else {
		r.staticTable = table
		r.staticBuilt = true
		r.sameDataStat = 0
	}

	r.broadcast(dynamic, table, now)
}

// broadcast sends every neighbor a routing packet carrying table's cost
// values, excluding the self entry.
func (r *Router) broadcast(dynamic bool, table map[string]*routeEntry, now Time) {
	costs := make(map[string]float64, len(table)-1)
	for node, entry := range table {
		if node == r.RouterID {
			continue
		}
		costs[node] = entry.cost
	}
	for _, link := range r.links {
		neighbor := link.other(r)
		pkt := r.newRoutingPacket(dynamic, neighbor.ID(), costs)
		link.Send(now, pkt, r)
	}
}

// newRoutingPacket mints a routing packet of the right variant, with a
// fresh scheduler-owned id and a copy of costs so two neighbors never
// share a mutable map.
func (r *Router) newRoutingPacket(dynamic bool, dest string, costs map[string]float64) Packet {
	table := make(map[string]float64, len(costs))
	for k, v := range costs {
		table[k] = v
	}
	n := r.ids.Next()
	if dynamic {
		return &DynamicRoutingPacket{PacketID: dynamicRoutingPacketID(n), SrcRouter: r.RouterID, Dest: dest, CostTable: table}
	}
	return &StaticRoutingPacket{PacketID: staticRoutingPacketID(n), SrcRouter: r.RouterID, Dest: dest, CostTable: table}
}

// handleRoutingPacket applies one neighbor's cost table to this
// router's table for mode dynamic, a Bellman-Ford step: add the
// neighbor's cost-to-here to every entry,
// keep whichever of the existing and offered costs is smaller, and
// either re-broadcast (on improvement) or count toward convergence (no
// improvement).
func (r *Router) handleRoutingPacket(dynamic bool, from string, costTable map[string]float64, now Time) {
	table := r.tableFor(dynamic)
	if table == nil {
		r.buildTable(dynamic, now)
		table = r.tableFor(dynamic)
	}

	viaFrom, ok := table[from]
	if !ok {
		r.logger.Warnf("netsim: router %s: routing packet from unknown neighbor %s", r.RouterID, from)
		return
	}

	updated := false
	for node, advertisedCost := range costTable {
		newCost := advertisedCost + viaFrom.cost
		existing, exists := table[node]
		if !exists || newCost < existing.cost {
			table[node] = &routeEntry{link: viaFrom.link, cost: newCost}
			updated = true
		}
	}

	if updated {
		r.resetSameData(dynamic)
		r.broadcast(dynamic, table, now)
		return
	}

	r.incSameData(dynamic)
	if dynamic {
		if r.sameDataDyn >= SameDataThreshold {
			r.promoteDynamic(now)
			return
		}
	} else if r.sameDataStat >= SameDataThreshold {
		// Converged: stop echoing. Without this, two neighbors would
		// re-broadcast unchanged tables at each other forever and the
		// event queue would never drain.
		return
	}
	r.broadcast(dynamic, table, now)
}

// tableFor returns the table currently being built/exchanged for mode
// dynamic: the static table, or the dynamic shadow table.
func (r *Router) tableFor(dynamic bool) map[string]*routeEntry {
	if dynamic {
		return r.dynamicNext
	}
	if r.staticBuilt {
		return r.staticTable
	}
	return nil
}

// resetSameData zeroes the no-update counter for mode dynamic.
func (r *Router) resetSameData(dynamic bool) {
	if dynamic {
		r.sameDataDyn = 0
	} else {
		r.sameDataStat = 0
	}
}

// incSameData increments the no-update counter for mode dynamic.
func (r *Router) incSameData(dynamic bool) {
	if dynamic {
		r.sameDataDyn++
	} else {
		r.sameDataStat++
	}
}

// promoteDynamic replaces the active dynamic table with the converged
// shadow table and resets every neighbor link's dynamic-cost meter a
// second time. The no-update counter is not reset, so it stays at or
// above its threshold and stray post-convergence broadcasts are
// swallowed rather than echoed;
// the next periodic refresh's buildTable starts the counter over.
func (r *Router) promoteDynamic(now Time) {
	r.dynamicActive = cloneTable(r.dynamicNext)
	for _, link := range r.links {
		link.ResetDynamicCost()
	}
	r.logger.Debugf("netsim: router %s: dynamic routing table converged", r.RouterID)
}

// dynamicRefreshEvent fires every DynamicUpdateInterval and rebuilds the
// dynamic shadow table from freshly snapshotted link costs.
type dynamicRefreshEvent struct {
	router *Router
}

func (e *dynamicRefreshEvent) Time() Time { return 0 }

func (e *dynamicRefreshEvent) execute(s *Scheduler, now Time) {
	e.router.buildTable(true, now)
}

var (
	_ Event      = &dynamicRefreshEvent{}
	_ executable = &dynamicRefreshEvent{}
)

var _ Node = &Router{}
