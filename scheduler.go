package netsim

//
// The deterministic discrete-event scheduler: a time-ordered queue of
// one-shot events, a separate table of periodic timers, and the ordered
// telemetry stream collected as events execute.
//
// Grounded on components/clock.py and events/event_dispatcher.py of the
// original simulator, and on the time+sequence container/heap pattern
// used by the retrieval pack's liveness.EventQueue (a BFD-style
// scheduler) for stable FIFO ordering among same-timestamp events.
//

import (
	"container/heap"
)

// Event is anything the [Scheduler] can carry in its queue: a one-shot
// simulation event or a telemetry record. The zero-value contract is
// that Time never decreases once an Event has been pushed.
type Event interface {
	// Time returns the simulated time at which this event fires.
	Time() Time
}

// executable is implemented by Events that mutate simulation state when
// they fire. Telemetry events (see telemetry.go) deliberately do not
// implement it: they carry data only, and firing them is a no-op.
type executable interface {
	Event
	execute(s *Scheduler, now Time)
}

// TelemetryEvent is implemented by every telemetry record (WindowSizeEvent,
// LinkBufferSizeEvent, LinkThroughputEvent, FlowThroughputEvent,
// DroppedPacketEvent, RTTEvent). The [Scheduler] recognizes these via a
// type assertion and appends them to its ordered telemetry stream instead
// of invoking any handler; they never feed back into simulation state.
type TelemetryEvent interface {
	Event
	isTelemetryEvent()
}

// queueItem wraps an Event with a monotonic sequence number so that
// events sharing a time-key execute in insertion order, matching
// [container/heap]'s requirement for a strict Less.
type queueItem struct {
	at    Time
	seq   uint64
	event Event
}

// eventQueue is a [container/heap] min-heap of [queueItem], ordered by
// (at, seq).
type eventQueue []*queueItem

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].at == q[j].at {
		return q[i].seq < q[j].seq
	}
	return q[i].at < q[j].at
}

func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) {
	*q = append(*q, x.(*queueItem))
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// timer is a periodic action re-armed every time it fires.
type timer struct {
	nextFire Time
	seq      uint64
	interval Time
	event    executable
}

// timerQueue is a [container/heap] min-heap of [*timer], ordered the same
// way as [eventQueue].
type timerQueue []*timer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].nextFire == q[j].nextFire {
		return q[i].seq < q[j].seq
	}
	return q[i].nextFire < q[j].nextFire
}

func (q timerQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *timerQueue) Push(x any) { *q = append(*q, x.(*timer)) }

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return item
}

// Scheduler is the simulation's single source of ordering: a
// priority-ordered queue of one-shot events, a table of periodic timers,
// and the ordered telemetry stream. The zero value is invalid; use
// [NewScheduler].
type Scheduler struct {
	logger    Logger
	queue     eventQueue
	timers    timerQueue
	seq       uint64
	telemetry []TelemetryEvent

	// minTimerInterval is the smallest legal timer interval: scheduling a
	// timer faster than the simulation's own time step is a fatal
	// configuration error.
	minTimerInterval Time

	// telemetryListeners are notified, in registration order, of every
	// telemetry record as it is appended to the ordered stream. They are
	// a read-only tap -- a listener may forward a record to an external
	// sink (e.g. Prometheus) but must never feed back into simulation
	// state.
	telemetryListeners []func(TelemetryEvent)
}

// Subscribe registers fn to be called with every telemetry record as it
// is appended to the ordered stream, in addition to the record being
// kept in [Scheduler.Telemetry]. Intended for external consumers (a
// metrics exporter) that want telemetry as it happens rather than
// polling the accumulated slice after the run completes.
func (s *Scheduler) Subscribe(fn func(TelemetryEvent)) {
	s.telemetryListeners = append(s.telemetryListeners, fn)
}

// NewScheduler creates an empty [Scheduler]. minTimerInterval is the
// simulation's time step; [Scheduler.AddTimer] panics if asked to arm a
// timer with a smaller interval.
func NewScheduler(logger Logger, minTimerInterval Time) *Scheduler {
	s := &Scheduler{
		logger:           logger,
		queue:            eventQueue{},
		timers:           timerQueue{},
		minTimerInterval: minTimerInterval,
	}
	heap.Init(&s.queue)
	heap.Init(&s.timers)
	return s
}

// Push places event on the queue at event.Time(). Events with identical
// time-keys execute in the order they were pushed.
func (s *Scheduler) Push(event Event) {
	s.seq++
	heap.Push(&s.queue, &queueItem{at: event.Time(), seq: s.seq, event: event})
}

// AddTimer arms event to fire at now+interval and to re-arm itself at
// each firing, forever, at firedTime+interval so that a long-running
// timer never drifts into the past. interval must be >= the scheduler's
// configured minimum; violating this is a fatal configuration error.
func (s *Scheduler) AddTimer(event executable, now Time, interval Time) {
	if interval < s.minTimerInterval {
		panic("netsim: timer interval smaller than the simulation time step")
	}
	s.seq++
	heap.Push(&s.timers, &timer{
		nextFire: now + interval,
		seq:      s.seq,
		interval: interval,
		event:    event,
	})
}

// Step executes every one-shot event whose time is <= now, in
// non-decreasing time order, then fires and re-arms every timer whose
// next-fire is <= now. It returns true iff events or timers remain.
//
// Matching the original simulator, Step only considers items that were
// already due at the moment it was called: effects of firing an event
// (new pushes at the current "now") are visible starting with the next
// Step call, not within this one. This keeps a tick's execution order
// reproducible regardless of what handlers schedule meanwhile.
func (s *Scheduler) Step(now Time) bool {
	due := make([]*queueItem, 0)
	for len(s.queue) > 0 && s.queue[0].at <= now {
		due = append(due, heap.Pop(&s.queue).(*queueItem))
	}
	for _, item := range due {
		s.fire(item.event, item.at)
	}

	dueTimers := make([]*timer, 0)
	for len(s.timers) > 0 && s.timers[0].nextFire <= now {
		dueTimers = append(dueTimers, heap.Pop(&s.timers).(*timer))
	}
	for _, t := range dueTimers {
		firedAt := t.nextFire
		s.fire(t.event, firedAt)
		s.seq++
		heap.Push(&s.timers, &timer{
			nextFire: firedAt + t.interval,
			seq:      s.seq,
			interval: t.interval,
			event:    t.event,
		})
	}

	return len(s.queue) != 0 || len(s.timers) != 0
}

// fire dispatches a single Event: telemetry records are appended to the
// ordered telemetry stream, everything else is executed.
func (s *Scheduler) fire(event Event, now Time) {
	s.logger.Debugf("netsim: t=%.6fms executing %T", float64(now), event)
	if te, ok := event.(TelemetryEvent); ok {
		s.telemetry = append(s.telemetry, te)
		for _, fn := range s.telemetryListeners {
			fn(te)
		}
		return
	}
	if exec, ok := event.(executable); ok {
		exec.execute(s, now)
		return
	}
	// An Event that is neither telemetry nor executable is a bug in this
	// package, not a runtime condition callers can hit.
	panic("netsim: event is neither TelemetryEvent nor executable")
}

// Telemetry returns the ordered telemetry stream collected so far. The
// returned slice is owned by the Scheduler; callers must not mutate it.
func (s *Scheduler) Telemetry() []TelemetryEvent {
	return s.telemetry
}

// Pending reports whether the scheduler still has one-shot events or
// armed timers waiting to fire.
func (s *Scheduler) Pending() bool {
	return len(s.queue) != 0 || len(s.timers) != 0
}

// PendingEvents reports whether any one-shot events remain queued,
// ignoring armed timers. This is the [Network] driver's termination
// condition: periodic timers re-arm forever, so a run ends when the
// one-shot queue drains even though (for example) a dynamic-routing
// refresh timer is still armed.
func (s *Scheduler) PendingEvents() bool {
	return len(s.queue) != 0
}
