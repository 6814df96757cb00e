package netsim

//
// Host: the end-host transport state machine -- sliding-window sender
// (Go-Back-N-style cumulative ACK, retransmission timeout, pluggable
// congestion control) and a pure cumulative-ACK receiver, sharing one
// [Link].
//
// Grounded on components/host.py of the original simulator for the
// lifecycle and window-index bookkeeping (Sb/Sn/Sm, awaitingAck,
// retransmitQueue, expectedRequestNum), with the congestion-control
// polymorphism moved behind the [CongestionControl] interface defined in
// congestion.go instead of host.py's own inheritance-based dispatch.
//

import "fmt"

// Host is a [Node] that owns exactly one [Link] and, optionally, the
// sending side of one [Flow]. It may additionally act as the receiving
// side of any number of flows addressed to it.
type Host struct {
	// HostID is this host's stable identifier.
	HostID string

	link      *Link
	scheduler *Scheduler
	logger    Logger

	// Sender-side state, valid only once a Flow has been assigned via
	// AssignFlow.
	cc      CongestionControl
	ownFlow *Flow
	cwnd    float64

	sb, sn, sm        int
	awaitingAck       map[string]*FlowPacket
	retransmitQueue   []*FlowPacket
	currentRequestNum int
	sentTime          map[string]Time

	// Receiver-side state: one expected-request-number counter and one
	// throughput meter per flow this host has ever received data for.
	expected       map[string]int
	flowThroughput map[string]*flowThroughputMeter
}

// NewHost creates an unattached [Host] with identifier id.
func NewHost(scheduler *Scheduler, logger Logger, id string) *Host {
	return &Host{
		HostID:         id,
		scheduler:      scheduler,
		logger:         logger,
		awaitingAck:    map[string]*FlowPacket{},
		sentTime:       map[string]Time{},
		expected:       map[string]int{},
		flowThroughput: map[string]*flowThroughputMeter{},
	}
}

// ID implements Node.
func (h *Host) ID() string { return h.HostID }

// attachLink implements Node. A Host accepts exactly one link.
func (h *Host) attachLink(link *Link) error {
	if h.link != nil {
		return fmt.Errorf("netsim: host %s: a link is already attached", h.HostID)
	}
	h.link = link
	return nil
}

// AssignFlow makes h the sending host of flow, constructing its
// congestion-control strategy. The flow does not begin sending until
// the network driver calls scheduleFlowStart: the driver, not the
// loader, is what starts each host's flow.
func (h *Host) AssignFlow(flow *Flow) {
	h.ownFlow = flow
	h.cc = NewCongestionControl(flow.Mode, h)
	h.sb, h.sn, h.sm = 0, 0, flow.PacketCount()
}

// scheduleFlowStart arms the flowStartEvent that begins this host's
// assigned flow at its configured StartMs. It is a no-op if no flow has
// been assigned.
func (h *Host) scheduleFlowStart() {
	if h.ownFlow == nil {
		return
	}
	h.scheduler.Push(&flowStartEvent{at: h.ownFlow.StartMs, host: h})
}

// receive implements Node: dispatch by packet type.
func (h *Host) receive(pkt Packet, now Time) {
	switch p := pkt.(type) {
	case *FlowPacket:
		h.receiveFlowPacket(p, now)
	case *AckPacket:
		h.receiveAck(p, now)
	case *StaticRoutingPacket, *DynamicRoutingPacket:
		// Routing packets reaching a host are ignored; hosts never route.
	default:
		panic(fmt.Sprintf("netsim: host %s: unhandled packet type %T", h.HostID, pkt))
	}
}

// receiveFlowPacket implements the pure Go-Back-N receiver: it accepts
// an in-order packet, advances the expected sequence, and always emits
// a cumulative ACK carrying the current expected value -- including for
// out-of-order packets, whose arrival changes nothing but still
// re-acknowledges the last in-order sequence the receiver has.
func (h *Host) receiveFlowPacket(p *FlowPacket, now Time) {
	expected := h.expected[p.FlowID]
	if p.Sequence == expected {
		expected++
		h.expected[p.FlowID] = expected
		h.recordFlowThroughput(p.FlowID, p.Size(), now)
	}
	ack := &AckPacket{
		FlowID:        p.FlowID,
		RequestNumber: h.expected[p.FlowID],
		TriggerPacket: p.ID(),
		Src:           h.HostID,
		Dest:          p.Src,
	}
	h.link.Send(now, ack, h)
}

// recordFlowThroughput folds size bytes received for flowID at now into
// that flow's throughput meter and emits a FlowThroughputEvent once a
// prior sample exists to measure an interval against.
func (h *Host) recordFlowThroughput(flowID string, size int, now Time) {
	meter, ok := h.flowThroughput[flowID]
	if !ok {
		meter = &flowThroughputMeter{}
		h.flowThroughput[flowID] = meter
	}
	if bitsPerSec, ok := meter.record(now, size); ok {
		h.scheduler.Push(&FlowThroughputEvent{At: now, FlowID: flowID, BitsPerSec: bitsPerSec})
	}
}

// receiveAck implements the sender side of cumulative acknowledgment:
// fold the ACK into currentRequestNum and awaitingAck, let the
// congestion-control strategy react, then advance the window base if
// this ACK moved it forward, and refill the window.
func (h *Host) receiveAck(ack *AckPacket, now Time) {
	if h.ownFlow == nil || h.ownFlow.ID != ack.FlowID {
		return
	}
	if ack.RequestNumber > h.currentRequestNum {
		h.currentRequestNum = ack.RequestNumber
	}
	for id, pkt := range h.awaitingAck {
		if pkt.Sequence < ack.RequestNumber {
			delete(h.awaitingAck, id)
		}
	}
	h.retransmitQueue = removeAcked(h.retransmitQueue, ack.RequestNumber)

	h.emitRTT(ack, now)
	h.cc.handleReceive(ack, now)

	if ack.RequestNumber > h.sb {
		delta := ack.RequestNumber - h.sb
		h.sb = ack.RequestNumber
		h.sn = h.sb
		h.sm += delta
	}
	h.sendPackets(now)
}

// emitRTT reports the round-trip time between sending ack.TriggerPacket
// and receiving this ACK, when that send is still on record.
func (h *Host) emitRTT(ack *AckPacket, now Time) {
	sentAt, ok := h.sentTime[ack.TriggerPacket]
	if !ok {
		return
	}
	h.scheduler.Push(&RTTEvent{At: now, FlowID: h.ownFlow.ID, Ms: float64(now - sentAt)})
}

// onTimeout handles a FlowPacket's retransmission timer firing. A
// timeout for a packet that is no longer awaiting acknowledgment --
// because it was already cumulatively acked -- is a no-op.
func (h *Host) onTimeout(packetID string, now Time) {
	pkt, ok := h.awaitingAck[packetID]
	if !ok {
		return
	}
	delete(h.awaitingAck, packetID)
	if pkt.Sequence < h.currentRequestNum {
		return
	}
	h.cc.handleTimeout(pkt, now)
	h.retransmitQueue = append(h.retransmitQueue, pkt)
	h.sendPackets(now)
}

// startFlow fires at the owned flow's StartMs: it emits the flow's
// initial window-size telemetry and begins filling the window.
func (h *Host) startFlow(now Time) {
	h.scheduler.Push(&WindowSizeEvent{At: now, FlowID: h.ownFlow.ID, Cwnd: h.cwnd})
	h.sendPackets(now)
}

// sendPackets fills the sending window: while fewer than cwnd packets
// are awaiting acknowledgment, it first drains the retransmit queue
// (smallest sequence number first), then builds and sends the next new
// FlowPacket in sequence, skipping any sequence already awaiting ack or
// already cumulatively acknowledged.
func (h *Host) sendPackets(now Time) {
	if h.ownFlow == nil {
		return
	}
	for float64(len(h.awaitingAck)) < h.cwnd {
		if len(h.retransmitQueue) > 0 {
			pkt := popSmallestSequence(&h.retransmitQueue)
			h.sendFlowPacket(pkt, now)
			continue
		}
		if !(h.sb <= h.sn && h.sn <= h.sm) {
			return
		}
		if h.sn*FlowPacketSize >= h.ownFlow.TotalBytes {
			return
		}
		seq := h.sn
		h.sn++
		pkt := &FlowPacket{FlowID: h.ownFlow.ID, Sequence: seq, Src: h.HostID, Dest: h.ownFlow.Dest}
		if _, awaiting := h.awaitingAck[pkt.ID()]; awaiting {
			continue
		}
		if seq < h.currentRequestNum {
			continue
		}
		h.sendFlowPacket(pkt, now)
	}
}

// sendFlowPacket records pkt as awaiting acknowledgment, notifies the
// congestion-control strategy, hands the packet to the link, and arms
// its retransmission timeout.
func (h *Host) sendFlowPacket(pkt *FlowPacket, now Time) {
	h.awaitingAck[pkt.ID()] = pkt
	h.sentTime[pkt.ID()] = now
	h.cc.handleSend(pkt, now)
	h.link.Send(now, pkt, h)
	h.scheduler.Push(&timeoutEvent{at: now + TimeoutPeriod, host: h, packetID: pkt.ID()})
}

// setWindowSize is the only way a [CongestionControl] strategy may
// change its host's congestion window: it updates cwnd and emits the
// corresponding WindowSizeEvent.
func (h *Host) setWindowSize(now Time, v float64) {
	h.cwnd = v
	if h.ownFlow != nil {
		h.scheduler.Push(&WindowSizeEvent{At: now, FlowID: h.ownFlow.ID, Cwnd: v})
	}
}

// popSmallestSequence removes and returns the entry with the smallest
// Sequence from *q, preserving the relative order of the rest.
func popSmallestSequence(q *[]*FlowPacket) *FlowPacket {
	qq := *q
	minIdx := 0
	for i := 1; i < len(qq); i++ {
		if qq[i].Sequence < qq[minIdx].Sequence {
			minIdx = i
		}
	}
	pkt := qq[minIdx]
	qq = append(qq[:minIdx], qq[minIdx+1:]...)
	*q = qq
	return pkt
}

// removeAcked drops every entry whose Sequence is cumulatively
// acknowledged by requestNumber.
func removeAcked(q []*FlowPacket, requestNumber int) []*FlowPacket {
	out := q[:0]
	for _, pkt := range q {
		if pkt.Sequence >= requestNumber {
			out = append(out, pkt)
		}
	}
	return out
}

// flowThroughputMeter accumulates received bytes for one flow and
// reports bits/sec between successive samples, mirroring [Link]'s
// throughput meter on the receiving side.
type flowThroughputMeter struct {
	accumBytes int
	lastTime   Time
	have       bool
}

// record folds size bytes received at now into the meter. ok is false
// for the first sample, since there is no prior time to measure an
// interval against.
func (m *flowThroughputMeter) record(now Time, size int) (bitsPerSec float64, ok bool) {
	m.accumBytes += size
	if !m.have {
		m.lastTime = now
		m.have = true
		return 0, false
	}
	elapsed := now - m.lastTime
	if elapsed <= 0 {
		return 0, false
	}
	bitsPerSec = float64(m.accumBytes) * 8 / float64(elapsed) * 1000
	m.accumBytes = 0
	m.lastTime = now
	return bitsPerSec, true
}

// flowStartEvent fires at a flow's StartMs, beginning its sender.
type flowStartEvent struct {
	at   Time
	host *Host
}

func (e *flowStartEvent) Time() Time { return e.at }

func (e *flowStartEvent) execute(s *Scheduler, now Time) {
	e.host.startFlow(now)
}

var (
	_ Event      = &flowStartEvent{}
	_ executable = &flowStartEvent{}
)

// timeoutEvent fires TimeoutPeriod after a FlowPacket is sent, and is a
// no-op if the packet has since been cumulatively acknowledged.
type timeoutEvent struct {
	at       Time
	host     *Host
	packetID string
}

func (e *timeoutEvent) Time() Time { return e.at }

func (e *timeoutEvent) execute(s *Scheduler, now Time) {
	e.host.onTimeout(e.packetID, now)
}

var (
	_ Event      = &timeoutEvent{}
	_ executable = &timeoutEvent{}
)

var _ Node = &Host{}
