package netsim

//
// Congestion control: a small strategy interface plus four
// implementations (Null, Tahoe, Reno, FAST). Grounded on
// components/congestion_control/*.py of the original simulator, which
// modeled the same strategies through a class hierarchy rooted at
// CongestionControl, replaced here with an interface the [Host] holds by
// value, one instance per [Flow].
//
// Every strategy mutates its owning Host's window exclusively through
// setWindowSize, which both updates cwnd and emits the WindowSizeEvent
// telemetry record -- strategies never touch h.cwnd directly.
//

import "math"

// Congestion-control tuning constants, matched bit-exact against the
// original.
const (
	// TimeoutPeriod is how long a sender waits for an ACK before
	// retransmitting a FlowPacket.
	TimeoutPeriod Time = 750

	// TimeoutTolerance is the minimum separation between two
	// timeout-induced (Tahoe) or duplicate-ACK-induced (Reno) congestion
	// reactions, so one lossy RTT cannot compound into several resets.
	TimeoutTolerance Time = 1000

	// tahoeInitialCwnd is Tahoe/Reno's starting and post-loss window.
	tahoeInitialCwnd = 2

	// initialSSThresh is the slow-start threshold every Tahoe/Reno flow
	// starts with: large enough that slow start never exits on its own
	// before a loss is observed.
	initialSSThresh = 1e10

	// fastInitialCwnd is FAST TCP's starting window.
	fastInitialCwnd = 1

	// fastAlpha is FAST TCP's additive term in its periodic window update.
	fastAlpha = 15

	// fastUpdateInterval is the minimum spacing between FAST TCP window
	// updates.
	fastUpdateInterval Time = 200

	// renoDupACKRun is the number of identical trailing request numbers
	// Reno treats as a triple-duplicate-ACK signal.
	renoDupACKRun = 4
)

// CongestionControl is the strategy a [Host] uses to size a [Flow]'s
// congestion window. One instance is created per flow; implementations
// keep whatever sub-state their algorithm needs (slow-start flag,
// ssthresh, RTT samples, ...).
type CongestionControl interface {
	// handleSend is invoked every time the host places a FlowPacket on
	// its link, new or retransmitted.
	handleSend(pkt *FlowPacket, now Time)

	// handleReceive is invoked when the host receives an ACK for this
	// flow, before the sender's Sb/Sn/Sm window indices are advanced.
	handleReceive(ack *AckPacket, now Time)

	// handleTimeout is invoked when a FlowPacket's retransmission timer
	// fires while the packet is still unacknowledged.
	handleTimeout(pkt *FlowPacket, now Time)
}

// NullCC is the "none" congestion-control variant: the window is held at
// an effectively unbounded size and every event is a no-op.
type NullCC struct {
	host *Host
}

// NewNullCC creates a [NullCC] and immediately sets host's window to its
// effectively-unbounded value.
func NewNullCC(host *Host) *NullCC {
	cc := &NullCC{host: host}
	host.cwnd = initialSSThresh
	return cc
}

func (cc *NullCC) handleSend(pkt *FlowPacket, now Time)    {}
func (cc *NullCC) handleReceive(ack *AckPacket, now Time)  {}
func (cc *NullCC) handleTimeout(pkt *FlowPacket, now Time) {}

var _ CongestionControl = &NullCC{}

// tahoeCore is the slow-start / congestion-avoidance / timeout-reset
// state shared by [TahoeCC] and [RenoCC].
type tahoeCore struct {
	host        *Host
	ssthresh    float64
	slowStart   bool
	lastDrop    Time
	haveDropped bool
}

func newTahoeCore(host *Host) tahoeCore {
	host.cwnd = tahoeInitialCwnd
	return tahoeCore{host: host, ssthresh: initialSSThresh, slowStart: true}
}

// onAck applies Tahoe's ACK-clocked window growth: +1 per ACK during slow
// start (until ssthresh is crossed), or +1/cwnd during congestion
// avoidance, the latter only when this ACK actually advances the
// sender's base (duplicate ACKs of an already-advanced base don't grow
// the window).
func (c *tahoeCore) onAck(advancesBase bool, now Time) {
	cwnd := c.host.cwnd
	if c.slowStart {
		cwnd++
		if cwnd >= c.ssthresh {
			c.slowStart = false
		}
		c.host.setWindowSize(now, cwnd)
		return
	}
	if advancesBase {
		c.host.setWindowSize(now, cwnd+1/cwnd)
	}
}

// onTimeout applies Tahoe's full window reset, rate-limited by
// TimeoutTolerance so one lossy RTT cannot trigger more than one reset.
func (c *tahoeCore) onTimeout(now Time) {
	if c.haveDropped && now-c.lastDrop < TimeoutTolerance {
		return
	}
	cwnd := c.host.cwnd
	c.ssthresh = math.Max(cwnd/2, tahoeInitialCwnd)
	c.slowStart = true
	c.lastDrop = now
	c.haveDropped = true
	c.host.setWindowSize(now, tahoeInitialCwnd)
}

// TahoeCC is TCP Tahoe: slow start, congestion avoidance, and a full
// window reset to tahoeInitialCwnd on timeout.
type TahoeCC struct {
	tahoeCore
}

// NewTahoeCC creates a [TahoeCC] and sets host's initial window.
func NewTahoeCC(host *Host) *TahoeCC {
	return &TahoeCC{tahoeCore: newTahoeCore(host)}
}

func (cc *TahoeCC) handleSend(pkt *FlowPacket, now Time) {}

func (cc *TahoeCC) handleReceive(ack *AckPacket, now Time) {
	cc.onAck(ack.RequestNumber > cc.host.sb, now)
}

func (cc *TahoeCC) handleTimeout(pkt *FlowPacket, now Time) {
	cc.onTimeout(now)
}

var _ CongestionControl = &TahoeCC{}

// RenoCC is TCP Reno: [TahoeCC]'s slow start and congestion avoidance,
// plus fast retransmit -- a run of renoDupACKRun identical trailing
// request numbers halves cwnd to ssthresh instead of waiting for a full
// timeout-triggered reset.
type RenoCC struct {
	tahoeCore
	recentRequests []int
}

// NewRenoCC creates a [RenoCC] and sets host's initial window.
func NewRenoCC(host *Host) *RenoCC {
	return &RenoCC{tahoeCore: newTahoeCore(host)}
}

func (cc *RenoCC) handleSend(pkt *FlowPacket, now Time) {}

func (cc *RenoCC) handleReceive(ack *AckPacket, now Time) {
	cc.recentRequests = append(cc.recentRequests, ack.RequestNumber)
	if len(cc.recentRequests) > renoDupACKRun {
		cc.recentRequests = cc.recentRequests[len(cc.recentRequests)-renoDupACKRun:]
	}
	if cc.isTripleDuplicate() && (!cc.haveDropped || now-cc.lastDrop >= TimeoutTolerance) {
		cwnd := cc.host.cwnd
		cc.ssthresh = math.Max(cwnd/2, tahoeInitialCwnd)
		cc.lastDrop = now
		cc.haveDropped = true
		cc.host.setWindowSize(now, cc.ssthresh)
		return
	}
	cc.onAck(ack.RequestNumber > cc.host.sb, now)
}

// isTripleDuplicate reports whether the last renoDupACKRun request
// numbers received are all identical.
func (cc *RenoCC) isTripleDuplicate() bool {
	if len(cc.recentRequests) < renoDupACKRun {
		return false
	}
	first := cc.recentRequests[0]
	for _, r := range cc.recentRequests[1:] {
		if r != first {
			return false
		}
	}
	return true
}

func (cc *RenoCC) handleTimeout(pkt *FlowPacket, now Time) {
	cc.onTimeout(now)
}

var _ CongestionControl = &RenoCC{}

// FastCC is FAST TCP: an RTT-based window update applied at most every
// fastUpdateInterval, instead of an ACK-clocked additive increase.
type FastCC struct {
	host        *Host
	rttMin      Time
	haveRTT     bool
	lastUpdate  Time
	haveLastUpd bool
}

// NewFastCC creates a [FastCC] and sets host's initial window.
func NewFastCC(host *Host) *FastCC {
	host.cwnd = fastInitialCwnd
	return &FastCC{host: host}
}

func (cc *FastCC) handleSend(pkt *FlowPacket, now Time) {}

func (cc *FastCC) handleTimeout(pkt *FlowPacket, now Time) {}

func (cc *FastCC) handleReceive(ack *AckPacket, now Time) {
	sentAt, ok := cc.host.sentTime[ack.TriggerPacket]
	if !ok {
		return
	}
	rtt := now - sentAt
	if rtt <= 0 {
		return
	}
	if !cc.haveRTT || rtt < cc.rttMin {
		cc.rttMin = rtt
		cc.haveRTT = true
	}

	if cc.haveLastUpd && now-cc.lastUpdate < fastUpdateInterval {
		return
	}
	// Guard against a division by zero / nonsensical update before any
	// RTT sample exists.
	if !cc.haveRTT || rtt <= 0 {
		return
	}
	cwnd := cc.host.cwnd
	newCwnd := float64(cc.rttMin)/float64(rtt)*cwnd + fastAlpha
	cc.lastUpdate = now
	cc.haveLastUpd = true
	cc.host.setWindowSize(now, newCwnd)
}

var _ CongestionControl = &FastCC{}

// NewCongestionControl constructs the [CongestionControl] strategy named
// by mode for host.
func NewCongestionControl(mode CongestionMode, host *Host) CongestionControl {
	switch mode {
	case CongestionTahoe:
		return NewTahoeCC(host)
	case CongestionReno:
		return NewRenoCC(host)
	case CongestionFAST:
		return NewFastCC(host)
	default:
		return NewNullCC(host)
	}
}
