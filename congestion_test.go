package netsim

import (
	"testing"

	"github.com/netsim-project/netsim/internal"
)

func newTestHost(t *testing.T, s *Scheduler, mode CongestionMode) *Host {
	t.Helper()
	sender := NewHost(s, &internal.NullLogger{}, "H1")
	receiver := NewHost(s, &internal.NullLogger{}, "H2")
	Must1(NewLink(s, &internal.NullLogger{}, "L1", 10, 1, 1<<20, sender, receiver))
	flow := &Flow{ID: "F1", Src: "H1", Dest: "H2", TotalBytes: 1000 * FlowPacketSize, StartMs: 0, Mode: mode}
	sender.AssignFlow(flow)
	return sender
}

func TestTahoeGrowsOnePerAckDuringSlowStart(t *testing.T) {
	s := NewScheduler(&internal.NullLogger{}, TickStep)
	sender := newTestHost(t, s, CongestionTahoe)
	if sender.cwnd != tahoeInitialCwnd {
		t.Fatalf("expected initial cwnd %v, got %v", float64(tahoeInitialCwnd), sender.cwnd)
	}

	sender.receiveAck(&AckPacket{FlowID: "F1", RequestNumber: 1, Src: "H2", Dest: "H1"}, 1)
	if sender.cwnd != tahoeInitialCwnd+1 {
		t.Fatalf("expected cwnd %v after one slow-start ack, got %v", float64(tahoeInitialCwnd+1), sender.cwnd)
	}
}

func TestTahoeResetsToInitialCwndOnTimeoutAndReentersSlowStart(t *testing.T) {
	s := NewScheduler(&internal.NullLogger{}, TickStep)
	sender := newTestHost(t, s, CongestionTahoe)
	cc := sender.cc.(*TahoeCC)

	// Grow past slow start isn't required to observe the reset: any
	// timeout resets cwnd to tahoeInitialCwnd and ssthresh to half the
	// pre-loss window (floored at tahoeInitialCwnd).
	sender.cwnd = 16
	cc.slowStart = false

	pkt := &FlowPacket{FlowID: "F1", Sequence: 0, Src: "H1", Dest: "H2"}
	sender.awaitingAck[pkt.ID()] = pkt
	sender.onTimeout(pkt.ID(), 0)

	if sender.cwnd != tahoeInitialCwnd {
		t.Fatalf("expected cwnd reset to %v, got %v", float64(tahoeInitialCwnd), sender.cwnd)
	}
	if !cc.slowStart {
		t.Fatal("expected Tahoe to re-enter slow start after a timeout")
	}
	if cc.ssthresh != 8 {
		t.Fatalf("expected ssthresh halved to 8, got %v", cc.ssthresh)
	}
}

func TestTahoeTimeoutIsRateLimitedByTimeoutTolerance(t *testing.T) {
	s := NewScheduler(&internal.NullLogger{}, TickStep)
	sender := newTestHost(t, s, CongestionTahoe)
	cc := sender.cc.(*TahoeCC)

	sender.cwnd = 16
	cc.slowStart = false
	p1 := &FlowPacket{FlowID: "F1", Sequence: 0, Src: "H1", Dest: "H2"}
	sender.awaitingAck[p1.ID()] = p1
	sender.onTimeout(p1.ID(), 0)
	if sender.cwnd != tahoeInitialCwnd {
		t.Fatalf("expected first timeout to reset cwnd, got %v", sender.cwnd)
	}

	// A second timeout arriving within TimeoutTolerance of the first must
	// not reset the window again.
	sender.cwnd = 16
	p2 := &FlowPacket{FlowID: "F1", Sequence: 1, Src: "H1", Dest: "H2"}
	sender.awaitingAck[p2.ID()] = p2
	sender.onTimeout(p2.ID(), TimeoutTolerance-1)
	if sender.cwnd != 16 {
		t.Fatalf("expected a rate-limited timeout to leave cwnd untouched, got %v", sender.cwnd)
	}

	// One arriving at or past TimeoutTolerance resets again.
	p3 := &FlowPacket{FlowID: "F1", Sequence: 2, Src: "H1", Dest: "H2"}
	sender.awaitingAck[p3.ID()] = p3
	sender.onTimeout(p3.ID(), TimeoutTolerance)
	if sender.cwnd != tahoeInitialCwnd {
		t.Fatalf("expected a timeout at TimeoutTolerance to reset cwnd again, got %v", sender.cwnd)
	}
}

func TestRenoHalvesToSSThreshOnTripleDuplicateAckWithoutFullReset(t *testing.T) {
	s := NewScheduler(&internal.NullLogger{}, TickStep)
	sender := newTestHost(t, s, CongestionReno)
	cc := sender.cc.(*RenoCC)
	cc.slowStart = false
	sender.cwnd = 16
	sender.sb = 5

	// Four identical trailing request numbers (all duplicating sb=5) is
	// Reno's fast-retransmit trigger; it must halve cwnd to ssthresh, not
	// reset it to tahoeInitialCwnd the way a timeout would.
	for i := 0; i < 4; i++ {
		sender.receiveAck(&AckPacket{FlowID: "F1", RequestNumber: 5, Src: "H2", Dest: "H1"}, Time(i))
	}

	if sender.cwnd != 8 {
		t.Fatalf("expected cwnd halved to 8 on triple-duplicate ack, got %v", sender.cwnd)
	}
	if sender.cwnd == tahoeInitialCwnd {
		t.Fatal("expected Reno's fast retransmit to avoid a full reset to tahoeInitialCwnd")
	}
}

func TestRenoDoesNotFastRetransmitOnFewerThanFourDuplicates(t *testing.T) {
	s := NewScheduler(&internal.NullLogger{}, TickStep)
	sender := newTestHost(t, s, CongestionReno)
	cc := sender.cc.(*RenoCC)
	cc.slowStart = false
	sender.cwnd = 16
	sender.sb = 5

	for i := 0; i < 3; i++ {
		sender.receiveAck(&AckPacket{FlowID: "F1", RequestNumber: 5, Src: "H2", Dest: "H1"}, Time(i))
	}
	if sender.cwnd != 16 {
		t.Fatalf("expected cwnd untouched before the fourth duplicate, got %v", sender.cwnd)
	}
}

func TestFastTCPStartsAtInitialCwndAndUpdatesFromRTT(t *testing.T) {
	s := NewScheduler(&internal.NullLogger{}, TickStep)
	sender := newTestHost(t, s, CongestionFAST)
	if sender.cwnd != fastInitialCwnd {
		t.Fatalf("expected initial cwnd %v, got %v", float64(fastInitialCwnd), sender.cwnd)
	}

	pkt := &FlowPacket{FlowID: "F1", Sequence: 0, Src: "H1", Dest: "H2"}
	sender.awaitingAck[pkt.ID()] = pkt
	sender.sentTime[pkt.ID()] = 0

	sender.receiveAck(&AckPacket{FlowID: "F1", RequestNumber: 1, TriggerPacket: pkt.ID(), Src: "H2", Dest: "H1"}, 50)
	// rttMin == latestRTT on the first sample, so the update collapses to
	// cwnd + alpha.
	want := fastInitialCwnd + fastAlpha
	if sender.cwnd != float64(want) {
		t.Fatalf("expected cwnd %v after the first RTT sample, got %v", float64(want), sender.cwnd)
	}
}

func TestFastTCPSuppressesUpdatesWithinUpdateInterval(t *testing.T) {
	s := NewScheduler(&internal.NullLogger{}, TickStep)
	sender := newTestHost(t, s, CongestionFAST)

	p1 := &FlowPacket{FlowID: "F1", Sequence: 0, Src: "H1", Dest: "H2"}
	sender.awaitingAck[p1.ID()] = p1
	sender.sentTime[p1.ID()] = 0
	sender.receiveAck(&AckPacket{FlowID: "F1", RequestNumber: 1, TriggerPacket: p1.ID(), Src: "H2", Dest: "H1"}, 50)
	afterFirst := sender.cwnd

	p2 := &FlowPacket{FlowID: "F1", Sequence: 1, Src: "H1", Dest: "H2"}
	sender.awaitingAck[p2.ID()] = p2
	sender.sentTime[p2.ID()] = 50
	// Arrives well within fastUpdateInterval of the first update: the
	// window must not move again yet.
	sender.receiveAck(&AckPacket{FlowID: "F1", RequestNumber: 2, TriggerPacket: p2.ID(), Src: "H2", Dest: "H1"}, 100)
	if sender.cwnd != afterFirst {
		t.Fatalf("expected cwnd unchanged within fastUpdateInterval, got %v (was %v)", sender.cwnd, afterFirst)
	}
}

func TestNullCongestionControlHoldsAnEffectivelyUnboundedWindow(t *testing.T) {
	s := NewScheduler(&internal.NullLogger{}, TickStep)
	sender := newTestHost(t, s, CongestionNull)
	if sender.cwnd != initialSSThresh {
		t.Fatalf("expected Null cwnd to start effectively unbounded, got %v", sender.cwnd)
	}
	sender.receiveAck(&AckPacket{FlowID: "F1", RequestNumber: 1, Src: "H2", Dest: "H1"}, 1)
	if sender.cwnd != initialSSThresh {
		t.Fatalf("expected Null cwnd to stay unbounded after an ack, got %v", sender.cwnd)
	}
}
