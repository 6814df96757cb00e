package netsim

//
// The packet model: a small sealed tagged union (FlowPacket, AckPacket,
// StaticRoutingPacket, DynamicRoutingPacket) behind one interface, with
// dispatch by type switch wherever a component needs to branch on kind
// (see Router.receive, Host.receive). Grounded on
// components/packet.py and components/packet_types/*.py of the original
// simulator, which modeled the same union through a class hierarchy,
// replaced here with exactly this shape.
//

import "fmt"

// Wire-format size constants, matched bit-exact against the original.
const (
	// FlowPacketSize is the fixed wire size of every FlowPacket, in bytes.
	FlowPacketSize = 1024

	// AckPacketSize is the fixed wire size of every AckPacket, in bytes.
	AckPacketSize = 64

	// packetHeaderBytes is the header a routing packet pays: two 8-byte
	// integers, plus one byte per id character (ASCII) added by
	// packetHeaderSize. FlowPacket and AckPacket have fixed sizes instead.
	packetHeaderBytes = 2 * 8

	// costTableEntryBytes is the per-entry cost of serializing a routing
	// packet's cost table: two 8-byte integers (node id hash, cost).
	costTableEntryBytes = 2 * 8
)

// Packet is the common interface of every packet variant carried by
// [Link] buffers and scheduler events. Equality and hashing are by ID.
type Packet interface {
	// ID returns this packet's globally unique identifier.
	ID() string

	// Size returns this packet's serialized size in bytes, as accounted
	// by link buffers and throughput telemetry.
	Size() int

	// Source returns the identifier of the node that originated this
	// packet.
	Source() string

	// Destination returns the identifier of this packet's destination
	// node.
	Destination() string
}

// packetHeaderSize is the base header size of the routing packet
// variants: 2 eight-byte integers plus the length of its id string.
func packetHeaderSize(id string) int {
	return packetHeaderBytes + len(id)
}

// FlowPacket carries one chunk of a [Flow]'s application data.
type FlowPacket struct {
	// FlowID is the owning flow's identifier.
	FlowID string

	// Sequence is this packet's position in the flow, starting at 0.
	Sequence int

	// Src is the sending host's identifier.
	Src string

	// Dest is the destination host's identifier.
	Dest string
}

// ID implements Packet.
func (p *FlowPacket) ID() string { return fmt.Sprintf("%s.%d", p.FlowID, p.Sequence) }

// Size implements Packet. Every FlowPacket occupies FlowPacketSize bytes
// on the wire, even the flow's final, possibly-short chunk.
func (p *FlowPacket) Size() int { return FlowPacketSize }

// Source implements Packet.
func (p *FlowPacket) Source() string { return p.Src }

// Destination implements Packet.
func (p *FlowPacket) Destination() string { return p.Dest }

func (p *FlowPacket) String() string {
	return fmt.Sprintf("Flow(id=%s)", p.ID())
}

// AckPacket cumulatively acknowledges a [Flow]'s received FlowPackets.
type AckPacket struct {
	// FlowID is the owning flow's identifier.
	FlowID string

	// RequestNumber is the next in-order sequence number the receiver
	// expects; ACKs are cumulative, so this always carries the current
	// expected value, not the sequence being acknowledged.
	RequestNumber int

	// TriggerPacket is the id of the FlowPacket whose arrival produced
	// this ACK, used by FAST TCP to measure RTT.
	TriggerPacket string

	// Src is the acknowledging host's identifier.
	Src string

	// Dest is the sender host's identifier.
	Dest string
}

// ID implements Packet.
func (p *AckPacket) ID() string { return fmt.Sprintf("%s.%d", p.FlowID, p.RequestNumber) }

// Size implements Packet.
func (p *AckPacket) Size() int { return AckPacketSize }

// Source implements Packet.
func (p *AckPacket) Source() string { return p.Src }

// Destination implements Packet.
func (p *AckPacket) Destination() string { return p.Dest }

func (p *AckPacket) String() string {
	return fmt.Sprintf("Ack(flow=%s, Rn=%d)", p.FlowID, p.RequestNumber)
}

// StaticRoutingPacket carries one router's cost table during the
// one-time static routing-table build.
type StaticRoutingPacket struct {
	PacketID  string
	SrcRouter string
	Dest      string
	CostTable map[string]float64
}

// ID implements Packet.
func (p *StaticRoutingPacket) ID() string { return p.PacketID }

// Size implements Packet.
func (p *StaticRoutingPacket) Size() int {
	return packetHeaderSize(p.PacketID) + costTableEntryBytes*len(p.CostTable)
}

// Source implements Packet.
func (p *StaticRoutingPacket) Source() string { return p.SrcRouter }

// Destination implements Packet.
func (p *StaticRoutingPacket) Destination() string { return p.Dest }

func (p *StaticRoutingPacket) String() string {
	return fmt.Sprintf("StaticRouting(src=%s table=%v)", p.SrcRouter, p.CostTable)
}

// DynamicRoutingPacket carries one router's cost table during the
// periodically refreshed dynamic routing exchange.
type DynamicRoutingPacket struct {
	PacketID  string
	SrcRouter string
	Dest      string
	CostTable map[string]float64
}

// ID implements Packet.
func (p *DynamicRoutingPacket) ID() string { return p.PacketID }

// Size implements Packet.
func (p *DynamicRoutingPacket) Size() int {
	return packetHeaderSize(p.PacketID) + costTableEntryBytes*len(p.CostTable)
}

// Source implements Packet.
func (p *DynamicRoutingPacket) Source() string { return p.SrcRouter }

// Destination implements Packet.
func (p *DynamicRoutingPacket) Destination() string { return p.Dest }

func (p *DynamicRoutingPacket) String() string {
	return fmt.Sprintf("DynamicRouting(src=%s table=%v)", p.SrcRouter, p.CostTable)
}

var (
	_ Packet = &FlowPacket{}
	_ Packet = &AckPacket{}
	_ Packet = &StaticRoutingPacket{}
	_ Packet = &DynamicRoutingPacket{}
)
