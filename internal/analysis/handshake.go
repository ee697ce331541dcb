package analysis

import (
	"time"

	"tracemetrics/internal/models"
)

const (
	flagsSYN    = models.FlagSYN
	flagsSYNACK = models.FlagSYN | models.FlagACK
)

// LatencySample is one matched request/response pair, stamped with the response time.
type LatencySample struct {
	Time time.Time
	RTT  time.Duration
}

// HandshakeMatcher pairs TCP SYNs with the SYN-ACKs that acknowledge them.
// A SYN is pending under seq+1, which is the ack number its SYN-ACK carries.
type HandshakeMatcher struct {
	pending *pendingTable[uint32]
	samples []LatencySample
}

func NewHandshakeMatcher() *HandshakeMatcher {
	return &HandshakeMatcher{
		pending: newPendingTable[uint32](),
		samples: make([]LatencySample, 0),
	}
}

// Observe feeds one packet to the matcher. It returns the sample produced when the
// packet completes a handshake.
func (m *HandshakeMatcher) Observe(pkt models.Packet) (LatencySample, bool) {
	if pkt.TCP == nil {
		return LatencySample{}, false
	}

	switch pkt.TCP.Flags {
	case flagsSYN:
		// A retransmitted SYN with the same sequence number replaces the earlier one.
		m.pending.Put(pkt.TCP.Seq+1, pkt.Timestamp)
	case flagsSYNACK:
		sent, ok := m.pending.Take(pkt.TCP.Ack)
		if !ok {
			return LatencySample{}, false
		}
		sample := LatencySample{Time: pkt.Timestamp, RTT: pkt.Timestamp.Sub(sent)}
		m.samples = append(m.samples, sample)
		return sample, true
	}
	return LatencySample{}, false
}

// Samples returns the handshakes matched so far, in the order their SYN-ACKs arrived.
func (m *HandshakeMatcher) Samples() []LatencySample {
	return m.samples
}

// Pending returns the number of SYNs still waiting for a SYN-ACK.
func (m *HandshakeMatcher) Pending() int {
	return m.pending.Len()
}

// Replaced returns how many pending SYNs were overwritten by a later SYN.
func (m *HandshakeMatcher) Replaced() int {
	return m.pending.Replaced()
}

// HandshakeLatency returns (SYN-ACK time, RTT) for every SYN answered by a SYN-ACK.
// Only packets whose flags are exactly SYN or exactly SYN|ACK take part.
func HandshakeLatency(packets []models.Packet) []LatencySample {
	m := NewHandshakeMatcher()
	for _, pkt := range packets {
		m.Observe(pkt)
	}
	return m.Samples()
}
