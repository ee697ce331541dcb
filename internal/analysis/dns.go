package analysis

import (
	"time"

	"tracemetrics/internal/models"
)

// ResolutionMatcher pairs DNS queries with responses by transaction id.
type ResolutionMatcher struct {
	pending *pendingTable[uint16]
	samples []LatencySample
}

func NewResolutionMatcher() *ResolutionMatcher {
	return &ResolutionMatcher{
		pending: newPendingTable[uint16](),
		samples: make([]LatencySample, 0),
	}
}

// Observe feeds one packet to the matcher. It returns the sample produced when the
// packet answers a pending query.
func (m *ResolutionMatcher) Observe(pkt models.Packet) (LatencySample, bool) {
	if pkt.DNS == nil {
		return LatencySample{}, false
	}

	if !pkt.DNS.Response {
		m.pending.Put(pkt.DNS.ID, pkt.Timestamp)
		return LatencySample{}, false
	}

	asked, ok := m.pending.Take(pkt.DNS.ID)
	if !ok {
		return LatencySample{}, false
	}
	sample := LatencySample{Time: pkt.Timestamp, RTT: pkt.Timestamp.Sub(asked)}
	m.samples = append(m.samples, sample)
	return sample, true
}

func (m *ResolutionMatcher) Samples() []LatencySample {
	return m.samples
}

// Pending returns the number of queries still waiting for a response.
func (m *ResolutionMatcher) Pending() int {
	return m.pending.Len()
}

// Replaced returns how many pending queries were overwritten by a later query with the same id.
func (m *ResolutionMatcher) Replaced() int {
	return m.pending.Replaced()
}

// DNSResolutionSamples returns every answered query stamped with its response time.
func DNSResolutionSamples(packets []models.Packet) []LatencySample {
	m := NewResolutionMatcher()
	for _, pkt := range packets {
		m.Observe(pkt)
	}
	return m.Samples()
}

// DNSResolutionLatency returns the query-to-response time of every answered query.
func DNSResolutionLatency(packets []models.Packet) []time.Duration {
	return RTTs(DNSResolutionSamples(packets))
}

// RTTs drops the timestamps of a sample series.
func RTTs(samples []LatencySample) []time.Duration {
	rtts := make([]time.Duration, len(samples))
	for i, s := range samples {
		rtts[i] = s.RTT
	}
	return rtts
}
