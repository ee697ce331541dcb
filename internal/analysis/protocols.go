package analysis

import (
	"fmt"
	"sort"
	"strings"

	"tracemetrics/internal/models"
)

// ClassifyMode selects how packets are mapped to protocol labels.
type ClassifyMode int

const (
	// ClassifyPorts labels a packet by a well-known transport port when it has one,
	// falling back to the IP protocol number.
	ClassifyPorts ClassifyMode = iota
	// ClassifyCompat compares every code, port numbers included, against the IP
	// protocol number. Port-derived labels can then only match a protocol number
	// that happens to equal the port. Kept so older reports can be reproduced.
	ClassifyCompat
)

func (m ClassifyMode) String() string {
	switch m {
	case ClassifyPorts:
		return "ports"
	case ClassifyCompat:
		return "compat"
	default:
		return fmt.Sprintf("ClassifyMode(%d)", int(m))
	}
}

// ParseClassifyMode parses "ports" or "compat".
func ParseClassifyMode(s string) (ClassifyMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ports", "":
		return ClassifyPorts, nil
	case "compat":
		return ClassifyCompat, nil
	default:
		return 0, fmt.Errorf("unknown protocol classification mode: %s", s)
	}
}

// ProtocolCount is the number of packets carrying one label.
type ProtocolCount struct {
	Protocol string
	Count    int
}

// ProtocolDistribution maps a protocol label to its packet count.
type ProtocolDistribution map[string]int

// Sorted returns the counts ordered by label.
func (d ProtocolDistribution) Sorted() []ProtocolCount {
	stats := make([]ProtocolCount, 0, len(d))
	for proto, count := range d {
		stats = append(stats, ProtocolCount{Protocol: proto, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Protocol < stats[j].Protocol
	})
	return stats
}

// Total returns the number of classified packets.
func (d ProtocolDistribution) Total() int {
	total := 0
	for _, count := range d {
		total += count
	}
	return total
}

// ProtocolDistributionOf counts packets per protocol label. Packets without an IP
// layer are not counted at all.
func ProtocolDistributionOf(packets []models.Packet, mode ClassifyMode) ProtocolDistribution {
	dist := make(ProtocolDistribution)
	for _, pkt := range packets {
		if pkt.IP == nil {
			continue
		}
		dist[classify(pkt, mode)]++
	}
	return dist
}

func classify(pkt models.Packet, mode ClassifyMode) string {
	proto := int(pkt.IP.Protocol)

	if mode == ClassifyCompat {
		if label, ok := transportProtocols[proto]; ok {
			return label
		}
		if label, ok := commonPorts[proto]; ok {
			return label
		}
		return LabelOther
	}

	if pkt.Ports != nil {
		// Destination first: requests carry the service port there.
		if label, ok := commonPorts[int(pkt.Ports.Dst)]; ok {
			return label
		}
		if label, ok := commonPorts[int(pkt.Ports.Src)]; ok {
			return label
		}
	}
	if label, ok := transportProtocols[proto]; ok {
		return label
	}
	return LabelOther
}
