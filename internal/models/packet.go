package models

import (
	"strings"
	"time"
)

// Packet holds the fields of a decoded packet that the metrics engine reads.
// A nil layer pointer means the layer was not decoded.
type Packet struct {
	Timestamp time.Time
	Length    int // Bytes on the wire

	IP    *IPLayer
	Ports *PortPair // Set for TCP and UDP
	TCP   *TCPLayer
	DNS   *DNSLayer
}

// IPLayer carries the IP protocol number (IPv4 protocol or IPv6 next header).
type IPLayer struct {
	Protocol uint8
}

// PortPair holds transport source and destination ports.
type PortPair struct {
	Src uint16
	Dst uint16
}

// TCPLayer holds the TCP header fields used for handshake matching.
type TCPLayer struct {
	Flags TCPFlags
	Seq   uint32
	Ack   uint32
}

// DNSLayer holds the DNS transaction id and the QR bit.
type DNSLayer struct {
	ID       uint16
	Response bool
}

// TCPFlags is the set of control bits present in a TCP header. Bit positions
// match the header's flag field, NS being the ninth bit.
type TCPFlags uint16

const (
	FlagFIN TCPFlags = 1 << iota
	FlagSYN
	FlagRST
	FlagPSH
	FlagACK
	FlagURG
	FlagECE
	FlagCWR
	FlagNS
)

var flagNames = []struct {
	flag TCPFlags
	name string
}{
	{FlagFIN, "FIN"},
	{FlagSYN, "SYN"},
	{FlagRST, "RST"},
	{FlagPSH, "PSH"},
	{FlagACK, "ACK"},
	{FlagURG, "URG"},
	{FlagECE, "ECE"},
	{FlagCWR, "CWR"},
	{FlagNS, "NS"},
}

// Has reports whether every flag in f is set.
func (t TCPFlags) Has(f TCPFlags) bool {
	return t&f == f
}

func (t TCPFlags) String() string {
	if t == 0 {
		return "none"
	}
	var names []string
	for _, fn := range flagNames {
		if t.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	return strings.Join(names, "|")
}
