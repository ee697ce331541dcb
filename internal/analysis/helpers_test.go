package analysis

import (
	"time"

	"tracemetrics/internal/models"
)

var epoch = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func at(offset time.Duration) time.Time {
	return epoch.Add(offset)
}

func sized(offset time.Duration, length int) models.Packet {
	return models.Packet{Timestamp: at(offset), Length: length}
}

func ipPacket(proto uint8) models.Packet {
	return models.Packet{Timestamp: epoch, Length: 60, IP: &models.IPLayer{Protocol: proto}}
}

func withPorts(pkt models.Packet, src, dst uint16) models.Packet {
	pkt.Ports = &models.PortPair{Src: src, Dst: dst}
	return pkt
}

func syn(offset time.Duration, seq uint32) models.Packet {
	return tcpPacket(offset, models.FlagSYN, seq, 0)
}

func synAck(offset time.Duration, ack uint32) models.Packet {
	return tcpPacket(offset, models.FlagSYN|models.FlagACK, 5000, ack)
}

func tcpPacket(offset time.Duration, flags models.TCPFlags, seq, ack uint32) models.Packet {
	return models.Packet{
		Timestamp: at(offset),
		Length:    74,
		IP:        &models.IPLayer{Protocol: 6},
		TCP:       &models.TCPLayer{Flags: flags, Seq: seq, Ack: ack},
	}
}

func dnsQuery(offset time.Duration, id uint16) models.Packet {
	return dnsPacket(offset, id, false)
}

func dnsResponse(offset time.Duration, id uint16) models.Packet {
	return dnsPacket(offset, id, true)
}

func dnsPacket(offset time.Duration, id uint16, response bool) models.Packet {
	return models.Packet{
		Timestamp: at(offset),
		Length:    90,
		IP:        &models.IPLayer{Protocol: 17},
		DNS:       &models.DNSLayer{ID: id, Response: response},
	}
}
