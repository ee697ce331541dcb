package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/sirupsen/logrus"

	"tracemetrics/internal/logging"
	"tracemetrics/internal/models"
)

// Decoder names accepted by New.
const (
	DecoderGopacket = "gopacket"
	DecoderLibpcap  = "libpcap"
	DecoderTshark   = "tshark"
)

// ErrLibpcapUnavailable is returned by LibpcapReader in builds without the pcap tag.
var ErrLibpcapUnavailable = errors.New("built without libpcap support (rebuild with -tags pcap)")

// Reader loads a complete trace.
type Reader interface {
	ReadPackets(ctx context.Context) ([]models.Packet, error)
}

// New returns the reader for the named decoder. filter is a BPF expression and is
// only honoured by the libpcap decoder.
func New(decoder, path, filter string, logger logrus.FieldLogger) (Reader, error) {
	logger = logging.OrDiscard(logger)

	switch strings.ToLower(decoder) {
	case DecoderGopacket, "":
		if filter != "" {
			logger.WithField("filter", filter).Warn("BPF filter ignored by the gopacket decoder")
		}
		return NewFileReader(path, logger), nil
	case DecoderLibpcap:
		return NewLibpcapReader(path, filter, logger), nil
	case DecoderTshark:
		if filter != "" {
			logger.WithField("filter", filter).Warn("BPF filter ignored by the tshark decoder")
		}
		return NewTsharkReader(path, logger), nil
	default:
		return nil, fmt.Errorf("unknown decoder: %s", decoder)
	}
}

// Decode extracts the fields the metrics engine reads from a gopacket packet.
func Decode(packet gopacket.Packet) models.Packet {
	md := packet.Metadata()
	pkt := models.Packet{
		Timestamp: md.Timestamp,
		Length:    md.Length,
	}
	if pkt.Length == 0 {
		pkt.Length = len(packet.Data())
	}

	if ipLayer := packet.Layer(layers.LayerTypeIPv4); ipLayer != nil {
		ip, _ := ipLayer.(*layers.IPv4)
		pkt.IP = &models.IPLayer{Protocol: uint8(ip.Protocol)}
	} else if ipLayer := packet.Layer(layers.LayerTypeIPv6); ipLayer != nil {
		ip, _ := ipLayer.(*layers.IPv6)
		pkt.IP = &models.IPLayer{Protocol: uint8(ip.NextHeader)}
	}

	if tcpLayer := packet.Layer(layers.LayerTypeTCP); tcpLayer != nil {
		tcp, _ := tcpLayer.(*layers.TCP)
		pkt.Ports = &models.PortPair{Src: uint16(tcp.SrcPort), Dst: uint16(tcp.DstPort)}
		pkt.TCP = &models.TCPLayer{
			Flags: tcpFlags(tcp),
			Seq:   tcp.Seq,
			Ack:   tcp.Ack,
		}
	} else if udpLayer := packet.Layer(layers.LayerTypeUDP); udpLayer != nil {
		udp, _ := udpLayer.(*layers.UDP)
		pkt.Ports = &models.PortPair{Src: uint16(udp.SrcPort), Dst: uint16(udp.DstPort)}
	}

	if dnsLayer := packet.Layer(layers.LayerTypeDNS); dnsLayer != nil {
		dns, _ := dnsLayer.(*layers.DNS)
		pkt.DNS = &models.DNSLayer{ID: dns.ID, Response: dns.QR}
	}

	return pkt
}

func tcpFlags(tcp *layers.TCP) models.TCPFlags {
	var flags models.TCPFlags
	set := func(on bool, f models.TCPFlags) {
		if on {
			flags |= f
		}
	}
	set(tcp.FIN, models.FlagFIN)
	set(tcp.SYN, models.FlagSYN)
	set(tcp.RST, models.FlagRST)
	set(tcp.PSH, models.FlagPSH)
	set(tcp.ACK, models.FlagACK)
	set(tcp.URG, models.FlagURG)
	set(tcp.ECE, models.FlagECE)
	set(tcp.CWR, models.FlagCWR)
	set(tcp.NS, models.FlagNS)
	return flags
}

// collect drains a packet source, stopping early when ctx is cancelled.
// A truncated final record ends the trace instead of failing it.
func collect(ctx context.Context, source *gopacket.PacketSource, logger logrus.FieldLogger) ([]models.Packet, error) {
	var packets []models.Packet
	undecodable := 0

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		packet, err := source.NextPacket()
		if err == io.EOF {
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			logger.WithField("packets", len(packets)).Warn("Trace ends with a truncated packet")
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read packet %d: %w", len(packets)+1, err)
		}

		if packet.ErrorLayer() != nil {
			undecodable++
		}
		packets = append(packets, Decode(packet))
	}

	if undecodable > 0 {
		logger.WithField("packets", undecodable).Debug("Some packets were only partially decoded")
	}
	return packets, nil
}
