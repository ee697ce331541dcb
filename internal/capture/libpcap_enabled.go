//go:build pcap
// +build pcap

package capture

import (
	"context"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/pcap"
	"github.com/sirupsen/logrus"

	"tracemetrics/internal/models"
)

func (r *LibpcapReader) ReadPackets(ctx context.Context) ([]models.Packet, error) {
	handle, err := pcap.OpenOffline(r.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open pcap file %s: %w", r.path, err)
	}
	defer handle.Close()

	if r.filter != "" {
		if err := handle.SetBPFFilter(r.filter); err != nil {
			return nil, fmt.Errorf("failed to set BPF filter '%s': %w", r.filter, err)
		}
	}

	log := r.logger.WithFields(logrus.Fields{"file": r.path, "filter": r.filter})
	packets, err := collect(ctx, gopacket.NewPacketSource(handle, handle.LinkType()), log)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.path, err)
	}
	log.WithField("packets", len(packets)).Info("Read trace")
	return packets, nil
}
