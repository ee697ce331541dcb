//go:build !pcap
// +build !pcap

package capture

import (
	"context"

	"tracemetrics/internal/models"
)

func (r *LibpcapReader) ReadPackets(ctx context.Context) ([]models.Packet, error) {
	return nil, ErrLibpcapUnavailable
}
