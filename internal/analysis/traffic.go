package analysis

import (
	"fmt"
	"time"

	"tracemetrics/internal/models"
)

// CumulativePoint is the running byte total after one packet.
type CumulativePoint struct {
	Time  time.Time
	Bytes int64
}

// PacketSizes returns the wire length of every packet in input order.
func PacketSizes(packets []models.Packet) ([]int, error) {
	sizes := make([]int, len(packets))
	for i, pkt := range packets {
		if pkt.Length < 0 {
			return nil, fmt.Errorf("packet sizes: packet %d has length %d: %w", i, pkt.Length, ErrMalformedPacket)
		}
		sizes[i] = pkt.Length
	}
	return sizes, nil
}

// CumulativeTraffic emits the running sum of packet lengths in input order.
// Input is not re-sorted, so the series is only time-ordered if the packets are.
func CumulativeTraffic(packets []models.Packet) ([]CumulativePoint, error) {
	points := make([]CumulativePoint, len(packets))
	var total int64
	for i, pkt := range packets {
		if pkt.Length < 0 {
			return nil, fmt.Errorf("cumulative traffic: packet %d has length %d: %w", i, pkt.Length, ErrMalformedPacket)
		}
		total += int64(pkt.Length)
		points[i] = CumulativePoint{Time: pkt.Timestamp, Bytes: total}
	}
	return points, nil
}

// Jitter returns |d[i] - d[i-1]| over the inter-arrival times d of consecutive
// packets. Fewer than three packets yield an empty series.
func Jitter(packets []models.Packet) []time.Duration {
	if len(packets) < 3 {
		return []time.Duration{}
	}

	jitter := make([]time.Duration, 0, len(packets)-2)
	prev := packets[1].Timestamp.Sub(packets[0].Timestamp)
	for i := 2; i < len(packets); i++ {
		cur := packets[i].Timestamp.Sub(packets[i-1].Timestamp)
		diff := cur - prev
		if diff < 0 {
			diff = -diff
		}
		jitter = append(jitter, diff)
		prev = cur
	}
	return jitter
}
