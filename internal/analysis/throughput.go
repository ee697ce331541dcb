package analysis

import (
	"fmt"
	"sort"
	"time"

	"tracemetrics/internal/models"
)

// DefaultWindow is the throughput bucket width used when none is configured.
const DefaultWindow = time.Second

// MaxWindows bounds the number of throughput windows one trace may produce.
const MaxWindows = 1 << 22

// ThroughputPoint is the bit rate observed in one window.
type ThroughputPoint struct {
	Start         time.Time // Window start, UTC
	BitsPerSecond float64
}

// Throughput buckets packet volume into consecutive half-open windows [t, t+window)
// starting at the earliest timestamp. Every window up to and including the one
// holding the latest timestamp is emitted, empty ones with a zero rate.
func Throughput(packets []models.Packet, window time.Duration) ([]ThroughputPoint, error) {
	if window <= 0 {
		return nil, fmt.Errorf("throughput window %s: %w", window, ErrInvalidWindow)
	}
	if len(packets) == 0 {
		return nil, fmt.Errorf("throughput: %w", ErrEmptyInput)
	}

	// Sort indices, not packets: the input is read-only.
	order := make([]int, len(packets))
	for i, pkt := range packets {
		if pkt.Length < 0 {
			return nil, fmt.Errorf("throughput: packet %d has length %d: %w", i, pkt.Length, ErrMalformedPacket)
		}
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return packets[order[a]].Timestamp.Before(packets[order[b]].Timestamp)
	})

	first := packets[order[0]].Timestamp
	last := packets[order[len(order)-1]].Timestamp

	count := int64(last.Sub(first)/window) + 1
	if count > MaxWindows {
		return nil, fmt.Errorf("throughput: span %s needs %d windows of %s, limit is %d: %w",
			last.Sub(first), count, window, MaxWindows, ErrInvalidWindow)
	}

	points := make([]ThroughputPoint, 0, count)
	next := 0
	for start := first; !start.After(last); start = start.Add(window) {
		end := start.Add(window)

		var bytes int64
		for next < len(order) {
			pkt := packets[order[next]]
			if !inWindow(pkt.Timestamp, start, end) {
				break
			}
			bytes += int64(pkt.Length)
			next++
		}

		points = append(points, ThroughputPoint{
			Start:         start.UTC(),
			BitsPerSecond: float64(bytes*8) / window.Seconds(),
		})
	}

	return points, nil
}

func inWindow(ts, start, end time.Time) bool {
	return !ts.Before(start) && ts.Before(end)
}
