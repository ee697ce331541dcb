package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"tracemetrics/internal/analysis"
)

// JSONReport is the serialized form of an analysis.Report. Durations are seconds.
type JSONReport struct {
	ID             string            `json:"id"`
	GeneratedAt    time.Time         `json:"generated_at"`
	Packets        int               `json:"packets"`
	Bytes          int64             `json:"bytes"`
	FirstSeen      time.Time         `json:"first_seen"`
	LastSeen       time.Time         `json:"last_seen"`
	WindowSeconds  float64           `json:"window_seconds"`
	Throughput     []JSONPoint       `json:"throughput"`
	Protocols      map[string]int    `json:"protocols"`
	Sizes          []int             `json:"sizes"`
	JitterSeconds  []float64         `json:"jitter_seconds"`
	Cumulative     []JSONPoint       `json:"cumulative"`
	TCPHandshakes  []JSONPoint       `json:"tcp_handshakes"`
	DNSResolutions []JSONPoint       `json:"dns_resolutions"`
	Errors         map[string]string `json:"errors,omitempty"`
}

// JSONPoint is one (time, value) pair of a series.
type JSONPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// NewJSONReport converts a report for serialization.
func NewJSONReport(r *analysis.Report) JSONReport {
	out := JSONReport{
		ID:             r.ID,
		GeneratedAt:    r.GeneratedAt,
		Packets:        r.PacketCount,
		Bytes:          r.TotalBytes,
		FirstSeen:      r.FirstSeen,
		LastSeen:       r.LastSeen,
		WindowSeconds:  r.Window.Seconds(),
		Throughput:     make([]JSONPoint, len(r.Throughput)),
		Protocols:      make(map[string]int, len(r.Protocols)),
		Sizes:          r.Sizes,
		JitterSeconds:  make([]float64, len(r.Jitter)),
		Cumulative:     make([]JSONPoint, len(r.Cumulative)),
		TCPHandshakes:  samplePoints(r.TCPHandshakes),
		DNSResolutions: samplePoints(r.DNSResolutions),
	}
	if out.Sizes == nil {
		out.Sizes = []int{}
	}

	for i, p := range r.Throughput {
		out.Throughput[i] = JSONPoint{Time: p.Start, Value: p.BitsPerSecond}
	}
	for label, count := range r.Protocols {
		out.Protocols[label] = count
	}
	for i, j := range r.Jitter {
		out.JitterSeconds[i] = j.Seconds()
	}
	for i, c := range r.Cumulative {
		out.Cumulative[i] = JSONPoint{Time: c.Time, Value: float64(c.Bytes)}
	}
	if len(r.Errors) > 0 {
		out.Errors = make(map[string]string, len(r.Errors))
		for metric, err := range r.Errors {
			out.Errors[string(metric)] = err.Error()
		}
	}
	return out
}

func samplePoints(samples []analysis.LatencySample) []JSONPoint {
	points := make([]JSONPoint, len(samples))
	for i, s := range samples {
		points[i] = JSONPoint{Time: s.Time, Value: s.RTT.Seconds()}
	}
	return points
}

// WriteJSON encodes the report to w.
func WriteJSON(w io.Writer, r *analysis.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewJSONReport(r))
}

func writeJSONFile(path string, r *analysis.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteJSON(f, r); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
