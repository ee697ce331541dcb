package exporter

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"tracemetrics/internal/analysis"
)

const namespace = "tracemetrics"

var (
	sizeBuckets    = []float64{64, 128, 256, 512, 1024, 1500, 9000}
	latencyBuckets = prometheus.ExponentialBuckets(0.0005, 2, 14) // 0.5ms to ~4s
)

// NewRegistry returns a registry holding the metrics of one finished report.
func NewRegistry(report *analysis.Report) *prometheus.Registry {
	reg := prometheus.NewRegistry()

	packets := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "packets_total",
		Help:      "Packets in the analyzed trace.",
	})
	bytes := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bytes_total",
		Help:      "Wire bytes in the analyzed trace.",
	})
	protocols := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "protocol_packets_total",
		Help:      "IP packets per protocol label.",
	}, []string{"protocol"})
	peak := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "throughput_peak_bits_per_second",
		Help:      "Highest windowed throughput.",
	})
	window := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "throughput_window_seconds",
		Help:      "Width of the throughput windows.",
	})
	firstSeen := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "trace_first_packet_timestamp_seconds",
		Help:      "Capture time of the earliest packet.",
	})
	lastSeen := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "trace_last_packet_timestamp_seconds",
		Help:      "Capture time of the latest packet.",
	})
	sizes := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "packet_size_bytes",
		Help:      "Distribution of packet wire lengths.",
		Buckets:   sizeBuckets,
	})
	jitter := newLatencyHistogram("jitter_seconds", "Absolute difference between consecutive inter-arrival times.")
	handshakes := newLatencyHistogram("tcp_handshake_seconds", "SYN to SYN-ACK round trip time.")
	resolutions := newLatencyHistogram("dns_resolution_seconds", "DNS query to response time.")
	failures := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "analyzer_failed",
		Help:      "1 when the analyzer for a metric failed, 0 otherwise.",
	}, []string{"metric"})

	reg.MustRegister(packets, bytes, protocols, peak, window, firstSeen, lastSeen,
		sizes, jitter, handshakes, resolutions, failures)

	packets.Add(float64(report.PacketCount))
	bytes.Add(float64(report.TotalBytes))
	for label, count := range report.Protocols {
		protocols.WithLabelValues(label).Add(float64(count))
	}
	peak.Set(report.PeakThroughput())
	window.Set(report.Window.Seconds())
	if !report.FirstSeen.IsZero() {
		firstSeen.Set(float64(report.FirstSeen.UnixNano()) / 1e9)
		lastSeen.Set(float64(report.LastSeen.UnixNano()) / 1e9)
	}
	for _, s := range report.Sizes {
		sizes.Observe(float64(s))
	}
	for _, j := range report.Jitter {
		jitter.Observe(j.Seconds())
	}
	for _, rtt := range report.HandshakeRTTs() {
		handshakes.Observe(rtt.Seconds())
	}
	for _, rtt := range report.DNSLatencies() {
		resolutions.Observe(rtt.Seconds())
	}
	for _, metric := range analysis.Metrics {
		failed := 0.0
		if _, ok := report.Errors[metric]; ok {
			failed = 1
		}
		failures.WithLabelValues(string(metric)).Set(failed)
	}

	return reg
}

func newLatencyHistogram(name, help string) prometheus.Histogram {
	return prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      name,
		Help:      help,
		Buckets:   latencyBuckets,
	})
}

// WriteTextfile writes the registry in the text exposition format, for the
// node_exporter textfile collector.
func WriteTextfile(path string, reg prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
