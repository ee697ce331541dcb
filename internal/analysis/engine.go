package analysis

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tracemetrics/internal/logging"
	"tracemetrics/internal/models"
)

// Metric names one analyzer's output.
type Metric string

const (
	MetricThroughput    Metric = "throughput"
	MetricProtocols     Metric = "protocols"
	MetricSizes         Metric = "sizes"
	MetricJitter        Metric = "jitter"
	MetricCumulative    Metric = "cumulative"
	MetricTCPHandshake  Metric = "tcp_handshake"
	MetricDNSResolution Metric = "dns_resolution"
)

// Metrics lists every analyzer in report order.
var Metrics = []Metric{
	MetricThroughput,
	MetricProtocols,
	MetricSizes,
	MetricJitter,
	MetricCumulative,
	MetricTCPHandshake,
	MetricDNSResolution,
}

// Config holds the engine parameters.
type Config struct {
	Window       time.Duration // Throughput bucket width
	ProtocolMode ClassifyMode
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Window:       DefaultWindow,
		ProtocolMode: ClassifyPorts,
	}
}

// Report collects the output of every analyzer for one trace.
type Report struct {
	ID          string
	GeneratedAt time.Time

	PacketCount int
	TotalBytes  int64
	FirstSeen   time.Time
	LastSeen    time.Time
	Window      time.Duration

	Throughput     []ThroughputPoint
	Protocols      ProtocolDistribution
	Sizes          []int
	Jitter         []time.Duration
	Cumulative     []CumulativePoint
	TCPHandshakes  []LatencySample
	DNSResolutions []LatencySample

	// Errors holds the failure of each analyzer that did not complete.
	Errors map[Metric]error
}

// DNSLatencies returns the resolution times without their timestamps.
func (r *Report) DNSLatencies() []time.Duration {
	return RTTs(r.DNSResolutions)
}

// HandshakeRTTs returns the handshake round trips without their timestamps.
func (r *Report) HandshakeRTTs() []time.Duration {
	return RTTs(r.TCPHandshakes)
}

// PeakThroughput returns the highest windowed bit rate.
func (r *Report) PeakThroughput() float64 {
	peak := 0.0
	for _, p := range r.Throughput {
		if p.BitsPerSecond > peak {
			peak = p.BitsPerSecond
		}
	}
	return peak
}

// Engine runs every analyzer over a packet sequence.
type Engine struct {
	config Config
	logger logrus.FieldLogger
}

// NewEngine creates an engine. A nil logger discards output.
func NewEngine(cfg Config, logger logrus.FieldLogger) *Engine {
	if cfg.Window == 0 {
		cfg.Window = DefaultWindow
	}
	return &Engine{config: cfg, logger: logging.OrDiscard(logger)}
}

// Run computes all metrics concurrently. A failing analyzer is recorded in
// Report.Errors and leaves its own output empty; the others are unaffected.
func (e *Engine) Run(packets []models.Packet) *Report {
	report := &Report{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		PacketCount: len(packets),
		Window:      e.config.Window,
		Errors:      make(map[Metric]error),
	}
	e.fillBounds(report, packets)

	log := e.logger.WithFields(logrus.Fields{
		"report":  report.ID,
		"packets": len(packets),
		"window":  e.config.Window,
	})
	log.Info("Computing metrics")

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	run := func(metric Metric, analyze func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := guard(metric, analyze)
			if err == nil {
				return
			}
			mu.Lock()
			report.Errors[metric] = err
			mu.Unlock()
		}()
	}

	// Each closure writes a distinct field of report.
	run(MetricThroughput, func() (err error) {
		report.Throughput, err = Throughput(packets, e.config.Window)
		return err
	})
	run(MetricProtocols, func() error {
		report.Protocols = ProtocolDistributionOf(packets, e.config.ProtocolMode)
		return nil
	})
	run(MetricSizes, func() (err error) {
		report.Sizes, err = PacketSizes(packets)
		return err
	})
	run(MetricJitter, func() error {
		report.Jitter = Jitter(packets)
		return nil
	})
	run(MetricCumulative, func() (err error) {
		report.Cumulative, err = CumulativeTraffic(packets)
		return err
	})
	run(MetricTCPHandshake, func() error {
		m := NewHandshakeMatcher()
		for _, pkt := range packets {
			m.Observe(pkt)
		}
		report.TCPHandshakes = m.Samples()
		log.WithFields(logrus.Fields{
			"matched":   len(report.TCPHandshakes),
			"unmatched": m.Pending(),
			"replaced":  m.Replaced(),
		}).Debug("TCP handshake matching done")
		return nil
	})
	run(MetricDNSResolution, func() error {
		m := NewResolutionMatcher()
		for _, pkt := range packets {
			m.Observe(pkt)
		}
		report.DNSResolutions = m.Samples()
		log.WithFields(logrus.Fields{
			"matched":   len(report.DNSResolutions),
			"unmatched": m.Pending(),
			"replaced":  m.Replaced(),
		}).Debug("DNS resolution matching done")
		return nil
	})

	wg.Wait()

	for metric, err := range report.Errors {
		log.WithField("metric", metric).WithError(err).Warn("Analyzer failed")
	}
	log.WithField("failed", len(report.Errors)).Info("Metrics computed")

	return report
}

func (e *Engine) fillBounds(report *Report, packets []models.Packet) {
	for i, pkt := range packets {
		if pkt.Length > 0 {
			report.TotalBytes += int64(pkt.Length)
		}
		if i == 0 || pkt.Timestamp.Before(report.FirstSeen) {
			report.FirstSeen = pkt.Timestamp
		}
		if i == 0 || pkt.Timestamp.After(report.LastSeen) {
			report.LastSeen = pkt.Timestamp
		}
	}
}

// guard turns a panicking analyzer into an error for that metric alone.
func guard(metric Metric, analyze func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s analyzer panicked: %v", metric, r)
		}
	}()
	return analyze()
}
