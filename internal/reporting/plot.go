package reporting

import (
	"fmt"
	"image/color"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"tracemetrics/internal/analysis"
)

const (
	chartWidth  = 10 * vg.Inch
	chartHeight = 6 * vg.Inch
	sizeBins    = 30
)

var seriesColor = color.RGBA{R: 30, G: 144, B: 255, A: 255} // dodgerblue

type chart struct {
	metric analysis.Metric
	file   string
	build  func(*analysis.Report) (*plot.Plot, error)
}

// File names follow the chart set earlier versions of the tool wrote.
var charts = []chart{
	{analysis.MetricThroughput, "throughput.png", throughputChart},
	{analysis.MetricProtocols, "proto-dist.png", protocolChart},
	{analysis.MetricSizes, "pkt-sizes.png", sizeChart},
	{analysis.MetricJitter, "jitter.png", jitterChart},
	{analysis.MetricCumulative, "cum_traffic.png", cumulativeChart},
	{analysis.MetricTCPHandshake, "tcp_handshake.png", handshakeChart},
	{analysis.MetricDNSResolution, "dns_resolution.png", resolutionChart},
}

// writeCharts renders one PNG per metric that has data. Empty series are skipped.
func writeCharts(report *analysis.Report, dir string, logger logrus.FieldLogger) ([]string, error) {
	var paths []string
	for _, c := range charts {
		p, err := c.build(report)
		if err != nil {
			return paths, fmt.Errorf("failed to plot %s: %w", c.metric, err)
		}
		if p == nil {
			logger.WithField("metric", c.metric).Debug("No data to plot")
			continue
		}
		path := filepath.Join(dir, c.file)
		if err := p.Save(chartWidth, chartHeight, path); err != nil {
			return paths, fmt.Errorf("failed to save %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func newChart(title, x, y string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = x
	p.Y.Label.Text = y
	p.Add(plotter.NewGrid())
	return p
}

func addLine(p *plot.Plot, pts plotter.XYs) error {
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.LineStyle.Color = seriesColor
	line.LineStyle.Width = vg.Points(2)
	p.Add(line)
	return nil
}

func addScatter(p *plot.Plot, pts plotter.XYs) error {
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}
	scatter.GlyphStyle.Color = seriesColor
	p.Add(scatter)
	return nil
}

func timeAxis(p *plot.Plot) {
	p.X.Tick.Marker = plot.TimeTicks{Format: "15:04:05"}
}

func throughputChart(r *analysis.Report) (*plot.Plot, error) {
	if len(r.Throughput) == 0 {
		return nil, nil
	}
	pts := make(plotter.XYs, len(r.Throughput))
	for i, tp := range r.Throughput {
		pts[i].X = float64(tp.Start.UnixNano()) / 1e9
		pts[i].Y = tp.BitsPerSecond
	}
	p := newChart("Throughput Over Time", "Time", "Throughput (bits/sec)")
	timeAxis(p)
	return p, addLine(p, pts)
}

func protocolChart(r *analysis.Report) (*plot.Plot, error) {
	sorted := r.Protocols.Sorted()
	if len(sorted) == 0 {
		return nil, nil
	}
	labels := make([]string, len(sorted))
	counts := make(plotter.Values, len(sorted))
	for i, pc := range sorted {
		labels[i] = pc.Protocol
		counts[i] = float64(pc.Count)
	}

	bars, err := plotter.NewBarChart(counts, vg.Points(20))
	if err != nil {
		return nil, err
	}
	bars.Horizontal = true
	bars.Color = seriesColor
	bars.LineStyle.Color = color.Black

	p := newChart("Protocol Distribution", "Packet Count", "Protocol")
	p.Add(bars)
	p.NominalY(labels...)
	return p, nil
}

func sizeChart(r *analysis.Report) (*plot.Plot, error) {
	if len(r.Sizes) == 0 {
		return nil, nil
	}
	values := make(plotter.Values, len(r.Sizes))
	for i, s := range r.Sizes {
		values[i] = float64(s)
	}
	hist, err := plotter.NewHist(values, sizeBins)
	if err != nil {
		return nil, err
	}
	hist.FillColor = seriesColor

	p := newChart("Packet Size Distribution", "Packet Size (bytes)", "Frequency")
	p.Add(hist)
	return p, nil
}

func jitterChart(r *analysis.Report) (*plot.Plot, error) {
	if len(r.Jitter) == 0 {
		return nil, nil
	}
	pts := make(plotter.XYs, len(r.Jitter))
	for i, j := range r.Jitter {
		pts[i].X = float64(i)
		pts[i].Y = j.Seconds()
	}
	p := newChart("Jitter Over Time", "Packet Index", "Jitter (seconds)")
	return p, addLine(p, pts)
}

func cumulativeChart(r *analysis.Report) (*plot.Plot, error) {
	if len(r.Cumulative) == 0 {
		return nil, nil
	}
	pts := make(plotter.XYs, len(r.Cumulative))
	for i, c := range r.Cumulative {
		pts[i].X = float64(c.Time.UnixNano()) / 1e9
		pts[i].Y = float64(c.Bytes)
	}
	p := newChart("Cumulative Traffic Volume Over Time", "Time", "Cumulative Traffic (bytes)")
	timeAxis(p)
	return p, addLine(p, pts)
}

func handshakeChart(r *analysis.Report) (*plot.Plot, error) {
	return latencyChart(r.TCPHandshakes, "TCP Handshake Latency", "RTT (seconds)")
}

func resolutionChart(r *analysis.Report) (*plot.Plot, error) {
	return latencyChart(r.DNSResolutions, "DNS Resolution Latency", "Resolution Time (seconds)")
}

func latencyChart(samples []analysis.LatencySample, title, y string) (*plot.Plot, error) {
	if len(samples) == 0 {
		return nil, nil
	}
	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		pts[i].X = float64(s.Time.UnixNano()) / 1e9
		pts[i].Y = s.RTT.Seconds()
	}
	p := newChart(title, "Time", y)
	timeAxis(p)
	p.Y.Min = 0
	return p, addScatter(p, pts)
}
