package reporting

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"tracemetrics/internal/analysis"
	"tracemetrics/internal/logging"
)

// Supported output formats.
const (
	FormatHTML = "html"
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatPNG  = "png"
)

// ValidateFormats rejects unknown format names.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		switch f {
		case FormatHTML, FormatCSV, FormatJSON, FormatPNG:
		default:
			return fmt.Errorf("unsupported format: %s", f)
		}
	}
	return nil
}

// Generate writes the report in every requested format under dir and returns the
// paths of the files written.
func Generate(report *analysis.Report, dir string, formats []string, logger logrus.FieldLogger) ([]string, error) {
	logger = logging.OrDiscard(logger)

	if err := ValidateFormats(formats); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	stamp := report.GeneratedAt.Format("20060102_150405")
	var written []string
	for _, format := range formats {
		var (
			paths []string
			err   error
		)
		switch format {
		case FormatHTML:
			path := filepath.Join(dir, fmt.Sprintf("report_%s.html", stamp))
			err = writeFile(path, renderHTML(report))
			paths = []string{path}
		case FormatCSV:
			paths, err = writeCSVFiles(report, dir)
		case FormatJSON:
			path := filepath.Join(dir, fmt.Sprintf("report_%s.json", stamp))
			err = writeJSONFile(path, report)
			paths = []string{path}
		case FormatPNG:
			paths, err = writeCharts(report, dir, logger)
		}
		if err != nil {
			return written, err
		}
		for _, p := range paths {
			logger.WithFields(logrus.Fields{"format": format, "file": p}).Info("Saved report")
		}
		written = append(written, paths...)
	}
	return written, nil
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func renderHTML(report *analysis.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Trace Metrics Report - %s</title>
    <style>
        body { font-family: sans-serif; margin: 20px; color: #333; }
        h1, h2 { color: #2c3e50; }
        table { width: 100%%; border-collapse: collapse; margin-bottom: 20px; }
        th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }
        th { background-color: #f2f2f2; }
        tr:nth-child(even) { background-color: #f9f9f9; }
        .summary { background: #eef; padding: 15px; border-radius: 5px; margin-bottom: 20px; }
        .alert { color: #d9534f; font-weight: bold; }
    </style>
</head>
<body>
    <h1>Trace Metrics Report</h1>
    <div class="summary">
        <p><strong>Report:</strong> %s</p>
        <p><strong>Generated:</strong> %s</p>
        <p><strong>Packets:</strong> %d</p>
        <p><strong>Total Data:</strong> %s</p>
        <p><strong>Trace Span:</strong> %s to %s</p>
        <p><strong>Peak Throughput:</strong> %s (window %s)</p>
    </div>
`,
		report.ID, report.ID, report.GeneratedAt.Format(time.RFC1123),
		report.PacketCount, FormatBytes(report.TotalBytes),
		formatTime(report.FirstSeen), formatTime(report.LastSeen),
		FormatBps(report.PeakThroughput()), report.Window)

	if len(report.Errors) > 0 {
		b.WriteString("\n    <h2>Failed Metrics</h2>\n")
		tableStart(&b, "Metric", "Error")
		for _, metric := range analysis.Metrics {
			if err, ok := report.Errors[metric]; ok {
				fmt.Fprintf(&b, "            <tr><td class=\"alert\">%s</td><td>%s</td></tr>\n", metric, html.EscapeString(err.Error()))
			}
		}
		tableEnd(&b)
	}

	b.WriteString("\n    <h2>Protocol Distribution</h2>\n")
	tableStart(&b, "Protocol", "Packets")
	protocols := report.Protocols.Sorted()
	if len(protocols) == 0 {
		b.WriteString("            <tr><td colspan=\"2\">No IP packets in trace.</td></tr>\n")
	}
	for _, p := range protocols {
		fmt.Fprintf(&b, "            <tr><td>%s</td><td>%d</td></tr>\n", html.EscapeString(p.Protocol), p.Count)
	}
	tableEnd(&b)

	b.WriteString("\n    <h2>Latency</h2>\n")
	tableStart(&b, "Series", "Samples", "Min", "Avg", "P50", "P95", "P99", "Max")
	latencyRow(&b, "TCP handshake", analysis.Summarize(report.HandshakeRTTs()))
	latencyRow(&b, "DNS resolution", analysis.Summarize(report.DNSLatencies()))
	latencyRow(&b, "Jitter", analysis.Summarize(report.Jitter))
	tableEnd(&b)

	b.WriteString("\n    <h2>Throughput</h2>\n")
	tableStart(&b, "Window Start", "Throughput")
	if len(report.Throughput) == 0 {
		b.WriteString("            <tr><td colspan=\"2\">No throughput windows.</td></tr>\n")
	}
	for _, p := range report.Throughput {
		fmt.Fprintf(&b, "            <tr><td>%s</td><td>%s</td></tr>\n", formatTime(p.Start), FormatBps(p.BitsPerSecond))
	}
	tableEnd(&b)

	b.WriteString(`</body>
</html>
`)
	return b.String()
}

func tableStart(b *strings.Builder, headers ...string) {
	b.WriteString("    <table>\n        <thead>\n            <tr>\n")
	for _, h := range headers {
		fmt.Fprintf(b, "                <th>%s</th>\n", h)
	}
	b.WriteString("            </tr>\n        </thead>\n        <tbody>\n")
}

func tableEnd(b *strings.Builder) {
	b.WriteString("        </tbody>\n    </table>\n")
}

func latencyRow(b *strings.Builder, name string, s analysis.LatencySummary) {
	if s.Count == 0 {
		fmt.Fprintf(b, "            <tr><td>%s</td><td colspan=\"7\">No samples.</td></tr>\n", name)
		return
	}
	fmt.Fprintf(b, "            <tr><td>%s</td><td>%d</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td></tr>\n",
		name, s.Count, s.Min, s.Avg, s.P50, s.P95, s.P99, s.Max)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format("2006-01-02 15:04:05.000")
}

// FormatBytes renders a byte count with a binary unit.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatBps renders a bit rate with a decimal unit.
func FormatBps(bps float64) string {
	if bps >= 1e6 {
		return fmt.Sprintf("%.2f Mbps", bps/1e6)
	}
	if bps >= 1e3 {
		return fmt.Sprintf("%.2f Kbps", bps/1e3)
	}
	return fmt.Sprintf("%.2f bps", bps)
}
