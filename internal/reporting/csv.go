package reporting

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"tracemetrics/internal/analysis"
)

type csvTable struct {
	name   string
	header []string
	rows   [][]string
}

func writeCSVFiles(report *analysis.Report, dir string) ([]string, error) {
	var paths []string
	for _, table := range csvTables(report) {
		path := filepath.Join(dir, table.name+".csv")
		if err := writeCSV(path, table.header, table.rows); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func csvTables(report *analysis.Report) []csvTable {
	throughput := make([][]string, len(report.Throughput))
	for i, p := range report.Throughput {
		throughput[i] = []string{formatTimestamp(p.Start), strconv.FormatFloat(p.BitsPerSecond, 'f', 3, 64)}
	}

	protocols := make([][]string, 0, len(report.Protocols))
	for _, p := range report.Protocols.Sorted() {
		protocols = append(protocols, []string{p.Protocol, strconv.Itoa(p.Count)})
	}

	sizes := make([][]string, len(report.Sizes))
	for i, s := range report.Sizes {
		sizes[i] = []string{strconv.Itoa(i), strconv.Itoa(s)}
	}

	jitter := make([][]string, len(report.Jitter))
	for i, j := range report.Jitter {
		jitter[i] = []string{strconv.Itoa(i), formatSeconds(j)}
	}

	cumulative := make([][]string, len(report.Cumulative))
	for i, c := range report.Cumulative {
		cumulative[i] = []string{formatTimestamp(c.Time), strconv.FormatInt(c.Bytes, 10)}
	}

	return []csvTable{
		{string(analysis.MetricThroughput), []string{"WindowStart", "BitsPerSecond"}, throughput},
		{string(analysis.MetricProtocols), []string{"Protocol", "Packets"}, protocols},
		{string(analysis.MetricSizes), []string{"Index", "Bytes"}, sizes},
		{string(analysis.MetricJitter), []string{"Index", "JitterSeconds"}, jitter},
		{string(analysis.MetricCumulative), []string{"Timestamp", "CumulativeBytes"}, cumulative},
		{string(analysis.MetricTCPHandshake), []string{"Timestamp", "RTTSeconds"}, sampleRows(report.TCPHandshakes)},
		{string(analysis.MetricDNSResolution), []string{"Timestamp", "RTTSeconds"}, sampleRows(report.DNSResolutions)},
	}
}

func sampleRows(samples []analysis.LatencySample) [][]string {
	rows := make([][]string, len(samples))
	for i, s := range samples {
		rows[i] = []string{formatTimestamp(s.Time), formatSeconds(s.RTT)}
	}
	return rows
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 9, 64)
}
