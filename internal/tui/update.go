package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"tracemetrics/internal/analysis"
	"tracemetrics/internal/reporting"
)

// chrome is the number of lines around the table: title, tab bar, panel and help.
const chrome = 9

func (m ReportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "right", "l":
			m.active = (m.active + 1) % Tab(len(tabNames))
			m.loadTable()
			return m, nil
		case "shift+tab", "left", "h":
			m.active = (m.active + Tab(len(tabNames)) - 1) % Tab(len(tabNames))
			m.loadTable()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if h := msg.Height - chrome; h > 2 {
			m.table.SetHeight(h)
		}
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// loadTable swaps the table contents for the active tab. Rows are cleared
// before the columns change so no row is rendered against the wrong width.
func (m *ReportModel) loadTable() {
	columns, rows := tableFor(m.active, m.report)
	m.table.SetRows(nil)
	m.table.SetColumns(columns)
	m.table.SetRows(rows)
	m.table.GotoTop()
}

func tableFor(tab Tab, r *analysis.Report) ([]table.Column, []table.Row) {
	switch tab {
	case TabThroughput:
		rows := make([]table.Row, len(r.Throughput))
		for i, p := range r.Throughput {
			rows[i] = table.Row{p.Start.Format("15:04:05.000"), reporting.FormatBps(p.BitsPerSecond)}
		}
		return []table.Column{{Title: "Window Start", Width: 16}, {Title: "Throughput", Width: 16}}, rows

	case TabProtocols:
		total := r.Protocols.Total()
		sorted := r.Protocols.Sorted()
		rows := make([]table.Row, len(sorted))
		for i, p := range sorted {
			rows[i] = table.Row{p.Protocol, fmt.Sprintf("%d", p.Count), fmt.Sprintf("%.1f%%", 100*float64(p.Count)/float64(total))}
		}
		return []table.Column{{Title: "Protocol", Width: 12}, {Title: "Packets", Width: 10}, {Title: "Share", Width: 8}}, rows

	case TabTCP:
		return sampleTable(r.TCPHandshakes)

	case TabDNS:
		return sampleTable(r.DNSResolutions)

	default:
		lo, avg, hi := sizeRange(r.Sizes)
		rows := []table.Row{
			{"Packets", fmt.Sprintf("%d", r.PacketCount)},
			{"Total data", reporting.FormatBytes(r.TotalBytes)},
			{"Peak throughput", reporting.FormatBps(r.PeakThroughput())},
			{"Windows", fmt.Sprintf("%d x %s", len(r.Throughput), r.Window)},
			{"Packet size (min/avg/max)", fmt.Sprintf("%d / %d / %d B", lo, avg, hi)},
			{"Jitter samples", fmt.Sprintf("%d", len(r.Jitter))},
			{"TCP handshakes", fmt.Sprintf("%d", len(r.TCPHandshakes))},
			{"DNS resolutions", fmt.Sprintf("%d", len(r.DNSResolutions))},
		}
		for _, metric := range analysis.Metrics {
			if err, ok := r.Errors[metric]; ok {
				rows = append(rows, table.Row{"Failed: " + string(metric), err.Error()})
			}
		}
		return []table.Column{{Title: "Metric", Width: 28}, {Title: "Value", Width: 40}}, rows
	}
}

func sampleTable(samples []analysis.LatencySample) ([]table.Column, []table.Row) {
	rows := make([]table.Row, len(samples))
	for i, s := range samples {
		rows[i] = table.Row{s.Time.Format("15:04:05.000000"), s.RTT.String()}
	}
	return []table.Column{{Title: "Time", Width: 18}, {Title: "RTT", Width: 14}}, rows
}

func sizeRange(sizes []int) (lo, avg, hi int) {
	if len(sizes) == 0 {
		return 0, 0, 0
	}
	lo, hi = sizes[0], sizes[0]
	total := 0
	for _, s := range sizes {
		total += s
		lo = min(lo, s)
		hi = max(hi, s)
	}
	return lo, total / len(sizes), hi
}
