package tui

import (
	"tracemetrics/internal/analysis"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Tab is one view of the report.
type Tab int

const (
	TabOverview Tab = iota
	TabThroughput
	TabProtocols
	TabTCP
	TabDNS
)

var tabNames = []string{"Overview", "Throughput", "Protocols", "TCP", "DNS"}

func (t Tab) String() string {
	if t < 0 || int(t) >= len(tabNames) {
		return "Unknown"
	}
	return tabNames[t]
}

const defaultTableHeight = 10

// ReportModel browses a finished report.
type ReportModel struct {
	report *analysis.Report
	source string
	active Tab
	table  table.Model
	width  int
}

func NewReportModel(report *analysis.Report, source string) ReportModel {
	t := table.New(
		table.WithFocused(true),
		table.WithHeight(defaultTableHeight),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	m := ReportModel{
		report: report,
		source: source,
		table:  t,
	}
	m.loadTable()
	return m
}

// Active returns the tab on screen.
func (m ReportModel) Active() Tab {
	return m.active
}

func (m ReportModel) Init() tea.Cmd {
	return nil
}
