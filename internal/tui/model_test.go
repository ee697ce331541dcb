package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tracemetrics/internal/analysis"
	"tracemetrics/internal/models"
)

var start = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func testReport() *analysis.Report {
	packets := []models.Packet{
		{
			Timestamp: start, Length: 74,
			IP:    &models.IPLayer{Protocol: 6},
			Ports: &models.PortPair{Src: 51000, Dst: 443},
			TCP:   &models.TCPLayer{Flags: models.FlagSYN, Seq: 100},
		},
		{
			Timestamp: start.Add(10 * time.Millisecond), Length: 90,
			IP:    &models.IPLayer{Protocol: 17},
			Ports: &models.PortPair{Src: 53124, Dst: 53},
			DNS:   &models.DNSLayer{ID: 7},
		},
		{
			Timestamp: start.Add(30 * time.Millisecond), Length: 120,
			IP:    &models.IPLayer{Protocol: 17},
			Ports: &models.PortPair{Src: 53, Dst: 53124},
			DNS:   &models.DNSLayer{ID: 7, Response: true},
		},
		{
			Timestamp: start.Add(50 * time.Millisecond), Length: 74,
			IP:    &models.IPLayer{Protocol: 6},
			Ports: &models.PortPair{Src: 443, Dst: 51000},
			TCP:   &models.TCPLayer{Flags: models.FlagSYN | models.FlagACK, Ack: 101},
		},
	}
	return analysis.NewEngine(analysis.DefaultConfig(), nil).Run(packets)
}

func press(t *testing.T, m ReportModel, key tea.KeyMsg) (ReportModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(key)
	rm, ok := next.(ReportModel)
	require.True(t, ok)
	return rm, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestTabString(t *testing.T) {
	assert.Equal(t, "Overview", TabOverview.String())
	assert.Equal(t, "DNS", TabDNS.String())
	assert.Equal(t, "Unknown", Tab(42).String())
}

func TestNewReportModelStartsOnOverview(t *testing.T) {
	m := NewReportModel(testReport(), "trace.pcapng")

	assert.Equal(t, TabOverview, m.Active())
	assert.Nil(t, m.Init())

	view := m.View()
	assert.Contains(t, view, "Trace Metrics - trace.pcapng")
	assert.Contains(t, view, "Packets")
	assert.Contains(t, view, "TCP handshakes")
}

func TestTabNavigation(t *testing.T) {
	m := NewReportModel(testReport(), "trace")

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Nil(t, cmd)
	assert.Equal(t, TabThroughput, m.Active())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, TabProtocols, m.Active())

	m, _ = press(t, m, runes("l"))
	assert.Equal(t, TabTCP, m.Active())

	m, _ = press(t, m, runes("h"))
	assert.Equal(t, TabProtocols, m.Active())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, TabOverview, m.Active())

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, TabDNS, m.Active(), "navigation wraps around")
}

func TestTabViews(t *testing.T) {
	m := NewReportModel(testReport(), "trace")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Contains(t, m.View(), "Window Start")
	assert.Contains(t, m.View(), "Peak:")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	view := m.View()
	assert.Contains(t, view, "HTTPS")
	assert.Contains(t, view, "50.0%")
	assert.Contains(t, view, "IP packets: 4")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	view = m.View()
	assert.Contains(t, view, "TCP handshake RTT")
	assert.Contains(t, view, "50ms")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	view = m.View()
	assert.Contains(t, view, "DNS resolution time")
	assert.Contains(t, view, "20ms")
}

func TestEmptyReportView(t *testing.T) {
	report := analysis.NewEngine(analysis.DefaultConfig(), nil).Run(nil)
	m := NewReportModel(report, "empty")

	assert.Contains(t, m.View(), "Failed: throughput")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Contains(t, m.View(), "Throughput failed")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Contains(t, m.View(), "No IP packets in trace.")

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Contains(t, m.View(), "No samples.")
}

func TestQuitKeys(t *testing.T) {
	m := NewReportModel(testReport(), "trace")

	for _, key := range []tea.KeyMsg{runes("q"), {Type: tea.KeyCtrlC}} {
		_, cmd := press(t, m, key)
		require.NotNil(t, cmd)
		assert.Equal(t, tea.QuitMsg{}, cmd())
	}
}

func TestWindowResize(t *testing.T) {
	m := NewReportModel(testReport(), "trace")

	next, cmd := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Nil(t, cmd)
	rm := next.(ReportModel)
	assert.Equal(t, 120, rm.width)
	assert.Positive(t, rm.table.Height())
	assert.LessOrEqual(t, rm.table.Height(), 40-chrome)
}
