package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/justapithecus/tram/cli/reader"
)

// StatsModel renders aggregate transfer statistics.
type StatsModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewStatsModel creates a new stats model.
func NewStatsModel(viewType string, data any) StatsModel {
	return StatsModel{viewType: viewType, data: data}
}

// Init implements tea.Model.
func (m StatsModel) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m StatsModel) View() string {
	if m.quitting {
		return ""
	}

	content := fmt.Sprintf("Unknown view type: %s", m.viewType)
	if m.viewType == "stats_transfers" {
		content = m.renderStatsTransfers()
	}
	return content + "\n" + HelpStyle.Render("Press q or Ctrl+C to quit")
}

// renderStatsTransfers shows one counter box per status plus aggregate
// frame and byte totals below.
func (m StatsModel) renderStatsTransfers() string {
	data, ok := m.data.(*reader.TransferStats)
	if !ok {
		return "Invalid data type for stats_transfers"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Transfer Statistics"))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		statBox("Total", data.Total, highlightColor),
		statBox("OK", data.OK, successColor),
		statBox("Canceled", data.Canceled, warningColor),
		statBox("Error", data.Error, errorColor),
	))

	b.WriteString("\n\n")
	writeTotal(&b, "Frames", data.Frames)
	writeTotal(&b, "Bytes", int(data.Bytes))
	return b.String()
}

func writeTotal(b *strings.Builder, label string, value int) {
	fmt.Fprintf(b, "%s %s\n",
		LabelStyle.Render(label+":"),
		ValueStyle.Render(fmt.Sprintf("%d", value)))
}

func statBox(label string, value int, color lipgloss.Color) string {
	content := lipgloss.JoinVertical(lipgloss.Center,
		StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value)),
		StatLabelStyle.Render(label))
	return StatBoxStyle.BorderForeground(color).Render(content)
}

// RunStatsTUI runs the stats TUI.
func RunStatsTUI(viewType string, data any) error {
	p := tea.NewProgram(NewStatsModel(viewType, data), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderStatsStatic renders stats data without full TUI (for fallback).
func RenderStatsStatic(viewType string, data any) string {
	model := NewStatsModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
