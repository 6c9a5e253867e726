package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/justapithecus/tram/cli/reader"
)

// keyMap defines key bindings shared by the read-only views.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// InspectModel renders a single transfer's detail view.
type InspectModel struct {
	viewType string
	data     any
	width    int
	height   int
	quitting bool
}

// NewInspectModel creates a new inspect model.
func NewInspectModel(viewType string, data any) InspectModel {
	return InspectModel{viewType: viewType, data: data}
}

// Init implements tea.Model.
func (m InspectModel) Init() tea.Cmd { return nil }

// Update implements tea.Model.
func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
func (m InspectModel) View() string {
	if m.quitting {
		return ""
	}

	content := fmt.Sprintf("Unknown view type: %s", m.viewType)
	if m.viewType == "inspect_transfer" {
		content = m.renderInspectTransfer()
	}
	return content + "\n" + HelpStyle.Render("Press q or Ctrl+C to quit")
}

// renderInspectTransfer shows transfer metadata followed by the per-frame
// listing when frames are known.
func (m InspectModel) renderInspectTransfer() string {
	data, ok := m.data.(*reader.InspectTransferResponse)
	if !ok {
		return "Invalid data type for inspect_transfer"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Transfer Details"))
	b.WriteString("\n\n")

	writeRow(&b, "Transfer ID", ValueStyle.Render(data.TransferID))
	writeRow(&b, "Tag", ValueStyle.Render(data.Tag))
	writeRow(&b, "Status", StateStyle(data.Status).Render(data.Status))
	writeRow(&b, "Frames", ValueStyle.Render(fmt.Sprintf("%d", data.FrameCount)))
	writeRow(&b, "Bytes", ValueStyle.Render(fmt.Sprintf("%d", data.Bytes)))
	writeRow(&b, "Completed At", ValueStyle.Render(data.Ts))

	if len(data.Frames) > 0 {
		b.WriteString("\n")
		b.WriteString(TitleStyle.Render("Frames"))
		b.WriteString("\n")
		for _, f := range data.Frames {
			b.WriteString(fmt.Sprintf("  • %s\n", ValueStyle.Render(
				fmt.Sprintf("#%d %s %d bytes (%s)", f.Index, f.Kind, f.Size, f.File))))
		}
	}

	return BoxStyle.Render(b.String())
}

func writeRow(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "%s %s\n", LabelStyle.Render(label+":"), value)
}

// RunInspectTUI runs the inspect TUI.
func RunInspectTUI(viewType string, data any) error {
	p := tea.NewProgram(NewInspectModel(viewType, data), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderInspectStatic renders inspect data without full TUI (for fallback).
func RenderInspectStatic(viewType string, data any) string {
	model := NewInspectModel(viewType, data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}
