package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/spirv-reflect/reflect"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateBrowse modelState = iota
	stateFilter
	stateDetail
)

type browserModel struct {
	report   report
	all      []reflect.DescriptorBinding
	visible  []reflect.DescriptorBinding
	filter   textinput.Model
	selected int
	state    modelState
}

func newBrowserModel(r report) *browserModel {
	ti := textinput.New()
	ti.Placeholder = "name, type or set"
	ti.Prompt = "/ "
	ti.Width = 40

	m := &browserModel{report: r, filter: ti, state: stateBrowse}
	for _, s := range r.Sets {
		m.all = append(m.all, s.Bindings...)
	}
	m.applyFilter()
	return m
}

func (m *browserModel) Init() tea.Cmd {
	return nil
}

func (m *browserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.state == stateFilter {
		switch key.String() {
		case "enter", "esc":
			m.filter.Blur()
			m.state = stateBrowse
			return m, nil
		case "ctrl+c":
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		m.applyFilter()
		return m, cmd
	}

	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.state == stateBrowse && m.selected > 0 {
			m.selected--
		}

	case "down", "j":
		if m.state == stateBrowse && m.selected < len(m.visible)-1 {
			m.selected++
		}

	case "/":
		if m.state == stateBrowse {
			m.state = stateFilter
			return m, m.filter.Focus()
		}

	case "enter":
		switch m.state {
		case stateBrowse:
			if len(m.visible) > 0 {
				m.state = stateDetail
			}
		case stateDetail:
			m.state = stateBrowse
		}

	case "esc":
		m.state = stateBrowse
	}
	return m, nil
}

func (m *browserModel) applyFilter() {
	q := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.visible = m.visible[:0]
	for _, b := range m.all {
		if q == "" || matchesFilter(b, q) {
			m.visible = append(m.visible, b)
		}
	}
	if m.selected >= len(m.visible) {
		m.selected = max(len(m.visible)-1, 0)
	}
}

func matchesFilter(b reflect.DescriptorBinding, q string) bool {
	return strings.Contains(strings.ToLower(bindingName(b)), q) ||
		strings.Contains(strings.ToLower(b.TypeName), q) ||
		strings.Contains(b.DescriptorType.String(), q) ||
		q == fmt.Sprintf("set %d", b.Set)
}

func (m *browserModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("SPIR-V Reflect"))
	b.WriteString(" ")
	b.WriteString(m.report.File)
	b.WriteString("\n\n")

	switch m.state {
	case stateBrowse, stateFilter:
		if m.state == stateFilter || m.filter.Value() != "" {
			b.WriteString(m.filter.View())
			b.WriteString("\n\n")
		}
		if len(m.visible) == 0 {
			b.WriteString(helpStyle.Render("no matching bindings"))
			b.WriteString("\n")
		}
		for i, d := range m.visible {
			line := fmt.Sprintf("set %d binding %-3d %-22s %s", d.Set, d.Binding, d.DescriptorType, bindingName(d))
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • / filter • enter details • q quit"))

	case stateDetail:
		d := m.visible[m.selected]
		for _, row := range detailRows(d) {
			b.WriteString(labelStyle.Render(fmt.Sprintf("%-16s", row[0])))
			b.WriteString(row[1])
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter back • q quit"))
	}

	return b.String()
}

func detailRows(d reflect.DescriptorBinding) [][2]string {
	rows := [][2]string{
		{"name", bindingName(d)},
		{"id", fmt.Sprintf("%%%d", d.SpirvID)},
		{"set", fmt.Sprint(d.Set)},
		{"binding", fmt.Sprint(d.Binding)},
		{"descriptor", d.DescriptorType.String()},
		{"resource", d.ResourceType.String()},
	}
	if d.Unbounded() {
		rows = append(rows, [2]string{"count", "unbounded"})
	} else {
		rows = append(rows, [2]string{"count", fmt.Sprint(d.Count)})
	}
	if d.TypeName != "" {
		rows = append(rows, [2]string{"type", d.TypeName})
	}
	if d.Image != nil {
		rows = append(rows,
			[2]string{"dim", d.Image.Dim.String()},
			[2]string{"arrayed", fmt.Sprint(d.Image.Arrayed)},
			[2]string{"multisampled", fmt.Sprint(d.Image.Multisampled)},
			[2]string{"depth", fmt.Sprint(d.Image.Depth)},
			[2]string{"format", fmt.Sprint(d.Image.Format)})
	}
	if d.DescriptorType == reflect.DescriptorTypeInputAttachment {
		rows = append(rows, [2]string{"attachment", fmt.Sprint(d.InputAttachmentIndex)})
	}
	if d.UAVCounterID != 0 {
		rows = append(rows, [2]string{"counter", fmt.Sprintf("%%%d", d.UAVCounterID)})
	}
	rows = append(rows, [2]string{"word offsets", fmt.Sprintf("set @%d binding @%d", d.WordOffset.Set, d.WordOffset.Binding)})
	return rows
}

func runInteractive(r report) error {
	p := tea.NewProgram(newBrowserModel(r), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
