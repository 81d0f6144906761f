package tui

import (
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lssrv/internal/slurm"
	"lssrv/internal/uifmt"
)

type Options struct {
	Snapshot slurm.Snapshot
	Hide     map[string]bool
	NoColor  bool
}

// Model renders the partition table once and exits on the first tick, so
// lssrv behaves like a plain CLI while still getting bubbles' layout.
type Model struct {
	table  table.Model
	footer string
	border lipgloss.Style
	dim    lipgloss.Style
}

type tickMsg struct{}

func tick() tea.Msg {
	return tickMsg{}
}

func NewModel(opts Options) Model {
	columns := []table.Column{
		{Title: "Partition", Width: 12},
		{Title: "CPUs (Free)", Width: 11},
		{Title: "CPUs (Total)", Width: 12},
		{Title: "Wait (Resources)", Width: 16},
		{Title: "Wait (Total)", Width: 12},
		{Title: "Nodes", Width: 6},
		{Title: "Max Job Time", Width: 12},
		{Title: "Min Nodes", Width: 9},
		{Title: "Max Nodes", Width: 9},
		{Title: "Cores/Node", Width: 10},
		{Title: "RAM/Core", Width: 10},
	}

	rows := buildRows(opts.Snapshot, opts.Hide)

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(len(rows)),
	)

	style := table.DefaultStyles()
	style.Header = style.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		Bold(true)
	style.Selected = style.Selected.
		Foreground(lipgloss.NoColor{}).
		Bold(false)
	if !opts.NoColor {
		style.Header = style.Header.
			BorderForeground(lipgloss.Color("240")).
			Foreground(lipgloss.Color("1"))
	}
	t.SetStyles(style)

	border := lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder())
	dim := lipgloss.NewStyle()
	if !opts.NoColor {
		border = border.BorderForeground(lipgloss.Color("240"))
		dim = dim.Foreground(lipgloss.Color("240"))
	}

	return Model{
		table:  t,
		footer: "Last update: " + uifmt.Timestamp(opts.Snapshot.LedgerUpdatedAt),
		border: border,
		dim:    dim,
	}
}

func buildRows(snapshot slurm.Snapshot, hide map[string]bool) []table.Row {
	rows := make([]table.Row, 0, len(snapshot.Catalog))
	for _, name := range snapshot.Catalog.Names() {
		if hide[name] {
			continue
		}
		p := snapshot.Catalog[name]
		cores, homogeneous := p.CoresPerNode()
		rows = append(rows, table.Row{
			p.Name,
			uifmt.Count(p.FreeCPUs()),
			uifmt.Count(p.TotalCPUs),
			uifmt.Count(p.PendingByReason[slurm.ReasonResources]),
			uifmt.Count(p.PendingTotal),
			uifmt.Count(p.TotalNodes),
			p.MaxTime,
			p.MinNodes,
			p.MaxNodes,
			uifmt.CoresPerNode(cores, homogeneous),
			uifmt.MemPerCore(p.DefMemPerCPU),
		})
	}
	return rows
}

func (m Model) Init() tea.Cmd {
	return tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return m, tea.Quit
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	return m.border.Render(m.table.View()) + "\n" + m.dim.Render(m.footer) + "\n"
}
