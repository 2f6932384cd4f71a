package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kestrelworks/bootseq/pkg/depgraph"
	"github.com/kestrelworks/bootseq/pkg/manifest"
	"github.com/kestrelworks/bootseq/pkg/schedule"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#FF00FF")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Padding(0, 2)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	summaryBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(1, 2).
			MarginLeft(2).
			MarginTop(1)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFF00")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type view int

const (
	componentsView view = iota
	orderView
	startupView
	shutdownView
	rejectedView
	viewCount
)

var viewNames = [viewCount]string{"Components", "Order", "Startup", "Shutdown", "Rejected"}

type keyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Up       key.Binding
	Down     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev view"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("up/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("down/j", "down"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Up, k.Down, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab},
		{k.Up, k.Down},
		{k.Quit},
	}
}

type model struct {
	graph       *depgraph.Graph
	plan        *schedule.Plan
	currentView view
	tables      [viewCount]table.Model
	help        help.Model
	keys        keyMap
	width       int
	height      int
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#FF00FF")).
		Bold(false)
	return s
}

func newTable(columns []table.Column, rows []table.Row) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(14),
	)
	t.SetStyles(tableStyles())
	return t
}

func initialModel(g *depgraph.Graph, plan *schedule.Plan) model {
	m := model{
		graph: g,
		plan:  plan,
		help:  help.New(),
		keys:  keys,
	}

	componentRows := make([]table.Row, 0, g.NumNodes())
	for _, cv := range g.Components() {
		startup, _ := cv.Attrs.Duration(depgraph.AttrStartup)
		shutdown, _ := cv.Attrs.Duration(depgraph.AttrShutdown)
		componentRows = append(componentRows, table.Row{
			cv.Name,
			startup.String(),
			shutdown.String(),
			strings.Join(cv.Requirements, ", "),
			strings.Join(cv.Dependents, ", "),
		})
	}
	m.tables[componentsView] = newTable([]table.Column{
		{Title: "Name", Width: 20},
		{Title: "Startup", Width: 10},
		{Title: "Shutdown", Width: 10},
		{Title: "Requires", Width: 28},
		{Title: "Required By", Width: 28},
	}, componentRows)

	orderRows := make([]table.Row, 0, g.NumNodes())
	for i, name := range g.TopologicalOrder() {
		role := ""
		if contains(g.Roots(), name) {
			role = "root"
		}
		if contains(g.Leaves(), name) {
			if role != "" {
				role += ", leaf"
			} else {
				role = "leaf"
			}
		}
		orderRows = append(orderRows, table.Row{fmt.Sprintf("%d", i+1), name, role})
	}
	m.tables[orderView] = newTable([]table.Column{
		{Title: "#", Width: 4},
		{Title: "Component", Width: 24},
		{Title: "Role", Width: 12},
	}, orderRows)

	startupRows := make([]table.Row, 0, plan.Len())
	for _, e := range plan.ByStartupBegin() {
		startupRows = append(startupRows, table.Row{
			e.Component, e.Startup.Begin.String(), e.Startup.End.String(), e.Startup.Span().String(),
		})
	}
	m.tables[startupView] = newTable([]table.Column{
		{Title: "Component", Width: 24},
		{Title: "Begin", Width: 12},
		{Title: "End", Width: 12},
		{Title: "Duration", Width: 10},
	}, startupRows)

	shutdownRows := make([]table.Row, 0, plan.Len())
	byShutdown := plan.ByShutdownBegin()
	for i := len(byShutdown) - 1; i >= 0; i-- {
		e := byShutdown[i]
		shutdownRows = append(shutdownRows, table.Row{
			e.Component, e.Shutdown.Begin.String(), e.Shutdown.End.String(), e.Shutdown.Span().String(),
		})
	}
	m.tables[shutdownView] = newTable([]table.Column{
		{Title: "Component", Width: 24},
		{Title: "Begin", Width: 12},
		{Title: "End", Width: 12},
		{Title: "Duration", Width: 10},
	}, shutdownRows)

	rejectedRows := make([]table.Row, 0, len(g.RejectedEdges()))
	for _, d := range g.RejectedEdges() {
		rejectedRows = append(rejectedRows, table.Row{d.Dependent, d.Requirement})
	}
	m.tables[rejectedView] = newTable([]table.Column{
		{Title: "Dependent", Width: 28},
		{Title: "Requirement", Width: 28},
	}, rejectedRows)

	return m
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.currentView = (m.currentView + 1) % viewCount
		case key.Matches(msg, m.keys.ShiftTab):
			if m.currentView == 0 {
				m.currentView = viewCount - 1
			} else {
				m.currentView--
			}
		default:
			var cmd tea.Cmd
			m.tables[m.currentView], cmd = m.tables[m.currentView].Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("bootseq — sequencing browser"))
	b.WriteString("\n")

	tabs := make([]string, viewCount)
	for i, name := range viewNames {
		if view(i) == m.currentView {
			tabs[i] = activeTabStyle.Render(name)
		} else {
			tabs[i] = inactiveTabStyle.Render(name)
		}
	}
	b.WriteString(contentStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...)))
	b.WriteString("\n")

	if m.currentView == rejectedView && len(m.graph.RejectedEdges()) == 0 {
		b.WriteString(contentStyle.Render("No dependencies were rejected."))
	} else {
		b.WriteString(contentStyle.Render(m.tables[m.currentView].View()))
	}
	b.WriteString("\n")

	summary := fmt.Sprintf("components %d   dependencies %d   total startup %s   shutdown lead %s",
		m.graph.NumNodes(), m.graph.NumEdges(),
		m.plan.TotalStartup(), -m.plan.TotalShutdown())
	if n := len(m.graph.RejectedEdges()); n > 0 {
		summary += warnStyle.Render(fmt.Sprintf("   rejected %d", n))
	}
	b.WriteString(summaryBoxStyle.Render(summary))
	b.WriteString("\n")

	b.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return b.String()
}

func main() {
	manifestPath := flag.String("manifest", "", "Path to the component manifest (YAML)")
	flag.Parse()

	if *manifestPath == "" {
		log.Fatal("-manifest is required")
	}

	m, err := manifest.Load(*manifestPath)
	if err != nil {
		log.Fatalf("load manifest: %v", err)
	}
	if err := m.Validate(); err != nil {
		log.Fatalf("validate manifest: %v", err)
	}
	g, err := m.Build()
	if err != nil {
		log.Fatalf("build graph: %v", err)
	}
	plan, err := schedule.NewPropagator(g).Compute()
	if err != nil {
		log.Fatalf("compute schedule: %v", err)
	}

	p := tea.NewProgram(initialModel(g, plan), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.Fatalf("tui: %v", err)
	}
}
