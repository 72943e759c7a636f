// Package tui renders an interactive catalog browser on top of the store.
// It is purely a consumer: snapshots in, intents out.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"modelman/internal/gateway"
	"modelman/internal/store"
)

type pane int

const (
	paneFolders pane = iota
	paneModels
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

// stateMsg delivers a store snapshot into the update loop.
type stateMsg store.AppState

// searchMsg delivers search results.
type searchMsg struct {
	models []gateway.Model
	err    error
}

// Model is the bubbletea model for the browse view.
type Model struct {
	store *store.Store

	state     store.AppState
	active    pane
	folderIdx int
	modelIdx  int

	search    textinput.Model
	searching bool
	results   []gateway.Model
	searchErr string

	width  int
	height int
}

// NewModel creates the browse model over st.
func NewModel(st *store.Store) Model {
	search := textinput.New()
	search.Placeholder = "search models..."
	search.CharLimit = 128

	return Model{
		store:  st,
		state:  st.State(),
		search: search,
	}
}

// Run starts the browse TUI and blocks until the user quits.
func Run(st *store.Store) error {
	p := tea.NewProgram(NewModel(st), tea.WithAltScreen())

	unsub := st.Subscribe(func(s store.AppState) {
		p.Send(stateMsg(s))
	})
	defer unsub()

	_, err := p.Run()
	return err
}

// Init kicks off the initial folder load.
func (m Model) Init() tea.Cmd {
	return func() tea.Msg {
		m.store.LoadFolders(context.Background())
		return nil
	}
}

// Update handles key input and store snapshots.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case stateMsg:
		m.state = store.AppState(msg)
		m.clampCursors()
		return m, nil

	case searchMsg:
		if msg.err != nil {
			m.searchErr = msg.err.Error()
		} else {
			m.results = msg.models
			m.searchErr = ""
		}
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.results = nil
		m.searchErr = ""
		m.search.Reset()
		return m, nil
	case tea.KeyEnter:
		query := m.search.Value()
		st := m.store
		return m, func() tea.Msg {
			models, err := st.Search(context.Background(), query)
			return searchMsg{models: models, err: err}
		}
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "/":
		m.searching = true
		m.search.Focus()
		return m, textinput.Blink

	case "tab":
		if m.active == paneFolders {
			m.active = paneModels
		} else {
			m.active = paneFolders
		}
		return m, nil

	case "up", "k":
		if m.active == paneFolders && m.folderIdx > 0 {
			m.folderIdx--
		} else if m.active == paneModels && m.modelIdx > 0 {
			m.modelIdx--
		}
		return m, nil

	case "down", "j":
		if m.active == paneFolders && m.folderIdx < len(m.state.Folders)-1 {
			m.folderIdx++
		} else if m.active == paneModels && m.modelIdx < len(m.currentModels())-1 {
			m.modelIdx++
		}
		return m, nil

	case "enter":
		if m.active == paneFolders && m.folderIdx < len(m.state.Folders) {
			folderID := m.state.Folders[m.folderIdx].ID
			st := m.store
			m.modelIdx = 0
			return m, func() tea.Msg {
				st.SelectFolder(context.Background(), folderID)
				return nil
			}
		}
		if m.active == paneModels {
			models := m.currentModels()
			if m.modelIdx < len(models) {
				modelID := models[m.modelIdx].ID
				st := m.store
				return m, func() tea.Msg {
					st.LoadModelDetails(context.Background(), modelID)
					return nil
				}
			}
		}
		return m, nil

	case "r":
		st := m.store
		return m, func() tea.Msg {
			st.LoadFolders(context.Background())
			return nil
		}
	}
	return m, nil
}

func (m *Model) clampCursors() {
	if m.folderIdx >= len(m.state.Folders) {
		m.folderIdx = max(0, len(m.state.Folders)-1)
	}
	if n := len(m.currentModels()); m.modelIdx >= n {
		m.modelIdx = max(0, n-1)
	}
}

func (m Model) currentModels() []gateway.Model {
	return m.state.ModelsByFolder[m.state.SelectedFolder]
}

// View renders folders, models, the optional detail block and a status
// bar.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("modelman"))
	b.WriteString("\n\n")

	if m.searching {
		b.WriteString(m.search.View())
		b.WriteString("\n")
		if m.searchErr != "" {
			b.WriteString(errorStyle.Render(m.searchErr))
			b.WriteString("\n")
		}
		for i, model := range m.results {
			if i >= 10 {
				b.WriteString(dimStyle.Render(fmt.Sprintf("  ... %d more", len(m.results)-i)))
				b.WriteString("\n")
				break
			}
			b.WriteString(fmt.Sprintf("  %s  %s\n", model.ID, model.Name))
		}
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("enter: search  esc: back"))
		return b.String()
	}

	left := m.renderFolders()
	right := m.renderModels()
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, "   ", right))
	b.WriteString("\n")

	if d := m.state.SelectedModel; d != nil {
		b.WriteString(fmt.Sprintf("\n%s  %s  %s  used %d times\n",
			titleStyle.Render(d.Name), d.Type, d.Version, d.UsageCount))
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("tab: pane  enter: open  /: search  r: reload  q: quit"))
	return b.String()
}

func (m Model) renderFolders() string {
	var b strings.Builder
	b.WriteString("Folders\n")
	if m.state.Loading.Folders {
		b.WriteString(dimStyle.Render("loading..."))
		return b.String()
	}
	if m.state.Errors.Folders != "" {
		b.WriteString(errorStyle.Render(m.state.Errors.Folders))
		return b.String()
	}
	for i, f := range m.state.Folders {
		line := fmt.Sprintf("%s (%d)", f.Name, f.ModelCount)
		if i == m.folderIdx && m.active == paneFolders {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderModels() string {
	var b strings.Builder
	b.WriteString("Models\n")
	if m.state.Loading.Models {
		b.WriteString(dimStyle.Render("loading..."))
		return b.String()
	}
	if m.state.Errors.Models != "" {
		b.WriteString(errorStyle.Render(m.state.Errors.Models))
		return b.String()
	}
	for i, model := range m.currentModels() {
		line := fmt.Sprintf("%-30s %s", model.Name, model.Type)
		if i == m.modelIdx && m.active == paneModels {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderStatus() string {
	parts := make([]string, 0, 3)
	if m.state.Online {
		parts = append(parts, statusStyle.Render("online"))
	} else {
		parts = append(parts, errorStyle.Render("offline"))
	}
	if m.state.Errors.General != "" {
		parts = append(parts, errorStyle.Render(m.state.Errors.General))
	}
	if !m.state.LastSync.IsZero() {
		parts = append(parts, dimStyle.Render("synced "+m.state.LastSync.Local().Format("15:04:05")))
	}
	return strings.Join(parts, "  ")
}
