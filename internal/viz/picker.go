package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/san-kum/gravsim/internal/config"
)

const (
	stateMenu = iota
	stateSim
)

// Picker lists the available templates and opens the chosen one in the live
// viewer.
type Picker struct {
	cfg       *config.Config
	logger    *log.Logger
	state     int
	cursor    int
	templates []string
	live      *Model
	err       error
	width     int
	height    int
}

func NewPicker(cfg *config.Config, logger *log.Logger) *Picker {
	return &Picker{cfg: cfg, logger: logger, templates: cfg.ListTemplates()}
}

func (p *Picker) Init() tea.Cmd { return nil }

func (p *Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if p.state == stateSim {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			p.state, p.live = stateMenu, nil
			return p, nil
		}
		_, cmd := p.live.Update(msg)
		return p, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width, p.height = msg.Width, msg.Height
	case tea.KeyMsg:
		return p.menuKey(msg)
	}
	return p, nil
}

func (p *Picker) menuKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.templates)-1 {
			p.cursor++
		}
	case "enter", " ":
		return p, p.start()
	}
	return p, nil
}

func (p *Picker) start() tea.Cmd {
	if len(p.templates) == 0 {
		return nil
	}
	live, err := NewModel(p.cfg, p.templates[p.cursor], p.logger)
	if err != nil {
		p.err = err
		return nil
	}
	p.err = nil
	if p.width > 0 {
		live.resize(p.width, p.height)
	}
	p.live, p.state = live, stateSim
	return live.Init()
}

// Selected returns the template under the cursor.
func (p *Picker) Selected() string {
	if len(p.templates) == 0 {
		return ""
	}
	return p.templates[p.cursor]
}

func (p *Picker) View() string {
	if p.state == stateSim {
		return p.live.View()
	}

	t := Themes[0]
	title := lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	sub := lipgloss.NewStyle().Foreground(t.Muted)
	cursor := lipgloss.NewStyle().Foreground(t.Accent).Bold(true)
	name := lipgloss.NewStyle().Foreground(t.Text).Bold(true)
	key := lipgloss.NewStyle().Foreground(t.Primary).Bold(true)

	var b strings.Builder
	b.WriteString("\n\n    " + title.Render("GRAVSIM") + "\n    " + sub.Render("gravitational n-body engine") + "\n    " + sub.Render("───────────────────────────") + "\n\n")
	for i, n := range p.templates {
		desc := ""
		if tmpl, err := p.cfg.LookupTemplate(n); err == nil {
			desc = tmpl.Description
		}
		if i == p.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", cursor.Render("▸"), name.Render(fmt.Sprintf("%-12s", n)), cursor.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", sub.Render(fmt.Sprintf("%-12s", n)), sub.Render(desc)))
		}
	}
	if p.err != nil {
		b.WriteString("\n    " + lipgloss.NewStyle().Foreground(t.Error).Render(p.err.Error()) + "\n")
	}
	b.WriteString("\n    " + key.Render("j/k") + sub.Render(" navigate  ") + key.Render("enter") + sub.Render(" open  ") + key.Render("esc") + sub.Render(" back  ") + key.Render("q") + sub.Render(" quit") + "\n")
	return b.String()
}
