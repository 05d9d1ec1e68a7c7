package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/gravity"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/sim"
)

const (
	defaultCols     = 80
	defaultRows     = 24
	canvasPadX      = 2
	canvasPadY      = 1
	statsWidth      = 42
	historyCapacity = 240
)

type TickMsg time.Time

// Model is the live viewer: it owns one engine and advances it from the
// bubbletea update loop, so the engine never leaves that goroutine.
type Model struct {
	cfg      *config.Config
	template string
	seed     uint64
	logger   *log.Logger

	eng   *gravity.Engine
	rng   *rand.Rand
	class gravity.MassClass
	opts  gravity.InsertOptions

	canvas *Canvas
	camera *Camera
	trails *Trails
	energy []float64

	theme         Theme
	styles        styles
	running       bool
	follow        bool
	showHelp      bool
	frame         int
	fps           int
	ticksPerFrame int

	status    string
	statusErr bool
}

// NewModel builds the viewer around a fresh engine from the named template.
func NewModel(cfg *config.Config, template string, logger *log.Logger) (*Model, error) {
	if logger == nil {
		logger = log.Default()
	}
	class, opts := cfg.InsertOptions()
	m := &Model{
		cfg:           cfg,
		template:      template,
		seed:          cfg.Seed,
		logger:        logger,
		class:         class,
		opts:          opts,
		canvas:        NewCanvas(defaultCols, defaultRows),
		camera:        NewCamera(cfg.Live.FPS),
		trails:        NewTrails(cfg.Render.TrailLength),
		theme:         Themes[0],
		styles:        newStyles(Themes[0]),
		running:       true,
		follow:        cfg.Live.Follow,
		fps:           max(cfg.Live.FPS, 1),
		ticksPerFrame: max(cfg.Live.TicksPerFrame, 1),
	}
	if err := m.reset(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and steps the simulation.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case TickMsg:
		if m.running {
			m.step()
		}
		m.draw()
		m.frame++
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q", "ctrl+c":
		return tea.Quit
	case " ":
		m.running = !m.running
	case ".":
		if !m.running {
			m.step()
			m.draw()
		}
	case "1":
		m.selectClass(gravity.Small)
	case "2":
		m.selectClass(gravity.Medium)
	case "3":
		m.selectClass(gravity.Large)
	case "n":
		h, err := m.eng.AddRandomBody(m.rng, m.class, m.cfg.Insert.Spread)
		m.reportInsert(h, err)
	case "c":
		m.trails.Clear()
		m.setStatus("trails cleared")
	case "f":
		m.follow = !m.follow
	case "+", "=":
		m.camera.ZoomIn()
	case "-", "_":
		m.camera.ZoomOut()
	case "r":
		if err := m.reset(); err != nil {
			m.setError("reset failed", err)
		}
	case "t":
		m.theme = NextTheme(m.theme)
		m.styles = newStyles(m.theme)
	case "?":
		m.showHelp = !m.showHelp
	}
	m.draw()
	return nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.camera.ZoomIn()
	case msg.Button == tea.MouseButtonWheelDown:
		m.camera.ZoomOut()
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		col, row := msg.X-canvasPadX, msg.Y-m.canvasTop()
		if col < 0 || row < 0 || col >= m.canvas.Width || row >= m.canvas.Height {
			return
		}
		m.InsertAt(m.camera.CellToWorld(col, row, m.canvas.Width, m.canvas.Height))
	default:
		return
	}
	m.draw()
}

// canvasTop is the screen row of the canvas's first cell.
func (m *Model) canvasTop() int {
	if m.showHelp {
		return canvasPadY + helpLines
	}
	return canvasPadY
}

// InsertAt adds a body of the selected class at a world position.
func (m *Model) InsertAt(pos r3.Vec) {
	h, err := m.eng.Insert(pos, m.class, m.opts)
	m.reportInsert(h, err)
}

func (m *Model) reportInsert(h gravity.Handle, err error) {
	if err != nil {
		m.setError("insert rejected", err)
		return
	}
	b, _ := m.eng.Body(h)
	m.logger.Info("body inserted", "handle", h, "class", m.class, "x", b.Position.X, "y", b.Position.Y)
	m.setStatus(fmt.Sprintf("inserted %s %s at (%.1f, %.1f)", m.class, h, b.Position.X, b.Position.Y))
}

func (m *Model) selectClass(c gravity.MassClass) {
	m.class = c
	m.setStatus("mass class " + c.String())
}

func (m *Model) setStatus(s string) { m.status, m.statusErr = s, false }

func (m *Model) setError(prefix string, err error) {
	m.logger.Warn(prefix, "err", err)
	m.status, m.statusErr = fmt.Sprintf("%s: %v", prefix, err), true
}

func (m *Model) resize(w, h int) {
	cols := max(w-statsWidth-2*canvasPadX-3, 20)
	rows := max(h-2*canvasPadY, 8)
	m.canvas.Resize(cols, rows)
	m.draw()
}

// reset rebuilds the engine from the template and recenters the view.
func (m *Model) reset() error {
	eng, err := sim.NewEngine(m.cfg, m.template, m.seed)
	if err != nil {
		return err
	}
	m.eng = eng
	m.rng = rand.New(rand.NewSource(m.seed))
	m.trails.Clear()
	m.energy = m.energy[:0]

	center, _ := eng.Barycenter()
	insts := eng.Instances()
	pts := make([]r3.Vec, len(insts))
	for i, inst := range insts {
		pts[i] = inst.Position
	}
	w, h := m.canvas.PixelSize()
	m.camera.Fit(center, pts, w, h)
	m.setStatus("loaded " + m.template)
	m.draw()
	return nil
}

// step advances the engine by one frame's worth of ticks.
func (m *Model) step() {
	for i := 0; i < m.ticksPerFrame; i++ {
		m.eng.Tick()
		if n := m.eng.DegeneratePairs(); n > 0 {
			m.logger.Debug("coincident bodies skipped", "tick", m.eng.Ticks(), "pairs", n)
		}
	}

	m.energy = append(m.energy, metrics.TotalEnergy(m.eng.Snapshot(), m.eng.G()))
	if len(m.energy) > historyCapacity {
		m.energy = m.energy[1:]
	}
	m.trails.Record(m.eng.Instances())
	if m.follow {
		if c, err := m.eng.Barycenter(); err == nil {
			m.camera.Track(c)
		}
	}
}

func (m *Model) draw() {
	m.canvas.Clear()
	w, h := m.canvas.PixelSize()
	insts := m.eng.Instances()

	for _, inst := range insts {
		c := dim(inst.Color, 0.55)
		for _, p := range m.trails.Points(inst.Handle) {
			x, y := m.camera.Project(p, w, h)
			m.canvas.SetColor(x, y, c)
		}
	}

	if center, err := m.eng.Barycenter(); err == nil {
		x, y := m.camera.Project(center, w, h)
		mark := colorful.Color{R: 0.6, G: 0.6, B: 0.6}
		for _, d := range [][2]int{{0, 0}, {-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			m.canvas.SetColor(x+d[0], y+d[1], mark)
		}
	}

	for _, inst := range insts {
		x, y := m.camera.Project(inst.Position, w, h)
		r := max(int(inst.Scale*1.5+0.5), 0)
		m.canvas.Disc(x, y, r, inst.Color)
	}
}

// View renders the TUI interface.
func (m *Model) View() string {
	s := m.styles
	var b strings.Builder

	title := GradientText("GRAVSIM", colorful.Color{R: 0.48, G: 0.64, B: 0.97}, colorful.Color{R: 0.88, G: 0.69, B: 0.41})
	b.WriteString(s.header.Render(title+" "+m.template) + "\n")

	if m.running {
		b.WriteString(s.running.Render(AnimatedSpinner(m.frame)+" RUNNING") + "\n")
	} else {
		b.WriteString(s.paused.Render("PAUSED") + "\n")
	}

	if len(m.energy) > 1 {
		chart := asciigraph.Plot(m.energy, asciigraph.Height(4), asciigraph.Width(28), asciigraph.Caption("energy"))
		b.WriteString(s.graph.Render(chart) + "\n")
	}

	center, _ := m.eng.Barycenter()
	follow := "off"
	if m.follow {
		follow = "on"
	}
	rows := []struct{ label, value string }{
		{"Tick", fmt.Sprintf("%d", m.eng.Ticks())},
		{"Bodies", fmt.Sprintf("%d", m.eng.Len())},
		{"Barycenter", fmt.Sprintf("(%.1f, %.1f)", center.X, center.Y)},
		{"Zoom", fmt.Sprintf("%.2f", m.camera.Scale)},
		{"Follow", follow},
		{"Anchoring", m.opts.Anchoring.String()},
	}
	for _, r := range rows {
		b.WriteString(s.label.Render(r.label) + s.value.Render(r.value) + "\n")
	}

	b.WriteString("\nMASS CLASS\n")
	for _, c := range []gravity.MassClass{gravity.Small, gravity.Medium, gravity.Large} {
		line := fmt.Sprintf("%d %s", int(c)+1, c)
		if c == m.class {
			b.WriteString(s.active.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + s.muted.Render(line) + "\n")
		}
	}

	if m.status != "" {
		st := s.okStatus
		if m.statusErr {
			st = s.errStatus
		}
		b.WriteString("\n" + st.Width(statsWidth-4).Render(m.status) + "\n")
	}

	b.WriteString(s.help.Render(Separator(statsWidth-6, s.muted) + "\nSP:Pause R:Reset Q:Quit\n1-3:Class N:Random C:Clear\nClick:Insert F:Follow ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, s.canvas.Render(m.canvas.Render()), s.stats.Render(b.String()))
	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

const helpText = `
  Space    pause / resume
  .        single step while paused
  1 2 3    select small / medium / large
  Click    insert body at cursor
  N        insert body at random position
  C        clear trails
  F        toggle barycenter follow
  + / -    zoom (mouse wheel works too)
  R        reset template
  T        cycle theme
  Q        quit
`

// helpLines is how many rows View prints above the canvas when help is on.
var helpLines = strings.Count(helpText, "\n") + 1

// Engine exposes the viewer's engine to tests and observers.
func (m *Model) Engine() *gravity.Engine { return m.eng }

// Run starts a full-screen program with mouse support.
func Run(model tea.Model) error {
	_, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
