// Package tui renders the visualizer in a terminal with Bubble Tea.
package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"SpectraFM/core/control"
	"SpectraFM/core/sampler"
	"SpectraFM/core/visualizer"
	"SpectraFM/model"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#8b5cf6"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dragStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))
)

// Terminal cells are mapped to pointer pixels with this size, so a drag across ~19 columns
// moves speed by one.
const (
	cellWidth  = 8.0
	cellHeight = 16.0

	headerRows   = 2
	footerRows   = 3
	gaugeCols    = 4 // " I S" to the right of the canvas
	mousePointer = 1
	keyStep      = 0.1
)

type keyMap struct {
	Mode  key.Binding
	Color key.Binding
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding
	Quit  key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Mode, k.Color, k.Up, k.Right, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Mode, k.Color}, {k.Up, k.Down, k.Left, k.Right}, {k.Quit}}
}

var keys = keyMap{
	Mode:  key.NewBinding(key.WithKeys("m", " "), key.WithHelp("m", "next mode")),
	Color: key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "color")),
	Up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/↓", "intensity")),
	Down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "less intensity")),
	Left:  key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←", "slower")),
	Right: key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("←/→", "speed")),
	Quit:  key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

// Options configure a standalone visualizer.
type Options struct {
	Mode model.VisualizerMode
	FPS  int
}

type frameMsg time.Time

// Model is the Bubble Tea model. It owns a simulated sampler.
type Model struct {
	engine *visualizer.Engine
	scene  *visualizer.SceneState
	params *control.ParamStore
	drag   *control.DragGesture
	// intensity and speed are the side gauges; they track canvas rows.
	intensity *control.Slider
	speed     *control.Slider
	help      help.Model
	fps    int

	frame  visualizer.Frame
	width  int
	height int
	err    error
}

// NewModel builds a model driven by the synthetic signal.
func NewModel(opts Options) Model {
	params := model.DefaultParameters()
	if opts.Mode != "" {
		params.Mode = opts.Mode
	}
	store := control.NewParamStore(params)

	smp := sampler.New(sampler.DefaultBinCount)
	smp.SetSimulated(true)

	fps := opts.FPS
	if fps <= 0 {
		fps = 30
	}
	m := Model{
		engine: visualizer.NewEngine(smp, store),
		scene:  visualizer.NewSceneState(),
		params: store,
		drag:   control.NewDragGesture(store),
		help:   help.New(),
		fps:    fps,
		width:  80,
		height: 24,
	}
	_, h := m.canvasSize()
	m.intensity = control.IntensitySlider(store, float64(h-1))
	m.speed = control.SpeedSlider(store, float64(h-1))
	return m
}

// Parameters returns the live visualizer parameters.
func (m Model) Parameters() model.VisualizerParameters {
	return m.params.Parameters()
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.fps), func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		_, h := m.canvasSize()
		m.intensity.Length = float64(h - 1)
		m.speed.Length = float64(h - 1)
		return m, nil

	case frameMsg:
		m.frame = m.engine.Tick(m.scene, time.Time(msg))
		return m, m.tick()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Mode):
			m.params.NextMode()
		case key.Matches(msg, keys.Color):
			if _, err := control.SelectColor(m.params, int(msg.String()[0]-'1')); err != nil {
				m.err = err
			}
		case key.Matches(msg, keys.Up):
			m.nudge(keyStep, 0)
		case key.Matches(msg, keys.Down):
			m.nudge(-keyStep, 0)
		case key.Matches(msg, keys.Right):
			m.nudge(0, keyStep)
		case key.Matches(msg, keys.Left):
			m.nudge(0, -keyStep)
		}
		return m, nil

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil
	}
	return m, nil
}

func (m Model) nudge(dIntensity, dSpeed float64) {
	p := m.params.Parameters()
	m.params.SetIntensitySpeed(p.Intensity+dIntensity, p.Speed+dSpeed)
}

// hitTarget is the whole canvas area.
func (m Model) hitTarget() control.HitTarget {
	w, h := m.canvasSize()
	return control.HitTarget{
		MinX:    0,
		MinY:    headerRows * cellHeight,
		MaxX:    float64(w) * cellWidth,
		MaxY:    float64(headerRows+h) * cellHeight,
		Gesture: m.drag,
	}
}

// gaugeAt returns the side gauge under the cell, if any.
func (m Model) gaugeAt(col, row int) *control.Slider {
	w, h := m.canvasSize()
	if row < headerRows || row >= headerRows+h {
		return nil
	}
	switch col {
	case w + 1:
		return m.intensity
	case w + 3:
		return m.speed
	}
	return nil
}

// gaugePos is the slider position of a row, counted up from the canvas bottom.
func (m Model) gaugePos(row int) float64 {
	_, h := m.canvasSize()
	return float64(headerRows + h - 1 - row)
}

func (m Model) handleMouse(msg tea.MouseMsg) {
	x := float64(msg.X) * cellWidth
	y := float64(msg.Y) * cellHeight

	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		if g := m.gaugeAt(msg.X, msg.Y); g != nil {
			g.Press(m.gaugePos(msg.Y))
			return
		}
		m.hitTarget().Down(mousePointer, x, y)
	case tea.MouseActionMotion:
		pos := m.gaugePos(msg.Y)
		m.intensity.Move(pos)
		m.speed.Move(pos)
		m.drag.PointerMove(mousePointer, x, y)
	case tea.MouseActionRelease:
		m.intensity.Release()
		m.speed.Release()
		m.drag.PointerUp(mousePointer)
	}
}

// canvasSize is the drawing area, excluding the gauge columns.
func (m Model) canvasSize() (int, int) {
	w := m.width - gaugeCols
	if w < 10 {
		w = 10
	}
	h := m.height - headerRows - footerRows
	if h < 5 {
		h = 5
	}
	return w, h
}

func (m Model) View() string {
	var b strings.Builder
	p := m.params.Parameters()

	b.WriteString(titleStyle.Render("SpectraFM"))
	b.WriteString(" ")
	b.WriteString(dimStyle.Render(string(p.Mode)))
	b.WriteString("\n\n")

	snap := m.scene.Snapshot()
	w, h := m.canvasSize()
	var canvas []string
	switch p.Mode {
	case model.ModeBars:
		canvas = RenderBars(snap, w, h)
	case model.ModeWave:
		canvas = RenderWave(snap, w, h)
	default:
		canvas = RenderOrb(snap, w, h)
	}
	color := snap.Color
	if color == "" {
		color = p.Color
	}
	iGauge := RenderGauge((p.Intensity-model.MinIntensity)/(model.MaxIntensity-model.MinIntensity), h)
	sGauge := RenderGauge((p.Speed-model.MinSpeed)/(model.MaxSpeed-model.MinSpeed), h)
	canvasStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	for y, line := range canvas {
		b.WriteString(canvasStyle.Render(line))
		b.WriteString(" " + infoStyle.Render(iGauge[y]) + " " + infoStyle.Render(sGauge[y]))
		b.WriteString("\n")
	}

	status := fmt.Sprintf("color %s  intensity %.2f  speed %.2f  level %3.0f", p.Color, p.Intensity, p.Speed, m.frame.Snapshot.Average)
	if m.drag.Dragging() {
		b.WriteString(dragStyle.Render(status + "  dragging"))
	} else {
		b.WriteString(infoStyle.Render(status))
	}
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(dimStyle.Render(m.err.Error()))
	} else {
		b.WriteString(m.help.View(keys))
	}
	return b.String()
}

// RenderGauge draws a one-column vertical gauge filled from the bottom to frac.
func RenderGauge(frac float64, h int) []string {
	frac = model.ClampFloat(frac, 0, 1)
	level := int(math.Round(frac * float64(h-1)))
	cells := make([]string, h)
	for y := range cells {
		if h-1-y <= level {
			cells[y] = "█"
		} else {
			cells[y] = "│"
		}
	}
	return cells
}

const orbShades = " .:-=+*#%@"

// RenderOrb draws the orb as a shaded disc. Terminal cells are about twice as tall as they
// are wide, so x distances are halved.
func RenderOrb(s visualizer.SceneSnapshot, w, h int) []string {
	cx, cy := float64(w-1)/2, float64(h-1)/2
	base := float64(h) / 4
	radius := base * s.Scale[0]
	spin := s.Rotation[1] * 100

	lines := make([]string, h)
	row := make([]byte, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			dx := (float64(x) - cx) / 2
			dy := float64(y) - cy
			dist := math.Hypot(dx, dy)
			edge := radius * (1 + s.Distort*0.15*math.Sin(6*math.Atan2(dy, dx)+spin))
			if edge <= 0 || dist > edge {
				row[x] = ' '
				continue
			}
			shade := 1 - dist/edge
			idx := 1 + int(shade*float64(len(orbShades)-2)+0.5)
			if idx >= len(orbShades) {
				idx = len(orbShades) - 1
			}
			row[x] = orbShades[idx]
		}
		lines[y] = string(row)
	}
	return lines
}

// barFullScale is the bar height drawn as a full column.
const barFullScale = 8.0

// RenderBars draws one column per bar, unrolled left to right.
func RenderBars(s visualizer.SceneSnapshot, w, h int) []string {
	cols := len(s.Instances)
	if cols > w {
		cols = w
	}
	levels := make([]int, cols)
	for i := range levels {
		bar := s.Instances[i*len(s.Instances)/maxInt(cols, 1)]
		levels[i] = int(math.Round(math.Min(bar.Scale[1]/barFullScale, 1) * float64(h)))
		if levels[i] == 0 && bar.Scale[1] > 0 {
			levels[i] = 1
		}
	}

	lines := make([]string, h)
	for y := 0; y < h; y++ {
		var b strings.Builder
		threshold := h - y
		for _, level := range levels {
			if level >= threshold {
				b.WriteRune('█')
			} else {
				b.WriteByte(' ')
			}
		}
		lines[y] = b.String()
	}
	return lines
}

// waveAmplitude is the height drawn at the top row.
const waveAmplitude = 2.0

// RenderWave draws the middle row of the height field as a filled profile.
func RenderWave(s visualizer.SceneSnapshot, w, h int) []string {
	lines := make([]string, h)
	if s.FieldWidth == 0 || len(s.Heights) < s.FieldWidth*s.FieldDepth {
		for y := range lines {
			lines[y] = strings.Repeat(" ", w)
		}
		return lines
	}
	mid := s.FieldDepth / 2
	tops := make([]int, w)
	for x := range tops {
		col := x * (s.FieldWidth - 1) / maxInt(w-1, 1)
		v := s.Heights[mid*s.FieldWidth+col]
		norm := (v + waveAmplitude) / (2 * waveAmplitude)
		norm = math.Max(0, math.Min(1, norm))
		tops[x] = h - 1 - int(norm*float64(h-1))
	}

	for y := 0; y < h; y++ {
		var b strings.Builder
		for _, top := range tops {
			switch {
			case y == top:
				b.WriteRune('~')
			case y > top:
				b.WriteRune('░')
			default:
				b.WriteByte(' ')
			}
		}
		lines[y] = b.String()
	}
	return lines
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Run starts the terminal visualizer and blocks until the user quits or ctx is done.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(NewModel(opts), tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
