// Package tui is the terminal front end of the model viewer.
package tui

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-model-viewer/config"
	"go-model-viewer/logger"
	"go-model-viewer/models"
	"go-model-viewer/scene"
	"go-model-viewer/viewer"
)

const (
	sidebarWidth = 30

	// sidebar rows, counted from the first body row
	buttonsRow   = 1
	listFirstRow = 4

	connectLabel    = "[ Connect ]"
	disconnectLabel = "[ Disconnect ]"
)

var (
	viewportBG = color.RGBA{R: 0x05, G: 0x09, B: 0x0c, A: 0xff}

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#50E3C2"))
	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8CA1AE")).
			Background(lipgloss.Color("#05090C"))
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F6AE2D"))
	enabledStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#50E3C2"))
	disabledStyle = lipgloss.NewStyle().Faint(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F6AE2D"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8CA1AE"))
	warnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F6AE2D"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8CA1AE"))
	cellStyle     = lipgloss.NewStyle().Width(sidebarWidth).MaxWidth(sidebarWidth).MaxHeight(1)
)

type appEventMsg struct {
	event viewer.Event
}

type eventsClosedMsg struct{}

type bootMsg struct {
	err error
}

type actionMsg struct {
	action string
	err    error
}

// eventBridge forwards viewer events into the program's message loop.
// observe never blocks: Update emits events too, and only the program loop drains
// the queue. A pending frame is replaced by the newer one.
type eventBridge struct {
	ctx   context.Context
	mu    sync.Mutex
	queue []viewer.Event
	ready chan struct{}
}

func newEventBridge(ctx context.Context) *eventBridge {
	return &eventBridge{ctx: ctx, ready: make(chan struct{}, 1)}
}

func (b *eventBridge) observe(e viewer.Event) {
	b.mu.Lock()
	queued := false
	if _, ok := e.(viewer.FrameEvent); ok {
		for i, pending := range b.queue {
			if _, ok := pending.(viewer.FrameEvent); ok {
				b.queue[i] = e
				queued = true
				break
			}
		}
	}
	if !queued {
		b.queue = append(b.queue, e)
	}
	b.mu.Unlock()

	select {
	case b.ready <- struct{}{}:
	default:
	}
}

// next blocks until an event is queued or the bridge's context ends.
func (b *eventBridge) next() (viewer.Event, bool) {
	for {
		b.mu.Lock()
		if len(b.queue) > 0 {
			e := b.queue[0]
			b.queue[0] = nil
			b.queue = b.queue[1:]
			b.mu.Unlock()
			return e, true
		}
		b.mu.Unlock()

		select {
		case <-b.ready:
		case <-b.ctx.Done():
			return nil, false
		}
	}
}

// Run launches the viewer in the terminal and blocks until the user quits.
func Run(cfg config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridge := newEventBridge(ctx)
	app, err := viewer.NewApp(cfg, viewer.AppOptions{Width: 80, Height: 48, Notify: bridge.observe})
	if err != nil {
		return err
	}

	m := newModel(ctx, cancel, app, cfg, bridge)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, runErr := p.Run()

	cancel()
	app.Close()
	if runErr != nil {
		return fmt.Errorf("tui: %w", runErr)
	}
	return nil
}

type model struct {
	ctx    context.Context
	cancel context.CancelFunc
	app    *viewer.App
	cfg    config.Config
	events *eventBridge

	width, height int

	frame    *image.RGBA
	loaded   bool
	models   []models.ModelEntry
	selected int
	controls viewer.Controls
	status   viewer.Status

	snapshotDir string
	now         func() time.Time
}

func newModel(ctx context.Context, cancel context.CancelFunc, app *viewer.App, cfg config.Config, events *eventBridge) model {
	return model{
		ctx:         ctx,
		cancel:      cancel,
		app:         app,
		cfg:         cfg,
		events:      events,
		width:       80,
		height:      24,
		controls:    app.Connection.Controls(),
		status:      viewer.Status{Message: "Loading " + cfg.DefaultModel},
		snapshotDir: ".",
		now:         time.Now,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		waitEventCmd(m.events),
		bootCmd(m.app.Start(m.ctx)),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		cols, rows := m.viewportCells()
		m.app.Resize(cols, rows*2)
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case appEventMsg:
		m.apply(msg.event)
		return m, waitEventCmd(m.events)
	case eventsClosedMsg:
		return m, nil
	case bootMsg:
		if msg.err != nil {
			logger.Warn.Printf("[tui.Update] Initial model did not load: %v", msg.err)
		}
		return m, nil
	case actionMsg:
		if msg.err != nil {
			logger.Debug.Printf("[tui.Update] %s: %v", msg.action, msg.err)
		}
		return m, nil
	}
	return m, nil
}

func (m *model) apply(e viewer.Event) {
	switch e := e.(type) {
	case viewer.FrameEvent:
		m.frame = e.Image
	case viewer.ModelsEvent:
		m.models = e.Models
		if m.selected >= len(m.models) {
			m.selected = max(len(m.models)-1, 0)
		}
	case viewer.ControlsEvent:
		m.controls = e.Controls
	case viewer.StatusEvent:
		m.status = e.Status
	case viewer.BackgroundEvent:
		m.loaded = true
	}
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.cancel()
		return m, tea.Quit
	case "c":
		return m, m.connectCmd()
	case "d":
		return m, m.disconnectCmd()
	case "up", "k":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "j":
		if m.selected < len(m.models)-1 {
			m.selected++
		}
	case "enter":
		m.loadSelected()
	case "s":
		m.snapshot()
	}
	return m, nil
}

func (m model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	cols, rows := m.viewportCells()
	inViewport := msg.X >= 0 && msg.X < cols && msg.Y >= 1 && msg.Y < 1+rows
	px, py := float64(msg.X), float64((msg.Y-1)*2)
	listener := m.app.Interaction

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if inViewport {
			listener.Wheel(1)
		}
		return m, nil
	case tea.MouseButtonWheelDown:
		if inViewport {
			listener.Wheel(-1)
		}
		return m, nil
	}

	switch msg.Action {
	case tea.MouseActionPress:
		if inViewport {
			if mode, ok := gestureMode(msg.Button); ok {
				listener.PointerDown(mode, px, py)
			}
			return m, nil
		}
		if msg.Button == tea.MouseButtonLeft && msg.X >= cols {
			return m.clickSidebar(msg.X-cols, msg.Y-1)
		}
	case tea.MouseActionMotion:
		if listener.State() != viewer.Tracking {
			return m, nil
		}
		if inViewport {
			listener.PointerMove(px, py)
		} else {
			listener.PointerOut()
		}
	case tea.MouseActionRelease:
		listener.PointerUp()
	}
	return m, nil
}

func gestureMode(b tea.MouseButton) (scene.ControlMode, bool) {
	switch b {
	case tea.MouseButtonLeft:
		return scene.ModeRotate, true
	case tea.MouseButtonMiddle:
		return scene.ModeZoom, true
	case tea.MouseButtonRight:
		return scene.ModePan, true
	}
	return scene.ModeNone, false
}

func (m model) clickSidebar(x, row int) (tea.Model, tea.Cmd) {
	switch {
	case row == buttonsRow && x < len(connectLabel):
		return m, m.connectCmd()
	case row == buttonsRow && x > len(connectLabel) && x <= len(connectLabel)+len(disconnectLabel):
		return m, m.disconnectCmd()
	case row >= listFirstRow:
		if i := row - listFirstRow; i < len(m.models) {
			m.selected = i
			m.loadSelected()
		}
	}
	return m, nil
}

// connectCmd is a click on the connect button; a disabled button does nothing.
func (m model) connectCmd() tea.Cmd {
	if !m.controls.ConnectEnabled {
		return nil
	}
	conn, ctx := m.app.Connection, m.ctx
	return func() tea.Msg {
		return actionMsg{action: "connect", err: conn.Connect(ctx)}
	}
}

func (m model) disconnectCmd() tea.Cmd {
	if !m.controls.DisconnectEnabled {
		return nil
	}
	conn := m.app.Connection
	return func() tea.Msg {
		return actionMsg{action: "disconnect", err: conn.Disconnect()}
	}
}

func (m *model) loadSelected() {
	if m.selected < 0 || m.selected >= len(m.models) {
		return
	}
	if err := m.app.Models.LoadByName(m.models[m.selected].Name); err != nil && !errors.Is(err, viewer.ErrNotImplemented) {
		logger.Warn.Printf("[tui.loadSelected] %v", err)
	}
}

func (m *model) snapshot() {
	path, err := saveSnapshot(m.snapshotDir, m.frame, m.now())
	if err != nil {
		logger.Warn.Printf("[tui.snapshot] %v", err)
		m.status = viewer.Status{Level: viewer.LevelWarn, Message: "Snapshot failed", Err: err}
		return
	}
	logger.Info.Printf("[tui.snapshot] Wrote %s", path)
	m.status = viewer.Status{Message: "Saved " + path}
}

// viewportCells is the viewport size in terminal cells.
func (m model) viewportCells() (cols, rows int) {
	return max(m.width-sidebarWidth, 1), max(m.height-2, 1)
}

func (m model) View() string {
	cols, rows := m.viewportCells()

	header := headerStyle.MaxWidth(m.width).Render("go-model-viewer :: " + m.cfg.ServerAddr)

	var viewport string
	switch {
	case m.frame != nil:
		viewport = renderHalfBlocks(m.frame, cols, rows, viewportBG)
	case !m.loaded:
		viewport = lipgloss.Place(cols, rows, lipgloss.Center, lipgloss.Center, loadingStyle.Render("loading model..."))
	default:
		viewport = lipgloss.Place(cols, rows, lipgloss.Center, lipgloss.Center, "")
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, viewport, m.sidebarView(rows))
	help := helpStyle.MaxWidth(m.width).Render("c connect · d disconnect · ↑/↓ select · enter load · s snapshot · q quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, body, help)
}

func (m model) sidebarView(rows int) string {
	lines := make([]string, rows)
	set := func(i int, s string) {
		if i >= 0 && i < rows {
			lines[i] = s
		}
	}

	set(0, titleStyle.Render("Server"))
	set(buttonsRow, button(connectLabel, m.controls.ConnectEnabled)+" "+button(disconnectLabel, m.controls.DisconnectEnabled))
	set(listFirstRow-1, titleStyle.Render("Models"))

	if len(m.models) == 0 {
		set(listFirstRow, mutedStyle.Render("  (none)"))
	}
	for i, e := range m.models {
		row := listFirstRow + i
		if row >= rows-1 {
			break
		}
		if i == m.selected {
			set(row, selectedStyle.Render("> "+e.Name))
		} else {
			set(row, "  "+e.Name)
		}
	}
	set(rows-1, statusLine(m.status))

	for i, l := range lines {
		lines[i] = cellStyle.Render(l)
	}
	return strings.Join(lines, "\n")
}

func button(label string, enabled bool) string {
	if enabled {
		return enabledStyle.Render(label)
	}
	return disabledStyle.Render(label)
}

func statusLine(s viewer.Status) string {
	switch s.Level {
	case viewer.LevelError:
		return errorStyle.Render(s.String())
	case viewer.LevelWarn:
		return warnStyle.Render(s.String())
	default:
		return mutedStyle.Render(s.String())
	}
}

func waitEventCmd(b *eventBridge) tea.Cmd {
	return func() tea.Msg {
		ev, ok := b.next()
		if !ok {
			return eventsClosedMsg{}
		}
		return appEventMsg{event: ev}
	}
}

func bootCmd(done <-chan error) tea.Cmd {
	return func() tea.Msg {
		return bootMsg{err: <-done}
	}
}
