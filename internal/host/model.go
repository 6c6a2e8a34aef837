package host

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/granitica/internal/gfx"
	"github.com/muurk/granitica/internal/logging"
)

// DefaultFrameInterval is how often the view checks the framebuffer
const DefaultFrameInterval = 33 * time.Millisecond

// Messages
type frameTickMsg time.Time

type firmwareDoneMsg struct{ err error }

type snapshotSavedMsg struct {
	path string
	err  error
}

// keyMap holds the keys the host handles itself; everything else goes to
// the handheld keyboard
type keyMap struct {
	Quit     key.Binding
	Help     key.Binding
	Snapshot key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Help, k.Snapshot}
}

// FullHelp returns keybindings for the expanded help view
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Quit, k.Help, k.Snapshot},
		{
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc/`", "back")),
			key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "cycle SF")),
			key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("←↑↓→", "; , . /")),
		},
	}
}

func newKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "keys"),
		),
		Snapshot: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("f2", "screenshot"),
		),
	}
}

// Options configures the terminal view
type Options struct {
	// Title is shown under the panel
	Title string
	// FrameInterval overrides DefaultFrameInterval
	FrameInterval time.Duration
	// Columns fixes the panel width; 0 fits the window
	Columns int
	// SnapshotDir receives F2 screenshots, the working directory when empty
	SnapshotDir string
	// Done delivers the firmware loop's result; the view quits when it fires
	Done <-chan error
	// Now stamps snapshot file names
	Now func() time.Time
}

// Model is the bubbletea model showing the handheld
type Model struct {
	fb   *gfx.Framebuffer
	kb   *Keyboard
	opts Options

	keys keyMap
	help help.Model

	width  int
	height int

	frame  uint64
	cols   int
	screen string

	notice string
	err    error
}

// New returns a view of fb that feeds key presses into kb
func New(fb *gfx.Framebuffer, kb *Keyboard, opts Options) Model {
	if opts.FrameInterval <= 0 {
		opts.FrameInterval = DefaultFrameInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return Model{
		fb:   fb,
		kb:   kb,
		opts: opts,
		keys: newKeyMap(),
		help: help.New(),
	}
}

// Init starts the frame ticker and waits for the firmware loop
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tick()}
	if m.opts.Done != nil {
		done := m.opts.Done
		cmds = append(cmds, func() tea.Msg {
			return firmwareDoneMsg{err: <-done}
		})
	}
	return tea.Batch(cmds...)
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.opts.FrameInterval, func(t time.Time) tea.Msg {
		return frameTickMsg(t)
	})
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.redraw(true)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		case key.Matches(msg, m.keys.Snapshot):
			return m, m.saveSnapshot()
		}
		if !m.kb.Push(msg) {
			logging.Debug("Ignoring key", zap.String("key", msg.String()))
		}
		return m, nil

	case frameTickMsg:
		m.redraw(false)
		return m, m.tick()

	case snapshotSavedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.notice = ""
		} else {
			m.err = nil
			m.notice = "saved " + msg.path
		}
		return m, nil

	case firmwareDoneMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.err = msg.err
		}
		return m, tea.Quit
	}

	return m, nil
}

// redraw repaints the cached screen when the framebuffer or the panel size
// changed
func (m *Model) redraw(force bool) {
	cols := m.opts.Columns
	if cols <= 0 {
		cols = FitColumns(m.fb.Bounds(), m.width, m.height)
	}
	frame := m.fb.Frame()
	if !force && frame == m.frame && cols == m.cols && m.screen != "" {
		return
	}
	img, frame := m.fb.Snapshot()
	m.screen = RenderHalfBlocks(img, cols)
	m.frame = frame
	m.cols = cols
}

func (m Model) saveSnapshot() tea.Cmd {
	img, _ := m.fb.Snapshot()
	dir := m.opts.SnapshotDir
	now := m.opts.Now()
	return func() tea.Msg {
		path, err := SaveSnapshot(img, dir, now)
		if err != nil {
			logging.Warn("Screenshot failed", zap.Error(err))
		} else {
			logging.Info("Screenshot saved", zap.String("path", path))
		}
		return snapshotSavedMsg{path: path, err: err}
	}
}

// Err returns the error that ended the session, if any
func (m Model) Err() error {
	return m.err
}

// View renders the panel, a status line and the key help
func (m Model) View() string {
	var b strings.Builder

	if m.screen == "" {
		b.WriteString(StatusStyle.Render("waiting for display..."))
	} else {
		b.WriteString(PanelStyle.Render(m.screen))
	}
	b.WriteString("\n")

	status := fmt.Sprintf("%s  frame %d", m.opts.Title, m.frame)
	b.WriteString(StatusStyle.Render(strings.TrimSpace(status)))
	b.WriteString("\n")

	switch {
	case m.err != nil:
		b.WriteString(ErrorStyle.Render("error: " + m.err.Error()))
	case m.notice != "":
		b.WriteString(NoticeStyle.Render(m.notice))
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// Run shows the model on the alternate screen until the user quits, the
// firmware loop ends or ctx is cancelled.
func Run(ctx context.Context, m Model, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	final, err := tea.NewProgram(m, opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("terminal host failed: %w", err)
	}
	if fm, ok := final.(Model); ok {
		return fm.Err()
	}
	return nil
}
