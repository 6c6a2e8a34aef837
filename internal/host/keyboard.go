package host

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/granitica/internal/firmware"
)

// Arrow caps on the handheld keyboard
const (
	arrowUp    = ';'
	arrowDown  = '.'
	arrowLeft  = ','
	arrowRight = '/'
)

// keyQueueSize bounds the presses held between scans. Presses beyond it are
// dropped, like a full keyboard buffer.
const keyQueueSize = 64

// Keyboard buffers key presses between firmware ticks. Each press becomes its
// own snapshot and Scan hands them out one at a time in arrival order.
type Keyboard struct {
	mu    sync.Mutex
	queue []firmware.KeyboardSnapshot
}

// NewKeyboard returns an idle keyboard
func NewKeyboard() *Keyboard {
	return &Keyboard{}
}

// Push records a key press. It reports false for keys the handheld does
// not have.
func (k *Keyboard) Push(msg tea.KeyMsg) bool {
	var snap firmware.KeyboardSnapshot

	switch msg.Type {
	case tea.KeyEsc:
		snap.Esc = true
	case tea.KeyEnter:
		snap.Enter = true
	case tea.KeyBackspace, tea.KeyDelete:
		snap.Delete = true
	case tea.KeyTab:
		snap.Tab = true
	case tea.KeySpace:
		snap.Chars = []rune{' '}
	case tea.KeyRunes:
		if msg.Alt || len(msg.Runes) == 0 {
			return false
		}
		snap.Chars = msg.Runes
	case tea.KeyUp:
		snap.Chars = []rune{arrowUp}
	case tea.KeyDown:
		snap.Chars = []rune{arrowDown}
	case tea.KeyLeft:
		snap.Chars = []rune{arrowLeft}
	case tea.KeyRight:
		snap.Chars = []rune{arrowRight}
	default:
		return false
	}

	snap.Changed = true
	snap.Pressed = true

	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.queue) >= keyQueueSize {
		return true
	}
	k.queue = append(k.queue, snap)
	return true
}

// Scan returns the oldest buffered press, or an idle snapshot
func (k *Keyboard) Scan() firmware.KeyboardSnapshot {
	k.mu.Lock()
	defer k.mu.Unlock()
	if len(k.queue) == 0 {
		return firmware.KeyboardSnapshot{}
	}
	snap := k.queue[0]
	k.queue[0] = firmware.KeyboardSnapshot{}
	k.queue = k.queue[1:]
	return snap
}

// Pending reports how many presses wait for a scan
func (k *Keyboard) Pending() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.queue)
}

var _ firmware.Keyboard = (*Keyboard)(nil)
