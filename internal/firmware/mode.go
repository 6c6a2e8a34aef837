package firmware

import "time"

// AppMode identifies the active screen
type AppMode int

const (
	ModeGPS AppMode = iota
	ModeTerminal
	ModeSniffer
	ModeHelp
)

// String returns the mode name used in logs
func (m AppMode) String() string {
	switch m {
	case ModeGPS:
		return "gps"
	case ModeTerminal:
		return "terminal"
	case ModeSniffer:
		return "sniffer"
	case ModeHelp:
		return "help"
	default:
		return "unknown"
	}
}

// ChatState is the sub-state of the LoRa terminal
type ChatState int

const (
	// ChatTyping routes printable keys into the input buffer
	ChatTyping ChatState = iota
	// ChatCommand routes keys to ping and geo-beacon shortcuts
	ChatCommand
)

// String returns the sub-state name used in logs
func (c ChatState) String() string {
	if c == ChatCommand {
		return "command"
	}
	return "typing"
}

// MaxInputLength is the chat input buffer capacity in characters
const MaxInputLength = 30

// Mode is the active screen together with the state only that screen owns.
type Mode interface {
	Kind() AppMode
}

// GPSMode shows the current fix.
type GPSMode struct {
	fixObserved bool
	lastRefresh time.Time
}

func (*GPSMode) Kind() AppMode { return ModeGPS }

// TerminalMode is the LoRa chat terminal.
type TerminalMode struct {
	chat  ChatState
	input []rune

	// what the screen currently shows
	messageShown bool
	shownMessage string
	inputShown   bool
	shownInput   string
	shownChat    ChatState
}

func (*TerminalMode) Kind() AppMode { return ModeTerminal }

// Chat returns the terminal sub-state
func (t *TerminalMode) Chat() ChatState { return t.chat }

// Input returns the current input buffer
func (t *TerminalMode) Input() string { return string(t.input) }

func (t *TerminalMode) appendRune(r rune) bool {
	if len(t.input) >= MaxInputLength {
		return false
	}
	t.input = append(t.input, r)
	return true
}

func (t *TerminalMode) backspace() bool {
	if len(t.input) == 0 {
		return false
	}
	t.input = t.input[:len(t.input)-1]
	return true
}

// SnifferMode plots RSSI one column per tick.
type SnifferMode struct {
	cursor int
}

func (*SnifferMode) Kind() AppMode { return ModeSniffer }

// Cursor returns the next column to plot
func (s *SnifferMode) Cursor() int { return s.cursor }

// HelpMode pages through the manual.
type HelpMode struct {
	page int
}

func (*HelpMode) Kind() AppMode { return ModeHelp }

// Page returns the zero-based page index
func (h *HelpMode) Page() int { return h.page }

func (h *HelpMode) next() { h.page = (h.page + 1) % HelpPageCount }

func (h *HelpMode) prev() { h.page = (h.page + HelpPageCount - 1) % HelpPageCount }

// State is everything the core owns between ticks. Dispatch and render
// receive it explicitly.
type State struct {
	mode  Mode
	dirty bool
	radio RadioConfig

	lastMessage string
	rssi        float64
	snr         float64
}

// NewState returns the boot state: GPS mode, dirty, with the given radio
// configuration recorded as applied.
func NewState(radio RadioConfig) *State {
	return &State{
		mode:        &GPSMode{},
		dirty:       true,
		radio:       radio,
		lastMessage: "No Data",
	}
}

// Mode returns the active mode variant
func (s *State) Mode() Mode { return s.mode }

// Kind returns the active mode tag
func (s *State) Kind() AppMode { return s.mode.Kind() }

// Dirty reports whether the static layout must be redrawn
func (s *State) Dirty() bool { return s.dirty }

// Radio returns the last successfully applied radio configuration
func (s *State) Radio() RadioConfig { return s.radio }

// LastMessage returns the most recent received payload
func (s *State) LastMessage() string { return s.lastMessage }

// Terminal returns the terminal variant when it is active
func (s *State) Terminal() (*TerminalMode, bool) {
	t, ok := s.mode.(*TerminalMode)
	return t, ok
}

func (s *State) enter(m Mode) {
	s.mode = m
	s.dirty = true
}

func (s *State) enterGPS()      { s.enter(&GPSMode{}) }
func (s *State) enterTerminal() { s.enter(&TerminalMode{chat: ChatTyping}) }
func (s *State) enterSniffer()  { s.enter(&SnifferMode{}) }
func (s *State) enterHelp()     { s.enter(&HelpMode{}) }

func (s *State) setChat(t *TerminalMode, c ChatState) {
	t.chat = c
	s.dirty = true
}
