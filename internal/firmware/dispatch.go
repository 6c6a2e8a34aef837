package firmware

// ActionKind is a radio-side effect requested by a key press
type ActionKind int

const (
	ActionSendPing ActionKind = iota + 1
	ActionSendGeoBeacon
	ActionSendChat
	ActionCycleSpreadingFactor
)

// String returns the action name used in logs
func (a ActionKind) String() string {
	switch a {
	case ActionSendPing:
		return "ping"
	case ActionSendGeoBeacon:
		return "geo-beacon"
	case ActionSendChat:
		return "chat"
	case ActionCycleSpreadingFactor:
		return "cycle-sf"
	default:
		return "none"
	}
}

// Action is one effect for the machine to run after dispatch. Payload is
// set only for chat messages.
type Action struct {
	Kind    ActionKind
	Payload string
}

// Dispatch applies one keyboard snapshot to s and returns the radio actions
// it triggered. Snapshots without a new key press are ignored.
func Dispatch(s *State, kb KeyboardSnapshot) []Action {
	if !kb.active() {
		return nil
	}

	switch m := s.mode.(type) {
	case *HelpMode:
		dispatchHelp(s, m, kb)
		return nil
	case *TerminalMode:
		return dispatchTerminal(s, m, kb)
	default:
		return dispatchNavigation(s, kb)
	}
}

func dispatchHelp(s *State, h *HelpMode, kb KeyboardSnapshot) {
	switch {
	case kb.exit():
		s.enterGPS()
	case kb.has('.', '/'):
		h.next()
		s.dirty = true
	case kb.has(';', ','):
		h.prev()
		s.dirty = true
	}
}

func dispatchTerminal(s *State, t *TerminalMode, kb KeyboardSnapshot) []Action {
	if kb.exit() {
		if t.chat == ChatTyping {
			s.setChat(t, ChatCommand)
		} else {
			s.enterGPS()
		}
		return nil
	}

	if t.chat == ChatCommand {
		// the first character decides; the rest is typed
		chars := printable(kb.Chars)
		if len(chars) == 0 {
			if !kb.Enter {
				return nil
			}
			s.setChat(t, ChatTyping)
			return []Action{{Kind: ActionSendGeoBeacon}}
		}
		s.setChat(t, ChatTyping)
		var actions []Action
		if chars[0] == ' ' {
			actions = []Action{{Kind: ActionSendPing}}
			chars = chars[1:]
		}
		for _, r := range chars {
			t.appendRune(r)
		}
		return actions
	}

	for _, r := range printable(kb.Chars) {
		t.appendRune(r)
	}
	if kb.Delete {
		t.backspace()
	}
	if kb.Enter && len(t.input) > 0 {
		payload := string(t.input)
		t.input = t.input[:0]
		return []Action{{Kind: ActionSendChat, Payload: payload}}
	}
	return nil
}

func dispatchNavigation(s *State, kb KeyboardSnapshot) []Action {
	if kb.exit() {
		s.enterGPS()
		return nil
	}
	if kb.has('h', 'H') {
		s.enterHelp()
		return nil
	}
	if r, ok := kb.firstOf('g', 'G', 'l', 'L', 's', 'S'); ok {
		switch r {
		case 'g', 'G':
			s.enterGPS()
		case 'l', 'L':
			s.enterTerminal()
		case 's', 'S':
			s.enterSniffer()
		}
		return nil
	}

	switch {
	case kb.Enter:
		return []Action{{Kind: ActionSendGeoBeacon}}
	case kb.Tab:
		return []Action{{Kind: ActionCycleSpreadingFactor}}
	case kb.has(' '):
		return []Action{{Kind: ActionSendPing}}
	}
	return nil
}
