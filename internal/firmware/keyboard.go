package firmware

// KeyboardSnapshot is one scan of the keyboard. Changed reports an edge
// since the previous scan and Pressed that at least one key is down.
type KeyboardSnapshot struct {
	Changed bool
	Pressed bool
	Chars   []rune
	Enter   bool
	Delete  bool
	Tab     bool
	Esc     bool
}

// Keyboard produces one snapshot per tick
type Keyboard interface {
	Scan() KeyboardSnapshot
}

// Backtick doubles as the exit key on keyboards without ESC
const Backtick = '`'

func (k KeyboardSnapshot) active() bool {
	return k.Changed && k.Pressed
}

func (k KeyboardSnapshot) has(runes ...rune) bool {
	for _, c := range k.Chars {
		for _, r := range runes {
			if c == r {
				return true
			}
		}
	}
	return false
}

func (k KeyboardSnapshot) exit() bool {
	return k.Esc || k.has(Backtick)
}

// firstOf returns the earliest char in the scan that is one of runes
func (k KeyboardSnapshot) firstOf(runes ...rune) (rune, bool) {
	for _, c := range k.Chars {
		for _, r := range runes {
			if c == r {
				return c, true
			}
		}
	}
	return 0, false
}

func isPrintable(r rune) bool {
	return r >= ' ' && r <= '~' && r != Backtick
}

func printable(chars []rune) []rune {
	out := make([]rune, 0, len(chars))
	for _, r := range chars {
		if isPrintable(r) {
			out = append(out, r)
		}
	}
	return out
}
