package firmware

import (
	"testing"

	"pgregory.net/rapid"
)

var modeKeys = map[rune]AppMode{
	'g': ModeGPS,
	'l': ModeTerminal,
	's': ModeSniffer,
}

// anyKey draws a single key press from the whole keyboard
func anyKey() *rapid.Generator[KeyboardSnapshot] {
	return rapid.Custom(func(t *rapid.T) KeyboardSnapshot {
		switch rapid.IntRange(0, 5).Draw(t, "kind") {
		case 0:
			return escKey()
		case 1:
			return enterKey()
		case 2:
			return deleteKey()
		case 3:
			return tabKey()
		default:
			r := rune(rapid.IntRange(' ', '~').Draw(t, "char"))
			return keys(string(r))
		}
	})
}

// returnToGPS presses exit until the GPS screen is active
func returnToGPS(t *rapid.T, s *State) {
	for i := 0; i < 2 && s.Kind() != ModeGPS; i++ {
		Dispatch(s, escKey())
	}
	if s.Kind() != ModeGPS {
		t.Fatalf("mode = %v after two exits, want gps", s.Kind())
	}
}

func TestProperty_LastModeSelectWins(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := NewState(DefaultRadioConfig())
		seq := rapid.SliceOfN(rapid.SampledFrom([]rune{'g', 'l', 's'}), 1, 20).Draw(t, "selects")

		for _, r := range seq {
			// mode keys are text inside the terminal
			if s.Kind() == ModeTerminal {
				returnToGPS(t, s)
			}
			Dispatch(s, keys(string(r)))
		}

		if want := modeKeys[seq[len(seq)-1]]; s.Kind() != want {
			t.Fatalf("mode = %v, want %v", s.Kind(), want)
		}
	})
}

func TestProperty_TerminalEntryIsFresh(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := NewState(DefaultRadioConfig())
		for _, kb := range rapid.SliceOfN(anyKey(), 0, 40).Draw(t, "history") {
			Dispatch(s, kb)
		}
		returnToGPS(t, s)
		s.dirty = false

		Dispatch(s, keys("l"))

		term, ok := s.Terminal()
		if !ok {
			t.Fatalf("mode = %v, want terminal", s.Kind())
		}
		if term.Chat() != ChatTyping || term.Input() != "" || !s.Dirty() {
			t.Fatalf("entry state = %v %q dirty=%v", term.Chat(), term.Input(), s.Dirty())
		}
	})
}

func TestProperty_InputNeverExceedsCapacity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := NewState(DefaultRadioConfig())
		Dispatch(s, keys("l"))
		term, _ := s.Terminal()

		var typed []rune
		for _, chunk := range rapid.SliceOfN(rapid.StringOfN(rapid.RuneFrom([]rune("abcxyz0189 .,!?-")), 1, 8, -1), 1, 12).Draw(t, "chunks") {
			before := term.Input()
			Dispatch(s, keys(chunk))
			typed = append(typed, []rune(chunk)...)

			if n := len([]rune(term.Input())); n > MaxInputLength {
				t.Fatalf("buffer length %d exceeds %d", n, MaxInputLength)
			}
			if len([]rune(before)) == MaxInputLength && term.Input() != before {
				t.Fatalf("full buffer changed from %q to %q", before, term.Input())
			}
		}

		want := typed
		if len(want) > MaxInputLength {
			want = want[:MaxInputLength]
		}
		if term.Input() != string(want) {
			t.Fatalf("buffer = %q, want %q", term.Input(), string(want))
		}
	})
}

func TestProperty_CommandModePrintableAppends(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := NewState(DefaultRadioConfig())
		Dispatch(s, keys("l"))
		buf := rapid.StringOfN(rapid.RuneFrom([]rune("abcdefghijklmnopqrstuvwxyz0123456789")), 0, MaxInputLength-1, -1).Draw(t, "buffer")
		if buf != "" {
			Dispatch(s, keys(buf))
		}
		Dispatch(s, escKey())

		c := rapid.RuneFrom([]rune("abcxyzHGLS019!?.,;/")).Draw(t, "key")
		actions := Dispatch(s, keys(string(c)))

		term, ok := s.Terminal()
		if !ok {
			t.Fatalf("mode = %v, want terminal", s.Kind())
		}
		if len(actions) != 0 {
			t.Fatalf("actions = %v, want none", actions)
		}
		if term.Chat() != ChatTyping || term.Input() != buf+string(c) {
			t.Fatalf("got %v %q, want typing %q", term.Chat(), term.Input(), buf+string(c))
		}
	})
}

func TestProperty_HelpPagesCycle(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := NewState(DefaultRadioConfig())
		Dispatch(s, keys("h"))
		n := rapid.IntRange(0, 50).Draw(t, "presses")
		next := rapid.SampledFrom([]string{".", "/"})
		for i := 0; i < n; i++ {
			Dispatch(s, keys(next.Draw(t, "next")))
		}

		help := s.Mode().(*HelpMode)
		if help.Page() != n%HelpPageCount {
			t.Fatalf("page = %d after %d presses, want %d", help.Page(), n, n%HelpPageCount)
		}
	})
}

func TestHelpPreviousFromFirstPage(t *testing.T) {
	for _, key := range []string{";", ","} {
		s := NewState(DefaultRadioConfig())
		Dispatch(s, keys("h"))
		Dispatch(s, keys(key))
		if got := s.Mode().(*HelpMode).Page(); got != HelpPageCount-1 {
			t.Errorf("previous(%q) from page 0 = %d, want %d", key, got, HelpPageCount-1)
		}
	}
}

func TestProperty_SpreadingFactorCycle(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		sf := rapid.SampledFrom(SpreadingFactors).Draw(t, "start")
		n := rapid.IntRange(1, 30).Draw(t, "steps")

		idx := map[SpreadingFactor]int{SF7: 0, SF9: 1, SF12: 2}[sf]
		for i := 0; i < n; i++ {
			sf = sf.Next()
			if !sf.Valid() {
				t.Fatalf("Next() produced illegal SF %d", sf)
			}
		}
		if want := SpreadingFactors[(idx+n)%3]; sf != want {
			t.Fatalf("after %d steps sf = %d, want %d", n, sf, want)
		}
	})
}

func TestSpreadingFactorSequence(t *testing.T) {
	got := []SpreadingFactor{SF7}
	for i := 0; i < 4; i++ {
		got = append(got, got[len(got)-1].Next())
	}
	want := []SpreadingFactor{SF7, SF9, SF12, SF7, SF9}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("cycle = %v, want %v", got, want)
		}
	}
}

func TestParseSpreadingFactor(t *testing.T) {
	tests := []struct {
		in      int
		want    SpreadingFactor
		wantErr bool
	}{
		{7, SF7, false},
		{9, SF9, false},
		{12, SF12, false},
		{8, 0, true},
		{-1, 0, true},
		{268, 0, true},
	}
	for _, tt := range tests {
		got, err := ParseSpreadingFactor(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseSpreadingFactor(%d) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSpreadingFactor(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
