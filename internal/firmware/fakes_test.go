package firmware

import (
	"context"
	"errors"
	"image/color"
	"strings"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

type drawCall struct {
	op   string
	x, y int
	w, h int
	text string
	c    color.RGBA
}

// recordingDisplay keeps every draw call for inspection
type recordingDisplay struct {
	calls []drawCall
}

func (d *recordingDisplay) FillScreen(c color.RGBA) {
	d.calls = append(d.calls, drawCall{op: "FillScreen", w: ScreenWidth, h: ScreenHeight, c: c})
}

func (d *recordingDisplay) FillRect(x, y, w, h int, c color.RGBA) {
	d.calls = append(d.calls, drawCall{op: "FillRect", x: x, y: y, w: w, h: h, c: c})
}

func (d *recordingDisplay) DrawRect(x, y, w, h int, c color.RGBA) {
	d.calls = append(d.calls, drawCall{op: "DrawRect", x: x, y: y, w: w, h: h, c: c})
}

func (d *recordingDisplay) HLine(x, y, w int, c color.RGBA) {
	d.calls = append(d.calls, drawCall{op: "HLine", x: x, y: y, w: w, c: c})
}

func (d *recordingDisplay) VLine(x, y, h int, c color.RGBA) {
	d.calls = append(d.calls, drawCall{op: "VLine", x: x, y: y, h: h, c: c})
}

func (d *recordingDisplay) Text(x, y int, s string, style TextStyle) {
	d.calls = append(d.calls, drawCall{op: "Text", x: x, y: y, text: s, c: style.Foreground})
}

func (d *recordingDisplay) reset() { d.calls = nil }

func (d *recordingDisplay) count(op string) int {
	n := 0
	for _, c := range d.calls {
		if c.op == op {
			n++
		}
	}
	return n
}

func (d *recordingDisplay) texts() []string {
	var out []string
	for _, c := range d.calls {
		if c.op == "Text" {
			out = append(out, c.text)
		}
	}
	return out
}

func (d *recordingDisplay) hasText(substr string) bool {
	for _, s := range d.texts() {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

func (d *recordingDisplay) ops(op string) []drawCall {
	var out []drawCall
	for _, c := range d.calls {
		if c.op == op {
			out = append(out, c)
		}
	}
	return out
}

type fakeTelemetry struct {
	fix     GPSFix
	pending []Message
	rssi    float64
	snr     float64
}

func (f *fakeTelemetry) PollGPS() GPSFix { return f.fix }

func (f *fakeTelemetry) PollRadio() (Message, bool) {
	if len(f.pending) == 0 {
		return Message{}, false
	}
	m := f.pending[0]
	f.pending = f.pending[1:]
	return m, true
}

func (f *fakeTelemetry) RSSI() float64 { return f.rssi }
func (f *fakeTelemetry) SNR() float64  { return f.snr }

var errRejected = errors.New("rejected")

type fakeRadio struct {
	configs  []RadioConfig
	sent     []string
	receives int
	reject   map[SpreadingFactor]bool
}

func (r *fakeRadio) Configure(cfg RadioConfig) error {
	if r.reject[cfg.SpreadingFactor] {
		return errRejected
	}
	r.configs = append(r.configs, cfg)
	return nil
}

func (r *fakeRadio) Transmit(payload string) error {
	r.sent = append(r.sent, payload)
	return nil
}

func (r *fakeRadio) StartReceive() error {
	r.receives++
	return nil
}

type harness struct {
	machine *Machine
	display *recordingDisplay
	tel     *fakeTelemetry
	radio   *fakeRadio
	clock   *clockwork.FakeClock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		display: &recordingDisplay{},
		tel:     &fakeTelemetry{rssi: -110, snr: 5},
		radio:   &fakeRadio{},
		clock:   clockwork.NewFakeClock(),
	}
	h.machine = New(h.tel, h.radio, h.display, Options{
		Version:      "v0.7.0",
		Clock:        h.clock,
		SnifferPause: -1,
	})
	return h
}

// tick runs one tick that does not pause
func (h *harness) tick(kb KeyboardSnapshot) {
	h.machine.Tick(kb)
}

// tickPausing runs one tick that sleeps once on the clock, advancing the
// clock by d to release it.
func (h *harness) tickPausing(t *testing.T, kb KeyboardSnapshot, d time.Duration) {
	t.Helper()
	h.pausing(t, func() { h.machine.Tick(kb) }, d)
}

// pausing runs fn, which must sleep exactly once on the clock, and
// advances the clock by d once it is asleep.
func (h *harness) pausing(t *testing.T, fn func(), d time.Duration) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, h.clock.BlockUntilContext(ctx, 1))
	h.clock.Advance(d)

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("call did not finish after advancing the clock")
	}
}

func idle() KeyboardSnapshot { return KeyboardSnapshot{} }

func keys(chars string) KeyboardSnapshot {
	return KeyboardSnapshot{Changed: true, Pressed: true, Chars: []rune(chars)}
}

func escKey() KeyboardSnapshot {
	return KeyboardSnapshot{Changed: true, Pressed: true, Esc: true}
}

func enterKey() KeyboardSnapshot {
	return KeyboardSnapshot{Changed: true, Pressed: true, Enter: true}
}

func deleteKey() KeyboardSnapshot {
	return KeyboardSnapshot{Changed: true, Pressed: true, Delete: true}
}

func tabKey() KeyboardSnapshot {
	return KeyboardSnapshot{Changed: true, Pressed: true, Tab: true}
}
