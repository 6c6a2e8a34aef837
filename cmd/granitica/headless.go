package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/jonboulle/clockwork"

	"github.com/muurk/granitica/internal/config"
	"github.com/muurk/granitica/internal/firmware"
	"github.com/muurk/granitica/internal/gfx"
	"github.com/muurk/granitica/internal/version"
)

// snapshotEpoch is the simulated wall time headless sessions start at
var snapshotEpoch = time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)

// skipClock is a fake clock on which sleeping advances time at once
type skipClock struct {
	*clockwork.FakeClock
}

func (c skipClock) Sleep(d time.Duration) {
	c.Advance(d)
}

// headless drives the firmware without a terminal. Time only passes when
// the session advances it, so every run draws the same frames.
type headless struct {
	clock    skipClock
	interval time.Duration
	fb       *gfx.Framebuffer
	machine  *firmware.Machine
	backends *backends
}

// newHeadless boots a machine with simulated radio and GPS
func newHeadless(ctx context.Context, cfg *config.Config) (*headless, error) {
	sim := *cfg
	sim.Radio.Driver = config.DriverSim
	sim.GPS.Driver = config.DriverSim

	clock := skipClock{clockwork.NewFakeClockAt(snapshotEpoch)}
	b, err := openBackends(ctx, &sim, clock, nil)
	if err != nil {
		return nil, err
	}

	fb := gfx.NewFramebuffer(firmware.ScreenWidth, firmware.ScreenHeight)
	radio := sim.RadioConfig()
	h := &headless{
		clock:    clock,
		interval: sim.Display.TickInterval,
		fb:       fb,
		backends: b,
		machine: firmware.New(b.telemetry(), b.radio, fb, firmware.Options{
			Version: version.Version,
			Radio:   &radio,
			Clock:   clock,
		}),
	}
	h.machine.Boot()
	return h, nil
}

func (h *headless) Close() error {
	return h.backends.Close()
}

// press delivers one key event
func (h *headless) press(kb firmware.KeyboardSnapshot) {
	kb.Changed, kb.Pressed = true, true
	h.machine.Tick(kb)
}

// idle ticks without input until d has passed
func (h *headless) idle(d time.Duration) {
	for elapsed := time.Duration(0); elapsed < d; elapsed += h.interval {
		h.clock.Advance(h.interval)
		h.machine.Tick(firmware.KeyboardSnapshot{})
	}
}

// shot is one captured screen
type shot struct {
	name string
	img  *image.RGBA
}

func (h *headless) capture(name string) shot {
	img, _ := h.fb.Snapshot()
	return shot{name: name, img: img}
}

// tour visits every screen the way a user would and captures each one:
// the GPS monitor once the fix is in, the terminal after an echoed chat
// message, the sniffer after a full sweep and the first help page.
func (h *headless) tour(fixAfter time.Duration) []shot {
	var shots []shot

	h.idle(fixAfter + time.Second)
	shots = append(shots, h.capture("gps"))

	h.press(firmware.KeyboardSnapshot{Chars: []rune{'l'}})
	h.press(firmware.KeyboardSnapshot{Chars: []rune("hello")})
	h.press(firmware.KeyboardSnapshot{Enter: true})
	h.idle(time.Second)
	shots = append(shots, h.capture("terminal"))

	h.press(firmware.KeyboardSnapshot{Esc: true})
	h.press(firmware.KeyboardSnapshot{Esc: true})
	h.press(firmware.KeyboardSnapshot{Chars: []rune{'s'}})
	h.idle(time.Duration(firmware.ScreenWidth) * h.interval)
	shots = append(shots, h.capture("sniffer"))

	h.press(firmware.KeyboardSnapshot{Chars: []rune{'h'}})
	shots = append(shots, h.capture("help"))
	return shots
}

// renderSnapshots writes a PNG of every screen into dir, enlarged by
// scale, and returns the file paths
func renderSnapshots(ctx context.Context, cfg *config.Config, dir string, scale int) ([]string, error) {
	if scale < 1 {
		return nil, fmt.Errorf("scale must be at least 1, got %d", scale)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	h, err := newHeadless(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	var paths []string
	for _, s := range h.tour(cfg.GPS.Sim.FixAfter) {
		var img image.Image = s.img
		if scale > 1 {
			b := s.img.Bounds()
			img = imaging.Resize(s.img, b.Dx()*scale, b.Dy()*scale, imaging.NearestNeighbor)
		}
		path := filepath.Join(dir, s.name+".png")
		if err := imaging.Save(img, path); err != nil {
			return paths, fmt.Errorf("failed to save %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
