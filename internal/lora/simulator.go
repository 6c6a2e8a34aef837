package lora

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/muurk/granitica/internal/firmware"
	"github.com/muurk/granitica/internal/logging"
)

// Simulator defaults
const (
	DefaultEchoDelay    = 800 * time.Millisecond
	DefaultPeerInterval = 15 * time.Second
	DefaultNoiseFloor   = -120.0
	// burstWindow is how long RSSI reports a packet's level after it arrives
	burstWindow = 250 * time.Millisecond
)

// SimulatorConfig tunes the loopback peer. Zero values select defaults; a
// negative PeerInterval disables the peer beacon.
type SimulatorConfig struct {
	Clock        clockwork.Clock
	EchoDelay    time.Duration
	PeerInterval time.Duration
	PeerSF       firmware.SpreadingFactor
	NoiseFloor   float64
	Seed         uint64
}

type scheduled struct {
	at      time.Time
	payload string
}

// Simulator stands in for a transceiver. Every transmitted packet is echoed
// back after EchoDelay, and a peer beacons on PeerSF every PeerInterval; the
// beacon is only heard while the simulated radio uses the same spreading
// factor. Events are delivered lazily when the radio is polled, so the
// simulator runs no goroutines.
type Simulator struct {
	mu     sync.Mutex
	cfg    SimulatorConfig
	clock  clockwork.Clock
	rng    *rand.Rand
	radio  firmware.RadioConfig
	ready  bool
	listen bool

	echoes   []scheduled
	nextPeer time.Time
	beacons  int

	pending   *firmware.Message
	rssi      float64
	snr       float64
	lastBurst time.Time
}

// NewSimulator returns a simulator that has not been configured yet
func NewSimulator(cfg SimulatorConfig) *Simulator {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.EchoDelay == 0 {
		cfg.EchoDelay = DefaultEchoDelay
	}
	if cfg.PeerInterval == 0 {
		cfg.PeerInterval = DefaultPeerInterval
	}
	if cfg.PeerSF == 0 {
		cfg.PeerSF = firmware.SF9
	}
	if cfg.NoiseFloor == 0 {
		cfg.NoiseFloor = DefaultNoiseFloor
	}

	return &Simulator{
		cfg:      cfg,
		clock:    cfg.Clock,
		rng:      rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		nextPeer: cfg.Clock.Now().Add(cfg.PeerInterval),
		rssi:     cfg.NoiseFloor,
	}
}

// Configure records the radio parameters
func (s *Simulator) Configure(rc firmware.RadioConfig) error {
	if _, err := BandwidthCode(rc.BandwidthKHz); err != nil {
		return err
	}
	if !rc.SpreadingFactor.Valid() {
		return fmt.Errorf("unsupported spreading factor %d", rc.SpreadingFactor)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.radio = rc
	s.ready = true
	logging.Debug("Simulated radio configured", zap.Uint8("sf", uint8(rc.SpreadingFactor)))
	return nil
}

// Transmit schedules the echo of payload and leaves receive mode
func (s *Simulator) Transmit(payload string) error {
	if _, err := sendCommand(0, payload); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ready {
		return &ModuleError{Command: "AT+SEND", Code: ResultUnknownError}
	}
	s.listen = false
	s.echoes = append(s.echoes, scheduled{
		at:      s.clock.Now().Add(s.cfg.EchoDelay),
		payload: "ECHO: " + payload,
	})
	return nil
}

// StartReceive enters receive mode
func (s *Simulator) StartReceive() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listen = true
	return nil
}

// PollRadio delivers due packets and returns the latest one, if any
func (s *Simulator) PollRadio() (firmware.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance()
	if s.pending == nil {
		return firmware.Message{}, false
	}
	msg := *s.pending
	s.pending = nil
	return msg, true
}

// RSSI returns the level of a packet that just arrived, or noise
func (s *Simulator) RSSI() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance()
	if s.clock.Since(s.lastBurst) < burstWindow {
		return s.rssi
	}
	return s.cfg.NoiseFloor + s.rng.Float64()*6 - 3
}

// SNR returns the signal-to-noise ratio of the last packet
func (s *Simulator) SNR() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snr
}

// advance delivers every event due by now. Callers hold mu.
func (s *Simulator) advance() {
	if !s.ready || !s.listen {
		return
	}
	now := s.clock.Now()

	kept := s.echoes[:0]
	for _, e := range s.echoes {
		if e.at.After(now) {
			kept = append(kept, e)
			continue
		}
		s.deliver(e.payload, -50-s.rng.Float64()*15, 8+s.rng.Float64()*3)
	}
	s.echoes = kept

	if s.cfg.PeerInterval < 0 {
		return
	}
	for !s.nextPeer.After(now) {
		s.nextPeer = s.nextPeer.Add(s.cfg.PeerInterval)
		if s.radio.SpreadingFactor != s.cfg.PeerSF {
			continue
		}
		s.beacons++
		s.deliver(fmt.Sprintf("HELLO from peer #%d", s.beacons), -80-s.rng.Float64()*20, s.rng.Float64()*10-2)
	}
}

func (s *Simulator) deliver(payload string, rssi, snr float64) {
	s.pending = &firmware.Message{Payload: payload}
	s.rssi = rssi
	s.snr = snr
	s.lastBurst = s.clock.Now()
}

var (
	_ firmware.Radio    = (*Simulator)(nil)
	_ firmware.Receiver = (*Simulator)(nil)
)
