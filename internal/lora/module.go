// Package lora drives a REYAX RYLR896 LoRa transceiver over its UART
// AT-command interface, and provides a loopback simulator with the same
// surface for running without hardware.
package lora

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/muurk/granitica/internal/firmware"
	"github.com/muurk/granitica/internal/logging"
)

// Defaults for Config
const (
	DefaultCommandTimeout = 2 * time.Second
	// DefaultCommandGap is the pause the module needs between commands
	DefaultCommandGap = 4 * time.Millisecond
)

// Config describes how to reach the module and address packets.
type Config struct {
	Port           string
	Baud           int
	Address        uint16
	NetworkID      uint8
	Destination    uint16
	CommandTimeout time.Duration
	CommandGap     time.Duration
	Clock          clockwork.Clock
}

// Module is a RYLR896 attached to a Port. A background goroutine reads
// the port; command responses are handed to the waiting caller and +RCV
// lines land in a single last-write-wins slot drained by PollRadio.
type Module struct {
	cfg   Config
	port  Port
	clock clockwork.Clock

	callMu    sync.Mutex
	responses chan string

	mu      sync.Mutex
	pending *firmware.Message
	rssi    float64
	snr     float64
	readErr error

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Open opens cfg.Port with open and starts the module reader
func Open(cfg Config, open Opener) (*Module, error) {
	if open == nil {
		open = OpenSerial
	}
	port, err := open(cfg.Port, cfg.Baud)
	if err != nil {
		return nil, err
	}
	return NewModule(port, cfg), nil
}

// NewModule starts a module reader on an already open port
func NewModule(port Port, cfg Config) *Module {
	if cfg.CommandTimeout == 0 {
		cfg.CommandTimeout = DefaultCommandTimeout
	}
	if cfg.CommandGap == 0 {
		cfg.CommandGap = DefaultCommandGap
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	m := &Module{
		cfg:       cfg,
		port:      port,
		clock:     clock,
		responses: make(chan string, 1),
		rssi:      -130,
		done:      make(chan struct{}),
	}
	m.wg.Add(1)
	go m.readLoop()
	return m
}

func (m *Module) readLoop() {
	defer m.wg.Done()
	reader := bufio.NewReader(m.port)

	for {
		raw, err := reader.ReadString('\n')
		if err != nil {
			select {
			case <-m.done:
			default:
				logging.Error("LoRa port read failed", zap.String("port", m.cfg.Port), zap.Error(err))
				m.mu.Lock()
				m.readErr = err
				m.mu.Unlock()
			}
			return
		}
		logging.LogRawBytes("RYLR896 rx", []byte(raw))

		line := strings.TrimRight(raw, "\r\n")
		switch {
		case line == "":
		case strings.HasPrefix(line, prefixReceive):
			m.handleReception(strings.TrimPrefix(line, prefixReceive))
		case line == prefixReady:
			logging.Debug("LoRa module ready", zap.String("port", m.cfg.Port))
		default:
			select {
			case m.responses <- line:
			default:
				logging.Warn("Dropping unexpected LoRa response", zap.String("line", line))
			}
		}
	}
}

func (m *Module) handleReception(s string) {
	rx, err := ParseReception(s)
	if err != nil {
		logging.Warn("Discarding malformed reception", zap.Error(err))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = &firmware.Message{Payload: rx.Payload}
	m.rssi = rx.RSSI
	m.snr = rx.SNR
}

// call writes cmd and waits for its response line
func (m *Module) call(cmd string) error {
	m.callMu.Lock()
	defer m.callMu.Unlock()

	select {
	case <-m.done:
		return &ModuleError{Command: commandName(cmd), Err: ErrClosed}
	default:
	}

	// discard responses to commands that already timed out
	select {
	case <-m.responses:
	default:
	}

	logging.LogRawBytes("RYLR896 tx", []byte(cmd))
	if _, err := m.port.Write([]byte(cmd + "\r\n")); err != nil {
		return &ModuleError{Command: commandName(cmd), Err: err}
	}

	select {
	case line := <-m.responses:
		m.clock.Sleep(m.cfg.CommandGap)
		return parseResult(cmd, line)
	case <-m.clock.After(m.cfg.CommandTimeout):
		return &ModuleError{Command: commandName(cmd), Err: ErrTimeout}
	case <-m.done:
		return &ModuleError{Command: commandName(cmd), Err: ErrClosed}
	}
}

// Configure applies addressing and PHY parameters. The first failing
// command aborts the sequence.
func (m *Module) Configure(rc firmware.RadioConfig) error {
	params, err := parameterCommand(rc)
	if err != nil {
		return err
	}

	steps := []struct {
		name string
		cmd  string
	}{
		{"address", fmt.Sprintf("AT+ADDRESS=%d", m.cfg.Address)},
		{"network ID", fmt.Sprintf("AT+NETWORKID=%d", m.cfg.NetworkID)},
		{"band", bandCommand(rc.FrequencyMHz)},
		{"parameters", params},
		{"output power", powerCommand(rc.PowerDBm)},
	}
	for _, s := range steps {
		if err := m.call(s.cmd); err != nil {
			return fmt.Errorf("failed to set %s: %w", s.name, err)
		}
	}
	return nil
}

// Transmit sends payload to the configured destination address
func (m *Module) Transmit(payload string) error {
	cmd, err := sendCommand(m.cfg.Destination, payload)
	if err != nil {
		return err
	}
	return m.call(cmd)
}

// StartReceive puts the module in transceiver mode so it listens between
// transmissions
func (m *Module) StartReceive() error {
	return m.call("AT+MODE=0")
}

// PollRadio returns the last received message, if any, and clears it
func (m *Module) PollRadio() (firmware.Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return firmware.Message{}, false
	}
	msg := *m.pending
	m.pending = nil
	return msg, true
}

// RSSI returns the signal strength of the last reception in dBm. The RYLR896
// only reports RSSI alongside a received packet and has no command for the
// channel level, so the value holds until the next packet arrives.
func (m *Module) RSSI() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rssi
}

// SNR returns the signal-to-noise ratio of the last reception in dB
func (m *Module) SNR() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snr
}

// Err returns the error that stopped the reader, if any
func (m *Module) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.readErr
}

// Close stops the reader and closes the port
func (m *Module) Close() error {
	var err error
	m.closeOnce.Do(func() {
		close(m.done)
		err = m.port.Close()
		m.wg.Wait()
	})
	if err != nil && !errors.Is(err, ErrClosed) {
		return fmt.Errorf("failed to close LoRa port: %w", err)
	}
	return nil
}

var (
	_ firmware.Radio    = (*Module)(nil)
	_ firmware.Receiver = (*Module)(nil)
)
