package firmware

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/muurk/granitica/internal/logging"
)

// Feedback pauses after user actions
const (
	BootPause     = 1000 * time.Millisecond
	SFBannerPause = 500 * time.Millisecond
	TXBannerPause = 300 * time.Millisecond

	// GPSLogInterval is how often the fix is written to the log
	GPSLogInterval = 5 * time.Second

	// DefaultSnifferPause is the delay after each plotted sniffer column
	DefaultSnifferPause = 5 * time.Millisecond
)

// Options configures a Machine. Zero values select the defaults.
type Options struct {
	// Version is shown in the GPS title bar
	Version string
	// Radio is the configuration applied at boot
	Radio *RadioConfig
	// Clock drives pauses and throttling
	Clock clockwork.Clock
	// SnifferPause overrides DefaultSnifferPause; negative disables it
	SnifferPause time.Duration
}

// Machine owns the application state and runs the per-tick loop of
// poll, dispatch, act and render.
type Machine struct {
	state    *State
	tel      Telemetry
	radio    Radio
	renderer renderer
	clock    clockwork.Clock

	boot       RadioConfig
	fix        GPSFix
	lastGPSLog time.Time
}

// New creates a Machine in the boot state. Nothing is drawn and the radio
// is not touched until Boot or the first Tick.
func New(tel Telemetry, radio Radio, display Display, opts Options) *Machine {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	pause := opts.SnifferPause
	switch {
	case pause == 0:
		pause = DefaultSnifferPause
	case pause < 0:
		pause = 0
	}
	boot := DefaultRadioConfig()
	if opts.Radio != nil {
		boot = *opts.Radio
	}

	return &Machine{
		state: NewState(boot),
		tel:   tel,
		radio: radio,
		renderer: renderer{
			display:      display,
			clock:        clock,
			version:      opts.Version,
			snifferPause: pause,
		},
		clock: clock,
		boot:  boot,
	}
}

// State exposes the machine state for inspection
func (m *Machine) State() *State {
	return m.state
}

// Boot configures the radio, starts reception and shows the splash header
// for BootPause. A radio failure is logged and the device carries on.
func (m *Machine) Boot() {
	if err := m.radio.Configure(m.boot); err != nil {
		logging.Error("Radio init failed", zap.Error(err))
	} else {
		logRadioConfig(m.boot)
	}
	if err := m.radio.StartReceive(); err != nil {
		logging.Error("Failed to start receive", zap.Error(err))
	}

	m.renderer.display.FillScreen(Black)
	m.renderer.banner("SYSTEM READY", Blue)
	m.clock.Sleep(BootPause)
	m.state.dirty = true
}

// Run boots the machine and ticks it every interval until ctx is done.
func (m *Machine) Run(ctx context.Context, kb Keyboard, interval time.Duration) error {
	m.Boot()

	ticker := m.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.Chan():
			m.Tick(kb.Scan())
		}
	}
}

// Tick runs one iteration: poll telemetry, dispatch kb, perform the
// resulting actions, render.
func (m *Machine) Tick(kb KeyboardSnapshot) {
	m.poll()

	before := m.state.Kind()
	for _, a := range Dispatch(m.state, kb) {
		m.perform(a)
	}
	if after := m.state.Kind(); after != before {
		logging.Debug("Mode changed",
			zap.Stringer("from", before),
			zap.Stringer("to", after),
		)
	}

	m.renderer.render(m.state, m.fix, m.tel.RSSI())
}

func (m *Machine) poll() {
	m.fix = m.tel.PollGPS()

	now := m.clock.Now()
	if m.lastGPSLog.IsZero() || now.Sub(m.lastGPSLog) >= GPSLogInterval {
		logging.LogGPSFix(m.fix.HasFix, m.fix.Lat, m.fix.Lon, m.fix.AltitudeM, m.fix.Satellites)
		m.lastGPSLog = now
	}

	msg, ok := m.tel.PollRadio()
	if !ok || msg.Payload == "" {
		return
	}
	m.state.lastMessage = msg.Payload
	m.state.rssi = m.tel.RSSI()
	m.state.snr = m.tel.SNR()
	logging.LogRX(int(m.state.radio.SpreadingFactor), m.state.rssi, m.state.snr, msg.Payload)
}

func (m *Machine) perform(a Action) {
	switch a.Kind {
	case ActionSendPing:
		m.transmit(PingPayload(m.state.radio.SpreadingFactor))
	case ActionSendGeoBeacon:
		m.transmit(GeoBeaconPayload(m.fix))
	case ActionSendChat:
		m.transmit(a.Payload)
	case ActionCycleSpreadingFactor:
		m.cycleSpreadingFactor()
	}
}

// cycleSpreadingFactor applies the next SF. On failure the previous
// configuration stays recorded as applied.
func (m *Machine) cycleSpreadingFactor() {
	next := m.state.radio.WithSpreadingFactor(m.state.radio.SpreadingFactor.Next())
	if err := m.radio.Configure(next); err != nil {
		logging.Warn("Radio reconfiguration failed",
			zap.Uint8("sf", uint8(next.SpreadingFactor)),
			zap.Uint8("kept_sf", uint8(m.state.radio.SpreadingFactor)),
			zap.Error(err),
		)
	} else {
		m.state.radio = next
		logRadioConfig(next)
	}
	if err := m.radio.StartReceive(); err != nil {
		logging.Error("Failed to restart receive", zap.Error(err))
	}

	m.renderer.banner(fmt.Sprintf("RADIO: SET SF %d", m.state.radio.SpreadingFactor), Blue)
	m.clock.Sleep(SFBannerPause)
	m.state.dirty = true
}

func (m *Machine) transmit(payload string) {
	m.renderer.banner("TX: SENDING...", Magenta)
	logging.LogTX(int(m.state.radio.SpreadingFactor), payload)

	if err := m.radio.Transmit(payload); err != nil {
		logging.Error("Transmit failed", zap.String("payload", payload), zap.Error(err))
	}
	if err := m.radio.StartReceive(); err != nil {
		logging.Error("Failed to restart receive", zap.Error(err))
	}

	m.clock.Sleep(TXBannerPause)
	m.state.dirty = true
}

func logRadioConfig(c RadioConfig) {
	logging.LogRadioConfig(c.FrequencyMHz, c.BandwidthKHz, int(c.SpreadingFactor), int(c.CodingRate), int(c.PowerDBm))
}

// PingPayload is the text sent by the ping action
func PingPayload(sf SpreadingFactor) string {
	return fmt.Sprintf("PING from Cardputer (SF%d)", sf)
}

// NoFixBeacon is sent as a geo-beacon while the GPS has no fix
const NoFixBeacon = "BEACON: No GPS Fix"

// GeoBeaconPayload encodes the current position, or NoFixBeacon.
func GeoBeaconPayload(fix GPSFix) string {
	if !fix.HasFix {
		return NoFixBeacon
	}
	return fmt.Sprintf("GEO:%.6f,%.6f", fix.Lat, fix.Lon)
}
