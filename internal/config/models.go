package config

import (
	"time"

	"github.com/muurk/granitica/internal/firmware"
)

// Backend drivers
const (
	DriverSim     = "sim"
	DriverRYLR896 = "rylr896"
	DriverNMEA    = "nmea"
)

// Config represents the entire configuration file.
type Config struct {
	Version int     `yaml:"version" validate:"eq=1"`
	Radio   Radio   `yaml:"radio"`
	GPS     GPS     `yaml:"gps"`
	Display Display `yaml:"display"`
	Mirror  Mirror  `yaml:"mirror"`
	Log     Log     `yaml:"log"`
}

// Radio selects the LoRa backend and the parameters applied at boot.
type Radio struct {
	Driver          string        `yaml:"driver" validate:"oneof=sim rylr896"`
	Port            string        `yaml:"port,omitempty" validate:"required_if=Driver rylr896"`
	Baud            int           `yaml:"baud" validate:"oneof=9600 19200 38400 57600 115200"`
	FrequencyMHz    float64       `yaml:"frequency_mhz" validate:"gte=862,lte=1020"`
	BandwidthKHz    float64       `yaml:"bandwidth_khz" validate:"bandwidth"`
	SpreadingFactor int           `yaml:"spreading_factor" validate:"oneof=7 9 12"`
	CodingRate      int           `yaml:"coding_rate" validate:"gte=5,lte=8"` // denominator of 4/x
	PreambleLength  int           `yaml:"preamble_length" validate:"gte=4,lte=65535"`
	PowerDBm        int           `yaml:"power_dbm" validate:"gte=0,lte=15"`
	SyncWord        uint8         `yaml:"sync_word"`
	TCXOVoltage     float64       `yaml:"tcxo_voltage" validate:"gte=0,lte=3.3"`
	NetworkID       int           `yaml:"network_id" validate:"gte=0,lte=16"`
	Address         int           `yaml:"address" validate:"gte=0,lte=65535"`
	Destination     int           `yaml:"destination" validate:"gte=0,lte=65535"`
	CommandTimeout  time.Duration `yaml:"command_timeout" validate:"gte=0"`
	Sim             RadioSim      `yaml:"sim"`
}

// RadioSim tunes the simulated peer.
type RadioSim struct {
	EchoDelay    time.Duration `yaml:"echo_delay" validate:"gte=0"`
	PeerInterval time.Duration `yaml:"peer_interval"` // negative disables the peer
	PeerSF       int           `yaml:"peer_spreading_factor" validate:"oneof=7 9 12"`
}

// GPS selects the position backend.
type GPS struct {
	Driver     string        `yaml:"driver" validate:"oneof=sim nmea"`
	Port       string        `yaml:"port,omitempty" validate:"required_if=Driver nmea"`
	Baud       int           `yaml:"baud" validate:"oneof=4800 9600 19200 38400 57600 115200"`
	StaleAfter time.Duration `yaml:"stale_after" validate:"gte=0"`
	Sim        GPSSim        `yaml:"sim"`
}

// GPSSim places the simulated track.
type GPSSim struct {
	CenterLat float64       `yaml:"center_lat" validate:"gte=-90,lte=90"`
	CenterLon float64       `yaml:"center_lon" validate:"gte=-180,lte=180"`
	AltitudeM float64       `yaml:"altitude_m"`
	RadiusM   float64       `yaml:"radius_m" validate:"gt=0"`
	Period    time.Duration `yaml:"period" validate:"gt=0"`
	FixAfter  time.Duration `yaml:"fix_after" validate:"gte=0"`
}

// Display controls the terminal host.
type Display struct {
	TickInterval time.Duration `yaml:"tick_interval" validate:"min=1ms,max=1s"`
	// Columns is the panel width in terminal cells; 0 fits the window
	Columns int `yaml:"columns" validate:"gte=0,lte=240"`
	// SnapshotDir receives PNG screenshots taken with F2
	SnapshotDir string `yaml:"snapshot_dir,omitempty"`
}

// Mirror controls the websocket screen mirror.
type Mirror struct {
	Enabled       bool          `yaml:"enabled"`
	Listen        string        `yaml:"listen" validate:"required,hostname_port"`
	Advertise     bool          `yaml:"advertise"`
	Name          string        `yaml:"name,omitempty"`
	FrameInterval time.Duration `yaml:"frame_interval" validate:"min=10ms"`
}

// Log configures diagnostics output. An empty level keeps logging off.
type Log struct {
	Level string `yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn error"`
	File  string `yaml:"file,omitempty"`
}

// Default returns the configuration used when no file exists: both
// backends simulated and the radio on SF9 at 868 MHz.
func Default() *Config {
	rc := firmware.DefaultRadioConfig()
	return &Config{
		Version: 1,
		Radio: Radio{
			Driver:          DriverSim,
			Baud:            115200,
			FrequencyMHz:    rc.FrequencyMHz,
			BandwidthKHz:    rc.BandwidthKHz,
			SpreadingFactor: int(rc.SpreadingFactor),
			CodingRate:      int(rc.CodingRate),
			PreambleLength:  int(rc.PreambleLength),
			PowerDBm:        int(rc.PowerDBm),
			SyncWord:        rc.SyncWord,
			TCXOVoltage:     rc.TCXOVoltage,
			NetworkID:       6,
			Address:         1,
			CommandTimeout:  2 * time.Second,
			Sim: RadioSim{
				EchoDelay:    800 * time.Millisecond,
				PeerInterval: 15 * time.Second,
				PeerSF:       9,
			},
		},
		GPS: GPS{
			Driver:     DriverSim,
			Baud:       9600,
			StaleAfter: 3 * time.Second,
			Sim: GPSSim{
				CenterLat: 51.500729,
				CenterLon: -0.124625,
				AltitudeM: 35,
				RadiusM:   250,
				Period:    2 * time.Minute,
				FixAfter:  5 * time.Second,
			},
		},
		Display: Display{
			TickInterval: 20 * time.Millisecond,
		},
		Mirror: Mirror{
			Listen:        ":8135",
			Advertise:     true,
			FrameInterval: 200 * time.Millisecond,
		},
	}
}

// RadioConfig returns the radio parameters the firmware boots with.
func (c *Config) RadioConfig() firmware.RadioConfig {
	r := c.Radio
	return firmware.RadioConfig{
		FrequencyMHz:    r.FrequencyMHz,
		BandwidthKHz:    r.BandwidthKHz,
		SpreadingFactor: firmware.SpreadingFactor(r.SpreadingFactor),
		CodingRate:      uint8(r.CodingRate),
		SyncWord:        r.SyncWord,
		PowerDBm:        int8(r.PowerDBm),
		PreambleLength:  uint16(r.PreambleLength),
		TCXOVoltage:     r.TCXOVoltage,
	}
}
