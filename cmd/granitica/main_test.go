package main

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/granitica/internal/config"
	"github.com/muurk/granitica/internal/gps"
	"github.com/muurk/granitica/internal/lora"
	"github.com/muurk/granitica/internal/serialport"
)

func changedSet(names ...string) func(string) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

func TestApplyOverrides(t *testing.T) {
	tests := []struct {
		name    string
		opts    deviceOptions
		changed []string
		check   func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "nothing changed keeps the file",
			opts: deviceOptions{sf: 12, radio: "rylr896"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.Default(), cfg)
			},
		},
		{
			name:    "spreading factor",
			opts:    deviceOptions{sf: 12},
			changed: []string{"sf"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, 12, cfg.Radio.SpreadingFactor)
			},
		},
		{
			name:    "radio port selects the module",
			opts:    deviceOptions{radioPort: "/dev/ttyUSB0"},
			changed: []string{"radio-port"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.DriverRYLR896, cfg.Radio.Driver)
				assert.Equal(t, "/dev/ttyUSB0", cfg.Radio.Port)
			},
		},
		{
			name:    "explicit driver wins over port",
			opts:    deviceOptions{radio: "sim", radioPort: "/dev/ttyUSB0"},
			changed: []string{"radio", "radio-port"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.DriverSim, cfg.Radio.Driver)
			},
		},
		{
			name:    "gps port selects nmea",
			opts:    deviceOptions{gpsPort: "/dev/ttyACM0"},
			changed: []string{"gps-port"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.DriverNMEA, cfg.GPS.Driver)
				assert.Equal(t, "/dev/ttyACM0", cfg.GPS.Port)
			},
		},
		{
			name:    "mirror and columns",
			opts:    deviceOptions{mirror: true, columns: 120},
			changed: []string{"mirror", "columns"},
			check: func(t *testing.T, cfg *config.Config) {
				assert.True(t, cfg.Mirror.Enabled)
				assert.Equal(t, 120, cfg.Display.Columns)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			applyOverrides(cfg, tt.opts, changedSet(tt.changed...))
			tt.check(t, cfg)
		})
	}
}

func TestApplyOverrides_InvalidSFFailsValidation(t *testing.T) {
	cfg := config.Default()
	applyOverrides(cfg, deviceOptions{sf: 8}, changedSet("sf"))

	var verr *config.ValidationError
	assert.ErrorAs(t, config.Validate(cfg), &verr)
}

func TestOpenBackends_Simulated(t *testing.T) {
	b, err := openBackends(context.Background(), config.Default(), nil, nil)
	require.NoError(t, err)
	defer b.Close()

	assert.IsType(t, &lora.Simulator{}, b.radio)
	assert.IsType(t, &gps.Simulator{}, b.gps)
	assert.Empty(t, b.closers)
	assert.NotNil(t, b.telemetry())
}

func TestOpenBackends_Hardware(t *testing.T) {
	var opened []string
	var devices []net.Conn
	open := func(name string, baud int) (serialport.Port, error) {
		opened = append(opened, name)
		host, device := net.Pipe()
		devices = append(devices, device)
		return host, nil
	}

	cfg := config.Default()
	cfg.Radio.Driver = config.DriverRYLR896
	cfg.Radio.Port = "/dev/ttyUSB0"
	cfg.GPS.Driver = config.DriverNMEA
	cfg.GPS.Port = "/dev/ttyACM0"

	b, err := openBackends(context.Background(), cfg, nil, open)
	require.NoError(t, err)

	assert.Equal(t, []string{"/dev/ttyUSB0", "/dev/ttyACM0"}, opened)
	assert.IsType(t, &lora.Module{}, b.radio)
	assert.IsType(t, &gps.Receiver{}, b.gps)

	require.NoError(t, b.Close())
	assert.Empty(t, b.closers)
	for _, d := range devices {
		d.Close()
	}
}

func TestOpenBackends_GPSFailureClosesRadio(t *testing.T) {
	var radioDevice net.Conn
	open := func(name string, baud int) (serialport.Port, error) {
		if name == "/dev/ttyACM0" {
			return nil, errors.New("no such device")
		}
		host, device := net.Pipe()
		radioDevice = device
		return host, nil
	}

	cfg := config.Default()
	cfg.Radio.Driver = config.DriverRYLR896
	cfg.Radio.Port = "/dev/ttyUSB0"
	cfg.GPS.Driver = config.DriverNMEA
	cfg.GPS.Port = "/dev/ttyACM0"

	_, err := openBackends(context.Background(), cfg, nil, open)
	require.ErrorContains(t, err, "no such device")
	defer radioDevice.Close()

	// the radio end was closed, so the device end sees EOF
	_, readErr := radioDevice.Read(make([]byte, 1))
	assert.Error(t, readErr)
}
