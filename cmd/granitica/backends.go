package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonboulle/clockwork"

	"github.com/muurk/granitica/internal/config"
	"github.com/muurk/granitica/internal/firmware"
	"github.com/muurk/granitica/internal/gps"
	"github.com/muurk/granitica/internal/logging"
	"github.com/muurk/granitica/internal/lora"
	"github.com/muurk/granitica/internal/serialport"
)

// transceiver is a radio that can both send and receive
type transceiver interface {
	firmware.Radio
	firmware.Receiver
}

// backends are the radio and GPS chosen by the config
type backends struct {
	clock   clockwork.Clock
	radio   transceiver
	gps     firmware.GPS
	closers []func() error
}

func (b *backends) telemetry() firmware.Telemetry {
	return firmware.JoinTelemetry(b.gps, b.radio)
}

// Close releases the serial ports in reverse order of opening
func (b *backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}

// openBackends builds the radio and GPS from cfg. A nil clock uses the
// real one and a nil open lets each driver open its own port.
func openBackends(ctx context.Context, cfg *config.Config, clock clockwork.Clock, open serialport.Opener) (*backends, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	b := &backends{clock: clock}

	switch cfg.Radio.Driver {
	case config.DriverRYLR896:
		r := cfg.Radio
		m, err := lora.Open(lora.Config{
			Port:           r.Port,
			Baud:           r.Baud,
			Address:        uint16(r.Address),
			NetworkID:      uint8(r.NetworkID),
			Destination:    uint16(r.Destination),
			CommandTimeout: r.CommandTimeout,
			Clock:          clock,
		}, open)
		if err != nil {
			return nil, fmt.Errorf("failed to open LoRa module: %w", err)
		}
		b.radio = m
		b.closers = append(b.closers, m.Close)
	default:
		b.radio = lora.NewSimulator(lora.SimulatorConfig{
			Clock:        clock,
			EchoDelay:    cfg.Radio.Sim.EchoDelay,
			PeerInterval: cfg.Radio.Sim.PeerInterval,
			PeerSF:       firmware.SpreadingFactor(cfg.Radio.Sim.PeerSF),
			Seed:         uint64(clock.Now().UnixNano()),
		})
	}

	switch cfg.GPS.Driver {
	case config.DriverNMEA:
		r := gps.NewReceiver(gps.Config{
			Port:       cfg.GPS.Port,
			Baud:       cfg.GPS.Baud,
			StaleAfter: cfg.GPS.StaleAfter,
			Clock:      clock,
		}, open)
		if err := r.Start(ctx); err != nil {
			_ = b.Close()
			return nil, err
		}
		b.gps = r
		b.closers = append(b.closers, r.Close)
	default:
		sim := cfg.GPS.Sim
		b.gps = gps.NewSimulator(gps.SimulatorConfig{
			Clock:     clock,
			CenterLat: sim.CenterLat,
			CenterLon: sim.CenterLon,
			AltitudeM: sim.AltitudeM,
			RadiusM:   sim.RadiusM,
			Period:    sim.Period,
			FixAfter:  sim.FixAfter,
		})
	}

	logging.LogRadioConfig(cfg.Radio.FrequencyMHz, cfg.Radio.BandwidthKHz, cfg.Radio.SpreadingFactor, cfg.Radio.CodingRate, cfg.Radio.PowerDBm)
	return b, nil
}
