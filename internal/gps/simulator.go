package gps

import (
	"math"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/muurk/granitica/internal/firmware"
)

// Simulator defaults
const (
	DefaultSimRadiusM    = 250.0
	DefaultSimPeriod     = 2 * time.Minute
	DefaultSimFixAfter   = 5 * time.Second
	DefaultSimSatellites = 9
	// metresPerDegree is the length of one degree of latitude
	metresPerDegree = 111_320.0
)

// SimulatorConfig places the simulated track. Zero values select defaults.
type SimulatorConfig struct {
	Clock      clockwork.Clock
	CenterLat  float64
	CenterLon  float64
	AltitudeM  float64
	RadiusM    float64
	Period     time.Duration
	FixAfter   time.Duration
	Satellites int
}

// Simulator walks a figure-eight around a centre point. It reports no fix
// until FixAfter has elapsed, with the satellites in view climbing meanwhile.
type Simulator struct {
	cfg   SimulatorConfig
	clock clockwork.Clock
	start time.Time
}

// NewSimulator starts the track at the clock's current time
func NewSimulator(cfg SimulatorConfig) *Simulator {
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if cfg.RadiusM <= 0 {
		cfg.RadiusM = DefaultSimRadiusM
	}
	if cfg.Period <= 0 {
		cfg.Period = DefaultSimPeriod
	}
	if cfg.FixAfter == 0 {
		cfg.FixAfter = DefaultSimFixAfter
	}
	if cfg.Satellites <= 0 {
		cfg.Satellites = DefaultSimSatellites
	}
	return &Simulator{cfg: cfg, clock: cfg.Clock, start: cfg.Clock.Now()}
}

// PollGPS returns the position for the current clock time
func (s *Simulator) PollGPS() firmware.GPSFix {
	now := s.clock.Now()
	elapsed := now.Sub(s.start)

	if elapsed < s.cfg.FixAfter {
		seen := int(float64(s.cfg.Satellites) * float64(elapsed) / float64(s.cfg.FixAfter))
		return firmware.GPSFix{Satellites: seen}
	}

	lat, lon, speed := s.track(elapsed - s.cfg.FixAfter)
	utc := now.UTC()
	return firmware.GPSFix{
		HasFix:     true,
		Lat:        lat,
		Lon:        lon,
		AltitudeM:  s.cfg.AltitudeM + 5*math.Sin(s.phase(elapsed)),
		SpeedKmh:   speed,
		Satellites: s.cfg.Satellites,
		UTCHour:    utc.Hour(),
		UTCMinute:  utc.Minute(),
	}
}

func (s *Simulator) phase(d time.Duration) float64 {
	p := float64(d%s.cfg.Period) / float64(s.cfg.Period)
	return 2 * math.Pi * p
}

// track returns position and ground speed on a Lissajous figure-eight:
// east = R cos(w), north = R/2 sin(2w)
func (s *Simulator) track(d time.Duration) (lat, lon, speedKmh float64) {
	w := s.phase(d)
	r := s.cfg.RadiusM

	east := r * math.Cos(w)
	north := 0.5 * r * math.Sin(2*w)

	lat = s.cfg.CenterLat + north/metresPerDegree
	lon = s.cfg.CenterLon + east/(metresPerDegree*math.Cos(s.cfg.CenterLat*math.Pi/180))

	omega := 2 * math.Pi / s.cfg.Period.Seconds()
	ve := -r * math.Sin(w) * omega
	vn := r * math.Cos(2*w) * omega
	speedKmh = math.Hypot(ve, vn) * 3.6
	return lat, lon, speedKmh
}

var _ firmware.GPS = (*Simulator)(nil)
