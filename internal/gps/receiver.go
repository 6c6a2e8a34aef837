package gps

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	nmea "github.com/adrianmo/go-nmea"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/muurk/granitica/internal/firmware"
	"github.com/muurk/granitica/internal/logging"
	"github.com/muurk/granitica/internal/serialport"
)

// Receiver defaults
const (
	DefaultBaud       = 9600
	DefaultStaleAfter = 3 * time.Second
)

const knotsToKmh = 1.852

// Config controls the NMEA receiver. Port is required; the rest default.
type Config struct {
	Port string
	Baud int
	// StaleAfter drops the fix when no valid position arrives for this long
	StaleAfter time.Duration
	Clock      clockwork.Clock
}

type snapshot struct {
	fix   firmware.GPSFix
	fixAt time.Time
}

// Receiver decodes RMC, GGA, GSV and VTG sentences from a serial port.
type Receiver struct {
	cfg   Config
	clock clockwork.Clock
	open  serialport.Opener

	last      atomic.Pointer[snapshot]
	sentences atomic.Uint64
	failures  atomic.Uint64

	mu      sync.Mutex
	cancel  context.CancelFunc
	port    serialport.Port
	readErr error
	wg      sync.WaitGroup
}

// NewReceiver returns a stopped receiver. A nil open uses serialport.Open.
func NewReceiver(cfg Config, open serialport.Opener) *Receiver {
	if cfg.Baud == 0 {
		cfg.Baud = DefaultBaud
	}
	if cfg.StaleAfter == 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}
	if open == nil {
		open = serialport.Open
	}
	r := &Receiver{cfg: cfg, clock: cfg.Clock, open: open}
	r.last.Store(&snapshot{})
	return r
}

// Start opens the port and begins decoding. Calling Start on a running
// receiver does nothing.
func (r *Receiver) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return nil
	}
	if strings.TrimSpace(r.cfg.Port) == "" {
		return errors.New("gps port not configured")
	}

	port, err := r.open(r.cfg.Port, r.cfg.Baud)
	if err != nil {
		return fmt.Errorf("failed to start GPS receiver: %w", err)
	}
	childCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.port = port

	r.wg.Add(1)
	go r.readLoop(childCtx, port)

	// the port read does not observe ctx, so close it on cancellation
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		<-childCtx.Done()
		_ = port.Close()
	}()

	logging.Info("GPS receiver started", zap.String("port", r.cfg.Port), zap.Int("baud", r.cfg.Baud))
	return nil
}

func (r *Receiver) readLoop(ctx context.Context, port serialport.Port) {
	defer r.wg.Done()

	scanner := bufio.NewScanner(port)
	scanner.Buffer(make([]byte, 0, 256), maxLineLength)
	split := &lineSplitter{max: maxLineLength, dropped: func() { r.failures.Add(1) }}
	scanner.Split(split.scan)

	var st decoder
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "$") {
			continue
		}

		sentence, err := nmea.Parse(line)
		if err != nil {
			r.failures.Add(1)
			logging.Debug("Discarding NMEA sentence", zap.String("line", line), zap.Error(err))
			continue
		}
		r.sentences.Add(1)

		now := r.clock.Now()
		if st.apply(now, sentence) {
			snap := st.snapshot()
			r.last.Store(&snap)
		}
	}

	select {
	case <-ctx.Done():
	default:
		err := scanner.Err()
		if err == nil {
			err = errors.New("gps port closed")
		}
		logging.Error("GPS read stopped", zap.String("port", r.cfg.Port), zap.Error(err))
		r.mu.Lock()
		r.readErr = err
		r.mu.Unlock()
	}
}

// NMEA sentences are at most 82 chars, leave headroom for chatter
const maxLineLength = 4096

// lineSplitter splits like bufio.ScanLines but skips lines longer than max
// instead of failing the scan, so noise at the wrong baud rate does not stop
// the reader.
type lineSplitter struct {
	max        int
	discarding bool
	dropped    func()
}

func (l *lineSplitter) scan(data []byte, atEOF bool) (int, []byte, error) {
	i := bytes.IndexByte(data, '\n')
	if l.discarding {
		if i < 0 {
			return len(data), nil, nil
		}
		l.discarding = false
		return i + 1, nil, nil
	}
	if i >= 0 && i < l.max {
		return i + 1, bytes.TrimSuffix(data[:i], []byte{'\r'}), nil
	}
	if len(data) >= l.max {
		if l.dropped != nil {
			l.dropped()
		}
		if i >= 0 {
			return i + 1, nil, nil
		}
		l.discarding = true
		return len(data), nil, nil
	}
	if atEOF && len(data) > 0 {
		return len(data), bytes.TrimSuffix(data, []byte{'\r'}), nil
	}
	return 0, nil, nil
}

// PollGPS returns the latest fix. A fix older than StaleAfter is reported
// as lost while keeping the satellite count.
func (r *Receiver) PollGPS() firmware.GPSFix {
	snap := r.last.Load()
	fix := snap.fix
	if fix.HasFix && r.clock.Since(snap.fixAt) > r.cfg.StaleAfter {
		fix.HasFix = false
	}
	return fix
}

// Stats returns the number of decoded and rejected sentences
func (r *Receiver) Stats() (sentences, failures uint64) {
	return r.sentences.Load(), r.failures.Load()
}

// Err returns the error that stopped the reader, if any
func (r *Receiver) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.readErr
}

// Close stops the reader and closes the port
func (r *Receiver) Close() error {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	r.wg.Wait()
	return nil
}

// decoder folds sentences into a fix. It is owned by the read loop.
type decoder struct {
	fix       firmware.GPSFix
	fixAt     time.Time
	inUse     int
	inView    int
	haveSpeed bool
}

// apply reports whether the sentence changed the published fix
func (d *decoder) apply(now time.Time, s nmea.Sentence) bool {
	switch m := s.(type) {
	case nmea.RMC:
		if m.Validity != nmea.ValidRMC {
			d.fix.HasFix = false
			break
		}
		d.fix.HasFix = true
		d.fix.Lat = m.Latitude
		d.fix.Lon = m.Longitude
		if !d.haveSpeed {
			d.fix.SpeedKmh = m.Speed * knotsToKmh
		}
		d.setTime(m.Time)
		d.fixAt = now

	case nmea.GGA:
		d.inUse = int(m.NumSatellites)
		if m.FixQuality == nmea.Invalid {
			d.fix.HasFix = false
			break
		}
		d.fix.HasFix = true
		d.fix.Lat = m.Latitude
		d.fix.Lon = m.Longitude
		d.fix.AltitudeM = m.Altitude
		d.setTime(m.Time)
		d.fixAt = now

	case nmea.GSV:
		d.inView = int(m.NumberSVsInView)

	case nmea.VTG:
		d.fix.SpeedKmh = m.GroundSpeedKPH
		d.haveSpeed = true

	default:
		return false
	}

	// satellites in use once there is a fix, otherwise those in view
	d.fix.Satellites = d.inUse
	if !d.fix.HasFix && d.inView > d.inUse {
		d.fix.Satellites = d.inView
	}
	return true
}

func (d *decoder) setTime(t nmea.Time) {
	if t.Valid {
		d.fix.UTCHour = t.Hour
		d.fix.UTCMinute = t.Minute
	}
}

func (d *decoder) snapshot() snapshot {
	return snapshot{fix: d.fix, fixAt: d.fixAt}
}

var _ firmware.GPS = (*Receiver)(nil)
