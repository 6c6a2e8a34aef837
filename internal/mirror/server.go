package mirror

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"image"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/granitica/internal/logging"
)

const (
	// Time allowed to write a message to the viewer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the viewer
	pongWait = 60 * time.Second

	// Send pings to the viewer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from a viewer
	maxMessageSize = 512

	// DefaultFrameInterval is how often viewers are checked for a new frame
	DefaultFrameInterval = 200 * time.Millisecond

	streamPath = "/ws"
	framePath  = "/frame.png"

	shutdownTimeout = 2 * time.Second
)

// Source is a display whose frames can be copied out
type Source interface {
	Frame() uint64
	Snapshot() (*image.RGBA, uint64)
}

// Config controls the mirror server
type Config struct {
	// Listen is the TCP address to serve on (e.g., ":8135")
	Listen string

	// Name is the advertised instance name, "granitica-<hostname>" when empty
	Name string

	// Version is published on the index page and in the TXT record
	Version string

	// FrameInterval is how often viewers are checked for a new frame
	FrameInterval time.Duration

	// Advertise registers the server over mDNS
	Advertise bool
}

// Server streams a Source to websocket viewers
type Server struct {
	cfg      Config
	src      Source
	frames   frameCache
	upgrader websocket.Upgrader

	mu      sync.Mutex
	viewers map[*websocket.Conn]string
	http    *http.Server
	mdns    *zeroconf.Server
	addr    net.Addr

	closing   chan struct{}
	closeOnce sync.Once
}

// NewServer creates a mirror of src. Nothing is served until Start.
func NewServer(src Source, cfg Config) *Server {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = DefaultFrameInterval
	}
	if cfg.Name == "" {
		cfg.Name = defaultInstanceName()
	}
	return &Server{
		cfg: cfg,
		src: src,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
		},
		viewers: make(map[*websocket.Conn]string),
		closing: make(chan struct{}),
	}
}

func defaultInstanceName() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "granitica"
	}
	return "granitica-" + host
}

// Handler returns the HTTP routes of the mirror
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.NoCache)

	r.Get("/", s.handleIndex)
	r.Get(framePath, s.handleFrame)
	r.Get(streamPath, s.handleStream)
	return r
}

// Start listens on cfg.Listen and serves until ctx is done or Close is
// called. Advertising failures are logged and do not stop the server.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Listen, err)
	}

	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.mu.Lock()
	s.http = srv
	s.addr = ln.Addr()
	s.mu.Unlock()

	logging.Info("Mirror server listening",
		zap.String("address", ln.Addr().String()),
		zap.Duration("frame_interval", s.cfg.FrameInterval),
	)

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Mirror server stopped", zap.Error(err))
		}
	}()

	if s.cfg.Advertise {
		port := ln.Addr().(*net.TCPAddr).Port
		txt := []string{"version=" + s.cfg.Version, "path=" + streamPath}
		mdns, err := Advertise(s.cfg.Name, port, txt)
		if err != nil {
			logging.Warn("Mirror is not discoverable", zap.Error(err))
		} else {
			s.mu.Lock()
			s.mdns = mdns
			s.mu.Unlock()
		}
	}

	go func() {
		select {
		case <-ctx.Done():
			_ = s.Close()
		case <-s.closing:
		}
	}()
	return nil
}

// Addr returns the address the server listens on, or nil before Start
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Viewers returns the number of connected websocket viewers
func (s *Server) Viewers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.viewers)
}

// Close withdraws the mDNS record, disconnects viewers and stops serving
func (s *Server) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closing)

		s.mu.Lock()
		srv, mdns := s.http, s.mdns
		s.mu.Unlock()

		if mdns != nil {
			mdns.Shutdown()
		}
		if srv != nil {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if shutdownErr := srv.Shutdown(ctx); shutdownErr != nil {
				err = fmt.Errorf("failed to stop mirror server: %w", shutdownErr)
			}
		}
		logging.Info("Mirror server stopped")
	})
	return err
}

var indexTemplate = template.Must(template.New("index").Parse(`<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Name}}</title>
<style>
body { background: #111; color: #aaa; font-family: monospace; text-align: center; }
img { image-rendering: pixelated; width: 720px; border: 2px solid #7D56F4; border-radius: 8px; }
</style>
</head>
<body>
<h1>{{.Name}}</h1>
<img id="screen" src="{{.Frame}}" alt="display">
<p id="status">connecting</p>
<p>version {{.Version}}</p>
<script>
const screen = document.getElementById("screen");
const status = document.getElementById("status");
const scheme = location.protocol === "https:" ? "wss://" : "ws://";
const ws = new WebSocket(scheme + location.host + "{{.Stream}}");
ws.binaryType = "blob";
ws.onopen = () => { status.textContent = "live"; };
ws.onclose = () => { status.textContent = "disconnected"; };
ws.onmessage = (e) => {
  const url = URL.createObjectURL(e.data);
  screen.onload = () => URL.revokeObjectURL(url);
  screen.src = url;
};
</script>
</body>
</html>
`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexTemplate.Execute(w, struct {
		Name, Version, Frame, Stream string
	}{s.cfg.Name, s.cfg.Version, framePath, streamPath})
	if err != nil {
		logging.Warn("Failed to render mirror index", zap.Error(err))
	}
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	data, frame, err := s.frames.encode(s.src)
	if err != nil {
		logging.Error("Failed to encode frame", zap.Error(err))
		http.Error(w, "failed to encode frame", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Frame", fmt.Sprint(frame))
	_, _ = w.Write(data)
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error
		logging.Warn("Mirror websocket upgrade failed",
			zap.String("remote_addr", r.RemoteAddr),
			zap.Error(err),
		)
		return
	}
	remote := r.RemoteAddr

	s.mu.Lock()
	s.viewers[conn] = remote
	s.mu.Unlock()
	logging.LogConnection(remote, "mirror_viewer_connected")

	defer func() {
		s.mu.Lock()
		delete(s.viewers, conn)
		s.mu.Unlock()
		_ = conn.Close()
		logging.LogConnection(remote, "mirror_viewer_closed")
	}()

	s.stream(conn, remote)
}

// stream pushes frames to conn until the viewer goes away or the server
// closes. Viewers never send data; reading only services control frames.
func (s *Server) stream(conn *websocket.Conn, remote string) {
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		conn.SetReadLimit(maxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			logging.LogWebSocketMessage(remote, "in", msgType, data)
		}
	}()

	frames := time.NewTicker(s.cfg.FrameInterval)
	defer frames.Stop()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	var (
		sent    uint64
		started bool
	)
	send := func() error {
		data, frame, err := s.frames.encode(s.src)
		if err != nil {
			return err
		}
		if started && frame == sent {
			return nil
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			return err
		}
		logging.LogWebSocketMessage(remote, "out", websocket.BinaryMessage, data)
		sent, started = frame, true
		return nil
	}

	if err := send(); err != nil {
		logging.Info("Mirror viewer dropped", zap.String("remote_addr", remote), zap.Error(err))
		return
	}
	for {
		select {
		case <-gone:
			return
		case <-s.closing:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "mirror stopped")
			_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-frames.C:
			if started && s.src.Frame() == sent {
				continue
			}
			if err := send(); err != nil {
				logging.Info("Mirror viewer dropped", zap.String("remote_addr", remote), zap.Error(err))
				return
			}
		}
	}
}

// frameCache keeps the PNG of the latest frame so viewers share one encode
type frameCache struct {
	mu    sync.Mutex
	valid bool
	frame uint64
	data  []byte
}

func (c *frameCache) encode(src Source) ([]byte, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && src.Frame() == c.frame {
		return c.data, c.frame, nil
	}

	img, frame := src.Snapshot()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, 0, fmt.Errorf("failed to encode frame %d: %w", frame, err)
	}
	c.valid, c.frame, c.data = true, frame, buf.Bytes()
	return c.data, c.frame, nil
}
