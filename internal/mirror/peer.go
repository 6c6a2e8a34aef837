package mirror

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Peer is a mirror server found on the network
type Peer struct {
	// Instance is the advertised instance name (e.g., "granitica-bench")
	Instance string

	// Hostname is the mDNS hostname (e.g., "bench.local.")
	Hostname string

	// IP is the preferred address, IPv4 when the peer has one
	IP string

	// Port is the HTTP port
	Port int

	// Metadata contains the TXT record key/value pairs
	// Common fields: "version", "path"
	Metadata map[string]string

	// DiscoveredAt is when the peer answered
	DiscoveredAt time.Time
}

// String returns a human-readable representation of the peer
func (p *Peer) String() string {
	version := p.GetMetadata("version")
	if version == "" {
		version = "unknown"
	}
	return fmt.Sprintf("%s (%s) at %s version %s", p.Instance, p.Hostname, p.hostPort(), version)
}

// BaseURL returns the HTTP base URL of the peer
func (p *Peer) BaseURL() string {
	return "http://" + p.hostPort()
}

// StreamURL returns the websocket URL frames are pushed on
func (p *Peer) StreamURL() string {
	return "ws://" + p.hostPort() + streamPath
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (p *Peer) GetMetadata(key string) string {
	if p.Metadata == nil {
		return ""
	}
	return p.Metadata[key]
}

func (p *Peer) hostPort() string {
	return net.JoinHostPort(p.IP, strconv.Itoa(p.Port))
}
