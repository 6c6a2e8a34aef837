package mirror

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseServiceEntry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantIP   string
		wantPort int
	}{
		{
			name: "ipv4 peer",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "granitica-bench"},
				HostName:      "bench.local.",
				Port:          8135,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.20")},
			},
			wantIP:   "192.168.1.20",
			wantPort: 8135,
		},
		{
			name: "ipv6 only peer",
			entry: &zeroconf.ServiceEntry{
				HostName: "desk.local.",
				Port:     8135,
				AddrIPv6: []net.IP{net.ParseIP("fe80::1")},
			},
			wantIP:   "fe80::1",
			wantPort: 8135,
		},
		{
			name: "both families prefer ipv4",
			entry: &zeroconf.ServiceEntry{
				HostName: "lab.local.",
				Port:     9000,
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.5")},
				AddrIPv6: []net.IP{net.ParseIP("fe80::2")},
			},
			wantIP:   "10.0.0.5",
			wantPort: 9000,
		},
		{
			name:    "no address",
			entry:   &zeroconf.ServiceEntry{HostName: "ghost.local.", Port: 8135},
			wantNil: true,
		},
		{
			name: "no port",
			entry: &zeroconf.ServiceEntry{
				HostName: "bench.local.",
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.20")},
			},
			wantNil: true,
		},
		{
			name:    "nil entry",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			peer := parseServiceEntry(tt.entry, now)

			if tt.wantNil {
				assert.Nil(t, peer)
				return
			}
			require.NotNil(t, peer)
			assert.Equal(t, tt.wantIP, peer.IP)
			assert.Equal(t, tt.wantPort, peer.Port)
			assert.Equal(t, tt.entry.HostName, peer.Hostname)
			assert.Equal(t, now, peer.DiscoveredAt)
		})
	}
}

func TestParseServiceEntry_Metadata(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "granitica-bench"},
		HostName:      "bench.local.",
		Port:          8135,
		AddrIPv4:      []net.IP{net.ParseIP("192.168.1.20")},
		Text:          []string{"version=v0.3.0", "path=/ws", "flag", "empty="},
	}

	peer := parseServiceEntry(entry, time.Now())
	require.NotNil(t, peer)

	assert.Equal(t, map[string]string{"version": "v0.3.0", "path": "/ws", "empty": ""}, peer.Metadata)
	assert.Equal(t, "v0.3.0", peer.GetMetadata("version"))
	assert.Empty(t, peer.GetMetadata("flag"))
}

func TestPeer_URLs(t *testing.T) {
	peer := &Peer{Instance: "granitica-bench", Hostname: "bench.local.", IP: "192.168.1.20", Port: 8135}

	assert.Equal(t, "http://192.168.1.20:8135", peer.BaseURL())
	assert.Equal(t, "ws://192.168.1.20:8135/ws", peer.StreamURL())
	assert.Equal(t, "granitica-bench (bench.local.) at 192.168.1.20:8135 version unknown", peer.String())

	v6 := &Peer{IP: "fe80::1", Port: 8135, Metadata: map[string]string{"version": "v1"}}
	assert.Equal(t, "ws://[fe80::1]:8135/ws", v6.StreamURL())
	assert.Contains(t, v6.String(), "version v1")
	assert.Empty(t, (&Peer{}).GetMetadata("version"))
}
