package mirror

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/granitica/internal/logging"
)

const (
	// ServiceType is the mDNS service type mirror servers advertise
	ServiceType = "_granitica._tcp"

	// ServiceDomain is the mDNS domain
	ServiceDomain = "local."

	// DefaultBrowseTimeout is how long Browse listens for answers
	DefaultBrowseTimeout = 3 * time.Second
)

// Advertise registers a mirror instance on port. The returned server must
// be shut down to withdraw the record.
func Advertise(instance string, port int, txt []string) (*zeroconf.Server, error) {
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to advertise mirror: %w", err)
	}
	logging.Info("Advertising mirror",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
	)
	return server, nil
}

// Browse lists the mirror servers that answer within timeout. Peers are
// sorted by instance name.
func Browse(ctx context.Context, timeout time.Duration) ([]*Peer, error) {
	if timeout <= 0 {
		timeout = DefaultBrowseTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	var (
		mu    sync.Mutex
		peers []*Peer
		wg    sync.WaitGroup
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for entry := range entries {
			if peer := parseServiceEntry(entry, time.Now()); peer != nil {
				mu.Lock()
				peers = append(peers, peer)
				mu.Unlock()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mirrors: %w", err)
	}

	<-ctx.Done()
	// the resolver closes entries once it sees the cancellation
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	sort.Slice(peers, func(i, j int) bool { return peers[i].Instance < peers[j].Instance })
	logging.Debug("Mirror browse finished", zap.Int("peers", len(peers)))
	return peers, nil
}

// parseServiceEntry converts an answer into a Peer, or nil when the entry
// has no usable address
func parseServiceEntry(entry *zeroconf.ServiceEntry, now time.Time) *Peer {
	if entry == nil {
		return nil
	}

	var ip string
	switch {
	case len(entry.AddrIPv4) > 0:
		ip = entry.AddrIPv4[0].String()
	case len(entry.AddrIPv6) > 0:
		ip = entry.AddrIPv6[0].String()
	default:
		return nil
	}
	if entry.Port <= 0 {
		return nil
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		key, value, ok := strings.Cut(txt, "=")
		if !ok {
			continue
		}
		metadata[key] = value
	}

	return &Peer{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Metadata:     metadata,
		DiscoveredAt: now,
	}
}
