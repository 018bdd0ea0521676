package net

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/mdns"
	"go.uber.org/zap"
)

// ServiceType is the mDNS service under which a board announces its feed.
const ServiceType = "_stepboard._tcp"

// Advertise announces the feed on port to the local network. Call Shutdown on
// the returned server to withdraw it.
func Advertise(port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}

	service, err := mdns.NewMDNSService(host, ServiceType, "", "", port, nil,
		[]string{"StepBoard", "path=/feed"})
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	return server, nil
}

// Browse looks for advertised feeds for up to timeout and calls found with
// the websocket URL of each one. It blocks until the query ends.
func Browse(timeout time.Duration, log *zap.Logger, found func(url string)) error {
	if log == nil {
		log = zap.NewNop()
	}
	entries := make(chan *mdns.ServiceEntry, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for e := range entries {
			if url, ok := FeedURL(e); ok {
				log.Debug("feed found", zap.String("name", e.Name), zap.String("url", url))
				found(url)
			}
		}
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	err := mdns.Query(params)
	close(entries)
	<-done
	if err != nil {
		return fmt.Errorf("mDNS browse: %w", err)
	}
	return nil
}

// FeedURL builds the websocket URL for a discovered service entry.
func FeedURL(e *mdns.ServiceEntry) (string, bool) {
	if e == nil || e.AddrV4 == nil || e.Port == 0 {
		return "", false
	}
	return fmt.Sprintf("ws://%s:%d/feed", e.AddrV4.String(), e.Port), true
}
