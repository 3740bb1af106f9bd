package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/grandcat/zeroconf"
)

// Server is one discovered Huddle instance.
type Server struct {
	Instance string
	Addr     string
	Version  string
}

// FindServers browses for Huddle instances until timeout and returns what
// answered.
func FindServers(ctx context.Context, timeout time.Duration) ([]Server, error) {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, err
	}

	entries := make(chan *zeroconf.ServiceEntry)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := resolver.Browse(ctx, ServiceType, Domain, entries); err != nil {
		return nil, err
	}

	var found []Server
	for {
		select {
		case <-ctx.Done():
			return found, nil
		case entry, ok := <-entries:
			if !ok {
				return found, nil
			}
			if entry == nil || len(entry.AddrIPv4) == 0 {
				continue
			}
			txt := ParseTXT(entry.Text)
			found = append(found, Server{
				Instance: entry.Instance,
				Addr:     fmt.Sprintf("%s:%d", entry.AddrIPv4[0], entry.Port),
				Version:  txt["version"],
			})
		}
	}
}
