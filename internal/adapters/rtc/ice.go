package rtc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dkeye/Huddle/internal/config"
	"github.com/pion/stun/v3"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

var ErrInvalidICEServer = errors.New("invalid ice server")

// DefaultICEServers is used when nothing is configured.
func DefaultICEServers() []webrtc.ICEServer {
	return []webrtc.ICEServer{
		{
			URLs: []string{"stun:stun.l.google.com:19302"},
		},
	}
}

// ICEServers turns configured STUN/TURN entries into the list browsers get
// in the connected frame. Every URL must parse, and TURN entries need
// credentials.
func ICEServers(entries []config.ICEServerConfig) ([]webrtc.ICEServer, error) {
	if len(entries) == 0 {
		return DefaultICEServers(), nil
	}
	servers := make([]webrtc.ICEServer, 0, len(entries))
	for i, entry := range entries {
		urls := make([]string, 0, len(entry.URLs))
		for _, raw := range entry.URLs {
			raw = strings.TrimSpace(raw)
			if raw == "" {
				continue
			}
			uri, err := stun.ParseURI(raw)
			if err != nil {
				return nil, fmt.Errorf("%w: entry %d: %q: %w", ErrInvalidICEServer, i, raw, err)
			}
			if isTURN(uri) && (entry.Username == "" || entry.Credential == "") {
				return nil, fmt.Errorf("%w: entry %d: %q needs username and credential", ErrInvalidICEServer, i, raw)
			}
			urls = append(urls, raw)
		}
		if len(urls) == 0 {
			log.Warn().Str("module", "rtc").Int("entry", i).Msg("ice server without urls skipped")
			continue
		}
		server := webrtc.ICEServer{URLs: urls}
		if entry.Username != "" {
			server.Username = entry.Username
		}
		if entry.Credential != "" {
			server.Credential = entry.Credential
		}
		servers = append(servers, server)
	}
	log.Info().Str("module", "rtc").Int("count", len(servers)).Msg("ice servers configured")
	return servers, nil
}

func isTURN(uri *stun.URI) bool {
	return uri.Scheme == stun.SchemeTypeTURN || uri.Scheme == stun.SchemeTypeTURNS
}
