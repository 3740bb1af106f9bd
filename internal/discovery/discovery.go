// Package discovery announces and finds Huddle servers on the local
// network over mDNS.
package discovery

import (
	"fmt"
	"os"
	"strings"
)

const (
	ServiceType = "_huddle._tcp"
	Domain      = "local."
)

// InstanceName is "Huddle-<host>", trimmed to the DNS label limit.
func InstanceName(host string) string {
	if host == "" {
		host, _ = os.Hostname()
	}
	host = strings.ReplaceAll(strings.TrimSpace(host), ".", "-")
	if host == "" {
		host = "unknown"
	}
	name := "Huddle-" + host
	if len(name) > 63 {
		name = name[:63]
	}
	return name
}

// TXTRecords describes the server to browsers of the service.
func TXTRecords(version string, apiPath string) []string {
	return []string{
		fmt.Sprintf("version=%s", version),
		fmt.Sprintf("api=%s", apiPath),
	}
}

// ParseTXT reads key=value pairs, ignoring malformed entries.
func ParseTXT(txt []string) map[string]string {
	out := make(map[string]string, len(txt))
	for _, kv := range txt {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
