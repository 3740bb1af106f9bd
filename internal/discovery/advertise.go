package discovery

import (
	"github.com/grandcat/zeroconf"
	"github.com/rs/zerolog/log"
)

// StartAdvertising announces the server on the local network. The returned
// function withdraws the announcement.
func StartAdvertising(port int, host, version string) (func(), error) {
	instance := InstanceName(host)
	server, err := zeroconf.Register(
		instance,
		ServiceType,
		Domain,
		port,
		TXTRecords(version, "/api"),
		nil,
	)
	if err != nil {
		return nil, err
	}
	log.Info().Str("module", "discovery").Str("instance", instance).Int("port", port).Msg("mDNS advertising")
	return server.Shutdown, nil
}
