package config

import (
	"os"
	"strings"
)

const apiURLSuffix = "_API_URL"

// bridgeAPIURLs collects <PROTOCOL>_API_URL overrides, keyed by lower-cased protocol.
func bridgeAPIURLs() map[string]string {
	urls := make(map[string]string)
	for _, kv := range os.Environ() {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" || !strings.HasSuffix(key, apiURLSuffix) {
			continue
		}
		protocol := strings.ToLower(strings.TrimSuffix(key, apiURLSuffix))
		if protocol == "" {
			continue
		}
		urls[protocol] = strings.TrimRight(value, "/")
	}
	return urls
}

// BridgeEnabled reports whether a protocol should be registered.
func (c Config) BridgeEnabled(protocol string) bool {
	if len(c.EnabledBridges) == 0 {
		return true
	}
	protocol = strings.ToLower(protocol)
	for _, b := range c.EnabledBridges {
		if b == protocol {
			return true
		}
	}
	return false
}

// BridgeAPIURL returns the configured base URL for a protocol, or fallback.
func (c Config) BridgeAPIURL(protocol, fallback string) string {
	if u, ok := c.BridgeAPIURLs[strings.ToLower(protocol)]; ok {
		return u
	}
	return fallback
}
