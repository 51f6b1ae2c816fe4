package bridge

import (
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"github.com/JustRahman/cross-chain-bridghe/internal/config"
)

// Registry holds the adapters assembled at startup, in registration order
type Registry struct {
	adapters []Adapter
	byName   map[string]Adapter
}

// NewRegistry validates and indexes the given adapters
func NewRegistry(adapters ...Adapter) (*Registry, error) {
	r := &Registry{byName: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		if a == nil {
			return nil, fmt.Errorf("nil adapter")
		}
		key := strings.ToLower(a.Name())
		if _, dup := r.byName[key]; dup {
			return nil, fmt.Errorf("duplicate adapter %q", a.Name())
		}
		r.byName[key] = a
		r.adapters = append(r.adapters, a)
	}
	return r, nil
}

// NewDefaultRegistry builds HTTP adapters for every enabled built-in profile
func NewDefaultRegistry(cfg config.Config) (*Registry, error) {
	opts := DefaultOptions()
	opts.HealthTimeout = cfg.HealthTimeout
	opts.EstimateOnUpstreamFailure = cfg.EstimateOnUpstreamFailure
	opts.RateLimit = rate.Limit(cfg.AdapterRateLimit)
	opts.RateBurst = cfg.AdapterRateBurst

	var adapters []Adapter
	for _, p := range DefaultProfiles() {
		if !cfg.BridgeEnabled(p.Protocol) {
			continue
		}
		p.APIURL = cfg.BridgeAPIURL(p.Protocol, p.APIURL)
		adapters = append(adapters, NewHTTPAdapter(p, opts))
	}
	if len(adapters) == 0 {
		return nil, fmt.Errorf("no bridges enabled")
	}
	return NewRegistry(adapters...)
}

// Adapters returns the adapters in registration order
func (r *Registry) Adapters() []Adapter {
	out := make([]Adapter, len(r.adapters))
	copy(out, r.adapters)
	return out
}

// Get looks an adapter up by name, case-insensitively
func (r *Registry) Get(name string) (Adapter, bool) {
	a, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return a, ok
}

// Names returns adapter names in registration order
func (r *Registry) Names() []string {
	names := make([]string, len(r.adapters))
	for i, a := range r.adapters {
		names[i] = a.Name()
	}
	return names
}

// Len returns the number of registered adapters
func (r *Registry) Len() int {
	return len(r.adapters)
}
