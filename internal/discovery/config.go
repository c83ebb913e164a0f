// Package discovery implements the Discovery Service: it loads
// a server catalog from JSON config, connects to each configured server,
// pulls its tool list, derives intent patterns, and keeps the registry's
// catalog in sync on a schedule.
package discovery

import (
	"encoding/json"
	"fmt"

	"github.com/toolgateway/gateway/internal/registry"
)

// ServerConfig is one entry of the JSON config file, in either its
// map-keyed-by-name form or its array form.
type ServerConfig struct {
	Name      string            `json:"name"`
	Transport string            `json:"transport"`
	Command   string            `json:"command,omitempty"`
	Args      []string          `json:"args,omitempty"`
	URL       string            `json:"url,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	Enabled   *bool             `json:"enabled,omitempty"`
}

// LoadConfig parses either JSON shape into a list of ServerConfig.
// Array form preserves its own element order; map form is
// sorted by name for determinism.
func LoadConfig(raw []byte) ([]ServerConfig, error) {
	var asArray []ServerConfig
	if err := json.Unmarshal(raw, &asArray); err == nil {
		for i := range asArray {
			if asArray[i].Name == "" {
				return nil, fmt.Errorf("discovery: array-form config entry %d missing name", i)
			}
		}
		return asArray, nil
	}

	var asMap map[string]ServerConfig
	if err := json.Unmarshal(raw, &asMap); err != nil {
		return nil, fmt.Errorf("discovery: config is neither a server array nor a server map: %w", err)
	}
	names := make([]string, 0, len(asMap))
	for name := range asMap {
		names = append(names, name)
	}
	sortStrings(names)
	out := make([]ServerConfig, 0, len(names))
	for _, name := range names {
		cfg := asMap[name]
		cfg.Name = name
		out = append(out, cfg)
	}
	return out, nil
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j] < s[j-1]; j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}

func (c ServerConfig) toRegistryServer() *registry.Server {
	enabled := true
	if c.Enabled != nil {
		enabled = *c.Enabled
	}
	return &registry.Server{
		ID:        c.Name,
		Name:      c.Name,
		Transport: registry.TransportKind(c.Transport),
		Command:   c.Command,
		Args:      c.Args,
		URL:       c.URL,
		Headers:   c.Headers,
		Enabled:   enabled,
		Status:    registry.StatusInactive,
	}
}
