package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Seed lists registrations applied at startup when they are absent.
//
//	destinations:
//	  - key: team
//	    grouping_label: Team
//	    display_label: uploads
//	    endpoint_url: ${SLACK_WEBHOOK_URL}
//	channels:
//	  - destination: team
//	    external_handle: "@GoogleDevelopers"
type Seed struct {
	Destinations []SeedDestination `yaml:"destinations"`
	Channels     []SeedChannel     `yaml:"channels"`
}

// SeedDestination is a destination entry. Key is only used to reference it
// from channel entries and is not stored.
type SeedDestination struct {
	Key           string `yaml:"key"`
	GroupingLabel string `yaml:"grouping_label"`
	DisplayLabel  string `yaml:"display_label"`
	EndpointURL   string `yaml:"endpoint_url"`
}

// SeedChannel is a channel entry referencing a destination key.
type SeedChannel struct {
	Destination    string `yaml:"destination"`
	ExternalHandle string `yaml:"external_handle"`
}

// ${VAR} または ${VAR:-default}
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnv substitutes ${VAR} and ${VAR:-default}. Unset variables without
// a default are an error so that webhook secrets are never stored as literals.
func expandEnv(s string) (string, error) {
	var firstErr error
	out := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}
		m := envVarPattern.FindStringSubmatch(match)
		if v, ok := os.LookupEnv(m[1]); ok {
			return v
		}
		if m[2] != "" {
			return m[3]
		}
		firstErr = fmt.Errorf("environment variable %q is not set", m[1])
		return match
	})
	if firstErr != nil {
		return "", firstErr
	}
	return out, nil
}

// LoadSeed reads and parses a seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator supplied path
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed parses seed YAML, expands environment references in endpoint
// URLs and checks that keys are unique and every channel references one.
func ParseSeed(data []byte) (*Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse seed YAML: %w", err)
	}

	keys := make(map[string]bool, len(s.Destinations))
	for i := range s.Destinations {
		d := &s.Destinations[i]
		d.Key = strings.TrimSpace(d.Key)
		if d.Key == "" {
			return nil, fmt.Errorf("destinations[%d]: key is required", i)
		}
		if keys[d.Key] {
			return nil, fmt.Errorf("destinations[%d]: duplicate key %q", i, d.Key)
		}
		keys[d.Key] = true

		url, err := expandEnv(d.EndpointURL)
		if err != nil {
			return nil, fmt.Errorf("destinations[%d] (%s): %w", i, d.Key, err)
		}
		d.EndpointURL = url
	}

	for i, c := range s.Channels {
		if !keys[strings.TrimSpace(c.Destination)] {
			return nil, fmt.Errorf("channels[%d]: unknown destination %q", i, c.Destination)
		}
		if strings.TrimSpace(c.ExternalHandle) == "" {
			return nil, fmt.Errorf("channels[%d]: external_handle is required", i)
		}
	}

	return &s, nil
}
