// Package config loads named selection profiles from a YAML file.
package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v2"

	"github.com/agleyzer/hlsselect/internal/attribute"
	"github.com/agleyzer/hlsselect/internal/selector"
)

// Config is the content of a profile file.
type Config struct {
	// Profiles maps a profile name to its constraints.
	Profiles map[string]Profile `yaml:"profiles"`
}

// Profile holds the constraints of one player profile. Unset fields impose
// no constraint.
type Profile struct {
	AudioGroup      *string `yaml:"audio-group"`
	AudioChannels   *uint32 `yaml:"audio-channels"`
	MaxBandwidth    *uint64 `yaml:"max-bandwidth"`
	Resolution      string  `yaml:"resolution"`
	SortByBandwidth bool    `yaml:"sort-by-bandwidth"`
	ExcludeIFrames  bool    `yaml:"exclude-iframes"`
}

// Load reads and validates a profile file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates profile YAML. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &c, nil
}

// Validate checks every profile.
func (c *Config) Validate() error {
	for _, name := range c.Names() {
		p := c.Profiles[name]
		if name == "" {
			return fmt.Errorf("profile name must not be empty")
		}
		if p.Resolution != "" {
			if _, err := attribute.ParseResolution(p.Resolution); err != nil {
				return fmt.Errorf("profile %q: %w", name, err)
			}
		}
	}
	return nil
}

// Names returns the profile names in sorted order.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Profiles))
	for name := range c.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Profile returns the named profile.
func (c *Config) Profile(name string) (Profile, error) {
	p, ok := c.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q", name)
	}
	return p, nil
}

// Options converts the profile into selector options.
func (p Profile) Options() (selector.Options, error) {
	o := selector.Options{
		AudioGroup:      p.AudioGroup,
		AudioChannels:   p.AudioChannels,
		MaxBandwidth:    p.MaxBandwidth,
		SortByBandwidth: p.SortByBandwidth,
		ExcludeIFrames:  p.ExcludeIFrames,
	}

	if p.Resolution != "" {
		r, err := attribute.ParseResolution(p.Resolution)
		if err != nil {
			return selector.Options{}, err
		}
		o.Resolution = &r
	}

	return o, nil
}
