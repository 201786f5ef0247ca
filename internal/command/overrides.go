package command

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"server-tempo/internal/throttle"

	"gopkg.in/yaml.v3"
)

// Override adjusts a command without touching its code. Unset fields keep
// the value the command declares.
type Override struct {
	Enabled  *bool             `yaml:"enabled"`
	Level    *string           `yaml:"level"`
	NSFW     *bool             `yaml:"nsfw"`
	Cooldown *CooldownOverride `yaml:"cooldown"`
}

// CooldownOverride is the YAML form of a throttle.Policy.
type CooldownOverride struct {
	Scope   string  `yaml:"scope"`
	Usages  int     `yaml:"usages"`
	Seconds float64 `yaml:"seconds"`
}

// Overrides is keyed by command identity.
type Overrides map[string]Override

func (o Override) apply(cfg *Config) error {
	if o.Enabled != nil {
		cfg.Disabled = !*o.Enabled
	}
	if o.Level != nil {
		cfg.Level = *o.Level
	}
	if o.NSFW != nil {
		cfg.NSFW = *o.NSFW
	}
	if o.Cooldown != nil {
		scope, err := throttle.ParseScope(o.Cooldown.Scope)
		if err != nil {
			return err
		}
		cfg.Cooldown = &throttle.Policy{
			Scope:  scope,
			Usages: o.Cooldown.Usages,
			Window: time.Duration(o.Cooldown.Seconds * float64(time.Second)),
		}
	}
	return nil
}

// OverrideFile returns a loader reading path on every call. A missing file
// yields no overrides.
func OverrideFile(path string) func() (Overrides, error) {
	return func() (Overrides, error) {
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return ParseOverrides(data)
	}
}

// ParseOverrides decodes the YAML document:
//
//	commands:
//	  play:
//	    cooldown: {scope: guild, usages: 3, seconds: 10}
//	  eval:
//	    enabled: false
func ParseOverrides(data []byte) (Overrides, error) {
	var doc struct {
		Commands Overrides `yaml:"commands"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse overrides: %w", err)
	}
	return doc.Commands, nil
}
