package command

import (
	"fmt"
	"path"
	"regexp"
	"slices"
	"strings"
	"time"

	"server-tempo/internal/permission"
	"server-tempo/internal/throttle"

	"github.com/bwmarrin/discordgo"
)

// Handler runs a command.
type Handler func(ctx *Context) error

// Completer produces autocomplete choices for the focused option.
type Completer func(ctx *Context, focused *discordgo.ApplicationCommandInteractionDataOption) ([]*discordgo.ApplicationCommandOptionChoice, error)

// DefaultCooldown applies when a Config leaves Cooldown nil.
var DefaultCooldown = throttle.Policy{Scope: throttle.ScopeMember, Usages: 1, Window: 2 * time.Second}

// NoCooldown disables throttling for a command.
var NoCooldown = &throttle.Policy{}

// Config is what a command module declares. It is turned into a Descriptor
// by New, which validates it.
type Config struct {
	Kind        Kind
	Name        string
	Description string
	Category    string

	// Level is a tier name. Empty means the lowest tier.
	Level             string
	CallerPermissions []string
	AgentPermissions  []string

	Disabled bool
	NSFW     bool
	Cooldown *throttle.Policy
	Aliases  []string

	// Shared lets anyone use a component, not only the user whose
	// interaction spawned the message it is attached to.
	Shared bool
	// Global deploys the command everywhere instead of the test guild only.
	Global bool

	Options []*discordgo.ApplicationCommandOption

	Run      Handler
	Complete Completer
}

// Descriptor is a validated, registered command or component.
type Descriptor struct {
	Name        string
	Kind        Kind
	Description string
	Category    string
	Origin      string

	Level             int
	CallerPermissions []string
	AgentPermissions  []string

	Enabled     bool
	NSFW        bool
	Cooldown    throttle.Policy
	Aliases     []string
	IsAlias     bool
	AliasTarget string
	InvokerOnly bool
	Global      bool

	Options []*discordgo.ApplicationCommandOption

	Run      Handler
	Complete Completer
}

// ConfigurationError reports a descriptor that cannot be registered.
type ConfigurationError struct {
	Identity string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	if e.Identity == "" {
		return "command: " + e.Reason
	}
	return fmt.Sprintf("command %q: %s", e.Identity, e.Reason)
}

var namePattern = regexp.MustCompile(`^[-_\p{Ll}\p{N}]{1,32}$`)

// New validates cfg against the permission model.
func New(cfg Config, m *permission.Model) (*Descriptor, error) {
	switch cfg.Kind {
	case ChatInput:
		return NewChatInput(cfg, m)
	case UserContext, MessageContext:
		return NewContextAction(cfg, m)
	case Button, SelectMenu, Modal:
		return NewComponent(cfg, m)
	case Autocomplete:
		return NewAutocomplete(cfg, m)
	default:
		return nil, &ConfigurationError{Identity: cfg.Name, Reason: fmt.Sprintf("unknown kind %d", cfg.Kind)}
	}
}

// NewChatInput builds a slash command.
func NewChatInput(cfg Config, m *permission.Model) (*Descriptor, error) {
	cfg.Kind = ChatInput
	if !namePattern.MatchString(cfg.Name) {
		return nil, &ConfigurationError{Identity: cfg.Name, Reason: "name must be 1-32 lowercase characters"}
	}
	for _, a := range cfg.Aliases {
		if !namePattern.MatchString(a) {
			return nil, &ConfigurationError{Identity: cfg.Name, Reason: fmt.Sprintf("alias %q must be 1-32 lowercase characters", a)}
		}
	}
	if cfg.Description == "" || len(cfg.Description) > 100 {
		return nil, &ConfigurationError{Identity: cfg.Name, Reason: "description must be 1-100 characters"}
	}
	return build(cfg, m)
}

// NewContextAction builds a user or message context menu entry.
func NewContextAction(cfg Config, m *permission.Model) (*Descriptor, error) {
	if cfg.Kind != UserContext && cfg.Kind != MessageContext {
		return nil, &ConfigurationError{Identity: cfg.Name, Reason: "context action must be a user or message context kind"}
	}
	if cfg.Name == "" || len(cfg.Name) > 32 {
		return nil, &ConfigurationError{Identity: cfg.Name, Reason: "name must be 1-32 characters"}
	}
	if len(cfg.Options) > 0 {
		return nil, &ConfigurationError{Identity: cfg.Name, Reason: "context actions take no options"}
	}
	return build(cfg, m)
}

// NewComponent builds a button, select menu or modal handler.
func NewComponent(cfg Config, m *permission.Model) (*Descriptor, error) {
	if cfg.Kind != Button && cfg.Kind != SelectMenu && cfg.Kind != Modal {
		return nil, &ConfigurationError{Identity: cfg.Name, Reason: "component must be a button, select menu or modal kind"}
	}
	if cfg.Name == "" || strings.Contains(cfg.Name, DynamicMarker) {
		return nil, &ConfigurationError{Identity: cfg.Name, Reason: "component id must be non-empty and free of " + DynamicMarker}
	}
	return build(cfg, m)
}

// NewAutocomplete builds a provider keyed by option name.
func NewAutocomplete(cfg Config, m *permission.Model) (*Descriptor, error) {
	cfg.Kind = Autocomplete
	if cfg.Name == "" {
		return nil, &ConfigurationError{Reason: "autocomplete provider needs an option name"}
	}
	if cfg.Complete == nil {
		return nil, &ConfigurationError{Identity: cfg.Name, Reason: "autocomplete provider has no completer"}
	}
	cfg.Cooldown = NoCooldown
	return build(cfg, m)
}

func build(cfg Config, m *permission.Model) (*Descriptor, error) {
	if m == nil {
		return nil, &ConfigurationError{Identity: cfg.Name, Reason: "no permission model"}
	}
	if cfg.Kind != Autocomplete && cfg.Run == nil {
		return nil, &ConfigurationError{Identity: cfg.Name, Reason: "missing callback"}
	}

	level := m.Lowest().Level
	if cfg.Level != "" {
		lvl, ok := m.Level(cfg.Level)
		if !ok {
			return nil, &ConfigurationError{Identity: cfg.Name, Reason: fmt.Sprintf("unknown permission level %q", cfg.Level)}
		}
		level = lvl
	}

	if err := permission.ValidateTokens(cfg.CallerPermissions); err != nil {
		return nil, &ConfigurationError{Identity: cfg.Name, Reason: "caller permissions: " + err.Error()}
	}
	if err := permission.ValidateTokens(cfg.AgentPermissions); err != nil {
		return nil, &ConfigurationError{Identity: cfg.Name, Reason: "agent permissions: " + err.Error()}
	}

	cooldown := DefaultCooldown
	if cfg.Cooldown != nil {
		cooldown = *cfg.Cooldown
	}
	if cooldown.Active() {
		scope, err := throttle.ParseScope(string(cooldown.Scope))
		if err != nil {
			return nil, &ConfigurationError{Identity: cfg.Name, Reason: err.Error()}
		}
		cooldown.Scope = scope
		if cooldown.Usages < 1 {
			return nil, &ConfigurationError{Identity: cfg.Name, Reason: "cooldown usages must be at least 1"}
		}
	}

	for _, a := range cfg.Aliases {
		if a == cfg.Name || a == "" {
			return nil, &ConfigurationError{Identity: cfg.Name, Reason: fmt.Sprintf("invalid alias %q", a)}
		}
	}

	return &Descriptor{
		Name:              cfg.Name,
		Kind:              cfg.Kind,
		Description:       cfg.Description,
		Category:          cfg.Category,
		Level:             level,
		CallerPermissions: slices.Clone(cfg.CallerPermissions),
		AgentPermissions:  slices.Clone(cfg.AgentPermissions),
		Enabled:           !cfg.Disabled,
		NSFW:              cfg.NSFW,
		Cooldown:          cooldown,
		Aliases:           slices.Clone(cfg.Aliases),
		InvokerOnly:       cfg.Kind.IsComponent() && !cfg.Shared,
		Global:            cfg.Global,
		Options:           cfg.Options,
		Run:               cfg.Run,
		Complete:          cfg.Complete,
	}, nil
}

// Effective is the name used for throttle keys and audit rows.
func (d *Descriptor) Effective() string {
	if d.IsAlias {
		return d.AliasTarget
	}
	return d.Name
}

// alias synthesizes the shadow descriptor registered under name.
func (d *Descriptor) alias(name string) *Descriptor {
	a := *d
	a.Name = name
	a.IsAlias = true
	a.AliasTarget = d.Name
	a.Aliases = nil
	return &a
}

// Definition is the API payload for command kinds, nil for everything else.
func (d *Descriptor) Definition() *discordgo.ApplicationCommand {
	if !d.Kind.IsAPICommand() {
		return nil
	}
	dm := false
	def := &discordgo.ApplicationCommand{
		Name:         d.Name,
		Type:         d.Kind.applicationCommandType(),
		DMPermission: &dm,
	}
	if d.Kind == ChatInput {
		def.Description = d.Description
		if d.IsAlias {
			def.Description = truncate(fmt.Sprintf("%s (alias for /%s)", d.Description, d.AliasTarget), 100)
		}
		def.Options = d.Options
	}
	if d.NSFW {
		nsfw := true
		def.NSFW = &nsfw
	}
	return def
}

// originParts splits "category/name" paths used by sources.
func originParts(origin string) (category, name string) {
	name = path.Base(origin)
	category = path.Dir(origin)
	if category == "." || category == "/" {
		category = ""
	}
	return category, name
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
