package command

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"server-tempo/internal/permission"

	"github.com/rs/zerolog/log"
)

// Source yields one descriptor config. Origin is "category/name"; either
// part fills in the Config when left empty.
type Source struct {
	Origin string
	Build  func() Config
}

type table map[Namespace]map[string]*Descriptor

func newTable() table {
	t := make(table, len(Priority))
	for _, ns := range Priority {
		t[ns] = make(map[string]*Descriptor)
	}
	return t
}

// Registry maps identities to descriptors, one table per namespace.
type Registry struct {
	mu        sync.RWMutex
	model     *permission.Model
	tables    table
	sources   map[string]Source
	overrides func() (Overrides, error)
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithOverrides installs an override loader consulted on every Load and Reload.
func WithOverrides(load func() (Overrides, error)) RegistryOption {
	return func(r *Registry) { r.overrides = load }
}

// NewRegistry returns an empty registry validating against m.
func NewRegistry(m *permission.Model, opts ...RegistryOption) *Registry {
	r := &Registry{
		model:   m,
		tables:  newTable(),
		sources: make(map[string]Source),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Permissions is the model descriptors are validated against.
func (r *Registry) Permissions() *permission.Model { return r.model }

// Register inserts d and one shadow descriptor per alias, replacing any entry
// with the same identity.
func (r *Registry) Register(d *Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	insert(r.tables, d)
}

func insert(t table, d *Descriptor) {
	ns := d.Kind.Namespace()
	if old, ok := t[ns][d.Name]; ok && !old.IsAlias {
		removeAliases(t, old)
	}
	t[ns][d.Name] = d
	if d.IsAlias {
		return
	}
	for _, name := range d.Aliases {
		t[ns][name] = d.alias(name)
	}
}

func removeAliases(t table, d *Descriptor) {
	ns := d.Kind.Namespace()
	for _, name := range d.Aliases {
		if a, ok := t[ns][name]; ok && a.IsAlias && a.AliasTarget == d.Name {
			delete(t[ns], name)
		}
	}
}

// Resolve looks identity up in the given namespaces, or in every namespace
// when none are given, in Priority order.
func (r *Registry) Resolve(identity string, namespaces ...Namespace) (*Descriptor, bool) {
	if len(namespaces) == 0 {
		namespaces = Priority
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, ns := range ordered(namespaces) {
		if d, ok := r.tables[ns][identity]; ok {
			return d, true
		}
	}
	return nil, false
}

// ordered keeps the caller's subset but walks it in Priority order.
func ordered(namespaces []Namespace) []Namespace {
	out := make([]Namespace, 0, len(namespaces))
	for _, p := range Priority {
		for _, ns := range namespaces {
			if ns == p {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// Unregister removes identity from the first namespace holding it. Removing
// a base descriptor also removes its aliases. Absent identities are ignored.
func (r *Registry) Unregister(identity string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ns := range Priority {
		d, ok := r.tables[ns][identity]
		if !ok {
			continue
		}
		delete(r.tables[ns], identity)
		if !d.IsAlias {
			removeAliases(r.tables, d)
			delete(r.sources, sourceKey(ns, identity))
		}
		return true
	}
	return false
}

// Load builds a descriptor from src, registers it and remembers src so the
// descriptor can be reloaded later. Nothing is inserted on error.
func (r *Registry) Load(src Source) (*Descriptor, error) {
	ov, err := r.loadOverrides()
	if err != nil {
		return nil, err
	}
	d, err := r.build(src, ov)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	insert(r.tables, d)
	r.sources[sourceKey(d.Kind.Namespace(), d.Name)] = src
	return d, nil
}

// LoadAll loads every source and collects the failures. Sources that fail are
// skipped; the rest are registered.
func (r *Registry) LoadAll(sources []Source) []error {
	var errs []error
	for _, src := range sources {
		if _, err := r.Load(src); err != nil {
			log.Error().Err(err).Str("origin", src.Origin).Msg("Failed to load command")
			errs = append(errs, err)
		}
	}
	return errs
}

// Reload rebuilds identity from its source and swaps it in. An alias reloads
// its target. The old entry stays in place if the rebuild fails.
func (r *Registry) Reload(identity string) (*Descriptor, error) {
	r.mu.RLock()
	var (
		src   Source
		found bool
	)
	for _, ns := range Priority {
		d, ok := r.tables[ns][identity]
		if !ok {
			continue
		}
		if d.IsAlias {
			identity = d.AliasTarget
		}
		src, found = r.sources[sourceKey(ns, identity)]
		break
	}
	r.mu.RUnlock()

	if !found {
		return nil, fmt.Errorf("no source registered for %q", identity)
	}

	ov, err := r.loadOverrides()
	if err != nil {
		return nil, err
	}
	d, err := r.build(src, ov)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	ns := d.Kind.Namespace()
	if old, ok := r.tables[ns][identity]; ok {
		removeAliases(r.tables, old)
		delete(r.tables[ns], identity)
	}
	delete(r.sources, sourceKey(ns, identity))
	insert(r.tables, d)
	r.sources[sourceKey(ns, d.Name)] = src
	return d, nil
}

// ReloadAll rebuilds every known source into a fresh table and swaps it in
// one step. If any source fails the current table is kept.
func (r *Registry) ReloadAll() (int, error) {
	r.mu.RLock()
	sources := make([]Source, 0, len(r.sources))
	for _, src := range r.sources {
		sources = append(sources, src)
	}
	r.mu.RUnlock()

	ov, err := r.loadOverrides()
	if err != nil {
		return 0, err
	}

	next := newTable()
	nextSources := make(map[string]Source, len(sources))
	for _, src := range sources {
		d, err := r.build(src, ov)
		if err != nil {
			return 0, err
		}
		insert(next, d)
		nextSources[sourceKey(d.Kind.Namespace(), d.Name)] = src
	}

	r.mu.Lock()
	// descriptors registered without a source survive the swap
	for ns, entries := range r.tables {
		for name, d := range entries {
			if d.IsAlias {
				continue
			}
			if _, ok := r.sources[sourceKey(ns, name)]; !ok {
				if _, taken := next[ns][name]; !taken {
					insert(next, d)
				}
			}
		}
	}
	r.tables = next
	r.sources = nextSources
	r.mu.Unlock()

	return len(sources), nil
}

func (r *Registry) build(src Source, ov Overrides) (*Descriptor, error) {
	if src.Build == nil {
		return nil, &ConfigurationError{Identity: src.Origin, Reason: "source has no builder"}
	}
	cfg := src.Build()
	category, name := originParts(src.Origin)
	if cfg.Name == "" {
		cfg.Name = name
	}
	if cfg.Category == "" {
		cfg.Category = category
	}
	if o, ok := ov[cfg.Name]; ok {
		if err := o.apply(&cfg); err != nil {
			return nil, &ConfigurationError{Identity: cfg.Name, Reason: "override: " + err.Error()}
		}
	}
	d, err := New(cfg, r.model)
	if err != nil {
		return nil, err
	}
	d.Origin = src.Origin
	return d, nil
}

func (r *Registry) loadOverrides() (Overrides, error) {
	if r.overrides == nil {
		return nil, nil
	}
	ov, err := r.overrides()
	if err != nil {
		return nil, fmt.Errorf("load command overrides: %w", err)
	}
	return ov, nil
}

func sourceKey(ns Namespace, name string) string {
	return ns.String() + ":" + name
}

// All returns every descriptor in a namespace, aliases included, sorted by name.
func (r *Registry) All(ns Namespace) []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Descriptor, 0, len(r.tables[ns]))
	for _, d := range r.tables[ns] {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Commands returns chat input and context descriptors without aliases.
func (r *Registry) Commands() []*Descriptor {
	var out []*Descriptor
	for _, ns := range []Namespace{Commands, ContextActions} {
		for _, d := range r.All(ns) {
			if !d.IsAlias {
				out = append(out, d)
			}
		}
	}
	return out
}

// Categories groups chat input commands by category, sorted.
func (r *Registry) Categories() map[string][]*Descriptor {
	out := make(map[string][]*Descriptor)
	for _, d := range r.All(Commands) {
		if d.IsAlias {
			continue
		}
		cat := d.Category
		if cat == "" {
			cat = "other"
		}
		out[cat] = append(out[cat], d)
	}
	return out
}

// Search returns command names containing query, case-insensitively.
func (r *Registry) Search(query string) []*Descriptor {
	query = strings.ToLower(strings.TrimSpace(query))
	var out []*Descriptor
	for _, d := range r.All(Commands) {
		if query == "" || strings.Contains(d.Name, query) {
			out = append(out, d)
		}
	}
	return out
}

// Len is the number of entries across all namespaces, aliases included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, entries := range r.tables {
		n += len(entries)
	}
	return n
}
