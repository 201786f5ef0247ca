// Package throttle keeps sliding-window usage history for command cooldowns.
// State lives in memory only and is dropped on restart.
package throttle

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Scope selects which identifiers participate in a throttle key.
type Scope string

const (
	ScopeUser    Scope = "user"    // per actor, across guilds
	ScopeMember  Scope = "member"  // per actor within one guild
	ScopeChannel Scope = "channel" // shared by a channel
	ScopeGuild   Scope = "guild"   // shared by a guild
	ScopeGlobal  Scope = "global"  // shared by everyone
)

// ParseScope accepts the scope names used in configuration.
func ParseScope(s string) (Scope, error) {
	switch sc := Scope(strings.ToLower(strings.TrimSpace(s))); sc {
	case ScopeUser, ScopeMember, ScopeChannel, ScopeGuild, ScopeGlobal:
		return sc, nil
	case "":
		return ScopeMember, nil
	default:
		return "", fmt.Errorf("unknown cooldown scope %q", s)
	}
}

// Policy is a command's cooldown. A non-positive Window disables it.
type Policy struct {
	Scope  Scope         `yaml:"scope" json:"scope"`
	Usages int           `yaml:"usages" json:"usages"`
	Window time.Duration `yaml:"window" json:"window"`
}

// Active reports whether the policy restricts anything.
func (p Policy) Active() bool { return p.Window > 0 }

func (p Policy) usages() int {
	if p.Usages < 1 {
		return 1
	}
	return p.Usages
}

// Subject carries the ids a key may be built from.
type Subject struct {
	UserID    string
	ChannelID string
	GuildID   string
}

// Key builds the composite entry key for a policy, command and subject.
func Key(p Policy, command string, s Subject) string {
	switch p.Scope {
	case ScopeMember:
		return "member:" + s.UserID + ":" + s.GuildID + ":" + command
	case ScopeChannel:
		return "channel:" + s.ChannelID + ":" + command
	case ScopeGuild:
		return "guild:" + s.GuildID + ":" + command
	case ScopeGlobal:
		return "global:" + command
	default:
		return "user:" + s.UserID + ":" + command
	}
}

// Result is the outcome of CheckAndRecord.
type Result struct {
	Allowed    bool
	RetryAfter time.Duration
	Key        string
	Used       int
}

// RetryAfterSeconds formats the remaining wait the way replies show it.
func (r Result) RetryAfterSeconds() string {
	return fmt.Sprintf("%.2f", r.RetryAfter.Seconds())
}

// Timer is the part of *time.Timer the store needs.
type Timer interface {
	Stop() bool
}

type entry struct {
	stamps []time.Time
	window time.Duration
	timer  Timer
}

// Store maps keys to usage timestamps.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	now     func() time.Time
	after   func(time.Duration, func()) Timer
	debug   bool
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithScheduler replaces time.AfterFunc for cleanup timers.
func WithScheduler(after func(time.Duration, func()) Timer) Option {
	return func(s *Store) { s.after = after }
}

// WithDebug logs every decision at debug level.
func WithDebug(on bool) Option {
	return func(s *Store) { s.debug = on }
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		now:     time.Now,
		after: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CheckAndRecord evaluates the window for key and, when allowed, records a
// usage. The read and the write happen under one lock.
func (s *Store) CheckAndRecord(p Policy, command string, sub Subject) Result {
	if !p.Active() {
		return Result{Allowed: true}
	}

	key := Key(p, command, sub)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	e, ok := s.entries[key]
	if !ok {
		e = &entry{stamps: []time.Time{now}, window: p.Window}
		s.entries[key] = e
		s.schedule(key, e, p.Window)
		s.trace(key, true, 1, 0)
		return Result{Allowed: true, Key: key, Used: 1}
	}

	live := e.stamps[:0]
	for _, ts := range e.stamps {
		if now.Before(ts.Add(p.Window)) {
			live = append(live, ts)
		}
	}
	e.stamps = live
	e.window = p.Window

	if len(live) >= p.usages() {
		retry := live[0].Add(p.Window).Sub(now)
		s.trace(key, false, len(live), retry)
		return Result{Allowed: false, RetryAfter: retry, Key: key, Used: len(live)}
	}

	e.stamps = append(e.stamps, now)
	s.schedule(key, e, p.Window)
	s.trace(key, true, len(e.stamps), 0)
	return Result{Allowed: true, Key: key, Used: len(e.stamps)}
}

// schedule (re)arms the cleanup timer so it fires once the newest usage
// leaves the window. Caller holds s.mu.
func (s *Store) schedule(key string, e *entry, d time.Duration) {
	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = s.after(d, func() { s.expire(key, e) })
}

func (s *Store) expire(key string, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.entries[key]; !ok || cur != e {
		return
	}
	last := e.stamps[len(e.stamps)-1]
	if remaining := last.Add(e.window).Sub(s.now()); remaining > 0 {
		s.schedule(key, e, remaining)
		return
	}
	delete(s.entries, key)
	if s.debug {
		log.Debug().Str("key", key).Msg("Throttle entry expired")
	}
}

func (s *Store) trace(key string, allowed bool, used int, retry time.Duration) {
	if !s.debug {
		return
	}
	log.Debug().
		Str("key", key).
		Bool("allowed", allowed).
		Int("used", used).
		Dur("retry_after", retry).
		Msg("Throttle check")
}

// Len is the number of live entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Forget drops every entry whose key ends with the given command, e.g. after
// the command was reloaded with a different policy.
func (s *Store) Forget(command string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		if strings.HasSuffix(key, ":"+command) {
			if e.timer != nil {
				e.timer.Stop()
			}
			delete(s.entries, key)
		}
	}
}

// Close stops all cleanup timers and clears the store.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, e := range s.entries {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(s.entries, key)
	}
}
