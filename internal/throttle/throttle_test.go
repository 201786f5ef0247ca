package throttle

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

type fakeTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeScheduler struct {
	timers []*fakeTimer
}

func (s *fakeScheduler) After(d time.Duration, fn func()) Timer {
	t := &fakeTimer{d: d, fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// fire runs every timer that is still armed.
func (s *fakeScheduler) fire() {
	pending := s.timers
	s.timers = nil
	for _, t := range pending {
		if !t.stopped {
			t.stopped = true
			t.fn()
		}
	}
}

func newTestStore(opts ...Option) (*Store, *fakeClock, *fakeScheduler) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	sched := &fakeScheduler{}
	opts = append([]Option{WithClock(clock.Now), WithScheduler(sched.After)}, opts...)
	return New(opts...), clock, sched
}

// captureLog redirects the global logger at debug level for one test.
func captureLog(t *testing.T) *bytes.Buffer {
	var buf bytes.Buffer
	prev, prevLevel := log.Logger, zerolog.GlobalLevel()
	log.Logger = zerolog.New(&buf)
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	t.Cleanup(func() {
		log.Logger = prev
		zerolog.SetGlobalLevel(prevLevel)
	})
	return &buf
}

// logLines decodes one JSON object per line.
func logLines(c *qt.C, buf *bytes.Buffer) []map[string]any {
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var m map[string]any
		c.Assert(json.Unmarshal(line, &m), qt.IsNil)
		out = append(out, m)
	}
	return out
}

var u1 = Subject{UserID: "u1", ChannelID: "c1", GuildID: "g1"}

func TestSecondCallWithinWindowIsDenied(t *testing.T) {
	c := qt.New(t)
	store, clock, _ := newTestStore()
	p := Policy{Scope: ScopeUser, Usages: 1, Window: 2 * time.Second}

	c.Assert(store.CheckAndRecord(p, "ping", u1).Allowed, qt.IsTrue)

	clock.Advance(500 * time.Millisecond)
	res := store.CheckAndRecord(p, "ping", u1)
	c.Assert(res.Allowed, qt.IsFalse)
	c.Assert(res.RetryAfter, qt.Equals, 1500*time.Millisecond)
	c.Assert(res.RetryAfterSeconds(), qt.Equals, "1.50")
}

func TestAllowedAgainAfterWindow(t *testing.T) {
	c := qt.New(t)
	store, clock, _ := newTestStore()
	p := Policy{Scope: ScopeUser, Usages: 1, Window: 2 * time.Second}

	c.Assert(store.CheckAndRecord(p, "ping", u1).Allowed, qt.IsTrue)
	clock.Advance(500 * time.Millisecond)
	c.Assert(store.CheckAndRecord(p, "ping", u1).Allowed, qt.IsFalse)

	clock.Advance(1600 * time.Millisecond)
	c.Assert(store.CheckAndRecord(p, "ping", u1).Allowed, qt.IsTrue)
}

func TestNUsagesThenDenied(t *testing.T) {
	c := qt.New(t)

	for _, n := range []int{1, 2, 5} {
		store, clock, _ := newTestStore()
		p := Policy{Scope: ScopeMember, Usages: n, Window: 10 * time.Second}
		for i := 0; i < n; i++ {
			c.Assert(store.CheckAndRecord(p, "play", u1).Allowed, qt.IsTrue, qt.Commentf("n=%d call=%d", n, i))
			clock.Advance(time.Second)
		}
		res := store.CheckAndRecord(p, "play", u1)
		c.Assert(res.Allowed, qt.IsFalse, qt.Commentf("n=%d", n))
		c.Assert(res.Used, qt.Equals, n)
	}
}

func TestSlidingWindowReleasesOldestFirst(t *testing.T) {
	c := qt.New(t)
	store, clock, _ := newTestStore()
	p := Policy{Scope: ScopeUser, Usages: 2, Window: 10 * time.Second}

	c.Assert(store.CheckAndRecord(p, "queue", u1).Allowed, qt.IsTrue)
	clock.Advance(4 * time.Second)
	c.Assert(store.CheckAndRecord(p, "queue", u1).Allowed, qt.IsTrue)
	clock.Advance(4 * time.Second)

	res := store.CheckAndRecord(p, "queue", u1)
	c.Assert(res.Allowed, qt.IsFalse)
	c.Assert(res.RetryAfter, qt.Equals, 2*time.Second)

	clock.Advance(2 * time.Second)
	c.Assert(store.CheckAndRecord(p, "queue", u1).Allowed, qt.IsTrue)
	c.Assert(store.CheckAndRecord(p, "queue", u1).Allowed, qt.IsFalse)
}

func TestInactivePolicyNeverRecords(t *testing.T) {
	c := qt.New(t)
	store, _, _ := newTestStore()

	for i := 0; i < 5; i++ {
		c.Assert(store.CheckAndRecord(Policy{Scope: ScopeUser, Usages: 1}, "help", u1).Allowed, qt.IsTrue)
		c.Assert(store.CheckAndRecord(Policy{Scope: ScopeUser, Usages: 1, Window: -time.Second}, "help", u1).Allowed, qt.IsTrue)
	}
	c.Assert(store.Len(), qt.Equals, 0)
}

func TestScopesPartitionKeys(t *testing.T) {
	c := qt.New(t)

	otherGuild := Subject{UserID: "u1", ChannelID: "c9", GuildID: "g2"}
	otherUser := Subject{UserID: "u2", ChannelID: "c1", GuildID: "g1"}

	tests := []struct {
		scope      Scope
		otherGuild bool // second call from otherGuild allowed?
		otherUser  bool // second call from otherUser allowed?
	}{
		{ScopeUser, false, true},
		{ScopeMember, true, true},
		{ScopeChannel, true, false},
		{ScopeGuild, true, false},
		{ScopeGlobal, false, false},
	}

	for _, tt := range tests {
		c.Run(string(tt.scope), func(c *qt.C) {
			p := Policy{Scope: tt.scope, Usages: 1, Window: time.Minute}

			store, _, _ := newTestStore()
			c.Assert(store.CheckAndRecord(p, "cmd", u1).Allowed, qt.IsTrue)
			c.Assert(store.CheckAndRecord(p, "cmd", otherGuild).Allowed, qt.Equals, tt.otherGuild)

			store, _, _ = newTestStore()
			c.Assert(store.CheckAndRecord(p, "cmd", u1).Allowed, qt.IsTrue)
			c.Assert(store.CheckAndRecord(p, "cmd", otherUser).Allowed, qt.Equals, tt.otherUser)

			// other commands never share a window
			c.Assert(store.CheckAndRecord(p, "other", u1).Allowed, qt.IsTrue)
		})
	}
}

func TestKeyFormat(t *testing.T) {
	c := qt.New(t)

	c.Assert(Key(Policy{Scope: ScopeMember}, "skip", u1), qt.Equals, "member:u1:g1:skip")
	c.Assert(Key(Policy{Scope: ScopeUser}, "skip", u1), qt.Equals, "user:u1:skip")
	c.Assert(Key(Policy{Scope: ScopeChannel}, "skip", u1), qt.Equals, "channel:c1:skip")
	c.Assert(Key(Policy{Scope: ScopeGuild}, "skip", u1), qt.Equals, "guild:g1:skip")
	c.Assert(Key(Policy{Scope: ScopeGlobal}, "skip", u1), qt.Equals, "global:skip")
}

func TestCleanupDeletesExpiredEntry(t *testing.T) {
	c := qt.New(t)
	store, clock, sched := newTestStore()
	p := Policy{Scope: ScopeUser, Usages: 3, Window: 2 * time.Second}

	store.CheckAndRecord(p, "ping", u1)
	clock.Advance(time.Second)
	store.CheckAndRecord(p, "ping", u1)
	c.Assert(store.Len(), qt.Equals, 1)

	// only the timer armed by the latest usage is still live
	live := 0
	for _, tm := range sched.timers {
		if !tm.stopped {
			live++
			c.Assert(tm.d, qt.Equals, 2*time.Second)
		}
	}
	c.Assert(live, qt.Equals, 1)

	clock.Advance(2 * time.Second)
	sched.fire()
	c.Assert(store.Len(), qt.Equals, 0)
}

func TestCleanupReschedulesWhenUsageIsStillLive(t *testing.T) {
	c := qt.New(t)
	store, clock, sched := newTestStore()
	p := Policy{Scope: ScopeUser, Usages: 3, Window: 2 * time.Second}

	store.CheckAndRecord(p, "ping", u1)
	clock.Advance(time.Second)
	sched.fire()

	c.Assert(store.Len(), qt.Equals, 1)
	c.Assert(sched.timers, qt.HasLen, 1)
	c.Assert(sched.timers[0].d, qt.Equals, time.Second)

	clock.Advance(time.Second)
	sched.fire()
	c.Assert(store.Len(), qt.Equals, 0)
}

func TestConcurrentCallsRecordAtomically(t *testing.T) {
	c := qt.New(t)
	store := New()
	defer store.Close()
	p := Policy{Scope: ScopeUser, Usages: 5, Window: time.Minute}

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if store.CheckAndRecord(p, "play", u1).Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	c.Assert(allowed, qt.Equals, 5)
}

func TestForgetAndClose(t *testing.T) {
	c := qt.New(t)
	store, _, _ := newTestStore()
	p := Policy{Scope: ScopeUser, Usages: 1, Window: time.Minute}

	store.CheckAndRecord(p, "play", u1)
	store.CheckAndRecord(p, "skip", u1)
	store.Forget("play")
	c.Assert(store.Len(), qt.Equals, 1)
	c.Assert(store.CheckAndRecord(p, "play", u1).Allowed, qt.IsTrue)

	store.Close()
	c.Assert(store.Len(), qt.Equals, 0)
}

func TestDebugTracesDecisions(t *testing.T) {
	c := qt.New(t)
	buf := captureLog(t)
	store, clock, sched := newTestStore(WithDebug(true))
	p := Policy{Scope: ScopeUser, Usages: 1, Window: 2 * time.Second}

	store.CheckAndRecord(p, "ping", u1)
	store.CheckAndRecord(p, "ping", u1)
	clock.Advance(2 * time.Second)
	sched.fire()

	lines := logLines(c, buf)
	c.Assert(lines, qt.HasLen, 3)
	c.Assert(lines[0]["message"], qt.Equals, "Throttle check")
	c.Assert(lines[0]["key"], qt.Equals, "user:u1:ping")
	c.Assert(lines[0]["allowed"], qt.Equals, true)
	c.Assert(lines[1]["allowed"], qt.Equals, false)
	c.Assert(lines[1]["used"], qt.Equals, 1.0)
	c.Assert(lines[2]["message"], qt.Equals, "Throttle entry expired")
}

func TestNoTraceWithoutDebug(t *testing.T) {
	c := qt.New(t)
	buf := captureLog(t)
	store, _, _ := newTestStore()

	store.CheckAndRecord(Policy{Scope: ScopeUser, Usages: 1, Window: time.Second}, "ping", u1)
	c.Assert(buf.Len(), qt.Equals, 0)
}

func TestParseScope(t *testing.T) {
	c := qt.New(t)

	sc, err := ParseScope("Guild")
	c.Assert(err, qt.IsNil)
	c.Assert(sc, qt.Equals, ScopeGuild)

	sc, err = ParseScope("")
	c.Assert(err, qt.IsNil)
	c.Assert(sc, qt.Equals, ScopeMember)

	_, err = ParseScope("planet")
	c.Assert(err, qt.ErrorMatches, `unknown cooldown scope "planet"`)
}
