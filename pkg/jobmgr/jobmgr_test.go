package jobmgr

import (
	"context"
	"errors"
	"sync"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/pajbot/testhelper"
)

type recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *recorder) report(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, s)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

func TestStartAsyncReportsLifecycle(t *testing.T) {
	c := qt.New(t)
	rec := &recorder{}
	m := NewManager(rec.report)

	c.Assert(m.StartAsync(context.Background(), "deploy:global", func(ctx context.Context) error { return nil }), qt.IsNil)
	m.Wait()
	c.Assert(m.StartAsync(context.Background(), "deploy:1", func(ctx context.Context) error { return errors.New("HTTP 400") }), qt.IsNil)
	m.Wait()

	testhelper.AssertStringSlicesEqual(t, []string{
		"running:deploy:global", "done:deploy:global",
		"running:deploy:1", "error:deploy:1:HTTP 400",
	}, rec.all())
	c.Assert(m.Status(), qt.Equals, "No jobs are running.")
}

func TestDuplicateJobRejected(t *testing.T) {
	c := qt.New(t)
	m := NewManager(nil)
	release := make(chan struct{})

	c.Assert(m.StartAsync(context.Background(), "deploy:global", func(ctx context.Context) error {
		<-release
		return nil
	}), qt.IsNil)

	err := m.StartAsync(context.Background(), "deploy:global", func(ctx context.Context) error { return nil })
	c.Assert(errors.Is(err, ErrRunning), qt.IsTrue)
	c.Assert(m.List(), qt.DeepEquals, []string{"deploy:global"})
	c.Assert(m.Status(), qt.Equals, "Running jobs: deploy:global")

	close(release)
	m.Wait()
	c.Assert(m.List(), qt.HasLen, 0)
}

func TestStopCancelsJob(t *testing.T) {
	c := qt.New(t)
	m := NewManager(nil)
	started := make(chan struct{})
	var got error

	c.Assert(m.StartAsync(context.Background(), "sweep", func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		got = ctx.Err()
		return got
	}), qt.IsNil)
	<-started

	c.Assert(m.Stop("sweep"), qt.IsNil)
	m.Wait()
	c.Assert(got, qt.Equals, context.Canceled)
	c.Assert(errors.Is(m.Stop("sweep"), ErrNotRunning), qt.IsTrue)
}

func TestStopAll(t *testing.T) {
	c := qt.New(t)
	m := NewManager(nil)
	for _, name := range []string{"a", "b"} {
		c.Assert(m.StartAsync(context.Background(), name, func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		}), qt.IsNil)
	}
	m.StopAll()
	c.Assert(m.List(), qt.HasLen, 0)
}

func TestStartSync(t *testing.T) {
	c := qt.New(t)
	rec := &recorder{}
	m := NewManager(rec.report)
	err := m.StartSync(context.Background(), "validate", func(ctx context.Context) error { return nil })
	c.Assert(err, qt.IsNil)
	testhelper.AssertStringSlicesEqual(t, []string{"running:validate", "done:validate"}, rec.all())
}
