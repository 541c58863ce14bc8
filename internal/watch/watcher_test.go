package watch_test

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mflores/dayplan/internal/watch"
	"github.com/mflores/dayplan/tests/testutil"
)

// collect drains the watcher's subscription commands into a channel the
// test can select on, standing in for the Bubble Tea runtime.
func collect(t *testing.T, w *watch.Watcher) chan tea.Msg {
	t.Helper()
	ch := make(chan tea.Msg, 16)
	cmd := w.Start()
	go func() {
		for cmd != nil {
			msg := cmd()
			if msg == nil {
				return
			}
			ch <- msg
			cmd = w.WaitForNextResult()
		}
	}()
	return ch
}

func waitChanged(t *testing.T, ch chan tea.Msg) watch.ChangedMsg {
	t.Helper()
	select {
	case msg := <-ch:
		changed, ok := msg.(watch.ChangedMsg)
		require.True(t, ok, "unexpected message %T: %v", msg, msg)
		return changed
	case <-time.After(3 * time.Second):
		t.Fatal("no change message arrived")
		return watch.ChangedMsg{}
	}
}

func TestWatcherReportsFirstPollAndChanges(t *testing.T) {
	s := testutil.NewTestStore(t)
	u := testutil.NewTestUser(t, s, "ana")
	ctx := context.Background()

	w := watch.New(s, 20*time.Millisecond)
	w.Watch(u.ID, 2026, 8)
	t.Cleanup(w.Stop)

	ch := collect(t, w)

	// The first poll of a fresh scope always reports, even when empty.
	first := waitChanged(t, ch)
	assert.Equal(t, 2026, first.Year)
	assert.Equal(t, 8, first.Month)
	assert.Empty(t, first.Tasks)

	_, err := s.Add(ctx, u.ID, "nueva", "", "2026-08-28")
	require.NoError(t, err)

	second := waitChanged(t, ch)
	require.Len(t, second.Tasks, 1)
	assert.Equal(t, "nueva", second.Tasks[0].Title)
}

func TestWatcherDetectsEdits(t *testing.T) {
	s := testutil.NewTestStore(t)
	u := testutil.NewTestUser(t, s, "ana")
	ctx := context.Background()

	task, err := s.Add(ctx, u.ID, "tarea", "", "2026-08-28")
	require.NoError(t, err)

	w := watch.New(s, 20*time.Millisecond)
	w.Watch(u.ID, 2026, 8)
	t.Cleanup(w.Stop)
	ch := collect(t, w)

	waitChanged(t, ch)

	// Toggling moves updated_at, so the fingerprint must move too.
	_, err = s.ToggleComplete(ctx, task.ID, false)
	require.NoError(t, err)

	changed := waitChanged(t, ch)
	require.Len(t, changed.Tasks, 1)
	assert.True(t, changed.Tasks[0].Completed)
}

func TestWatcherQuietWhenNothingChanges(t *testing.T) {
	s := testutil.NewTestStore(t)
	u := testutil.NewTestUser(t, s, "ana")

	w := watch.New(s, 10*time.Millisecond)
	w.Watch(u.ID, 2026, 8)
	t.Cleanup(w.Stop)
	ch := collect(t, w)

	waitChanged(t, ch)

	// Several idle polls later, no further messages.
	select {
	case msg := <-ch:
		t.Fatalf("unexpected message: %v", msg)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcherScopeMove(t *testing.T) {
	s := testutil.NewTestStore(t)
	u := testutil.NewTestUser(t, s, "ana")
	ctx := context.Background()

	_, err := s.Add(ctx, u.ID, "agosto", "", "2026-08-28")
	require.NoError(t, err)
	_, err = s.Add(ctx, u.ID, "septiembre", "", "2026-09-01")
	require.NoError(t, err)

	w := watch.New(s, 20*time.Millisecond)
	w.Watch(u.ID, 2026, 8)
	t.Cleanup(w.Stop)
	ch := collect(t, w)

	first := waitChanged(t, ch)
	require.Len(t, first.Tasks, 1)
	assert.Equal(t, "agosto", first.Tasks[0].Title)

	w.Watch(u.ID, 2026, 9)
	w.Refresh()

	next := waitChanged(t, ch)
	assert.Equal(t, 9, next.Month)
	require.Len(t, next.Tasks, 1)
	assert.Equal(t, "septiembre", next.Tasks[0].Title)
}

func TestWatcherNoUserNoPolling(t *testing.T) {
	s := testutil.NewTestStore(t)

	w := watch.New(s, 10*time.Millisecond)
	t.Cleanup(w.Stop)
	ch := collect(t, w)

	select {
	case msg := <-ch:
		t.Fatalf("unexpected message: %v", msg)
	case <-time.After(60 * time.Millisecond):
	}
}
