// Package watch polls the task store for changes made by other sessions
// and turns them into change messages. Rather than diffing rows, a change
// invalidates the watched month wholesale; the views re-fetch and treat
// the store as authoritative.
package watch

import (
	"context"
	"fmt"
	"sort"
	"strings"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mflores/dayplan/internal/model"
	"github.com/mflores/dayplan/internal/store"
)

// ChangedMsg is a tea.Msg sent when the watched month's tasks changed
// since the last poll. Tasks holds the fresh month snapshot.
type ChangedMsg struct {
	Year  int
	Month int
	Tasks []model.Task
}

// ErrorMsg is a tea.Msg sent when a poll fails.
type ErrorMsg struct {
	Err error
}

// fetchTimeout bounds a single poll round trip.
const fetchTimeout = 30 * time.Second

// unsetFingerprint never matches a real snapshot, so a fresh scope always
// reports its first poll, even an empty month.
const unsetFingerprint = "\x00unset"

// scope is the user and month a watcher observes.
type scope struct {
	userID string
	year   int
	month  int
}

// Watcher polls one user's month of tasks on an interval and reports when
// the snapshot fingerprint changes.
type Watcher struct {
	tasks    store.TaskStore
	interval time.Duration

	resultCh  chan tea.Msg
	triggerCh chan struct{}
	stopCh    chan struct{}

	mu          gosync.Mutex
	running     bool
	current     scope
	fingerprint string
}

// New creates a watcher over the given task store. A non-positive
// interval falls back to 15 seconds.
func New(tasks store.TaskStore, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Watcher{
		tasks:       tasks,
		interval:    interval,
		resultCh:    make(chan tea.Msg, 16),
		triggerCh:   make(chan struct{}, 16),
		stopCh:      make(chan struct{}),
		fingerprint: unsetFingerprint,
	}
}

// Watch points the watcher at a user and month. The fingerprint resets so
// the next poll reports the new scope unconditionally.
func (w *Watcher) Watch(userID string, year, month int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.current = scope{userID: userID, year: year, month: month}
	w.fingerprint = unsetFingerprint
}

// Start returns a tea.Cmd that starts the polling goroutine and
// subscribes to change messages.
func (w *Watcher) Start() tea.Cmd {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return w.waitForResult()
	}
	w.running = true
	w.mu.Unlock()

	go w.poll()

	return w.waitForResult()
}

// Stop halts the polling goroutine.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	close(w.stopCh)
	w.running = false
}

// Refresh triggers an immediate poll.
func (w *Watcher) Refresh() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next change
// message. Call it after processing a ChangedMsg to keep listening.
func (w *Watcher) WaitForNextResult() tea.Cmd {
	return w.waitForResult()
}

// poll runs the polling loop until Stop.
func (w *Watcher) poll() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.pollOnce()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.pollOnce()
		case <-w.triggerCh:
			w.pollOnce()
		}
	}
}

// pollOnce fetches the watched month and emits a ChangedMsg when its
// fingerprint moved.
func (w *Watcher) pollOnce() {
	w.mu.Lock()
	sc := w.current
	w.mu.Unlock()

	if sc.userID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	tasks, err := w.tasks.ListByMonth(ctx, sc.userID, sc.year, sc.month)
	if err != nil {
		w.send(ErrorMsg{Err: err})
		return
	}

	fp := fingerprintTasks(tasks)

	w.mu.Lock()
	// The scope may have moved while the fetch was in flight; stale
	// results must not clobber the new scope's fingerprint.
	if w.current != sc {
		w.mu.Unlock()
		return
	}
	changed := fp != w.fingerprint
	w.fingerprint = fp
	w.mu.Unlock()

	if changed {
		w.send(ChangedMsg{Year: sc.year, Month: sc.month, Tasks: tasks})
	}
}

// send emits a message without blocking; a full buffer drops it, the next
// poll will catch the change again.
func (w *Watcher) send(msg tea.Msg) {
	select {
	case w.resultCh <- msg:
	default:
	}
}

// waitForResult returns a tea.Cmd that waits for the next message from
// the result channel.
func (w *Watcher) waitForResult() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-w.resultCh
		if !ok {
			return nil
		}
		return msg
	}
}

// fingerprintTasks reduces a month snapshot to a comparable string. Any
// insert, delete, edit, or completion toggle moves the fingerprint, since
// updated_at changes on every write.
func fingerprintTasks(tasks []model.Task) string {
	parts := make([]string, len(tasks))
	for i, t := range tasks {
		parts[i] = fmt.Sprintf("%s@%d#%t", t.ID, t.UpdatedAt.UnixNano(), t.Completed)
	}
	sort.Strings(parts)
	return strings.Join(parts, "|")
}
