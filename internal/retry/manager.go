package retry

import (
	"context"
	"sort"
	"sync"
)

// Manager runs keyed retry loops. Starting a task under a key that is
// already retrying cancels the older loop.
type Manager struct {
	mu    sync.Mutex
	tasks map[string]*task
}

type task struct {
	cancel context.CancelFunc
}

func NewManager() *Manager {
	return &Manager{tasks: make(map[string]*task)}
}

// Execute runs fn under key through Do.
func Execute[T any](ctx context.Context, m *Manager, key string, fn func(context.Context) (T, error), opts Options) (T, error) {
	taskCtx, cancel := context.WithCancel(ctx)
	t := &task{cancel: cancel}

	m.mu.Lock()
	if prev, ok := m.tasks[key]; ok {
		prev.cancel()
	}
	m.tasks[key] = t
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		if m.tasks[key] == t {
			delete(m.tasks, key)
		}
		m.mu.Unlock()
		cancel()
	}()

	return Do(taskCtx, fn, opts)
}

// Cancel stops the task under key, if any.
func (m *Manager) Cancel(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.tasks[key]; ok {
		t.cancel()
		delete(m.tasks, key)
	}
}

func (m *Manager) CancelAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, t := range m.tasks {
		t.cancel()
		delete(m.tasks, key)
	}
}

func (m *Manager) IsRetrying(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.tasks[key]
	return ok
}

// Tasks returns the running keys, sorted.
func (m *Manager) Tasks() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.tasks))
	for k := range m.tasks {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
