package service

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/printproxy/console/internal/api/metrics"
	"github.com/printproxy/console/internal/core/domain"
	"github.com/printproxy/console/internal/core/ports"
)

const (
	DefaultStreamCapacity = 200
	DefaultPollInterval   = 5 * time.Second

	pollPageSize      = 20
	recentCount       = 20
	subscriberBuffer  = 64
	healthWindow      = time.Hour
	criticalThreshold = 10
	warningThreshold  = 3
)

// ExportFormats are the formats the backend can export logs in.
var ExportFormats = []string{"csv", "json", "txt"}

// LogStoreConfig tunes the live stream.
type LogStoreConfig struct {
	Capacity     int
	PollInterval time.Duration
}

// LogSnapshot is a consistent copy of the log cache.
type LogSnapshot struct {
	Logs       []domain.LogEntry  `json:"logs"`
	Pagination *domain.Pagination `json:"pagination"`
	Stats      *domain.LogStats   `json:"stats,omitempty"`
	RealTime   bool               `json:"real_time"`
	Loading    bool               `json:"loading"`
	Error      string             `json:"error,omitempty"`
}

// LogStore caches backend log entries newest first. With real time enabled it
// polls the first page and merges unseen entries at the front, never holding
// more than Capacity entries, and publishes them to subscribers.
type LogStore struct {
	api        ports.LogAPI
	reader     Reader
	log        zerolog.Logger
	cfg        LogStoreConfig
	sessionCtx func() context.Context
	now        func() time.Time

	mu         sync.RWMutex
	st         state
	logs       []domain.LogEntry
	pagination *domain.Pagination
	stats      *domain.LogStats
	lastQuery  domain.LogQuery

	stopPoll chan struct{}
	pollDone chan struct{}
	toggled  bool
	holders  int

	subMu   sync.Mutex
	subs    map[int]chan domain.LogEntry
	nextSub int
}

// NewLogStore builds a store. sessionCtx supplies the context background
// polls run under; it must carry the session.
func NewLogStore(api ports.LogAPI, reader Reader, cfg LogStoreConfig, sessionCtx func() context.Context, log zerolog.Logger) *LogStore {
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultStreamCapacity
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &LogStore{
		api:        api,
		reader:     reader,
		log:        log,
		cfg:        cfg,
		sessionCtx: sessionCtx,
		now:        time.Now,
		subs:       make(map[int]chan domain.LogEntry),
	}
}

func (s *LogStore) Fetch(ctx context.Context, q domain.LogQuery) ([]domain.LogEntry, error) {
	s.mu.Lock()
	s.st.begin()
	s.lastQuery = q
	s.mu.Unlock()

	page, err := read(ctx, s.reader, "logs.list", func(ctx context.Context) (*domain.Page[domain.LogEntry], error) {
		return s.api.List(ctx, q)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.end(err)
	if err != nil {
		return nil, err
	}
	s.logs = page.Items
	s.pagination = paginationFor(page.Pagination, q.Page, q.PageSize, len(page.Items))
	return slices.Clone(s.logs), nil
}

// Search is Fetch with a free-text term over the given filters.
func (s *LogStore) Search(ctx context.Context, text string, filters domain.LogQuery) ([]domain.LogEntry, error) {
	filters.Search = text
	return s.Fetch(ctx, filters)
}

func (s *LogStore) FetchOne(ctx context.Context, id string) (*domain.LogEntry, error) {
	entry, err := read(ctx, s.reader, "logs.get", func(ctx context.Context) (*domain.LogEntry, error) {
		return s.api.Get(ctx, id)
	})
	if err != nil {
		s.fail(err)
		return nil, err
	}
	return entry, nil
}

func (s *LogStore) Stats(ctx context.Context, q domain.LogQuery) (*domain.LogStats, error) {
	stats, err := read(ctx, s.reader, "logs.stats", func(ctx context.Context) (*domain.LogStats, error) {
		return s.api.Stats(ctx, q)
	})
	if err != nil {
		s.fail(err)
		return nil, err
	}
	s.mu.Lock()
	s.stats = stats
	s.mu.Unlock()
	return stats, nil
}

func (s *LogStore) Export(ctx context.Context, q domain.LogQuery, format string) (*domain.Blob, error) {
	if format == "" {
		format = "csv"
	}
	if !slices.Contains(ExportFormats, format) {
		return nil, domain.ValidationError("unsupported export format", map[string][]string{"format": ExportFormats})
	}
	blob, err := s.api.Export(ctx, q, format)
	if err != nil {
		s.fail(err)
		return nil, err
	}
	return blob, nil
}

// Clear drops entries on the backend and refetches the last listing.
func (s *LogStore) Clear(ctx context.Context, f domain.LogClearFilter) ([]domain.LogEntry, error) {
	if err := s.api.Clear(ctx, f); err != nil {
		s.fail(err)
		return nil, err
	}
	s.mu.RLock()
	q := s.lastQuery
	s.mu.RUnlock()
	return s.Fetch(ctx, q)
}

// Add inserts an entry at the front and publishes it.
func (s *LogStore) Add(entry domain.LogEntry) {
	s.mu.Lock()
	s.logs = append([]domain.LogEntry{entry}, s.logs...)
	s.trim()
	s.mu.Unlock()
	s.publish(entry)
}

// EnableRealTime is the operator's switch for the poller. It reports false if
// the switch was already on.
func (s *LogStore) EnableRealTime() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.toggled {
		return false
	}
	s.toggled = true
	s.startPollLocked()
	return true
}

// DisableRealTime turns the operator's switch off and reports false if it was
// already off. Polling continues while a stream still holds the store.
func (s *LogStore) DisableRealTime() bool {
	s.mu.Lock()
	was := s.toggled
	s.toggled = false
	var done chan struct{}
	if s.holders == 0 {
		done = s.stopPollLocked()
	}
	s.mu.Unlock()
	if done != nil {
		<-done
	}
	return was
}

// Acquire keeps the poller running on behalf of a live stream until the
// matching Release.
func (s *LogStore) Acquire() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holders++
	s.startPollLocked()
}

// Release drops one stream's hold. The poller stops with the last hold unless
// the operator switch is on.
func (s *LogStore) Release() {
	s.mu.Lock()
	if s.holders > 0 {
		s.holders--
	}
	var done chan struct{}
	if s.holders == 0 && !s.toggled {
		done = s.stopPollLocked()
	}
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

// RealTime reports whether the poller is running, for either reason.
func (s *LogStore) RealTime() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopPoll != nil
}

func (s *LogStore) startPollLocked() {
	if s.stopPoll != nil {
		return
	}
	s.stopPoll = make(chan struct{})
	s.pollDone = make(chan struct{})
	go s.poll(s.stopPoll, s.pollDone)
	s.log.Debug().Dur("interval", s.cfg.PollInterval).Msg("real-time logs enabled")
}

// stopPollLocked signals the poller and returns the channel to wait on once
// s.mu is released; the poller takes s.mu while merging.
func (s *LogStore) stopPollLocked() chan struct{} {
	if s.stopPoll == nil {
		return nil
	}
	close(s.stopPoll)
	done := s.pollDone
	s.stopPoll, s.pollDone = nil, nil
	s.log.Debug().Msg("real-time logs disabled")
	return done
}

func (s *LogStore) poll(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.PollOnce()
		}
	}
}

// PollOnce fetches the newest page and merges it. Failures are logged and
// otherwise ignored so the stream survives transient backend trouble.
func (s *LogStore) PollOnce() int {
	ctx, cancel := context.WithTimeout(s.sessionCtx(), s.cfg.PollInterval)
	defer cancel()

	page, err := read(ctx, s.reader, "logs.poll", func(ctx context.Context) (*domain.Page[domain.LogEntry], error) {
		return s.api.List(ctx, domain.LogQuery{Page: 1, PageSize: pollPageSize})
	})
	if err != nil {
		if domain.KindOf(err) != domain.KindCancelled {
			s.log.Warn().Err(err).Msg("real-time log poll failed")
		}
		return 0
	}
	fresh := s.merge(page.Items)
	for _, e := range fresh {
		s.publish(e)
	}
	return len(fresh)
}

// merge puts entries whose id is not cached yet at the front, in the order
// received, and returns them.
func (s *LogStore) merge(entries []domain.LogEntry) []domain.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{}, len(s.logs))
	for _, e := range s.logs {
		seen[e.ID] = struct{}{}
	}
	var fresh []domain.LogEntry
	for _, e := range entries {
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		fresh = append(fresh, e)
	}
	if len(fresh) == 0 {
		return nil
	}
	s.logs = append(slices.Clone(fresh), s.logs...)
	s.trim()
	return fresh
}

func (s *LogStore) trim() {
	if len(s.logs) > s.cfg.Capacity {
		s.logs = s.logs[:s.cfg.Capacity]
	}
}

// Subscribe returns a channel of newly seen entries and a function that
// unsubscribes. Slow subscribers miss entries rather than block the stream.
func (s *LogStore) Subscribe() (<-chan domain.LogEntry, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	ch := make(chan domain.LogEntry, subscriberBuffer)
	s.subs[id] = ch
	metrics.LogStreamSubscribers.Inc()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			if c, ok := s.subs[id]; ok {
				delete(s.subs, id)
				close(c)
				metrics.LogStreamSubscribers.Dec()
			}
		})
	}
}

func (s *LogStore) publish(e domain.LogEntry) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Close stops the poller regardless of holds and closes every subscription.
func (s *LogStore) Close() {
	s.mu.Lock()
	s.toggled, s.holders = false, 0
	done := s.stopPollLocked()
	s.mu.Unlock()
	if done != nil {
		<-done
	}
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
		metrics.LogStreamSubscribers.Dec()
	}
}

func (s *LogStore) Logs() []domain.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.logs)
}

// Errors returns error and critical entries.
func (s *LogStore) Errors() []domain.LogEntry {
	return s.filter(func(e domain.LogEntry) bool { return isErrorLevel(e.Level) })
}

func (s *LogStore) Warnings() []domain.LogEntry {
	return s.filter(func(e domain.LogEntry) bool { return e.Level == domain.LevelWarning })
}

// Recent returns the newest entries.
func (s *LogStore) Recent() []domain.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := min(recentCount, len(s.logs))
	return slices.Clone(s.logs[:n])
}

// ByLevel groups the cache by level; every level has a (possibly empty) slot.
func (s *LogStore) ByLevel() map[domain.LogLevel][]domain.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.LogLevel][]domain.LogEntry, len(domain.LogLevels))
	for _, l := range domain.LogLevels {
		out[l] = []domain.LogEntry{}
	}
	for _, e := range s.logs {
		out[e.Level] = append(out[e.Level], e)
	}
	return out
}

func (s *LogStore) ByType() map[domain.LogType][]domain.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[domain.LogType][]domain.LogEntry, len(domain.LogTypes))
	for _, t := range domain.LogTypes {
		out[t] = []domain.LogEntry{}
	}
	for _, e := range s.logs {
		out[e.Type] = append(out[e.Type], e)
	}
	return out
}

// SystemHealth grades the cached errors of the last hour: 10 or more is
// critical, 3 or more is a warning.
func (s *LogStore) SystemHealth() domain.SystemHealth {
	cutoff := s.now().Add(-healthWindow)
	s.mu.RLock()
	n := 0
	for _, e := range s.logs {
		if isErrorLevel(e.Level) && e.Timestamp.After(cutoff) {
			n++
		}
	}
	s.mu.RUnlock()

	switch {
	case n >= criticalThreshold:
		return domain.HealthCritical
	case n >= warningThreshold:
		return domain.HealthWarning
	}
	return domain.HealthHealthy
}

func (s *LogStore) Snapshot() LogSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return LogSnapshot{
		Logs:       slices.Clone(s.logs),
		Pagination: s.pagination,
		Stats:      s.stats,
		RealTime:   s.stopPoll != nil,
		Loading:    s.st.loading,
		Error:      s.st.lastError,
	}
}

func (s *LogStore) filter(keep func(domain.LogEntry) bool) []domain.LogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.LogEntry{}
	for _, e := range s.logs {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func (s *LogStore) fail(err error) {
	s.mu.Lock()
	s.st.end(err)
	s.mu.Unlock()
}

func isErrorLevel(l domain.LogLevel) bool {
	return l == domain.LevelError || l == domain.LevelCritical
}
