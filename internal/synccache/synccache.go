// Package synccache keeps the local replica of the server task collection.
//
// The cache is the only writer of the replica. It refreshes on an interval
// and on explicit invalidation; every refresh replaces the collection
// wholesale with what the server returned. Readers take immutable
// snapshots.
package synccache

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"mailtasks-cli/internal/api"
	"mailtasks-cli/internal/model"
)

const DefaultInterval = 30 * time.Second

// Fetcher loads the whole task collection.
type Fetcher interface {
	ListTasks(ctx context.Context, opts api.ListOptions) (model.TaskList, error)
}

type Config struct {
	// Interval between background refreshes. Zero means DefaultInterval.
	Interval time.Duration
	// Query is passed to every fetch.
	Query api.ListOptions
	// FetchTimeout bounds refreshes started by Invalidate. Zero means no
	// bound beyond the transport's own timeout.
	FetchTimeout time.Duration
	// OnError is called after a failed fetch that was not discarded. Run
	// stops and returns the error when it reports true.
	OnError func(err error) (stop bool)
	Logger  *slog.Logger
}

type Cache struct {
	fetch Fetcher
	cfg   Config
	log   *slog.Logger
	now   func() time.Time

	// fetchMu serializes fetches.
	fetchMu sync.Mutex

	mu    sync.RWMutex
	snap  Snapshot
	epoch uint64
	subs  map[int]chan struct{}
	subID int

	pendingMu sync.Mutex
	waiters   []chan error
	scheduled bool
}

func New(f Fetcher, cfg Config) *Cache {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	log := cfg.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Cache{
		fetch: f,
		cfg:   cfg,
		log:   log,
		now:   time.Now,
		subs:  map[int]chan struct{}{},
	}
}

func (c *Cache) Interval() time.Duration { return c.cfg.Interval }

// Refresh fetches the collection now and replaces the replica. A failed
// fetch leaves the previous collection in place and is recorded in the
// snapshot's Err.
func (c *Cache) Refresh(ctx context.Context) error {
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()
	_, err := c.fetchLocked(ctx)
	return err
}

// Invalidate schedules a refresh that starts after this call and returns a
// channel that receives its result (nil on success) and is then closed.
// The refresh runs detached from any caller context. Invalidations made
// while a refresh is queued share it.
func (c *Cache) Invalidate() <-chan error {
	ch := make(chan error, 1)
	c.pendingMu.Lock()
	c.waiters = append(c.waiters, ch)
	start := !c.scheduled
	c.scheduled = true
	c.pendingMu.Unlock()
	if start {
		go c.runInvalidation()
	}
	return ch
}

func (c *Cache) runInvalidation() {
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	c.pendingMu.Lock()
	waiters := c.waiters
	c.waiters = nil
	c.scheduled = false
	c.pendingMu.Unlock()

	ctx := context.Background()
	if c.cfg.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.FetchTimeout)
		defer cancel()
	}
	_, err := c.fetchLocked(ctx)
	for _, w := range waiters {
		w <- err
		close(w)
	}
}

func (c *Cache) fetchLocked(ctx context.Context) (stop bool, err error) {
	c.mu.RLock()
	epoch := c.epoch
	c.mu.RUnlock()

	list, err := c.fetch.ListTasks(ctx, c.cfg.Query)

	c.mu.Lock()
	if c.epoch != epoch {
		// Discarded while fetching.
		c.mu.Unlock()
		return false, err
	}
	if err != nil {
		c.snap.Err = err
		c.mu.Unlock()
		c.log.Debug("task refresh failed", "err", err)
		c.notify()
		if c.cfg.OnError != nil {
			stop = c.cfg.OnError(err)
		}
		return stop, err
	}
	c.snap = newSnapshot(list, c.now().UTC(), c.snap.Version+1)
	n := len(c.snap.Tasks)
	c.mu.Unlock()
	c.log.Debug("task refresh", "tasks", n)
	c.notify()
	return false, nil
}

// Run refreshes immediately and then every Interval until ctx ends.
// Failures are recorded on the snapshot. Run returns nil when ctx is done,
// or the fetch error that OnError asked it to stop on.
func (c *Cache) Run(ctx context.Context) error {
	if err := c.tick(ctx); err != nil {
		return err
	}
	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := c.tick(ctx); err != nil {
				return err
			}
		}
	}
}

func (c *Cache) tick(ctx context.Context) error {
	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()
	if stop, err := c.fetchLocked(ctx); stop {
		return err
	}
	return nil
}

// Snapshot returns a copy of the current replica.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.snap
	s.Tasks = slices.Clone(c.snap.Tasks)
	if c.snap.Stats != nil {
		st := *c.snap.Stats
		s.Stats = &st
	}
	if c.snap.Pagination != nil {
		pg := *c.snap.Pagination
		s.Pagination = &pg
	}
	return s
}

// Subscribe returns a channel signalled after every refresh attempt. Signals
// coalesce: a slow reader sees one pending signal, never a backlog. Call
// the returned func to unsubscribe.
func (c *Cache) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	c.mu.Lock()
	id := c.subID
	c.subID++
	c.subs[id] = ch
	c.mu.Unlock()
	return ch, func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Cache) notify() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, ch := range c.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Discard drops the replica. Fetches in flight when Discard is called do
// not repopulate it.
func (c *Cache) Discard() {
	c.mu.Lock()
	c.epoch++
	c.snap = Snapshot{}
	c.mu.Unlock()
	c.notify()
}
