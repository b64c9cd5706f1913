// Package coord keeps the merged point-of-interest set in step with
// connectivity: it syncs from the remote source when online and falls back to
// the local cache when offline.
package coord

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/hotspot/internal/logging"
	"github.com/abelbrown/hotspot/internal/merge"
	"github.com/abelbrown/hotspot/internal/model"
	"github.com/abelbrown/hotspot/internal/otel"
	"github.com/abelbrown/hotspot/internal/remote"
	"github.com/abelbrown/hotspot/internal/timectx"
)

// fetchTimeout bounds one remote fetch.
const fetchTimeout = 30 * time.Second

// ErrOffline is returned by ForceSync while offline. Nothing is changed.
var ErrOffline = errors.New("offline: sync skipped")

// Status is the sync badge shown to the driver.
type Status string

const (
	StatusSynced  Status = "synced"
	StatusSyncing Status = "syncing"
	StatusOffline Status = "offline"
	StatusError   Status = "error"
)

// cache interface for dependency injection (testing).
type cache interface {
	UpsertAll(records []model.PointOfInterest) error
	GetAll() ([]model.CacheRecord, error)
	LastSync() (time.Time, error)
	SetLastSync(t time.Time) error
}

// Snapshot is the merged set and its sync state at one moment.
type Snapshot struct {
	Points         []model.PointOfInterest
	Status         Status
	Online         bool
	LastSyncedAt   time.Time // zero if never synced
	PresetCount    int
	CommunityCount int
	Err            error // last sync failure while Status is StatusError
}

// Options configures a Coordinator. Zero values pick defaults.
type Options struct {
	Presets      []model.PointOfInterest
	Clock        timectx.Clock
	Events       *otel.Logger
	FetchTimeout time.Duration
}

// Coordinator is the sync state machine. All methods are goroutine-safe.
// Background syncs are tracked; call Wait after canceling their context.
type Coordinator struct {
	cache        cache
	source       remote.Source
	presets      []model.PointOfInterest // IMMUTABLE: set at construction
	clock        timectx.Clock
	events       *otel.Logger
	fetchTimeout time.Duration

	mu         sync.RWMutex
	online     bool
	status     Status
	points     []model.PointOfInterest
	lastRemote []model.PointOfInterest // last successful fetch, in memory only
	lastSync   time.Time
	lastErr    error
	subs       []chan Snapshot

	wg sync.WaitGroup
}

// New creates a Coordinator over a cache and a remote source.
func New(c cache, src remote.Source, opts Options) *Coordinator {
	if opts.Clock == nil {
		opts.Clock = timectx.SystemClock{}
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = fetchTimeout
	}
	presets := make([]model.PointOfInterest, len(opts.Presets))
	for i, p := range opts.Presets {
		p.Origin = model.ProvenancePreset
		presets[i] = p.WithProvenance(model.ProvenancePreset)
	}
	return &Coordinator{
		cache:        c,
		source:       src,
		presets:      presets,
		clock:        opts.Clock,
		events:       opts.Events,
		fetchTimeout: opts.FetchTimeout,
		status:       StatusSynced,
		points:       merge.Merge(presets, nil, nil, true),
	}
}

// Start loads the persisted state and applies the connectivity at mount.
// Offline with cached data exposes the cache immediately with StatusOffline.
// Offline with an empty cache stays StatusSynced, pending a first fetch, and
// serves the presets. Online starts a first sync in the background.
func (c *Coordinator) Start(ctx context.Context, online bool) {
	cached, lastSync := c.loadCache(ctx)

	c.mu.Lock()
	c.online = online
	c.lastSync = lastSync
	c.status = StatusSynced
	if !online {
		if len(cached) > 0 {
			c.status = StatusOffline
		}
		c.points = merge.Merge(c.presets, c.lastRemote, cached, false)
	}
	status := c.status
	c.mu.Unlock()

	if !online {
		c.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSyncOffline, Comp: "coord", Count: len(cached), Status: string(status)})
	}
	c.publish()

	if online {
		c.syncInBackground(ctx)
	}
}

// SetOnline reports a connectivity change. Losing connectivity exposes the
// cache immediately; regaining it while offline triggers a sync.
func (c *Coordinator) SetOnline(ctx context.Context, online bool) {
	c.mu.Lock()
	was := c.online
	c.online = online
	c.mu.Unlock()

	switch {
	case was && !online:
		cached, _ := c.loadCache(ctx)
		c.mu.Lock()
		c.status = StatusOffline
		c.points = merge.Merge(c.presets, c.lastRemote, cached, false)
		c.mu.Unlock()
		logging.Info("connectivity lost, serving cache", "component", "coord", "cached", len(cached))
		c.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSyncOffline, Comp: "coord", Count: len(cached), Status: string(StatusOffline)})
		c.publish()
	case !was && online:
		logging.Info("connectivity regained, syncing", "component", "coord")
		c.syncInBackground(ctx)
	}
}

// ForceSync runs a sync now. It is a no-op returning ErrOffline while offline.
func (c *Coordinator) ForceSync(ctx context.Context) error {
	c.mu.RLock()
	online := c.online
	c.mu.RUnlock()
	if !online {
		return ErrOffline
	}
	return c.sync(ctx)
}

// Wait blocks until background syncs exit.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Snapshot returns the current merged set and sync state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

// Subscribe returns a channel that receives the latest snapshot after every
// state change. Slow receivers only see the most recent one.
func (c *Coordinator) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	c.mu.Lock()
	c.subs = append(c.subs, ch)
	c.mu.Unlock()
	return ch
}

func (c *Coordinator) snapshotLocked() Snapshot {
	points := make([]model.PointOfInterest, len(c.points))
	copy(points, c.points)
	presets, community := merge.Counts(points)
	s := Snapshot{
		Points:         points,
		Status:         c.status,
		Online:         c.online,
		LastSyncedAt:   c.lastSync,
		PresetCount:    presets,
		CommunityCount: community,
	}
	if c.status == StatusError {
		s.Err = c.lastErr
	}
	return s
}

func (c *Coordinator) publish() {
	c.mu.RLock()
	snap := c.snapshotLocked()
	subs := c.subs
	c.mu.RUnlock()

	for _, ch := range subs {
		// Drop a stale pending snapshot so the newest always fits.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (c *Coordinator) syncInBackground(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_ = c.sync(ctx)
	}()
}

// sync fetches, merges, and persists. The cache is written only after the
// fetch and merge have both completed; a failed fetch leaves it untouched.
func (c *Coordinator) sync(ctx context.Context) error {
	start := c.clock.Now()

	c.mu.Lock()
	c.status = StatusSyncing
	c.mu.Unlock()
	c.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindSyncStart, Comp: "coord", Status: string(StatusSyncing)})
	c.publish()

	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	fetched, err := c.source.Fetch(fetchCtx)
	cancel()
	if err != nil {
		c.mu.Lock()
		c.status = StatusError
		c.lastErr = err
		if !c.online {
			c.status = StatusOffline
		}
		c.mu.Unlock()
		logging.Warn("sync failed", "component", "coord", "error", err)
		c.events.Emit(otel.Event{Level: otel.LevelError, Kind: otel.KindSyncError, Comp: "coord", Err: err.Error(), Status: string(StatusError)})
		c.publish()
		return err
	}

	merged := merge.Merge(c.presets, fetched, nil, true)

	now := c.clock.Now()
	persisted := true
	if err := c.cache.UpsertAll(merge.ForCache(merged)); err != nil {
		persisted = false
		logging.Error("cache write failed", "component", "coord", "error", err)
		c.events.Error(otel.KindCacheError, "coord", err)
	} else if err := c.cache.SetLastSync(now); err != nil {
		persisted = false
		logging.Error("last sync write failed", "component", "coord", "error", err)
		c.events.Error(otel.KindCacheError, "coord", err)
	}

	c.mu.Lock()
	c.points = merged
	c.lastRemote = fetched
	c.lastErr = nil
	if persisted {
		c.lastSync = now
	}
	if c.online {
		c.status = StatusSynced
	} else {
		c.status = StatusOffline
	}
	status := c.status
	c.mu.Unlock()

	presets, community := merge.Counts(merged)
	logging.Info("sync complete", "component", "coord", "presets", presets, "community", community, "persisted", persisted)
	c.events.Emit(otel.Event{
		Level:  otel.LevelInfo,
		Kind:   otel.KindSyncComplete,
		Comp:   "coord",
		Count:  len(merged),
		Status: string(status),
		Dur:    c.clock.Now().Sub(start),
		Extra:  map[string]any{"presets": presets, "community": community, "persisted": persisted},
	})
	c.publish()
	return nil
}

// loadCache reads cached rows and the last sync time concurrently. Storage
// failures are logged and read as "no cached data".
func (c *Coordinator) loadCache(ctx context.Context) ([]model.PointOfInterest, time.Time) {
	var (
		rows     []model.CacheRecord
		lastSync time.Time
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = c.cache.GetAll()
		if err != nil {
			logging.Warn("cache unavailable", "component", "coord", "error", err)
			c.events.Error(otel.KindCacheError, "coord", err)
			rows = nil
		}
		return nil
	})
	g.Go(func() error {
		var err error
		lastSync, err = c.cache.LastSync()
		if err != nil {
			logging.Warn("last sync unavailable", "component", "coord", "error", err)
			lastSync = time.Time{}
		}
		return nil
	})
	_ = g.Wait()

	cached := merge.FromCache(rows)
	c.events.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindCacheLoad, Comp: "coord", Count: len(cached)})

	if !lastSync.IsZero() {
		c.mu.Lock()
		if lastSync.After(c.lastSync) {
			c.lastSync = lastSync
		}
		c.mu.Unlock()
	}
	return cached, lastSync
}
