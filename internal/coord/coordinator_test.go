package coord

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/abelbrown/hotspot/internal/model"
	"github.com/abelbrown/hotspot/internal/store"
	"github.com/abelbrown/hotspot/internal/timectx"
)

// mockSource implements remote.Source for testing.
type mockSource struct {
	mu          sync.Mutex
	returnItems []model.PointOfInterest
	returnErr   error
	fetchDelay  time.Duration
	fetchCount  atomic.Int32
}

func (m *mockSource) Fetch(ctx context.Context) ([]model.PointOfInterest, error) {
	m.fetchCount.Add(1)

	if m.fetchDelay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.fetchDelay):
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.returnItems, m.returnErr
}

// failingCache fails every operation like a broken storage engine.
type failingCache struct{}

func (failingCache) UpsertAll([]model.PointOfInterest) error { return store.ErrStorage }
func (failingCache) GetAll() ([]model.CacheRecord, error)    { return nil, store.ErrStorage }
func (failingCache) LastSync() (time.Time, error)            { return time.Time{}, store.ErrStorage }
func (failingCache) SetLastSync(time.Time) error             { return store.ErrStorage }

var syncTime = time.Date(2026, 3, 4, 8, 0, 0, 0, time.UTC)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	s.SetClock(timectx.FixedClock{T: syncTime})
	return s
}

func poi(id string, cat model.Category) model.PointOfInterest {
	return model.PointOfInterest{
		ID:         id,
		Name:       "Place " + id,
		Lat:        -6.91,
		Lon:        107.61,
		Category:   cat,
		IsSafeZone: true,
		Provenance: model.ProvenanceRemote,
	}
}

func newCoordinator(c cache, src *mockSource, presets ...model.PointOfInterest) *Coordinator {
	return New(c, src, Options{
		Presets:      presets,
		Clock:        timectx.FixedClock{T: syncTime},
		FetchTimeout: time.Second,
	})
}

func TestOfflineServesCacheOnly(t *testing.T) {
	s := openStore(t)

	var seed []model.PointOfInterest
	for i := 0; i < 10; i++ {
		seed = append(seed, poi(fmt.Sprintf("c%d", i), model.CategoryFoodcourt))
	}
	if err := s.UpsertAll(seed); err != nil {
		t.Fatalf("seed cache: %v", err)
	}

	src := &mockSource{returnErr: errors.New("unreachable")}
	preset := poi("p1", model.CategoryCampus)
	preset.Provenance = model.ProvenancePreset
	c := newCoordinator(s, src, preset)

	c.Start(context.Background(), false)
	c.Wait()

	snap := c.Snapshot()
	if snap.Status != StatusOffline {
		t.Errorf("Status = %q, want %q", snap.Status, StatusOffline)
	}
	if len(snap.Points) != 10 {
		t.Fatalf("got %d points, want exactly the 10 cached", len(snap.Points))
	}
	for i, p := range snap.Points {
		if p.ID != seed[i].ID {
			t.Errorf("point %d = %q, want %q", i, p.ID, seed[i].ID)
		}
		if p.Provenance != model.ProvenanceCached {
			t.Errorf("point %s provenance = %q, want cached", p.ID, p.Provenance)
		}
	}
	if got := src.fetchCount.Load(); got != 0 {
		t.Errorf("remote fetched %d times while offline", got)
	}
}

func TestOfflineEmptyCacheFallsBackToPresets(t *testing.T) {
	s := openStore(t)
	preset := poi("p1", model.CategoryCampus)
	c := newCoordinator(s, &mockSource{}, preset)

	c.Start(context.Background(), false)

	snap := c.Snapshot()
	if snap.Status != StatusSynced {
		t.Errorf("Status = %q, want %q pending the first fetch", snap.Status, StatusSynced)
	}
	if snap.Online {
		t.Error("snapshot should report offline")
	}
	if len(snap.Points) != 1 || snap.Points[0].ID != "p1" {
		t.Fatalf("Points = %+v, want the single preset", snap.Points)
	}
	if snap.PresetCount != 1 || snap.CommunityCount != 0 {
		t.Errorf("counts = (%d, %d), want (1, 0)", snap.PresetCount, snap.CommunityCount)
	}
}

func TestStartOnlineSyncsAndPersists(t *testing.T) {
	s := openStore(t)
	src := &mockSource{returnItems: []model.PointOfInterest{
		poi("r1", model.CategoryMall),
		poi("r2", model.CategoryFoodcourt),
	}}
	preset := poi("p1", model.CategoryCampus)
	c := newCoordinator(s, src, preset)

	c.Start(context.Background(), true)
	c.Wait()

	snap := c.Snapshot()
	if snap.Status != StatusSynced {
		t.Errorf("Status = %q, want %q", snap.Status, StatusSynced)
	}
	if len(snap.Points) != 3 {
		t.Fatalf("got %d points, want 3", len(snap.Points))
	}
	if snap.PresetCount != 1 || snap.CommunityCount != 2 {
		t.Errorf("counts = (%d, %d), want (1, 2)", snap.PresetCount, snap.CommunityCount)
	}
	if !snap.LastSyncedAt.Equal(syncTime) {
		t.Errorf("LastSyncedAt = %v, want %v", snap.LastSyncedAt, syncTime)
	}

	n, err := s.Count()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Errorf("cache holds %d rows, want 3", n)
	}
	last, err := s.LastSync()
	if err != nil {
		t.Fatalf("last sync: %v", err)
	}
	if !last.Equal(syncTime) {
		t.Errorf("stored last sync = %v, want %v", last, syncTime)
	}
}

func TestPresetNeverOverwritten(t *testing.T) {
	s := openStore(t)
	preset := poi("shared", model.CategoryCampus)
	preset.Name = "Curated Campus"
	preset.Provenance = model.ProvenancePreset

	impostor := poi("shared", model.CategoryMall)
	impostor.Name = "Community Rename"
	src := &mockSource{returnItems: []model.PointOfInterest{impostor}}

	c := newCoordinator(s, src, preset)
	c.Start(context.Background(), true)
	c.Wait()

	snap := c.Snapshot()
	if len(snap.Points) != 1 {
		t.Fatalf("got %d points, want 1", len(snap.Points))
	}
	got := snap.Points[0]
	if got.Name != "Curated Campus" || got.Category != model.CategoryCampus {
		t.Errorf("preset replaced: got %q (%s)", got.Name, got.Category)
	}
	if got.Provenance != model.ProvenancePreset {
		t.Errorf("Provenance = %q, want preset", got.Provenance)
	}
}

func TestFetchFailureLeavesCacheUntouched(t *testing.T) {
	s := openStore(t)
	seed := []model.PointOfInterest{poi("old1", model.CategoryFoodcourt), poi("old2", model.CategoryMall)}
	if err := s.UpsertAll(seed); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	earlier := syncTime.Add(-time.Hour)
	if err := s.SetLastSync(earlier); err != nil {
		t.Fatalf("seed last sync: %v", err)
	}

	src := &mockSource{returnErr: errors.New("503 from backend")}
	c := newCoordinator(s, src)
	c.Start(context.Background(), true)
	c.Wait()

	snap := c.Snapshot()
	if snap.Status != StatusError {
		t.Errorf("Status = %q, want %q", snap.Status, StatusError)
	}
	if snap.Err == nil {
		t.Error("Err = nil, want the fetch failure")
	}
	if !snap.LastSyncedAt.Equal(earlier) {
		t.Errorf("LastSyncedAt = %v, want unchanged %v", snap.LastSyncedAt, earlier)
	}

	rows, err := s.GetAll()
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != "old1" || rows[1].ID != "old2" {
		t.Errorf("cache modified after failed fetch: %+v", rows)
	}
	last, err := s.LastSync()
	if err != nil {
		t.Fatalf("last sync: %v", err)
	}
	if !last.Equal(earlier) {
		t.Errorf("stored last sync = %v, want %v", last, earlier)
	}
}

func TestForceSyncOfflineIsNoop(t *testing.T) {
	s := openStore(t)
	src := &mockSource{returnItems: []model.PointOfInterest{poi("r1", model.CategoryMall)}}
	c := newCoordinator(s, src)
	c.Start(context.Background(), false)

	before := c.Snapshot()
	err := c.ForceSync(context.Background())
	if !errors.Is(err, ErrOffline) {
		t.Fatalf("ForceSync() error = %v, want ErrOffline", err)
	}
	if got := src.fetchCount.Load(); got != 0 {
		t.Errorf("remote fetched %d times", got)
	}
	after := c.Snapshot()
	if after.Status != before.Status || len(after.Points) != len(before.Points) {
		t.Errorf("state changed: before %q/%d, after %q/%d",
			before.Status, len(before.Points), after.Status, len(after.Points))
	}
}

func TestForceSyncOnline(t *testing.T) {
	s := openStore(t)
	src := &mockSource{}
	c := newCoordinator(s, src)
	c.Start(context.Background(), true)
	c.Wait()

	src.mu.Lock()
	src.returnItems = []model.PointOfInterest{poi("late", model.CategoryStation)}
	src.mu.Unlock()

	if err := c.ForceSync(context.Background()); err != nil {
		t.Fatalf("ForceSync() error = %v", err)
	}
	snap := c.Snapshot()
	if len(snap.Points) != 1 || snap.Points[0].ID != "late" {
		t.Errorf("Points = %+v, want the refreshed record", snap.Points)
	}
	if got := src.fetchCount.Load(); got != 2 {
		t.Errorf("fetchCount = %d, want 2", got)
	}
}

func TestLosingConnectivityServesCache(t *testing.T) {
	s := openStore(t)
	src := &mockSource{returnItems: []model.PointOfInterest{poi("r1", model.CategoryMall)}}
	c := newCoordinator(s, src, poi("p1", model.CategoryCampus))
	c.Start(context.Background(), true)
	c.Wait()

	c.SetOnline(context.Background(), false)

	snap := c.Snapshot()
	if snap.Status != StatusOffline {
		t.Errorf("Status = %q, want %q", snap.Status, StatusOffline)
	}
	if len(snap.Points) != 2 {
		t.Fatalf("got %d points, want 2", len(snap.Points))
	}
	// Cached records keep the tier they were synced with.
	if snap.PresetCount != 1 || snap.CommunityCount != 1 {
		t.Errorf("counts = (%d, %d), want (1, 1)", snap.PresetCount, snap.CommunityCount)
	}
}

func TestRegainingConnectivityTriggersSync(t *testing.T) {
	s := openStore(t)
	src := &mockSource{returnItems: []model.PointOfInterest{poi("r1", model.CategoryMall)}}
	c := newCoordinator(s, src)
	c.Start(context.Background(), false)

	c.SetOnline(context.Background(), true)
	c.Wait()

	if got := src.fetchCount.Load(); got != 1 {
		t.Errorf("fetchCount = %d, want 1", got)
	}
	if snap := c.Snapshot(); snap.Status != StatusSynced {
		t.Errorf("Status = %q, want %q", snap.Status, StatusSynced)
	}

	// Repeating the same state is not a transition.
	c.SetOnline(context.Background(), true)
	c.Wait()
	if got := src.fetchCount.Load(); got != 1 {
		t.Errorf("fetchCount = %d after repeated online, want 1", got)
	}
}

func TestStorageFailureIsNotFatal(t *testing.T) {
	src := &mockSource{returnItems: []model.PointOfInterest{poi("r1", model.CategoryMall)}}
	c := newCoordinator(failingCache{}, src)

	c.Start(context.Background(), true)
	c.Wait()

	snap := c.Snapshot()
	if snap.Status != StatusSynced {
		t.Errorf("Status = %q, want %q", snap.Status, StatusSynced)
	}
	if len(snap.Points) != 1 {
		t.Errorf("got %d points, want 1", len(snap.Points))
	}
	if !snap.LastSyncedAt.IsZero() {
		t.Errorf("LastSyncedAt = %v, want zero when nothing was persisted", snap.LastSyncedAt)
	}

	c.SetOnline(context.Background(), false)
	if snap := c.Snapshot(); len(snap.Points) != 1 {
		t.Errorf("offline with broken cache: got %d points, want last-known 1", len(snap.Points))
	}
}

func TestFetchTimeout(t *testing.T) {
	s := openStore(t)
	src := &mockSource{fetchDelay: 5 * time.Second}
	c := New(s, src, Options{FetchTimeout: 50 * time.Millisecond})
	c.Start(context.Background(), true)

	done := make(chan struct{})
	go func() {
		c.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("sync did not respect the fetch timeout")
	}
	if snap := c.Snapshot(); snap.Status != StatusError {
		t.Errorf("Status = %q, want %q", snap.Status, StatusError)
	}
}

func TestSubscribeReceivesLatest(t *testing.T) {
	s := openStore(t)
	src := &mockSource{returnItems: []model.PointOfInterest{poi("r1", model.CategoryMall)}}
	c := newCoordinator(s, src)
	updates := c.Subscribe()

	c.Start(context.Background(), true)
	c.Wait()

	select {
	case snap := <-updates:
		if snap.Status != StatusSynced {
			t.Errorf("latest Status = %q, want %q", snap.Status, StatusSynced)
		}
	default:
		t.Fatal("no snapshot delivered")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	s := openStore(t)
	c := newCoordinator(s, &mockSource{}, poi("p1", model.CategoryCampus))
	c.Start(context.Background(), false)

	snap := c.Snapshot()
	snap.Points[0].Name = "mutated"
	if c.Snapshot().Points[0].Name == "mutated" {
		t.Error("Snapshot shares its slice with the coordinator")
	}
}
