package session

import (
	"errors"
	"testing"
	"time"

	"github.com/abelbrown/hotspot/internal/store"
	"github.com/abelbrown/hotspot/internal/timectx"
)

type brokenMeta struct{}

func (brokenMeta) GetMetadata(string) (string, bool, error) { return "", false, store.ErrStorage }
func (brokenMeta) SetMetadata(string, string) error         { return store.ErrStorage }

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDailyRecommendationOncePerDay(t *testing.T) {
	s := openStore(t)
	st := Load(s)

	morning := time.Date(2026, 3, 4, 7, 0, 0, 0, time.UTC)
	if !st.ShouldShowDailyRecommendation(morning) {
		t.Fatal("fresh state should show the recommendation")
	}
	if err := st.MarkShown(morning); err != nil {
		t.Fatalf("MarkShown() error = %v", err)
	}
	if st.ShouldShowDailyRecommendation(morning.Add(10 * time.Hour)) {
		t.Error("shown twice on the same day")
	}
	if !st.ShouldShowDailyRecommendation(morning.Add(24 * time.Hour)) {
		t.Error("not shown on the next day")
	}
}

func TestShownFlagSurvivesRestart(t *testing.T) {
	s := openStore(t)
	day := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

	if err := Load(s).MarkShown(day); err != nil {
		t.Fatalf("MarkShown() error = %v", err)
	}

	v, ok, err := s.GetMetadata(KeyRecommendationShownOn)
	if err != nil || !ok {
		t.Fatalf("GetMetadata() = %q, %v, %v", v, ok, err)
	}
	if v != "2026-03-04" {
		t.Errorf("stored date = %q, want 2026-03-04", v)
	}

	if Load(s).ShouldShowDailyRecommendation(day) {
		t.Error("reloaded state forgot the flag")
	}
}

func TestBrokenStorageStillWorksInMemory(t *testing.T) {
	st := Load(brokenMeta{})
	now := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)

	if !st.ShouldShowDailyRecommendation(now) {
		t.Fatal("should show with unreadable flags")
	}
	if err := st.MarkShown(now); !errors.Is(err, store.ErrStorage) {
		t.Errorf("MarkShown() error = %v, want ErrStorage", err)
	}
	if st.ShouldShowDailyRecommendation(now) {
		t.Error("in-memory flag not set after a failed write")
	}
}

func TestNilMetadata(t *testing.T) {
	st := Load(nil)
	now := time.Now()
	if err := st.MarkShown(now); err != nil {
		t.Fatalf("MarkShown() error = %v", err)
	}
	if st.ShouldShowDailyRecommendation(now) {
		t.Error("flag not kept without storage")
	}
}

func TestGreetingFor(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"weekday morning", time.Date(2026, 3, 4, 7, 0, 0, 0, time.UTC), "Good morning!"},
		{"weekday midday", time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC), "Keep it up!"},
		{"weekend midday", time.Date(2026, 3, 7, 12, 0, 0, 0, time.UTC), "Hello, driver!"},
		{"late night", time.Date(2026, 3, 4, 2, 0, 0, 0, time.UTC), "Good evening!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := GreetingFor(timectx.At(tt.at))
			if g.Headline != tt.want {
				t.Errorf("Headline = %q, want %q", g.Headline, tt.want)
			}
			if g.Motivation == "" {
				t.Error("empty motivation")
			}
		})
	}
}
