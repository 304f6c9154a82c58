package registry

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

func newMemRegistry(t *testing.T) (*Registry, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	return New(NewFileStore(fsys, "data/bot_data.json"), nil), fsys
}

func TestTrackIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg, _ := newMemRegistry(t)

	for i, id := range []int64{111, 222, 111, 111} {
		added, err := reg.Track(ctx, id)
		if err != nil {
			t.Fatalf("Track(%d) error = %v", id, err)
		}
		if want := i < 2; added != want {
			t.Errorf("Track(%d) #%d added = %v, want %v", id, i, added, want)
		}
	}

	if diff := cmp.Diff([]int64{111, 222}, reg.Recipients(ctx)); diff != "" {
		t.Errorf("recipients mismatch (-want +got):\n%s", diff)
	}
}

func TestTrackConcurrentDoesNotLoseUpdates(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg, _ := newMemRegistry(t)

	var wg sync.WaitGroup
	for id := int64(1); id <= 50; id++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := reg.Track(ctx, id); err != nil {
				t.Errorf("Track(%d) error = %v", id, err)
			}
		}()
	}
	wg.Wait()

	if got := len(reg.Recipients(ctx)); got != 50 {
		t.Fatalf("recipients = %d, want 50", got)
	}
}

func TestLoadFailsOpen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		reg, _ := newMemRegistry(t)
		if doc := reg.Load(ctx); len(doc.Users) != 0 {
			t.Errorf("Load() = %+v, want empty", doc)
		}
	})

	t.Run("corrupt file", func(t *testing.T) {
		t.Parallel()
		reg, fsys := newMemRegistry(t)
		if err := afero.WriteFile(fsys, "data/bot_data.json", []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}
		if doc := reg.Load(ctx); len(doc.Users) != 0 {
			t.Errorf("Load() = %+v, want empty", doc)
		}
		if added, err := reg.Track(ctx, 7); err != nil || !added {
			t.Fatalf("Track after corrupt load = %v, %v", added, err)
		}
		if diff := cmp.Diff([]int64{7}, reg.Recipients(ctx)); diff != "" {
			t.Errorf("recipients mismatch (-want +got):\n%s", diff)
		}

		aside, err := afero.Glob(fsys, "data/bot_data.json.corrupt-*")
		if err != nil || len(aside) != 1 {
			t.Fatalf("corrupt copies = %v, %v; want exactly one", aside, err)
		}
		if data, _ := afero.ReadFile(fsys, aside[0]); string(data) != "{not json" {
			t.Errorf("corrupt copy = %q, want original content", data)
		}
	})
}

// flakyStore fails the next failLoads reads with a non-decode error.
type flakyStore struct {
	Store
	mu        sync.Mutex
	failLoads int
}

func (s *flakyStore) Load(ctx context.Context) (Document, error) {
	s.mu.Lock()
	fail := s.failLoads > 0
	if fail {
		s.failLoads--
	}
	s.mu.Unlock()
	if fail {
		return Document{}, errors.New("read: input/output error")
	}
	return s.Store.Load(ctx)
}

func TestWritesAbortOnReadError(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := &flakyStore{Store: NewFileStore(afero.NewMemMapFs(), "bot_data.json")}
	reg := New(store, nil)

	for _, id := range []int64{111, 222, 333} {
		if _, err := reg.Track(ctx, id); err != nil {
			t.Fatalf("Track(%d) error = %v", id, err)
		}
	}
	if err := reg.SetRegion(ctx, 111, "us"); err != nil {
		t.Fatalf("SetRegion() error = %v", err)
	}

	writes := []struct {
		name  string
		write func() error
	}{
		{"Track", func() error { _, err := reg.Track(ctx, 444); return err }},
		{"SetRegion", func() error { return reg.SetRegion(ctx, 222, "eu") }},
		{"MarkCompleted", func() error { return reg.MarkCompleted(ctx, "k@t", time.Unix(0, 0)) }},
	}
	for _, w := range writes {
		store.mu.Lock()
		store.failLoads = 1
		store.mu.Unlock()
		if err := w.write(); err == nil {
			t.Errorf("%s with unreadable store: error = nil, want load error", w.name)
		}
	}

	if diff := cmp.Diff([]int64{111, 222, 333}, reg.Recipients(ctx)); diff != "" {
		t.Errorf("recipients mismatch (-want +got):\n%s", diff)
	}
	if region, ok := reg.Region(ctx, 111); !ok || region != "us" {
		t.Errorf("Region(111) = %q, %v; want us, true", region, ok)
	}
	if _, ok := reg.Region(ctx, 222); ok {
		t.Error("Region(222) was stored despite the failed read")
	}
}

func TestFileStoreReadsLegacyDocument(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	if err := afero.WriteFile(fsys, "bot_data.json", []byte(`{"users": [5, 6, 5]}`), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, err := NewFileStore(fsys, "bot_data.json").Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if diff := cmp.Diff([]int64{5, 6}, doc.Users); diff != "" {
		t.Errorf("users mismatch (-want +got):\n%s", diff)
	}
}

func TestRegionsAndCompletion(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg, _ := newMemRegistry(t)

	if _, ok := reg.Region(ctx, 1); ok {
		t.Fatal("Region() found a value in an empty registry")
	}
	if err := reg.SetRegion(ctx, 1, "us"); err != nil {
		t.Fatalf("SetRegion() error = %v", err)
	}
	if region, ok := reg.Region(ctx, 1); !ok || region != "us" {
		t.Errorf("Region() = %q, %v; want us, true", region, ok)
	}

	const key = "test_scheduled@2026-10-18T19:30:00Z"
	done, err := reg.Completed(ctx, key)
	if err != nil || done {
		t.Fatalf("Completed() before mark = %v, %v", done, err)
	}
	at := time.Date(2026, 10, 18, 19, 30, 1, 0, time.UTC)
	if err := reg.MarkCompleted(ctx, key, at); err != nil {
		t.Fatalf("MarkCompleted() error = %v", err)
	}
	if done, err := reg.Completed(ctx, key); err != nil || !done {
		t.Errorf("Completed() after mark = %v, %v", done, err)
	}
}

type failingStore struct{ Document }

func (s *failingStore) Load(context.Context) (Document, error) { return s.Document, nil }
func (s *failingStore) Save(context.Context, Document) error  { return errors.New("disk full") }
func (s *failingStore) Close() error                          { return nil }

func TestTrackReportsSaveFailure(t *testing.T) {
	t.Parallel()

	reg := New(&failingStore{}, nil)
	added, err := reg.Track(context.Background(), 1)
	if err == nil || added {
		t.Fatalf("Track() = %v, %v; want save error", added, err)
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "bot.db")

	store, err := OpenSQLite(path, nil)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	reg := New(store, nil)

	for _, id := range []int64{333, 111, 222} {
		if _, err := reg.Track(ctx, id); err != nil {
			t.Fatalf("Track(%d) error = %v", id, err)
		}
	}
	if err := reg.SetRegion(ctx, 111, "eu"); err != nil {
		t.Fatal(err)
	}
	at := time.Date(2026, 10, 18, 19, 30, 0, 0, time.UTC)
	if err := reg.MarkCompleted(ctx, "once@x", at); err != nil {
		t.Fatal(err)
	}
	if err := reg.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Reopen to check the data survived and migrations are idempotent.
	store, err = OpenSQLite(path, nil)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := Document{
		Users:          []int64{333, 111, 222},
		Regions:        map[int64]string{111: "eu"},
		CompletedTasks: map[string]time.Time{"once@x": at},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("document mismatch (-want +got):\n%s", diff)
	}
}
