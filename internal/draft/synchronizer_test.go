package draft

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"shortfall/api/internal/form"
	"shortfall/api/internal/store"
)

type fakeStore struct {
	mu      sync.Mutex
	drafts  []store.Draft
	creates int32
	updates int32

	latestDraftFn func(context.Context, string) (store.Draft, error)
	createDraftFn func(context.Context, store.Draft) (string, error)
	updateDraftFn func(context.Context, string, store.Draft) error
}

func (f *fakeStore) LatestDraftByOwner(ctx context.Context, ownerID string) (store.Draft, error) {
	if f.latestDraftFn != nil {
		return f.latestDraftFn(ctx, ownerID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *store.Draft
	for i := range f.drafts {
		d := &f.drafts[i]
		if d.OwnerID != ownerID {
			continue
		}
		if latest == nil || d.UpdatedAt.After(latest.UpdatedAt) {
			latest = d
		}
	}
	if latest == nil {
		return store.Draft{}, store.ErrNoDraft
	}
	return *latest, nil
}

func (f *fakeStore) CreateDraft(ctx context.Context, d store.Draft) (string, error) {
	if f.createDraftFn != nil {
		return f.createDraftFn(ctx, d)
	}
	atomic.AddInt32(&f.creates, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	d.ID = "abc123"
	d.UpdatedAt = time.Now()
	f.drafts = append(f.drafts, d)
	return d.ID, nil
}

func (f *fakeStore) UpdateDraft(ctx context.Context, id string, d store.Draft) error {
	if f.updateDraftFn != nil {
		return f.updateDraftFn(ctx, id, d)
	}
	atomic.AddInt32(&f.updates, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.drafts {
		if f.drafts[i].ID == id {
			updated := d
			updated.ID = id
			updated.UpdatedAt = time.Now()
			f.drafts[i] = updated
			return nil
		}
	}
	return store.ErrNoDraft
}

func encodedRows(t *testing.T, rows []form.Row) string {
	t.Helper()
	encoded, err := form.EncodeRows(rows)
	if err != nil {
		t.Fatalf("EncodeRows failed: %v", err)
	}
	return encoded
}

func TestLoadBlankSession(t *testing.T) {
	syncer := New(&fakeStore{}, "user-1")
	syncer.Load(context.Background())

	if got := syncer.State(); got != Ready {
		t.Fatalf("state = %s, want ready", got)
	}
	if id := syncer.DraftID(); id != "" {
		t.Errorf("draftID = %q, want empty", id)
	}

	doc := syncer.Snapshot()
	if len(doc.Rows) != 30 {
		t.Fatalf("expected 30 blank rows, got %d", len(doc.Rows))
	}
	for i, row := range doc.Rows {
		if row.Sequence != i+1 {
			t.Errorf("row %d: sequence = %d, want %d", i, row.Sequence, i+1)
		}
	}
	if doc.Date == "" {
		t.Error("expected date to default to today")
	}
}

func TestLoadSelectsMostRecentDraft(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	rows := form.New(2).Rows
	rows[0].Item = "newest"

	fs := &fakeStore{drafts: []store.Draft{
		{ID: "d1", OwnerID: "user-1", BranchName: "old", Rows: "[]", UpdatedAt: base},
		{ID: "d3", OwnerID: "user-1", BranchName: "newest", Rows: encodedRows(t, rows), UpdatedAt: base.Add(2 * time.Hour)},
		{ID: "d2", OwnerID: "user-1", BranchName: "older", Rows: "[]", UpdatedAt: base.Add(time.Hour)},
		{ID: "dx", OwnerID: "user-2", BranchName: "other user", Rows: "[]", UpdatedAt: base.Add(9 * time.Hour)},
	}}

	syncer := New(fs, "user-1")
	syncer.Load(context.Background())

	if id := syncer.DraftID(); id != "d3" {
		t.Fatalf("draftID = %q, want d3", id)
	}
	doc := syncer.Snapshot()
	if doc.BranchName != "newest" {
		t.Errorf("branchName = %q, want newest", doc.BranchName)
	}
	if doc.Rows[0].Item != "newest" {
		t.Errorf("row 0 item = %q, want decoded transport rows", doc.Rows[0].Item)
	}
}

func TestLoadQueryFailureFallsBackToBlank(t *testing.T) {
	fs := &fakeStore{
		latestDraftFn: func(context.Context, string) (store.Draft, error) {
			return store.Draft{}, errors.New("connection refused")
		},
	}
	syncer := New(fs, "user-1")
	syncer.Load(context.Background())

	if got := syncer.State(); got != Ready {
		t.Fatalf("state = %s, want ready", got)
	}
	if id := syncer.DraftID(); id != "" {
		t.Errorf("draftID = %q, want empty", id)
	}
	if got := len(syncer.Snapshot().Rows); got != 30 {
		t.Errorf("expected 30 blank rows, got %d", got)
	}
}

func TestLoadIsIdempotent(t *testing.T) {
	calls := 0
	fs := &fakeStore{
		latestDraftFn: func(context.Context, string) (store.Draft, error) {
			calls++
			return store.Draft{}, store.ErrNoDraft
		},
	}
	syncer := New(fs, "user-1")
	syncer.Load(context.Background())
	syncer.Load(context.Background())
	if calls != 1 {
		t.Errorf("expected 1 query, got %d", calls)
	}
}

func TestFirstSaveCreatesSecondSaveUpdates(t *testing.T) {
	fs := &fakeStore{}
	syncer := New(fs, "user-1")
	syncer.Load(context.Background())

	if err := syncer.Apply(func(d form.Document) (form.Document, error) {
		return form.SetHeaderField(d, form.HeaderBranchName, "Makkah-Central")
	}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if err := syncer.Save(context.Background()); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if id := syncer.DraftID(); id != "abc123" {
		t.Fatalf("draftID = %q, want abc123", id)
	}

	if err := syncer.Save(context.Background()); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}
	if got := atomic.LoadInt32(&fs.creates); got != 1 {
		t.Errorf("creates = %d, want 1", got)
	}
	if got := atomic.LoadInt32(&fs.updates); got != 1 {
		t.Errorf("updates = %d, want 1", got)
	}
}

func TestSaveFailureLeavesStateIntact(t *testing.T) {
	fs := &fakeStore{
		createDraftFn: func(context.Context, store.Draft) (string, error) {
			return "", errors.New("quota exceeded")
		},
	}
	syncer := New(fs, "user-1")
	syncer.Load(context.Background())

	if err := syncer.Apply(func(d form.Document) (form.Document, error) {
		return form.SetRowField(d, 0, form.RowItem, "rice 5kg")
	}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	if err := syncer.Save(context.Background()); err == nil {
		t.Fatal("expected save error")
	}
	if got := syncer.State(); got != Ready {
		t.Errorf("state = %s, want ready", got)
	}
	if id := syncer.DraftID(); id != "" {
		t.Errorf("draftID = %q, want empty after failed create", id)
	}
	// Unsaved edits stay visible and re-saveable.
	if got := syncer.Snapshot().Rows[0].Item; got != "rice 5kg" {
		t.Errorf("row 0 item = %q, want in-memory edit preserved", got)
	}
}

func TestSaveBeforeLoadRejected(t *testing.T) {
	syncer := New(&fakeStore{}, "user-1")
	if err := syncer.Save(context.Background()); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("err = %v, want ErrNotLoaded", err)
	}
	if err := syncer.Apply(func(d form.Document) (form.Document, error) { return d, nil }); !errors.Is(err, ErrNotLoaded) {
		t.Errorf("Apply err = %v, want ErrNotLoaded", err)
	}
}

func TestAutosaveSuppressedWhenBlank(t *testing.T) {
	var saves int32
	fs := &fakeStore{
		createDraftFn: func(context.Context, store.Draft) (string, error) {
			atomic.AddInt32(&saves, 1)
			return "abc123", nil
		},
	}
	syncer := New(fs, "user-1")
	syncer.Load(context.Background())

	stop := syncer.StartAutosave(10 * time.Millisecond)
	defer stop()

	time.Sleep(60 * time.Millisecond)
	if got := atomic.LoadInt32(&saves); got != 0 {
		t.Errorf("expected no saves for blank draft, got %d", got)
	}
}

func TestAutosavePersistsOnceEligible(t *testing.T) {
	var saves int32
	fs := &fakeStore{
		createDraftFn: func(context.Context, store.Draft) (string, error) {
			atomic.AddInt32(&saves, 1)
			return "abc123", nil
		},
	}
	syncer := New(fs, "user-1")
	syncer.Load(context.Background())

	if err := syncer.Apply(func(d form.Document) (form.Document, error) {
		return form.SetHeaderField(d, form.HeaderEnteredBy, "Salem")
	}); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	stop := syncer.StartAutosave(10 * time.Millisecond)
	defer stop()

	deadline := time.Now().Add(time.Second)
	for atomic.LoadInt32(&saves) == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if atomic.LoadInt32(&saves) == 0 {
		t.Fatal("autosave never fired for an eligible draft")
	}
}

func TestStopAutosaveHaltsFutureTicks(t *testing.T) {
	var saves int32
	fs := &fakeStore{
		createDraftFn: func(context.Context, store.Draft) (string, error) {
			atomic.AddInt32(&saves, 1)
			return "abc123", nil
		},
	}
	syncer := New(fs, "user-1")
	syncer.Load(context.Background())
	_ = syncer.Apply(func(d form.Document) (form.Document, error) {
		return form.SetHeaderField(d, form.HeaderBranchName, "Jeddah-North")
	})

	stop := syncer.StartAutosave(10 * time.Millisecond)
	time.Sleep(35 * time.Millisecond)
	stop()
	stop() // second call is harmless

	settled := atomic.LoadInt32(&saves)
	time.Sleep(50 * time.Millisecond)
	if got := atomic.LoadInt32(&saves); got != settled {
		t.Errorf("saves continued after stop: %d -> %d", settled, got)
	}
}

func TestOverlappingSavesBothComplete(t *testing.T) {
	release := make(chan struct{})
	var updates int32
	fs := &fakeStore{
		createDraftFn: func(context.Context, store.Draft) (string, error) {
			return "abc123", nil
		},
		updateDraftFn: func(context.Context, string, store.Draft) error {
			<-release
			atomic.AddInt32(&updates, 1)
			return nil
		},
	}
	syncer := New(fs, "user-1")
	syncer.Load(context.Background())
	_ = syncer.Apply(func(d form.Document) (form.Document, error) {
		return form.SetHeaderField(d, form.HeaderBranchName, "Jeddah-North")
	})
	if err := syncer.Save(context.Background()); err != nil {
		t.Fatalf("initial save failed: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	for i := 0; i < 2; i++ {
		go func() {
			defer wg.Done()
			_ = syncer.Save(context.Background())
		}()
	}

	// Both saves should be in flight at once: no mutual exclusion.
	deadline := time.Now().Add(time.Second)
	for syncer.State() != Saving && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&updates); got != 2 {
		t.Errorf("updates = %d, want 2", got)
	}
	if got := syncer.State(); got != Ready {
		t.Errorf("state = %s, want ready after saves drain", got)
	}
}
