// Package draft owns the authoritative in-memory shortage form for one user
// session: it resolves the current draft on load, applies editor mutations,
// and persists the form periodically and on demand.
package draft

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"shortfall/api/internal/form"
	"shortfall/api/internal/store"
)

// State tracks where a synchronizer is in its lifecycle.
type State int

const (
	Uninitialized State = iota
	Loading
	Ready
	Saving
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Saving:
		return "saving"
	default:
		return "unknown"
	}
}

// DefaultAutosaveInterval matches the fixed period of the form's autosave.
const DefaultAutosaveInterval = 30 * time.Second

// ErrNotLoaded is returned when an operation requires a loaded document.
var ErrNotLoaded = errors.New("draft not loaded")

// Store is the slice of the persistence layer the synchronizer needs.
type Store interface {
	LatestDraftByOwner(ctx context.Context, ownerID string) (store.Draft, error)
	CreateDraft(ctx context.Context, d store.Draft) (string, error)
	UpdateDraft(ctx context.Context, id string, d store.Draft) error
}

// Synchronizer holds the single in-memory Document for one user and keeps it
// in sync with the store. Saves are not serialized: overlapping saves race
// and the store's last write wins, so a stale save completing after a newer
// one is tolerated.
type Synchronizer struct {
	store   Store
	ownerID string
	now     func() time.Time

	mu       sync.Mutex
	state    State
	doc      form.Document
	draftID  string
	inflight int

	stopOnce sync.Once
	stop     chan struct{}
}

func New(st Store, ownerID string) *Synchronizer {
	return &Synchronizer{
		store:   st,
		ownerID: ownerID,
		now:     time.Now,
		stop:    make(chan struct{}),
	}
}

func (s *Synchronizer) blank() form.Document {
	doc := form.New(form.DefaultRowCount)
	doc.Date = s.now().Format("2006-01-02")
	return doc
}

// Load resolves the user's current draft: the most recently updated stored
// document, with its row transport decoded. A missing draft or a query
// failure both land in Ready with a fresh blank document and no draft id;
// failures are logged, never surfaced, and not retried; the next save will
// create. Calling Load on an already-loaded synchronizer is a no-op.
func (s *Synchronizer) Load(ctx context.Context) {
	s.mu.Lock()
	if s.state != Uninitialized {
		s.mu.Unlock()
		return
	}
	s.state = Loading
	s.mu.Unlock()

	d, err := s.store.LatestDraftByOwner(ctx, s.ownerID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Ready

	if errors.Is(err, store.ErrNoDraft) {
		s.doc = s.blank()
		s.draftID = ""
		return
	}
	if err != nil {
		log.Printf("draft: load for %s failed, starting blank: %v", s.ownerID, err)
		s.doc = s.blank()
		s.draftID = ""
		return
	}

	rows, err := form.DecodeRows([]byte(d.Rows))
	if err != nil {
		log.Printf("draft: decode rows for %s: %v", d.ID, err)
	}
	if len(rows) == 0 {
		rows = form.New(form.DefaultRowCount).Rows
	}
	date := d.Date
	if date == "" {
		date = s.now().Format("2006-01-02")
	}
	s.doc = form.Document{
		BranchName: d.BranchName,
		Department: d.Department,
		EnteredBy:  d.EnteredBy,
		Date:       date,
		Rows:       rows,
	}
	s.draftID = d.ID
}

// Save persists a snapshot of the current document. The first successful
// save with no known id creates the draft and captures the store-assigned
// identifier; every later save updates that same id. On failure the
// in-memory document and draft id are left untouched and the error is both
// logged and returned; callers decide whether it is worth surfacing.
func (s *Synchronizer) Save(ctx context.Context) error {
	s.mu.Lock()
	if s.state == Uninitialized || s.state == Loading {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	snapshot := s.doc.Clone()
	draftID := s.draftID
	s.inflight++
	s.state = Saving
	s.mu.Unlock()

	err := s.persist(ctx, draftID, snapshot)

	s.mu.Lock()
	s.inflight--
	if s.inflight == 0 {
		s.state = Ready
	}
	s.mu.Unlock()

	if err != nil {
		log.Printf("draft: save for %s failed: %v", s.ownerID, err)
		return err
	}
	return nil
}

func (s *Synchronizer) persist(ctx context.Context, draftID string, doc form.Document) error {
	encoded, err := form.EncodeRows(doc.Rows)
	if err != nil {
		return err
	}
	record := store.Draft{
		OwnerID:    s.ownerID,
		BranchName: doc.BranchName,
		Department: doc.Department,
		EnteredBy:  doc.EnteredBy,
		Date:       doc.Date,
		Rows:       encoded,
	}

	if draftID != "" {
		if err := s.store.UpdateDraft(ctx, draftID, record); err != nil {
			return fmt.Errorf("update draft: %w", err)
		}
		return nil
	}

	id, err := s.store.CreateDraft(ctx, record)
	if err != nil {
		return fmt.Errorf("create draft: %w", err)
	}
	s.mu.Lock()
	// Two racing first saves can both create; the first to finish wins the id.
	if s.draftID == "" {
		s.draftID = id
	}
	s.mu.Unlock()
	return nil
}

// Apply runs a pure editor transformation against the in-memory document
// and installs the result. The document is unchanged when fn errors.
func (s *Synchronizer) Apply(fn func(form.Document) (form.Document, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Uninitialized || s.state == Loading {
		return ErrNotLoaded
	}
	next, err := fn(s.doc)
	if err != nil {
		return err
	}
	s.doc = next
	return nil
}

// Snapshot returns a copy of the current document.
func (s *Synchronizer) Snapshot() form.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

func (s *Synchronizer) DraftID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draftID
}

func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// autosaveEligible gates the timer path: fully blank drafts (no branch and
// no enterer) are never persisted by the autosave tick.
func (s *Synchronizer) autosaveEligible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.BranchName != "" || s.doc.EnteredBy != ""
}

// StartAutosave launches the periodic save loop and returns a cancel
// function. Cancellation stops future ticks only; an in-flight save is
// never interrupted.
func (s *Synchronizer) StartAutosave(interval time.Duration) func() {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				if !s.autosaveEligible() {
					continue
				}
				_ = s.Save(context.Background())
			}
		}
	}()
	return func() {
		s.stopOnce.Do(func() { close(s.stop) })
	}
}
