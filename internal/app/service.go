package app

import (
	"context"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"shortfall/api/internal/artifacts"
	"shortfall/api/internal/auth"
	"shortfall/api/internal/authpw"
	"shortfall/api/internal/config"
	"shortfall/api/internal/directory"
	"shortfall/api/internal/draft"
	"shortfall/api/internal/export"
	"shortfall/api/internal/form"
	"shortfall/api/internal/search"
	"shortfall/api/internal/share"
	"shortfall/api/internal/store"
	"shortfall/api/internal/util"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Email        string
	JTI          string
	ExpiresAt    time.Time
}

// dataStore is the slice of the persistence layer the service needs.
type dataStore interface {
	Ping(ctx context.Context) error
	GetUserByID(ctx context.Context, userID string) (store.User, error)
	LatestDraftByOwner(ctx context.Context, ownerID string) (store.Draft, error)
	CreateDraft(ctx context.Context, d store.Draft) (string, error)
	UpdateDraft(ctx context.Context, id string, d store.Draft) error
}

// SessionStore holds refresh tokens. Redis serves this in production with
// the Postgres store covering when Redis is not configured.
type SessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type draftEntry struct {
	syncer       *draft.Synchronizer
	stopAutosave func()
}

type Service struct {
	cfg       config.Config
	store     dataStore
	sessions  SessionStore
	authpw    *authpw.Service
	export    *export.Service
	search    *search.Service
	artifacts *artifacts.Store
	directory directory.Directory

	draftMu sync.Mutex
	drafts  map[string]*draftEntry
}

func New(cfg config.Config, dataStore *store.PostgresStore, sessions SessionStore, authSvc *authpw.Service, searchSvc *search.Service, artifactStore *artifacts.Store, dir directory.Directory) *Service {
	return &Service{
		cfg:       cfg,
		store:     dataStore,
		sessions:  sessions,
		authpw:    authSvc,
		export:    export.NewService(cfg.ReportPrefix),
		search:    searchSvc,
		artifacts: artifactStore,
		directory: dir,
		drafts:    make(map[string]*draftEntry),
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) AuthPasswordService() *authpw.Service {
	return s.authpw
}

func (s *Service) Directory() directory.Directory {
	return s.directory
}

// SignIn verifies credentials and opens a session.
func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	user, err := s.authpw.SignIn(ctx, email, password)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:   user.ID,
		Name:  user.DisplayName,
		Email: user.Email,
		JTI:   jti,
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		Email:        user.Email,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(_ context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		UserID:    claims.Sub,
		UserName:  claims.Name,
		Email:     claims.Email,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

// Logout revokes the refresh token and tears down the user's synchronizer
// after a best-effort final save.
func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	if session.UserID == "" {
		return nil
	}

	s.draftMu.Lock()
	entry, ok := s.drafts[session.UserID]
	var stop func()
	if ok {
		delete(s.drafts, session.UserID)
		stop = entry.stopAutosave
	}
	s.draftMu.Unlock()

	if ok {
		// stop is nil when the initial load has not finished yet; in that
		// case the loading goroutine notices the removal and stops the
		// autosave loop itself.
		if stop != nil {
			stop()
		}
		snapshot := entry.syncer.Snapshot()
		if snapshot.BranchName != "" || snapshot.EnteredBy != "" {
			_ = entry.syncer.Save(ctx)
		}
	}
	return nil
}

// synchronizer returns the user's draft synchronizer, creating and loading
// one on first use. The autosave loop starts with the synchronizer and runs
// until logout.
func (s *Service) synchronizer(ctx context.Context, userID string) *draft.Synchronizer {
	s.draftMu.Lock()
	if entry, ok := s.drafts[userID]; ok {
		s.draftMu.Unlock()
		return entry.syncer
	}
	syncer := draft.New(s.store, userID)
	entry := &draftEntry{syncer: syncer}
	s.drafts[userID] = entry
	s.draftMu.Unlock()

	syncer.Load(ctx)
	stop := syncer.StartAutosave(s.cfg.AutosaveInterval)

	s.draftMu.Lock()
	if s.drafts[userID] != entry {
		// The user logged out while the initial load was in flight.
		s.draftMu.Unlock()
		stop()
		return syncer
	}
	entry.stopAutosave = stop
	s.draftMu.Unlock()
	return syncer
}

// DraftView is the document payload handed to the client.
type DraftView struct {
	DraftID  string        `json:"draftId"`
	State    string        `json:"state"`
	Document form.Document `json:"document"`
}

func (s *Service) draftView(syncer *draft.Synchronizer) DraftView {
	return DraftView{
		DraftID:  syncer.DraftID(),
		State:    syncer.State().String(),
		Document: syncer.Snapshot(),
	}
}

func (s *Service) GetDraft(ctx context.Context, session Session) DraftView {
	return s.draftView(s.synchronizer(ctx, session.UserID))
}

func (s *Service) SetHeaderField(ctx context.Context, session Session, field, value string) (DraftView, error) {
	syncer := s.synchronizer(ctx, session.UserID)
	err := syncer.Apply(func(doc form.Document) (form.Document, error) {
		return form.SetHeaderField(doc, form.HeaderField(field), value)
	})
	if err != nil {
		return DraftView{}, err
	}
	return s.draftView(syncer), nil
}

func (s *Service) SetRowField(ctx context.Context, session Session, index int, field, value string) (DraftView, error) {
	syncer := s.synchronizer(ctx, session.UserID)
	err := syncer.Apply(func(doc form.Document) (form.Document, error) {
		return form.SetRowField(doc, index, form.RowField(field), value)
	})
	if err != nil {
		return DraftView{}, err
	}
	return s.draftView(syncer), nil
}

func (s *Service) AddRow(ctx context.Context, session Session) (DraftView, error) {
	syncer := s.synchronizer(ctx, session.UserID)
	err := syncer.Apply(func(doc form.Document) (form.Document, error) {
		return form.AddRow(doc), nil
	})
	if err != nil {
		return DraftView{}, err
	}
	return s.draftView(syncer), nil
}

func (s *Service) RemoveRow(ctx context.Context, session Session, index int) (DraftView, error) {
	syncer := s.synchronizer(ctx, session.UserID)
	err := syncer.Apply(func(doc form.Document) (form.Document, error) {
		return form.RemoveRow(doc, index), nil
	})
	if err != nil {
		return DraftView{}, err
	}
	return s.draftView(syncer), nil
}

// SaveDraft persists the current document immediately and refreshes the
// search index entry.
func (s *Service) SaveDraft(ctx context.Context, session Session) (DraftView, error) {
	syncer := s.synchronizer(ctx, session.UserID)
	if err := syncer.Save(ctx); err != nil {
		return DraftView{}, err
	}
	s.indexDraft(syncer.DraftID(), session.UserID, syncer.Snapshot())
	return s.draftView(syncer), nil
}

func (s *Service) indexDraft(draftID, ownerID string, doc form.Document) {
	if s.search == nil || draftID == "" {
		return
	}
	var items []string
	for _, row := range doc.Rows {
		if row.Filled() && row.Item != "" {
			items = append(items, row.Item)
		}
	}
	s.search.IndexDraft(search.DraftRecord{
		ID:         draftID,
		OwnerID:    ownerID,
		BranchName: doc.BranchName,
		EnteredBy:  doc.EnteredBy,
		Date:       doc.Date,
		Items:      strings.Join(items, " "),
	})
}

// ExportDraft saves the current document, renders the PDF, and archives
// the artifact when object storage is configured.
func (s *Service) ExportDraft(ctx context.Context, session Session) (*export.Result, error) {
	syncer := s.synchronizer(ctx, session.UserID)
	doc := syncer.Snapshot()
	if len(export.FilterRows(doc.Rows)) == 0 {
		return nil, domainError(http.StatusUnprocessableEntity, "EMPTY_REPORT", "No filled rows to export", nil)
	}
	if err := syncer.Save(ctx); err != nil {
		return nil, err
	}
	s.indexDraft(syncer.DraftID(), session.UserID, doc)

	result, err := s.export.Render(doc)
	if err != nil {
		return nil, err
	}
	if s.artifacts != nil {
		if err := s.artifacts.Put(ctx, result.Filename, result.Data, result.MimeType); err != nil {
			// Archiving is best effort; the caller still gets the PDF.
			log.Printf("app: archive %s: %v", result.Filename, err)
		}
	}
	return result, nil
}

// ShareDraft saves the current document and builds the WhatsApp hand-off
// link. When object storage is configured the rendered artifact is archived
// alongside, best effort. An empty contact name picks the first configured
// contact.
func (s *Service) ShareDraft(ctx context.Context, session Session, contactName string) (map[string]any, error) {
	syncer := s.synchronizer(ctx, session.UserID)
	if err := syncer.Save(ctx); err != nil {
		return nil, err
	}
	doc := syncer.Snapshot()
	s.indexDraft(syncer.DraftID(), session.UserID, doc)

	if s.artifacts != nil {
		if result, err := s.export.Render(doc); err != nil {
			log.Printf("app: render for archive: %v", err)
		} else if err := s.artifacts.Put(ctx, result.Filename, result.Data, result.MimeType); err != nil {
			log.Printf("app: archive %s: %v", result.Filename, err)
		}
	}

	number := s.directory.ContactNumber(contactName)
	link, err := share.WhatsAppLink(number, doc.BranchName, doc.Date)
	if err != nil {
		return nil, domainError(http.StatusUnprocessableEntity, "NO_CONTACT", "No share contact configured", nil)
	}
	return map[string]any{
		"link":    link,
		"message": share.MessageText(doc.BranchName, doc.Date),
	}, nil
}

// SearchReports finds past reports. Results are scoped to the caller.
func (s *Service) SearchReports(_ context.Context, session Session, text string, limit, offset int) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: text}
	}
	return s.search.Search(search.Query{
		Text:    text,
		OwnerID: session.UserID,
		Limit:   limit,
		Offset:  offset,
	})
}
