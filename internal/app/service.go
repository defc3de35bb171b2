package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"beacon/api/internal/auth"
	"beacon/api/internal/authpw"
	"beacon/api/internal/config"
	"beacon/api/internal/customize"
	"beacon/api/internal/deploy"
	"beacon/api/internal/email"
	"beacon/api/internal/media"
	"beacon/api/internal/poster"
	"beacon/api/internal/publisher"
	"beacon/api/internal/rbac"
	"beacon/api/internal/search"
	"beacon/api/internal/sitetmpl"
	"beacon/api/internal/store"
	"beacon/api/internal/util"
	"beacon/api/internal/validate"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	AccountType  string
	Caps         rbac.Capabilities
	JTI          string
	ExpiresAt    time.Time
}

// CaseInput carries the editable case record fields.
type CaseInput struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	CaseType     string `json:"caseType"`
	Status       string `json:"status"`
	Summary      string `json:"summary"`
	Subdomain    string `json:"subdomain"`
	CustomDomain string `json:"customDomain"`
	PrimaryPhoto string `json:"primaryPhoto"`
	TemplateID   string `json:"templateId"`
}

// TipInput is a message submitted through a public case site.
type TipInput struct {
	Kind        string `json:"kind"`
	SenderName  string `json:"senderName"`
	SenderEmail string `json:"senderEmail"`
	Subject     string `json:"subject"`
	Body        string `json:"body"`
}

// PostInput carries spotlight post fields.
type PostInput struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	PhotoURL string `json:"photoUrl"`
}

var allowedCaseTypes = map[string]struct{}{
	"missing":      {},
	"homicide":     {},
	"unidentified": {},
}

var allowedAccessRoles = map[string]struct{}{
	"helper":   {},
	"advocate": {},
	"leo":      {},
}

type dataStore interface {
	CreateUser(context.Context, store.User) error
	GetUserByID(context.Context, string) (store.User, error)
	GetUserByEmail(context.Context, string) (store.User, error)
	UpdateAccountType(context.Context, string, string) error
	CountUsers(context.Context) (int, error)
	RevokeAccessToken(context.Context, string, time.Time) error
	IsAccessTokenRevoked(context.Context, string) (bool, error)
	CreateCase(context.Context, store.Case) error
	GetCase(context.Context, string) (store.Case, error)
	UpdateCase(context.Context, store.Case) error
	UpdateCaseDeployment(context.Context, string, string, string) error
	DeleteCase(context.Context, string) error
	ListCasesForUser(context.Context, string) ([]store.Case, error)
	ListAllCases(context.Context) ([]store.Case, error)
	SubdomainTaken(context.Context, string, string) (bool, error)
	SaveCaseDocument(context.Context, string, string, string) error
	GetCaseDocument(context.Context, string) (store.CaseDocument, error)
	CreateMessage(context.Context, store.Message) error
	ListMessages(context.Context, string) ([]store.Message, error)
	MarkMessageRead(context.Context, string) error
	CreatePost(context.Context, store.SpotlightPost) error
	GetPost(context.Context, string) (store.SpotlightPost, error)
	ListPosts(context.Context, string) ([]store.SpotlightPost, error)
	UpdatePost(context.Context, store.SpotlightPost) error
	DeletePost(context.Context, string) error
	CreateAccessRequest(context.Context, store.AccessRequest) error
	GetAccessRequest(context.Context, string) (store.AccessRequest, error)
	ListAccessRequests(context.Context, string) ([]store.AccessRequest, error)
	DecideAccessRequest(context.Context, string, string, string) error
	CaseRoleFor(context.Context, string, string) (string, error)
	CreateDeployment(context.Context, store.Deployment) error
	CompleteDeployment(context.Context, string, string, string, string) error
	ListDeployments(context.Context, string) ([]store.Deployment, error)
	Ping(ctx context.Context) error
}

// sessionStore holds refresh sessions; Redis when available, Postgres
// otherwise.
type sessionStore interface {
	SaveRefreshSession(context.Context, string, store.User, time.Time) error
	LookupRefreshSession(context.Context, string) (store.User, error)
	RevokeRefreshSession(context.Context, string) error
}

// Deps carries the optional service backends. Nil fields disable the feature.
type Deps struct {
	Sessions  sessionStore
	Publisher deploy.Backend
	Search    *search.Service
	Email     *email.Service
	Media     *media.Store
	Auth      *authpw.Service
}

// caseEditor is the server-side editing session for one case: its undo
// history plus the autosave coordinator that persists edits.
type caseEditor struct {
	autosaver *customize.Autosaver
	history   *customize.History
}

type caseDeploy struct {
	orch         *deploy.Orchestrator
	deploymentID string
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions sessionStore
	pub      deploy.Backend
	search   *search.Service
	email    *email.Service
	media    *media.Store
	authpw   *authpw.Service

	editMu  sync.Mutex
	editors map[string]*caseEditor

	deployMu sync.Mutex
	deploys  map[string]*caseDeploy
}

func New(cfg config.Config, dataStore *store.PostgresStore, deps Deps) *Service {
	sessions := deps.Sessions
	if sessions == nil {
		sessions = dataStore
	}
	return &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: sessions,
		pub:      deps.Publisher,
		search:   deps.Search,
		email:    deps.Email,
		media:    deps.Media,
		authpw:   deps.Auth,
		editors:  make(map[string]*caseEditor),
		deploys:  make(map[string]*caseDeploy),
	}
}

// Bootstrap seeds an admin account and a sample case on an empty database,
// then fills the search indexes.
func (s *Service) Bootstrap(ctx context.Context) error {
	count, err := s.store.CountUsers(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		if s.search != nil {
			s.search.ReindexAllFromPG(ctx)
		}
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("beacon-admin"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := store.User{
		ID:              util.NewID("usr"),
		DisplayName:     "Beacon Admin",
		Email:           "admin@beacon.local",
		PasswordHash:    string(hash),
		AccountType:     string(rbac.AccountAdmin),
		IsEmailVerified: true,
	}
	if err := s.store.CreateUser(ctx, admin); err != nil {
		return err
	}

	sample := store.Case{
		ID:               util.NewID("case"),
		OwnerID:          admin.ID,
		FirstName:        "Jane",
		LastName:         "Doe",
		CaseType:         "missing",
		Status:           "draft",
		Summary:          "Last seen near Riverside Park on the evening of March 3rd. Any information helps.",
		Subdomain:        "findjanedoe",
		TemplateID:       "classic",
		DeploymentStatus: "not_deployed",
	}
	if err := s.store.CreateCase(ctx, sample); err != nil {
		return err
	}

	doc := sitetmpl.DefaultCustomizations(sample.TemplateID)
	raw, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := s.store.SaveCaseDocument(ctx, sample.ID, string(raw), admin.DisplayName); err != nil {
		return err
	}

	if s.search != nil {
		s.search.ReindexAllFromPG(ctx)
	}
	return nil
}

// --- sessions ---

// CreateSession issues tokens for an already-authenticated user.
func (s *Service) CreateSession(ctx context.Context, userID string) (Session, error) {
	user, err := s.store.GetUserByID(ctx, userID)
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
		Sub:         user.ID,
		Name:        user.DisplayName,
		AccountType: user.AccountType,
		JTI:         jti,
		Exp:         expiresAt.Unix(),
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
		AccountType:  user.AccountType,
		Caps:         rbac.Derive(user.AccountType),
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, err
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, claims.Sub)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:       token,
		UserID:      user.ID,
		UserName:    user.DisplayName,
		AccountType: user.AccountType,
		Caps:        rbac.Derive(user.AccountType),
		JTI:         claims.JTI,
		ExpiresAt:   time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if session.JTI != "" {
		_ = s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt)
	}
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	return nil
}

// SetAccountType elevates or demotes a user's account type (admin only).
func (s *Service) SetAccountType(ctx context.Context, session Session, userID, accountType string) error {
	if !session.Caps.ManageUsers {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}
	normalized := rbac.Normalize(accountType)
	return s.store.UpdateAccountType(ctx, userID, string(normalized))
}

// --- case access ---

// caseAccess resolves whether the session may view and edit the case.
// Unknown or unauthorized sessions fail closed with a 403.
func (s *Service) caseAccess(ctx context.Context, session Session, c store.Case) (canEdit bool, err error) {
	if c.OwnerID == session.UserID {
		return session.Caps.EditCases, nil
	}
	if session.Caps.ViewAllCases {
		// Admin may also edit; LEO capability sets are read only.
		return session.Caps.EditCases, nil
	}
	role, err := s.store.CaseRoleFor(ctx, c.ID, session.UserID)
	if err != nil {
		return false, err
	}
	if role == "" {
		return false, domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}
	return role != "leo" && session.Caps.EditCases, nil
}

func (s *Service) caseForSession(ctx context.Context, session Session, caseID string) (store.Case, bool, error) {
	c, err := s.store.GetCase(ctx, caseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return store.Case{}, false, domainError(http.StatusNotFound, "NOT_FOUND", "Case not found", nil)
		}
		return store.Case{}, false, err
	}
	canEdit, err := s.caseAccess(ctx, session, c)
	if err != nil {
		return store.Case{}, false, err
	}
	return c, canEdit, nil
}

// RequireEditAccess checks that the session may edit the case without
// touching it. Used by handlers that gate side operations such as uploads.
func (s *Service) RequireEditAccess(ctx context.Context, session Session, caseID string) error {
	_, canEdit, err := s.caseForSession(ctx, session, caseID)
	if err != nil {
		return err
	}
	if !canEdit {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}
	return nil
}

// --- cases ---

func (s *Service) ListCases(ctx context.Context, session Session) ([]map[string]any, error) {
	var (
		cases []store.Case
		err   error
	)
	if session.Caps.ViewAllCases {
		cases, err = s.store.ListAllCases(ctx)
	} else {
		cases, err = s.store.ListCasesForUser(ctx, session.UserID)
	}
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, len(cases))
	for _, c := range cases {
		items = append(items, casePayload(c, s.cfg.SiteDomain))
	}
	return items, nil
}

func (s *Service) CreateCase(ctx context.Context, session Session, input CaseInput) (map[string]any, error) {
	if !session.Caps.CreateCases {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}
	if strings.TrimSpace(input.FirstName) == "" || strings.TrimSpace(input.LastName) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "firstName and lastName are required", nil)
	}
	caseType := input.CaseType
	if caseType == "" {
		caseType = "missing"
	}
	if _, ok := allowedCaseTypes[caseType]; !ok {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown case type", nil)
	}
	if input.Subdomain != "" {
		if err := s.ensureSubdomainFree(ctx, input.Subdomain, ""); err != nil {
			return nil, err
		}
	}
	templateID := input.TemplateID
	if _, ok := sitetmpl.Get(templateID); !ok {
		templateID = sitetmpl.FallbackTemplateID
	}

	c := store.Case{
		ID:               util.NewID("case"),
		OwnerID:          session.UserID,
		FirstName:        strings.TrimSpace(input.FirstName),
		LastName:         strings.TrimSpace(input.LastName),
		CaseType:         caseType,
		Status:           "draft",
		Summary:          input.Summary,
		Subdomain:        strings.ToLower(strings.TrimSpace(input.Subdomain)),
		CustomDomain:     strings.TrimSpace(input.CustomDomain),
		PrimaryPhoto:     input.PrimaryPhoto,
		TemplateID:       templateID,
		DeploymentStatus: "not_deployed",
	}
	if err := s.store.CreateCase(ctx, c); err != nil {
		return nil, err
	}

	doc := sitetmpl.DefaultCustomizations(templateID)
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveCaseDocument(ctx, c.ID, string(raw), session.UserName); err != nil {
		return nil, err
	}

	s.indexCase(c)
	return casePayload(c, s.cfg.SiteDomain), nil
}

func (s *Service) GetCase(ctx context.Context, session Session, caseID string) (map[string]any, error) {
	c, canEdit, err := s.caseForSession(ctx, session, caseID)
	if err != nil {
		return nil, err
	}
	payload := casePayload(c, s.cfg.SiteDomain)
	payload["canEdit"] = canEdit
	return payload, nil
}

func (s *Service) UpdateCase(ctx context.Context, session Session, caseID string, input CaseInput) (map[string]any, error) {
	c, canEdit, err := s.caseForSession(ctx, session, caseID)
	if err != nil {
		return nil, err
	}
	if !canEdit {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}

	if input.FirstName != "" {
		c.FirstName = strings.TrimSpace(input.FirstName)
	}
	if input.LastName != "" {
		c.LastName = strings.TrimSpace(input.LastName)
	}
	if input.CaseType != "" {
		if _, ok := allowedCaseTypes[input.CaseType]; !ok {
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown case type", nil)
		}
		c.CaseType = input.CaseType
	}
	if input.Status != "" {
		c.Status = input.Status
	}
	if input.Summary != "" {
		c.Summary = input.Summary
	}
	if input.Subdomain != "" && input.Subdomain != c.Subdomain {
		if err := s.ensureSubdomainFree(ctx, input.Subdomain, c.ID); err != nil {
			return nil, err
		}
		c.Subdomain = strings.ToLower(strings.TrimSpace(input.Subdomain))
	}
	if input.CustomDomain != "" {
		if !validate.CustomDomain(input.CustomDomain) {
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid custom domain", nil)
		}
		c.CustomDomain = strings.TrimSpace(input.CustomDomain)
	}
	if input.PrimaryPhoto != "" {
		c.PrimaryPhoto = input.PrimaryPhoto
	}
	if input.TemplateID != "" {
		if _, ok := sitetmpl.Get(input.TemplateID); !ok {
			return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "unknown template", nil)
		}
		c.TemplateID = input.TemplateID
	}

	if err := s.store.UpdateCase(ctx, c); err != nil {
		return nil, err
	}
	s.indexCase(c)
	return casePayload(c, s.cfg.SiteDomain), nil
}

func (s *Service) DeleteCase(ctx context.Context, session Session, caseID string) error {
	c, _, err := s.caseForSession(ctx, session, caseID)
	if err != nil {
		return err
	}
	if c.OwnerID != session.UserID && !session.Caps.ManageUsers {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}
	if err := s.store.DeleteCase(ctx, caseID); err != nil {
		return err
	}
	s.closeEditor(caseID)
	if s.search != nil {
		s.search.DeleteCase(caseID)
	}
	return nil
}

// CheckSubdomain answers availability without reserving anything.
func (s *Service) CheckSubdomain(ctx context.Context, subdomain, excludeCaseID string) (map[string]any, error) {
	subdomain = strings.ToLower(strings.TrimSpace(subdomain))
	if !validate.Subdomain(subdomain) {
		message := "subdomain must be 3-50 characters: lowercase letters, digits, and single hyphens"
		if validate.ReservedSubdomain(subdomain) {
			message = "this subdomain is reserved"
		}
		return map[string]any{"available": false, "message": message}, nil
	}
	taken, err := s.store.SubdomainTaken(ctx, subdomain, excludeCaseID)
	if err != nil {
		return nil, err
	}
	if taken {
		return map[string]any{"available": false, "message": "this subdomain is already in use"}, nil
	}
	return map[string]any{"available": true, "message": ""}, nil
}

func (s *Service) ensureSubdomainFree(ctx context.Context, subdomain, excludeCaseID string) error {
	result, err := s.CheckSubdomain(ctx, subdomain, excludeCaseID)
	if err != nil {
		return err
	}
	if available, _ := result["available"].(bool); !available {
		message, _ := result["message"].(string)
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", message, map[string]any{"field": "subdomain"})
	}
	return nil
}

// --- customization documents ---

// loadDocument reads the persisted customization document for a case and
// merges it over the template defaults, so reads degrade gracefully when the
// stored document predates a template change.
func (s *Service) loadDocument(ctx context.Context, c store.Case) (customize.Document, error) {
	defaults := sitetmpl.DefaultCustomizations(c.TemplateID)
	row, err := s.store.GetCaseDocument(ctx, c.ID)
	if errors.Is(err, store.ErrNotFound) {
		return defaults, nil
	}
	if err != nil {
		return customize.Document{}, err
	}
	var doc customize.Document
	if err := json.Unmarshal([]byte(row.Document), &doc); err != nil {
		return customize.Document{}, fmt.Errorf("decode case document: %w", err)
	}
	return customize.Merge(doc, defaults), nil
}

func (s *Service) GetCustomization(ctx context.Context, session Session, caseID string) (map[string]any, error) {
	c, canEdit, err := s.caseForSession(ctx, session, caseID)
	if err != nil {
		return nil, err
	}
	doc, err := s.loadDocument(ctx, c)
	if err != nil {
		return nil, err
	}
	editor := s.peekEditor(caseID)
	payload := map[string]any{
		"document": customize.FormatForAPI(doc),
		"canEdit":  canEdit,
	}
	if editor != nil {
		payload["document"] = customize.FormatForAPI(editor.history.Current())
		payload["dirty"] = editor.autosaver.Dirty()
		payload["canUndo"] = editor.history.CanUndo()
		payload["canRedo"] = editor.history.CanRedo()
	}
	return payload, nil
}

// UpdateCustomization records an edit: it lands in the undo history and is
// persisted by the autosave coordinator on its debounce schedule.
func (s *Service) UpdateCustomization(ctx context.Context, session Session, caseID string, doc customize.Document) (map[string]any, error) {
	c, canEdit, err := s.caseForSession(ctx, session, caseID)
	if err != nil {
		return nil, err
	}
	if !canEdit {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}

	result := customize.Validate(doc)
	if !result.Valid {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "customization document invalid", result.Errors)
	}

	editor, err := s.editor(ctx, c, session.UserName)
	if err != nil {
		return nil, err
	}
	editor.history.Push(doc)
	editor.autosaver.Update(doc)

	return map[string]any{
		"dirty":      editor.autosaver.Dirty(),
		"canUndo":    editor.history.CanUndo(),
		"canRedo":    editor.history.CanRedo(),
		"nextSaveMs": editor.autosaver.NextSaveIn().Milliseconds(),
		"warnings":   result.Warnings,
	}, nil
}

// SaveCustomization flushes pending edits immediately, bypassing the
// debounce.
func (s *Service) SaveCustomization(ctx context.Context, session Session, caseID string) (map[string]any, error) {
	_, canEdit, err := s.caseForSession(ctx, session, caseID)
	if err != nil {
		return nil, err
	}
	if !canEdit {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}
	editor := s.peekEditor(caseID)
	if editor == nil {
		return map[string]any{"saved": true, "dirty": false}, nil
	}
	if err := editor.autosaver.SaveNow(); err != nil {
		return nil, fmt.Errorf("save customization: %w", err)
	}
	return map[string]any{"saved": true, "dirty": editor.autosaver.Dirty()}, nil
}

func (s *Service) UndoCustomization(ctx context.Context, session Session, caseID string) (map[string]any, error) {
	return s.stepHistory(ctx, session, caseID, true)
}

func (s *Service) RedoCustomization(ctx context.Context, session Session, caseID string) (map[string]any, error) {
	return s.stepHistory(ctx, session, caseID, false)
}

func (s *Service) stepHistory(ctx context.Context, session Session, caseID string, undo bool) (map[string]any, error) {
	c, canEdit, err := s.caseForSession(ctx, session, caseID)
	if err != nil {
		return nil, err
	}
	if !canEdit {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}
	editor, err := s.editor(ctx, c, session.UserName)
	if err != nil {
		return nil, err
	}

	var (
		doc customize.Document
		ok  bool
	)
	if undo {
		doc, ok = editor.history.Undo()
	} else {
		doc, ok = editor.history.Redo()
	}
	if !ok {
		return nil, domainError(http.StatusConflict, "HISTORY_EXHAUSTED", "Nothing to step to", nil)
	}
	editor.autosaver.Update(doc)

	return map[string]any{
		"document": customize.FormatForAPI(doc),
		"canUndo":  editor.history.CanUndo(),
		"canRedo":  editor.history.CanRedo(),
		"dirty":    editor.autosaver.Dirty(),
	}, nil
}

// editor returns the case's editing session, creating it from the persisted
// document on first touch.
func (s *Service) editor(ctx context.Context, c store.Case, userName string) (*caseEditor, error) {
	s.editMu.Lock()
	if existing, ok := s.editors[c.ID]; ok {
		s.editMu.Unlock()
		return existing, nil
	}
	s.editMu.Unlock()

	initial, err := s.loadDocument(ctx, c)
	if err != nil {
		return nil, err
	}

	caseID := c.ID
	saveFn := func(saveCtx context.Context, doc customize.Document) error {
		raw, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("encode case document: %w", err)
		}
		return s.store.SaveCaseDocument(saveCtx, caseID, string(raw), userName)
	}

	s.editMu.Lock()
	defer s.editMu.Unlock()
	if existing, ok := s.editors[c.ID]; ok {
		return existing, nil
	}
	editor := &caseEditor{
		history: customize.NewHistory(initial, customize.DefaultHistoryCap),
		autosaver: customize.NewAutosaver(context.Background(), initial, saveFn, customize.AutosaveConfig{
			OnError: func(err error) {
				log.Printf("autosave: case %s: %v", caseID, err)
			},
		}),
	}
	s.editors[c.ID] = editor
	return editor, nil
}

func (s *Service) peekEditor(caseID string) *caseEditor {
	s.editMu.Lock()
	defer s.editMu.Unlock()
	return s.editors[caseID]
}

func (s *Service) closeEditor(caseID string) {
	s.editMu.Lock()
	defer s.editMu.Unlock()
	if editor, ok := s.editors[caseID]; ok {
		editor.autosaver.Close()
		delete(s.editors, caseID)
	}
}

// --- deployment ---

// DeployCase starts a deploy in the background and returns the deployment
// record ID. At most one deploy runs per case at a time.
func (s *Service) DeployCase(ctx context.Context, session Session, caseID string, force bool) (map[string]any, error) {
	if s.pub == nil {
		return nil, domainError(http.StatusServiceUnavailable, "DEPLOY_UNAVAILABLE", "Deployment backend not configured", nil)
	}
	c, canEdit, err := s.caseForSession(ctx, session, caseID)
	if err != nil {
		return nil, err
	}
	if !canEdit || !session.Caps.DeploySites {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}

	doc, err := s.loadDocument(ctx, c)
	if err != nil {
		return nil, err
	}
	if editor := s.peekEditor(caseID); editor != nil {
		doc = editor.history.Current()
	}

	s.deployMu.Lock()
	if existing, ok := s.deploys[caseID]; ok {
		record := existing.orch.Record()
		if record.Status == deploy.StatusPreparing || record.Status == deploy.StatusDeploying || record.Status == deploy.StatusChecking {
			s.deployMu.Unlock()
			return nil, domainError(http.StatusConflict, "DEPLOY_IN_PROGRESS", "A deploy is already running for this case", nil)
		}
	}

	var saver deploy.Saver
	if editor := s.peekEditor(caseID); editor != nil {
		saver = editor.autosaver
	}
	orch := deploy.New(s.pub, saver)
	deploymentID := util.NewID("dep")
	s.deploys[caseID] = &caseDeploy{orch: orch, deploymentID: deploymentID}
	s.deployMu.Unlock()

	if err := s.store.CreateDeployment(ctx, store.Deployment{
		ID:         deploymentID,
		CaseID:     caseID,
		Subdomain:  c.Subdomain,
		Status:     string(deploy.StatusPreparing),
		DeployedBy: session.UserName,
	}); err != nil {
		return nil, err
	}
	if err := s.store.UpdateCaseDeployment(ctx, caseID, "deploying", c.SiteURL); err != nil {
		return nil, err
	}

	caseData := caseDeployData(c)
	opts := deploy.Options{
		Force:       force,
		HasExisting: c.DeploymentStatus == "deployed",
	}

	go func() {
		record := orch.Deploy(context.Background(), caseID, doc, caseData, opts)
		s.finishDeploy(caseID, deploymentID, record)
	}()

	return map[string]any{
		"deploymentId": deploymentID,
		"status":       string(deploy.StatusPreparing),
	}, nil
}

func (s *Service) finishDeploy(caseID, deploymentID string, record deploy.Record) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	errMessage := ""
	if record.Err != nil {
		errMessage = record.Err.Error()
	}
	if err := s.store.CompleteDeployment(ctx, deploymentID, string(record.Status), record.URL, errMessage); err != nil {
		log.Printf("deploy: record completion for case %s: %v", caseID, err)
	}

	caseStatus := "failed"
	switch record.Status {
	case deploy.StatusCompleted:
		caseStatus = "deployed"
	case deploy.StatusCancelled:
		caseStatus = "not_deployed"
	}
	if err := s.store.UpdateCaseDeployment(ctx, caseID, caseStatus, record.URL); err != nil {
		log.Printf("deploy: update case %s status: %v", caseID, err)
	}
}

// DeployStatus reports the in-flight record when a deploy is running,
// otherwise the latest persisted deployment.
func (s *Service) DeployStatus(ctx context.Context, session Session, caseID string) (map[string]any, error) {
	if _, _, err := s.caseForSession(ctx, session, caseID); err != nil {
		return nil, err
	}

	s.deployMu.Lock()
	current, ok := s.deploys[caseID]
	s.deployMu.Unlock()
	if ok {
		record := current.orch.Record()
		payload := map[string]any{
			"deploymentId": current.deploymentID,
			"status":       string(record.Status),
			"progress":     record.Progress,
			"url":          record.URL,
			"skipped":      record.Skipped,
		}
		if record.Err != nil {
			payload["error"] = record.Err.Error()
		}
		return payload, nil
	}

	deployments, err := s.store.ListDeployments(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if len(deployments) == 0 {
		return map[string]any{"status": string(deploy.StatusIdle)}, nil
	}
	latest := deployments[0]
	payload := map[string]any{
		"deploymentId": latest.ID,
		"status":       latest.Status,
		"url":          latest.URL,
	}
	if latest.Error != "" {
		payload["error"] = latest.Error
	}
	return payload, nil
}

func (s *Service) CancelDeploy(ctx context.Context, session Session, caseID string) error {
	_, canEdit, err := s.caseForSession(ctx, session, caseID)
	if err != nil {
		return err
	}
	if !canEdit || !session.Caps.DeploySites {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}
	s.deployMu.Lock()
	current, ok := s.deploys[caseID]
	s.deployMu.Unlock()
	if !ok {
		return domainError(http.StatusConflict, "NO_DEPLOY", "No deploy is running for this case", nil)
	}
	current.orch.Cancel()
	return nil
}

// releaseLister is implemented by deploy backends that keep a git release
// log for each published site.
type releaseLister interface {
	ReleaseHistory(caseID string, limit int) ([]publisher.Release, error)
}

// ListDeployments returns the recorded deploy attempts for a case, plus the
// backend's release log when it keeps one.
func (s *Service) ListDeployments(ctx context.Context, session Session, caseID string) (map[string]any, error) {
	if _, _, err := s.caseForSession(ctx, session, caseID); err != nil {
		return nil, err
	}
	deployments, err := s.store.ListDeployments(ctx, caseID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(deployments))
	for _, d := range deployments {
		item := map[string]any{
			"id":         d.ID,
			"status":     d.Status,
			"url":        d.URL,
			"deployedBy": d.DeployedBy,
			"createdAt":  d.CreatedAt,
		}
		if d.Error != "" {
			item["error"] = d.Error
		}
		if d.CompletedAt != nil {
			item["completedAt"] = d.CompletedAt
		}
		items = append(items, item)
	}
	payload := map[string]any{"deployments": items}

	if lister, ok := s.pub.(releaseLister); ok {
		releases, err := lister.ReleaseHistory(caseID, 20)
		if err != nil {
			log.Printf("deploy: release history for case %s: %v", caseID, err)
		} else {
			releaseItems := make([]map[string]any, 0, len(releases))
			for _, rel := range releases {
				releaseItems = append(releaseItems, map[string]any{
					"hash":      rel.Hash,
					"message":   strings.TrimSpace(rel.Message),
					"author":    rel.Author,
					"createdAt": rel.CreatedAt,
				})
			}
			payload["releases"] = releaseItems
		}
	}
	return payload, nil
}

// --- messages and tips ---

// SubmitTip accepts a message from a public case site. No session required.
func (s *Service) SubmitTip(ctx context.Context, caseID string, input TipInput) (map[string]any, error) {
	c, err := s.store.GetCase(ctx, caseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Case not found", nil)
		}
		return nil, err
	}
	if strings.TrimSpace(input.Body) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "message body is required", nil)
	}
	kind := input.Kind
	if kind != "tip" && kind != "message" {
		kind = "tip"
	}

	msg := store.Message{
		ID:          util.NewID("msg"),
		CaseID:      c.ID,
		Kind:        kind,
		SenderName:  strings.TrimSpace(input.SenderName),
		SenderEmail: strings.TrimSpace(input.SenderEmail),
		Subject:     strings.TrimSpace(input.Subject),
		Body:        input.Body,
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}

	if s.search != nil {
		s.search.IndexTip(search.TipRecord{
			ID:      msg.ID,
			Subject: msg.Subject,
			Body:    msg.Body,
			CaseID:  msg.CaseID,
			Kind:    msg.Kind,
		})
	}
	s.notifyTip(c, msg)

	return map[string]any{"id": msg.ID, "received": true}, nil
}

func (s *Service) notifyTip(c store.Case, msg store.Message) {
	if s.email == nil || !s.email.IsConfigured() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		owner, err := s.store.GetUserByID(ctx, c.OwnerID)
		if err != nil {
			log.Printf("email: lookup case owner %s: %v", c.OwnerID, err)
			return
		}
		caseName := strings.TrimSpace(c.FirstName + " " + c.LastName)
		inboxURL := fmt.Sprintf("https://app.%s/cases/%s/inbox", s.cfg.SiteDomain, c.ID)
		if err := s.email.SendTipNotification(owner.Email, caseName, msg.Subject, inboxURL); err != nil {
			log.Printf("email: tip notification for case %s: %v", c.ID, err)
		}
	}()
}

// NotifyVerification emails the account verification link. No-op when SMTP
// is unconfigured; callers fall back to returning the token directly.
func (s *Service) NotifyVerification(email, name, token string) {
	if s.email == nil || !s.email.IsConfigured() {
		return
	}
	go func() {
		verifyURL := fmt.Sprintf("https://app.%s/verify-email?token=%s", s.cfg.SiteDomain, token)
		if err := s.email.SendVerificationEmail(email, name, verifyURL); err != nil {
			log.Printf("email: verification for %s: %v", email, err)
		}
	}()
}

// NotifyPasswordReset emails the password reset link.
func (s *Service) NotifyPasswordReset(email, token string) {
	if s.email == nil || !s.email.IsConfigured() || token == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		name := email
		if user, err := s.store.GetUserByEmail(ctx, email); err == nil {
			name = user.DisplayName
		}
		resetURL := fmt.Sprintf("https://app.%s/reset-password?token=%s", s.cfg.SiteDomain, token)
		if err := s.email.SendPasswordResetEmail(email, name, resetURL); err != nil {
			log.Printf("email: password reset for %s: %v", email, err)
		}
	}()
}

// canReadMessages: the owner reads their own inbox; otherwise the account
// needs the view-all-messages capability (admin, LEO).
func (s *Service) canReadMessages(session Session, c store.Case) bool {
	return c.OwnerID == session.UserID || session.Caps.ViewAllMessages
}

func (s *Service) ListMessages(ctx context.Context, session Session, caseID string) ([]map[string]any, error) {
	c, _, err := s.caseForSession(ctx, session, caseID)
	if err != nil {
		return nil, err
	}
	if !s.canReadMessages(session, c) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}
	messages, err := s.store.ListMessages(ctx, caseID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(messages))
	for _, m := range messages {
		items = append(items, map[string]any{
			"id":          m.ID,
			"kind":        m.Kind,
			"senderName":  m.SenderName,
			"senderEmail": m.SenderEmail,
			"subject":     m.Subject,
			"body":        m.Body,
			"isRead":      m.IsRead,
			"createdAt":   m.CreatedAt,
		})
	}
	return items, nil
}

func (s *Service) MarkMessageRead(ctx context.Context, session Session, caseID, messageID string) error {
	c, _, err := s.caseForSession(ctx, session, caseID)
	if err != nil {
		return err
	}
	if !s.canReadMessages(session, c) {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}
	if err := s.store.MarkMessageRead(ctx, messageID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainError(http.StatusNotFound, "NOT_FOUND", "Message not found", nil)
		}
		return err
	}
	return nil
}

// --- spotlight posts ---

func (s *Service) CreatePost(ctx context.Context, session Session, caseID string, input PostInput) (map[string]any, error) {
	_, canEdit, err := s.caseForSession(ctx, session, caseID)
	if err != nil {
		return nil, err
	}
	if !canEdit || !session.Caps.CreatePosts {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}
	if strings.TrimSpace(input.Title) == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "title is required", nil)
	}

	post := store.SpotlightPost{
		ID:       util.NewID("post"),
		CaseID:   caseID,
		AuthorID: session.UserID,
		Title:    strings.TrimSpace(input.Title),
		Body:     input.Body,
		PhotoURL: input.PhotoURL,
	}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	if s.search != nil {
		s.search.IndexPost(search.PostRecord{ID: post.ID, Title: post.Title, Body: post.Body, CaseID: post.CaseID})
	}
	post.AuthorName = session.UserName
	return postPayload(post), nil
}

func (s *Service) ListPosts(ctx context.Context, session Session, caseID string) ([]map[string]any, error) {
	if _, _, err := s.caseForSession(ctx, session, caseID); err != nil {
		return nil, err
	}
	posts, err := s.store.ListPosts(ctx, caseID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(posts))
	for _, p := range posts {
		items = append(items, postPayload(p))
	}
	return items, nil
}

func (s *Service) UpdatePost(ctx context.Context, session Session, caseID, postID string, input PostInput) (map[string]any, error) {
	if _, _, err := s.caseForSession(ctx, session, caseID); err != nil {
		return nil, err
	}
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Post not found", nil)
		}
		return nil, err
	}
	if post.AuthorID != session.UserID && !session.Caps.ManageUsers {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}
	if input.Title != "" {
		post.Title = strings.TrimSpace(input.Title)
	}
	if input.Body != "" {
		post.Body = input.Body
	}
	if input.PhotoURL != "" {
		post.PhotoURL = input.PhotoURL
	}
	if err := s.store.UpdatePost(ctx, post); err != nil {
		return nil, err
	}
	if s.search != nil {
		s.search.IndexPost(search.PostRecord{ID: post.ID, Title: post.Title, Body: post.Body, CaseID: post.CaseID})
	}
	return postPayload(post), nil
}

func (s *Service) DeletePost(ctx context.Context, session Session, caseID, postID string) error {
	c, _, err := s.caseForSession(ctx, session, caseID)
	if err != nil {
		return err
	}
	post, err := s.store.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainError(http.StatusNotFound, "NOT_FOUND", "Post not found", nil)
		}
		return err
	}
	if post.AuthorID != session.UserID && c.OwnerID != session.UserID && !session.Caps.ManageUsers {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}
	if err := s.store.DeletePost(ctx, postID); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeletePost(postID)
	}
	return nil
}

// --- access requests ---

func (s *Service) RequestAccess(ctx context.Context, session Session, caseID, role, note string) (map[string]any, error) {
	c, err := s.store.GetCase(ctx, caseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Case not found", nil)
		}
		return nil, err
	}
	if c.OwnerID == session.UserID {
		return nil, domainError(http.StatusConflict, "ALREADY_OWNER", "You already own this case", nil)
	}
	if _, ok := allowedAccessRoles[role]; !ok {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "role must be helper, advocate, or leo", nil)
	}

	req := store.AccessRequest{
		ID:            util.NewID("areq"),
		CaseID:        caseID,
		RequesterID:   session.UserID,
		RequestedRole: role,
		Note:          note,
		Status:        "pending",
	}
	if err := s.store.CreateAccessRequest(ctx, req); err != nil {
		return nil, err
	}
	s.notifyAccessRequest(c, session.UserName, role)
	return map[string]any{"id": req.ID, "status": req.Status}, nil
}

func (s *Service) notifyAccessRequest(c store.Case, requesterName, role string) {
	if s.email == nil || !s.email.IsConfigured() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		owner, err := s.store.GetUserByID(ctx, c.OwnerID)
		if err != nil {
			log.Printf("email: lookup case owner %s: %v", c.OwnerID, err)
			return
		}
		caseName := strings.TrimSpace(c.FirstName + " " + c.LastName)
		requestsURL := fmt.Sprintf("https://app.%s/cases/%s/access-requests", s.cfg.SiteDomain, c.ID)
		if err := s.email.SendAccessRequestNotification(owner.Email, caseName, requesterName, role, requestsURL); err != nil {
			log.Printf("email: access request for case %s: %v", c.ID, err)
		}
	}()
}

func (s *Service) canManageAccess(session Session, c store.Case) bool {
	return (c.OwnerID == session.UserID && session.Caps.ManageAccess) || session.Caps.ManageUsers
}

func (s *Service) ListAccessRequests(ctx context.Context, session Session, caseID string) ([]map[string]any, error) {
	c, _, err := s.caseForSession(ctx, session, caseID)
	if err != nil {
		return nil, err
	}
	if !s.canManageAccess(session, c) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}
	requests, err := s.store.ListAccessRequests(ctx, caseID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(requests))
	for _, req := range requests {
		item := map[string]any{
			"id":             req.ID,
			"requesterId":    req.RequesterID,
			"requesterName":  req.RequesterName,
			"requesterEmail": req.RequesterEmail,
			"role":           req.RequestedRole,
			"note":           req.Note,
			"status":         req.Status,
			"createdAt":      req.CreatedAt,
		}
		if req.DecidedAt != nil {
			item["decidedAt"] = req.DecidedAt
			item["decidedBy"] = req.DecidedBy
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Service) DecideAccessRequest(ctx context.Context, session Session, caseID, requestID, decision string) error {
	c, _, err := s.caseForSession(ctx, session, caseID)
	if err != nil {
		return err
	}
	if !s.canManageAccess(session, c) {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}
	if decision != "approved" && decision != "denied" {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "decision must be approved or denied", nil)
	}
	if err := s.store.DecideAccessRequest(ctx, requestID, session.UserID, decision); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domainError(http.StatusNotFound, "NOT_FOUND", "Access request not found or already decided", nil)
		}
		return err
	}
	return nil
}

// --- search ---

func (s *Service) Search(ctx context.Context, session Session, text, filterType, caseID string, limit, offset int) (search.Response, error) {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: text}, nil
	}
	return s.search.Search(search.Query{
		Text:         text,
		FilterType:   search.ResultType(filterType),
		FilterCaseID: caseID,
		Limit:        limit,
		Offset:       offset,
		IncludeTips:  session.Caps.ViewAllMessages,
	}), nil
}

// --- poster ---

func (s *Service) PosterForCase(ctx context.Context, session Session, caseID, format string) (*poster.Result, error) {
	c, _, err := s.caseForSession(ctx, session, caseID)
	if err != nil {
		return nil, err
	}
	doc, err := s.loadDocument(ctx, c)
	if err != nil {
		return nil, err
	}

	primaryColor, _ := customize.Get(doc, "global.primaryColor", "").(string)
	tipLine, _ := customize.Get(doc, "global.tipLine", "").(string)

	return poster.Generate(poster.Request{
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		CaseType:     c.CaseType,
		Summary:      c.Summary,
		PrimaryPhoto: c.PrimaryPhoto,
		SiteURL:      siteURL(c, s.cfg.SiteDomain),
		TipLine:      tipLine,
		PrimaryColor: primaryColor,
		Format:       format,
	})
}

// --- misc ---

func (s *Service) indexCase(c store.Case) {
	if s.search == nil {
		return
	}
	s.search.IndexCase(search.CaseRecord{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Summary:   c.Summary,
		Subdomain: c.Subdomain,
		Status:    c.Status,
	})
}

func (s *Service) AuthPasswordService() *authpw.Service {
	return s.authpw
}

func (s *Service) MediaStore() *media.Store {
	return s.media
}

func (s *Service) SMTPConfigured() bool {
	return s.email != nil && s.email.IsConfigured()
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Close shuts down the editing sessions, flushing nothing: pending edits
// were already scheduled by their autosavers.
func (s *Service) Close() {
	s.editMu.Lock()
	defer s.editMu.Unlock()
	for caseID, editor := range s.editors {
		editor.autosaver.Close()
		delete(s.editors, caseID)
	}
}

func caseDeployData(c store.Case) map[string]any {
	return map[string]any{
		"first_name":    c.FirstName,
		"last_name":     c.LastName,
		"subdomain":     c.Subdomain,
		"custom_domain": c.CustomDomain,
		"primary_photo": c.PrimaryPhoto,
		"template_id":   c.TemplateID,
	}
}

func siteURL(c store.Case, siteDomain string) string {
	if c.CustomDomain != "" {
		return "https://" + c.CustomDomain + "/"
	}
	if c.Subdomain == "" {
		return ""
	}
	return fmt.Sprintf("https://%s.%s/", c.Subdomain, siteDomain)
}

func casePayload(c store.Case, siteDomain string) map[string]any {
	return map[string]any{
		"id":               c.ID,
		"ownerId":          c.OwnerID,
		"firstName":        c.FirstName,
		"lastName":         c.LastName,
		"caseType":         c.CaseType,
		"status":           c.Status,
		"summary":          c.Summary,
		"subdomain":        c.Subdomain,
		"customDomain":     c.CustomDomain,
		"primaryPhoto":     c.PrimaryPhoto,
		"templateId":       c.TemplateID,
		"deploymentStatus": c.DeploymentStatus,
		"siteUrl":          siteURL(c, siteDomain),
		"createdAt":        c.CreatedAt,
		"updatedAt":        c.UpdatedAt,
	}
}

func postPayload(p store.SpotlightPost) map[string]any {
	return map[string]any{
		"id":         p.ID,
		"caseId":     p.CaseID,
		"authorId":   p.AuthorID,
		"authorName": p.AuthorName,
		"title":      p.Title,
		"body":       p.Body,
		"photoUrl":   p.PhotoURL,
		"createdAt":  p.CreatedAt,
		"updatedAt":  p.UpdatedAt,
	}
}
