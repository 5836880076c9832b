// Package web serves the operator pages: sign in, upload a roster, review the
// draft, finalize, and download the latest report.
package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"absentee/internal/adapters/auth"
	"absentee/internal/adapters/http/middleware"
	"absentee/internal/domain/absentee"
	"absentee/internal/domain/account"
	"absentee/internal/observability"
	"absentee/internal/observability/perf"
)

// DefaultMaxUploadBytes bounds a roster upload when Deps leaves it unset.
const DefaultMaxUploadBytes = 10 << 20

// ReportStore is the durable report store the handlers read and replace.
type ReportStore interface {
	Replace(ctx context.Context, r absentee.Report) error
	Latest(ctx context.Context) (absentee.Report, error)
}

// DraftStore holds each session's draft between upload and finalize.
type DraftStore interface {
	Put(sessionID string, d absentee.Draft)
	Get(sessionID, draftID string) (absentee.Draft, bool)
	Delete(sessionID string)
}

// Deps are the collaborators a Server needs. Checker, Reports and Drafts are required.
type Deps struct {
	Checker   auth.CredentialChecker
	Reports   ReportStore
	Drafts    DraftStore
	Settings  absentee.Settings
	Collector *perf.Collector
	// Ping reports database health for /healthz. Nil means always healthy.
	Ping func(ctx context.Context) error

	CSRFKey        []byte
	Production     bool
	MaxUploadBytes int64
	LoginRateLimit int // login attempts per minute per IP
	SlowRequestMS  int
	SessionTTL     time.Duration

	Now        func() time.Time
	GenerateID func() string
}

// Server wires handlers to their dependencies. Nothing is kept in package globals.
type Server struct {
	deps         Deps
	sessions     *middleware.SessionStore
	loginLimiter *middleware.RateLimiter
	pages        map[string]*template.Template
}

// NewServer validates deps and parses the page templates.
// PRE: deps.Checker, deps.Reports and deps.Drafts are set; CSRFKey is 32 bytes
// POST: Handler is ready to serve
func NewServer(deps Deps) (*Server, error) {
	if deps.Checker == nil || deps.Reports == nil || deps.Drafts == nil {
		return nil, errors.New("web: Checker, Reports and Drafts are required")
	}
	if len(deps.CSRFKey) != 32 {
		return nil, errors.New("web: CSRF key must be 32 bytes")
	}
	if err := deps.Settings.Validate(); err != nil {
		return nil, err
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if deps.LoginRateLimit <= 0 {
		deps.LoginRateLimit = 10
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.GenerateID == nil {
		deps.GenerateID = func() string { return uuid.New().String() }
	}

	pages, err := parsePages()
	if err != nil {
		return nil, err
	}

	return &Server{
		deps:         deps,
		sessions:     middleware.NewSessionStore(deps.SessionTTL, deps.Production),
		loginLimiter: middleware.NewRateLimiter(deps.LoginRateLimit, time.Minute),
		pages:        pages,
	}, nil
}

// Handler returns the routed mux wrapped in the middleware chain.
// Order, outermost first: Timing, body limit, security headers, CSRF, session auth.
func (s *Server) Handler() http.Handler {
	return middleware.Chain(s.routes(),
		middleware.Auth(s.sessions),
		middleware.CSRF(s.deps.CSRFKey, s.deps.Production),
		middleware.SecurityHeaders,
		middleware.MaxBodySize(s.deps.MaxUploadBytes+1<<20),
		middleware.Timing(s.deps.Collector, s.deps.SlowRequestMS),
	)
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	page := func(h http.HandlerFunc) http.Handler { return middleware.RequireAuth(h) }

	mux.HandleFunc("GET /login", s.handleLoginForm)
	mux.Handle("POST /login", middleware.RateLimit(s.loginLimiter)(http.HandlerFunc(s.handleLogin)))
	mux.HandleFunc("POST /logout", s.handleLogout)

	mux.Handle("GET /{$}", page(s.handleUploadForm))
	mux.Handle("POST /reports/draft", page(s.handleCreateDraft))
	mux.Handle("GET /reports/draft/{id}", page(s.handleReviewDraft))
	mux.Handle("POST /reports/draft/{id}/finalize", page(s.handleFinalize))
	mux.Handle("GET /reports/latest", page(s.handleLatestReport))
	mux.Handle("GET /reports/latest.xlsx", page(s.handleLatestWorkbook))
	mux.Handle("GET /api/reports/latest", page(s.handleLatestReportJSON))

	mux.Handle("GET /admin/perf", middleware.RequireRole(account.RoleAdmin)(http.HandlerFunc(s.handlePerf)))
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	mux.Handle("GET /metrics", observability.Handler())
	return mux
}

// ResolveCSRFKey decodes a configured hex key. An empty key is only allowed
// outside production, where a random per-process key is generated.
func ResolveCSRFKey(keyHex string, production bool) ([]byte, error) {
	if keyHex != "" {
		key, err := hex.DecodeString(keyHex)
		if err != nil || len(key) != 32 {
			return nil, errors.New("csrf key must be 64 hex characters (32 bytes)")
		}
		return key, nil
	}
	if production {
		return nil, errors.New("csrf key is required in production")
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate csrf key: %w", err)
	}
	slog.Warn("csrf_key_random", "detail", "sessions will not survive a restart; set server.csrf_key for production")
	return key, nil
}
