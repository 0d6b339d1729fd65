package handlers

import (
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/servicelog/internal/auth"
	"github.com/ukydev/servicelog/internal/browser"
	"github.com/ukydev/servicelog/internal/form"
	"github.com/ukydev/servicelog/internal/middleware"
	"github.com/ukydev/servicelog/internal/store"
)

// Deps are the collaborators the HTTP API is built from.
type Deps struct {
	Store     *store.Store
	Entry     *form.EntryForm
	Browser   *browser.Browser
	Auth      *auth.Service
	Metrics   http.Handler
	Logger    logrus.FieldLogger
	RateLimit int // requests per minute per client, 0 disables
}

// NewRouter wires every endpoint and wraps them with logging, rate limiting
// and authentication.
func NewRouter(d Deps) http.Handler {
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	formHandler := NewFormHandler(d.Entry, d.Logger)
	draftHandler := NewDraftHandler(d.Entry.Controller(), d.Store)
	logHandler := NewLogHandler(d.Browser)
	authHandler := NewAuthHandler(d.Auth)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", Health)
	if d.Metrics != nil {
		mux.Handle("/metrics", d.Metrics)
	}
	mux.HandleFunc("/api/auth/login", authHandler.Login)
	mux.HandleFunc("/api/auth/me", authHandler.Me)
	mux.HandleFunc("/api/form", formHandler.Form)
	mux.HandleFunc("/api/form/submit", formHandler.Submit)
	mux.HandleFunc("/api/drafts", draftHandler.Drafts)
	mux.HandleFunc("/api/drafts/", draftHandler.Draft)
	mux.HandleFunc("/api/logs", logHandler.Logs)
	mux.HandleFunc("/api/logs/", logHandler.Log)

	var h http.Handler = middleware.NewAuthMiddleware(d.Auth).Authenticate(mux)
	if d.RateLimit > 0 {
		h = middleware.NewRateLimitMiddleware().RateLimit(d.RateLimit, 60)(h)
	}
	return middleware.RequestLogger(d.Logger)(h)
}

// Health reports liveness
func Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
