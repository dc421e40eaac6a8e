// Package httpapi serves the admin and public JSON API over a [cmsdb.DB].
//
// Handlers trust an upstream authentication layer; there is no session
// handling here.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/calvinalkan/sitecms/internal/cmsdb"
)

// Options configures [New].
type Options struct {
	// Logger receives request and error logs. Defaults to discard.
	Logger *slog.Logger

	// Notifier receives submission and reset notifications. Defaults to a
	// [LogNotifier] on Logger.
	Notifier Notifier

	// CORSOrigins enables CORS for the listed origins. Empty disables CORS.
	CORSOrigins []string
}

// Server holds the handlers. Use [New] to get an [http.Handler].
type Server struct {
	db       *cmsdb.DB
	log      *slog.Logger
	notifier Notifier
}

// New returns the API handler for db.
func New(db *cmsdb.DB, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	notifier := opts.Notifier
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}

	s := &Server{db: db, log: logger, notifier: notifier}

	var handler http.Handler = s.routes()

	if len(opts.CORSOrigins) > 0 {
		c := cors.New(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
		})
		handler = c.Handler(handler)
	}

	return handler
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()

	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "route not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
	})

	r.HandleFunc("/health", s.health).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/pages", s.listPages).Methods(http.MethodGet)
	api.HandleFunc("/pages", s.createPage).Methods(http.MethodPost)
	api.HandleFunc("/pages/by-slug", s.getPageBySlug).Methods(http.MethodGet)
	api.HandleFunc("/pages/{id}", s.getPage).Methods(http.MethodGet)
	api.HandleFunc("/pages/{id}", s.updatePage).Methods(http.MethodPut)
	api.HandleFunc("/pages/{id}", s.deletePage).Methods(http.MethodDelete)

	api.HandleFunc("/media", s.listMedia).Methods(http.MethodGet)
	api.HandleFunc("/media", s.createMedia).Methods(http.MethodPost)
	api.HandleFunc("/media/{id}", s.getMedia).Methods(http.MethodGet)
	api.HandleFunc("/media/{id}", s.updateMedia).Methods(http.MethodPut)
	api.HandleFunc("/media/{id}", s.deleteMedia).Methods(http.MethodDelete)

	api.HandleFunc("/users", s.listUsers).Methods(http.MethodGet)
	api.HandleFunc("/users", s.createUser).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}", s.getUser).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", s.updateUser).Methods(http.MethodPut)
	api.HandleFunc("/users/{id}", s.deleteUser).Methods(http.MethodDelete)
	api.HandleFunc("/users/{id}/2fa/secret", s.setTwoFASecret).Methods(http.MethodPut)
	api.HandleFunc("/users/{id}/2fa", s.toggleTwoFA).Methods(http.MethodPut)

	api.HandleFunc("/auth/reset/request", s.requestReset).Methods(http.MethodPost)
	api.HandleFunc("/auth/reset/verify", s.verifyReset).Methods(http.MethodGet)
	api.HandleFunc("/auth/reset/complete", s.completeReset).Methods(http.MethodPost)

	api.HandleFunc("/jobs", s.listJobs).Methods(http.MethodGet)
	api.HandleFunc("/jobs", s.createJob).Methods(http.MethodPost)
	api.HandleFunc("/jobs/{id}", s.getJob).Methods(http.MethodGet)
	api.HandleFunc("/jobs/{id}", s.updateJob).Methods(http.MethodPut)
	api.HandleFunc("/jobs/{id}", s.deleteJob).Methods(http.MethodDelete)
	api.HandleFunc("/jobs/{id}/apply", s.applyJob).Methods(http.MethodPost)

	api.HandleFunc("/submissions", s.listSubmissions).Methods(http.MethodGet)
	api.HandleFunc("/submissions/{id}", s.deleteSubmission).Methods(http.MethodDelete)
	api.HandleFunc("/forms/{formId}/submit", s.submitForm).Methods(http.MethodPost)

	api.HandleFunc("/settings", s.getSettings).Methods(http.MethodGet)
	api.HandleFunc("/settings", s.updateSettings).Methods(http.MethodPut)
	api.HandleFunc("/settings/forms", s.listForms).Methods(http.MethodGet)
	api.HandleFunc("/settings/forms", s.createForm).Methods(http.MethodPost)
	api.HandleFunc("/settings/forms/{id}", s.getForm).Methods(http.MethodGet)
	api.HandleFunc("/settings/forms/{id}", s.updateForm).Methods(http.MethodPut)
	api.HandleFunc("/settings/forms/{id}", s.deleteForm).Methods(http.MethodDelete)

	api.HandleFunc("/public/jobs", s.listVisibleJobs).Methods(http.MethodGet)
	api.HandleFunc("/public/forms", s.formsForPage).Methods(http.MethodGet)

	return r
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
