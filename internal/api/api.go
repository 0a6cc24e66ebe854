// internal/api/api.go
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"scribe-api/internal/common/auth"
	"scribe-api/internal/common/config"
	"scribe-api/internal/common/database"
	apperrors "scribe-api/internal/common/errors"
	"scribe-api/internal/common/logger"
	"scribe-api/internal/common/observability"
	"scribe-api/internal/notify"
	"scribe-api/internal/search"
	"scribe-api/internal/session"
	"scribe-api/internal/store"
	"scribe-api/internal/ws"
)

// API wires the HTTP surface to the stores, the identity provider and
// the realtime hub.
type API struct {
	cfg      *config.Config
	logger   logger.Logger
	errs     *apperrors.Handler
	oidc     *auth.OIDCClient
	sessions session.Store
	cookies  *session.CookieCodec

	jobs      *store.JobStore
	users     *store.UserStore
	groups    *store.GroupStore
	customers *store.CustomerStore
	health    *store.HealthStore

	index    *search.TranscriptIndex
	notifier *notify.Notifier
	hub      *ws.Hub
	relay    *ws.Relay

	db        *database.PostgresClient
	obs       *observability.Observability
	uploadDir string
}

// Deps bundles everything the API needs.
type Deps struct {
	Config   *config.Config
	Logger   logger.Logger
	OIDC     *auth.OIDCClient
	Sessions session.Store
	Cookies  *session.CookieCodec

	Jobs      *store.JobStore
	Users     *store.UserStore
	Groups    *store.GroupStore
	Customers *store.CustomerStore
	Health    *store.HealthStore

	Index    *search.TranscriptIndex
	Notifier *notify.Notifier
	Hub      *ws.Hub
	Relay    *ws.Relay

	DB        *database.PostgresClient
	Obs       *observability.Observability
	UploadDir string
}

// New builds the API from its dependencies.
func New(deps Deps) *API {
	uploadDir := deps.UploadDir
	if uploadDir == "" {
		uploadDir = "data/uploads"
	}
	return &API{
		cfg:       deps.Config,
		logger:    deps.Logger.WithFields(map[string]interface{}{"component": "api"}),
		errs:      apperrors.NewHandler(deps.Logger),
		oidc:      deps.OIDC,
		sessions:  deps.Sessions,
		cookies:   deps.Cookies,
		jobs:      deps.Jobs,
		users:     deps.Users,
		groups:    deps.Groups,
		customers: deps.Customers,
		health:    deps.Health,
		index:     deps.Index,
		notifier:  deps.Notifier,
		hub:       deps.Hub,
		relay:     deps.Relay,
		db:        deps.DB,
		obs:       deps.Obs,
		uploadDir: uploadDir,
	}
}

// Router assembles the chi router with all routes and middleware.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(a.metricsMiddleware)

	oidcCfg := a.cfg.Auth.OIDC
	r.Get(oidcCfg.LoginRoute, a.handleLogin)
	r.Get(oidcCfg.LogoutRoute, a.handleLogout)
	r.Post(oidcCfg.RefreshRoute, a.handleRefresh)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", a.handleStatus)

		// Worker callbacks come from inside the cluster and carry no
		// browser session.
		r.Post("/healthcheck", a.handleHeartbeat)
		r.Post("/transcriber/{uuid}/result", a.handleStoreResult)
		r.Put("/transcriber/{uuid}/status", a.handleWorkerStatus)

		// Websocket endpoints authenticate with a token query parameter
		// because browsers cannot set headers on socket upgrades.
		r.Get("/inference", a.handleInference)

		r.Group(func(r chi.Router) {
			r.Use(a.authMiddleware)

			r.Get("/me", a.handleMe)
			r.Patch("/me", a.handleUpdateAccount)
			r.Post("/me/passphrase", a.handleSetPassphrase)
			r.Post("/me/passphrase/verify", a.handleVerifyPassphrase)
			r.Delete("/me/passphrase", a.handleResetPassphrase)

			r.Group(func(r chi.Router) {
				r.Use(a.requireBOFH)
				r.Get("/healthcheck", a.handleHealthcheck)
			})

			r.Group(func(r chi.Router) {
				r.Use(a.requireActive)

				r.Route("/transcriber", func(r chi.Router) {
					r.Get("/", a.handleListJobs)
					r.Post("/", a.handleUpload)
					r.Get("/search", a.handleSearchJobs)
					r.Get("/ws", a.handleJobStatusSocket)

					r.Route("/{uuid}", func(r chi.Router) {
						r.Get("/", a.handleGetJob)
						r.Put("/", a.handleStartJob)
						r.Delete("/", a.handleDeleteJob)
						r.Get("/result", a.handleGetResult)
						r.Put("/result", a.handleUpdateResult)
						r.Get("/result/srt", a.handleExportSRT)
						r.Get("/result/txt", a.handleExportTXT)
						r.Get("/result/export", a.handleExportResult)
					})
				})
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(a.requireAdmin)

				r.Get("/groups", a.handleListGroups)
				r.Post("/groups", a.handleCreateGroup)
				r.Put("/groups/{id}", a.handleUpdateGroup)
				r.Delete("/groups/{id}", a.handleDeleteGroup)
				r.Get("/groups/{id}/stats", a.handleGroupStats)

				r.Get("/users", a.handleListUsers)
				r.Get("/realms", a.handleListRealms)
				r.Patch("/users/{username}", a.handleUpdateUser)
				r.Delete("/users/{username}", a.handleDeleteUser)

				r.Group(func(r chi.Router) {
					r.Use(a.requireBOFH)

					r.Get("/customers", a.handleListCustomers)
					r.Post("/customers", a.handleCreateCustomer)
					r.Put("/customers/{id}", a.handleUpdateCustomer)
					r.Delete("/customers/{id}", a.handleDeleteCustomer)
					r.Get("/customers/{id}/stats", a.handleCustomerStats)
					r.Get("/customers/export/csv", a.handleExportCustomersCSV)
				})
			})
		})
	})

	return r
}

func (a *API) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			a.logger.WithError(err).Error("failed to encode response", nil)
		}
	}
}

func (a *API) writeText(w http.ResponseWriter, contentType, body string) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		a.logger.WithError(err).Error("failed to write response", nil)
	}
}
