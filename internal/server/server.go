package server

import (
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/dukerupert/habitrack/internal/backup"
	"github.com/dukerupert/habitrack/internal/handler"
	"github.com/dukerupert/habitrack/internal/metrics"
	"github.com/dukerupert/habitrack/internal/middleware"
	"github.com/dukerupert/habitrack/internal/tracker"
	"github.com/dukerupert/habitrack/internal/websocket"
)

// Destructive endpoints allow this many calls per client per minute.
const destructiveLimit = 10

type Options struct {
	AllowedOrigins []string
	// TrustedProxies may set the client address through X-Real-IP and
	// X-Forwarded-For.
	TrustedProxies []netip.Prefix
	// Metrics, when set, instruments every route and serves GET /metrics.
	Metrics *metrics.Metrics
}

type Server struct {
	svc       *tracker.Service
	backupMgr *backup.Manager
	hub       *websocket.Hub
	limiter   *middleware.RateLimiter
	clientIP  *middleware.IPResolver
	origins   []string
	metrics   *metrics.Metrics
	logger    *slog.Logger

	habitH  *handler.HabitHandler
	backupH *handler.BackupHandler
}

func New(svc *tracker.Service, mgr *backup.Manager, hub *websocket.Hub, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		svc:       svc,
		backupMgr: mgr,
		hub:       hub,
		limiter:   middleware.NewRateLimiter(destructiveLimit, time.Minute),
		clientIP:  middleware.NewIPResolver(opts.TrustedProxies),
		origins:   opts.AllowedOrigins,
		metrics:   opts.Metrics,
		logger:    logger,
		habitH:    handler.NewHabitHandler(svc, logger.With("component", "habits")),
		backupH:   handler.NewBackupHandler(mgr, logger.With("component", "backup")),
	}
}

func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.limiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /ws", websocket.Handler(s.hub, s.origins))

	mux.HandleFunc("GET /api/catalog", s.habitH.Catalog)
	mux.HandleFunc("GET /api/days", s.habitH.Window)
	mux.HandleFunc("GET /api/days/{date}", s.habitH.Day)
	mux.HandleFunc("DELETE /api/days/{date}", s.habitH.Clear)
	mux.HandleFunc("POST /api/days/{date}/checks/{habit}/{item}/toggle", s.habitH.Toggle)
	mux.HandleFunc("PUT /api/days/{date}/checks/{habit}/{item}", s.habitH.Set)
	mux.HandleFunc("POST /api/reset", s.rateLimited(s.habitH.Reset))
	mux.HandleFunc("GET /api/export.csv", s.habitH.ExportCSV)

	mux.HandleFunc("GET /api/backups", s.backupH.List)
	mux.HandleFunc("POST /api/backups", s.backupH.Create)
	mux.HandleFunc("GET /api/backups/status", s.backupH.Status)
	mux.HandleFunc("POST /api/backups/{id}/restore", s.rateLimited(s.backupH.Restore))

	var h http.Handler = mux
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
		h = s.metrics.Middleware(mux)
	}

	httpLogger := s.logger.With("component", "http")
	return middleware.RequestLogger(httpLogger)(middleware.Recover(httpLogger)(h))
}

type healthResponse struct {
	Status  string       `json:"status"`
	Days    int          `json:"days"`
	Clients int          `json:"clients"`
	Backup  backup.State `json:"backup"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Days:    s.svc.Snapshot().Len(),
		Clients: s.hub.ClientCount(),
		Backup:  s.backupMgr.Status().State,
	})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	return middleware.RateLimit(s.limiter, s.clientIP)(h).ServeHTTP
}
