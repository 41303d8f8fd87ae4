package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/dukerupert/choreboard/internal/config"
	"github.com/dukerupert/choreboard/internal/handler"
	"github.com/dukerupert/choreboard/internal/metrics"
	"github.com/dukerupert/choreboard/internal/middleware"
	"github.com/dukerupert/choreboard/internal/notify"
	"github.com/dukerupert/choreboard/internal/points"
	"github.com/dukerupert/choreboard/internal/store"
	ws "github.com/dukerupert/choreboard/internal/websocket"
)

const (
	pinAttemptsPerMinute = 10
	healthTimeout        = 2 * time.Second
)

type Server struct {
	store       *store.Store
	service     *points.Service
	hub         *ws.Hub
	metrics     *metrics.Metrics
	dispatcher  *notify.Dispatcher
	rateLimiter *middleware.RateLimiter
	origins     []string
	logger      *slog.Logger

	memberH  *handler.MemberHandler
	taskH    *handler.TaskHandler
	rewardH  *handler.RewardHandler
	requestH *handler.RequestHandler
	pointsH  *handler.PointsHandler
	pushH    *handler.PushHandler
}

func New(cfg *config.Config, db *sql.DB, logger *slog.Logger) *Server {
	st := store.New(db)
	m := metrics.New()

	hub := ws.NewHub(logger)
	hub.OnDrop(m.WebsocketDropped)
	m.RegisterGauge("websocket_clients", "Connected live-update clients.", func() float64 {
		return float64(hub.ClientCount())
	})

	var sender *notify.PushSender
	if cfg.PushEnabled() {
		sender = notify.NewPushSender(cfg.Push.VAPIDPublicKey, cfg.Push.VAPIDPrivateKey, cfg.Push.Subscriber)
	} else {
		logger.Info("web push disabled, no VAPID keys configured")
	}
	dispatcher := notify.NewDispatcher(hub, m, sender, st.Push, logger)

	loc := cfg.Location()
	svc := points.New(st, points.Config{
		ApprovalThreshold: cfg.Rewards.ApprovalThreshold,
		Location:          loc,
	}, dispatcher, logger)
	clock := func() time.Time { return time.Now().In(loc) }

	return &Server{
		store:       st,
		service:     svc,
		hub:         hub,
		metrics:     m,
		dispatcher:  dispatcher,
		rateLimiter: middleware.NewRateLimiter(pinAttemptsPerMinute, time.Minute),
		origins:     cfg.CORS.AllowedOrigins,
		logger:      logger,

		memberH:  handler.NewMemberHandler(st, hub, logger.With("component", "member")),
		taskH:    handler.NewTaskHandler(st, svc.Tasks, hub, clock, logger.With("component", "task")),
		rewardH:  handler.NewRewardHandler(st, svc.Redemptions, hub, logger.With("component", "reward")),
		requestH: handler.NewRequestHandler(st, svc.Redemptions, logger.With("component", "reward_request")),
		pointsH:  handler.NewPointsHandler(st, svc.Ledger, svc.Resets, hub, logger.With("component", "points_api")),
		pushH:    handler.NewPushHandler(st, sender, logger.With("component", "push")),
	}
}

func (s *Server) Store() *store.Store {
	return s.store
}

func (s *Server) Service() *points.Service {
	return s.service
}

func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Metrics() *metrics.Metrics {
	return s.metrics
}

// Dispatcher returns the notification dispatcher so shutdown can wait for
// in-flight pushes.
func (s *Server) Dispatcher() *notify.Dispatcher {
	return s.dispatcher
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	// Instrument must wrap the mux directly to see r.Pattern.
	var h http.Handler = middleware.Instrument(s.metrics)(mux)
	h = middleware.RequestLogger(s.logger.With("component", "http"))(h)
	if len(s.origins) > 0 {
		h = cors.New(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
			AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
			ExposedHeaders: []string{middleware.RequestIDHeader, "Retry-After"},
		}).Handler(h)
	}
	return h
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error("health check", "error", err)
		writeStatus(w, http.StatusServiceUnavailable, "unavailable")
		return
	}
	writeStatus(w, http.StatusOK, "ok")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func (s *Server) rateLimited(h http.HandlerFunc) http.Handler {
	return middleware.RateLimit(s.rateLimiter, middleware.RealIP)(h)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", s.metrics.Handler())
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub, s.origins))

	// Members
	mux.HandleFunc("GET /api/members", s.memberH.List)
	mux.HandleFunc("POST /api/members", s.memberH.Create)
	mux.HandleFunc("PUT /api/members/{id}", s.memberH.Update)
	mux.HandleFunc("DELETE /api/members/{id}", s.memberH.Delete)
	mux.HandleFunc("POST /api/members/{id}/pin", s.memberH.SetPIN)
	mux.HandleFunc("DELETE /api/members/{id}/pin", s.memberH.ClearPIN)
	mux.Handle("POST /api/members/{id}/pin/verify", s.rateLimited(s.memberH.VerifyPIN))

	// Points
	mux.HandleFunc("POST /api/members/{id}/points", s.pointsH.Adjust)
	mux.HandleFunc("POST /api/members/{id}/punishments", s.pointsH.Punish)
	mux.HandleFunc("GET /api/members/{id}/punishments", s.pointsH.ListPunishments)
	mux.HandleFunc("GET /api/leaderboard", s.pointsH.Leaderboard)
	mux.HandleFunc("GET /api/audit-log", s.pointsH.AuditLog)
	mux.HandleFunc("POST /api/admin/reset", s.pointsH.Reset)

	// Tasks
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.HandleFunc("POST /api/tasks", s.taskH.Create)
	mux.HandleFunc("PUT /api/tasks/{id}", s.taskH.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.taskH.Delete)
	mux.HandleFunc("GET /api/members/{id}/tasks", s.taskH.ListByMember)
	mux.HandleFunc("POST /api/members/{member_id}/tasks/{id}/toggle", s.taskH.Toggle)

	// Rewards
	mux.HandleFunc("GET /api/rewards", s.rewardH.List)
	mux.HandleFunc("POST /api/rewards", s.rewardH.Create)
	mux.HandleFunc("PUT /api/rewards/{id}", s.rewardH.Update)
	mux.HandleFunc("DELETE /api/rewards/{id}", s.rewardH.Delete)
	mux.HandleFunc("POST /api/rewards/{id}/redeem", s.rewardH.Redeem)
	mux.HandleFunc("GET /api/reward-requests", s.requestH.List)
	mux.HandleFunc("GET /api/reward-requests/{id}", s.requestH.Get)
	mux.Handle("POST /api/reward-requests/{id}/process", s.rateLimited(s.requestH.Process))

	// Push notifications
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("DELETE /api/push/subscriptions/{id}", s.pushH.Unsubscribe)
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
}
