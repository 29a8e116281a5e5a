package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/startracker/internal/handler"
	"github.com/dukerupert/startracker/internal/middleware"
	"github.com/dukerupert/startracker/internal/push"
	"github.com/dukerupert/startracker/internal/store"
	"github.com/dukerupert/startracker/internal/upload"
	ws "github.com/dukerupert/startracker/internal/websocket"
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	authH        *handler.AuthHandler
	childH       *handler.ChildHandler
	catalogH     *handler.CatalogHandler
	evaluationH  *handler.EvaluationHandler
	challengeH   *handler.ChallengeHandler
	rewardH      *handler.RewardHandler
	ledgerH      *handler.LedgerHandler
	uploadH      *handler.UploadHandler
	pushH        *handler.PushHandler
	sessionStore *store.SessionStore
	rateLimiter  *middleware.RateLimiter
	logger       *slog.Logger
}

func New(db *sql.DB, pushCfg push.Config, uploadCfg upload.Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	childStore := store.NewChildStore(db)
	sessionStore := store.NewSessionStore(db)
	catalogStore := store.NewCatalogStore(db)
	evaluationStore := store.NewEvaluationStore(db)
	challengeStore := store.NewChallengeStore(db)
	rewardStore := store.NewRewardStore(db)
	ledgerStore := store.NewLedgerStore(db)
	pushStore := store.NewPushStore(db)

	var pushSvc *push.Service
	if pushCfg.VAPIDPublicKey != "" && pushCfg.VAPIDPrivateKey != "" {
		pushSvc = push.NewService(pushCfg.VAPIDPublicKey, pushCfg.VAPIDPrivateKey)
	}

	var uploadSvc *upload.Service
	if uploadCfg.Enabled() {
		uploadSvc = upload.NewService(uploadCfg)
	}

	return &Server{
		db:           db,
		hub:          hub,
		authH:        handler.NewAuthHandler(userStore, childStore, sessionStore, logger.With("component", "auth")),
		childH:       handler.NewChildHandler(childStore, hub, logger.With("component", "child")),
		catalogH:     handler.NewCatalogHandler(catalogStore, logger.With("component", "catalog")),
		evaluationH:  handler.NewEvaluationHandler(evaluationStore, hub, logger.With("component", "evaluation")),
		challengeH:   handler.NewChallengeHandler(challengeStore, hub, logger.With("component", "challenge")),
		rewardH:      handler.NewRewardHandler(rewardStore, childStore, pushStore, pushSvc, hub, logger.With("component", "reward")),
		ledgerH:      handler.NewLedgerHandler(ledgerStore, hub, logger.With("component", "ledger")),
		uploadH:      handler.NewUploadHandler(uploadSvc, logger.With("component", "upload")),
		pushH:        handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push")),
		sessionStore: sessionStore,
		rateLimiter:  middleware.NewRateLimiter(),
		logger:       logger,
	}
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)

	// Children
	mux.HandleFunc("POST /api/children", s.childH.Create)
	mux.HandleFunc("GET /api/children", s.childH.List)
	mux.HandleFunc("GET /api/children/{id}", s.childH.Get)
	mux.HandleFunc("PUT /api/children/{id}", s.childH.Update)
	mux.HandleFunc("DELETE /api/children/{id}", s.childH.Delete)
	mux.HandleFunc("POST /api/children/{id}/credential", s.childH.SetCredential)
	mux.HandleFunc("DELETE /api/children/{id}/credential", s.childH.ClearCredential)

	// Activity types
	mux.HandleFunc("POST /api/activity-types", s.catalogH.CreateActivityType)
	mux.HandleFunc("GET /api/activity-types", s.catalogH.ListActivityTypes)
	mux.HandleFunc("PUT /api/activity-types/{id}", s.catalogH.UpdateActivityType)
	mux.HandleFunc("DELETE /api/activity-types/{id}", s.catalogH.DeleteActivityType)

	// Penalty and bonus types
	mux.HandleFunc("POST /api/penalty-types", s.catalogH.CreatePenaltyType)
	mux.HandleFunc("GET /api/penalty-types", s.catalogH.ListPenaltyTypes)
	mux.HandleFunc("PUT /api/penalty-types/{id}", s.catalogH.UpdatePenaltyType)
	mux.HandleFunc("DELETE /api/penalty-types/{id}", s.catalogH.DeletePenaltyType)

	// Daily evaluations
	mux.HandleFunc("POST /api/children/{id}/evaluations", s.evaluationH.Submit)
	mux.HandleFunc("GET /api/children/{id}/evaluations/today", s.evaluationH.Today)
	mux.HandleFunc("GET /api/children/{id}/evaluations", s.evaluationH.History)
	mux.HandleFunc("GET /api/children/{id}/evaluations/month", s.evaluationH.Month)

	// Weekly challenges
	mux.HandleFunc("POST /api/children/{id}/challenges/{rewardID}/check-in", s.challengeH.CheckIn)
	mux.HandleFunc("GET /api/children/{id}/challenges", s.challengeH.CurrentWeek)

	// Rewards and redemptions
	mux.HandleFunc("POST /api/rewards", s.rewardH.Create)
	mux.HandleFunc("GET /api/rewards", s.rewardH.List)
	mux.HandleFunc("GET /api/rewards/{id}", s.rewardH.Get)
	mux.HandleFunc("PUT /api/rewards/{id}", s.rewardH.Update)
	mux.HandleFunc("DELETE /api/rewards/{id}", s.rewardH.Delete)
	mux.HandleFunc("POST /api/rewards/{id}/redeem", s.rewardH.Redeem)
	mux.HandleFunc("GET /api/children/{id}/redemptions", s.rewardH.ListRedemptions)
	mux.HandleFunc("GET /api/redemptions/pending", s.rewardH.ListPending)
	mux.HandleFunc("POST /api/redemptions/{id}/approve", s.rewardH.Approve)
	mux.HandleFunc("POST /api/redemptions/{id}/reject", s.rewardH.Reject)
	mux.HandleFunc("DELETE /api/redemptions/{id}", s.rewardH.DeleteRedemption)

	// Star ledger
	mux.HandleFunc("GET /api/children/{id}/balance", s.ledgerH.Balance)
	mux.HandleFunc("GET /api/children/{id}/transactions", s.ledgerH.Transactions)
	mux.HandleFunc("GET /api/balances", s.ledgerH.AllBalances)
	mux.HandleFunc("POST /api/children/{id}/balance/reset", s.ledgerH.Reset)

	// Image uploads
	mux.HandleFunc("POST /api/uploads", s.uploadH.Upload)

	// Push notifications
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDPublicKey)
	mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
	mux.HandleFunc("POST /api/push/unsubscribe", s.pushH.Unsubscribe)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}
