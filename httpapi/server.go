package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"shogun/application"
	"shogun/domain"
	"shogun/domain/entities"
	"shogun/domain/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// Engine is the subset of the reward engine the HTTP surface drives
type Engine interface {
	ClassifyRank(ctx context.Context, userID int64) (*entities.RankResult, error)
	RefreshAllRanks(ctx context.Context) (*application.RankRefreshResult, error)
	RunDailyAccrual(ctx context.Context, asOf time.Time) (*entities.AccrualResult, error)
	SubmitClaim(ctx context.Context, userID int64, claimType entities.ClaimType, note string) (*entities.ClaimQuote, error)
	ApproveClaim(ctx context.Context, claimID int64) (*entities.Claim, error)
	RejectClaim(ctx context.Context, claimID int64) (*entities.Claim, error)
	ListPendingClaims(ctx context.Context, limit int) ([]*entities.Claim, error)
	DistributeBonus(ctx context.Context, pool decimal.Decimal) (*entities.BonusDistribution, error)
	RegisterUser(ctx context.Context, req services.RegistrationRequest) (*entities.User, error)
	PurchasePosition(ctx context.Context, userID, templateID int64) (*entities.Position, error)
	ListPositions(ctx context.Context, userID int64) ([]*entities.Position, error)
	ListTemplates(ctx context.Context, includeSpecial bool) ([]*entities.AssetTemplate, error)
	SeedAssetTemplates(ctx context.Context) (int, error)
	LatestAccrualRun(ctx context.Context) (*entities.AccrualRun, error)
	LatestBonusDistribution(ctx context.Context) (*entities.BonusDistribution, error)
}

// HealthCheck reports whether a dependency is usable
type HealthCheck func(ctx context.Context) error

// Server serves the member and admin REST endpoints
type Server struct {
	engine     Engine
	location   *time.Location // business calendar used to read admin run dates
	router     *gin.Engine
	httpServer *http.Server
	checks     map[string]HealthCheck
}

// NewServer builds the router for engine and binds it to addr
func NewServer(addr string, engine Engine, location *time.Location) *Server {
	if location == nil {
		location = time.UTC
	}
	router := gin.New()
	router.Use(RequestLogger(), gin.Recovery())

	s := &Server{
		engine:   engine,
		location: location,
		router:   router,
		checks:   make(map[string]HealthCheck),
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.health)

	api := s.router.Group("/api")
	api.POST("/auth/register", s.registerUser)

	api.GET("/nfts", s.listTemplates)
	api.POST("/nfts/purchase", s.purchasePosition)
	api.GET("/nfts/user/:userId", s.listPositions)

	api.POST("/rewards/claim", s.submitClaim)
	api.GET("/mlm/rank/:userId", s.classifyRank)

	admin := api.Group("/admin")
	admin.GET("/claims", s.listPendingClaims)
	admin.POST("/claims/:id/approve", s.approveClaim)
	admin.POST("/claims/:id/reject", s.rejectClaim)
	admin.POST("/rewards/calculate", s.runDailyAccrual)
	admin.GET("/rewards/runs/latest", s.latestAccrualRun)
	admin.POST("/mlm/calculate-bonus", s.distributeBonus)
	admin.GET("/mlm/distributions/latest", s.latestBonusDistribution)
	admin.POST("/mlm/refresh-ranks", s.refreshAllRanks)
	admin.POST("/templates/seed", s.seedTemplates)
}

// AddHealthCheck registers a dependency checked by GET /health
func (s *Server) AddHealthCheck(name string, check HealthCheck) {
	s.checks[name] = check
}

func (s *Server) health(c *gin.Context) {
	status := http.StatusOK
	results := make(gin.H, len(s.checks))
	for name, check := range s.checks {
		if err := check(c.Request.Context()); err != nil {
			log.WithError(err).WithField("check", name).Warn("Health check failed")
			results[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	c.JSON(status, gin.H{"status": overall, "checks": results})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens until Shutdown is called
func (s *Server) Start() error {
	log.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// respondError maps an engine error onto a status code. Only user-facing
// messages reach the response body.
func respondError(c *gin.Context, err error) {
	engineErr := domain.AsEngineError(err)

	status := http.StatusInternalServerError
	switch engineErr.Kind {
	case domain.KindValidation:
		status = http.StatusBadRequest
	case domain.KindNoRewardAvailable:
		status = http.StatusConflict
	}

	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"error":   engineErr.UserMessage,
		"kind":    engineErr.Kind,
	})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   message,
		"kind":    domain.KindValidation,
	})
}
