package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"shogun/domain/entities"
	"shogun/domain/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

const (
	defaultClaimsLimit = 50
	maxClaimsLimit     = 500
)

type registerRequest struct {
	LoginID    string `json:"login_id" binding:"required"`
	Name       string `json:"name" binding:"required"`
	ReferrerID *int64 `json:"referrer_id"`
	WalletType string `json:"wallet_type"`
}

type purchaseRequest struct {
	UserID     int64 `json:"user_id" binding:"required"`
	TemplateID int64 `json:"template_id" binding:"required"`
}

type claimRequest struct {
	UserID    int64  `json:"user_id" binding:"required"`
	ClaimType string `json:"claim_type" binding:"required"`
	Note      string `json:"note"`
}

type accrualRequest struct {
	Date string `json:"date"` // YYYY-MM-DD in the business timezone; empty means today
}

type bonusRequest struct {
	Pool string `json:"pool" binding:"required"`
}

func (s *Server) registerUser(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "login_id and name are required")
		return
	}

	wallet := entities.WalletType(strings.ToLower(strings.TrimSpace(req.WalletType)))
	if wallet == "" {
		wallet = entities.WalletTypeOther
	}

	user, err := s.engine.RegisterUser(c.Request.Context(), services.RegistrationRequest{
		LoginID:    req.LoginID,
		Name:       req.Name,
		ReferrerID: req.ReferrerID,
		WalletType: wallet,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "user": newUserResponse(user)})
}

func (s *Server) listTemplates(c *gin.Context) {
	includeSpecial := c.Query("include_special") == "true"

	templates, err := s.engine.ListTemplates(c.Request.Context(), includeSpecial)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "templates": newTemplateResponses(templates)})
}

func (s *Server) purchasePosition(c *gin.Context) {
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "user_id and template_id are required")
		return
	}

	position, err := s.engine.PurchasePosition(c.Request.Context(), req.UserID, req.TemplateID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "position": newPositionResponse(position)})
}

func (s *Server) listPositions(c *gin.Context) {
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}

	positions, err := s.engine.ListPositions(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]positionResponse, 0, len(positions))
	for _, p := range positions {
		out = append(out, newPositionResponse(p))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "positions": out})
}

func (s *Server) submitClaim(c *gin.Context) {
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "user_id and claim_type are required")
		return
	}

	claimType := entities.ClaimType(strings.ToLower(strings.TrimSpace(req.ClaimType)))
	quote, err := s.engine.SubmitClaim(c.Request.Context(), req.UserID, claimType, req.Note)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "claim": quote})
}

func (s *Server) classifyRank(c *gin.Context) {
	userID, ok := idParam(c, "userId")
	if !ok {
		return
	}

	result, err := s.engine.ClassifyRank(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}

func (s *Server) listPendingClaims(c *gin.Context) {
	limit := defaultClaimsLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			badRequest(c, "limit must be a positive integer")
			return
		}
		limit = min(n, maxClaimsLimit)
	}

	claims, err := s.engine.ListPendingClaims(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]claimResponse, 0, len(claims))
	for _, claim := range claims {
		out = append(out, newClaimResponse(claim))
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "claims": out})
}

func (s *Server) approveClaim(c *gin.Context) {
	claimID, ok := idParam(c, "id")
	if !ok {
		return
	}

	claim, err := s.engine.ApproveClaim(c.Request.Context(), claimID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "claim": newClaimResponse(claim)})
}

func (s *Server) rejectClaim(c *gin.Context) {
	claimID, ok := idParam(c, "id")
	if !ok {
		return
	}

	claim, err := s.engine.RejectClaim(c.Request.Context(), claimID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "claim": newClaimResponse(claim)})
}

func (s *Server) runDailyAccrual(c *gin.Context) {
	var req accrualRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "invalid request body")
			return
		}
	}

	asOf := time.Now().In(s.location)
	if req.Date != "" {
		parsed, err := time.ParseInLocation("2006-01-02", req.Date, s.location)
		if err != nil {
			badRequest(c, "date must be formatted as YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	result, err := s.engine.RunDailyAccrual(c.Request.Context(), asOf)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "result": result})
}

func (s *Server) latestAccrualRun(c *gin.Context) {
	run, err := s.engine.LatestAccrualRun(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "no accrual has run yet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "run": newAccrualRunResponse(run)})
}

func (s *Server) latestBonusDistribution(c *gin.Context) {
	distribution, err := s.engine.LatestBonusDistribution(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if distribution == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "no bonus has been distributed yet"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "distribution": newDistributionResponse(distribution)})
}

func (s *Server) distributeBonus(c *gin.Context) {
	var req bonusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "pool is required")
		return
	}

	pool, err := decimal.NewFromString(strings.TrimSpace(req.Pool))
	if err != nil {
		badRequest(c, "pool must be a decimal amount")
		return
	}

	distribution, err := s.engine.DistributeBonus(c.Request.Context(), pool)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "distribution": newDistributionResponse(distribution)})
}

func (s *Server) refreshAllRanks(c *gin.Context) {
	summary, err := s.engine.RefreshAllRanks(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "summary": summary})
}

func (s *Server) seedTemplates(c *gin.Context) {
	created, err := s.engine.SeedAssetTemplates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "created": created})
}

// idParam reads a positive integer path parameter, writing a 400 when it is malformed
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}
