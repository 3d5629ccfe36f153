package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"shogun/application"
	"shogun/domain"
	"shogun/domain/entities"
	"shogun/domain/services"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) ClassifyRank(ctx context.Context, userID int64) (*entities.RankResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.RankResult), args.Error(1)
}

func (m *mockEngine) RefreshAllRanks(ctx context.Context) (*application.RankRefreshResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.RankRefreshResult), args.Error(1)
}

func (m *mockEngine) RunDailyAccrual(ctx context.Context, asOf time.Time) (*entities.AccrualResult, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.AccrualResult), args.Error(1)
}

func (m *mockEngine) SubmitClaim(ctx context.Context, userID int64, claimType entities.ClaimType, note string) (*entities.ClaimQuote, error) {
	args := m.Called(ctx, userID, claimType, note)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ClaimQuote), args.Error(1)
}

func (m *mockEngine) ApproveClaim(ctx context.Context, claimID int64) (*entities.Claim, error) {
	args := m.Called(ctx, claimID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Claim), args.Error(1)
}

func (m *mockEngine) RejectClaim(ctx context.Context, claimID int64) (*entities.Claim, error) {
	args := m.Called(ctx, claimID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Claim), args.Error(1)
}

func (m *mockEngine) ListPendingClaims(ctx context.Context, limit int) ([]*entities.Claim, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Claim), args.Error(1)
}

func (m *mockEngine) DistributeBonus(ctx context.Context, pool decimal.Decimal) (*entities.BonusDistribution, error) {
	args := m.Called(ctx, pool)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BonusDistribution), args.Error(1)
}

func (m *mockEngine) RegisterUser(ctx context.Context, req services.RegistrationRequest) (*entities.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.User), args.Error(1)
}

func (m *mockEngine) PurchasePosition(ctx context.Context, userID, templateID int64) (*entities.Position, error) {
	args := m.Called(ctx, userID, templateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Position), args.Error(1)
}

func (m *mockEngine) ListPositions(ctx context.Context, userID int64) ([]*entities.Position, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.Position), args.Error(1)
}

func (m *mockEngine) ListTemplates(ctx context.Context, includeSpecial bool) ([]*entities.AssetTemplate, error) {
	args := m.Called(ctx, includeSpecial)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.AssetTemplate), args.Error(1)
}

func (m *mockEngine) SeedAssetTemplates(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockEngine) LatestAccrualRun(ctx context.Context) (*entities.AccrualRun, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.AccrualRun), args.Error(1)
}

func (m *mockEngine) LatestBonusDistribution(ctx context.Context) (*entities.BonusDistribution, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.BonusDistribution), args.Error(1)
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(engine *mockEngine) *Server {
	tokyo := time.FixedZone("JST", 9*60*60)
	return NewServer(":0", engine, tokyo)
}

func doRequest(t *testing.T, s *Server, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	return rec, decoded
}

func TestRegisterUser(t *testing.T) {
	engine := new(mockEngine)
	s := newTestServer(engine)

	referrer := int64(7)
	engine.On("RegisterUser", mock.Anything, services.RegistrationRequest{
		LoginID:    "taro",
		Name:       "Taro",
		ReferrerID: &referrer,
		WalletType: entities.WalletTypeEVO,
	}).Return(&entities.User{ID: 8, LoginID: "taro", Name: "Taro", ReferrerID: &referrer, WalletType: entities.WalletTypeEVO}, nil)

	rec, body := doRequest(t, s, http.MethodPost, "/api/auth/register", gin.H{
		"login_id":    "taro",
		"name":        "Taro",
		"referrer_id": 7,
		"wallet_type": "EVO",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, float64(8), user["id"])
	assert.Equal(t, "evo", user["wallet_type"])
	assert.Nil(t, user["rank"])
	engine.AssertExpectations(t)
}

func TestRegisterUser_MissingFields(t *testing.T) {
	engine := new(mockEngine)
	s := newTestServer(engine)

	rec, body := doRequest(t, s, http.MethodPost, "/api/auth/register", gin.H{"name": "Taro"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])
	engine.AssertNotCalled(t, "RegisterUser", mock.Anything, mock.Anything)
}

func TestSubmitClaim_ErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{
			name:        "validation",
			err:         domain.NewValidationError("a note is required for payout claims"),
			wantStatus:  http.StatusBadRequest,
			wantMessage: "a note is required for payout claims",
		},
		{
			name:        "nothing to claim",
			err:         domain.NewNoRewardAvailableError(3),
			wantStatus:  http.StatusConflict,
			wantMessage: "No reward is available to claim.",
		},
		{
			name:        "integrity",
			err:         domain.NewDataIntegrityError(errors.New("negative balance"), "position 9 below zero"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: domain.GenericFailureMessage,
		},
		{
			name:        "unclassified",
			err:         errors.New("connection reset"),
			wantStatus:  http.StatusInternalServerError,
			wantMessage: domain.GenericFailureMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := new(mockEngine)
			s := newTestServer(engine)
			engine.On("SubmitClaim", mock.Anything, int64(3), entities.ClaimTypePayout, "").Return(nil, tt.err)

			rec, body := doRequest(t, s, http.MethodPost, "/api/rewards/claim", gin.H{
				"user_id":    3,
				"claim_type": "payout",
			})

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantMessage, body["error"])
			assert.NotContains(t, rec.Body.String(), "connection reset")
		})
	}
}

func TestSubmitClaim_Success(t *testing.T) {
	engine := new(mockEngine)
	s := newTestServer(engine)
	engine.On("SubmitClaim", mock.Anything, int64(3), entities.ClaimTypePayout, "bank").Return(&entities.ClaimQuote{
		ClaimID: 11,
		Gross:   decimal.NewFromInt(1000),
		Fee:     decimal.NewFromInt(80),
		Net:     decimal.NewFromInt(920),
	}, nil)

	rec, body := doRequest(t, s, http.MethodPost, "/api/rewards/claim", gin.H{
		"user_id":    3,
		"claim_type": "Payout",
		"note":       "bank",
	})

	assert.Equal(t, http.StatusCreated, rec.Code)
	claim := body["claim"].(map[string]interface{})
	assert.Equal(t, "80", claim["fee"])
	assert.Equal(t, "920", claim["net"])
}

func TestListPositions_InvalidUserID(t *testing.T) {
	engine := new(mockEngine)
	s := newTestServer(engine)

	rec, _ := doRequest(t, s, http.MethodGet, "/api/nfts/user/abc", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	engine.AssertNotCalled(t, "ListPositions", mock.Anything, mock.Anything)
}

func TestListPendingClaims_Limit(t *testing.T) {
	engine := new(mockEngine)
	s := newTestServer(engine)
	note := "bank"
	engine.On("ListPendingClaims", mock.Anything, maxClaimsLimit).Return([]*entities.Claim{
		{ID: 1, UserID: 2, ClaimType: entities.ClaimTypePayout, Note: &note, Status: entities.ClaimStatusPending},
	}, nil)

	rec, body := doRequest(t, s, http.MethodGet, "/api/admin/claims?limit=10000", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	claims := body["claims"].([]interface{})
	require.Len(t, claims, 1)
	assert.Equal(t, "pending", claims[0].(map[string]interface{})["status"])

	rec, _ = doRequest(t, s, http.MethodGet, "/api/admin/claims?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunDailyAccrual_ParsesBusinessDate(t *testing.T) {
	engine := new(mockEngine)
	s := newTestServer(engine)

	engine.On("RunDailyAccrual", mock.Anything, mock.MatchedBy(func(asOf time.Time) bool {
		return asOf.Format("2006-01-02") == "2026-10-12" && asOf.Location().String() == "JST"
	})).Return(&entities.AccrualResult{ProcessedCount: 4, TotalAccrued: decimal.NewFromInt(12)}, nil)

	rec, body := doRequest(t, s, http.MethodPost, "/api/admin/rewards/calculate", gin.H{"date": "2026-10-12"})

	assert.Equal(t, http.StatusOK, rec.Code)
	result := body["result"].(map[string]interface{})
	assert.Equal(t, float64(4), result["processed_count"])
	engine.AssertExpectations(t)

	rec, _ = doRequest(t, s, http.MethodPost, "/api/admin/rewards/calculate", gin.H{"date": "12/10/2026"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDistributeBonus(t *testing.T) {
	engine := new(mockEngine)
	s := newTestServer(engine)
	engine.On("DistributeBonus", mock.Anything, mock.MatchedBy(func(pool decimal.Decimal) bool {
		return pool.Equal(decimal.NewFromInt(10000))
	})).Return(&entities.BonusDistribution{
		ID:               1,
		PoolAmount:       decimal.NewFromInt(10000),
		TotalDistributed: decimal.NewFromInt(4700),
	}, nil)

	rec, body := doRequest(t, s, http.MethodPost, "/api/admin/mlm/calculate-bonus", gin.H{"pool": "10000"})

	assert.Equal(t, http.StatusOK, rec.Code)
	distribution := body["distribution"].(map[string]interface{})
	assert.Equal(t, "4700", distribution["total_distributed"])

	rec, _ = doRequest(t, s, http.MethodPost, "/api/admin/mlm/calculate-bonus", gin.H{"pool": "lots"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClassifyRank(t *testing.T) {
	engine := new(mockEngine)
	s := newTestServer(engine)
	rank := entities.RankDaimyo
	engine.On("ClassifyRank", mock.Anything, int64(5)).Return(&entities.RankResult{UserID: 5, Rank: &rank, Changed: true}, nil)

	rec, body := doRequest(t, s, http.MethodGet, "/api/mlm/rank/5", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	result := body["result"].(map[string]interface{})
	assert.Equal(t, "大名", result["rank"])
	assert.Equal(t, true, result["changed"])
}

func TestRefreshRanksAndSeed(t *testing.T) {
	engine := new(mockEngine)
	s := newTestServer(engine)
	engine.On("RefreshAllRanks", mock.Anything).Return(&application.RankRefreshResult{Total: 3, Changed: 1}, nil)
	engine.On("SeedAssetTemplates", mock.Anything).Return(8, nil)

	rec, body := doRequest(t, s, http.MethodPost, "/api/admin/mlm/refresh-ranks", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), body["summary"].(map[string]interface{})["total"])

	rec, body = doRequest(t, s, http.MethodPost, "/api/admin/templates/seed", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(8), body["created"])
}

func TestLatestAuditRecords(t *testing.T) {
	engine := new(mockEngine)
	s := newTestServer(engine)
	engine.On("LatestAccrualRun", mock.Anything).Return(&entities.AccrualRun{
		ID:                 2,
		RunDate:            time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC),
		PositionsProcessed: 5,
		TotalAccrued:       decimal.NewFromInt(15),
	}, nil)
	engine.On("LatestBonusDistribution", mock.Anything).Return(nil, nil)

	rec, body := doRequest(t, s, http.MethodGet, "/api/admin/rewards/runs/latest", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	run := body["run"].(map[string]interface{})
	assert.Equal(t, "2026-10-12", run["run_date"])
	assert.Equal(t, "15", run["total_accrued"])

	rec, _ = doRequest(t, s, http.MethodGet, "/api/admin/mlm/distributions/latest", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	engine := new(mockEngine)
	s := newTestServer(engine)

	rec, body := doRequest(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])

	s.AddHealthCheck("database", func(context.Context) error { return nil })
	s.AddHealthCheck("nats", func(context.Context) error { return errors.New("not connected to NATS") })

	rec, body = doRequest(t, s, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", body["status"])
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "ok", checks["database"])
	assert.Equal(t, "unavailable", checks["nats"])
	assert.NotContains(t, rec.Body.String(), "not connected")
}
