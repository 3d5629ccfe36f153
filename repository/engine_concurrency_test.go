package repository_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"shogun/application"
	"shogun/database"
	"shogun/domain"
	"shogun/domain/entities"
	"shogun/infrastructure"
	"shogun/repository"
	"shogun/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tokyo = time.FixedZone("JST", 9*60*60)

func newTestEngine(db *database.DB) *application.RewardEngine {
	factory := infrastructure.NewUnitOfWorkFactory(db, infrastructure.NewNoopEventPublisher())
	return application.NewRewardEngine(factory, application.EngineOptions{
		Location:        tokyo,
		RestoreOnReject: true,
	}, nil)
}

// seedAccruedPosition creates a member holding one operating 1,000 position with 100 unclaimed
func seedAccruedPosition(t *testing.T, db *database.DB, loginID string) (int64, int64) {
	t.Helper()
	ctx := context.Background()

	user := testutil.CreateTestUser(loginID)
	require.NoError(t, repository.NewUserRepository(db).Create(ctx, user))

	tmpl := testutil.CreateTestTemplate("SHOGUN NFT 1,000", "1000", "0.5")
	_, err := repository.NewAssetTemplateRepository(db).Upsert(ctx, tmpl)
	require.NoError(t, err)

	positions := repository.NewPositionRepository(db)
	position := testutil.CreateTestPosition(user.ID, tmpl, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, positions.Create(ctx, position))
	require.NoError(t, positions.UpdateAccrual(ctx, position.ID, decimal.NewFromInt(100), decimal.NewFromInt(100)))

	return user.ID, position.ID
}

func loadPosition(t *testing.T, db *database.DB, userID, positionID int64) *entities.Position {
	t.Helper()

	positions, err := repository.NewPositionRepository(db).GetByUser(context.Background(), userID)
	require.NoError(t, err)
	for _, p := range positions {
		if p.ID == positionID {
			return p
		}
	}
	t.Fatalf("position %d not found", positionID)
	return nil
}

func countClaims(t *testing.T, db *database.DB, userID int64) int {
	t.Helper()

	var n int
	err := db.QueryRow(context.Background(), "SELECT COUNT(*) FROM claims WHERE user_id = $1", userID).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestRewardEngine_ConcurrentClaimsPayOutOnce(t *testing.T) {
	t.Parallel()

	testDB := testutil.SetupTestDatabase(t)
	engine := newTestEngine(testDB.DB)
	userID, positionID := seedAccruedPosition(t, testDB.DB, "double-claimer")

	const attempts = 2
	quotes := make([]*entities.ClaimQuote, attempts)
	errs := make([]error, attempts)

	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			quotes[i], errs[i] = engine.SubmitClaim(context.Background(), userID, entities.ClaimTypePayout, "bank transfer")
		}(i)
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for i := 0; i < attempts; i++ {
		if errs[i] == nil {
			succeeded++
			require.NotNil(t, quotes[i])
			assert.True(t, quotes[i].Gross.Equal(decimal.NewFromInt(100)), "gross %s", quotes[i].Gross)
			continue
		}
		assert.True(t, errors.Is(errs[i], domain.ErrNoRewardAvailable), "unexpected error: %v", errs[i])
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, countClaims(t, testDB.DB, userID))

	position := loadPosition(t, testDB.DB, userID, positionID)
	assert.True(t, position.Accrued.IsZero())
	assert.True(t, position.LifetimeAccrued.Equal(decimal.NewFromInt(100)))
}

func TestRewardEngine_AccrualAlongsideClaimKeepsBalances(t *testing.T) {
	t.Parallel()

	testDB := testutil.SetupTestDatabase(t)
	engine := newTestEngine(testDB.DB)
	userID, positionID := seedAccruedPosition(t, testDB.DB, "busy-member")

	// A Wednesday in the business timezone
	asOf := time.Date(2026, 10, 14, 12, 0, 0, 0, tokyo)

	var (
		accrual   *entities.AccrualResult
		accrueErr error
		quote     *entities.ClaimQuote
		claimErr  error
	)

	start := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		<-start
		accrual, accrueErr = engine.RunDailyAccrual(context.Background(), asOf)
	}()
	go func() {
		defer wg.Done()
		<-start
		quote, claimErr = engine.SubmitClaim(context.Background(), userID, entities.ClaimTypePayout, "bank transfer")
	}()
	close(start)
	wg.Wait()

	require.NoError(t, accrueErr)
	require.NoError(t, claimErr)
	assert.Equal(t, 1, accrual.ProcessedCount)
	assert.True(t, accrual.TotalAccrued.Equal(decimal.NewFromInt(5)))

	position := loadPosition(t, testDB.DB, userID, positionID)
	require.NoError(t, position.CheckInvariants())
	assert.False(t, position.Accrued.IsNegative())
	assert.True(t, position.Accrued.LessThanOrEqual(position.LifetimeAccrued))
	assert.True(t, position.LifetimeAccrued.LessThanOrEqual(position.Cap))
	assert.True(t, position.LifetimeAccrued.Equal(decimal.NewFromInt(105)), "lifetime %s", position.LifetimeAccrued)

	// Whichever ran first, the day's yield lands either in the claim or on the position, never both
	assert.True(t, quote.Gross.Add(position.Accrued).Equal(decimal.NewFromInt(105)),
		"gross %s + accrued %s", quote.Gross, position.Accrued)
	assert.Equal(t, 1, countClaims(t, testDB.DB, userID))
}
