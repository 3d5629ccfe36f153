package repository

import (
	"context"
	"testing"

	"shogun/domain/entities"
	"shogun/repository/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("user not found", func(t *testing.T) {
		user, err := repo.GetByID(ctx, 999999)
		require.NoError(t, err)
		assert.Nil(t, user)

		user, err = repo.GetByLoginID(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("root and referred members", func(t *testing.T) {
		root := testutil.CreateTestUser("root")
		root.WalletType = entities.WalletTypeEVO
		require.NoError(t, repo.Create(ctx, root))
		assert.NotZero(t, root.ID)
		assert.False(t, root.CreatedAt.IsZero())

		child := testutil.CreateTestUserWithReferrer("child", root.ID)
		require.NoError(t, repo.Create(ctx, child))

		got, err := repo.GetByLoginID(ctx, "child")
		require.NoError(t, err)
		require.NotNil(t, got)
		require.NotNil(t, got.ReferrerID)
		assert.Equal(t, root.ID, *got.ReferrerID)
		assert.Equal(t, entities.WalletTypeOther, got.WalletType)
		assert.Nil(t, got.Rank)
		assert.True(t, got.BonusBalance.IsZero())

		got, err = repo.GetByID(ctx, root.ID)
		require.NoError(t, err)
		assert.Equal(t, entities.WalletTypeEVO, got.WalletType)
		assert.True(t, got.IsRoot())
	})

	t.Run("duplicate login ID", func(t *testing.T) {
		require.NoError(t, repo.Create(ctx, testutil.CreateTestUser("dup")))
		assert.Error(t, repo.Create(ctx, testutil.CreateTestUser("dup")))
	})

	t.Run("unknown referrer", func(t *testing.T) {
		assert.Error(t, repo.Create(ctx, testutil.CreateTestUserWithReferrer("orphan", 424242)))
	})
}

func TestUserRepository_GetChildren(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	root := testutil.CreateTestUser("root")
	require.NoError(t, repo.Create(ctx, root))

	a := testutil.CreateTestUserWithReferrer("a", root.ID)
	b := testutil.CreateTestUserWithReferrer("b", root.ID)
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	a1 := testutil.CreateTestUserWithReferrer("a1", a.ID)
	b1 := testutil.CreateTestUserWithReferrer("b1", b.ID)
	require.NoError(t, repo.Create(ctx, a1))
	require.NoError(t, repo.Create(ctx, b1))

	children, err := repo.GetChildren(ctx, []int64{root.ID})
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, a.ID, children[0].ID)
	assert.Equal(t, b.ID, children[1].ID)

	grandchildren, err := repo.GetChildren(ctx, []int64{a.ID, b.ID})
	require.NoError(t, err)
	require.Len(t, grandchildren, 2)
	assert.Equal(t, a1.ID, grandchildren[0].ID)
	assert.Equal(t, b1.ID, grandchildren[1].ID)

	none, err := repo.GetChildren(ctx, []int64{a1.ID})
	require.NoError(t, err)
	assert.Empty(t, none)

	ids, err := repo.GetAllIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{root.ID, a.ID, b.ID, a1.ID, b1.ID}, ids)
}

func TestUserRepository_RankAndBonus(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	u1 := testutil.CreateTestUser("u1")
	u2 := testutil.CreateTestUser("u2")
	u3 := testutil.CreateTestUser("u3")
	for _, u := range []*entities.User{u1, u2, u3} {
		require.NoError(t, repo.Create(ctx, u))
	}

	ashigaru := entities.RankName("足軽")
	require.NoError(t, repo.UpdateRank(ctx, u1.ID, &ashigaru))
	require.NoError(t, repo.UpdateRank(ctx, u2.ID, &ashigaru))

	ranked, err := repo.GetByRankForUpdate(ctx, ashigaru)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, u1.ID, ranked[0].ID)
	assert.Equal(t, u2.ID, ranked[1].ID)

	require.NoError(t, repo.AddBonusBalance(ctx, []int64{u1.ID, u2.ID}, decimal.RequireFromString("2250.12345678")))
	require.NoError(t, repo.AddBonusBalance(ctx, []int64{u1.ID}, decimal.RequireFromString("0.5")))

	got, err := repo.GetByID(ctx, u1.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("2250.62345678").Equal(got.BonusBalance), got.BonusBalance.String())

	got, err = repo.GetByID(ctx, u3.ID)
	require.NoError(t, err)
	assert.True(t, got.BonusBalance.IsZero())

	// clearing the rank
	require.NoError(t, repo.UpdateRank(ctx, u1.ID, nil))
	got, err = repo.GetByID(ctx, u1.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Rank)

	assert.Error(t, repo.UpdateRank(ctx, 999999, &ashigaru))
	assert.Error(t, repo.AddBonusBalance(ctx, []int64{999999}, decimal.NewFromInt(1)))
}
