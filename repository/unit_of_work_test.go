package repository

import (
	"context"
	"testing"

	"shogun/domain/testhelpers"
	"shogun/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUnitOfWork_CommitFlushesEvents(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	publisher := &testhelpers.MockTransactionalEventPublisher{}
	publisher.On("Flush", mock.Anything).Return(nil)

	uow := CreateTestUnitOfWork(testDB.DB, publisher)
	require.NoError(t, uow.Begin(ctx))
	defer uow.Rollback()

	user := testutil.CreateTestUser("committed")
	require.NoError(t, uow.UserRepository().Create(ctx, user))
	require.NoError(t, uow.Commit())

	got, err := NewUserRepository(testDB.DB).GetByLoginID(ctx, "committed")
	require.NoError(t, err)
	assert.NotNil(t, got)

	publisher.AssertExpectations(t)
	publisher.AssertNotCalled(t, "Discard")
}

func TestUnitOfWork_RollbackDiscardsEvents(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	ctx := context.Background()

	publisher := &testhelpers.MockTransactionalEventPublisher{}
	publisher.On("Discard").Return()

	uow := CreateTestUnitOfWork(testDB.DB, publisher)
	require.NoError(t, uow.Begin(ctx))

	user := testutil.CreateTestUser("rolled-back")
	require.NoError(t, uow.UserRepository().Create(ctx, user))
	require.NoError(t, uow.Rollback())

	// a second rollback is a no-op
	require.NoError(t, uow.Rollback())

	got, err := NewUserRepository(testDB.DB).GetByLoginID(ctx, "rolled-back")
	require.NoError(t, err)
	assert.Nil(t, got)

	publisher.AssertNumberOfCalls(t, "Discard", 1)
	publisher.AssertNotCalled(t, "Flush", mock.Anything)
}

func TestUnitOfWork_RequiresBegin(t *testing.T) {
	uow := NewUnitOfWorkFactory(nil).CreateWithPublisher(&testhelpers.MockTransactionalEventPublisher{})

	assert.Panics(t, func() { uow.UserRepository() })
	assert.Panics(t, func() { uow.ClaimRepository() })
	assert.Error(t, uow.Commit())
	assert.NoError(t, uow.Rollback())
}
