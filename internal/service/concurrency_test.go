package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"tap_miniapp/internal/model"
	"tap_miniapp/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteService(t *testing.T) (*Service, *repository.Repository) {
	t.Helper()

	repo, err := repository.New(repository.Config{
		Driver:       repository.DriverSQLite,
		DSN:          ":memory:",
		EnsureSchema: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	svc := NewService(
		NewUserService(repo),
		NewLedgerService(repo, LedgerConfig{MonotonicBoostLevels: true}),
		NewCatalogService(repo),
	)
	return svc, repo
}

func TestLedger_ConcurrentUpgradeDebitsOnce(t *testing.T) {
	svc, repo := newSQLiteService(t)
	ctx := context.Background()

	charger := &model.Boost{
		ID:            1,
		Name:          "charger",
		BaseCost:      50,
		CostPerLevel:  decimal.NewFromInt(50),
		BaseValue:     1,
		ValuePerLevel: 1,
		MaxLevel:      5,
	}
	require.NoError(t, svc.Seed(ctx, []*model.Boost{charger}, nil))

	_, err := svc.Onboard(ctx, 42, nil)
	require.NoError(t, err)
	_, err = svc.AdjustBalance(ctx, 42, 100)
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		results = make([]error, 2)
	)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.UpgradeBoost(ctx, 42, 1, 2)
		}(i)
	}
	wg.Wait()

	var successes, insufficient int
	for _, err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, ErrInsufficientBalance):
			insufficient++
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, insufficient)

	user, err := repo.GetUserByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(0), user.Balance)
	assert.Equal(t, 2, user.BoostsInfo["charger"].Level)
}

func TestLedger_ConcurrentTaskCompletionCreditsOnce(t *testing.T) {
	svc, repo := newSQLiteService(t)
	ctx := context.Background()

	require.NoError(t, svc.Seed(ctx, nil, []*model.Task{{ID: 5, Name: "invite a friend", Reward: 1000}}))
	_, err := svc.Onboard(ctx, 42, nil)
	require.NoError(t, err)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		completed int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.LedgerService.CompleteTask(ctx, 42, 5)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrAlreadyCompleted):
				completed++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, completed)

	user, err := repo.GetUserByTelegramID(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), user.Balance)
}

func TestLedger_OnboardWithReferrer(t *testing.T) {
	svc, _ := newSQLiteService(t)
	ctx := context.Background()

	_, err := svc.Onboard(ctx, 1, nil)
	require.NoError(t, err)

	user, err := svc.Onboard(ctx, 2, ptr(1))
	require.NoError(t, err)
	require.NotNil(t, user.ReferrerID)

	_, err = svc.Onboard(ctx, 2, ptr(1))
	assert.ErrorIs(t, err, ErrAlreadyExists)

	refs, err := svc.GetUserReferrals(ctx, 1)
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, int64(2), refs[0].TelegramID)
}
