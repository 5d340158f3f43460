package mocks

import (
	"context"

	"tap_miniapp/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockUserService struct {
	mock.Mock
}

func (_m *MockUserService) Onboard(ctx context.Context, telegramID int64, referrerID *int64) (*model.User, error) {
	ret := _m.Called(ctx, telegramID, referrerID)

	var r0 *model.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.User)
	}
	return r0, ret.Error(1)
}

func (_m *MockUserService) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	ret := _m.Called(ctx, telegramID)

	var r0 *model.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.User)
	}
	return r0, ret.Error(1)
}

func (_m *MockUserService) GetUserReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error) {
	ret := _m.Called(ctx, telegramID)

	var r0 []*model.UserReferral
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*model.UserReferral)
	}
	return r0, ret.Error(1)
}

type MockLedgerService struct {
	mock.Mock
}

func (_m *MockLedgerService) UpgradeBoost(ctx context.Context, telegramID, boostID int64, targetLevel int) (*model.BoostUpgrade, error) {
	ret := _m.Called(ctx, telegramID, boostID, targetLevel)

	var r0 *model.BoostUpgrade
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.BoostUpgrade)
	}
	return r0, ret.Error(1)
}

func (_m *MockLedgerService) CompleteTask(ctx context.Context, telegramID, taskID int64) (*model.TaskReward, error) {
	ret := _m.Called(ctx, telegramID, taskID)

	var r0 *model.TaskReward
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.TaskReward)
	}
	return r0, ret.Error(1)
}

func (_m *MockLedgerService) AdjustBalance(ctx context.Context, telegramID, delta int64) (*model.BalanceChange, error) {
	ret := _m.Called(ctx, telegramID, delta)

	var r0 *model.BalanceChange
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.BalanceChange)
	}
	return r0, ret.Error(1)
}

type MockCatalogService struct {
	mock.Mock
}

func (_m *MockCatalogService) ListBoosts(ctx context.Context) ([]*model.Boost, error) {
	ret := _m.Called(ctx)

	var r0 []*model.Boost
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*model.Boost)
	}
	return r0, ret.Error(1)
}

func (_m *MockCatalogService) ListTasks(ctx context.Context) ([]*model.Task, error) {
	ret := _m.Called(ctx)

	var r0 []*model.Task
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*model.Task)
	}
	return r0, ret.Error(1)
}

func (_m *MockCatalogService) GetCompletedTasks(ctx context.Context, telegramID int64) ([]*model.TaskCompletion, error) {
	ret := _m.Called(ctx, telegramID)

	var r0 []*model.TaskCompletion
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*model.TaskCompletion)
	}
	return r0, ret.Error(1)
}
