package mocks

import (
	"context"

	"tap_miniapp/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockUserRepository struct {
	mock.Mock
}

func (_m *MockUserRepository) CreateUser(ctx context.Context, user *model.User) error {
	ret := _m.Called(ctx, user)
	return ret.Error(0)
}

func (_m *MockUserRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	ret := _m.Called(ctx, telegramID)

	var r0 *model.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.User)
	}
	return r0, ret.Error(1)
}

func (_m *MockUserRepository) GetUserReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error) {
	ret := _m.Called(ctx, telegramID)

	var r0 []*model.UserReferral
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*model.UserReferral)
	}
	return r0, ret.Error(1)
}

func (_m *MockUserRepository) ListBoosts(ctx context.Context) ([]*model.Boost, error) {
	ret := _m.Called(ctx)

	var r0 []*model.Boost
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*model.Boost)
	}
	return r0, ret.Error(1)
}

// MockLedgerRepository runs update callbacks against the user returned by
// the expectation, mirroring what the real repository does inside its
// transaction.
type MockLedgerRepository struct {
	mock.Mock
}

func (_m *MockLedgerRepository) GetBoost(ctx context.Context, boostID int64) (*model.Boost, error) {
	ret := _m.Called(ctx, boostID)

	var r0 *model.Boost
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Boost)
	}
	return r0, ret.Error(1)
}

func (_m *MockLedgerRepository) GetTask(ctx context.Context, taskID int64) (*model.Task, error) {
	ret := _m.Called(ctx, taskID)

	var r0 *model.Task
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.Task)
	}
	return r0, ret.Error(1)
}

func (_m *MockLedgerRepository) UpdateUser(ctx context.Context, telegramID int64, fn func(user *model.User) error) (*model.User, error) {
	ret := _m.Called(ctx, telegramID, fn)
	return applyUpdate(ret, fn)
}

func (_m *MockLedgerRepository) CompleteTask(ctx context.Context, telegramID, taskID int64, fn func(user *model.User) error) (*model.User, error) {
	ret := _m.Called(ctx, telegramID, taskID, fn)
	return applyUpdate(ret, fn)
}

func applyUpdate(ret mock.Arguments, fn func(user *model.User) error) (*model.User, error) {
	if err := ret.Error(1); err != nil {
		return nil, err
	}
	if ret.Get(0) == nil {
		return nil, nil
	}

	user := *ret.Get(0).(*model.User)
	user.BoostsInfo = user.BoostsInfo.Clone()
	if err := fn(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

type MockCatalogRepository struct {
	mock.Mock
}

func (_m *MockCatalogRepository) ListBoosts(ctx context.Context) ([]*model.Boost, error) {
	ret := _m.Called(ctx)

	var r0 []*model.Boost
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*model.Boost)
	}
	return r0, ret.Error(1)
}

func (_m *MockCatalogRepository) ListTasks(ctx context.Context) ([]*model.Task, error) {
	ret := _m.Called(ctx)

	var r0 []*model.Task
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*model.Task)
	}
	return r0, ret.Error(1)
}

func (_m *MockCatalogRepository) UpsertBoost(ctx context.Context, boost *model.Boost) error {
	ret := _m.Called(ctx, boost)
	return ret.Error(0)
}

func (_m *MockCatalogRepository) UpsertTask(ctx context.Context, task *model.Task) error {
	ret := _m.Called(ctx, task)
	return ret.Error(0)
}

func (_m *MockCatalogRepository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	ret := _m.Called(ctx, telegramID)

	var r0 *model.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*model.User)
	}
	return r0, ret.Error(1)
}

func (_m *MockCatalogRepository) GetCompletedTasks(ctx context.Context, telegramID int64) ([]*model.TaskCompletion, error) {
	ret := _m.Called(ctx, telegramID)

	var r0 []*model.TaskCompletion
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*model.TaskCompletion)
	}
	return r0, ret.Error(1)
}
