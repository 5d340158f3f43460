package service

import (
	"context"
	"errors"
	"fmt"

	"tap_miniapp/internal/model"
	"tap_miniapp/internal/repository"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrBoostNotFound       = errors.New("boost not found")
	ErrTaskNotFound        = errors.New("task not found")
	ErrInvalidLevel        = errors.New("invalid boost level")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadyCompleted    = errors.New("task already completed")
	ErrAlreadyExists       = errors.New("user already exists")
	ErrUserInactive        = errors.New("user is not active")
	ErrStorageUnavailable  = errors.New("storage unavailable")
)

var reasons = []struct {
	err  error
	name string
}{
	{ErrUserNotFound, "UserNotFound"},
	{ErrBoostNotFound, "BoostNotFound"},
	{ErrTaskNotFound, "TaskNotFound"},
	{ErrInvalidLevel, "InvalidLevel"},
	{ErrInsufficientBalance, "InsufficientBalance"},
	{ErrAlreadyCompleted, "AlreadyCompleted"},
	{ErrAlreadyExists, "AlreadyExists"},
	{ErrUserInactive, "UserInactive"},
	{ErrStorageUnavailable, "StorageUnavailable"},
}

// Reason returns the failure name of a service error, or an empty string.
func Reason(err error) string {
	for _, r := range reasons {
		if errors.Is(err, r.err) {
			return r.name
		}
	}
	return ""
}

type Service struct {
	*UserService
	*LedgerService
	*CatalogService
}

func NewService(userService *UserService, ledgerService *LedgerService, catalogService *CatalogService) *Service {
	return &Service{
		UserService:    userService,
		LedgerService:  ledgerService,
		CatalogService: catalogService,
	}
}

type UserServiceI interface {
	Onboard(ctx context.Context, telegramID int64, referrerID *int64) (*model.User, error)
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetUserReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetUserReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error)
	ListBoosts(ctx context.Context) ([]*model.Boost, error)
}

type LedgerServiceI interface {
	UpgradeBoost(ctx context.Context, telegramID, boostID int64, targetLevel int) (*model.BoostUpgrade, error)
	CompleteTask(ctx context.Context, telegramID, taskID int64) (*model.TaskReward, error)
	AdjustBalance(ctx context.Context, telegramID, delta int64) (*model.BalanceChange, error)
}

type LedgerRepository interface {
	GetBoost(ctx context.Context, boostID int64) (*model.Boost, error)
	GetTask(ctx context.Context, taskID int64) (*model.Task, error)
	UpdateUser(ctx context.Context, telegramID int64, fn func(user *model.User) error) (*model.User, error)
	CompleteTask(ctx context.Context, telegramID, taskID int64, fn func(user *model.User) error) (*model.User, error)
}

type CatalogServiceI interface {
	ListBoosts(ctx context.Context) ([]*model.Boost, error)
	ListTasks(ctx context.Context) ([]*model.Task, error)
	GetCompletedTasks(ctx context.Context, telegramID int64) ([]*model.TaskCompletion, error)
}

type CatalogRepository interface {
	ListBoosts(ctx context.Context) ([]*model.Boost, error)
	ListTasks(ctx context.Context) ([]*model.Task, error)
	UpsertBoost(ctx context.Context, boost *model.Boost) error
	UpsertTask(ctx context.Context, task *model.Task) error
	GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	GetCompletedTasks(ctx context.Context, telegramID int64) ([]*model.TaskCompletion, error)
}

// storageError marks an unclassified repository failure as retryable.
func storageError(err error) error {
	return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
}

// userError translates repository errors raised while touching a user row.
// Service errors returned from inside an update callback pass through.
func userError(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrUserNotFound
	case Reason(err) != "":
		return err
	default:
		return storageError(err)
	}
}
