package service

import (
	"context"
	"errors"
	"fmt"

	"tap_miniapp/internal/model"
	"tap_miniapp/internal/repository"
)

type LedgerConfig struct {
	// MonotonicBoostLevels rejects upgrades to a level at or below the
	// current one.
	MonotonicBoostLevels bool `mapstructure:"monotonicBoostLevels"`
}

type LedgerService struct {
	repo      LedgerRepository
	monotonic bool
}

func NewLedgerService(repo LedgerRepository, cfg LedgerConfig) *LedgerService {
	return &LedgerService{
		repo:      repo,
		monotonic: cfg.MonotonicBoostLevels,
	}
}

// UpgradeBoost sets the user's level of a boost to targetLevel and debits
// base_cost + cost_per_level*(targetLevel-1). The balance check runs before
// the level check so a replayed upgrade fails on funds first.
func (s *LedgerService) UpgradeBoost(ctx context.Context, telegramID, boostID int64, targetLevel int) (*model.BoostUpgrade, error) {
	boost, err := s.repo.GetBoost(ctx, boostID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrBoostNotFound
		}
		return nil, storageError(err)
	}

	if targetLevel < 1 || targetLevel > boost.MaxLevel {
		return nil, fmt.Errorf("%w: level %d outside 1..%d", ErrInvalidLevel, targetLevel, boost.MaxLevel)
	}

	cost := boost.UpgradeCost(targetLevel)
	result := &model.BoostUpgrade{
		BoostID:   boost.ID,
		BoostName: boost.Name,
		Level:     targetLevel,
		Cost:      cost,
	}

	user, err := s.repo.UpdateUser(ctx, telegramID, func(user *model.User) error {
		if !user.IsActive {
			return ErrUserInactive
		}

		if user.BoostsInfo == nil {
			user.BoostsInfo = model.BoostsInfo{}
		}
		progress, ok := user.BoostsInfo[boost.Name]
		if !ok {
			progress = boost.Snapshot()
		}

		if user.Balance < cost {
			return fmt.Errorf("%w: level %d costs %d, balance is %d", ErrInsufficientBalance, targetLevel, cost, user.Balance)
		}
		if s.monotonic && targetLevel <= progress.Level {
			return fmt.Errorf("%w: already at level %d", ErrInvalidLevel, progress.Level)
		}

		result.PreviousLevel = progress.Level
		user.Balance -= cost
		progress.Level = targetLevel
		user.BoostsInfo[boost.Name] = progress
		return nil
	})
	if err != nil {
		return nil, userError(err)
	}

	result.BalanceChange = model.BalanceChange{
		UserTelegramID: user.TelegramID,
		Balance:        user.Balance,
		Delta:          -cost,
	}

	return result, nil
}

// CompleteTask credits the task reward once per (user, task) pair.
func (s *LedgerService) CompleteTask(ctx context.Context, telegramID, taskID int64) (*model.TaskReward, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, storageError(err)
	}

	user, err := s.repo.CompleteTask(ctx, telegramID, taskID, func(user *model.User) error {
		if !user.IsActive {
			return ErrUserInactive
		}
		user.Balance += task.Reward
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyCompleted) {
			return nil, ErrAlreadyCompleted
		}
		return nil, userError(err)
	}

	return &model.TaskReward{
		BalanceChange: model.BalanceChange{
			UserTelegramID: user.TelegramID,
			Balance:        user.Balance,
			Delta:          task.Reward,
		},
		TaskID: task.ID,
		Reward: task.Reward,
	}, nil
}

// AdjustBalance adds delta, which may be negative, to the user's balance.
func (s *LedgerService) AdjustBalance(ctx context.Context, telegramID, delta int64) (*model.BalanceChange, error) {
	user, err := s.repo.UpdateUser(ctx, telegramID, func(user *model.User) error {
		if !user.IsActive {
			return ErrUserInactive
		}

		next := user.Balance + delta
		if next < 0 {
			return fmt.Errorf("%w: balance %d cannot absorb %d", ErrInsufficientBalance, user.Balance, delta)
		}
		user.Balance = next
		return nil
	})
	if err != nil {
		return nil, userError(err)
	}

	return &model.BalanceChange{
		UserTelegramID: user.TelegramID,
		Balance:        user.Balance,
		Delta:          delta,
	}, nil
}
