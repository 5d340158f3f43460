package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tap_miniapp/internal/model"
	"tap_miniapp/internal/repository"
)

type UserService struct {
	repo UserRepository
	now  func() time.Time
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{
		repo: repo,
		now:  time.Now,
	}
}

// Onboard creates the user with every catalog boost snapshotted at level 1.
// A referrer that does not resolve to an existing user, or that equals the
// new user, is dropped without failing the call.
func (s *UserService) Onboard(ctx context.Context, telegramID int64, referrerID *int64) (*model.User, error) {
	boosts, err := s.repo.ListBoosts(ctx)
	if err != nil {
		return nil, storageError(err)
	}

	info := make(model.BoostsInfo, len(boosts))
	for _, b := range boosts {
		info[b.Name] = b.Snapshot()
	}

	user := &model.User{
		TelegramID: telegramID,
		Balance:    0,
		BoostsInfo: info,
		JoinedAt:   s.now().UTC().Truncate(time.Microsecond),
		IsActive:   true,
	}

	if referrerID != nil && *referrerID != telegramID {
		_, err := s.repo.GetUserByTelegramID(ctx, *referrerID)
		switch {
		case err == nil:
			id := *referrerID
			user.ReferrerID = &id
		case errors.Is(err, repository.ErrNotFound):
		default:
			return nil, storageError(err)
		}
	}

	err = s.repo.CreateUser(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			return nil, ErrAlreadyExists
		}
		return nil, storageError(err)
	}

	return user, nil
}

func (s *UserService) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	user, err := s.repo.GetUserByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by telegram ID: %w", userError(err))
	}
	return user, nil
}

func (s *UserService) GetUserReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error) {
	if _, err := s.repo.GetUserByTelegramID(ctx, telegramID); err != nil {
		return nil, userError(err)
	}

	referrals, err := s.repo.GetUserReferrals(ctx, telegramID)
	if err != nil {
		return nil, storageError(err)
	}
	return referrals, nil
}
