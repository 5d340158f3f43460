package service

import (
	"context"
	"fmt"

	"tap_miniapp/internal/model"
)

type CatalogService struct {
	repo CatalogRepository
}

func NewCatalogService(repo CatalogRepository) *CatalogService {
	return &CatalogService{
		repo: repo,
	}
}

func (s *CatalogService) ListBoosts(ctx context.Context) ([]*model.Boost, error) {
	boosts, err := s.repo.ListBoosts(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return boosts, nil
}

func (s *CatalogService) ListTasks(ctx context.Context) ([]*model.Task, error) {
	tasks, err := s.repo.ListTasks(ctx)
	if err != nil {
		return nil, storageError(err)
	}
	return tasks, nil
}

func (s *CatalogService) GetCompletedTasks(ctx context.Context, telegramID int64) ([]*model.TaskCompletion, error) {
	if _, err := s.repo.GetUserByTelegramID(ctx, telegramID); err != nil {
		return nil, userError(err)
	}

	completed, err := s.repo.GetCompletedTasks(ctx, telegramID)
	if err != nil {
		return nil, storageError(err)
	}
	return completed, nil
}

// Seed upserts the configured catalog rows. Users onboarded earlier keep
// their boost snapshots.
func (s *CatalogService) Seed(ctx context.Context, boosts []*model.Boost, tasks []*model.Task) error {
	for _, b := range boosts {
		if err := s.repo.UpsertBoost(ctx, b); err != nil {
			return fmt.Errorf("failed to seed boost %q: %w", b.Name, err)
		}
	}

	for _, t := range tasks {
		if err := s.repo.UpsertTask(ctx, t); err != nil {
			return fmt.Errorf("failed to seed task %q: %w", t.Name, err)
		}
	}

	return nil
}
