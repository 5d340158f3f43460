package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tap_miniapp/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"
)

type Boost struct {
	ID            int64           `db:"id"`
	Name          string          `db:"name"`
	Description   string          `db:"description"`
	BaseCost      int64           `db:"base_cost"`
	CostPerLevel  decimal.Decimal `db:"cost_per_level"`
	BaseValue     int64           `db:"base_value"`
	ValuePerLevel int64           `db:"value_per_level"`
	MaxLevel      int             `db:"max_level"`
}

func (b *Boost) toModel() *model.Boost {
	return &model.Boost{
		ID:            b.ID,
		Name:          b.Name,
		Description:   b.Description,
		BaseCost:      b.BaseCost,
		CostPerLevel:  b.CostPerLevel,
		BaseValue:     b.BaseValue,
		ValuePerLevel: b.ValuePerLevel,
		MaxLevel:      b.MaxLevel,
	}
}

type Task struct {
	ID          int64  `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	Icon        string `db:"icon"`
	Reward      int64  `db:"reward"`
}

func (t *Task) toModel() *model.Task {
	return &model.Task{
		ID:          t.ID,
		Name:        t.Name,
		Description: t.Description,
		Icon:        t.Icon,
		Reward:      t.Reward,
	}
}

var boostColumns = []string{
	"id",
	"name",
	"description",
	"base_cost",
	"cost_per_level",
	"base_value",
	"value_per_level",
	"max_level",
}

var taskColumns = []string{
	"id",
	"name",
	"description",
	"icon",
	"reward",
}

func (r *Repository) ListBoosts(ctx context.Context) ([]*model.Boost, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query, args, err := squirrel.
		Select(boostColumns...).
		From("boosts").
		OrderBy("id").
		PlaceholderFormat(r.placeholder).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var boosts []Boost
	err = r.db.SelectContext(ctx, &boosts, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list boosts: %w", err)
	}

	out := make([]*model.Boost, len(boosts))
	for i := range boosts {
		out[i] = boosts[i].toModel()
	}

	return out, nil
}

func (r *Repository) GetBoost(ctx context.Context, boostID int64) (*model.Boost, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query, args, err := squirrel.
		Select(boostColumns...).
		From("boosts").
		Where(squirrel.Eq{"id": boostID}).
		PlaceholderFormat(r.placeholder).
		ToSql()
	if err != nil {
		return nil, err
	}

	var boost Boost
	err = r.db.GetContext(ctx, &boost, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return boost.toModel(), nil
}

// UpsertBoost inserts the boost or overwrites the row with the same id.
// Existing user snapshots are left untouched.
func (r *Repository) UpsertBoost(ctx context.Context, boost *model.Boost) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query, args, err := squirrel.
		Insert("boosts").
		Columns(boostColumns...).
		Values(
			boost.ID,
			boost.Name,
			boost.Description,
			boost.BaseCost,
			boost.CostPerLevel,
			boost.BaseValue,
			boost.ValuePerLevel,
			boost.MaxLevel,
		).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			base_cost = EXCLUDED.base_cost,
			cost_per_level = EXCLUDED.cost_per_level,
			base_value = EXCLUDED.base_value,
			value_per_level = EXCLUDED.value_per_level,
			max_level = EXCLUDED.max_level`).
		PlaceholderFormat(r.placeholder).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build boost upsert query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to upsert boost: %w", err)
	}

	return nil
}

func (r *Repository) ListTasks(ctx context.Context) ([]*model.Task, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query, args, err := squirrel.
		Select(taskColumns...).
		From("tasks").
		OrderBy("id").
		PlaceholderFormat(r.placeholder).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var tasks []Task
	err = r.db.SelectContext(ctx, &tasks, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	out := make([]*model.Task, len(tasks))
	for i := range tasks {
		out[i] = tasks[i].toModel()
	}

	return out, nil
}

func (r *Repository) GetTask(ctx context.Context, taskID int64) (*model.Task, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query, args, err := squirrel.
		Select(taskColumns...).
		From("tasks").
		Where(squirrel.Eq{"id": taskID}).
		PlaceholderFormat(r.placeholder).
		ToSql()
	if err != nil {
		return nil, err
	}

	var task Task
	err = r.db.GetContext(ctx, &task, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return task.toModel(), nil
}

func (r *Repository) UpsertTask(ctx context.Context, task *model.Task) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query, args, err := squirrel.
		Insert("tasks").
		Columns(taskColumns...).
		Values(task.ID, task.Name, task.Description, task.Icon, task.Reward).
		Suffix(`ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			icon = EXCLUDED.icon,
			reward = EXCLUDED.reward`).
		PlaceholderFormat(r.placeholder).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build task upsert query: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to upsert task: %w", err)
	}

	return nil
}
