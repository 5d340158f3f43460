package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"tap_miniapp/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
)

// CompleteTask records the (user, task) completion and applies fn to the
// locked user row in one transaction. The primary key on users_tasks is the
// final guard against two requests completing the same pair.
func (r *Repository) CompleteTask(ctx context.Context, telegramID, taskID int64, fn func(user *model.User) error) (*model.User, error) {
	var updated *model.User

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		user, err := r.getUserForUpdate(ctx, tx, telegramID)
		if err != nil {
			return err
		}

		completed, err := r.isTaskCompletedWithTx(ctx, tx, telegramID, taskID)
		if err != nil {
			return err
		}
		if completed {
			return ErrAlreadyCompleted
		}

		insertQuery, insertArgs, err := squirrel.
			Insert("users_tasks").
			Columns("user_telegram_id", "task_id", "completed_at").
			Values(telegramID, taskID, time.Now().UTC()).
			PlaceholderFormat(r.placeholder).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build completion insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, insertQuery, insertArgs...)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyCompleted
			}
			return fmt.Errorf("failed to insert task completion: %w", err)
		}

		if err := fn(user); err != nil {
			return err
		}

		if err := r.saveUserWithTx(ctx, tx, user); err != nil {
			return err
		}

		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *Repository) isTaskCompletedWithTx(ctx context.Context, tx *sqlx.Tx, telegramID, taskID int64) (bool, error) {
	query, args, err := squirrel.
		Select("1").
		From("users_tasks").
		Where(squirrel.Eq{
			"user_telegram_id": telegramID,
			"task_id":          taskID,
		}).
		PlaceholderFormat(r.placeholder).
		ToSql()
	if err != nil {
		return false, err
	}

	var exists int
	err = tx.GetContext(ctx, &exists, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}

	return true, nil
}

func (r *Repository) GetCompletedTasks(ctx context.Context, telegramID int64) ([]*model.TaskCompletion, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query, args, err := squirrel.
		Select("user_telegram_id", "task_id", "completed_at").
		From("users_tasks").
		Where(squirrel.Eq{"user_telegram_id": telegramID}).
		OrderBy("completed_at", "task_id").
		PlaceholderFormat(r.placeholder).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var rows []struct {
		UserTelegramID int64     `db:"user_telegram_id"`
		TaskID         int64     `db:"task_id"`
		CompletedAt    time.Time `db:"completed_at"`
	}
	err = r.db.SelectContext(ctx, &rows, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get completed tasks: %w", err)
	}

	out := make([]*model.TaskCompletion, len(rows))
	for i, row := range rows {
		out[i] = &model.TaskCompletion{
			UserTelegramID: row.UserTelegramID,
			TaskID:         row.TaskID,
			CompletedAt:    row.CompletedAt,
		}
	}

	return out, nil
}
