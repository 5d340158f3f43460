package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"tap_miniapp/internal/model"

	"github.com/Masterminds/squirrel"
	"github.com/goccy/go-json"
	"github.com/jmoiron/sqlx"
)

var userColumns = []string{
	"telegram_id",
	"balance",
	"boosts_info",
	"joined_at",
	"is_active",
	"referrer_id",
}

type User struct {
	TelegramID int64            `db:"telegram_id"`
	Balance    int64            `db:"balance"`
	BoostsInfo boostsInfoColumn `db:"boosts_info"`
	JoinedAt   time.Time        `db:"joined_at"`
	IsActive   bool             `db:"is_active"`
	ReferrerID *int64           `db:"referrer_id"`
}

func (u *User) toModel() *model.User {
	info := model.BoostsInfo(u.BoostsInfo)
	if info == nil {
		info = model.BoostsInfo{}
	}
	return &model.User{
		TelegramID: u.TelegramID,
		Balance:    u.Balance,
		BoostsInfo: info,
		JoinedAt:   u.JoinedAt,
		IsActive:   u.IsActive,
		ReferrerID: u.ReferrerID,
	}
}

type userReferral struct {
	TelegramID int64     `db:"telegram_id"`
	Balance    int64     `db:"balance"`
	JoinedAt   time.Time `db:"joined_at"`
}

// boostsInfoColumn stores model.BoostsInfo as a JSON document.
type boostsInfoColumn model.BoostsInfo

func (b *boostsInfoColumn) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*b = boostsInfoColumn{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported boosts_info type %T", src)
	}

	info := model.BoostsInfo{}
	if err := json.Unmarshal(raw, &info); err != nil {
		return fmt.Errorf("failed to decode boosts_info: %w", err)
	}
	*b = boostsInfoColumn(info)
	return nil
}

func (b boostsInfoColumn) Value() (driver.Value, error) {
	if b == nil {
		return "{}", nil
	}
	raw, err := json.Marshal(model.BoostsInfo(b))
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	return r.Transaction(ctx, func(tx *sqlx.Tx) error {
		query, args, err := squirrel.
			Insert("users").
			SetMap(map[string]interface{}{
				"telegram_id": user.TelegramID,
				"balance":     user.Balance,
				"boosts_info": boostsInfoColumn(user.BoostsInfo),
				"joined_at":   user.JoinedAt,
				"is_active":   user.IsActive,
				"referrer_id": user.ReferrerID,
			}).
			PlaceholderFormat(r.placeholder).
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build user insert query: %w", err)
		}

		_, err = tx.ExecContext(ctx, query, args...)
		if err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyExists
			}
			return fmt.Errorf("failed to insert user: %w", err)
		}

		return nil
	})
}

func (r *Repository) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	var user User
	query, args, err := squirrel.
		Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"telegram_id": telegramID}).
		PlaceholderFormat(r.placeholder).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = r.db.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

func (r *Repository) getUserForUpdate(ctx context.Context, tx *sqlx.Tx, telegramID int64) (*model.User, error) {
	var user User
	query, args, err := r.forUpdate(squirrel.
		Select(userColumns...).
		From("users").
		Where(squirrel.Eq{"telegram_id": telegramID})).
		PlaceholderFormat(r.placeholder).
		ToSql()
	if err != nil {
		return nil, err
	}

	err = tx.GetContext(ctx, &user, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return user.toModel(), nil
}

func (r *Repository) saveUserWithTx(ctx context.Context, tx *sqlx.Tx, user *model.User) error {
	query, args, err := squirrel.
		Update("users").
		Set("balance", user.Balance).
		Set("boosts_info", boostsInfoColumn(user.BoostsInfo)).
		Where(squirrel.Eq{"telegram_id": user.TelegramID}).
		PlaceholderFormat(r.placeholder).
		ToSql()
	if err != nil {
		return err
	}

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateUser locks the user row, lets fn mutate the balance and boosts, and
// writes the result back in the same transaction. An error from fn rolls the
// transaction back and is returned unchanged.
func (r *Repository) UpdateUser(ctx context.Context, telegramID int64, fn func(user *model.User) error) (*model.User, error) {
	var updated *model.User

	err := r.Transaction(ctx, func(tx *sqlx.Tx) error {
		user, err := r.getUserForUpdate(ctx, tx, telegramID)
		if err != nil {
			return err
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

func (r *Repository) GetUserReferrals(ctx context.Context, telegramID int64) ([]*model.UserReferral, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	query := squirrel.Select(
		"telegram_id",
		"balance",
		"joined_at",
	).
		From("users").
		Where(squirrel.Eq{"referrer_id": telegramID}).
		OrderBy("balance DESC", "telegram_id").
		PlaceholderFormat(r.placeholder)

	sqlQuery, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var referrals []*userReferral
	err = r.db.SelectContext(ctx, &referrals, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get user referrals: %w", err)
	}

	refs := make([]*model.UserReferral, len(referrals))
	for i, ref := range referrals {
		refs[i] = &model.UserReferral{
			TelegramID: ref.TelegramID,
			Balance:    ref.Balance,
			JoinedAt:   ref.JoinedAt,
		}
	}

	return refs, nil
}
