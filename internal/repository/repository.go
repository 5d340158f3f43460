package repository

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"tap_miniapp/pkg/logger"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrAlreadyCompleted = errors.New("already completed")
)

const (
	DriverPgx    = "pgx"
	DriverPq     = "postgres"
	DriverSQLite = "sqlite3"

	defaultQueryTimeout = 5 * time.Second
)

//go:embed schema.sql
var schema string

type Repository struct {
	db          *sqlx.DB
	placeholder squirrel.PlaceholderFormat
	lockRows    bool
	timeout     time.Duration
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) Transaction(ctx context.Context, t func(tx *sqlx.Tx) error) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	err = t(tx)
	if err != nil {
		txErr := tx.Rollback()
		if txErr != nil {
			return errors.Wrapf(err, "rollback error: %v", txErr)
		}
		return err
	}
	return tx.Commit()
}

func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// forUpdate appends a row lock where the dialect supports one. SQLite runs on
// a single connection, so transactions are already serialized there.
func (r *Repository) forUpdate(b squirrel.SelectBuilder) squirrel.SelectBuilder {
	if r.lockRows {
		return b.Suffix("FOR UPDATE")
	}
	return b
}

type Config struct {
	Driver       string        `mapstructure:"driver"`
	DSN          string        `mapstructure:"dsn"`
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	User         string        `mapstructure:"user"`
	Password     string        `mapstructure:"password"`
	Name         string        `mapstructure:"name"`
	MaxOpenConns int           `mapstructure:"maxOpenConns"`
	QueryTimeout time.Duration `mapstructure:"queryTimeout"`
	EnsureSchema bool          `mapstructure:"ensureSchema"`
}

func New(cfg Config) (*Repository, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverPgx
	}

	db, err := sqlx.Connect(driver, cfg.GetDatabaseURL())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	r := &Repository{
		db:          db,
		placeholder: squirrel.Dollar,
		lockRows:    true,
		timeout:     cfg.QueryTimeout,
	}
	if r.timeout <= 0 {
		r.timeout = defaultQueryTimeout
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		r.placeholder = squirrel.Question
		r.lockRows = false
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if cfg.EnsureSchema {
		if err := r.EnsureSchema(context.Background()); err != nil {
			db.Close()
			return nil, err
		}
	}

	logger.Logger().Info("Connected to database successfully", zap.String("driver", driver))

	return r, nil
}

// EnsureSchema creates the tables if they do not exist yet.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return nil
}

func (c *Config) GetDatabaseURL() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.Name,
	)
}

// isUniqueViolation reports whether err is a unique or primary key conflict
// from any of the supported drivers.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}

	return false
}
