// Package db is the persistence gateway of the SST ledger. It owns the gorm
// connection pool and translates datastore failures into domain errors.
package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	dbmodels "github.com/globalled/sst/internal/sst/db/models"
	e "github.com/globalled/sst/internal/sst/errors"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// DSN renders cfg as a libpq keyword/value connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dsnValue(c.Host), c.Port, dsnValue(c.User), dsnValue(c.Password), dsnValue(c.DBName), dsnValue(c.SSLMode))
}

// dsnValue single-quotes v when it is empty or holds whitespace, quotes or
// backslashes, escaping the latter two.
func dsnValue(v string) string {
	if v != "" && !strings.ContainsAny(v, " \t\n\r'\\") {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// NewRepository connects to postgres, sizes the pool and migrates the schema.
func NewRepository(cfg *Config) (*Repository, error) {
	repo, err := Open(postgres.Open(cfg.DSN()))
	if err != nil {
		return nil, err
	}

	sqlDB, err := repo.db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return repo, nil
}

// Open opens a gorm connection on any dialector and migrates the schema.
func Open(dialector gorm.Dialector) (*Repository, error) {
	gdb, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := New(gdb)
	if err := repo.Migrate(); err != nil {
		return nil, err
	}
	return repo, nil
}

// New wraps an already opened gorm handle without touching the schema.
func New(gdb *gorm.DB) *Repository {
	return &Repository{db: gdb}
}

// Migrate creates or updates the five ledger tables.
func (r *Repository) Migrate() error {
	if err := r.db.AutoMigrate(dbmodels.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// Ping checks that a pooled connection can reach the datastore.
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return unavailable("ping", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

// WithTransaction runs fn in a transaction that commits when fn returns nil
// and rolls back on any error or panic.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

// insert creates a single row inside its own transaction.
func (r *Repository) insert(ctx context.Context, row interface{}) error {
	return r.WithTransaction(ctx, func(tx *Repository) error {
		return tx.db.WithContext(ctx).Omit(clause.Associations).Create(row).Error
	})
}

// exists reports whether an active row matches column = value.
func (r *Repository) exists(ctx context.Context, model interface{}, column string, value interface{}) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(model).
		Where(column+" = ? AND active = ?", value, true).
		Limit(1).
		Count(&count)
	return count > 0, result.Error
}

func (r *Repository) Close() error {
	db, err := r.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

// translate maps a gorm error of op to a domain error. Driver detail stays
// in the wrapped chain for logging and is never rendered to callers.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return e.ErrConflict
	case errors.Is(err, gorm.ErrForeignKeyViolated), errors.Is(err, gorm.ErrRecordNotFound):
		return e.ErrNotFound
	case rejectedValue(err):
		return fmt.Errorf("%w: %s: value rejected by the datastore", e.ErrInvalidInput, op)
	default:
		return unavailable(op, err)
	}
}

// rejectedValue reports postgres refusing the data itself: an over-long
// string or a failed check constraint.
func rejectedValue(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case pgStringDataRightTruncation, pgCheckViolation:
		return true
	}
	return false
}

const (
	pgStringDataRightTruncation = "22001"
	pgCheckViolation            = "23514"
)

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", e.ErrUnavailable, op, err)
}
