// Package sqlite implements storage.UserStore on SQLite through bun.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/hongminglow/account-service/internal/models"
	"github.com/hongminglow/account-service/internal/storage"
	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

//go:embed migrations/*.sql
var migrations embed.FS

var _ storage.UserStore = (*Store)(nil)

type userRow struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64     `bun:"id,pk,autoincrement"`
	Email        string    `bun:"email,notnull"`
	PasswordHash string    `bun:"password_hash,notnull"`
	IsActive     bool      `bun:"is_active,notnull"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
	UpdatedAt    time.Time `bun:"updated_at,notnull"`
}

func (r userRow) toModel() models.User {
	return models.User{
		ID:           r.ID,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		IsActive:     r.IsActive,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// Store keeps users in a SQLite database.
type Store struct {
	db  *bun.DB
	now func() time.Time
}

// NewUserStore opens dsn (a file path or ":memory:") and applies migrations.
// SQLite allows one writer, so the pool is pinned to a single connection.
func NewUserStore(ctx context.Context, dsn string) (*Store, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	sqldb.SetMaxOpenConns(1)

	if err := migrate(ctx, sqldb); err != nil {
		_ = sqldb.Close()
		return nil, err
	}

	return &Store{db: bun.NewDB(sqldb, sqlitedialect.New()), now: time.Now}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("init migrations: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert creates a user row. The unique index on email makes duplicate detection atomic.
func (s *Store) Insert(ctx context.Context, email, passwordHash string) (models.User, error) {
	if err := storage.CheckNewUser(email, passwordHash); err != nil {
		return models.User{}, err
	}
	now := s.now().UTC()
	row := &userRow{
		Email:        email,
		PasswordHash: passwordHash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := s.db.NewInsert().Model(row).Returning("*").Exec(ctx); err != nil {
		if isUniqueViolation(err) {
			return models.User{}, storage.ErrAlreadyExists
		}
		return models.User{}, fmt.Errorf("insert user: %w", err)
	}
	return row.toModel(), nil
}

// FindByEmail fetches a user by exact email.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	return s.findOne(ctx, "email = ?", email)
}

// FindByID fetches a user by id.
func (s *Store) FindByID(ctx context.Context, id int64) (models.User, error) {
	return s.findOne(ctx, "id = ?", id)
}

func (s *Store) findOne(ctx context.Context, where string, arg any) (models.User, error) {
	var row userRow
	err := s.db.NewSelect().Model(&row).Where(where, arg).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, storage.ErrNotFound
		}
		return models.User{}, fmt.Errorf("select user: %w", err)
	}
	return row.toModel(), nil
}

// UpdatePasswordHash replaces the stored hash.
func (s *Store) UpdatePasswordHash(ctx context.Context, id int64, passwordHash string) error {
	if err := storage.CheckPasswordHash(passwordHash); err != nil {
		return err
	}
	q := s.db.NewUpdate().Model((*userRow)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("updated_at = ?", s.now().UTC()).
		Where("id = ?", id)
	return execUpdate(ctx, q)
}

// SetActive can only clear the flag; a disabled account stays disabled.
func (s *Store) SetActive(ctx context.Context, id int64, active bool) error {
	q := s.db.NewUpdate().Model((*userRow)(nil)).
		Set("is_active = (is_active AND ?)", active).
		Set("updated_at = ?", s.now().UTC()).
		Where("id = ?", id)
	return execUpdate(ctx, q)
}

func execUpdate(ctx context.Context, q *bun.UpdateQuery) error {
	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Both SQLite drivers behind sqliteshim report unique violations with this text.
func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
