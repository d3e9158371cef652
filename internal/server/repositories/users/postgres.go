package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/recyclequest/internal/common"
	"github.com/dmitrijs2005/recyclequest/internal/dbx"
	"github.com/dmitrijs2005/recyclequest/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation = "23505"

	constraintEmail    = "users_email_key"
	constraintUsername = "users_username_key"
)

const userColumns = `id, email, username, password_hash, is_active, is_verified,
	level, experience_points, recycle_coins, total_recycled_kg,
	first_name, last_name, location, created_at, updated_at, last_login`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (` + userColumns + `)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		 RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.Email, user.Username, user.PasswordHash, user.IsActive, user.IsVerified,
		user.Level, user.ExperiencePoints, user.RecycleCoins, user.TotalRecycledKg,
		user.FirstName, user.LastName, user.Location, user.CreatedAt, user.UpdatedAt, user.LastLogin,
	).Scan(&user.ID)

	if err != nil {
		return nil, mapInsertError(err)
	}

	return user, nil
}

func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PostgresRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// Update writes the mutable columns. Email, username and created_at are
// fixed at registration.
func (r *PostgresRepository) Update(ctx context.Context, user *models.User) error {
	query :=
		`UPDATE users SET
			password_hash = $2, is_active = $3, is_verified = $4,
			level = $5, experience_points = $6, recycle_coins = $7, total_recycled_kg = $8,
			first_name = $9, last_name = $10, location = $11,
			updated_at = $12, last_login = $13
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query,
		user.ID, user.PasswordHash, user.IsActive, user.IsVerified,
		user.Level, user.ExperiencePoints, user.RecycleCoins, user.TotalRecycledKg,
		user.FirstName, user.LastName, user.Location,
		user.UpdatedAt, user.LastLogin,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}

	return nil
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	user := &models.User{}

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Username, &user.PasswordHash, &user.IsActive, &user.IsVerified,
		&user.Level, &user.ExperiencePoints, &user.RecycleCoins, &user.TotalRecycledKg,
		&user.FirstName, &user.LastName, &user.Location, &user.CreatedAt, &user.UpdatedAt, &user.LastLogin,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func mapInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		switch pgErr.ConstraintName {
		case constraintEmail:
			return common.ErrEmailTaken
		case constraintUsername:
			return common.ErrUsernameTaken
		default:
			return common.ErrorConflict
		}
	}
	return fmt.Errorf("db error: %w", err)
}
