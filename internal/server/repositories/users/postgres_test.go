package users

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/recyclequest/internal/common"
	"github.com/dmitrijs2005/recyclequest/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

var columnNames = []string{
	"id", "email", "username", "password_hash", "is_active", "is_verified",
	"level", "experience_points", "recycle_coins", "total_recycled_kg",
	"first_name", "last_name", "location", "created_at", "updated_at", "last_login",
}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func sampleUser() *models.User {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	return &models.User{
		ID:           "u-1",
		Email:        "a@x.com",
		Username:     "alice",
		PasswordHash: "hash",
		IsActive:     true,
		Level:        1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func anyArgs(n int) []driver.Value {
	args := make([]driver.Value, n)
	for i := range args {
		args[i] = sqlmock.AnyArg()
	}
	return args
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users\s*\(id,\s*email,.*last_login\)\s*VALUES\s*\(\$1,.*\$16\)\s*RETURNING\s+id$`).
		WithArgs(anyArgs(16)...).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("u-1"))

	got, err := repo.Create(context.Background(), sampleUser())
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "u-1" || got.Username != "alice" {
		t.Fatalf("unexpected user: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestCreate_UniqueViolations(t *testing.T) {
	tests := []struct {
		constraint string
		want       error
	}{
		{constraintEmail, common.ErrEmailTaken},
		{constraintUsername, common.ErrUsernameTaken},
		{"users_pkey", common.ErrorConflict},
	}

	for _, tt := range tests {
		t.Run(tt.constraint, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectQuery(`INSERT INTO users`).
				WillReturnError(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: tt.constraint})

			_, err := repo.Create(context.Background(), sampleUser())
			if !errors.Is(err, tt.want) {
				t.Fatalf("want %v, got %v", tt.want, err)
			}
		})
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), sampleUser())
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func userRow(u *models.User) *sqlmock.Rows {
	return sqlmock.NewRows(columnNames).AddRow(
		u.ID, u.Email, u.Username, u.PasswordHash, u.IsActive, u.IsVerified,
		u.Level, u.ExperiencePoints, u.RecycleCoins, u.TotalRecycledKg,
		"Alice", nil, nil, u.CreatedAt, u.UpdatedAt, nil,
	)
}

func TestGetters_Found(t *testing.T) {
	tests := []struct {
		name  string
		where string
		arg   string
		call  func(r *PostgresRepository) (*models.User, error)
	}{
		{"by email", "email", "a@x.com", func(r *PostgresRepository) (*models.User, error) {
			return r.GetUserByEmail(context.Background(), "a@x.com")
		}},
		{"by username", "username", "alice", func(r *PostgresRepository) (*models.User, error) {
			return r.GetUserByUsername(context.Background(), "alice")
		}},
		{"by id", "id", "u-1", func(r *PostgresRepository) (*models.User, error) {
			return r.GetUserByID(context.Background(), "u-1")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectQuery(`(?s)^SELECT\s+id,.*last_login\s+FROM\s+users\s+WHERE\s+` + tt.where + `\s*=\s*\$1$`).
				WithArgs(tt.arg).
				WillReturnRows(userRow(sampleUser()))

			got, err := tt.call(repo)
			if err != nil {
				t.Fatalf("error: %v", err)
			}
			if got.ID != "u-1" || got.Email != "a@x.com" || got.PasswordHash != "hash" {
				t.Fatalf("unexpected user: %+v", got)
			}
			if got.FirstName == nil || *got.FirstName != "Alice" {
				t.Fatalf("first name not scanned: %+v", got.FirstName)
			}
			if got.LastName != nil || got.LastLogin != nil {
				t.Fatalf("nullable columns must stay nil")
			}
		})
	}
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM users WHERE email`).
		WithArgs("ghost@x.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetUserByEmail(context.Background(), "ghost@x.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetUserByID_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM users WHERE id`).
		WithArgs("u-1").
		WillReturnError(errors.New("db err"))

	_, err := repo.GetUserByID(context.Background(), "u-1")
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	t.Run("ok", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(`(?s)^UPDATE\s+users\s+SET.*WHERE\s+id\s*=\s*\$1$`).
			WithArgs(anyArgs(13)...).
			WillReturnResult(sqlmock.NewResult(0, 1))

		if err := repo.Update(context.Background(), sampleUser()); err != nil {
			t.Fatalf("Update error: %v", err)
		}
	})

	t.Run("missing row", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(`UPDATE users`).WillReturnResult(sqlmock.NewResult(0, 0))

		if err := repo.Update(context.Background(), sampleUser()); !errors.Is(err, common.ErrorNotFound) {
			t.Fatalf("want ErrorNotFound, got %v", err)
		}
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(`UPDATE users`).WillReturnError(errors.New("boom"))

		err := repo.Update(context.Background(), sampleUser())
		if err == nil || !regexp.MustCompile(`db error: .*boom`).MatchString(err.Error()) {
			t.Fatalf("expected wrapped db error, got %v", err)
		}
	})
}
