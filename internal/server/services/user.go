// Package services contains server-side business logic: the authentication
// flow over the user directory and the upload proxy over object storage.
package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/recyclequest/internal/common"
	"github.com/dmitrijs2005/recyclequest/internal/dbx"
	"github.com/dmitrijs2005/recyclequest/internal/logging"
	"github.com/dmitrijs2005/recyclequest/internal/server/auth"
	"github.com/dmitrijs2005/recyclequest/internal/server/models"
	"github.com/dmitrijs2005/recyclequest/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

const (
	PasswordResetRequestedMessage = "If the email exists, a password reset link has been sent"
	PasswordResetDoneMessage      = "Password has been reset successfully"
)

type RegisterInput struct {
	Email           string  `json:"email" validate:"required,email"`
	Username        string  `json:"username" validate:"required,username"`
	Password        string  `json:"password" validate:"required,max=100,password"`
	ConfirmPassword string  `json:"confirm_password" validate:"required,eqfield=Password"`
	FirstName       *string `json:"first_name" validate:"omitempty,max=100"`
	LastName        *string `json:"last_name" validate:"omitempty,max=100"`
	Location        *string `json:"location" validate:"omitempty,max=200"`
}

// ProfilePatch lists the only fields a user may change on their profile.
// Nil fields are left as they are.
type ProfilePatch struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
	Location  *string `json:"location" validate:"omitempty,max=200"`
}

type PasswordResetConfirmInput struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,max=100,password"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=NewPassword"`
}

// UserService implements registration, login, token issuance and profile
// updates.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      auth.PasswordHasher
	tokens      *auth.TokenCodec
	logger      logging.Logger
	now         func() time.Time
	dummyDigest string
}

// NewUserService builds the service. db may be nil when the repository
// manager does not need a database. A throwaway digest is computed once so
// logins for unknown emails cost the same as real ones.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, hasher auth.PasswordHasher,
	tokens *auth.TokenCodec, logger logging.Logger) (*UserService, error) {

	secret, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, err
	}
	dummy, err := hasher.Hash(secret)
	if err != nil {
		return nil, err
	}

	return &UserService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		tokens:      tokens,
		logger:      logger.With("module", "users"),
		now:         time.Now,
		dummyDigest: dummy,
	}, nil
}

func (s *UserService) withTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	if s.db == nil {
		return fn(ctx, nil)
	}
	return dbx.WithTx(ctx, s.db, nil, fn)
}

// Register creates an account. Duplicate email is reported before duplicate
// username, and both before field validation. The lookups and the insert
// share one transaction.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)

	var created *models.User
	err := s.withTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		if _, err := repo.GetUserByEmail(ctx, in.Email); err == nil {
			return common.ErrEmailTaken
		} else if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		if _, err := repo.GetUserByUsername(ctx, in.Username); err == nil {
			return common.ErrUsernameTaken
		} else if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		if err := validateStruct(in); err != nil {
			return err
		}

		digest, err := s.hasher.Hash(in.Password)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		user := &models.User{
			ID:               uuid.NewString(),
			Email:            in.Email,
			Username:         in.Username,
			PasswordHash:     digest,
			IsActive:         true,
			IsVerified:       false,
			Level:            1,
			ExperiencePoints: 0,
			RecycleCoins:     0,
			TotalRecycledKg:  0,
			FirstName:        in.FirstName,
			LastName:         in.LastName,
			Location:         in.Location,
			CreatedAt:        now,
			UpdatedAt:        now,
		}

		created, err = repo.Create(ctx, user)
		return err
	})

	if err != nil {
		if isClientError(err) {
			return nil, err
		}
		s.logger.Error(ctx, "registration failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "user registered", "user_id", created.ID)
	return created, nil
}

// Authenticate checks credentials. Unknown email, wrong password and
// inactive account all return common.ErrorUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.Verify(password, s.dummyDigest)
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "user lookup failed", "error", err)
		return nil, common.ErrorInternal
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return nil, common.ErrorUnauthorized
	}

	if !user.IsActive {
		return nil, common.ErrorUnauthorized
	}

	now := s.now().UTC()
	user.LastLogin = &now
	user.UpdatedAt = now

	if err := repo.Update(ctx, user); err != nil {
		s.logger.Error(ctx, "updating last login failed", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}

	return user, nil
}

// IssueToken mints an access token for user.
func (s *UserService) IssueToken(user *models.User) (*models.TokenResponse, error) {
	token, _, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &models.TokenResponse{
		AccessToken: token,
		TokenType:   common.TokenTypeBearer,
		ExpiresIn:   int64(s.tokens.TTL().Seconds()),
		User:        user.ToResponse(),
	}, nil
}

// UpdateProfile applies patch to user and persists it.
func (s *UserService) UpdateProfile(ctx context.Context, user *models.User, patch ProfilePatch) (*models.User, error) {
	if err := validateStruct(patch); err != nil {
		return nil, err
	}

	updated := *user
	if patch.FirstName != nil {
		updated.FirstName = patch.FirstName
	}
	if patch.LastName != nil {
		updated.LastName = patch.LastName
	}
	if patch.Location != nil {
		updated.Location = patch.Location
	}
	updated.UpdatedAt = s.now().UTC()

	if err := s.repomanager.Users(s.db).Update(ctx, &updated); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.logger.Error(ctx, "profile update failed", "user_id", user.ID, "error", err)
		return nil, common.ErrorInternal
	}

	return &updated, nil
}

// RequestPasswordReset answers the same way whether or not email is known.
// No reset link is sent and no state changes.
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) string {
	_, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		s.logger.Warn(ctx, "password reset lookup failed", "error", err)
	}
	return PasswordResetRequestedMessage
}

// ConfirmPasswordReset validates the new password. Reset tokens are not
// verified and no state changes.
func (s *UserService) ConfirmPasswordReset(ctx context.Context, in PasswordResetConfirmInput) (string, error) {
	if err := validateStruct(in); err != nil {
		return "", err
	}
	return PasswordResetDoneMessage, nil
}

// normalizeEmail lowercases the domain part only. The local part is kept as
// given since mailboxes may be case-sensitive.
func normalizeEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return email
	}
	return email[:at+1] + strings.ToLower(email[at+1:])
}

func isClientError(err error) bool {
	if _, ok := common.AsValidationError(err); ok {
		return true
	}
	return errors.Is(err, common.ErrEmailTaken) ||
		errors.Is(err, common.ErrUsernameTaken) ||
		errors.Is(err, common.ErrorConflict)
}
