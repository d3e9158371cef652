// Package middleware gates protected HTTP routes behind bearer token
// authorization.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/recyclequest/internal/common"
	"github.com/dmitrijs2005/recyclequest/internal/logging"
	"github.com/dmitrijs2005/recyclequest/internal/server/auth"
	"github.com/dmitrijs2005/recyclequest/internal/server/models"
	"github.com/dmitrijs2005/recyclequest/internal/server/respond"
)

const (
	DetailNotAuthenticated = "Not authenticated"
	DetailBadCredentials   = "Could not validate credentials"
	DetailInactiveUser     = "Inactive user"
	DetailInternal         = "Internal server error"
)

// ErrNotAuthenticated means the request carried no usable bearer token.
var ErrNotAuthenticated = errors.New("not authenticated")

type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

type UserFinder interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type ctxKey string

const userKey ctxKey = "user"

// UserFromContext returns the user stored by Authorizer.Middleware.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}

// WithUser stores u in ctx the way the middleware does.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// Authorizer resolves the bearer token of a request to an active user.
type Authorizer struct {
	tokens TokenVerifier
	users  UserFinder
	logger logging.Logger
}

func NewAuthorizer(tokens TokenVerifier, users UserFinder, logger logging.Logger) *Authorizer {
	return &Authorizer{
		tokens: tokens,
		users:  users,
		logger: logger.With("module", "authorizer"),
	}
}

// Authorize runs the checks in order: token present, token valid, user
// exists, user active. It returns ErrNotAuthenticated, common.ErrInvalidToken,
// common.ErrInactiveUser or common.ErrorInternal.
func (a *Authorizer) Authorize(ctx context.Context, header string) (*models.User, error) {
	token, ok := bearerToken(header)
	if !ok {
		return nil, ErrNotAuthenticated
	}

	claims, err := a.tokens.Verify(token)
	if err != nil {
		return nil, common.ErrInvalidToken
	}

	user, err := a.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		a.logger.Error(ctx, "user lookup failed", "user_id", claims.UserID, "error", err)
		return nil, common.ErrorInternal
	}

	if !user.IsActive {
		return nil, common.ErrInactiveUser
	}

	return user, nil
}

// Middleware rejects unauthorized requests and stores the user in the
// request context for the rest. Inactive accounts get 400 "Inactive user",
// not 401.
func (a *Authorizer) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := a.Authorize(r.Context(), r.Header.Get(common.AuthorizationHeaderName))
		if err != nil {
			writeAuthError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		w.Header().Set("WWW-Authenticate", common.BearerScheme)
		respond.Detail(w, http.StatusUnauthorized, DetailNotAuthenticated)
	case errors.Is(err, common.ErrInvalidToken):
		w.Header().Set("WWW-Authenticate", common.BearerScheme)
		respond.Detail(w, http.StatusUnauthorized, DetailBadCredentials)
	case errors.Is(err, common.ErrInactiveUser):
		respond.Detail(w, http.StatusBadRequest, DetailInactiveUser)
	default:
		respond.Detail(w, http.StatusInternalServerError, DetailInternal)
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, common.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
