// Package httpapi is the REST surface of the server: routing, request
// decoding and error mapping over the services.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/recyclequest/internal/logging"
	"github.com/dmitrijs2005/recyclequest/internal/server/metrics"
	"github.com/dmitrijs2005/recyclequest/internal/server/models"
	"github.com/dmitrijs2005/recyclequest/internal/server/respond"
	"github.com/dmitrijs2005/recyclequest/internal/server/services"
)

const maxJSONBody = 1 << 20

type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	Authenticate(ctx context.Context, email, password string) (*models.User, error)
	IssueToken(user *models.User) (*models.TokenResponse, error)
	UpdateProfile(ctx context.Context, user *models.User, patch services.ProfilePatch) (*models.User, error)
	RequestPasswordReset(ctx context.Context, email string) string
	ConfirmPasswordReset(ctx context.Context, in services.PasswordResetConfirmInput) (string, error)
}

type UploadService interface {
	UploadAvatar(ctx context.Context, userID string, f *models.FileUpload) (*models.FileInfo, error)
	UploadAchievementBadge(ctx context.Context, achievementID string, f *models.FileUpload) (*models.FileInfo, error)
	UploadFile(ctx context.Context, folder, userID string, f *models.FileUpload) (*models.FileInfo, error)
	DeleteFile(ctx context.Context, userID, filePath string) error
	FileURL(ctx context.Context, filePath string) (string, error)
	MaxFileSize() int64
}

// Handler holds the HTTP handlers and their collaborators.
type Handler struct {
	users   UserService
	uploads UploadService
	metrics *metrics.Metrics
	logger  logging.Logger
}

func NewHandler(users UserService, uploads UploadService, m *metrics.Metrics, logger logging.Logger) *Handler {
	return &Handler{
		users:   users,
		uploads: uploads,
		metrics: m,
		logger:  logger.With("module", "httpapi"),
	}
}

func (h *Handler) authEvent(event string, err error) {
	if h.metrics != nil {
		h.metrics.AuthEvent(event, err)
	}
}

func (h *Handler) uploadEvent(kind string, size int64, err error) {
	if h.metrics != nil {
		h.metrics.Upload(kind, size, err)
	}
}

// decodeJSON reads a single JSON object from the body into v. On failure it
// writes the 400 response itself and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		respond.Detail(w, http.StatusBadRequest, detailInvalidJSON)
		return false
	}
	return true
}

// Root is the service banner.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to RecycleQuest API",
		"version": "1.0.0",
	})
}
