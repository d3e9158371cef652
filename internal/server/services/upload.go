package services

import (
	"context"
	"io"
	"mime"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/recyclequest/internal/common"
	"github.com/dmitrijs2005/recyclequest/internal/logging"
	"github.com/dmitrijs2005/recyclequest/internal/server/models"
	"github.com/google/uuid"
)

const (
	FolderAvatars      = "avatars"
	FolderAchievements = "achievements"
	FolderUploads      = "uploads"
)

var (
	segmentPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

	allowedImageTypes = map[string]string{
		"image/jpeg": ".jpg",
		"image/png":  ".png",
		"image/gif":  ".gif",
		"image/webp": ".webp",
	}
)

// ObjectStore is the subset of object storage the upload service uses.
type ObjectStore interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(ctx context.Context, key string) (string, error)
}

// UploadService validates incoming images and proxies them to object
// storage under per-owner prefixes.
type UploadService struct {
	store       ObjectStore
	maxFileSize int64
	logger      logging.Logger
}

func NewUploadService(store ObjectStore, maxFileSize int64, logger logging.Logger) *UploadService {
	return &UploadService{
		store:       store,
		maxFileSize: maxFileSize,
		logger:      logger.With("module", "upload"),
	}
}

func (s *UploadService) MaxFileSize() int64 {
	return s.maxFileSize
}

func (s *UploadService) UploadAvatar(ctx context.Context, userID string, f *models.FileUpload) (*models.FileInfo, error) {
	return s.upload(ctx, path.Join(FolderAvatars, userID), f)
}

func (s *UploadService) UploadAchievementBadge(ctx context.Context, achievementID string, f *models.FileUpload) (*models.FileInfo, error) {
	if !segmentPattern.MatchString(achievementID) {
		return nil, common.NewValidationError("achievement_id", "invalid achievement id")
	}
	return s.upload(ctx, path.Join(FolderAchievements, achievementID), f)
}

// UploadFile stores f under <folder>/<userID>/. An empty folder means
// "uploads"; anything other than a single safe path segment is rejected.
func (s *UploadService) UploadFile(ctx context.Context, folder, userID string, f *models.FileUpload) (*models.FileInfo, error) {
	if folder == "" {
		folder = FolderUploads
	}
	if !segmentPattern.MatchString(folder) {
		return nil, common.ErrInvalidFolder
	}
	return s.upload(ctx, path.Join(folder, userID), f)
}

// DeleteFile removes an object the user owns: only keys under the user's
// avatar or general upload prefix qualify.
func (s *UploadService) DeleteFile(ctx context.Context, userID, filePath string) error {
	if !ownsPath(userID, filePath) {
		return common.ErrForbidden
	}

	if err := s.store.Delete(ctx, filePath); err != nil {
		s.logger.Error(ctx, "deleting object failed", "key", filePath, "error", err)
		return common.ErrorInternal
	}

	s.logger.Info(ctx, "object deleted", "key", filePath, "user_id", userID)
	return nil
}

func (s *UploadService) FileURL(ctx context.Context, filePath string) (string, error) {
	if filePath == "" || path.Clean(filePath) != filePath || strings.HasPrefix(filePath, "/") {
		return "", common.NewValidationError("file_path", "invalid file path")
	}

	u, err := s.store.URL(ctx, filePath)
	if err != nil {
		s.logger.Error(ctx, "building object url failed", "key", filePath, "error", err)
		return "", common.ErrorInternal
	}
	return u, nil
}

func (s *UploadService) upload(ctx context.Context, prefix string, f *models.FileUpload) (*models.FileInfo, error) {
	contentType, err := s.checkFile(f)
	if err != nil {
		return nil, err
	}

	filename := uuid.NewString() + extensionFor(f.Filename, contentType)
	key := path.Join(prefix, filename)

	// The declared size has been checked; the limit guards against a body
	// longer than its header claims.
	body := io.LimitReader(f.Body, s.maxFileSize)

	if err := s.store.Put(ctx, key, body, f.Size, contentType); err != nil {
		s.logger.Error(ctx, "storing object failed", "key", key, "error", err)
		return nil, common.ErrorInternal
	}

	publicURL, err := s.store.URL(ctx, key)
	if err != nil {
		s.logger.Error(ctx, "building object url failed", "key", key, "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "object stored", "key", key, "size", f.Size, "content_type", contentType)

	return &models.FileInfo{
		Filename:         filename,
		OriginalFilename: f.Filename,
		FilePath:         key,
		PublicURL:        publicURL,
		ContentType:      contentType,
		Size:             f.Size,
	}, nil
}

func (s *UploadService) checkFile(f *models.FileUpload) (string, error) {
	if f == nil || f.Body == nil {
		return "", common.NewValidationError("file", "field required")
	}
	if f.Size > s.maxFileSize {
		return "", common.ErrFileTooLarge
	}

	mediaType, _, err := mime.ParseMediaType(f.ContentType)
	if err != nil {
		return "", common.ErrUnsupportedFileType
	}
	mediaType = strings.ToLower(mediaType)
	if _, ok := allowedImageTypes[mediaType]; !ok {
		return "", common.ErrUnsupportedFileType
	}
	return mediaType, nil
}

func extensionFor(filename, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(filename)); ext != "" && segmentPattern.MatchString(ext[1:]) {
		return ext
	}
	return allowedImageTypes[contentType]
}

func ownsPath(userID, filePath string) bool {
	if userID == "" || path.Clean(filePath) != filePath {
		return false
	}
	for _, folder := range []string{FolderAvatars, FolderUploads} {
		prefix := folder + "/" + userID + "/"
		if strings.HasPrefix(filePath, prefix) && len(filePath) > len(prefix) {
			return true
		}
	}
	return false
}
