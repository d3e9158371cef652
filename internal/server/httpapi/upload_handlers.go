package httpapi

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/dmitrijs2005/recyclequest/internal/common"
	"github.com/dmitrijs2005/recyclequest/internal/server/middleware"
	"github.com/dmitrijs2005/recyclequest/internal/server/models"
	"github.com/dmitrijs2005/recyclequest/internal/server/respond"
)

const (
	formFileField = "file"

	// multipartOverhead is allowed on top of the file size for boundaries
	// and part headers.
	multipartOverhead = 1 << 20
	multipartMemory   = 8 << 20
)

type uploadResponse struct {
	Message  string           `json:"message"`
	FileInfo *models.FileInfo `json:"file_info"`
}

type fileURLResponse struct {
	FilePath  string `json:"file_path"`
	PublicURL string `json:"public_url"`
}

func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorInternal)
		return
	}

	h.handleUpload(w, r, "avatar", "Avatar uploaded successfully", func(f *models.FileUpload) (*models.FileInfo, error) {
		return h.uploads.UploadAvatar(r.Context(), user.ID, f)
	})
}

func (h *Handler) UploadAchievementBadge(w http.ResponseWriter, r *http.Request) {
	achievementID := r.URL.Query().Get("achievement_id")
	if achievementID == "" {
		respond.FieldDetail(w, http.StatusBadRequest, "achievement_id", "field required")
		return
	}

	h.handleUpload(w, r, "achievement_badge", "Achievement badge uploaded successfully", func(f *models.FileUpload) (*models.FileInfo, error) {
		return h.uploads.UploadAchievementBadge(r.Context(), achievementID, f)
	})
}

func (h *Handler) UploadGeneral(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorInternal)
		return
	}
	folder := r.URL.Query().Get("folder")

	h.handleUpload(w, r, "general", "File uploaded successfully", func(f *models.FileUpload) (*models.FileInfo, error) {
		return h.uploads.UploadFile(r.Context(), folder, user.ID, f)
	})
}

func (h *Handler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, common.ErrorInternal)
		return
	}

	filePath := r.URL.Query().Get("file_path")
	if err := h.uploads.DeleteFile(r.Context(), user.ID, filePath); err != nil {
		writeError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, respond.Message{Message: "File deleted successfully"})
}

func (h *Handler) FileURL(w http.ResponseWriter, r *http.Request) {
	filePath := r.URL.Query().Get("file_path")

	u, err := h.uploads.FileURL(r.Context(), filePath)
	if err != nil {
		writeError(w, err)
		return
	}

	respond.JSON(w, http.StatusOK, fileURLResponse{FilePath: filePath, PublicURL: u})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request, kind, message string,
	store func(f *models.FileUpload) (*models.FileInfo, error)) {

	r.Body = http.MaxBytesReader(w, r.Body, h.uploads.MaxFileSize()+multipartOverhead)

	err := r.ParseMultipartForm(multipartMemory)
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	var (
		file   multipart.File
		header *multipart.FileHeader
	)
	if err == nil {
		file, header, err = r.FormFile(formFileField)
	}
	if err != nil {
		h.uploadEvent(kind, 0, err)
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, common.ErrFileTooLarge)
		case errors.Is(err, http.ErrMissingFile):
			respond.FieldDetail(w, http.StatusBadRequest, formFileField, "field required")
		default:
			respond.FieldDetail(w, http.StatusBadRequest, formFileField, "invalid multipart form")
		}
		return
	}
	defer file.Close()

	info, err := store(fileUpload(file, header))
	h.uploadEvent(kind, header.Size, err)
	if err != nil {
		writeError(w, err)
		return
	}

	respond.JSON(w, http.StatusCreated, uploadResponse{Message: message, FileInfo: info})
}

func fileUpload(file multipart.File, header *multipart.FileHeader) *models.FileUpload {
	return &models.FileUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}
}
