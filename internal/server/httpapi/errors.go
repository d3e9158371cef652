package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/recyclequest/internal/common"
	"github.com/dmitrijs2005/recyclequest/internal/server/respond"
)

const (
	detailEmailTaken      = "Email already registered"
	detailUsernameTaken   = "Username already taken"
	detailConflict        = "Email or username already registered"
	detailBadLogin        = "Incorrect email or password"
	detailNotFound        = "User not found"
	detailForbidden       = "Not enough permissions to delete this file"
	detailTooLarge        = "File too large"
	detailUnsupportedType = "File type not allowed. Allowed types: image/jpeg, image/png, image/gif, image/webp"
	detailInvalidFolder   = "Invalid folder name"
	detailInvalidJSON     = "Invalid JSON body"
	detailInternal        = "Internal server error"
)

// statusFor maps a service error onto an HTTP status and a client-safe
// detail. Unknown errors become 500 without detail.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrEmailTaken):
		return http.StatusBadRequest, detailEmailTaken
	case errors.Is(err, common.ErrUsernameTaken):
		return http.StatusBadRequest, detailUsernameTaken
	case errors.Is(err, common.ErrorConflict):
		return http.StatusBadRequest, detailConflict
	case errors.Is(err, common.ErrorUnauthorized):
		return http.StatusUnauthorized, detailBadLogin
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, detailNotFound
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, detailForbidden
	case errors.Is(err, common.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, detailTooLarge
	case errors.Is(err, common.ErrUnsupportedFileType):
		return http.StatusBadRequest, detailUnsupportedType
	case errors.Is(err, common.ErrInvalidFolder):
		return http.StatusBadRequest, detailInvalidFolder
	default:
		return http.StatusInternalServerError, detailInternal
	}
}

func writeError(w http.ResponseWriter, err error) {
	if ve, ok := common.AsValidationError(err); ok {
		respond.FieldDetail(w, http.StatusBadRequest, ve.Field, ve.Message)
		return
	}

	status, detail := statusFor(err)
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", common.BearerScheme)
	}
	respond.Detail(w, status, detail)
}
