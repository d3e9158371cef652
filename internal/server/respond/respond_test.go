package respond

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	Detail(rec, http.StatusUnauthorized, "Not authenticated")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"detail":"Not authenticated"}`, rec.Body.String())
}

func TestFieldDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	FieldDetail(rec, http.StatusBadRequest, "username", "too short")

	assert.JSONEq(t, `{"detail":"too short","field":"username"}`, rec.Body.String())
}
