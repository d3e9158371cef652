// Package respond writes JSON response bodies, including the
// {"detail": ..., "field": ...} error shape every endpoint uses.
package respond

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the body of every non-2xx response.
type ErrorBody struct {
	Detail string `json:"detail"`
	Field  string `json:"field,omitempty"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Detail(w http.ResponseWriter, status int, detail string) {
	JSON(w, status, ErrorBody{Detail: detail})
}

func FieldDetail(w http.ResponseWriter, status int, field, detail string) {
	JSON(w, status, ErrorBody{Detail: detail, Field: field})
}

// Message is the body of acknowledgement-only endpoints.
type Message struct {
	Message string `json:"message"`
}
