// internal/app/system/httpjson/httpjson.go

// Package httpjson writes JSON API responses in one consistent shape.
package httpjson

import (
	"encoding/json"
	"net/http"
)

// Write serializes v as the response body with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a JSON error body with the given status.
func Error(w http.ResponseWriter, status int, message string) {
	Write(w, status, map[string]any{
		"error":  message,
		"status": status,
	})
}

// Decode parses the request body into v, limiting body size.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	return dec.Decode(v)
}
