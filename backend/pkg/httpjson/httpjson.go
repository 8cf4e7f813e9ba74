// Package httpjson holds the JSON request/response helpers shared by handlers.
package httpjson

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
)

// maxBodyBytes bounds request bodies decoded by Decode.
const maxBodyBytes = 1 << 20

// Write encodes v as the JSON response body with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[HTTP] encode response: %v", err)
	}
}

// Message writes a {"message": ...} body.
func Message(w http.ResponseWriter, status int, message string) {
	Write(w, status, map[string]string{"message": message})
}

// Decode reads a JSON request body into v, rejecting unknown fields.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}
