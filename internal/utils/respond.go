package utils

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/colearn/backend/internal/apperr"
)

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("[http] encode response: %v", err)
	}
}

// WriteError renders err as {"message": ...} with the status of its kind.
func WriteError(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[http] %v", err)
	}
	WriteJSON(w, status, map[string]string{"message": apperr.Message(err)})
}

func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"message": msg})
}

// DecodeJSON decodes the request body into dst. An empty body is not an error.
func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Wrap(apperr.KindValidation, "invalid request body", err)
	}
	return nil
}
