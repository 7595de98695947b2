package httpjson

import (
	"encoding/json"
	"net/http"

	"campus-rides/pkg/apperr"
)

// WriteJSON writes v as a JSON response body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// WriteError maps an application error to its HTTP status and writes a JSON
// error body. Unclassified errors become an opaque 500 so internals never
// leak to clients.
func WriteError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := statusFor(kind)

	msg := err.Error()
	if kind == apperr.KindUnknown {
		msg = "internal server error"
	}

	WriteJSON(w, status, map[string]string{
		"error":   kind.String(),
		"message": msg,
	})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalid:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}
