// Package httpx holds the JSON response conventions shared by every handler:
// one envelope for successes, one for rejections, statuses taken from the
// error taxonomy.
package httpx

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/campuscart/marketplace/pkg/apperr"
)

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Error maps any error onto the wire. Internal causes are logged and never
// serialized.
func Error(w http.ResponseWriter, log *slog.Logger, err error) {
	e := apperr.From(err)
	if e.Code == apperr.CodeInternal {
		log.Error("request failed", "error", e.Err)
	}
	JSON(w, e.HTTPStatus, e)
}

// Decode parses a JSON body, rejecting unknown fields.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Admission(apperr.CodeValidation, "invalid request body")
	}
	return nil
}
