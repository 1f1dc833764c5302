package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/hlog"

	"github.com/robalobadob/emojiworld/apps/go-server/internal/game"
)

// maxBodyBytes bounds request bodies. It sits well above any chat message
// the log keeps so oversized text is truncated, not refused.
const maxBodyBytes = 1 << 20

// errBodyTooLarge marks a request body that exceeded maxBodyBytes.
var errBodyTooLarge = errors.New("request body too large")

// writeJSON writes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an error kind to a status and a stable error code.
// Invalid-input details are safe to echo; anything else is logged and
// reported only as store_unavailable.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{"success": false, "error": "payload_too_large"})
	case errors.Is(err, game.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "unauthorized"})
	case errors.Is(err, game.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid_input", "detail": err.Error()})
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("store operation failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "store_unavailable"})
	}
}

// decodeBody decodes a single JSON object from the request body into dst.
// An empty body decodes to the zero value. Malformed JSON and trailing data
// are reported as invalid input.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := dec.Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		err = dec.Decode(&struct{}{})
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err == nil {
			err = errors.New("unexpected data after JSON object")
		}
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return errBodyTooLarge
	}
	return fmt.Errorf("%w: malformed JSON: %v", game.ErrInvalidInput, err)
}
