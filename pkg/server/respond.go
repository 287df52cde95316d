package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/winscope/pkg/errors"
	"github.com/matzehuels/winscope/pkg/observability"
)

// errorBody is the JSON form of every error response.
type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeBytes(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// writeError maps err to a status code and writes it as JSON. Errors without
// a code are reported as internal errors and their message is not exposed.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)

	body := errorBody{Code: code, Message: errors.UserMessage(err)}
	if code == "" || status == http.StatusInternalServerError {
		body = errorBody{Code: errors.ErrCodeInternal, Message: "internal server error"}
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		observability.HTTP().OnError(r.Context(), r.Method, route, err)
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	writeJSON(w, status, body)
}

func statusFor(code errors.Code) int {
	switch {
	case code.IsInvalid():
		return http.StatusBadRequest
	case code.IsNotFound():
		return http.StatusNotFound
	case code == errors.ErrCodeUnsupported:
		return http.StatusUnsupportedMediaType
	case code == errors.ErrCodeTooLarge:
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}
