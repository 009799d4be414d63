package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/bryanwahyu/pullup-coach/internal/domain/analysis"
	"github.com/bryanwahyu/pullup-coach/internal/domain/chat"
	"github.com/bryanwahyu/pullup-coach/internal/domain/feedback"
	"github.com/bryanwahyu/pullup-coach/internal/domain/history"
	"github.com/bryanwahyu/pullup-coach/internal/domain/media"
	"github.com/bryanwahyu/pullup-coach/internal/domain/plans"
	"github.com/bryanwahyu/pullup-coach/internal/domain/users"
)

// envelope is the body shape of every JSON endpoint.
type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, msg string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Code: status, Message: msg, Data: data})
}

func ok(w http.ResponseWriter, data any) error {
	writeJSON(w, http.StatusOK, "success", data)
	return nil
}

// httpError carries an explicit status for handler-level validation.
type httpError struct {
	status int
	msg    string
}

func (e *httpError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &httpError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

func decodeJSON(req *http.Request, dst any) error {
	if err := json.NewDecoder(req.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return badRequest("request body is required")
		}
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			r.log.Error("request failed",
				zap.String("method", req.Method),
				zap.String("path", req.URL.Path),
				zap.Error(err))
			writeJSON(w, status, "internal server error", nil)
			return
		}
		writeJSON(w, status, err.Error(), nil)
	}
}

func statusFor(err error) int {
	var he *httpError
	if errors.As(err, &he) {
		return he.status
	}
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return http.StatusRequestEntityTooLarge
	}

	switch {
	case errors.Is(err, analysis.ErrInvalidUpload),
		errors.Is(err, analysis.ErrScoreMissing),
		errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, users.ErrInvalidInput),
		errors.Is(err, plans.ErrInvalidInput),
		errors.Is(err, plans.ErrNoChanges),
		errors.Is(err, feedback.ErrInvalidInput),
		errors.Is(err, media.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, users.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, analysis.ErrForbidden),
		errors.Is(err, users.ErrAdminRequired):
		return http.StatusForbidden
	case errors.Is(err, analysis.ErrTaskNotFound),
		errors.Is(err, analysis.ErrNoActiveTask),
		errors.Is(err, users.ErrNotFound),
		errors.Is(err, history.ErrNotFound),
		errors.Is(err, plans.ErrNotFound),
		errors.Is(err, media.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, analysis.ErrTaskNotCompleted),
		errors.Is(err, users.ErrUsernameTaken):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
