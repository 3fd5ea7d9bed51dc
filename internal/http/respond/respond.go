package respond

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hongminglow/coursenese-be/internal/apperr"
)

// Envelope is the standard API response wrapper used across handlers.
type Envelope struct {
	Code             int    `json:"code"`
	Success          bool   `json:"success"`
	Message          string `json:"message"`
	Data             any    `json:"data,omitempty"`
	NeedVerification bool   `json:"needVerification,omitempty"`
}

// JSON writes a success or informational response using the common envelope.
func JSON(w http.ResponseWriter, status int, message string, data any) {
	Write(w, Envelope{Code: status, Success: status < http.StatusBadRequest, Message: message, Data: data})
}

// Fail writes an error response with a fixed status and message.
func Fail(w http.ResponseWriter, status int, message string) {
	Write(w, Envelope{Code: status, Message: message})
}

// Error maps err onto its status. Server errors are logged and only their
// client-safe message is sent.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Server("internal server error", err)
	}
	status := apperr.Status(e.Kind)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
	}
	Write(w, Envelope{Code: status, Message: e.Message, NeedVerification: e.NeedVerification})
}

// Write sends payload with payload.Code as the HTTP status.
func Write(w http.ResponseWriter, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(payload.Code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("respond: encode payload failed", slog.Any("error", err))
	}
}
