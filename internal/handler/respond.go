package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/spscricket/player-service/internal/domain"
)

const maxBodyBytes = 1 << 20

// SuccessResponse wraps every successful payload.
type SuccessResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
	Errors    []string  `json:"errors,omitempty"`
}

// RespondJSON writes a JSON response with the given status code.
func RespondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// RespondSuccess writes data inside the success envelope.
func RespondSuccess(w http.ResponseWriter, status int, message string, data interface{}) {
	RespondJSON(w, status, SuccessResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// RespondError writes the error envelope, detecting domain.AppError for status codes.
// Anything else is reported as a 500 without leaking its text.
func RespondError(w http.ResponseWriter, r *http.Request, err error) {
	body := ErrorResponse{
		Timestamp: time.Now().UTC(),
		Status:    http.StatusInternalServerError,
		Error:     "Internal Server Error",
		Message:   "An unexpected error occurred",
		Path:      r.URL.Path,
	}

	var appErr *domain.AppError
	if errors.As(err, &appErr) && appErr.Code != domain.CodeInternal {
		body.Status = appErr.Status
		body.Error = reasonFor(appErr.Code)
		body.Message = appErr.Message
		body.Errors = appErr.Fields
	}

	RespondJSON(w, body.Status, body)
}

func reasonFor(code string) string {
	switch code {
	case domain.CodeNotFound:
		return "Not Found"
	case domain.CodeConflict:
		return "Conflict"
	case domain.CodeValidation:
		return "Validation Failed"
	case domain.CodeUnavailable:
		return "Service Unavailable"
	case domain.CodeRateLimited:
		return "Too Many Requests"
	default:
		return "Internal Server Error"
	}
}

// DecodeJSON reads and decodes a JSON request body into dst (max 1 MiB).
func DecodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes)).Decode(dst)
}
