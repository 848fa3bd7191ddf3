package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/shumpiss/pinlog/internal/domain"
)

// Request-level codes for failures rejected before reaching the service layer.
const (
	codeInvalidRequest  = "INVALID_REQUEST"
	codeInvalidParam    = "INVALID_PARAMETER"
	codePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	codeInternal        = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries a stable code and a human-readable message.
// Problems is set only for rejected imports.
type ErrorDetail struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Problems []string `json:"problems,omitempty"`
}

var errEmptyBody = errors.New("request body is required")

// statusFor maps a service error onto an HTTP status and response body.
// Errors outside the domain.Error taxonomy are reported as 500 with a generic
// message so internals never leak to clients.
func statusFor(err error) (int, ErrorResponse) {
	var de *domain.Error
	if !errors.As(err, &de) {
		return http.StatusInternalServerError, ErrorResponse{Error: ErrorDetail{
			Code: codeInternal, Message: "internal server error",
		}}
	}

	detail := ErrorDetail{Code: string(de.Code), Message: de.Message}
	if p, ok := de.Context["problems"].([]string); ok {
		detail.Problems = p
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: detail}
	case errors.Is(err, domain.ErrValidation):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: detail}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: detail}
	}
}

// writeError renders err through statusFor. Server-side failures are logged;
// client errors are already visible in the request log line.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "code", body.Error.Code, "error", err)
	}
	writeJSON(w, status, body)
}

// writeRequestError reports a malformed request. Bodies cut off by the size
// limit become 413.
func writeRequestError(w http.ResponseWriter, code string, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{Error: ErrorDetail{
			Code: codePayloadTooLarge, Message: "request body too large",
		}})
		return
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorDetail{Code: code, Message: err.Error()}})
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck // the status line is already sent; nothing useful to do on failure.
	json.NewEncoder(w).Encode(v)
}

// writeAttachment sends body as a downloadable file.
func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck
	w.Write(body)
}

// decodeJSON reads a single JSON document from the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

// readBody returns the raw request body as a string.
func readBody(r *http.Request) (string, error) {
	if r.Body == nil {
		return "", errEmptyBody
	}
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
