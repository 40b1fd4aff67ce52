package httputil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/matzehuels/railgen/pkg/errors"
)

// MaxBodyBytes bounds request bodies read by [DecodeJSON].
const MaxBodyBytes = 1 << 20

// Problem is the JSON body of an error response.
type Problem struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// StatusFor maps an error code to an HTTP status.
func StatusFor(code errors.Code) int {
	switch {
	case code == errors.ErrCodeInfeasibleLayout:
		return http.StatusUnprocessableEntity
	case strings.HasPrefix(string(code), "INVALID_"):
		return http.StatusBadRequest
	case strings.HasSuffix(string(code), "NOT_FOUND"):
		return http.StatusNotFound
	case code == errors.ErrCodeUnsupported:
		return http.StatusUnsupportedMediaType
	case code == errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes err as a [Problem] and returns the status used.
func WriteError(w http.ResponseWriter, err error) int {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	status := StatusFor(code)

	msg := errors.UserMessage(err)
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	WriteJSON(w, status, Problem{Code: code, Message: msg})
	return status
}

// DecodeJSON decodes the request body into v. Unknown fields and bodies
// larger than [MaxBodyBytes] are rejected. An empty body leaves v unchanged.
func DecodeJSON(r *http.Request, v any) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read request body")
	}
	if len(data) > MaxBodyBytes {
		return errors.New(errors.ErrCodeInvalidInput, "request body exceeds %d bytes", MaxBodyBytes)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request body")
	}
	if dec.More() {
		return errors.New(errors.ErrCodeInvalidInput, "request body must hold a single JSON object")
	}
	return nil
}

// ContentType returns the media type served for a render format.
func ContentType(format string) string {
	switch {
	case strings.HasSuffix(format, "svg"):
		return "image/svg+xml"
	case strings.HasSuffix(format, "png"):
		return "image/png"
	case format == "dot":
		return "text/vnd.graphviz; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}
