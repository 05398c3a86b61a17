package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Sentinel markers. Stage and adapter code wraps an underlying cause with one
// of these via Wrap; Classify recovers the marker with errors.Is.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBadAudio     = errors.New("bad audio")
	ErrEngine       = errors.New("engine error")
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// Code is the taxonomy value persisted on job/batch error records and
// returned in HTTP error bodies.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeBadAudio     Code = "bad_audio"
	CodeEngineError  Code = "engine_error"
	CodeInternal     Code = "internal_error"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
)

// Wrap builds an error that carries stage/operation context while tagging it
// with marker for later classification. marker should be one of the sentinel
// errors above; nil defaults to ErrInternal.
func Wrap(marker error, stage, operation, message string, cause error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrInternal
	}
	if cause != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, cause)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}

// Classify maps err to its taxonomy code via errors.Is against the sentinel
// markers. Unrecognized errors classify as CodeInternal.
func Classify(err error) Code {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrBadRequest):
		return CodeBadRequest
	case errors.Is(err, ErrBadAudio):
		return CodeBadAudio
	case errors.Is(err, ErrEngine):
		return CodeEngineError
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	default:
		return CodeInternal
	}
}

// HTTPStatus maps a taxonomy code to the HTTP status the transport layer
// should return.
func HTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeBadAudio:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeEngineError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Detail is the {code, message, details?} shape persisted on job/batch error
// records and serialized in HTTP error bodies.
type Detail struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// DetailFor builds a Detail from err, classifying it and using err's message
// (minus the sentinel prefix) as the human-readable message.
func DetailFor(err error) Detail {
	if err == nil {
		return Detail{}
	}
	code := Classify(err)
	msg := err.Error()
	for _, marker := range []error{ErrBadRequest, ErrBadAudio, ErrEngine, ErrUnauthorized, ErrForbidden, ErrNotFound, ErrInternal} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			msg = msg[len(prefix):]
			break
		}
	}
	return Detail{Code: code, Message: msg}
}

// New constructs a Detail-carrying error directly from a code and message,
// for error paths with no underlying cause to wrap (HTTP-layer validation,
// for example).
func New(code Code, message string) error {
	var marker error
	switch code {
	case CodeBadRequest:
		marker = ErrBadRequest
	case CodeBadAudio:
		marker = ErrBadAudio
	case CodeEngineError:
		marker = ErrEngine
	case CodeUnauthorized:
		marker = ErrUnauthorized
	case CodeForbidden:
		marker = ErrForbidden
	case CodeNotFound:
		marker = ErrNotFound
	default:
		marker = ErrInternal
	}
	return fmt.Errorf("%w: %s", marker, message)
}
