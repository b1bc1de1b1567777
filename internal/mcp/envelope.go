package mcp

import (
	"errors"
	"fmt"

	"github.com/blackwell-systems/dermwatch/internal/insight"
	"github.com/blackwell-systems/dermwatch/internal/quota"
	"github.com/blackwell-systems/dermwatch/internal/session"
	"github.com/blackwell-systems/dermwatch/internal/store"
)

// ErrorKind classifies a failed tool call for machine consumers.
type ErrorKind string

// Error kinds.
const (
	KindNotAuthenticated ErrorKind = "NotAuthenticated"
	KindInsufficientData ErrorKind = "InsufficientData"
	KindQuotaExceeded    ErrorKind = "QuotaExceeded"
	KindServiceError     ErrorKind = "ServiceError"
	KindEmptyResponse    ErrorKind = "EmptyResponse"
	KindStorageError     ErrorKind = "StorageError"
	KindInvalidInput     ErrorKind = "InvalidInput"
	KindUnknownTool      ErrorKind = "UnknownTool"
	KindInternal         ErrorKind = "Internal"
)

// ErrInvalidInput marks arguments that failed decoding or validation.
var ErrInvalidInput = errors.New("invalid input")

// ErrUnknownTool is returned for calls to unregistered tools.
var ErrUnknownTool = errors.New("unknown tool")

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ErrorEnvelope is the result of every failed tool call.
type ErrorEnvelope struct {
	Success   bool      `json:"success"`
	Error     string    `json:"error"`
	ErrorKind ErrorKind `json:"error_kind"`

	// Set for QuotaExceeded only.
	Used      *int `json:"used,omitempty"`
	Limit     *int `json:"limit,omitempty"`
	Remaining *int `json:"remaining,omitempty"`
}

// Kind classifies err.
func Kind(err error) ErrorKind {
	var ex *quota.ExceededError
	switch {
	case errors.Is(err, session.ErrNotAuthenticated):
		return KindNotAuthenticated
	case errors.Is(err, insight.ErrInsufficientData):
		return KindInsufficientData
	case errors.As(err, &ex):
		return KindQuotaExceeded
	case errors.Is(err, insight.ErrServiceError):
		return KindServiceError
	case errors.Is(err, insight.ErrEmptyResponse):
		return KindEmptyResponse
	case errors.Is(err, ErrInvalidInput), errors.Is(err, store.ErrInvalidRecord):
		return KindInvalidInput
	case errors.Is(err, store.ErrStorage):
		return KindStorageError
	case errors.Is(err, ErrUnknownTool):
		return KindUnknownTool
	default:
		return KindInternal
	}
}

func envelopeFor(err error) ErrorEnvelope {
	env := ErrorEnvelope{Error: err.Error(), ErrorKind: Kind(err)}

	var ex *quota.ExceededError
	if errors.As(err, &ex) {
		used, limit, remaining := ex.Used, ex.Limit, max(ex.Limit-ex.Used, 0)
		env.Used, env.Limit, env.Remaining = &used, &limit, &remaining
	}
	return env
}
