package insight

import (
	"errors"
	"fmt"
)

// Sentinel errors for the AI analysis path.
var (
	ErrInsufficientData = errors.New("insufficient data")
	ErrServiceError     = errors.New("AI service error")
	ErrEmptyResponse    = errors.New("AI returned no analysis result")
)

// InsufficientDataError means the analysis window holds too few records.
type InsufficientDataError struct {
	Have       int
	Need       int
	WindowDays int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("not enough data: need at least %d records in the last %d days, have %d",
		e.Need, e.WindowDays, e.Have)
}

// Is reports ErrInsufficientData as equivalent.
func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}

// ServiceError is a failed call to the AI service. Status is the HTTP
// status, or zero when the request never got a response.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Status == 0 {
		return "AI service request failed: " + e.Message
	}
	return fmt.Sprintf("AI service error (%d): %s", e.Status, e.Message)
}

// Is reports ErrServiceError as equivalent.
func (e *ServiceError) Is(target error) bool {
	return target == ErrServiceError
}
