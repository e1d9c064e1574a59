package types

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorKind string

const (
	ErrKindCapture       ErrorKind = "capture_failure"
	ErrKindService       ErrorKind = "service_failure"
	ErrKindConfiguration ErrorKind = "configuration_error"
	ErrKindInternal      ErrorKind = "internal_error"
)

// CaptureFailure means the transcript could not be trusted: the driver failed
// or reported success=false.
type CaptureFailure struct {
	Message string
}

func (e *CaptureFailure) Error() string {
	if e.Message == "" {
		return "conversation execution failed"
	}
	return "conversation execution failed: " + e.Message
}

// ServiceFailure wraps an embedding or entity service error, including malformed output.
type ServiceFailure struct {
	Service string
	Err     error
}

func (e *ServiceFailure) Error() string {
	return fmt.Sprintf("%s service: %v", e.Service, e.Err)
}

func (e *ServiceFailure) Unwrap() error { return e.Err }

// ConfigurationError reports a template that is missing fields or is malformed.
type ConfigurationError struct {
	Source   string
	Problems []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid template %s: %s", e.Source, strings.Join(e.Problems, "; "))
}

// KindOf classifies err for batch error records.
func KindOf(err error) ErrorKind {
	var cf *CaptureFailure
	var sf *ServiceFailure
	var ce *ConfigurationError
	switch {
	case errors.As(err, &cf):
		return ErrKindCapture
	case errors.As(err, &sf):
		return ErrKindService
	case errors.As(err, &ce):
		return ErrKindConfiguration
	default:
		return ErrKindInternal
	}
}
