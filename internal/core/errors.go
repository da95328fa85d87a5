package core

import (
	"errors"
	"fmt"
)

// ErrInvalidOption reports an option value outside its allowed set.
var ErrInvalidOption = errors.New("invalid option")

// ConfigurationError is raised at construction time, e.g. for an unknown site.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Message)
}

// RemoteFault is a business-level exception reported by the remote service.
type RemoteFault struct {
	Operation string
	Code      string
	Message   string
}

func (e *RemoteFault) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("remote fault in %s: %s: %s", e.Operation, e.Code, e.Message)
	}
	return fmt.Sprintf("remote fault in %s: %s", e.Operation, e.Message)
}

// TransportError is a connectivity or protocol failure.
type TransportError struct {
	Operation  string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport error in %s (HTTP %d): %v", e.Operation, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport error in %s: %v", e.Operation, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError reports malformed XML where well-formed XML was expected.
type ParseError struct {
	Tag string
	Err error
}

func (e *ParseError) Error() string {
	if e.Tag != "" {
		return fmt.Sprintf("parse %s: %v", e.Tag, e.Err)
	}
	return fmt.Sprintf("parse: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MalformedExportError reports an export payload without the expected envelope.
type MalformedExportError struct {
	Format Format
	Reason string
	Err    error
}

func (e *MalformedExportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed %s export: %s: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("malformed %s export: %s", e.Format, e.Reason)
}

func (e *MalformedExportError) Unwrap() error { return e.Err }
