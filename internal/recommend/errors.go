package recommend

import (
	"errors"
	"fmt"
)

// ConfigError means the language-model client could not be built because its
// endpoint or key is missing.
type ConfigError struct {
	err error
}

func (e *ConfigError) Error() string {
	return e.err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.err
}

// NewConfigError wraps err as a configuration error.
func NewConfigError(err error) error {
	return &ConfigError{err: err}
}

// UpstreamError is a failed or empty language-model call.
type UpstreamError struct {
	err error
}

func (e *UpstreamError) Error() string {
	return e.err.Error()
}

func (e *UpstreamError) Unwrap() error {
	return e.err
}

// NewUpstreamError wraps err as an upstream failure.
func NewUpstreamError(err error) error {
	return &UpstreamError{err: err}
}

// ParseError means the model answered but the content was not a valid
// recommendation array. RawContent is kept for logging only.
type ParseError struct {
	Err        error
	RawContent string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Failed to parse recommendations: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is a ConfigError.
func IsConfigError(err error) bool {
	var cfg *ConfigError
	return errors.As(err, &cfg)
}

// IsUpstreamError reports whether err is an UpstreamError.
func IsUpstreamError(err error) bool {
	var upstream *UpstreamError
	return errors.As(err, &upstream)
}

// IsParseError reports whether err is a ParseError.
func IsParseError(err error) bool {
	var parse *ParseError
	return errors.As(err, &parse)
}
