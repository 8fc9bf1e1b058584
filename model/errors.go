package model

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks against the typed errors below.
var (
	ErrConfiguration     = errors.New("configuration error")
	ErrTransport         = errors.New("transport error")
	ErrVendorStatus      = errors.New("vendor status error")
	ErrMalformedFragment = errors.New("malformed stream fragment")
	ErrToolArguments     = errors.New("tool argument decode error")
)

// ConfigurationError reports an invalid or missing construction parameter.
// It is always returned eagerly, before any network activity.
type ConfigurationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ConfigurationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("configuration error: %s %q: %s", e.Field, e.Value, e.Message)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// Is reports whether target is ErrConfiguration.
func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// TransportError wraps timeouts and connection failures.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport error: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Is reports whether target is ErrTransport.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// VendorStatusError reports a non-success HTTP status returned by a vendor.
// Body is only populated in verbose mode.
type VendorStatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *VendorStatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s api error: status=%d, body=%s", e.Provider, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s api error: status=%d", e.Provider, e.StatusCode)
}

// Is reports whether target is ErrVendorStatus.
func (e *VendorStatusError) Is(target error) bool { return target == ErrVendorStatus }

// MalformedFragmentError describes a stream chunk that could not be decoded.
// Adapters skip such fragments and only log them in verbose mode.
type MalformedFragmentError struct {
	Provider string
	Data     string
	Err      error
}

func (e *MalformedFragmentError) Error() string {
	return fmt.Sprintf("%s: malformed stream fragment: %v", e.Provider, e.Err)
}

func (e *MalformedFragmentError) Unwrap() error { return e.Err }

// Is reports whether target is ErrMalformedFragment.
func (e *MalformedFragmentError) Is(target error) bool { return target == ErrMalformedFragment }

// ToolArgumentDecodeError reports tool arguments that are still invalid JSON
// after the repair pass.
type ToolArgumentDecodeError struct {
	Tool      string
	Arguments string
	Err       error
}

func (e *ToolArgumentDecodeError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %s: %v", e.Tool, e.Err)
}

func (e *ToolArgumentDecodeError) Unwrap() error { return e.Err }

// Is reports whether target is ErrToolArguments.
func (e *ToolArgumentDecodeError) Is(target error) bool { return target == ErrToolArguments }
