// Package apperr defines the server's error kinds as distinct Go
// types so callers can discriminate with errors.As instead of string
// matching.
package apperr

import "fmt"

// ConfigError signals a fatal misconfiguration: bad config file, bad
// schema, or a singleton-accelerator constraint violation. Always fatal at
// startup.
type ConfigError struct {
	Msg string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config error: %s: %v", e.Msg, e.Err)
	}
	return fmt.Sprintf("config error: %s", e.Msg)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError builds a ConfigError with no wrapped cause.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// NotImplementedError signals an unknown device or model family. Fatal at
// startup if it came from configuration; surfaced as HTTP 501 / gRPC
// INTERNAL if it came from a request path.
type NotImplementedError struct {
	Msg string
}

func (e *NotImplementedError) Error() string { return fmt.Sprintf("not implemented: %s", e.Msg) }

func NewNotImplementedError(format string, args ...any) *NotImplementedError {
	return &NotImplementedError{Msg: fmt.Sprintf(format, args...)}
}

// DecodeError signals an unreadable image. Handled by returning an empty
// Prediction and ringing the bell normally; never propagated to the
// caller as a hard failure.
type DecodeError struct {
	Msg string
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode error: %s: %v", e.Msg, e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

func NewDecodeError(msg string, err error) *DecodeError {
	return &DecodeError{Msg: msg, Err: err}
}

// InferenceError signals a back-end failure during RunDetection. Handled
// identically to DecodeError: empty Prediction, bell rung, worker
// continues serving its queue.
type InferenceError struct {
	Msg string
	Err error
}

func (e *InferenceError) Error() string { return fmt.Sprintf("inference error: %s: %v", e.Msg, e.Err) }
func (e *InferenceError) Unwrap() error { return e.Err }

func NewInferenceError(msg string, err error) *InferenceError {
	return &InferenceError{Msg: msg, Err: err}
}

// ProtocolError signals a malformed request: bad method, bad target, bad
// content type. The session producing it may continue serving further
// requests.
type ProtocolError struct {
	Status int
	Body   string
}

func (e *ProtocolError) Error() string { return fmt.Sprintf("protocol error (%d): %s", e.Status, e.Body) }

func NewProtocolError(status int, body string) *ProtocolError {
	return &ProtocolError{Status: status, Body: body}
}

// IOError signals a read/write failure mid-session. The session is
// aborted and its connection closed; the listener keeps accepting new
// connections.
type IOError struct {
	Err error
}

func (e *IOError) Error() string { return fmt.Sprintf("io error: %v", e.Err) }
func (e *IOError) Unwrap() error { return e.Err }

func NewIOError(err error) *IOError { return &IOError{Err: err} }
