package model

import "fmt"

// ErrorKind buckets failures for logging and the history recorder.
type ErrorKind string

const (
	ErrNone          ErrorKind = ""
	ErrConfiguration ErrorKind = "CONFIGURATION"
	ErrConnectivity  ErrorKind = "CONNECTIVITY"
	ErrProtocol      ErrorKind = "PROTOCOL"
	ErrData          ErrorKind = "DATA"
	ErrPersistence   ErrorKind = "PERSISTENCE"
)

// AppError is a classified, non-fatal failure.
type AppError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *AppError) Unwrap() error { return e.Err }

// Errorf builds a classified error with fmt-style formatting.
func Errorf(kind ErrorKind, format string, args ...any) *AppError {
	return &AppError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WrapError attaches a classification and context to an underlying error.
func WrapError(kind ErrorKind, msg string, err error) *AppError {
	return &AppError{Kind: kind, Msg: msg, Err: err}
}
