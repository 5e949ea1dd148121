package errors

import (
	"errors"
	"fmt"
)

// Process exit statuses.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
	ExitExport  = 3
)

var (
	ErrFileOpen      = errors.New("file open failed")
	ErrRead          = errors.New("read failed")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrInvalidWord   = errors.New("invalid word")
	ErrExport        = errors.New("export failed")
)

type AppError struct {
	Err      error
	Message  string
	ExitCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, exitCode int, message string) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  message,
		ExitCode: exitCode,
	}
}

func Newf(sentinel error, exitCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:      sentinel,
		Message:  fmt.Sprintf(format, args...),
		ExitCode: exitCode,
	}
}

func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.ExitCode
	}

	switch {
	case errors.Is(err, ErrInvalidConfig):
		return ExitUsage
	case errors.Is(err, ErrExport):
		return ExitExport
	default:
		return ExitFailure
	}
}
