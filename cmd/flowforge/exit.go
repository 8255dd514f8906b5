package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	apperrors "github.com/kbukum/flowforge/errors"
)

// Process exit codes.
const (
	exitOK      = 0
	exitPartial = 1
	exitFatal   = 2
)

// exitError carries the exit code a command failed with. A nil Err means
// the command already reported the failure.
//
//	err := &exitError{Code: exitPartial}
//	var ee *exitError
//	if errors.As(err, &ee) {
//	    os.Exit(ee.Code)
//	}
type exitError struct {
	Code int
	Err  error
}

func (e *exitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit %d", e.Code)
	}
	return fmt.Sprintf("exit %d: %v", e.Code, e.Err)
}

func (e *exitError) Unwrap() error { return e.Err }

func withCode(code int, err error) error {
	return &exitError{Code: code, Err: err}
}

// exitCode reports err on stderr and maps it to a process exit code.
// Errors without an explicit code are fatal.
func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return exitOK
	}
	code := exitFatal
	var ee *exitError
	if errors.As(err, &ee) {
		code = ee.Code
		if ee.Err == nil {
			return code
		}
		err = ee.Err
	}
	fmt.Fprintln(stderr, describe(err))
	return code
}

func describe(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "Pipeline execution was cancelled."
	case apperrors.HasCode(err, apperrors.ErrCodePipelineLoad):
		return "Failed to load pipeline: " + err.Error()
	case apperrors.HasCode(err, apperrors.ErrCodeNodeConfiguration):
		return "Configuration error: " + err.Error()
	case apperrors.HasCode(err, apperrors.ErrCodeInvalidConfig):
		return "Invalid settings: " + err.Error()
	}
	if appErr, ok := apperrors.AsAppError(err); ok && apperrors.IsStructuralCode(appErr.Code) {
		return "Pipeline error: " + err.Error()
	}
	return "Error: " + err.Error()
}
