// Package errors defines the error taxonomy of the FlowForge engine.
//
// Structural and configuration failures are reported as *AppError values
// carrying a machine-readable ErrorCode, so callers can branch with HasCode
// instead of matching strings. Per-job failures never surface here: the
// engine records them on the job itself.
package errors
