package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// AppError is the unified error type for engine failures.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// --- Graph constructors ---

// EmptyGraph reports a pipeline without nodes.
func EmptyGraph() *AppError {
	return &AppError{Code: ErrCodeEmptyGraph, Message: "pipeline has no nodes"}
}

// DuplicateNode reports two nodes sharing the same id.
func DuplicateNode(nodeID string) *AppError {
	return &AppError{
		Code: ErrCodeDuplicateNode, Message: fmt.Sprintf("node id %q is used more than once", nodeID),
		Details: map[string]any{"node_id": nodeID},
	}
}

// UnknownNodeType reports a node type key missing from the registry.
func UnknownNodeType(typeKey string) *AppError {
	return &AppError{
		Code: ErrCodeUnknownNodeType, Message: fmt.Sprintf("unknown node type %q", typeKey),
		Details: map[string]any{"type_key": typeKey},
	}
}

// DanglingConnection reports a connection whose endpoint is not in the graph.
func DanglingConnection(nodeID string) *AppError {
	return &AppError{
		Code: ErrCodeDanglingConnection, Message: fmt.Sprintf("connection references unknown node %q", nodeID),
		Details: map[string]any{"node_id": nodeID},
	}
}

// GraphCycle reports a cyclic graph. processed is the number of nodes Kahn's
// algorithm could order before it ran out of zero in-degree nodes.
func GraphCycle(processed, total int) *AppError {
	return &AppError{
		Code: ErrCodeGraphCycle, Message: fmt.Sprintf("pipeline graph contains a cycle (ordered %d of %d nodes)", processed, total),
		Details: map[string]any{"ordered": processed, "total": total},
	}
}

// --- Configuration constructors ---

// NodeConfiguration reports an invalid value for a single configuration key.
func NodeConfiguration(typeKey, key, reason string) *AppError {
	msg := fmt.Sprintf("%s: %s", typeKey, reason)
	if key != "" {
		msg = fmt.Sprintf("%s: '%s' %s", typeKey, key, reason)
	}
	details := map[string]any{"type_key": typeKey}
	if key != "" {
		details["keys"] = []string{key}
	}
	return &AppError{Code: ErrCodeNodeConfiguration, Message: msg, Details: details}
}

// NodeConfigurationKeys reports several violated configuration keys at once.
// violations maps each key to the reason it was rejected.
func NodeConfigurationKeys(typeKey string, violations map[string]string) *AppError {
	keys := make([]string, 0, len(violations))
	for k := range violations {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("'%s' %s", k, violations[k]))
	}
	return &AppError{
		Code:    ErrCodeNodeConfiguration,
		Message: fmt.Sprintf("%s: %s", typeKey, strings.Join(parts, "; ")),
		Details: map[string]any{"type_key": typeKey, "keys": keys},
	}
}

// CategoryMismatch reports a factory that built a node of another category
// than the one it was registered with.
func CategoryMismatch(typeKey, registered, built string) *AppError {
	return &AppError{
		Code:    ErrCodeCategoryMismatch,
		Message: fmt.Sprintf("node type %q is registered as %s but its factory built a %s", typeKey, registered, built),
		Details: map[string]any{"type_key": typeKey, "registered": registered, "built": built},
	}
}

// DuplicateRegistration reports a type key registered twice.
func DuplicateRegistration(typeKey string) *AppError {
	return &AppError{
		Code: ErrCodeDuplicateRegistration, Message: fmt.Sprintf("node type %q is already registered", typeKey),
		Details: map[string]any{"type_key": typeKey},
	}
}

// --- Run constructors ---

// SourceFailed reports a source node that could not produce its jobs.
func SourceFailed(nodeID, typeKey string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeSourceFailed, Message: fmt.Sprintf("source %s (%s) failed", nodeID, typeKey),
		Details: map[string]any{"node_id": nodeID, "type_key": typeKey}, Cause: cause,
	}
}

// --- Collaborator constructors ---

// PipelineLoad reports an unreadable or malformed pipeline file.
func PipelineLoad(path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodePipelineLoad, Message: fmt.Sprintf("cannot load pipeline %q", path),
		Details: map[string]any{"path": path}, Cause: cause,
	}
}

// InvalidConfig reports invalid application configuration.
func InvalidConfig(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidConfig, Message: message}
}

// NotFound reports a missing named resource.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("%s %q not found", resource, id),
		Details: details,
	}
}

// --- Inspection helpers ---

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err wraps an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}
