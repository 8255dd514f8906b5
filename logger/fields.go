package logger

import (
	"time"
)

// Standard field key constants for structured logging.
const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldNodeID    = "node_id"
	FieldTypeKey   = "type_key"
	FieldJobID     = "job_id"
	FieldFile      = "file"
	FieldStatus    = "status"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
	FieldDryRun    = "dry_run"
)

// Fields builds a map[string]interface{} from alternating key-value pairs.
//
//	logger.Info("done", logger.Fields("node_id", "sort", "jobs", 42))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i < len(kvs)-1; i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields creates fields for a node that failed.
func ErrorFields(nodeID string, err error) map[string]interface{} {
	return map[string]interface{}{
		FieldNodeID: nodeID,
		FieldError:  err.Error(),
	}
}

// DurationFields creates fields for a timed stage.
func DurationFields(nodeID string, d time.Duration) map[string]interface{} {
	return map[string]interface{}{
		FieldNodeID:   nodeID,
		FieldDuration: d.Milliseconds(),
	}
}

// MergeWithError adds an error field to an existing map.
func MergeWithError(fields map[string]interface{}, err error) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields[FieldError] = err.Error()
	return fields
}
