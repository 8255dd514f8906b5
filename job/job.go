// Package job defines the unit of work that flows through a pipeline: one
// file, its current location, accumulated metadata and a per-node log.
package job

import (
	"maps"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a job.
type Status int

const (
	Pending Status = iota
	Processing
	Succeeded
	Failed
	Skipped
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Processing:
		return "Processing"
	case Succeeded:
		return "Succeeded"
	case Failed:
		return "Failed"
	case Skipped:
		return "Skipped"
	}
	return "Unknown"
}

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == Succeeded || s == Failed || s == Skipped
}

// MarshalText encodes the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Job is a single file moving through a pipeline.
//
// OriginalPath never changes after construction. CurrentPath is rewritten by
// renames and outputs. A job is owned by one stage at a time and is not safe
// for concurrent use.
type Job struct {
	ID           uuid.UUID
	CurrentPath  string
	Metadata     map[string]string
	Status       Status
	ErrorMessage string
	NodeLog      []string

	originalPath string
}

// New creates a pending job for the file at path.
func New(path string) *Job {
	return &Job{
		ID:           uuid.New(),
		CurrentPath:  path,
		Metadata:     make(map[string]string),
		Status:       Pending,
		originalPath: path,
	}
}

// OriginalPath is the path the source discovered the file at.
func (j *Job) OriginalPath() string { return j.originalPath }

// FileName is the base name of CurrentPath.
func (j *Job) FileName() string { return filepath.Base(j.CurrentPath) }

// Extension is the lower-cased extension of CurrentPath, including the dot.
func (j *Job) Extension() string { return strings.ToLower(filepath.Ext(j.CurrentPath)) }

// Dir is the directory of CurrentPath.
func (j *Job) Dir() string { return filepath.Dir(j.CurrentPath) }

// Stem is the file name without its extension.
func (j *Job) Stem() string {
	name := j.FileName()
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// Log appends a human-readable entry to the node log.
func (j *Job) Log(entry string) {
	j.NodeLog = append(j.NodeLog, entry)
}

// Fail marks the job failed with msg.
func (j *Job) Fail(msg string) {
	j.Status = Failed
	j.ErrorMessage = msg
}

// Skip marks the job skipped.
func (j *Job) Skip() {
	j.Status = Skipped
}

// Derive creates a child job for fan-out. The child has a new id and path,
// inherits OriginalPath and a copy of the metadata, and starts Pending.
func (j *Job) Derive(path string) *Job {
	child := New(path)
	child.originalPath = j.originalPath
	child.Metadata = maps.Clone(j.Metadata)
	if child.Metadata == nil {
		child.Metadata = make(map[string]string)
	}
	return child
}

// Snapshot returns a deep copy safe to hand to other goroutines.
func (j *Job) Snapshot() Job {
	s := *j
	s.Metadata = maps.Clone(j.Metadata)
	s.NodeLog = append([]string(nil), j.NodeLog...)
	return s
}
