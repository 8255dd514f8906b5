package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Graph-structural errors. Fatal, raised before any file I/O.
const (
	// ErrCodeEmptyGraph indicates the pipeline has no nodes.
	ErrCodeEmptyGraph ErrorCode = "EMPTY_GRAPH"
	// ErrCodeDuplicateNode indicates two nodes share an id.
	ErrCodeDuplicateNode ErrorCode = "DUPLICATE_NODE"
	// ErrCodeUnknownNodeType indicates a node type key is not registered.
	ErrCodeUnknownNodeType ErrorCode = "UNKNOWN_NODE_TYPE"
	// ErrCodeDanglingConnection indicates a connection references a missing node.
	ErrCodeDanglingConnection ErrorCode = "DANGLING_CONNECTION"
	// ErrCodeGraphCycle indicates the graph is not acyclic.
	ErrCodeGraphCycle ErrorCode = "GRAPH_CYCLE"
)

// Node configuration errors. Fatal for the whole run.
const (
	// ErrCodeNodeConfiguration indicates a node rejected its configuration.
	ErrCodeNodeConfiguration ErrorCode = "NODE_CONFIGURATION"
	// ErrCodeCategoryMismatch indicates a factory built a node of the wrong category.
	ErrCodeCategoryMismatch ErrorCode = "CATEGORY_MISMATCH"
	// ErrCodeDuplicateRegistration indicates a type key was registered twice.
	ErrCodeDuplicateRegistration ErrorCode = "DUPLICATE_REGISTRATION"
)

// Run errors
const (
	// ErrCodeSourceFailed indicates a source node could not enumerate its files.
	ErrCodeSourceFailed ErrorCode = "SOURCE_FAILED"
)

// Collaborator errors
const (
	// ErrCodePipelineLoad indicates a pipeline file could not be read or parsed.
	ErrCodePipelineLoad ErrorCode = "PIPELINE_LOAD"
	// ErrCodeInvalidConfig indicates invalid application configuration.
	ErrCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	// ErrCodeNotFound indicates a named resource (template, node type) does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

var structuralCodes = map[ErrorCode]bool{
	ErrCodeEmptyGraph:         true,
	ErrCodeDuplicateNode:      true,
	ErrCodeUnknownNodeType:    true,
	ErrCodeDanglingConnection: true,
	ErrCodeGraphCycle:         true,
}

// IsStructuralCode returns true if the code describes a malformed graph.
func IsStructuralCode(code ErrorCode) bool {
	return structuralCodes[code]
}
