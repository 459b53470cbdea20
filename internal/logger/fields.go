package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Standard tracing fields, propagated through the call chain via context.
const (
	// FieldRequestID is the HTTP request ID (UUID)
	FieldRequestID = "request_id"

	// FieldJobID is the index job ID
	FieldJobID = "job_id"

	// FieldArtworkID is the artwork being indexed or queried
	FieldArtworkID = "artwork_id"

	// FieldComponent is the component/module name
	FieldComponent = "component"

	// FieldViewerID is the requesting viewer, when authenticated
	FieldViewerID = "viewer_id"
)

// Standard metric fields, attached per log entry for aggregation.
const (
	// FieldDurationMs is the execution duration in milliseconds
	FieldDurationMs = "duration_ms"

	// FieldCount is a generic count field
	FieldCount = "count"

	// FieldAttempt is the current job attempt number
	FieldAttempt = "attempt"

	// FieldStatus is the operation status
	FieldStatus = "status"

	// FieldSize is the response body size in bytes
	FieldSize = "size"
)
