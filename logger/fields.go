package logger

// Standard field names for consistent structured logging across harvest.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Identity and context
	FieldRunID      = "run_id"
	FieldSnapshotID = "snapshot_id"
	FieldDataset    = "dataset"

	// Components
	FieldComponent = "component"

	// Operations
	FieldOperation = "operation"
	FieldMethod    = "method"
	FieldURL       = "url"
	FieldAttempt   = "attempt"

	// Timing
	FieldElapsedS   = "elapsed_s"
	FieldDurationMS = "duration_ms"
	FieldInterval   = "interval"

	// Errors
	FieldError = "error"

	// Counts and sizes
	FieldCount     = "count"
	FieldRecords   = "records"
	FieldBatch     = "batch"
	FieldBatchSize = "batch_size"

	// Status
	FieldStatus = "status"

	// Files and paths
	FieldFile   = "file"
	FieldBackup = "backup"
)
