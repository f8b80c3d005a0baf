package delta

import "github.com/TFMV/deltabox/pkg/errors"

// Error codes for delta package
var (
	// Usage errors
	ErrNegativeLimit              = errors.MustNewCode("delta.negative_limit")
	ErrInvalidLimit               = errors.MustNewCode("delta.invalid_limit")
	ErrConflictingPartitionSchema = errors.MustNewCode("delta.conflicting_partition_schema")

	// Result shape errors
	ErrEmptyResult = errors.MustNewCode("delta.empty_result")
)
