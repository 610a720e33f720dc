package errors

import "github.com/pkg/errors"

var (
	// import errors
	ErrUnrecognizedFilenamePattern = errors.New("could not infer month and year from filename")
	ErrEmptyFile                   = errors.New("file contains no data rows")
	ErrMissingEmailColumn          = errors.New("no email column detected in header")
	ErrBatchNotFound               = errors.New("import batch not found")
	ErrArchiveNotAvailable         = errors.New("no archived upload for batch")

	// rule errors
	ErrInvalidRule   = errors.New("invalid false positive rule")
	ErrRuleNotFound  = errors.New("false positive rule not found")
	ErrInvalidPeriod = errors.New("invalid report period")

	// investigation errors
	ErrInvalidSearch = errors.New("invalid investigation search")
)
