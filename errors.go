package strata

import "errors"

var (
	// ErrConfiguration is returned when cipher parameters are missing or
	// invalid: mismatched or unsupported key lengths, a sector size smaller
	// than one block, or an unknown mode.
	ErrConfiguration = errors.New("invalid cipher configuration")

	// ErrLifecycle is returned when an operation is invoked in a state where
	// it is not permitted, e.g. processing before Init or after Finalize.
	ErrLifecycle = errors.New("operation not permitted in current state")

	// ErrInsufficientData is returned by Finalize when the active data unit
	// holds fewer than 16 bytes. XTS cannot encrypt a data unit shorter than
	// one block.
	ErrInsufficientData = errors.New("data unit shorter than one block")

	// ErrSizeMismatch is returned in Independent mode when the total input
	// does not equal the sector size, or when input would cross a sector
	// boundary.
	ErrSizeMismatch = errors.New("input does not match sector size")

	// ErrOutputTooSmall is returned when the caller-provided output slice is
	// too small for the guaranteed emission. Use OutputSize to size buffers.
	ErrOutputTooSmall = errors.New("output buffer too small")
)
