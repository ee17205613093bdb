package delivery

import "errors"

var (
	// ErrInvalidArgument is returned when a recipient id or message is
	// missing. It is surfaced synchronously and never retried.
	ErrInvalidArgument = errors.New("delivery: invalid argument")

	// ErrEmptyBatch is returned when a batch publish carries no entries.
	ErrEmptyBatch = errors.New("delivery: batch is empty")
)
