package store

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned when the requested note or task does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument is returned for out-of-range paging or unknown task status.
	ErrInvalidArgument = errors.New("invalid argument")
)
