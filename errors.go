package probemap

import "github.com/pkg/errors"

var (
	// ErrNullArgument is returned when a nil key or value is passed where a
	// non-nil one is required. Nothing is mutated.
	ErrNullArgument = errors.New("probemap: nil key or value")

	// ErrIllegalState is returned by cursors used without a valid position,
	// or advanced past the entries they can still find.
	ErrIllegalState = errors.New("probemap: illegal cursor state")

	// ErrNoSuchElement is returned when advancing an exhausted cursor.
	ErrNoSuchElement = errors.Wrap(ErrIllegalState, "no such element")

	// ErrCapacityExceeded is returned when growing past MaxCapacity.
	ErrCapacityExceeded = errors.New("probemap: max capacity reached")

	// ErrInvalidConfiguration is returned by New and Config.Validate.
	ErrInvalidConfiguration = errors.New("probemap: invalid configuration")
)
