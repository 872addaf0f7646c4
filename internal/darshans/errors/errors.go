package errors

import "errors"

var (
	ErrNotFound = errors.New("darshan type not found")

	ErrSlotNotFound = errors.New("darshan slot not found")

	ErrInvalidID = errors.New("invalid darshan ID format")
)
