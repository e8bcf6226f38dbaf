package travel

import "errors"

var (
	// ErrOutOfRange is returned when a page size or page number is outside the
	// accepted bounds. It is detected before the cache or the store is touched.
	ErrOutOfRange = errors.New("pagination out of range")

	// ErrUnresolvedReference is returned by Add when the travel's country does
	// not exist. Nothing is written in that case.
	ErrUnresolvedReference = errors.New("unresolved reference")

	// ErrInvalidTravel is returned by Add when a value cannot be stored, such as
	// a price beyond the store's range. Nothing is written in that case.
	ErrInvalidTravel = errors.New("invalid travel")

	// ErrDuplicateID is returned when the cache is asked to insert an identifier
	// it already holds.
	ErrDuplicateID = errors.New("duplicate travel id")
)
