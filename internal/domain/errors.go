package domain

import "errors"

var (
	// ErrInvalidInput marks malformed catalog input: an unreadable CSV, a
	// missing Description column or an empty description.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIO marks a catalog file that could not be read or written.
	ErrIO = errors.New("io error")

	// ErrMissingColumn is returned when the catalog lacks a required column.
	// It always comes wrapped together with ErrInvalidInput.
	ErrMissingColumn = errors.New("missing column")
)
