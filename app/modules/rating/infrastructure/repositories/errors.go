package ratingdb

import "errors"

// Sentinel errors for the repository layer.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNoActiveSeason indicates the group has not opened a season yet.
	ErrNoActiveSeason = errors.New("no active season")

	// ErrNoRowsAffected indicates an UPDATE/DELETE matched no rows.
	ErrNoRowsAffected = errors.New("no rows affected")
)
