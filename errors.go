package lpm

import "errors"

var (
	// ErrResources is returned when an allocation was refused by the memory
	// budget. The table is rolled back to a consistent state first.
	ErrResources = errors.New("lpm: out of resources")
	// ErrInvalid is returned on argument validation failure.
	ErrInvalid = errors.New("lpm: invalid argument")
	// ErrInternal indicates a structural inconsistency. It is never returned
	// from a mutator: inconsistencies discovered mid-operation panic instead,
	// since recovery would hide corruption.
	ErrInternal = errors.New("lpm: internal inconsistency")
	// ErrNotFound is returned when the requested prefix or default entry does
	// not exist.
	ErrNotFound = errors.New("lpm: not found")
	// ErrExists is returned when adding a prefix that already maps to the
	// same payload, or registering a duplicate table name.
	ErrExists = errors.New("lpm: already exists")
	// ErrConflict is returned when adding a prefix that already maps to a
	// different payload. The table is left unchanged.
	ErrConflict = errors.New("lpm: payload conflict")
	// ErrExotic wraps a non-nil error returned by a walk callback.
	ErrExotic = errors.New("lpm: walk callback error")
)
