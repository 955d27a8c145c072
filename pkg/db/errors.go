package db

import "errors"

var (
	// ErrNoConnection signals an operation was invoked without an active
	// session. This is a programmer error: open the session first.
	ErrNoConnection = errors.New("no active connection: open the session before use")

	// ErrPrivateMethod signals a Call with a private method name.
	ErrPrivateMethod = errors.New("private methods cannot be called by name")

	// ErrUnknownMethod signals a Call with a name that does not map to a
	// session operation.
	ErrUnknownMethod = errors.New("unknown session method")

	// ErrMetadataConflict signals two metadata maps report differing
	// values for the same key.
	ErrMetadataConflict = errors.New("conflicting metadata values")

	// ErrEmptyTable signals a batch insert could not infer the column
	// count because the payload has no records.
	ErrEmptyTable = errors.New("cannot infer columns from empty table")
)
