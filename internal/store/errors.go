package store

import "errors"

var (
	// ErrNotFound indicates the key has no stored record.
	ErrNotFound = errors.New("store: key not found")

	// ErrDisabled indicates the requested sink is switched off by
	// configuration.
	ErrDisabled = errors.New("store: persistence disabled")

	// ErrBadRecord indicates a stored record does not match the expected
	// schema. Treated as a configuration error: the file is human-editable
	// and must be fixed by hand.
	ErrBadRecord = errors.New("store: malformed record")

	// ErrInvalidDriver indicates an unknown backend driver name.
	ErrInvalidDriver = errors.New("store: unknown driver")

	// ErrInvalidConfig indicates a driver was selected without its required
	// options.
	ErrInvalidConfig = errors.New("store: invalid driver configuration")
)
