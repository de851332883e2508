package dialog

import "errors"

var (
	// ErrNotStarted is returned when a session is used before
	// StartNewDialog.
	ErrNotStarted = errors.New("dialog: session not started")

	// ErrPinConflict is returned when one message carries both pin
	// directives. Rejected before any state mutation.
	ErrPinConflict = errors.New("dialog: cannot pin to both system and important tiers")

	// ErrIdentityMismatch is returned when a persisted snapshot disagrees
	// with the live session's user id, model, or chat mode. The snapshot
	// must never silently change identity mid-session.
	ErrIdentityMismatch = errors.New("dialog: persisted snapshot does not match session identity")

	// ErrCapacityExceeded is returned when system plus important messages
	// would exceed their token ceiling. The high-priority tiers are
	// eviction-exempt, so overflow is a hard stop, never a silent drop.
	ErrCapacityExceeded = errors.New("dialog: system and important messages exceed the token ceiling")

	// ErrBadTokenLimit is returned when the derived long-dialog limit is
	// not positive. A configuration error, not a runtime retry.
	ErrBadTokenLimit = errors.New("dialog: derived token limit must be positive")
)
