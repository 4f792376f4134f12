package study

import "errors"

var (
	// ErrPayloadMissing means the session has no usable text or keywords.
	ErrPayloadMissing = errors.New("study payload missing")

	// ErrInvalidTransition is returned when an action does not apply to the
	// current step.
	ErrInvalidTransition = errors.New("invalid step transition")

	// ErrInvalidStep is returned for an unparseable step label.
	ErrInvalidStep = errors.New("invalid step")

	// ErrUnknownInstance is returned for an instance id not in the session.
	ErrUnknownInstance = errors.New("unknown keyword instance")

	// ErrInactiveInstance is returned when writing to a read-only instance.
	ErrInactiveInstance = errors.New("keyword instance not active in this round")

	// ErrInvalidHint is returned for an unsupported hint kind.
	ErrInvalidHint = errors.New("invalid hint type")

	// ErrSessionNotFound is returned by the registry for unknown ids.
	ErrSessionNotFound = errors.New("study session not found")

	// ErrSessionLoading means the payload fetch has not resolved yet.
	ErrSessionLoading = errors.New("study session still loading")

	// ErrStale means a fetch result arrived for a slot that was abandoned or
	// re-fetched in the meantime; the result is discarded.
	ErrStale = errors.New("stale study session result")
)
