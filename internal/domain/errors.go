package domain

import "errors"

var (
	// ErrInvalidConfig is returned when a session is started with an
	// unusable question count or an unknown mode. It must be raised before
	// any session state is mutated.
	ErrInvalidConfig = errors.New("invalid session config")
	// ErrCatalogUnreadable indicates the catalog source could not be read.
	ErrCatalogUnreadable = errors.New("catalog source unreadable")
	// ErrCatalogEmpty indicates the source yielded zero usable items.
	ErrCatalogEmpty = errors.New("catalog has no usable items")
	// ErrCatalogNotFound indicates the requested catalog document does not exist.
	ErrCatalogNotFound = errors.New("catalog not found")
	// ErrInvalidTransition is a state machine contract violation: an
	// operation was invoked from a phase that does not permit it. It is a
	// programming error, not a user-recoverable condition.
	ErrInvalidTransition = errors.New("invalid session transition")
	// ErrSessionNotFound is returned when a player acts before starting a session.
	ErrSessionNotFound = errors.New("quiz session not found")
)
