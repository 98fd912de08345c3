package entities

import "errors"

// Session-fatal and non-fatal error classes. Only transport errors tear the
// session down; media payload errors are isolated per frame.
var (
	// ErrNoMedia means the local media source was not available when the
	// session was asked to start.
	ErrNoMedia = errors.New("local media is not available")

	// ErrTransportOpen means the transport session could not be opened.
	ErrTransportOpen = errors.New("transport open failed")

	// ErrTransportRuntime means an established transport session failed.
	ErrTransportRuntime = errors.New("transport runtime failure")

	// ErrDecode means an inbound audio payload was malformed. The payload
	// is dropped and the session continues.
	ErrDecode = errors.New("malformed audio payload")

	// ErrSessionActive means start was called while a previous session has
	// not completed its stop.
	ErrSessionActive = errors.New("session already active")
)
