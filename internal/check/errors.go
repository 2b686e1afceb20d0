package check

import "errors"

// Domain errors. The handler maps each to its HTTP status.
var (
	// ErrNotFound indicates an unknown check reference.
	ErrNotFound = errors.New("check not found")
	// ErrAlreadyClosed rejects a second tender on a closed check.
	ErrAlreadyClosed = errors.New("check is already closed")
	// ErrInvalidTender rejects a malformed tender payload.
	ErrInvalidTender = errors.New("require type=ROOM_CHARGE, roomNumber, lastName")
	// ErrGuestNotFound rejects settlement when the PMS lookup fails.
	ErrGuestNotFound = errors.New("guest not found or not in-house (PMS lookup failed)")
)
