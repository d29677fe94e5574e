package screen

import "errors"

var (
	// ErrInactive is returned by buffer and poll operations outside Init/Shutdown
	ErrInactive = errors.New("screen: session not active")
	// ErrAlreadyActive is returned by Init on an active session
	ErrAlreadyActive = errors.New("screen: session already active")
	// ErrSessionBusy is returned when another session holds the process terminal
	ErrSessionBusy = errors.New("screen: terminal owned by another session")
	// ErrInvalidMode is returned for output modes outside the known range
	ErrInvalidMode = errors.New("screen: invalid mode")
	// ErrOutOfRange is returned by CellAt for coordinates outside the buffer
	ErrOutOfRange = errors.New("screen: cell out of range")
	// ErrPoll wraps every event poll failure
	ErrPoll = errors.New("screen: poll failed")
	// ErrSpawn is returned when no async worker slot is free
	ErrSpawn = errors.New("screen: cannot spawn poll worker")
	// ErrNilRecipient is returned by PollAsync without a recipient
	ErrNilRecipient = errors.New("screen: nil recipient")
)
