package domain

import "errors"

var (
	// ErrAccountNotFound is returned when an account row does not exist.
	ErrAccountNotFound = errors.New("account not found")

	// ErrEntryNotFound is returned when a warmup queue entry does not exist.
	ErrEntryNotFound = errors.New("warmup queue entry not found")

	// ErrNotConnected is returned by client operations before Connect.
	ErrNotConnected = errors.New("client is not connected")

	// ErrAlreadyParticipant signals a join attempt against a channel the
	// account is already a member of. Not a failure: the queue entry is
	// marked joined without consuming daily quota.
	ErrAlreadyParticipant = errors.New("already a participant of channel")

	// ErrAlreadyRunning is returned when starting an account whose worker
	// is already live.
	ErrAlreadyRunning = errors.New("account is already running")

	// ErrInvalidChannel is returned for malformed channel identifiers.
	ErrInvalidChannel = errors.New("invalid channel identifier")
)
