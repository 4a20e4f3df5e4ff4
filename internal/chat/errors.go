package chat

import "errors"

var (
	// ErrRegistryFull is returned by Registry.Reserve when every session slot
	// is taken.
	ErrRegistryFull = errors.New("session registry full")

	// ErrMailboxFull is returned by Mailbox.Enqueue when the global offline
	// message capacity is reached.
	ErrMailboxFull = errors.New("offline mailbox full")

	// ErrInvalidCredential is returned by CredentialStore.Register for empty
	// or separator-bearing usernames and passwords.
	ErrInvalidCredential = errors.New("invalid username or password")

	// ErrUnknownHandle is returned by registry operations on a handle that
	// was never reserved or has been released.
	ErrUnknownHandle = errors.New("unknown session handle")
)
