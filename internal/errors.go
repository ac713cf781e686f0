package internal

import "errors"

var (
	// ErrAuthRequired means no usable token is stored for the account.
	// The caller should run the interactive authorization flow.
	ErrAuthRequired = errors.New("authorization required")

	// ErrAuthExpired means the provider rejected the stored token.
	ErrAuthExpired = errors.New("authorization expired")

	// ErrNetwork wraps transport failures talking to the provider.
	// Not retried internally, the user is told to try again.
	ErrNetwork = errors.New("network error")

	ErrInvalidArgument = errors.New("invalid argument")

	ErrSchedulerUnavailable = errors.New("scheduler unavailable")
)
