package tracker

import "errors"

var (
	ErrInvalidConfig        = errors.New("tracker: invalid configuration")
	ErrNoTransport          = errors.New("tracker: no transport configured")
	ErrAttributeUnavailable = errors.New("tracker: attribute unavailable")
	ErrUnexpectedStatus     = errors.New("tracker: unexpected response status")
	ErrStorageUnavailable   = errors.New("tracker: session storage unavailable")
)
