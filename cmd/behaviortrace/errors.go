package main

import "errors"

var (
	ErrUnknownStorageDriver    = errors.New("unknown storage driver")
	ErrUnknownRateLimitBackend = errors.New("unknown rate limit backend")
	ErrInvalidScenario         = errors.New("invalid replay scenario")
)
