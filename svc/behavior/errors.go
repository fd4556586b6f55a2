package behavior

import "errors"

var (
	ErrRecordNotFound = errors.New("behavior: record not found")
	ErrNilRecord      = errors.New("behavior: nil record")
)
