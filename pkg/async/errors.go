package async

import "errors"

var ErrNoFutures = errors.New("async: no futures")
