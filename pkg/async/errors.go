package async

import "errors"

// ErrTimeout is returned by AwaitWithTimeout when the timeout elapses first.
var ErrTimeout = errors.New("async: await timed out")
