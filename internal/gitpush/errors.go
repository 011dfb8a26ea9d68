package gitpush

import "errors"

// ErrCommandFailed wraps any non-zero exit from git or rsync, with the
// combined output attached via %w/errors.Unwrap chains by the caller.
var ErrCommandFailed = errors.New("gitpush: command failed")
