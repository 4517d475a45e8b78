package activity

import "errors"

// ErrInvalidInput is returned for a nil or empty entry.
var ErrInvalidInput = errors.New("invalid activity entry")
