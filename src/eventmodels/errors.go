package eventmodels

import "errors"

var (
	ErrMissingField    = errors.New("missing required field")
	ErrInvariant       = errors.New("position invariant violated")
	ErrUnknownProvider = errors.New("unknown provider")
)
