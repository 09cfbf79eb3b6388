package feed

import "errors"

var (
	ErrMalformed           = errors.New("malformed input")
	ErrDecreasingTimestamp = errors.New("invalid decreasing timestamp in 'place' command")
	ErrExecBeforePlacement = errors.New("execution date before the current timestamp")
)
