package protocol

import "errors"

var (
	ErrDecode         = errors.New("protocol: malformed envelope")
	ErrMissingID      = errors.New("protocol: missing id")
	ErrMissingCommand = errors.New("protocol: missing command")
	ErrTrailingData   = errors.New("protocol: trailing data after envelope")
)
