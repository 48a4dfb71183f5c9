package companion

import "errors"

var (
	ErrNotFound       = errors.New("companion: not found")
	ErrCall           = errors.New("companion: call failed")
	ErrUnknownCommand = errors.New("companion: unknown command")
	ErrBadArgument    = errors.New("companion: bad argument")
)
