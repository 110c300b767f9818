package actions

import "errors"

// Error categories. Only ErrStaticConfiguration is fatal; every other one is
// turned into a prose result for the model.
var (
	ErrInvalidArguments    = errors.New("invalid arguments")
	ErrUnsupportedValue    = errors.New("unsupported value")
	ErrSideEffect          = errors.New("side effect failed")
	ErrStaticConfiguration = errors.New("static configuration error")
)
