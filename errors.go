package jqgrid

import (
	"github.com/pkg/errors"
)

// Failure classes. All of them abort the current request; there is no
// partial-success mode and no retry at this layer. Use errors.Is to
// classify a returned error.
var (
	// ErrConfiguration marks a grid or adapter that is missing a required
	// piece of setup (query object, options map). Surfaced before any row
	// processing happens.
	ErrConfiguration = errors.New("jqgrid: configuration error")

	// ErrInvalidOperator marks an unknown filter operator code. Fatal for
	// the filter-compilation step.
	ErrInvalidOperator = errors.New("jqgrid: invalid filter operator")

	// ErrRender marks a cell that could not be rendered (unresolvable
	// href, missing row-data key).
	ErrRender = errors.New("jqgrid: render error")
)

func configErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrConfiguration, format, args...)
}

func renderErrorf(format string, args ...interface{}) error {
	return errors.Wrapf(ErrRender, format, args...)
}
