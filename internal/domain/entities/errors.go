package entities

import "errors"

var (
	ErrNoData          = errors.New("no data available")
	ErrUnknownLocation = errors.New("unknown location")
	ErrUnknownView     = errors.New("unknown view")
	ErrUnknownFormat   = errors.New("unknown export format")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
