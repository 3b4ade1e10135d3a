package domain

import "errors"

var (
	ErrMovieNotFound    = errors.New("movie not found")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrStoreQuery       = errors.New("store query failed")
)

// InputError is a rejected request parameter. Msg is safe to show to clients.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string {
	return e.Msg
}

func NewInputError(msg string) error {
	return &InputError{Msg: msg}
}

func IsInputError(err error) bool {
	var target *InputError
	return errors.As(err, &target)
}
