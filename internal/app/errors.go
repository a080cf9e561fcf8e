package app

import "errors"

// ErrInvalidRequest is matched by every client-side validation error.
var ErrInvalidRequest = errors.New("invalid request")

var (
	ErrEmptyQuery = requestError("Puste zapytanie.")
	ErrNoFiles    = requestError("Nie przesłano plików.")
	ErrNoItems    = requestError("Brak 'items'.")
)

// requestError carries a message meant for the end user.
type requestError string

func (e requestError) Error() string { return string(e) }

func (e requestError) Is(target error) bool { return target == ErrInvalidRequest }
