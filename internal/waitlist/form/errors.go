package form

import "errors"

// ErrSubmitInFlight is returned by Submit while an earlier submission of the
// same session has not finished. No request is sent.
var ErrSubmitInFlight = errors.New("form: submission already in flight")

// ErrAlreadySubscribed is returned by Submit after the session succeeded and
// before the form resets. No request is sent.
var ErrAlreadySubscribed = errors.New("form: already subscribed in this session")

// NetworkError means no usable answer came back: the request failed or the
// body was not JSON, whatever the status.
type NetworkError struct {
	Message string
	Err     error
}

func (e *NetworkError) Error() string { return e.Message }
func (e *NetworkError) Unwrap() error { return e.Err }

// RequestError is a non-2xx answer carrying the server's message.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string { return e.Message }
