package reputation

import "errors"

var (
	// ErrInvalidInput is returned before any network call for empty or malformed URLs.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConfig is returned when a credential or base URL is missing.
	ErrConfig = errors.New("configuration error")
	// ErrTransport covers failed submission and poll requests.
	ErrTransport = errors.New("transport error")
	// ErrProtocol covers provider responses that cannot be interpreted.
	ErrProtocol = errors.New("protocol error")
)

// Error carries a user-facing message and matches one of the sentinels above
// with errors.Is.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func newError(kind error, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}
