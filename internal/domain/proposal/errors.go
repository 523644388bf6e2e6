package proposal

import "errors"

var (
	ErrNotFound   = errors.New("proposal not found")
	ErrBadRequest = errors.New("bad request")
	ErrMalformed  = errors.New("malformed proposal document")
)

func IsErrNotFound(err error) bool   { return errors.Is(err, ErrNotFound) }
func IsErrBadRequest(err error) bool { return errors.Is(err, ErrBadRequest) }
