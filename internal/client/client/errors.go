package client

import (
	"errors"
	"fmt"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrDuplicate    = errors.New("already exists")
)

// ErrorKind classifies a failed remote call for replay decisions.
type ErrorKind int

const (
	KindOther ErrorKind = iota
	KindDuplicate
	KindUnauthenticated
)

func (k ErrorKind) String() string {
	switch k {
	case KindDuplicate:
		return "duplicate"
	case KindUnauthenticated:
		return "unauthenticated"
	default:
		return "other"
	}
}

// RemoteError is returned by every failed Client call.
type RemoteError struct {
	Kind ErrorKind
	Err  error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote %s: %v", e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Classify returns the kind carried by err. Errors that did not come from
// the gateway are KindOther.
func Classify(err error) ErrorKind {
	var re *RemoteError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindOther
}
