package fs

import (
	"errors"
	iofs "io/fs"
)

// Outcome is the kind of result of a mutating operation.
type Outcome int

const (
	Success Outcome = iota
	NotFound
	Exists
	Permission
	OtherIO
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case NotFound:
		return "not_found"
	case Exists:
		return "exists"
	case Permission:
		return "permission"
	default:
		return "other_io"
	}
}

var ErrInvalidName = errors.New("invalid name")

// OpError records a failed operation together with its outcome.
type OpError struct {
	Op      string
	Path    string
	Outcome Outcome
	Err     error
}

func (e *OpError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *OpError) Unwrap() error { return e.Err }

// OutcomeOf maps an error returned by this package, or any os error, to an Outcome.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return Success
	}
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Outcome
	}
	return classify(err)
}

func classify(err error) Outcome {
	switch {
	case err == nil:
		return Success
	case errors.Is(err, iofs.ErrNotExist):
		return NotFound
	case errors.Is(err, iofs.ErrExist):
		return Exists
	case errors.Is(err, iofs.ErrPermission):
		return Permission
	default:
		return OtherIO
	}
}

func opError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Path: path, Outcome: classify(err), Err: err}
}
