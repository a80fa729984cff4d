package pipeline

import (
	"errors"
	"fmt"
)

var (
	ErrResolution = errors.New("artifact resolution failed")
	ErrParse      = errors.New("input parse failed")
	ErrPublish    = errors.New("artifact publish failed")
	ErrConfig     = errors.New("invalid configuration")
)

// Error is a fatal run failure. Both Kind and the cause are reachable with
// errors.Is and errors.As.
type Error struct {
	Kind error
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	s := e.Kind.Error()
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func fail(kind, err error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}

// ConfigError marks err as a configuration failure.
func ConfigError(err error) error {
	var pe *Error
	if errors.As(err, &pe) {
		return err
	}
	return &Error{Kind: ErrConfig, Err: err}
}
