package fitty

import (
	"errors"
	"fmt"
)

var (
	// ErrZeroIntegral reports a fit range holding no data.
	ErrZeroIntegral = errors.New("fitty: zero integral in fit range")
	// ErrNotImproved reports a fit whose chi-square got worse and was rolled back.
	ErrNotImproved = errors.New("fitty: fit did not improve chi-square")
	// ErrNoEntry reports a histogram with neither a matching nor a default entry.
	ErrNoEntry = errors.New("fitty: no fit entry")
	// ErrNoMinimizer is returned when fitting without a configured minimizer.
	ErrNoMinimizer = errors.New("fitty: minimizer not configured")
	// ErrNoSource is returned by InitFromFile when neither file is usable
	// under the priority mode.
	ErrNoSource = errors.New("fitty: no usable parameter source")
)

// FormatError describes a malformed fit entry line.
type FormatError struct {
	Line   string
	Token  string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := "fitty: format error: " + e.Reason
	if e.Token != "" {
		msg += fmt.Sprintf(" (token %q)", e.Token)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg + fmt.Sprintf(" in line %q", e.Line)
}

func (e *FormatError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IndexError reports access to a parameter or function component that does
// not exist. Name is set for lookups by name.
type IndexError struct {
	Index int
	Name  string
	Count int
}

func (e *IndexError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Name != "" {
		return fmt.Sprintf("fitty: no parameter named %q", e.Name)
	}
	return fmt.Sprintf("fitty: index %d out of range [0, %d)", e.Index, e.Count)
}

// IOError wraps a failure to read or write a parameter file.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("fitty: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func formatError(line, token, reason string) error {
	return &FormatError{Line: line, Token: token, Reason: reason}
}

func wrapFormatError(line, token, reason string, err error) error {
	if err == nil {
		return nil
	}
	var formatErr *FormatError
	if errors.As(err, &formatErr) {
		if formatErr.Line == "" {
			formatErr.Line = line
		}
		return formatErr
	}
	return &FormatError{Line: line, Token: token, Reason: reason, Err: err}
}
