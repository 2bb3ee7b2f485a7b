// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package markduplicates

import "fmt"

// FailureKind classifies the errors that abort a run.
type FailureKind int

const (
	// ErrUnsorted means the input is not in ascending (reference, position)
	// order.
	ErrUnsorted FailureKind = iota + 1
	// ErrRegistryInconsistent means a read name tried a transition that the
	// registry does not allow, e.g., a paired name reported a third time.
	ErrRegistryInconsistent
	// ErrResidualRegistry means registry entries were left over after the
	// second pass.
	ErrResidualRegistry
	// ErrIO is a failure reading the input or writing an output.
	ErrIO
)

func (k FailureKind) String() string {
	switch k {
	case ErrUnsorted:
		return "input not coordinate sorted"
	case ErrRegistryInconsistent:
		return "duplicate registry inconsistent"
	case ErrResidualRegistry:
		return "duplicate registry not empty after replay"
	case ErrIO:
		return "I/O error"
	default:
		return fmt.Sprintf("FailureKind(%d)", int(k))
	}
}

// Error is returned by Mark. Name is the offending read name, if any.
type Error struct {
	Kind FailureKind
	Name string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Name != "" {
		msg += ": read " + e.Name
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the FailureKind of err. It returns false if err was not
// produced by this package.
func KindOf(err error) (FailureKind, bool) {
	if e, ok := err.(*Error); ok {
		return e.Kind, true
	}
	return 0, false
}

func ioError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*Error); ok {
		return err
	}
	return &Error{Kind: ErrIO, Err: err}
}
