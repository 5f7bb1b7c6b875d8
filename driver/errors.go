// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"context"
	"errors"
	"fmt"

	"github.com/helixdb/go-helix/driver/internal/protocol"
)

// ErrorKind classifies driver errors.
type ErrorKind int

// ErrorKind constants.
const (
	EkConnection      ErrorKind = iota + 1 // network level failure, connection unusable
	EkAuthentication                       // database rejected the credentials
	EkProtocol                             // malformed reply or protocol violation, connection unusable
	EkRequest                              // database rejected the request, connection stays usable
	EkServerFault                          // fatal server error, connection unusable
	EkTypeMismatch                         // Go value not convertible to the database type
	EkValueOutOfRange                      // value exceeds the range of the database type
	EkCancelled                            // operation cancelled
	EkUnsupportedType                      // database type not supported by the driver
)

var errorKindText = map[ErrorKind]string{
	EkConnection:      "connection error",
	EkAuthentication:  "authentication failed",
	EkProtocol:        "protocol error",
	EkRequest:         "request error",
	EkServerFault:     "server fault",
	EkTypeMismatch:    "type mismatch",
	EkValueOutOfRange: "value out of range",
	EkCancelled:       "cancelled",
	EkUnsupportedType: "unsupported type",
}

func (k ErrorKind) String() string {
	if s, ok := errorKindText[k]; ok {
		return s
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Fatal returns true if the error kind renders the connection unusable.
func (k ErrorKind) Fatal() bool {
	return k == EkConnection || k == EkProtocol || k == EkServerFault
}

// A DriverError wraps an error with its error kind.
type DriverError struct {
	kind ErrorKind
	err  error
}

func (e *DriverError) Error() string { return fmt.Sprintf("%s: %s", e.kind, e.err) }

// Unwrap returns the nested error.
func (e *DriverError) Unwrap() error { return e.err }

// Kind returns the error kind.
func (e *DriverError) Kind() ErrorKind { return e.kind }

// Fatal returns true if the connection is unusable after the error.
func (e *DriverError) Fatal() bool { return e.kind.Fatal() }

func newDriverError(kind ErrorKind, err error) *DriverError {
	return &DriverError{kind: kind, err: err}
}

// ErrKind returns the error kind of err and true if err is a driver error.
func ErrKind(err error) (ErrorKind, bool) {
	var driverError *DriverError
	if errors.As(err, &driverError) {
		return driverError.Kind(), true
	}
	return 0, false
}

// IsFatal returns true if the connection err occurred on is unusable.
func IsFatal(err error) bool {
	kind, ok := ErrKind(err)
	return ok && kind.Fatal()
}

// server error code reported for a statement cancelled on client request.
const serverCodeCancelled = 139

func classifyServerError(err *protocol.ServerErrors) ErrorKind {
	for _, serverError := range err.Errors() {
		switch {
		case serverError.Code() == serverCodeCancelled:
			return EkCancelled
		case serverError.IsFatal():
			return EkServerFault
		}
	}
	return EkRequest
}

// classifyError maps protocol and connection errors to driver errors.
func classifyError(err error) error {
	if err == nil {
		return nil
	}

	var driverError *DriverError
	if errors.As(err, &driverError) { // already classified
		return err
	}

	var serverErrors *protocol.ServerErrors
	if errors.As(err, &serverErrors) {
		return newDriverError(classifyServerError(serverErrors), err)
	}

	switch {
	case errors.Is(err, protocol.ErrMalformedReply):
		return newDriverError(EkProtocol, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return newDriverError(EkCancelled, err)
	case errors.Is(err, protocol.ErrIntegerOutOfRange),
		errors.Is(err, protocol.ErrFloatOutOfRange),
		errors.Is(err, protocol.ErrDecimalOutOfRange),
		errors.Is(err, protocol.ErrUint64OutOfRange):
		return newDriverError(EkValueOutOfRange, err)
	}

	var convertError *protocol.ConvertError
	if errors.As(err, &convertError) {
		return newDriverError(EkTypeMismatch, err)
	}
	var unsupportedTypeError *protocol.UnsupportedTypeError
	if errors.As(err, &unsupportedTypeError) {
		return newDriverError(EkUnsupportedType, err)
	}

	// remaining errors are io level errors
	return newDriverError(EkConnection, err)
}
