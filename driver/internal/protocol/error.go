// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"

	"github.com/helixdb/go-helix/driver/internal/protocol/encoding"
)

const (
	sqlStateSize = 5
	// bytes of fix length fields mod 8
	// - errorCode = 4, errorPosition = 4, errortextLength = 4, errorLevel = 1, sqlState = 5 --> 18 bytes
	// - 18 mod 8 = 2
	fixLength = 2
)

// ErrorLevel is the severity of a server reported error.
type ErrorLevel int8

func (e ErrorLevel) String() string {
	switch e {
	case 0:
		return "Warning"
	case 1:
		return "Error"
	case 2:
		return "Fatal Error"
	default:
		return ""
	}
}

// Error levels.
const (
	ErrWarning    ErrorLevel = 0
	ErrError      ErrorLevel = 1
	ErrFatalError ErrorLevel = 2
)

// ServerError is an error reported by the server within a reply.
type ServerError struct {
	errorCode       int32
	errorPosition   int32
	errorTextLength int32
	errorLevel      ErrorLevel
	sqlState        [sqlStateSize]byte
	stmtNo          int
	errorText       []byte
}

// Code returns the server error code.
func (e *ServerError) Code() int { return int(e.errorCode) }

// Position returns the start position of the erroneous part of the statement (if available).
func (e *ServerError) Position() int { return int(e.errorPosition) }

// Level returns the error level of the server error.
func (e *ServerError) Level() ErrorLevel { return e.errorLevel }

// Text returns the description of the server error.
func (e *ServerError) Text() string { return string(e.errorText) }

// SQLState returns the SQL state of the server error.
func (e *ServerError) SQLState() string { return string(e.sqlState[:]) }

// StmtNo returns the failed statement number for batch executions.
func (e *ServerError) StmtNo() int { return e.stmtNo }

// IsWarning returns true if the server error is a warning, false otherwise.
func (e *ServerError) IsWarning() bool { return e.errorLevel == ErrWarning }

// IsFatal returns true if the server error is a fatal error, false otherwise.
func (e *ServerError) IsFatal() bool { return e.errorLevel == ErrFatalError }

func (e *ServerError) Error() string {
	if e.stmtNo != -1 {
		return fmt.Sprintf("SQL %s %d - %s (statement no: %d)", e.errorLevel, e.errorCode, e.errorText, e.stmtNo)
	}
	return fmt.Sprintf("SQL %s %d - %s", e.errorLevel, e.errorCode, e.errorText)
}

// ServerErrors is the error part of a server reply. A batch execution
// can report more than one error.
type ServerErrors struct {
	errs []*ServerError
}

func (e *ServerErrors) String() string {
	return fmt.Sprintf("errors %v", e.errs)
}

func (e *ServerErrors) Error() string {
	if len(e.errs) == 1 {
		return e.errs[0].Error()
	}
	strs := make([]string, len(e.errs))
	for i, err := range e.errs {
		strs[i] = err.Error()
	}
	return fmt.Sprintf("%v", strs)
}

// Unwrap supports errors.Is and errors.As on the individual server errors.
func (e *ServerErrors) Unwrap() []error {
	errs := make([]error, len(e.errs))
	for i, err := range e.errs {
		errs[i] = err
	}
	return errs
}

// Errors returns the list of server errors.
func (e *ServerErrors) Errors() []*ServerError { return e.errs }

func (e *ServerErrors) isWarnings() bool {
	for _, err := range e.errs {
		if !err.IsWarning() {
			return false
		}
	}
	return true
}

func (e *ServerErrors) setStmtNo(idx, no int) {
	if idx >= 0 && idx < len(e.errs) {
		e.errs[idx].stmtNo = no
	}
}

func (e *ServerErrors) reset(numArg int) {
	if e.errs == nil || numArg > cap(e.errs) {
		e.errs = make([]*ServerError, numArg)
	} else {
		e.errs = e.errs[:numArg]
	}
	for i, err := range e.errs {
		if err == nil {
			e.errs[i] = &ServerError{}
		}
	}
}

func (e *ServerErrors) decode(dec *encoding.Decoder, ph *partHeader) error {
	numArg := ph.numArg()
	e.reset(numArg)

	for i := 0; i < numArg; i++ {
		err := e.errs[i]
		err.stmtNo = -1
		err.errorCode = dec.Int32()
		err.errorPosition = dec.Int32()
		err.errorTextLength = dec.Int32()
		err.errorLevel = ErrorLevel(dec.Int8())
		dec.Bytes(err.sqlState[:])

		// read error text as raw bytes as some errors return invalid CESU-8 characters
		err.errorText = sizeBuffer(err.errorText, int(err.errorTextLength))
		dec.Bytes(err.errorText)

		if numArg == 1 {
			// Error text is not padded, if only one error is in the part.
			break
		}

		pad := padBytes(fixLength + int(err.errorTextLength))
		if pad != 0 {
			dec.Skip(pad)
		}
	}
	return dec.Error()
}
