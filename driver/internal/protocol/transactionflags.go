// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"

	"github.com/helixdb/go-helix/driver/internal/protocol/encoding"
)

type transactionFlagType int8

const (
	tfRolledback                     transactionFlagType = 0
	tfCommited                       transactionFlagType = 1
	tfNewIsolationLevel              transactionFlagType = 2
	tfWriteTransactionStarted        transactionFlagType = 4
	tfNoWriteTransactionStarted      transactionFlagType = 5
	tfSessionClosingTransactionError transactionFlagType = 6
	tfReadOnlyMode                   transactionFlagType = 8
)

var transactionFlagTypeText = map[transactionFlagType]string{
	tfRolledback:                     "rolledback",
	tfCommited:                       "committed",
	tfNewIsolationLevel:              "newIsolationLevel",
	tfWriteTransactionStarted:        "writeTransactionStarted",
	tfNoWriteTransactionStarted:      "noWriteTransactionStarted",
	tfSessionClosingTransactionError: "sessionClosingTransactionError",
	tfReadOnlyMode:                   "readOnlyMode",
}

func (k transactionFlagType) String() string {
	if s, ok := transactionFlagTypeText[k]; ok {
		return s
	}
	return fmt.Sprintf("transactionFlagType(%d)", int(k))
}

// transaction flags reported by the server after each request.
type transactionFlags Options[transactionFlagType]

func (ops transactionFlags) String() string { return Options[transactionFlagType](ops).String() }

func (ops *transactionFlags) decode(dec *encoding.Decoder, ph *partHeader) error {
	return (*Options[transactionFlagType])(ops).decode(dec, ph)
}

func (ops transactionFlags) boolFlag(k transactionFlagType) bool {
	v, ok := ops[k].(bool)
	return ok && v
}

func (ops transactionFlags) writeTransactionStarted() bool {
	return ops.boolFlag(tfWriteTransactionStarted)
}
func (ops transactionFlags) rolledback() bool { return ops.boolFlag(tfRolledback) }
func (ops transactionFlags) committed() bool  { return ops.boolFlag(tfCommited) }
func (ops transactionFlags) sessionClosingTransactionError() bool {
	return ops.boolFlag(tfSessionClosingTransactionError)
}
