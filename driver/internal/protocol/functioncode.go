// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import "fmt"

// FunctionCode represents the function code of a reply segment.
type FunctionCode int16

// FunctionCode constants.
const (
	FcNil             FunctionCode = 0
	FcDDL             FunctionCode = 1
	FcInsert          FunctionCode = 2
	FcUpdate          FunctionCode = 3
	FcDelete          FunctionCode = 4
	FcSelect          FunctionCode = 5
	FcSelectForUpdate FunctionCode = 6
	FcDBProcedureCall FunctionCode = 8
	FcConnect         FunctionCode = 14
	FcCommit          FunctionCode = 15
	FcRollback        FunctionCode = 16
	FcFetch           FunctionCode = 18
	FcDisconnect      FunctionCode = 19
	FcCloseCursor     FunctionCode = 20
	FcDropStatement   FunctionCode = 21
	FcXAPrepare       FunctionCode = 31
	FcXACommit        FunctionCode = 32
	FcXARollback      FunctionCode = 33
	FcXARecover       FunctionCode = 34
)

var functionCodeText = map[FunctionCode]string{
	FcNil:             "nil",
	FcDDL:             "ddl",
	FcInsert:          "insert",
	FcUpdate:          "update",
	FcDelete:          "delete",
	FcSelect:          "select",
	FcSelectForUpdate: "selectForUpdate",
	FcDBProcedureCall: "dbProcedureCall",
	FcConnect:         "connect",
	FcCommit:          "commit",
	FcRollback:        "rollback",
	FcFetch:           "fetch",
	FcDisconnect:      "disconnect",
	FcCloseCursor:     "closeCursor",
	FcDropStatement:   "dropStatement",
	FcXAPrepare:       "xaPrepare",
	FcXACommit:        "xaCommit",
	FcXARollback:      "xaRollback",
	FcXARecover:       "xaRecover",
}

func (fc FunctionCode) String() string {
	if s, ok := functionCodeText[fc]; ok {
		return s
	}
	return fmt.Sprintf("functionCode(%d)", int16(fc))
}

// IsProcedureCall returns true if the function code identifies a stored procedure call.
func (fc FunctionCode) IsProcedureCall() bool { return fc == FcDBProcedureCall }
