// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import "fmt"

// PartKind represents the part kind of a protocol part.
type PartKind int8

// PartKind constants.
const (
	PkError             PartKind = 1
	PkCommand           PartKind = 3
	PkResultset         PartKind = 5
	PkResultMetadata    PartKind = 6
	PkParameters        PartKind = 32
	PkAuthentication    PartKind = 33
	PkSessionVariables  PartKind = 34
	PkStatementID       PartKind = 10
	PkRowsAffected      PartKind = 12
	PkResultsetID       PartKind = 13
	PkTopologyInfo      PartKind = 15
	PkReadLobRequest    PartKind = 17
	PkReadLobReply      PartKind = 18
	PkParameterMetadata PartKind = 47
	PkOutputParameters  PartKind = 48
	PkConnectOptions    PartKind = 42
	PkTransactionFlags  PartKind = 44
	PkFetchSize         PartKind = 45
	PkClientID          PartKind = 50
	PkClientInfo        PartKind = 57
	PkXatID             PartKind = 60
)

var partKindText = map[PartKind]string{
	PkError:             "error",
	PkCommand:           "command",
	PkResultset:         "resultset",
	PkResultMetadata:    "resultMetadata",
	PkParameters:        "parameters",
	PkAuthentication:    "authentication",
	PkSessionVariables:  "sessionVariables",
	PkStatementID:       "statementID",
	PkRowsAffected:      "rowsAffected",
	PkResultsetID:       "resultsetID",
	PkTopologyInfo:      "topologyInfo",
	PkReadLobRequest:    "readLobRequest",
	PkReadLobReply:      "readLobReply",
	PkParameterMetadata: "parameterMetadata",
	PkOutputParameters:  "outputParameters",
	PkConnectOptions:    "connectOptions",
	PkTransactionFlags:  "transactionFlags",
	PkFetchSize:         "fetchSize",
	PkClientID:          "clientID",
	PkClientInfo:        "clientInfo",
	PkXatID:             "xatID",
}

func (pk PartKind) String() string {
	if s, ok := partKindText[pk]; ok {
		return s
	}
	return fmt.Sprintf("partKind(%d)", int8(pk))
}
