// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"

	"github.com/helixdb/go-helix/driver/internal/protocol/encoding"
)

// parts are padded to 8 byte alignment.
const padding = 8

func padBytes(size int) int { return (padding - size%padding) % padding }

type part interface {
	fmt.Stringer
	kind() PartKind
}

// part kind methods
func (*ServerErrors) kind() PartKind        { return PkError }
func (command) kind() PartKind              { return PkCommand }
func (*resultset) kind() PartKind           { return PkResultset }
func (*resultMetadata) kind() PartKind      { return PkResultMetadata }
func (statementID) kind() PartKind          { return PkStatementID }
func (rowsAffected) kind() PartKind         { return PkRowsAffected }
func (resultsetID) kind() PartKind          { return PkResultsetID }
func (topologyInformation) kind() PartKind  { return PkTopologyInfo }
func (*readLobRequest) kind() PartKind      { return PkReadLobRequest }
func (*readLobReply) kind() PartKind        { return PkReadLobReply }
func (*inputParameters) kind() PartKind     { return PkParameters }
func (*outputParameters) kind() PartKind    { return PkOutputParameters }
func (authInitReq) kind() PartKind          { return PkAuthentication }
func (*authInitRep) kind() PartKind         { return PkAuthentication }
func (authFinalReq) kind() PartKind         { return PkAuthentication }
func (*authFinalRep) kind() PartKind        { return PkAuthentication }
func (ConnectOptions) kind() PartKind       { return PkConnectOptions }
func (transactionFlags) kind() PartKind     { return PkTransactionFlags }
func (fetchsize) kind() PartKind            { return PkFetchSize }
func (*parameterMetadata) kind() PartKind   { return PkParameterMetadata }
func (clientID) kind() PartKind             { return PkClientID }
func (clientInfo) kind() PartKind           { return PkClientInfo }
func (*xatID) kind() PartKind               { return PkXatID }
func (xatIDs) kind() PartKind               { return PkXatID }

// partWriter is the interface of a part which can be written to the server.
type partWriter interface {
	part
	numArg() int
	size() int
	encode(enc *encoding.Encoder) error
}

// numArg methods (result == 1)
func (command) numArg() int         { return 1 }
func (statementID) numArg() int     { return 1 }
func (resultsetID) numArg() int     { return 1 }
func (*readLobRequest) numArg() int { return 1 }
func (authInitReq) numArg() int     { return 1 }
func (authFinalReq) numArg() int    { return 1 }
func (fetchsize) numArg() int       { return 1 }
func (clientID) numArg() int        { return 1 }
func (*xatID) numArg() int          { return 1 }

// size methods (fixed size)
const (
	statementIDSize    = 8
	resultsetIDSize    = 8
	fetchsizeSize      = 4
	readLobRequestSize = 24
)

func (statementID) size() int     { return statementIDSize }
func (resultsetID) size() int     { return resultsetIDSize }
func (fetchsize) size() int       { return fetchsizeSize }
func (*readLobRequest) size() int { return readLobRequestSize }

// check if part types implement partWriter interface
var (
	_ partWriter = (*command)(nil)
	_ partWriter = (*statementID)(nil)
	_ partWriter = (*resultsetID)(nil)
	_ partWriter = (*readLobRequest)(nil)
	_ partWriter = (*inputParameters)(nil)
	_ partWriter = (*authInitReq)(nil)
	_ partWriter = (*authFinalReq)(nil)
	_ partWriter = (*ConnectOptions)(nil)
	_ partWriter = (*fetchsize)(nil)
	_ partWriter = (*clientID)(nil)
	_ partWriter = (*clientInfo)(nil)
	_ partWriter = (*xatID)(nil)
)

// partReader is the interface of a part which can be read from the server.
type partReader interface {
	part
	decode(dec *encoding.Decoder, ph *partHeader) error
}

// check if part types implement partReader interface
var (
	_ partReader = (*ServerErrors)(nil)
	_ partReader = (*command)(nil)
	_ partReader = (*resultset)(nil)
	_ partReader = (*resultMetadata)(nil)
	_ partReader = (*statementID)(nil)
	_ partReader = (*rowsAffected)(nil)
	_ partReader = (*resultsetID)(nil)
	_ partReader = (*topologyInformation)(nil)
	_ partReader = (*readLobReply)(nil)
	_ partReader = (*outputParameters)(nil)
	_ partReader = (*authInitRep)(nil)
	_ partReader = (*authFinalRep)(nil)
	_ partReader = (*ConnectOptions)(nil)
	_ partReader = (*transactionFlags)(nil)
	_ partReader = (*parameterMetadata)(nil)
	_ partReader = (*clientID)(nil)
	_ partReader = (*clientInfo)(nil)
	_ partReader = (*xatIDs)(nil)
)
