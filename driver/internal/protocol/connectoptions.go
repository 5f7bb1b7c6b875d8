// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"

	"github.com/helixdb/go-helix/driver/internal/protocol/encoding"
)

// ConnectOption represents a connect option.
type ConnectOption int8

// ConnectOption constants.
const (
	CoClientVersion            ConnectOption = 1
	CoClientType               ConnectOption = 2
	CoClientLocale             ConnectOption = 3
	CoClientApplicationProgram ConnectOption = 4
	CoDataFormatVersion        ConnectOption = 12
	CoCompleteArrayExecution   ConnectOption = 13
	CoSelectForUpdateSupported ConnectOption = 14
	CoConnectionID             ConnectOption = 20
	CoDatabaseName             ConnectOption = 21
	CoFullVersionString        ConnectOption = 22
)

var connectOptionText = map[ConnectOption]string{
	CoClientVersion:            "clientVersion",
	CoClientType:               "clientType",
	CoClientLocale:             "clientLocale",
	CoClientApplicationProgram: "clientApplicationProgram",
	CoDataFormatVersion:        "dataFormatVersion",
	CoCompleteArrayExecution:   "completeArrayExecution",
	CoSelectForUpdateSupported: "selectForUpdateSupported",
	CoConnectionID:             "connectionID",
	CoDatabaseName:             "databaseName",
	CoFullVersionString:        "fullVersionString",
}

func (k ConnectOption) String() string {
	if s, ok := connectOptionText[k]; ok {
		return s
	}
	return fmt.Sprintf("ConnectOption(%d)", int(k))
}

// ConnectOptions represents the set of connect options.
type ConnectOptions Options[ConnectOption]

func (ops ConnectOptions) String() string { return Options[ConnectOption](ops).String() }
func (ops ConnectOptions) size() int      { return Options[ConnectOption](ops).size() }
func (ops ConnectOptions) numArg() int    { return Options[ConnectOption](ops).numArg() }

func (ops *ConnectOptions) decode(dec *encoding.Decoder, ph *partHeader) error {
	return (*Options[ConnectOption])(ops).decode(dec, ph)
}
func (ops ConnectOptions) encode(enc *encoding.Encoder) error {
	return Options[ConnectOption](ops).encode(enc)
}

// ConnectionID returns the connection id of the session as assigned by the server.
func (ops ConnectOptions) ConnectionID() (int64, bool) {
	switch v := ops[CoConnectionID].(type) {
	case int32:
		return int64(v), true
	case int64:
		return v, true
	default:
		return 0, false
	}
}

// DatabaseName returns the database name reported by the server.
func (ops ConnectOptions) DatabaseName() (string, bool) {
	v, ok := ops[CoDatabaseName].(string)
	return v, ok
}

// FullVersionString returns the server version string.
func (ops ConnectOptions) FullVersionString() (string, bool) {
	v, ok := ops[CoFullVersionString].(string)
	return v, ok
}
