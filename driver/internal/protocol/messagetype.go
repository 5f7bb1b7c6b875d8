// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import "fmt"

// MessageType represents the message type of a request segment.
type MessageType int8

// MessageType constants.
const (
	MtNil             MessageType = 0
	MtExecuteDirect   MessageType = 2
	MtPrepare         MessageType = 3
	MtExecute         MessageType = 13
	MtReadLob         MessageType = 16
	MtAuthenticate    MessageType = 65
	MtConnect         MessageType = 66
	MtCommit          MessageType = 67
	MtRollback        MessageType = 68
	MtCloseResultset  MessageType = 69
	MtDropStatementID MessageType = 70
	MtFetchNext       MessageType = 71
	MtCancel          MessageType = 72
	MtDisconnect      MessageType = 77
	MtXAPrepare       MessageType = 80
	MtXACommit        MessageType = 81
	MtXARollback      MessageType = 82
	MtXARecover       MessageType = 83
)

var messageTypeText = map[MessageType]string{
	MtNil:             "nil",
	MtExecuteDirect:   "executeDirect",
	MtPrepare:         "prepare",
	MtExecute:         "execute",
	MtReadLob:         "readLob",
	MtAuthenticate:    "authenticate",
	MtConnect:         "connect",
	MtCommit:          "commit",
	MtRollback:        "rollback",
	MtCloseResultset:  "closeResultset",
	MtDropStatementID: "dropStatementID",
	MtFetchNext:       "fetchNext",
	MtCancel:          "cancel",
	MtDisconnect:      "disconnect",
	MtXAPrepare:       "xaPrepare",
	MtXACommit:        "xaCommit",
	MtXARollback:      "xaRollback",
	MtXARecover:       "xaRecover",
}

func (mt MessageType) String() string {
	if s, ok := messageTypeText[mt]; ok {
		return s
	}
	return fmt.Sprintf("messageType(%d)", int8(mt))
}

// ClientInfoSupported returns true if the message type supports client info parts.
func (mt MessageType) ClientInfoSupported() bool {
	switch mt {
	case MtConnect, MtPrepare, MtExecuteDirect, MtExecute:
		return true
	default:
		return false
	}
}
