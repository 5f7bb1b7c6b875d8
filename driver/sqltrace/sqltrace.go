// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

// Package sqltrace implements tracing of database messages.
package sqltrace

import (
	"log"
	"os"
	"sync/atomic"

	"github.com/helixdb/go-helix/driver/internal/protocol"
)

var (
	on     atomic.Bool
	logger = log.New(os.Stderr, "helix.sql ", log.Ldate|log.Ltime)
)

// On returns true if tracing is enabled, false otherwise.
func On() bool { return on.Load() }

// SetOn enables / disables the sql trace and the underlying protocol
// message trace.
func SetOn(b bool) {
	on.Store(b)
	protocol.SetTrace(b)
}

// Trace writes a trace message if tracing is enabled.
func Trace(v ...any) {
	if on.Load() {
		logger.Print(v...)
	}
}

// Tracef writes a formatted trace message if tracing is enabled.
func Tracef(format string, v ...any) {
	if on.Load() {
		logger.Printf(format, v...)
	}
}
