// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

// Package dial provides the database connection dialer.
package dial

import (
	"context"
	"net"
	"time"
)

// DialerOptions holds the dialer connection parameters.
type DialerOptions struct {
	Timeout, TCPKeepAlive time.Duration
}

// The Dialer interface needs to be implemented by custom dialers. A Dialer
// for providing a custom driver connection to the database can be set via
// the connector.
type Dialer interface {
	DialContext(ctx context.Context, addr string, options DialerOptions) (net.Conn, error)
}

// DefaultDialer is the default driver Dialer implementation.
var DefaultDialer Dialer = &dialer{}

type dialer struct{}

func (d *dialer) DialContext(ctx context.Context, addr string, options DialerOptions) (net.Conn, error) {
	dialer := net.Dialer{Timeout: options.Timeout, KeepAlive: options.TCPKeepAlive}
	return dialer.DialContext(ctx, "tcp", addr)
}
