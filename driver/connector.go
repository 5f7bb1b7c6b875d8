// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/helixdb/go-helix/driver/dial"
	"github.com/helixdb/go-helix/driver/internal/dsn"
	"github.com/helixdb/go-helix/driver/internal/protocol"
)

/*
A Connector holds the connection parameters of a database. It is safe for
concurrent use and serves as connection factory for Connect and for the
connection pool.
*/
type Connector struct {
	host               string
	username, password string

	locale          string
	applicationName string
	fetchSize       int
	timeout         time.Duration
	pingInterval    time.Duration
	tcpKeepAlive    time.Duration

	tlsConfig *tls.Config
	dialer    dial.Dialer

	clientInfo map[string]string

	metrics *metrics
}

// NewConnector returns a connector with default values.
func NewConnector(host, username, password string) *Connector {
	return &Connector{
		host:            host,
		username:        username,
		password:        password,
		applicationName: defaultApplicationName,
		fetchSize:       defaultFetchSize,
		dialer:          dial.DefaultDialer,
		metrics:         newMetrics(),
	}
}

// NewDSNConnector returns a connector for a data source name.
func NewDSNConnector(dsnStr string) (*Connector, error) {
	d, err := dsn.Parse(dsnStr)
	if err != nil {
		return nil, err
	}

	c := NewConnector(d.Host, d.Username, d.Password)
	c.locale = d.Locale
	if d.FetchSize > 0 {
		c.fetchSize = d.FetchSize
	}
	c.timeout = d.Timeout
	c.pingInterval = d.PingInterval

	if d.TLSServerName != "" || d.TLSInsecureSkip || len(d.TLSRootCAFiles) != 0 {
		tlsConfig := &tls.Config{
			ServerName:         d.TLSServerName,
			InsecureSkipVerify: d.TLSInsecureSkip,
		}
		for _, fn := range d.TLSRootCAFiles {
			rootPEM, err := os.ReadFile(fn)
			if err != nil {
				return nil, err
			}
			if tlsConfig.RootCAs == nil {
				tlsConfig.RootCAs = x509.NewCertPool()
			}
			if ok := tlsConfig.RootCAs.AppendCertsFromPEM(rootPEM); !ok {
				return nil, fmt.Errorf("failed to parse root certificate - filename: %s", fn)
			}
		}
		c.tlsConfig = tlsConfig
	}
	return c, nil
}

// Host returns the host of the connector.
func (c *Connector) Host() string { return c.host }

// Username returns the username of the connector.
func (c *Connector) Username() string { return c.username }

// Locale returns the client locale of the connector.
func (c *Connector) Locale() string { return c.locale }

// SetLocale sets the client locale of the connector.
func (c *Connector) SetLocale(locale string) { c.locale = locale }

// ApplicationName returns the application name of the connector.
func (c *Connector) ApplicationName() string { return c.applicationName }

// SetApplicationName sets the application name of the connector.
func (c *Connector) SetApplicationName(name string) { c.applicationName = name }

// FetchSize returns the fetch size of the connector.
func (c *Connector) FetchSize() int { return c.fetchSize }

// SetFetchSize sets the fetch size of the connector.
func (c *Connector) SetFetchSize(fetchSize int) error {
	if fetchSize < 1 {
		return fmt.Errorf("invalid fetch size %d", fetchSize)
	}
	c.fetchSize = fetchSize
	return nil
}

// Timeout returns the connection timeout of the connector.
func (c *Connector) Timeout() time.Duration { return c.timeout }

// SetTimeout sets the connection timeout of the connector.
func (c *Connector) SetTimeout(timeout time.Duration) { c.timeout = timeout }

// PingInterval returns the pool connection ping interval of the connector.
func (c *Connector) PingInterval() time.Duration { return c.pingInterval }

// SetPingInterval sets the pool connection ping interval of the connector.
func (c *Connector) SetPingInterval(d time.Duration) { c.pingInterval = d }

// TCPKeepAlive returns the tcp keep alive interval of the connector.
func (c *Connector) TCPKeepAlive() time.Duration { return c.tcpKeepAlive }

// SetTCPKeepAlive sets the tcp keep alive interval of the connector.
func (c *Connector) SetTCPKeepAlive(d time.Duration) { c.tcpKeepAlive = d }

// TLSConfig returns the TLS configuration of the connector.
func (c *Connector) TLSConfig() *tls.Config { return c.tlsConfig.Clone() }

// SetTLSConfig sets the TLS configuration of the connector.
func (c *Connector) SetTLSConfig(tlsConfig *tls.Config) { c.tlsConfig = tlsConfig.Clone() }

// SetDialer sets a custom dialer.
func (c *Connector) SetDialer(dialer dial.Dialer) {
	if dialer != nil {
		c.dialer = dialer
	}
}

// SetClientInfo sets session variables sent to the server on connect.
func (c *Connector) SetClientInfo(ci map[string]string) {
	c.clientInfo = make(map[string]string, len(ci))
	for k, v := range ci {
		c.clientInfo[k] = v
	}
}

func (c *Connector) sessionConfig() *protocol.SessionConfig {
	return &protocol.SessionConfig{
		Username:        c.username,
		Password:        c.password,
		Locale:          c.locale,
		ApplicationName: c.applicationName,
		FetchSize:       int32(c.fetchSize),
		Timeout:         c.timeout,
		ClientInfo:      c.clientInfo,
	}
}

// Connect opens a database connection.
func (c *Connector) Connect(ctx context.Context) (*Conn, error) {
	netConn, err := c.dialer.DialContext(ctx, c.host, dial.DialerOptions{Timeout: c.timeout, TCPKeepAlive: c.tcpKeepAlive})
	if err != nil {
		return nil, newDriverError(EkConnection, err)
	}

	if c.tlsConfig != nil {
		tlsConn := tls.Client(netConn, c.tlsConfig)
		if err := tlsConn.HandshakeContext(ctx); err != nil {
			netConn.Close()
			return nil, newDriverError(EkConnection, err)
		}
		netConn = tlsConn
	}

	session, err := protocol.NewSession(ctx, netConn, c.sessionConfig())
	if err != nil {
		var serverErrors *protocol.ServerErrors
		if errors.As(err, &serverErrors) {
			return nil, newDriverError(EkAuthentication, err)
		}
		return nil, classifyError(err)
	}

	c.metrics.opened.Add(1)
	return &Conn{session: session, metrics: c.metrics}, nil
}
