// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrPoolClosed is returned by pool operations on a closed pool.
var ErrPoolClosed = errors.New("pool closed")

/*
A Pool is a connection pool. Get returns an idle connection or opens a new
one; the number of concurrently open connections is limited to maxOpen.
Put returns a connection to the pool; broken connections are discarded.
*/
type Pool struct {
	connector *Connector
	sem       chan struct{}
	maxIdle   int

	mu     sync.Mutex
	idle   []*poolConn
	closed bool
}

type poolConn struct {
	conn     *Conn
	lastUsed time.Time
}

// NewPool creates a connection pool with at most maxOpen concurrently
// open and maxIdle pooled idle connections.
func NewPool(connector *Connector, maxOpen, maxIdle int) *Pool {
	if maxOpen < 1 {
		maxOpen = 1
	}
	if maxIdle > maxOpen {
		maxIdle = maxOpen
	}
	return &Pool{
		connector: connector,
		sem:       make(chan struct{}, maxOpen),
		maxIdle:   maxIdle,
	}
}

func (p *Pool) popIdle() *Conn {
	p.mu.Lock()
	defer p.mu.Unlock()

	pingInterval := p.connector.pingInterval
	for len(p.idle) != 0 {
		pc := p.idle[len(p.idle)-1]
		p.idle = p.idle[:len(p.idle)-1]

		if !pc.conn.IsValid() {
			pc.conn.Close()
			continue
		}
		if pingInterval != 0 && time.Since(pc.lastUsed) > pingInterval {
			if err := pc.conn.Ping(context.Background()); err != nil {
				pc.conn.Close()
				continue
			}
		}
		return pc.conn
	}
	return nil
}

// Get returns a connection from the pool, opening a new one if no idle
// connection is available. It blocks if maxOpen connections are in use.
func (p *Pool) Get(ctx context.Context) (*Conn, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}
	p.mu.Unlock()

	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if conn := p.popIdle(); conn != nil {
		return conn, nil
	}

	conn, err := p.connector.Connect(ctx)
	if err != nil {
		<-p.sem
		return nil, err
	}
	return conn, nil
}

// Put returns a connection to the pool. Unusable connections and
// connections exceeding maxIdle are closed.
func (p *Pool) Put(conn *Conn) {
	defer func() { <-p.sem }()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || !conn.IsValid() || len(p.idle) >= p.maxIdle {
		conn.Close()
		return
	}
	p.idle = append(p.idle, &poolConn{conn: conn, lastUsed: time.Now()})
}

// Close closes the pool and its idle connections. Connections in use are
// closed on Put.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var err error
	for _, pc := range p.idle {
		if closeErr := pc.conn.Close(); err == nil {
			err = closeErr
		}
	}
	p.idle = nil
	return err
}

// Stats returns the pool statistics.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	idle := len(p.idle)
	p.mu.Unlock()

	stats := p.connector.Stats()
	stats.IdleConnections = idle
	return stats
}
