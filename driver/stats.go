// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package driver

import "sync/atomic"

// metrics holds the counters shared by all connections of a connector.
type metrics struct {
	opened    atomic.Uint64
	closed    atomic.Uint64
	queries   atomic.Uint64
	execs     atomic.Uint64
	commits   atomic.Uint64
	rollbacks atomic.Uint64
	cancels   atomic.Uint64
	fetches   atomic.Uint64
}

func newMetrics() *metrics { return &metrics{} }

// Stats contains database statistics.
type Stats struct {
	OpenConnections int // number of established connections
	IdleConnections int // number of idle connections in the pool

	OpenedConnections uint64 // total number of opened connections
	ClosedConnections uint64 // total number of closed connections
	Queries           uint64 // total number of queries
	Execs             uint64 // total number of statement executions
	Commits           uint64 // total number of transaction commits
	Rollbacks         uint64 // total number of transaction rollbacks
	Cancels           uint64 // total number of cancel requests
	FetchRounds       uint64 // total number of resultset fetch round trips
}

func (m *metrics) stats() Stats {
	return Stats{
		OpenedConnections: m.opened.Load(),
		ClosedConnections: m.closed.Load(),
		Queries:           m.queries.Load(),
		Execs:             m.execs.Load(),
		Commits:           m.commits.Load(),
		Rollbacks:         m.rollbacks.Load(),
		Cancels:           m.cancels.Load(),
		FetchRounds:       m.fetches.Load(),
	}
}

// Stats returns the statistics of all connections created by the
// connector.
func (c *Connector) Stats() Stats {
	stats := c.metrics.stats()
	stats.OpenConnections = int(stats.OpenedConnections - stats.ClosedConnections)
	return stats
}
