// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

// Package collectors provides prometheus collectors for driver statistics.
package collectors

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/helixdb/go-helix/driver"
)

// StatsProvider is the interface implemented by driver objects providing
// statistics (Connector, Pool).
type StatsProvider interface {
	Stats() driver.Stats
}

type statsCollector struct {
	p StatsProvider

	openConnections *prometheus.Desc
	idleConnections *prometheus.Desc

	openedConnectionsTotal *prometheus.Desc
	closedConnectionsTotal *prometheus.Desc
	queriesTotal           *prometheus.Desc
	execsTotal             *prometheus.Desc
	commitsTotal           *prometheus.Desc
	rollbacksTotal         *prometheus.Desc
	cancelsTotal           *prometheus.Desc
	fetchRoundsTotal       *prometheus.Desc
}

var _ prometheus.Collector = (*statsCollector)(nil)

// NewStatsCollector returns a collector exporting the statistics of p.
// dbName is set as database label on all metrics.
func NewStatsCollector(dbName string, p StatsProvider) prometheus.Collector {
	fqName := func(name string) string { return "helix_" + name }
	labels := prometheus.Labels{"db_name": dbName}

	return &statsCollector{
		p: p,
		openConnections: prometheus.NewDesc(
			fqName("open_connections"),
			"The number of established connections.",
			nil, labels,
		),
		idleConnections: prometheus.NewDesc(
			fqName("idle_connections"),
			"The number of idle connections in the pool.",
			nil, labels,
		),
		openedConnectionsTotal: prometheus.NewDesc(
			fqName("opened_connections_total"),
			"The total number of opened connections.",
			nil, labels,
		),
		closedConnectionsTotal: prometheus.NewDesc(
			fqName("closed_connections_total"),
			"The total number of closed connections.",
			nil, labels,
		),
		queriesTotal: prometheus.NewDesc(
			fqName("queries_total"),
			"The total number of queries.",
			nil, labels,
		),
		execsTotal: prometheus.NewDesc(
			fqName("execs_total"),
			"The total number of statement executions.",
			nil, labels,
		),
		commitsTotal: prometheus.NewDesc(
			fqName("commits_total"),
			"The total number of transaction commits.",
			nil, labels,
		),
		rollbacksTotal: prometheus.NewDesc(
			fqName("rollbacks_total"),
			"The total number of transaction rollbacks.",
			nil, labels,
		),
		cancelsTotal: prometheus.NewDesc(
			fqName("cancels_total"),
			"The total number of cancel requests.",
			nil, labels,
		),
		fetchRoundsTotal: prometheus.NewDesc(
			fqName("fetch_rounds_total"),
			"The total number of resultset fetch round trips.",
			nil, labels,
		),
	}
}

// Describe implements the prometheus.Collector interface.
func (c *statsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.openConnections
	ch <- c.idleConnections
	ch <- c.openedConnectionsTotal
	ch <- c.closedConnectionsTotal
	ch <- c.queriesTotal
	ch <- c.execsTotal
	ch <- c.commitsTotal
	ch <- c.rollbacksTotal
	ch <- c.cancelsTotal
	ch <- c.fetchRoundsTotal
}

// Collect implements the prometheus.Collector interface.
func (c *statsCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.p.Stats()
	ch <- prometheus.MustNewConstMetric(c.openConnections, prometheus.GaugeValue, float64(stats.OpenConnections))
	ch <- prometheus.MustNewConstMetric(c.idleConnections, prometheus.GaugeValue, float64(stats.IdleConnections))
	ch <- prometheus.MustNewConstMetric(c.openedConnectionsTotal, prometheus.CounterValue, float64(stats.OpenedConnections))
	ch <- prometheus.MustNewConstMetric(c.closedConnectionsTotal, prometheus.CounterValue, float64(stats.ClosedConnections))
	ch <- prometheus.MustNewConstMetric(c.queriesTotal, prometheus.CounterValue, float64(stats.Queries))
	ch <- prometheus.MustNewConstMetric(c.execsTotal, prometheus.CounterValue, float64(stats.Execs))
	ch <- prometheus.MustNewConstMetric(c.commitsTotal, prometheus.CounterValue, float64(stats.Commits))
	ch <- prometheus.MustNewConstMetric(c.rollbacksTotal, prometheus.CounterValue, float64(stats.Rollbacks))
	ch <- prometheus.MustNewConstMetric(c.cancelsTotal, prometheus.CounterValue, float64(stats.Cancels))
	ch <- prometheus.MustNewConstMetric(c.fetchRoundsTotal, prometheus.CounterValue, float64(stats.FetchRounds))
}
