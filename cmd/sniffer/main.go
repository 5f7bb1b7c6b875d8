// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

/*
Sniffer is a man in the middle proxy tracing the hx wire protocol between
clients and a database server.

Usage:

	sniffer [-config <file>] [-addr <listen address>] [-dbAddr <database address>]

The optional toml configuration file holds the same parameters as the
command line flags:

	addr   = "localhost:30015"
	dbAddr = "dbhost:39013"
*/
package main

import (
	"flag"
	"net"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"github.com/helixdb/go-helix/driver"
	"github.com/helixdb/go-helix/driver/sqltrace"
)

type config struct {
	Addr   string `toml:"addr"`
	DBAddr string `toml:"dbAddr"`
}

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg := config{Addr: "localhost:30015", DBAddr: "localhost:39013"}

	configFile := flag.String("config", "", "toml configuration file")
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	flag.StringVar(&cfg.DBAddr, "dbAddr", cfg.DBAddr, "database address")
	flag.Parse()

	if *configFile != "" {
		if _, err := toml.DecodeFile(*configFile, &cfg); err != nil {
			logger.Fatal().Err(err).Str("file", *configFile).Msg("cannot read configuration")
		}
	}

	sqltrace.SetOn(true)

	l, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		logger.Fatal().Err(err).Str("addr", cfg.Addr).Msg("cannot listen")
	}
	logger.Info().Str("addr", cfg.Addr).Str("dbAddr", cfg.DBAddr).Msg("sniffer started")

	for {
		conn, err := l.Accept()
		if err != nil {
			logger.Fatal().Err(err).Msg("accept failed")
		}
		logger.Info().Str("client", conn.RemoteAddr().String()).Msg("client connected")

		go func(conn net.Conn) {
			dbConn, err := net.Dial("tcp", cfg.DBAddr)
			if err != nil {
				logger.Error().Err(err).Str("dbAddr", cfg.DBAddr).Msg("cannot connect to database")
				conn.Close()
				return
			}
			if err := driver.NewSniffer(conn, dbConn).Run(); err != nil {
				logger.Info().Err(err).Msg("connection closed")
			}
		}(conn)
	}
}
