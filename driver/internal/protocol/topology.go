// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"

	"github.com/helixdb/go-helix/driver/internal/protocol/encoding"
)

type topologyOption int8

const (
	toHostName   topologyOption = 1
	toPort       topologyOption = 2
	toServiceVer topologyOption = 3
)

func (k topologyOption) String() string {
	switch k {
	case toHostName:
		return "hostName"
	case toPort:
		return "port"
	case toServiceVer:
		return "serviceVersion"
	default:
		return fmt.Sprintf("topologyOption(%d)", int(k))
	}
}

// topologyInformation lists the hosts serving the database. Transferred
// as part of the connect reply.
type topologyInformation []Options[topologyOption]

func (s topologyInformation) String() string {
	return fmt.Sprintf("%v", []Options[topologyOption](s))
}

func (s *topologyInformation) decode(dec *encoding.Decoder, ph *partHeader) error {
	numArg := ph.numArg()
	*s = resizeSlice(*s, numArg)

	for i := 0; i < numArg; i++ {
		var ops Options[topologyOption]
		optPh := &partHeader{argumentCount: dec.Int16()}
		if err := ops.decode(dec, optPh); err != nil {
			return err
		}
		(*s)[i] = ops
	}
	return dec.Error()
}
