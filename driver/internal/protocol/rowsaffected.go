// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"fmt"

	"github.com/helixdb/go-helix/driver/internal/protocol/encoding"
)

// rows affected
const (
	raSuccessNoInfo   = -2
	raExecutionFailed = -3
)

type rowsAffected []int32

func (r rowsAffected) String() string {
	return fmt.Sprintf("%v", []int32(r))
}

func (r *rowsAffected) decode(dec *encoding.Decoder, ph *partHeader) error {
	numArg := ph.numArg()
	*r = resizeSlice(*r, numArg)

	for i := 0; i < numArg; i++ {
		(*r)[i] = dec.Int32()
	}
	return dec.Error()
}

func (r rowsAffected) total() int64 {
	if r == nil {
		return 0
	}

	total := int64(0)
	for _, rows := range r {
		if rows > 0 {
			total += int64(rows)
		}
	}
	return total
}
