// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

import "fmt"

// segmentKind represents the segment kind.
type segmentKind int8

const (
	skInvalid segmentKind = 0
	skRequest segmentKind = 1
	skReply   segmentKind = 2
	skError   segmentKind = 5
)

var segmentKindText = map[segmentKind]string{
	skInvalid: "invalid",
	skRequest: "request",
	skReply:   "reply",
	skError:   "error",
}

func (sk segmentKind) String() string {
	if s, ok := segmentKindText[sk]; ok {
		return s
	}
	return fmt.Sprintf("segmentKind(%d)", int8(sk))
}
