// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package protocol

func sizeBuffer(b []byte, size int) []byte {
	if b == nil || size > cap(b) {
		return make([]byte, size)
	}
	return b[:size]
}

func resizeSlice[S ~[]E, E any](s S, size int) S {
	if s == nil || size > cap(s) {
		return make(S, size)
	}
	return s[:size]
}
