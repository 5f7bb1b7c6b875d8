// SPDX-FileCopyrightText: 2019-2026 HelixDB
//
// SPDX-License-Identifier: Apache-2.0

package driver

import (
	"testing"

	"golang.org/x/text/transform"

	"github.com/helixdb/go-helix/driver/unicode/cesu8"
)

func TestCESU8CharCount(t *testing.T) {
	tests := []struct {
		s   string
		cnt int
	}{
		{"", 0},
		{"abc", 3},
		{"grüße", 5},
		{"𝄞", 2}, // outside BMP: surrogate pair counts as two characters
		{"a𝄞b", 4},
	}
	for _, test := range tests {
		b, _, err := transform.Bytes(cesu8.NewEncoder(cesu8.ReplaceErrorHandler), []byte(test.s))
		if err != nil {
			t.Fatal(err)
		}
		if cnt := cesu8CharCount(b); cnt != test.cnt {
			t.Fatalf("%s: character count %d - expected %d", test.s, cnt, test.cnt)
		}
	}
}
