// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package markduplicates

import (
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/assert"
)

func TestIsMateUpstream(t *testing.T) {
	tests := []struct {
		paired, mateMapped   bool
		refID, mateRefID, tl int
		want                 bool
	}{
		{false, true, 0, 0, -10, false},
		{true, false, 0, 0, -10, false},
		{true, true, 0, 1, -10, false},
		{true, true, 0, 1, 10, false},
		{true, true, 1, 0, 10, true},
		{true, true, 1, 0, -10, true},
		{true, true, 0, 0, -10, true},
		{true, true, 0, 0, 10, false},
		// A zero insert size is not upstream.
		{true, true, 0, 0, 0, false},
	}
	for _, test := range tests {
		assert.Equal(t, test.want,
			isMateUpstream(test.paired, test.mateMapped, test.refID, test.mateRefID, test.tl),
			"%+v", test)
	}
}

func TestMateUpstreamRecord(t *testing.T) {
	// Reads on chr2 whose mate is on chr1 always come after their mate.
	assert.True(t, mateUpstream(NewRecord("A", chr2, 100, r2F, 100, chr1, cigar0)))
	assert.False(t, mateUpstream(NewRecord("A", chr1, 100, r1F, 100, chr2, cigar0)))
	assert.False(t, mateUpstream(NewRecord("A", chr1, 0, r1F, 10, chr1, cigar0)))
	assert.True(t, mateUpstream(NewRecord("A", chr1, 10, r2F, 0, chr1, cigar0)))
	assert.False(t, mateUpstream(NewRecord("A", chr1, 10, s1F, 10, chr1, cigar0)))
}

func TestDupFlag(t *testing.T) {
	r := NewRecord("A", chr1, 10, r1F, 20, chr1, cigar0)
	setDupFlag(r)
	assert.Equal(t, r1F|sam.Duplicate, r.Flags)
	setDupFlag(r)
	assert.Equal(t, r1F|sam.Duplicate, r.Flags)
	clearDupFlag(r)
	assert.Equal(t, r1F, r.Flags)
}
