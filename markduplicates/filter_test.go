// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package markduplicates

import (
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDetectMode(t *testing.T) {
	for _, m := range []DetectMode{DetectAll, PairedAsSingle, SingleEndOnly, PairedEndOnly} {
		got, err := ParseDetectMode(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	got, err := ParseDetectMode("")
	require.NoError(t, err)
	assert.Equal(t, DetectAll, got)
	_, err = ParseDetectMode("pairs")
	assert.Error(t, err)
}

func TestFilterCandidates(t *testing.T) {
	var (
		single   = NewRecord("single", chr1, 10, 0, 0, nil, cigar0)
		pair     = NewRecord("pair", chr1, 10, r1F, 50, chr1, cigar0)
		mateLess = NewRecord("mateless", chr1, 10, s1F, 10, chr1, cigar0)
		unmapped = NewRecord("unmapped", chr1, 10, u1, 50, chr1, nil)
		noRef    = NewRecord("noref", nil, 10, 0, 0, nil, cigar0)
		group    = []*sam.Record{single, pair, mateLess, unmapped, noRef}
	)
	names := func(recs []*sam.Record) []string {
		var n []string
		for _, r := range recs {
			n = append(n, r.Name)
		}
		return n
	}

	tests := []struct {
		mode   DetectMode
		want   []string
		counts filterCounts
	}{
		{DetectAll, []string{"single", "pair"}, filterCounts{0, 0, 2, 1}},
		{PairedAsSingle, []string{"single", "pair", "mateless"}, filterCounts{0, 0, 2, 0}},
		// Paired records are dropped before the mapping checks.
		{SingleEndOnly, []string{"single"}, filterCounts{3, 0, 1, 0}},
		{PairedEndOnly, []string{"pair"}, filterCounts{0, 2, 1, 1}},
	}
	for _, test := range tests {
		var counts filterCounts
		got := filterCandidates(group, test.mode, &counts)
		assert.Equal(t, test.want, names(got), "mode %v", test.mode)
		assert.Equal(t, test.counts, counts, "mode %v", test.mode)
	}
	// The input group is left alone.
	assert.Equal(t, 5, len(group))
}
