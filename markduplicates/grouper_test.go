// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package markduplicates

import (
	"testing"

	"github.com/grailbio/bamdup/encoding/bam"
	"github.com/grailbio/bamdup/encoding/bamprovider"
	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groupNames(t *testing.T, recs []*sam.Record) ([][]string, []bam.Coord, error) {
	p := bamprovider.NewFakeProvider(header, recs)
	iter := p.NewIterator()
	defer func() { require.NoError(t, iter.Close()) }()
	g := newPositionGrouper(iter)
	var (
		groups [][]string
		keys   []bam.Coord
	)
	for g.Scan() {
		var names []string
		for _, r := range g.Group() {
			names = append(names, r.Name)
		}
		groups = append(groups, names)
		keys = append(keys, g.Key())
	}
	return groups, keys, g.Err()
}

func TestGrouper(t *testing.T) {
	recs := []*sam.Record{
		NewRecord("a", chr1, 10, 0, 0, nil, cigar0),
		NewRecord("b", chr1, 10, 0, 0, nil, cigar0),
		NewRecord("c", chr1, 11, 0, 0, nil, cigar0),
		NewRecord("d", chr2, 0, 0, 0, nil, cigar0),
		NewRecord("e", chr2, 0, 0, 0, nil, cigar0),
		NewRecord("f", nil, -1, sam.Unmapped, -1, nil, nil),
		NewRecord("g", nil, -1, sam.Unmapped, -1, nil, nil),
	}
	groups, keys, err := groupNames(t, recs)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}, {"d", "e"}, {"f", "g"}}, groups)
	assert.Equal(t, []bam.Coord{{RefID: 0, Pos: 10}, {RefID: 0, Pos: 11}, {RefID: 1, Pos: 0}, {RefID: bam.UnmappedRefID, Pos: -1}}, keys)
}

func TestGrouperEmpty(t *testing.T) {
	groups, _, err := groupNames(t, nil)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestGrouperUnsorted(t *testing.T) {
	recs := []*sam.Record{
		NewRecord("p40", chr1, 40, 0, 0, nil, cigar0),
		NewRecord("p50", chr1, 50, 0, 0, nil, cigar0),
		NewRecord("p30", chr1, 30, 0, 0, nil, cigar0),
		NewRecord("p60", chr1, 60, 0, 0, nil, cigar0),
	}
	groups, _, err := groupNames(t, recs)
	require.Error(t, err)
	assert.Equal(t, [][]string{{"p40"}}, groups)
	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, ErrUnsorted, kind)
	assert.Equal(t, "p30", err.(*Error).Name)
	assert.Regexp(t, "0:30 follows 0:50", err.Error())

	// Mapped reads after unmapped reads are out of order too.
	recs = []*sam.Record{
		NewRecord("u", nil, -1, sam.Unmapped, -1, nil, nil),
		NewRecord("m", chr1, 5, 0, 0, nil, cigar0),
	}
	_, _, err = groupNames(t, recs)
	kind, _ = KindOf(err)
	assert.Equal(t, ErrUnsorted, kind)

	// A different reference with a smaller position is fine.
	recs = []*sam.Record{
		NewRecord("x", chr1, 500, 0, 0, nil, cigar0),
		NewRecord("y", chr2, 5, 0, 0, nil, cigar0),
	}
	_, _, err = groupNames(t, recs)
	assert.NoError(t, err)
}
