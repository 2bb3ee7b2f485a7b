// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package markduplicates

import (
	"fmt"

	"github.com/grailbio/bamdup/encoding/bam"
	"github.com/grailbio/bamdup/encoding/bamprovider"
	"github.com/grailbio/hts/sam"
)

// positionGrouper splits a coordinate-sorted record stream into maximal runs
// of records that share a (reference, position) key. It fails as soon as a
// record's key is smaller than the key of the record before it.
type positionGrouper struct {
	iter bamprovider.Iterator

	group   []*sam.Record
	key     bam.Coord
	pending *sam.Record
	pendKey bam.Coord
	done    bool
	err     error

	// nRecords is the number of records read from iter so far.
	nRecords int
}

func newPositionGrouper(iter bamprovider.Iterator) *positionGrouper {
	return &positionGrouper{iter: iter, key: bam.InvalidCoord}
}

// Scan reads the next group. It returns false at the end of the input or on
// error; Err distinguishes the two.
func (g *positionGrouper) Scan() bool {
	if g.err != nil {
		return false
	}
	g.group = nil
	if g.pending != nil {
		g.group = append(g.group, g.pending)
		g.key = g.pendKey
		g.pending = nil
	}
	if g.done {
		return len(g.group) > 0
	}
	for g.iter.Scan() {
		r := g.iter.Record()
		g.nRecords++
		c := bam.CoordFromRecord(r)
		if len(g.group) == 0 {
			if c.LT(g.key) {
				g.err = unsortedError(r, c, g.key)
				return false
			}
			g.group = append(g.group, r)
			g.key = c
			continue
		}
		switch {
		case c.EQ(g.key):
			g.group = append(g.group, r)
		case c.GT(g.key):
			g.pending, g.pendKey = r, c
			return true
		default:
			g.err = unsortedError(r, c, g.key)
			return false
		}
	}
	g.done = true
	if err := g.iter.Err(); err != nil {
		g.err = ioError(err)
		return false
	}
	return len(g.group) > 0
}

// Group returns the records of the current group, in input order. The slice
// is valid until the next call to Scan.
func (g *positionGrouper) Group() []*sam.Record { return g.group }

// Key returns the coordinate shared by the current group.
func (g *positionGrouper) Key() bam.Coord { return g.key }

// Err returns the error that stopped Scan, if any.
func (g *positionGrouper) Err() error { return g.err }

func unsortedError(r *sam.Record, c, prev bam.Coord) error {
	return &Error{
		Kind: ErrUnsorted,
		Name: r.Name,
		Err:  fmt.Errorf("coordinate %v follows %v", c, prev),
	}
}
