// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bam

import (
	"fmt"
	"math"

	"github.com/grailbio/hts/sam"
)

const (
	// UnmappedRefID is the reference id of a record without a reference.
	UnmappedRefID = -1

	// InvalidRefID is used as a sentinel. We use -2 because -1 is is taken
	// by UnmappedRefID.
	InvalidRefID = -2
)

// Coord is the (reference id, alignment position) key of a record.
type Coord struct {
	RefID int
	Pos   int
}

// InvalidCoord sorts before every real coordinate.
var InvalidCoord = Coord{RefID: InvalidRefID, Pos: -1}

// CoordFromRecord returns the coordinate of r. A record without a reference
// gets UnmappedRefID.
func CoordFromRecord(r *sam.Record) Coord {
	return Coord{RefID: r.Ref.ID(), Pos: r.Pos}
}

// For sorting Coords.
func sortableRefID(id int) int {
	if id == UnmappedRefID {
		// Unmapped reads are sorted the last, so use a large value.
		return math.MaxInt32
	}
	return id
}

// Compare returns (negative int, 0, positive int) if (c<c1, c=c1, c>c1)
// respectively.
func (c Coord) Compare(c1 Coord) int {
	refid0 := sortableRefID(c.RefID)
	refid1 := sortableRefID(c1.RefID)
	if refid0 != refid1 {
		if refid0 < refid1 {
			return -1
		}
		return 1
	}
	if c.Pos != c1.Pos {
		if c.Pos < c1.Pos {
			return -1
		}
		return 1
	}
	return 0
}

// LT returns true iff c < c1.
func (c Coord) LT(c1 Coord) bool { return c.Compare(c1) < 0 }

// EQ returns true iff c = c1.
func (c Coord) EQ(c1 Coord) bool { return c.Compare(c1) == 0 }

// GT returns true iff c > c1.
func (c Coord) GT(c1 Coord) bool { return c.Compare(c1) > 0 }

func (c Coord) String() string {
	return fmt.Sprintf("%d:%d", c.RefID, c.Pos)
}
