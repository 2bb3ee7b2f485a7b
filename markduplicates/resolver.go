// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package markduplicates

import (
	"github.com/grailbio/bamdup/encoding/bam"
	"github.com/grailbio/hts/sam"
)

// isDuplicate reports whether cand is a duplicate of best. Both records come
// from the same position group. The existing duplicate flag is ignored.
func isDuplicate(best, cand *sam.Record, mode DetectMode) bool {
	if !bam.CoordFromRecord(best).EQ(bam.CoordFromRecord(cand)) {
		return false
	}
	if bam.IsReverse(best) != bam.IsReverse(cand) {
		return false
	}
	rg0, ok0 := bam.ReadGroup(best)
	rg1, ok1 := bam.ReadGroup(cand)
	if ok0 != ok1 || rg0 != rg1 {
		return false
	}
	if mode != PairedAsSingle {
		if bam.IsPaired(best) != bam.IsPaired(cand) ||
			best.MateRef.ID() != cand.MateRef.ID() ||
			best.MatePos != cand.MatePos ||
			bam.IsMateReverse(best) != bam.IsMateReverse(cand) {
			return false
		}
	}
	return bam.QueryLength(best) == bam.QueryLength(cand) &&
		bam.AlignedLength(best) == bam.AlignedLength(cand)
}

// resolveDuplicates returns the records in group that are duplicates of
// another record in group. Each class of mutual duplicates keeps exactly one
// record, the one with the highest mapping quality; on a tie the record that
// appears first wins. The returned losers are in the order they were found.
//
// group itself is not modified.
func resolveDuplicates(group []*sam.Record, mode DetectMode) []*sam.Record {
	if len(group) < 2 {
		return nil
	}
	// Removed entries are set to nil and squeezed out once per round.
	arena := make([]*sam.Record, len(group))
	copy(arena, group)
	var losers []*sam.Record
	for len(arena) > 0 {
		best := 0
		for j := 1; j < len(arena); j++ {
			cand := arena[j]
			if !isDuplicate(arena[best], cand, mode) {
				continue
			}
			if cand.MapQ <= arena[best].MapQ {
				losers = append(losers, cand)
				arena[j] = nil
			} else {
				losers = append(losers, arena[best])
				arena[best] = nil
				best = j
			}
		}
		// The survivor leaves the group unreported.
		arena[best] = nil
		arena = compact(arena)
	}
	return losers
}

// compact removes the nil entries of recs in place.
func compact(recs []*sam.Record) []*sam.Record {
	n := 0
	for _, r := range recs {
		if r != nil {
			recs[n] = r
			n++
		}
	}
	for i := n; i < len(recs); i++ {
		recs[i] = nil
	}
	return recs[:n]
}
