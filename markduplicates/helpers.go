// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package markduplicates

import (
	"github.com/grailbio/bamdup/encoding/bam"
	"github.com/grailbio/hts/sam"
)

// isMateUpstream reports whether a read's mate precedes it in coordinate
// order, so that the mate has already gone through the first pass. Reads on
// the same reference use the sign of the insert size: the downstream read of
// a pair carries a negative one. An insert size of zero is not upstream.
func isMateUpstream(paired, mateMapped bool, refID, mateRefID, insertSize int) bool {
	if !paired || !mateMapped {
		return false
	}
	switch {
	case refID < mateRefID:
		return false
	case refID > mateRefID:
		return true
	}
	return insertSize < 0
}

// mateUpstream applies isMateUpstream to r.
func mateUpstream(r *sam.Record) bool {
	return isMateUpstream(bam.IsPaired(r), !bam.IsMateUnmapped(r),
		r.Ref.ID(), r.MateRef.ID(), r.TempLen)
}

func clearDupFlag(r *sam.Record) {
	r.Flags &^= sam.Duplicate
}

func setDupFlag(r *sam.Record) {
	r.Flags |= sam.Duplicate
}
