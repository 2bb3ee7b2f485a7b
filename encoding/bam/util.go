// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bam

import "github.com/grailbio/hts/sam"

// RGTag is the aux tag that holds the read group of a record.
var RGTag = sam.Tag{'R', 'G'}

// IsPaired returns true if the record has the paired flag set.
func IsPaired(r *sam.Record) bool { return r.Flags&sam.Paired != 0 }

// IsProperPair returns true if the record has the proper-pair flag set.
func IsProperPair(r *sam.Record) bool { return r.Flags&sam.ProperPair != 0 }

// IsUnmapped returns true if the unmapped flag is set. See also IsMapped.
func IsUnmapped(r *sam.Record) bool { return r.Flags&sam.Unmapped != 0 }

// IsMateUnmapped returns true if the mate-unmapped flag is set.
func IsMateUnmapped(r *sam.Record) bool { return r.Flags&sam.MateUnmapped != 0 }

// IsReverse returns true if the record is aligned to the reverse strand.
func IsReverse(r *sam.Record) bool { return r.Flags&sam.Reverse != 0 }

// IsMateReverse returns true if the mate is aligned to the reverse strand.
func IsMateReverse(r *sam.Record) bool { return r.Flags&sam.MateReverse != 0 }

// IsRead1 returns true if the record is the first read of a pair.
func IsRead1(r *sam.Record) bool { return r.Flags&sam.Read1 != 0 }

// IsRead2 returns true if the record is the second read of a pair.
func IsRead2(r *sam.Record) bool { return r.Flags&sam.Read2 != 0 }

// IsSecondary returns true if the record is a secondary alignment.
func IsSecondary(r *sam.Record) bool { return r.Flags&sam.Secondary != 0 }

// IsQCFail returns true if the record failed vendor quality checks.
func IsQCFail(r *sam.Record) bool { return r.Flags&sam.QCFail != 0 }

// IsDuplicate returns true if the record is marked as a duplicate.
func IsDuplicate(r *sam.Record) bool { return r.Flags&sam.Duplicate != 0 }

// IsSupplementary returns true if the record is a supplementary alignment.
func IsSupplementary(r *sam.Record) bool { return r.Flags&sam.Supplementary != 0 }

// IsPrimary returns true if the record is neither secondary nor supplementary.
func IsPrimary(r *sam.Record) bool {
	return r.Flags&(sam.Secondary|sam.Supplementary) == 0
}

// IsMapped returns true if the record has a reference and the unmapped flag
// is not set.
func IsMapped(r *sam.Record) bool {
	return r.Ref != nil && r.Ref.ID() >= 0 && !IsUnmapped(r)
}

// HasNoMappedMate returns true if record is unpaired or has an unmapped mate.
func HasNoMappedMate(record *sam.Record) bool {
	return (record.Flags&sam.Paired) == 0 || (record.Flags&sam.MateUnmapped) != 0
}

// ReadGroup returns the value of the RG tag. The bool is false if the record
// has no RG tag.
func ReadGroup(r *sam.Record) (string, bool) {
	aux := r.AuxFields.Get(RGTag)
	if aux == nil {
		return "", false
	}
	rg, ok := aux.Value().(string)
	return rg, ok
}

// QueryLength returns the number of bases stored in the record.
func QueryLength(r *sam.Record) int {
	return r.Seq.Length
}

// AlignedLength returns the length of the aligned-bases rendering of the
// record: matches and insertions count their bases, deletions, skips and
// pads add gap characters, and clipped bases are left out.
func AlignedLength(r *sam.Record) int {
	n := 0
	for _, op := range r.Cigar {
		switch op.Type() {
		case sam.CigarSoftClipped, sam.CigarHardClipped:
			continue
		}
		n += op.Len()
	}
	return n
}
