// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package markduplicates

import (
	"fmt"

	"github.com/grailbio/bamdup/encoding/bam"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
)

// DetectMode selects which reads take part in duplicate detection.
type DetectMode int

const (
	// DetectAll compares single-end reads with single-end reads and
	// paired reads with paired reads, taking the mate into account.
	DetectAll DetectMode = iota
	// PairedAsSingle ignores mate information, so paired reads are compared
	// as if they were single-end reads.
	PairedAsSingle
	// SingleEndOnly considers unpaired reads only.
	SingleEndOnly
	// PairedEndOnly considers paired reads only.
	PairedEndOnly
)

var detectModeNames = map[DetectMode]string{
	DetectAll:      "all",
	PairedAsSingle: "as-single-end",
	SingleEndOnly:  "single-end-only",
	PairedEndOnly:  "paired-end-only",
}

func (m DetectMode) String() string {
	if s, ok := detectModeNames[m]; ok {
		return s
	}
	return fmt.Sprintf("DetectMode(%d)", int(m))
}

// ParseDetectMode parses the name of a mode, as printed by String. The empty
// string is DetectAll.
func ParseDetectMode(s string) (DetectMode, error) {
	if s == "" {
		return DetectAll, nil
	}
	for m, name := range detectModeNames {
		if name == s {
			return m, nil
		}
	}
	return DetectAll, fmt.Errorf("unknown detection mode %q, must be one of all, as-single-end, single-end-only, paired-end-only", s)
}

// filterReason is the reason a record is excluded from duplicate detection.
type filterReason int

const (
	dropPaired filterReason = iota
	dropUnpaired
	dropUnmapped
	dropMateUnmapped
	numFilterReasons
)

var filterReasonNames = [numFilterReasons]string{
	"paired read in single-end-only mode",
	"unpaired read in paired-end-only mode",
	"unmapped",
	"mate unmapped",
}

// filterCounts counts dropped records per reason.
type filterCounts [numFilterReasons]int

// excluded returns the reason r cannot take part in detection under mode.
// The checks are applied in a fixed order and the first one that matches
// wins.
func excluded(r *sam.Record, mode DetectMode) (filterReason, bool) {
	paired := bam.IsPaired(r)
	switch {
	case mode == SingleEndOnly && paired:
		return dropPaired, true
	case mode == PairedEndOnly && !paired:
		return dropUnpaired, true
	case !bam.IsMapped(r):
		return dropUnmapped, true
	case mode != PairedAsSingle && paired && bam.HasNoMappedMate(r):
		return dropMateUnmapped, true
	}
	return 0, false
}

// filterCandidates returns the records in group that can be compared for
// duplication under mode. Dropped records are counted in counts; they are
// never marked.
func filterCandidates(group []*sam.Record, mode DetectMode, counts *filterCounts) []*sam.Record {
	out := make([]*sam.Record, 0, len(group))
	for _, r := range group {
		if reason, drop := excluded(r, mode); drop {
			counts[reason]++
			if log.At(log.Debug) {
				log.Debug.Printf("%s: excluded, %s", r.Name, filterReasonNames[reason])
			}
			continue
		}
		out = append(out, r)
	}
	return out
}
