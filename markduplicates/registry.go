// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package markduplicates

import (
	"fmt"

	"github.com/grailbio/bamdup/encoding/bam"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hts/sam"
)

// dupState is the registry's knowledge about one read name.
type dupState uint8

const (
	// unsetDup is the state of every name not in the registry. It is never
	// stored.
	unsetDup dupState = iota
	// singleEndDup: an unpaired read with this name is a duplicate.
	singleEndDup
	// pairedHalfSeen: one read of the pair is a duplicate. After the first
	// pass, it also means one read of a confirmed pair remains to be
	// replayed.
	pairedHalfSeen
	// pairedBothSeen: both reads of the pair are duplicates.
	pairedBothSeen
)

var dupStateNames = [...]string{"unset", "single-end", "paired-half", "paired-both"}

func (s dupState) String() string {
	if int(s) < len(dupStateNames) {
		return dupStateNames[s]
	}
	return fmt.Sprintf("dupState(%d)", int(s))
}

// dupEvent drives registry transitions.
type dupEvent uint8

const (
	// singleLoser: an unpaired read lost in the resolver.
	singleLoser dupEvent = iota
	// pairedLoser: a paired read lost in the resolver.
	pairedLoser
	// pairedLoserMateUpstream: a paired read lost, and its mate was read
	// earlier in the first pass.
	pairedLoserMateUpstream
	// replayConsume: the second pass met a read whose name is registered.
	replayConsume
)

// dupOutcome says what a transition did to the registry.
type dupOutcome uint8

const (
	outcomeStored dupOutcome = iota
	outcomePromoted
	outcomeDiscarded
	outcomeErased
	outcomeDemoted
)

// transition computes the next state of a name. A next state of unsetDup
// means the name must not be stored.
func transition(cur dupState, ev dupEvent) (dupState, dupOutcome, error) {
	switch ev {
	case singleLoser:
		if cur == unsetDup {
			return singleEndDup, outcomeStored, nil
		}
		return cur, 0, errors.E(fmt.Sprintf("single-end duplicate found in state %v", cur))
	case pairedLoserMateUpstream:
		if cur == unsetDup {
			// The mate was read before and did not lose, so the pair is
			// not a duplicate.
			return unsetDup, outcomeDiscarded, nil
		}
		return transition(cur, pairedLoser)
	case pairedLoser:
		switch cur {
		case unsetDup:
			return pairedHalfSeen, outcomeStored, nil
		case pairedHalfSeen:
			return pairedBothSeen, outcomePromoted, nil
		case pairedBothSeen:
			return cur, 0, errors.E("paired duplicate found a third time")
		}
		return cur, 0, errors.E(fmt.Sprintf("paired duplicate found in state %v", cur))
	case replayConsume:
		switch cur {
		case singleEndDup, pairedHalfSeen:
			return unsetDup, outcomeErased, nil
		case pairedBothSeen:
			return pairedHalfSeen, outcomeDemoted, nil
		}
		return cur, 0, errors.E(fmt.Sprintf("replayed read found in state %v", cur))
	}
	return cur, 0, errors.E(fmt.Sprintf("unknown event %d", ev))
}

// RegistryStats counts registry activity.
type RegistryStats struct {
	// SingleEnd is the number of single-end names stored.
	SingleEnd int
	// PairedFirstHalf is the number of paired names stored on their first
	// losing read.
	PairedFirstHalf int
	// PairedSecondHalf is the number of paired names promoted on their
	// second losing read.
	PairedSecondHalf int
	// MateUpstreamDiscards is the number of losing paired reads dropped
	// because their mate had been read without losing.
	MateUpstreamDiscards int
	// OrphansPurged is the number of half-seen pairs removed after the first
	// pass.
	OrphansPurged int
	// ErasedSingleEnd and ErasedPaired count entries removed by the second
	// pass; Demoted counts paired entries halved by it.
	ErasedSingleEnd int
	ErasedPaired    int
	Demoted         int
}

// Registry maps read names to their duplicate state across position groups.
// It is owned by a single goroutine.
type Registry struct {
	names map[string]dupState
	Stats RegistryStats
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]dupState)}
}

// Len returns the number of names stored.
func (reg *Registry) Len() int { return len(reg.names) }

// Counts returns the number of stored names in each state.
func (reg *Registry) Counts() (single, half, both int) {
	for _, s := range reg.names {
		switch s {
		case singleEndDup:
			single++
		case pairedHalfSeen:
			half++
		case pairedBothSeen:
			both++
		}
	}
	return
}

// Insert records that r lost in the resolver.
func (reg *Registry) Insert(r *sam.Record) error {
	ev := singleLoser
	if bam.IsPaired(r) {
		ev = pairedLoser
		if r.MateRef.ID() >= 0 && mateUpstream(r) {
			ev = pairedLoserMateUpstream
		}
	}
	cur := reg.names[r.Name]
	next, outcome, err := transition(cur, ev)
	if err != nil {
		return &Error{Kind: ErrRegistryInconsistent, Name: r.Name, Err: err}
	}
	reg.set(r.Name, next)
	switch outcome {
	case outcomeStored:
		if next == singleEndDup {
			reg.Stats.SingleEnd++
		} else {
			reg.Stats.PairedFirstHalf++
		}
	case outcomePromoted:
		reg.Stats.PairedSecondHalf++
	case outcomeDiscarded:
		reg.Stats.MateUpstreamDiscards++
	}
	return nil
}

// PurgeOrphans removes the paired names for which only one read lost during
// the first pass, and returns how many it removed. Such a read is treated as
// not being a duplicate.
func (reg *Registry) PurgeOrphans() int {
	n := 0
	debug := log.At(log.Debug)
	for name, s := range reg.names {
		if s != pairedHalfSeen {
			continue
		}
		if debug {
			log.Debug.Printf("%s: mate never confirmed as duplicate, not marking", name)
		}
		delete(reg.names, name)
		n++
	}
	reg.Stats.OrphansPurged += n
	return n
}

// Consume is called by the second pass for every record. It returns true if
// the name is registered, and uses up one read's worth of its entry.
func (reg *Registry) Consume(name string) (bool, error) {
	cur, ok := reg.names[name]
	if !ok {
		return false, nil
	}
	next, outcome, err := transition(cur, replayConsume)
	if err != nil {
		return false, &Error{Kind: ErrRegistryInconsistent, Name: name, Err: err}
	}
	reg.set(name, next)
	switch outcome {
	case outcomeErased:
		if cur == singleEndDup {
			reg.Stats.ErasedSingleEnd++
		} else {
			reg.Stats.ErasedPaired++
		}
	case outcomeDemoted:
		reg.Stats.Demoted++
	}
	return true, nil
}

func (reg *Registry) set(name string, s dupState) {
	if s == unsetDup {
		delete(reg.names, name)
		return
	}
	reg.names[name] = s
}

// someNames returns up to n registered names, for error messages.
func (reg *Registry) someNames(n int) []string {
	var names []string
	for name := range reg.names {
		if len(names) >= n {
			break
		}
		names = append(names, name)
	}
	return names
}
