// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package markduplicates

import (
	"context"
	"fmt"
	"time"

	"github.com/grailbio/bamdup/encoding/bamprovider"
	"github.com/grailbio/bamdup/encoding/bamsink"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/sam"
)

// ProgramID is the @PG ID added to output headers.
const ProgramID = "bio-bamdup"

// Version is recorded in the @PG line.
const Version = "0.1.0"

// Opts for mark-duplicates.
type Opts struct {
	// Commandline options.
	BamFile        string
	OutputPath     string
	DuplicatesPath string
	MetricsFile    string
	// Format is "bam" or "sam". If empty, each output's format is guessed
	// from its path, and BAM is used for stdout.
	Format           string
	Mode             DetectMode
	RemoveDups       bool
	CompressionLevel int
	Parallelism      int
	Progress         int

	// CommandLine is recorded in the @PG header line.
	CommandLine string
}

// DefaultOpts is the default value of Opts.
var DefaultOpts = Opts{
	Format:           "",
	Mode:             DetectAll,
	CompressionLevel: -1,
	Parallelism:      1,
	Progress:         1000000,
}

// MarkDuplicates implements duplicate marking.
type MarkDuplicates struct {
	Provider bamprovider.Provider
	Opts     *Opts
}

// Mark makes two passes over the input. The first finds the duplicate read
// names, the second writes every record with the duplicate flag set or
// cleared. It returns metrics, and an error if encountered. Nothing is
// written if the first pass fails.
func (m *MarkDuplicates) Mark(ctx context.Context) (*Metrics, error) {
	if ctx == nil {
		ctx = vcontext.Background()
	}
	header, err := m.Provider.GetHeader()
	if err != nil {
		return nil, ioError(err)
	}
	metrics := &Metrics{}
	reg := NewRegistry()

	t0 := time.Now()
	if err := m.discover(ctx, reg, metrics); err != nil {
		return nil, err
	}
	log.Printf("pass 1: %d records examined in %d groups, %d duplicates found, registry size %d (%v)",
		metrics.Pass1Records, metrics.PositionGroups, metrics.Losers, reg.Len(), time.Since(t0))
	sizeBefore := reg.Len()
	if n := reg.PurgeOrphans(); n > 0 {
		log.Printf("pass 1: registry size was %d, removed %d paired reads whose mate was not a duplicate, size now is %d",
			sizeBefore, n, reg.Len())
	}
	if log.At(log.Debug) {
		single, half, both := reg.Counts()
		log.Debug.Printf("registry: %d single-end, %d paired-half, %d paired-both", single, half, both)
	}

	outHeader, err := addProgram(header, m.Opts.CommandLine)
	if err != nil {
		return nil, err
	}
	sinkOpts := bamsink.Opts{
		Format:           bamprovider.ParseFileType(m.Opts.Format),
		CompressionLevel: m.Opts.CompressionLevel,
		Parallelism:      m.Opts.Parallelism,
	}
	primary, err := bamsink.New(ctx, m.Opts.OutputPath, outHeader, sinkOpts)
	if err != nil {
		return nil, ioError(err)
	}
	var dups bamsink.Sink
	if m.Opts.DuplicatesPath != "" {
		if dups, err = bamsink.New(ctx, m.Opts.DuplicatesPath, outHeader, sinkOpts); err != nil {
			// Leave no header-only primary output behind.
			_ = primary.Close()
			if !bamsink.IsStdout(m.Opts.OutputPath) {
				if rerr := file.Remove(ctx, m.Opts.OutputPath); rerr != nil {
					log.Error.Printf("remove %s: %v", m.Opts.OutputPath, rerr)
				}
			}
			return nil, ioError(err)
		}
	}

	t1 := time.Now()
	e := errors.Once{}
	iter := m.Provider.NewIterator()
	r := replayer{
		reg:        reg,
		primary:    primary,
		dups:       dups,
		removeDups: m.Opts.RemoveDups,
		metrics:    metrics,
	}
	e.Set(r.run(ctx, iter))
	e.Set(ioError(iter.Close()))
	e.Set(ioError(primary.Close()))
	if dups != nil {
		e.Set(ioError(dups.Close()))
	}
	metrics.Registry = reg.Stats
	if err := e.Err(); err != nil {
		return nil, err
	}
	log.Printf("pass 2: %d records examined, %d marked duplicate, %d removed; erased %d single-end and %d paired entries, halved %d (%v)",
		metrics.Pass2Records, metrics.MarkedDuplicates, metrics.Removed,
		reg.Stats.ErasedSingleEnd, reg.Stats.ErasedPaired, reg.Stats.Demoted, time.Since(t1))
	return metrics, nil
}

// discover is the first pass. It fills reg with the names of the reads that
// lost in their position group.
func (m *MarkDuplicates) discover(ctx context.Context, reg *Registry, metrics *Metrics) (err error) {
	iter := m.Provider.NewIterator()
	defer func() {
		if cerr := iter.Close(); err == nil {
			err = ioError(cerr)
		}
	}()

	var counts filterCounts
	defer metrics.addFilterCounts(&counts)
	g := newPositionGrouper(iter)
	nextProgress := m.Opts.Progress
	for g.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		metrics.PositionGroups++
		candidates := filterCandidates(g.Group(), m.Opts.Mode, &counts)
		if len(candidates) > 1 {
			losers := resolveDuplicates(candidates, m.Opts.Mode)
			metrics.Losers += len(losers)
			for _, r := range losers {
				if err := reg.Insert(r); err != nil {
					return err
				}
			}
		}
		if nextProgress > 0 && g.nRecords >= nextProgress {
			log.Debug.Printf("pass 1: %d records examined, last at %v, registry size %d",
				g.nRecords, g.Key(), reg.Len())
			for nextProgress <= g.nRecords {
				nextProgress += m.Opts.Progress
			}
		}
	}
	metrics.Pass1Records = g.nRecords
	return g.Err()
}

// addProgram returns a copy of header with a @PG line for this tool, chained
// to the last program already in the header.
func addProgram(header *sam.Header, commandLine string) (*sam.Header, error) {
	h := header.Clone()
	prev := ""
	used := map[string]bool{}
	for _, p := range h.Progs() {
		used[p.UID()] = true
		prev = p.UID()
	}
	id := ProgramID
	for i := 1; used[id]; i++ {
		id = fmt.Sprintf("%s.%d", ProgramID, i)
	}
	if err := h.AddProgram(sam.NewProgram(id, ProgramID, commandLine, prev, Version)); err != nil {
		return nil, errors.E(err, "add @PG line")
	}
	return h, nil
}

// SetupAndMark validates opts, marks the duplicates of the records supplied
// by provider and writes the metrics file if requested.
func SetupAndMark(ctx context.Context, provider bamprovider.Provider, opts *Opts) error {
	if err := validate(opts); err != nil {
		return err
	}

	// Mark/remove those duplicates.
	markDuplicates := &MarkDuplicates{
		Provider: provider,
		Opts:     opts,
	}
	metrics, err := markDuplicates.Mark(ctx)
	if err != nil {
		log.Debug.Printf("Error marking duplicates: %v", err)
		return err
	}

	if opts.MetricsFile != "" {
		if err := writeMetrics(ctx, opts.MetricsFile, metrics); err != nil {
			return err
		}
	}
	return nil
}
