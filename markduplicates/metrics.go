// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package markduplicates

import (
	"context"
	"fmt"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

// Metrics contains the counters of one run.
type Metrics struct {
	// Pass1Records and Pass2Records are the number of records read in each
	// pass. They are equal for a successful run.
	Pass1Records int
	Pass2Records int

	// PositionGroups is the number of (reference, position) groups examined.
	PositionGroups int

	// Records excluded from comparison, by reason, counted over every
	// position group including single-record ones.
	FilteredPaired       int
	FilteredUnpaired     int
	FilteredUnmapped     int
	FilteredMateUnmapped int

	// Losers is the number of records the resolver judged duplicates
	// during the first pass, before mates were reconciled.
	Losers int

	// Registry counters from the first and second pass.
	Registry RegistryStats

	// MarkedDuplicates is the number of records written with the duplicate
	// flag set, or removed.
	MarkedDuplicates int
	// Removed is the number of duplicates left out of the primary output.
	Removed int
	// PrimaryWritten and DuplicatesWritten are the number of records written
	// to each output.
	PrimaryWritten    int
	DuplicatesWritten int
}

func (m *Metrics) addFilterCounts(c *filterCounts) {
	m.FilteredPaired += c[dropPaired]
	m.FilteredUnpaired += c[dropUnpaired]
	m.FilteredUnmapped += c[dropUnmapped]
	m.FilteredMateUnmapped += c[dropMateUnmapped]
}

type metricField struct {
	name  string
	value int
}

func (m *Metrics) fields() []metricField {
	return []metricField{
		{"RECORDS_PASS1", m.Pass1Records},
		{"RECORDS_PASS2", m.Pass2Records},
		{"POSITION_GROUPS", m.PositionGroups},
		{"FILTERED_PAIRED", m.FilteredPaired},
		{"FILTERED_UNPAIRED", m.FilteredUnpaired},
		{"FILTERED_UNMAPPED", m.FilteredUnmapped},
		{"FILTERED_MATE_UNMAPPED", m.FilteredMateUnmapped},
		{"RESOLVER_DUPLICATES", m.Losers},
		{"REGISTRY_SINGLE_END", m.Registry.SingleEnd},
		{"REGISTRY_PAIRED_FIRST", m.Registry.PairedFirstHalf},
		{"REGISTRY_PAIRED_SECOND", m.Registry.PairedSecondHalf},
		{"MATE_UPSTREAM_DISCARDS", m.Registry.MateUpstreamDiscards},
		{"ORPHANS_PURGED", m.Registry.OrphansPurged},
		{"MARKED_DUPLICATES", m.MarkedDuplicates},
		{"REMOVED", m.Removed},
		{"PRIMARY_WRITTEN", m.PrimaryWritten},
		{"DUPLICATES_WRITTEN", m.DuplicatesWritten},
	}
}

// String returns a string representation of the metrics contained in
// m: a tab-separated header line followed by a tab-separated value line. The
// string can be used as metrics file output.
func (m *Metrics) String() string {
	fields := m.fields()
	names := make([]string, len(fields))
	values := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.name
		values[i] = fmt.Sprintf("%d", f.value)
	}
	return strings.Join(names, "\t") + "\n" + strings.Join(values, "\t") + "\n"
}

// PercentDuplication returns the percentage of first-pass records that were
// marked.
func (m *Metrics) PercentDuplication() float64 {
	if m.Pass1Records == 0 {
		return 0
	}
	return 100 * float64(m.MarkedDuplicates) / float64(m.Pass1Records)
}

func writeMetrics(ctx context.Context, path string, m *Metrics) (err error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "Couldn't create metrics file:", path)
	}
	defer func() {
		if err2 := f.Close(ctx); err == nil && err2 != nil {
			err = errors.E(err2, "close metrics file:", path)
		}
	}()

	s := "# bio-bamdup\n" +
		fmt.Sprintf("# percent duplication: %0.6f\n", m.PercentDuplication()) +
		m.String()
	if _, err = f.Writer(ctx).Write([]byte(s)); err != nil {
		return errors.E(err, "error writing to metrics file:", path)
	}
	return nil
}
