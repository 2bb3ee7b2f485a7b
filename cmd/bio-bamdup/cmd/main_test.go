// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package cmd

import (
	"bytes"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/grailbio/bamdup/encoding/bamsink"
	"github.com/grailbio/bamdup/markduplicates"
	"github.com/grailbio/bamdup/summary"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInput(t *testing.T, path string) {
	chr1, err := sam.NewReference("chr1", "", "", 1000, nil, nil)
	require.NoError(t, err)
	header, err := sam.NewHeader(nil, []*sam.Reference{chr1})
	require.NoError(t, err)
	header.SortOrder = sam.Coordinate
	cigar := []sam.CigarOp{sam.NewCigarOp(sam.CigarMatch, 10)}
	r1F := sam.Paired | sam.Read1
	r2R := sam.Paired | sam.Read2 | sam.Reverse
	recs := []*sam.Record{
		markduplicates.NewRecord("A", chr1, 0, r1F, 10, chr1, cigar),
		markduplicates.NewRecord("B", chr1, 0, r1F, 10, chr1, cigar),
		markduplicates.NewRecord("s1", chr1, 5, 0, 0, nil, cigar),
		markduplicates.NewRecord("s2", chr1, 5, 0, 0, nil, cigar),
		markduplicates.NewRecord("A", chr1, 10, r2R, 0, chr1, cigar),
		markduplicates.NewRecord("B", chr1, 10, r2R, 0, chr1, cigar),
	}
	w, err := bamsink.New(vcontext.Background(), path, header, bamsink.DefaultOpts)
	require.NoError(t, err)
	for _, r := range recs {
		require.NoError(t, w.Write(r))
	}
	require.NoError(t, w.Close())
}

func TestDuplicatesAndInside(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	in := filepath.Join(tempDir, "in.sam")
	writeInput(t, in)

	opts := markduplicates.DefaultOpts
	opts.BamFile = in
	opts.OutputPath = filepath.Join(tempDir, "out.bam")
	opts.DuplicatesPath = filepath.Join(tempDir, "dups.sam")
	opts.MetricsFile = filepath.Join(tempDir, "metrics.txt")
	opts.CommandLine = "bio-bamdup duplicates in.sam"
	require.NoError(t, duplicates(&opts))

	metrics, err := ioutil.ReadFile(opts.MetricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "# bio-bamdup\n")

	var out bytes.Buffer
	require.NoError(t, inside(vcontext.Background(), &out, opts.OutputPath, summary.Opts{Refs: 10, Reads: 1}))
	text := out.String()
	assert.Contains(t, text, "[program] @PG\tID:bio-bamdup")
	assert.Contains(t, text, "CL:bio-bamdup duplicates in.sam")
	assert.Contains(t, text, "[read] A\t")
	assert.NotContains(t, text, "[read] B\t")
	assert.Contains(t, text, "[read] 6 reads examined\n")
	assert.Contains(t, text, "[count] 3 duplicates (50.00%)\n")
	assert.Contains(t, text, "[duplicates] fingerprint 3:")

	out.Reset()
	require.NoError(t, inside(vcontext.Background(), &out, opts.DuplicatesPath, summary.DefaultOpts))
	assert.Contains(t, out.String(), "[count] 3 duplicates (100.00%)\n")
}

func TestDuplicatesErrors(t *testing.T) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	opts := markduplicates.DefaultOpts
	opts.BamFile = filepath.Join(tempDir, "missing.bam")
	opts.OutputPath = filepath.Join(tempDir, "out.bam")
	err := duplicates(&opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such file")

	in := filepath.Join(tempDir, "in.sam")
	writeInput(t, in)
	opts.BamFile = in
	opts.OutputPath = in
	err = duplicates(&opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "output must differ from the input")
}

func TestInsideMissingFile(t *testing.T) {
	var out bytes.Buffer
	err := inside(vcontext.Background(), &out, "/nonexistent/in.bam", summary.DefaultOpts)
	require.Error(t, err)
}
