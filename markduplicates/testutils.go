// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package markduplicates

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/grailbio/bamdup/encoding/bamprovider"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRecord is an input record and whether it is expected to come out
// marked as a duplicate.
type TestRecord struct {
	R       *sam.Record
	DupFlag bool
}

// TestCase is a coordinate-sorted input and the options to mark it with.
type TestCase struct {
	TRecords []TestRecord
	Opts     Opts
}

// NewRecord creates a record with MapQ 60 and as many N bases as the cigar
// consumes. For mates on the same reference, TempLen is set to matePos-pos.
func NewRecord(name string, ref *sam.Reference, pos int, flags sam.Flags, matePos int, mateRef *sam.Reference, cigar sam.Cigar) *sam.Record {
	n := 0
	for _, op := range cigar {
		n += op.Len() * op.Type().Consumes().Query
	}
	seq := make([]byte, n)
	qual := make([]byte, n)
	for i := range seq {
		seq[i] = 'N'
		qual[i] = 30
	}
	r := sam.GetFromFreePool()
	*r = sam.Record{
		Name:    name,
		Ref:     ref,
		Pos:     pos,
		MapQ:    60,
		Cigar:   cigar,
		Flags:   flags,
		MateRef: mateRef,
		MatePos: matePos,
		Seq:     sam.NewSeq(seq),
		Qual:    qual,
	}
	if ref != nil && ref == mateRef && flags&sam.Paired != 0 {
		r.TempLen = matePos - pos
	}
	return r
}

// NewRecordAux is NewRecord with one aux field.
func NewRecordAux(name string, ref *sam.Reference, pos int, flags sam.Flags, matePos int, mateRef *sam.Reference,
	cigar sam.Cigar, aux sam.Aux) *sam.Record {
	r := NewRecord(name, ref, pos, flags, matePos, mateRef, cigar)
	r.AuxFields = append(r.AuxFields, aux)
	return r
}

// WithMapQ sets the mapping quality of r and returns r.
func WithMapQ(r *sam.Record, mapQ byte) *sam.Record {
	r.MapQ = mapQ
	return r
}

// NewAux creates an aux field, and panics on error.
func NewAux(name string, val interface{}) sam.Aux {
	aux, err := sam.NewAux(sam.NewTag(name), val)
	if err != nil {
		panic(fmt.Sprintf("error creating %s %v tag: %v", name, val, err))
	}
	return aux
}

// RunTestCases marks each case through a fake provider, once per output
// format, and checks the duplicate flag of every output record.
func RunTestCases(t *testing.T, header *sam.Header, cases []TestCase) {
	tempDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := vcontext.Background()

	for testIdx, test := range cases {
		for _, format := range []string{"bam", "sam"} {
			t.Logf("---- starting TestCase[%d] %s ----", testIdx, format)
			testrecords := make([]*sam.Record, 0, len(test.TRecords))
			var want []TestRecord
			for _, tr := range test.TRecords {
				testrecords = append(testrecords, tr.R)
				if !(tr.DupFlag && test.Opts.RemoveDups) {
					want = append(want, tr)
				}
			}
			provider := bamprovider.NewFakeProvider(header, testrecords)

			opts := test.Opts
			opts.OutputPath = NewTestOutput(tempDir, testIdx, format)
			opts.Format = format
			markDuplicates := &MarkDuplicates{
				Provider: provider,
				Opts:     &opts,
			}
			_, err := markDuplicates.Mark(ctx)
			require.NoError(t, err)
			for i, r := range testrecords {
				t.Logf("input[%v]: %v", i, r)
			}

			actualRecords := ReadRecords(t, opts.OutputPath)
			require.Equal(t, len(want), len(actualRecords))
			for i, r := range actualRecords {
				t.Logf("output[%v]: %v", i, r)
				assert.Equal(t, want[i].R.Name, r.Name)
				assert.Equal(t, want[i].R.Pos, r.Pos)
				assert.Equal(t, want[i].DupFlag, r.Flags&sam.Duplicate != 0,
					"duplicate flag is wrong for %s at %d", r.Name, r.Pos)
			}
		}
	}
}

// NewTestOutput returns different string filename for the different output formats.
func NewTestOutput(dir string, index int, format string) string {
	switch format {
	case "bam":
		return filepath.Join(dir, fmt.Sprintf("%d.bam", index))
	case "sam":
		return filepath.Join(dir, fmt.Sprintf("%d.sam", index))
	}
	panic(format)
}

// ReadRecords reads the records from path and returns them as a slice, in order.
func ReadRecords(t *testing.T, path string) []*sam.Record {
	records := make([]*sam.Record, 0)
	p := bamprovider.NewProvider(path)
	iter := p.NewIterator()
	for iter.Scan() {
		records = append(records, iter.Record())
	}
	assert.NoError(t, iter.Close())
	assert.NoError(t, p.Close())
	return records
}
