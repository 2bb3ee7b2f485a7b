// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package summary prints the header and the first records of a BAM or
// SAM file, along with flag counts over every record and a fingerprint
// of the records marked as duplicates.
package summary

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"hash"
	"io"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/bamdup/encoding/bam"
	"github.com/grailbio/bamdup/encoding/bamprovider"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/unsafe"
	"github.com/grailbio/hts/sam"
)

// Opts controls how much of the input is printed.
type Opts struct {
	// Refs is the max number of @SQ lines to print.
	Refs int
	// Reads is the max number of records to print.
	Reads int
}

// DefaultOpts is the default value of Opts.
var DefaultOpts = Opts{Refs: 10, Reads: 10}

// Counts holds flag counts, in the manner of samtools flagstat.
type Counts struct {
	Total         int
	Mapped        int
	Duplicate     int
	Secondary     int
	Supplementary int
	QCFail        int
	Paired        int
	ProperPair    int
	Read1, Read2  int
	// MateUnmapped counts mapped paired reads whose mate is unmapped.
	MateUnmapped int
	// DiffRef counts paired reads mapped to a different reference than their mate.
	DiffRef int
}

func (c *Counts) record(r *sam.Record) {
	c.Total++
	if bam.IsMapped(r) {
		c.Mapped++
	}
	if bam.IsDuplicate(r) {
		c.Duplicate++
	}
	if bam.IsQCFail(r) {
		c.QCFail++
	}
	if !bam.IsPrimary(r) {
		if bam.IsSecondary(r) {
			c.Secondary++
		} else {
			c.Supplementary++
		}
		return
	}
	if !bam.IsPaired(r) {
		return
	}
	c.Paired++
	if bam.IsProperPair(r) && bam.IsMapped(r) {
		c.ProperPair++
	}
	if bam.IsRead1(r) {
		c.Read1++
	}
	if bam.IsRead2(r) {
		c.Read2++
	}
	if bam.IsMapped(r) && bam.IsMateUnmapped(r) {
		c.MateUnmapped++
	}
	if bam.IsMapped(r) && !bam.IsMateUnmapped(r) && r.Ref.ID() != r.MateRef.ID() {
		c.DiffRef++
	}
}

// Fingerprint is an order-independent hash of the records marked as
// duplicates. Two files with the same duplicate-marked records have the
// same fingerprint, regardless of the order the records appear in.
type Fingerprint struct {
	// N is the number of duplicate-marked records.
	N int
	// Sum is the sum of the seahash of each record's name, flags and
	// coordinate.
	Sum uint64
}

func (f *Fingerprint) add(r *sam.Record, h hash.Hash64) {
	f.N++
	var buf [12]byte
	binary.LittleEndian.PutUint32(buf[:4], uint32(r.Flags))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(r.Ref.ID()))
	binary.LittleEndian.PutUint32(buf[8:], uint32(r.Pos))
	h.Reset()
	h.Write(unsafe.StringToBytes(r.Name)) // nolint: errcheck
	h.Write(buf[:])                       // nolint: errcheck
	f.Sum += h.Sum64()
}

// String returns the fingerprint as "N:SUM" with SUM in hex.
func (f Fingerprint) String() string {
	return fmt.Sprintf("%d:%016x", f.N, f.Sum)
}

// Summary is the result of Run.
type Summary struct {
	Counts Counts
	Dups   Fingerprint
}

// Compute reads every record from the provider, and returns the counts
// and the duplicate fingerprint without printing anything.
func Compute(ctx context.Context, provider bamprovider.Provider) (*Summary, error) {
	return Run(ctx, nil, provider, Opts{})
}

// Run prints the header summary and the first opts.Reads records to out,
// then reads the rest of the file and prints the counts and the duplicate
// fingerprint. If out is nil, nothing is printed.
func Run(ctx context.Context, out io.Writer, provider bamprovider.Provider, opts Opts) (*Summary, error) {
	header, err := provider.GetHeader()
	if err != nil {
		return nil, errors.E(err, "summary: read header")
	}
	var w *bufio.Writer
	if out != nil {
		w = bufio.NewWriter(out)
		writeHeader(w, header, opts)
		if opts.Reads > 0 {
			fmt.Fprintf(w, "[read] printing the first %d reads\n", opts.Reads)
		}
	}

	s := &Summary{}
	h := seahash.New()
	iter := provider.NewIterator()
	for iter.Scan() {
		if s.Counts.Total%10000 == 0 {
			if err := ctx.Err(); err != nil {
				iter.Close() // nolint: errcheck
				return nil, err
			}
		}
		r := iter.Record()
		if w != nil && s.Counts.Total < opts.Reads {
			fmt.Fprintf(w, "[read] %s\n", readLine(r))
		}
		s.Counts.record(r)
		if bam.IsDuplicate(r) {
			s.Dups.add(r, h)
		}
	}
	if err := iter.Close(); err != nil {
		return nil, errors.E(err, "summary: read records")
	}
	log.Debug.Printf("summary: %d records, %d duplicates", s.Counts.Total, s.Dups.N)
	if w == nil {
		return s, nil
	}
	writeCounts(w, &s.Counts)
	fmt.Fprintf(w, "[duplicates] fingerprint %v\n", s.Dups)
	if err := w.Flush(); err != nil {
		return nil, errors.E(err, "summary: write")
	}
	return s, nil
}

func writeHeader(w io.Writer, header *sam.Header, opts Opts) {
	if header.Version != "" || header.SortOrder != sam.UnknownOrder || header.GroupOrder != sam.GroupUnspecified {
		fmt.Fprintf(w, "[headerline] @HD\tVN:%s\tSO:%v\tGO:%v\n", header.Version, header.SortOrder, header.GroupOrder)
	} else {
		fmt.Fprintf(w, "[headerline] no header line found\n")
	}

	refs := header.Refs()
	if len(refs) > opts.Refs {
		fmt.Fprintf(w, "[ref] displaying the first %d reference sequences\n", opts.Refs)
	}
	for i, ref := range refs {
		if i >= opts.Refs {
			break
		}
		fmt.Fprintf(w, "[ref] %d %v\n", i, ref)
	}
	fmt.Fprintf(w, "[ref] %d reference sequences found\n", len(refs))

	if rgs := header.RGs(); len(rgs) > 0 {
		for _, rg := range rgs {
			fmt.Fprintf(w, "[readgroup] %v\n", rg)
		}
	} else {
		fmt.Fprintf(w, "[readgroup] no read group dictionary found\n")
	}
	if progs := header.Progs(); len(progs) > 0 {
		for _, p := range progs {
			fmt.Fprintf(w, "[program] %v\n", p)
		}
	} else {
		fmt.Fprintf(w, "[program] no program information found\n")
	}
	if len(header.Comments) > 0 {
		for _, c := range header.Comments {
			fmt.Fprintf(w, "[comment] @CO\t%s\n", c)
		}
	} else {
		fmt.Fprintf(w, "[comment] no comment lines found\n")
	}
}

// readLine describes the mapping of a record on one line.
func readLine(r *sam.Record) string {
	refName, mateRefName := "*", "*"
	if r.Ref != nil {
		refName = r.Ref.Name()
	}
	if r.MateRef != nil {
		mateRefName = r.MateRef.Name()
	}
	rg, ok := bam.ReadGroup(r)
	if !ok {
		rg = "*"
	}
	return fmt.Sprintf("%s\tflags=%d\t%s:%d\t%v\tmapq=%d\tmate=%s:%d\ttlen=%d\tRG=%s",
		r.Name, r.Flags, refName, r.Pos+1, r.Cigar, r.MapQ, mateRefName, r.MatePos+1, r.TempLen, rg)
}

func percent(a int, b int) string {
	if b == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", float64(a)*100/float64(b))
}

func writeCounts(w io.Writer, c *Counts) {
	fmt.Fprintf(w, "[read] %d reads examined\n", c.Total)
	fmt.Fprintf(w, "[count] %d in total\n", c.Total)
	fmt.Fprintf(w, "[count] %d secondary\n", c.Secondary)
	fmt.Fprintf(w, "[count] %d supplementary\n", c.Supplementary)
	fmt.Fprintf(w, "[count] %d duplicates (%s)\n", c.Duplicate, percent(c.Duplicate, c.Total))
	fmt.Fprintf(w, "[count] %d mapped (%s)\n", c.Mapped, percent(c.Mapped, c.Total))
	fmt.Fprintf(w, "[count] %d QC failed\n", c.QCFail)
	fmt.Fprintf(w, "[count] %d paired in sequencing\n", c.Paired)
	fmt.Fprintf(w, "[count] %d read1\n", c.Read1)
	fmt.Fprintf(w, "[count] %d read2\n", c.Read2)
	fmt.Fprintf(w, "[count] %d properly paired (%s)\n", c.ProperPair, percent(c.ProperPair, c.Paired))
	fmt.Fprintf(w, "[count] %d with mate unmapped\n", c.MateUnmapped)
	fmt.Fprintf(w, "[count] %d with mate mapped to a different reference\n", c.DiffRef)
}
