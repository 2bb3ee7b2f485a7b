// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package bamsink writes sam.Records to BAM or SAM files, or to stdout.
package bamsink

import (
	"bufio"
	"context"
	"io"
	"os"
	"strings"

	"github.com/grailbio/bamdup/encoding/bamprovider"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/klauspost/compress/gzip"
)

// Opts controls the output encoding.
type Opts struct {
	// Format is the output encoding. If Unknown, it is guessed from the path,
	// and BAM is used if the guess fails.
	Format bamprovider.FileType
	// CompressionLevel is the BGZF or gzip level. -1 means the default of the
	// compressor.
	CompressionLevel int
	// Parallelism is the number of BGZF compression goroutines. Values <= 0
	// mean 1.
	Parallelism int
}

// DefaultOpts is the default value of Opts.
var DefaultOpts = Opts{CompressionLevel: -1, Parallelism: 1}

// Sink is a destination of records. Thread compatible.
type Sink interface {
	// Write appends r to the output.
	Write(r *sam.Record) error
	// Close flushes buffered data and closes the output. It must be called
	// exactly once.
	Close() error
}

// IsStdout returns true if path names the standard output.
func IsStdout(path string) bool {
	return path == "" || path == "-"
}

type recordWriter interface {
	Write(r *sam.Record) error
}

type sink struct {
	ctx  context.Context
	path string
	out  file.File // nil for stdout
	w    recordWriter
	// closers are run in order by Close.
	closers []func() error
}

// New creates a Sink that writes header, followed by records, to path. An
// empty path or "-" means stdout. The path may be anything understood by
// github.com/grailbio/base/file.
func New(ctx context.Context, path string, header *sam.Header, opts Opts) (Sink, error) {
	format := opts.Format
	if format == bamprovider.Unknown && !IsStdout(path) {
		format = bamprovider.GuessFileType(path)
	}
	if format == bamprovider.Unknown {
		format = bamprovider.BAM
	}
	s := &sink{ctx: ctx, path: path}
	var w io.Writer
	if IsStdout(path) {
		w = os.Stdout
	} else {
		out, err := file.Create(ctx, path)
		if err != nil {
			return nil, errors.E(err, "create", path)
		}
		s.out = out
		w = out.Writer(ctx)
	}
	if err := s.init(w, header, format, opts); err != nil {
		if s.out != nil {
			_ = s.out.Close(ctx)
		}
		return nil, errors.E(err, "write header", path)
	}
	return s, nil
}

func (s *sink) init(w io.Writer, header *sam.Header, format bamprovider.FileType, opts Opts) error {
	wc := opts.Parallelism
	if wc <= 0 {
		wc = 1
	}
	switch format {
	case bamprovider.BAM:
		bw, err := bam.NewWriterLevel(w, header, opts.CompressionLevel, wc)
		if err != nil {
			return err
		}
		s.w = bw
		s.closers = append(s.closers, bw.Close)
	case bamprovider.SAM:
		var zw *gzip.Writer
		if !IsStdout(s.path) && strings.HasSuffix(s.path, ".gz") {
			var err error
			if zw, err = gzip.NewWriterLevel(w, opts.CompressionLevel); err != nil {
				return err
			}
			w = zw
		}
		bw := bufio.NewWriter(w)
		sw, err := sam.NewWriter(bw, header, sam.FlagDecimal)
		if err != nil {
			return err
		}
		s.w = sw
		s.closers = append(s.closers, bw.Flush)
		if zw != nil {
			s.closers = append(s.closers, zw.Close)
		}
	default:
		return errors.E("unsupported output format", format.String())
	}
	return nil
}

// Write implements the Sink interface.
func (s *sink) Write(r *sam.Record) error {
	if err := s.w.Write(r); err != nil {
		return errors.E(err, "write", s.path, r.Name)
	}
	return nil
}

// Close implements the Sink interface.
func (s *sink) Close() error {
	var e errors.Once
	for _, c := range s.closers {
		e.Set(c())
	}
	if s.out != nil {
		e.Set(s.out.Close(s.ctx))
	}
	if err := e.Err(); err != nil {
		return errors.E(err, "close", s.path)
	}
	return nil
}
