// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bamprovider

import (
	"io"
	"sync"

	"github.com/grailbio/base/errorreporter"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/sam"
	"github.com/pkg/errors"
	"v.io/x/lib/vlog"
)

// recordReader is the part of bam.Reader and sam.Reader that the iterators
// need.
type recordReader interface {
	Header() *sam.Header
	Read() (*sam.Record, error)
	Close() error
}

// openFunc creates a recordReader over the raw file contents.
type openFunc func(in io.Reader) (recordReader, error)

// fileState is shared by the file-backed providers. It caches the header and
// tracks the iterators that are still open.
type fileState struct {
	err errorreporter.T

	mu      sync.Mutex
	nActive int
	header  *sam.Header
}

func (s *fileState) getHeader(path string, open openFunc) (*sam.Header, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.header != nil {
		return s.header, nil
	}

	ctx := vcontext.Background()
	in, err := file.Open(ctx, path)
	if err != nil {
		s.err.Set(err)
		return nil, err
	}
	defer in.Close(ctx) // nolint: errcheck
	r, err := open(in.Reader(ctx))
	if err != nil {
		err = errors.Wrapf(err, "%s: read header", path)
		s.err.Set(err)
		return nil, err
	}
	s.header = r.Header()
	if err := r.Close(); err != nil {
		vlog.Errorf("%s: close: %v", path, err)
	}
	return s.header, nil
}

// newIterator opens path and returns an iterator positioned before its first
// record. On error, it returns an iterator that yields nothing.
func (s *fileState) newIterator(path string, open openFunc) Iterator {
	ctx := vcontext.Background()
	in, err := file.Open(ctx, path)
	if err != nil {
		s.err.Set(err)
		return NewErrorIterator(err)
	}
	r, err := open(in.Reader(ctx))
	if err != nil {
		_ = in.Close(ctx)
		err = errors.Wrapf(err, "%s: open", path)
		s.err.Set(err)
		return NewErrorIterator(err)
	}
	s.mu.Lock()
	s.nActive++
	s.mu.Unlock()
	return &fileIterator{state: s, path: path, in: in, reader: r}
}

func (s *fileState) release(err error) {
	s.err.Set(err)
	s.mu.Lock()
	s.nActive--
	if s.nActive < 0 {
		vlog.Fatalf("Negative active count for %+v", s)
	}
	s.mu.Unlock()
}

func (s *fileState) close(path string) error {
	s.mu.Lock()
	n := s.nActive
	s.mu.Unlock()
	if n > 0 {
		vlog.Fatalf("%s: %d iterators still active", path, n)
	}
	return s.err.Err()
}

// fileIterator reads one file sequentially from its first record.
type fileIterator struct {
	state  *fileState
	path   string
	in     file.File
	reader recordReader

	next   *sam.Record
	err    error
	closed bool
}

// Scan implements the Iterator interface.
func (i *fileIterator) Scan() bool {
	if i.closed {
		vlog.Fatal("Reusing iterator")
	}
	if i.err != nil {
		return false
	}
	i.next, i.err = i.reader.Read()
	if i.err != nil {
		if i.err != io.EOF {
			i.err = errors.Wrapf(i.err, "%s: read record", i.path)
		}
		i.next = nil
		return false
	}
	return true
}

// Record implements the Iterator interface.
func (i *fileIterator) Record() *sam.Record {
	return i.next
}

// Err implements the Iterator interface.
func (i *fileIterator) Err() error {
	if i.err == io.EOF {
		return nil
	}
	return i.err
}

// Close implements the Iterator interface.
func (i *fileIterator) Close() error {
	if i.closed {
		vlog.Fatal("Iterator closed twice")
	}
	i.closed = true
	if err := i.reader.Close(); err != nil && i.Err() == nil {
		i.err = errors.Wrapf(err, "%s: close reader", i.path)
	}
	if err := i.in.Close(vcontext.Background()); err != nil && i.Err() == nil {
		i.err = errors.Wrapf(err, "%s: close", i.path)
	}
	err := i.Err()
	i.state.release(err)
	return err
}
