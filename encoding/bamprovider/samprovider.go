// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bamprovider

import (
	"io"

	"github.com/grailbio/hts/sam"
	"github.com/klauspost/compress/gzip"
)

// SAMProvider implements Provider for text SAM files. Paths ending in ".gz"
// are decompressed on the fly.
type SAMProvider struct {
	// Path of the *.sam or *.sam.gz file. Must be nonempty.
	Path string

	state fileState
}

// samReader adds Close to sam.Reader.
type samReader struct {
	*sam.Reader
	gz io.Closer
}

func (r *samReader) Close() error {
	if r.gz != nil {
		return r.gz.Close()
	}
	return nil
}

func (s *SAMProvider) open(in io.Reader) (recordReader, error) {
	var gz io.Closer
	if isGzipped(s.Path) {
		zr, err := gzip.NewReader(in)
		if err != nil {
			return nil, err
		}
		in, gz = zr, zr
	}
	r, err := sam.NewReader(in)
	if err != nil {
		if gz != nil {
			_ = gz.Close()
		}
		return nil, err
	}
	return &samReader{Reader: r, gz: gz}, nil
}

// GetHeader implements the Provider interface.
func (s *SAMProvider) GetHeader() (*sam.Header, error) {
	return s.state.getHeader(s.Path, s.open)
}

// NewIterator implements the Provider interface.
func (s *SAMProvider) NewIterator() Iterator {
	return s.state.newIterator(s.Path, s.open)
}

// Close implements the Provider interface.
func (s *SAMProvider) Close() error {
	return s.state.close(s.Path)
}
