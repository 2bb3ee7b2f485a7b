// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bamprovider

import (
	"io"

	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
)

// BAMProvider implements Provider for BAM files. The path may be anything
// understood by github.com/grailbio/base/file, e.g., a local pathname or an
// S3 URL when the s3 implementation is registered.
type BAMProvider struct {
	// Path of the *.bam file. Must be nonempty.
	Path string
	// Parallelism is the number of BGZF decompression goroutines per
	// iterator. Values <= 0 mean 1.
	Parallelism int

	state fileState
}

func (b *BAMProvider) open(in io.Reader) (recordReader, error) {
	rd := b.Parallelism
	if rd <= 0 {
		rd = 1
	}
	r, err := bam.NewReader(in, rd)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// GetHeader implements the Provider interface.
func (b *BAMProvider) GetHeader() (*sam.Header, error) {
	return b.state.getHeader(b.Path, b.open)
}

// NewIterator implements the Provider interface.
func (b *BAMProvider) NewIterator() Iterator {
	return b.state.newIterator(b.Path, b.open)
}

// Close implements the Provider interface.
func (b *BAMProvider) Close() error {
	return b.state.close(b.Path)
}
