// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package bamprovider

import (
	"github.com/grailbio/hts/sam"
)

// FakeProvider is only for unittests. It yields the given records.
type FakeProvider struct {
	header *sam.Header
	recs   []*sam.Record

	// NumIterators is the number of iterators created so far.
	NumIterators int
}

type fakeIterator struct {
	recs []*sam.Record
	rec  *sam.Record
}

// NewFakeProvider creates a provider that returns "header" in response to a
// GetHeader() call, and recs by every NewIterator call.
func NewFakeProvider(header *sam.Header, recs []*sam.Record) *FakeProvider {
	return &FakeProvider{header: header, recs: recs}
}

// GetHeader implements the Provider interface. It returns the header passed to
// the constructor.
func (b *FakeProvider) GetHeader() (*sam.Header, error) {
	return b.header, nil
}

// Close implements the Provider interface.
func (b *FakeProvider) Close() error {
	return nil
}

// NewIterator implements the Provider interface.
func (b *FakeProvider) NewIterator() Iterator {
	b.NumIterators++
	return &fakeIterator{recs: b.recs}
}

// Err implements the Iterator interface.
func (i *fakeIterator) Err() error {
	return nil
}

// Close implements the Iterator interface.
func (i *fakeIterator) Close() error {
	return nil
}

// Scan implements the Iterator interface.
func (i *fakeIterator) Scan() bool {
	if len(i.recs) == 0 {
		return false
	}
	i.rec = i.recs[0]
	i.recs = i.recs[1:]
	return true
}

// Record implements the Iterator interface.
func (i *fakeIterator) Record() *sam.Record {
	// Return a copy so that the code under test cannot alter the
	// original test input data.
	copy := sam.GetFromFreePool()
	*copy = *i.rec
	return copy
}
