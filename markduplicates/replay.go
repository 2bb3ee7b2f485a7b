// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package markduplicates

import (
	"context"
	"fmt"

	"github.com/grailbio/bamdup/encoding/bamprovider"
	"github.com/grailbio/bamdup/encoding/bamsink"
)

// replayer is the second pass. It copies every record to the outputs, with the
// duplicate flag set iff the registry holds the record's name.
type replayer struct {
	reg        *Registry
	primary    bamsink.Sink
	dups       bamsink.Sink // nil if there is no duplicates output
	removeDups bool
	metrics    *Metrics
}

func (p *replayer) run(ctx context.Context, iter bamprovider.Iterator) error {
	for iter.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		r := iter.Record()
		p.metrics.Pass2Records++
		found, err := p.reg.Consume(r.Name)
		if err != nil {
			return err
		}
		if !found {
			clearDupFlag(r)
			if err := p.primary.Write(r); err != nil {
				return ioError(err)
			}
			p.metrics.PrimaryWritten++
			continue
		}
		setDupFlag(r)
		p.metrics.MarkedDuplicates++
		if p.dups != nil {
			if err := p.dups.Write(r); err != nil {
				return ioError(err)
			}
			p.metrics.DuplicatesWritten++
		}
		if p.removeDups {
			p.metrics.Removed++
			continue
		}
		if err := p.primary.Write(r); err != nil {
			return ioError(err)
		}
		p.metrics.PrimaryWritten++
	}
	if err := iter.Err(); err != nil {
		return ioError(err)
	}
	if n := p.reg.Len(); n > 0 {
		return &Error{
			Kind: ErrResidualRegistry,
			Err:  fmt.Errorf("%d names left, e.g. %v", n, p.reg.someNames(5)),
		}
	}
	return nil
}
