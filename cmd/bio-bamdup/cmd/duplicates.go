// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package cmd

import (
	"github.com/grailbio/bamdup/encoding/bamprovider"
	"github.com/grailbio/bamdup/markduplicates"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
)

func duplicates(opts *markduplicates.Opts) (err error) {
	provider := bamprovider.NewProvider(opts.BamFile)
	defer func() {
		if e := provider.Close(); e != nil && err == nil {
			err = errors.E(e, "close", opts.BamFile)
		}
	}()
	log.Debug.Printf("duplicates: %+v", *opts)
	return markduplicates.SetupAndMark(vcontext.Background(), provider, opts)
}
