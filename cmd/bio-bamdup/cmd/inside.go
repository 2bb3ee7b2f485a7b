// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package cmd

import (
	"context"
	"io"

	"github.com/grailbio/bamdup/encoding/bamprovider"
	"github.com/grailbio/bamdup/summary"
)

func inside(ctx context.Context, out io.Writer, path string, opts summary.Opts) error {
	provider := bamprovider.NewProvider(path)
	_, err := summary.Run(ctx, out, provider, opts)
	if e := provider.Close(); e != nil && err == nil {
		err = e
	}
	return err
}
