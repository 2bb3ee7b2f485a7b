// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package markduplicates

import (
	"fmt"

	"github.com/grailbio/bamdup/encoding/bamprovider"
	"github.com/grailbio/bamdup/encoding/bamsink"
)

func validate(opts *Opts) error {
	if opts.BamFile == "" {
		return fmt.Errorf("you must specify an input BAM or SAM file")
	}
	if opts.Format != "" && bamprovider.ParseFileType(opts.Format) == bamprovider.Unknown {
		return fmt.Errorf("unknown output format %s", opts.Format)
	}
	if _, ok := detectModeNames[opts.Mode]; !ok {
		return fmt.Errorf("unknown detection mode %v", opts.Mode)
	}
	if opts.CompressionLevel < -1 || opts.CompressionLevel > 9 {
		return fmt.Errorf("compression-level must be in [-1, 9], got %d", opts.CompressionLevel)
	}
	if opts.Progress < 0 {
		return fmt.Errorf("progress must be non-negative")
	}
	if opts.DuplicatesPath != "" {
		if opts.DuplicatesPath == opts.OutputPath ||
			(bamsink.IsStdout(opts.DuplicatesPath) && bamsink.IsStdout(opts.OutputPath)) {
			return fmt.Errorf("duplicates-output must differ from output")
		}
		if opts.DuplicatesPath == opts.BamFile {
			return fmt.Errorf("duplicates-output must differ from the input")
		}
	}
	if opts.OutputPath == opts.BamFile {
		return fmt.Errorf("output must differ from the input")
	}
	return nil
}
