// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package main

/*
  bio-bamdup marks or removes duplicate reads in a coordinate-sorted BAM
  or SAM file. For more information, see
  github.com/grailbio/bamdup/markduplicates/doc.go
*/

import "github.com/grailbio/bamdup/cmd/bio-bamdup/cmd"

func main() {
	cmd.Run()
}
