// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package bamprovider provides rewindable sequential readers for BAM and SAM
// files.
//
// A Provider owns one input path. Each call to Provider.NewIterator reopens the
// input and yields records from the first one, in file order, so a caller can
// make any number of passes over the same data.
package bamprovider
