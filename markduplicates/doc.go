// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

/*
Package markduplicates marks or removes duplicate reads in a
coordinate-sorted BAM or SAM file, using memory proportional to the
number of duplicates rather than the size of the file.

Duplicate Marking Concepts:

Two reads A and B are duplicates (isDuplicate(A, B)) if their
reference, alignment position, strand, read group, query length and
aligned length are all identical. A read without an RG tag only
matches another read without one. Unless paired reads are treated
as single-end reads, two paired reads must also agree on their mate's
reference, position and strand, and a paired read never matches an
unpaired one.

Among a set of duplicates, the read with the highest mapping quality
is kept; on a tie the read that appears first in the input is kept.
All the others are duplicates.

Reads that are unmapped, or paired with an unmapped mate, are never
duplicates. The detection mode can further restrict the comparison
to unpaired reads only or to paired reads only.

Implementation:

Since reads only match other reads at the same position, the first
pass reads the input once, one position group at a time, and sorts
out the duplicates of each group. It fails as soon as a read's
position is smaller than its predecessor's.

A pair is a duplicate only if both of its reads are duplicates, but
the two reads are usually far apart in the input. The first pass
therefore keeps a registry from read name to state:

	single-end:  an unpaired read with this name is a duplicate.
	paired-half: one read of the pair is a duplicate.
	paired-both: both reads of the pair are duplicates.

A losing paired read whose mate comes earlier in the input, judging
by the mate's reference and the sign of the insert size, and whose
name is not registered, belongs to a pair whose first read did not
lose; it is dropped. At the end of the first pass, the paired-half
entries are removed, since their mate never lost.

The second pass rereads the input from the start and writes every
read, with the duplicate flag set iff its name is registered. Each
registered read uses up its entry: single-end and paired-half entries
are erased, paired-both entries become paired-half. The registry
must be empty at the end.
*/
package markduplicates
