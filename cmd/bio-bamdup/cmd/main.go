// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/bamdup/markduplicates"
	"github.com/grailbio/bamdup/summary"
	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/vcontext"
	"v.io/x/lib/cmdline"
)

func newCmdDuplicates() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "duplicates",
		Short: "Mark or remove duplicate reads",
		Long: `Duplicates reads a coordinate-sorted BAM or SAM file twice. The first pass
finds the names of the duplicate reads, the second writes every read to the
output with the duplicate flag set or cleared.`,
		ArgsName: "path",
	}
	opts := markduplicates.DefaultOpts
	mode := cmd.Flags.String("mode", opts.Mode.String(), `Which reads are compared. One of:
  all: unpaired reads are compared to unpaired reads, paired to paired
  as-single-end: paired reads are compared as if they were unpaired
  single-end-only: only unpaired reads are compared, paired reads are never duplicates
  paired-end-only: only paired reads are compared, unpaired reads are never duplicates`)
	cmd.Flags.StringVar(&opts.OutputPath, "output", "", "Output filename. Standard output if empty or '-'")
	cmd.Flags.StringVar(&opts.DuplicatesPath, "duplicates-output", "", "If set, duplicate reads are also written to this file")
	cmd.Flags.StringVar(&opts.Format, "format", opts.Format, `Output format. Value is either "bam" or "sam".
If empty, the format is guessed from each output's name; standard output is BAM.`)
	cmd.Flags.BoolVar(&opts.RemoveDups, "remove-dups", opts.RemoveDups, "Remove duplicates from the output instead of flagging them")
	cmd.Flags.StringVar(&opts.MetricsFile, "metrics", "", "Output metrics file")
	cmd.Flags.IntVar(&opts.CompressionLevel, "compression-level", opts.CompressionLevel, "Output compression level, in [-1, 9]. -1 means the default level")
	cmd.Flags.IntVar(&opts.Parallelism, "parallelism", opts.Parallelism, "Number of goroutines used to compress BAM output")
	cmd.Flags.IntVar(&opts.Progress, "progress", opts.Progress, "Log progress every this many reads; 0 disables")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("duplicates takes one pathname argument, but got %v", argv)
		}
		m, err := markduplicates.ParseDetectMode(*mode)
		if err != nil {
			return err
		}
		opts.Mode = m
		opts.BamFile = argv[0]
		opts.CommandLine = strings.Join(os.Args, " ")
		return duplicates(&opts)
	})
	return cmd
}

func newCmdInside() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "inside",
		Short:    "Summarize the header and reads of a BAM or SAM file",
		ArgsName: "path",
	}
	opts := summary.DefaultOpts
	cmd.Flags.IntVar(&opts.Refs, "refs", opts.Refs, "Print this many reference sequences")
	cmd.Flags.IntVar(&opts.Reads, "reads", opts.Reads, "Print this many reads")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 1 {
			return fmt.Errorf("inside takes one pathname argument, but got %v", argv)
		}
		return inside(vcontext.Background(), env.Stdout, argv[0], opts)
	})
	return cmd
}

// Run runs the bio-bamdup command line and exits.
func Run() {
	shutdown := grail.Init()
	cmdline.HideGlobalFlagsExcept()
	root := &cmdline.Command{
		Name:     "bio-bamdup",
		Short:    "Tools for finding duplicate reads in coordinate-sorted BAM and SAM files",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdDuplicates(),
			newCmdInside(),
		},
	}
	env := cmdline.EnvFromOS()
	err := cmdline.ParseAndRun(root, env, os.Args[1:])
	shutdown()
	os.Exit(cmdline.ExitCode(err, env.Stderr))
}
