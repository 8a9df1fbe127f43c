// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/motifkit/bio/encoding/bgzf"
	"github.com/motifkit/bio/encoding/peakfile"
	"github.com/motifkit/bio/genome"
	"github.com/motifkit/bio/peakmerge"
	"v.io/x/lib/cmdline"
)

// stringsFlag collects the values of a repeated flag.
type stringsFlag []string

func (f *stringsFlag) String() string {
	return strings.Join(*f, ",")
}

func (f *stringsFlag) Set(v string) error {
	*f = append(*f, v)
	return nil
}

type combineFlags struct {
	inputs        stringsFlag
	genome        string
	window        int
	scale         bool
	globalScale   bool
	labels        string
	labelFromName bool
	genomesDir    string
	region        string
	includeBED    string
	excludeBED    string
	diagnostics   string
	output        string
	parallelism   int
}

const combineLong = `bio-combine-peaks clusters the summits of narrowPeak or summit BED files
that lie within a window of each other and prints the best summit of each
cluster as "chrom<TAB>start<TAB>end", sorted by chromosome and position.`

// outputCompressionLevel is the deflate level of bgzf output.
const outputCompressionLevel = 6

func newCmdCombinePeaks() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "bio-combine-peaks",
		Short:    "Combine the summits of several peak files",
		Long:     combineLong,
		ArgsName: "[input ...]",
		ArgsLong: "Inputs may be given with -i or as positional arguments.",
	}
	flags := combineFlags{}
	cmd.Flags.Var(&flags.inputs, "i", "Input narrowPeak or summit BED file; may be repeated")
	cmd.Flags.Var(&flags.inputs, "input", "Same as -i")
	cmd.Flags.StringVar(&flags.genome, "g", "", "Genome name, or chromosome sizes / .fai / FASTA / BAM path (required)")
	cmd.Flags.StringVar(&flags.genome, "genome", "", "Same as -g")
	cmd.Flags.IntVar(&flags.window, "w", peakmerge.DefaultOpts.Window, "Window size in bases; summits closer than this are merged")
	cmd.Flags.IntVar(&flags.window, "window", peakmerge.DefaultOpts.Window, "Same as -w")
	cmd.Flags.BoolVar(&flags.scale, "s", peakmerge.DefaultOpts.UseScaled, "Select summits by standardized log score instead of log score")
	cmd.Flags.BoolVar(&flags.scale, "scale", peakmerge.DefaultOpts.UseScaled, "Same as -s")
	cmd.Flags.BoolVar(&flags.globalScale, "global-scale", peakmerge.DefaultOpts.GlobalScale, "Standardize scores over all inputs instead of per file")
	cmd.Flags.StringVar(&flags.labels, "labels", "", "Comma-separated experiment labels, one per input. Defaults to the input base names")
	cmd.Flags.BoolVar(&flags.labelFromName, "label-from-name", false, `Derive each file's experiment label from the name of its first record, minus "_peak_1"`)
	cmd.Flags.StringVar(&flags.genomesDir, "genomes-dir", "", "Colon-separated directories with installed genomes. Defaults to $"+genome.DirsEnv+" or ~/.local/share/genomes")
	cmd.Flags.StringVar(&flags.region, "region", "", "Restrict to one region. Format as <contig ID>:<1-based first pos>-<last pos>, <contig ID>:<1-based pos>, or just <contig ID>")
	cmd.Flags.StringVar(&flags.includeBED, "include-bed", "", "Keep only summits inside the intervals of this BED file")
	cmd.Flags.StringVar(&flags.excludeBED, "exclude-bed", "", "Drop summits inside the intervals of this BED file")
	cmd.Flags.StringVar(&flags.diagnostics, "diagnostics", "", "Write per-experiment score distribution tables to <prefix>.log_value.tsv and <prefix>.log_value_scaled.tsv")
	cmd.Flags.StringVar(&flags.output, "o", "", "Output path; stdout if empty. Paths ending in .gz or .bgz are bgzf compressed")
	cmd.Flags.StringVar(&flags.output, "output", "", "Same as -o")
	cmd.Flags.IntVar(&flags.parallelism, "parallelism", peakmerge.DefaultOpts.Parallelism, "Maximum number of input files loaded at once; 0 = all")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		return combinePeaks(env, flags, argv)
	})
	return cmd
}

func combinePeaks(env *cmdline.Env, flags combineFlags, argv []string) error {
	ctx := vcontext.Background()
	paths := append(append([]string{}, flags.inputs...), argv...)
	if len(paths) == 0 {
		return env.UsageErrorf("no input files")
	}
	if flags.genome == "" {
		return env.UsageErrorf("-genome is required")
	}
	// All inputs are checked before anything is written to stdout.
	if missing := peakmerge.MissingInputs(ctx, paths); len(missing) > 0 {
		for _, path := range missing {
			fmt.Fprintf(env.Stderr, "File %s does not exist!\n", path)
		}
		return cmdline.ErrExitCode(1)
	}
	inputs, err := sources(paths, flags.labels, flags.labelFromName)
	if err != nil {
		return env.UsageErrorf("%v", err)
	}
	opts := peakmerge.Opts{
		Window:            flags.window,
		UseScaled:         flags.scale,
		GlobalScale:       flags.globalScale,
		Region:            flags.region,
		IncludeBED:        flags.includeBED,
		ExcludeBED:        flags.excludeBED,
		DiagnosticsPrefix: flags.diagnostics,
		Parallelism:       flags.parallelism,
	}
	if flags.genomesDir != "" {
		opts.GenomeDirs = genome.SplitDirs(flags.genomesDir)
	} else if v, ok := env.Vars[genome.DirsEnv]; ok && v != "" {
		opts.GenomeDirs = genome.SplitDirs(v)
	}
	log.Debug.Printf("combining %d files: %+v", len(inputs), opts)
	if flags.output == "" {
		return peakmerge.Combine(ctx, inputs, flags.genome, opts, env.Stdout)
	}
	w, closeOutput, err := createOutput(ctx, flags.output)
	if err != nil {
		return err
	}
	err = peakmerge.Combine(ctx, inputs, flags.genome, opts, w)
	if e := closeOutput(); e != nil && err == nil {
		err = e
	}
	return err
}

// createOutput creates path for writing.  .gz and .bgz paths get a bgzf
// stream, which tabix can index since the output is sorted.
func createOutput(ctx context.Context, path string) (io.Writer, func() error, error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	if fileio.DetermineType(path) != fileio.Gzip && !strings.HasSuffix(path, ".bgz") {
		return out.Writer(ctx), func() error { return out.Close(ctx) }, nil
	}
	bw, err := bgzf.NewWriter(out.Writer(ctx), outputCompressionLevel)
	if err != nil {
		_ = out.Close(ctx)
		return nil, nil, err
	}
	closeOutput := func() error {
		err := bw.Close()
		if e := out.Close(ctx); e != nil && err == nil {
			err = e
		}
		return err
	}
	return bw, closeOutput, nil
}

// sources pairs paths with their experiment labels.
func sources(paths []string, labels string, labelFromName bool) ([]peakfile.Source, error) {
	var labelList []string
	if labels != "" {
		if labelFromName {
			return nil, fmt.Errorf("-labels and -label-from-name are mutually exclusive")
		}
		labelList = strings.Split(labels, ",")
		if len(labelList) != len(paths) {
			return nil, fmt.Errorf("got %d labels for %d inputs", len(labelList), len(paths))
		}
	}
	inputs := make([]peakfile.Source, len(paths))
	for i, path := range paths {
		inputs[i] = peakfile.Source{Path: path, LabelFromName: labelFromName}
		switch {
		case labelList != nil:
			if labelList[i] == "" {
				return nil, fmt.Errorf("empty label for %s", path)
			}
			inputs[i].Experiment = labelList[i]
		case !labelFromName:
			inputs[i].Experiment = peakfile.ExperimentLabel(path)
		}
	}
	return inputs, nil
}

func main() {
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(newCmdCombinePeaks())
}
