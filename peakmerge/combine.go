package peakmerge

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/motifkit/bio/encoding/peakfile"
	"github.com/motifkit/bio/genome"
	"github.com/motifkit/bio/interval"
)

// MissingInputs returns the paths that do not exist, in input order.
func MissingInputs(ctx context.Context, paths []string) []string {
	var missing []string
	for _, path := range paths {
		if _, err := file.Stat(ctx, path); err != nil {
			missing = append(missing, path)
		}
	}
	return missing
}

// Combine loads the summits of inputs, merges them with Merge and writes
// one "chrom\tstart\tend" line per cluster to w.
//
// genomeArg is resolved with genome.Load against opts.GenomeDirs.  Scores
// are standardized per file unless opts.GlobalScale is set.  Region filters
// are applied after scoring, so they restrict the output without changing the
// scores of the remaining summits.
func Combine(ctx context.Context, inputs []peakfile.Source, genomeArg string, opts Opts, w io.Writer) error {
	if opts.Window < 0 {
		return errors.E(errors.Invalid, fmt.Sprintf("negative window %d", opts.Window))
	}
	paths := make([]string, len(inputs))
	for i, src := range inputs {
		paths[i] = src.Path
	}
	if missing := MissingInputs(ctx, paths); len(missing) > 0 {
		return errors.E(errors.NotExist, "missing inputs:", strings.Join(missing, ", "))
	}
	dirs := opts.GenomeDirs
	if dirs == nil {
		dirs = genome.DefaultDirs()
	}
	sizes, err := genome.Load(ctx, genomeArg, dirs)
	if err != nil {
		return err
	}
	perFile, err := peakfile.ReadAll(ctx, inputs, opts.Parallelism)
	if err != nil {
		return err
	}
	if opts.GlobalScale {
		standardizeGlobally(perFile)
	}
	filter, err := newSummitFilter(ctx, opts)
	if err != nil {
		return err
	}
	perFile = filter.apply(perFile)
	if opts.DiagnosticsPrefix != "" {
		if err = writeDiagnostics(ctx, opts.DiagnosticsPrefix, perFile); err != nil {
			return err
		}
	}
	merged, err := Merge(perFile, sizes, opts.Window, opts.UseScaled)
	if err != nil {
		return err
	}
	return writeEntries(w, merged)
}

// standardizeGlobally recomputes LogValueScaled over the concatenation of
// perFile.
func standardizeGlobally(perFile [][]peakfile.Summit) {
	var all []peakfile.Summit
	for _, summits := range perFile {
		all = append(all, summits...)
	}
	peakfile.Standardize(all)
	k := 0
	for _, summits := range perFile {
		for j := range summits {
			summits[j].LogValueScaled = all[k].LogValueScaled
			k++
		}
	}
}

func writeEntries(w io.Writer, entries []interval.Entry) error {
	out := tsv.NewWriter(w)
	for _, e := range entries {
		out.WriteString(e.ChrName)
		out.WriteInt64(int64(e.Start0))
		out.WriteInt64(int64(e.End))
		if err := out.EndLine(); err != nil {
			return err
		}
	}
	if err := out.Flush(); err != nil {
		return err
	}
	log.Debug.Printf("wrote %d summits", len(entries))
	return nil
}
