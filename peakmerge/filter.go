package peakmerge

import (
	"context"

	"github.com/grailbio/base/log"
	"github.com/motifkit/bio/encoding/peakfile"
	"github.com/motifkit/bio/interval"
)

// summitFilter implements Opts.Region, Opts.IncludeBED and Opts.ExcludeBED.
type summitFilter struct {
	region  *interval.Entry
	include *interval.RegionSet
	exclude *interval.RegionSet
}

func newSummitFilter(ctx context.Context, opts Opts) (*summitFilter, error) {
	f := &summitFilter{}
	if opts.Region != "" {
		region, err := interval.ParseRegionString(opts.Region)
		if err != nil {
			return nil, err
		}
		f.region = &region
	}
	var err error
	if opts.IncludeBED != "" {
		if f.include, err = interval.NewRegionSetFromPath(ctx, opts.IncludeBED); err != nil {
			return nil, err
		}
		log.Debug.Printf("%s: intervals on %d chromosomes", opts.IncludeBED, f.include.NumChromosomes())
	}
	if opts.ExcludeBED != "" {
		if f.exclude, err = interval.NewRegionSetFromPath(ctx, opts.ExcludeBED); err != nil {
			return nil, err
		}
		log.Debug.Printf("%s: intervals on %d chromosomes", opts.ExcludeBED, f.exclude.NumChromosomes())
	}
	return f, nil
}

func (f *summitFilter) active() bool {
	return f.region != nil || f.include != nil || f.exclude != nil
}

func (f *summitFilter) keep(s *peakfile.Summit) bool {
	if f.region != nil && !f.region.Contains(s.Chrom, s.Start) {
		return false
	}
	if f.include != nil && !f.include.Contains(s.Chrom, s.Start) {
		return false
	}
	if f.exclude != nil && f.exclude.Contains(s.Chrom, s.Start) {
		return false
	}
	return true
}

// apply drops the summits rejected by f, keeping the order of the rest.  The
// lists are filtered in place.
func (f *summitFilter) apply(perFile [][]peakfile.Summit) [][]peakfile.Summit {
	if !f.active() {
		return perFile
	}
	nIn, nOut := 0, 0
	for i, summits := range perFile {
		kept := summits[:0]
		for j := range summits {
			if f.keep(&summits[j]) {
				kept = append(kept, summits[j])
			}
		}
		nIn += len(summits)
		nOut += len(kept)
		perFile[i] = kept
	}
	log.Printf("region filters kept %d of %d summits", nOut, nIn)
	return perFile
}
