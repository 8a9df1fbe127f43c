package peakmerge

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/motifkit/bio/encoding/peakfile"
	"github.com/motifkit/bio/genome"
	"github.com/motifkit/bio/interval"
)

func score(s *peakfile.Summit, useScaled bool) float64 {
	if useScaled {
		return s.LogValueScaled
	}
	return s.LogValue
}

// Merge clusters the summits of perFile and returns one summit per cluster,
// in (chrom, start) order.  The lists of perFile are taken as one
// concatenated sequence.
//
// Summits are extended by window/2 bases on each side, clipped to
// [0, chromosome length]; summits whose extended intervals overlap or touch
// belong to the same cluster.  The member with the highest score
// (LogValueScaled if useScaled, LogValue otherwise) wins, and ties go to the
// member that comes last in (chrom, start, list index, row) order.  The
// winner is reported with its original coordinates.
//
// Every chromosome must be present in sizes.
func Merge(perFile [][]peakfile.Summit, sizes *genome.Sizes, window int, useScaled bool) ([]interval.Entry, error) {
	if window < 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("negative window %d", window))
	}
	if sizes == nil {
		return nil, errors.E(errors.Invalid, "no chromosome sizes")
	}
	flank := interval.PosType(interval.PosTypeMax)
	if window/2 < interval.PosTypeMax {
		flank = interval.PosType(window / 2)
	}
	summits := sortSummits(perFile)
	extended := make([]interval.Entry, len(summits))
	for i := range summits {
		s := &summits[i]
		chrLen, ok := sizes.Len(s.Chrom)
		if !ok {
			msg := fmt.Sprintf("chromosome %s (summit %s of experiment %s) is not in the genome sizes", s.Chrom, s.Name, s.Experiment)
			if alt, found := sizes.Suggest(s.Chrom); found {
				msg += fmt.Sprintf("; did you mean %s?", alt)
			}
			return nil, errors.E(errors.NotExist, msg)
		}
		if s.Start >= chrLen {
			log.Error.Printf("summit %s at %s:%d is past the end of the chromosome (%d)", s.Name, s.Chrom, s.Start, chrLen)
		}
		extended[i] = interval.Slop(s.Entry(), flank, chrLen)
	}
	clusters, err := interval.Cluster(extended)
	if err != nil {
		return nil, err
	}
	merged := make([]interval.Entry, 0, len(clusters))
	for _, members := range clusters {
		best := members[0]
		bestScore := score(&summits[best], useScaled)
		for _, m := range members[1:] {
			if sc := score(&summits[m], useScaled); sc >= bestScore {
				best, bestScore = m, sc
			}
		}
		merged = append(merged, summits[best].Entry())
	}
	log.Debug.Printf("merged %d summits into %d clusters (window %d)", len(summits), len(merged), window)
	return merged, nil
}
