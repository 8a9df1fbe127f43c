package genome

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// maxSuggestDistance is the largest edit distance at which Suggest proposes
// a chromosome name.
const maxSuggestDistance = 2

// Suggest returns the chromosome of s whose name is closest to chrom, for
// error messages about chromosomes missing from s.  UCSC ("chr1") and
// Ensembl ("1") spellings of the same chromosome match each other; otherwise
// the closest name by Levenshtein distance is returned, if it is within
// maxSuggestDistance edits.  Ties go to the name read first.
func (s *Sizes) Suggest(chrom string) (string, bool) {
	var alt string
	if strings.HasPrefix(chrom, "chr") {
		alt = strings.TrimPrefix(chrom, "chr")
	} else {
		alt = "chr" + chrom
	}
	if _, ok := s.lens[alt]; ok && alt != "" {
		return alt, true
	}
	best, bestDist := "", maxSuggestDistance+1
	for _, name := range s.names {
		if d := matchr.Levenshtein(chrom, name); d < bestDist {
			best, bestDist = name, d
		}
	}
	return best, best != ""
}
