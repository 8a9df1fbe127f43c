package peakfile

import (
	"path/filepath"
	"strings"

	"github.com/grailbio/base/fileio"
)

// firstPeakSuffix is the name suffix MACS gives to the first peak of a file.
const firstPeakSuffix = "_peak_1"

// ExperimentFromName derives an experiment label from the name of the first
// record of a MACS file by removing "_peak_1", so "ctcf_rep1_peak_1" becomes
// "ctcf_rep1".  Names that do not contain the suffix are returned unchanged.
func ExperimentFromName(name string) string {
	return strings.Replace(name, firstPeakSuffix, "", -1)
}

// ExperimentLabel returns the default label of a peak file: its base name
// without compression and format extensions, so "data/ctcf.narrowPeak.gz"
// becomes "ctcf".
func ExperimentLabel(path string) string {
	base := filepath.Base(path)
	if fileio.DetermineType(base) == fileio.Gzip {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	}
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
