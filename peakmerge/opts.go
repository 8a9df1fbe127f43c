// Package peakmerge consolidates the summits of several peak files into one
// representative summit per genomic locus.
//
// Summits closer than the clustering window are grouped: every summit is
// extended by window/2 bases on each side (clipped to the chromosome), and
// summits whose extended intervals overlap or touch form a cluster.  The
// summit with the highest score of each cluster is reported with its original
// single-base coordinates.
package peakmerge

// Opts holds the settings of Combine.
type Opts struct {
	// Window is the clustering window in bases; summits are extended by
	// Window/2 on each side.
	Window int
	// UseScaled selects summits by LogValueScaled instead of LogValue.
	UseScaled bool
	// GlobalScale standardizes LogValue over all loaded summits instead of
	// within each file.
	GlobalScale bool

	// Region restricts the summits to one region, formatted as
	// <chrom>:<1-based first pos>-<last pos>, <chrom>:<1-based pos> or <chrom>.
	Region string
	// IncludeBED keeps only the summits inside the intervals of a BED file.
	IncludeBED string
	// ExcludeBED drops the summits inside the intervals of a BED file.
	ExcludeBED string

	// DiagnosticsPrefix, when set, names the per-experiment score distribution
	// tables <prefix>.log_value.tsv and <prefix>.log_value_scaled.tsv.
	DiagnosticsPrefix string

	// GenomeDirs are searched for installed genomes.  genome.DefaultDirs() is
	// used when nil.
	GenomeDirs []string
	// Parallelism bounds the number of files loaded at once; 0 loads all of
	// them concurrently.
	Parallelism int
}

// DefaultOpts are the settings of a plain invocation.
var DefaultOpts = Opts{
	Window:      200,
	UseScaled:   false,
	GlobalScale: false,
	Parallelism: 0,
}
