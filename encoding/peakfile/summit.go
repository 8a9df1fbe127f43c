// Package peakfile reads peak caller output (MACS-style narrowPeak files and
// BED files of single-base summits) into normalized Summit records.
//
// Every summit carries a significance Value, its natural log transform
// LogValue = ln(1 + Value), and LogValueScaled, the LogValue standardized to
// zero mean and unit variance.  Read standardizes within the file being read;
// call Standardize on a concatenation to standardize across files instead.
package peakfile

import (
	"fmt"

	"github.com/motifkit/bio/interval"
)

// FileType identifies the layout of a peak file.
type FileType int

const (
	// Unknown is returned when the layout cannot be determined.
	Unknown FileType = iota
	// NarrowPeak is the 10-column ENCODE narrowPeak layout: chrom, start, end,
	// name, score, strand, signalValue, pValue, qValue, peak (summit offset).
	NarrowPeak
	// SummitBED is a 5-column BED of single-base summits: chrom, start, end,
	// name, value.
	SummitBED
)

const (
	narrowPeakColumns = 10
	summitBEDColumns  = 5
)

func (t FileType) String() string {
	switch t {
	case NarrowPeak:
		return "narrowPeak"
	case SummitBED:
		return "bed"
	}
	return "unknown"
}

// Summit is one summit read from a peak file.  Start and End are 0-based,
// half-open, and End == Start+1.
type Summit struct {
	Chrom      string
	Start, End interval.PosType
	Name       string
	// Value is the qValue column of narrowPeak files and the 5th column of
	// summit BED files.
	Value float64
	// Experiment identifies the sample the summit came from.
	Experiment     string
	LogValue       float64
	LogValueScaled float64

	// File is the index of the source in a multi-file load; Row is the index of
	// the summit within its file.  Together they define input order.
	File, Row int
}

// Entry returns the summit's interval.
func (s *Summit) Entry() interval.Entry {
	return interval.Entry{ChrName: s.Chrom, Start0: s.Start, End: s.End}
}

// Source names a peak file and the experiment label of its summits.
type Source struct {
	Path string
	// Experiment is applied to every summit of the file.  It is required unless
	// LabelFromName is set.
	Experiment string
	// LabelFromName derives the label from the name of the first record with
	// ExperimentFromName, and applies it to the whole file.  It only works when
	// every record is named "<experiment>_peak_<n>".
	LabelFromName bool
}

// FormatError reports a peak file that cannot be parsed.
type FormatError struct {
	Path string
	// Line is 1-based; 0 when the error is not tied to a line.
	Line int
	Msg  string
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Msg)
}
