package peakfile

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/klauspost/compress/gzip"
	"github.com/motifkit/bio/interval"
)

const maxLineSize = 1 << 20

// noPointSource is the narrowPeak peak column of a peak without a summit.
const noPointSource = -1

// DetermineType decides the layout of a peak file from its path and the
// number of columns of its first data line.  A ".narrowPeak" extension
// (optionally followed by ".gz") wins over the column count.
func DetermineType(path string, nColumns int) FileType {
	if fileio.DetermineType(path) == fileio.Gzip {
		path = strings.TrimSuffix(path, filepath.Ext(path))
	}
	if strings.EqualFold(filepath.Ext(path), ".narrowPeak") {
		return NarrowPeak
	}
	switch nColumns {
	case narrowPeakColumns:
		return NarrowPeak
	case summitBEDColumns:
		return SummitBED
	}
	return Unknown
}

// Read loads all summits of src.Path and computes their scores, standardizing
// LogValue within the file.  It returns a *FormatError when the layout cannot
// be determined or a record is malformed.
func Read(ctx context.Context, src Source) (summits []Summit, err error) {
	if src.Experiment == "" && !src.LabelFromName {
		return nil, errors.E(errors.Invalid, "no experiment label for", src.Path)
	}
	var in file.File
	if in, err = file.Open(ctx, src.Path); err != nil {
		return nil, err
	}
	defer file.CloseAndReport(ctx, in, &err)
	reader := io.Reader(in.Reader(ctx))
	if fileio.DetermineType(src.Path) == fileio.Gzip {
		if reader, err = gzip.NewReader(reader); err != nil {
			return nil, errors.E(err, src.Path)
		}
	}
	if summits, err = parse(reader, src); err != nil {
		return nil, err
	}
	Standardize(summits)
	log.Debug.Printf("%s: %d summits (experiment %s)", src.Path, len(summits), experimentOf(summits, src))
	return summits, nil
}

// ReadAll loads every source with Read, running up to parallelism loads at a
// time (all of them when parallelism <= 0).  The result is indexed like
// sources, and every summit's File field is its source index.
func ReadAll(ctx context.Context, sources []Source, parallelism int) ([][]Summit, error) {
	if parallelism <= 0 || parallelism > len(sources) {
		parallelism = len(sources)
	}
	results := make([][]Summit, len(sources))
	if len(sources) == 0 {
		return results, nil
	}
	err := traverse.Each(parallelism, func(jobIdx int) error {
		startIdx := (jobIdx * len(sources)) / parallelism
		endIdx := ((jobIdx + 1) * len(sources)) / parallelism
		for i := startIdx; i < endIdx; i++ {
			summits, err := Read(ctx, sources[i])
			if err != nil {
				return err
			}
			for j := range summits {
				summits[j].File = i
			}
			results[i] = summits
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func parse(reader io.Reader, src Source) ([]Summit, error) {
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(nil, maxLineSize)
	var (
		// One extra slot detects surplus columns.
		tokens     [narrowPeakColumns + 1][]byte
		summits    []Summit
		fileType   = Unknown
		experiment = src.Experiment
		lineIdx    int
	)
	formatErr := func(format string, args ...interface{}) error {
		return &FormatError{Path: src.Path, Line: lineIdx, Msg: fmt.Sprintf(format, args...)}
	}
	for scanner.Scan() {
		lineIdx++
		nToken := interval.GetTokens(tokens[:], scanner.Bytes())
		if nToken == 0 || isHeaderLine(tokens[0]) {
			continue
		}
		if fileType == Unknown {
			if fileType = DetermineType(src.Path, nToken); fileType == Unknown {
				return nil, formatErr("cannot determine file type from %d columns; expected narrowPeak (%d) or summit BED (%d)",
					nToken, narrowPeakColumns, summitBEDColumns)
			}
		}
		var s Summit
		var err error
		switch fileType {
		case NarrowPeak:
			if nToken != narrowPeakColumns {
				return nil, formatErr("narrowPeak record has %d columns, expected %d", nToken, narrowPeakColumns)
			}
			s, err = parseNarrowPeak(tokens[:nToken])
		case SummitBED:
			if nToken != summitBEDColumns {
				return nil, formatErr("summit BED record has %d columns, expected %d", nToken, summitBEDColumns)
			}
			s, err = parseSummitBED(tokens[:nToken])
		}
		if err != nil {
			return nil, formatErr("%v", err)
		}
		if s.LogValue = LogTransform(s.Value); math.IsNaN(s.LogValue) || math.IsInf(s.LogValue, 0) {
			return nil, formatErr("value %v has no finite log(1 + value)", s.Value)
		}
		if len(summits) == 0 && src.LabelFromName {
			experiment = ExperimentFromName(s.Name)
		}
		s.Experiment = experiment
		s.Row = len(summits)
		summits = append(summits, s)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(err, "reading", src.Path)
	}
	if fileType == Unknown && DetermineType(src.Path, 0) == Unknown {
		return nil, &FormatError{Path: src.Path, Msg: "cannot determine file type of a file without records"}
	}
	return summits, nil
}

func parseNarrowPeak(tokens [][]byte) (s Summit, err error) {
	var peakStart, peakEnd, offset int
	if peakStart, err = atoi(tokens[1], "start"); err != nil {
		return
	}
	if peakEnd, err = atoi(tokens[2], "end"); err != nil {
		return
	}
	if offset, err = atoi(tokens[9], "peak offset"); err != nil {
		return
	}
	if peakStart < 0 || peakEnd < peakStart {
		err = fmt.Errorf("invalid peak [%d, %d)", peakStart, peakEnd)
		return
	}
	switch {
	case offset == noPointSource:
		// No summit was called; use the middle of the peak.
		offset = (peakEnd - peakStart) / 2
	case offset < 0:
		err = fmt.Errorf("invalid summit offset %d (peak column is -1 or a 0-based offset)", offset)
		return
	}
	summit := peakStart + offset
	if summit+1 >= interval.PosTypeMax {
		err = fmt.Errorf("summit position %d out of range", summit)
		return
	}
	s.Chrom = string(tokens[0])
	s.Start = interval.PosType(summit)
	s.End = s.Start + 1
	s.Name = string(tokens[3])
	// The qValue column is used rather than the score column.
	s.Value, err = atof(tokens[8], "qValue")
	return
}

func parseSummitBED(tokens [][]byte) (s Summit, err error) {
	var start, end int
	if start, err = atoi(tokens[1], "start"); err != nil {
		return
	}
	if end, err = atoi(tokens[2], "end"); err != nil {
		return
	}
	if end-start != 1 {
		err = fmt.Errorf("interval [%d, %d) is not a single-base summit", start, end)
		return
	}
	if start < 0 || end >= interval.PosTypeMax {
		err = fmt.Errorf("summit position %d out of range", start)
		return
	}
	s.Chrom = string(tokens[0])
	s.Start = interval.PosType(start)
	s.End = interval.PosType(end)
	s.Name = string(tokens[3])
	s.Value, err = atof(tokens[4], "value")
	return
}

func atoi(token []byte, what string) (int, error) {
	v, err := strconv.Atoi(gunsafe.BytesToString(token))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, token)
	}
	return v, nil
}

func atof(token []byte, what string) (float64, error) {
	v, err := strconv.ParseFloat(gunsafe.BytesToString(token), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", what, token)
	}
	return v, nil
}

func isHeaderLine(firstToken []byte) bool {
	tok := gunsafe.BytesToString(firstToken)
	return strings.HasPrefix(tok, "#") || tok == "track" || tok == "browser"
}

func experimentOf(summits []Summit, src Source) string {
	if len(summits) > 0 {
		return summits[0].Experiment
	}
	return src.Experiment
}
