package peakmerge

import (
	"context"
	"sort"
	"strconv"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/motifkit/bio/encoding/peakfile"
	"gonum.org/v1/gonum/stat"
)

// boxStats summarizes a score distribution the way a box plot draws it.
// Whiskers reach the most extreme values within 1.5 IQR of the quartiles.
type boxStats struct {
	Experiment   string
	N            int
	Min          float64
	LowerWhisker float64
	Q1           float64
	Median       float64
	Q3           float64
	UpperWhisker float64
	Max          float64
}

var boxStatsHeader = []string{"experiment", "n", "min", "lower_whisker", "q1", "median", "q3", "upper_whisker", "max"}

func newBoxStats(experiment string, values []float64) boxStats {
	b := boxStats{Experiment: experiment, N: len(values)}
	if len(values) == 0 {
		return b
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	b.Min, b.Max = sorted[0], sorted[len(sorted)-1]
	b.Q1 = stat.Quantile(0.25, stat.Empirical, sorted, nil)
	b.Median = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	b.Q3 = stat.Quantile(0.75, stat.Empirical, sorted, nil)
	iqr := b.Q3 - b.Q1
	lo, hi := b.Q1-1.5*iqr, b.Q3+1.5*iqr
	b.LowerWhisker, b.UpperWhisker = b.Max, b.Min
	for _, v := range sorted {
		if v >= lo && v < b.LowerWhisker {
			b.LowerWhisker = v
		}
		if v <= hi && v > b.UpperWhisker {
			b.UpperWhisker = v
		}
	}
	return b
}

// experimentStats groups the scores of perFile by experiment, in order of
// first appearance, and summarizes each group.
func experimentStats(perFile [][]peakfile.Summit, useScaled bool) []boxStats {
	var (
		order  []string
		values = map[string][]float64{}
	)
	for _, summits := range perFile {
		for i := range summits {
			s := &summits[i]
			if _, ok := values[s.Experiment]; !ok {
				order = append(order, s.Experiment)
			}
			values[s.Experiment] = append(values[s.Experiment], score(s, useScaled))
		}
	}
	stats := make([]boxStats, len(order))
	for i, experiment := range order {
		stats[i] = newBoxStats(experiment, values[experiment])
	}
	return stats
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func writeBoxStats(ctx context.Context, path string, stats []boxStats) (err error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer file.CloseAndReport(ctx, out, &err)
	w := tsv.NewWriter(out.Writer(ctx))
	for _, col := range boxStatsHeader {
		w.WriteString(col)
	}
	if err = w.EndLine(); err != nil {
		return err
	}
	for _, b := range stats {
		w.WriteString(b.Experiment)
		w.WriteInt64(int64(b.N))
		for _, v := range []float64{b.Min, b.LowerWhisker, b.Q1, b.Median, b.Q3, b.UpperWhisker, b.Max} {
			w.WriteString(formatFloat(v))
		}
		if err = w.EndLine(); err != nil {
			return err
		}
	}
	return w.Flush()
}

// writeDiagnostics writes the distributions of LogValue and LogValueScaled
// per experiment to <prefix>.log_value.tsv and <prefix>.log_value_scaled.tsv.
func writeDiagnostics(ctx context.Context, prefix string, perFile [][]peakfile.Summit) error {
	for _, d := range []struct {
		suffix    string
		useScaled bool
	}{
		{".log_value.tsv", false},
		{".log_value_scaled.tsv", true},
	} {
		path := prefix + d.suffix
		if err := writeBoxStats(ctx, path, experimentStats(perFile, d.useScaled)); err != nil {
			return err
		}
		log.Printf("wrote %s", path)
	}
	return nil
}
