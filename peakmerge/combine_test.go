package peakmerge_test

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/testutil"
	"github.com/motifkit/bio/encoding/peakfile"
	"github.com/motifkit/bio/peakmerge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	genomePath = filepath.Join("testdata", "genome.sizes")
	peaksA     = peakfile.Source{Path: filepath.Join("testdata", "A.narrowPeak"), Experiment: "A"}
	peaksB     = peakfile.Source{Path: filepath.Join("testdata", "B.narrowPeak"), Experiment: "B"}
)

func combine(t *testing.T, inputs []peakfile.Source, opts peakmerge.Opts) string {
	var out bytes.Buffer
	require.NoError(t, peakmerge.Combine(vcontext.Background(), inputs, genomePath, opts, &out))
	return out.String()
}

func TestCombine(t *testing.T) {
	assert.Equal(t, "chr1\t250\t251\n", combine(t, []peakfile.Source{peaksA, peaksB}, peakmerge.DefaultOpts))
	assert.Equal(t, "chr1\t250\t251\n", combine(t, []peakfile.Source{peaksB, peaksA}, peakmerge.DefaultOpts))
	assert.Equal(t, "chr1\t200\t201\n", combine(t, []peakfile.Source{peaksA}, peakmerge.DefaultOpts))

	// A window of 50 extends by 25 on each side: [175, 226) and [225, 276).
	opts := peakmerge.DefaultOpts
	opts.Window = 50
	assert.Equal(t, "chr1\t250\t251\n", combine(t, []peakfile.Source{peaksA, peaksB}, opts))
	opts.Window = 48
	assert.Equal(t, "chr1\t200\t201\nchr1\t250\t251\n", combine(t, []peakfile.Source{peaksA, peaksB}, opts))
}

func TestCombineEmpty(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	empty := filepath.Join(tmpDir, "empty.narrowPeak")
	require.NoError(t, ioutil.WriteFile(empty, nil, 0644))
	assert.Equal(t, "", combine(t, []peakfile.Source{{Path: empty, Experiment: "E"}}, peakmerge.DefaultOpts))
	assert.Equal(t, "", combine(t, nil, peakmerge.DefaultOpts))
}

func writeSummits(t *testing.T, dir, name string, rows ...string) peakfile.Source {
	path := filepath.Join(dir, name)
	require.NoError(t, ioutil.WriteFile(path, []byte(strings.Join(rows, "\n")+"\n"), 0644))
	return peakfile.Source{Path: path, Experiment: peakfile.ExperimentLabel(path)}
}

func TestCombineScaling(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	x := writeSummits(t, tmpDir, "x.bed",
		"chr1\t100\t101\tx_peak_1\t1",
		"chr1\t500\t501\tx_peak_2\t0")
	y := writeSummits(t, tmpDir, "y.bed",
		"chr1\t150\t151\ty_peak_1\t100",
		"chr1\t900\t901\ty_peak_2\t1000")
	inputs := []peakfile.Source{x, y}

	opts := peakmerge.DefaultOpts
	assert.Equal(t, "chr1\t150\t151\nchr1\t500\t501\nchr1\t900\t901\n", combine(t, inputs, opts))
	// Within its file, x_peak_1 scores higher than y_peak_1 does within its own.
	opts.UseScaled = true
	assert.Equal(t, "chr1\t100\t101\nchr1\t500\t501\nchr1\t900\t901\n", combine(t, inputs, opts))
	opts.GlobalScale = true
	assert.Equal(t, "chr1\t150\t151\nchr1\t500\t501\nchr1\t900\t901\n", combine(t, inputs, opts))
}

func TestCombineFilters(t *testing.T) {
	inputs := []peakfile.Source{peaksA, peaksB}
	tests := []struct {
		region, include, exclude string
		want                     string
	}{
		{region: "chr2", want: ""},
		{region: "chr1", want: "chr1\t250\t251\n"},
		// 1-based closed range 201-201 is the A summit.
		{region: "chr1:201-201", want: "chr1\t200\t201\n"},
		{region: "chr1:201", want: "chr1\t200\t201\n"},
		{exclude: filepath.Join("testdata", "exclude.bed"), want: "chr1\t200\t201\n"},
		{include: filepath.Join("testdata", "exclude.bed"), want: "chr1\t250\t251\n"},
	}
	for _, tt := range tests {
		opts := peakmerge.DefaultOpts
		opts.Region = tt.region
		opts.IncludeBED = tt.include
		opts.ExcludeBED = tt.exclude
		assert.Equal(t, tt.want, combine(t, inputs, opts), fmt.Sprintf("%+v", tt))
	}

	opts := peakmerge.DefaultOpts
	opts.Region = "chr1:10-5"
	assert.Error(t, peakmerge.Combine(vcontext.Background(), inputs, genomePath, opts, ioutil.Discard))
}

func TestCombineDiagnostics(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	opts := peakmerge.DefaultOpts
	opts.DiagnosticsPrefix = filepath.Join(tmpDir, "diag")
	combine(t, []peakfile.Source{peaksA, peaksB}, opts)

	data, err := ioutil.ReadFile(opts.DiagnosticsPrefix + ".log_value.tsv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "experiment\tn\tmin\tlower_whisker\tq1\tmedian\tq3\tupper_whisker\tmax", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "A\t1\t0.00995033\t"), lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "B\t1\t0.405465\t"), lines[2])

	data, err = ioutil.ReadFile(opts.DiagnosticsPrefix + ".log_value_scaled.tsv")
	require.NoError(t, err)
	assert.Contains(t, string(data), "A\t1\t0\t0\t0\t0\t0\t0\t0\n")
}

func TestCombineErrors(t *testing.T) {
	ctx := vcontext.Background()
	missing := peakfile.Source{Path: filepath.Join("testdata", "nonexistent.narrowPeak"), Experiment: "N"}
	err := peakmerge.Combine(ctx, []peakfile.Source{peaksA, missing}, genomePath, peakmerge.DefaultOpts, ioutil.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nonexistent.narrowPeak")

	err = peakmerge.Combine(ctx, []peakfile.Source{peaksA}, filepath.Join("testdata", "nonexistent.sizes"), peakmerge.DefaultOpts, ioutil.Discard)
	assert.Error(t, err)

	opts := peakmerge.DefaultOpts
	opts.Window = -2
	err = peakmerge.Combine(ctx, []peakfile.Source{peaksA}, genomePath, opts, ioutil.Discard)
	assert.Error(t, err)
}

func TestMissingInputs(t *testing.T) {
	ctx := vcontext.Background()
	paths := []string{peaksA.Path, "testdata/x.bed", peaksB.Path, "testdata/y.bed"}
	assert.Equal(t, []string{"testdata/x.bed", "testdata/y.bed"}, peakmerge.MissingInputs(ctx, paths))
	assert.Nil(t, peakmerge.MissingInputs(ctx, []string{peaksA.Path}))
}
