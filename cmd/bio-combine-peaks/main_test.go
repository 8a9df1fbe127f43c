package main

import (
	"bytes"
	"flag"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/testutil"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"v.io/x/lib/cmdline"
)

// run parses args into a fresh command.  cmdline registers the root flags in
// flag.CommandLine, so it is reset on every call.
func run(t *testing.T, vars map[string]string, args ...string) (stdout, stderr string, err error) {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	var outBuf, errBuf bytes.Buffer
	env := &cmdline.Env{Stdout: &outBuf, Stderr: &errBuf, Vars: vars}
	err = cmdline.ParseAndRun(newCmdCombinePeaks(), env, args)
	return outBuf.String(), errBuf.String(), err
}

var (
	peaksA     = filepath.Join("testdata", "A.narrowPeak")
	peaksB     = filepath.Join("testdata", "B.narrowPeak")
	genomePath = filepath.Join("testdata", "genome.sizes")
)

func TestCombinePeaks(t *testing.T) {
	for _, args := range [][]string{
		{"-i", peaksA, "-i", peaksB, "-g", genomePath},
		{"-input", peaksA, "-genome", genomePath, "-window", "200", peaksB},
		{"-g", genomePath, "-w", "200", "-s", peaksA, peaksB},
		{"-g", genomePath, "-labels", "a,b", peaksA, peaksB},
		{"-g", genomePath, "-label-from-name", "-scale", "-global-scale", peaksA, peaksB},
	} {
		stdout, stderr, err := run(t, nil, args...)
		require.NoError(t, err, "%v", args)
		assert.Equal(t, "chr1\t250\t251\n", stdout, "%v", args)
		assert.Equal(t, "", stderr, "%v", args)
	}

	stdout, _, err := run(t, nil, "-g", genomePath, "-w", "48", peaksA, peaksB)
	require.NoError(t, err)
	assert.Equal(t, "chr1\t200\t201\nchr1\t250\t251\n", stdout)
}

func TestCombinePeaksRepeatedRuns(t *testing.T) {
	args := []string{"-g", genomePath, "-w", "1000", peaksA, peaksB}
	for i := 0; i < 3; i++ {
		stdout, _, err := run(t, nil, args...)
		require.NoError(t, err, "run %d", i)
		assert.Equal(t, "chr1\t250\t251\n", stdout, "run %d", i)
	}
	_, _, err := run(t, nil, peaksA)
	require.Error(t, err)
	assert.Equal(t, 2, cmdline.ExitCode(err, ioutil.Discard))
}

func TestCombinePeaksMissingInputs(t *testing.T) {
	missing1 := filepath.Join("testdata", "missing1.narrowPeak")
	missing2 := filepath.Join("testdata", "missing2.bed")
	stdout, stderr, err := run(t, nil, "-i", missing1, "-i", peaksA, "-g", genomePath, missing2)
	require.Error(t, err)
	assert.Equal(t, 1, cmdline.ExitCode(err, &bytes.Buffer{}))
	assert.Equal(t, "", stdout)
	assert.Equal(t, "File "+missing1+" does not exist!\nFile "+missing2+" does not exist!\n", stderr)
}

func TestCombinePeaksUsage(t *testing.T) {
	for _, args := range [][]string{
		{"-g", genomePath},
		{peaksA},
		{"-g", genomePath, "-labels", "a", peaksA, peaksB},
		{"-g", genomePath, "-labels", "a,b", "-label-from-name", peaksA, peaksB},
	} {
		stdout, _, err := run(t, nil, args...)
		assert.Error(t, err, "%v", args)
		assert.Equal(t, "", stdout, "%v", args)
	}
}

func TestCombinePeaksGenomeDirs(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, "toy"), 0755))
	data, err := ioutil.ReadFile(genomePath)
	require.NoError(t, err)
	require.NoError(t, ioutil.WriteFile(filepath.Join(tmpDir, "toy", "toy.fa.sizes"), data, 0644))

	stdout, _, err := run(t, nil, "-g", "toy", "-genomes-dir", tmpDir, peaksA, peaksB)
	require.NoError(t, err)
	assert.Equal(t, "chr1\t250\t251\n", stdout)

	stdout, _, err = run(t, map[string]string{"GENOMES_DIR": tmpDir}, "-g", "toy", peaksA, peaksB)
	require.NoError(t, err)
	assert.Equal(t, "chr1\t250\t251\n", stdout)
}

func TestCombinePeaksOutput(t *testing.T) {
	tmpDir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()

	plain := filepath.Join(tmpDir, "out.bed")
	stdout, _, err := run(t, nil, "-g", genomePath, "-o", plain, peaksA, peaksB)
	require.NoError(t, err)
	assert.Equal(t, "", stdout)
	data, err := ioutil.ReadFile(plain)
	require.NoError(t, err)
	assert.Equal(t, "chr1\t250\t251\n", string(data))

	compressed := filepath.Join(tmpDir, "out.bed.gz")
	_, _, err = run(t, nil, "-g", genomePath, "-output", compressed, "-w", "48", peaksA, peaksB)
	require.NoError(t, err)
	in, err := os.Open(compressed)
	require.NoError(t, err)
	defer in.Close()
	zr, err := gzip.NewReader(in)
	require.NoError(t, err)
	data, err = ioutil.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "chr1\t200\t201\nchr1\t250\t251\n", string(data))
}

func TestSources(t *testing.T) {
	inputs, err := sources([]string{"d/x.narrowPeak", "y_summits.bed.gz"}, "", false)
	require.NoError(t, err)
	assert.Equal(t, "x", inputs[0].Experiment)
	assert.Equal(t, "y_summits", inputs[1].Experiment)

	inputs, err = sources([]string{"x", "y"}, "", true)
	require.NoError(t, err)
	assert.True(t, inputs[1].LabelFromName)
	assert.Equal(t, "", inputs[1].Experiment)

	_, err = sources([]string{"x", "y"}, "a,", false)
	assert.Error(t, err)
}
