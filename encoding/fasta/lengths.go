// Package fasta reads sequence lengths out of FASTA files and their samtools
// faidx indexes (see http://www.htslib.org/doc/faidx.html).  Briefly, FASTA
// files consist of a number of named sequences that may be interrupted by
// newlines.  For example:
//
// >chr7
// ACGTAC
// GAGGAC
// GCG
// >chr8
// ACGT
//
// Note: Sequence names are defined to be the stretch of characters excluding
// spaces immediately after '>'.  Any text appear after a space are ignored.
// For example, '>chr1 A viral sequence' becomes 'chr1'.
//
// Only lengths are kept; the sequences themselves are never held in memory.
package fasta

import (
	"bufio"
	"bytes"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Index files consist of one tab-separated line per sequence in the associated
// FASTA file.  The format is: "<sequence name>\t<length>\t<byte
// offset>\t<bases per line>\t<bytes per line>".
// For example: "chr3\t12345\t9000\t80\t81".
var indexRegExp = regexp.MustCompile(`^(\S+)\t(\d+)\t(\d+)\t(\d+)\t(\d+)`)

// SeqLength is the name and length of one sequence.
type SeqLength struct {
	Name   string
	Length uint64
}

// ScanLengths reads FASTA data and returns the length of every sequence, in
// order of appearance.  Line terminators ("\n" or "\r\n") are not counted.
func ScanLengths(in io.Reader) (lengths []SeqLength, err error) {
	var (
		r          = bufio.NewReader(in)
		seqName    string
		totalBases uint64
		started    bool
		cumByte    int64
		eof        bool
	)
	flush := func() {
		if started {
			lengths = append(lengths, SeqLength{Name: seqName, Length: totalBases})
		}
	}
	for !eof {
		fullLine, e := r.ReadBytes('\n')
		if e == io.EOF { // Process fullLine, then exit the loop
			eof = true
		} else if e != nil {
			return nil, errors.Wrap(e, "couldn't read FASTA data")
		}
		cumByte += int64(len(fullLine))
		line := bytes.TrimRight(fullLine, "\r\n")
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' { // Start a new sequence.
			flush()
			seqName = strings.Split(string(line[1:]), " ")[0]
			if seqName == "" {
				return nil, errors.Errorf("malformed FASTA file: empty sequence name at byte %d", cumByte-int64(len(fullLine)))
			}
			started = true
			totalBases = 0
			continue
		}
		if !started {
			return nil, errors.Errorf("malformed FASTA file: sequence data before the first header")
		}
		totalBases += uint64(len(line))
	}
	flush()
	if cumByte == 0 {
		return nil, errors.Errorf("empty FASTA file")
	}
	return lengths, nil
}

// ReadIndexLengths reads a fasta .fai file and returns the sequence lengths
// it lists, in file order.  This doesn't require reading in the fasta itself.
func ReadIndexLengths(index io.Reader) ([]SeqLength, error) {
	var lengths []SeqLength
	scanner := bufio.NewScanner(index)
	scanner.Split(bufio.ScanLines)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		matches := indexRegExp.FindStringSubmatch(scanner.Text())
		if len(matches) != 6 {
			return nil, errors.Errorf("invalid index line: %s", scanner.Text())
		}
		length, err := strconv.ParseUint(matches[2], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid index line: %s", scanner.Text())
		}
		lengths = append(lengths, SeqLength{Name: matches[1], Length: length})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "couldn't read FASTA index")
	}
	return lengths, nil
}
