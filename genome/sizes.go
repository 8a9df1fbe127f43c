// Package genome resolves genome names and files to chromosome length tables.
package genome

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/biogo/hts/bam"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/klauspost/compress/gzip"
	"github.com/motifkit/bio/encoding/fasta"
	"github.com/motifkit/bio/interval"
)

// Sizes maps chromosome names to their lengths.  Names keep the order in
// which they were read.
type Sizes struct {
	names []string
	lens  map[string]interval.PosType
}

// NewSizes creates an empty Sizes.
func NewSizes() *Sizes {
	return &Sizes{lens: map[string]interval.PosType{}}
}

// Add registers a chromosome.  Duplicate names and lengths that do not fit
// in interval.PosType are rejected.
func (s *Sizes) Add(name string, length int64) error {
	if name == "" {
		return errors.E(errors.Invalid, "empty chromosome name")
	}
	if length < 0 || length >= interval.PosTypeMax {
		return errors.E(errors.Invalid, fmt.Sprintf("chromosome %s has unsupported length %d", name, length))
	}
	if _, ok := s.lens[name]; ok {
		return errors.E(errors.Invalid, "duplicate chromosome", name)
	}
	s.names = append(s.names, name)
	s.lens[name] = interval.PosType(length)
	return nil
}

// Len returns the length of chrom.
func (s *Sizes) Len(chrom string) (interval.PosType, bool) {
	l, ok := s.lens[chrom]
	return l, ok
}

// Names returns the chromosome names in input order.
func (s *Sizes) Names() []string {
	return s.names
}

// sizesRow is one line of a two-column chromosome sizes file.
type sizesRow struct {
	Chrom  string
	Length int64
}

// ReadSizes reads chromosome lengths from path.  The format is chosen by
// extension: ".fai" is a samtools faidx index, ".fa", ".fasta" and ".fna" are
// FASTA files, ".bam" takes the @SQ lines of the BAM header, and anything
// else is read as a "name<TAB>length" table (UCSC chrom.sizes).  Gzipped files
// are decompressed transparently.
func ReadSizes(ctx context.Context, path string) (sizes *Sizes, err error) {
	var in file.File
	if in, err = file.Open(ctx, path); err != nil {
		return nil, errors.E(err, "genome sizes")
	}
	defer file.CloseAndReport(ctx, in, &err)

	reader := io.Reader(in.Reader(ctx))
	name := path
	if strings.ToLower(filepath.Ext(path)) == ".bam" {
		return readBAMSizes(reader, path)
	}
	if fileio.DetermineType(path) == fileio.Gzip {
		if reader, err = gzip.NewReader(reader); err != nil {
			return nil, errors.E(err, path)
		}
		name = strings.TrimSuffix(name, filepath.Ext(name))
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".fai":
		lengths, err := fasta.ReadIndexLengths(reader)
		if err != nil {
			return nil, errors.E(err, path)
		}
		return fromSeqLengths(lengths, path)
	case ".fa", ".fasta", ".fna":
		lengths, err := fasta.ScanLengths(reader)
		if err != nil {
			return nil, errors.E(err, path)
		}
		return fromSeqLengths(lengths, path)
	}
	return readSizesTable(reader, path)
}

func fromSeqLengths(lengths []fasta.SeqLength, path string) (*Sizes, error) {
	sizes := NewSizes()
	for _, l := range lengths {
		if err := sizes.Add(l.Name, int64(l.Length)); err != nil {
			return nil, errors.E(err, path)
		}
	}
	log.Debug.Printf("%s: read lengths of %d sequences", path, len(sizes.names))
	return sizes, nil
}

func readSizesTable(reader io.Reader, path string) (*Sizes, error) {
	r := tsv.NewReader(reader)
	r.Comment = '#'
	sizes := NewSizes()
	for {
		var row sizesRow
		if err := r.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.E(errors.Invalid, err, "reading chromosome sizes", path)
		}
		if err := sizes.Add(row.Chrom, row.Length); err != nil {
			return nil, errors.E(err, path)
		}
	}
	if len(sizes.names) == 0 {
		return nil, errors.E(errors.Invalid, "no chromosomes found in", path)
	}
	log.Debug.Printf("%s: read %d chromosome sizes", path, len(sizes.names))
	return sizes, nil
}

func readBAMSizes(reader io.Reader, path string) (*Sizes, error) {
	br, err := bam.NewReader(reader, 1)
	if err != nil {
		return nil, errors.E(err, "reading BAM header", path)
	}
	defer br.Close() // nolint: errcheck
	sizes := NewSizes()
	for _, ref := range br.Header().Refs() {
		if err := sizes.Add(ref.Name(), int64(ref.Len())); err != nil {
			return nil, errors.E(err, path)
		}
	}
	log.Debug.Printf("%s: read %d references from BAM header", path, len(sizes.names))
	return sizes, nil
}
