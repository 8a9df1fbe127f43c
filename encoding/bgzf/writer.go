// Package bgzf writes the block gzip format used by tabix-indexed BED and
// VCF files.  A bgzf stream is a sequence of gzip members, each holding at
// most 64KB of payload, whose Extra header field records the compressed
// member size.  Any gzip reader sees the concatenated payload; an index can
// address each member directly through virtual offsets.  The stream ends
// with an empty member, the EOF marker.
//
// See the SAM/BAM spec for the layout:
// https://samtools.github.io/hts-specs/SAMv1.pdf
package bgzf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/grailbio/base/compress/libdeflate"
	"v.io/x/lib/vlog"
)

const (
	// DefaultBlockSize is the payload size of a member, as chosen by
	// samtools and biogo.
	DefaultBlockSize = 0x0ff00

	// MaxBlockSize is the largest legal payload size of a member.
	MaxBlockSize = 0x10000

	// maxCompressedSize bounds the size of a compressed member.
	maxCompressedSize = 0x10000

	// extraOffset is the position of the Extra subfield in a gzip header
	// with FLG.FEXTRA set.
	extraOffset = 12
)

var (
	// extra is the BC subfield: SI1=66, SI2=67, SLEN=2, BSIZE placeholder.
	extra       = [...]byte{66, 67, 2, 0, 0, 0}
	extraPrefix = extra[:4]

	// eofMarker is the empty member terminating a bgzf stream.
	eofMarker = []byte{
		0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff, 0x06, 0x00, 0x42, 0x43,
		0x02, 0x00, 0x1b, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
)

// Writer compresses a byte stream into bgzf members.  It buffers up to one
// member of payload; Close flushes it and appends the EOF marker.
type Writer struct {
	w         io.Writer
	level     int
	blockSize int
	deflater  *libdeflate.Writer
	pending   bytes.Buffer
	member    bytes.Buffer
	closed    bool
}

// NewWriter returns a Writer with the given compression level and
// DefaultBlockSize members.
func NewWriter(w io.Writer, level int) (*Writer, error) {
	return NewWriterSize(w, level, DefaultBlockSize)
}

// NewWriterSize returns a Writer whose members hold at most blockSize bytes
// of payload.
func NewWriterSize(w io.Writer, level, blockSize int) (*Writer, error) {
	if blockSize <= 0 || blockSize > MaxBlockSize {
		return nil, fmt.Errorf("bgzf: block size %d out of range (1..%d)", blockSize, MaxBlockSize)
	}
	return &Writer{w: w, level: level, blockSize: blockSize}, nil
}

// Write appends buf to the payload, emitting a member whenever a full block
// has been buffered.
func (w *Writer) Write(buf []byte) (int, error) {
	if w.closed {
		return 0, fmt.Errorf("bgzf: write after close")
	}
	written := 0
	for written < len(buf) {
		room := w.blockSize - w.pending.Len()
		end := written + room
		if end > len(buf) {
			end = len(buf)
		}
		w.pending.Write(buf[written:end])
		written = end
		if w.pending.Len() == w.blockSize {
			if err := w.flushMember(); err != nil {
				return written, err
			}
		}
	}
	return written, nil
}

// Flush emits the buffered payload as a member, if there is any.
func (w *Writer) Flush() error {
	if w.pending.Len() == 0 {
		return nil
	}
	return w.flushMember()
}

// Close flushes the payload and writes the EOF marker.  It does not close
// the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := w.w.Write(eofMarker)
	return err
}

func (w *Writer) flushMember() error {
	w.member.Reset()
	if w.deflater == nil {
		var err error
		if w.deflater, err = libdeflate.NewWriterLevel(&w.member, w.level); err != nil {
			return err
		}
	} else {
		w.deflater.Reset(&w.member)
	}
	w.deflater.Header.Extra = append([]byte(nil), extra[:]...)
	w.deflater.Header.OS = 0xff
	if _, err := w.deflater.Write(w.pending.Next(w.blockSize)); err != nil {
		return err
	}
	if err := w.deflater.Close(); err != nil {
		return err
	}

	b := w.member.Bytes()
	if len(b) < extraOffset+len(extra) {
		vlog.Fatalf("bgzf: member too short: %d bytes", len(b))
	}
	if !bytes.Equal(b[extraOffset:extraOffset+len(extraPrefix)], extraPrefix) {
		vlog.Fatalf("bgzf: BC subfield not found in member header")
	}
	bsize := len(b) - 1
	if bsize >= maxCompressedSize {
		return fmt.Errorf("bgzf: compressed member too big: %d >= %d", bsize, maxCompressedSize)
	}
	b[extraOffset+4] = byte(bsize)
	b[extraOffset+5] = byte(bsize >> 8)

	_, err := w.w.Write(b)
	return err
}
