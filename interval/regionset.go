package interval

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/klauspost/compress/gzip"
)

// GetTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Any (group of) characters <= ' ' is
// treated as a delimiter.  The saved tokens alias curLine.
func GetTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

// Entry represents a single interval, with 0-based coordinates.
type Entry struct {
	ChrName string
	Start0  PosType
	End     PosType
}

// Contains checks whether the (0-based) position pos on chromosome chrName
// lies inside the entry.
func (e Entry) Contains(chrName string, pos PosType) bool {
	return chrName == e.ChrName && pos >= e.Start0 && pos < e.End
}

// String formats the entry as a BED line without the trailing newline.
func (e Entry) String() string {
	return fmt.Sprintf("%s\t%d\t%d", e.ChrName, e.Start0, e.End)
}

// ParseRegionString parses a region string of one of the forms
//   [contig ID]:[1-based first pos]-[last pos]
//   [contig ID]:[1-based pos]
//   [contig ID]
// returning a contig ID and 0-based interval boundaries.  The interval
// [0, PosTypeMax - 1] is returned if there is no positional restriction.
func ParseRegionString(region string) (result Entry, err error) {
	if len(region) == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty region string")
		return
	}
	colonPos := strings.IndexByte(region, ':')
	if colonPos == -1 {
		result.ChrName = region
		result.Start0 = 0
		result.End = PosTypeMax - 1
		return
	}
	if colonPos == 0 {
		err = fmt.Errorf("interval.ParseRegionString: empty contig ID")
		return
	}
	result.ChrName = region[0:colonPos]
	rangeStr := region[colonPos+1:]
	dashPos := strings.IndexByte(rangeStr, '-')
	if dashPos == -1 {
		var pos1 int64
		if pos1, err = strconv.ParseInt(rangeStr, 10, 32); err != nil {
			return
		}
		if pos1 <= 0 {
			err = fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", rangeStr)
			return
		}
		result.Start0 = PosType(pos1 - 1)
		result.End = PosType(pos1)
		return
	}
	start1Str := rangeStr[:dashPos]
	endStr := rangeStr[dashPos+1:]
	var start1 int
	if start1, err = strconv.Atoi(start1Str); err != nil {
		return
	}
	if start1 <= 0 {
		err = fmt.Errorf("interval.ParseRegionString: position %v in region string out of range", start1Str)
		return
	}
	var end0 int
	if end0, err = strconv.Atoi(endStr); err != nil {
		return
	}
	// end0 == PosTypeMax is prohibited so the endpoint array never repeats.
	if end0 < start1 || end0 >= PosTypeMax {
		err = fmt.Errorf("interval.ParseRegionString: invalid range string %v", rangeStr)
		return
	}
	result.Start0 = PosType(start1 - 1)
	result.End = PosType(end0)
	return
}

// RegionSet is the union of the intervals of a BED file, stored per
// chromosome as a sorted endpoint sequence (see endpoint_index.go).  Queries
// cache the last chromosome and position, so a RegionSet must not be shared
// between goroutines.
type RegionSet struct {
	// endpoints is a chromosome-keyed map with disjoint-interval-set values.
	endpoints map[string][]PosType
	// lastChrEndpoints is the endpoint sequence of lastChrName.
	lastChrEndpoints []PosType
	lastChrName      string
	// lastPosPlus1 is 1 plus the last queried position.
	lastPosPlus1 PosType
	// lastIdx is SearchPosTypes(lastChrEndpoints, lastPosPlus1).
	lastIdx EndpointIndex
	// isSequential is true if all queries since the last chromosome change have
	// been in order of nondecreasing position.
	isSequential bool
}

// Contains checks whether the (0-based) interval [pos, pos+1) is contained
// within the RegionSet.
func (s *RegionSet) Contains(chrName string, pos PosType) bool {
	posPlus1 := pos + 1
	if chrName != s.lastChrName {
		s.lastChrName = chrName
		s.lastChrEndpoints = s.endpoints[chrName]
		if s.lastChrEndpoints == nil {
			return false
		}
		s.lastIdx = NewEndpointIndex(pos, s.lastChrEndpoints)
		s.lastPosPlus1 = posPlus1
		s.isSequential = true
		return s.lastIdx.Contained()
	}
	if s.lastChrEndpoints == nil {
		return false
	}
	if s.isSequential {
		if posPlus1 >= s.lastPosPlus1 {
			s.lastIdx.Update(pos, s.lastChrEndpoints)
			s.lastPosPlus1 = posPlus1
			return s.lastIdx.Contained()
		}
		s.isSequential = false
	}
	return NewEndpointIndex(pos, s.lastChrEndpoints).Contained()
}

// NumChromosomes returns the number of chromosomes mentioned by the set.
func (s *RegionSet) NumChromosomes() int {
	return len(s.endpoints)
}

// NewRegionSetFromEntries builds a RegionSet from entries in any order.
// Overlapping and touching entries are merged; empty ones are dropped.
func NewRegionSetFromEntries(entries []Entry) (*RegionSet, error) {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ChrName != sorted[j].ChrName {
			return sorted[i].ChrName < sorted[j].ChrName
		}
		return sorted[i].Start0 < sorted[j].Start0
	})
	s := &RegionSet{endpoints: make(map[string][]PosType)}
	prevChr := ""
	var prevStart, prevEnd PosType = -1, -1
	var chrEndpoints []PosType
	flush := func() {
		if prevEnd != -1 {
			chrEndpoints = append(chrEndpoints, prevStart, prevEnd)
		}
		s.endpoints[prevChr] = chrEndpoints
	}
	for _, entry := range sorted {
		if entry.Start0 < 0 {
			return nil, fmt.Errorf("interval.NewRegionSetFromEntries: negative start coordinate in %v", entry)
		}
		if entry.End < entry.Start0 || entry.End >= PosTypeMax {
			return nil, fmt.Errorf("interval.NewRegionSetFromEntries: invalid coordinate pair [%d, %d)", entry.Start0, entry.End)
		}
		if entry.ChrName != prevChr {
			if prevChr != "" {
				flush()
			}
			prevChr = entry.ChrName
			chrEndpoints = []PosType{}
			prevStart, prevEnd = -1, -1
		}
		if entry.End == entry.Start0 {
			continue
		}
		if prevEnd == -1 {
			prevStart, prevEnd = entry.Start0, entry.End
			continue
		}
		if entry.Start0 > prevEnd {
			chrEndpoints = append(chrEndpoints, prevStart, prevEnd)
			prevStart, prevEnd = entry.Start0, entry.End
		} else if entry.End > prevEnd {
			prevEnd = entry.End
		}
	}
	if prevChr != "" {
		flush()
	}
	return s, nil
}

// NewRegionSet loads the first three columns of every line of a BED stream.
// Empty lines and "#", "track" and "browser" header lines are ignored.
func NewRegionSet(reader io.Reader) (*RegionSet, error) {
	scanner := bufio.NewScanner(reader)
	var (
		tokens  [3][]byte
		entries []Entry
		lineIdx int
		nBases  int
	)
	for scanner.Scan() {
		lineIdx++
		curLine := scanner.Bytes()
		nToken := GetTokens(tokens[:], curLine)
		if nToken == 0 || isHeaderLine(tokens[0]) {
			continue
		}
		if nToken != 3 {
			return nil, fmt.Errorf("interval.NewRegionSet: line %d has fewer tokens than expected", lineIdx)
		}
		start, err := strconv.Atoi(gunsafe.BytesToString(tokens[1]))
		if err != nil {
			return nil, fmt.Errorf("interval.NewRegionSet: line %d: %v", lineIdx, err)
		}
		end, err := strconv.Atoi(gunsafe.BytesToString(tokens[2]))
		if err != nil {
			return nil, fmt.Errorf("interval.NewRegionSet: line %d: %v", lineIdx, err)
		}
		if start < 0 || end < start || end >= PosTypeMax {
			return nil, fmt.Errorf("interval.NewRegionSet: invalid coordinate pair on line %d", lineIdx)
		}
		nBases += end - start
		// The chromosome name must be copied since curLine is reused.
		entries = append(entries, Entry{ChrName: string(tokens[0]), Start0: PosType(start), End: PosType(end)})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	log.Debug.Printf("BED loaded, %d interval(s), %d base(s) before merging", len(entries), nBases)
	return NewRegionSetFromEntries(entries)
}

// NewRegionSetFromPath is a wrapper for NewRegionSet that takes a path
// instead of an io.Reader.  Gzipped files are decompressed transparently.
func NewRegionSetFromPath(ctx context.Context, path string) (set *RegionSet, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer file.CloseAndReport(ctx, infile, &err)
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		if reader, err = gzip.NewReader(reader); err != nil {
			return
		}
	}
	return NewRegionSet(reader)
}

func isHeaderLine(firstToken []byte) bool {
	tok := gunsafe.BytesToString(firstToken)
	return strings.HasPrefix(tok, "#") || tok == "track" || tok == "browser"
}
