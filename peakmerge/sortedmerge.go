package peakmerge

import (
	"sort"

	"github.com/biogo/store/llrb"
	"github.com/motifkit/bio/encoding/peakfile"
	"v.io/x/lib/vlog"
)

// compareSummits orders summits by chromosome name, then start.
func compareSummits(a, b *peakfile.Summit) int {
	if a.Chrom != b.Chrom {
		if a.Chrom < b.Chrom {
			return -1
		}
		return 1
	}
	return int(a.Start) - int(b.Start)
}

// mergeLeaf is one sorted input list of the k-way merge.
type mergeLeaf struct {
	// seq is the index of the list; it breaks ties between lists.
	seq     int
	summits []peakfile.Summit
	pos     int
}

func (l *mergeLeaf) key() *peakfile.Summit {
	return &l.summits[l.pos]
}

func (l *mergeLeaf) done() bool {
	return l.pos >= len(l.summits)
}

func (l *mergeLeaf) Compare(c1 llrb.Comparable) int {
	l1 := c1.(*mergeLeaf)
	if c := compareSummits(l.key(), l1.key()); c != 0 {
		return c
	}
	return l.seq - l1.seq
}

// sortSummits returns the summits of every list in (chrom, start) order.
// Each list is stable sorted, then the lists are merged with list index as
// the tiebreak, so the result is the stable sort of the concatenation of
// perFile.  perFile is not modified.
func sortSummits(perFile [][]peakfile.Summit) []peakfile.Summit {
	leafs := llrb.Tree{}
	total := 0
	for i, summits := range perFile {
		total += len(summits)
		if len(summits) == 0 {
			continue
		}
		sorted := make([]peakfile.Summit, len(summits))
		copy(sorted, summits)
		sort.SliceStable(sorted, func(a, b int) bool {
			return compareSummits(&sorted[a], &sorted[b]) < 0
		})
		leafs.Insert(&mergeLeaf{seq: i, summits: sorted})
	}
	vlog.VI(1).Infof("Merging %d summits from %d lists, %d leafs active", total, len(perFile), leafs.Len())

	merged := make([]peakfile.Summit, 0, total)
	for leafs.Len() > 0 {
		nthiter := 0
		// top is the smallest leaf, next the 2nd smallest or nil.
		var top, next *mergeLeaf
		leafs.Do(func(item llrb.Comparable) bool {
			nthiter++
			switch nthiter {
			case 1:
				top = item.(*mergeLeaf)
				return false
			case 2:
				next = item.(*mergeLeaf)
				return true
			default:
				vlog.Fatal(nthiter)
				return false
			}
		})
		// Read from top until it passes next.  Equal keys are ordered by seq,
		// as in the tree.
		for {
			merged = append(merged, *top.key())
			top.pos++
			if top.done() || (next != nil && next.Compare(top) < 0) {
				break
			}
		}
		lenBefore := leafs.Len()
		leafs.DeleteMin()
		if !top.done() {
			leafs.Insert(top)
			if lenAfter := leafs.Len(); lenBefore != lenAfter {
				vlog.Fatalf("Leaf count changed from %d -> %d", lenBefore, lenAfter)
			}
		}
	}
	return merged
}
