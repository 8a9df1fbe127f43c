package interval

import "fmt"

// Cluster groups entries whose intervals overlap or touch (book-ended
// intervals such as [0, 10) and [10, 20) are joined), returning one slice of
// entry indices per cluster.  Indices inside a cluster, and clusters
// themselves, appear in input order.
//
// entries must be sorted: all entries of a chromosome are contiguous and
// Start0 is nondecreasing within a chromosome.  Unlike a plain interval union,
// the cluster keeps track of its members so that callers can recover the
// fields of the original records afterwards.
func Cluster(entries []Entry) ([][]int, error) {
	var (
		clusters [][]int
		cur      []int
		curChr   string
		curEnd   PosType
		seenChrs = map[string]bool{}
	)
	for i, e := range entries {
		if e.End < e.Start0 {
			return nil, fmt.Errorf("interval.Cluster: invalid coordinate pair [%d, %d) at entry %d", e.Start0, e.End, i)
		}
		if len(cur) > 0 && e.ChrName == curChr {
			prev := entries[cur[len(cur)-1]]
			if e.Start0 < prev.Start0 {
				return nil, fmt.Errorf("interval.Cluster: unsorted input at entry %d (%v after %v)", i, e, prev)
			}
			if e.Start0 <= curEnd {
				cur = append(cur, i)
				if e.End > curEnd {
					curEnd = e.End
				}
				continue
			}
		}
		if len(cur) > 0 {
			clusters = append(clusters, cur)
		}
		if e.ChrName != curChr {
			if seenChrs[e.ChrName] {
				return nil, fmt.Errorf("interval.Cluster: unsorted input (split chromosome %v)", e.ChrName)
			}
			seenChrs[e.ChrName] = true
		}
		cur = []int{i}
		curChr = e.ChrName
		curEnd = e.End
	}
	if len(cur) > 0 {
		clusters = append(clusters, cur)
	}
	return clusters, nil
}
