package interval

// Slop extends e by flank bases on each side, clipping the result to
// [0, chrLen].  This is the "slop" operation of bedtools: an interval that
// already reaches past chrLen keeps chrLen as its end.
func Slop(e Entry, flank, chrLen PosType) Entry {
	start := e.Start0 - flank
	if start < 0 || start > e.Start0 {
		// The second test catches underflow for huge flanks.
		start = 0
	}
	end := e.End + flank
	if end > chrLen || end < e.End {
		end = chrLen
	}
	if end < start {
		end = start
	}
	return Entry{ChrName: e.ChrName, Start0: start, End: end}
}
