/*Package interval implements the coordinate arithmetic needed to consolidate
  genomic summits: symmetric extension ("slop") clipped to chromosome bounds,
  clustering of sorted intervals that keeps track of the contributing entries,
  and interval-union lookups over BED region sets.
  (Note that RegionSet is a union.  Overlapping BED intervals are merged, not
  tracked separately; use Cluster when membership matters.)
  It assumes every position fits in a PosType, which is currently defined as
  int32.
*/
package interval
