/*Package interval implements the interval-set operations used when migrating
  SNP-array probe sets between genome builds: typed BED-style tables, rolling
  windows of consecutive probes, pairwise intersection, and complement
  against a bounded universe.

  All coordinates are 0-based half-open, [start, end).  This holds
  uniformly for intersection, complement, and window spans.  An empty
  interval [p, p) is treated as the single base p when testing for overlap,
  since array probes are frequently recorded that way.

  Chromosome-scoped passes only visit chr1..chr22, chrX, chrY, in that
  order; rows on any other contig are retained for full-table passes but
  skipped (with a warning) everywhere else.
*/
package interval
