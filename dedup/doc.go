/*Package dedup removes PCR duplicates from paired-end FASTQ data.

  Two record groups are duplicates if they produce the same identity
  key. The key is a 256-bit content fingerprint over the concatenation
  of an optional barcode (taken from the read-1 header or from a
  separate index read) and the two read sequences.

  Seen keys are tracked by a Store, selected once per run:

    - an exact in-memory set, for datasets whose key set fits in RAM;
    - a bloom filter sized from an expected read count and a target
      false positive probability, trading a small chance of dropping
      a unique pair for bounded memory;
    - a SQLite table with a primary-key constraint, for runs whose
      seen-set must be durable or shared across runs.

  Dedup drives a single pass over a GroupScanner: each group is keyed,
  tested against the store, and either written to the output pair or
  dropped, with counters maintained after every group.
*/
package dedup
