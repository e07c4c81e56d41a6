package dedup

import (
	"context"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"

	"github.com/grailbio/fqdedup/encoding/fastq"
)

// Opts configures a dedup run.
type Opts struct {
	// Mode selects the key derivation; see ResolveKeyMode.
	Mode KeyMode

	// LogEvery emits a progress log line after every LogEvery groups.
	// 0 disables progress logging.
	LogEvery uint64

	// Progress, if non-nil, receives a snapshot of the counters after
	// every group.
	Progress func(Metrics)
}

// Dedup runs a single sequential pass over the groups produced by
// scanner: each group is keyed under opts.Mode, tested against store,
// and either written to w (first occurrence) or dropped (duplicate).
// Groups are written in their original relative order.
//
// The returned Metrics are final on success; on error they cover the
// groups fully classified before the fault. Any fault — unreadable or
// desynchronized input, key derivation failure, store failure, write
// failure — aborts the pass immediately.
func Dedup(ctx context.Context, scanner *fastq.GroupScanner, w *fastq.PairWriter, store Store, opts Opts) (*Metrics, error) {
	builder := NewKeyBuilder(opts.Mode)
	metrics := &Metrics{}
	var g fastq.Group
	for scanner.Scan(&g) {
		if err := ctx.Err(); err != nil {
			return metrics, err
		}
		key, err := builder.Key(&g)
		if err != nil {
			return metrics, err
		}
		first, err := store.TestAndRecord(key)
		if err != nil {
			return metrics, err
		}
		if first {
			if err := w.Write(&g); err != nil {
				return metrics, errors.Wrap(err, "write output pair")
			}
			metrics.Written++
		} else {
			metrics.Duplicates++
		}
		metrics.Processed++
		if opts.Progress != nil {
			opts.Progress(*metrics)
		}
		if opts.LogEvery > 0 && metrics.Processed%opts.LogEvery == 0 {
			log.Printf("%s", metrics)
		}
	}
	if err := scanner.Err(); err != nil {
		return metrics, errors.Wrap(err, "read input")
	}
	return metrics, nil
}
