package dedup_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/fqdedup/dedup"
	"github.com/grailbio/fqdedup/encoding/fastq"
)

func record(id, seq string) string {
	return id + "\n" + seq + "\n+\n" + strings.Repeat("E", len(seq)) + "\n"
}

// run drives a full pass over the given stream contents and returns
// the outputs alongside the metrics.
func run(t *testing.T, r1, r2, index string, store dedup.Store, opts dedup.Opts) (*dedup.Metrics, string, string, error) {
	t.Helper()
	var scanner *fastq.GroupScanner
	if index != "" {
		scanner = fastq.NewTripleScanner(strings.NewReader(r1), strings.NewReader(r2), strings.NewReader(index))
	} else {
		scanner = fastq.NewGroupScanner(strings.NewReader(r1), strings.NewReader(r2))
	}
	var out1, out2 strings.Builder
	w := fastq.NewPairWriter(&out1, &out2)
	metrics, err := dedup.Dedup(context.Background(), scanner, w, store, opts)
	return metrics, out1.String(), out2.String(), err
}

func TestDedupExact(t *testing.T) {
	// Groups 2 and 4 repeat the sequences of groups 1 and 3.
	r1 := record("@p:1", "AAAA") + record("@p:2", "AAAA") + record("@p:3", "CCCC") + record("@p:4", "CCCC")
	r2 := record("@q:1", "TTTT") + record("@q:2", "TTTT") + record("@q:3", "GGGG") + record("@q:4", "GGGG")

	var checked int
	opts := dedup.Opts{
		Mode: dedup.KeySequence,
		Progress: func(m dedup.Metrics) {
			// The counter invariant holds after every group, not
			// just at the end.
			assert.Equal(t, m.Processed, m.Written+m.Duplicates)
			checked++
		},
	}
	store := dedup.NewMemStore()
	defer store.Close()
	metrics, out1, out2, err := run(t, r1, r2, "", store, opts)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), metrics.Processed)
	assert.Equal(t, uint64(2), metrics.Written)
	assert.Equal(t, uint64(2), metrics.Duplicates)
	assert.Equal(t, 4, checked)

	// Survivors keep their original order and exact line content.
	assert.Equal(t, record("@p:1", "AAAA")+record("@p:3", "CCCC"), out1)
	assert.Equal(t, record("@q:1", "TTTT")+record("@q:3", "GGGG"), out2)
}

func TestDedupHeaderBarcode(t *testing.T) {
	// Identical sequences, distinct barcodes in the read-1 header:
	// barcode keying keeps both, sequence keying keeps one.
	r1 := record("@r:1:ACGT", "AAAA") + record("@r:2:TGCA", "AAAA")
	r2 := record("@s:1", "TTTT") + record("@s:2", "TTTT")

	store := dedup.NewMemStore()
	metrics, _, _, err := run(t, r1, r2, "", store, dedup.Opts{Mode: dedup.KeyHeaderBarcode})
	require.NoError(t, err)
	store.Close()
	assert.Equal(t, uint64(2), metrics.Written)
	assert.Equal(t, uint64(0), metrics.Duplicates)

	store = dedup.NewMemStore()
	metrics, _, _, err = run(t, r1, r2, "", store, dedup.Opts{Mode: dedup.KeySequence})
	require.NoError(t, err)
	store.Close()
	assert.Equal(t, uint64(1), metrics.Written)
	assert.Equal(t, uint64(1), metrics.Duplicates)
}

func TestDedupIndexRead(t *testing.T) {
	r1 := record("@p:1", "AAAA") + record("@p:2", "AAAA")
	r2 := record("@q:1", "TTTT") + record("@q:2", "TTTT")
	index := record("@i:1", "ACGT") + record("@i:2", "TGCA")

	store := dedup.NewMemStore()
	defer store.Close()
	metrics, out1, _, err := run(t, r1, r2, index, store, dedup.Opts{Mode: dedup.KeyIndexRead})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), metrics.Written)
	// The index read itself is never emitted.
	assert.NotContains(t, out1, "@i:")
}

func TestDedupDesyncFatal(t *testing.T) {
	r1 := record("@p:1", "AAAA") + record("@p:2", "CCCC") + record("@p:3", "GGGG")
	r2 := record("@q:1", "TTTT")

	store := dedup.NewMemStore()
	defer store.Close()
	metrics, _, _, err := run(t, r1, r2, "", store, dedup.Opts{Mode: dedup.KeySequence})
	require.Error(t, err)
	assert.True(t, errors.Is(err, fastq.ErrDiscordant), "got %v", err)
	// Partial counters cover the group classified before the fault.
	assert.Equal(t, uint64(1), metrics.Processed)
}

func TestDedupIndexModeWithoutIndexStream(t *testing.T) {
	r1 := record("@p:1", "AAAA")
	r2 := record("@q:1", "TTTT")
	store := dedup.NewMemStore()
	defer store.Close()
	_, _, _, err := run(t, r1, r2, "", store, dedup.Opts{Mode: dedup.KeyIndexRead})
	require.Error(t, err)
}

func TestDedupBloomEndToEnd(t *testing.T) {
	// All-duplicate input through the bloom store: no false
	// negatives means exactly one survivor.
	var r1, r2 strings.Builder
	for i := 0; i < 50; i++ {
		r1.WriteString(record("@p", "ACGTACGT"))
		r2.WriteString(record("@q", "TGCATGCA"))
	}
	store := dedup.NewBloomStore(50, dedup.DefaultFPP)
	defer store.Close()
	metrics, _, _, err := run(t, r1.String(), r2.String(), "", store, dedup.Opts{Mode: dedup.KeySequence})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), metrics.Written)
	assert.Equal(t, uint64(49), metrics.Duplicates)
}

func TestDedupCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	scanner := fastq.NewGroupScanner(
		strings.NewReader(record("@p:1", "AAAA")),
		strings.NewReader(record("@q:1", "TTTT")),
	)
	var out1, out2 strings.Builder
	store := dedup.NewMemStore()
	defer store.Close()
	_, err := dedup.Dedup(ctx, scanner, fastq.NewPairWriter(&out1, &out2), store, dedup.Opts{})
	require.ErrorIs(t, err, context.Canceled)
}
