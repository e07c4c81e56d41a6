package main

/*
  fqdedup removes PCR-duplicate read pairs from paired-end FASTQ
  files. For the key derivation modes and membership backends, see
  github.com/grailbio/fqdedup/dedup.
*/

import (
	"bufio"
	"context"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"

	"github.com/grailbio/fqdedup/dedup"
	"github.com/grailbio/fqdedup/encoding/fastq"
)

var (
	r1File        = flag.String("r1", "", "read-1 FASTQ filename, .gz accepted")
	r2File        = flag.String("r2", "", "read-2 FASTQ filename, .gz accepted")
	indexFile     = flag.String("index", "", "optional index-read FASTQ filename; keys read pairs by the index sequence")
	barcodeInName = flag.Bool("barcode-in-name", false, "extract the barcode from the read-1 header and include it in the key")
	backend       = flag.String("backend", "bloom", "membership backend: 'memory', 'bloom' or 'sqlite'")
	sqliteDB      = flag.String("sqlite-db", "dedup.sqlite", "database filename for -backend=sqlite")
	expectedReads = flag.Uint64("expected-reads", 0, "expected read-pair count for bloom sizing; 0 counts the read-1 file first")
	fppRate       = flag.Float64("false-positive-rate", dedup.DefaultFPP, "target false positive probability for -backend=bloom")
	outputDir     = flag.String("output-dir", ".", "directory for the nodup_ output files")
	logEvery      = flag.Uint64("log-every", 100000, "log progress every this many read pairs; 0 disables")
)

func main() {
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() > 0 {
		log.Fatalf("unparsed arguments, please check flag syntax: '%s'", strings.Join(flag.Args(), " "))
	}
	if *r1File == "" || *r2File == "" {
		log.Fatalf("-r1 and -r2 are required")
	}

	ctx := vcontext.Background()
	if err := run(ctx); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context) (err error) {
	store, err := newStore(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = errors.Wrap(cerr, "close store")
		}
	}()

	in1, err := openInput(*r1File)
	if err != nil {
		return err
	}
	defer in1.Close()
	in2, err := openInput(*r2File)
	if err != nil {
		return err
	}
	defer in2.Close()

	var scanner *fastq.GroupScanner
	if *indexFile != "" {
		in3, err := openInput(*indexFile)
		if err != nil {
			return err
		}
		defer in3.Close()
		scanner = fastq.NewTripleScanner(in1, in2, in3)
	} else {
		scanner = fastq.NewGroupScanner(in1, in2)
	}

	out1, err := createOutput(outPath(*r1File))
	if err != nil {
		return err
	}
	out2, err := createOutput(outPath(*r2File))
	if err != nil {
		out1.Close()
		return err
	}

	opts := dedup.Opts{
		Mode:     dedup.ResolveKeyMode(*barcodeInName, *indexFile != ""),
		LogEvery: *logEvery,
	}
	log.Printf("deduplicating with %s keys and the %s backend", opts.Mode, *backend)
	metrics, derr := dedup.Dedup(ctx, scanner, fastq.NewPairWriter(out1, out2), store, opts)

	// Flush the outputs before judging the run, so a full disk
	// surfaces as a failure rather than truncated output.
	if cerr := out1.Close(); cerr != nil && derr == nil {
		derr = errors.Wrapf(cerr, "close %s", outPath(*r1File))
	}
	if cerr := out2.Close(); cerr != nil && derr == nil {
		derr = errors.Wrapf(cerr, "close %s", outPath(*r2File))
	}
	if derr != nil {
		return derr
	}
	log.Printf("done: %s", metrics)
	return nil
}

func newStore(ctx context.Context) (dedup.Store, error) {
	switch *backend {
	case "memory":
		return dedup.NewMemStore(), nil
	case "bloom":
		n := *expectedReads
		if n == 0 {
			log.Printf("counting reads in %s to size the bloom filter", *r1File)
			var err error
			if n, err = countRecords(*r1File); err != nil {
				return nil, err
			}
			log.Printf("expecting %d read pairs", n)
		}
		return dedup.NewBloomStore(n, *fppRate), nil
	case "sqlite":
		return dedup.NewSQLiteStore(ctx, *sqliteDB)
	}
	return nil, errors.Errorf("unknown backend %q, expected 'memory', 'bloom' or 'sqlite'", *backend)
}

func outPath(in string) string {
	return filepath.Join(*outputDir, "nodup_"+filepath.Base(in))
}

// countRecords counts the FASTQ records in the file at path, reading
// it once in full.
func countRecords(path string) (uint64, error) {
	in, err := openInput(path)
	if err != nil {
		return 0, err
	}
	defer in.Close()
	scanner := bufio.NewScanner(in)
	var lines uint64
	for scanner.Scan() {
		lines++
	}
	if err := scanner.Err(); err != nil {
		return 0, errors.Wrapf(err, "count records in %s", path)
	}
	return lines / 4, nil
}

type gzReadCloser struct {
	*gzip.Reader
	f *os.File
}

func (r gzReadCloser) Close() error {
	err := r.Reader.Close()
	if cerr := r.f.Close(); err == nil {
		err = cerr
	}
	return err
}

func openInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open input %s", path)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "open gzip input %s", path)
	}
	return gzReadCloser{gz, f}, nil
}

// output layers a buffer (and gzip, for .gz paths) over the
// destination file. Close flushes each layer in order.
type output struct {
	f   *os.File
	gz  *gzip.Writer
	buf *bufio.Writer
}

func createOutput(path string) (*output, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrapf(err, "create output %s", path)
	}
	o := &output{f: f}
	var w io.Writer = f
	if strings.HasSuffix(path, ".gz") {
		o.gz = gzip.NewWriter(f)
		w = o.gz
	}
	o.buf = bufio.NewWriter(w)
	return o, nil
}

func (o *output) Write(p []byte) (int, error) {
	return o.buf.Write(p)
}

func (o *output) Close() error {
	err := o.buf.Flush()
	if o.gz != nil {
		if cerr := o.gz.Close(); err == nil {
			err = cerr
		}
	}
	if cerr := o.f.Close(); err == nil {
		err = cerr
	}
	return err
}
