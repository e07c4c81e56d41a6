package fastq

import "io"

var newline = []byte{'\n'}

// Writer is a FASTQ file writer.
type Writer struct {
	w   io.Writer
	err error
}

// NewWriter constructs a new FASTQ writer
// that writes reads to the underlying writer w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write writes the read r in FASTQ format.
// An error is returned if the write failed.
func (w *Writer) Write(r *Read) error {
	w.writeln(r.ID)
	w.writeln(r.Seq)
	w.writeln(r.Unk)
	w.writeln(r.Qual)
	return w.err
}

func (w *Writer) writeln(line string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.w, line)
	if w.err == nil {
		_, w.err = w.w.Write(newline)
	}
}

// PairWriter writes accepted groups to the R1 and R2 output streams.
// The index read, when present, is never written; it exists only to
// key the group.
type PairWriter struct {
	r1, r2 *Writer
}

// NewPairWriter constructs a PairWriter over the two output streams.
func NewPairWriter(r1, r2 io.Writer) *PairWriter {
	return &PairWriter{r1: NewWriter(r1), r2: NewWriter(r2)}
}

// Write appends g's R1 and R2 reads to their respective outputs.
func (w *PairWriter) Write(g *Group) error {
	if err := w.r1.Write(&g.R1); err != nil {
		return err
	}
	return w.r2.Write(&g.R2)
}
