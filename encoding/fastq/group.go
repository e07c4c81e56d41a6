package fastq

import (
	"io"

	"github.com/pkg/errors"
)

// A Group is one synchronized tuple of reads: the read pair R1/R2,
// plus an optional index read carrying the sample barcode. A group is
// accepted or dropped as a unit.
type Group struct {
	R1, R2, Index Read
	HasIndex      bool
}

// GroupScanner reads synchronized record groups from two or three
// FASTQ streams in lock step.
//
// Scanning ends cleanly when R1 reaches end of stream. If a secondary
// stream runs out while R1 still has records, or fails mid-record,
// the streams are desynchronized and Err returns a non-nil error
// wrapping ErrDiscordant or the stream's own failure; no further
// groups are produced.
type GroupScanner struct {
	r1, r2, index *Scanner
	groups        uint64
	err           error
}

// NewGroupScanner creates a scanner over a pair of FASTQ streams.
func NewGroupScanner(r1, r2 io.Reader) *GroupScanner {
	return &GroupScanner{
		r1: NewScanner("R1", r1),
		r2: NewScanner("R2", r2),
	}
}

// NewTripleScanner creates a scanner over a read pair plus a separate
// index-read stream.
func NewTripleScanner(r1, r2, index io.Reader) *GroupScanner {
	g := NewGroupScanner(r1, r2)
	g.index = NewScanner("index", index)
	return g
}

// Scan reads the next group into g. It returns a boolean indicating
// whether the scan succeeded. Once Scan returns false, it never
// returns true again; check Err to distinguish end of input from a
// failure.
func (s *GroupScanner) Scan(g *Group) bool {
	if s.err != nil {
		return false
	}
	if !s.r1.Scan(&g.R1) {
		// A clean EOF on R1 terminates the run; anything else is an
		// input fault.
		s.err = s.streamErr(s.r1)
		return false
	}
	if !s.r2.Scan(&g.R2) {
		s.err = s.secondaryFault(s.r2)
		return false
	}
	if s.index != nil {
		if !s.index.Scan(&g.Index) {
			s.err = s.secondaryFault(s.index)
			return false
		}
		g.HasIndex = true
	}
	s.groups++
	return true
}

// Groups returns the number of groups scanned so far.
func (s *GroupScanner) Groups() uint64 { return s.groups }

// Err returns the first error encountered, or nil if scanning
// stopped at a clean end of input.
func (s *GroupScanner) Err() error { return s.err }

func (s *GroupScanner) streamErr(sc *Scanner) error {
	if err := sc.Err(); err != nil {
		return errors.Wrapf(err, "stream %s", sc.Name())
	}
	return nil
}

// secondaryFault classifies a secondary stream that stopped while R1
// still had data: either it failed on its own, or it simply ran out,
// which means the inputs are not record-for-record aligned.
func (s *GroupScanner) secondaryFault(sc *Scanner) error {
	if !sc.atEOF() {
		return s.streamErr(sc)
	}
	return errors.Wrapf(ErrDiscordant,
		"stream %s exhausted after %d groups while R1 still has records", sc.Name(), s.groups)
}
