package fastq

import (
	"bufio"
	"errors"
	"io"
)

var (
	// ErrShort is returned when a stream ends in the middle of a
	// four-line record.
	ErrShort = errors.New("short FASTQ file")
	// ErrInvalid is returned when an invalid FASTQ file is encountered.
	ErrInvalid = errors.New("invalid FASTQ file")
	// ErrDiscordant is returned when synchronized FASTQ streams fall
	// out of step with each other.
	ErrDiscordant = errors.New("discordant FASTQ streams")
)

// A Read is a FASTQ read, comprising an ID, sequence, line 3
// ("unknown"), and a quality string. All four lines are retained
// verbatim (without terminators) so that accepted reads round-trip
// byte for byte.
type Read struct {
	ID, Seq, Unk, Qual string
}

var errEOF = errors.New("eof")

// Scanner reads FASTQ records from a single stream, four lines at a
// time. The Scan method returns the next read, returning a boolean
// indicating whether the read succeeded. Scanners are not threadsafe.
//
// Scanner performs some validation: it requires ID lines to begin
// with "@" and that line 3 begins with "+", but does not perform
// further validation (e.g., seq/qual being of equal length,
// containing only data in range, etc.)
type Scanner struct {
	name string
	b    *bufio.Scanner
	err  error
}

// NewScanner constructs a new Scanner that reads raw FASTQ data from
// the provided reader. The name identifies the stream (e.g. "R1") in
// error messages.
func NewScanner(name string, r io.Reader) *Scanner {
	return &Scanner{name: name, b: bufio.NewScanner(r)}
}

// Name returns the stream name given to NewScanner.
func (s *Scanner) Name() string { return s.name }

// Scan the next read into the provided read. Scan returns a boolean
// indicating whether the scan succeeded. Once Scan returns false, it
// never returns true again. Upon completion, the user should check
// the Err method to determine whether scanning stopped because of an
// error or because the end of the stream was reached.
func (s *Scanner) Scan(read *Read) bool {
	if s.err != nil {
		return false
	}
	if !s.b.Scan() {
		if s.err = s.b.Err(); s.err == nil {
			s.err = errEOF
		}
		return false
	}
	id := s.b.Text()
	if len(id) == 0 || id[0] != '@' {
		s.err = ErrInvalid
		return false
	}
	read.ID = id
	if !s.scan() {
		return false
	}
	read.Seq = s.b.Text()
	if !s.scan() {
		return false
	}
	unk := s.b.Text()
	if len(unk) == 0 || unk[0] != '+' {
		s.err = ErrInvalid
		return false
	}
	read.Unk = unk
	if !s.scan() {
		return false
	}
	read.Qual = s.b.Text()
	return true
}

// scan reads one continuation line of a record; running out of input
// here means the record was truncated.
func (s *Scanner) scan() bool {
	ok := s.b.Scan()
	if !ok {
		if s.err = s.b.Err(); s.err == nil {
			s.err = ErrShort
		}
	}
	return ok
}

// Err returns the scanning error, if any.
func (s *Scanner) Err() error {
	if s.err == errEOF {
		return nil
	}
	return s.err
}

// atEOF reports whether the scanner stopped at a clean end of stream.
func (s *Scanner) atEOF() bool {
	return s.err == errEOF
}
