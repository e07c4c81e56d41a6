package dedup

import (
	"strings"

	"github.com/minio/highwayhash"
	"github.com/pkg/errors"

	"github.com/grailbio/fqdedup/encoding/fastq"
)

// KeySize is the width of an identity key in bytes.
const KeySize = highwayhash.Size

// A Key is the identity fingerprint of one record group. Groups with
// byte-identical keyed content always produce the same Key; the
// 256-bit space makes accidental collisions negligible. Keys are not
// meant to resist an adversary.
type Key [KeySize]byte

// KeyMode selects which content participates in the identity key.
type KeyMode int

const (
	// KeySequence keys on seq1 ∥ seq2 only.
	KeySequence KeyMode = iota
	// KeyHeaderBarcode keys on barcode ∥ seq1 ∥ seq2, with the
	// barcode extracted from the read-1 header.
	KeyHeaderBarcode
	// KeyIndexRead keys on seq_index ∥ seq1 ∥ seq2 and requires a
	// third synchronized stream.
	KeyIndexRead
)

func (m KeyMode) String() string {
	switch m {
	case KeySequence:
		return "sequence"
	case KeyHeaderBarcode:
		return "header-barcode"
	case KeyIndexRead:
		return "index-read"
	}
	return "unknown"
}

// ResolveKeyMode maps the two barcode options onto a KeyMode. When
// both a header barcode and an index stream are requested, the index
// stream wins.
func ResolveKeyMode(barcodeInName, hasIndex bool) KeyMode {
	switch {
	case hasIndex:
		return KeyIndexRead
	case barcodeInName:
		return KeyHeaderBarcode
	}
	return KeySequence
}

// BarcodeFromID extracts the barcode from a FASTQ ID line: the token
// after the final ':' in the portion of the line before the first
// space. It returns "" when that portion contains no ':'.
func BarcodeFromID(id string) string {
	if i := strings.IndexByte(id, ' '); i >= 0 {
		id = id[:i]
	}
	i := strings.LastIndexByte(id, ':')
	if i < 0 {
		return ""
	}
	return id[i+1:]
}

var zeroSeed [32]byte

// A KeyBuilder derives identity keys for record groups under one
// KeyMode. It keeps a scratch buffer across calls; builders are not
// threadsafe.
type KeyBuilder struct {
	mode KeyMode
	buf  []byte
}

// NewKeyBuilder returns a KeyBuilder for the given mode.
func NewKeyBuilder(mode KeyMode) *KeyBuilder {
	return &KeyBuilder{mode: mode}
}

// Mode returns the builder's key mode.
func (b *KeyBuilder) Mode() KeyMode { return b.mode }

// Key derives g's identity key. It fails only in KeyIndexRead mode
// when g carries no index read, which indicates the input streams
// were not set up for index keying.
func (b *KeyBuilder) Key(g *fastq.Group) (Key, error) {
	b.buf = b.buf[:0]
	switch b.mode {
	case KeyHeaderBarcode:
		b.buf = append(b.buf, BarcodeFromID(g.R1.ID)...)
	case KeyIndexRead:
		if !g.HasIndex {
			return Key{}, errors.New("index-read keying requires an index stream")
		}
		b.buf = append(b.buf, g.Index.Seq...)
	}
	b.buf = append(b.buf, g.R1.Seq...)
	b.buf = append(b.buf, g.R2.Seq...)
	return highwayhash.Sum(b.buf, zeroSeed[:]), nil
}
