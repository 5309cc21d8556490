package persist

import (
	"bytes"
	"encoding/hex"
	"io"

	"github.com/nasdf/nosqldb/codec"

	"golang.org/x/crypto/sha3"
)

// Digest is the sha3-256 hash of an encoded database. Stores encode their
// entries in key order, so an unchanged store always has the same digest.
type Digest [32]byte

// IsZero returns true if nothing has been digested yet.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// encode writes the document of the source once, to a buffer and to the
// hash, and returns the encoded bytes with their digest.
func encode(source Source) ([]byte, Digest, error) {
	var buf bytes.Buffer
	hash := sha3.New256()

	enc := codec.NewEncoder(io.MultiWriter(&buf, hash))
	if err := enc.Encode(source); err != nil {
		return nil, Digest{}, err
	}
	if err := enc.Flush(); err != nil {
		return nil, Digest{}, err
	}

	var digest Digest
	hash.Sum(digest[:0])
	return buf.Bytes(), digest, nil
}
