package revid

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// RevID is a canonical revision identifier: a generation number paired with
// a digest. It is immutable once constructed.
type RevID struct {
	generation int
	digest     []byte
}

// New constructs a RevID directly from a generation and digest, without
// going through either wire format, for callers that already hold raw
// digest bytes rather than a string or byte slice to parse.
func New(generation int, digest []byte) RevID {
	return RevID{generation: generation, digest: append([]byte(nil), digest...)}
}

// Parse reads the ASCII form "<gen>-<hex-digest>".
func Parse(s string) (RevID, error) {
	dash := strings.IndexByte(s, '-')
	if dash <= 0 || dash == len(s)-1 {
		return RevID{}, errors.Newf("revid: malformed ASCII revID %q", s)
	}
	gen, err := strconv.Atoi(s[:dash])
	if err != nil || gen <= 0 {
		return RevID{}, errors.Newf("revid: malformed generation in %q", s)
	}
	digest, err := hex.DecodeString(s[dash+1:])
	if err != nil {
		return RevID{}, errors.Wrapf(err, "revid: malformed digest in %q", s)
	}
	return RevID{generation: gen, digest: digest}, nil
}

// ParseBinary reads the compact form "<varint:gen><digest-bytes>".
func ParseBinary(b []byte) (RevID, error) {
	gen, n := binary.Uvarint(b)
	if n <= 0 {
		return RevID{}, errors.New("revid: malformed binary revID: bad generation varint")
	}
	if gen == 0 {
		return RevID{}, errors.New("revid: malformed binary revID: generation must be positive")
	}
	return RevID{generation: int(gen), digest: append([]byte(nil), b[n:]...)}, nil
}

// IsZero reports whether r is the zero value (no revID parsed).
func (r RevID) IsZero() bool {
	return r.generation == 0
}

func (r RevID) Generation() int {
	return r.generation
}

func (r RevID) Digest() []byte {
	return r.digest
}

// String renders the ASCII form "<gen>-<hex-digest>".
func (r RevID) String() string {
	if r.IsZero() {
		return ""
	}
	return strconv.Itoa(r.generation) + "-" + hex.EncodeToString(r.digest)
}

// Bytes renders the compact binary form "<varint:gen><digest-bytes>".
func (r RevID) Bytes() []byte {
	buf := make([]byte, binary.MaxVarintLen64+len(r.digest))
	n := binary.PutUvarint(buf, uint64(r.generation))
	return append(buf[:n], r.digest...)
}

// Compare orders first by generation, then lexicographically by digest.
// It returns a negative number, zero, or a positive number as r is less
// than, equal to, or greater than other.
func (r RevID) Compare(other RevID) int {
	if r.generation != other.generation {
		return r.generation - other.generation
	}
	return bytes.Compare(r.digest, other.digest)
}

// Equal reports whether r and other denote the same revision identifier.
func (r RevID) Equal(other RevID) bool {
	return r.Compare(other) == 0
}
