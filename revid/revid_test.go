package revid

import (
	"encoding/binary"
	"testing"

	"github.com/ValentinKolb/vdb/engine/util"
	"github.com/stretchr/testify/require"
)

func TestASCIIRoundTrip(t *testing.T) {
	r, err := Parse("3-aabbcc")
	require.NoError(t, err)
	require.Equal(t, 3, r.Generation())
	require.Equal(t, "3-aabbcc", r.String())
}

func TestBinaryRoundTrip(t *testing.T) {
	orig := New(42, []byte{0xde, 0xad, 0xbe, 0xef})
	enc := orig.Bytes()
	decoded, err := ParseBinary(enc)
	require.NoError(t, err)
	require.True(t, orig.Equal(decoded))
}

func TestParseMalformed(t *testing.T) {
	for _, s := range []string{"", "abc", "1-", "-aabb", "0-aabb"} {
		_, err := Parse(s)
		require.Error(t, err, "expected error for %q", s)
	}
}

func TestCompare(t *testing.T) {
	low, _ := Parse("1-aa")
	high, _ := Parse("2-aa")
	require.Negative(t, low.Compare(high))
	require.Positive(t, high.Compare(low))

	bb, _ := Parse("2-bb")
	ff, _ := Parse("2-ff")
	require.Negative(t, bb.Compare(ff))
}

func TestCompareByGenerationThenDigest(t *testing.T) {
	a, _ := Parse("5-0a")
	b, _ := Parse("5-ff")
	require.Negative(t, a.Compare(b))
}

func TestRandomDigestRoundTrip(t *testing.T) {
	for gen := 1; gen <= 5; gen++ {
		seed := util.GenerateSeed()
		digest := make([]byte, 8)
		binary.BigEndian.PutUint64(digest, seed)

		orig := New(gen, digest)
		ascii, err := Parse(orig.String())
		require.NoError(t, err)
		require.True(t, orig.Equal(ascii))

		binEnc, err := ParseBinary(orig.Bytes())
		require.NoError(t, err)
		require.True(t, orig.Equal(binEnc))
	}
}
