package collate

import (
	"bytes"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodeTuple(ts float64, docID string) []byte {
	b := NewBuilder()
	b.BeginArray().WriteDouble(ts).WriteEmptyMap().WriteString(docID)
	return b.Bytes()
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		ts    float64
		docID string
	}{
		{0, ""},
		{1234.5, "a"},
		{-99.25, "negative-timestamp-doc"},
		{1e18, "large"},
	}
	for _, c := range cases {
		enc := encodeTuple(c.ts, c.docID)
		r := NewReader(enc)
		require.NoError(t, r.SkipArray())
		gotTS, err := r.ReadDouble()
		require.NoError(t, err)
		require.Equal(t, c.ts, gotTS)
		require.NoError(t, r.SkipEmptyMap())
		gotID, err := r.ReadString()
		require.NoError(t, err)
		require.Equal(t, c.docID, gotID)
	}
}

func TestOrderingMatchesTupleOrder(t *testing.T) {
	type tuple struct {
		ts    float64
		docID string
	}
	rng := rand.New(rand.NewSource(42))
	tuples := make([]tuple, 500)
	for i := range tuples {
		tuples[i] = tuple{
			ts:    float64(rng.Intn(2000) - 1000),
			docID: string([]byte{byte('a' + rng.Intn(26)), byte('a' + rng.Intn(26))}),
		}
	}

	logical := append([]tuple(nil), tuples...)
	sort.Slice(logical, func(i, j int) bool {
		if logical[i].ts != logical[j].ts {
			return logical[i].ts < logical[j].ts
		}
		return logical[i].docID < logical[j].docID
	})

	encoded := make([][]byte, len(tuples))
	for i, tup := range tuples {
		encoded[i] = encodeTuple(tup.ts, tup.docID)
	}
	sort.Slice(encoded, func(i, j int) bool {
		return bytes.Compare(encoded[i], encoded[j]) < 0
	})

	for i, enc := range encoded {
		r := NewReader(enc)
		require.NoError(t, r.SkipArray())
		ts, err := r.ReadDouble()
		require.NoError(t, err)
		require.NoError(t, r.SkipEmptyMap())
		id, err := r.ReadString()
		require.NoError(t, err)
		require.Equal(t, logical[i].ts, ts, "position %d", i)
		require.Equal(t, logical[i].docID, id, "position %d", i)
	}
}
