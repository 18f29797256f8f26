package pebbleengine

import "encoding/binary"

const (
	prefixData    byte = 'd'
	prefixSeqIdx  byte = 's'
	prefixCounter byte = 'c'
)

func dataPrefix(store string) []byte {
	b := make([]byte, 0, 2+len(store)+1)
	b = append(b, prefixData, 0)
	b = append(b, store...)
	return append(b, 0)
}

func dataKey(store string, key []byte) []byte {
	return append(dataPrefix(store), key...)
}

func seqIdxPrefix(store string) []byte {
	b := make([]byte, 0, 2+len(store)+1)
	b = append(b, prefixSeqIdx, 0)
	b = append(b, store...)
	return append(b, 0)
}

func seqIdxKey(store string, seq uint64) []byte {
	b := seqIdxPrefix(store)
	var s8 [8]byte
	binary.BigEndian.PutUint64(s8[:], seq)
	return append(b, s8[:]...)
}

func counterKey(store string) []byte {
	b := make([]byte, 0, 2+len(store))
	b = append(b, prefixCounter, 0)
	return append(b, store...)
}

// prefixUpperBound returns the smallest key that sorts strictly after every
// key with the given prefix, for use as a pebble.IterOptions.UpperBound. A
// nil result means the prefix has no upper bound (it was all 0xff bytes).
func prefixUpperBound(prefix []byte) []byte {
	up := append([]byte(nil), prefix...)
	for i := len(up) - 1; i >= 0; i-- {
		up[i]++
		if up[i] != 0 {
			return up[:i+1]
		}
	}
	return nil
}

// encodeValue packs a record's sequence, meta and body into one pebble
// value so a single point lookup recovers the full Record.
func encodeValue(seq uint64, meta, body []byte) []byte {
	var tmp [binary.MaxVarintLen64]byte
	buf := make([]byte, 0, 2*binary.MaxVarintLen64+len(meta)+len(body))
	n := binary.PutUvarint(tmp[:], seq)
	buf = append(buf, tmp[:n]...)
	n = binary.PutUvarint(tmp[:], uint64(len(meta)))
	buf = append(buf, tmp[:n]...)
	buf = append(buf, meta...)
	buf = append(buf, body...)
	return buf
}

func decodeValue(v []byte) (seq uint64, meta, body []byte) {
	seq, n := binary.Uvarint(v)
	v = v[n:]
	metaLen, n2 := binary.Uvarint(v)
	v = v[n2:]
	meta = v[:metaLen]
	body = v[metaLen:]
	return seq, meta, body
}
