package guest

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrMalformedJournal is returned when journal bytes do not decode into a
// distance matrix followed by a total length.
var ErrMalformedJournal = errors.New("guest: malformed journal")

// Journal is the ordered byte concatenation of every value a guest run
// committed. A slice of u64 is encoded as its u32 LE length followed by the
// values in u64 LE; a single u64 is encoded as 8 bytes LE.
type Journal []byte

// Digest returns the SHA-256 of the journal bytes.
func (j Journal) Digest() [32]byte {
	return sha256.Sum256(j)
}

// Output is the decoded content of a tour-validation journal.
type Output struct {
	Cities      int
	Distances   []uint64
	TotalLength uint64
}

// Decode splits the journal into the committed matrix and total length.
func (j Journal) Decode() (*Output, error) {
	if len(j) < 4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedJournal, len(j))
	}
	count := uint64(binary.LittleEndian.Uint32(j))
	if want := 4 + count*8 + 8; uint64(len(j)) != want {
		return nil, fmt.Errorf("%w: %d entries need %d bytes, have %d", ErrMalformedJournal, count, want, len(j))
	}
	n := isqrt(count)
	if n*n != count {
		return nil, fmt.Errorf("%w: %d entries is not a square matrix", ErrMalformedJournal, count)
	}

	dist := make([]uint64, count)
	off := 4
	for i := range dist {
		dist[i] = binary.LittleEndian.Uint64(j[off:])
		off += 8
	}
	return &Output{
		Cities:      int(n),
		Distances:   dist,
		TotalLength: binary.LittleEndian.Uint64(j[off:]),
	}, nil
}

func isqrt(v uint64) uint64 {
	r := uint64(math.Sqrt(float64(v)))
	for r*r > v {
		r--
	}
	for (r+1)*(r+1) <= v {
		r++
	}
	return r
}

func appendUint64s(j Journal, vs []uint64) Journal {
	j = binary.LittleEndian.AppendUint32(j, uint32(len(vs)))
	for _, v := range vs {
		j = binary.LittleEndian.AppendUint64(j, v)
	}
	return j
}

func appendUint64(j Journal, v uint64) Journal {
	return binary.LittleEndian.AppendUint64(j, v)
}
