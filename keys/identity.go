package keys

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"slices"

	"github.com/consensys/gnark/backend/groth16"
)

// ProgramID fingerprints one compiled validator: the SHA-256 of its
// serialized verifying key, held as eight words read little-endian from the
// digest.
type ProgramID [8]uint32

// ByteOrder selects how a ProgramID is laid out as bytes for an external
// verifier.
type ByteOrder int

const (
	LittleEndian ByteOrder = iota
	BigEndian
	ReversedLittleEndian // word order reversed, then little-endian words
	ReversedBigEndian    // word order reversed, then big-endian words
)

// ByteOrders lists every supported layout.
var ByteOrders = []ByteOrder{LittleEndian, BigEndian, ReversedLittleEndian, ReversedBigEndian}

func (o ByteOrder) String() string {
	switch o {
	case LittleEndian:
		return "le"
	case BigEndian:
		return "be"
	case ReversedLittleEndian:
		return "rev_le"
	case ReversedBigEndian:
		return "rev_be"
	default:
		return fmt.Sprintf("order(%d)", int(o))
	}
}

// Identity derives the ProgramID of a verifying key.
func Identity(vk groth16.VerifyingKey) (ProgramID, error) {
	var buf bytes.Buffer
	if _, err := vk.WriteTo(&buf); err != nil {
		return ProgramID{}, fmt.Errorf("failed to serialize verifying key: %w", err)
	}
	return ProgramIDFromDigest(sha256.Sum256(buf.Bytes())), nil
}

func ProgramIDFromDigest(d [32]byte) ProgramID {
	var id ProgramID
	for i := range id {
		id[i] = binary.LittleEndian.Uint32(d[4*i:])
	}
	return id
}

// Bytes lays the identity out in the given order. Every variant is derived
// here from the same words.
func (id ProgramID) Bytes(order ByteOrder) []byte {
	words := id[:]
	if order == ReversedLittleEndian || order == ReversedBigEndian {
		words = slices.Clone(words)
		slices.Reverse(words)
	}

	out := make([]byte, 0, 32)
	for _, w := range words {
		if order == BigEndian || order == ReversedBigEndian {
			out = binary.BigEndian.AppendUint32(out, w)
		} else {
			out = binary.LittleEndian.AppendUint32(out, w)
		}
	}
	return out
}

// Hex is the lowercase hex of Bytes(order), without prefix.
func (id ProgramID) Hex(order ByteOrder) string {
	return hex.EncodeToString(id.Bytes(order))
}

// String prints the little-endian form, which equals the raw digest.
func (id ProgramID) String() string {
	return id.Hex(LittleEndian)
}

// ParseProgramID reads the little-endian hex form produced by String.
func ParseProgramID(s string) (ProgramID, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return ProgramID{}, fmt.Errorf("invalid program id: %w", err)
	}
	if len(b) != 32 {
		return ProgramID{}, fmt.Errorf("invalid program id: %d bytes, want 32", len(b))
	}
	var d [32]byte
	copy(d[:], b)
	return ProgramIDFromDigest(d), nil
}
