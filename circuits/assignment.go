package circuits

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	frhashmimc "github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark/frontend"
)

// PadMatrix copies the n×n row-major matrix into the top-left corner of a
// capacity×capacity zero matrix.
func PadMatrix(capacity, n int, distances []uint64) ([]uint64, error) {
	if n > capacity {
		return nil, fmt.Errorf("%d cities exceed circuit capacity %d", n, capacity)
	}
	if len(distances) != n*n {
		return nil, fmt.Errorf("distance matrix has %d entries, want %d", len(distances), n*n)
	}
	padded := make([]uint64, capacity*capacity)
	for a := 0; a < n; a++ {
		copy(padded[a*capacity:a*capacity+n], distances[a*n:(a+1)*n])
	}
	return padded, nil
}

// ComputeCommitment computes the public matrix commitment the circuit
// enforces:
//
//	MatrixCommitment = MiMC(CityCount, D[0], ..., D[capacity²-1])
//
// over the padded matrix. Field elements are written in the same order as
// the in-circuit hasher.Write calls.
func ComputeCommitment(capacity, n int, distances []uint64) (*big.Int, error) {
	padded, err := PadMatrix(capacity, n, distances)
	if err != nil {
		return nil, err
	}

	h := frhashmimc.NewMiMC()
	var fe fr.Element
	fe.SetUint64(uint64(n))
	b := fe.Bytes()
	h.Write(b[:])
	for _, d := range padded {
		fe.SetUint64(d)
		b = fe.Bytes()
		h.Write(b[:])
	}

	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return out.BigInt(new(big.Int)), nil
}

// NewAssignment builds the full witness (private + public) for one tour.
func NewAssignment(capacity, n int, distances, tour []uint64, total uint64) (*Circuit, error) {
	if len(tour) != n {
		return nil, fmt.Errorf("tour has %d cities, want %d", len(tour), n)
	}
	commitment, err := ComputeCommitment(capacity, n, distances)
	if err != nil {
		return nil, err
	}
	padded, _ := PadMatrix(capacity, n, distances)

	assign := New(capacity)
	assign.CityCount = n
	assign.MatrixCommitment = commitment
	assign.TotalLength = total
	for i, d := range padded {
		assign.Distances[i] = d
	}
	for i := range assign.Tour {
		assign.Tour[i] = 0
	}
	for i, city := range tour {
		assign.Tour[i] = city
	}
	return assign, nil
}

// NewPublicAssignment builds the public-only witness a verifier derives from
// a journal.
func NewPublicAssignment(capacity, n int, distances []uint64, total uint64) (*Circuit, error) {
	commitment, err := ComputeCommitment(capacity, n, distances)
	if err != nil {
		return nil, err
	}
	assign := New(capacity)
	assign.CityCount = n
	assign.MatrixCommitment = commitment
	assign.TotalLength = total
	return assign, nil
}

// PublicInputs returns the public inputs in declaration order, as the
// Solidity verifier expects them.
func (c *Circuit) PublicInputs() ([]*big.Int, error) {
	vals := []frontend.Variable{c.CityCount, c.MatrixCommitment, c.TotalLength}
	out := make([]*big.Int, len(vals))
	for i, v := range vals {
		switch x := v.(type) {
		case *big.Int:
			out[i] = new(big.Int).Set(x)
		case int:
			out[i] = big.NewInt(int64(x))
		case uint64:
			out[i] = new(big.Int).SetUint64(x)
		default:
			return nil, fmt.Errorf("public input %d: unexpected %T", i, v)
		}
	}
	return out, nil
}
