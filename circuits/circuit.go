// Package circuits holds the R1CS form of the tour validator: the same
// permutation and cyclic-length rules the guest checks, expressed as
// constraints over a fixed city capacity.
package circuits

import (
	"fmt"

	"github.com/consensys/gnark/frontend"
	mimc "github.com/consensys/gnark/std/hash/mimc"
)

// LengthBits is the width of the committed total length.
const LengthBits = 64

// Circuit proves that a private tour is a permutation of [0, CityCount)
// whose cyclic length over a private, committed matrix is TotalLength.
//
// Instances smaller than Capacity are padded: rows/columns at index ≥
// CityCount are zero and padded tour slots are zero and ignored.
type Circuit struct {
	// Public inputs (ordering is important! gnark processes public inputs in the declared order)
	CityCount        frontend.Variable `gnark:",public"`
	MatrixCommitment frontend.Variable `gnark:",public"` // MiMC(CityCount, Distances...)
	TotalLength      frontend.Variable `gnark:",public"`

	// Private inputs
	Distances []frontend.Variable // row-major, Capacity × Capacity
	Tour      []frontend.Variable

	Capacity int `gnark:"-"`
}

// New returns an unassigned circuit shaped for capacity cities, ready for
// frontend.Compile.
func New(capacity int) *Circuit {
	return &Circuit{
		Distances: make([]frontend.Variable, capacity*capacity),
		Tour:      make([]frontend.Variable, capacity),
		Capacity:  capacity,
	}
}

// Define defines the circuit constraints.
func (c *Circuit) Define(api frontend.API) error {
	m := c.Capacity
	if m <= 0 || len(c.Distances) != m*m || len(c.Tour) != m {
		return fmt.Errorf("circuit shape mismatch: capacity=%d distances=%d tour=%d", m, len(c.Distances), len(c.Tour))
	}

	// -------------------------------------------------
	// 1. Matrix commitment binds the private matrix to the journal
	// -------------------------------------------------
	hasher, err := mimc.NewMiMC(api)
	if err != nil {
		return err
	}
	hasher.Write(c.CityCount)
	hasher.Write(c.Distances...)
	api.AssertIsEqual(hasher.Sum(), c.MatrixCommitment)

	// -------------------------------------------------
	// 2. CityCount ∈ [0, m] and active[i] = (i < CityCount)
	// -------------------------------------------------
	countSel := make([]frontend.Variable, m+1)
	for k := range countSel {
		countSel[k] = api.IsZero(api.Sub(c.CityCount, k))
	}
	api.AssertIsEqual(sum(api, countSel), 1)

	active := make([]frontend.Variable, m)
	active[m-1] = countSel[m]
	for i := m - 2; i >= 0; i-- {
		active[i] = api.Add(active[i+1], countSel[i+1])
	}

	// -------------------------------------------------
	// 3. Permutation: every active slot names one city, every city < CityCount
	//    is named by exactly one active slot, no city ≥ CityCount is named
	// -------------------------------------------------
	sel := make([][]frontend.Variable, m)
	for i := range sel {
		sel[i] = make([]frontend.Variable, m)
		for city := range sel[i] {
			sel[i][city] = api.IsZero(api.Sub(c.Tour[i], city))
		}
		api.AssertIsEqual(api.Mul(active[i], api.Sub(1, sum(api, sel[i]))), 0)
	}
	for city := 0; city < m; city++ {
		visits := frontend.Variable(0)
		for i := 0; i < m; i++ {
			visits = api.Add(visits, api.Mul(active[i], sel[i][city]))
		}
		api.AssertIsEqual(visits, active[city])
	}

	// -------------------------------------------------
	// 4. Cyclic length: the successor of the last active slot is slot 0
	// -------------------------------------------------
	total := frontend.Variable(0)
	for i := 0; i < m; i++ {
		next := make([]frontend.Variable, m)
		for b := range next {
			if i == m-1 {
				next[b] = sel[0][b]
			} else {
				next[b] = api.Select(active[i+1], sel[i+1][b], sel[0][b])
			}
		}

		edge := frontend.Variable(0)
		for b := 0; b < m; b++ {
			row := frontend.Variable(0)
			for a := 0; a < m; a++ {
				row = api.Add(row, api.Mul(sel[i][a], c.Distances[a*m+b]))
			}
			edge = api.Add(edge, api.Mul(next[b], row))
		}
		total = api.Add(total, api.Mul(active[i], edge))
	}
	api.AssertIsEqual(total, c.TotalLength)

	// the committed length is a u64; a sum that does not fit cannot be claimed
	api.ToBinary(c.TotalLength, LengthBits)

	return nil
}

func sum(api frontend.API, vs []frontend.Variable) frontend.Variable {
	acc := frontend.Variable(0)
	for _, v := range vs {
		acc = api.Add(acc, v)
	}
	return acc
}
