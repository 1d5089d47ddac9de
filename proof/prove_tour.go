// Package proof is the proving engine: it executes the tour validator on an
// input stream, proves the execution with Groth16 over the tour circuit, and
// verifies receipts against a program identity.
//
// To generate a proof the engine needs:
//  1. the input stream (private tour + matrix, public city count)
//  2. the circuit's ProvingKey
//  3. the compiled circuit constraint system (cs)
package proof

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/consensys/gnark/backend/groth16"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/frontend"
	"github.com/rs/zerolog/log"

	"github.com/levihackerman-102/proof-of-optima-template/circuits"
	"github.com/levihackerman-102/proof-of-optima-template/guest"
	"github.com/levihackerman-102/proof-of-optima-template/keys"
)

// SealSize is the length of a Solidity-encoded BN254 Groth16 proof
// (Ar | Bs | Krs) without commitments.
const SealSize = 8 * 32

var (
	ErrExecution        = errors.New("guest execution failed")
	ErrProve            = errors.New("proof generation failed")
	ErrIdentityMismatch = errors.New("program identity mismatch")
	ErrInvalidProof     = errors.New("proof verification failed")
)

// Receipt is the output of one proving run: the journal and the proof that
// the program identified by ProgramID produced it.
type Receipt struct {
	ProgramID keys.ProgramID
	Journal   guest.Journal
	Proof     groth16.Proof
}

// Seal returns the flat proof encoding expected by the Solidity verifier.
func (r *Receipt) Seal() ([]byte, error) {
	p, ok := r.Proof.(*groth16_bn254.Proof)
	if !ok {
		return nil, fmt.Errorf("failed to cast proof to bn254.Proof: %T", r.Proof)
	}
	seal := p.MarshalSolidity()
	if len(seal) != SealSize {
		return nil, fmt.Errorf("unexpected seal size %d", len(seal))
	}
	return seal, nil
}

// SolidityProof splits the seal into the uint256[8] proof argument of the
// generated verifier: a.x, a.y, b.x1, b.x0, b.y1, b.y0, c.x, c.y.
func (r *Receipt) SolidityProof() ([8]*big.Int, error) {
	var words [8]*big.Int
	seal, err := r.Seal()
	if err != nil {
		return words, err
	}
	for i := range words {
		words[i] = new(big.Int).SetBytes(seal[32*i : 32*(i+1)])
	}
	return words, nil
}

// Engine proves and verifies tour validations for one trusted setup. It is
// read-only after construction and may be shared by concurrent callers.
type Engine struct {
	setup *keys.Setup
}

func NewEngine(setup *keys.Setup) *Engine {
	return &Engine{setup: setup}
}

// ID is the identity of the program this engine proves.
func (e *Engine) ID() keys.ProgramID {
	return e.setup.ID
}

// Capacity is the largest city count the circuit accepts.
func (e *Engine) Capacity() int {
	return e.setup.Capacity
}

// Execute runs the validator over input and proves the run. A validator
// failure yields ErrExecution wrapping the guest's error and no receipt.
func (e *Engine) Execute(input []byte) (*Receipt, error) {
	journal, err := guest.Run(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecution, err)
	}
	out, err := journal.Decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecution, err)
	}
	in, err := guest.DecodeInput(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecution, err)
	}
	log.Debug().Int("cities", out.Cities).Uint64("total", out.TotalLength).Msg("guest execution finished")

	assignment, err := circuits.NewAssignment(e.setup.Capacity, out.Cities, in.Distances, in.Tour, out.TotalLength)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build assignment: %w", ErrProve, err)
	}
	witness, err := frontend.NewWitness(assignment, keys.Curve.ScalarField())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to construct witness: %w", ErrProve, err)
	}

	log.Debug().Int("constraints", e.setup.CS.GetNbConstraints()).Msg("Generating proof...")
	p, err := groth16.Prove(e.setup.CS, e.setup.PK, witness)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProve, err)
	}

	receipt := &Receipt{ProgramID: e.setup.ID, Journal: journal, Proof: p}
	if pStruct, ok := p.(*groth16_bn254.Proof); ok {
		logProofForSol(pStruct)
	}
	return receipt, nil
}

// Verify checks that the receipt was produced by the program id and that its
// proof holds for the journal it carries.
func (e *Engine) Verify(r *Receipt, id keys.ProgramID) error {
	if id != e.setup.ID {
		return fmt.Errorf("%w: engine holds keys for %s, asked for %s", ErrIdentityMismatch, e.setup.ID, id)
	}
	return VerifyReceipt(e.setup.VK, e.setup.Capacity, r, id)
}

// VerifyReceipt verifies a receipt with nothing but the verifying key. The
// caller vouches that vk belongs to id; the receipt's claimed id must match.
func VerifyReceipt(vk groth16.VerifyingKey, capacity int, r *Receipt, id keys.ProgramID) error {
	if r == nil || r.Proof == nil {
		return fmt.Errorf("%w: empty receipt", ErrInvalidProof)
	}
	if r.ProgramID != id {
		return fmt.Errorf("%w: receipt claims %s, expected %s", ErrIdentityMismatch, r.ProgramID, id)
	}
	out, err := r.Journal.Decode()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProof, err)
	}
	pub, err := circuits.NewPublicAssignment(capacity, out.Cities, out.Distances, out.TotalLength)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProof, err)
	}
	publicWitness, err := frontend.NewWitness(pub, keys.Curve.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return fmt.Errorf("%w: public input failed: %w", ErrInvalidProof, err)
	}
	if err := groth16.Verify(r.Proof, vk, publicWitness); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidProof, err)
	}
	return nil
}

func logProofForSol(proof *groth16_bn254.Proof) {
	e := log.Trace()
	if !e.Enabled() {
		return
	}
	e.Strs("a", []string{proof.Ar.X.String(), proof.Ar.Y.String()}).
		Strs("b", []string{proof.Bs.X.A0.String(), proof.Bs.X.A1.String(), proof.Bs.Y.A0.String(), proof.Bs.Y.A1.String()}).
		Strs("c", []string{proof.Krs.X.String(), proof.Krs.Y.String()}).
		Msg("proof points for solidity")
}
