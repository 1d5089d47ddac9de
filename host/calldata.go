package host

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"golang.org/x/crypto/sha3"

	"github.com/levihackerman-102/proof-of-optima-template/circuits"
	"github.com/levihackerman-102/proof-of-optima-template/proof"
)

// VerifyProofSignature is the entry point of the exported verifier contract.
const VerifyProofSignature = "verifyProof(uint256[8],uint256[3])"

// Like abi.NewType but panics if it fails for use in package variables
func newStaticType(t string) abi.Type {
	ty, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return ty
}

var verifyProofArguments = abi.Arguments{
	{Name: "proof", Type: newStaticType("uint256[8]")},
	{Name: "input", Type: newStaticType("uint256[3]")},
}

// Selector returns the 4-byte function selector of VerifyProofSignature.
func Selector() [4]byte {
	var sel [4]byte
	hash := sha3.NewLegacyKeccak256()
	hash.Write([]byte(VerifyProofSignature))
	copy(sel[:], hash.Sum(nil))
	return sel
}

// PublicInputs recomputes the verifier's public input vector from the
// receipt's journal.
func PublicInputs(r *proof.Receipt, capacity int) ([3]*big.Int, error) {
	var input [3]*big.Int
	out, err := r.Journal.Decode()
	if err != nil {
		return input, err
	}
	pub, err := circuits.NewPublicAssignment(capacity, out.Cities, out.Distances, out.TotalLength)
	if err != nil {
		return input, err
	}
	vals, err := pub.PublicInputs()
	if err != nil {
		return input, err
	}
	if len(vals) != len(input) {
		return input, fmt.Errorf("circuit exposes %d public inputs, want %d", len(vals), len(input))
	}
	copy(input[:], vals)
	return input, nil
}

// Calldata ABI-encodes a verifyProof call for the receipt, ready to be sent
// to the contract produced by keys.ExportSolidity.
func Calldata(r *proof.Receipt, capacity int) ([]byte, error) {
	words, err := r.SolidityProof()
	if err != nil {
		return nil, err
	}
	input, err := PublicInputs(r, capacity)
	if err != nil {
		return nil, err
	}
	packed, err := verifyProofArguments.Pack(words, input)
	if err != nil {
		return nil, fmt.Errorf("unable to pack verifyProof arguments: %w", err)
	}
	sel := Selector()
	return append(sel[:], packed...), nil
}
