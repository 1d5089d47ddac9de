// Package verifier checks exported proof artifacts the way an on-chain
// consumer would: only the verifying key, the proof and the public journal
// are available. The pk and the private tour are never read.
package verifier

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/rs/zerolog/log"

	"github.com/levihackerman-102/proof-of-optima-template/guest"
	"github.com/levihackerman-102/proof-of-optima-template/host"
	"github.com/levihackerman-102/proof-of-optima-template/keys"
	"github.com/levihackerman-102/proof-of-optima-template/proof"
)

var (
	ErrDigestMismatch = errors.New("verifier: journal digest mismatch")
	ErrForeignID      = errors.New("verifier: exported program id does not match verifying key")
)

// Result is what a successful verification establishes.
type Result struct {
	ProgramID   keys.ProgramID
	Cities      int
	TotalLength uint64
	Digest      [32]byte
}

// VerifyFiles verifies the artifacts in artifactDir against the setup in
// keysDir.
func VerifyFiles(artifactDir, keysDir string) (*Result, error) {
	log.Info().Str("dir", artifactDir).Msg("Running off-chain verification...")

	vk, capacity, id, err := keys.LoadVerifier(keysDir)
	if err != nil {
		return nil, err
	}

	// the exported id must name this vk
	idBin, _ := host.DefaultIDFile()
	if exported, err := os.ReadFile(filepath.Join(artifactDir, idBin)); err == nil {
		if !bytes.Equal(exported, id.Bytes(keys.LittleEndian)) {
			return nil, fmt.Errorf("%w: %s holds %x, vk is %s", ErrForeignID, idBin, exported, id)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	raw, err := os.ReadFile(filepath.Join(artifactDir, host.JournalFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	journal := guest.Journal(raw)
	digest := journal.Digest()
	if err := checkDigest(filepath.Join(artifactDir, host.DigestFile), digest); err != nil {
		return nil, err
	}

	p, err := readProof(filepath.Join(artifactDir, host.ProofFile))
	if err != nil {
		return nil, err
	}

	out, err := journal.Decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", proof.ErrInvalidProof, err)
	}
	receipt := &proof.Receipt{ProgramID: id, Journal: journal, Proof: p}
	if input, err := host.PublicInputs(receipt, capacity); err == nil {
		// order matches the circuit's public declarations
		for i, v := range input {
			log.Debug().Int("index", i).Str("value", v.String()).Msg("public input")
		}
	}
	if err := proof.VerifyReceipt(vk, capacity, receipt, id); err != nil {
		return nil, err
	}
	log.Info().Stringer("program_id", id).Uint64("total", out.TotalLength).Msg("Verification SUCCESS (off-chain)")

	return &Result{ProgramID: id, Cities: out.Cities, TotalLength: out.TotalLength, Digest: digest}, nil
}

func checkDigest(path string, digest [32]byte) error {
	recorded, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read digest: %w", err)
	}
	if string(bytes.TrimSpace(recorded)) != hex.EncodeToString(digest[:]) {
		return fmt.Errorf("%w: recorded %s, journal hashes to %x", ErrDigestMismatch, recorded, digest)
	}
	return nil
}

func readProof(path string) (groth16.Proof, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open proof: %w", err)
	}
	defer f.Close()

	p := groth16.NewProof(keys.Curve)
	if _, err := p.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("%w: proof parse failed: %w", proof.ErrInvalidProof, err)
	}
	return p, nil
}
