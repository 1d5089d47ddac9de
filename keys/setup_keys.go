// Generate Groth16 ProvingKey and VerifyingKey for the tour circuit, persist
// them, and export the Solidity verifier.
package keys

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/rs/zerolog/log"

	"github.com/levihackerman-102/proof-of-optima-template/circuits"
)

const (
	ConstraintSystemFile = "tsp_ccs.bin"
	ProvingKeyFile       = "tsp_pk.bin"
	VerifyingKeyFile     = "tsp_vk.bin"
	MetadataFile         = "tsp_setup.json"
	VerifierContractFile = "TspVerifier.sol"
)

// Curve is the pairing curve every key in this package lives on.
const Curve = ecc.BN254

var (
	ErrNoSetup          = errors.New("keys: no trusted setup in directory")
	ErrCapacityMismatch = errors.New("keys: setup was generated for a different capacity")
)

// Setup bundles the compiled tour circuit with its Groth16 keys.
type Setup struct {
	Capacity int
	CS       constraint.ConstraintSystem
	PK       groth16.ProvingKey
	VK       groth16.VerifyingKey
	ID       ProgramID
}

type metadata struct {
	Capacity  int    `json:"capacity"`
	Curve     string `json:"curve"`
	ProgramID string `json:"program_id"`
}

// Compile builds the constraint system for capacity cities.
func Compile(capacity int) (constraint.ConstraintSystem, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity must be positive, got %d", capacity)
	}
	cs, err := frontend.Compile(Curve.ScalarField(), r1cs.NewBuilder, circuits.New(capacity))
	if err != nil {
		return nil, fmt.Errorf("circuit compilation failed: %w", err)
	}
	return cs, nil
}

// GenerateKeys compiles the circuit and runs the Groth16 setup.
func GenerateKeys(capacity int) (*Setup, error) {
	log.Info().Int("capacity", capacity).Msg("Step 1: Compiling circuit...")
	cs, err := Compile(capacity)
	if err != nil {
		return nil, err
	}
	log.Info().Int("constraints", cs.GetNbConstraints()).Msg("Circuit compiled successfully")

	log.Info().Msg("Step 2: Running Groth16 Setup...")
	pk, vk, err := groth16.Setup(cs)
	if err != nil {
		return nil, fmt.Errorf("setup failed: %w", err)
	}
	id, err := Identity(vk)
	if err != nil {
		return nil, err
	}
	log.Info().Stringer("program_id", id).Msg("Setup completed")

	return &Setup{Capacity: capacity, CS: cs, PK: pk, VK: vk, ID: id}, nil
}

// Save writes the constraint system, both keys and the setup metadata to dir.
func (s *Setup) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create keys dir: %w", err)
	}
	for name, obj := range map[string]io.WriterTo{
		ConstraintSystemFile: s.CS,
		ProvingKeyFile:       s.PK,
		VerifyingKeyFile:     s.VK,
	} {
		if err := writeObject(filepath.Join(dir, name), obj); err != nil {
			return err
		}
		log.Debug().Str("file", name).Msg("saved")
	}

	meta, err := json.MarshalIndent(metadata{
		Capacity:  s.Capacity,
		Curve:     Curve.String(),
		ProgramID: s.ID.String(),
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, MetadataFile), meta, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", MetadataFile, err)
	}
	log.Info().Str("dir", dir).Msg("Successfully saved trusted setup")
	return nil
}

// Load reads a setup previously written by Save.
func Load(dir string, capacity int) (*Setup, error) {
	raw, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoSetup, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", MetadataFile, err)
	}
	var meta metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", MetadataFile, err)
	}
	if meta.Capacity != capacity {
		return nil, fmt.Errorf("%w: have %d, want %d", ErrCapacityMismatch, meta.Capacity, capacity)
	}

	cs := groth16.NewCS(Curve)
	if err := readObject(filepath.Join(dir, ConstraintSystemFile), cs); err != nil {
		return nil, err
	}
	pk := groth16.NewProvingKey(Curve)
	if err := readObject(filepath.Join(dir, ProvingKeyFile), pk); err != nil {
		return nil, err
	}
	vk, err := ReadVerifyingKey(filepath.Join(dir, VerifyingKeyFile))
	if err != nil {
		return nil, err
	}
	id, err := Identity(vk)
	if err != nil {
		return nil, err
	}
	if meta.ProgramID != "" && meta.ProgramID != id.String() {
		return nil, fmt.Errorf("keys: %s does not match recorded program id %s", VerifyingKeyFile, meta.ProgramID)
	}
	return &Setup{Capacity: capacity, CS: cs, PK: pk, VK: vk, ID: id}, nil
}

// LoadOrGenerate reuses the setup in dir, or generates and saves a new one
// when none exists. A setup for another capacity is an error, never
// silently replaced.
func LoadOrGenerate(dir string, capacity int) (*Setup, error) {
	s, err := Load(dir, capacity)
	if err == nil {
		log.Info().Str("dir", dir).Stringer("program_id", s.ID).Msg("Loaded trusted setup")
		return s, nil
	}
	if !errors.Is(err, ErrNoSetup) {
		return nil, err
	}
	log.Warn().Str("dir", dir).Msg("No trusted setup found, generating a new one")
	s, err = GenerateKeys(capacity)
	if err != nil {
		return nil, err
	}
	if err := s.Save(dir); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadVerifier reads only what an off-chain verifier needs: the verifying
// key, the capacity it was generated for, and its identity.
func LoadVerifier(dir string) (groth16.VerifyingKey, int, ProgramID, error) {
	raw, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, 0, ProgramID{}, fmt.Errorf("%w: %s", ErrNoSetup, dir)
	}
	if err != nil {
		return nil, 0, ProgramID{}, fmt.Errorf("failed to read %s: %w", MetadataFile, err)
	}
	var meta metadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		return nil, 0, ProgramID{}, fmt.Errorf("failed to parse %s: %w", MetadataFile, err)
	}
	vk, err := ReadVerifyingKey(filepath.Join(dir, VerifyingKeyFile))
	if err != nil {
		return nil, 0, ProgramID{}, err
	}
	id, err := Identity(vk)
	if err != nil {
		return nil, 0, ProgramID{}, err
	}
	return vk, meta.Capacity, id, nil
}

// ReadVerifyingKey loads a serialized BN254 verifying key.
func ReadVerifyingKey(path string) (groth16.VerifyingKey, error) {
	vk := groth16.NewVerifyingKey(Curve)
	if err := readObject(path, vk); err != nil {
		return nil, err
	}
	return vk, nil
}

// ExportSolidity writes the Solidity verifier contract for vk. Generating
// the contract only needs the VerifyingKey.
func ExportSolidity(vk groth16.VerifyingKey, w io.Writer) error {
	if err := vk.ExportSolidity(w); err != nil {
		return fmt.Errorf("failed to export solidity verifier: %w", err)
	}
	return nil
}

// ExportSolidityFile writes the verifier contract to path.
func ExportSolidityFile(vk groth16.VerifyingKey, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer out.Close()

	if err := ExportSolidity(vk, out); err != nil {
		return err
	}
	log.Info().Str("file", path).Msg("Successfully exported Solidity verifier")
	return out.Close()
}

func writeObject(path string, obj io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	if _, err := obj.WriteTo(f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func readObject(path string, obj io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := obj.ReadFrom(f); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return nil
}
