package host

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/levihackerman-102/proof-of-optima-template/guest"
	"github.com/levihackerman-102/proof-of-optima-template/keys"
)

const (
	SealFile         = "proof_seal.bin"
	JournalFile      = "proof_journal.bin"
	DigestFile       = "proof_digest.txt"
	ProofFile        = "proof_groth16.bin"
	CalldataFile     = "proof_calldata.bin"
	CalldataTextFile = "proof_calldata.txt"

	idPrefix = "tsp_id"
)

// IDFile returns the binary and hex file names of the identity in order.
func IDFile(order keys.ByteOrder) (bin, txt string) {
	base := idPrefix + "_" + order.String()
	return base + ".bin", base + ".txt"
}

// DefaultIDFile returns the names of the little-endian identity kept for
// older consumers.
func DefaultIDFile() (bin, txt string) {
	return idPrefix + ".bin", idPrefix + ".txt"
}

// Artifacts are the on-chain proof components of one verified receipt.
type Artifacts struct {
	ProgramID keys.ProgramID
	Seal      []byte
	Journal   guest.Journal
	Digest    [32]byte
	// Proof is gnark's own serialization, read back by the off-chain
	// verifier.
	Proof    []byte
	Calldata []byte
}

// Files maps every artifact file name to its content. Text files hold
// lowercase hex without prefix or trailing newline.
func (a *Artifacts) Files() map[string][]byte {
	files := map[string][]byte{
		SealFile:         a.Seal,
		JournalFile:      a.Journal,
		DigestFile:       []byte(hex.EncodeToString(a.Digest[:])),
		ProofFile:        a.Proof,
		CalldataFile:     a.Calldata,
		CalldataTextFile: []byte(hex.EncodeToString(a.Calldata)),
	}
	for _, order := range keys.ByteOrders {
		bin, txt := IDFile(order)
		files[bin] = a.ProgramID.Bytes(order)
		files[txt] = []byte(a.ProgramID.Hex(order))
	}
	bin, txt := DefaultIDFile()
	files[bin] = a.ProgramID.Bytes(keys.LittleEndian)
	files[txt] = []byte(a.ProgramID.Hex(keys.LittleEndian))
	return files
}

// Write stores every artifact under dir, creating it if needed. Files are
// written concurrently; the first failure is returned.
func (a *Artifacts) Write(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrExport, err)
	}
	var g errgroup.Group
	for name, data := range a.Files() {
		g.Go(func() error {
			if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
				return fmt.Errorf("%w: %s: %w", ErrExport, name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Str("dir", dir).Int("files", len(a.Files())).Msg("Proof files saved for on-chain verification")
	return nil
}
