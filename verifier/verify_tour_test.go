package verifier

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/levihackerman-102/proof-of-optima-template/host"
	"github.com/levihackerman-102/proof-of-optima-template/keys"
	"github.com/levihackerman-102/proof-of-optima-template/proof"
)

var (
	fixtureOnce sync.Once
	fixtureKeys string
	fixtureOut  string
	fixtureErr  error
)

// fixture saves a capacity-3 setup and the artifacts of one proven tour.
func fixture(t *testing.T) (keysDir, artifactDir string) {
	t.Helper()
	fixtureOnce.Do(func() {
		root, err := os.MkdirTemp("", "verifier-fixture")
		if err != nil {
			fixtureErr = err
			return
		}
		fixtureKeys = filepath.Join(root, "keys")
		fixtureOut = filepath.Join(root, "out")

		setup, err := keys.LoadOrGenerate(fixtureKeys, 3)
		if err != nil {
			fixtureErr = err
			return
		}
		h := host.New(proof.NewEngine(setup))
		receipt, _, err := h.ProveTour(context.Background(), 3,
			[]uint64{0, 4, 9, 4, 0, 2, 9, 2, 0}, []uint64{1, 2, 0})
		if err != nil {
			fixtureErr = err
			return
		}
		artifacts, err := h.VerifyAndExport(receipt, h.ID())
		if err != nil {
			fixtureErr = err
			return
		}
		fixtureErr = artifacts.Write(fixtureOut)
	})
	require.NoError(t, fixtureErr)
	return fixtureKeys, fixtureOut
}

// copyArtifacts returns a scratch copy of the fixture artifacts.
func copyArtifacts(t *testing.T, src string) string {
	t.Helper()
	dst := t.TempDir()
	entries, err := os.ReadDir(src)
	require.NoError(t, err)
	for _, e := range entries {
		b, err := os.ReadFile(filepath.Join(src, e.Name()))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dst, e.Name()), b, 0o644))
	}
	return dst
}

func TestVerifyFiles(t *testing.T) {
	keysDir, artifactDir := fixture(t)

	res, err := VerifyFiles(artifactDir, keysDir)
	require.NoError(t, err)
	require.Equal(t, 3, res.Cities)
	require.Equal(t, uint64(15), res.TotalLength)

	_, _, id, err := keys.LoadVerifier(keysDir)
	require.NoError(t, err)
	require.Equal(t, id, res.ProgramID)
}

func TestVerifyFilesDigestMismatch(t *testing.T) {
	keysDir, artifactDir := fixture(t)
	dir := copyArtifacts(t, artifactDir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, host.DigestFile), make([]byte, 64), 0o644))

	_, err := VerifyFiles(dir, keysDir)
	require.ErrorIs(t, err, ErrDigestMismatch)
}

func TestVerifyFilesTamperedJournal(t *testing.T) {
	keysDir, artifactDir := fixture(t)
	dir := copyArtifacts(t, artifactDir)

	journal, err := os.ReadFile(filepath.Join(dir, host.JournalFile))
	require.NoError(t, err)
	binary.LittleEndian.PutUint64(journal[len(journal)-8:], 14)
	require.NoError(t, os.WriteFile(filepath.Join(dir, host.JournalFile), journal, 0o644))
	digest := sha256.Sum256(journal)
	require.NoError(t, os.WriteFile(filepath.Join(dir, host.DigestFile), []byte(hex.EncodeToString(digest[:])), 0o644))

	_, err = VerifyFiles(dir, keysDir)
	require.ErrorIs(t, err, proof.ErrInvalidProof)
}

func TestVerifyFilesForeignID(t *testing.T) {
	keysDir, artifactDir := fixture(t)
	dir := copyArtifacts(t, artifactDir)
	bin, _ := host.DefaultIDFile()
	require.NoError(t, os.WriteFile(filepath.Join(dir, bin), make([]byte, 32), 0o644))

	_, err := VerifyFiles(dir, keysDir)
	require.ErrorIs(t, err, ErrForeignID)
}

func TestVerifyFilesMissingSetup(t *testing.T) {
	_, artifactDir := fixture(t)
	_, err := VerifyFiles(artifactDir, t.TempDir())
	require.ErrorIs(t, err, keys.ErrNoSetup)
}

func TestVerifyFilesCorruptProof(t *testing.T) {
	keysDir, artifactDir := fixture(t)
	dir := copyArtifacts(t, artifactDir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, host.ProofFile), []byte{1, 2, 3}, 0o644))

	_, err := VerifyFiles(dir, keysDir)
	require.ErrorIs(t, err, proof.ErrInvalidProof)
}
