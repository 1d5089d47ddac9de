package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/levihackerman-102/proof-of-optima-template/host"
	"github.com/levihackerman-102/proof-of-optima-template/keys"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDefaultRunProvesExample(t *testing.T) {
	keysDir := filepath.Join(t.TempDir(), "keys")
	outDir := filepath.Join(t.TempDir(), "out")
	common := []string{"--keys-dir", keysDir, "--out-dir", outDir, "--capacity", "4", "--log-level", "warn"}

	out, err := run(t, common...)
	require.NoError(t, err)
	require.Contains(t, out, "Tour [0 2 3 1] has total length = 80")
	require.Contains(t, out, "Locally verified tour [0 2 3 1] with total length 80")
	require.Contains(t, out, "- Seal length: 256 bytes")

	for _, name := range []string{host.SealFile, host.JournalFile, host.DigestFile, "tsp_id.bin", "tsp_id_rev_be.txt"} {
		require.FileExists(t, filepath.Join(outDir, name))
	}

	out, err = run(t, append([]string{"verify"}, common...)...)
	require.NoError(t, err)
	require.Contains(t, out, "Verified 4-city tour with total length 80")

	// a second run reuses the setup, so the program id is stable
	idBefore, err := os.ReadFile(filepath.Join(outDir, "tsp_id.txt"))
	require.NoError(t, err)
	out, err = run(t, append([]string{"prove", "--distances", "0,3,3,0", "--tour", "1,0"}, common...)...)
	require.NoError(t, err)
	require.Contains(t, out, "Tour [1 0] has total length = 6")
	idAfter, err := os.ReadFile(filepath.Join(outDir, "tsp_id.txt"))
	require.NoError(t, err)
	require.Equal(t, idBefore, idAfter)

	_, err = run(t, append([]string{"setup"}, common...)...)
	require.ErrorContains(t, err, "already exists")

	contract := filepath.Join(t.TempDir(), "Verifier.sol")
	_, err = run(t, append([]string{"export-verifier", "-o", contract}, common...)...)
	require.NoError(t, err)
	require.FileExists(t, contract)
}

func TestProveRejectsInvalidTour(t *testing.T) {
	keysDir := filepath.Join(t.TempDir(), "keys")
	_, err := run(t, "prove", "--keys-dir", keysDir, "--out-dir", t.TempDir(), "--capacity", "2", "--log-level", "warn",
		"--distances", "0,1,1,0", "--tour", "1,1")
	require.Error(t, err)
}

func TestProveRejectsBadFlags(t *testing.T) {
	common := []string{"--keys-dir", t.TempDir(), "--capacity", "2", "--log-level", "warn"}

	_, err := run(t, append([]string{"prove", "--distances", "0,1,1", "--tour", "0"}, common...)...)
	require.ErrorContains(t, err, "square")

	_, err = run(t, append([]string{"prove", "--distances", "0,-1,1,0", "--tour", "0,1"}, common...)...)
	require.ErrorContains(t, err, "--distances")

	_, err = run(t, append([]string{"prove", "--distances", "0"}, common...)...)
	require.Error(t, err)
}

func TestSetupWritesContract(t *testing.T) {
	keysDir := filepath.Join(t.TempDir(), "keys")
	out, err := run(t, "setup", "--keys-dir", keysDir, "--capacity", "2", "--log-level", "warn")
	require.NoError(t, err)
	require.Contains(t, out, "program id: ")
	require.FileExists(t, filepath.Join(keysDir, keys.VerifierContractFile))
	require.FileExists(t, filepath.Join(keysDir, keys.MetadataFile))

	_, err = run(t, "setup", "--force", "--keys-dir", keysDir, "--capacity", "2", "--log-level", "warn")
	require.NoError(t, err)
}

func TestMatrixSide(t *testing.T) {
	for entries, want := range map[int]int{0: 0, 1: 1, 4: 2, 16: 4, 64: 8} {
		n, err := matrixSide(entries)
		require.NoError(t, err)
		require.Equal(t, want, n)
	}
	_, err := matrixSide(15)
	require.Error(t, err)
}
