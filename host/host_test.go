package host

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/levihackerman-102/proof-of-optima-template/guest"
	"github.com/levihackerman-102/proof-of-optima-template/keys"
	"github.com/levihackerman-102/proof-of-optima-template/proof"
)

const testCapacity = 4

var (
	exampleDistances = []uint64{
		0, 10, 15, 20,
		10, 0, 35, 25,
		15, 35, 0, 30,
		20, 25, 30, 0,
	}
	exampleTour = []uint64{0, 2, 3, 1}
)

var (
	setupOnce sync.Once
	setup     *keys.Setup
	setupErr  error
)

func testHost(t *testing.T) *Host {
	t.Helper()
	setupOnce.Do(func() {
		setup, setupErr = keys.GenerateKeys(testCapacity)
	})
	require.NoError(t, setupErr)
	return New(proof.NewEngine(setup))
}

func proveExample(t *testing.T, h *Host) *proof.Receipt {
	t.Helper()
	receipt, total, err := h.ProveTour(context.Background(), 4, exampleDistances, exampleTour)
	require.NoError(t, err)
	require.Equal(t, uint64(80), total)
	return receipt
}

func TestProveTourExample(t *testing.T) {
	h := testHost(t)
	receipt := proveExample(t, h)
	require.Equal(t, h.ID(), receipt.ProgramID)

	out, err := receipt.Journal.Decode()
	require.NoError(t, err)
	require.Equal(t, exampleDistances, out.Distances)
}

func TestProveTourShapeErrors(t *testing.T) {
	h := testHost(t)
	tests := []struct {
		name      string
		n         int
		distances []uint64
		tour      []uint64
	}{
		{name: "short matrix", n: 4, distances: exampleDistances[:15], tour: exampleTour},
		{name: "short tour", n: 4, distances: exampleDistances, tour: exampleTour[:3]},
		{name: "long tour", n: 4, distances: exampleDistances, tour: []uint64{0, 2, 3, 1, 0}},
		{name: "negative n", n: -1},
		{name: "over capacity", n: 5, distances: make([]uint64, 25), tour: []uint64{0, 1, 2, 3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			receipt, total, err := h.ProveTour(context.Background(), tt.n, tt.distances, tt.tour)
			require.ErrorIs(t, err, ErrInputShape)
			require.Nil(t, receipt)
			require.Zero(t, total)
		})
	}
}

func TestProveTourInvalidTour(t *testing.T) {
	h := testHost(t)
	receipt, _, err := h.ProveTour(context.Background(), 4, exampleDistances, []uint64{0, 2, 2, 1})
	require.Nil(t, receipt)
	require.ErrorIs(t, err, ErrProvingFailed)
	require.ErrorIs(t, err, proof.ErrExecution)
	require.ErrorIs(t, err, guest.ErrInvalidTour)
}

func TestProveTourCancelled(t *testing.T) {
	h := testHost(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := h.ProveTour(ctx, 4, exampleDistances, exampleTour)
	require.ErrorIs(t, err, context.Canceled)
}

func TestVerifyAndExportWrongID(t *testing.T) {
	h := testHost(t)
	receipt := proveExample(t, h)

	other := h.ID()
	other[7]++
	artifacts, err := h.VerifyAndExport(receipt, other)
	require.Nil(t, artifacts)
	require.ErrorIs(t, err, ErrVerification)
	require.ErrorIs(t, err, proof.ErrIdentityMismatch)
}

func TestVerifyAndExportWrite(t *testing.T) {
	h := testHost(t)
	receipt := proveExample(t, h)
	artifacts, err := h.VerifyAndExport(receipt, h.ID())
	require.NoError(t, err)
	require.Len(t, artifacts.Seal, proof.SealSize)

	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, artifacts.Write(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 16)

	read := func(name string) []byte {
		b, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		return b
	}

	require.Equal(t, []byte(receipt.Journal), read(JournalFile))
	require.Equal(t, artifacts.Seal, read(SealFile))
	digest := sha256.Sum256(receipt.Journal)
	require.Equal(t, hex.EncodeToString(digest[:]), string(read(DigestFile)))

	for _, order := range keys.ByteOrders {
		bin, txt := IDFile(order)
		require.Equal(t, h.ID().Bytes(order), read(bin), order.String())
		require.Equal(t, hex.EncodeToString(read(bin)), string(read(txt)), order.String())
	}
	bin, txt := DefaultIDFile()
	require.Equal(t, read("tsp_id_le.bin"), read(bin))
	require.Equal(t, read("tsp_id_le.txt"), read(txt))
	require.NotContains(t, string(read(txt)), "\n")
}

func TestWriteFailsOnFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	a := &Artifacts{}
	require.ErrorIs(t, a.Write(blocker), ErrExport)
}

func TestCalldata(t *testing.T) {
	h := testHost(t)
	receipt := proveExample(t, h)

	data, err := Calldata(receipt, testCapacity)
	require.NoError(t, err)
	require.Len(t, data, 4+11*32)

	sel := Selector()
	require.Equal(t, crypto.Keccak256([]byte(VerifyProofSignature))[:4], sel[:])
	require.Equal(t, sel[:], data[:4])

	seal, err := receipt.Seal()
	require.NoError(t, err)
	require.Equal(t, seal, data[4:4+proof.SealSize])

	word := func(i int) *big.Int {
		off := 4 + proof.SealSize + 32*i
		return new(big.Int).SetBytes(data[off : off+32])
	}
	require.Equal(t, int64(4), word(0).Int64())
	require.Equal(t, int64(80), word(2).Int64())

	input, err := PublicInputs(receipt, testCapacity)
	require.NoError(t, err)
	require.Zero(t, input[1].Cmp(word(1)))
}
