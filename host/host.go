// Package host drives the tour validator from the outside: it encodes the
// instance, asks the engine for a receipt, checks it locally and turns it
// into the files an on-chain verifier consumes.
package host

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/levihackerman-102/proof-of-optima-template/guest"
	"github.com/levihackerman-102/proof-of-optima-template/keys"
	"github.com/levihackerman-102/proof-of-optima-template/proof"
)

type Host struct {
	engine *proof.Engine
}

func New(engine *proof.Engine) *Host {
	return &Host{engine: engine}
}

// ID is the identity receipts from this host are produced under.
func (h *Host) ID() keys.ProgramID {
	return h.engine.ID()
}

// EncodeInput serializes an instance in the order the validator reads it:
// city count, matrix rows, tour.
func EncodeInput(n int, distances, tour []uint64) []byte {
	w := guest.NewInputWriter()
	w.WriteUint64(guest.TagCityCount, uint64(n))
	w.WriteUint64s(guest.TagDistances, distances)
	w.WriteUint64s(guest.TagTour, tour)
	return w.Bytes()
}

func (h *Host) checkShape(n int, distances, tour []uint64) error {
	if n < 0 {
		return fmt.Errorf("%w: negative city count %d", ErrInputShape, n)
	}
	if n > h.engine.Capacity() {
		return fmt.Errorf("%w: %d cities exceed circuit capacity %d", ErrInputShape, n, h.engine.Capacity())
	}
	if len(distances) != n*n {
		return fmt.Errorf("%w: distance matrix must be n*n, have %d entries for n=%d", ErrInputShape, len(distances), n)
	}
	if len(tour) != n {
		return fmt.Errorf("%w: tour must have n cities, have %d for n=%d", ErrInputShape, len(tour), n)
	}
	return nil
}

type proveResult struct {
	receipt *proof.Receipt
	err     error
}

// ProveTour proves that tour is a valid tour over the n×n distance matrix
// and returns the receipt with the committed total length. Shape errors are
// reported before any proving work starts. Proving itself cannot be
// interrupted; a cancelled ctx only stops the wait.
func (h *Host) ProveTour(ctx context.Context, n int, distances, tour []uint64) (*proof.Receipt, uint64, error) {
	if err := h.checkShape(n, distances, tour); err != nil {
		return nil, 0, err
	}
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	input := EncodeInput(n, distances, tour)

	done := make(chan proveResult, 1)
	go func() {
		r, err := h.engine.Execute(input)
		done <- proveResult{receipt: r, err: err}
	}()

	var res proveResult
	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case res = <-done:
	}
	if res.err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrProvingFailed, res.err)
	}

	out, err := res.receipt.Journal.Decode()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrProvingFailed, err)
	}
	log.Info().Msgf("Tour %v has total length = %d", tour, out.TotalLength)
	return res.receipt, out.TotalLength, nil
}

// VerifyAndExport verifies the receipt against id and derives everything an
// external verifier needs. Verification failure is fatal: no artifacts are
// returned.
func (h *Host) VerifyAndExport(r *proof.Receipt, id keys.ProgramID) (*Artifacts, error) {
	if err := h.engine.Verify(r, id); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrVerification, err)
	}

	seal, err := r.Seal()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExport, err)
	}
	var raw bytes.Buffer
	if _, err := r.Proof.WriteTo(&raw); err != nil {
		return nil, fmt.Errorf("%w: failed to serialize proof: %w", ErrExport, err)
	}
	calldata, err := Calldata(r, h.engine.Capacity())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExport, err)
	}

	a := &Artifacts{
		ProgramID: id,
		Seal:      seal,
		Journal:   r.Journal,
		Digest:    r.Journal.Digest(),
		Proof:     raw.Bytes(),
		Calldata:  calldata,
	}
	log.Debug().
		Int("seal_len", len(a.Seal)).
		Int("journal_len", len(a.Journal)).
		Hex("digest", a.Digest[:]).
		Msg("receipt exported")
	return a, nil
}
