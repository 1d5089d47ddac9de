// Command tsp proves that a tour visits every city of a distance matrix
// exactly once, and exports the proof for on-chain verification. Run with no
// arguments it proves the bundled 4-city example end to end.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/levihackerman-102/proof-of-optima-template/config"
	"github.com/levihackerman-102/proof-of-optima-template/host"
	"github.com/levihackerman-102/proof-of-optima-template/keys"
	"github.com/levihackerman-102/proof-of-optima-template/logging"
	"github.com/levihackerman-102/proof-of-optima-template/proof"
)

var (
	exampleDistances = []uint64{
		0, 10, 15, 20,
		10, 0, 35, 25,
		15, 35, 0, 30,
		20, 25, 30, 0,
	}
	exampleTour = []uint64{0, 2, 3, 1}
)

type app struct {
	cfg       *config.Config
	logCloser io.Closer
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "tsp",
		Short:         "Prove and verify travelling-salesman tours",
		Long:          "Proves a tour over a distance matrix with Groth16 and exports the on-chain proof components.\nWithout a subcommand the bundled 4-city example is proven, verified and exported.",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			closer, err := logging.Init(logging.Options{
				Level:     cfg.LogLevel,
				File:      cfg.LogFile,
				MaxSizeMB: cfg.LogMaxSize,
			})
			if err != nil {
				return err
			}
			a.cfg, a.logCloser = cfg, closer
			return nil
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			if a.logCloser != nil {
				return a.logCloser.Close()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.proveAndExport(cmd.Context(), cmd.OutOrStdout(), len(exampleTour), exampleDistances, exampleTour)
		},
	}
	config.AddOptions(root.PersistentFlags())

	root.AddCommand(
		a.newProveCmd(),
		a.newSetupCmd(),
		a.newExportVerifierCmd(),
		a.newVerifyCmd(),
	)
	return root
}

func (a *app) host() (*host.Host, error) {
	setup, err := keys.LoadOrGenerate(a.cfg.KeysDir, a.cfg.Capacity)
	if err != nil {
		return nil, err
	}
	return host.New(proof.NewEngine(setup)), nil
}

// proveAndExport runs one tour through proving, local verification and
// export, printing the on-chain components to w.
func (a *app) proveAndExport(ctx context.Context, w io.Writer, n int, distances, tour []uint64) error {
	h, err := a.host()
	if err != nil {
		return err
	}
	receipt, total, err := h.ProveTour(ctx, n, distances, tour)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Tour %v has total length = %d\n", tour, total)

	artifacts, err := h.VerifyAndExport(receipt, h.ID())
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Locally verified tour %v with total length %d\n", tour, total)

	id := artifacts.ProgramID
	fmt.Fprintln(w, "On-chain proof components:")
	fmt.Fprintf(w, "- Image ID (TSP_ID): %v\n", [8]uint32(id))
	fmt.Fprintf(w, "- Little-endian:     %s\n", hexutil.Encode(id.Bytes(keys.LittleEndian)))
	fmt.Fprintf(w, "- Big-endian:        %s\n", hexutil.Encode(id.Bytes(keys.BigEndian)))
	fmt.Fprintf(w, "- Reversed LE:       %s\n", hexutil.Encode(id.Bytes(keys.ReversedLittleEndian)))
	fmt.Fprintf(w, "- Reversed BE:       %s\n", hexutil.Encode(id.Bytes(keys.ReversedBigEndian)))
	fmt.Fprintf(w, "- Seal length: %d bytes\n", len(artifacts.Seal))
	fmt.Fprintf(w, "- Journal digest: %x\n", artifacts.Digest)
	fmt.Fprintf(w, "   Seal: %s\n", hexutil.Encode(artifacts.Seal))

	if err := artifacts.Write(a.cfg.OutDir); err != nil {
		return err
	}
	fmt.Fprintf(w, "Proof files saved to %s for on-chain verification:\n", a.cfg.OutDir)
	fmt.Fprintf(w, "  - %s\n  - %s\n  - %s\n", host.SealFile, host.JournalFile, host.DigestFile)
	fmt.Fprintln(w, "  TSP_ID formats:")
	for _, order := range keys.ByteOrders {
		bin, txt := host.IDFile(order)
		fmt.Fprintf(w, "  - %s / %s\n", bin, txt)
	}
	bin, txt := host.DefaultIDFile()
	fmt.Fprintf(w, "  - %s / %s (default: little-endian)\n", bin, txt)
	fmt.Fprintf(w, "  Calldata: %s / %s\n", host.CalldataFile, host.CalldataTextFile)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("tsp failed")
		os.Exit(1)
	}
}
