package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/levihackerman-102/proof-of-optima-template/keys"
)

// Generates the Groth16 ProvingKey and VerifyingKey for the tour circuit and
// saves them with the Solidity verifier.
func (a *app) newSetupCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Compile the circuit and run the Groth16 trusted setup",
		Long:  "Compiles the tour circuit for --capacity cities, runs the Groth16 setup and stores the keys in --keys-dir.\nAn existing setup changes the program id of every later proof, so it is only replaced with --force.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := keys.Load(a.cfg.KeysDir, a.cfg.Capacity)
			switch {
			case force:
			case err == nil:
				return fmt.Errorf("a setup already exists in %s, use --force to replace it", a.cfg.KeysDir)
			case !errors.Is(err, keys.ErrNoSetup):
				return err
			}

			setup, err := keys.GenerateKeys(a.cfg.Capacity)
			if err != nil {
				return err
			}
			if err := setup.Save(a.cfg.KeysDir); err != nil {
				return err
			}
			if err := keys.ExportSolidityFile(setup.VK, filepath.Join(a.cfg.KeysDir, keys.VerifierContractFile)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "program id: %s\n", setup.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing setup")
	return cmd
}
