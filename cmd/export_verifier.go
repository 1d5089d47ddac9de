package main

import (
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/levihackerman-102/proof-of-optima-template/keys"
)

// Exports the Solidity verifier contract. Only the VerifyingKey is needed.
func (a *app) newExportVerifierCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export-verifier",
		Short: "Write the Solidity verifier for the current setup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log.Info().Str("dir", a.cfg.KeysDir).Msg("Reading verifying key...")
			vk, err := keys.ReadVerifyingKey(filepath.Join(a.cfg.KeysDir, keys.VerifyingKeyFile))
			if err != nil {
				return err
			}
			if out == "" {
				out = filepath.Join(a.cfg.KeysDir, keys.VerifierContractFile)
			}
			return keys.ExportSolidityFile(vk, out)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "contract path (default <keys-dir>/"+keys.VerifierContractFile+")")
	return cmd
}
