package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/levihackerman-102/proof-of-optima-template/verifier"
)

func (a *app) newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Verify exported proof files with the verifying key only",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := verifier.VerifyFiles(a.cfg.OutDir, a.cfg.KeysDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Verified %d-city tour with total length %d under program %s\n",
				res.Cities, res.TotalLength, res.ProgramID)
			return nil
		},
	}
}
