package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"
)

func (a *app) newProveCmd() *cobra.Command {
	var distances, tour []string
	cmd := &cobra.Command{
		Use:   "prove",
		Short: "Prove a tour over a distance matrix",
		Example: `  tsp prove --distances 0,10,15,20,10,0,35,25,15,35,0,30,20,25,30,0 --tour 0,2,3,1
  tsp prove --capacity 16 --distances ... --tour ...`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dist, err := parseUint64s(distances)
			if err != nil {
				return fmt.Errorf("--distances: %w", err)
			}
			t, err := parseUint64s(tour)
			if err != nil {
				return fmt.Errorf("--tour: %w", err)
			}
			n, err := matrixSide(len(dist))
			if err != nil {
				return fmt.Errorf("--distances: %w", err)
			}
			return a.proveAndExport(cmd.Context(), cmd.OutOrStdout(), n, dist, t)
		},
	}
	cmd.Flags().StringSliceVar(&distances, "distances", nil, "row-major n×n distance matrix, comma separated")
	cmd.Flags().StringSliceVar(&tour, "tour", nil, "city indices in visiting order, comma separated")
	_ = cmd.MarkFlagRequired("distances")
	_ = cmd.MarkFlagRequired("tour")
	return cmd
}

func parseUint64s(in []string) ([]uint64, error) {
	out := make([]uint64, len(in))
	for i, s := range in {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// matrixSide returns n for a matrix of n² entries.
func matrixSide(entries int) (int, error) {
	n := int(math.Sqrt(float64(entries)))
	for n*n > entries {
		n--
	}
	for (n+1)*(n+1) <= entries {
		n++
	}
	if n*n != entries {
		return 0, fmt.Errorf("%d entries do not form a square matrix", entries)
	}
	return n, nil
}
