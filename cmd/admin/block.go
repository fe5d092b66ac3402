package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"golang.org/x/xerrors"

	"github.com/coinbase/chaingov/internal/blockchain"
	"github.com/coinbase/chaingov/internal/governance/pipeline"
	"github.com/coinbase/chaingov/internal/indexer"
	"github.com/coinbase/chaingov/internal/sink"
)

var (
	blockFlags struct {
		heights []uint
		latest  bool
	}
)

var (
	blockCmd = &cobra.Command{
		Use:   "block",
		Short: "Index the governance events of one or more blocks",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(blockFlags.heights) == 0 && !blockFlags.latest {
				return xerrors.New("either --height or --latest is required")
			}

			var deps struct {
				fx.In
				Indexer *indexer.Indexer
			}

			app := startApp(
				blockchain.Module,
				pipeline.Module,
				sink.Module,
				indexer.Module,
				fx.Populate(&deps),
			)
			defer app.Close()

			ctx := app.Manager().Context()
			if blockFlags.latest {
				report, err := deps.Indexer.IndexLatest(ctx)
				if err != nil {
					return xerrors.Errorf("failed to index latest block: %w", err)
				}

				return writeOutput("indexed latest block", []*indexer.Report{report})
			}

			heights := make([]uint64, len(blockFlags.heights))
			for i, height := range blockFlags.heights {
				heights[i] = uint64(height)
			}

			reports, err := deps.Indexer.IndexBlocks(ctx, heights)
			if err != nil {
				return xerrors.Errorf("failed to index blocks: %w", err)
			}

			return writeOutput("indexed blocks", reports)
		},
	}
)

func init() {
	blockCmd.Flags().UintSliceVar(&blockFlags.heights, "height", nil, "block height; repeat the flag to index several blocks")
	blockCmd.Flags().BoolVar(&blockFlags.latest, "latest", false, "index the latest block")
	rootCmd.AddCommand(blockCmd)
}
