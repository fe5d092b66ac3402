package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/coinbase/chaingov/internal/blockchain/parser"
	"github.com/coinbase/chaingov/internal/governance/pipeline"
)

var (
	fileFlags struct {
		file string
	}
)

var (
	fileCmd = &cobra.Command{
		Use:   "file",
		Short: "Run the governance pipeline over a raw block saved as json",
		RunE: func(cmd *cobra.Command, args []string) error {
			if fileFlags.file == "" {
				return xerrors.New("--file is required")
			}

			data, err := os.ReadFile(fileFlags.file)
			if err != nil {
				return xerrors.Errorf("failed to read %v: %w", fileFlags.file, err)
			}

			var rawBlock parser.RawBlock
			if err := json.Unmarshal(data, &rawBlock); err != nil {
				return xerrors.Errorf("failed to decode raw block: %w", err)
			}

			var deps struct {
				fx.In
				Parser   parser.Parser
				Pipeline pipeline.Pipeline
			}

			app := startApp(
				parser.Module,
				pipeline.Module,
				fx.Populate(&deps),
			)
			defer app.Close()

			ctx := context.Background()
			block, err := deps.Parser.ParseBlock(ctx, &rawBlock)
			if err != nil {
				return xerrors.Errorf("failed to parse block: %w", err)
			}

			result, err := deps.Pipeline.ProcessBlock(ctx, block)
			if err != nil {
				return xerrors.Errorf("failed to process block: %w", err)
			}

			for _, failure := range result.Failures {
				logger.Warn(
					"dropped governance log",
					zap.String("event", failure.Event.String()),
					zap.Uint32("log_index", failure.LogIndex),
					zap.String("tx_hash", failure.TransactionHash.Hex()),
					zap.Error(failure.Reason),
				)
			}

			return writeOutput("processed block", result.Changes)
		},
	}
)

func init() {
	fileCmd.Flags().StringVar(&fileFlags.file, "file", "", "path to the raw block, as returned by eth_getBlockByNumber and eth_getBlockReceipts")
	rootCmd.AddCommand(fileCmd)
}
