package client

import (
	"context"

	"go.uber.org/fx"
	"golang.org/x/xerrors"

	"github.com/coinbase/chaingov/internal/blockchain/jsonrpc"
	"github.com/coinbase/chaingov/internal/blockchain/parser"
	"github.com/coinbase/chaingov/internal/utils/fxparams"
	"github.com/coinbase/chaingov/internal/utils/log"
)

//go:generate mockgen -destination=mocks/mocks.go -package=clientmocks github.com/coinbase/chaingov/internal/blockchain/client Client

type (
	Client interface {
		// GetBlockByHeight fetches the block header and every transaction receipt of the block at the given height.
		GetBlockByHeight(ctx context.Context, height uint64) (*parser.RawBlock, error)

		// GetLatestHeight returns the height of the latest block.
		GetLatestHeight(ctx context.Context) (uint64, error)
	}

	ClientParams struct {
		fx.In
		fxparams.Params
		RPCClient jsonrpc.Client
	}
)

var (
	ErrBlockNotFound = xerrors.New("block not found")
)

func New(params ClientParams) (Client, error) {
	logger := log.WithPackage(params.Logger)
	client, err := NewEthereumClient(params)
	if err != nil {
		return nil, xerrors.Errorf("failed to create ethereum client: %w", err)
	}

	return WithInstrumentInterceptor(client, params.Metrics, logger), nil
}
