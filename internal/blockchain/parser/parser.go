package parser

import (
	"context"
	"encoding/json"

	"go.uber.org/fx"

	"github.com/coinbase/chaingov/internal/blockchain/model"
	"github.com/coinbase/chaingov/internal/utils/fxparams"
	"github.com/coinbase/chaingov/internal/utils/log"
)

//go:generate mockgen -destination=mocks/mocks.go -package=parsermocks github.com/coinbase/chaingov/internal/blockchain/parser Parser

type (
	// Parser turns the raw JSON-RPC payload of a block into the model consumed by the governance pipeline.
	Parser interface {
		ParseBlock(ctx context.Context, rawBlock *RawBlock) (*model.Block, error)
	}

	// RawBlock is the result of eth_getBlockByNumber, without transaction bodies,
	// together with the result of eth_getBlockReceipts for the same block.
	RawBlock struct {
		Height              uint64            `json:"height"`
		Header              json.RawMessage   `json:"header"`
		TransactionReceipts []json.RawMessage `json:"transaction_receipts"`
	}

	ParserParams struct {
		fx.In
		fxparams.Params
	}
)

func NewParser(params ParserParams) (Parser, error) {
	logger := log.WithPackage(params.Logger)
	parser, err := NewEthereumParser(params)
	if err != nil {
		return nil, err
	}

	return WithInstrumentInterceptor(parser, params.Metrics, logger), nil
}
