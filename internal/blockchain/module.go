package blockchain

import (
	"go.uber.org/fx"

	"github.com/coinbase/chaingov/internal/blockchain/client"
	"github.com/coinbase/chaingov/internal/blockchain/jsonrpc"
	"github.com/coinbase/chaingov/internal/blockchain/parser"
)

var Module = fx.Options(
	client.Module,
	jsonrpc.Module,
	parser.Module,
)
