package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/coinbase/chaingov/internal/blockchain/jsonrpc"
	"github.com/coinbase/chaingov/internal/blockchain/parser"
	"github.com/coinbase/chaingov/internal/utils/log"
)

type (
	EthereumClient struct {
		logger *zap.Logger
		client jsonrpc.Client
	}

	ethereumBlockHeader struct {
		Hash   parser.EthereumHexString `json:"hash"`
		Number parser.EthereumQuantity  `json:"number"`
	}
)

var (
	// JSON RPC method to get an ethereum block by its number.
	ethGetBlockByNumberMethod = &jsonrpc.RequestMethod{
		Name:    "eth_getBlockByNumber",
		Timeout: time.Second * 10,
	}

	// JSON RPC method to get all the receipts of a block.
	ethGetBlockReceiptsMethod = &jsonrpc.RequestMethod{
		Name:    "eth_getBlockReceipts",
		Timeout: time.Second * 30,
	}

	// JSON RPC method to get the number of most recent block.
	ethBlockNumber = &jsonrpc.RequestMethod{
		Name:    "eth_blockNumber",
		Timeout: time.Second * 5,
	}
)

func NewEthereumClient(params ClientParams) (*EthereumClient, error) {
	return &EthereumClient{
		logger: log.WithPackage(params.Logger),
		client: params.RPCClient,
	}, nil
}

func (c *EthereumClient) GetBlockByHeight(ctx context.Context, height uint64) (*parser.RawBlock, error) {
	header, rawHeader, err := c.getBlockHeader(ctx, height)
	if err != nil {
		return nil, xerrors.Errorf("failed to get header for block %v: %w", height, err)
	}

	// Receipts are queried by hash so that a reorg between the two calls cannot mix blocks.
	receipts, err := c.getBlockReceipts(ctx, header.Hash.Value())
	if err != nil {
		return nil, xerrors.Errorf("failed to get receipts for block %v: %w", height, err)
	}

	return &parser.RawBlock{
		Height:              height,
		Header:              rawHeader,
		TransactionReceipts: receipts,
	}, nil
}

func (c *EthereumClient) getBlockHeader(ctx context.Context, height uint64) (*ethereumBlockHeader, json.RawMessage, error) {
	params := jsonrpc.Params{
		hexutil.EncodeUint64(height),
		false,
	}

	response, err := c.client.Call(ctx, ethGetBlockByNumberMethod, params)
	if err != nil {
		return nil, nil, xerrors.Errorf("failed to call %s: %w", ethGetBlockByNumberMethod.Name, err)
	}

	if jsonrpc.IsNullOrEmpty(response.Result) {
		return nil, nil, xerrors.Errorf("block %v not found: %w", height, ErrBlockNotFound)
	}

	var header ethereumBlockHeader
	if err := response.Unmarshal(&header); err != nil {
		return nil, nil, xerrors.Errorf("failed to unmarshal block header: %w", err)
	}

	if header.Hash == "" {
		return nil, nil, xerrors.Errorf("block %v not found: %w", height, ErrBlockNotFound)
	}

	if actualHeight := header.Number.Value(); actualHeight != height {
		return nil, nil, xerrors.Errorf("failed to get block due to inconsistent heights, expected: %v, actual: %v", height, actualHeight)
	}

	return &header, response.Result, nil
}

func (c *EthereumClient) getBlockReceipts(ctx context.Context, hash string) ([]json.RawMessage, error) {
	response, err := c.client.Call(ctx, ethGetBlockReceiptsMethod, jsonrpc.Params{hash})
	if err != nil {
		return nil, xerrors.Errorf("failed to call %s: %w", ethGetBlockReceiptsMethod.Name, err)
	}

	if jsonrpc.IsNullOrEmpty(response.Result) {
		return nil, xerrors.Errorf("receipts of block %v not found: %w", hash, ErrBlockNotFound)
	}

	var receipts []json.RawMessage
	if err := response.Unmarshal(&receipts); err != nil {
		return nil, xerrors.Errorf("failed to unmarshal receipts: %w", err)
	}

	c.logger.Debug("fetched block receipts", zap.String("hash", hash), zap.Int("receipts", len(receipts)))
	return receipts, nil
}

func (c *EthereumClient) GetLatestHeight(ctx context.Context) (uint64, error) {
	response, err := c.client.Call(ctx, ethBlockNumber, nil)
	if err != nil {
		return 0, xerrors.Errorf("failed to call %s: %w", ethBlockNumber.Name, err)
	}

	var result parser.EthereumHexString
	if err := response.Unmarshal(&result); err != nil {
		return 0, xerrors.Errorf("failed to unmarshal result: %w", err)
	}

	height, err := hexutil.DecodeUint64(result.Value())
	if err != nil {
		return 0, xerrors.Errorf("failed to decode height: %w", err)
	}

	return height, nil
}
