package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/xerrors"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/coinbase/chaingov/internal/blockchain/model"
	"github.com/coinbase/chaingov/internal/utils/log"
)

type (
	EthereumHexString string
	EthereumQuantity  uint64

	// EthereumBlockHeader is the subset of eth_getBlockByNumber used by the pipeline.
	EthereumBlockHeader struct {
		Hash       EthereumHexString `json:"hash" validate:"required"`
		ParentHash EthereumHexString `json:"parentHash"`
		Number     EthereumQuantity  `json:"number"`
		// Timestamp is left nil when the node omits it; proposals in such a block cannot be dated.
		Timestamp *EthereumQuantity `json:"timestamp"`
	}

	EthereumTransactionReceipt struct {
		TransactionHash  EthereumHexString   `json:"transactionHash" validate:"required"`
		TransactionIndex EthereumQuantity    `json:"transactionIndex"`
		BlockHash        EthereumHexString   `json:"blockHash" validate:"required"`
		BlockNumber      EthereumQuantity    `json:"blockNumber"`
		Status           *EthereumQuantity   `json:"status"`
		Logs             []*EthereumEventLog `json:"logs" validate:"dive,required"`
	}

	EthereumEventLog struct {
		Removed          bool                `json:"removed"`
		LogIndex         EthereumQuantity    `json:"logIndex"`
		TransactionHash  EthereumHexString   `json:"transactionHash"`
		TransactionIndex EthereumQuantity    `json:"transactionIndex"`
		BlockHash        EthereumHexString   `json:"blockHash"`
		BlockNumber      EthereumQuantity    `json:"blockNumber"`
		Address          EthereumHexString   `json:"address" validate:"required"`
		Data             EthereumHexString   `json:"data"`
		Topics           []EthereumHexString `json:"topics"`
	}

	ethereumParserImpl struct {
		logger   *zap.Logger
		validate *validator.Validate
	}
)

func NewEthereumParser(params ParserParams) (Parser, error) {
	return &ethereumParserImpl{
		logger:   log.WithPackage(params.Logger),
		validate: validator.New(),
	}, nil
}

func (v EthereumHexString) MarshalJSON() ([]byte, error) {
	s := fmt.Sprintf(`"%s"`, v)
	return []byte(s), nil
}

func (v *EthereumHexString) UnmarshalJSON(input []byte) error {
	var s string
	if err := json.Unmarshal(input, &s); err != nil {
		return xerrors.Errorf("failed to unmarshal EthereumHexString: %w", err)
	}
	s = strings.ToLower(s)

	*v = EthereumHexString(s)
	return nil
}

func (v EthereumHexString) Value() string {
	return string(v)
}

// Bytes decodes the string strictly: a 0x prefix and an even number of hex digits are required.
func (v EthereumHexString) Bytes() ([]byte, error) {
	if v == "" {
		return nil, nil
	}

	b, err := hexutil.Decode(string(v))
	if err != nil {
		return nil, xerrors.Errorf("failed to decode hex string %v: %w", v, err)
	}

	return b, nil
}

func (v EthereumHexString) Hash() (common.Hash, error) {
	b, err := v.Bytes()
	if err != nil {
		return common.Hash{}, err
	}

	if len(b) != common.HashLength {
		return common.Hash{}, xerrors.Errorf("invalid hash length (value=%v, length=%v)", v, len(b))
	}

	return common.BytesToHash(b), nil
}

func (v EthereumHexString) Address() (common.Address, error) {
	b, err := v.Bytes()
	if err != nil {
		return common.Address{}, err
	}

	if len(b) != common.AddressLength {
		return common.Address{}, xerrors.Errorf("invalid address length (value=%v, length=%v)", v, len(b))
	}

	return common.BytesToAddress(b), nil
}

func (v EthereumQuantity) MarshalJSON() ([]byte, error) {
	s := fmt.Sprintf(`"%s"`, hexutil.EncodeUint64(uint64(v)))
	return []byte(s), nil
}

func (v *EthereumQuantity) UnmarshalJSON(input []byte) error {
	if len(input) > 0 && input[0] != '"' {
		var i uint64
		if err := json.Unmarshal(input, &i); err != nil {
			return xerrors.Errorf("failed to unmarshal EthereumQuantity into uint64: %w", err)
		}

		*v = EthereumQuantity(i)
		return nil
	}

	var s string
	if err := json.Unmarshal(input, &s); err != nil {
		return xerrors.Errorf("failed to unmarshal EthereumQuantity into string: %w", err)
	}

	if s == "" {
		*v = 0
		return nil
	}

	i, err := hexutil.DecodeUint64(s)
	if err != nil {
		return xerrors.Errorf("failed to decode EthereumQuantity %v: %w", s, err)
	}

	*v = EthereumQuantity(i)
	return nil
}

func (v EthereumQuantity) Value() uint64 {
	return uint64(v)
}

func (p *ethereumParserImpl) ParseBlock(ctx context.Context, rawBlock *RawBlock) (*model.Block, error) {
	if rawBlock == nil {
		return nil, xerrors.Errorf("raw block is nil: %w", ErrInvalidBlock)
	}

	header, err := p.parseHeader(rawBlock.Header)
	if err != nil {
		return nil, xerrors.Errorf("failed to parse header: %w", err)
	}

	if header.Number != rawBlock.Height {
		return nil, xerrors.Errorf("block height mismatch (expected=%v, actual=%v): %w", rawBlock.Height, header.Number, ErrInvalidBlock)
	}

	logs, err := p.parseTransactionReceipts(header, rawBlock.TransactionReceipts)
	if err != nil {
		return nil, xerrors.Errorf("failed to parse transaction receipts: %w", err)
	}

	return &model.Block{
		Number: header.Number,
		Hash:   header.Hash,
		Header: header,
		Logs:   logs,
	}, nil
}

func (p *ethereumParserImpl) parseHeader(data []byte) (*model.Header, error) {
	if len(data) == 0 {
		return nil, xerrors.Errorf("header is empty: %w", ErrInvalidBlock)
	}

	var block EthereumBlockHeader
	if err := json.Unmarshal(data, &block); err != nil {
		return nil, xerrors.Errorf("failed to parse block header on unmarshal: %w", err)
	}

	if err := p.validate.Struct(block); err != nil {
		return nil, xerrors.Errorf("failed to parse block header on struct validate: %w", err)
	}

	hash, err := block.Hash.Hash()
	if err != nil {
		return nil, xerrors.Errorf("failed to parse block hash: %w", err)
	}

	header := &model.Header{
		Number: block.Number.Value(),
		Hash:   hash,
	}
	if block.Timestamp != nil {
		header.Timestamp = &timestamppb.Timestamp{Seconds: int64(block.Timestamp.Value())}
	}

	return header, nil
}

func (p *ethereumParserImpl) parseTransactionReceipts(header *model.Header, rawReceipts []json.RawMessage) ([]*model.Log, error) {
	var logs []*model.Log
	for i, rawReceipt := range rawReceipts {
		var receipt EthereumTransactionReceipt
		if err := json.Unmarshal(rawReceipt, &receipt); err != nil {
			return nil, xerrors.Errorf("failed to parse receipt %v: %w", i, err)
		}

		if err := p.validate.Struct(receipt); err != nil {
			return nil, xerrors.Errorf("failed to parse receipt %v on struct validate: %w", i, err)
		}

		blockHash, err := receipt.BlockHash.Hash()
		if err != nil {
			return nil, xerrors.Errorf("failed to parse receipt block hash: %w", err)
		}

		if blockHash != header.Hash || receipt.BlockNumber.Value() != header.Number {
			return nil, xerrors.Errorf(
				"receipt does not belong to block (receipt=%v, expected=%v/%v, actual=%v/%v): %w",
				receipt.TransactionHash, header.Number, header.Hash, receipt.BlockNumber, blockHash, ErrInvalidBlock,
			)
		}

		transactionHash, err := receipt.TransactionHash.Hash()
		if err != nil {
			return nil, xerrors.Errorf("failed to parse transaction hash: %w", err)
		}

		if receipt.TransactionIndex.Value() > math.MaxUint32 {
			return nil, xerrors.Errorf("transaction index out of range (receipt=%v, index=%v): %w", receipt.TransactionHash, receipt.TransactionIndex, ErrInvalidBlock)
		}

		for _, eventLog := range receipt.Logs {
			if eventLog.Removed {
				p.logger.Debug(
					"skipping removed log",
					zap.String("transaction_hash", receipt.TransactionHash.Value()),
					zap.Uint64("log_index", eventLog.LogIndex.Value()),
				)
				continue
			}

			parsed, err := p.parseEventLog(eventLog, transactionHash, uint32(receipt.TransactionIndex.Value()))
			if err != nil {
				return nil, xerrors.Errorf("failed to parse log of transaction %v: %w", receipt.TransactionHash, err)
			}

			logs = append(logs, parsed)
		}
	}

	return logs, nil
}

func (p *ethereumParserImpl) parseEventLog(eventLog *EthereumEventLog, transactionHash common.Hash, transactionIndex uint32) (*model.Log, error) {
	if eventLog.LogIndex.Value() > math.MaxUint32 {
		return nil, xerrors.Errorf("log index out of range (index=%v): %w", eventLog.LogIndex, ErrInconsistentLog)
	}

	if eventLog.TransactionHash != "" {
		hash, err := eventLog.TransactionHash.Hash()
		if err != nil {
			return nil, xerrors.Errorf("failed to parse log transaction hash: %w", err)
		}

		if hash != transactionHash {
			return nil, xerrors.Errorf("log transaction hash mismatch (expected=%v, actual=%v): %w", transactionHash, hash, ErrInconsistentLog)
		}
	}

	address, err := eventLog.Address.Address()
	if err != nil {
		return nil, xerrors.Errorf("failed to parse log address: %w", err)
	}

	data, err := eventLog.Data.Bytes()
	if err != nil {
		return nil, xerrors.Errorf("failed to parse log data: %w", err)
	}

	topics := make([]common.Hash, len(eventLog.Topics))
	for i, topic := range eventLog.Topics {
		topics[i], err = topic.Hash()
		if err != nil {
			return nil, xerrors.Errorf("failed to parse log topic %v: %w", i, err)
		}
	}

	return &model.Log{
		Address:          address,
		Topics:           topics,
		Data:             data,
		Index:            uint32(eventLog.LogIndex.Value()),
		TransactionHash:  transactionHash,
		TransactionIndex: transactionIndex,
	}, nil
}
