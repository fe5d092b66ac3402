package model

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/timestamppb"
)

func TestBlock_GetHeader(t *testing.T) {
	require := require.New(t)

	var block *Block
	require.Nil(block.GetHeader())
	require.Nil(block.GetHeader().GetTimestamp())

	block = &Block{Header: &Header{Timestamp: &timestamppb.Timestamp{Seconds: 10}}}
	require.Equal(int64(10), block.GetHeader().GetTimestamp().GetSeconds())
}

func TestLog_Topic(t *testing.T) {
	require := require.New(t)

	log := &Log{Topics: []common.Hash{common.HexToHash("0x01")}}
	topic, ok := log.Topic(0)
	require.True(ok)
	require.Equal(common.HexToHash("0x01"), topic)

	_, ok = log.Topic(1)
	require.False(ok)

	_, ok = (&Log{}).Topic(0)
	require.False(ok)
}
