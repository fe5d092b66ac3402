package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/coinbase/chaingov/internal/governance/entity"
	"github.com/coinbase/chaingov/internal/utils/testutil"
)

func TestApply(t *testing.T) {
	require := testutil.Require(t)

	changes := &entity.EntityChanges{BlockNumber: 7, BlockHash: "0xab"}
	changes.Append(entity.NewCreate("Proposal", "1").Set("description", entity.StringValue("Test")))
	changes.Append(entity.NewUpdate("Proposer", "0x2a").Set("delegatedVotesRaw", entity.BigIntFromUint64(0)))

	var buf bytes.Buffer
	require.NoError(New(&buf).Apply(context.Background(), changes))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Equal([]string{
		`{"blockNumber":7,"blockHash":"0xab","change":{"entity":"Proposal","id":"1","ordinal":0,"operation":"CREATE","fields":[{"name":"description","newValue":{"string":"Test"}}]}}`,
		`{"blockNumber":7,"blockHash":"0xab","change":{"entity":"Proposer","id":"0x2a","ordinal":1,"operation":"UPDATE","fields":[{"name":"delegatedVotesRaw","newValue":{"bigInt":"0"}}]}}`,
	}, lines)
}

func TestApply_Empty(t *testing.T) {
	require := testutil.Require(t)

	var buf bytes.Buffer
	require.NoError(New(&buf).Apply(context.Background(), &entity.EntityChanges{}))
	require.Empty(buf.String())
}

func TestApply_Cancelled(t *testing.T) {
	require := testutil.Require(t)

	changes := &entity.EntityChanges{}
	changes.Append(entity.NewCreate("Proposal", "1"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	require.ErrorIs(New(&buf).Apply(ctx, changes), context.Canceled)
	require.Empty(buf.String())
}
