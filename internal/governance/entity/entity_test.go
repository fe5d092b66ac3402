package entity

import (
	"encoding/json"
	"testing"

	"golang.org/x/xerrors"

	"github.com/coinbase/chaingov/internal/utils/testutil"
)

func TestBuilder(t *testing.T) {
	require := testutil.Require(t)

	changes := &EntityChanges{BlockNumber: 1, BlockHash: "0x01"}
	first := changes.Append(NewCreate("Proposal", "42").
		Set("description", StringValue("Test")).
		Set("quorumVotes", BigIntFromUint64(0)))
	second := changes.Append(NewUpdate("Proposer", "0x2a").
		Set("id", StringValue("0x2a")))

	require.Equal(2, changes.Len())
	require.Equal(uint64(0), first.Ordinal)
	require.Equal(uint64(1), second.Ordinal)
	require.Equal(OperationCreate, first.Operation)
	require.Equal(OperationUpdate, second.Operation)
	require.Equal("Proposal/42", first.Key())

	require.Len(first.Fields, 2)
	require.Equal("description", first.Fields[0].Name)
	require.Equal("quorumVotes", first.Fields[1].Name)

	value, ok := first.Field("quorumVotes")
	require.True(ok)
	text, ok := value.AsString()
	require.True(ok)
	require.Equal("0", text)

	_, ok = first.Field("missing")
	require.False(ok)
}

func TestEntityChanges_Len_Nil(t *testing.T) {
	require := testutil.Require(t)

	var changes *EntityChanges
	require.Equal(0, changes.Len())
}

func TestBigIntValue(t *testing.T) {
	require := testutil.Require(t)

	v, err := BigIntValue("10")
	require.NoError(err)
	require.Equal(ValueKindBigInt, v.Kind())
	text, _ := v.AsString()
	require.Equal("10", text)

	for _, input := range []string{"", "-1", "1e3", "0x0a"} {
		_, err := BigIntValue(input)
		require.Error(err, input)
		require.True(xerrors.Is(err, ErrInvalidValue), input)
	}
}

func TestValueJSON(t *testing.T) {
	tests := []struct {
		name     string
		value    Value
		expected string
	}{
		{name: "string", value: StringValue("Pending"), expected: `{"string":"Pending"}`},
		{name: "bigInt", value: BigIntFromUint64(10), expected: `{"bigInt":"10"}`},
		{name: "int32", value: Int32Value(-3), expected: `{"int32":-3}`},
		{name: "bool", value: BoolValue(false), expected: `{"bool":false}`},
		{name: "bytes", value: BytesValue([]byte{0xde, 0xad}), expected: `{"bytes":"0xdead"}`},
		{name: "stringArray", value: StringArrayValue(nil), expected: `{"stringArray":[]}`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := testutil.Require(t)

			data, err := json.Marshal(test.value)
			require.NoError(err)
			require.Equal(test.expected, string(data))

			var decoded Value
			require.NoError(json.Unmarshal(data, &decoded))
			require.Equal(test.value.Kind(), decoded.Kind())

			again, err := json.Marshal(decoded)
			require.NoError(err)
			require.Equal(test.expected, string(again))
		})
	}
}

func TestValueJSON_Invalid(t *testing.T) {
	require := testutil.Require(t)

	_, err := json.Marshal(Value{})
	require.Error(err)

	var v Value
	require.Error(json.Unmarshal([]byte(`{}`), &v))
	require.Error(json.Unmarshal([]byte(`{"bigInt":"-5"}`), &v))
}

func TestEntityChangeJSON(t *testing.T) {
	require := testutil.Require(t)

	changes := &EntityChanges{BlockNumber: 7, BlockHash: "0xab"}
	changes.Append(NewUpdate("Voter", "0xb0").
		Set("id", StringValue("0xb0")).
		Set("delegatedVotesRaw", BigIntFromUint64(0)))

	data, err := json.Marshal(changes)
	require.NoError(err)
	require.Equal(
		`{"blockNumber":7,"blockHash":"0xab","entityChanges":[{"entity":"Voter","id":"0xb0","ordinal":0,"operation":"UPDATE","fields":[{"name":"id","newValue":{"string":"0xb0"}},{"name":"delegatedVotesRaw","newValue":{"bigInt":"0"}}]}]}`,
		string(data),
	)

	var decoded EntityChanges
	require.NoError(json.Unmarshal(data, &decoded))
	require.Equal(changes, &decoded)
}

func TestParseOperation(t *testing.T) {
	require := testutil.Require(t)

	op, err := ParseOperation("CREATE")
	require.NoError(err)
	require.Equal(OperationCreate, op)

	_, err = ParseOperation("DELETE")
	require.True(xerrors.Is(err, ErrInvalidOperation))

	_, err = ParseOperation("UNSPECIFIED")
	require.Error(err)
}
