package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/coinbase/chaingov/internal/config"
	"github.com/coinbase/chaingov/internal/utils/testapp"
	"github.com/coinbase/chaingov/internal/utils/testutil"
)

func TestValidateConfigs(t *testing.T) {
	testapp.TestAllEnvs(t, func(t *testing.T, cfg *config.Config) {
		require := testutil.Require(t)

		require.Equal("ethereum-mainnet", cfg.ConfigName)
		require.Equal("ethereum", cfg.Blockchain())
		require.Equal("mainnet", cfg.Network())
		require.NotEmpty(cfg.Chain.Client.Endpoint)
		require.Equal(30*time.Second, cfg.Chain.Client.HttpTimeout)
		require.Equal(4, cfg.Chain.Client.Retry.MaxAttempts)
		require.Greater(cfg.Indexer.Parallelism, 0)

		require.Equal(common.HexToAddress("0x408ED6354d4973f66138C91495F2f2FCbd8724C3"), cfg.Governance.Contract)
		require.Equal(
			common.HexToHash("0x7d802b724e76878b17b243818a7a8d57833a693a7e583769c27936a8335f60f6"),
			cfg.Governance.ProposalCreated.Signature,
		)
		require.Equal(
			common.HexToHash("0xdec422f2a7ed85489d815e3b723f37b120c8e0303b7b83c5096a848c9735c03c"),
			cfg.Governance.VoteCast.Signature,
		)

		names, types := cfg.Governance.ProposalCreated.PayloadFields()
		require.Equal([]string{
			"proposer", "targets", "values", "signatures", "calldatas", "start_block", "end_block", "reserved", "description",
		}, names)
		require.Equal("address", types[0])
		require.Equal("string", types[len(types)-1])

		names, types = cfg.Governance.VoteCast.PayloadFields()
		require.Equal([]string{"support", "votes", "reserved", "reason"}, names)
		require.Equal([]string{"uint8", "uint256", "bytes32", "string"}, types)

		require.Equal(map[string]string{
			"blockchain": "ethereum",
			"network":    "mainnet",
		}, cfg.GetCommonTags())

		switch cfg.Env() {
		case config.EnvLocal:
			require.Equal("http://localhost:8545", cfg.Chain.Client.Endpoint)
			require.Equal(config.SinkType_CONSOLE, cfg.Sink.Type)
			require.Nil(cfg.StatsD)
			require.Nil(cfg.Tracer)
		case config.EnvDevelopment, config.EnvProduction:
			require.Equal(config.SinkType_SQL, cfg.Sink.Type)
			require.Equal(config.SQLDriverPostgres, cfg.Sink.SQL.Driver)
			require.NotEmpty(cfg.Sink.SQL.DSN)
			require.NotNil(cfg.StatsD)
			require.NotNil(cfg.Tracer)
			require.Equal("localhost:8126", cfg.Tracer.AgentAddress)
		}
	})
}

func TestConfigOverridingByEnvSettings(t *testing.T) {
	require := testutil.Require(t)

	t.Setenv("CHAINGOV_CHAIN_CLIENT_ENDPOINT", "http://node.example.com:8545")
	t.Setenv("CHAINGOV_INDEXER_PARALLELISM", "7")
	t.Setenv("CHAINGOV_SINK_TYPE", "sql")

	cfg, err := config.New()
	require.NoError(err)
	require.Equal("http://node.example.com:8545", cfg.Chain.Client.Endpoint)
	require.Equal(7, cfg.Indexer.Parallelism)
	require.Equal(config.SinkType_SQL, cfg.Sink.Type)
	require.Equal(config.SQLDriverSqlite, cfg.Sink.SQL.Driver)
	require.Equal("chaingov.db", cfg.Sink.SQL.DSN)
}

func TestConfigInvalidSinkType(t *testing.T) {
	require := testutil.Require(t)

	t.Setenv("CHAINGOV_SINK_TYPE", "kafka")

	_, err := config.New()
	require.Error(err)
	require.Contains(err.Error(), "invalid sink type")
}

func TestConfigInvalidContract(t *testing.T) {
	require := testutil.Require(t)

	t.Setenv("CHAINGOV_GOVERNANCE_CONTRACT", "0x1234")

	_, err := config.New()
	require.Error(err)
}

func TestConfigSqlSinkRequiresDSN(t *testing.T) {
	require := testutil.Require(t)

	cfg, err := config.New()
	require.NoError(err)

	cfg.Sink.Type = config.SinkType_SQL
	cfg.Sink.SQL.DSN = ""
	require.Error(cfg.Validate())
}

func TestConfigFromPath(t *testing.T) {
	require := testutil.Require(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "base.yml")
	require.NoError(os.WriteFile(path, []byte(`
config_name: ethereum-sepolia
chain:
  blockchain: ethereum
  network: sepolia
  client:
    endpoint: "http://sepolia.example.com:8545"
governance:
  contract: "0x0000000000000000000000000000000000000001"
  proposal_created:
    signature: "0x0000000000000000000000000000000000000000000000000000000000000002"
    payload:
      - name: proposer
        type: address
      - name: description
        type: string
  vote_cast:
    signature: "0x0000000000000000000000000000000000000000000000000000000000000003"
    payload:
      - name: support
        type: uint8
      - name: votes
        type: uint256
      - name: reason
        type: string
sink:
  type: console
indexer:
  parallelism: 1
`), 0644))
	t.Setenv("CHAINGOV_CONFIG_PATH", path)

	cfg, err := config.New(config.WithBlockchain("ethereum"), config.WithNetwork("sepolia"))
	require.NoError(err)
	require.Equal("ethereum-sepolia", cfg.ConfigName)
	require.Equal(common.HexToAddress("0x01"), cfg.Governance.Contract)
	require.Len(cfg.Governance.VoteCast.Payload, 3)
}

func TestParseConfigName(t *testing.T) {
	require := testutil.Require(t)

	blockchain, network, err := config.ParseConfigName("ethereum-mainnet")
	require.NoError(err)
	require.Equal("ethereum", blockchain)
	require.Equal("mainnet", network)

	blockchain, network, err = config.ParseConfigName("ethereum_goerli")
	require.NoError(err)
	require.Equal("ethereum", blockchain)
	require.Equal("goerli", network)

	_, _, err = config.ParseConfigName("ethereum")
	require.Error(err)
}

func TestParseSinkType(t *testing.T) {
	require := testutil.Require(t)

	sinkType, err := config.ParseSinkType("SQL")
	require.NoError(err)
	require.Equal(config.SinkType_SQL, sinkType)
	require.Equal("sql", sinkType.String())

	_, err = config.ParseSinkType("unspecified")
	require.Error(err)
}

func TestGetEnv(t *testing.T) {
	require := testutil.Require(t)

	t.Setenv(config.EnvVarEnvironment, "production")
	require.Equal(config.EnvProduction, config.GetEnv())

	t.Setenv(config.EnvVarEnvironment, "staging")
	require.Equal(config.EnvLocal, config.GetEnv())
}
