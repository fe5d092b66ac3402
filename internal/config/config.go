package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"reflect"
	"runtime"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"golang.org/x/xerrors"

	"github.com/coinbase/chaingov/config"
	"github.com/coinbase/chaingov/internal/utils/consts"
)

type (
	Config struct {
		ConfigName string           `mapstructure:"config_name" validate:"required"`
		Chain      ChainConfig      `mapstructure:"chain"`
		Governance GovernanceConfig `mapstructure:"governance"`
		Sink       SinkConfig       `mapstructure:"sink"`
		Indexer    IndexerConfig    `mapstructure:"indexer"`
		StatsD     *StatsDConfig    `mapstructure:"statsd"`
		Tracer     *TracerConfig    `mapstructure:"tracer"`

		env Env
	}

	ChainConfig struct {
		Blockchain string       `mapstructure:"blockchain" validate:"required"`
		Network    string       `mapstructure:"network" validate:"required"`
		Client     ClientConfig `mapstructure:"client"`
	}

	ClientConfig struct {
		Endpoint    string            `mapstructure:"endpoint" validate:"required,url"`
		RPS         int               `mapstructure:"rps" validate:"min=0"`
		Retry       ClientRetryConfig `mapstructure:"retry"`
		HttpTimeout time.Duration     `mapstructure:"http_timeout"`
	}

	ClientRetryConfig struct {
		MaxAttempts int `mapstructure:"max_attempts"`
	}

	GovernanceConfig struct {
		// Contract is the governor whose logs are decoded. Logs emitted by any other address are ignored.
		Contract        common.Address `mapstructure:"contract" validate:"required"`
		ProposalCreated EventConfig    `mapstructure:"proposal_created"`
		VoteCast        EventConfig    `mapstructure:"vote_cast"`
	}

	EventConfig struct {
		// Signature is the keccak256 hash of the event signature, i.e. the expected topic 0.
		Signature common.Hash `mapstructure:"signature" validate:"required"`
		// Payload lists the head fields of the non-indexed event data, in ABI order.
		Payload []PayloadFieldConfig `mapstructure:"payload" validate:"required,min=1,dive"`
	}

	PayloadFieldConfig struct {
		Name string `mapstructure:"name" validate:"required"`
		Type string `mapstructure:"type" validate:"required"`
	}

	SinkConfig struct {
		Type SinkType  `mapstructure:"type" validate:"required"`
		SQL  SQLConfig `mapstructure:"sql"`
	}

	SinkType int32

	SQLConfig struct {
		Driver      string `mapstructure:"driver" validate:"omitempty,oneof=sqlite postgres mysql"`
		DSN         string `mapstructure:"dsn"`
		AutoMigrate bool   `mapstructure:"auto_migrate"`
	}

	IndexerConfig struct {
		Parallelism int `mapstructure:"parallelism" validate:"required,gt=0"`
	}

	StatsDConfig struct {
		Address string `mapstructure:"address" validate:"required"`
		Prefix  string `mapstructure:"prefix"`
	}

	// TracerConfig enables Datadog tracing. Spans are dropped when it is absent.
	TracerConfig struct {
		AgentAddress string  `mapstructure:"agent_address" validate:"required"`
		SampleRate   float64 `mapstructure:"sample_rate" validate:"min=0,max=1"`
	}

	ConfigOption func(options *configOptions)

	Env string

	configOptions struct {
		Blockchain string `validate:"required"`
		Network    string `validate:"required"`
		Env        Env    `validate:"required,oneof=production development local"`
	}

	// derivedConfig defines a callback where a config struct can fill in its fields based on the global config.
	derivedConfig interface {
		DeriveConfig(cfg *Config)
	}
)

var (
	_ derivedConfig = (*ClientConfig)(nil)
	_ derivedConfig = (*SinkConfig)(nil)

	SinkType_value = map[string]int32{
		"UNSPECIFIED": 0,
		"CONSOLE":     1,
		"SQL":         2,
	}
)

const (
	EnvVarConfigName  = "CHAINGOV_CONFIG"
	EnvVarEnvironment = "CHAINGOV_ENVIRONMENT"
	EnvVarConfigRoot  = "CHAINGOV_CONFIG_ROOT"
	EnvVarConfigPath  = "CHAINGOV_CONFIG_PATH"

	CurrentFileName = "/internal/config/config.go"

	DefaultConfigName = "ethereum-mainnet"

	EnvBase        Env = "base"
	EnvLocal       Env = "local"
	EnvDevelopment Env = "development"
	EnvProduction  Env = "production"
	envSecrets     Env = "secrets" // .secrets.yml is merged into the env-specific config

	SinkType_UNSPECIFIED SinkType = 0
	SinkType_CONSOLE     SinkType = 1
	SinkType_SQL         SinkType = 2

	SQLDriverSqlite   = "sqlite"
	SQLDriverPostgres = "postgres"
	SQLDriverMysql    = "mysql"

	tagBlockchain = "blockchain"
	tagNetwork    = "network"

	endpointLocal = "http://localhost:8545"
	dsnLocal      = "chaingov.db"
)

func New(opts ...ConfigOption) (*Config, error) {
	validate := validator.New()

	configOpts, err := getConfigOptions(getConfigName(), opts...)
	if err != nil {
		return nil, xerrors.Errorf("failed to get config options: %w", err)
	}

	if err := validate.Struct(configOpts); err != nil {
		return nil, xerrors.Errorf("failed to validate config options: %w", err)
	}

	configReader, err := getConfigData(EnvBase, configOpts.Blockchain, configOpts.Network)
	if err != nil {
		return nil, xerrors.Errorf("failed to locate config file: %w", err)
	}

	cfg := Config{
		env: configOpts.Env,
	}

	v := viper.New()
	v.SetConfigName(string(EnvBase))
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.AllowEmptyEnv(true)
	// e.g. CHAINGOV_CHAIN_CLIENT_ENDPOINT overrides chain.client.endpoint.
	v.SetEnvPrefix(consts.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadConfig(configReader); err != nil {
		return nil, xerrors.Errorf("failed to read config: %w", err)
	}

	if err := mergeInConfig(v, configOpts, configOpts.Env); err != nil {
		return nil, xerrors.Errorf("failed to merge in %v config: %w", configOpts.Env, err)
	}

	// No-op unless a .secrets.yml is present on the file system.
	if err := mergeInConfig(v, configOpts, envSecrets); err != nil {
		return nil, xerrors.Errorf("failed to merge in %v config: %w", envSecrets, err)
	}

	if err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		stringToSinkTypeHookFunc(),
	))); err != nil {
		return nil, xerrors.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.setDerivedConfigs(reflect.ValueOf(&cfg))

	if err := cfg.Validate(); err != nil {
		return nil, xerrors.Errorf("failed to validate config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the struct tags and the constraints spanning multiple fields.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Sink.Type == SinkType_SQL {
		if c.Sink.SQL.Driver == "" {
			return xerrors.New("sql sink requires sink.sql.driver")
		}

		if c.Sink.SQL.DSN == "" {
			return xerrors.New("sql sink requires sink.sql.dsn")
		}
	}

	return nil
}

func GetEnv() Env {
	switch env := Env(os.Getenv(EnvVarEnvironment)); env {
	case EnvDevelopment, EnvProduction:
		return env
	default:
		return EnvLocal
	}
}

func getConfigName() string {
	configName, ok := os.LookupEnv(EnvVarConfigName)
	if !ok {
		configName = DefaultConfigName
	}
	return configName
}

func GetConfigRoot() string {
	return os.Getenv(EnvVarConfigRoot)
}

func GetConfigPath() string {
	return os.Getenv(EnvVarConfigPath)
}

func mergeInConfig(v *viper.Viper, configOpts *configOptions, env Env) error {
	if configReader, err := getConfigData(env, configOpts.Blockchain, configOpts.Network); err == nil {
		v.SetConfigName(string(env))
		if err := v.MergeConfig(configReader); err != nil {
			return xerrors.Errorf("failed to merge config %v: %w", env, err)
		}
	}
	return nil
}

func (c *Config) Env() Env {
	return c.env
}

func (c *Config) Blockchain() string {
	return c.Chain.Blockchain
}

func (c *Config) Network() string {
	return c.Chain.Network
}

func (c *Config) GetCommonTags() map[string]string {
	return map[string]string{
		tagBlockchain: c.Blockchain(),
		tagNetwork:    c.Network(),
	}
}

// setDerivedConfigs recursively calls DeriveConfig on all the derivedConfig.
func (c *Config) setDerivedConfigs(v reflect.Value) {
	if v.CanInterface() {
		if oc, ok := v.Interface().(derivedConfig); ok {
			oc.DeriveConfig(c)
			return
		}
	}

	elem := v.Elem()
	for i := 0; i < elem.NumField(); i++ {
		field := elem.Field(i)
		if field.Kind() == reflect.Struct && field.CanAddr() && field.Addr().CanInterface() {
			c.setDerivedConfigs(field.Addr())
		}
	}
}

func WithBlockchain(blockchain string) ConfigOption {
	return func(opts *configOptions) {
		opts.Blockchain = blockchain
	}
}

func WithNetwork(network string) ConfigOption {
	return func(opts *configOptions) {
		opts.Network = network
	}
}

func WithEnvironment(env Env) ConfigOption {
	return func(opts *configOptions) {
		opts.Env = env
	}
}

func getConfigOptions(configName string, opts ...ConfigOption) (*configOptions, error) {
	configOpts := &configOptions{}
	for _, opt := range opts {
		opt(configOpts)
	}

	if configOpts.Env == "" {
		configOpts.Env = GetEnv()
	}

	if configOpts.Blockchain == "" && configOpts.Network == "" {
		blockchain, network, err := ParseConfigName(configName)
		if err != nil {
			return nil, xerrors.Errorf("failed to parse config name: %w", err)
		}

		configOpts.Blockchain = blockchain
		configOpts.Network = network
	}

	return configOpts, nil
}

// ParseConfigName splits a config name, such as "ethereum-mainnet", into blockchain and network.
func ParseConfigName(configName string) (string, string, error) {
	configName = strings.ReplaceAll(configName, "_", "-")
	parts := strings.Split(configName, "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", xerrors.Errorf("config name is invalid: %v", configName)
	}

	return parts[0], parts[1], nil
}

func getConfigData(env Env, blockchain string, network string) (io.Reader, error) {
	configRoot := GetConfigRoot()
	if env == envSecrets {
		// .secrets.yml is never embedded in config.Store.
		if len(configRoot) == 0 {
			_, filename, _, ok := runtime.Caller(0)
			if !ok {
				return nil, xerrors.Errorf("failed to recover the filename information")
			}
			rootDir := strings.TrimSuffix(filename, CurrentFileName)
			configRoot = fmt.Sprintf("%v/config", rootDir)
		}

		configPath := fmt.Sprintf("%v/%v/%v/%v/.secrets.yml", configRoot, consts.ServiceName, blockchain, network)
		reader, err := os.Open(configPath)
		if err != nil {
			return nil, xerrors.Errorf("failed to read config file %v: %w", configPath, err)
		}
		return reader, nil
	}

	configPath := GetConfigPath()
	if len(configPath) == 0 && len(configRoot) > 0 {
		configPath = fmt.Sprintf("%v/%v/%v/%v/%v.yml", configRoot, consts.ServiceName, blockchain, network, env)
	}

	if len(configPath) > 0 {
		// CHAINGOV_CONFIG_PATH replaces the base config only.
		if env != EnvBase && GetConfigPath() != "" {
			return nil, xerrors.Errorf("env config %v is not read when %v is set", env, EnvVarConfigPath)
		}

		reader, err := os.Open(configPath)
		if err != nil {
			return nil, xerrors.Errorf("failed to read config file %v: %w", configPath, err)
		}
		return reader, nil
	}

	configPath = fmt.Sprintf("%v/%v/%v/%v.yml", consts.ServiceName, blockchain, network, env)
	data, err := config.Store.ReadFile(configPath)
	if err != nil {
		return nil, xerrors.Errorf("failed to read config file %v: %w", configPath, err)
	}

	return bytes.NewBuffer(data), nil
}

func keysWithoutUnspecified[V interface{}](m map[string]V) []string {
	var keys []string
	for k := range m {
		if k != "UNSPECIFIED" {
			keys = append(keys, k)
		}
	}
	return keys
}

func stringToSinkTypeHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String {
			return data, nil
		}
		if t != reflect.TypeOf(SinkType_UNSPECIFIED) {
			return data, nil
		}

		v, ok := SinkType_value[strings.ToUpper(data.(string))]
		if !ok {
			return nil, xerrors.Errorf(
				"invalid sink type: %v, possible values are: %v",
				data, strings.ToLower(strings.Join(keysWithoutUnspecified(SinkType_value), ", ")))
		}
		return SinkType(v), nil
	}
}

// ParseSinkType converts a name such as "sql" into a SinkType.
func ParseSinkType(name string) (SinkType, error) {
	v, ok := SinkType_value[strings.ToUpper(name)]
	if !ok || v == int32(SinkType_UNSPECIFIED) {
		return SinkType_UNSPECIFIED, xerrors.Errorf("invalid sink type: %v", name)
	}
	return SinkType(v), nil
}

func (t SinkType) String() string {
	for k, v := range SinkType_value {
		if v == int32(t) {
			return strings.ToLower(k)
		}
	}
	return fmt.Sprintf("SinkType(%d)", int32(t))
}

func (c *ClientConfig) DeriveConfig(cfg *Config) {
	if c.Endpoint == "" && cfg.Env() == EnvLocal {
		c.Endpoint = endpointLocal
	}
}

func (c *SinkConfig) DeriveConfig(cfg *Config) {
	if c.Type != SinkType_SQL {
		return
	}

	if c.SQL.Driver == "" {
		c.SQL.Driver = SQLDriverSqlite
	}

	if c.SQL.Driver == SQLDriverSqlite && c.SQL.DSN == "" && cfg.Env() == EnvLocal {
		c.SQL.DSN = dsnLocal
	}
}

// PayloadFields returns the payload layout as parallel name and type lists.
func (c *EventConfig) PayloadFields() ([]string, []string) {
	names := make([]string, len(c.Payload))
	types := make([]string, len(c.Payload))
	for i, field := range c.Payload {
		names[i] = field.Name
		types[i] = field.Type
	}
	return names, types
}
