package consts

const (
	ServiceName = "chaingov"
	ProjectName = "data/chaingov"

	// EnvPrefix is prepended to every environment variable read by the config loader.
	EnvPrefix = "CHAINGOV"
)
