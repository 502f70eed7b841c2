package config

type Config interface {
	EnvConfig
	CorsConfig
	OAuthConfig
	UpdaterConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	OAuth
	Updater
}

func New() Config {
	return mainConfig{}
}
