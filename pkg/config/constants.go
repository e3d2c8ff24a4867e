package config

// EnvPrefix scopes all envconfig lookups.
const EnvPrefix = "freshlane"

const (
	AppEnvDev     = "dev"
	AppEnvStaging = "staging"
	AppEnvProd    = "prod"
)

const (
	EnvDBDSN  = "FRESHLANE_DB_DSN"
	EnvDBHost = "FRESHLANE_DB_HOST"
	EnvDBUser = "FRESHLANE_DB_USER"
	EnvDBName = "FRESHLANE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
