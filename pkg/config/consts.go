package config

const (
	// EnvPrefix scopes every environment variable read by Load.
	EnvPrefix = "RENTABLY"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv = "RENTABLY_APP_ENV"
	EnvDBDSN  = "RENTABLY_DB_DSN"
	EnvDBHost = "RENTABLY_DB_HOST"
	EnvDBUser = "RENTABLY_DB_USER"
	EnvDBName = "RENTABLY_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
