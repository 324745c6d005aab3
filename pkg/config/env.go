package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "triveni"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "TRIVENI_DB_DSN"
	EnvDBHost = "TRIVENI_DB_HOST"
	EnvDBUser = "TRIVENI_DB_USER"
	EnvDBName = "TRIVENI_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
