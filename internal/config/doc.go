// Package config loads and validates the service configuration.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. A YAML file (INVPULSE_CONFIG, or config.yaml / configs/config.yaml)
//	3. Default values (lowest priority)
//
// A .env file (INVPULSE_ENV_FILE, default ".env") is read first and only
// fills variables that are not already set.
//
// # Environment Variables
//
// All environment variables follow the pattern INVPULSE_<SECTION>_<FIELD>:
//
//	INVPULSE_SERVER_PORT=8080
//	INVPULSE_STORE_DRIVER=postgres
//	INVPULSE_STORE_DSN=postgres://...
//	INVPULSE_UPLOAD_MAX_BYTES=10485760
//	INVPULSE_INGEST_ENABLED=true
//
// DATABASE_URL is honoured when INVPULSE_STORE_DSN is empty.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Tests use config.Default() to get a configuration that needs no environment.
package config
