package config

import (
	"strconv"
	"strings"

	"github.com/getmockd/mockapi/pkg/store"
)

// Environment variable names.
const (
	EnvConfig           = "MOCKAPI_CONFIG"
	EnvPort             = "MOCKAPI_PORT"
	EnvPrefix           = "MOCKAPI_PREFIX"
	EnvLogLevel         = "MOCKAPI_LOG_LEVEL"
	EnvLogFormat        = "MOCKAPI_LOG_FORMAT"
	EnvStore            = "MOCKAPI_STORE"
	EnvDataDir          = "MOCKAPI_DATA_DIR"
	EnvMongoURI         = "MOCKAPI_MONGO_URI"
	EnvMongoDatabase    = "MOCKAPI_MONGO_DATABASE"
	EnvDependentBaseURL = "MOCKAPI_DEPENDENT_BASE_URL"
	EnvSerializeWrites  = "MOCKAPI_SERIALIZE_WRITES"
	EnvCatalog          = "MOCKAPI_CATALOG"
)

// ApplyEnv overrides cfg with the MOCKAPI_* variables that are set.
// getenv is usually os.Getenv. Unparseable numbers are ignored.
func ApplyEnv(cfg *ServerConfiguration, getenv func(string) string) {
	if v := getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := getenv(EnvPrefix); v != "" {
		cfg.Server.Prefix = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.Logging.Level = v
	}
	if v := getenv(EnvLogFormat); v != "" {
		cfg.Logging.Format = v
	}
	if v := getenv(EnvStore); v != "" {
		cfg.Store.Backend = store.Backend(strings.ToLower(v))
	}
	if v := getenv(EnvDataDir); v != "" {
		cfg.Store.DataDir = v
	}
	if v := getenv(EnvMongoURI); v != "" {
		cfg.Store.MongoURI = v
	}
	if v := getenv(EnvMongoDatabase); v != "" {
		cfg.Store.MongoDatabase = v
	}
	if v := getenv(EnvDependentBaseURL); v != "" {
		cfg.Dispatch.DependentBaseURL = v
	}
	if v := getenv(EnvSerializeWrites); v != "" {
		cfg.Dispatch.SerializeWrites = v == "true" || v == "1" || v == "yes"
	}
	if v := getenv(EnvCatalog); v != "" {
		cfg.Catalog.Files = strings.Split(v, ",")
	}
}
