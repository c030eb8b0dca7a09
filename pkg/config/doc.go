// Package config loads application configuration from environment variables
// and optional YAML files.
//
// It wraps `github.com/joho/godotenv`, `github.com/caarlos0/env/v11` and
// `gopkg.in/yaml.v3`:
//
//   - LoadEnv reads one or more `.env` files into the process environment
//     (falling back to `.env` in the working directory).
//   - Load parses the environment into any struct using `env` field tags and
//     caches the result per type, so each config is parsed once.
//   - LoadYAML overlays a YAML file on an already populated struct using its
//     `yaml` field tags.
//   - MustLoad panics on failure for configuration the process cannot run
//     without.
//
// # Usage
//
//	if err := config.LoadEnv(); err != nil {
//		log.Fatal(err)
//	}
//
//	var cfg session.Config
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//	if path := os.Getenv("SESSIOND_CONFIG"); path != "" {
//		if err := config.LoadYAML(path, &cfg); err != nil {
//			log.Fatal(err)
//		}
//	}
//
// # Error Handling
//
//   - `ErrParsingConfig`   – failed to parse env vars into struct.
//   - `ErrNilPointer`      – nil pointer passed to a loader.
//   - `ErrLoadingEnvFile`  – an explicit `.env` file could not be read.
//   - `ErrParsingFile`     – a YAML file could not be read or decoded.
//
// Use ResetCache between tests that change the environment.
package config
