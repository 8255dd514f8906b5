// Package config loads the FlowForge application configuration.
//
// Values come from flowforge.yml (searched in the working directory, ./config
// and the user config directory), then a .env file, then FLOWFORGE_*
// environment variables with underscore-separated paths:
//
//	FLOWFORGE_ENGINE_MAX_CONCURRENCY=8
//	FLOWFORGE_LOGGING_LEVEL=debug
//	FLOWFORGE_STORAGE_PROVIDER=s3
//
// Usage:
//
//	cfg, err := config.Load(config.WithConfigFile("flowforge.yml"))
package config
