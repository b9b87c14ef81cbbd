// Package config provides centralized configuration management for pickstats.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default values from struct tags (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern PICKSTATS_* for namespacing:
//
//	PICKSTATS_LOGGING_LEVEL=debug
//	PICKSTATS_ANALYSIS_MICROGRAPH_COLUMN=rlnMicrographName
//	PICKSTATS_ANALYSIS_BIN_SIZE=250
//	PICKSTATS_SERVER_PORT=9000
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Tests that do not care about the environment use config.Default().
package config
