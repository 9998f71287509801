// Package config provides centralized configuration management for the sales
// dashboard. It loads configuration from multiple sources, validates it, and
// resolves every file system path the application touches.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables that are explicitly set (highest priority)
//	2. A YAML configuration file
//	3. Default values (lowest priority)
//
// The file is read from SALES_CONFIG_FILE when set, otherwise from the first
// of config.yaml, configs/config.yaml, ../configs/config.yaml that exists.
//
// # Environment Variables
//
// All environment variables follow the pattern SALES_<SECTION>_<KEY>:
//
//	SALES_SERVER_PORT=8080
//	SALES_LOGGING_LEVEL=debug
//	SALES_PATHS_DATA_DIR=/srv/sales
//	SALES_DATASET_PRICE_POLICY=digits
//	SALES_DATASET_SOURCE_FILES=Sales_April_2019.csv,Sales_May_2019.csv
//	SALES_DATASET_WATCH=true
//
// # Path Management
//
// Relative directories are resolved against SALES_PATHS_BASE_DIR, or the
// directory holding the executable when unset:
//
//	paths, err := cfg.ResolvePaths()
//	files := paths.SourcePaths(cfg.Dataset.SourceFiles) // "Sales_*_2019.csv" expands
//
// # Testing
//
// Use Default() to obtain a configuration that needs no environment.
package config
