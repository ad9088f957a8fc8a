package main

import "os"

// oracleAPIKeyFromEnv reads the shared oracle credential. An empty value
// disables Tier 3 (and the acquisition pipeline's HTTP fetch/extract
// calls degrade to their negative-cache path) rather than attempting an
// unauthenticated request.
func oracleAPIKeyFromEnv() string {
	return os.Getenv("PYMIGRATE_ORACLE_API_KEY")
}

// oracleBaseURLFromEnv returns the configured oracle collaborator base
// URL, defaulting to pymigrate's hosted default.
func oracleBaseURLFromEnv() string {
	if url := os.Getenv("PYMIGRATE_ORACLE_URL"); url != "" {
		return url
	}
	return "https://oracle.pymigrate.dev"
}
