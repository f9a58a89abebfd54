// Package configs loads keyward's configuration.
//
// Configuration is a single TOML file, by default
// <UserConfigDir>/keyward/config.toml, overridden by $KEYWARD_CONFIG:
//
//	[keys]
//	size = 2048
//	tool = "native"        # or "openssl"
//
//	[cipher]
//	mode = "aes-256-gcm"   # or "aes-256-cbc"
//	oaep_hash = "sha256"   # or "sha1"
//
//	[readiness]
//	command = ["/usr/local/bin/wait-for-mcp"]
//
//	[secrets]
//	command = ["/usr/local/bin/decrypt-conf-value"]
//
//	[audit]
//	path = "/var/log/keyward/audit.jsonl"
//
// A missing file means defaults. Unknown keys and invalid values are errors.
package configs
