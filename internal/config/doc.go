// Package config provides configuration management for dynhosts.
//
// Configuration is read from ~/.dynhosts/config.yaml through the Provider
// interface. A missing file yields Default(); fields left out of the file
// keep their defaults.
//
// # Configuration Structure
//
//	socket:
//	  path: /var/run/dynhostsd.socket  # Unix domain socket path
//	hosts:
//	  seed_files:                      # loaded into the table at startup, in order
//	    - /etc/dynhosts/seed.yaml
//	    - /etc/dynhosts/extra.toml
//	resolver:
//	  servers: ["1.1.1.1:53"]          # upstream servers used by pin
//	  timeout: 5s
//	  retries: 1
//
// # Validation
//
//   - Socket path must not be empty
//   - Seed file and resolver server entries must not be empty
//   - Resolver timeout must be at least 1 second
//
// Validation failures wrap ErrInvalidConfig.
package config
