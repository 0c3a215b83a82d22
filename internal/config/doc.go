// Package config loads, normalizes, and validates xcam configuration.
//
// Configuration comes from a TOML file resolved from an explicit path, the
// project-local xcam.toml, or ~/.config/xcam/config.toml, in that order.
// Missing files fall back to built-in defaults so the daemon and CLI can run
// without any configuration at all.
package config
