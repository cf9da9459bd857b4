// Package config loads runtime configuration from the environment.
package config
