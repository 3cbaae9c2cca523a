// Package config provides YAML configuration loading and validation
// for the ElegantPraat service.
package config
