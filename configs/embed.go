// Package configs embeds the configuration template written by
// `sglog config init`.
package configs

import _ "embed"

// ConfigTemplate is the commented default configuration.
//
//go:embed config.example.yaml
var ConfigTemplate string
