// Package config defines the emplo CLI configuration.
//
//   - spec.go: CLIConfig and its defaults
//   - loader.go: layered loading (file, env, flags) and editing of
//     ~/.emplo/cli.yaml
package config
